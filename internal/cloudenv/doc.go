// Package cloudenv resolves named configuration keys to string values for
// service bindings. A mappings file lists, for every key, the search patterns
// to try in order: Cloud Foundry VCAP_SERVICES paths, user-provided service
// credentials, plain or JSON-valued environment variables, and local JSON
// files. The first pattern that yields a value wins.
package cloudenv
