// Package binding turns configuration into constructed service clients.
// Every service binding exposes a Factory that reads its keys from a Getter
// and returns the service name with the client it built. Bind runs the
// factories once at startup and collects the results in a Manager, which the
// rest of the application queries by service name.
package binding
