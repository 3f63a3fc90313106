// Package languagetranslator binds Watson Language Translator credentials to a
// languagetranslatorv3 client.
package languagetranslator

import (
	"github.com/watson-developer-cloud/go-sdk/v2/languagetranslatorv3"

	"github.com/eugenenazirov/cloud-bindings/internal/binding"
	"github.com/eugenenazirov/cloud-bindings/internal/services/watson"
)

// ServiceName is the name the client is registered under.
const ServiceName = "watson-language-translator"

// Configuration keys. KeyURL and KeyVersion are optional.
const (
	keyPrefix   = "watson_language_translator"
	KeyUsername = keyPrefix + "_username"
	KeyPassword = keyPrefix + "_password"
	KeyURL      = keyPrefix + "_url"
	KeyVersion  = keyPrefix + "_version"
)

// DefaultVersion is the API version date sent when none is configured.
const DefaultVersion = "2018-05-01"

// New resolves the credentials and builds a translator client.
func New(env binding.Getter, deps binding.Deps) (*languagetranslatorv3.LanguageTranslatorV3, error) {
	creds, err := watson.LoadCredentials(env, keyPrefix, languagetranslatorv3.DefaultServiceURL)
	if err != nil {
		return nil, err
	}
	version, err := binding.Optional(env, KeyVersion, DefaultVersion)
	if err != nil {
		return nil, err
	}
	auth, err := creds.Authenticator()
	if err != nil {
		return nil, err
	}

	client, err := languagetranslatorv3.NewLanguageTranslatorV3(&languagetranslatorv3.LanguageTranslatorV3Options{
		URL:           creds.URL,
		Version:       &version,
		Authenticator: auth,
	})
	if err != nil {
		return nil, err
	}
	watson.Configure(client.Service, deps)
	return client, nil
}

// GetService is the binding.Factory for Watson Language Translator.
func GetService(env binding.Getter, deps binding.Deps) (string, any, error) {
	client, err := New(env, deps)
	if err != nil {
		return ServiceName, nil, err
	}
	return ServiceName, client, nil
}
