// Package conversation binds Watson Conversation credentials to an
// assistantv1 client.
package conversation

import (
	"github.com/watson-developer-cloud/go-sdk/v2/assistantv1"

	"github.com/eugenenazirov/cloud-bindings/internal/binding"
	"github.com/eugenenazirov/cloud-bindings/internal/services/watson"
)

// ServiceName is the name the client is registered under.
const ServiceName = "watson-conversation"

// Configuration keys. KeyURL and KeyVersion are optional.
const (
	keyPrefix   = "watson_conversation"
	KeyUsername = keyPrefix + "_username"
	KeyPassword = keyPrefix + "_password"
	KeyURL      = keyPrefix + "_url"
	KeyVersion  = keyPrefix + "_version"
)

// DefaultVersion is the API version date sent when none is configured.
const DefaultVersion = "2018-02-16"

// New resolves the credentials and builds an assistant client.
func New(env binding.Getter, deps binding.Deps) (*assistantv1.AssistantV1, error) {
	creds, err := watson.LoadCredentials(env, keyPrefix, assistantv1.DefaultServiceURL)
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

	client, err := assistantv1.NewAssistantV1(&assistantv1.AssistantV1Options{
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

// GetService is the binding.Factory for Watson Conversation.
func GetService(env binding.Getter, deps binding.Deps) (string, any, error) {
	client, err := New(env, deps)
	if err != nil {
		return ServiceName, nil, err
	}
	return ServiceName, client, nil
}
