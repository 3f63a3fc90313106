// Package watson holds the wiring shared by the Watson service bindings.
package watson

import (
	"net/http"

	"github.com/IBM/go-sdk-core/v5/core"

	"github.com/eugenenazirov/cloud-bindings/internal/binding"
)

// LearningOptOutHeader asks Watson not to use request data to improve its models.
const LearningOptOutHeader = "X-Watson-Learning-Opt-Out"

// Credentials are the basic-auth values plus an optional endpoint override.
type Credentials struct {
	Username string
	Password string
	URL      string
}

// LoadCredentials resolves <prefix>_username, <prefix>_password and the
// optional <prefix>_url. Errors for the required keys are returned unchanged.
func LoadCredentials(env binding.Getter, prefix, defaultURL string) (Credentials, error) {
	values, err := binding.Require(env, prefix+"_username", prefix+"_password")
	if err != nil {
		return Credentials{}, err
	}
	url, err := binding.Optional(env, prefix+"_url", defaultURL)
	if err != nil {
		return Credentials{}, err
	}
	return Credentials{
		Username: values[prefix+"_username"],
		Password: values[prefix+"_password"],
		URL:      url,
	}, nil
}

// Authenticator builds the basic authenticator. The SDK validates the values.
func (c Credentials) Authenticator() (*core.BasicAuthenticator, error) {
	return core.NewBasicAuthenticator(c.Username, c.Password)
}

// Configure applies the learning opt-out header and the shared HTTP client.
func Configure(service *core.BaseService, deps binding.Deps) {
	service.SetDefaultHeaders(http.Header{
		LearningOptOutHeader: []string{"true"},
	})
	if deps.HTTPClient != nil {
		service.SetHTTPClient(deps.HTTPClient)
	}
}
