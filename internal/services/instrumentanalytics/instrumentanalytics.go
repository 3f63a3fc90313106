// Package instrumentanalytics binds the Finance historical and simulated
// instrument analytics services to a small REST client.
package instrumentanalytics

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/eugenenazirov/cloud-bindings/internal/binding"
)

// AccessTokenHeader carries the service access token.
const AccessTokenHeader = "X-IBM-Access-Token"

// ErrInvalidCredentials is returned when a resolved credential is empty or malformed.
var ErrInvalidCredentials = errors.New("invalid instrument analytics credentials")

var validate = validator.New()

// Variant identifies one of the two analytics services.
type Variant struct {
	ServiceName string
	keyPrefix   string
}

// The two bindings share a client but not their credentials.
var (
	Historical = Variant{
		ServiceName: "finance-historical-instrument-analytics",
		keyPrefix:   "finance_historical_instrument_analytics",
	}
	Simulated = Variant{
		ServiceName: "finance-simulated-instrument-analytics",
		keyPrefix:   "finance_simulated_instrument_analytics",
	}
)

// KeyURI is the configuration key for the service endpoint.
func (v Variant) KeyURI() string { return v.keyPrefix + "_uri" }

// KeyAccessToken is the configuration key for the access token.
func (v Variant) KeyAccessToken() string { return v.keyPrefix + "_accesstoken" }

type credentials struct {
	URI         string `validate:"required,url"`
	AccessToken string `validate:"required"`
}

// Client calls an instrument analytics endpoint.
type Client struct {
	baseURL     *url.URL
	accessToken string
	http        *http.Client
}

// New resolves the variant's keys and builds a client on the shared HTTP client.
func (v Variant) New(env binding.Getter, deps binding.Deps) (*Client, error) {
	values, err := binding.Require(env, v.KeyURI(), v.KeyAccessToken())
	if err != nil {
		return nil, err
	}

	creds := credentials{
		URI:         strings.TrimSpace(values[v.KeyURI()]),
		AccessToken: values[v.KeyAccessToken()],
	}
	if err := validate.Struct(creds); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidCredentials, v.ServiceName, err)
	}

	base, err := url.Parse(strings.TrimRight(creds.URI, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidCredentials, v.ServiceName, err)
	}

	httpClient := deps.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{baseURL: base, accessToken: creds.AccessToken, http: httpClient}, nil
}

// GetService is the binding.Factory for the variant.
func (v Variant) GetService(env binding.Getter, deps binding.Deps) (string, any, error) {
	client, err := v.New(env, deps)
	if err != nil {
		return v.ServiceName, nil, err
	}
	return v.ServiceName, client, nil
}

// BaseURL returns the service endpoint with a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Do sends a request to path, relative to the service endpoint, with the
// access token attached. The caller closes the response body.
func (c *Client) Do(ctx context.Context, method, path, contentType string, body io.Reader) (*http.Response, error) {
	ref, err := url.Parse(strings.TrimLeft(path, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse path: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.ResolveReference(ref).String(), body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set(AccessTokenHeader, c.accessToken)
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	return c.http.Do(req)
}
