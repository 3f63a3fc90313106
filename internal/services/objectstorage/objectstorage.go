// Package objectstorage binds IBM Cloud Object Storage (OpenStack Swift)
// credentials to a github.com/ncw/swift connection using Keystone v3 auth.
package objectstorage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/ncw/swift/v2"

	"github.com/eugenenazirov/cloud-bindings/internal/binding"
)

// ServiceName is the name the connection is registered under.
const ServiceName = "object-storage"

// Configuration keys.
const (
	KeyAuthURL   = "object_storage_authurl"
	KeyUserID    = "object_storage_user_id"
	KeyPassword  = "object_storage_password"
	KeyProjectID = "object_storage_project_id"
	KeyRegion    = "object_storage_region"
)

const (
	authVersion  = 3
	identityPath = "/v3"
)

// ErrInvalidCredentials is returned when a resolved credential is empty or malformed.
var ErrInvalidCredentials = errors.New("invalid object storage credentials")

var validate = validator.New()

// Credentials are the resolved configuration values.
type Credentials struct {
	AuthURL   string `validate:"required,url"`
	UserID    string `validate:"required"`
	Password  string `validate:"required"`
	ProjectID string `validate:"required"`
	Region    string `validate:"required"`
}

// LoadCredentials resolves every key. Provider errors are returned unchanged.
func LoadCredentials(env binding.Getter) (Credentials, error) {
	values, err := binding.Require(env, KeyAuthURL, KeyUserID, KeyPassword, KeyProjectID, KeyRegion)
	if err != nil {
		return Credentials{}, err
	}

	creds := Credentials{
		AuthURL:   NormalizeAuthURL(values[KeyAuthURL]),
		UserID:    values[KeyUserID],
		Password:  values[KeyPassword],
		ProjectID: values[KeyProjectID],
		Region:    values[KeyRegion],
	}
	if err := validate.Struct(creds); err != nil {
		return Credentials{}, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}
	return creds, nil
}

// NormalizeAuthURL appends the Keystone v3 path when the URL does not already
// reference it.
func NormalizeAuthURL(authURL string) string {
	authURL = strings.TrimSpace(authURL)
	if authURL == "" || strings.Contains(authURL, identityPath) {
		return authURL
	}
	return strings.TrimRight(authURL, "/") + identityPath
}

// NewConnection builds an unauthenticated connection from creds. The first
// call against Swift authenticates lazily.
func NewConnection(creds Credentials, deps binding.Deps) *swift.Connection {
	conn := &swift.Connection{
		AuthUrl:     creds.AuthURL,
		AuthVersion: authVersion,
		UserName:    creds.UserID,
		UserId:      creds.UserID,
		ApiKey:      creds.Password,
		TenantId:    creds.ProjectID,
		Region:      creds.Region,
	}
	if deps.HTTPClient != nil {
		conn.Transport = deps.HTTPClient.Transport
		if deps.HTTPClient.Timeout > 0 {
			conn.Timeout = deps.HTTPClient.Timeout
		}
	}
	return conn
}

// New resolves the credentials and builds the connection.
func New(env binding.Getter, deps binding.Deps) (*swift.Connection, error) {
	creds, err := LoadCredentials(env)
	if err != nil {
		return nil, err
	}
	return NewConnection(creds, deps), nil
}

// GetService is the binding.Factory for object storage.
func GetService(env binding.Getter, deps binding.Deps) (string, any, error) {
	conn, err := New(env, deps)
	if err != nil {
		return ServiceName, nil, err
	}
	return ServiceName, conn, nil
}

// Containers lists container names through a swift connection.
type Containers struct {
	conn *swift.Connection
}

// NewContainers wraps conn.
func NewContainers(conn *swift.Connection) *Containers {
	return &Containers{conn: conn}
}

// ContainerNames returns every container visible to the project.
func (c *Containers) ContainerNames(ctx context.Context) ([]string, error) {
	names, err := c.conn.ContainerNamesAll(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("list containers: %w", err)
	}
	return names, nil
}
