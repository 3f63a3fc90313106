package binding

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	// ErrNotBound is returned when no client is registered under a name.
	ErrNotBound = errors.New("service not bound")
	// ErrWrongType is returned when a registered client has an unexpected type.
	ErrWrongType = errors.New("service client has unexpected type")
	// ErrDuplicate is returned when a name is registered twice.
	ErrDuplicate = errors.New("service already bound")
	// ErrInvalidName is returned for an empty service name or a nil client.
	ErrInvalidName = errors.New("service name and client are required")
)

// Manager keeps constructed clients by service name and guards access with a
// RWMutex.
type Manager struct {
	mu      sync.RWMutex
	clients map[string]any
}

// NewManager returns an empty registry.
func NewManager() *Manager {
	return &Manager{clients: make(map[string]any)}
}

// Register stores client under name.
func (m *Manager) Register(name string, client any) error {
	if name == "" || client == nil {
		return ErrInvalidName
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.clients[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicate, name)
	}
	m.clients[name] = client
	return nil
}

// Get returns the client registered under name.
func (m *Manager) Get(name string) (any, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	client, ok := m.clients[name]
	return client, ok
}

// Names returns the registered service names in sorted order.
func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.clients))
	for name := range m.clients {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len reports how many clients are registered.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}

// Lookup returns the client registered under name as T.
func Lookup[T any](m *Manager, name string) (T, error) {
	var zero T

	client, ok := m.Get(name)
	if !ok {
		return zero, fmt.Errorf("%w: %s", ErrNotBound, name)
	}
	typed, ok := client.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s is %T", ErrWrongType, name, client)
	}
	return typed, nil
}
