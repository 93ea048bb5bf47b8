package settings

import (
	"errors"
	"fmt"
	"sync"

	"github.com/zalando/go-keyring"
)

// Keyring is the interface for secret storage operations.
type Keyring interface {
	Set(service, account, password string) error
	Get(service, account string) (string, error)
	Delete(service, account string) error
}

// errSecretNotFound marks an absent secret so callers can treat it as a
// normal unset state.
var errSecretNotFound = errors.New("secret not found")

func isNotFound(err error) bool {
	return errors.Is(err, errSecretNotFound) || errors.Is(err, keyring.ErrNotFound)
}

// systemKeyring stores secrets in the OS-native keyring.
type systemKeyring struct{}

func (s *systemKeyring) Set(service, account, password string) error {
	return keyring.Set(service, account, password)
}

func (s *systemKeyring) Get(service, account string) (string, error) {
	return keyring.Get(service, account)
}

func (s *systemKeyring) Delete(service, account string) error {
	return keyring.Delete(service, account)
}

// MockKeyring is a test implementation of the Keyring interface.
type MockKeyring struct {
	mu    sync.RWMutex
	store map[string]map[string]string // service -> account -> password
}

// NewMockKeyring creates a new mock keyring for testing.
func NewMockKeyring() *MockKeyring {
	return &MockKeyring{
		store: make(map[string]map[string]string),
	}
}

// Set stores a password in the mock keyring.
func (m *MockKeyring) Set(service, account, password string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.store[service] == nil {
		m.store[service] = make(map[string]string)
	}
	m.store[service][account] = password
	return nil
}

// Get retrieves a password from the mock keyring.
func (m *MockKeyring) Get(service, account string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if accounts, ok := m.store[service]; ok {
		if password, ok := accounts[account]; ok {
			return password, nil
		}
	}
	return "", fmt.Errorf("%w: %s/%s", errSecretNotFound, service, account)
}

// Delete removes a password from the mock keyring.
func (m *MockKeyring) Delete(service, account string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if accounts, ok := m.store[service]; ok {
		if _, ok := accounts[account]; ok {
			delete(accounts, account)
			return nil
		}
	}
	return fmt.Errorf("%w: %s/%s", errSecretNotFound, service, account)
}
