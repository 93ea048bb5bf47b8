// Package settings persists the workflow configuration: plain settings in
// a YAML file and the ClickUp API key in the OS keyring.
package settings

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Setting names form a small fixed enumeration. The API key is the only
// secret; everything else lives in the plain settings file.
const (
	NameAPIKey         = "apiKey"
	NameDueDate        = "dueDate"
	NameList           = "list"
	NameSpace          = "space"
	NameWorkspace      = "workspace"
	NameFolder         = "folder"
	NameNotification   = "notification"
	NameDefaultTag     = "defaultTag"
	NameUserID         = "userId"
	NameSearchScope    = "searchScope"
	NameSearchEntities = "searchEntities"
	NameHierarchyLimit = "hierarchyLimit"
)

// KnownNames lists every setting in menu order.
var KnownNames = []string{
	NameAPIKey,
	NameDueDate,
	NameWorkspace,
	NameSpace,
	NameFolder,
	NameList,
	NameNotification,
	NameDefaultTag,
	NameSearchScope,
	NameSearchEntities,
	NameHierarchyLimit,
	NameUserID,
}

const (
	keyringService = "clickat"
	keyringAccount = "clickUpAPI"
)

// Store reads and writes named settings. Reads are served from the
// loaded snapshot; every write persists immediately, so repeated calls
// within one invocation are safe and idempotent.
type Store struct {
	path    string
	keyring Keyring
	values  map[string]string
}

// Option is a functional option for Store.
type Option func(*Store)

// WithKeyring sets a custom keyring implementation (tests use MockKeyring).
func WithKeyring(k Keyring) Option {
	return func(s *Store) {
		s.keyring = k
	}
}

// DefaultPath returns the settings file location under the user config dir.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "clickat", "settings.yaml"), nil
}

// NewStore loads the settings file at path, creating an empty store when
// the file does not exist yet.
func NewStore(path string, opts ...Option) (*Store, error) {
	s := &Store{
		path:    path,
		keyring: &systemKeyring{},
		values:  make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading settings file: %w", err)
	}

	if err := yaml.Unmarshal(data, &s.values); err != nil {
		return nil, fmt.Errorf("parsing settings file: %w", err)
	}
	if s.values == nil {
		s.values = make(map[string]string)
	}

	return s, nil
}

// Get returns the stored value for a setting, or "" when unset. A missing
// secret is a normal unset state, not an error.
func (s *Store) Get(name string) string {
	if name == NameAPIKey {
		value, err := s.keyring.Get(keyringService, keyringAccount)
		if err != nil {
			return ""
		}
		return value
	}
	return s.values[name]
}

// IsSet reports whether a setting has a non-empty value.
func (s *Store) IsSet(name string) bool {
	return s.Get(name) != ""
}

// Set stores a value. An empty or whitespace-only value removes the
// setting, except notification which pins to "false" instead. The API
// key routes to the keyring; everything else is written through to the
// settings file.
func (s *Store) Set(name, value string) error {
	value = strings.TrimSpace(value)

	if name == NameAPIKey {
		if value == "" {
			return s.ClearSecret()
		}
		return s.keyring.Set(keyringService, keyringAccount, value)
	}

	if value == "" {
		if name == NameNotification {
			s.values[name] = "false"
		} else {
			delete(s.values, name)
		}
		return s.save()
	}

	// The notification toggle only knows true/false; anything else is off.
	if name == NameNotification && value != "true" {
		value = "false"
	}

	s.values[name] = value
	return s.save()
}

// ClearSecret removes the API key from the keyring. Deleting an absent
// secret is not an error.
func (s *Store) ClearSecret() error {
	if err := s.keyring.Delete(keyringService, keyringAccount); err != nil && !isNotFound(err) {
		return err
	}
	return nil
}

// SearchEntities returns the configured search-entity set, normalizing
// the legacy plus-separated format and guaranteeing "tasks" membership.
func (s *Store) SearchEntities() []string {
	raw := s.Get(NameSearchEntities)
	if raw == "" {
		return []string{"tasks"}
	}
	raw = strings.ReplaceAll(raw, "+", ",")

	var entities []string
	seen := make(map[string]bool)
	for _, e := range strings.Split(raw, ",") {
		e = strings.TrimSpace(e)
		if e == "" || seen[e] {
			continue
		}
		seen[e] = true
		entities = append(entities, e)
	}
	if !seen["tasks"] {
		entities = append([]string{"tasks"}, entities...)
	}
	return entities
}

func (s *Store) save() error {
	data, err := yaml.Marshal(s.values)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o600)
}
