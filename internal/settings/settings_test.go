package settings

import (
	"os"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.yaml")
	s, err := NewStore(path, WithKeyring(NewMockKeyring()))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return s
}

func TestGetUnsetReturnsEmpty(t *testing.T) {
	s := newTestStore(t)
	if got := s.Get(NameDefaultTag); got != "" {
		t.Errorf("unset setting should be empty, got %q", got)
	}
	if got := s.Get(NameAPIKey); got != "" {
		t.Errorf("missing secret should be empty, got %q", got)
	}
}

func TestSetAndGetRoundTrip(t *testing.T) {
	s := newTestStore(t)
	if err := s.Set(NameSpace, "123456"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got := s.Get(NameSpace); got != "123456" {
		t.Errorf("got %q", got)
	}
}

func TestValuesPersistAcrossLoads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	kr := NewMockKeyring()

	s1, err := NewStore(path, WithKeyring(kr))
	if err != nil {
		t.Fatal(err)
	}
	if err := s1.Set(NameWorkspace, "2181159"); err != nil {
		t.Fatal(err)
	}

	s2, err := NewStore(path, WithKeyring(kr))
	if err != nil {
		t.Fatal(err)
	}
	if got := s2.Get(NameWorkspace); got != "2181159" {
		t.Errorf("value did not survive reload: %q", got)
	}
}

func TestAPIKeyRoutesToKeyring(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	s, err := NewStore(path, WithKeyring(NewMockKeyring()))
	if err != nil {
		t.Fatal(err)
	}

	if err := s.Set(NameAPIKey, "pk_30050_SECRET"); err != nil {
		t.Fatal(err)
	}
	if got := s.Get(NameAPIKey); got != "pk_30050_SECRET" {
		t.Errorf("got %q", got)
	}

	// The secret must never land in the settings file.
	data, _ := os.ReadFile(path)
	if len(data) > 0 && string(data) != "{}\n" {
		t.Errorf("settings file should not contain the API key: %q", data)
	}

	if err := s.ClearSecret(); err != nil {
		t.Fatalf("ClearSecret: %v", err)
	}
	if got := s.Get(NameAPIKey); got != "" {
		t.Errorf("secret should be gone, got %q", got)
	}

	// Clearing again must stay a no-op, not an error.
	if err := s.ClearSecret(); err != nil {
		t.Errorf("ClearSecret on absent secret: %v", err)
	}
}

func TestEmptyValueRemovesSetting(t *testing.T) {
	s := newTestStore(t)
	if err := s.Set(NameDefaultTag, "alfred"); err != nil {
		t.Fatal(err)
	}
	if err := s.Set(NameDefaultTag, "   "); err != nil {
		t.Fatal(err)
	}
	if s.IsSet(NameDefaultTag) {
		t.Error("whitespace-only value should remove the setting")
	}
}

func TestNotificationPinsToFalse(t *testing.T) {
	s := newTestStore(t)
	if err := s.Set(NameNotification, ""); err != nil {
		t.Fatal(err)
	}
	if got := s.Get(NameNotification); got != "false" {
		t.Errorf("empty notification should pin to false, got %q", got)
	}

	if err := s.Set(NameNotification, "yes please"); err != nil {
		t.Fatal(err)
	}
	if got := s.Get(NameNotification); got != "false" {
		t.Errorf("non-true notification should pin to false, got %q", got)
	}

	if err := s.Set(NameNotification, "true"); err != nil {
		t.Fatal(err)
	}
	if got := s.Get(NameNotification); got != "true" {
		t.Errorf("got %q", got)
	}
}

func TestEmptyAPIKeyDeletesSecret(t *testing.T) {
	s := newTestStore(t)
	if err := s.Set(NameAPIKey, "pk_30050_SECRET"); err != nil {
		t.Fatal(err)
	}
	if err := s.Set(NameAPIKey, ""); err != nil {
		t.Fatal(err)
	}
	if got := s.Get(NameAPIKey); got != "" {
		t.Errorf("empty value should delete the secret, got %q", got)
	}
}

func TestSearchEntities(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  []string
	}{
		{"unset defaults to tasks", "", []string{"tasks"}},
		{"comma separated", "tasks,docs,chats", []string{"tasks", "docs", "chats"}},
		{"legacy plus separated", "tasks+docs+lists", []string{"tasks", "docs", "lists"}},
		{"tasks always included", "docs,spaces", []string{"tasks", "docs", "spaces"}},
		{"duplicates dropped", "tasks,docs,docs", []string{"tasks", "docs"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t)
			if tt.value != "" {
				if err := s.Set(NameSearchEntities, tt.value); err != nil {
					t.Fatal(err)
				}
			}
			got := s.SearchEntities()
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("got %v, want %v", got, tt.want)
					break
				}
			}
		})
	}
}
