package tui_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/exp/teatest"

	"clickat/internal/settings"
	"clickat/internal/tui"
)

// sendKeyAndWait sends a key message and waits briefly for processing.
func sendKeyAndWait(tm *teatest.TestModel, key tea.KeyMsg) {
	tm.Send(key)
	time.Sleep(20 * time.Millisecond)
}

func sendRunesAndWait(tm *teatest.TestModel, runes []rune) {
	sendKeyAndWait(tm, tea.KeyMsg{Type: tea.KeyRunes, Runes: runes})
}

func typeAndEnter(tm *teatest.TestModel, text string) {
	sendRunesAndWait(tm, []rune(text))
	sendKeyAndWait(tm, tea.KeyMsg{Type: tea.KeyEnter})
}

// mockDirectory implements tui.Directory against fixed data.
type mockDirectory struct {
	rejectKey bool
}

func (d *mockDirectory) CheckKey(_ context.Context, key string) error {
	if d.rejectKey {
		return errors.New("invalid key")
	}
	return nil
}

func (d *mockDirectory) Workspaces(_ context.Context) ([]tui.Option, error) {
	return []tui.Option{{ID: "12345678", Name: "Acme"}, {ID: "87654321", Name: "Side project"}}, nil
}

func (d *mockDirectory) Spaces(_ context.Context, workspaceID string) ([]tui.Option, error) {
	if workspaceID != "12345678" {
		return nil, errors.New("unknown workspace")
	}
	return []tui.Option{{ID: "790", Name: "Home"}}, nil
}

func (d *mockDirectory) Lists(_ context.Context, spaceID string) ([]tui.Option, error) {
	if spaceID != "790" {
		return nil, errors.New("unknown space")
	}
	return []tui.Option{{ID: "901100123456", Name: "Inbox"}}, nil
}

func newTestStore(t *testing.T) *settings.Store {
	t.Helper()
	store, err := settings.NewStore(filepath.Join(t.TempDir(), "settings.yaml"), settings.WithKeyring(settings.NewMockKeyring()))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return store
}

func readAll(t *testing.T, r io.Reader) []byte {
	t.Helper()
	out, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("failed to read output: %v", err)
	}
	return out
}

func TestWizardCompletesSetup(t *testing.T) {
	store := newTestStore(t)
	model := tui.New(&mockDirectory{}, store)

	tm := teatest.NewTestModel(t, model, teatest.WithInitialTermSize(80, 24))
	time.Sleep(100 * time.Millisecond)

	// API key step.
	typeAndEnter(tm, "pk_1234567890_ABCDEF")
	time.Sleep(100 * time.Millisecond)

	// Workspace step: pick the first entry.
	sendKeyAndWait(tm, tea.KeyMsg{Type: tea.KeyEnter})
	time.Sleep(100 * time.Millisecond)

	// Space step.
	sendKeyAndWait(tm, tea.KeyMsg{Type: tea.KeyEnter})
	time.Sleep(100 * time.Millisecond)

	// List step.
	sendKeyAndWait(tm, tea.KeyMsg{Type: tea.KeyEnter})
	time.Sleep(100 * time.Millisecond)

	// Any key closes the summary.
	sendKeyAndWait(tm, tea.KeyMsg{Type: tea.KeyEnter})

	out := readAll(t, tm.FinalOutput(t, teatest.WithFinalTimeout(time.Second)))
	if !bytes.Contains(out, []byte("All set")) {
		t.Error("expected the completion summary")
	}
	if bytes.Contains(out, []byte("pk_1234567890_ABCDEF")) {
		t.Error("the API key must never be echoed")
	}

	if got := store.Get(settings.NameAPIKey); got != "pk_1234567890_ABCDEF" {
		t.Errorf("stored key = %q", got)
	}
	if got := store.Get(settings.NameWorkspace); got != "12345678" {
		t.Errorf("stored workspace = %q", got)
	}
	if got := store.Get(settings.NameSpace); got != "790" {
		t.Errorf("stored space = %q", got)
	}
	if got := store.Get(settings.NameList); got != "901100123456" {
		t.Errorf("stored list = %q", got)
	}
}

func TestWizardRejectsBadKey(t *testing.T) {
	store := newTestStore(t)
	model := tui.New(&mockDirectory{rejectKey: true}, store)

	tm := teatest.NewTestModel(t, model, teatest.WithInitialTermSize(80, 24))
	time.Sleep(100 * time.Millisecond)

	typeAndEnter(tm, "pk_bad")
	time.Sleep(100 * time.Millisecond)

	sendKeyAndWait(tm, tea.KeyMsg{Type: tea.KeyEsc})

	out := readAll(t, tm.FinalOutput(t, teatest.WithFinalTimeout(time.Second)))
	if !bytes.Contains(out, []byte("Key rejected")) {
		t.Error("expected a rejection message")
	}
	if got := store.Get(settings.NameAPIKey); got != "" {
		t.Errorf("rejected key was stored: %q", got)
	}
}

func TestWizardNavigatesOptions(t *testing.T) {
	store := newTestStore(t)
	model := tui.New(&mockDirectory{}, store)

	tm := teatest.NewTestModel(t, model, teatest.WithInitialTermSize(80, 24))
	time.Sleep(100 * time.Millisecond)

	typeAndEnter(tm, "pk_1234567890_ABCDEF")
	time.Sleep(100 * time.Millisecond)

	// Move down to the second workspace and back up, then quit.
	sendKeyAndWait(tm, tea.KeyMsg{Type: tea.KeyDown})
	sendKeyAndWait(tm, tea.KeyMsg{Type: tea.KeyUp})
	sendRunesAndWait(tm, []rune{'q'})

	out := readAll(t, tm.FinalOutput(t, teatest.WithFinalTimeout(time.Second)))
	if !bytes.Contains(out, []byte("Acme")) || !bytes.Contains(out, []byte("Side project")) {
		t.Error("expected both workspaces to be listed")
	}
}
