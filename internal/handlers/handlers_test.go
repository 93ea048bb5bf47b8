package handlers

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"clickat/internal/cache"
	"clickat/internal/clickup"
	"clickat/internal/notification"
	"clickat/internal/settings"
	"clickat/internal/utils"
)

const testAPIKey = "pk_1234567890_ABCDEF"

// testNotifier records sent notifications.
type testNotifier struct {
	sent []notification.Notification
}

func (n *testNotifier) Send(msg notification.Notification) error {
	n.sent = append(n.sent, msg)
	return nil
}
func (n *testNotifier) Close() error      { return nil }
func (n *testNotifier) ChannelCount() int { return 1 }

// countingHandler wraps an http.Handler and counts requests.
func countingHandler(h http.HandlerFunc, calls *int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(calls, 1)
		h(w, r)
	}
}

// newTestContext builds a Context backed by a mock keyring, a temp
// settings file, a temp cache and a client against the given handler.
// handler may be nil for flows that must not reach the network.
func newTestContext(t *testing.T, handler http.Handler) (*Context, *testNotifier) {
	t.Helper()
	dir := t.TempDir()

	store, err := settings.NewStore(filepath.Join(dir, "settings.yaml"), settings.WithKeyring(settings.NewMockKeyring()))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	ch, err := cache.New(filepath.Join(dir, "cache.db"))
	if err != nil {
		t.Fatalf("cache.New: %v", err)
	}
	t.Cleanup(func() { _ = ch.Close() })

	ctx := &Context{
		Log:      utils.GetLogger(),
		Settings: store,
		Cache:    ch,
		NowFunc:  func() time.Time { return time.Date(2026, 8, 30, 12, 0, 0, 0, time.Local) },
	}
	notifier := &testNotifier{}
	ctx.Notifier = notifier

	if handler != nil {
		server := httptest.NewServer(handler)
		t.Cleanup(server.Close)
		client, err := clickup.New(clickup.Config{APIKey: testAPIKey, BaseURL: server.URL, BaseURLV3: server.URL + "/v3"})
		if err != nil {
			t.Fatalf("clickup.New: %v", err)
		}
		ctx.Client = client
	}

	if err := store.Set(settings.NameAPIKey, testAPIKey); err != nil {
		t.Fatalf("set apiKey: %v", err)
	}
	return ctx, notifier
}

func setAll(t *testing.T, s *settings.Store, pairs map[string]string) {
	t.Helper()
	for name, value := range pairs {
		if err := s.Set(name, value); err != nil {
			t.Fatalf("set %s: %v", name, err)
		}
	}
}
