// Package handlers turns one raw launcher query into a list of result
// items. Each handler validates configuration and payload before any
// network call, performs at most one request cycle per concern, and
// always yields at least one item.
package handlers

import (
	"time"

	"clickat/internal/cache"
	"clickat/internal/clickup"
	"clickat/internal/feedback"
	"clickat/internal/notification"
	"clickat/internal/settings"
	"clickat/internal/utils"
)

// argConfig routes an item's action back to the configuration menu.
const argConfig = "cu:config "

// Context bundles the collaborators one invocation needs. A nil Client
// is built on demand from the stored API key; tests inject a client
// pointing at a mock server.
type Context struct {
	Log      *utils.Logger
	Client   *clickup.Client
	Settings *settings.Store
	Cache    *cache.Cache
	Notifier notification.Manager

	// Silent suppresses notifications and makes submit emit the task
	// URL instead.
	Silent bool

	// NowFunc overrides the clock in tests.
	NowFunc func() time.Time
}

func (c *Context) now() time.Time {
	if c.NowFunc != nil {
		return c.NowFunc()
	}
	return time.Now()
}

// apiClient returns the injected client or builds one from the stored
// API key. An unset or malformed key is a local validation failure.
func (c *Context) apiClient() (*clickup.Client, error) {
	if c.Client != nil {
		return c.Client, nil
	}
	key := c.Settings.Get(settings.NameAPIKey)
	if key == "" {
		return nil, utils.ErrMissingSetting(settings.NameAPIKey)
	}
	client, err := clickup.New(clickup.Config{APIKey: key})
	if err != nil {
		return nil, err
	}
	c.Client = client
	return client, nil
}

// notify sends a toast when the notification setting is on.
func (c *Context) notify(t notification.EventType, title, message string) {
	if c.Notifier == nil || c.Silent {
		return
	}
	if c.Settings.Get(settings.NameNotification) != "true" {
		return
	}
	if err := c.Notifier.Send(notification.Notification{Type: t, Title: title, Message: message}); err != nil {
		c.Log.Warn("notification failed: %v", err)
	}
}

// connectivityItem is the uniform item for transport and provider
// failures, routing the user back to configuration.
func connectivityItem() feedback.Item {
	return feedback.Item{
		Title:    "Error connecting to ClickUp.",
		Subtitle: "Open configuration to check your parameters?",
		Valid:    true,
		Arg:      argConfig,
		Icon:     feedback.IconError,
	}
}

// configPromptItem points at the configuration menu after a local
// validation failure. The title names the failed field.
func configPromptItem(title, subtitle string) feedback.Item {
	return feedback.Item{
		Title:    title,
		Subtitle: subtitle,
		Valid:    true,
		Arg:      argConfig,
		Icon:     feedback.IconError,
	}
}
