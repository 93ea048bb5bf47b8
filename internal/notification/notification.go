// Package notification delivers toast notifications for task and
// configuration events.
package notification

import (
	"time"
)

// EventType identifies the kind of event being announced.
type EventType string

const (
	EventTaskCreated  EventType = "task_created"
	EventTaskClosed   EventType = "task_closed"
	EventSettingSaved EventType = "setting_saved"
	EventCacheCleared EventType = "cache_cleared"
	EventTest         EventType = "test"
)

// Notification is one toast to deliver.
type Notification struct {
	Type      EventType
	Title     string
	Message   string
	Timestamp time.Time
}

// Manager fans a notification out to the configured channels.
type Manager interface {
	Send(n Notification) error
	Close() error
	ChannelCount() int
}

// Channel is one delivery mechanism (OS toast, log file).
type Channel interface {
	Send(n Notification) error
	Close() error
}

// Config holds the notification configuration.
type Config struct {
	Enabled bool
	OS      OSConfig
	Log     LogConfig
}

// OSConfig controls the OS-native toast channel.
type OSConfig struct {
	Enabled bool
}

// LogConfig controls the append-to-file fallback channel.
type LogConfig struct {
	Enabled   bool
	Path      string
	MaxSizeMB int
}

// CommandExecutor runs the platform notifier binary.
type CommandExecutor interface {
	Execute(cmd string, args ...string) error
}

// MockCommandExecutor records invocations for tests.
type MockCommandExecutor struct {
	ExecuteFunc func(cmd string, args ...string) error
}

// Execute implements CommandExecutor.
func (m *MockCommandExecutor) Execute(cmd string, args ...string) error {
	if m.ExecuteFunc != nil {
		return m.ExecuteFunc(cmd, args...)
	}
	return nil
}

// Option configures a manager or channel.
type Option func(interface{})

// WithCommandExecutor sets a custom command executor.
func WithCommandExecutor(executor CommandExecutor) Option {
	return func(c interface{}) {
		if ch, ok := c.(*osChannel); ok {
			ch.executor = executor
		}
		if mgr, ok := c.(*manager); ok {
			mgr.commandExecutor = executor
		}
	}
}

// WithPlatform overrides the detected platform for OS toasts.
func WithPlatform(platform string) Option {
	return func(c interface{}) {
		if ch, ok := c.(*osChannel); ok {
			ch.platform = platform
		}
	}
}
