package notification

import "time"

// manager implements Manager.
type manager struct {
	channels        []Channel
	enabled         bool
	commandExecutor CommandExecutor
}

// NewManager creates a Manager from configuration. A disabled manager
// accepts sends and drops them.
func NewManager(cfg *Config, opts ...Option) (Manager, error) {
	m := &manager{
		channels: []Channel{},
		enabled:  cfg.Enabled,
	}

	for _, opt := range opts {
		opt(m)
	}

	if !cfg.Enabled {
		return m, nil
	}

	if cfg.OS.Enabled {
		var osOpts []Option
		if m.commandExecutor != nil {
			osOpts = append(osOpts, WithCommandExecutor(m.commandExecutor))
		}
		m.channels = append(m.channels, NewOSChannel(&cfg.OS, osOpts...))
	}

	if cfg.Log.Enabled {
		m.channels = append(m.channels, NewLogChannel(&cfg.Log))
	}

	return m, nil
}

// Send dispatches the notification to every channel; the last channel
// error wins.
func (m *manager) Send(n Notification) error {
	if !m.enabled {
		return nil
	}
	if n.Timestamp.IsZero() {
		n.Timestamp = time.Now()
	}

	var lastErr error
	for _, ch := range m.channels {
		if err := ch.Send(n); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// Close cleans up channel resources.
func (m *manager) Close() error {
	var lastErr error
	for _, ch := range m.channels {
		if err := ch.Close(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// ChannelCount returns the number of active channels.
func (m *manager) ChannelCount() int {
	return len(m.channels)
}
