//go:build linux || darwin || windows

package notification

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// osChannel delivers toasts through the platform's native notifier.
type osChannel struct {
	config   *OSConfig
	executor CommandExecutor
	platform string
}

// NewOSChannel creates an OS toast channel.
func NewOSChannel(cfg *OSConfig, opts ...Option) Channel {
	ch := &osChannel{
		config:   cfg,
		platform: runtime.GOOS,
	}

	for _, opt := range opts {
		opt(ch)
	}

	if ch.executor == nil {
		ch.executor = &realCommandExecutor{}
	}

	return ch
}

// Send delivers one toast.
func (c *osChannel) Send(n Notification) error {
	switch c.platform {
	case "linux":
		return c.sendLinux(n)
	case "darwin":
		return c.sendDarwin(n)
	case "windows":
		return c.sendWindows(n)
	default:
		return fmt.Errorf("unsupported platform: %s", c.platform)
	}
}

// sendLinux uses notify-send.
func (c *osChannel) sendLinux(n Notification) error {
	return c.executor.Execute("notify-send", n.Title, n.Message)
}

// escapeAppleScript escapes backslashes and double quotes so user text
// cannot break out of the AppleScript string literal.
func escapeAppleScript(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return s
}

// sendDarwin uses osascript.
func (c *osChannel) sendDarwin(n Notification) error {
	msg := escapeAppleScript(n.Message)
	title := escapeAppleScript(n.Title)
	script := fmt.Sprintf(`display notification "%s" with title "%s"`, msg, title)
	return c.executor.Execute("osascript", "-e", script)
}

// escapePowerShell escapes backticks, double quotes and dollar signs so
// user text cannot execute inside the PowerShell string.
func escapePowerShell(s string) string {
	s = strings.ReplaceAll(s, "`", "``")
	s = strings.ReplaceAll(s, `"`, "`\"")
	s = strings.ReplaceAll(s, "$", "`$")
	return s
}

// sendWindows uses a PowerShell balloon tip.
func (c *osChannel) sendWindows(n Notification) error {
	title := escapePowerShell(n.Title)
	msg := escapePowerShell(n.Message)
	script := fmt.Sprintf(`
Add-Type -AssemblyName System.Windows.Forms
$notification = New-Object System.Windows.Forms.NotifyIcon
$notification.Icon = [System.Drawing.SystemIcons]::Information
$notification.BalloonTipTitle = "%s"
$notification.BalloonTipText = "%s"
$notification.Visible = $true
$notification.ShowBalloonTip(5000)
`, title, msg)
	return c.executor.Execute("powershell", "-Command", script)
}

// Close cleans up resources.
func (c *osChannel) Close() error {
	return nil
}

// realCommandExecutor executes real system commands.
type realCommandExecutor struct{}

// Execute runs a command.
func (e *realCommandExecutor) Execute(cmd string, args ...string) error {
	return exec.Command(cmd, args...).Run()
}
