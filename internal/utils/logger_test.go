package utils

import (
	"bytes"
	"strings"
	"testing"
)

func TestDebugOnlyWhenVerbose(t *testing.T) {
	var buf bytes.Buffer
	l := &Logger{}
	l.SetOutput(&buf)

	l.Debug("hidden")
	if buf.Len() != 0 {
		t.Errorf("debug output without verbose mode: %q", buf.String())
	}

	l.SetVerbose(true)
	l.Debug("shown %d", 42)
	if !strings.Contains(buf.String(), "shown 42") {
		t.Errorf("missing debug output: %q", buf.String())
	}
}

func TestLevelsAlwaysShown(t *testing.T) {
	var buf bytes.Buffer
	l := &Logger{}
	l.SetOutput(&buf)

	l.Info("i")
	l.Warn("w")
	l.Error("e")

	out := buf.String()
	for _, want := range []string{"[INFO] i", "[WARN] w", "[ERROR] e"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in %q", want, out)
		}
	}
}

func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"short", "***"},
		{"pk_1234567890", "***"},
		{"pk_30050_ABCDEFGHIJKLMNOPMD3G", "pk_30050********************************MD3G"},
	}

	for _, tt := range tests {
		if got := MaskAPIKey(tt.in); got != tt.want {
			t.Errorf("MaskAPIKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
