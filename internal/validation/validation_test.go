package validation

import (
	"strings"
	"testing"
)

func TestValidateIDWellFormed(t *testing.T) {
	tests := []struct {
		name  string
		value string
		kind  Kind
	}{
		{"task 8 chars", "a1234567", KindTask},
		{"task 9 chars", "8xdfdjbgd", KindTask},
		{"workspace numeric", "2181159", KindWorkspace},
		{"team alias numeric", "2181159", KindTeam},
		{"user numeric", "42", KindUser},
		{"space alphanumeric", "Abc123", KindSpace},
		{"list alphanumeric", "900200532", KindList},
		{"folder alphanumeric", "Folder9", KindFolder},
		{"custom task uppercase", "TASK_123", KindCustomTask},
		{"generic underscore", "some_id_1", KindGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateID(tt.value, tt.kind)
			if err != nil {
				t.Fatalf("ValidateID(%q, %q) failed: %v", tt.value, tt.kind, err)
			}
			if got != tt.value {
				t.Errorf("ValidateID mutated well-formed input: got %q, want %q", got, tt.value)
			}
		})
	}
}

func TestValidateIDTrimsWhitespace(t *testing.T) {
	got, err := ValidateID("  a1234567  ", KindTask)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "a1234567" {
		t.Errorf("got %q, want %q", got, "a1234567")
	}
}

func TestValidateIDEmpty(t *testing.T) {
	for _, value := range []string{"", "   "} {
		if _, err := ValidateID(value, KindTask); err == nil {
			t.Errorf("ValidateID(%q) should fail", value)
		}
	}
}

func TestValidateIDRejectsInjection(t *testing.T) {
	malicious := []string{
		"../etc/passwd",
		"..",
		"abc;rm -rf",
		"<script>alert(1)</script>",
		"a1234567' --",
		"$(whoami)99",
		"`id`1234",
		"{{config}}",
		"abc 1234",
		"task\nid12",
	}

	for _, value := range malicious {
		for _, kind := range []Kind{KindTask, KindWorkspace, KindList, KindGeneric} {
			if _, err := ValidateID(value, kind); err == nil {
				t.Errorf("ValidateID(%q, %q) should fail", value, kind)
			}
		}
	}
}

func TestValidateTaskIDLength(t *testing.T) {
	if _, err := ValidateID("a123456", KindTask); err == nil {
		t.Error("7-character task ID should fail")
	}
	if _, err := ValidateID("a123456789", KindTask); err == nil {
		t.Error("10-character task ID should fail")
	}
	if _, err := ValidateID("A1234567", KindTask); err == nil {
		t.Error("uppercase task ID should fail")
	}
}

func TestValidateIDUnknownKindFallsBack(t *testing.T) {
	got, err := ValidateID("some_id", Kind("mystery"))
	if err != nil {
		t.Fatalf("unknown kind should use generic pattern: %v", err)
	}
	if got != "some_id" {
		t.Errorf("got %q, want %q", got, "some_id")
	}
	if _, err := ValidateID("some-id", Kind("mystery")); err == nil {
		t.Error("dash is outside the generic pattern and should fail")
	}
}

func TestValidateAPIKey(t *testing.T) {
	valid, err := ValidateAPIKey("  pk_30050_ABCDEF  ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if valid != "pk_30050_ABCDEF" {
		t.Errorf("got %q", valid)
	}

	tests := []struct {
		name string
		key  string
		want string
	}{
		{"empty", "", "API key cannot be empty"},
		{"whitespace only", "   ", "API key cannot be empty"},
		{"too short", "pk_12345", "API key too short"},
		{"bad characters", "pk_30050-ABCDEF!", "Invalid API key format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateAPIKey(tt.key)
			if err == nil {
				t.Fatalf("ValidateAPIKey(%q) should fail", tt.key)
			}
			if err.Error() != tt.want {
				t.Errorf("got message %q, want %q", err.Error(), tt.want)
			}
		})
	}
}

func TestSanitizeParam(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"abc123", "abc123"},
		{"abc-12_3", "abc-12_3"},
		{"../etc/passwd", "etcpasswd"},
		{"<b>x</b>", "bxb"},
		{"a b;c", "abc"},
	}

	for _, tt := range tests {
		if got := SanitizeParam(tt.in); got != tt.want {
			t.Errorf("SanitizeParam(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBuildURL(t *testing.T) {
	want := "https://api.example.com/v2/task/8xdfdjbgd"

	for _, base := range []string{"https://api.example.com/v2/", "https://api.example.com/v2"} {
		got, err := BuildURL(base, "task", Param{Value: "8xdfdjbgd", Kind: KindTask})
		if err != nil {
			t.Fatalf("BuildURL(%q) failed: %v", base, err)
		}
		if got != want {
			t.Errorf("BuildURL(%q) = %q, want %q", base, got, want)
		}
	}
}

func TestBuildURLOrdersParams(t *testing.T) {
	got, err := BuildURL("https://api.example.com/v2", "space",
		Param{Value: "123", Kind: KindSpace},
		Param{Value: "tag"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "https://api.example.com/v2/space/123/tag" {
		t.Errorf("got %q", got)
	}
}

func TestBuildURLRejectsUnsafeInput(t *testing.T) {
	_, err := BuildURL("https://api.example.com/v2", "task",
		Param{Value: "../etc/passwd", Kind: KindTask})
	if err == nil {
		t.Fatal("BuildURL with traversal input should fail")
	}
	if !strings.Contains(err.Error(), "task") {
		t.Errorf("error should name the kind, got %q", err.Error())
	}
}
