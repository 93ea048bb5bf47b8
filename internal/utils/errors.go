package utils

import (
	"fmt"
	"strings"
)

// ErrorWithSuggestion wraps an error with a user-friendly suggestion.
type ErrorWithSuggestion struct {
	Err        error
	Suggestion string
}

// Error implements the error interface.
func (e *ErrorWithSuggestion) Error() string {
	return fmt.Sprintf("%s\n\nSuggestion: %s", e.Err.Error(), e.Suggestion)
}

// GetSuggestion returns the suggestion text.
func (e *ErrorWithSuggestion) GetSuggestion() string {
	return e.Suggestion
}

// Unwrap returns the underlying error for error chain support.
func (e *ErrorWithSuggestion) Unwrap() error {
	return e.Err
}

// WrapWithSuggestion wraps an existing error with a suggestion.
func WrapWithSuggestion(err error, suggestion string) error {
	return &ErrorWithSuggestion{
		Err:        err,
		Suggestion: suggestion,
	}
}

// ErrMissingSetting returns an error for a required setting that is unset.
func ErrMissingSetting(name string) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("setting not configured: %s", name),
		Suggestion: "Open the configuration menu (cu:config) to set it",
	}
}

// ErrInvalidAPIKey returns an error for a malformed or missing API key.
func ErrInvalidAPIKey(reason error) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("invalid API key: %w", reason),
		Suggestion: "Check your API key in the configuration menu",
	}
}

// ErrConnectivity returns an error for transport-level failures with a
// context-aware suggestion.
func ErrConnectivity(reason string) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("error connecting to ClickUp: %s", reason),
		Suggestion: getSmartSuggestion(reason),
	}
}

// getSmartSuggestion returns a context-aware suggestion based on the error reason.
func getSmartSuggestion(reason string) string {
	lowerReason := strings.ToLower(reason)

	if strings.Contains(lowerReason, "no such host") || strings.Contains(lowerReason, "dns") {
		return "Check your DNS settings and internet connection"
	}

	if strings.Contains(lowerReason, "connection refused") {
		return "Check if api.clickup.com is reachable from your network"
	}

	if strings.Contains(lowerReason, "timeout") || strings.Contains(lowerReason, "i/o timeout") {
		return "ClickUp may be slow or unreachable. Try again later"
	}

	return "Check your internet connection and try again"
}

// ErrInvalidDueShorthand returns an error for an unparseable due-date value.
func ErrInvalidDueShorthand(value string) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("invalid due date: %s", value),
		Suggestion: "Use m/h/d/w shorthand (e.g. h2), a weekday, or YYYY-MM-DD",
	}
}

// ErrUnexpectedResponse returns an error for a response whose shape did
// not match what the provider documents.
func ErrUnexpectedResponse(what string) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("unexpected data in ClickUp response: %s", what),
		Suggestion: "Validate your configuration; the configured IDs may point at the wrong entities",
	}
}
