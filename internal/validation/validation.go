// Package validation checks ClickUp identifiers before they reach the API.
//
// Every identifier that ends up in a request path goes through ValidateID
// first, so malformed or injection-bearing input is rejected client-side
// instead of producing confusing provider errors.
package validation

import (
	"fmt"
	"regexp"
	"strings"
)

// Kind identifies which ClickUp entity an identifier belongs to.
type Kind string

const (
	KindTask       Kind = "task"
	KindWorkspace  Kind = "workspace"
	KindTeam       Kind = "team" // legacy alias for workspace
	KindUser       Kind = "user"
	KindSpace      Kind = "space"
	KindList       Kind = "list"
	KindFolder     Kind = "folder"
	KindCustomTask Kind = "custom_task"
	KindGeneric    Kind = "generic"
)

// Patterns follow ClickUp's actual ID formats. Task ids are short
// lowercase base36 strings; workspace and user ids are numeric.
var idPatterns = map[Kind]*regexp.Regexp{
	KindTask:       regexp.MustCompile(`^[a-z0-9]{8,9}$`),
	KindWorkspace:  regexp.MustCompile(`^[0-9]+$`),
	KindTeam:       regexp.MustCompile(`^[0-9]+$`),
	KindUser:       regexp.MustCompile(`^[0-9]+$`),
	KindSpace:      regexp.MustCompile(`^[a-zA-Z0-9]+$`),
	KindList:       regexp.MustCompile(`^[a-zA-Z0-9]+$`),
	KindFolder:     regexp.MustCompile(`^[a-zA-Z0-9]+$`),
	KindCustomTask: regexp.MustCompile(`^[A-Z0-9_]+$`),
	KindGeneric:    regexp.MustCompile(`^[a-zA-Z0-9_]+$`),
}

var apiKeyPattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

var sanitizePattern = regexp.MustCompile(`[^a-zA-Z0-9_\-]`)

// FormatError reports an identifier or API key that failed validation.
type FormatError struct {
	Kind  Kind
	Value string
	Msg   string
}

// Error implements the error interface.
func (e *FormatError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return fmt.Sprintf("invalid %s ID format: %s", e.Kind, e.Value)
}

// ValidateID validates an identifier against the pattern for its kind and
// returns the trimmed value. Unknown kinds fall back to the generic
// pattern rather than failing.
func ValidateID(value string, kind Kind) (string, error) {
	if value == "" {
		return "", &FormatError{Kind: kind, Msg: "ID cannot be empty"}
	}

	value = strings.TrimSpace(value)
	if value == "" {
		return "", &FormatError{Kind: kind, Msg: "ID cannot be empty"}
	}

	pattern, ok := idPatterns[kind]
	if !ok {
		pattern = idPatterns[KindGeneric]
	}

	if !pattern.MatchString(value) {
		return "", &FormatError{Kind: kind, Value: value}
	}

	// Task ids are 8-9 characters regardless of what the pattern allows.
	if kind == KindTask && (len(value) < 8 || len(value) > 9) {
		return "", &FormatError{Kind: kind, Value: value, Msg: fmt.Sprintf("task ID must be 8-9 characters, got %d", len(value))}
	}

	return value, nil
}

// ValidateAPIKey validates a ClickUp personal API token. Tokens are
// alphanumeric with underscores (the documented pk_ prefix included) and
// never shorter than 10 characters.
func ValidateAPIKey(key string) (string, error) {
	if key == "" {
		return "", &FormatError{Msg: "API key cannot be empty"}
	}

	key = strings.TrimSpace(key)
	if key == "" {
		return "", &FormatError{Msg: "API key cannot be empty"}
	}

	if !apiKeyPattern.MatchString(key) {
		return "", &FormatError{Msg: "Invalid API key format"}
	}

	if len(key) < 10 {
		return "", &FormatError{Msg: "API key too short"}
	}

	return key, nil
}

// SanitizeParam strips everything outside [a-zA-Z0-9_-] from a value.
// It never fails and is only for cosmetic/display use; values destined
// for a request path go through ValidateID instead.
func SanitizeParam(param string) string {
	if param == "" {
		return ""
	}
	return sanitizePattern.ReplaceAllString(strings.TrimSpace(param), "")
}

// Param is a kind-tagged path parameter for BuildURL. A zero Kind is
// treated as generic.
type Param struct {
	Value string
	Kind  Kind
}

// BuildURL composes an API URL from a base URL, an endpoint and validated
// path parameters, in the order they are given. If any parameter fails
// validation the URL is not built at all. The result is a concatenation
// of pre-validated segments, so callers never need to escape it.
func BuildURL(baseURL, endpoint string, params ...Param) (string, error) {
	parts := []string{strings.TrimRight(baseURL, "/"), strings.Trim(endpoint, "/")}

	for _, p := range params {
		kind := p.Kind
		if kind == "" {
			kind = KindGeneric
		}
		validated, err := ValidateID(p.Value, kind)
		if err != nil {
			return "", err
		}
		parts = append(parts, validated)
	}

	return strings.Join(parts, "/"), nil
}
