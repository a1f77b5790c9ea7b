package server

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
)

const (
	minIDParamLength = 8
	maxCallbackLen   = 128
	maxReportedIDs   = 5
)

var (
	isbn10Pattern      = regexp.MustCompile(`^[0-9]{9}[0-9X]$`)
	isbn13Pattern      = regexp.MustCompile(`^[0-9]{13}$`)
	alphanumericID     = regexp.MustCompile(`^[A-Za-z0-9]+$`)
	jsIdentifierString = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*(\.[A-Za-z_$][A-Za-z0-9_$]*)*$`)
)

// ErrInvalidCallback is returned for a JSONP callback that is not a plain
// (optionally dotted) JavaScript identifier.
var ErrInvalidCallback = errors.New("invalid callback parameter")

// ValidateIDs parses the comma separated id parameter.
func ValidateIDs(raw string) ([]string, error) {
	if raw == "" {
		return nil, errors.New("ID parameter is required")
	}

	var ids []string
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, errors.New("at least one valid ID is required")
	}
	if len(raw) < minIDParamLength {
		return nil, fmt.Errorf("ID parameter must be at least %d characters long", minIDParamLength)
	}

	var invalid []string
	for _, id := range ids {
		if !IsValidISBNFormat(id) {
			invalid = append(invalid, id)
		}
	}
	if len(invalid) > 0 {
		msg := strings.Join(invalid[:min(len(invalid), maxReportedIDs)], ", ")
		if len(invalid) > maxReportedIDs {
			msg += "..."
		}
		return nil, fmt.Errorf("invalid ID format: %s", msg)
	}
	return ids, nil
}

// ValidateProviders parses the comma separated provider parameter. An empty
// parameter selects every available provider.
func ValidateProviders(raw string, available []string) ([]string, error) {
	var providers []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			providers = append(providers, p)
		}
	}
	if len(providers) == 0 {
		return available, nil
	}

	var invalid []string
	for _, p := range providers {
		if !slices.Contains(available, p) {
			invalid = append(invalid, p)
		}
	}
	if len(invalid) > 0 {
		return nil, fmt.Errorf("invalid providers: %s. Available: %s",
			strings.Join(invalid, ", "), strings.Join(available, ", "))
	}
	return providers, nil
}

// IsValidISBNFormat accepts ISBN-10 and ISBN-13 (hyphens and spaces allowed)
// and plain alphanumeric identifiers.
func IsValidISBNFormat(id string) bool {
	if id == "" {
		return false
	}

	clean := strings.NewReplacer("-", "", " ", "").Replace(id)
	switch len(clean) {
	case 10:
		return isbn10Pattern.MatchString(clean)
	case 13:
		return isbn13Pattern.MatchString(clean)
	}

	if strings.ContainsAny(id, "- ") {
		return false
	}
	return alphanumericID.MatchString(clean)
}

// ValidateCallback checks a JSONP callback name.
func ValidateCallback(callback string) error {
	if len(callback) > maxCallbackLen || !jsIdentifierString.MatchString(callback) {
		return ErrInvalidCallback
	}
	return nil
}
