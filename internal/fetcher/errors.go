package fetcher

import "fmt"

// ConfigErrorKind tells why a Fetch was rejected.
type ConfigErrorKind int

const (
	// NoProviderRequested means the provider list was empty.
	NoProviderRequested ConfigErrorKind = iota + 1
	// UnknownProvider means a requested tag has no configured adapter.
	UnknownProvider
)

// ConfigError is returned synchronously by Fetch before any lookup starts.
type ConfigError struct {
	Kind     ConfigErrorKind
	Provider string
}

func (e *ConfigError) Error() string {
	switch e.Kind {
	case NoProviderRequested:
		return "at least one provider is required"
	case UnknownProvider:
		return fmt.Sprintf("unavailable provider: %s", e.Provider)
	default:
		return "invalid fetch configuration"
	}
}
