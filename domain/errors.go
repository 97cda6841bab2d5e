package domain

import (
	"errors"
	"fmt"
)

// ErrCityNotFound is returned by the weather collaborator for unknown cities.
var ErrCityNotFound = errors.New("city not found")

// WeatherAPIError is any other weather collaborator failure.
type WeatherAPIError struct {
	Op      string
	Timeout bool
	Err     error
}

func (e *WeatherAPIError) Error() string {
	return fmt.Sprintf("weather %s: %v", e.Op, e.Err)
}

func (e *WeatherAPIError) Unwrap() error { return e.Err }

// ValidationError names the config field that failed validation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ConfigurationError means a conversation cannot start with the current
// credentials.
type ConfigurationError struct {
	Err error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %v", e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

type ProviderErrorKind string

const (
	ProviderUnauthorized ProviderErrorKind = "unauthorized"
	ProviderRateLimited  ProviderErrorKind = "rate_limited"
	ProviderTimeout      ProviderErrorKind = "timeout"
	ProviderOther        ProviderErrorKind = "other"
)

// ProviderError is a classified generation failure.
type ProviderError struct {
	Kind ProviderErrorKind
	Err  error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %v", e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }
