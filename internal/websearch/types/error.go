package types

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// Configuration errors
	ErrInvalidProviderID   = errors.New("invalid provider ID")
	ErrInvalidProviderName = errors.New("invalid provider name")
	ErrInvalidAPIHost      = errors.New("invalid API host")
	ErrMissingAPIKey       = errors.New("missing API key")
	ErrMissingEngineID     = errors.New("missing search engine ID")
	ErrConfiguration       = errors.New("provider configuration error")

	// Pattern errors
	ErrValidation = errors.New("invalid search pattern")

	// Provider errors
	ErrProviderNotFound     = errors.New("provider not found")
	ErrProviderNotAvailable = errors.New("provider not available")
	ErrProviderRateLimited  = errors.New("provider rate limited")
	ErrProviderUnauthorized = errors.New("provider unauthorized")

	// Request/response errors
	ErrRequestMismatch = errors.New("request compiled for another provider")
	ErrInvalidResponse = errors.New("invalid response from provider")
)

// FieldError describes one rejected field of a search pattern
type FieldError struct {
	Field  string `json:"field"`
	Rule   string `json:"rule"`
	Detail string `json:"detail,omitempty"`
}

// ValidationError is returned when a SearchPattern fails validation.
// It matches ErrValidation with errors.Is.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = fmt.Sprintf("%s (%s)", f.Field, f.Rule)
	}
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(parts, ", "))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// ConfigurationError reports missing or invalid provider configuration.
// It is a deployment defect and must not be retried.
type ConfigurationError struct {
	Provider ProviderID
	Field    string
	Err      error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("[%s] configuration %s: %v", e.Provider, e.Field, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// ProviderError wraps provider-specific errors
type ProviderError struct {
	Provider ProviderID
	Code     string
	Message  string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s (%v)", e.Provider, e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Provider, e.Code, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
