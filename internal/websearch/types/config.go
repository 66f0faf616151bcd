package types

import "strings"

type ProviderID string

const (
	ProviderGoogle  ProviderID = "google"
	ProviderSerpAPI ProviderID = "serpapi"
)

// ParseProviderID resolves a user supplied provider name
func ParseProviderID(s string) (ProviderID, error) {
	switch id := ProviderID(strings.ToLower(strings.TrimSpace(s))); id {
	case ProviderGoogle, ProviderSerpAPI:
		return id, nil
	case "":
		return ProviderGoogle, nil
	default:
		return "", ErrProviderNotFound
	}
}

// ProviderConfig represents search provider configuration
type ProviderConfig struct {
	ID   ProviderID `json:"id" yaml:"id" mapstructure:"id"`
	Name string     `json:"name" yaml:"name" mapstructure:"name"`

	// API settings
	APIHost string `json:"api_host" yaml:"api_host" mapstructure:"api_host"`
	APIKey  string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// Google Programmable Search engine id (cx)
	EngineID string `json:"engine_id,omitempty" yaml:"engine_id,omitempty" mapstructure:"engine_id"`

	// Optional settings
	Timeout    int `json:"timeout,omitempty" yaml:"timeout,omitempty" mapstructure:"timeout"`             // seconds
	MaxRetries int `json:"max_retries,omitempty" yaml:"max_retries,omitempty" mapstructure:"max_retries"` // default: 3
}

// Enabled reports whether the provider has enough configuration to be constructed.
func (c *ProviderConfig) Enabled() bool {
	return c != nil && c.APIKey != ""
}

// Validate validates the provider configuration
func (c *ProviderConfig) Validate() error {
	if c.ID == "" {
		return ErrInvalidProviderID
	}
	if c.Name == "" {
		return ErrInvalidProviderName
	}
	if c.APIHost == "" {
		return ErrInvalidAPIHost
	}
	if c.APIKey == "" {
		return &ConfigurationError{Provider: c.ID, Field: "api_key", Err: ErrMissingAPIKey}
	}

	// Google also needs the programmable search engine id
	if c.ID == ProviderGoogle && strings.TrimSpace(c.EngineID) == "" {
		return &ConfigurationError{Provider: c.ID, Field: "engine_id", Err: ErrMissingEngineID}
	}

	return nil
}
