// Package config defines the service configuration, its YAML loader and its
// validator. Secrets are referenced as ${ENV_VAR} in the file and resolved
// at load time.
package config

import (
	"time"

	"github.com/briculinos/voyana/internal/llm"
	"github.com/briculinos/voyana/internal/supply"
	"github.com/briculinos/voyana/internal/synthesis"
)

// Config is the root configuration object, passed explicitly to the
// components that need it.
type Config struct {
	LLM       llm.ProviderConfig `mapstructure:"llm" yaml:"llm"`
	Providers ProvidersConfig    `mapstructure:"providers" yaml:"providers"`
	Synthesis synthesis.Config   `mapstructure:"synthesis" yaml:"synthesis"`
	Server    ServerConfig       `mapstructure:"server" yaml:"server"`
	Logging   LoggingConfig      `mapstructure:"logging" yaml:"logging"`
}

// ProvidersConfig selects and configures the supply sources.
type ProvidersConfig struct {
	// Static serves deterministic synthetic inventory instead of calling
	// upstream APIs. Used in development and demos.
	Static bool `mapstructure:"static" yaml:"static"`

	// SerpAPIKey enables the Google Flights source.
	SerpAPIKey string `mapstructure:"serpapi_key" yaml:"serpapi_key,omitempty"`

	// SerpBaseURL overrides the SerpAPI endpoint, for tests.
	SerpBaseURL string `mapstructure:"serp_base_url" yaml:"serp_base_url,omitempty"`

	Amadeus AmadeusConfig `mapstructure:"amadeus" yaml:"amadeus"`

	// Search bounds the aggregator's provider calls.
	Search supply.Config `mapstructure:"search" yaml:"search"`
}

// AmadeusConfig holds Amadeus API credentials.
type AmadeusConfig struct {
	APIKey    string `mapstructure:"api_key" yaml:"api_key,omitempty"`
	APISecret string `mapstructure:"api_secret" yaml:"api_secret,omitempty"`
	BaseURL   string `mapstructure:"base_url" yaml:"base_url,omitempty"`
}

// Configured reports whether Amadeus credentials are present.
func (a AmadeusConfig) Configured() bool {
	return a.APIKey != "" && a.APISecret != ""
}

// ServerConfig holds the HTTP boundary settings.
type ServerConfig struct {
	Address         string        `mapstructure:"address" yaml:"address" validate:"required"`
	CORSOrigins     []string      `mapstructure:"cors_origins" yaml:"cors_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// LoggingConfig controls slog setup.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" yaml:"format" validate:"oneof=text json"`
}

// DefaultConfig returns a runnable configuration: static supply, fallback
// narratives unless an OpenAI key is present in the environment.
func DefaultConfig() *Config {
	return &Config{
		LLM: llm.ProviderConfig{
			Name:   "openai",
			APIKey: "${OPENAI_API_KEY}",
			Model:  "gpt-4o-mini",
		},
		Providers: ProvidersConfig{
			Static:     true,
			SerpAPIKey: "${SERPAPI_KEY}",
			Amadeus: AmadeusConfig{
				APIKey:    "${AMADEUS_API_KEY}",
				APISecret: "${AMADEUS_API_SECRET}",
			},
			Search: supply.DefaultConfig(),
		},
		Synthesis: synthesis.DefaultConfig(),
		Server: ServerConfig{
			Address:         ":8000",
			CORSOrigins:     []string{"http://localhost:3000"},
			ShutdownTimeout: 10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
