package llm

// ProviderConfig holds connection settings for one LLM provider.
type ProviderConfig struct {
	// Name selects the implementation: "openai" or "static".
	Name string `mapstructure:"name" yaml:"name"`

	// APIKey authenticates against the provider. Falls back to the
	// provider's conventional environment variable when empty.
	APIKey string `mapstructure:"api_key" yaml:"api_key,omitempty"`

	// Model is the default model identifier for completion calls.
	Model string `mapstructure:"model" yaml:"model"`

	// BaseURL overrides the provider endpoint (proxies, test servers).
	BaseURL string `mapstructure:"base_url" yaml:"base_url,omitempty"`
}
