package providers

import (
	"fmt"

	"github.com/briculinos/voyana/internal/llm"
)

// New constructs the llm.Provider named by the config.
func New(cfg llm.ProviderConfig) (llm.Provider, error) {
	switch cfg.Name {
	case "openai", "":
		return NewOpenAIProvider(cfg)
	case "static":
		return NewStaticProvider(), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Name)
	}
}
