package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/briculinos/voyana/internal/types"
)

// WriteDefault writes a starter config file with the default settings and
// environment-variable placeholders for secrets. Refuses to overwrite.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return types.NewError(types.CONFIG_LOAD_FAILED, "",
			"config file already exists at "+path)
	}

	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return types.WrapError(types.CONFIG_LOAD_FAILED, "",
			"failed to render default config", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return types.WrapError(types.CONFIG_LOAD_FAILED, "",
				"failed to create config directory", err)
		}
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return types.WrapError(types.CONFIG_LOAD_FAILED, "",
			"failed to write config file", err)
	}
	return nil
}

// Render returns the effective configuration as YAML with secret values
// masked, for the `config show` command.
func Render(cfg *Config) (string, error) {
	masked := *cfg
	masked.LLM.APIKey = maskSecret(masked.LLM.APIKey)
	masked.Providers.SerpAPIKey = maskSecret(masked.Providers.SerpAPIKey)
	masked.Providers.Amadeus.APIKey = maskSecret(masked.Providers.Amadeus.APIKey)
	masked.Providers.Amadeus.APISecret = maskSecret(masked.Providers.Amadeus.APISecret)

	data, err := yaml.Marshal(masked)
	if err != nil {
		return "", types.WrapError(types.CONFIG_LOAD_FAILED, "",
			"failed to render config", err)
	}
	return string(data), nil
}

func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	return "********"
}
