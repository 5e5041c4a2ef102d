package config

import (
	"os"
	"regexp"
	"strings"

	"github.com/spf13/viper"

	"github.com/briculinos/voyana/internal/types"
)

// Load reads and validates a YAML config file, resolving ${ENV_VAR}
// references in its values.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, types.WrapError(types.CONFIG_LOAD_FAILED, "",
			"failed to read config file "+path, err)
	}

	interpolated, _ := interpolateEnvVars(v.AllSettings()).(map[string]any)
	merged := viper.New()
	if err := merged.MergeConfigMap(interpolated); err != nil {
		return nil, types.WrapError(types.CONFIG_LOAD_FAILED, "",
			"failed to merge config", err)
	}

	cfg := DefaultConfig()
	if err := merged.Unmarshal(cfg); err != nil {
		return nil, types.WrapError(types.CONFIG_LOAD_FAILED, "",
			"failed to unmarshal config", err)
	}
	resolveSecrets(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadWithDefaults loads the file when it exists, otherwise returns the
// validated default configuration.
func LoadWithDefaults(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := DefaultConfig()
		resolveSecrets(cfg)
		if err := Validate(cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	return Load(path)
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// interpolateEnvVars walks the settings tree replacing ${VAR} references in
// string values.
func interpolateEnvVars(data any) any {
	switch v := data.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, val := range v {
			out[k] = interpolateEnvVars(val)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, val := range v {
			out[i] = interpolateEnvVars(val)
		}
		return out
	case string:
		return interpolateString(v)
	default:
		return v
	}
}

func interpolateString(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		name := strings.TrimSuffix(strings.TrimPrefix(match, "${"), "}")
		if value := os.Getenv(name); value != "" {
			return value
		}
		return match
	})
}

// resolveSecrets interpolates the credential fields and blanks any reference
// whose environment variable is unset, so a literal placeholder never gets
// sent upstream as a key.
func resolveSecrets(cfg *Config) {
	for _, field := range []*string{
		&cfg.LLM.APIKey,
		&cfg.Providers.SerpAPIKey,
		&cfg.Providers.Amadeus.APIKey,
		&cfg.Providers.Amadeus.APISecret,
	} {
		*field = interpolateString(*field)
		if envVarPattern.MatchString(*field) {
			*field = ""
		}
	}
}
