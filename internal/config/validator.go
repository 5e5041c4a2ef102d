package config

import (
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"

	"github.com/briculinos/voyana/internal/synthesis"
	"github.com/briculinos/voyana/internal/types"
)

var validate = validator.New()

// Validate checks structural tags plus the cross-field rules the tag
// language cannot express.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return types.WrapError(types.CONFIG_VALIDATION_FAILED, "",
			"configuration is invalid", err)
	}

	if !cfg.Providers.Static && cfg.Providers.SerpAPIKey == "" && !cfg.Providers.Amadeus.Configured() {
		return types.NewError(types.CONFIG_VALIDATION_FAILED, "",
			"no supply source configured: enable providers.static or set API credentials")
	}

	if cfg.Providers.Search.BudgetShareCap < 0 || cfg.Providers.Search.BudgetShareCap > 1 {
		return types.NewError(types.CONFIG_VALIDATION_FAILED, "",
			"providers.search.budget_share_cap must be within (0, 1]")
	}

	for name, split := range map[string]synthesis.TierSplit{
		"budget":   cfg.Synthesis.Budget,
		"balanced": cfg.Synthesis.Balanced,
		"premium":  cfg.Synthesis.Premium,
	} {
		if err := validateSplit(name, split); err != nil {
			return err
		}
	}
	return nil
}

func validateSplit(name string, s synthesis.TierSplit) error {
	sum := s.Flight + s.Lodging + s.Activities + s.Food
	if math.Abs(sum-1) > 0.001 {
		return types.NewError(types.CONFIG_VALIDATION_FAILED, "",
			fmt.Sprintf("synthesis.%s split ratios sum to %.3f, want 1", name, sum))
	}
	if s.Target <= 0 || s.Target > 1 {
		return types.NewError(types.CONFIG_VALIDATION_FAILED, "",
			fmt.Sprintf("synthesis.%s.target must be within (0, 1]", name))
	}
	if s.FoodRate <= 0 {
		return types.NewError(types.CONFIG_VALIDATION_FAILED, "",
			fmt.Sprintf("synthesis.%s.food_rate must be positive", name))
	}
	return nil
}
