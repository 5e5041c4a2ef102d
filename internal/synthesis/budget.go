package synthesis

import (
	"github.com/briculinos/voyana/internal/scoring"
	"github.com/briculinos/voyana/internal/travel"
)

// TierSplit holds one tier's budget split ratios and food floor. Ratios apply
// to Target × total budget; Budget tier aims under the stated budget to leave
// headroom, Premium may use all of it.
type TierSplit struct {
	Flight     float64 `mapstructure:"flight" yaml:"flight"`
	Lodging    float64 `mapstructure:"lodging" yaml:"lodging"`
	Activities float64 `mapstructure:"activities" yaml:"activities"`
	Food       float64 `mapstructure:"food" yaml:"food"`

	// Target is the fraction of the trip budget this tier plans against.
	Target float64 `mapstructure:"target" yaml:"target"`

	// FoodRate is the estimated food cost per person per day.
	FoodRate float64 `mapstructure:"food_rate" yaml:"food_rate"`
}

// Config carries the per-tier splits plus the weight blends used for the
// per-tier re-rank.
type Config struct {
	Budget   TierSplit `mapstructure:"budget" yaml:"budget"`
	Balanced TierSplit `mapstructure:"balanced" yaml:"balanced"`
	Premium  TierSplit `mapstructure:"premium" yaml:"premium"`

	Weights scoring.Config `mapstructure:"weights" yaml:"weights"`
}

// DefaultConfig returns the production splits and food floors.
func DefaultConfig() Config {
	return Config{
		Budget:   TierSplit{Flight: 0.35, Lodging: 0.30, Activities: 0.15, Food: 0.20, Target: 0.9, FoodRate: 40},
		Balanced: TierSplit{Flight: 0.35, Lodging: 0.35, Activities: 0.15, Food: 0.15, Target: 1.0, FoodRate: 60},
		Premium:  TierSplit{Flight: 0.30, Lodging: 0.45, Activities: 0.15, Food: 0.10, Target: 1.0, FoodRate: 100},
		Weights:  scoring.DefaultConfig(),
	}
}

// ForTier returns the split for a tier.
func (c Config) ForTier(t travel.Tier) TierSplit {
	switch t {
	case travel.TierBudget:
		return c.Budget
	case travel.TierPremium:
		return c.Premium
	default:
		return c.Balanced
	}
}

// Allocation is one tier's spending plan in trip currency.
type Allocation struct {
	Flight     float64
	Lodging    float64
	Activities float64
	Food       float64
	Total      float64
}

// Allocate splits a trip budget for one tier. Each share is rounded to cents
// and the food share absorbs the rounding remainder so the parts sum to the
// target exactly.
func Allocate(budget float64, s TierSplit) Allocation {
	target := travel.RoundCost(budget * s.Target)
	a := Allocation{
		Flight:     travel.RoundCost(target * s.Flight),
		Lodging:    travel.RoundCost(target * s.Lodging),
		Activities: travel.RoundCost(target * s.Activities),
		Total:      target,
	}
	a.Food = travel.RoundCost(target - a.Flight - a.Lodging - a.Activities)
	return a
}
