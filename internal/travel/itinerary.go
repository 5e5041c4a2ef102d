package travel

import (
	"fmt"
	"math"
	"time"
)

// Tier is one of the three output itinerary styles.
type Tier string

const (
	TierBudget   Tier = "Budget"
	TierBalanced Tier = "Balanced"
	TierPremium  Tier = "Premium"
)

// Tiers lists the three tiers in claim order: Budget claims candidates first,
// then Balanced, then Premium.
var Tiers = []Tier{TierBudget, TierBalanced, TierPremium}

// Activity is a single bookable experience inside a day plan.
type Activity struct {
	Name           string  `json:"name"`
	Category       string  `json:"category"`
	DurationHours  float64 `json:"duration_hours"`
	PricePerPerson float64 `json:"price_per_person"`
	Location       string  `json:"location"`
}

// DayPlan is one day of an itinerary. Lodging is referenced by the parent
// itinerary, not repeated here.
type DayPlan struct {
	Day           int        `json:"day"`
	Date          time.Time  `json:"date"`
	Location      string     `json:"location"`
	Activities    []Activity `json:"activities"`
	EstimatedCost float64    `json:"estimated_cost"`
}

// Itinerary is the final deliverable: one of three internally consistent,
// priced plans for the same trip.
type Itinerary struct {
	Tier    Tier   `json:"tier"`
	Title   string `json:"title"`
	Summary string `json:"summary"`

	Flight  FlightOption    `json:"flight"`
	Lodging []LodgingOption `json:"lodging"`

	DayPlans          []DayPlan `json:"day_plans"`
	ActivitiesPending bool      `json:"activities_pending"`

	FlightCost     float64 `json:"flight_cost"`
	LodgingCost    float64 `json:"lodging_cost"`
	ActivitiesCost float64 `json:"activities_cost"`
	FoodCost       float64 `json:"estimated_food_cost"`
	TotalCost      float64 `json:"total_cost"`
	Currency       string  `json:"currency"`

	WhyThisOption    string `json:"why_this_option"`
	Tradeoffs        string `json:"tradeoffs"`
	DegradedCoverage bool   `json:"degraded_coverage"`
}

// Validate checks the exact-sum cost invariant and day-plan coverage.
func (it *Itinerary) Validate(durationDays int) error {
	sum := it.FlightCost + it.LodgingCost + it.ActivitiesCost + it.FoodCost
	if sum != it.TotalCost {
		return fmt.Errorf("%s itinerary cost breakdown %.2f does not sum to total %.2f", it.Tier, sum, it.TotalCost)
	}
	if len(it.Lodging) == 0 {
		return fmt.Errorf("%s itinerary has no lodging", it.Tier)
	}
	if len(it.DayPlans) > 0 && len(it.DayPlans) != durationDays {
		return fmt.Errorf("%s itinerary has %d day plans for a %d-day trip", it.Tier, len(it.DayPlans), durationDays)
	}
	if len(it.DayPlans) == 0 && !it.ActivitiesPending {
		return fmt.Errorf("%s itinerary has no day plans and no pending marker", it.Tier)
	}
	return nil
}

// RoundCost normalizes a cost to cents so breakdown components sum exactly.
func RoundCost(v float64) float64 {
	return math.Round(v*100) / 100
}
