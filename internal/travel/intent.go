package travel

import (
	"fmt"
	"time"

	"github.com/briculinos/voyana/internal/types"
)

// BudgetLevel expresses how budget-conscious the traveler is, inferred from
// budget per person per day when not stated outright.
type BudgetLevel string

const (
	BudgetLevelBudget   BudgetLevel = "budget"
	BudgetLevelModerate BudgetLevel = "moderate"
	BudgetLevelLuxury   BudgetLevel = "luxury"
)

// MaxChildAge is the oldest age counted as a child traveler.
const MaxChildAge = 17

// Intent is the validated, structured description of what the traveler wants.
// Created once per request by the extractor and read-only downstream.
type Intent struct {
	Origin           string `json:"origin"`
	Destination      string `json:"destination"`
	DestinationBlurb string `json:"destination_blurb,omitempty"`

	DepartureDate       time.Time `json:"departure_date"`
	ReturnDate          time.Time `json:"return_date"`
	DurationDays        int       `json:"duration_days"`
	FlexibleDates       bool      `json:"flexible_dates"`
	DateFlexibilityDays int       `json:"date_flexibility_days"`

	Adults    int   `json:"adults"`
	ChildAges []int `json:"child_ages,omitempty"`

	Budget      Money       `json:"budget"`
	BudgetLevel BudgetLevel `json:"budget_level"`

	Interests   []string `json:"interests,omitempty"`
	TravelStyle string   `json:"travel_style,omitempty"`
}

// PartySize returns the total number of travelers.
func (i *Intent) PartySize() int {
	return i.Adults + len(i.ChildAges)
}

// Nights returns the number of lodging nights for the trip.
func (i *Intent) Nights() int {
	if i.DurationDays > 0 {
		return i.DurationDays
	}
	if !i.DepartureDate.IsZero() && !i.ReturnDate.IsZero() {
		return int(i.ReturnDate.Sub(i.DepartureDate).Hours() / 24)
	}
	return 0
}

// Validate checks every invariant the pipeline relies on. The extractor calls
// this after merging LLM output with structured fields, so malformed values
// from the probabilistic capability never reach downstream stages. now is
// injected so tests are deterministic.
func (i *Intent) Validate(now time.Time) error {
	if i.Destination == "" {
		return types.NewFieldError(types.INTENT_INVALID, types.StageIntent,
			"destination", "a destination could not be determined from your request; please name a city or region")
	}
	if i.Adults < 1 {
		return types.NewFieldError(types.INTENT_INVALID, types.StageIntent,
			"adults", "at least one adult traveler is required")
	}
	for idx, age := range i.ChildAges {
		if age < 0 || age > MaxChildAge {
			return types.NewFieldError(types.INTENT_INVALID, types.StageIntent,
				fmt.Sprintf("child_ages[%d]", idx),
				fmt.Sprintf("child age %d is outside the allowed range 0-%d; travelers 18 and over count as adults", age, MaxChildAge))
		}
	}
	if i.Budget.Amount <= 0 {
		return types.NewFieldError(types.INTENT_INVALID, types.StageIntent,
			"budget", "a total budget greater than zero is required")
	}
	if i.DepartureDate.IsZero() && i.DurationDays <= 0 {
		return types.NewFieldError(types.INTENT_INVALID, types.StageIntent,
			"dates", "either travel dates or a trip duration in days is required")
	}
	if !i.DepartureDate.IsZero() {
		today := now.Truncate(24 * time.Hour)
		if i.DepartureDate.Before(today) {
			return types.NewFieldError(types.INTENT_INVALID, types.StageIntent,
				"departure_date", fmt.Sprintf("departure date %s is in the past", i.DepartureDate.Format("2006-01-02")))
		}
		if !i.ReturnDate.IsZero() && !i.ReturnDate.After(i.DepartureDate) {
			return types.NewFieldError(types.INTENT_INVALID, types.StageIntent,
				"return_date", "return date must be after the departure date")
		}
	}
	if i.DurationDays < 0 {
		return types.NewFieldError(types.INTENT_INVALID, types.StageIntent,
			"duration_days", "trip duration cannot be negative")
	}
	return nil
}

// InferBudgetLevel derives the budget-consciousness tier from budget per
// person per day: under 100 is budget, over 300 is luxury, else moderate.
func (i *Intent) InferBudgetLevel() BudgetLevel {
	days := i.DurationDays
	if days <= 0 {
		days = 7
	}
	party := i.PartySize()
	if party == 0 {
		return BudgetLevelModerate
	}
	perPersonPerDay := i.Budget.Amount / (float64(days) * float64(party))
	switch {
	case perPersonPerDay < 100:
		return BudgetLevelBudget
	case perPersonPerDay > 300:
		return BudgetLevelLuxury
	default:
		return BudgetLevelModerate
	}
}
