package synthesis

import (
	"fmt"
	"strings"
	"time"

	"github.com/briculinos/voyana/internal/travel"
)

type activityTemplate struct {
	name          string
	category      string
	durationHours float64
	budgetPrice   float64
	standardPrice float64
	location      string
}

// Three rotating activity shapes: orientation, headline sight, food. A longer
// trip cycles through them.
var activityTemplates = []activityTemplate{
	{
		name:          "Welcome to %s - City Walking Tour",
		category:      "tour",
		durationHours: 3,
		budgetPrice:   15,
		standardPrice: 25,
		location:      "%s Old Town",
	},
	{
		name:          "%s Main Attraction Visit",
		category:      "cultural",
		durationHours: 4,
		budgetPrice:   20,
		standardPrice: 40,
		location:      "%s Center",
	},
	{
		name:          "Local Food Experience",
		category:      "food",
		durationHours: 3,
		budgetPrice:   40,
		standardPrice: 80,
		location:      "%s Market District",
	},
}

// buildDayPlans generates one activity per trip day, cycling the templates.
// Returns nil when the traveler has not yet picked interests; the itinerary
// carries ActivitiesPending instead.
func buildDayPlans(in *travel.Intent, tier travel.Tier) []travel.DayPlan {
	if len(in.Interests) == 0 || in.DurationDays <= 0 {
		return nil
	}

	party := float64(in.PartySize())
	plans := make([]travel.DayPlan, 0, in.DurationDays)
	for day := 1; day <= in.DurationDays; day++ {
		tmpl := activityTemplates[(day-1)%len(activityTemplates)]
		price := tmpl.standardPrice
		if tier == travel.TierBudget {
			price = tmpl.budgetPrice
		}
		act := travel.Activity{
			Name:           sprintfIfTagged(tmpl.name, in.Destination),
			Category:       tmpl.category,
			DurationHours:  tmpl.durationHours,
			PricePerPerson: price,
			Location:       sprintfIfTagged(tmpl.location, in.Destination),
		}

		var date time.Time
		if !in.DepartureDate.IsZero() {
			date = in.DepartureDate.AddDate(0, 0, day-1)
		}
		plans = append(plans, travel.DayPlan{
			Day:           day,
			Date:          date,
			Location:      in.Destination,
			Activities:    []travel.Activity{act},
			EstimatedCost: travel.RoundCost(act.PricePerPerson * party),
		})
	}
	return plans
}

func sprintfIfTagged(tmpl, destination string) string {
	if destination == "" {
		destination = "the city"
	}
	if strings.Contains(tmpl, "%s") {
		return fmt.Sprintf(tmpl, destination)
	}
	return tmpl
}
