package synthesis

import (
	"context"
	"fmt"
	"strings"

	"github.com/briculinos/voyana/internal/llm"
	"github.com/briculinos/voyana/internal/travel"
)

// narrative is the prose attached to one itinerary.
type narrative struct {
	Summary       string `json:"summary"`
	WhyThisOption string `json:"why_this_option"`
	Tradeoffs     string `json:"tradeoffs"`
}

const narrativeSystemPrompt = `You are a travel copywriter. Given the facts of one trip option, write three short pieces of copy and return ONLY a JSON object:
{"summary": "...", "why_this_option": "...", "tradeoffs": "..."}

Rules:
- summary: one or two sentences selling the trip's character.
- why_this_option: two sentences on what this option prioritizes.
- tradeoffs: one honest sentence on what the traveler gives up.
- Never invent prices, hotels, or airlines not present in the facts.
- No markdown, no extra keys.`

func narrativeUserPrompt(it *travel.Itinerary, in *travel.Intent) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Tier: %s\nDestination: %s\nDays: %d\nParty: %d adults",
		it.Tier, in.Destination, in.DurationDays, in.Adults)
	if len(in.ChildAges) > 0 {
		fmt.Fprintf(&b, ", %d children", len(in.ChildAges))
	}
	fmt.Fprintf(&b, "\nFlight: %.2f %s, %d stops", it.FlightCost, it.Currency, it.Flight.Stops)
	if len(it.Lodging) > 0 {
		l := it.Lodging[0]
		fmt.Fprintf(&b, "\nStay: %s (%s), %.2f %s total", l.Name, l.Type, it.LodgingCost, it.Currency)
	}
	fmt.Fprintf(&b, "\nFood estimate: %.2f %s\nTotal: %.2f %s", it.FoodCost, it.Currency, it.TotalCost, it.Currency)
	if len(in.Interests) > 0 {
		fmt.Fprintf(&b, "\nInterests: %s", strings.Join(in.Interests, ", "))
	}
	return b.String()
}

// fallbackNarratives are used verbatim whenever the language model is absent
// or fails; narration must never sink an otherwise viable plan.
var fallbackNarratives = map[travel.Tier]narrative{
	travel.TierBudget: {
		Summary:       "Smart spending without missing out. This %d-day trip maximizes experiences while keeping costs down.",
		WhyThisOption: "This itinerary prioritizes value and authentic experiences. You'll stay in well-rated, centrally-located accommodations that free up budget for memorable activities and local food.",
		Tradeoffs:     "To stay within budget, flights may include connections and hotels focus on location over luxury amenities. Perfect for travelers who prefer spending on experiences rather than lodging.",
	},
	travel.TierBalanced: {
		Summary:       "The sweet spot between comfort and adventure. %d days of well-paced exploration with quality accommodations.",
		WhyThisOption: "This itinerary strikes the perfect balance - comfortable flights, well-located hotels with good amenities, and a mix of must-see attractions with local experiences.",
		Tradeoffs:     "Mid-range pricing means good value without extremes. You get comfort and convenience while leaving room in your budget for spontaneous discoveries.",
	},
	travel.TierPremium: {
		Summary:       "Elevated travel with every detail perfected. %d days of luxury accommodations, seamless logistics, and curated experiences.",
		WhyThisOption: "This itinerary prioritizes comfort, convenience, and memorable experiences. Direct flights, top-rated hotels with excellent amenities, and premium activities that showcase the destination's finest offerings.",
		Tradeoffs:     "Higher investment in quality means less budget flexibility, but delivers stress-free travel with elevated experiences throughout your journey.",
	},
}

func fallbackNarrative(tier travel.Tier, durationDays int) narrative {
	n := fallbackNarratives[tier]
	n.Summary = fmt.Sprintf(n.Summary, durationDays)
	return n
}

// narrate fills the itinerary's prose fields in place, preferring the
// language model and falling back to fixed copy on any failure.
func (s *Synthesizer) narrate(ctx context.Context, it *travel.Itinerary, in *travel.Intent) {
	it.Title = titleForTier(it.Tier, in.Destination)

	n := fallbackNarrative(it.Tier, in.DurationDays)
	if s.provider != nil {
		generated, err := s.generateNarrative(ctx, it, in)
		if err != nil {
			s.logger.Warn("narrative generation failed, using fallback copy",
				"tier", it.Tier, "error", err)
		} else {
			n = generated
		}
	}
	it.Summary = n.Summary
	it.WhyThisOption = n.WhyThisOption
	it.Tradeoffs = n.Tradeoffs
}

func (s *Synthesizer) generateNarrative(ctx context.Context, it *travel.Itinerary, in *travel.Intent) (narrative, error) {
	resp, err := s.provider.Complete(ctx, llm.CompletionRequest{
		Messages: []llm.Message{
			llm.NewSystemMessage(narrativeSystemPrompt),
			llm.NewUserMessage(narrativeUserPrompt(it, in)),
		},
		Temperature: 0.7,
	})
	if err != nil {
		return narrative{}, err
	}
	n, err := llm.ExtractJSONAs[narrative](resp.Content)
	if err != nil {
		return narrative{}, err
	}
	if n.Summary == "" || n.WhyThisOption == "" || n.Tradeoffs == "" {
		return narrative{}, fmt.Errorf("narrative response missing fields")
	}
	return n, nil
}

func titleForTier(tier travel.Tier, destination string) string {
	switch tier {
	case travel.TierPremium:
		return fmt.Sprintf("Luxury Option - %s", destination)
	default:
		return fmt.Sprintf("%s Option - %s", tier, destination)
	}
}
