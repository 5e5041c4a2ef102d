// Package synthesis assembles the three tiered itineraries from scored
// supply. Each tier claims its own flight and lodging so the options stay
// differentiated, and every cost breakdown sums exactly.
package synthesis

import (
	"context"
	"log/slog"

	"github.com/briculinos/voyana/internal/llm"
	"github.com/briculinos/voyana/internal/scoring"
	"github.com/briculinos/voyana/internal/travel"
	"github.com/briculinos/voyana/internal/types"
)

const degradedTradeoffNote = " Lodging availability was limited for these dates, so options overlap more than usual."

// Input is everything the synthesizer needs for one request.
type Input struct {
	Flights []travel.ScoredFlight
	Lodging []travel.ScoredLodging
	Intent  *travel.Intent

	// DegradedSupply marks that a supply provider failed and the candidate
	// pools are thinner than normal.
	DegradedSupply bool
}

// Synthesizer builds the tiered plans. The LLM provider is optional; without
// one the fixed narrative copy is used.
type Synthesizer struct {
	cfg      Config
	provider llm.Provider
	logger   *slog.Logger
}

// New creates a Synthesizer. provider may be nil.
func New(cfg Config, provider llm.Provider, logger *slog.Logger) *Synthesizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Synthesizer{cfg: cfg, provider: provider, logger: logger}
}

// Synthesize produces the Budget, Balanced and Premium itineraries, in that
// order, with monotonically non-decreasing totals. It fails only when no
// flight and lodging pair fits under the trip budget at all.
func (s *Synthesizer) Synthesize(ctx context.Context, input Input) ([]travel.Itinerary, error) {
	in := input.Intent
	if len(input.Flights) == 0 || len(input.Lodging) == 0 {
		return nil, types.NewError(types.SYNTHESIS_FAILED, types.StageSynthesis,
			"no candidates available to build itineraries from")
	}
	if !anyViablePair(input, in.Budget.Amount) {
		return nil, types.NewError(types.SYNTHESIS_FAILED, types.StageSynthesis,
			"no flight and lodging combination fits the budget")
	}

	claimedFlights := map[string]bool{}
	claimedLodging := map[string]bool{}

	itineraries := make([]travel.Itinerary, 0, len(travel.Tiers))
	prevTotal := 0.0
	for _, tier := range travel.Tiers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		it := s.buildTier(ctx, tier, input, claimedFlights, claimedLodging, prevTotal)
		prevTotal = it.TotalCost
		itineraries = append(itineraries, it)
	}
	return itineraries, nil
}

func anyViablePair(input Input, budget float64) bool {
	if budget <= 0 {
		return true
	}
	cheapestFlight := input.Flights[0].Option.Price.Amount
	for _, f := range input.Flights {
		if f.Option.Price.Amount < cheapestFlight {
			cheapestFlight = f.Option.Price.Amount
		}
	}
	cheapestStay := input.Lodging[0].Option.TotalPrice.Amount
	for _, l := range input.Lodging {
		if l.Option.TotalPrice.Amount < cheapestStay {
			cheapestStay = l.Option.TotalPrice.Amount
		}
	}
	return cheapestFlight+cheapestStay <= budget
}

// buildTier claims a flight and lodging for one tier and prices the plan.
func (s *Synthesizer) buildTier(ctx context.Context, tier travel.Tier, input Input,
	claimedFlights, claimedLodging map[string]bool, prevTotal float64) travel.Itinerary {

	in := input.Intent
	split := s.cfg.ForTier(tier)
	alloc := Allocate(in.Budget.Amount, split)

	// Re-rank with the tier's own weight blend so Budget chases price and
	// Premium chases quality.
	scorer := scoring.NewScorer(s.cfg.Weights.ForTier(tier))
	flights := rescoreFlights(scorer, input.Flights, in)
	lodging := rescoreLodging(scorer, input.Lodging, in)

	foodCost := travel.RoundCost(split.FoodRate * float64(in.PartySize()) * float64(in.DurationDays))

	dayPlans := buildDayPlans(in, tier)
	activitiesCost := 0.0
	for _, p := range dayPlans {
		activitiesCost += p.EstimatedCost
	}
	activitiesCost = travel.RoundCost(activitiesCost)

	flight, lodgingOpt, degraded := claimPair(flights, lodging, claimedFlights, claimedLodging,
		alloc, in.Budget.Amount, prevTotal, foodCost+activitiesCost)

	flightCost := travel.RoundCost(flight.Price.Amount)
	lodgingCost := travel.RoundCost(lodgingOpt.TotalPrice.Amount)

	it := travel.Itinerary{
		Tier:              tier,
		Flight:            *flight,
		Lodging:           []travel.LodgingOption{*lodgingOpt},
		DayPlans:          dayPlans,
		ActivitiesPending: len(dayPlans) == 0,
		FlightCost:        flightCost,
		LodgingCost:       lodgingCost,
		ActivitiesCost:    activitiesCost,
		FoodCost:          foodCost,
		// Plain sum of the already cent-rounded components; re-rounding
		// here would let float noise break the exact-sum invariant.
		TotalCost:        flightCost + lodgingCost + activitiesCost + foodCost,
		Currency:         in.Budget.Currency,
		DegradedCoverage: degraded || input.DegradedSupply,
	}

	s.narrate(ctx, &it, in)
	if it.DegradedCoverage {
		it.Tradeoffs += degradedTradeoffNote
	}
	return it
}

// claimPair walks the tier-ranked candidates and picks the best pair, in
// falling preference: unclaimed within allocation, within budget and
// monotonic; unclaimed within budget and monotonic; any unclaimed within
// budget; reuse of a claimed pair within budget; finally any pair at all.
// The trip budget is only relaxed in the final pass, which marks the
// itinerary degraded along with any reuse.
func claimPair(flights []travel.ScoredFlight, lodging []travel.ScoredLodging,
	claimedFlights, claimedLodging map[string]bool,
	alloc Allocation, budget, prevTotal, fixedCosts float64) (*travel.FlightOption, *travel.LodgingOption, bool) {

	type pass struct {
		requireUnclaimed bool
		requireFit       bool
		requireBudget    bool
		requireMonotonic bool
	}
	passes := []pass{
		{requireUnclaimed: true, requireFit: true, requireBudget: true, requireMonotonic: true},
		{requireUnclaimed: true, requireBudget: true, requireMonotonic: true},
		{requireUnclaimed: true, requireBudget: true},
		{requireBudget: true},
		{},
	}

	withinBudget := func(f *travel.FlightOption, l *travel.LodgingOption) bool {
		return budget <= 0 || f.Price.Amount+l.TotalPrice.Amount+fixedCosts <= budget
	}

	for _, p := range passes {
		for _, sf := range flights {
			f := sf.Option
			if p.requireUnclaimed && claimedFlights[f.Key()] {
				continue
			}
			if p.requireFit && f.Price.Amount > alloc.Flight {
				continue
			}
			for _, sl := range lodging {
				l := sl.Option
				if p.requireUnclaimed && claimedLodging[l.Key()] {
					continue
				}
				if p.requireFit && l.TotalPrice.Amount > alloc.Lodging {
					continue
				}
				if p.requireBudget && !withinBudget(f, l) {
					continue
				}
				if p.requireMonotonic && f.Price.Amount+l.TotalPrice.Amount+fixedCosts < prevTotal {
					continue
				}
				degraded := claimedFlights[f.Key()] || claimedLodging[l.Key()] || !withinBudget(f, l)
				claimedFlights[f.Key()] = true
				claimedLodging[l.Key()] = true
				return f, l, degraded
			}
		}
	}

	// Unreachable while both pools are non-empty; the final pass accepts any
	// pair. Kept for safety against empty input.
	f := flights[0].Option
	l := lodging[0].Option
	return f, l, true
}

func rescoreFlights(s *scoring.Scorer, scored []travel.ScoredFlight, in *travel.Intent) []travel.ScoredFlight {
	opts := make([]travel.FlightOption, len(scored))
	for i, sf := range scored {
		opts[i] = *sf.Option
	}
	return s.ScoreFlights(opts, in)
}

func rescoreLodging(s *scoring.Scorer, scored []travel.ScoredLodging, in *travel.Intent) []travel.ScoredLodging {
	opts := make([]travel.LodgingOption, len(scored))
	for i, sl := range scored {
		opts[i] = *sl.Option
	}
	return s.ScoreLodging(opts, in)
}
