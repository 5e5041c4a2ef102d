// Package scoring ranks supply candidates against a traveler's intent. All
// scores land in [0,1] and ordering is deterministic: equal scores break by
// lower price, then higher review count, then arrival order.
package scoring

import (
	"sort"
	"strings"

	"github.com/briculinos/voyana/internal/travel"
)

// Weights blends the three sub-scores into one fitness value. The scorer
// normalizes them, so callers may pass any positive ratio.
type Weights struct {
	Price      float64 `mapstructure:"price" yaml:"price"`
	Quality    float64 `mapstructure:"quality" yaml:"quality"`
	Preference float64 `mapstructure:"preference" yaml:"preference"`
}

// Tier presets: cheap trips weight price, premium trips weight quality.
var (
	BudgetWeights   = Weights{Price: 0.6, Quality: 0.2, Preference: 0.2}
	BalancedWeights = Weights{Price: 1.0 / 3, Quality: 1.0 / 3, Preference: 1.0 / 3}
	PremiumWeights  = Weights{Price: 0.2, Quality: 0.6, Preference: 0.2}
)

// WeightsForTier returns the preset blend for a tier.
func WeightsForTier(t travel.Tier) Weights {
	switch t {
	case travel.TierBudget:
		return BudgetWeights
	case travel.TierPremium:
		return PremiumWeights
	default:
		return BalancedWeights
	}
}

// Config carries configurable per-tier weight blends. A zero blend falls back
// to the tier preset.
type Config struct {
	Budget   Weights `mapstructure:"budget" yaml:"budget"`
	Balanced Weights `mapstructure:"balanced" yaml:"balanced"`
	Premium  Weights `mapstructure:"premium" yaml:"premium"`
}

// DefaultConfig returns the tier presets.
func DefaultConfig() Config {
	return Config{Budget: BudgetWeights, Balanced: BalancedWeights, Premium: PremiumWeights}
}

// ForTier returns the configured blend for a tier, or the preset when the
// configured blend is zero.
func (c Config) ForTier(t travel.Tier) Weights {
	var w Weights
	switch t {
	case travel.TierBudget:
		w = c.Budget
	case travel.TierPremium:
		w = c.Premium
	default:
		w = c.Balanced
	}
	if w == (Weights{}) {
		return WeightsForTier(t)
	}
	return w
}

func (w Weights) normalized() Weights {
	sum := w.Price + w.Quality + w.Preference
	if sum <= 0 {
		return BalancedWeights
	}
	return Weights{Price: w.Price / sum, Quality: w.Quality / sum, Preference: w.Preference / sum}
}

func (w Weights) blend(s travel.SubScores) float64 {
	return clamp01(w.Price*s.PriceFit + w.Quality*s.QualityFit + w.Preference*s.PreferenceFit)
}

// Scorer scores candidate pools with one weight blend. Construct one per tier
// when re-ranking.
type Scorer struct {
	weights Weights
}

// NewScorer returns a Scorer using the given blend.
func NewScorer(w Weights) *Scorer {
	return &Scorer{weights: w.normalized()}
}

// ScoreFlights scores and ranks flight candidates, best first.
func (s *Scorer) ScoreFlights(flights []travel.FlightOption, in *travel.Intent) []travel.ScoredFlight {
	if len(flights) == 0 {
		return nil
	}

	cheapest := flights[0].Price.Amount
	minDuration := flights[0].DurationMinutes
	maxStops := 0
	for _, f := range flights {
		if f.Price.Amount < cheapest {
			cheapest = f.Price.Amount
		}
		if f.DurationMinutes > 0 && (minDuration <= 0 || f.DurationMinutes < minDuration) {
			minDuration = f.DurationMinutes
		}
		if f.Stops > maxStops {
			maxStops = f.Stops
		}
	}

	out := make([]travel.ScoredFlight, len(flights))
	for i := range flights {
		f := &flights[i]
		sub := travel.SubScores{
			PriceFit:      priceFit(f.Price.Amount, cheapest),
			QualityFit:    flightQualityFit(f, minDuration, maxStops),
			PreferenceFit: flightPreferenceFit(f, in),
		}
		out[i] = travel.ScoredFlight{Option: f, Score: s.weights.blend(sub), Sub: sub}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Option.Price.Amount < out[j].Option.Price.Amount
	})
	return out
}

// ScoreLodging scores and ranks lodging candidates, best first.
func (s *Scorer) ScoreLodging(lodging []travel.LodgingOption, in *travel.Intent) []travel.ScoredLodging {
	if len(lodging) == 0 {
		return nil
	}

	cheapest := lodging[0].TotalPrice.Amount
	for _, l := range lodging {
		if l.TotalPrice.Amount < cheapest {
			cheapest = l.TotalPrice.Amount
		}
	}

	out := make([]travel.ScoredLodging, len(lodging))
	for i := range lodging {
		l := &lodging[i]
		sub := travel.SubScores{
			PriceFit:      priceFit(l.TotalPrice.Amount, cheapest),
			QualityFit:    lodgingQualityFit(l),
			PreferenceFit: lodgingPreferenceFit(l, in),
		}
		out[i] = travel.ScoredLodging{Option: l, Score: s.weights.blend(sub), Sub: sub}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if out[i].Option.TotalPrice.Amount != out[j].Option.TotalPrice.Amount {
			return out[i].Option.TotalPrice.Amount < out[j].Option.TotalPrice.Amount
		}
		return reviewCount(out[i].Option) > reviewCount(out[j].Option)
	})
	return out
}

// priceFit is cheapest/price: 1.0 for the cheapest candidate, shrinking as
// price grows.
func priceFit(price, cheapest float64) float64 {
	if price <= 0 {
		return 0
	}
	return clamp01(cheapest / price)
}

func flightQualityFit(f *travel.FlightOption, minDuration, maxStops int) float64 {
	stopFit := 1.0
	if maxStops > 0 {
		stopFit = float64(maxStops-f.Stops) / float64(maxStops)
	}
	durationFit := 1.0
	if f.DurationMinutes > 0 && minDuration > 0 {
		durationFit = clamp01(float64(minDuration) / float64(f.DurationMinutes))
	}
	return clamp01(0.5*stopFit + 0.5*durationFit)
}

// flightPreferenceFit captures trip-shape preferences: nonstop is worth a
// lot, one stop a little, and departures at civilized hours beat red-eyes.
// Budget-level travelers get an extra cheapness bonus.
func flightPreferenceFit(f *travel.FlightOption, in *travel.Intent) float64 {
	score := 0.5
	switch f.Stops {
	case 0:
		score += 0.3
	case 1:
		score += 0.1
	default:
		score -= 0.1
	}
	if len(f.Outbound) > 0 {
		if h := f.Outbound[0].Departure.Hour(); h >= 8 && h < 20 {
			score += 0.1
		}
	}
	if in != nil && in.BudgetLevel == travel.BudgetLevelBudget && in.Budget.Amount > 0 {
		ratio := f.Price.Amount / (in.Budget.Amount * 0.4)
		score += max0(0.3 - ratio*0.3)
	}
	return clamp01(score)
}

func lodgingQualityFit(l *travel.LodgingOption) float64 {
	if l.Rating == nil {
		return 0.5
	}
	return clamp01(*l.Rating / 10)
}

var familyAmenities = []string{"pool", "family", "kids", "playground", "crib"}

var luxuryAmenities = []string{"spa", "concierge", "pool", "restaurant", "room service"}

// interestAmenityHints maps traveler interests to amenity vocabulary, so
// "food" matches a listing advertising a restaurant or breakfast.
var interestAmenityHints = map[string][]string{
	"food":       {"restaurant", "breakfast", "kitchen", "bar"},
	"wellness":   {"spa", "pool", "sauna", "gym"},
	"nature":     {"garden", "terrace", "view"},
	"nightlife":  {"bar", "lounge"},
	"culture":    {"central", "historic"},
	"relaxation": {"spa", "pool", "quiet"},
}

func lodgingPreferenceFit(l *travel.LodgingOption, in *travel.Intent) float64 {
	score := 0.5
	if in == nil {
		return score
	}

	amenities := strings.ToLower(strings.Join(l.Amenities, " ") + " " + l.Type)

	if len(in.Interests) > 0 {
		matched := 0
		for _, interest := range in.Interests {
			key := strings.ToLower(strings.TrimSpace(interest))
			hints := interestAmenityHints[key]
			hints = append(hints, key)
			for _, hint := range hints {
				if strings.Contains(amenities, hint) {
					matched++
					break
				}
			}
		}
		score += 0.3 * float64(matched) / float64(len(in.Interests))
	}

	if len(in.ChildAges) > 0 && containsAny(amenities, familyAmenities) {
		score += 0.2
	}

	switch in.BudgetLevel {
	case travel.BudgetLevelLuxury:
		if countMatches(amenities, luxuryAmenities) >= 2 {
			score += 0.1
		}
		if l.Rating != nil && *l.Rating >= 9 {
			score += 0.1
		}
	case travel.BudgetLevelBudget:
		if in.Budget.Amount > 0 {
			ratio := l.TotalPrice.Amount / (in.Budget.Amount * 0.4)
			score += max0(0.3 - ratio*0.3)
		}
	}

	if l.DistanceToCenterKm != nil && *l.DistanceToCenterKm < 2 {
		score += 0.1
	}

	return clamp01(score)
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}

func countMatches(haystack string, needles []string) int {
	n := 0
	for _, needle := range needles {
		if strings.Contains(haystack, needle) {
			n++
		}
	}
	return n
}

func reviewCount(l *travel.LodgingOption) int {
	if l.ReviewCount == nil {
		return 0
	}
	return *l.ReviewCount
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func max0(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
