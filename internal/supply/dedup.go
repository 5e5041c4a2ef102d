package supply

import (
	"sort"

	"github.com/briculinos/voyana/internal/travel"
)

// DedupFlights collapses offers that share an equivalence key, keeping the
// cheapest listing of each. Ties go to the lexicographically smaller source
// name so the result is stable across provider arrival order. Output is
// sorted by price ascending.
func DedupFlights(opts []travel.FlightOption) []travel.FlightOption {
	best := make(map[string]travel.FlightOption, len(opts))
	for _, f := range opts {
		k := f.Key()
		cur, ok := best[k]
		if !ok || betterListing(f.Price.Amount, f.Source, cur.Price.Amount, cur.Source) {
			best[k] = f
		}
	}
	out := make([]travel.FlightOption, 0, len(best))
	for _, f := range best {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Price.Amount != out[j].Price.Amount {
			return out[i].Price.Amount < out[j].Price.Amount
		}
		return out[i].Key() < out[j].Key()
	})
	return out
}

// DedupLodging collapses duplicate property listings the same way.
func DedupLodging(opts []travel.LodgingOption) []travel.LodgingOption {
	best := make(map[string]travel.LodgingOption, len(opts))
	for _, l := range opts {
		k := l.Key()
		cur, ok := best[k]
		if !ok || betterListing(l.TotalPrice.Amount, l.Source, cur.TotalPrice.Amount, cur.Source) {
			best[k] = l
		}
	}
	out := make([]travel.LodgingOption, 0, len(best))
	for _, l := range best {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalPrice.Amount != out[j].TotalPrice.Amount {
			return out[i].TotalPrice.Amount < out[j].TotalPrice.Amount
		}
		return out[i].Key() < out[j].Key()
	})
	return out
}

func betterListing(price float64, source string, curPrice float64, curSource string) bool {
	if price != curPrice {
		return price < curPrice
	}
	return source < curSource
}

// FilterFlightsByBudget drops flights whose price exceeds the given share of
// the total trip budget. A zero budget disables the filter. The filter is
// idempotent: applying it twice yields the same pool.
func FilterFlightsByBudget(opts []travel.FlightOption, budget, shareCap float64) []travel.FlightOption {
	if budget <= 0 {
		return opts
	}
	limit := budget * shareCap
	out := make([]travel.FlightOption, 0, len(opts))
	for _, f := range opts {
		if f.Price.Amount <= limit {
			out = append(out, f)
		}
	}
	return out
}

// FilterLodgingByBudget applies the same budget-share cap to stay totals.
func FilterLodgingByBudget(opts []travel.LodgingOption, budget, shareCap float64) []travel.LodgingOption {
	if budget <= 0 {
		return opts
	}
	limit := budget * shareCap
	out := make([]travel.LodgingOption, 0, len(opts))
	for _, l := range opts {
		if l.TotalPrice.Amount <= limit {
			out = append(out, l)
		}
	}
	return out
}
