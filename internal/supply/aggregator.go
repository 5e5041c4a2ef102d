package supply

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/briculinos/voyana/internal/travel"
	"github.com/briculinos/voyana/internal/types"
)

// Config bounds the aggregator's external calls. Passed in explicitly so
// per-test configurations can run concurrently without interference.
type Config struct {
	// CallTimeout bounds each individual provider call.
	CallTimeout time.Duration `mapstructure:"call_timeout" yaml:"call_timeout"`

	// MaxRetries is the number of retries after a retryable failure.
	MaxRetries int `mapstructure:"max_retries" yaml:"max_retries"`

	// RetryBackoff is the initial backoff between attempts; it doubles.
	RetryBackoff time.Duration `mapstructure:"retry_backoff" yaml:"retry_backoff"`

	// BudgetShareCap is the fraction of the total budget a single flight or
	// lodging option may consume before it is filtered out.
	BudgetShareCap float64 `mapstructure:"budget_share_cap" yaml:"budget_share_cap"`
}

// DefaultConfig returns the production aggregation bounds.
func DefaultConfig() Config {
	return Config{
		CallTimeout:    10 * time.Second,
		MaxRetries:     1,
		RetryBackoff:   100 * time.Millisecond,
		BudgetShareCap: 0.4,
	}
}

// ProviderStats summarizes how one supply class's providers fared.
type ProviderStats struct {
	Queried   int      `json:"queried"`
	Succeeded int      `json:"succeeded"`
	Failed    []string `json:"failed,omitempty"`
}

// Result is the aggregator's joined output: normalized, deduplicated,
// budget-filtered candidate pools plus degradation flags.
type Result struct {
	Flights []travel.FlightOption
	Lodging []travel.LodgingOption

	Degraded bool
	Warnings []string

	FlightStats  ProviderStats
	LodgingStats ProviderStats
}

// Aggregator fans a search out to all registered providers concurrently,
// joins the results, and produces the candidate pools the scorer works from.
type Aggregator struct {
	flights []FlightProvider
	lodging []LodgingProvider
	cfg     Config
	logger  *slog.Logger
}

// NewAggregator creates an Aggregator over the given providers.
func NewAggregator(flights []FlightProvider, lodging []LodgingProvider, cfg Config, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 10 * time.Second
	}
	if cfg.BudgetShareCap <= 0 || cfg.BudgetShareCap > 1 {
		cfg.BudgetShareCap = 0.4
	}
	return &Aggregator{flights: flights, lodging: lodging, cfg: cfg, logger: logger}
}

// branchResult carries one provider call's outcome across the join.
type branchResult struct {
	provider string
	isFlight bool
	flights  []travel.FlightOption
	lodging  []travel.LodgingOption
	err      error
}

// Aggregate runs the fan-out/fan-in join. Both branches always run to
// completion (or time out) before the combined decision is made, so a fast
// failure in one class never discards useful data from the other.
func (a *Aggregator) Aggregate(ctx context.Context, in *travel.Intent) (*Result, error) {
	fq := FlightQuery{
		Origin:        in.Origin,
		Destination:   in.Destination,
		DepartureDate: in.DepartureDate,
		ReturnDate:    in.ReturnDate,
		Adults:        in.Adults,
		Children:      len(in.ChildAges),
		Currency:      in.Budget.Currency,
	}
	lq := LodgingQuery{
		Destination: in.Destination,
		CheckIn:     in.DepartureDate,
		CheckOut:    in.ReturnDate,
		Adults:      in.Adults,
		Children:    len(in.ChildAges),
		Currency:    in.Budget.Currency,
	}

	total := len(a.flights) + len(a.lodging)
	resCh := make(chan branchResult, total)

	for _, p := range a.flights {
		fp := p
		go func() {
			opts, err := a.searchFlightsWithRetry(ctx, fp, fq)
			resCh <- branchResult{provider: fp.Name(), isFlight: true, flights: opts, err: err}
		}()
	}
	for _, p := range a.lodging {
		lp := p
		go func() {
			opts, err := a.searchLodgingWithRetry(ctx, lp, lq)
			resCh <- branchResult{provider: lp.Name(), lodging: opts, err: err}
		}()
	}

	res := &Result{
		FlightStats:  ProviderStats{Queried: len(a.flights)},
		LodgingStats: ProviderStats{Queried: len(a.lodging)},
	}
	var rawFlights []travel.FlightOption
	var rawLodging []travel.LodgingOption

	for i := 0; i < total; i++ {
		br := <-resCh
		switch {
		case br.err != nil && br.isFlight:
			res.FlightStats.Failed = append(res.FlightStats.Failed, br.provider)
			a.logger.Warn("flight provider failed", "provider", br.provider, "error", br.err)
		case br.err != nil:
			res.LodgingStats.Failed = append(res.LodgingStats.Failed, br.provider)
			a.logger.Warn("lodging provider failed", "provider", br.provider, "error", br.err)
		case br.isFlight:
			res.FlightStats.Succeeded++
			rawFlights = append(rawFlights, br.flights...)
		default:
			res.LodgingStats.Succeeded++
			rawLodging = append(rawLodging, br.lodging...)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Lodging coverage is degraded when at least one provider failed while
	// another still delivered; callers surface this in the tradeoffs copy.
	if len(res.LodgingStats.Failed) > 0 && res.LodgingStats.Succeeded > 0 {
		res.Degraded = true
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("lodging coverage is reduced: %v did not respond", res.LodgingStats.Failed))
	}

	rawFlights = a.normalizeFlights(rawFlights, res)
	rawLodging = a.normalizeLodging(rawLodging, in, res)

	res.Flights = FilterFlightsByBudget(DedupFlights(rawFlights), in.Budget.Amount, a.cfg.BudgetShareCap)
	res.Lodging = FilterLodgingByBudget(DedupLodging(rawLodging), in.Budget.Amount, a.cfg.BudgetShareCap)

	a.logger.Info("supply aggregated",
		"flights", len(res.Flights),
		"lodging", len(res.Lodging),
		"degraded", res.Degraded)

	switch {
	case len(res.Flights) == 0 && len(res.Lodging) == 0:
		return nil, types.NewError(types.INSUFFICIENT_SUPPLY, types.StageSupply,
			"no flights or places to stay were found within the budget")
	case len(res.Flights) == 0:
		return nil, types.NewError(types.SUPPLY_FLIGHTS_FAILED, types.StageSupply,
			"no usable flights were found for these dates and budget")
	case len(res.Lodging) == 0:
		return nil, types.NewError(types.SUPPLY_LODGING_FAILED, types.StageSupply,
			"no usable places to stay were found for these dates and budget")
	}
	return res, nil
}

func (a *Aggregator) searchFlightsWithRetry(ctx context.Context, p FlightProvider, q FlightQuery) ([]travel.FlightOption, error) {
	var lastErr error
	backoff := a.cfg.RetryBackoff
	for attempt := 0; attempt <= a.cfg.MaxRetries; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, a.cfg.CallTimeout)
		opts, err := p.SearchFlights(callCtx, q)
		cancel()
		if err == nil {
			if opts == nil {
				opts = []travel.FlightOption{}
			}
			return opts, nil
		}
		lastErr = err
		if !types.IsRetryable(err) || attempt == a.cfg.MaxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
			backoff *= 2
		}
	}
	return nil, lastErr
}

func (a *Aggregator) searchLodgingWithRetry(ctx context.Context, p LodgingProvider, q LodgingQuery) ([]travel.LodgingOption, error) {
	var lastErr error
	backoff := a.cfg.RetryBackoff
	for attempt := 0; attempt <= a.cfg.MaxRetries; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, a.cfg.CallTimeout)
		opts, err := p.SearchLodging(callCtx, q)
		cancel()
		if err == nil {
			if opts == nil {
				opts = []travel.LodgingOption{}
			}
			return opts, nil
		}
		lastErr = err
		if !types.IsRetryable(err) || attempt == a.cfg.MaxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
			backoff *= 2
		}
	}
	return nil, lastErr
}

// normalizeFlights recomputes derived fields from segments and drops options
// that fail structural validation.
func (a *Aggregator) normalizeFlights(opts []travel.FlightOption, res *Result) []travel.FlightOption {
	out := make([]travel.FlightOption, 0, len(opts))
	for _, f := range opts {
		if err := f.Validate(); err != nil {
			a.logger.Warn("dropping malformed flight option", "source", f.Source, "error", err)
			continue
		}
		f.Stops = stopCount(f)
		if d := spanMinutes(f); d > 0 {
			f.DurationMinutes = d
		}
		out = append(out, f)
	}
	if dropped := len(opts) - len(out); dropped > 0 {
		res.Warnings = append(res.Warnings, fmt.Sprintf("%d malformed flight offers were discarded", dropped))
	}
	return out
}

func (a *Aggregator) normalizeLodging(opts []travel.LodgingOption, in *travel.Intent, res *Result) []travel.LodgingOption {
	out := make([]travel.LodgingOption, 0, len(opts))
	for _, l := range opts {
		if err := l.Validate(); err != nil {
			a.logger.Warn("dropping malformed lodging option", "source", l.Source, "error", err)
			continue
		}
		if !in.DepartureDate.IsZero() && !l.CoversStay(in.DepartureDate, in.ReturnDate) {
			a.logger.Warn("dropping lodging that does not cover the stay", "name", l.Name, "source", l.Source)
			continue
		}
		out = append(out, l)
	}
	if dropped := len(opts) - len(out); dropped > 0 {
		res.Warnings = append(res.Warnings, fmt.Sprintf("%d unusable lodging offers were discarded", dropped))
	}
	return out
}

func stopCount(f travel.FlightOption) int {
	stops := len(f.Outbound) - 1
	if n := len(f.Return) - 1; n > stops {
		stops = n
	}
	if stops < 0 {
		return 0
	}
	return stops
}

func spanMinutes(f travel.FlightOption) int {
	total := 0
	if n := len(f.Outbound); n > 0 {
		total += int(f.Outbound[n-1].Arrival.Sub(f.Outbound[0].Departure).Minutes())
	}
	if n := len(f.Return); n > 0 {
		total += int(f.Return[n-1].Arrival.Sub(f.Return[0].Departure).Minutes())
	}
	return total
}
