package intent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/briculinos/voyana/internal/llm"
	"github.com/briculinos/voyana/internal/travel"
	"github.com/briculinos/voyana/internal/types"
)

// minLeadDays is the shortest acceptable lead time before departure. Dates
// closer than this (or in the past) are rolled forward one year, since the
// model tends to resolve seasonal phrases like "in May" to the nearest match
// even when it has already passed.
const minLeadDays = 7

// defaultLeadDays is the lead time used when only a duration is given.
const defaultLeadDays = 30

// StructuredFields are the caller-supplied fields accompanying the free-text
// message. They take precedence over whatever the model extracts.
type StructuredFields struct {
	Origin    string `json:"origin,omitempty"`
	Adults    int    `json:"adults,omitempty"`
	ChildAges []int  `json:"child_ages,omitempty"`
}

// Extractor turns a free-text travel request into a validated travel.Intent.
// Natural-language understanding is delegated to the llm.Provider; every
// returned field is re-checked here because the capability is probabilistic.
type Extractor struct {
	provider llm.Provider
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithClock overrides the time source, for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(e *Extractor) { e.now = now }
}

// WithLogger sets the extractor's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) { e.logger = logger }
}

// NewExtractor creates an Extractor backed by the given capability.
func NewExtractor(provider llm.Provider, opts ...Option) *Extractor {
	e := &Extractor{
		provider: provider,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// extractedIntent is the wire shape the model is asked to produce. Dates are
// strings so a malformed value fails parsing here instead of poisoning the
// domain type.
type extractedIntent struct {
	Origin        string   `json:"origin"`
	Destination   string   `json:"destination"`
	DepartureDate string   `json:"departure_date"`
	ReturnDate    string   `json:"return_date"`
	DurationDays  int      `json:"duration_days"`
	FlexibleDates bool     `json:"flexible_dates"`
	Adults        int      `json:"adults"`
	ChildAges     []int    `json:"child_ages"`
	TotalBudget   float64  `json:"total_budget"`
	Currency      string   `json:"currency"`
	Interests     []string `json:"interests"`
	TravelStyle   string   `json:"travel_style"`
}

// Extract parses the message, merges the structured fields, and validates the
// result. Validation failures return a TravelError with code INTENT_INVALID
// naming the offending field.
func (e *Extractor) Extract(ctx context.Context, message string, fields StructuredFields) (*travel.Intent, error) {
	now := e.now()

	resp, err := e.provider.Complete(ctx, llm.CompletionRequest{
		Messages: []llm.Message{
			llm.NewSystemMessage(extractionSystemPrompt(now)),
			llm.NewUserMessage(extractionUserPrompt(message, fields, now)),
		},
		Temperature: 0,
	})
	if err != nil {
		return nil, types.WrapError(types.INTENT_EXTRACT_FAILED, types.StageIntent,
			"could not interpret the travel request", err)
	}

	raw, err := llm.ExtractJSONAs[extractedIntent](resp.Content)
	if err != nil {
		return nil, types.WrapError(types.INTENT_EXTRACT_FAILED, types.StageIntent,
			"travel request interpretation was malformed", err)
	}

	in := e.merge(raw, fields)
	e.resolveDates(in, now)
	in.BudgetLevel = in.InferBudgetLevel()

	if err := in.Validate(now); err != nil {
		return nil, err
	}

	in.DestinationBlurb = e.destinationBlurb(ctx, in.Destination, message)

	e.logger.Info("intent extracted",
		"origin", in.Origin,
		"destination", in.Destination,
		"duration_days", in.DurationDays,
		"adults", in.Adults,
		"children", len(in.ChildAges),
		"budget", in.Budget.String())

	return in, nil
}

// merge combines model output with caller-supplied structured fields.
// Structured fields win: they were typed by the user, not inferred.
func (e *Extractor) merge(raw extractedIntent, fields StructuredFields) *travel.Intent {
	in := &travel.Intent{
		Origin:              raw.Origin,
		Destination:         raw.Destination,
		DurationDays:        raw.DurationDays,
		FlexibleDates:       raw.FlexibleDates,
		DateFlexibilityDays: 3,
		Adults:              raw.Adults,
		ChildAges:           raw.ChildAges,
		Budget:              travel.Money{Amount: raw.TotalBudget, Currency: raw.Currency},
		Interests:           raw.Interests,
		TravelStyle:         raw.TravelStyle,
	}
	if in.Budget.Currency == "" {
		in.Budget.Currency = "EUR"
	}
	if in.Adults == 0 {
		in.Adults = 1
	}

	if d, err := time.Parse("2006-01-02", raw.DepartureDate); err == nil {
		in.DepartureDate = d
	}
	if d, err := time.Parse("2006-01-02", raw.ReturnDate); err == nil {
		in.ReturnDate = d
	}

	if fields.Origin != "" {
		in.Origin = fields.Origin
	}
	if fields.Adults > 0 {
		in.Adults = fields.Adults
	}
	if fields.ChildAges != nil {
		in.ChildAges = fields.ChildAges
	}
	return in
}

// resolveDates fills whichever of dates/duration is missing and rolls
// too-soon departures forward one year.
func (e *Extractor) resolveDates(in *travel.Intent, now time.Time) {
	if !in.DepartureDate.IsZero() && in.ReturnDate.IsZero() && in.DurationDays > 0 {
		in.ReturnDate = in.DepartureDate.AddDate(0, 0, in.DurationDays)
	}
	if in.DepartureDate.IsZero() && in.DurationDays > 0 {
		in.DepartureDate = now.Truncate(24 * time.Hour).AddDate(0, 0, defaultLeadDays)
		in.ReturnDate = in.DepartureDate.AddDate(0, 0, in.DurationDays)
		in.FlexibleDates = true
	}

	if !in.DepartureDate.IsZero() {
		minDeparture := now.Truncate(24 * time.Hour).AddDate(0, 0, minLeadDays)
		if in.DepartureDate.Before(minDeparture) {
			e.logger.Warn("departure too soon, rolling forward one year",
				"departure", in.DepartureDate.Format("2006-01-02"))
			in.DepartureDate = in.DepartureDate.AddDate(1, 0, 0)
			if !in.ReturnDate.IsZero() {
				in.ReturnDate = in.ReturnDate.AddDate(1, 0, 0)
			}
		}
	}

	if in.DurationDays == 0 && !in.DepartureDate.IsZero() && !in.ReturnDate.IsZero() {
		if d := int(in.ReturnDate.Sub(in.DepartureDate).Hours() / 24); d > 0 {
			in.DurationDays = d
		} else {
			in.DurationDays = 1
		}
	}
}

// destinationBlurb asks the capability why the destination suits the request.
// Narration failure is non-fatal: a templated sentence is substituted.
func (e *Extractor) destinationBlurb(ctx context.Context, destination, message string) string {
	resp, err := e.provider.Complete(ctx, llm.CompletionRequest{
		Messages: []llm.Message{
			llm.NewUserMessage(blurbPrompt(destination, message)),
		},
		Temperature: 0.7,
		MaxTokens:   160,
	})
	if err != nil || resp.Content == "" {
		e.logger.Warn("destination blurb generation failed, using fallback", "error", err)
		return fmt.Sprintf("%s offers a rewarding mix of culture, food and atmosphere for this trip.", destination)
	}
	return resp.Content
}
