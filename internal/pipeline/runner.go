// Package pipeline runs one planning request end to end: intent extraction,
// supply aggregation, scoring, synthesis. Progress is reported on a lazily
// consumed event channel with exactly one terminal event.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/briculinos/voyana/internal/events"
	"github.com/briculinos/voyana/internal/intent"
	"github.com/briculinos/voyana/internal/scoring"
	"github.com/briculinos/voyana/internal/supply"
	"github.com/briculinos/voyana/internal/synthesis"
	"github.com/briculinos/voyana/internal/travel"
	"github.com/briculinos/voyana/internal/types"
)

// Runner wires the four stages together. All collaborators are injected so
// tests can run the whole pipeline on deterministic doubles.
type Runner struct {
	extractor   *intent.Extractor
	aggregator  *supply.Aggregator
	synthesizer *synthesis.Synthesizer
	weights     scoring.Config
	bus         *events.Bus
	logger      *slog.Logger
}

// NewRunner builds a Runner. weights configures the scoring stage's blend
// (the zero value falls back to the balanced preset); bus may be nil when no
// external observer needs the events.
func NewRunner(extractor *intent.Extractor, aggregator *supply.Aggregator,
	synthesizer *synthesis.Synthesizer, weights scoring.Config,
	bus *events.Bus, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		extractor:   extractor,
		aggregator:  aggregator,
		synthesizer: synthesizer,
		weights:     weights,
		bus:         bus,
		logger:      logger,
	}
}

// Run starts one planning request and returns its request ID and event
// channel. A single goroutine emits all events, so the channel carries the
// stage events in order, then exactly one terminal event, then closes.
// Cancelling ctx aborts the run at the next stage boundary or provider call.
func (r *Runner) Run(ctx context.Context, message string, fields intent.StructuredFields) (string, <-chan events.Event) {
	requestID := uuid.NewString()
	ch := make(chan events.Event, 8)

	go func() {
		defer close(ch)
		r.run(ctx, requestID, message, fields, ch)
	}()

	return requestID, ch
}

func (r *Runner) run(ctx context.Context, requestID, message string, fields intent.StructuredFields, ch chan<- events.Event) {
	logger := r.logger.With("request_id", requestID)

	emit := func(e events.Event) {
		if r.bus != nil {
			_ = r.bus.Publish(e)
		}
		if e.Terminal() {
			// The channel buffer holds more events than a run can
			// produce, so the terminal send cannot block. Stage events
			// may be skipped once the caller has gone away, but the
			// terminal event always lands.
			ch <- e
			return
		}
		select {
		case ch <- e:
		case <-ctx.Done():
		}
	}
	fail := func(err error) {
		logger.Error("planning failed", "error", err)
		emit(events.NewFailed(requestID, err))
	}

	logger.Info("planning started")

	in, err := r.extractor.Extract(ctx, message, fields)
	if err != nil {
		fail(err)
		return
	}
	emit(events.NewStageCompleted(requestID, types.StageIntent,
		fmt.Sprintf("Planning a %d-day trip to %s", in.DurationDays, in.Destination)))

	if err := ctx.Err(); err != nil {
		fail(err)
		return
	}

	res, err := r.aggregator.Aggregate(ctx, in)
	if err != nil {
		fail(err)
		return
	}
	emit(events.NewStageCompleted(requestID, types.StageSupply,
		fmt.Sprintf("Found %d flights and %d places to stay", len(res.Flights), len(res.Lodging))))

	if err := ctx.Err(); err != nil {
		fail(err)
		return
	}

	scorer := scoring.NewScorer(r.weights.ForTier(travel.TierBalanced))
	scoredFlights := scorer.ScoreFlights(res.Flights, in)
	scoredLodging := scorer.ScoreLodging(res.Lodging, in)
	emit(events.NewStageCompleted(requestID, types.StageScoring,
		"Matched options against your preferences"))

	itineraries, err := r.synthesizer.Synthesize(ctx, synthesis.Input{
		Flights:        scoredFlights,
		Lodging:        scoredLodging,
		Intent:         in,
		DegradedSupply: res.Degraded,
	})
	if err != nil {
		fail(err)
		return
	}
	emit(events.NewStageCompleted(requestID, types.StageSynthesis,
		"Built three itineraries for you"))

	logger.Info("planning completed", "itineraries", len(itineraries), "degraded", res.Degraded)
	emit(events.NewCompleted(requestID, &events.Result{
		Intent:      in,
		Itineraries: itineraries,
		Warnings:    res.Warnings,
		Degraded:    res.Degraded,
	}))
}

// Collect drains a run's channel and returns the terminal result, for
// non-streaming callers.
func Collect(ch <-chan events.Event) (*events.Result, error) {
	for e := range ch {
		switch e.Type {
		case events.TypeCompleted:
			return e.Result, nil
		case events.TypeFailed:
			te := &types.TravelError{
				Code:      e.Failure.Code,
				Stage:     e.Failure.Stage,
				Message:   e.Failure.Message,
				Retryable: e.Failure.Retryable,
			}
			return nil, te
		}
	}
	return nil, types.NewError(types.GENERATION_FAILED, types.StageSynthesis,
		"planning ended without a result")
}
