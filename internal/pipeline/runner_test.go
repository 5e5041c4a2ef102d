package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/briculinos/voyana/internal/events"
	"github.com/briculinos/voyana/internal/intent"
	llmproviders "github.com/briculinos/voyana/internal/llm/providers"
	"github.com/briculinos/voyana/internal/scoring"
	"github.com/briculinos/voyana/internal/supply"
	supplyproviders "github.com/briculinos/voyana/internal/supply/providers"
	"github.com/briculinos/voyana/internal/synthesis"
	"github.com/briculinos/voyana/internal/travel"
	"github.com/briculinos/voyana/internal/types"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

const extractionJSON = `{
	"origin": "Copenhagen",
	"destination": "Rome",
	"departure_date": "2026-06-10",
	"return_date": "2026-06-17",
	"duration_days": 8,
	"adults": 2,
	"child_ages": [],
	"total_budget": 6000,
	"currency": "EUR",
	"interests": ["food"],
	"travel_style": "relaxed"
}`

func testLLM() *llmproviders.StaticProvider {
	p := llmproviders.NewStaticProvider()
	p.Respond("Known structured fields", extractionJSON)
	p.Respond("Explain in two sentences", "Rome rewards wanderers. Every street corner serves history with espresso.")
	p.Respond("Tier:", `{"summary":"A fine trip.","why_this_option":"Because it fits.","tradeoffs":"It costs money."}`)
	return p
}

func testRunner(t *testing.T, llm *llmproviders.StaticProvider, bus *events.Bus) *Runner {
	t.Helper()
	extractor := intent.NewExtractor(llm, intent.WithClock(func() time.Time { return testNow }))

	aggCfg := supply.DefaultConfig()
	aggCfg.RetryBackoff = time.Millisecond
	aggregator := supply.NewAggregator(
		[]supply.FlightProvider{supplyproviders.NewStaticFlightProvider()},
		[]supply.LodgingProvider{supplyproviders.NewStaticLodgingProvider()},
		aggCfg, nil)

	synthesizer := synthesis.New(synthesis.DefaultConfig(), llm, nil)
	return NewRunner(extractor, aggregator, synthesizer, scoring.DefaultConfig(), bus, nil)
}

func collectAll(t *testing.T, ch <-chan events.Event) []events.Event {
	t.Helper()
	var out []events.Event
	timeout := time.After(5 * time.Second)
	for {
		select {
		case e, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, e)
		case <-timeout:
			t.Fatal("run did not finish")
		}
	}
}

func TestRunEmitsStagesThenCompleted(t *testing.T) {
	r := testRunner(t, testLLM(), nil)
	requestID, ch := r.Run(context.Background(), "rome in june for two, around 6000 euro", intent.StructuredFields{})
	got := collectAll(t, ch)

	require.Len(t, got, 5)
	wantStages := []types.Stage{types.StageIntent, types.StageSupply, types.StageScoring, types.StageSynthesis}
	for i, stage := range wantStages {
		assert.Equal(t, events.TypeStageCompleted, got[i].Type)
		assert.Equal(t, stage, got[i].Stage)
		assert.Equal(t, requestID, got[i].RequestID)
		assert.NotEmpty(t, got[i].Status)
	}

	terminal := got[4]
	assert.Equal(t, events.TypeCompleted, terminal.Type)
	require.NotNil(t, terminal.Result)
	assert.Equal(t, "Rome", terminal.Result.Intent.Destination)
	require.Len(t, terminal.Result.Itineraries, 3)
}

func TestRunExactlyOneTerminalEvent(t *testing.T) {
	r := testRunner(t, testLLM(), nil)
	_, ch := r.Run(context.Background(), "rome for two", intent.StructuredFields{})
	got := collectAll(t, ch)

	terminals := 0
	for i, e := range got {
		if e.Terminal() {
			terminals++
			assert.Equal(t, len(got)-1, i, "terminal event must be last")
		}
	}
	assert.Equal(t, 1, terminals)
}

func TestRunFailsOnGarbageExtraction(t *testing.T) {
	llm := llmproviders.NewStaticProvider()
	llm.Respond("Known structured fields", "I cannot help with that.")

	r := testRunner(t, llm, nil)
	_, ch := r.Run(context.Background(), "plan something", intent.StructuredFields{})
	got := collectAll(t, ch)

	require.Len(t, got, 1)
	assert.Equal(t, events.TypeFailed, got[0].Type)
	require.NotNil(t, got[0].Failure)
	assert.Equal(t, types.INTENT_EXTRACT_FAILED, got[0].Failure.Code)
	assert.Equal(t, types.StageIntent, got[0].Failure.Stage)
}

func TestRunPublishesToBus(t *testing.T) {
	bus := events.NewBus(nil)
	defer bus.Close()

	busCh, cancel := bus.Subscribe(context.Background(), events.Filter{}, 16)
	defer cancel()

	r := testRunner(t, testLLM(), bus)
	requestID, ch := r.Run(context.Background(), "rome for two", intent.StructuredFields{})
	direct := collectAll(t, ch)

	var viaBus []events.Event
	for range direct {
		select {
		case e := <-busCh:
			viaBus = append(viaBus, e)
		case <-time.After(time.Second):
			t.Fatal("bus did not receive all events")
		}
	}
	require.Len(t, viaBus, len(direct))
	for i := range direct {
		assert.Equal(t, direct[i].Type, viaBus[i].Type)
		assert.Equal(t, requestID, viaBus[i].RequestID)
	}
}

func TestRunDeterministicResult(t *testing.T) {
	r1 := testRunner(t, testLLM(), nil)
	_, ch1 := r1.Run(context.Background(), "rome for two", intent.StructuredFields{})
	res1, err := Collect(ch1)
	require.NoError(t, err)

	r2 := testRunner(t, testLLM(), nil)
	_, ch2 := r2.Run(context.Background(), "rome for two", intent.StructuredFields{})
	res2, err := Collect(ch2)
	require.NoError(t, err)

	require.Len(t, res1.Itineraries, 3)
	for i := range res1.Itineraries {
		assert.Equal(t, res1.Itineraries[i].TotalCost, res2.Itineraries[i].TotalCost)
		assert.Equal(t, res1.Itineraries[i].Lodging[0].Name, res2.Itineraries[i].Lodging[0].Name)
	}
}

func TestRunCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := testRunner(t, testLLM(), nil)
	_, ch := r.Run(ctx, "rome for two", intent.StructuredFields{})
	got := collectAll(t, ch)

	require.NotEmpty(t, got)
	last := got[len(got)-1]
	assert.Equal(t, events.TypeFailed, last.Type)
}

func TestRunCancelledContextAlwaysDeliversTerminal(t *testing.T) {
	// A cancelled run may skip stage events, but the terminal event must
	// land every time, not just when the scheduler favors the send.
	r := testRunner(t, testLLM(), nil)
	for i := 0; i < 100; i++ {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, ch := r.Run(ctx, "rome for two", intent.StructuredFields{})
		got := collectAll(t, ch)

		require.NotEmpty(t, got, "run %d emitted no events", i)
		last := got[len(got)-1]
		require.True(t, last.Terminal(), "run %d ended without a terminal event", i)
		assert.Equal(t, events.TypeFailed, last.Type)
	}
}

func TestRunnerScoringStageUsesConfiguredWeights(t *testing.T) {
	llm := testLLM()
	extractor := intent.NewExtractor(llm, intent.WithClock(func() time.Time { return testNow }))
	aggCfg := supply.DefaultConfig()
	aggCfg.RetryBackoff = time.Millisecond
	aggregator := supply.NewAggregator(
		[]supply.FlightProvider{supplyproviders.NewStaticFlightProvider()},
		[]supply.LodgingProvider{supplyproviders.NewStaticLodgingProvider()},
		aggCfg, nil)
	synthesizer := synthesis.New(synthesis.DefaultConfig(), llm, nil)

	custom := scoring.Config{Balanced: scoring.Weights{Price: 0.8, Quality: 0.1, Preference: 0.1}}
	r := NewRunner(extractor, aggregator, synthesizer, custom, nil, nil)
	assert.Equal(t, custom.Balanced, r.weights.ForTier(travel.TierBalanced))

	// A zero config falls back to the balanced preset rather than scoring
	// everything zero.
	fallback := NewRunner(extractor, aggregator, synthesizer, scoring.Config{}, nil, nil)
	assert.Equal(t, scoring.BalancedWeights, fallback.weights.ForTier(travel.TierBalanced))

	_, ch := r.Run(context.Background(), "rome in june for two", intent.StructuredFields{})
	got := collectAll(t, ch)
	require.NotEmpty(t, got)
	assert.Equal(t, events.TypeCompleted, got[len(got)-1].Type)
}

func TestCollectReturnsStructuredError(t *testing.T) {
	llm := llmproviders.NewStaticProvider()
	llm.Respond("Known structured fields", "nonsense")

	r := testRunner(t, llm, nil)
	_, ch := r.Run(context.Background(), "plan something", intent.StructuredFields{})
	_, err := Collect(ch)
	require.Error(t, err)
	assert.Equal(t, types.INTENT_EXTRACT_FAILED, types.CodeOf(err))
}
