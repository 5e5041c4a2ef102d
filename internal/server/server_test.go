package server

import (
	"bufio"
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/briculinos/voyana/internal/config"
	"github.com/briculinos/voyana/internal/events"
	"github.com/briculinos/voyana/internal/intent"
	llmproviders "github.com/briculinos/voyana/internal/llm/providers"
	"github.com/briculinos/voyana/internal/pipeline"
	"github.com/briculinos/voyana/internal/scoring"
	"github.com/briculinos/voyana/internal/supply"
	supplyproviders "github.com/briculinos/voyana/internal/supply/providers"
	"github.com/briculinos/voyana/internal/synthesis"
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

func testServer(t *testing.T) *Server {
	t.Helper()

	llm := llmproviders.NewStaticProvider()
	llm.Respond("Known structured fields", extractionJSON)
	llm.Respond("Explain in two sentences", "Rome rewards wanderers. Every street corner serves history with espresso.")
	llm.Respond("Tier:", `{"summary":"A fine trip.","why_this_option":"Because it fits.","tradeoffs":"It costs money."}`)

	flights := []supply.FlightProvider{supplyproviders.NewStaticFlightProvider()}
	lodging := []supply.LodgingProvider{supplyproviders.NewStaticLodgingProvider()}

	extractor := intent.NewExtractor(llm, intent.WithClock(func() time.Time { return testNow }))
	aggCfg := supply.DefaultConfig()
	aggCfg.RetryBackoff = time.Millisecond
	aggregator := supply.NewAggregator(flights, lodging, aggCfg, nil)
	synthesizer := synthesis.New(synthesis.DefaultConfig(), llm, nil)
	runner := pipeline.NewRunner(extractor, aggregator, synthesizer, scoring.DefaultConfig(), nil, nil)

	cfg := config.ServerConfig{
		Address:         ":0",
		CORSOrigins:     []string{"http://localhost:3000"},
		ShutdownTimeout: time.Second,
	}
	return New(runner, llm, flights, lodging, cfg, "test", nil)
}

func postJSON(t *testing.T, ts *httptest.Server, path string, body any) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := ts.Client().Post(ts.URL+path, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	return resp
}

func TestPlanReturnsThreeItineraries(t *testing.T) {
	ts := httptest.NewServer(testServer(t).Handler())
	defer ts.Close()

	resp := postJSON(t, ts, "/api/plan", planRequest{Message: "rome in june for two, around 6000 euro"})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got planResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.True(t, got.Success)
	assert.NotEmpty(t, got.RequestID)
	require.NotNil(t, got.Intent)
	assert.Equal(t, "Rome", got.Intent.Destination)
	require.Len(t, got.Itineraries, 3)
	assert.Equal(t, 3, got.Metadata.ItineraryCount)
}

func TestPlanRejectsEmptyMessage(t *testing.T) {
	ts := httptest.NewServer(testServer(t).Handler())
	defer ts.Close()

	resp := postJSON(t, ts, "/api/plan", planRequest{})
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var got errorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.False(t, got.Success)
	assert.Equal(t, types.INTENT_INVALID, got.Error.Code)
}

func TestPlanMapsExtractionFailureTo422(t *testing.T) {
	llm := llmproviders.NewStaticProvider()
	llm.Respond("Known structured fields", "no json here at all")

	srv := testServer(t)
	extractor := intent.NewExtractor(llm, intent.WithClock(func() time.Time { return testNow }))
	aggregator := supply.NewAggregator(
		[]supply.FlightProvider{supplyproviders.NewStaticFlightProvider()},
		[]supply.LodgingProvider{supplyproviders.NewStaticLodgingProvider()},
		supply.DefaultConfig(), nil)
	synthesizer := synthesis.New(synthesis.DefaultConfig(), llm, nil)
	srv.runner = pipeline.NewRunner(extractor, aggregator, synthesizer, scoring.DefaultConfig(), nil, nil)

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp := postJSON(t, ts, "/api/plan", planRequest{Message: "anywhere"})
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	var got errorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, types.INTENT_EXTRACT_FAILED, got.Error.Code)
	assert.Equal(t, types.StageIntent, got.Error.Stage)
}

func TestPlanStreamEmitsSSEEvents(t *testing.T) {
	ts := httptest.NewServer(testServer(t).Handler())
	defer ts.Close()

	resp := postJSON(t, ts, "/api/plan/stream", planRequest{Message: "rome in june for two"})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	assert.Equal(t, "no-cache", resp.Header.Get("Cache-Control"))

	var got []events.Event
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var e events.Event
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &e))
		got = append(got, e)
	}
	require.NoError(t, scanner.Err())

	require.Len(t, got, 5)
	wantStages := []types.Stage{types.StageIntent, types.StageSupply, types.StageScoring, types.StageSynthesis}
	for i, stage := range wantStages {
		assert.Equal(t, events.TypeStageCompleted, got[i].Type)
		assert.Equal(t, stage, got[i].Stage)
	}
	terminal := got[4]
	assert.Equal(t, events.TypeCompleted, terminal.Type)
	require.NotNil(t, terminal.Result)
	assert.Len(t, terminal.Result.Itineraries, 3)
}

func TestHealthReportsCapabilities(t *testing.T) {
	ts := httptest.NewServer(testServer(t).Handler())
	defer ts.Close()

	resp, err := ts.Client().Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got struct {
		Status       types.HealthState             `json:"status"`
		Capabilities map[string]types.HealthStatus `json:"capabilities"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, types.HealthStateHealthy, got.Status)
	assert.Contains(t, got.Capabilities, "llm")
	assert.Contains(t, got.Capabilities, "flights/static-flights")
	assert.Contains(t, got.Capabilities, "lodging/static-stays")
}

func TestHealthUnhealthyWithoutSupply(t *testing.T) {
	srv := testServer(t)
	srv.flights = nil
	srv.lodging = nil

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := ts.Client().Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestDestinationsListsPopularCities(t *testing.T) {
	ts := httptest.NewServer(testServer(t).Handler())
	defer ts.Close()

	resp, err := ts.Client().Get(ts.URL + "/api/destinations")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got struct {
		Destinations []struct {
			Name string `json:"name"`
			Code string `json:"code"`
		} `json:"destinations"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.Len(t, got.Destinations, 10)
	assert.Equal(t, "Paris", got.Destinations[0].Name)
	assert.Equal(t, "ROM", got.Destinations[1].Code)
}

func TestCORSPreflightAllowsConfiguredOrigin(t *testing.T) {
	ts := httptest.NewServer(testServer(t).Handler())
	defer ts.Close()

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/api/plan", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))
}
