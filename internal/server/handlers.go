package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/briculinos/voyana/internal/events"
	"github.com/briculinos/voyana/internal/intent"
	"github.com/briculinos/voyana/internal/pipeline"
	"github.com/briculinos/voyana/internal/travel"
	"github.com/briculinos/voyana/internal/types"
)

const (
	maxRequestBody    = 1 << 20
	healthProbeBudget = 3 * time.Second
)

// planRequest is the body of /api/plan and /api/plan/stream: the free-text
// travel request plus any structured fields the client already knows.
type planRequest struct {
	Message   string `json:"message"`
	Origin    string `json:"origin,omitempty"`
	Adults    int    `json:"adults,omitempty"`
	ChildAges []int  `json:"child_ages,omitempty"`
}

func (p planRequest) fields() intent.StructuredFields {
	return intent.StructuredFields{
		Origin:    p.Origin,
		Adults:    p.Adults,
		ChildAges: p.ChildAges,
	}
}

type planMetadata struct {
	ItineraryCount int       `json:"itinerary_count"`
	GeneratedAt    time.Time `json:"generated_at"`
}

type planResponse struct {
	Success     bool               `json:"success"`
	RequestID   string             `json:"request_id"`
	Intent      *travel.Intent     `json:"parsed_intent"`
	Itineraries []travel.Itinerary `json:"itineraries"`
	Warnings    []string           `json:"warnings,omitempty"`
	Degraded    bool               `json:"degraded,omitempty"`
	Metadata    planMetadata       `json:"metadata"`
}

type errorResponse struct {
	Success bool           `json:"success"`
	Error   events.Failure `json:"error"`
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"service": serviceName,
		"status":  "running",
		"version": s.version,
	})
}

func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodePlanRequest(w, r)
	if !ok {
		return
	}

	requestID, ch := s.runner.Run(r.Context(), req.Message, req.fields())
	result, err := pipeline.Collect(ch)
	if err != nil {
		s.writePlanError(w, requestID, err)
		return
	}

	s.writeJSON(w, http.StatusOK, planResponse{
		Success:     true,
		RequestID:   requestID,
		Intent:      result.Intent,
		Itineraries: result.Itineraries,
		Warnings:    result.Warnings,
		Degraded:    result.Degraded,
		Metadata: planMetadata{
			ItineraryCount: len(result.Itineraries),
			GeneratedAt:    time.Now().UTC(),
		},
	})
}

func (s *Server) handlePlanStream(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodePlanRequest(w, r)
	if !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: events.Failure{
			Code:    types.GENERATION_FAILED,
			Message: "streaming is not supported by this connection",
		}})
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	// Client disconnect cancels r.Context(), which aborts the run and
	// closes the channel.
	_, ch := s.runner.Run(r.Context(), req.Message, req.fields())
	for event := range ch {
		data, err := json.Marshal(event)
		if err != nil {
			s.logger.Error("failed to encode stream event", "error", err)
			continue
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return
		}
		flusher.Flush()
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	capabilities := make(map[string]types.HealthStatus)
	overall := types.HealthStateHealthy

	if s.llm != nil {
		ctx, cancel := contextWithBudget(r.Context())
		status := s.llm.Health(ctx)
		cancel()
		capabilities["llm"] = status
		overall = worseOf(overall, status.State)
	}
	overall = worseOf(overall, s.probeSupply(r.Context(), capabilities))

	status := http.StatusOK
	if overall == types.HealthStateUnhealthy {
		status = http.StatusServiceUnavailable
	}
	s.writeJSON(w, status, map[string]any{
		"status":       overall,
		"capabilities": capabilities,
	})
}

// probeSupply checks every supply provider. A class with no reachable
// provider makes the service unhealthy; a partially reachable class only
// degrades it.
func (s *Server) probeSupply(ctx context.Context, capabilities map[string]types.HealthStatus) types.HealthState {
	classState := func(states []types.HealthState) types.HealthState {
		if len(states) == 0 {
			return types.HealthStateUnhealthy
		}
		healthy := 0
		for _, st := range states {
			if st != types.HealthStateUnhealthy {
				healthy++
			}
		}
		switch healthy {
		case len(states):
			return types.HealthStateHealthy
		case 0:
			return types.HealthStateUnhealthy
		default:
			return types.HealthStateDegraded
		}
	}

	var flightStates []types.HealthState
	for _, p := range s.flights {
		probeCtx, done := contextWithBudget(ctx)
		status := p.Health(probeCtx)
		done()
		capabilities["flights/"+p.Name()] = status
		flightStates = append(flightStates, status.State)
	}
	var lodgingStates []types.HealthState
	for _, p := range s.lodging {
		probeCtx, done := contextWithBudget(ctx)
		status := p.Health(probeCtx)
		done()
		capabilities["lodging/"+p.Name()] = status
		lodgingStates = append(lodgingStates, status.State)
	}

	return worseOf(classState(flightStates), classState(lodgingStates))
}

func (s *Server) handleDestinations(w http.ResponseWriter, r *http.Request) {
	type destination struct {
		Name    string `json:"name"`
		Country string `json:"country"`
		Code    string `json:"code"`
	}
	s.writeJSON(w, http.StatusOK, map[string][]destination{
		"destinations": {
			{Name: "Paris", Country: "France", Code: "PAR"},
			{Name: "Rome", Country: "Italy", Code: "ROM"},
			{Name: "Barcelona", Country: "Spain", Code: "BCN"},
			{Name: "London", Country: "United Kingdom", Code: "LON"},
			{Name: "Amsterdam", Country: "Netherlands", Code: "AMS"},
			{Name: "Tokyo", Country: "Japan", Code: "TYO"},
			{Name: "New York", Country: "USA", Code: "NYC"},
			{Name: "Dubai", Country: "UAE", Code: "DXB"},
			{Name: "Bali", Country: "Indonesia", Code: "DPS"},
			{Name: "Lisbon", Country: "Portugal", Code: "LIS"},
		},
	})
}

func (s *Server) decodePlanRequest(w http.ResponseWriter, r *http.Request) (planRequest, bool) {
	var req planRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err := dec.Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: events.Failure{
			Code:    types.INTENT_INVALID,
			Stage:   types.StageIntent,
			Message: "request body must be valid JSON",
		}})
		return planRequest{}, false
	}
	if req.Message == "" {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: events.Failure{
			Code:    types.INTENT_INVALID,
			Stage:   types.StageIntent,
			Message: "message is required",
		}})
		return planRequest{}, false
	}
	return req, true
}

func (s *Server) writePlanError(w http.ResponseWriter, requestID string, err error) {
	failure := events.Failure{
		Code:    types.GENERATION_FAILED,
		Message: err.Error(),
	}
	var te *types.TravelError
	if errors.As(err, &te) {
		failure = events.Failure{
			Code:      te.Code,
			Stage:     te.Stage,
			Message:   te.Message,
			Retryable: te.Retryable,
		}
	}
	s.logger.Warn("planning request failed",
		"request_id", requestID, "code", failure.Code, "stage", failure.Stage)
	s.writeJSON(w, statusForCode(failure.Code), errorResponse{Error: failure})
}

// statusForCode maps pipeline error codes to HTTP statuses: client-side
// intent and budget problems are 4xx, upstream supply problems are 5xx.
func statusForCode(code types.ErrorCode) int {
	switch code {
	case types.INTENT_INVALID, types.INTENT_EXTRACT_FAILED, types.SYNTHESIS_FAILED:
		return http.StatusUnprocessableEntity
	case types.PROVIDER_RATE_LIMITED:
		return http.StatusTooManyRequests
	case types.SUPPLY_FLIGHTS_FAILED, types.SUPPLY_LODGING_FAILED,
		types.INSUFFICIENT_SUPPLY, types.PROVIDER_UNAVAILABLE, types.PROVIDER_UNAUTHORIZED:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

func contextWithBudget(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, healthProbeBudget)
}

// worseOf picks the more severe of two health states.
func worseOf(a, b types.HealthState) types.HealthState {
	rank := map[types.HealthState]int{
		types.HealthStateHealthy:   0,
		types.HealthStateDegraded:  1,
		types.HealthStateUnhealthy: 2,
	}
	if rank[b] > rank[a] {
		return b
	}
	return a
}
