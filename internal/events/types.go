// Package events defines the progress events a planning run emits and the
// bus that fans them out to stream subscribers.
package events

import (
	"errors"
	"time"

	"github.com/briculinos/voyana/internal/travel"
	"github.com/briculinos/voyana/internal/types"
)

// Type discriminates event payloads on the wire.
type Type string

const (
	// TypeStageCompleted is emitted once after each pipeline stage finishes.
	TypeStageCompleted Type = "stage_completed"

	// TypeCompleted is the successful terminal event.
	TypeCompleted Type = "completed"

	// TypeFailed is the failing terminal event.
	TypeFailed Type = "failed"
)

// Result is the payload of a successful run: the resolved intent and the
// three tiered itineraries.
type Result struct {
	Intent      *travel.Intent     `json:"intent"`
	Itineraries []travel.Itinerary `json:"itineraries"`
	Warnings    []string           `json:"warnings,omitempty"`
	Degraded    bool               `json:"degraded,omitempty"`
}

// Failure is the payload of a failed run.
type Failure struct {
	Code      types.ErrorCode `json:"code"`
	Stage     types.Stage     `json:"stage"`
	Message   string          `json:"message"`
	Retryable bool            `json:"retryable"`
}

// Event is one progress message for one planning request. Exactly one
// terminal event (Completed or Failed) ends every run.
type Event struct {
	Type      Type      `json:"type"`
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`

	// Stage and Status are set on stage_completed events.
	Stage  types.Stage `json:"stage,omitempty"`
	Status string      `json:"status,omitempty"`

	Result  *Result  `json:"result,omitempty"`
	Failure *Failure `json:"failure,omitempty"`
}

// Terminal reports whether this event ends the run.
func (e Event) Terminal() bool {
	return e.Type == TypeCompleted || e.Type == TypeFailed
}

// NewStageCompleted builds a stage progress event.
func NewStageCompleted(requestID string, stage types.Stage, status string) Event {
	return Event{
		Type:      TypeStageCompleted,
		RequestID: requestID,
		Timestamp: time.Now().UTC(),
		Stage:     stage,
		Status:    status,
	}
}

// NewCompleted builds the successful terminal event.
func NewCompleted(requestID string, result *Result) Event {
	return Event{
		Type:      TypeCompleted,
		RequestID: requestID,
		Timestamp: time.Now().UTC(),
		Result:    result,
	}
}

// NewFailed builds the failing terminal event from any error, preserving the
// structured code, stage and retryability when the error carries them.
func NewFailed(requestID string, err error) Event {
	f := Failure{
		Code:    types.GENERATION_FAILED,
		Message: "planning failed",
	}
	var te *types.TravelError
	if errors.As(err, &te) {
		f.Code = te.Code
		f.Stage = te.Stage
		f.Message = te.Message
		f.Retryable = te.Retryable
	} else if err != nil {
		f.Message = err.Error()
	}
	return Event{
		Type:      TypeFailed,
		RequestID: requestID,
		Timestamp: time.Now().UTC(),
		Failure:   &f,
	}
}
