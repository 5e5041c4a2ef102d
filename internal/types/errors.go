package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a namespaced error code for Voyana pipeline errors.
type ErrorCode string

// Intent extraction error codes
const (
	INTENT_INVALID        ErrorCode = "INTENT_INVALID"
	INTENT_EXTRACT_FAILED ErrorCode = "INTENT_EXTRACT_FAILED"
)

// Supply error codes
const (
	PROVIDER_UNAVAILABLE  ErrorCode = "PROVIDER_UNAVAILABLE"
	PROVIDER_UNAUTHORIZED ErrorCode = "PROVIDER_UNAUTHORIZED"
	PROVIDER_RATE_LIMITED ErrorCode = "PROVIDER_RATE_LIMITED"
	SUPPLY_FLIGHTS_FAILED ErrorCode = "SUPPLY_FLIGHTS_FAILED"
	SUPPLY_LODGING_FAILED ErrorCode = "SUPPLY_LODGING_FAILED"
	INSUFFICIENT_SUPPLY   ErrorCode = "INSUFFICIENT_SUPPLY"
)

// Synthesis error codes
const (
	SYNTHESIS_FAILED  ErrorCode = "SYNTHESIS_FAILED"
	GENERATION_FAILED ErrorCode = "GENERATION_FAILED"
)

// Configuration error codes
const (
	CONFIG_LOAD_FAILED       ErrorCode = "CONFIG_LOAD_FAILED"
	CONFIG_VALIDATION_FAILED ErrorCode = "CONFIG_VALIDATION_FAILED"
)

// Stage identifies the pipeline stage an error originated from.
type Stage string

const (
	StageIntent    Stage = "intent"
	StageSupply    Stage = "supply"
	StageScoring   Stage = "scoring"
	StageSynthesis Stage = "synthesis"
)

// TravelError represents a structured error with error code, message, and optional cause.
// It carries the pipeline stage it originated from and, for validation errors, the
// offending field, so callers can render a specific, user-actionable message.
type TravelError struct {
	Code      ErrorCode
	Stage     Stage
	Field     string
	Message   string
	Retryable bool
	Cause     error
}

// Error implements the error interface.
// Format: "[CODE] message" or "[CODE] message: cause" if cause exists.
func (e *TravelError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error for error unwrapping chains.
func (e *TravelError) Unwrap() error {
	return e.Cause
}

// Is matches errors by code so errors.Is works across wrapped chains.
func (e *TravelError) Is(target error) bool {
	var te *TravelError
	if errors.As(target, &te) {
		return e.Code == te.Code
	}
	return false
}

// NewError creates a non-retryable TravelError with the given code and message.
func NewError(code ErrorCode, stage Stage, message string) *TravelError {
	return &TravelError{Code: code, Stage: stage, Message: message}
}

// NewRetryableError creates a retryable TravelError. Use for transient
// conditions (network timeouts, rate limits) that may succeed on retry.
func NewRetryableError(code ErrorCode, stage Stage, message string) *TravelError {
	return &TravelError{Code: code, Stage: stage, Message: message, Retryable: true}
}

// NewFieldError creates a non-retryable validation error naming the field that
// failed, so the caller can tell the user exactly what to correct.
func NewFieldError(code ErrorCode, stage Stage, field, message string) *TravelError {
	return &TravelError{Code: code, Stage: stage, Field: field, Message: message}
}

// WrapError creates a non-retryable TravelError wrapping an existing error.
func WrapError(code ErrorCode, stage Stage, message string, cause error) *TravelError {
	return &TravelError{Code: code, Stage: stage, Message: message, Cause: cause}
}

// IsRetryable reports whether err is a TravelError marked retryable.
func IsRetryable(err error) bool {
	var te *TravelError
	if errors.As(err, &te) {
		return te.Retryable
	}
	return false
}

// CodeOf extracts the error code from err, or "" when err is not a TravelError.
func CodeOf(err error) ErrorCode {
	var te *TravelError
	if errors.As(err, &te) {
		return te.Code
	}
	return ""
}
