package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/briculinos/voyana/internal/types"
)

// NewAuthError reports missing or rejected credentials for a provider.
// Auth failures are never retried.
func NewAuthError(provider string, cause error) *types.TravelError {
	return &types.TravelError{
		Code:    types.PROVIDER_UNAUTHORIZED,
		Message: "language model provider " + provider + " rejected credentials",
		Cause:   cause,
	}
}

// TranslateError maps a raw provider error onto the pipeline taxonomy,
// classifying transient conditions as retryable.
func TranslateError(provider string, err error) *types.TravelError {
	if err == nil {
		return nil
	}

	msg := strings.ToLower(err.Error())
	switch {
	case errors.Is(err, context.Canceled):
		return types.WrapError(types.GENERATION_FAILED, "", provider+" call canceled", err)
	case errors.Is(err, context.DeadlineExceeded), strings.Contains(msg, "timeout"):
		return &types.TravelError{
			Code: types.PROVIDER_UNAVAILABLE, Retryable: true,
			Message: provider + " call timed out", Cause: err,
		}
	case strings.Contains(msg, "rate limit"), strings.Contains(msg, "429"):
		return &types.TravelError{
			Code: types.PROVIDER_RATE_LIMITED, Retryable: true,
			Message: provider + " rate limited", Cause: err,
		}
	case strings.Contains(msg, "401"), strings.Contains(msg, "403"), strings.Contains(msg, "unauthorized"):
		return NewAuthError(provider, err)
	default:
		return types.WrapError(types.GENERATION_FAILED, "", provider+" completion failed", err)
	}
}
