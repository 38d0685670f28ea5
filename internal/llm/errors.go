package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrRateLimit is a 429 from the provider.
type ErrRateLimit struct {
	RetryAfter time.Duration
	Err        error
}

func (e *ErrRateLimit) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited, retry after %s: %v", e.RetryAfter, e.Err)
	}
	return fmt.Sprintf("rate limited: %v", e.Err)
}

func (e *ErrRateLimit) Unwrap() error { return e.Err }

// ErrInvalidResponse means the reply did not match the requested schema,
// e.g. a quiz without options or a plan that is not JSON.
type ErrInvalidResponse struct {
	Content json.RawMessage
	Err     error
}

func (e *ErrInvalidResponse) Error() string {
	return fmt.Sprintf("invalid LLM response: %v", e.Err)
}

func (e *ErrInvalidResponse) Unwrap() error { return e.Err }

// ErrProviderUnavailable means the provider is down, unreachable or
// rejected the credentials.
type ErrProviderUnavailable struct {
	Err error
}

func (e *ErrProviderUnavailable) Error() string {
	if e.Err == nil {
		return "LLM provider unavailable"
	}
	return fmt.Sprintf("LLM provider unavailable: %v", e.Err)
}

func (e *ErrProviderUnavailable) Unwrap() error { return e.Err }

// ErrMaxTokensExceeded means the reply was cut off at MaxTokens. Long
// syllabi hit this on study plans.
type ErrMaxTokensExceeded struct {
	Content json.RawMessage
}

func (e *ErrMaxTokensExceeded) Error() string {
	return "LLM response truncated: max tokens exceeded"
}

// Retryable reports whether err is worth another attempt. Cancellation and
// truncation are final. Everything else, network errors included, is retried.
func Retryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var maxTok *ErrMaxTokensExceeded
	return !errors.As(err, &maxTok)
}

// HTTPStatus maps a provider failure to the status the study backend
// answers with.
func HTTPStatus(err error) int {
	var (
		rl      *ErrRateLimit
		inv     *ErrInvalidResponse
		maxTok  *ErrMaxTokensExceeded
		unavail *ErrProviderUnavailable
	)
	switch {
	case errors.As(err, &rl):
		return http.StatusTooManyRequests
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &inv), errors.As(err, &maxTok):
		return http.StatusBadGateway
	case errors.As(err, &unavail):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// UserMessage describes a provider failure for a student. fallback is used
// when nothing more specific applies.
func UserMessage(err error, fallback string) string {
	var (
		rl     *ErrRateLimit
		maxTok *ErrMaxTokensExceeded
	)
	switch {
	case errors.As(err, &rl):
		return "The AI service is busy right now. Please wait a moment and try again."
	case errors.Is(err, context.DeadlineExceeded):
		return "The AI service took too long to answer. Please try again."
	case errors.As(err, &maxTok):
		return "The answer was too long to finish. Try a shorter syllabus or fewer questions."
	}
	return fallback
}
