// Package errors provides the standardized error taxonomy of the site
// selection engine.
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeGeocodeFailed          ErrorCode = "GEOCODE_FAILED"
	ErrCodeFeatureFetchPartial    ErrorCode = "FEATURE_FETCH_PARTIAL"
	ErrCodeAllProvidersExhausted  ErrorCode = "ALL_PROVIDERS_EXHAUSTED"
	ErrCodeInsufficientData       ErrorCode = "INSUFFICIENT_HISTORICAL_DATA"
	ErrCodeInvalidScoreRange      ErrorCode = "INVALID_SCORE_RANGE"
	ErrCodeProviderAuthFailed     ErrorCode = "PROVIDER_AUTH_FAILED"
	ErrCodeProviderRateLimited    ErrorCode = "PROVIDER_RATE_LIMITED"
	ErrCodeProviderTimeout        ErrorCode = "PROVIDER_TIMEOUT"
	ErrCodeAnalysisSaveFailed     ErrorCode = "ANALYSIS_SAVE_FAILED"
	ErrCodeInvalidWeightVector    ErrorCode = "INVALID_WEIGHT_VECTOR"
	ErrCodeEmptyCompletionRequest ErrorCode = "EMPTY_COMPLETION_REQUEST"
)

// Sentinel errors for errors.Is matching across package boundaries.
var (
	ErrGeocodeFailed         = errors.New(string(ErrCodeGeocodeFailed))
	ErrAllProvidersExhausted = errors.New(string(ErrCodeAllProvidersExhausted))
	ErrInsufficientData      = errors.New(string(ErrCodeInsufficientData))
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// GeocodeError means the location text could not be resolved to coordinates.
// Fatal for Analyze; no partial result is produced.
type GeocodeError struct {
	Address string
	Reason  string
}

func (e *GeocodeError) Error() string {
	return fmt.Sprintf("geocode failed for %q: %s", e.Address, e.Reason)
}

func (e *GeocodeError) Is(target error) bool {
	return target == ErrGeocodeFailed
}

// NewGeocodeError creates a non-retryable geocode failure.
func NewGeocodeError(address, reason string) *GeocodeError {
	return &GeocodeError{Address: address, Reason: reason}
}

// ProviderAttempt records one failed provider attempt inside the failover chain.
type ProviderAttempt struct {
	Provider string `json:"provider"`
	Err      error  `json:"-"`
	Message  string `json:"error"`
}

// ExhaustedError is returned when every configured AI provider failed or was
// disabled. Attempts preserves failover order.
type ExhaustedError struct {
	Attempts []ProviderAttempt
}

func (e *ExhaustedError) Error() string {
	if len(e.Attempts) == 0 {
		return "all providers exhausted: no enabled providers"
	}
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, fmt.Sprintf("%s: %s", a.Provider, a.Message))
	}
	return "all providers exhausted: " + strings.Join(parts, "; ")
}

func (e *ExhaustedError) Is(target error) bool {
	return target == ErrAllProvidersExhausted
}

// NewExhaustedError creates the terminal failover error from the ordered
// attempt list.
func NewExhaustedError(attempts []ProviderAttempt) *ExhaustedError {
	for i := range attempts {
		if attempts[i].Message == "" && attempts[i].Err != nil {
			attempts[i].Message = attempts[i].Err.Error()
		}
	}
	return &ExhaustedError{Attempts: attempts}
}

// InsufficientDataError means the training set cannot support a trained model.
// Callers must fall back to the rule-based prediction path.
type InsufficientDataError struct {
	Got  int
	Need int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient historical data: got %d usable samples, need %d", e.Got, e.Need)
}

func (e *InsufficientDataError) Is(target error) bool {
	return target == ErrInsufficientData
}

// NewInsufficientDataError creates a non-retryable training failure.
func NewInsufficientDataError(got, need int) *InsufficientDataError {
	return &InsufficientDataError{Got: got, Need: need}
}

// NewFeatureFetchPartialError creates the non-fatal error logged when a single
// geo sub-query fails and its features degrade to zero.
func NewFeatureFetchPartialError(query string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeFeatureFetchPartial,
		Message:   "Geo sub-query failed, feature degraded to zero",
		Details:   fmt.Sprintf("query: %s, error: %v", query, err),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidScoreRangeError reports a scoring invariant violation. This is a
// programming bug, asserted in tests, never shown to users.
func NewInvalidScoreRangeError(dimension string, value float64) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidScoreRange,
		Message:   "Sub-score outside the 0-100 range",
		Details:   fmt.Sprintf("dimension: %s, value: %.4f", dimension, value),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidWeightVectorError reports a weight vector that cannot be
// renormalized to sum 1.
func NewInvalidWeightVectorError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidWeightVector,
		Message:   "Scoring weight vector is invalid",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewAnalysisSaveFailedError creates the retryable error logged when the
// fire-and-forget persistence of an analysis result fails.
func NewAnalysisSaveFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeAnalysisSaveFailed,
		Message:   "Failed to persist analysis result",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}
