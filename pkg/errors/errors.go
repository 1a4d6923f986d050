package errors

import (
	"errors"
	"fmt"
)

// Domain error types for business logic

var (
	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("resource not found")

	// ErrAlreadyExists indicates a resource already exists
	ErrAlreadyExists = errors.New("resource already exists")

	// ErrInvalidInput indicates invalid input parameters
	ErrInvalidInput = errors.New("invalid input")

	// ErrInternal indicates an internal server error
	ErrInternal = errors.New("internal error")

	// ErrTimeout indicates an operation timeout
	ErrTimeout = errors.New("operation timeout")

	// ErrUnavailable indicates a service is unavailable
	ErrUnavailable = errors.New("service unavailable")
)

// Market-data errors

var (
	// ErrNoBaseline indicates no baseline snapshots exist for the requested window
	ErrNoBaseline = errors.New("no baseline data for date")

	// ErrNoPriceData indicates neither realtime nor baseline price data is available
	ErrNoPriceData = errors.New("no price data for date")

	// ErrProviderUnavailable indicates a search/price provider call failed
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrCityNotFound indicates the requested city is not registered
	ErrCityNotFound = errors.New("city not found")
)

// Model (LLM) errors

var (
	// ErrModelEmptyResponse indicates the model returned no usable content
	ErrModelEmptyResponse = errors.New("model returned no usable content")

	// ErrModelCallFailed indicates the chat completion request failed
	ErrModelCallFailed = errors.New("model call failed")

	// ErrIterationCapReached indicates the tool loop hit its hard iteration cap
	ErrIterationCapReached = errors.New("tool loop iteration cap reached")

	// ErrUnknownTool indicates the model requested a tool that is not registered
	ErrUnknownTool = errors.New("unknown tool requested")

	// ErrRateLimitExceeded indicates a provider rate limit was exceeded
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
)

// Code is the structured error code surfaced to API clients so the frontend
// routes on a stable enum instead of matching substrings of human-readable text.
type Code string

const (
	CodeInvalidInput    Code = "INVALID_INPUT"
	CodeNotFound        Code = "NOT_FOUND"
	CodeNoDataForDate   Code = "NO_DATA_FOR_DATE"
	CodeUpstreamFailure Code = "UPSTREAM_FAILURE"
	CodeModelError      Code = "MODEL_ERROR"
	CodeInternal        Code = "INTERNAL"
)

// CodeFor maps an error chain to its API error code.
func CodeFor(err error) Code {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return CodeInvalidInput
	case errors.Is(err, ErrCityNotFound), errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrNoPriceData), errors.Is(err, ErrNoBaseline):
		return CodeNoDataForDate
	case errors.Is(err, ErrProviderUnavailable), errors.Is(err, ErrUnavailable):
		return CodeUpstreamFailure
	case errors.Is(err, ErrModelCallFailed), errors.Is(err, ErrModelEmptyResponse):
		return CodeModelError
	default:
		return CodeInternal
	}
}

// ProviderError wraps a failed upstream provider call with enough context to
// distinguish "provider unreachable" from "provider confirmed no data".
type ProviderError struct {
	Provider string
	Engine   string
	Status   int
	Err      error
}

// Error implements the error interface
func (e *ProviderError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("provider %s (%s) returned status %d: %v", e.Provider, e.Engine, e.Status, e.Err)
	}
	return fmt.Sprintf("provider %s (%s): %v", e.Provider, e.Engine, e.Err)
}

// Unwrap returns the wrapped error
func (e *ProviderError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrProviderUnavailable
}

// Is makes every ProviderError match ErrProviderUnavailable.
func (e *ProviderError) Is(target error) bool {
	return target == ErrProviderUnavailable
}

// NewProviderError creates a provider error for a failed upstream call
func NewProviderError(provider, engine string, status int, err error) *ProviderError {
	return &ProviderError{Provider: provider, Engine: engine, Status: status, Err: err}
}

// ValidationError represents a validation error with field-specific details
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: field '%s': %s", e.Field, e.Message)
}

// Unwrap ties validation errors into the invalid-input chain.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// Helper functions

// Is checks if err is or wraps target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target type
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap wraps an error with context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

func New(message string) error {
	return errors.New(message)
}

func Newf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}
