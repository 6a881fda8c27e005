package providers

import (
	"context"
	"errors"
	"time"
)

// Provider represents an LLM inference backend
type Provider interface {
	// Name returns the provider name (e.g., "bedrock", "openai")
	Name() string

	// Supports reports whether the provider can serve the given model id
	Supports(modelID string) bool

	// Invoke sends a single-turn prompt and returns the model reply
	Invoke(ctx context.Context, req *InvokeRequest) (*InvokeResponse, error)
}

// InvokeRequest is a single user prompt addressed to one model
type InvokeRequest struct {
	// ModelID is the provider model identifier
	ModelID string

	// Prompt is the user message text
	Prompt string

	// MaxTokens limits the response length; zero selects the provider default
	MaxTokens int
}

// InvokeResponse is the model reply plus the metadata the provider reported
type InvokeResponse struct {
	// Text is the reply, returned to the caller unchanged
	Text string

	// ModelID is the model that produced the reply
	ModelID string

	// StopReason as reported by the provider ("end_turn", "stop", "max_tokens", ...)
	StopReason string

	InputTokens  int
	OutputTokens int

	// Latency of the provider call
	Latency time.Duration
}

// ProviderError represents an error from a provider
type ProviderError struct {
	// Provider that generated the error
	Provider string

	// Code is the error code
	Code string

	// Message is the error message
	Message string

	// StatusCode is the HTTP status code (if applicable)
	StatusCode int

	// Retryable indicates if the request can be retried
	Retryable bool

	// Cause is the underlying error
	Cause error
}

// Error implements the error interface
func (e *ProviderError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap implements error unwrapping
func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// NewProviderError creates a new provider error
func NewProviderError(provider, code, message string, statusCode int, retryable bool, cause error) *ProviderError {
	return &ProviderError{
		Provider:   provider,
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Retryable:  retryable,
		Cause:      cause,
	}
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	var provErr *ProviderError
	if errors.As(err, &provErr) {
		return provErr.Retryable
	}
	return false
}
