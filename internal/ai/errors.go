package ai

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrEmptyResponse is returned when the runtime answers without any content.
var ErrEmptyResponse = errors.New("model returned no content")

// APIError is a non-2xx answer from the runtime.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("status %d", e.StatusCode)
}

// ModelNotFoundError indicates the requested model is not available.
type ModelNotFoundError struct{ *APIError }

func (e *ModelNotFoundError) Error() string {
	return fmt.Sprintf("model not found: %s", e.APIError.Error())
}

// BadRequestError indicates the runtime rejected the request body (400).
type BadRequestError struct{ *APIError }

func (e *BadRequestError) Error() string { return fmt.Sprintf("bad request: %s", e.APIError.Error()) }

// ServerError indicates 5xx errors from the runtime.
type ServerError struct{ *APIError }

func (e *ServerError) Error() string { return fmt.Sprintf("runtime error: %s", e.APIError.Error()) }

// UnreachableError indicates the target runtime is not reachable (e.g., local Ollama down).
type UnreachableError struct {
	Host string
	Err  error
}

func (e *UnreachableError) Error() string {
	if e == nil {
		return "unreachable"
	}
	if e.Host != "" {
		return fmt.Sprintf("endpoint unreachable at %s: %v", e.Host, e.Err)
	}
	return fmt.Sprintf("endpoint unreachable: %v", e.Err)
}

func (e *UnreachableError) Unwrap() error { return e.Err }

// ModelUnavailableError is returned by InsightGenerator when no insight could be
// produced: the runtime was unreachable, timed out, rejected the request or replied
// with empty content. Err holds the underlying cause.
type ModelUnavailableError struct {
	Model string
	Host  string
	Err   error
}

func (e *ModelUnavailableError) Error() string {
	if e.Host != "" {
		return fmt.Sprintf("model %q unavailable at %s: %v", e.Model, e.Host, e.Err)
	}
	return fmt.Sprintf("model %q unavailable: %v", e.Model, e.Err)
}

func (e *ModelUnavailableError) Unwrap() error { return e.Err }

// classifyStatus maps a non-2xx response to a typed error.
func classifyStatus(apiErr *APIError) error {
	switch sc := apiErr.StatusCode; {
	case sc == http.StatusNotFound:
		// Ollama answers 404 for models that are not pulled
		return &ModelNotFoundError{APIError: apiErr}
	case sc == http.StatusBadRequest:
		return &BadRequestError{APIError: apiErr}
	case sc >= 500:
		return &ServerError{APIError: apiErr}
	default:
		return apiErr
	}
}
