package catalog

import (
	"errors"
	"fmt"
	"net/http"

	"geekhub/models"
)

var (
	ErrInvalidType           = errors.New("invalid catalog type")
	ErrInvalidProvider       = errors.New("provider does not serve this type")
	ErrExternalIDRequired    = errors.New("external id is required")
	ErrUpstreamRequestFailed = errors.New("upstream request failed")
	ErrProviderNotConfigured = errors.New("provider api key not configured")
)

// UpstreamError reports a failed provider call. Status is the HTTP status
// returned by the provider, 503 when the circuit breaker rejected the call
// and 502 for transport or decoding failures.
type UpstreamError struct {
	Provider models.Provider
	Status   int
	Err      error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s request failed (status %d): %v", e.Provider, e.Status, e.Err)
	}
	return fmt.Sprintf("%s request failed (status %d)", e.Provider, e.Status)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstreamRequestFailed
}

// NotFound reports whether the provider answered 404.
func (e *UpstreamError) NotFound() bool {
	return e.Status == http.StatusNotFound
}
