package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for domain-level error discrimination.
// Services wrap these so transports can map them to status codes without leaking infrastructure details.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrBadRequest   = errors.New("bad request")

	// Callable taxonomy used by the translation gateway and the trigger handlers.
	ErrFailedPrecondition = errors.New("failed-precondition")
	ErrInvalidArgument    = fmt.Errorf("invalid-argument: %w", ErrBadRequest)
	ErrUnauthenticated    = fmt.Errorf("unauthenticated: %w", ErrUnauthorized)
	ErrResourceExhausted  = errors.New("resource-exhausted")
	ErrInternal           = errors.New("internal")
)

// ProviderError is a non-2xx response from an external provider.
// A 429 unwraps to ErrResourceExhausted, anything else to ErrInternal.
type ProviderError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s responded %d: %s", e.Provider, e.StatusCode, e.Body)
}

func (e *ProviderError) Unwrap() error {
	if e.StatusCode == http.StatusTooManyRequests {
		return ErrResourceExhausted
	}
	return ErrInternal
}
