package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-market-triggers/internal/domain"
)

// Callable status strings.
const (
	statusInvalidArgument    = "INVALID_ARGUMENT"
	statusUnauthenticated    = "UNAUTHENTICATED"
	statusFailedPrecondition = "FAILED_PRECONDITION"
	statusResourceExhausted  = "RESOURCE_EXHAUSTED"
	statusInternal           = "INTERNAL"
)

// httpStatus maps a domain error to an HTTP status code.
func httpStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrFailedPrecondition):
		return http.StatusPreconditionFailed
	case errors.Is(err, domain.ErrResourceExhausted):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// httpError writes err as a JSON error. Internal failures are logged and
// reported without detail.
func httpError(w http.ResponseWriter, err error) {
	status := httpStatus(err)
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "err", err)
		writeError(w, status, "internal error")
		return
	}
	writeError(w, status, err.Error())
}

// callableStatus maps a domain error onto the callable taxonomy.
func callableStatus(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument), errors.Is(err, domain.ErrBadRequest):
		return statusInvalidArgument
	case errors.Is(err, domain.ErrUnauthenticated), errors.Is(err, domain.ErrUnauthorized):
		return statusUnauthenticated
	case errors.Is(err, domain.ErrFailedPrecondition):
		return statusFailedPrecondition
	case errors.Is(err, domain.ErrResourceExhausted):
		return statusResourceExhausted
	default:
		return statusInternal
	}
}

func callableError(w http.ResponseWriter, err error) {
	status := callableStatus(err)
	msg := err.Error()
	if status == statusInternal {
		slog.Error("callable failed", "err", err)
		msg = "internal error"
	}
	writeJSON(w, httpStatus(err), CallableErrorEnvelope{Error: CallableError{Status: status, Message: msg}})
}
