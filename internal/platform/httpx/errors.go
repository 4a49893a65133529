// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"

	"github.com/odyssey-erp/console/internal/lifecycle"
	"github.com/odyssey-erp/console/internal/shared"
)

// Sentinel errors for the transport layer.
var (
	ErrNotFound   = shared.ErrNotFound
	ErrDuplicate  = errors.New("duplicate entry")
	ErrValidation = shared.ErrValidation
)

// RespondError maps domain errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	var (
		vErr  *shared.ValidationError
		nfErr *shared.NotFoundError
		tErr  *lifecycle.InvalidTransitionError
	)
	switch {
	case errors.As(err, &vErr):
		WriteProblem(w, ProblemDetail{
			Title:  "Validation Failed",
			Status: http.StatusBadRequest,
			Detail: vErr.Error(),
			Field:  vErr.Field,
		})
	case errors.As(err, &nfErr):
		Problem(w, http.StatusNotFound, "Not Found", nfErr.Error())
	case errors.Is(err, ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.As(err, &tErr):
		Problem(w, http.StatusConflict, "Invalid Transition", tErr.Error())
	case errors.Is(err, shared.ErrImmutableInvoice):
		Problem(w, http.StatusConflict, "Immutable Invoice", err.Error())
	case errors.Is(err, shared.ErrStaleWrite):
		Problem(w, http.StatusConflict, "Stale Write", "record changed, reload and retry")
	case errors.Is(err, shared.ErrIdempotencyConflict):
		Problem(w, http.StatusConflict, "Duplicate Request", err.Error())
	case errors.Is(err, ErrDuplicate):
		Problem(w, http.StatusConflict, "Duplicate", err.Error())
	case errors.Is(err, ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
