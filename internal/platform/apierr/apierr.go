package apierr

import (
	"errors"
	"fmt"
	"net/http"

	engerrors "github.com/pckassistant/graph-engine/internal/pkg/errors"
)

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

// FromDomainError classifies a sentinel error from internal/pkg/errors
// into the HTTP status its response envelope should carry. Unrecognized
// errors are treated as 500s (Unavailable/Invariant/unknown).
func FromDomainError(err error) *Error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, engerrors.ErrNotFound):
		return New(http.StatusNotFound, "not_found", err)
	case errors.Is(err, engerrors.ErrUnauthorized):
		return New(http.StatusUnauthorized, "unauthorized", err)
	case errors.Is(err, engerrors.ErrForbidden):
		return New(http.StatusForbidden, "forbidden", err)
	case errors.Is(err, engerrors.ErrInvalidArgument):
		return New(http.StatusBadRequest, "invalid_argument", err)
	case errors.Is(err, engerrors.ErrUnavailable):
		return New(http.StatusServiceUnavailable, "unavailable", err)
	case errors.Is(err, engerrors.ErrInvariant):
		return New(http.StatusInternalServerError, "invariant_violated", err)
	default:
		return New(http.StatusInternalServerError, "internal_error", err)
	}
}
