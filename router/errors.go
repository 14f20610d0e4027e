package router

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/blogware/blog-backend/db"
)

var (
	// ErrInvalidData is sent when a value in the request is invalid
	ErrInvalidData = "INVALID_DATA"
	// ErrParsing is sent when an error occurs in parsing the request
	ErrParsing = "PARSING_ERROR"
	// ErrUnauthenticated is sent when no valid identity accompanies the request
	ErrUnauthenticated = "UNAUTHENTICATED"
	// ErrForbidden is sent when the identity lacks rights over the target entity
	ErrForbidden = "FORBIDDEN"
	// ErrNotFound is sent when the referenced entity is absent
	ErrNotFound = "NOT_FOUND"
	// ErrConflict is sent on a uniqueness violation
	ErrConflict = "CONFLICT"
	// ErrInternal is sent when an internal server error occurs
	ErrInternal = "INTERNAL_ERROR"
)

// handleStoreError maps the store's sentinel errors onto the wire taxonomy.
// op and entity give level 3 logs enough context to diagnose without leaking
// internals to the caller.
func handleStoreError(err error, op, entity string) *HTTPError {
	switch {
	case errors.Is(err, db.ErrNotFound):
		return &HTTPError{
			IError:    err,
			Level:     1,
			Status:    http.StatusNotFound,
			ErrorCode: ErrNotFound,
			Error:     entity + " not found",
		}
	case errors.Is(err, db.ErrConflict):
		return &HTTPError{
			IError:    err,
			Level:     1,
			Status:    http.StatusConflict,
			ErrorCode: ErrConflict,
			Error:     entity + " already exists",
		}
	case errors.Is(err, db.ErrForbidden):
		return &HTTPError{
			IError:    err,
			Level:     1,
			Status:    http.StatusForbidden,
			ErrorCode: ErrForbidden,
			Error:     "not the owner of this " + entity,
		}
	default:
		return &HTTPError{
			IError:    fmt.Errorf("%s %s: %w", op, entity, err),
			Level:     3,
			Status:    http.StatusInternalServerError,
			ErrorCode: ErrInternal,
			Error:     http.StatusText(http.StatusInternalServerError),
		}
	}
}

// handleMissingDataError takes the name of data that is missing or invalid
// and returns a *HTTPError
func handleMissingDataError(v string) *HTTPError {
	return &HTTPError{
		IError:    errors.New("missing " + v),
		Level:     1,
		Status:    http.StatusBadRequest,
		ErrorCode: ErrInvalidData,
		Error:     v + " is required",
	}
}

func handleJSONError(err error) *HTTPError {
	return &HTTPError{
		IError:    err,
		Level:     3,
		Status:    http.StatusInternalServerError,
		ErrorCode: ErrInternal,
		Error:     http.StatusText(http.StatusInternalServerError),
	}
}
