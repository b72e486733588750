// Package httperr defines the error taxonomy shared by all domain packages
// and maps it onto HTTP responses.
//
// Three kinds of failure exist: a lookup that resolves no row (ErrNotFound),
// a payload that violates a domain rule before any store call is made
// (ValidationError, carrying per-field messages for the client form), and a
// store or transport failure surfaced generically (anything else, wrapped
// with context by the repository). ConflictError is reserved for operations
// that would break the bed/active-patient uniqueness rule.
package httperr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// ErrNotFound is returned when an id does not resolve to a row.
var ErrNotFound = errors.New("not found")

// NotFound wraps ErrNotFound with the entity and id that failed to resolve.
func NotFound(entity string, id interface{}) error {
	return fmt.Errorf("%s %v: %w", entity, id, ErrNotFound)
}

// ValidationError is a client-side rule violation caught before any store
// call. Fields maps field name to a human-readable message.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %d field(s)", len(e.Fields))
}

// NewValidation builds a ValidationError for a single field.
func NewValidation(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

// Validator accumulates field errors across checks.
type Validator struct {
	fields map[string]string
}

func (v *Validator) Require(field, msg string) {
	if v.fields == nil {
		v.fields = make(map[string]string)
	}
	v.fields[field] = msg
}

// Err returns the accumulated ValidationError, or nil if every check passed.
func (v *Validator) Err() error {
	if len(v.fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: v.fields}
}

// ConflictError signals an operation rejected because it would leave related
// records inconsistent (e.g. assigning an occupied bed).
type ConflictError struct {
	Msg string
}

func (e *ConflictError) Error() string { return e.Msg }

// Conflict builds a ConflictError.
func Conflict(format string, args ...interface{}) error {
	return &ConflictError{Msg: fmt.Sprintf(format, args...)}
}

// ErrorHandler returns an echo HTTPErrorHandler translating the taxonomy
// into JSON responses. Unknown errors become opaque 500s; the detail stays
// in the log.
func ErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var (
			valErr  *ValidationError
			conErr  *ConflictError
			echoErr *echo.HTTPError
		)

		switch {
		case errors.Is(err, ErrNotFound):
			_ = c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
		case errors.As(err, &valErr):
			_ = c.JSON(http.StatusUnprocessableEntity, map[string]interface{}{
				"error":  "validation failed",
				"fields": valErr.Fields,
			})
		case errors.As(err, &conErr):
			_ = c.JSON(http.StatusConflict, map[string]string{"error": conErr.Msg})
		case errors.As(err, &echoErr):
			_ = c.JSON(echoErr.Code, map[string]interface{}{"error": echoErr.Message})
		default:
			logger.Error().Err(err).
				Str("method", c.Request().Method).
				Str("path", c.Request().URL.Path).
				Msg("unhandled error")
			_ = c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}
	}
}
