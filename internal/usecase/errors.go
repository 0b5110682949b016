package usecase

import (
	"errors"
	"fmt"
	"net/http"
)

// Error kinds. Every HTTPError wraps one, so callers can use errors.Is.
var (
	//400 missing / malformed input
	ErrValidation = errors.New("validation error")
	//404 order, user or pricing
	ErrNotFound = errors.New("not found")
	//400 status outside the enum
	ErrInvalidStatus = errors.New("invalid status")
	//400 course_id cannot be parsed
	ErrInvalidCourseID = errors.New("invalid course id")
	//409 order changed between read and write
	ErrConflict = errors.New("conflict")
	//500
	ErrInternal = errors.New("internal error")
)

// HTTPError is what usecases return; handlers render it as-is.
// Allowed and Order carry the extra context some errors send back.
type HTTPError struct {
	Status  int
	Message string
	Allowed []string
	Order   *OrderOutput
	Kind    error
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func (e *HTTPError) Unwrap() error {
	return e.Kind
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

func validationError(message string) error {
	return &HTTPError{Status: http.StatusBadRequest, Message: message, Kind: ErrValidation}
}

func notFoundError(message string) error {
	return &HTTPError{Status: http.StatusNotFound, Message: message, Kind: ErrNotFound}
}

func internalError(cause error) error {
	return &HTTPError{Status: http.StatusInternalServerError, Message: "internal error", Kind: errors.Join(ErrInternal, cause)}
}
