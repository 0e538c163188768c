package service

import (
	"errors"
	"net/http"
)

// classifiedError is a sentinel carrying a taxonomy name that the error log
// records as the error's name.
type classifiedError struct {
	name string
	msg  string
}

func (e *classifiedError) Error() string     { return e.msg }
func (e *classifiedError) ErrorName() string { return e.name }

// Error taxonomy shared by services and handlers.
var (
	ErrValidation   error = &classifiedError{"ValidationError", "invalid question data"}
	ErrNotFound     error = &classifiedError{"NotFoundError", "no question found"}
	ErrPersistence  error = &classifiedError{"PersistenceError", "database operation failed"}
	ErrUnknownKind  error = &classifiedError{"ValidationError", "unknown question kind"}
	ErrEmailTaken   error = &classifiedError{"ConflictError", "email is already registered"}
	ErrUnauthorized error = &classifiedError{"AuthError", "unauthorized"}
)

// Outcome is the normalised result of a service call.
type Outcome struct {
	Success bool          `json:"success"`
	Error   *OutcomeError `json:"error,omitempty"`
}

// OutcomeError describes a failed call. Code is an HTTP status.
type OutcomeError struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
	Details string `json:"details,omitempty"`
}

// OutcomeOf converts a service error into an Outcome. Unclassified errors
// default to 500 and never expose their text.
func OutcomeOf(err error) Outcome {
	if err == nil {
		return Outcome{Success: true}
	}

	oe := &OutcomeError{Code: http.StatusInternalServerError, Message: "internal error"}
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrUnknownKind):
		oe.Code, oe.Message = http.StatusBadRequest, err.Error()
	case errors.Is(err, ErrNotFound):
		oe.Code, oe.Message = http.StatusNotFound, ErrNotFound.Error()
	case errors.Is(err, ErrEmailTaken):
		oe.Code, oe.Message = http.StatusConflict, ErrEmailTaken.Error()
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrUnauthorized):
		oe.Code, oe.Message = http.StatusUnauthorized, err.Error()
	case errors.Is(err, ErrPersistence):
		oe.Message = ErrPersistence.Error()
		oe.Details = "the data store could not complete the operation"
	}
	return Outcome{Success: false, Error: oe}
}
