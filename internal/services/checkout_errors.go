package services

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError is a recoverable, user-facing validation failure. It names
// the fields that blocked the transition so the caller can highlight them.
type ValidationError struct {
	Message string
	Fields  []string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Message, strings.Join(e.Fields, ", "))
}

// NewValidationError builds a ValidationError for the given fields.
func NewValidationError(message string, fields ...string) *ValidationError {
	return &ValidationError{Message: message, Fields: fields}
}

// IndexError signals a passenger index outside the session's record range.
type IndexError struct {
	Index  int
	Length int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("passenger index %d out of range (have %d records)", e.Index, e.Length)
}

var (
	// ErrSessionNotFound means the checkout session id is unknown or expired
	ErrSessionNotFound = errors.New("checkout session not found")
	// ErrWrongStep means the requested transition is not valid from the
	// session's current step
	ErrWrongStep = errors.New("operation not allowed in current checkout step")
	// ErrPaymentInFlight means a payment attempt is already awaiting its
	// terminal outcome; submission is disabled until it resolves
	ErrPaymentInFlight = errors.New("a payment attempt is already being processed")
	// ErrSessionCompleted means the session already has a successful payment
	ErrSessionCompleted = errors.New("checkout session is already completed")
	// ErrAttemptNotSucceeded guards receipt finalization
	ErrAttemptNotSucceeded = errors.New("receipt requires a succeeded payment attempt")
	// ErrBackNavigationDisabled is returned when leaving the payment step
	// backwards while the flow is configured one-way
	ErrBackNavigationDisabled = errors.New("returning to earlier steps is not permitted from payment")
)
