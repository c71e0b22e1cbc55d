package learning

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when an operation references a note or card
	// id that is no longer present.
	ErrNotFound = errors.New("not found")
	// ErrNothingDue is returned when a review session is started with no
	// due cards. An empty due-set is a normal state, not a failure.
	ErrNothingDue = errors.New("nothing to review")
	// ErrInvalidState is returned when a session method is called out of
	// sequence. This is a programmer error: the UI must only offer legal
	// actions.
	ErrInvalidState = errors.New("invalid session state")
)

// ValidationError reports caller-supplied content that fails a structural
// rule, such as an empty note title. The input is rejected and state is
// left unchanged.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field %s: %s", e.Field, e.Message)
}
