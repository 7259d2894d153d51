package wizard

import (
	"errors"
	"fmt"
)

// TransitionError reports a navigation or completion request the wizard
// refused. The wizard state is never modified when one is returned.
//
// Two classes exist:
//   - Rejections (ErrCodeInvalidTransition): expected, user-driven attempts
//     such as jumping to an unreached step. Callers usually disable the
//     triggering control and otherwise ignore the error.
//   - Usage errors (ErrCodeInvalidStepIndex): programming mistakes such as
//     step indices below 1 or beyond the step count.
type TransitionError struct {
	// Code identifies the error category.
	Code TransitionErrorCode

	// Op is the requested operation ("next", "previous", "goto", "complete").
	Op Op

	// From is the current step when the request was made.
	From int

	// To is the requested target step.
	To int

	// Reason is a human-readable description.
	Reason string
}

// TransitionErrorCode categorizes transition errors.
type TransitionErrorCode string

const (
	// ErrCodeInvalidTransition indicates a rejected, user-driven navigation.
	ErrCodeInvalidTransition TransitionErrorCode = "INVALID_STEP_TRANSITION"

	// ErrCodeInvalidStepIndex indicates a step index outside [1, steps].
	ErrCodeInvalidStepIndex TransitionErrorCode = "INVALID_STEP_INDEX"
)

// Error implements the error interface.
func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: %s %d -> %d: %s", e.Code, e.Op, e.From, e.To, e.Reason)
}

// IsRejected returns true if err is a user-driven transition rejection.
// Uses errors.As to handle wrapped errors.
func IsRejected(err error) bool {
	var te *TransitionError
	if errors.As(err, &te) {
		return te.Code == ErrCodeInvalidTransition
	}
	return false
}

// IsUsageError returns true if err reports a programming error.
func IsUsageError(err error) bool {
	var te *TransitionError
	if errors.As(err, &te) {
		return te.Code == ErrCodeInvalidStepIndex
	}
	return false
}

func rejected(op Op, from, to int, reason string) *TransitionError {
	return &TransitionError{Code: ErrCodeInvalidTransition, Op: op, From: from, To: to, Reason: reason}
}

func invalidIndex(op Op, from, to, steps int) *TransitionError {
	return &TransitionError{
		Code:   ErrCodeInvalidStepIndex,
		Op:     op,
		From:   from,
		To:     to,
		Reason: fmt.Sprintf("step must be within [1, %d]", steps),
	}
}
