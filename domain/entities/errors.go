package entities

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateBet is returned when the participant already has a bet this cycle
	ErrDuplicateBet = errors.New("duplicate bet")
	// ErrWindowClosed is returned when a bet is submitted outside its class's window
	ErrWindowClosed = errors.New("window closed")
	// ErrCycleNotFound is returned when no active cycle exists for the reference
	ErrCycleNotFound = errors.New("cycle not found")
)

// BetRejectedError carries the reason a bet was not accepted
type BetRejectedError struct {
	Reason error
	Detail string
}

func (e *BetRejectedError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("bet rejected: %v", e.Reason)
	}
	return fmt.Sprintf("bet rejected: %v: %s", e.Reason, e.Detail)
}

func (e *BetRejectedError) Unwrap() error {
	return e.Reason
}

// NewBetRejectedError wraps a rejection reason
func NewBetRejectedError(reason error, detail string) *BetRejectedError {
	return &BetRejectedError{Reason: reason, Detail: detail}
}

// ResolutionPreconditionError signals that a cycle cannot be resolved from its stored state.
// The cycle is closed with no winner instead of being retried.
type ResolutionPreconditionError struct {
	CycleID int64
	Reason  string
}

func (e *ResolutionPreconditionError) Error() string {
	return fmt.Sprintf("resolution precondition failed for cycle %d: %s", e.CycleID, e.Reason)
}
