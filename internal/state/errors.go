package state

import (
	"errors"
	"fmt"
)

// FaultError reports a defect in store composition or usage.
//
// Faults are programmer errors, not runtime conditions:
//   - Reentrant dispatch: Dispatch called from inside a reducer, tap,
//     or listener of the same dispatch
//   - Uninitialized store: Dispatch on a store with no meta-reducer
//   - Invalid slice registration: duplicate name, nil reducer,
//     non-reference initial state
//
// Faults propagate to the caller and are never converted into state.
type FaultError struct {
	// Code identifies the fault category.
	Code FaultCode

	// Message is a human-readable description.
	Message string

	// Slice identifies the offending slice, when applicable.
	Slice string

	// ActionKind identifies the action being dispatched, when applicable.
	ActionKind Kind
}

// FaultCode categorizes store faults.
type FaultCode string

const (
	// FaultReentrantDispatch indicates Dispatch was re-entered while a
	// dispatch was already in progress on the same goroutine.
	FaultReentrantDispatch FaultCode = "REENTRANT_DISPATCH"

	// FaultNotInitialized indicates the store has no meta-reducer.
	FaultNotInitialized FaultCode = "NOT_INITIALIZED"

	// FaultNilAction indicates Dispatch was called with a nil action.
	FaultNilAction FaultCode = "NIL_ACTION"

	// FaultDuplicateSlice indicates two slices registered the same name.
	FaultDuplicateSlice FaultCode = "DUPLICATE_SLICE"

	// FaultInvalidSlice indicates a slice registration that cannot work:
	// empty name, nil reducer, or an initial state that is not a
	// reference value (no-op detection needs identity comparison).
	FaultInvalidSlice FaultCode = "INVALID_SLICE"
)

// Error implements the error interface.
func (e *FaultError) Error() string {
	switch {
	case e.Slice != "" && e.ActionKind != "":
		return fmt.Sprintf("%s: %s (slice=%s, kind=%s)", e.Code, e.Message, e.Slice, e.ActionKind)
	case e.Slice != "":
		return fmt.Sprintf("%s: %s (slice=%s)", e.Code, e.Message, e.Slice)
	case e.ActionKind != "":
		return fmt.Sprintf("%s: %s (kind=%s)", e.Code, e.Message, e.ActionKind)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

// IsFault returns true if err is a FaultError with the given code.
// Uses errors.As to handle wrapped errors.
func IsFault(err error, code FaultCode) bool {
	var fe *FaultError
	if errors.As(err, &fe) {
		return fe.Code == code
	}
	return false
}

// newReentrantFault creates a FaultError for a reentrant dispatch.
func newReentrantFault(kind Kind) *FaultError {
	return &FaultError{
		Code:       FaultReentrantDispatch,
		Message:    "dispatch re-entered while a dispatch is in progress",
		ActionKind: kind,
	}
}
