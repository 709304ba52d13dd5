package lawncare

import (
	"errors"
	"fmt"

	"github.com/greenround/visit-engine/generic"
)

var (
	// ErrUnknownPlan is returned when a plan identifier has no cadence.
	ErrUnknownPlan = errors.New("unknown plan")

	// ErrUnknownStatus is returned when a status identifier is not one of the
	// billing statuses.
	ErrUnknownStatus = errors.New("unknown status")

	// ErrMissingPlanStart is returned when a subscription has no start date.
	// Occurrence generation short-circuits to an empty list.
	ErrMissingPlanStart = errors.New("missing plan start")

	// ErrInvalidOverrideState marks an active, non-cancelled override with no
	// effective date. Merge treats such a slot as inactive.
	ErrInvalidOverrideState = errors.New("invalid override state: active without effective date")

	// ErrPersistenceFailure is returned when an advanced queue could not be
	// written. The computed view is still served.
	ErrPersistenceFailure = errors.New("persistence failure")

	// ErrSubscriptionNotFound wraps generic.ErrEntityNotFound for subscriptions.
	ErrSubscriptionNotFound = fmt.Errorf("subscription: %w", generic.ErrEntityNotFound)
)

// UnknownPlanError carries the identifier that failed to decode.
type UnknownPlanError struct {
	ID string
}

func (e *UnknownPlanError) Error() string {
	return fmt.Sprintf("unknown plan %q", e.ID)
}

func (e *UnknownPlanError) Unwrap() error { return ErrUnknownPlan }

// UnknownStatusError carries the status that failed to decode.
type UnknownStatusError struct {
	Status string
}

func (e *UnknownStatusError) Error() string {
	return fmt.Sprintf("unknown status %q", e.Status)
}

func (e *UnknownStatusError) Unwrap() error { return ErrUnknownStatus }

// PersistenceError records a write that failed after retries.
type PersistenceError struct {
	CustomerID string
	Attempts   int
	Err        error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist overrides for %s failed after %d attempt(s): %v", e.CustomerID, e.Attempts, e.Err)
}

func (e *PersistenceError) Unwrap() []error { return []error{ErrPersistenceFailure, e.Err} }

// IsNoPlan reports whether err means "nothing to schedule": the subscription
// has no resolvable plan or no start date.
func IsNoPlan(err error) bool {
	return errors.Is(err, ErrUnknownPlan) || errors.Is(err, ErrMissingPlanStart)
}

// IsRetryable returns true for write failures worth retrying in place. Lost
// compare-and-swaps and missing records are not: retrying would re-apply a
// decision made on stale data.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	return !generic.IsConflict(err) && !generic.IsNotFound(err) && !errors.Is(err, ErrUnknownPlan)
}
