/*
errors.go - Centralized error types for the scheduling engine

PURPOSE:
  Domain-agnostic sentinel errors. Domain packages (lawncare) wrap these
  with additional context and add their own kinds.

ERROR CATEGORIES:
  1. Concurrency errors - compare-and-swap conflicts on versioned records
  2. Lookup errors - missing records

USAGE:
  if errors.Is(err, generic.ErrConcurrentModification) {
      // someone else wrote first: re-read, do not re-apply
  }
*/
package generic

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrConcurrentModification is returned when a compare-and-swap write sees
	// a revision other than the one the caller read.
	ErrConcurrentModification = errors.New("concurrent modification detected")

	// ErrEntityNotFound is returned when a referenced record doesn't exist.
	ErrEntityNotFound = errors.New("entity not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// RevisionConflictError provides details about a lost compare-and-swap.
type RevisionConflictError struct {
	Key      string
	Expected int64
	Actual   int64
}

func (e *RevisionConflictError) Error() string {
	return fmt.Sprintf("revision conflict on %s: expected %d, found %d", e.Key, e.Expected, e.Actual)
}

func (e *RevisionConflictError) Unwrap() error {
	return ErrConcurrentModification
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsConflict returns true if the error is a lost compare-and-swap.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConcurrentModification)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrEntityNotFound)
}
