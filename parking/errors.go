/*
errors.go - Centralized error types for the parking engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  The HTTP layer maps these to status codes; the core never branches on
  status codes itself.

ERROR CATEGORIES:
  1. Lookup errors  - Referenced user/reservation/setting absent
  2. Rule errors    - Business rule violations (suspended, slot taken)
  3. Input errors   - Malformed input, rejected before any mutation

USAGE:
  if errors.Is(err, parking.ErrSlotTaken) {
      // map to 409
  }

SEE ALSO:
  - ledger.go: Produces these errors
  - api/handlers.go: Maps them to HTTP responses
*/
package parking

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNotFound is returned when a referenced user, reservation, penalty
	// or setting does not exist.
	ErrNotFound = errors.New("not found")

	// ErrSlotTaken is returned when an active reservation already occupies
	// the requested (slot, date) pair.
	ErrSlotTaken = errors.New("slot already reserved for that date")

	// ErrSuspended is returned when a suspended user attempts to create or
	// cancel a reservation.
	ErrSuspended = errors.New("account suspended")

	// ErrForbidden is returned when a caller acts on a resource they do not
	// own and lack the role for.
	ErrForbidden = errors.New("forbidden")

	// ErrNotActive is returned when cancelling a reservation that is already
	// cancelled or completed. Rejecting keeps double-charging impossible.
	ErrNotActive = errors.New("reservation is not active")

	// ErrValidation is returned for malformed input, before any mutation.
	ErrValidation = errors.New("validation failed")

	// ErrHasActiveReservations is returned when deleting a user who still
	// holds active reservations.
	ErrHasActiveReservations = errors.New("user has active reservations")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// SlotTakenError reports which reservation holds the contested slot.
type SlotTakenError struct {
	Slot          string
	Date          Date
	ReservationID string
}

func (e *SlotTakenError) Error() string {
	return fmt.Sprintf("slot %s already reserved for %s (reservation %s)",
		e.Slot, e.Date, e.ReservationID)
}

func (e *SlotTakenError) Unwrap() error { return ErrSlotTaken }

// ValidationError reports which field failed validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound reports whether the error indicates a missing resource.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsClientError reports whether the error is due to the caller's input or
// state, as opposed to an internal failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrSlotTaken) ||
		errors.Is(err, ErrSuspended) ||
		errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrNotActive) ||
		errors.Is(err, ErrHasActiveReservations)
}
