/*
errors.go - Centralized error types for the inventory ledger

PURPOSE:
  All error kinds in one place. Every public operation returns exactly one
  success value or one of these errors; validation fully precedes mutation so
  a failed call leaves no trace in the store.

ERROR CATEGORIES:
  1. Not found      - ErrNotFound and its specific variants
  2. Conflict       - ErrDuplicateKey
  3. Authorization  - ErrUnauthorized, ErrNotOwner
  4. Business rules - ErrChannelInactive, ErrCapacityExceeded, ...
  5. Input          - ErrInvalidArgument, ErrInvalidOccupancy
  6. Store          - anything else, wrapped with %w (only class worth retrying)

USAGE:
  if errors.Is(err, inventory.ErrNotFound) { ... }   // any not-found variant
  var capErr *inventory.CapacityExceededError
  if errors.As(err, &capErr) { ... }
*/
package inventory

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	ErrNotFound                 = errors.New("not found")
	ErrDuplicateKey             = errors.New("duplicate key")
	ErrUnauthorized             = errors.New("unauthorized")
	ErrNotOwner                 = errors.New("caller is not the owner")
	ErrChannelInactive          = errors.New("channel inactive")
	ErrCapacityExceeded         = errors.New("capacity exceeded")
	ErrInsufficientAvailability = errors.New("insufficient availability")
	ErrInsufficientBooked       = errors.New("release exceeds booked amount")
	ErrAllocationBelowBooked    = errors.New("allocation below booked amount")
	ErrInvalidOccupancy         = errors.New("occupancy percentage must be between 0 and 100")
	ErrInvalidArgument          = errors.New("invalid argument")

	// ErrSlotBusy means a distributed slot lock could not be obtained in
	// time. Retryable.
	ErrSlotBusy = errors.New("slot busy")
)

// Specific not-found errors. Each wraps ErrNotFound.
var (
	ErrRoomCategoryNotFound   = fmt.Errorf("room category %w", ErrNotFound)
	ErrChannelNotFound        = fmt.Errorf("channel %w", ErrNotFound)
	ErrAllocationNotFound     = fmt.Errorf("allocation %w", ErrNotFound)
	ErrSetNotFound            = fmt.Errorf("competitor set %w", ErrNotFound)
	ErrPropertyDataNotFound   = fmt.Errorf("property revenue data %w", ErrNotFound)
	ErrCompetitorDataNotFound = fmt.Errorf("competitor aggregate %w", ErrNotFound)
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// CapacityExceededError reports how far an allocation overshoots the slot.
type CapacityExceededError struct {
	Slot          SlotKey
	TotalCapacity uint32
	Committed     uint64 // allocated on other channels
	Requested     uint32
}

func (e *CapacityExceededError) Error() string {
	return fmt.Sprintf("capacity exceeded for %s: capacity %d, committed elsewhere %d, requested %d",
		e.Slot, e.TotalCapacity, e.Committed, e.Requested)
}

func (e *CapacityExceededError) Unwrap() error { return ErrCapacityExceeded }

// InsufficientAvailabilityError reports a booking larger than what is left.
type InsufficientAvailabilityError struct {
	Key       AllocationKey
	Available uint32
	Requested uint32
}

func (e *InsufficientAvailabilityError) Error() string {
	return fmt.Sprintf("insufficient availability for %s: available %d, requested %d",
		e.Key, e.Available, e.Requested)
}

func (e *InsufficientAvailabilityError) Unwrap() error { return ErrInsufficientAvailability }

// InvalidArgumentError names the offending field and the rule it broke.
type InvalidArgumentError struct {
	Field string
	Rule  string
	Value any
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("invalid argument: %s fails %q", e.Field, e.Rule)
}

func (e *InvalidArgumentError) Unwrap() error { return ErrInvalidArgument }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true for every not-found variant.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAuthError returns true if the caller lacked authority.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrNotOwner)
}

// IsClientError returns true if the error is a semantic rejection. These must be
// surfaced to the caller and never retried.
func IsClientError(err error) bool {
	return IsNotFound(err) || IsAuthError(err) ||
		errors.Is(err, ErrDuplicateKey) ||
		errors.Is(err, ErrChannelInactive) ||
		errors.Is(err, ErrCapacityExceeded) ||
		errors.Is(err, ErrInsufficientAvailability) ||
		errors.Is(err, ErrInsufficientBooked) ||
		errors.Is(err, ErrAllocationBelowBooked) ||
		errors.Is(err, ErrInvalidOccupancy) ||
		errors.Is(err, ErrInvalidArgument)
}

// IsRetryable returns true if the error came from the infrastructure rather
// than from a ledger rule.
func IsRetryable(err error) bool {
	return err != nil && !IsClientError(err)
}
