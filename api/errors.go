package api

import (
	"errors"
	"net/http"

	"github.com/warp/inventory-ledger/inventory"
	"go.uber.org/zap"
)

// errorStatus maps a ledger error to an HTTP status and a stable code.
// Order matters: specific kinds are checked before the generic not-found.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, inventory.ErrInvalidArgument):
		return http.StatusBadRequest, "invalid_argument"
	case errors.Is(err, inventory.ErrInvalidOccupancy):
		return http.StatusBadRequest, "invalid_occupancy"
	case errors.Is(err, inventory.ErrUnauthorized):
		return http.StatusForbidden, "unauthorized"
	case errors.Is(err, inventory.ErrNotOwner):
		return http.StatusForbidden, "not_owner"
	case errors.Is(err, inventory.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, inventory.ErrDuplicateKey):
		return http.StatusConflict, "duplicate_key"
	case errors.Is(err, inventory.ErrChannelInactive):
		return http.StatusUnprocessableEntity, "channel_inactive"
	case errors.Is(err, inventory.ErrCapacityExceeded):
		return http.StatusUnprocessableEntity, "capacity_exceeded"
	case errors.Is(err, inventory.ErrInsufficientAvailability):
		return http.StatusUnprocessableEntity, "insufficient_availability"
	case errors.Is(err, inventory.ErrInsufficientBooked):
		return http.StatusUnprocessableEntity, "insufficient_booked"
	case errors.Is(err, inventory.ErrAllocationBelowBooked):
		return http.StatusUnprocessableEntity, "allocation_below_booked"
	case errors.Is(err, inventory.ErrSlotBusy):
		return http.StatusServiceUnavailable, "slot_busy"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

// errorDetails exposes the structured fields of rich errors.
func errorDetails(err error) any {
	var capErr *inventory.CapacityExceededError
	if errors.As(err, &capErr) {
		return map[string]any{
			"total_capacity": capErr.TotalCapacity,
			"committed":      capErr.Committed,
			"requested":      capErr.Requested,
		}
	}
	var availErr *inventory.InsufficientAvailabilityError
	if errors.As(err, &availErr) {
		return map[string]any{
			"available": availErr.Available,
			"requested": availErr.Requested,
		}
	}
	var argErr *inventory.InvalidArgumentError
	if errors.As(err, &argErr) {
		return map[string]any{
			"field": argErr.Field,
			"rule":  argErr.Rule,
		}
	}
	return nil
}

// writeLedgerError writes err with its mapped status. Internal errors are
// logged and their text is not returned.
func (h *Handler) writeLedgerError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := errorStatus(err)
	if status >= http.StatusInternalServerError {
		h.log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("code", code),
			zap.Error(err),
		)
	}

	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal error"
	}
	writeJSON(w, status, ErrorResponse{Error: message, Code: code, Details: errorDetails(err)})
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: message, Code: code})
}
