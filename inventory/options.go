package inventory

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// ReallocationPolicy decides what happens to booked units when a channel's
// allocation for a date is written again.
type ReallocationPolicy string

const (
	// ReallocPreserveBooked keeps Booked and rejects amounts below it with
	// ErrAllocationBelowBooked.
	ReallocPreserveBooked ReallocationPolicy = "preserve"

	// ReallocReset writes {Allocated: amount, Booked: 0}, discarding bookings.
	ReallocReset ReallocationPolicy = "reset"
)

func ParseReallocationPolicy(s string) (ReallocationPolicy, error) {
	switch p := ReallocationPolicy(s); p {
	case ReallocPreserveBooked, ReallocReset:
		return p, nil
	case "":
		return ReallocPreserveBooked, nil
	default:
		return "", fmt.Errorf("unknown reallocation policy %q", s)
	}
}

// Options configures the ledger components. The zero value is usable.
type Options struct {
	Logger *zap.Logger
	Clock  func() time.Time

	Reallocation ReallocationPolicy

	// RequireChannelOperator binds booking to the channel's assigned operator.
	// When false, any caller may book against a channel allocation.
	RequireChannelOperator bool

	// Locker, when set, is taken inside the in-process slot lock. Needed only
	// when several ledger processes write to one store.
	Locker SlotLocker
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
	if o.Reallocation == "" {
		o.Reallocation = ReallocPreserveBooked
	}
	return o
}
