/*
Package inventory provides the channel inventory ledger.

PURPOSE:
  Tracks perishable capacity (hotel rooms per date) that is partitioned across
  distribution channels. The ledger guarantees that the sum of channel
  commitments never exceeds physical supply and that bookings never exceed
  what was committed to a channel.

KEY CONCEPTS IN THIS FILE (types.go):
  - Identifiers: PropertyID, RoomCategoryID, ChannelID, SetID, Identity
  - Date: opaque ordering key (YYYYMMDD by convention)
  - RoomCategory, Channel, AllocationRecord: capacity side
  - RevenueFact, CompetitorSet, CompetitorAggregate, Comparison: performance side

COMPONENTS:
  Catalog      (catalog.go)     room categories and their capacity
  Channels     (channels.go)    distribution channels and activation
  Allocations  (allocation.go)  per-date, per-channel commitments and bookings
  Performance  (performance.go) revenue facts and competitive indices
  Ledger       (ledger.go)      wires all of the above over one Store

SEE ALSO:
  - errors.go: Error taxonomy
  - store.go: Persistence interfaces
*/
package inventory

import (
	"fmt"
	"time"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type PropertyID string
type RoomCategoryID string
type ChannelID string
type SetID string

// Identity is an authenticated principal handed to the ledger by the caller.
// The ledger only compares identities for equality.
type Identity string

// Date is an opaque ordering key. Callers conventionally encode YYYYMMDD.
type Date uint32

func (d Date) String() string { return fmt.Sprintf("%08d", uint32(d)) }

// =============================================================================
// CAPACITY
// =============================================================================

// RoomCategory is a block of identical rooms at a property.
// Categories are append-only: no update or delete exists.
type RoomCategory struct {
	PropertyID     PropertyID
	RoomCategoryID RoomCategoryID
	Name           string
	TotalCapacity  uint32
	Owner          Identity
	CreatedAt      time.Time
}

// Channel is a distribution outlet (direct, OTA, wholesaler).
type Channel struct {
	ID     ChannelID
	Name   string
	Active bool

	// Operator is the identity allowed to book on behalf of the channel when
	// operator binding is enforced. Empty means unbound.
	Operator  Identity
	CreatedAt time.Time
}

// SlotKey identifies one (property, category, date) slot. All channel
// allocations of a slot share the category's capacity.
type SlotKey struct {
	PropertyID     PropertyID
	RoomCategoryID RoomCategoryID
	Date           Date
}

func (k SlotKey) String() string {
	return fmt.Sprintf("%s/%s@%s", k.PropertyID, k.RoomCategoryID, k.Date)
}

// AllocationKey identifies a single channel's allocation within a slot.
type AllocationKey struct {
	PropertyID     PropertyID
	RoomCategoryID RoomCategoryID
	ChannelID      ChannelID
	Date           Date
}

func (k AllocationKey) Slot() SlotKey {
	return SlotKey{PropertyID: k.PropertyID, RoomCategoryID: k.RoomCategoryID, Date: k.Date}
}

func (k AllocationKey) String() string {
	return fmt.Sprintf("%s/%s/%s@%s", k.PropertyID, k.RoomCategoryID, k.ChannelID, k.Date)
}

// AllocationRecord holds a channel's commitment for one date.
// INVARIANT: Booked <= Allocated.
type AllocationRecord struct {
	AllocationKey
	Allocated uint32
	Booked    uint32
	UpdatedAt time.Time
}

// Available returns the unsold part of the allocation.
func (r AllocationRecord) Available() uint32 {
	if r.Booked >= r.Allocated {
		return 0
	}
	return r.Allocated - r.Booked
}

// SlotSummary projects a slot across every channel.
type SlotSummary struct {
	SlotKey
	TotalCapacity uint32
	Allocated     uint64
	Booked        uint64
	Unallocated   uint64
	Channels      []AllocationRecord
}

// =============================================================================
// PERFORMANCE
// =============================================================================

// RevenueFact is a property's daily revenue record. Currency fields are
// integer-encoded by the caller (e.g. cents).
type RevenueFact struct {
	PropertyID          PropertyID
	Date                Date
	RoomRevenue         uint64
	OtherRevenue        uint64
	OccupancyPercentage uint32
	AverageDailyRate    uint64
	RevPAR              uint64
	RecordedBy          Identity
	RecordedAt          time.Time
}

type CompetitorSet struct {
	ID        SetID
	Name      string
	Owner     Identity
	CreatedAt time.Time
}

// Membership is a (set, property) relation. Removal flips IsMember; rows are
// never deleted.
type Membership struct {
	SetID      SetID
	PropertyID PropertyID
	IsMember   bool
	UpdatedAt  time.Time
}

// CompetitorAggregate is fed by an external aggregation process.
type CompetitorAggregate struct {
	SetID            SetID
	Date             Date
	AverageOccupancy uint32
	AverageADR       uint64
	AverageRevPAR    uint64
	PropertyCount    uint32
	UpdatedAt        time.Time
}

// Comparison holds competitive indices. 100 is parity, above 100 means the
// property outperforms its set.
type Comparison struct {
	PropertyID     PropertyID
	SetID          SetID
	Date           Date
	OccupancyIndex uint64
	ADRIndex       uint64
	RevPARIndex    uint64
}
