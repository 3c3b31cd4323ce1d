/*
store.go - Persistence interfaces for the inventory ledger

PURPOSE:
  Defines the boundary between ledger rules and the durable key-value store.
  The store holds no business logic: it never checks capacity, ownership or
  channel status. Those checks live in the components and run under the
  slot lock before any write.

KEY INTERFACES:
  CatalogStore:     room categories (insert-if-absent, lookup)
  ChannelStore:     channels, with field-level status/operator updates
  AllocationStore:  allocation records, listable per slot
  PerformanceStore: revenue facts, competitor sets, memberships, aggregates
  Store:            all of the above
  AdminStore:       optional, holds the administrative identity (compare-and-set)
  SlotLocker:       optional, serializes slot mutations across processes

CONVENTIONS:
  - Getters return (nil, nil) when the key is absent.
  - Insert* returns ErrDuplicateKey when the key exists. This is the only
    uniqueness primitive the ledger relies on.
  - Put* overwrites.

IMPLEMENTATIONS:
  - inventory/store/memory.go: In-memory for tests and development
  - store/sqlite/sqlite.go:    Embedded durable store
  - store/redisstore/redis.go: Networked durable store and SlotLocker
*/
package inventory

import "context"

type CatalogStore interface {
	InsertRoomCategory(ctx context.Context, c RoomCategory) error
	GetRoomCategory(ctx context.Context, propertyID PropertyID, categoryID RoomCategoryID) (*RoomCategory, error)
}

type ChannelStore interface {
	InsertChannel(ctx context.Context, ch Channel) error
	GetChannel(ctx context.Context, id ChannelID) (*Channel, error)
	ListChannels(ctx context.Context) ([]Channel, error)

	// SetChannelActive and SetChannelOperator touch a single field so that
	// concurrent updates of the other field are never clobbered.
	// Both return ErrChannelNotFound for an unknown channel.
	SetChannelActive(ctx context.Context, id ChannelID, active bool) error
	SetChannelOperator(ctx context.Context, id ChannelID, operator Identity) error
}

type AllocationStore interface {
	GetAllocation(ctx context.Context, key AllocationKey) (*AllocationRecord, error)

	// ListAllocations returns every channel's record for the slot.
	ListAllocations(ctx context.Context, slot SlotKey) ([]AllocationRecord, error)

	PutAllocation(ctx context.Context, rec AllocationRecord) error
}

type PerformanceStore interface {
	PutRevenue(ctx context.Context, fact RevenueFact) error
	GetRevenue(ctx context.Context, propertyID PropertyID, date Date) (*RevenueFact, error)

	InsertCompetitorSet(ctx context.Context, set CompetitorSet) error
	GetCompetitorSet(ctx context.Context, id SetID) (*CompetitorSet, error)

	PutMembership(ctx context.Context, m Membership) error
	GetMembership(ctx context.Context, setID SetID, propertyID PropertyID) (*Membership, error)
	ListMemberships(ctx context.Context, setID SetID) ([]Membership, error)

	PutCompetitorAggregate(ctx context.Context, agg CompetitorAggregate) error
	GetCompetitorAggregate(ctx context.Context, setID SetID, date Date) (*CompetitorAggregate, error)
}

// Store is the full persistence surface the ledger needs.
type Store interface {
	CatalogStore
	ChannelStore
	AllocationStore
	PerformanceStore
}

// AdminStore is implemented by stores that can persist the administrative
// identity. The ledger detects it with a type assertion and then treats the
// stored value as the only source of truth, so every process sharing the
// store sees a transfer immediately.
type AdminStore interface {
	// GetAdmin returns "" when no admin has been persisted.
	GetAdmin(ctx context.Context) (Identity, error)

	// InitAdmin persists admin unless one is already stored and returns the
	// stored admin.
	InitAdmin(ctx context.Context, admin Identity) (Identity, error)

	// SwapAdmin replaces the stored admin with next only if it currently
	// equals expected. It reports whether the swap happened.
	SwapAdmin(ctx context.Context, expected, next Identity) (bool, error)
}

// SlotLocker serializes mutations of one slot across ledger instances that
// share a store. The in-process slot lock is always taken first, so a
// SlotLocker only arbitrates between processes.
type SlotLocker interface {
	// LockSlot returns ErrSlotBusy when the lock cannot be obtained in time.
	LockSlot(ctx context.Context, slot SlotKey) (unlock func(), err error)
}
