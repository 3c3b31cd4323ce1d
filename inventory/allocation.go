/*
allocation.go - Per-date, per-channel allocation ledger

PURPOSE:
  Commits room-category capacity to channels date by date and records
  bookings against those commitments. This is the consistency-critical part
  of the system.

CRITICAL INVARIANTS:
  1. NO OVERSELL: for every slot (property, category, date) the sum of
     Allocated across all channels never exceeds the category's capacity.
  2. NO OVERBOOK: Booked <= Allocated for every record.

ATOMICITY:
  Allocate, Book and ReleaseBooking hold the slot lock for the whole
  read-validate-write sequence. The lock is per slot rather than per channel
  so the cross-channel sum cannot change between the check and the write.

VALIDATION ORDER (Allocate):
  arguments -> category exists -> caller owns category -> channel exists
  -> channel active -> capacity -> reallocation policy
  Each step has a distinct error so failures are deterministic.

STATE MACHINE (per record):
  absent --Allocate--> allocated --Book--> partially booked --Book--> fully booked
  Allocate on an existing record re-sets the commitment (see ReallocationPolicy).
  ReleaseBooking is the only transition that lowers Booked.

EXAMPLE:
  rec, err := ledger.Allocations.Allocate(ctx, inventory.AllocateRequest{
      PropertyID: "prop1", RoomCategoryID: "standard", ChannelID: "direct",
      Date: 20250310, Amount: 5, Caller: "owner-a",
  })
  var capErr *inventory.CapacityExceededError
  if errors.As(err, &capErr) { ... }
*/
package inventory

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// AllocateRequest commits Amount units of a category to a channel for a date.
type AllocateRequest struct {
	PropertyID     PropertyID     `validate:"required,max=32,printascii"`
	RoomCategoryID RoomCategoryID `validate:"required,max=32,printascii"`
	ChannelID      ChannelID      `validate:"required,max=32,printascii"`
	Date           Date
	Amount         uint32
	Caller         Identity `validate:"required,max=256"`
}

func (r AllocateRequest) key() AllocationKey {
	return AllocationKey{PropertyID: r.PropertyID, RoomCategoryID: r.RoomCategoryID, ChannelID: r.ChannelID, Date: r.Date}
}

// BookRequest consumes (Book) or returns (ReleaseBooking) allocated units.
type BookRequest struct {
	PropertyID     PropertyID     `validate:"required,max=32,printascii"`
	RoomCategoryID RoomCategoryID `validate:"required,max=32,printascii"`
	ChannelID      ChannelID      `validate:"required,max=32,printascii"`
	Date           Date
	Amount         uint32   `validate:"gt=0"`
	Caller         Identity `validate:"required,max=256"`
}

func (r BookRequest) key() AllocationKey {
	return AllocationKey{PropertyID: r.PropertyID, RoomCategoryID: r.RoomCategoryID, ChannelID: r.ChannelID, Date: r.Date}
}

// Allocations is the allocation ledger.
type Allocations struct {
	store    AllocationStore
	catalog  *Catalog
	channels *Channels
	locks    *slotLocks
	locker   SlotLocker

	reallocation    ReallocationPolicy
	requireOperator bool

	log *zap.Logger
	now func() time.Time
}

func NewAllocations(store AllocationStore, catalog *Catalog, channels *Channels, opts Options) *Allocations {
	opts = opts.withDefaults()
	return &Allocations{
		store:           store,
		catalog:         catalog,
		channels:        channels,
		locks:           newSlotLocks(),
		locker:          opts.Locker,
		reallocation:    opts.Reallocation,
		requireOperator: opts.RequireChannelOperator,
		log:             opts.Logger.Named("allocations"),
		now:             opts.Clock,
	}
}

// =============================================================================
// MUTATIONS
// =============================================================================

// Allocate writes the channel's commitment for the date.
func (a *Allocations) Allocate(ctx context.Context, req AllocateRequest) (AllocationRecord, error) {
	if err := validateRequest(req); err != nil {
		return AllocationRecord{}, err
	}
	key := req.key()

	unlock, err := a.acquire(ctx, key.Slot())
	if err != nil {
		return AllocationRecord{}, err
	}
	defer unlock()

	cat, err := a.catalog.GetRoomCategory(ctx, req.PropertyID, req.RoomCategoryID)
	if err != nil {
		return AllocationRecord{}, err
	}
	if cat.Owner != req.Caller {
		return AllocationRecord{}, fmt.Errorf("allocate %s: %w", key, ErrUnauthorized)
	}
	ch, err := a.channels.GetChannel(ctx, req.ChannelID)
	if err != nil {
		return AllocationRecord{}, err
	}
	if !ch.Active {
		return AllocationRecord{}, fmt.Errorf("allocate %s: %w", key, ErrChannelInactive)
	}

	records, err := a.store.ListAllocations(ctx, key.Slot())
	if err != nil {
		return AllocationRecord{}, fmt.Errorf("list allocations: %w", err)
	}
	var (
		committed uint64
		existing  *AllocationRecord
	)
	for i := range records {
		if records[i].ChannelID == req.ChannelID {
			existing = &records[i]
			continue
		}
		committed += uint64(records[i].Allocated)
	}
	if committed+uint64(req.Amount) > uint64(cat.TotalCapacity) {
		a.log.Debug("allocation rejected",
			zap.Stringer("key", key),
			zap.Uint32("requested", req.Amount),
			zap.Uint64("committed", committed),
			zap.Uint32("total_capacity", cat.TotalCapacity),
		)
		return AllocationRecord{}, &CapacityExceededError{
			Slot:          key.Slot(),
			TotalCapacity: cat.TotalCapacity,
			Committed:     committed,
			Requested:     req.Amount,
		}
	}

	rec := AllocationRecord{
		AllocationKey: key,
		Allocated:     req.Amount,
		UpdatedAt:     a.now().UTC(),
	}
	if existing != nil && a.reallocation == ReallocPreserveBooked {
		if req.Amount < existing.Booked {
			return AllocationRecord{}, fmt.Errorf("allocate %s: %d below %d booked: %w",
				key, req.Amount, existing.Booked, ErrAllocationBelowBooked)
		}
		rec.Booked = existing.Booked
	}

	if err := a.store.PutAllocation(ctx, rec); err != nil {
		return AllocationRecord{}, fmt.Errorf("put allocation: %w", err)
	}

	a.log.Debug("allocated",
		zap.Stringer("key", key),
		zap.Uint32("allocated", rec.Allocated),
		zap.Uint32("booked", rec.Booked),
	)
	return rec, nil
}

// Book consumes allocated units. Allocated is unchanged.
func (a *Allocations) Book(ctx context.Context, req BookRequest) (AllocationRecord, error) {
	if err := validateRequest(req); err != nil {
		return AllocationRecord{}, err
	}
	key := req.key()

	unlock, err := a.acquire(ctx, key.Slot())
	if err != nil {
		return AllocationRecord{}, err
	}
	defer unlock()

	if a.requireOperator {
		if err := a.authorizeOperator(ctx, key, req.Caller); err != nil {
			return AllocationRecord{}, err
		}
	}

	rec, err := a.load(ctx, key)
	if err != nil {
		return AllocationRecord{}, err
	}
	if req.Amount > rec.Available() {
		return AllocationRecord{}, &InsufficientAvailabilityError{
			Key:       key,
			Available: rec.Available(),
			Requested: req.Amount,
		}
	}

	rec.Booked += req.Amount
	rec.UpdatedAt = a.now().UTC()
	if err := a.store.PutAllocation(ctx, rec); err != nil {
		return AllocationRecord{}, fmt.Errorf("put allocation: %w", err)
	}

	a.log.Debug("booked",
		zap.Stringer("key", key),
		zap.Uint32("amount", req.Amount),
		zap.Uint32("available", rec.Available()),
	)
	return rec, nil
}

// ReleaseBooking returns booked units to the channel's allocation. The caller
// must own the category or be the channel's assigned operator.
func (a *Allocations) ReleaseBooking(ctx context.Context, req BookRequest) (AllocationRecord, error) {
	if err := validateRequest(req); err != nil {
		return AllocationRecord{}, err
	}
	key := req.key()

	unlock, err := a.acquire(ctx, key.Slot())
	if err != nil {
		return AllocationRecord{}, err
	}
	defer unlock()

	if err := a.authorizeRelease(ctx, key, req.Caller); err != nil {
		return AllocationRecord{}, err
	}
	rec, err := a.load(ctx, key)
	if err != nil {
		return AllocationRecord{}, err
	}
	if req.Amount > rec.Booked {
		return AllocationRecord{}, fmt.Errorf("release %d from %s with %d booked: %w",
			req.Amount, key, rec.Booked, ErrInsufficientBooked)
	}

	rec.Booked -= req.Amount
	rec.UpdatedAt = a.now().UTC()
	if err := a.store.PutAllocation(ctx, rec); err != nil {
		return AllocationRecord{}, fmt.Errorf("put allocation: %w", err)
	}

	a.log.Debug("booking released",
		zap.Stringer("key", key),
		zap.Uint32("amount", req.Amount),
		zap.Uint32("available", rec.Available()),
	)
	return rec, nil
}

// =============================================================================
// QUERIES
// =============================================================================

// GetAvailable returns Allocated - Booked, or 0 when no record exists.
func (a *Allocations) GetAvailable(ctx context.Context, key AllocationKey) (uint32, error) {
	if err := validateKey(key); err != nil {
		return 0, err
	}
	rec, err := a.store.GetAllocation(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("get allocation: %w", err)
	}
	if rec == nil {
		return 0, nil
	}
	return rec.Available(), nil
}

// GetAllocation returns the record or ErrAllocationNotFound.
func (a *Allocations) GetAllocation(ctx context.Context, key AllocationKey) (AllocationRecord, error) {
	if err := validateKey(key); err != nil {
		return AllocationRecord{}, err
	}
	return a.load(ctx, key)
}

// CategoryAvailability projects a slot across all channels.
func (a *Allocations) CategoryAvailability(ctx context.Context, slot SlotKey) (SlotSummary, error) {
	if err := validateVar("PropertyID", slot.PropertyID, ruleID); err != nil {
		return SlotSummary{}, err
	}
	if err := validateVar("RoomCategoryID", slot.RoomCategoryID, ruleID); err != nil {
		return SlotSummary{}, err
	}

	unlock, err := a.acquire(ctx, slot)
	if err != nil {
		return SlotSummary{}, err
	}
	defer unlock()

	cat, err := a.catalog.GetRoomCategory(ctx, slot.PropertyID, slot.RoomCategoryID)
	if err != nil {
		return SlotSummary{}, err
	}
	records, err := a.store.ListAllocations(ctx, slot)
	if err != nil {
		return SlotSummary{}, fmt.Errorf("list allocations: %w", err)
	}

	summary := SlotSummary{
		SlotKey:       slot,
		TotalCapacity: cat.TotalCapacity,
		Channels:      records,
	}
	for _, r := range records {
		summary.Allocated += uint64(r.Allocated)
		summary.Booked += uint64(r.Booked)
	}
	if summary.Allocated < uint64(cat.TotalCapacity) {
		summary.Unallocated = uint64(cat.TotalCapacity) - summary.Allocated
	}
	return summary, nil
}

// =============================================================================
// HELPERS
// =============================================================================

// acquire takes the in-process slot lock and, if configured, the distributed
// one.
func (a *Allocations) acquire(ctx context.Context, slot SlotKey) (func(), error) {
	unlock := a.locks.lock(slot)
	if a.locker == nil {
		return unlock, nil
	}
	release, err := a.locker.LockSlot(ctx, slot)
	if err != nil {
		unlock()
		return nil, fmt.Errorf("lock %s: %w", slot, err)
	}
	return func() {
		release()
		unlock()
	}, nil
}

func (a *Allocations) load(ctx context.Context, key AllocationKey) (AllocationRecord, error) {
	rec, err := a.store.GetAllocation(ctx, key)
	if err != nil {
		return AllocationRecord{}, fmt.Errorf("get allocation: %w", err)
	}
	if rec == nil {
		return AllocationRecord{}, ErrAllocationNotFound
	}
	return *rec, nil
}

// authorizeOperator enforces channel-identity binding for bookings.
func (a *Allocations) authorizeOperator(ctx context.Context, key AllocationKey, caller Identity) error {
	ch, err := a.channels.GetChannel(ctx, key.ChannelID)
	if IsNotFound(err) {
		// No channel means no allocation can exist for it.
		return ErrAllocationNotFound
	}
	if err != nil {
		return err
	}
	if ch.Operator == "" || ch.Operator != caller {
		return fmt.Errorf("book %s as %s: %w", key, caller, ErrUnauthorized)
	}
	return nil
}

func (a *Allocations) authorizeRelease(ctx context.Context, key AllocationKey, caller Identity) error {
	cat, err := a.catalog.GetRoomCategory(ctx, key.PropertyID, key.RoomCategoryID)
	if err != nil {
		return err
	}
	if cat.Owner == caller {
		return nil
	}
	ch, err := a.channels.GetChannel(ctx, key.ChannelID)
	if err != nil {
		return err
	}
	if ch.Operator != "" && ch.Operator == caller {
		return nil
	}
	return fmt.Errorf("release %s as %s: %w", key, caller, ErrUnauthorized)
}

func validateKey(key AllocationKey) error {
	if err := validateVar("PropertyID", key.PropertyID, ruleID); err != nil {
		return err
	}
	if err := validateVar("RoomCategoryID", key.RoomCategoryID, ruleID); err != nil {
		return err
	}
	return validateVar("ChannelID", key.ChannelID, ruleID)
}
