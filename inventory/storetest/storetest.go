// Package storetest is a conformance suite every inventory.Store
// implementation must pass. Each store package runs it from its own tests.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/inventory-ledger/inventory"
)

// Factory returns a fresh, empty store for one subtest.
type Factory func(t *testing.T) inventory.Store

var t0 = time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)

// Run executes the whole suite against stores produced by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("RoomCategories", func(t *testing.T) { testRoomCategories(t, newStore(t)) })
	t.Run("Channels", func(t *testing.T) { testChannels(t, newStore(t)) })
	t.Run("Allocations", func(t *testing.T) { testAllocations(t, newStore(t)) })
	t.Run("Revenue", func(t *testing.T) { testRevenue(t, newStore(t)) })
	t.Run("CompetitorSets", func(t *testing.T) { testCompetitorSets(t, newStore(t)) })
	t.Run("Admin", func(t *testing.T) { testAdmin(t, newStore(t)) })
	t.Run("Ledger", func(t *testing.T) { testLedger(t, newStore(t)) })
}

func testRoomCategories(t *testing.T, s inventory.Store) {
	ctx := context.Background()
	c := inventory.RoomCategory{
		PropertyID:     "prop1",
		RoomCategoryID: "standard",
		Name:           "Standard Double",
		TotalCapacity:  10,
		Owner:          "owner-a",
		CreatedAt:      t0,
	}

	got, err := s.GetRoomCategory(ctx, "prop1", "standard")
	require.NoError(t, err)
	assert.Nil(t, got, "absent category must be (nil, nil)")

	require.NoError(t, s.InsertRoomCategory(ctx, c))

	dup := c
	dup.TotalCapacity = 99
	dup.Owner = "owner-b"
	assert.ErrorIs(t, s.InsertRoomCategory(ctx, dup), inventory.ErrDuplicateKey)

	got, err = s.GetRoomCategory(ctx, "prop1", "standard")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, c, *got, "duplicate insert must not overwrite")

	// Same category id under another property is a different key
	other := c
	other.PropertyID = "prop2"
	require.NoError(t, s.InsertRoomCategory(ctx, other))
}

func testChannels(t *testing.T, s inventory.Store) {
	ctx := context.Background()
	direct := inventory.Channel{ID: "direct", Name: "Direct", Active: true, CreatedAt: t0}
	ota := inventory.Channel{ID: "ota", Name: "Online Agency", Active: true, CreatedAt: t0}

	require.NoError(t, s.InsertChannel(ctx, ota))
	require.NoError(t, s.InsertChannel(ctx, direct))
	assert.ErrorIs(t, s.InsertChannel(ctx, direct), inventory.ErrDuplicateKey)

	got, err := s.GetChannel(ctx, "direct")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, direct, *got)

	missing, err := s.GetChannel(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	list, err := s.ListChannels(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, inventory.ChannelID("direct"), list[0].ID)
	assert.Equal(t, inventory.ChannelID("ota"), list[1].ID)

	require.NoError(t, s.SetChannelActive(ctx, "direct", false))
	require.NoError(t, s.SetChannelOperator(ctx, "direct", "op-1"))
	got, err = s.GetChannel(ctx, "direct")
	require.NoError(t, err)
	assert.False(t, got.Active)
	assert.Equal(t, inventory.Identity("op-1"), got.Operator)
	assert.Equal(t, "Direct", got.Name, "field updates keep the rest of the record")

	assert.ErrorIs(t, s.SetChannelActive(ctx, "nope", true), inventory.ErrNotFound)
	assert.ErrorIs(t, s.SetChannelOperator(ctx, "nope", "op-1"), inventory.ErrNotFound)
}

func testAllocations(t *testing.T, s inventory.Store) {
	ctx := context.Background()
	key := inventory.AllocationKey{PropertyID: "prop1", RoomCategoryID: "standard", ChannelID: "direct", Date: 20250310}

	got, err := s.GetAllocation(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, got)

	list, err := s.ListAllocations(ctx, key.Slot())
	require.NoError(t, err)
	assert.Empty(t, list)

	rec := inventory.AllocationRecord{AllocationKey: key, Allocated: 5, Booked: 2, UpdatedAt: t0}
	require.NoError(t, s.PutAllocation(ctx, rec))

	otaKey := key
	otaKey.ChannelID = "ota"
	require.NoError(t, s.PutAllocation(ctx, inventory.AllocationRecord{AllocationKey: otaKey, Allocated: 3, UpdatedAt: t0}))

	// Different date, same channels: must not show up in the slot listing
	nextDay := key
	nextDay.Date = 20250311
	require.NoError(t, s.PutAllocation(ctx, inventory.AllocationRecord{AllocationKey: nextDay, Allocated: 9, UpdatedAt: t0}))

	got, err = s.GetAllocation(ctx, key)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, rec, *got)

	list, err = s.ListAllocations(ctx, key.Slot())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, inventory.ChannelID("direct"), list[0].ChannelID)
	assert.Equal(t, inventory.ChannelID("ota"), list[1].ChannelID)
	assert.Equal(t, uint32(3), list[1].Allocated)

	rec.Allocated = 7
	rec.Booked = 0
	require.NoError(t, s.PutAllocation(ctx, rec))
	got, err = s.GetAllocation(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, uint32(7), got.Allocated)
	assert.Equal(t, uint32(0), got.Booked)
}

func testRevenue(t *testing.T, s inventory.Store) {
	ctx := context.Background()

	missing, err := s.GetRevenue(ctx, "prop1", 20250310)
	require.NoError(t, err)
	assert.Nil(t, missing)

	fact := inventory.RevenueFact{
		PropertyID:          "prop1",
		Date:                20250310,
		RoomRevenue:         1_000_000,
		OtherRevenue:        250,
		OccupancyPercentage: 80,
		AverageDailyRate:    250,
		RevPAR:              200,
		RecordedBy:          "owner-a",
		RecordedAt:          t0,
	}
	require.NoError(t, s.PutRevenue(ctx, fact))

	// Currency values use the full uint64 range
	fact.RoomRevenue = ^uint64(0)
	require.NoError(t, s.PutRevenue(ctx, fact))

	got, err := s.GetRevenue(ctx, "prop1", 20250310)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, fact, *got)
}

func testCompetitorSets(t *testing.T, s inventory.Store) {
	ctx := context.Background()
	set := inventory.CompetitorSet{ID: "downtown", Name: "Downtown", Owner: "owner-a", CreatedAt: t0}

	require.NoError(t, s.InsertCompetitorSet(ctx, set))
	assert.ErrorIs(t, s.InsertCompetitorSet(ctx, set), inventory.ErrDuplicateKey)

	got, err := s.GetCompetitorSet(ctx, "downtown")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, set, *got)

	m, err := s.GetMembership(ctx, "downtown", "prop2")
	require.NoError(t, err)
	assert.Nil(t, m)

	require.NoError(t, s.PutMembership(ctx, inventory.Membership{SetID: "downtown", PropertyID: "prop3", IsMember: true, UpdatedAt: t0}))
	require.NoError(t, s.PutMembership(ctx, inventory.Membership{SetID: "downtown", PropertyID: "prop2", IsMember: true, UpdatedAt: t0}))
	require.NoError(t, s.PutMembership(ctx, inventory.Membership{SetID: "downtown", PropertyID: "prop2", IsMember: false, UpdatedAt: t0}))

	m, err = s.GetMembership(ctx, "downtown", "prop2")
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.False(t, m.IsMember)

	members, err := s.ListMemberships(ctx, "downtown")
	require.NoError(t, err)
	require.Len(t, members, 2, "removed members keep their row")
	assert.Equal(t, inventory.PropertyID("prop2"), members[0].PropertyID)
	assert.Equal(t, inventory.PropertyID("prop3"), members[1].PropertyID)

	agg := inventory.CompetitorAggregate{
		SetID:            "downtown",
		Date:             20250310,
		AverageOccupancy: 80,
		AverageADR:       250,
		AverageRevPAR:    200,
		PropertyCount:    4,
		UpdatedAt:        t0,
	}
	missing, err := s.GetCompetitorAggregate(ctx, "downtown", 20250310)
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, s.PutCompetitorAggregate(ctx, agg))
	gotAgg, err := s.GetCompetitorAggregate(ctx, "downtown", 20250310)
	require.NoError(t, err)
	require.NotNil(t, gotAgg)
	assert.Equal(t, agg, *gotAgg)
}

func testAdmin(t *testing.T, s inventory.Store) {
	as, ok := s.(inventory.AdminStore)
	if !ok {
		t.Skip("store does not persist the admin")
	}
	ctx := context.Background()

	admin, err := as.GetAdmin(ctx)
	require.NoError(t, err)
	assert.Empty(t, admin)

	// Nothing stored: a swap has nothing to match
	swapped, err := as.SwapAdmin(ctx, "", "admin-1")
	require.NoError(t, err)
	assert.False(t, swapped)

	// First init wins, later inits return the stored admin
	admin, err = as.InitAdmin(ctx, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, inventory.Identity("admin-1"), admin)
	admin, err = as.InitAdmin(ctx, "other")
	require.NoError(t, err)
	assert.Equal(t, inventory.Identity("admin-1"), admin)

	// Swap only from the current admin
	swapped, err = as.SwapAdmin(ctx, "other", "admin-2")
	require.NoError(t, err)
	assert.False(t, swapped)
	swapped, err = as.SwapAdmin(ctx, "admin-1", "admin-2")
	require.NoError(t, err)
	assert.True(t, swapped)
	swapped, err = as.SwapAdmin(ctx, "admin-1", "admin-3")
	require.NoError(t, err)
	assert.False(t, swapped)

	admin, err = as.GetAdmin(ctx)
	require.NoError(t, err)
	assert.Equal(t, inventory.Identity("admin-2"), admin)
}

// testLedger drives the full allocation flow through the store.
func testLedger(t *testing.T, s inventory.Store) {
	ctx := context.Background()
	l := inventory.New(s, "admin", inventory.Options{Clock: func() time.Time { return t0 }})

	_, err := l.Catalog.CreateRoomCategory(ctx, inventory.CreateRoomCategoryRequest{
		PropertyID: "prop1", RoomCategoryID: "standard", TotalCapacity: 10, Caller: "owner-a",
	})
	require.NoError(t, err)
	for _, id := range []inventory.ChannelID{"direct", "ota"} {
		_, err := l.Channels.CreateChannel(ctx, inventory.CreateChannelRequest{ChannelID: id, Caller: "admin"})
		require.NoError(t, err)
	}

	alloc := func(ch inventory.ChannelID, n uint32) error {
		_, err := l.Allocations.Allocate(ctx, inventory.AllocateRequest{
			PropertyID: "prop1", RoomCategoryID: "standard", ChannelID: ch, Date: 20250310, Amount: n, Caller: "owner-a",
		})
		return err
	}
	require.NoError(t, alloc("direct", 5))
	require.NoError(t, alloc("ota", 5))
	assert.ErrorIs(t, alloc("ota", 6), inventory.ErrCapacityExceeded)

	_, err = l.Allocations.Book(ctx, inventory.BookRequest{
		PropertyID: "prop1", RoomCategoryID: "standard", ChannelID: "direct", Date: 20250310, Amount: 3, Caller: "guest",
	})
	require.NoError(t, err)

	summary, err := l.Allocations.CategoryAvailability(ctx, inventory.SlotKey{PropertyID: "prop1", RoomCategoryID: "standard", Date: 20250310})
	require.NoError(t, err)
	assert.Equal(t, uint64(10), summary.Allocated)
	assert.Equal(t, uint64(3), summary.Booked)
	assert.Equal(t, uint64(0), summary.Unallocated)
}
