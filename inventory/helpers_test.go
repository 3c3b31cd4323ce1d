package inventory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/warp/inventory-ledger/inventory"
	"github.com/warp/inventory-ledger/inventory/store"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

const (
	admin  inventory.Identity = "admin"
	ownerA inventory.Identity = "owner-a"
	ownerB inventory.Identity = "owner-b"
	guest  inventory.Identity = "guest"

	march10 inventory.Date = 20250310
)

var fixedNow = time.Date(2025, time.March, 1, 9, 0, 0, 0, time.UTC)

func newTestLedger(t *testing.T, opts inventory.Options) *inventory.Ledger {
	t.Helper()
	if opts.Clock == nil {
		opts.Clock = func() time.Time { return fixedNow }
	}
	return inventory.New(store.NewMemory(), admin, opts)
}

// seed creates prop1/standard (capacity 10, owned by ownerA) and the active
// channels direct and ota.
func seed(t *testing.T, l *inventory.Ledger) {
	t.Helper()
	ctx := context.Background()

	_, err := l.Catalog.CreateRoomCategory(ctx, inventory.CreateRoomCategoryRequest{
		PropertyID:     "prop1",
		RoomCategoryID: "standard",
		Name:           "Standard Double",
		TotalCapacity:  10,
		Caller:         ownerA,
	})
	require.NoError(t, err)

	for _, id := range []inventory.ChannelID{"direct", "ota"} {
		_, err := l.Channels.CreateChannel(ctx, inventory.CreateChannelRequest{ChannelID: id, Name: string(id), Caller: admin})
		require.NoError(t, err)
	}
}

func key(channel inventory.ChannelID) inventory.AllocationKey {
	return inventory.AllocationKey{PropertyID: "prop1", RoomCategoryID: "standard", ChannelID: channel, Date: march10}
}

func slot() inventory.SlotKey {
	return inventory.SlotKey{PropertyID: "prop1", RoomCategoryID: "standard", Date: march10}
}

func allocate(l *inventory.Ledger, channel inventory.ChannelID, amount uint32, caller inventory.Identity) (inventory.AllocationRecord, error) {
	return l.Allocations.Allocate(context.Background(), inventory.AllocateRequest{
		PropertyID:     "prop1",
		RoomCategoryID: "standard",
		ChannelID:      channel,
		Date:           march10,
		Amount:         amount,
		Caller:         caller,
	})
}

func book(l *inventory.Ledger, channel inventory.ChannelID, amount uint32, caller inventory.Identity) (inventory.AllocationRecord, error) {
	return l.Allocations.Book(context.Background(), inventory.BookRequest{
		PropertyID:     "prop1",
		RoomCategoryID: "standard",
		ChannelID:      channel,
		Date:           march10,
		Amount:         amount,
		Caller:         caller,
	})
}

func release(l *inventory.Ledger, channel inventory.ChannelID, amount uint32, caller inventory.Identity) (inventory.AllocationRecord, error) {
	return l.Allocations.ReleaseBooking(context.Background(), inventory.BookRequest{
		PropertyID:     "prop1",
		RoomCategoryID: "standard",
		ChannelID:      channel,
		Date:           march10,
		Amount:         amount,
		Caller:         caller,
	})
}
