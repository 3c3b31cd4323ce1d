package inventory_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/inventory-ledger/inventory"
)

func TestCreateRoomCategory_CallerBecomesOwner(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t, inventory.Options{})

	cat, err := l.Catalog.CreateRoomCategory(ctx, inventory.CreateRoomCategoryRequest{
		PropertyID: "prop1", RoomCategoryID: "standard", Name: "Standard", TotalCapacity: 10, Caller: ownerA,
	})
	require.NoError(t, err)
	assert.Equal(t, ownerA, cat.Owner)
	assert.Equal(t, fixedNow, cat.CreatedAt)

	got, err := l.Catalog.GetRoomCategory(ctx, "prop1", "standard")
	require.NoError(t, err)
	assert.Equal(t, cat, got)
}

func TestCreateRoomCategory_DuplicateRejected(t *testing.T) {
	// GIVEN: prop1/standard exists with capacity 10, owned by owner-a
	// WHEN: owner-b registers the same pair with capacity 50
	// THEN: DuplicateKey, and the original owner and capacity are unchanged

	ctx := context.Background()
	l := newTestLedger(t, inventory.Options{})
	seed(t, l)

	_, err := l.Catalog.CreateRoomCategory(ctx, inventory.CreateRoomCategoryRequest{
		PropertyID: "prop1", RoomCategoryID: "standard", TotalCapacity: 50, Caller: ownerB,
	})
	assert.ErrorIs(t, err, inventory.ErrDuplicateKey)

	got, err := l.Catalog.GetRoomCategory(ctx, "prop1", "standard")
	require.NoError(t, err)
	assert.Equal(t, ownerA, got.Owner)
	assert.Equal(t, uint32(10), got.TotalCapacity)
}

func TestCreateRoomCategory_ZeroCapacityAllowed(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t, inventory.Options{})

	_, err := l.Catalog.CreateRoomCategory(ctx, inventory.CreateRoomCategoryRequest{
		PropertyID: "prop1", RoomCategoryID: "closed", TotalCapacity: 0, Caller: ownerA,
	})
	require.NoError(t, err)
}

func TestCreateRoomCategory_InvalidArguments(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t, inventory.Options{})

	tests := []struct {
		name  string
		req   inventory.CreateRoomCategoryRequest
		field string
	}{
		{
			name:  "empty property",
			req:   inventory.CreateRoomCategoryRequest{RoomCategoryID: "standard", Caller: ownerA},
			field: "PropertyID",
		},
		{
			name:  "category id too long",
			req:   inventory.CreateRoomCategoryRequest{PropertyID: "prop1", RoomCategoryID: inventory.RoomCategoryID(strings.Repeat("x", 33)), Caller: ownerA},
			field: "RoomCategoryID",
		},
		{
			name:  "name too long",
			req:   inventory.CreateRoomCategoryRequest{PropertyID: "prop1", RoomCategoryID: "standard", Name: strings.Repeat("n", 101), Caller: ownerA},
			field: "Name",
		},
		{
			name:  "missing caller",
			req:   inventory.CreateRoomCategoryRequest{PropertyID: "prop1", RoomCategoryID: "standard"},
			field: "Caller",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := l.Catalog.CreateRoomCategory(ctx, tt.req)
			require.ErrorIs(t, err, inventory.ErrInvalidArgument)

			var argErr *inventory.InvalidArgumentError
			require.True(t, errors.As(err, &argErr))
			assert.Equal(t, tt.field, argErr.Field)
		})
	}
}

func TestGetRoomCategory_NotFound(t *testing.T) {
	l := newTestLedger(t, inventory.Options{})

	_, err := l.Catalog.GetRoomCategory(context.Background(), "prop1", "suite")
	assert.ErrorIs(t, err, inventory.ErrRoomCategoryNotFound)
	assert.True(t, inventory.IsNotFound(err))
}
