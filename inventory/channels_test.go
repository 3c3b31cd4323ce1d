package inventory_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/inventory-ledger/inventory"
)

func TestCreateChannel_AdminOnly(t *testing.T) {
	// GIVEN: admin is "admin"
	// WHEN: owner-a registers a channel
	// THEN: Unauthorized, and the channel does not exist

	ctx := context.Background()
	l := newTestLedger(t, inventory.Options{})

	_, err := l.Channels.CreateChannel(ctx, inventory.CreateChannelRequest{ChannelID: "direct", Caller: ownerA})
	assert.ErrorIs(t, err, inventory.ErrUnauthorized)

	_, err = l.Channels.GetChannel(ctx, "direct")
	assert.ErrorIs(t, err, inventory.ErrChannelNotFound)
}

func TestCreateChannel_ActiveOnCreation(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t, inventory.Options{})

	ch, err := l.Channels.CreateChannel(ctx, inventory.CreateChannelRequest{ChannelID: "direct", Name: "Direct", Caller: admin})
	require.NoError(t, err)
	assert.True(t, ch.Active)
	assert.Empty(t, ch.Operator)

	_, err = l.Channels.CreateChannel(ctx, inventory.CreateChannelRequest{ChannelID: "direct", Caller: admin})
	assert.ErrorIs(t, err, inventory.ErrDuplicateKey)
}

func TestCreateChannel_NameTooLong(t *testing.T) {
	// GIVEN: A channel name of 101 characters
	// WHEN: The admin registers the channel
	// THEN: InvalidArgument on Name, and 100 characters are accepted

	ctx := context.Background()
	l := newTestLedger(t, inventory.Options{})

	_, err := l.Channels.CreateChannel(ctx, inventory.CreateChannelRequest{ChannelID: "direct", Name: strings.Repeat("n", 101), Caller: admin})
	var invalid *inventory.InvalidArgumentError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "Name", invalid.Field)

	_, err = l.Channels.CreateChannel(ctx, inventory.CreateChannelRequest{ChannelID: "direct", Name: strings.Repeat("n", 100), Caller: admin})
	require.NoError(t, err)
}

func TestListChannels_SortedByID(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t, inventory.Options{})
	seed(t, l)

	list, err := l.Channels.ListChannels(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, inventory.ChannelID("direct"), list[0].ID)
	assert.Equal(t, inventory.ChannelID("ota"), list[1].ID)
}

func TestSetChannelActive(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t, inventory.Options{})
	seed(t, l)

	_, err := l.Channels.SetChannelActive(ctx, "ota", false, ownerA)
	assert.ErrorIs(t, err, inventory.ErrUnauthorized)

	ch, err := l.Channels.SetChannelActive(ctx, "ota", false, admin)
	require.NoError(t, err)
	assert.False(t, ch.Active)

	ch, err = l.Channels.SetChannelActive(ctx, "ota", true, admin)
	require.NoError(t, err)
	assert.True(t, ch.Active)

	_, err = l.Channels.SetChannelActive(ctx, "wholesale", false, admin)
	assert.ErrorIs(t, err, inventory.ErrChannelNotFound)
}

func TestAssignOperator(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t, inventory.Options{})
	seed(t, l)

	_, err := l.Channels.AssignOperator(ctx, "ota", "ota-bot", ownerA)
	assert.ErrorIs(t, err, inventory.ErrUnauthorized)

	ch, err := l.Channels.AssignOperator(ctx, "ota", "ota-bot", admin)
	require.NoError(t, err)
	assert.Equal(t, inventory.Identity("ota-bot"), ch.Operator)

	ch, err = l.Channels.AssignOperator(ctx, "ota", "", admin)
	require.NoError(t, err)
	assert.Empty(t, ch.Operator)

	_, err = l.Channels.AssignOperator(ctx, "wholesale", "bot", admin)
	assert.ErrorIs(t, err, inventory.ErrChannelNotFound)
}
