package features

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/cucumber/godog"
	"github.com/warp/inventory-ledger/inventory"
	"github.com/warp/inventory-ledger/inventory/store"
)

var errorCodes = map[string]error{
	"invalid_argument":          inventory.ErrInvalidArgument,
	"invalid_occupancy":         inventory.ErrInvalidOccupancy,
	"unauthorized":              inventory.ErrUnauthorized,
	"not_owner":                 inventory.ErrNotOwner,
	"not_found":                 inventory.ErrNotFound,
	"duplicate_key":             inventory.ErrDuplicateKey,
	"channel_inactive":          inventory.ErrChannelInactive,
	"capacity_exceeded":         inventory.ErrCapacityExceeded,
	"insufficient_availability": inventory.ErrInsufficientAvailability,
	"insufficient_booked":       inventory.ErrInsufficientBooked,
	"allocation_below_booked":   inventory.ErrAllocationBelowBooked,
}

type ledgerTestContext struct {
	ledger     *inventory.Ledger
	err        error
	comparison inventory.Comparison
}

func (c *ledgerTestContext) reset() {
	c.ledger = nil
	c.err = nil
	c.comparison = inventory.Comparison{}
}

// =============================================================================
// GIVEN / WHEN
// =============================================================================

func (c *ledgerTestContext) theAdminIs(admin string) error {
	c.ledger = inventory.New(store.NewMemory(), inventory.Identity(admin), inventory.Options{})
	return nil
}

func (c *ledgerTestContext) registersCategory(owner, category, property string, capacity int) error {
	_, c.err = c.ledger.Catalog.CreateRoomCategory(context.Background(), inventory.CreateRoomCategoryRequest{
		PropertyID:     inventory.PropertyID(property),
		RoomCategoryID: inventory.RoomCategoryID(category),
		Name:           category,
		TotalCapacity:  uint32(capacity),
		Caller:         inventory.Identity(owner),
	})
	return nil
}

func (c *ledgerTestContext) createsChannel(caller, channel string) error {
	_, c.err = c.ledger.Channels.CreateChannel(context.Background(), inventory.CreateChannelRequest{
		ChannelID: inventory.ChannelID(channel),
		Name:      channel,
		Caller:    inventory.Identity(caller),
	})
	return nil
}

func (c *ledgerTestContext) deactivatesChannel(caller, channel string) error {
	_, c.err = c.ledger.Channels.SetChannelActive(context.Background(), inventory.ChannelID(channel), false, inventory.Identity(caller))
	return nil
}

func (c *ledgerTestContext) allocates(caller string, amount int, category, property, channel string, date int) error {
	_, c.err = c.ledger.Allocations.Allocate(context.Background(), inventory.AllocateRequest{
		PropertyID:     inventory.PropertyID(property),
		RoomCategoryID: inventory.RoomCategoryID(category),
		ChannelID:      inventory.ChannelID(channel),
		Date:           inventory.Date(date),
		Amount:         uint32(amount),
		Caller:         inventory.Identity(caller),
	})
	return nil
}

func (c *ledgerTestContext) bookRequest(caller string, amount int, category, property, channel string, date int) inventory.BookRequest {
	return inventory.BookRequest{
		PropertyID:     inventory.PropertyID(property),
		RoomCategoryID: inventory.RoomCategoryID(category),
		ChannelID:      inventory.ChannelID(channel),
		Date:           inventory.Date(date),
		Amount:         uint32(amount),
		Caller:         inventory.Identity(caller),
	}
}

func (c *ledgerTestContext) books(caller string, amount int, category, property, channel string, date int) error {
	_, c.err = c.ledger.Allocations.Book(context.Background(), c.bookRequest(caller, amount, category, property, channel, date))
	return nil
}

func (c *ledgerTestContext) releases(caller string, amount int, category, property, channel string, date int) error {
	_, c.err = c.ledger.Allocations.ReleaseBooking(context.Background(), c.bookRequest(caller, amount, category, property, channel, date))
	return nil
}

func (c *ledgerTestContext) recordsRevenue(caller, property string, date, occupancy, adr int) error {
	_, c.err = c.ledger.Performance.RecordRevenue(context.Background(), inventory.RecordRevenueRequest{
		PropertyID:          inventory.PropertyID(property),
		Date:                inventory.Date(date),
		RoomRevenue:         uint64(adr) * 8,
		OccupancyPercentage: uint32(occupancy),
		ADR:                 uint64(adr),
		Caller:              inventory.Identity(caller),
	})
	return nil
}

func (c *ledgerTestContext) createsCompetitorSet(caller, set string) error {
	_, c.err = c.ledger.Performance.CreateCompetitorSet(context.Background(), inventory.CreateCompetitorSetRequest{
		SetID:  inventory.SetID(set),
		Name:   set,
		Caller: inventory.Identity(caller),
	})
	return nil
}

func (c *ledgerTestContext) addsToCompetitorSet(caller, property, set string) error {
	c.err = c.ledger.Performance.AddPropertyToSet(context.Background(), inventory.SetID(set), inventory.PropertyID(property), inventory.Identity(caller))
	return nil
}

func (c *ledgerTestContext) publishesAggregate(caller, set string, date, occupancy, adr, revpar int) error {
	_, c.err = c.ledger.Performance.UpdateCompetitorAggregate(context.Background(), inventory.CompetitorAggregateRequest{
		SetID:            inventory.SetID(set),
		Date:             inventory.Date(date),
		AverageOccupancy: uint32(occupancy),
		AverageADR:       uint64(adr),
		AverageRevPAR:    uint64(revpar),
		PropertyCount:    1,
		Caller:           inventory.Identity(caller),
	})
	return nil
}

func (c *ledgerTestContext) performanceIsCompared(property, set string, date int) error {
	c.comparison, c.err = c.ledger.Performance.ComparePerformance(context.Background(), inventory.PropertyID(property), inventory.SetID(set), inventory.Date(date))
	return nil
}

func (c *ledgerTestContext) transfersAdmin(caller, newAdmin string) error {
	c.err = c.ledger.TransferAdmin(context.Background(), inventory.Identity(newAdmin), inventory.Identity(caller))
	return nil
}

// =============================================================================
// THEN
// =============================================================================

func (c *ledgerTestContext) theOperationSucceeds() error {
	if c.err != nil {
		return fmt.Errorf("expected success but got error: %v", c.err)
	}
	return nil
}

func (c *ledgerTestContext) theOperationFailsWith(code string) error {
	want, ok := errorCodes[code]
	if !ok {
		return fmt.Errorf("unknown error code %q", code)
	}
	if c.err == nil {
		return fmt.Errorf("expected %s but the operation succeeded", code)
	}
	if !errors.Is(c.err, want) {
		return fmt.Errorf("expected %s, got %v", code, c.err)
	}
	return nil
}

func (c *ledgerTestContext) hasUnallocatedRooms(category, property string, date, want int) error {
	summary, err := c.ledger.Allocations.CategoryAvailability(context.Background(), inventory.SlotKey{
		PropertyID:     inventory.PropertyID(property),
		RoomCategoryID: inventory.RoomCategoryID(category),
		Date:           inventory.Date(date),
	})
	if err != nil {
		return err
	}
	if summary.Unallocated != uint64(want) {
		return fmt.Errorf("expected %d unallocated rooms, got %d", want, summary.Unallocated)
	}
	return nil
}

func (c *ledgerTestContext) hasRoomsAvailable(channel string, want int, category, property string, date int) error {
	available, err := c.ledger.Allocations.GetAvailable(context.Background(), inventory.AllocationKey{
		PropertyID:     inventory.PropertyID(property),
		RoomCategoryID: inventory.RoomCategoryID(category),
		ChannelID:      inventory.ChannelID(channel),
		Date:           inventory.Date(date),
	})
	if err != nil {
		return err
	}
	if available != uint32(want) {
		return fmt.Errorf("expected %d rooms available on %s, got %d", want, channel, available)
	}
	return nil
}

func (c *ledgerTestContext) indexIs(name string, got uint64) func(int) error {
	return func(want int) error {
		if got != uint64(want) {
			return fmt.Errorf("expected %s index %d, got %d", name, want, got)
		}
		return nil
	}
}

func (c *ledgerTestContext) theOccupancyIndexIs(want int) error {
	return c.indexIs("occupancy", c.comparison.OccupancyIndex)(want)
}

func (c *ledgerTestContext) theADRIndexIs(want int) error {
	return c.indexIs("ADR", c.comparison.ADRIndex)(want)
}

func (c *ledgerTestContext) theRevPARIndexIs(want int) error {
	return c.indexIs("RevPAR", c.comparison.RevPARIndex)(want)
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	tc := &ledgerTestContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		tc.reset()
		return ctx, nil
	})

	// Given / When steps
	ctx.Step(`^the admin is "([^"]*)"$`, tc.theAdminIs)
	ctx.Step(`^"([^"]*)" registers category "([^"]*)" at "([^"]*)" with capacity (\d+)$`, tc.registersCategory)
	ctx.Step(`^"([^"]*)" creates channel "([^"]*)"$`, tc.createsChannel)
	ctx.Step(`^"([^"]*)" deactivates channel "([^"]*)"$`, tc.deactivatesChannel)
	ctx.Step(`^"([^"]*)" allocates (\d+) rooms of "([^"]*)" at "([^"]*)" to "([^"]*)" on (\d+)$`, tc.allocates)
	ctx.Step(`^"([^"]*)" books (\d+) rooms of "([^"]*)" at "([^"]*)" through "([^"]*)" on (\d+)$`, tc.books)
	ctx.Step(`^"([^"]*)" releases (\d+) rooms of "([^"]*)" at "([^"]*)" through "([^"]*)" on (\d+)$`, tc.releases)
	ctx.Step(`^"([^"]*)" records revenue for "([^"]*)" on (\d+) with occupancy (\d+) and ADR (\d+)$`, tc.recordsRevenue)
	ctx.Step(`^"([^"]*)" creates competitor set "([^"]*)"$`, tc.createsCompetitorSet)
	ctx.Step(`^"([^"]*)" adds "([^"]*)" to competitor set "([^"]*)"$`, tc.addsToCompetitorSet)
	ctx.Step(`^"([^"]*)" publishes an aggregate for "([^"]*)" on (\d+) with occupancy (\d+), ADR (\d+) and RevPAR (\d+)$`, tc.publishesAggregate)
	ctx.Step(`^the performance of "([^"]*)" against "([^"]*)" on (\d+) is compared$`, tc.performanceIsCompared)
	ctx.Step(`^"([^"]*)" transfers admin authority to "([^"]*)"$`, tc.transfersAdmin)

	// Then steps
	ctx.Step(`^the operation succeeds$`, tc.theOperationSucceeds)
	ctx.Step(`^the operation fails with "([^"]*)"$`, tc.theOperationFailsWith)
	ctx.Step(`^"([^"]*)" at "([^"]*)" on (\d+) has (\d+) unallocated rooms$`, tc.hasUnallocatedRooms)
	ctx.Step(`^"([^"]*)" has (\d+) rooms available for "([^"]*)" at "([^"]*)" on (\d+)$`, tc.hasRoomsAvailable)
	ctx.Step(`^the occupancy index is (\d+)$`, tc.theOccupancyIndexIs)
	ctx.Step(`^the ADR index is (\d+)$`, tc.theADRIndexIs)
	ctx.Step(`^the RevPAR index is (\d+)$`, tc.theRevPARIndexIs)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"ledger.feature"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
