/*
handlers_test.go - Unit tests for API handlers

Tests for:
- Status mapping of ledger errors
- X-Principal enforcement
- The allocate/book/release flow over HTTP
- Performance endpoints
- Rate limiting
*/
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/inventory-ledger/inventory"
	"github.com/warp/inventory-ledger/store/sqlite"
	"go.uber.org/zap"
)

const testAdmin = "admin"

func newTestServer(t *testing.T, opts RouterOptions) http.Handler {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	ledger := inventory.New(store, testAdmin, inventory.Options{})
	return NewRouter(NewHandler(ledger, store, nil), opts)
}

func do(t *testing.T, h http.Handler, method, path, principal string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if principal != "" {
		req.Header.Set(PrincipalHeader, principal)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// seedHTTP creates prop1/standard (capacity 10, owner-a) and channels direct, ota.
func seedHTTP(t *testing.T, h http.Handler) {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/api/categories", "owner-a", CreateRoomCategoryRequest{
		PropertyID: "prop1", RoomCategoryID: "standard", Name: "Standard", TotalCapacity: 10,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	for _, id := range []string{"direct", "ota"} {
		rec := do(t, h, http.MethodPost, "/api/channels", testAdmin, CreateChannelRequest{ChannelID: id, Name: id})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}
}

func allocation(channel string, amount uint32) AllocationRequest {
	return AllocationRequest{PropertyID: "prop1", RoomCategoryID: "standard", ChannelID: channel, Date: 20250310, Amount: amount}
}

// =============================================================================
// ERROR MAPPING
// =============================================================================

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{&inventory.InvalidArgumentError{Field: "PropertyID"}, http.StatusBadRequest, "invalid_argument"},
		{inventory.ErrInvalidOccupancy, http.StatusBadRequest, "invalid_occupancy"},
		{fmt.Errorf("x: %w", inventory.ErrUnauthorized), http.StatusForbidden, "unauthorized"},
		{inventory.ErrNotOwner, http.StatusForbidden, "not_owner"},
		{inventory.ErrChannelNotFound, http.StatusNotFound, "not_found"},
		{inventory.ErrDuplicateKey, http.StatusConflict, "duplicate_key"},
		{inventory.ErrChannelInactive, http.StatusUnprocessableEntity, "channel_inactive"},
		{&inventory.CapacityExceededError{}, http.StatusUnprocessableEntity, "capacity_exceeded"},
		{&inventory.InsufficientAvailabilityError{}, http.StatusUnprocessableEntity, "insufficient_availability"},
		{inventory.ErrInsufficientBooked, http.StatusUnprocessableEntity, "insufficient_booked"},
		{inventory.ErrAllocationBelowBooked, http.StatusUnprocessableEntity, "allocation_below_booked"},
		{inventory.ErrSlotBusy, http.StatusServiceUnavailable, "slot_busy"},
		{fmt.Errorf("disk on fire"), http.StatusInternalServerError, "internal"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			status, code := errorStatus(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, code)
		})
	}
}

// =============================================================================
// IDENTITY
// =============================================================================

func TestMutationsRequirePrincipal(t *testing.T) {
	h := newTestServer(t, RouterOptions{})

	rec := do(t, h, http.MethodPost, "/api/channels", "", CreateChannelRequest{ChannelID: "direct"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthenticated", decode[ErrorResponse](t, rec).Code)

	rec = do(t, h, http.MethodPost, "/api/channels", "owner-a", CreateChannelRequest{ChannelID: "direct"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/channels/direct", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// =============================================================================
// ALLOCATION FLOW
// =============================================================================

func TestAllocationFlow(t *testing.T) {
	// GIVEN: Capacity 10 shared by direct and ota
	// WHEN: direct gets 6, ota asks 5 then 4, and guests book on direct
	// THEN: 422 capacity_exceeded with details, then success; availability tracks bookings

	h := newTestServer(t, RouterOptions{})
	seedHTTP(t, h)

	rec := do(t, h, http.MethodPut, "/api/allocations", "owner-a", allocation("direct", 6))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodPut, "/api/allocations", "owner-a", allocation("ota", 5))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	errResp := decode[ErrorResponse](t, rec)
	assert.Equal(t, "capacity_exceeded", errResp.Code)
	details, ok := errResp.Details.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(6), details["committed"])

	rec = do(t, h, http.MethodPut, "/api/allocations", "owner-a", allocation("ota", 4))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/allocations/bookings", "guest", allocation("direct", 4))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint32(2), decode[AllocationDTO](t, rec).Available)

	rec = do(t, h, http.MethodPost, "/api/allocations/bookings", "guest", allocation("direct", 3))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "insufficient_availability", decode[ErrorResponse](t, rec).Code)

	rec = do(t, h, http.MethodPost, "/api/allocations/releases", "owner-a", allocation("direct", 1))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint32(3), decode[AllocationDTO](t, rec).Booked)

	rec = do(t, h, http.MethodGet, "/api/allocations/prop1/standard/direct/20250310", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[AllocationDTO](t, rec)
	assert.Equal(t, uint32(6), got.Allocated)
	assert.Equal(t, uint32(3), got.Available)

	rec = do(t, h, http.MethodGet, "/api/categories/prop1/standard/availability/20250310", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	summary := decode[SlotSummaryDTO](t, rec)
	assert.Equal(t, uint64(10), summary.Allocated)
	assert.Equal(t, uint64(0), summary.Unallocated)
	assert.Len(t, summary.Channels, 2)
}

func TestGetAvailable(t *testing.T) {
	// GIVEN: direct has 6 rooms allocated and 2 booked, ota has no allocation
	// WHEN: Availability is read for both channels
	// THEN: direct reports 4, ota reports 0 rather than 404

	h := newTestServer(t, RouterOptions{})
	seedHTTP(t, h)

	rec := do(t, h, http.MethodPut, "/api/allocations", "owner-a", allocation("direct", 6))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = do(t, h, http.MethodPost, "/api/allocations/bookings", "guest", allocation("direct", 2))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/api/allocations/prop1/standard/direct/20250310/available", "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decode[AvailabilityDTO](t, rec)
	assert.Equal(t, uint32(4), got.Available)
	assert.Equal(t, "direct", got.ChannelID)
	assert.Equal(t, uint32(20250310), got.Date)

	rec = do(t, h, http.MethodGet, "/api/allocations/prop1/standard/ota/20250310/available", "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, uint32(0), decode[AvailabilityDTO](t, rec).Available)

	rec = do(t, h, http.MethodGet, "/api/allocations/prop1/standard/ota/2025-03-10/available", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAllocate_InactiveChannel(t *testing.T) {
	h := newTestServer(t, RouterOptions{})
	seedHTTP(t, h)

	rec := do(t, h, http.MethodPut, "/api/channels/ota/status", testAdmin, SetChannelStatusRequest{Active: false})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[ChannelDTO](t, rec).Active)

	rec = do(t, h, http.MethodPut, "/api/allocations", "owner-a", allocation("ota", 1))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "channel_inactive", decode[ErrorResponse](t, rec).Code)
}

func TestBadRequests(t *testing.T) {
	h := newTestServer(t, RouterOptions{})
	seedHTTP(t, h)

	rec := do(t, h, http.MethodGet, "/api/allocations/prop1/standard/direct/tomorrow", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPut, "/api/allocations", bytes.NewBufferString(`{"amount": "ten"}`))
	req.Header.Set(PrincipalHeader, "owner-a")
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "invalid_json", decode[ErrorResponse](t, resp).Code)

	rec = do(t, h, http.MethodPut, "/api/allocations", "owner-a", allocation("", 1))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_argument", decode[ErrorResponse](t, rec).Code)

	rec = do(t, h, http.MethodPost, "/api/categories", "owner-b", CreateRoomCategoryRequest{
		PropertyID: "prop1", RoomCategoryID: "standard", TotalCapacity: 50,
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

// =============================================================================
// PERFORMANCE
// =============================================================================

func TestPerformanceFlow(t *testing.T) {
	// GIVEN: prop1 at ADR 250 / 80%, set averages ADR 200 / 80% / RevPAR 160
	// WHEN: Compared
	// THEN: Occupancy 100, ADR 125, RevPAR 125

	h := newTestServer(t, RouterOptions{})

	rec := do(t, h, http.MethodPut, "/api/revenue", "owner-a", RecordRevenueRequest{
		PropertyID: "prop1", Date: 20250310, RoomRevenue: 500000, OccupancyPercentage: 80, ADR: 250,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, uint64(200), decode[RevenueFactDTO](t, rec).RevPAR)

	rec = do(t, h, http.MethodPut, "/api/revenue", "owner-a", RecordRevenueRequest{
		PropertyID: "prop1", Date: 20250310, OccupancyPercentage: 101,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_occupancy", decode[ErrorResponse](t, rec).Code)

	rec = do(t, h, http.MethodPost, "/api/competitor-sets", "owner-a", CreateCompetitorSetRequest{SetID: "downtown"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, h, http.MethodPut, "/api/competitor-sets/downtown/members/prop2", "owner-b", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "not_owner", decode[ErrorResponse](t, rec).Code)

	rec = do(t, h, http.MethodPut, "/api/competitor-sets/downtown/members/prop2", "owner-a", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[MembershipDTO](t, rec).IsMember)

	rec = do(t, h, http.MethodDelete, "/api/competitor-sets/downtown/members/prop2", "owner-a", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[MembershipDTO](t, rec).IsMember)

	rec = do(t, h, http.MethodGet, "/api/competitor-sets/downtown/members", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]MembershipDTO](t, rec), 1)

	agg := CompetitorAggregateRequest{AverageOccupancy: 80, AverageADR: 200, AverageRevPAR: 160, PropertyCount: 3}
	rec = do(t, h, http.MethodPut, "/api/competitor-sets/downtown/aggregates/20250310", "owner-a", agg)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, h, http.MethodPut, "/api/competitor-sets/downtown/aggregates/20250310", testAdmin, agg)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/comparisons/prop1/downtown/20250310", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cmp := decode[ComparisonDTO](t, rec)
	assert.Equal(t, uint64(100), cmp.OccupancyIndex)
	assert.Equal(t, uint64(125), cmp.ADRIndex)
	assert.Equal(t, uint64(125), cmp.RevPARIndex)

	rec = do(t, h, http.MethodGet, "/api/comparisons/prop1/downtown/20250311", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// =============================================================================
// ADMIN
// =============================================================================

func TestTransferAdmin(t *testing.T) {
	h := newTestServer(t, RouterOptions{})

	rec := do(t, h, http.MethodPost, "/api/admin/transfer", "owner-a", TransferAdminRequest{NewAdmin: "owner-a"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/admin/transfer", testAdmin, TransferAdminRequest{NewAdmin: "admin-2"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/admin", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "admin-2", decode[AdminDTO](t, rec).Admin)
}

// =============================================================================
// MIDDLEWARE
// =============================================================================

func TestHealth(t *testing.T) {
	h := newTestServer(t, RouterOptions{})

	rec := do(t, h, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimit(t *testing.T) {
	h := newTestServer(t, RouterOptions{RateLimitPerMin: 3})

	for i := 0; i < 3; i++ {
		rec := do(t, h, http.MethodGet, "/api/health", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec := do(t, h, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
}

func TestRateLimiter_EvictsIdleClients(t *testing.T) {
	// GIVEN: Two clients, one of which stops sending requests
	// WHEN: Time passes beyond the idle TTL and another request arrives
	// THEN: The idle client's bucket is dropped and the active one kept

	now := time.Date(2025, time.March, 1, 9, 0, 0, 0, time.UTC)
	rl := newRateLimiter(60, zap.NewNop())
	rl.now = func() time.Time { return now }

	rl.get("10.0.0.1")
	rl.get("10.0.0.2")
	assert.Equal(t, 2, rl.size())

	now = now.Add(limiterIdleTTL / 2)
	rl.get("10.0.0.2")

	now = now.Add(limiterIdleTTL / 2)
	rl.get("10.0.0.3")
	assert.Equal(t, 2, rl.size())
	assert.NotContains(t, rl.clients, "10.0.0.1")
	assert.Contains(t, rl.clients, "10.0.0.2")
}

func TestRateLimiter_SweepIsThrottled(t *testing.T) {
	now := time.Date(2025, time.March, 1, 9, 0, 0, 0, time.UTC)
	rl := newRateLimiter(60, zap.NewNop())
	rl.now = func() time.Time { return now }

	rl.get("10.0.0.1")
	now = now.Add(limiterIdleTTL)
	rl.get("10.0.0.2")
	require.NotContains(t, rl.clients, "10.0.0.1")

	// Within limiterSweepEvery of the last sweep nothing is evicted
	rl.get("10.0.0.3")
	now = now.Add(limiterIdleTTL + limiterSweepEvery/2)
	rl.lastSweep = now
	rl.get("10.0.0.4")
	assert.Equal(t, 3, rl.size())

	now = now.Add(limiterSweepEvery)
	rl.get("10.0.0.4")
	assert.Equal(t, 1, rl.size())
}
