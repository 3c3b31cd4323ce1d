/*
handlers.go - HTTP API handlers for the inventory ledger

PURPOSE:
  Exposes the ledger via REST API. Handles HTTP request/response and JSON
  serialization, and delegates every rule to the inventory package.

ENDPOINTS:
  Catalog:
    POST   /api/categories                                   Create room category
    GET    /api/categories/{property}/{category}             Get room category
    GET    /api/categories/{property}/{category}/availability/{date}
                                                             Slot projection

  Channels:
    GET    /api/channels                       List channels
    POST   /api/channels                       Register channel (admin)
    GET    /api/channels/{channel}             Get channel
    PUT    /api/channels/{channel}/status      Activate/deactivate (admin)
    PUT    /api/channels/{channel}/operator    Assign operator (admin)

  Allocations:
    PUT    /api/allocations                    Allocate (category owner)
    POST   /api/allocations/bookings           Book
    POST   /api/allocations/releases           Release booking
    GET    /api/allocations/{property}/{category}/{channel}/{date}
    GET    /api/allocations/{property}/{category}/{channel}/{date}/available
                                                Rooms left to book, 0 if unallocated

  Performance:
    PUT    /api/revenue                        Record revenue fact
    GET    /api/revenue/{property}/{date}
    POST   /api/competitor-sets                Create set
    GET    /api/competitor-sets/{set}
    GET    /api/competitor-sets/{set}/members
    PUT    /api/competitor-sets/{set}/members/{property}      Add (owner)
    DELETE /api/competitor-sets/{set}/members/{property}      Remove (owner)
    PUT    /api/competitor-sets/{set}/aggregates/{date}       Ingest (admin)
    GET    /api/competitor-sets/{set}/aggregates/{date}
    GET    /api/comparisons/{property}/{set}/{date}

  Admin:
    GET    /api/admin
    POST   /api/admin/transfer

CALLER IDENTITY:
  Mutations require the X-Principal header (401 without it). The header is
  trusted; authentication happens upstream.

ERROR HANDLING:
  See errors.go for the status mapping.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/warp/inventory-ledger/inventory"
	"go.uber.org/zap"
)

// PrincipalHeader carries the authenticated caller identity.
const PrincipalHeader = "X-Principal"

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Pinger is implemented by stores that can report their health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Ledger *inventory.Ledger
	Store  inventory.Store

	log *zap.Logger
}

// NewHandler creates a new handler over the ledger and its store.
func NewHandler(ledger *inventory.Ledger, store inventory.Store, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{Ledger: ledger, Store: store, log: log.Named("api")}
}

// Health reports whether the store is reachable.
// GET /api/health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if p, ok := h.Store.(Pinger); ok {
		if err := p.Ping(r.Context()); err != nil {
			h.log.Warn("health check failed", zap.Error(err))
			writeError(w, http.StatusServiceUnavailable, "store_unavailable", "store unavailable")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// CATALOG HANDLERS
// =============================================================================

// CreateRoomCategory registers a category owned by the caller.
// POST /api/categories
func (h *Handler) CreateRoomCategory(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	var req CreateRoomCategoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	cat, err := h.Ledger.Catalog.CreateRoomCategory(r.Context(), inventory.CreateRoomCategoryRequest{
		PropertyID:     inventory.PropertyID(req.PropertyID),
		RoomCategoryID: inventory.RoomCategoryID(req.RoomCategoryID),
		Name:           req.Name,
		TotalCapacity:  req.TotalCapacity,
		Caller:         caller,
	})
	if err != nil {
		h.writeLedgerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRoomCategoryDTO(cat))
}

// GetRoomCategory returns a category.
// GET /api/categories/{property}/{category}
func (h *Handler) GetRoomCategory(w http.ResponseWriter, r *http.Request) {
	cat, err := h.Ledger.Catalog.GetRoomCategory(r.Context(),
		inventory.PropertyID(chi.URLParam(r, "property")),
		inventory.RoomCategoryID(chi.URLParam(r, "category")),
	)
	if err != nil {
		h.writeLedgerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRoomCategoryDTO(cat))
}

// CategoryAvailability projects one slot across all channels.
// GET /api/categories/{property}/{category}/availability/{date}
func (h *Handler) CategoryAvailability(w http.ResponseWriter, r *http.Request) {
	date, ok := dateParam(w, r)
	if !ok {
		return
	}
	summary, err := h.Ledger.Allocations.CategoryAvailability(r.Context(), inventory.SlotKey{
		PropertyID:     inventory.PropertyID(chi.URLParam(r, "property")),
		RoomCategoryID: inventory.RoomCategoryID(chi.URLParam(r, "category")),
		Date:           date,
	})
	if err != nil {
		h.writeLedgerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSlotSummaryDTO(summary))
}

// =============================================================================
// CHANNEL HANDLERS
// =============================================================================

// ListChannels returns all channels.
// GET /api/channels
func (h *Handler) ListChannels(w http.ResponseWriter, r *http.Request) {
	channels, err := h.Ledger.Channels.ListChannels(r.Context())
	if err != nil {
		h.writeLedgerError(w, r, err)
		return
	}
	dtos := make([]ChannelDTO, len(channels))
	for i, ch := range channels {
		dtos[i] = toChannelDTO(ch)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateChannel registers a channel. Admin only.
// POST /api/channels
func (h *Handler) CreateChannel(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	var req CreateChannelRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ch, err := h.Ledger.Channels.CreateChannel(r.Context(), inventory.CreateChannelRequest{
		ChannelID: inventory.ChannelID(req.ChannelID),
		Name:      req.Name,
		Caller:    caller,
	})
	if err != nil {
		h.writeLedgerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toChannelDTO(ch))
}

// GetChannel returns a channel.
// GET /api/channels/{channel}
func (h *Handler) GetChannel(w http.ResponseWriter, r *http.Request) {
	ch, err := h.Ledger.Channels.GetChannel(r.Context(), inventory.ChannelID(chi.URLParam(r, "channel")))
	if err != nil {
		h.writeLedgerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toChannelDTO(ch))
}

// SetChannelStatus activates or deactivates a channel. Admin only.
// PUT /api/channels/{channel}/status
func (h *Handler) SetChannelStatus(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	var req SetChannelStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ch, err := h.Ledger.Channels.SetChannelActive(r.Context(), inventory.ChannelID(chi.URLParam(r, "channel")), req.Active, caller)
	if err != nil {
		h.writeLedgerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toChannelDTO(ch))
}

// AssignOperator binds the booking identity of a channel. Admin only.
// PUT /api/channels/{channel}/operator
func (h *Handler) AssignOperator(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	var req AssignOperatorRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ch, err := h.Ledger.Channels.AssignOperator(r.Context(),
		inventory.ChannelID(chi.URLParam(r, "channel")),
		inventory.Identity(req.Operator),
		caller,
	)
	if err != nil {
		h.writeLedgerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toChannelDTO(ch))
}

// =============================================================================
// ALLOCATION HANDLERS
// =============================================================================

// Allocate writes a channel's commitment for a date.
// PUT /api/allocations
func (h *Handler) Allocate(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	var req AllocationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	rec, err := h.Ledger.Allocations.Allocate(r.Context(), inventory.AllocateRequest{
		PropertyID:     inventory.PropertyID(req.PropertyID),
		RoomCategoryID: inventory.RoomCategoryID(req.RoomCategoryID),
		ChannelID:      inventory.ChannelID(req.ChannelID),
		Date:           inventory.Date(req.Date),
		Amount:         req.Amount,
		Caller:         caller,
	})
	if err != nil {
		h.writeLedgerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAllocationDTO(rec))
}

// Book consumes allocated units.
// POST /api/allocations/bookings
func (h *Handler) Book(w http.ResponseWriter, r *http.Request) {
	h.booking(w, r, h.Ledger.Allocations.Book)
}

// ReleaseBooking returns booked units to the allocation.
// POST /api/allocations/releases
func (h *Handler) ReleaseBooking(w http.ResponseWriter, r *http.Request) {
	h.booking(w, r, h.Ledger.Allocations.ReleaseBooking)
}

type bookingFunc func(ctx context.Context, req inventory.BookRequest) (inventory.AllocationRecord, error)

func (h *Handler) booking(w http.ResponseWriter, r *http.Request, op bookingFunc) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	var req AllocationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	rec, err := op(r.Context(), inventory.BookRequest{
		PropertyID:     inventory.PropertyID(req.PropertyID),
		RoomCategoryID: inventory.RoomCategoryID(req.RoomCategoryID),
		ChannelID:      inventory.ChannelID(req.ChannelID),
		Date:           inventory.Date(req.Date),
		Amount:         req.Amount,
		Caller:         caller,
	})
	if err != nil {
		h.writeLedgerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAllocationDTO(rec))
}

// GetAllocation returns one channel's record for a date.
// GET /api/allocations/{property}/{category}/{channel}/{date}
func (h *Handler) GetAllocation(w http.ResponseWriter, r *http.Request) {
	date, ok := dateParam(w, r)
	if !ok {
		return
	}
	rec, err := h.Ledger.Allocations.GetAllocation(r.Context(), inventory.AllocationKey{
		PropertyID:     inventory.PropertyID(chi.URLParam(r, "property")),
		RoomCategoryID: inventory.RoomCategoryID(chi.URLParam(r, "category")),
		ChannelID:      inventory.ChannelID(chi.URLParam(r, "channel")),
		Date:           date,
	})
	if err != nil {
		h.writeLedgerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAllocationDTO(rec))
}

// GetAvailable returns the bookable rooms of one channel allocation. A
// missing allocation reads as 0, not 404.
// GET /api/allocations/{property}/{category}/{channel}/{date}/available
func (h *Handler) GetAvailable(w http.ResponseWriter, r *http.Request) {
	date, ok := dateParam(w, r)
	if !ok {
		return
	}
	key := inventory.AllocationKey{
		PropertyID:     inventory.PropertyID(chi.URLParam(r, "property")),
		RoomCategoryID: inventory.RoomCategoryID(chi.URLParam(r, "category")),
		ChannelID:      inventory.ChannelID(chi.URLParam(r, "channel")),
		Date:           date,
	}
	available, err := h.Ledger.Allocations.GetAvailable(r.Context(), key)
	if err != nil {
		h.writeLedgerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, AvailabilityDTO{
		PropertyID:     string(key.PropertyID),
		RoomCategoryID: string(key.RoomCategoryID),
		ChannelID:      string(key.ChannelID),
		Date:           uint32(key.Date),
		Available:      available,
	})
}

// =============================================================================
// PERFORMANCE HANDLERS
// =============================================================================

// RecordRevenue creates or overwrites a daily revenue fact.
// PUT /api/revenue
func (h *Handler) RecordRevenue(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	var req RecordRevenueRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	fact, err := h.Ledger.Performance.RecordRevenue(r.Context(), inventory.RecordRevenueRequest{
		PropertyID:          inventory.PropertyID(req.PropertyID),
		Date:                inventory.Date(req.Date),
		RoomRevenue:         req.RoomRevenue,
		OtherRevenue:        req.OtherRevenue,
		OccupancyPercentage: req.OccupancyPercentage,
		ADR:                 req.ADR,
		Caller:              caller,
	})
	if err != nil {
		h.writeLedgerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRevenueFactDTO(fact))
}

// GetRevenue returns a property's fact for a date.
// GET /api/revenue/{property}/{date}
func (h *Handler) GetRevenue(w http.ResponseWriter, r *http.Request) {
	date, ok := dateParam(w, r)
	if !ok {
		return
	}
	fact, err := h.Ledger.Performance.GetRevenue(r.Context(), inventory.PropertyID(chi.URLParam(r, "property")), date)
	if err != nil {
		h.writeLedgerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRevenueFactDTO(fact))
}

// CreateCompetitorSet registers a set owned by the caller.
// POST /api/competitor-sets
func (h *Handler) CreateCompetitorSet(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	var req CreateCompetitorSetRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	set, err := h.Ledger.Performance.CreateCompetitorSet(r.Context(), inventory.CreateCompetitorSetRequest{
		SetID:  inventory.SetID(req.SetID),
		Name:   req.Name,
		Caller: caller,
	})
	if err != nil {
		h.writeLedgerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCompetitorSetDTO(set))
}

// GetCompetitorSet returns a set.
// GET /api/competitor-sets/{set}
func (h *Handler) GetCompetitorSet(w http.ResponseWriter, r *http.Request) {
	set, err := h.Ledger.Performance.GetCompetitorSet(r.Context(), inventory.SetID(chi.URLParam(r, "set")))
	if err != nil {
		h.writeLedgerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCompetitorSetDTO(set))
}

// ListMembers returns every membership row of a set, removed ones included.
// GET /api/competitor-sets/{set}/members
func (h *Handler) ListMembers(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Ledger.Performance.Memberships(r.Context(), inventory.SetID(chi.URLParam(r, "set")))
	if err != nil {
		h.writeLedgerError(w, r, err)
		return
	}
	dtos := make([]MembershipDTO, len(rows))
	for i, m := range rows {
		dtos[i] = MembershipDTO{PropertyID: string(m.PropertyID), IsMember: m.IsMember, UpdatedAt: m.UpdatedAt}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// AddMember adds a property to a set. Set owner only.
// PUT /api/competitor-sets/{set}/members/{property}
func (h *Handler) AddMember(w http.ResponseWriter, r *http.Request) {
	h.membership(w, r, h.Ledger.Performance.AddPropertyToSet)
}

// RemoveMember flips a property's membership off. Set owner only.
// DELETE /api/competitor-sets/{set}/members/{property}
func (h *Handler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	h.membership(w, r, h.Ledger.Performance.RemovePropertyFromSet)
}

type membershipFunc func(ctx context.Context, setID inventory.SetID, propertyID inventory.PropertyID, caller inventory.Identity) error

func (h *Handler) membership(w http.ResponseWriter, r *http.Request, op membershipFunc) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	setID := inventory.SetID(chi.URLParam(r, "set"))
	propertyID := inventory.PropertyID(chi.URLParam(r, "property"))

	if err := op(r.Context(), setID, propertyID, caller); err != nil {
		h.writeLedgerError(w, r, err)
		return
	}
	member, err := h.Ledger.Performance.IsMember(r.Context(), setID, propertyID)
	if err != nil {
		h.writeLedgerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MembershipDTO{PropertyID: string(propertyID), IsMember: member})
}

// UpdateCompetitorAggregate ingests an externally computed aggregate. Admin only.
// PUT /api/competitor-sets/{set}/aggregates/{date}
func (h *Handler) UpdateCompetitorAggregate(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	date, ok := dateParam(w, r)
	if !ok {
		return
	}
	var req CompetitorAggregateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	agg, err := h.Ledger.Performance.UpdateCompetitorAggregate(r.Context(), inventory.CompetitorAggregateRequest{
		SetID:            inventory.SetID(chi.URLParam(r, "set")),
		Date:             date,
		AverageOccupancy: req.AverageOccupancy,
		AverageADR:       req.AverageADR,
		AverageRevPAR:    req.AverageRevPAR,
		PropertyCount:    req.PropertyCount,
		Caller:           caller,
	})
	if err != nil {
		h.writeLedgerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCompetitorAggregateDTO(agg))
}

// GetCompetitorAggregate returns a set's aggregate for a date.
// GET /api/competitor-sets/{set}/aggregates/{date}
func (h *Handler) GetCompetitorAggregate(w http.ResponseWriter, r *http.Request) {
	date, ok := dateParam(w, r)
	if !ok {
		return
	}
	agg, err := h.Ledger.Performance.GetCompetitorAggregate(r.Context(), inventory.SetID(chi.URLParam(r, "set")), date)
	if err != nil {
		h.writeLedgerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCompetitorAggregateDTO(agg))
}

// ComparePerformance returns the property's indices against a set.
// GET /api/comparisons/{property}/{set}/{date}
func (h *Handler) ComparePerformance(w http.ResponseWriter, r *http.Request) {
	date, ok := dateParam(w, r)
	if !ok {
		return
	}
	cmp, err := h.Ledger.Performance.ComparePerformance(r.Context(),
		inventory.PropertyID(chi.URLParam(r, "property")),
		inventory.SetID(chi.URLParam(r, "set")),
		date,
	)
	if err != nil {
		h.writeLedgerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toComparisonDTO(cmp))
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

// GetAdmin returns the current administrative identity.
// GET /api/admin
func (h *Handler) GetAdmin(w http.ResponseWriter, r *http.Request) {
	admin, err := h.Ledger.Admin(r.Context())
	if err != nil {
		h.writeLedgerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, AdminDTO{Admin: string(admin)})
}

// TransferAdmin hands administrative authority over. Current admin only.
// POST /api/admin/transfer
func (h *Handler) TransferAdmin(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	var req TransferAdminRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.Ledger.TransferAdmin(r.Context(), inventory.Identity(req.NewAdmin), caller); err != nil {
		h.writeLedgerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, AdminDTO{Admin: req.NewAdmin})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// requireCaller reads the caller identity or writes 401.
func requireCaller(w http.ResponseWriter, r *http.Request) (inventory.Identity, bool) {
	caller := r.Header.Get(PrincipalHeader)
	if caller == "" {
		writeError(w, http.StatusUnauthorized, "unauthenticated", "missing "+PrincipalHeader+" header")
		return "", false
	}
	return inventory.Identity(caller), true
}

// decodeJSON decodes the body into dst or writes 400.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body: "+err.Error())
		return false
	}
	return true
}

// dateParam parses the {date} path parameter (YYYYMMDD) or writes 400.
func dateParam(w http.ResponseWriter, r *http.Request) (inventory.Date, bool) {
	raw := chi.URLParam(r, "date")
	n, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_argument", "invalid date "+strconv.Quote(raw))
		return 0, false
	}
	return inventory.Date(n), true
}
