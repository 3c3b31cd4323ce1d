/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the ledger's types from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

DATES:
  Dates are YYYYMMDD integers (20250310), in bodies and in paths.

CURRENCY:
  Currency fields are integers in the caller's minor unit (e.g. cents).

IDENTITY:
  Request bodies never carry the caller. The caller is the X-Principal
  header set by the authenticating proxy.

SEE ALSO:
  - handlers.go: Uses these types
  - inventory/types.go: Domain types
*/
package api

import (
	"time"

	"github.com/warp/inventory-ledger/inventory"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

type CreateRoomCategoryRequest struct {
	PropertyID     string `json:"property_id"`
	RoomCategoryID string `json:"room_category_id"`
	Name           string `json:"name"`
	TotalCapacity  uint32 `json:"total_capacity"`
}

type CreateChannelRequest struct {
	ChannelID string `json:"channel_id"`
	Name      string `json:"name"`
}

type SetChannelStatusRequest struct {
	Active bool `json:"active"`
}

type AssignOperatorRequest struct {
	Operator string `json:"operator"`
}

// AllocationRequest is the body of allocate, book and release.
type AllocationRequest struct {
	PropertyID     string `json:"property_id"`
	RoomCategoryID string `json:"room_category_id"`
	ChannelID      string `json:"channel_id"`
	Date           uint32 `json:"date"`
	Amount         uint32 `json:"amount"`
}

type RecordRevenueRequest struct {
	PropertyID          string `json:"property_id"`
	Date                uint32 `json:"date"`
	RoomRevenue         uint64 `json:"room_revenue"`
	OtherRevenue        uint64 `json:"other_revenue"`
	OccupancyPercentage uint32 `json:"occupancy_percentage"`
	ADR                 uint64 `json:"adr"`
}

type CreateCompetitorSetRequest struct {
	SetID string `json:"set_id"`
	Name  string `json:"name"`
}

type CompetitorAggregateRequest struct {
	AverageOccupancy uint32 `json:"average_occupancy"`
	AverageADR       uint64 `json:"average_adr"`
	AverageRevPAR    uint64 `json:"average_revpar"`
	PropertyCount    uint32 `json:"property_count"`
}

type TransferAdminRequest struct {
	NewAdmin string `json:"new_admin"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

type RoomCategoryDTO struct {
	PropertyID     string    `json:"property_id"`
	RoomCategoryID string    `json:"room_category_id"`
	Name           string    `json:"name"`
	TotalCapacity  uint32    `json:"total_capacity"`
	Owner          string    `json:"owner"`
	CreatedAt      time.Time `json:"created_at"`
}

type ChannelDTO struct {
	ChannelID string    `json:"channel_id"`
	Name      string    `json:"name"`
	Active    bool      `json:"active"`
	Operator  string    `json:"operator,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type AllocationDTO struct {
	PropertyID     string    `json:"property_id"`
	RoomCategoryID string    `json:"room_category_id"`
	ChannelID      string    `json:"channel_id"`
	Date           uint32    `json:"date"`
	Allocated      uint32    `json:"allocated"`
	Booked         uint32    `json:"booked"`
	Available      uint32    `json:"available"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type AvailabilityDTO struct {
	PropertyID     string `json:"property_id"`
	RoomCategoryID string `json:"room_category_id"`
	ChannelID      string `json:"channel_id"`
	Date           uint32 `json:"date"`
	Available      uint32 `json:"available"`
}

type SlotSummaryDTO struct {
	PropertyID     string          `json:"property_id"`
	RoomCategoryID string          `json:"room_category_id"`
	Date           uint32          `json:"date"`
	TotalCapacity  uint32          `json:"total_capacity"`
	Allocated      uint64          `json:"allocated"`
	Booked         uint64          `json:"booked"`
	Unallocated    uint64          `json:"unallocated"`
	Channels       []AllocationDTO `json:"channels"`
}

type RevenueFactDTO struct {
	PropertyID          string    `json:"property_id"`
	Date                uint32    `json:"date"`
	RoomRevenue         uint64    `json:"room_revenue"`
	OtherRevenue        uint64    `json:"other_revenue"`
	OccupancyPercentage uint32    `json:"occupancy_percentage"`
	ADR                 uint64    `json:"adr"`
	RevPAR              uint64    `json:"revpar"`
	RecordedBy          string    `json:"recorded_by"`
	RecordedAt          time.Time `json:"recorded_at"`
}

type CompetitorSetDTO struct {
	SetID     string    `json:"set_id"`
	Name      string    `json:"name"`
	Owner     string    `json:"owner"`
	CreatedAt time.Time `json:"created_at"`
}

type MembershipDTO struct {
	PropertyID string    `json:"property_id"`
	IsMember   bool      `json:"is_member"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type CompetitorAggregateDTO struct {
	SetID            string    `json:"set_id"`
	Date             uint32    `json:"date"`
	AverageOccupancy uint32    `json:"average_occupancy"`
	AverageADR       uint64    `json:"average_adr"`
	AverageRevPAR    uint64    `json:"average_revpar"`
	PropertyCount    uint32    `json:"property_count"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type ComparisonDTO struct {
	PropertyID     string `json:"property_id"`
	SetID          string `json:"set_id"`
	Date           uint32 `json:"date"`
	OccupancyIndex uint64 `json:"occupancy_index"`
	ADRIndex       uint64 `json:"adr_index"`
	RevPARIndex    uint64 `json:"revpar_index"`
}

type AdminDTO struct {
	Admin string `json:"admin"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERTERS
// =============================================================================

func toRoomCategoryDTO(c inventory.RoomCategory) RoomCategoryDTO {
	return RoomCategoryDTO{
		PropertyID:     string(c.PropertyID),
		RoomCategoryID: string(c.RoomCategoryID),
		Name:           c.Name,
		TotalCapacity:  c.TotalCapacity,
		Owner:          string(c.Owner),
		CreatedAt:      c.CreatedAt,
	}
}

func toChannelDTO(ch inventory.Channel) ChannelDTO {
	return ChannelDTO{
		ChannelID: string(ch.ID),
		Name:      ch.Name,
		Active:    ch.Active,
		Operator:  string(ch.Operator),
		CreatedAt: ch.CreatedAt,
	}
}

func toAllocationDTO(r inventory.AllocationRecord) AllocationDTO {
	return AllocationDTO{
		PropertyID:     string(r.PropertyID),
		RoomCategoryID: string(r.RoomCategoryID),
		ChannelID:      string(r.ChannelID),
		Date:           uint32(r.Date),
		Allocated:      r.Allocated,
		Booked:         r.Booked,
		Available:      r.Available(),
		UpdatedAt:      r.UpdatedAt,
	}
}

func toSlotSummaryDTO(s inventory.SlotSummary) SlotSummaryDTO {
	channels := make([]AllocationDTO, len(s.Channels))
	for i, r := range s.Channels {
		channels[i] = toAllocationDTO(r)
	}
	return SlotSummaryDTO{
		PropertyID:     string(s.PropertyID),
		RoomCategoryID: string(s.RoomCategoryID),
		Date:           uint32(s.Date),
		TotalCapacity:  s.TotalCapacity,
		Allocated:      s.Allocated,
		Booked:         s.Booked,
		Unallocated:    s.Unallocated,
		Channels:       channels,
	}
}

func toRevenueFactDTO(f inventory.RevenueFact) RevenueFactDTO {
	return RevenueFactDTO{
		PropertyID:          string(f.PropertyID),
		Date:                uint32(f.Date),
		RoomRevenue:         f.RoomRevenue,
		OtherRevenue:        f.OtherRevenue,
		OccupancyPercentage: f.OccupancyPercentage,
		ADR:                 f.AverageDailyRate,
		RevPAR:              f.RevPAR,
		RecordedBy:          string(f.RecordedBy),
		RecordedAt:          f.RecordedAt,
	}
}

func toCompetitorSetDTO(s inventory.CompetitorSet) CompetitorSetDTO {
	return CompetitorSetDTO{
		SetID:     string(s.ID),
		Name:      s.Name,
		Owner:     string(s.Owner),
		CreatedAt: s.CreatedAt,
	}
}

func toCompetitorAggregateDTO(a inventory.CompetitorAggregate) CompetitorAggregateDTO {
	return CompetitorAggregateDTO{
		SetID:            string(a.SetID),
		Date:             uint32(a.Date),
		AverageOccupancy: a.AverageOccupancy,
		AverageADR:       a.AverageADR,
		AverageRevPAR:    a.AverageRevPAR,
		PropertyCount:    a.PropertyCount,
		UpdatedAt:        a.UpdatedAt,
	}
}

func toComparisonDTO(c inventory.Comparison) ComparisonDTO {
	return ComparisonDTO{
		PropertyID:     string(c.PropertyID),
		SetID:          string(c.SetID),
		Date:           uint32(c.Date),
		OccupancyIndex: c.OccupancyIndex,
		ADRIndex:       c.ADRIndex,
		RevPARIndex:    c.RevPARIndex,
	}
}
