/*
performance.go - Revenue facts and competitive performance indices

PURPOSE:
  Records daily revenue facts per property and compares them against
  competitor-set aggregates fed by an external aggregation process.

FORMULAS (integer, truncating):
  RevPAR = ADR * occupancy / 100
  index  = propertyMetric * 100 / competitorAverage   (0 when average is 0)

  An index of 100 is parity; above 100 the property outperforms its set.

ARITHMETIC:
  Products are computed with decimal.Decimal and divided with QuoRem at
  precision 0, so truncation is exact and the intermediate product never
  overflows uint64. Indices that do not fit in uint64 saturate.

ACCESS RULES:
  - RecordRevenue: any authenticated caller (recorded as RecordedBy)
  - Competitor set membership: set owner only (ErrNotOwner)
  - Competitor aggregates: administrator only (ErrUnauthorized)
*/
package inventory

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var hundred = decimal.NewFromInt(100)

// =============================================================================
// REQUESTS
// =============================================================================

type RecordRevenueRequest struct {
	PropertyID          PropertyID `validate:"required,max=32,printascii"`
	Date                Date
	RoomRevenue         uint64
	OtherRevenue        uint64
	OccupancyPercentage uint32
	ADR                 uint64
	Caller              Identity `validate:"required,max=256"`
}

type CreateCompetitorSetRequest struct {
	SetID  SetID    `validate:"required,max=32,printascii"`
	Name   string   `validate:"max=100,printascii"`
	Caller Identity `validate:"required,max=256"`
}

type CompetitorAggregateRequest struct {
	SetID            SetID `validate:"required,max=32,printascii"`
	Date             Date
	AverageOccupancy uint32
	AverageADR       uint64
	AverageRevPAR    uint64
	PropertyCount    uint32
	Caller           Identity `validate:"required,max=256"`
}

// =============================================================================
// PERFORMANCE INDEX
// =============================================================================

type Performance struct {
	store     PerformanceStore
	authority *Authority
	log       *zap.Logger
	now       func() time.Time
}

func NewPerformance(store PerformanceStore, authority *Authority, opts Options) *Performance {
	opts = opts.withDefaults()
	return &Performance{store: store, authority: authority, log: opts.Logger.Named("performance"), now: opts.Clock}
}

// RecordRevenue creates or overwrites the property's fact for the date.
func (p *Performance) RecordRevenue(ctx context.Context, req RecordRevenueRequest) (RevenueFact, error) {
	if err := validateRequest(req); err != nil {
		return RevenueFact{}, err
	}
	if req.OccupancyPercentage > 100 {
		return RevenueFact{}, fmt.Errorf("occupancy %d: %w", req.OccupancyPercentage, ErrInvalidOccupancy)
	}

	fact := RevenueFact{
		PropertyID:          req.PropertyID,
		Date:                req.Date,
		RoomRevenue:         req.RoomRevenue,
		OtherRevenue:        req.OtherRevenue,
		OccupancyPercentage: req.OccupancyPercentage,
		AverageDailyRate:    req.ADR,
		RevPAR:              revPAR(req.ADR, req.OccupancyPercentage),
		RecordedBy:          req.Caller,
		RecordedAt:          p.now().UTC(),
	}
	if err := p.store.PutRevenue(ctx, fact); err != nil {
		return RevenueFact{}, fmt.Errorf("put revenue: %w", err)
	}

	p.log.Debug("revenue recorded",
		zap.String("property_id", string(fact.PropertyID)),
		zap.Stringer("date", fact.Date),
		zap.Uint64("revpar", fact.RevPAR),
	)
	return fact, nil
}

func (p *Performance) GetRevenue(ctx context.Context, propertyID PropertyID, date Date) (RevenueFact, error) {
	if err := validateVar("PropertyID", propertyID, ruleID); err != nil {
		return RevenueFact{}, err
	}
	fact, err := p.store.GetRevenue(ctx, propertyID, date)
	if err != nil {
		return RevenueFact{}, fmt.Errorf("get revenue: %w", err)
	}
	if fact == nil {
		return RevenueFact{}, ErrPropertyDataNotFound
	}
	return *fact, nil
}

// CreateCompetitorSet registers a set owned by the caller.
func (p *Performance) CreateCompetitorSet(ctx context.Context, req CreateCompetitorSetRequest) (CompetitorSet, error) {
	if err := validateRequest(req); err != nil {
		return CompetitorSet{}, err
	}
	set := CompetitorSet{ID: req.SetID, Name: req.Name, Owner: req.Caller, CreatedAt: p.now().UTC()}
	if err := p.store.InsertCompetitorSet(ctx, set); err != nil {
		if errors.Is(err, ErrDuplicateKey) {
			return CompetitorSet{}, fmt.Errorf("competitor set %s: %w", req.SetID, ErrDuplicateKey)
		}
		return CompetitorSet{}, fmt.Errorf("insert competitor set: %w", err)
	}
	p.log.Debug("competitor set created", zap.String("set_id", string(set.ID)), zap.String("owner", string(set.Owner)))
	return set, nil
}

func (p *Performance) GetCompetitorSet(ctx context.Context, id SetID) (CompetitorSet, error) {
	if err := validateVar("SetID", id, ruleID); err != nil {
		return CompetitorSet{}, err
	}
	set, err := p.store.GetCompetitorSet(ctx, id)
	if err != nil {
		return CompetitorSet{}, fmt.Errorf("get competitor set: %w", err)
	}
	if set == nil {
		return CompetitorSet{}, ErrSetNotFound
	}
	return *set, nil
}

// AddPropertyToSet marks the property as a member. Idempotent.
func (p *Performance) AddPropertyToSet(ctx context.Context, setID SetID, propertyID PropertyID, caller Identity) error {
	return p.setMembership(ctx, setID, propertyID, caller, true)
}

// RemovePropertyFromSet flips membership to false; the row is kept.
func (p *Performance) RemovePropertyFromSet(ctx context.Context, setID SetID, propertyID PropertyID, caller Identity) error {
	return p.setMembership(ctx, setID, propertyID, caller, false)
}

func (p *Performance) setMembership(ctx context.Context, setID SetID, propertyID PropertyID, caller Identity, member bool) error {
	if err := validateVar("PropertyID", propertyID, ruleID); err != nil {
		return err
	}
	if err := validateVar("Caller", caller, ruleIdentity); err != nil {
		return err
	}
	set, err := p.GetCompetitorSet(ctx, setID)
	if err != nil {
		return err
	}
	if set.Owner != caller {
		return fmt.Errorf("competitor set %s: %w", setID, ErrNotOwner)
	}

	m := Membership{SetID: setID, PropertyID: propertyID, IsMember: member, UpdatedAt: p.now().UTC()}
	if err := p.store.PutMembership(ctx, m); err != nil {
		return fmt.Errorf("put membership: %w", err)
	}
	p.log.Debug("membership changed",
		zap.String("set_id", string(setID)),
		zap.String("property_id", string(propertyID)),
		zap.Bool("is_member", member),
	)
	return nil
}

// IsMember reports current membership. Properties never added are not members.
func (p *Performance) IsMember(ctx context.Context, setID SetID, propertyID PropertyID) (bool, error) {
	if _, err := p.GetCompetitorSet(ctx, setID); err != nil {
		return false, err
	}
	if err := validateVar("PropertyID", propertyID, ruleID); err != nil {
		return false, err
	}
	m, err := p.store.GetMembership(ctx, setID, propertyID)
	if err != nil {
		return false, fmt.Errorf("get membership: %w", err)
	}
	return m != nil && m.IsMember, nil
}

// Memberships returns every membership row of the set, including removed ones.
func (p *Performance) Memberships(ctx context.Context, setID SetID) ([]Membership, error) {
	if _, err := p.GetCompetitorSet(ctx, setID); err != nil {
		return nil, err
	}
	ms, err := p.store.ListMemberships(ctx, setID)
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}
	return ms, nil
}

// UpdateCompetitorAggregate ingests an externally computed aggregate.
// Authorization is checked before the set lookup.
func (p *Performance) UpdateCompetitorAggregate(ctx context.Context, req CompetitorAggregateRequest) (CompetitorAggregate, error) {
	if err := validateRequest(req); err != nil {
		return CompetitorAggregate{}, err
	}
	if err := p.authority.Authorize(ctx, req.Caller); err != nil {
		return CompetitorAggregate{}, fmt.Errorf("update aggregate for %s: %w", req.SetID, err)
	}
	if req.AverageOccupancy > 100 {
		return CompetitorAggregate{}, fmt.Errorf("average occupancy %d: %w", req.AverageOccupancy, ErrInvalidOccupancy)
	}
	if _, err := p.GetCompetitorSet(ctx, req.SetID); err != nil {
		return CompetitorAggregate{}, err
	}

	agg := CompetitorAggregate{
		SetID:            req.SetID,
		Date:             req.Date,
		AverageOccupancy: req.AverageOccupancy,
		AverageADR:       req.AverageADR,
		AverageRevPAR:    req.AverageRevPAR,
		PropertyCount:    req.PropertyCount,
		UpdatedAt:        p.now().UTC(),
	}
	if err := p.store.PutCompetitorAggregate(ctx, agg); err != nil {
		return CompetitorAggregate{}, fmt.Errorf("put competitor aggregate: %w", err)
	}
	p.log.Debug("competitor aggregate updated", zap.String("set_id", string(agg.SetID)), zap.Stringer("date", agg.Date))
	return agg, nil
}

func (p *Performance) GetCompetitorAggregate(ctx context.Context, setID SetID, date Date) (CompetitorAggregate, error) {
	if err := validateVar("SetID", setID, ruleID); err != nil {
		return CompetitorAggregate{}, err
	}
	agg, err := p.store.GetCompetitorAggregate(ctx, setID, date)
	if err != nil {
		return CompetitorAggregate{}, fmt.Errorf("get competitor aggregate: %w", err)
	}
	if agg == nil {
		return CompetitorAggregate{}, ErrCompetitorDataNotFound
	}
	return *agg, nil
}

// ComparePerformance computes the property's indices against the set's
// aggregate for the date.
func (p *Performance) ComparePerformance(ctx context.Context, propertyID PropertyID, setID SetID, date Date) (Comparison, error) {
	if err := validateVar("SetID", setID, ruleID); err != nil {
		return Comparison{}, err
	}
	fact, err := p.GetRevenue(ctx, propertyID, date)
	if err != nil {
		return Comparison{}, err
	}
	agg, err := p.GetCompetitorAggregate(ctx, setID, date)
	if err != nil {
		return Comparison{}, err
	}

	return Comparison{
		PropertyID:     propertyID,
		SetID:          setID,
		Date:           date,
		OccupancyIndex: index(uint64(fact.OccupancyPercentage), uint64(agg.AverageOccupancy)),
		ADRIndex:       index(fact.AverageDailyRate, agg.AverageADR),
		RevPARIndex:    index(fact.RevPAR, agg.AverageRevPAR),
	}, nil
}

// =============================================================================
// ARITHMETIC
// =============================================================================

func revPAR(adr uint64, occupancy uint32) uint64 {
	product := decimal.NewFromUint64(adr).Mul(decimal.NewFromInt(int64(occupancy)))
	return truncDiv(product, hundred)
}

func index(metric, average uint64) uint64 {
	if average == 0 {
		return 0
	}
	return truncDiv(decimal.NewFromUint64(metric).Mul(hundred), decimal.NewFromUint64(average))
}

// truncDiv returns floor(num/den) for non-negative operands, saturating at
// math.MaxUint64.
func truncDiv(num, den decimal.Decimal) uint64 {
	q, _ := num.QuoRem(den, 0)
	bi := q.BigInt()
	if !bi.IsUint64() {
		return math.MaxUint64
	}
	return bi.Uint64()
}
