// Package store provides Store implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/inventory-ledger/inventory"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu          sync.RWMutex
	categories  map[categoryKey]inventory.RoomCategory
	channels    map[inventory.ChannelID]inventory.Channel
	allocations map[inventory.SlotKey]map[inventory.ChannelID]inventory.AllocationRecord
	revenue     map[revenueKey]inventory.RevenueFact
	sets        map[inventory.SetID]inventory.CompetitorSet
	members     map[inventory.SetID]map[inventory.PropertyID]inventory.Membership
	aggregates  map[aggregateKey]inventory.CompetitorAggregate
	admin       inventory.Identity
}

type categoryKey struct {
	PropertyID     inventory.PropertyID
	RoomCategoryID inventory.RoomCategoryID
}

type revenueKey struct {
	PropertyID inventory.PropertyID
	Date       inventory.Date
}

type aggregateKey struct {
	SetID inventory.SetID
	Date  inventory.Date
}

func NewMemory() *Memory {
	return &Memory{
		categories:  make(map[categoryKey]inventory.RoomCategory),
		channels:    make(map[inventory.ChannelID]inventory.Channel),
		allocations: make(map[inventory.SlotKey]map[inventory.ChannelID]inventory.AllocationRecord),
		revenue:     make(map[revenueKey]inventory.RevenueFact),
		sets:        make(map[inventory.SetID]inventory.CompetitorSet),
		members:     make(map[inventory.SetID]map[inventory.PropertyID]inventory.Membership),
		aggregates:  make(map[aggregateKey]inventory.CompetitorAggregate),
	}
}

var (
	_ inventory.Store      = (*Memory)(nil)
	_ inventory.AdminStore = (*Memory)(nil)
)

// =============================================================================
// CATALOG
// =============================================================================

func (m *Memory) InsertRoomCategory(_ context.Context, c inventory.RoomCategory) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := categoryKey{PropertyID: c.PropertyID, RoomCategoryID: c.RoomCategoryID}
	if _, exists := m.categories[k]; exists {
		return inventory.ErrDuplicateKey
	}
	m.categories[k] = c
	return nil
}

func (m *Memory) GetRoomCategory(_ context.Context, propertyID inventory.PropertyID, categoryID inventory.RoomCategoryID) (*inventory.RoomCategory, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.categories[categoryKey{PropertyID: propertyID, RoomCategoryID: categoryID}]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

// =============================================================================
// CHANNELS
// =============================================================================

func (m *Memory) InsertChannel(_ context.Context, ch inventory.Channel) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.channels[ch.ID]; exists {
		return inventory.ErrDuplicateKey
	}
	m.channels[ch.ID] = ch
	return nil
}

func (m *Memory) GetChannel(_ context.Context, id inventory.ChannelID) (*inventory.Channel, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ch, ok := m.channels[id]
	if !ok {
		return nil, nil
	}
	return &ch, nil
}

func (m *Memory) ListChannels(_ context.Context) ([]inventory.Channel, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]inventory.Channel, 0, len(m.channels))
	for _, ch := range m.channels {
		result = append(result, ch)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *Memory) SetChannelActive(_ context.Context, id inventory.ChannelID, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch, ok := m.channels[id]
	if !ok {
		return inventory.ErrChannelNotFound
	}
	ch.Active = active
	m.channels[id] = ch
	return nil
}

func (m *Memory) SetChannelOperator(_ context.Context, id inventory.ChannelID, operator inventory.Identity) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch, ok := m.channels[id]
	if !ok {
		return inventory.ErrChannelNotFound
	}
	ch.Operator = operator
	m.channels[id] = ch
	return nil
}

// =============================================================================
// ALLOCATIONS
// =============================================================================

func (m *Memory) GetAllocation(_ context.Context, key inventory.AllocationKey) (*inventory.AllocationRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.allocations[key.Slot()][key.ChannelID]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (m *Memory) ListAllocations(_ context.Context, slot inventory.SlotKey) ([]inventory.AllocationRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	byChannel := m.allocations[slot]
	result := make([]inventory.AllocationRecord, 0, len(byChannel))
	for _, rec := range byChannel {
		result = append(result, rec)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ChannelID < result[j].ChannelID })
	return result, nil
}

func (m *Memory) PutAllocation(_ context.Context, rec inventory.AllocationRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	slot := rec.Slot()
	byChannel, ok := m.allocations[slot]
	if !ok {
		byChannel = make(map[inventory.ChannelID]inventory.AllocationRecord)
		m.allocations[slot] = byChannel
	}
	byChannel[rec.ChannelID] = rec
	return nil
}

// =============================================================================
// PERFORMANCE
// =============================================================================

func (m *Memory) PutRevenue(_ context.Context, fact inventory.RevenueFact) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revenue[revenueKey{PropertyID: fact.PropertyID, Date: fact.Date}] = fact
	return nil
}

func (m *Memory) GetRevenue(_ context.Context, propertyID inventory.PropertyID, date inventory.Date) (*inventory.RevenueFact, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	fact, ok := m.revenue[revenueKey{PropertyID: propertyID, Date: date}]
	if !ok {
		return nil, nil
	}
	return &fact, nil
}

func (m *Memory) InsertCompetitorSet(_ context.Context, set inventory.CompetitorSet) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sets[set.ID]; exists {
		return inventory.ErrDuplicateKey
	}
	m.sets[set.ID] = set
	return nil
}

func (m *Memory) GetCompetitorSet(_ context.Context, id inventory.SetID) (*inventory.CompetitorSet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	set, ok := m.sets[id]
	if !ok {
		return nil, nil
	}
	return &set, nil
}

func (m *Memory) PutMembership(_ context.Context, ms inventory.Membership) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	byProperty, ok := m.members[ms.SetID]
	if !ok {
		byProperty = make(map[inventory.PropertyID]inventory.Membership)
		m.members[ms.SetID] = byProperty
	}
	byProperty[ms.PropertyID] = ms
	return nil
}

func (m *Memory) GetMembership(_ context.Context, setID inventory.SetID, propertyID inventory.PropertyID) (*inventory.Membership, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ms, ok := m.members[setID][propertyID]
	if !ok {
		return nil, nil
	}
	return &ms, nil
}

func (m *Memory) ListMemberships(_ context.Context, setID inventory.SetID) ([]inventory.Membership, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]inventory.Membership, 0, len(m.members[setID]))
	for _, ms := range m.members[setID] {
		result = append(result, ms)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].PropertyID < result[j].PropertyID })
	return result, nil
}

func (m *Memory) PutCompetitorAggregate(_ context.Context, agg inventory.CompetitorAggregate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.aggregates[aggregateKey{SetID: agg.SetID, Date: agg.Date}] = agg
	return nil
}

func (m *Memory) GetCompetitorAggregate(_ context.Context, setID inventory.SetID, date inventory.Date) (*inventory.CompetitorAggregate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	agg, ok := m.aggregates[aggregateKey{SetID: setID, Date: date}]
	if !ok {
		return nil, nil
	}
	return &agg, nil
}

// =============================================================================
// ADMIN
// =============================================================================

func (m *Memory) GetAdmin(_ context.Context) (inventory.Identity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.admin, nil
}

func (m *Memory) InitAdmin(_ context.Context, admin inventory.Identity) (inventory.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.admin == "" {
		m.admin = admin
	}
	return m.admin, nil
}

func (m *Memory) SwapAdmin(_ context.Context, expected, next inventory.Identity) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.admin == "" || m.admin != expected {
		return false, nil
	}
	m.admin = next
	return true, nil
}
