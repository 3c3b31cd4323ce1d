/*
Package sqlite provides a SQLite-backed implementation of the inventory store.

PURPOSE:
  Implements inventory.Store and inventory.AdminStore on SQLite, the embedded
  durable key-value store of a single-instance deployment.

KEY TABLES:
  room_categories:        (property_id, room_category_id) -> capacity, owner
  channels:               channel_id -> name, active, operator
  allocations:            (property_id, room_category_id, channel_id, date)
                          -> allocated, booked
  revenue_facts:          (property_id, date) -> revenue, occupancy, adr, revpar
  competitor_sets:        set_id -> name, owner
  competitor_memberships: (set_id, property_id) -> is_member (soft removal)
  competitor_aggregates:  (set_id, date) -> averages, property_count
  settings:               key -> value (persisted admin identity)

INDEXES:
  - idx_allocations_slot: every channel of a slot in one range scan
    (the capacity check's hot path)

UNIQUENESS:
  Insert* statements rely on PRIMARY KEY constraints and translate a
  constraint violation into inventory.ErrDuplicateKey.

CURRENCY:
  uint64 currency values are stored as their int64 bit pattern. The driver
  rejects uint64 values with the high bit set, and the round trip through
  int64 is lossless.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. The ledger's slot locks provide the
  read-validate-write atomicity; this lock only protects the connection.

WAL MODE:
  File databases are opened with WAL. ":memory:" databases are pinned to a
  single connection, since every new connection would see an empty database.

USAGE:
  store, err := sqlite.New("./data/inventory.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()
  ledger := inventory.New(store, "admin", inventory.Options{})
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/warp/inventory-ledger/inventory"
)

// Store implements inventory.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var (
	_ inventory.Store      = (*Store)(nil)
	_ inventory.AdminStore = (*Store)(nil)
)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
// Missing parent directories of a file path are created.
func New(dbPath string) (*Store, error) {
	dsn := dbPath + "?_foreign_keys=on&_journal_mode=WAL"
	if dbPath == ":memory:" {
		dsn = "file::memory:?_foreign_keys=on"
	} else if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS room_categories (
		property_id TEXT NOT NULL,
		room_category_id TEXT NOT NULL,
		name TEXT NOT NULL,
		total_capacity INTEGER NOT NULL,
		owner TEXT NOT NULL,
		created_at TEXT NOT NULL,
		PRIMARY KEY (property_id, room_category_id)
	);

	CREATE TABLE IF NOT EXISTS channels (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		active INTEGER NOT NULL DEFAULT 1,
		operator TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS allocations (
		property_id TEXT NOT NULL,
		room_category_id TEXT NOT NULL,
		channel_id TEXT NOT NULL,
		date INTEGER NOT NULL,
		allocated INTEGER NOT NULL,
		booked INTEGER NOT NULL,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (property_id, room_category_id, channel_id, date),
		CHECK (booked <= allocated)
	);

	-- Capacity check reads every channel of a slot (hot path)
	CREATE INDEX IF NOT EXISTS idx_allocations_slot
		ON allocations(property_id, room_category_id, date);

	CREATE TABLE IF NOT EXISTS revenue_facts (
		property_id TEXT NOT NULL,
		date INTEGER NOT NULL,
		room_revenue INTEGER NOT NULL,
		other_revenue INTEGER NOT NULL,
		occupancy_percentage INTEGER NOT NULL,
		adr INTEGER NOT NULL,
		revpar INTEGER NOT NULL,
		recorded_by TEXT NOT NULL,
		recorded_at TEXT NOT NULL,
		PRIMARY KEY (property_id, date)
	);

	CREATE TABLE IF NOT EXISTS competitor_sets (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		owner TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	-- Soft removal: rows are flipped, never deleted
	CREATE TABLE IF NOT EXISTS competitor_memberships (
		set_id TEXT NOT NULL,
		property_id TEXT NOT NULL,
		is_member INTEGER NOT NULL,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (set_id, property_id)
	);

	CREATE TABLE IF NOT EXISTS competitor_aggregates (
		set_id TEXT NOT NULL,
		date INTEGER NOT NULL,
		average_occupancy INTEGER NOT NULL,
		average_adr INTEGER NOT NULL,
		average_revpar INTEGER NOT NULL,
		property_count INTEGER NOT NULL,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (set_id, date)
	);

	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// CATALOG
// =============================================================================

func (s *Store) InsertRoomCategory(ctx context.Context, c inventory.RoomCategory) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO room_categories (property_id, room_category_id, name, total_capacity, owner, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		c.PropertyID, c.RoomCategoryID, c.Name, c.TotalCapacity, c.Owner, formatTime(c.CreatedAt),
	)
	if isUniqueConstraintError(err) {
		return inventory.ErrDuplicateKey
	}
	if err != nil {
		return fmt.Errorf("failed to insert room category: %w", err)
	}
	return nil
}

func (s *Store) GetRoomCategory(ctx context.Context, propertyID inventory.PropertyID, categoryID inventory.RoomCategoryID) (*inventory.RoomCategory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		c         inventory.RoomCategory
		createdAt string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT property_id, room_category_id, name, total_capacity, owner, created_at
		FROM room_categories WHERE property_id = ? AND room_category_id = ?`,
		propertyID, categoryID,
	).Scan(&c.PropertyID, &c.RoomCategoryID, &c.Name, &c.TotalCapacity, &c.Owner, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get room category: %w", err)
	}
	c.CreatedAt = parseTime(createdAt)
	return &c, nil
}

// =============================================================================
// CHANNELS
// =============================================================================

func (s *Store) InsertChannel(ctx context.Context, ch inventory.Channel) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO channels (id, name, active, operator, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		ch.ID, ch.Name, ch.Active, ch.Operator, formatTime(ch.CreatedAt),
	)
	if isUniqueConstraintError(err) {
		return inventory.ErrDuplicateKey
	}
	if err != nil {
		return fmt.Errorf("failed to insert channel: %w", err)
	}
	return nil
}

func (s *Store) GetChannel(ctx context.Context, id inventory.ChannelID) (*inventory.Channel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		"SELECT id, name, active, operator, created_at FROM channels WHERE id = ?", id)
	ch, err := scanChannel(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get channel: %w", err)
	}
	return &ch, nil
}

func (s *Store) ListChannels(ctx context.Context) ([]inventory.Channel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, active, operator, created_at FROM channels ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list channels: %w", err)
	}
	defer rows.Close()

	channels := []inventory.Channel{}
	for rows.Next() {
		ch, err := scanChannel(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan channel: %w", err)
		}
		channels = append(channels, ch)
	}
	return channels, rows.Err()
}

func (s *Store) SetChannelActive(ctx context.Context, id inventory.ChannelID, active bool) error {
	return s.updateChannel(ctx, "UPDATE channels SET active = ? WHERE id = ?", active, id)
}

func (s *Store) SetChannelOperator(ctx context.Context, id inventory.ChannelID, operator inventory.Identity) error {
	return s.updateChannel(ctx, "UPDATE channels SET operator = ? WHERE id = ?", operator, id)
}

func (s *Store) updateChannel(ctx context.Context, query string, value any, id inventory.ChannelID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, query, value, id)
	if err != nil {
		return fmt.Errorf("failed to update channel: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update channel: %w", err)
	}
	if n == 0 {
		return inventory.ErrChannelNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanChannel(row rowScanner) (inventory.Channel, error) {
	var (
		ch        inventory.Channel
		createdAt string
	)
	if err := row.Scan(&ch.ID, &ch.Name, &ch.Active, &ch.Operator, &createdAt); err != nil {
		return ch, err
	}
	ch.CreatedAt = parseTime(createdAt)
	return ch, nil
}

// =============================================================================
// ALLOCATIONS
// =============================================================================

func (s *Store) GetAllocation(ctx context.Context, key inventory.AllocationKey) (*inventory.AllocationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT property_id, room_category_id, channel_id, date, allocated, booked, updated_at
		FROM allocations
		WHERE property_id = ? AND room_category_id = ? AND channel_id = ? AND date = ?`,
		key.PropertyID, key.RoomCategoryID, key.ChannelID, key.Date,
	)
	rec, err := scanAllocation(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get allocation: %w", err)
	}
	return &rec, nil
}

func (s *Store) ListAllocations(ctx context.Context, slot inventory.SlotKey) ([]inventory.AllocationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT property_id, room_category_id, channel_id, date, allocated, booked, updated_at
		FROM allocations
		WHERE property_id = ? AND room_category_id = ? AND date = ?
		ORDER BY channel_id`,
		slot.PropertyID, slot.RoomCategoryID, slot.Date,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list allocations: %w", err)
	}
	defer rows.Close()

	records := []inventory.AllocationRecord{}
	for rows.Next() {
		rec, err := scanAllocation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan allocation: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *Store) PutAllocation(ctx context.Context, rec inventory.AllocationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO allocations (property_id, room_category_id, channel_id, date, allocated, booked, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(property_id, room_category_id, channel_id, date) DO UPDATE SET
			allocated = excluded.allocated,
			booked = excluded.booked,
			updated_at = excluded.updated_at`,
		rec.PropertyID, rec.RoomCategoryID, rec.ChannelID, rec.Date,
		rec.Allocated, rec.Booked, formatTime(rec.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to put allocation: %w", err)
	}
	return nil
}

func scanAllocation(row rowScanner) (inventory.AllocationRecord, error) {
	var (
		rec       inventory.AllocationRecord
		updatedAt string
	)
	err := row.Scan(&rec.PropertyID, &rec.RoomCategoryID, &rec.ChannelID, &rec.Date,
		&rec.Allocated, &rec.Booked, &updatedAt)
	if err != nil {
		return rec, err
	}
	rec.UpdatedAt = parseTime(updatedAt)
	return rec, nil
}

// =============================================================================
// PERFORMANCE
// =============================================================================

func (s *Store) PutRevenue(ctx context.Context, f inventory.RevenueFact) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO revenue_facts
		(property_id, date, room_revenue, other_revenue, occupancy_percentage, adr, revpar, recorded_by, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(property_id, date) DO UPDATE SET
			room_revenue = excluded.room_revenue,
			other_revenue = excluded.other_revenue,
			occupancy_percentage = excluded.occupancy_percentage,
			adr = excluded.adr,
			revpar = excluded.revpar,
			recorded_by = excluded.recorded_by,
			recorded_at = excluded.recorded_at`,
		f.PropertyID, f.Date, toInt64(f.RoomRevenue), toInt64(f.OtherRevenue), f.OccupancyPercentage,
		toInt64(f.AverageDailyRate), toInt64(f.RevPAR), f.RecordedBy, formatTime(f.RecordedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to put revenue: %w", err)
	}
	return nil
}

func (s *Store) GetRevenue(ctx context.Context, propertyID inventory.PropertyID, date inventory.Date) (*inventory.RevenueFact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		f                              inventory.RevenueFact
		roomRev, otherRev, adr, revpar int64
		recordedAt                     string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT property_id, date, room_revenue, other_revenue, occupancy_percentage, adr, revpar, recorded_by, recorded_at
		FROM revenue_facts WHERE property_id = ? AND date = ?`,
		propertyID, date,
	).Scan(&f.PropertyID, &f.Date, &roomRev, &otherRev, &f.OccupancyPercentage, &adr, &revpar, &f.RecordedBy, &recordedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get revenue: %w", err)
	}
	f.RoomRevenue = uint64(roomRev)
	f.OtherRevenue = uint64(otherRev)
	f.AverageDailyRate = uint64(adr)
	f.RevPAR = uint64(revpar)
	f.RecordedAt = parseTime(recordedAt)
	return &f, nil
}

func (s *Store) InsertCompetitorSet(ctx context.Context, set inventory.CompetitorSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO competitor_sets (id, name, owner, created_at) VALUES (?, ?, ?, ?)",
		set.ID, set.Name, set.Owner, formatTime(set.CreatedAt),
	)
	if isUniqueConstraintError(err) {
		return inventory.ErrDuplicateKey
	}
	if err != nil {
		return fmt.Errorf("failed to insert competitor set: %w", err)
	}
	return nil
}

func (s *Store) GetCompetitorSet(ctx context.Context, id inventory.SetID) (*inventory.CompetitorSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		set       inventory.CompetitorSet
		createdAt string
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, owner, created_at FROM competitor_sets WHERE id = ?", id,
	).Scan(&set.ID, &set.Name, &set.Owner, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get competitor set: %w", err)
	}
	set.CreatedAt = parseTime(createdAt)
	return &set, nil
}

func (s *Store) PutMembership(ctx context.Context, m inventory.Membership) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO competitor_memberships (set_id, property_id, is_member, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(set_id, property_id) DO UPDATE SET
			is_member = excluded.is_member,
			updated_at = excluded.updated_at`,
		m.SetID, m.PropertyID, m.IsMember, formatTime(m.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to put membership: %w", err)
	}
	return nil
}

func (s *Store) GetMembership(ctx context.Context, setID inventory.SetID, propertyID inventory.PropertyID) (*inventory.Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT set_id, property_id, is_member, updated_at
		FROM competitor_memberships WHERE set_id = ? AND property_id = ?`,
		setID, propertyID,
	)
	m, err := scanMembership(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}
	return &m, nil
}

func (s *Store) ListMemberships(ctx context.Context, setID inventory.SetID) ([]inventory.Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT set_id, property_id, is_member, updated_at
		FROM competitor_memberships WHERE set_id = ? ORDER BY property_id`,
		setID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships: %w", err)
	}
	defer rows.Close()

	memberships := []inventory.Membership{}
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan membership: %w", err)
		}
		memberships = append(memberships, m)
	}
	return memberships, rows.Err()
}

func scanMembership(row rowScanner) (inventory.Membership, error) {
	var (
		m         inventory.Membership
		updatedAt string
	)
	if err := row.Scan(&m.SetID, &m.PropertyID, &m.IsMember, &updatedAt); err != nil {
		return m, err
	}
	m.UpdatedAt = parseTime(updatedAt)
	return m, nil
}

func (s *Store) PutCompetitorAggregate(ctx context.Context, a inventory.CompetitorAggregate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO competitor_aggregates
		(set_id, date, average_occupancy, average_adr, average_revpar, property_count, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(set_id, date) DO UPDATE SET
			average_occupancy = excluded.average_occupancy,
			average_adr = excluded.average_adr,
			average_revpar = excluded.average_revpar,
			property_count = excluded.property_count,
			updated_at = excluded.updated_at`,
		a.SetID, a.Date, a.AverageOccupancy, toInt64(a.AverageADR), toInt64(a.AverageRevPAR),
		a.PropertyCount, formatTime(a.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to put competitor aggregate: %w", err)
	}
	return nil
}

func (s *Store) GetCompetitorAggregate(ctx context.Context, setID inventory.SetID, date inventory.Date) (*inventory.CompetitorAggregate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		a           inventory.CompetitorAggregate
		adr, revpar int64
		updatedAt   string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT set_id, date, average_occupancy, average_adr, average_revpar, property_count, updated_at
		FROM competitor_aggregates WHERE set_id = ? AND date = ?`,
		setID, date,
	).Scan(&a.SetID, &a.Date, &a.AverageOccupancy, &adr, &revpar, &a.PropertyCount, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get competitor aggregate: %w", err)
	}
	a.AverageADR = uint64(adr)
	a.AverageRevPAR = uint64(revpar)
	a.UpdatedAt = parseTime(updatedAt)
	return &a, nil
}

// =============================================================================
// ADMIN (inventory.AdminStore)
// =============================================================================

const adminSettingKey = "admin_identity"

func (s *Store) GetAdmin(ctx context.Context) (inventory.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var admin string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", adminSettingKey).Scan(&admin)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get admin: %w", err)
	}
	return inventory.Identity(admin), nil
}

// InitAdmin stores admin unless a row exists. Concurrent processes agree on
// whichever insert landed first.
func (s *Store) InitAdmin(ctx context.Context, admin inventory.Identity) (inventory.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO NOTHING`,
		adminSettingKey, admin,
	)
	if err != nil {
		return "", fmt.Errorf("failed to init admin: %w", err)
	}

	var stored string
	err = s.db.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", adminSettingKey).Scan(&stored)
	if err != nil {
		return "", fmt.Errorf("failed to get admin: %w", err)
	}
	return inventory.Identity(stored), nil
}

// SwapAdmin is a conditional UPDATE, so the check and the write are one
// statement even across processes sharing the database file.
func (s *Store) SwapAdmin(ctx context.Context, expected, next inventory.Identity) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.ExecContext(ctx,
		"UPDATE settings SET value = ? WHERE key = ? AND value = ?",
		next, adminSettingKey, expected,
	)
	if err != nil {
		return false, fmt.Errorf("failed to swap admin: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to swap admin: %w", err)
	}
	return n == 1, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func isUniqueConstraintError(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}

func toInt64(v uint64) int64 { return int64(v) }

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}
