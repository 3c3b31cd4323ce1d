/*
Package redisstore provides a Redis-backed implementation of the inventory store.

PURPOSE:
  Implements inventory.Store and inventory.AdminStore on Redis, so several
  ledger processes can share one networked store. Locker (locker.go) adds the
  cross-process slot lock those deployments need.

KEY LAYOUT (all keys under a configurable prefix, default "inventory:"):
  category:{property}:{category}   string  JSON RoomCategory (SETNX)
  channels                         set     channel ids
  channel:{id}                     hash    id, name, active, operator, created_at
  slot:{property}:{category}:{date} hash   channel id -> JSON AllocationRecord
  revenue:{property}:{date}        string  JSON RevenueFact
  set:{id}                         string  JSON CompetitorSet (SETNX)
  members:{set}                    hash    property id -> JSON Membership
  aggregate:{set}:{date}           string  JSON CompetitorAggregate
  admin                            string  admin identity

  Key components are query-escaped, so identifiers containing ':' cannot
  collide.

UNIQUENESS:
  Insert* use SETNX (categories, sets) or a Lua script that writes the whole
  channel hash and its index entry only if the hash is absent; a lost race
  returns inventory.ErrDuplicateKey. The admin key changes only through a
  compare-and-set script.

  The channel script touches two keys, so a Redis Cluster deployment needs
  the prefix to carry a hash tag (e.g. "{inventory}:").

SLOT READS:
  Every channel of a slot lives in one hash, so the capacity check's
  cross-channel read is a single HGETALL.
*/
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/warp/inventory-ledger/inventory"
)

const DefaultPrefix = "inventory:"

// Store implements inventory.Store using Redis.
type Store struct {
	rdb    redis.UniversalClient
	prefix string
}

var (
	_ inventory.Store      = (*Store)(nil)
	_ inventory.AdminStore = (*Store)(nil)
)

// New wraps an existing client. An empty prefix means DefaultPrefix.
func New(rdb redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{rdb: rdb, prefix: prefix}
}

// Options configures Connect.
type Options struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// Connect dials Redis and verifies the connection with a short ping.
func Connect(ctx context.Context, opts Options) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", opts.Addr, err)
	}
	return New(client, opts.Prefix), nil
}

// Client returns the underlying client, shared with Locker.
func (s *Store) Client() redis.UniversalClient {
	return s.rdb
}

// Close closes the underlying client.
func (s *Store) Close() error {
	return s.rdb.Close()
}

// Ping verifies Redis is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// =============================================================================
// KEYS
// =============================================================================

func (s *Store) key(kind string, parts ...string) string {
	k := s.prefix + kind
	for _, p := range parts {
		k += ":" + url.QueryEscape(p)
	}
	return k
}

func dateKey(d inventory.Date) string {
	return strconv.FormatUint(uint64(d), 10)
}

func (s *Store) categoryKey(p inventory.PropertyID, c inventory.RoomCategoryID) string {
	return s.key("category", string(p), string(c))
}

func (s *Store) channelKey(id inventory.ChannelID) string {
	return s.key("channel", string(id))
}

func (s *Store) channelIndexKey() string {
	return s.prefix + "channels"
}

func (s *Store) slotKey(slot inventory.SlotKey) string {
	return s.key("slot", string(slot.PropertyID), string(slot.RoomCategoryID), dateKey(slot.Date))
}

// =============================================================================
// CATALOG
// =============================================================================

func (s *Store) InsertRoomCategory(ctx context.Context, c inventory.RoomCategory) error {
	return s.insertJSON(ctx, s.categoryKey(c.PropertyID, c.RoomCategoryID), c)
}

func (s *Store) GetRoomCategory(ctx context.Context, propertyID inventory.PropertyID, categoryID inventory.RoomCategoryID) (*inventory.RoomCategory, error) {
	var c inventory.RoomCategory
	found, err := s.getJSON(ctx, s.categoryKey(propertyID, categoryID), &c)
	if err != nil || !found {
		return nil, err
	}
	return &c, nil
}

// =============================================================================
// CHANNELS
// =============================================================================

// insertChannelScript creates the channel hash with every field and indexes
// it in one step, so no reader ever sees a partially written channel.
var insertChannelScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
	return 0
end
redis.call('HSET', KEYS[1], 'id', ARGV[1], 'name', ARGV[2], 'active', ARGV[3], 'operator', ARGV[4], 'created_at', ARGV[5])
redis.call('SADD', KEYS[2], ARGV[1])
return 1
`)

func (s *Store) InsertChannel(ctx context.Context, ch inventory.Channel) error {
	created, err := insertChannelScript.Run(ctx, s.rdb,
		[]string{s.channelKey(ch.ID), s.channelIndexKey()},
		string(ch.ID),
		ch.Name,
		strconv.FormatBool(ch.Active),
		string(ch.Operator),
		ch.CreatedAt.UTC().Format(time.RFC3339Nano),
	).Int()
	if err != nil {
		return fmt.Errorf("failed to insert channel: %w", err)
	}
	if created == 0 {
		return inventory.ErrDuplicateKey
	}
	return nil
}

func (s *Store) GetChannel(ctx context.Context, id inventory.ChannelID) (*inventory.Channel, error) {
	fields, err := s.rdb.HGetAll(ctx, s.channelKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get channel: %w", err)
	}
	if len(fields) == 0 {
		return nil, nil
	}
	ch := channelFromHash(fields)
	return &ch, nil
}

func (s *Store) ListChannels(ctx context.Context) ([]inventory.Channel, error) {
	ids, err := s.rdb.SMembers(ctx, s.channelIndexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list channels: %w", err)
	}
	sort.Strings(ids)

	cmds := make([]*redis.MapStringStringCmd, len(ids))
	_, err = s.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = pipe.HGetAll(ctx, s.channelKey(inventory.ChannelID(id)))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list channels: %w", err)
	}

	channels := make([]inventory.Channel, 0, len(ids))
	for _, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			continue
		}
		channels = append(channels, channelFromHash(fields))
	}
	return channels, nil
}

func (s *Store) SetChannelActive(ctx context.Context, id inventory.ChannelID, active bool) error {
	return s.updateChannel(ctx, id, "active", strconv.FormatBool(active))
}

func (s *Store) SetChannelOperator(ctx context.Context, id inventory.ChannelID, operator inventory.Identity) error {
	return s.updateChannel(ctx, id, "operator", string(operator))
}

// updateChannel writes one field, leaving the rest of the record untouched.
func (s *Store) updateChannel(ctx context.Context, id inventory.ChannelID, field, value string) error {
	key := s.channelKey(id)
	n, err := s.rdb.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("failed to update channel: %w", err)
	}
	if n == 0 {
		return inventory.ErrChannelNotFound
	}
	if err := s.rdb.HSet(ctx, key, field, value).Err(); err != nil {
		return fmt.Errorf("failed to update channel: %w", err)
	}
	return nil
}

func channelFromHash(fields map[string]string) inventory.Channel {
	active, _ := strconv.ParseBool(fields["active"])
	createdAt, _ := time.Parse(time.RFC3339Nano, fields["created_at"])
	return inventory.Channel{
		ID:        inventory.ChannelID(fields["id"]),
		Name:      fields["name"],
		Active:    active,
		Operator:  inventory.Identity(fields["operator"]),
		CreatedAt: createdAt,
	}
}

// =============================================================================
// ALLOCATIONS
// =============================================================================

func (s *Store) GetAllocation(ctx context.Context, key inventory.AllocationKey) (*inventory.AllocationRecord, error) {
	raw, err := s.rdb.HGet(ctx, s.slotKey(key.Slot()), string(key.ChannelID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get allocation: %w", err)
	}
	var rec inventory.AllocationRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, fmt.Errorf("failed to decode allocation: %w", err)
	}
	return &rec, nil
}

func (s *Store) ListAllocations(ctx context.Context, slot inventory.SlotKey) ([]inventory.AllocationRecord, error) {
	fields, err := s.rdb.HGetAll(ctx, s.slotKey(slot)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list allocations: %w", err)
	}

	records := make([]inventory.AllocationRecord, 0, len(fields))
	for _, raw := range fields {
		var rec inventory.AllocationRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("failed to decode allocation: %w", err)
		}
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ChannelID < records[j].ChannelID })
	return records, nil
}

func (s *Store) PutAllocation(ctx context.Context, rec inventory.AllocationRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode allocation: %w", err)
	}
	if err := s.rdb.HSet(ctx, s.slotKey(rec.Slot()), string(rec.ChannelID), raw).Err(); err != nil {
		return fmt.Errorf("failed to put allocation: %w", err)
	}
	return nil
}

// =============================================================================
// PERFORMANCE
// =============================================================================

func (s *Store) PutRevenue(ctx context.Context, f inventory.RevenueFact) error {
	return s.putJSON(ctx, s.key("revenue", string(f.PropertyID), dateKey(f.Date)), f)
}

func (s *Store) GetRevenue(ctx context.Context, propertyID inventory.PropertyID, date inventory.Date) (*inventory.RevenueFact, error) {
	var f inventory.RevenueFact
	found, err := s.getJSON(ctx, s.key("revenue", string(propertyID), dateKey(date)), &f)
	if err != nil || !found {
		return nil, err
	}
	return &f, nil
}

func (s *Store) InsertCompetitorSet(ctx context.Context, set inventory.CompetitorSet) error {
	return s.insertJSON(ctx, s.key("set", string(set.ID)), set)
}

func (s *Store) GetCompetitorSet(ctx context.Context, id inventory.SetID) (*inventory.CompetitorSet, error) {
	var set inventory.CompetitorSet
	found, err := s.getJSON(ctx, s.key("set", string(id)), &set)
	if err != nil || !found {
		return nil, err
	}
	return &set, nil
}

func (s *Store) PutMembership(ctx context.Context, m inventory.Membership) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to encode membership: %w", err)
	}
	if err := s.rdb.HSet(ctx, s.key("members", string(m.SetID)), string(m.PropertyID), raw).Err(); err != nil {
		return fmt.Errorf("failed to put membership: %w", err)
	}
	return nil
}

func (s *Store) GetMembership(ctx context.Context, setID inventory.SetID, propertyID inventory.PropertyID) (*inventory.Membership, error) {
	raw, err := s.rdb.HGet(ctx, s.key("members", string(setID)), string(propertyID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}
	var m inventory.Membership
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, fmt.Errorf("failed to decode membership: %w", err)
	}
	return &m, nil
}

func (s *Store) ListMemberships(ctx context.Context, setID inventory.SetID) ([]inventory.Membership, error) {
	fields, err := s.rdb.HGetAll(ctx, s.key("members", string(setID))).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships: %w", err)
	}
	memberships := make([]inventory.Membership, 0, len(fields))
	for _, raw := range fields {
		var m inventory.Membership
		if err := json.Unmarshal([]byte(raw), &m); err != nil {
			return nil, fmt.Errorf("failed to decode membership: %w", err)
		}
		memberships = append(memberships, m)
	}
	sort.Slice(memberships, func(i, j int) bool { return memberships[i].PropertyID < memberships[j].PropertyID })
	return memberships, nil
}

func (s *Store) PutCompetitorAggregate(ctx context.Context, a inventory.CompetitorAggregate) error {
	return s.putJSON(ctx, s.key("aggregate", string(a.SetID), dateKey(a.Date)), a)
}

func (s *Store) GetCompetitorAggregate(ctx context.Context, setID inventory.SetID, date inventory.Date) (*inventory.CompetitorAggregate, error) {
	var a inventory.CompetitorAggregate
	found, err := s.getJSON(ctx, s.key("aggregate", string(setID), dateKey(date)), &a)
	if err != nil || !found {
		return nil, err
	}
	return &a, nil
}

// =============================================================================
// ADMIN (inventory.AdminStore)
// =============================================================================

func (s *Store) GetAdmin(ctx context.Context) (inventory.Identity, error) {
	admin, err := s.rdb.Get(ctx, s.adminKey()).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get admin: %w", err)
	}
	return inventory.Identity(admin), nil
}

func (s *Store) InitAdmin(ctx context.Context, admin inventory.Identity) (inventory.Identity, error) {
	if err := s.rdb.SetNX(ctx, s.adminKey(), string(admin), 0).Err(); err != nil {
		return "", fmt.Errorf("failed to init admin: %w", err)
	}
	return s.GetAdmin(ctx)
}

var swapAdminScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
	redis.call('SET', KEYS[1], ARGV[2])
	return 1
end
return 0
`)

func (s *Store) SwapAdmin(ctx context.Context, expected, next inventory.Identity) (bool, error) {
	swapped, err := swapAdminScript.Run(ctx, s.rdb, []string{s.adminKey()}, string(expected), string(next)).Int()
	if err != nil {
		return false, fmt.Errorf("failed to swap admin: %w", err)
	}
	return swapped == 1, nil
}

func (s *Store) adminKey() string { return s.prefix + "admin" }

// =============================================================================
// JSON HELPERS
// =============================================================================

func (s *Store) insertJSON(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	ok, err := s.rdb.SetNX(ctx, key, raw, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to insert %s: %w", key, err)
	}
	if !ok {
		return inventory.ErrDuplicateKey
	}
	return nil
}

func (s *Store) putJSON(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := s.rdb.Set(ctx, key, raw, 0).Err(); err != nil {
		return fmt.Errorf("failed to put %s: %w", key, err)
	}
	return nil
}

func (s *Store) getJSON(ctx context.Context, key string, dest any) (bool, error) {
	raw, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return true, nil
}
