package redisstore

import (
	"context"
	"errors"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"github.com/warp/inventory-ledger/inventory"
	"go.uber.org/zap"
)

// Locker implements inventory.SlotLocker with redislock leases.
//
// A lease outlives a crashed holder by at most TTL. Obtain retries with a
// linear backoff until Wait elapses, then reports inventory.ErrSlotBusy.
type Locker struct {
	client *redislock.Client
	prefix string
	ttl    time.Duration
	wait   time.Duration
	log    *zap.Logger
}

var _ inventory.SlotLocker = (*Locker)(nil)

type LockerOptions struct {
	Prefix string
	TTL    time.Duration
	Wait   time.Duration
	Logger *zap.Logger
}

func NewLocker(rdb redis.UniversalClient, opts LockerOptions) *Locker {
	if opts.Prefix == "" {
		opts.Prefix = DefaultPrefix
	}
	if opts.TTL <= 0 {
		opts.TTL = 30 * time.Second
	}
	if opts.Wait <= 0 {
		opts.Wait = 5 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Locker{
		client: redislock.New(rdb),
		prefix: opts.Prefix,
		ttl:    opts.TTL,
		wait:   opts.Wait,
		log:    opts.Logger.Named("slot-locker"),
	}
}

func (l *Locker) LockSlot(ctx context.Context, slot inventory.SlotKey) (func(), error) {
	key := l.prefix + "lock:" + slot.String()

	obtainCtx, cancel := context.WithTimeout(ctx, l.wait)
	defer cancel()

	lock, err := l.client.Obtain(obtainCtx, key, l.ttl, &redislock.Options{
		RetryStrategy: redislock.LinearBackoff(25 * time.Millisecond),
	})
	if errors.Is(err, redislock.ErrNotObtained) || errors.Is(err, context.DeadlineExceeded) {
		return nil, inventory.ErrSlotBusy
	}
	if err != nil {
		return nil, err
	}

	return func() {
		// Release with a fresh context; the request may already be cancelled.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := lock.Release(releaseCtx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			l.log.Warn("failed to release slot lock", zap.String("key", key), zap.Error(err))
		}
	}, nil
}
