/*
ledger.go - Facade wiring the inventory components over one Store

PURPOSE:
  Builds Catalog, Channels, Allocations and Performance over a single Store
  and owns the administrative authority. The admin identity is injected at
  construction and changes only through TransferAdmin, which requires the
  current admin.

ADMIN PERSISTENCE:
  If the store implements AdminStore, the stored admin is authoritative: it
  is read on every admin-gated call and TransferAdmin is a compare-and-set
  against it. Ledgers in several processes sharing the store therefore agree
  on the admin, and a transfer survives restarts. Without AdminStore the
  configured admin applies on every start.

USAGE:
  l := inventory.New(store, "admin-1", inventory.Options{Logger: log})
  if err := l.LoadAdmin(ctx); err != nil { ... }
  l.Channels.CreateChannel(ctx, inventory.CreateChannelRequest{...})
*/
package inventory

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

type Ledger struct {
	Catalog     *Catalog
	Channels    *Channels
	Allocations *Allocations
	Performance *Performance

	store     Store
	authority *Authority
	log       *zap.Logger
}

// New wires the components. admin is the initial administrative identity.
func New(store Store, admin Identity, opts Options) *Ledger {
	opts = opts.withDefaults()
	adminStore, _ := store.(AdminStore)
	authority := NewAuthority(admin, adminStore)
	catalog := NewCatalog(store, opts)
	channels := NewChannels(store, authority, opts)

	return &Ledger{
		Catalog:     catalog,
		Channels:    channels,
		Allocations: NewAllocations(store, catalog, channels, opts),
		Performance: NewPerformance(store, authority, opts),
		store:       store,
		authority:   authority,
		log:         opts.Logger.Named("ledger"),
	}
}

// Admin returns the current administrative identity.
func (l *Ledger) Admin(ctx context.Context) (Identity, error) {
	return l.authority.Current(ctx)
}

// LoadAdmin resolves the admin at start-up. With an AdminStore the stored
// admin wins over the configured one, which is only stored on first start.
func (l *Ledger) LoadAdmin(ctx context.Context) error {
	admin, err := l.authority.Current(ctx)
	if err != nil {
		return fmt.Errorf("load admin: %w", err)
	}
	if _, ok := l.store.(AdminStore); ok {
		l.log.Info("admin resolved from store", zap.String("admin", string(admin)))
	}
	return nil
}

// TransferAdmin hands administrative authority to newAdmin. Only the current
// admin may call it.
func (l *Ledger) TransferAdmin(ctx context.Context, newAdmin, caller Identity) error {
	if err := validateVar("NewAdmin", newAdmin, ruleIdentity); err != nil {
		return err
	}
	if err := l.authority.Transfer(ctx, caller, newAdmin); err != nil {
		return fmt.Errorf("transfer admin: %w", err)
	}

	l.log.Info("admin transferred",
		zap.String("from", string(caller)),
		zap.String("to", string(newAdmin)),
	)
	return nil
}
