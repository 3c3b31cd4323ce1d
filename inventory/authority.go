package inventory

import (
	"context"
	"fmt"
	"sync"
)

// Authority decides who the administrator is.
//
// Without an AdminStore the configured admin lives in memory and changes only
// through Transfer. With one, the stored admin is read on every check and
// transfers are a compare-and-set in the store, so ledgers in other processes
// never honour a revoked admin. The configured admin is stored on first use
// when the store holds none.
type Authority struct {
	mu    sync.RWMutex
	admin Identity
	store AdminStore
}

// NewAuthority creates an authority. store may be nil.
func NewAuthority(admin Identity, store AdminStore) *Authority {
	return &Authority{admin: admin, store: store}
}

// Current returns the administrative identity, "" when none is set.
func (a *Authority) Current(ctx context.Context) (Identity, error) {
	a.mu.RLock()
	configured := a.admin
	a.mu.RUnlock()

	if a.store == nil {
		return configured, nil
	}

	stored, err := a.store.GetAdmin(ctx)
	if err != nil {
		return "", fmt.Errorf("get admin: %w", err)
	}
	if stored == "" && configured != "" {
		stored, err = a.store.InitAdmin(ctx, configured)
		if err != nil {
			return "", fmt.Errorf("init admin: %w", err)
		}
	}

	a.mu.Lock()
	a.admin = stored
	a.mu.Unlock()
	return stored, nil
}

// Authorize returns ErrUnauthorized unless caller is the administrator. An
// unset admin matches nobody.
func (a *Authority) Authorize(ctx context.Context, caller Identity) error {
	admin, err := a.Current(ctx)
	if err != nil {
		return err
	}
	if admin == "" || caller != admin {
		return ErrUnauthorized
	}
	return nil
}

// Transfer hands authority from caller to next. caller must be the current
// administrator at the moment of the swap.
func (a *Authority) Transfer(ctx context.Context, caller, next Identity) error {
	if caller == "" {
		return ErrUnauthorized
	}

	if a.store == nil {
		a.mu.Lock()
		defer a.mu.Unlock()
		if a.admin == "" || caller != a.admin {
			return ErrUnauthorized
		}
		a.admin = next
		return nil
	}

	// Stores the configured admin if this is the first admin-gated call.
	if _, err := a.Current(ctx); err != nil {
		return err
	}
	swapped, err := a.store.SwapAdmin(ctx, caller, next)
	if err != nil {
		return fmt.Errorf("swap admin: %w", err)
	}
	if !swapped {
		return ErrUnauthorized
	}

	a.mu.Lock()
	a.admin = next
	a.mu.Unlock()
	return nil
}
