package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// CreateChannelRequest registers a new distribution channel. Admin only.
type CreateChannelRequest struct {
	ChannelID ChannelID `validate:"required,max=32,printascii"`
	Name      string    `validate:"max=100,printascii"`
	Caller    Identity  `validate:"required,max=256"`
}

// Channels is the channel registry. Every mutation is restricted to the
// administrative identity.
type Channels struct {
	store     ChannelStore
	authority *Authority
	log       *zap.Logger
	now       func() time.Time
}

func NewChannels(store ChannelStore, authority *Authority, opts Options) *Channels {
	opts = opts.withDefaults()
	return &Channels{store: store, authority: authority, log: opts.Logger.Named("channels"), now: opts.Clock}
}

// CreateChannel registers an active channel.
// Fails ErrUnauthorized for non-admins, ErrDuplicateKey if the id exists.
func (r *Channels) CreateChannel(ctx context.Context, req CreateChannelRequest) (Channel, error) {
	if err := validateRequest(req); err != nil {
		return Channel{}, err
	}
	if err := r.authority.Authorize(ctx, req.Caller); err != nil {
		return Channel{}, fmt.Errorf("create channel %s: %w", req.ChannelID, err)
	}

	ch := Channel{
		ID:        req.ChannelID,
		Name:      req.Name,
		Active:    true,
		CreatedAt: r.now().UTC(),
	}
	if err := r.store.InsertChannel(ctx, ch); err != nil {
		if errors.Is(err, ErrDuplicateKey) {
			return Channel{}, fmt.Errorf("channel %s: %w", req.ChannelID, ErrDuplicateKey)
		}
		return Channel{}, fmt.Errorf("insert channel: %w", err)
	}

	r.log.Debug("channel created", zap.String("channel_id", string(ch.ID)))
	return ch, nil
}

func (r *Channels) GetChannel(ctx context.Context, id ChannelID) (Channel, error) {
	if err := validateVar("ChannelID", id, ruleID); err != nil {
		return Channel{}, err
	}
	ch, err := r.store.GetChannel(ctx, id)
	if err != nil {
		return Channel{}, fmt.Errorf("get channel: %w", err)
	}
	if ch == nil {
		return Channel{}, ErrChannelNotFound
	}
	return *ch, nil
}

func (r *Channels) ListChannels(ctx context.Context) ([]Channel, error) {
	chs, err := r.store.ListChannels(ctx)
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	return chs, nil
}

// SetChannelActive activates or deactivates a channel. Deactivation blocks new
// allocations; existing allocations and bookings are untouched.
func (r *Channels) SetChannelActive(ctx context.Context, id ChannelID, active bool, caller Identity) (Channel, error) {
	if err := validateVar("ChannelID", id, ruleID); err != nil {
		return Channel{}, err
	}
	if err := r.authority.Authorize(ctx, caller); err != nil {
		return Channel{}, fmt.Errorf("set channel %s status: %w", id, err)
	}
	if err := r.store.SetChannelActive(ctx, id, active); err != nil {
		if errors.Is(err, ErrNotFound) {
			return Channel{}, ErrChannelNotFound
		}
		return Channel{}, fmt.Errorf("set channel status: %w", err)
	}

	r.log.Debug("channel status changed", zap.String("channel_id", string(id)), zap.Bool("active", active))
	return r.GetChannel(ctx, id)
}

// AssignOperator binds the identity that books on behalf of the channel.
// An empty operator unbinds the channel.
func (r *Channels) AssignOperator(ctx context.Context, id ChannelID, operator, caller Identity) (Channel, error) {
	if err := validateVar("ChannelID", id, ruleID); err != nil {
		return Channel{}, err
	}
	if err := validateVar("Operator", operator, "max=256"); err != nil {
		return Channel{}, err
	}
	if err := r.authority.Authorize(ctx, caller); err != nil {
		return Channel{}, fmt.Errorf("assign operator for channel %s: %w", id, err)
	}
	if err := r.store.SetChannelOperator(ctx, id, operator); err != nil {
		if errors.Is(err, ErrNotFound) {
			return Channel{}, ErrChannelNotFound
		}
		return Channel{}, fmt.Errorf("set channel operator: %w", err)
	}

	r.log.Debug("channel operator assigned", zap.String("channel_id", string(id)), zap.String("operator", string(operator)))
	return r.GetChannel(ctx, id)
}
