/*
catalog.go - Capacity catalog

PURPOSE:
  Owns the mapping (property, room category) -> total physical capacity and
  owning identity. The catalog is append-only: categories are created once
  and never updated or deleted, so the owner recorded at creation is the only
  identity that can ever allocate against the category.
*/
package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// CreateRoomCategoryRequest registers a new category. Caller becomes the owner.
type CreateRoomCategoryRequest struct {
	PropertyID     PropertyID     `validate:"required,max=32,printascii"`
	RoomCategoryID RoomCategoryID `validate:"required,max=32,printascii"`
	Name           string         `validate:"max=100,printascii"`
	TotalCapacity  uint32
	Caller         Identity `validate:"required,max=256"`
}

// Catalog is the capacity catalog.
type Catalog struct {
	store CatalogStore
	log   *zap.Logger
	now   func() time.Time
}

func NewCatalog(store CatalogStore, opts Options) *Catalog {
	opts = opts.withDefaults()
	return &Catalog{store: store, log: opts.Logger.Named("catalog"), now: opts.Clock}
}

// CreateRoomCategory registers a category. Fails with ErrDuplicateKey if the
// (property, category) pair already exists.
func (c *Catalog) CreateRoomCategory(ctx context.Context, req CreateRoomCategoryRequest) (RoomCategory, error) {
	if err := validateRequest(req); err != nil {
		return RoomCategory{}, err
	}

	cat := RoomCategory{
		PropertyID:     req.PropertyID,
		RoomCategoryID: req.RoomCategoryID,
		Name:           req.Name,
		TotalCapacity:  req.TotalCapacity,
		Owner:          req.Caller,
		CreatedAt:      c.now().UTC(),
	}
	if err := c.store.InsertRoomCategory(ctx, cat); err != nil {
		if errors.Is(err, ErrDuplicateKey) {
			return RoomCategory{}, fmt.Errorf("room category %s/%s: %w", req.PropertyID, req.RoomCategoryID, ErrDuplicateKey)
		}
		return RoomCategory{}, fmt.Errorf("insert room category: %w", err)
	}

	c.log.Debug("room category created",
		zap.String("property_id", string(cat.PropertyID)),
		zap.String("room_category_id", string(cat.RoomCategoryID)),
		zap.Uint32("total_capacity", cat.TotalCapacity),
		zap.String("owner", string(cat.Owner)),
	)
	return cat, nil
}

// GetRoomCategory is a pure lookup.
func (c *Catalog) GetRoomCategory(ctx context.Context, propertyID PropertyID, categoryID RoomCategoryID) (RoomCategory, error) {
	if err := validateVar("PropertyID", propertyID, ruleID); err != nil {
		return RoomCategory{}, err
	}
	if err := validateVar("RoomCategoryID", categoryID, ruleID); err != nil {
		return RoomCategory{}, err
	}

	cat, err := c.store.GetRoomCategory(ctx, propertyID, categoryID)
	if err != nil {
		return RoomCategory{}, fmt.Errorf("get room category: %w", err)
	}
	if cat == nil {
		return RoomCategory{}, ErrRoomCategoryNotFound
	}
	return *cat, nil
}
