package repository

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/viznest/viznest-backend/internal/app/model"
	"github.com/viznest/viznest-backend/pkg/logger"
)

const (
	guestCartKeyPrefix = "cart:guest:"
	guestCartSeqKey    = "cart:guest:seq"
)

// guestCartRepository keeps anonymous carts in a Redis hash per session,
// field = line id, value = JSON line. The whole cart expires after ttl of inactivity.
type guestCartRepository struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewGuestCartRepository(rdb *redis.Client, ttl time.Duration) CartStore {
	return &guestCartRepository{rdb: rdb, ttl: ttl}
}

func guestCartKey(owner model.CartOwner) string {
	return guestCartKeyPrefix + owner.GuestID
}

func (r *guestCartRepository) List(ctx context.Context, owner model.CartOwner) ([]model.CartItem, error) {
	raw, err := r.rdb.HGetAll(ctx, guestCartKey(owner)).Result()
	if err != nil {
		logger.Error("Failed to read guest cart", err, map[string]interface{}{
			"guest_id": owner.GuestID,
		})
		return nil, err
	}

	items := make([]model.CartItem, 0, len(raw))
	for field, value := range raw {
		var item model.CartItem
		if err := json.Unmarshal([]byte(value), &item); err != nil {
			logger.Warn("Dropping unreadable guest cart line", map[string]interface{}{
				"guest_id": owner.GuestID,
				"field":    field,
			})
			continue
		}
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

func (r *guestCartRepository) write(ctx context.Context, owner model.CartOwner, item *model.CartItem) error {
	payload, err := json.Marshal(item)
	if err != nil {
		return err
	}
	key := guestCartKey(owner)
	pipe := r.rdb.TxPipeline()
	pipe.HSet(ctx, key, strconv.FormatUint(uint64(item.ID), 10), payload)
	pipe.Expire(ctx, key, r.ttl)
	_, err = pipe.Exec(ctx)
	return err
}

func (r *guestCartRepository) read(ctx context.Context, owner model.CartOwner, itemID uint) (*model.CartItem, error) {
	value, err := r.rdb.HGet(ctx, guestCartKey(owner), strconv.FormatUint(uint64(itemID), 10)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCartLineNotFound
	}
	if err != nil {
		return nil, err
	}
	var item model.CartItem
	if err := json.Unmarshal([]byte(value), &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *guestCartRepository) Insert(ctx context.Context, owner model.CartOwner, item *model.CartItem) error {
	id, err := r.rdb.Incr(ctx, guestCartSeqKey).Result()
	if err != nil {
		logger.Error("Failed to allocate guest cart line id", err)
		return err
	}

	now := time.Now()
	item.ID = uint(id)
	item.UserID = 0
	item.CreatedAt = now
	item.UpdatedAt = now

	if err := r.write(ctx, owner, item); err != nil {
		logger.Error("Failed to write guest cart line", err, map[string]interface{}{
			"guest_id":   owner.GuestID,
			"product_id": item.ProductID,
		})
		return err
	}

	logger.Debug("Guest cart line created", map[string]interface{}{
		"guest_id":     owner.GuestID,
		"cart_item_id": item.ID,
	})
	return nil
}

func (r *guestCartRepository) SetQuantity(ctx context.Context, owner model.CartOwner, itemID uint, quantity int) error {
	item, err := r.read(ctx, owner, itemID)
	if err != nil {
		return err
	}
	item.Quantity = quantity
	item.UpdatedAt = time.Now()
	return r.write(ctx, owner, item)
}

func (r *guestCartRepository) Remove(ctx context.Context, owner model.CartOwner, itemID uint) error {
	n, err := r.rdb.HDel(ctx, guestCartKey(owner), strconv.FormatUint(uint64(itemID), 10)).Result()
	if err != nil {
		logger.Error("Failed to delete guest cart line", err, map[string]interface{}{
			"guest_id":     owner.GuestID,
			"cart_item_id": itemID,
		})
		return err
	}
	if n == 0 {
		return ErrCartLineNotFound
	}
	return nil
}

func (r *guestCartRepository) Clear(ctx context.Context, owner model.CartOwner) error {
	if err := r.rdb.Del(ctx, guestCartKey(owner)).Err(); err != nil {
		logger.Error("Failed to clear guest cart", err, map[string]interface{}{
			"guest_id": owner.GuestID,
		})
		return err
	}
	return nil
}
