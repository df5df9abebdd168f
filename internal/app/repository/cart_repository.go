package repository

import (
	"context"
	"errors"

	"github.com/viznest/viznest-backend/internal/app/model"
	"github.com/viznest/viznest-backend/pkg/logger"
	"gorm.io/gorm"
)

var ErrCartLineNotFound = errors.New("cart line not found")

// CartStore persists cart lines for one kind of owner. The merge rule lives in
// the cart service, so every store only needs these primitives.
type CartStore interface {
	List(ctx context.Context, owner model.CartOwner) ([]model.CartItem, error)
	Insert(ctx context.Context, owner model.CartOwner, item *model.CartItem) error
	SetQuantity(ctx context.Context, owner model.CartOwner, itemID uint, quantity int) error
	Remove(ctx context.Context, owner model.CartOwner, itemID uint) error
	Clear(ctx context.Context, owner model.CartOwner) error
}

// cartRepository is the database-backed store for signed-in users
type cartRepository struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) CartStore {
	return &cartRepository{db: db}
}

func (r *cartRepository) List(ctx context.Context, owner model.CartOwner) ([]model.CartItem, error) {
	var items []model.CartItem
	err := r.db.WithContext(ctx).
		Where("user_id = ?", owner.UserID).
		Order("id ASC").
		Find(&items).Error
	if err != nil {
		logger.Error("Failed to find cart items by user ID in database", err, map[string]interface{}{
			"user_id": owner.UserID,
		})
		return nil, err
	}

	logger.Debug("Cart items found by user ID in database", map[string]interface{}{
		"user_id": owner.UserID,
		"count":   len(items),
	})
	return items, nil
}

func (r *cartRepository) Insert(ctx context.Context, owner model.CartOwner, item *model.CartItem) error {
	item.UserID = owner.UserID
	logger.Debug("Creating cart item in database", map[string]interface{}{
		"user_id":    item.UserID,
		"product_id": item.ProductID,
		"quantity":   item.Quantity,
		"color":      item.SelectedColor,
		"material":   item.SelectedMaterial,
	})

	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		logger.Error("Failed to create cart item in database", err, map[string]interface{}{
			"user_id":    item.UserID,
			"product_id": item.ProductID,
		})
		return err
	}
	return nil
}

func (r *cartRepository) SetQuantity(ctx context.Context, owner model.CartOwner, itemID uint, quantity int) error {
	logger.Debug("Updating cart item quantity in database", map[string]interface{}{
		"cart_item_id": itemID,
		"user_id":      owner.UserID,
		"quantity":     quantity,
	})

	result := r.db.WithContext(ctx).Model(&model.CartItem{}).
		Where("id = ? AND user_id = ?", itemID, owner.UserID).
		Update("quantity", quantity)
	if result.Error != nil {
		logger.Error("Failed to update cart item in database", result.Error, map[string]interface{}{
			"cart_item_id": itemID,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCartLineNotFound
	}
	return nil
}

func (r *cartRepository) Remove(ctx context.Context, owner model.CartOwner, itemID uint) error {
	logger.Debug("Deleting cart item from database", map[string]interface{}{
		"cart_item_id": itemID,
		"user_id":      owner.UserID,
	})

	result := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", itemID, owner.UserID).
		Delete(&model.CartItem{})
	if result.Error != nil {
		logger.Error("Failed to delete cart item from database", result.Error, map[string]interface{}{
			"cart_item_id": itemID,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCartLineNotFound
	}
	return nil
}

func (r *cartRepository) Clear(ctx context.Context, owner model.CartOwner) error {
	logger.Debug("Deleting cart items by user ID from database", map[string]interface{}{
		"user_id": owner.UserID,
	})

	if err := r.db.WithContext(ctx).Where("user_id = ?", owner.UserID).Delete(&model.CartItem{}).Error; err != nil {
		logger.Error("Failed to delete cart items by user ID from database", err, map[string]interface{}{
			"user_id": owner.UserID,
		})
		return err
	}
	return nil
}
