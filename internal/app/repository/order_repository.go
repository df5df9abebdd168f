package repository

import (
	"errors"
	"time"

	"github.com/viznest/viznest-backend/internal/app/model"
	"github.com/viznest/viznest-backend/pkg/logger"
	"gorm.io/gorm"
)

var ErrEmptyCart = errors.New("cart is empty")

// OrderBuilder turns the cart lines read inside the checkout transaction into an order
type OrderBuilder func(lines []model.CartItem) (*model.Order, error)

type OrderRepository interface {
	CreateFromCart(userID uint, build OrderBuilder) (*model.Order, error)
	FindByID(id uint) (*model.Order, error)
	FindByUserID(userID uint) ([]model.Order, error)
	FindAll() ([]model.Order, error)
	UpdateStatus(id uint, status model.OrderStatus, deliveredAt *time.Time) error
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) preloadOrder() *gorm.DB {
	return r.db.Preload("OrderItems", func(db *gorm.DB) *gorm.DB {
		return db.Order("order_items.id ASC")
	})
}

// CreateFromCart snapshots the user's cart into an order. Reading the lines, writing
// the order, bumping products.sold and clearing the cart all commit together.
func (r *orderRepository) CreateFromCart(userID uint, build OrderBuilder) (*model.Order, error) {
	logger.Debug("Creating order from cart in database", map[string]interface{}{
		"user_id": userID,
	})

	var order *model.Order
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var lines []model.CartItem
		if err := tx.Where("user_id = ?", userID).Order("id ASC").Find(&lines).Error; err != nil {
			return err
		}
		if len(lines) == 0 {
			return ErrEmptyCart
		}

		built, err := build(lines)
		if err != nil {
			return err
		}
		built.UserID = userID
		if err := tx.Create(built).Error; err != nil {
			return err
		}

		for _, line := range lines {
			if err := tx.Model(&model.Product{}).
				Where("id = ?", line.ProductID).
				UpdateColumn("sold", gorm.Expr("sold + ?", line.Quantity)).Error; err != nil {
				return err
			}
		}

		if err := tx.Where("user_id = ?", userID).Delete(&model.CartItem{}).Error; err != nil {
			return err
		}
		order = built
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrEmptyCart) {
			logger.Error("Failed to create order from cart in database", err, map[string]interface{}{
				"user_id": userID,
			})
		}
		return nil, err
	}

	logger.Debug("Order created in database", map[string]interface{}{
		"order_id":    order.ID,
		"user_id":     userID,
		"items":       len(order.OrderItems),
		"total_price": order.TotalPrice,
	})
	return order, nil
}

func (r *orderRepository) FindByID(id uint) (*model.Order, error) {
	var order model.Order
	if err := r.preloadOrder().Preload("User").First(&order, id).Error; err != nil {
		logger.Error("Failed to find order by ID in database", err, map[string]interface{}{
			"order_id": id,
		})
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) FindByUserID(userID uint) ([]model.Order, error) {
	var orders []model.Order
	err := r.preloadOrder().
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&orders).Error
	if err != nil {
		logger.Error("Failed to find orders by user ID in database", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	logger.Debug("Orders found by user ID in database", map[string]interface{}{
		"user_id": userID,
		"count":   len(orders),
	})
	return orders, nil
}

func (r *orderRepository) FindAll() ([]model.Order, error) {
	var orders []model.Order
	err := r.preloadOrder().
		Preload("User").
		Order("created_at DESC, id DESC").
		Find(&orders).Error
	if err != nil {
		logger.Error("Failed to find all orders in database", err)
		return nil, err
	}
	return orders, nil
}

func (r *orderRepository) UpdateStatus(id uint, status model.OrderStatus, deliveredAt *time.Time) error {
	logger.Debug("Updating order status in database", map[string]interface{}{
		"order_id": id,
		"status":   status,
	})

	// leaving Delivered clears the delivery stamp
	updates := map[string]interface{}{"status": status, "delivered_at": nil}
	if deliveredAt != nil {
		updates["delivered_at"] = *deliveredAt
	}

	result := r.db.Model(&model.Order{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		logger.Error("Failed to update order status in database", result.Error, map[string]interface{}{
			"order_id": id,
			"status":   status,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
