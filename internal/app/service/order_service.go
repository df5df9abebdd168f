package service

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/viznest/viznest-backend/internal/app/model"
	"github.com/viznest/viznest-backend/internal/app/repository"
	"github.com/viznest/viznest-backend/internal/report"
	"github.com/viznest/viznest-backend/pkg/logger"
	"gorm.io/gorm"
)

const OrderEventStatusChanged = "order_status_changed"

// OrderEvent is pushed to the order owner's live sessions
type OrderEvent struct {
	Type        string            `json:"type"`
	OrderID     uint              `json:"order_id"`
	Status      model.OrderStatus `json:"status"`
	DeliveredAt *time.Time        `json:"delivered_at,omitempty"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

type OrderNotifier interface {
	PublishOrderEvent(userID uint, event OrderEvent)
}

type CreateOrderInput struct {
	// ShippingAddress wins over AddressID; with neither the primary address is used
	ShippingAddress *model.ShippingAddress
	AddressID       *uint
	PaymentMethod   string
	PaymentResult   model.PaymentResult
}

// TotalMismatch is an order whose stored total differs from the sum of its items
type TotalMismatch struct {
	OrderID     uint    `json:"order_id"`
	StoredTotal float64 `json:"stored_total"`
	ItemsTotal  float64 `json:"items_total"`
}

type OrderService interface {
	CreateOrder(userID uint, input CreateOrderInput) (*model.Order, error)
	GetMyOrders(userID uint) ([]model.Order, error)
	GetOrder(actor Actor, orderID uint) (*model.Order, error)
	GetAllOrders() ([]model.Order, error)
	UpdateStatus(orderID uint, status model.OrderStatus) (*model.Order, error)
	Invoice(actor Actor, orderID uint) ([]byte, error)
	ExportOrders() ([]byte, error)
	AuditTotals() ([]TotalMismatch, error)
}

type orderService struct {
	orderRepo   repository.OrderRepository
	addressRepo repository.AddressRepository
	notifier    OrderNotifier
	now         func() time.Time
}

// NewOrderService builds the service. notifier may be nil.
func NewOrderService(
	orderRepo repository.OrderRepository,
	addressRepo repository.AddressRepository,
	notifier OrderNotifier,
) OrderService {
	return &orderService{
		orderRepo:   orderRepo,
		addressRepo: addressRepo,
		notifier:    notifier,
		now:         time.Now,
	}
}

func (s *orderService) resolveShipping(userID uint, input CreateOrderInput) (model.ShippingAddress, error) {
	if a := input.ShippingAddress; a != nil && strings.TrimSpace(a.Street) != "" {
		return *a, nil
	}

	if input.AddressID != nil {
		address, err := s.addressRepo.FindByID(*input.AddressID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return model.ShippingAddress{}, ErrAddressNotFound
			}
			return model.ShippingAddress{}, err
		}
		if address.UserID != userID {
			return model.ShippingAddress{}, ErrAddressNotFound
		}
		return address.Snapshot(), nil
	}

	primary, err := s.addressRepo.FindPrimary(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.ShippingAddress{}, ErrShippingRequired
		}
		return model.ShippingAddress{}, err
	}
	return primary.Snapshot(), nil
}

func (s *orderService) CreateOrder(userID uint, input CreateOrderInput) (*model.Order, error) {
	logger.Info("Creating order", map[string]interface{}{
		"user_id":        userID,
		"payment_method": input.PaymentMethod,
		"payment_id":     input.PaymentResult.ID,
	})

	if strings.TrimSpace(input.PaymentResult.ID) == "" {
		return nil, ErrPaymentRequired
	}
	shipping, err := s.resolveShipping(userID, input)
	if err != nil {
		logger.Warn("Order rejected: no usable shipping address", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
		return nil, err
	}

	paidAt := s.now()
	order, err := s.orderRepo.CreateFromCart(userID, func(lines []model.CartItem) (*model.Order, error) {
		items := make([]model.OrderItem, 0, len(lines))
		for _, l := range lines {
			items = append(items, l.ToOrderItem())
		}
		return &model.Order{
			ShippingAddress: shipping,
			PaymentMethod:   input.PaymentMethod,
			PaymentResult:   input.PaymentResult,
			TotalPrice:      CartTotal(lines).InexactFloat64(),
			Status:          model.OrderStatusProcessing,
			IsPaid:          true,
			PaidAt:          &paidAt,
			OrderItems:      items,
		}, nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrEmptyCart) {
			logger.Warn("Order rejected: cart is empty", map[string]interface{}{
				"user_id": userID,
			})
			return nil, ErrCartEmpty
		}
		logger.Error("Failed to create order", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	logger.Info("Order created", map[string]interface{}{
		"order_id":    order.ID,
		"user_id":     userID,
		"total_price": order.TotalPrice,
	})
	return order, nil
}

func (s *orderService) GetMyOrders(userID uint) ([]model.Order, error) {
	orders, err := s.orderRepo.FindByUserID(userID)
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []model.Order{}
	}
	return orders, nil
}

func (s *orderService) GetOrder(actor Actor, orderID uint) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if !actor.CanAccess(order.UserID) {
		logger.Warn("Order access denied", map[string]interface{}{
			"user_id":  actor.UserID,
			"order_id": orderID,
		})
		return nil, ErrForbidden
	}
	return order, nil
}

func (s *orderService) GetAllOrders() ([]model.Order, error) {
	orders, err := s.orderRepo.FindAll()
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []model.Order{}
	}
	return orders, nil
}

// UpdateStatus sets any of the four states; there is no transition graph.
// Moving to Delivered stamps delivered_at; any other status clears it.
func (s *orderService) UpdateStatus(orderID uint, status model.OrderStatus) (*model.Order, error) {
	logger.Info("Updating order status", map[string]interface{}{
		"order_id": orderID,
		"status":   status,
	})

	if !status.Valid() {
		return nil, ErrInvalidOrderStatus
	}

	var deliveredAt *time.Time
	if status == model.OrderStatusDelivered {
		now := s.now()
		deliveredAt = &now
	}
	if err := s.orderRepo.UpdateStatus(orderID, status, deliveredAt); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	order, err := s.orderRepo.FindByID(orderID)
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.PublishOrderEvent(order.UserID, OrderEvent{
			Type:        OrderEventStatusChanged,
			OrderID:     order.ID,
			Status:      order.Status,
			DeliveredAt: order.DeliveredAt,
			UpdatedAt:   order.UpdatedAt,
		})
	}
	return order, nil
}

func (s *orderService) Invoice(actor Actor, orderID uint) ([]byte, error) {
	order, err := s.GetOrder(actor, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != model.OrderStatusDelivered {
		return nil, ErrOrderNotDelivered
	}

	pdf, err := report.Invoice(order)
	if err != nil {
		logger.Error("Failed to render invoice", err, map[string]interface{}{
			"order_id": orderID,
		})
		return nil, err
	}
	return pdf, nil
}

func (s *orderService) ExportOrders() ([]byte, error) {
	orders, err := s.orderRepo.FindAll()
	if err != nil {
		return nil, err
	}
	data, err := report.ExportOrders(orders)
	if err != nil {
		logger.Error("Failed to export orders", err, map[string]interface{}{
			"orders": len(orders),
		})
		return nil, err
	}
	logger.Info("Orders exported", map[string]interface{}{
		"orders": len(orders),
		"bytes":  len(data),
	})
	return data, nil
}

// AuditTotals reports orders whose stored total no longer matches their items.
// Totals are never rewritten here.
func (s *orderService) AuditTotals() ([]TotalMismatch, error) {
	orders, err := s.orderRepo.FindAll()
	if err != nil {
		return nil, err
	}

	var mismatches []TotalMismatch
	for _, o := range orders {
		items := OrderItemsTotal(o.OrderItems)
		stored := decimal.NewFromFloat(o.TotalPrice).Round(priceScale)
		if !stored.Equal(items) {
			mismatches = append(mismatches, TotalMismatch{
				OrderID:     o.ID,
				StoredTotal: o.TotalPrice,
				ItemsTotal:  items.InexactFloat64(),
			})
		}
	}
	return mismatches, nil
}
