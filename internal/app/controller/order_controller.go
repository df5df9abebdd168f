package controller

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/viznest/viznest-backend/internal/app/model"
	"github.com/viznest/viznest-backend/internal/app/service"
	apperrors "github.com/viznest/viznest-backend/internal/errors"
	"github.com/viznest/viznest-backend/internal/middleware"
)

const (
	pdfContentType  = "application/pdf"
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type OrderController struct {
	orderService service.OrderService
}

func NewOrderController(orderService service.OrderService) *OrderController {
	return &OrderController{
		orderService: orderService,
	}
}

type ShippingAddressRequest struct {
	Street  string `json:"street" binding:"required"`
	City    string `json:"city" binding:"required"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
	Country string `json:"country" binding:"required"`
	Phone   string `json:"phone"`
}

type PaymentResultRequest struct {
	ID           string `json:"id" binding:"required"`
	Status       string `json:"status"`
	UpdateTime   string `json:"update_time"`
	EmailAddress string `json:"email_address"`
}

// CreateOrderRequest checks out the caller's cart. Without shipping_address or
// address_id the primary address is used.
type CreateOrderRequest struct {
	ShippingAddress *ShippingAddressRequest `json:"shipping_address"`
	AddressID       *uint                   `json:"address_id"`
	PaymentMethod   string                  `json:"payment_method" binding:"required"`
	PaymentResult   PaymentResultRequest    `json:"payment_result" binding:"required"`
}

type UpdateOrderStatusRequest struct {
	Status model.OrderStatus `json:"status" binding:"required,orderstatus"`
}

func respondOrderError(c *gin.Context, err error, action string) {
	switch {
	case errors.Is(err, service.ErrOrderNotFound):
		apperrors.NotFound(c, apperrors.OrderNotFound, "Order not found")
	case errors.Is(err, service.ErrForbidden):
		apperrors.RespondWithError(c, http.StatusForbidden, apperrors.AuthzOwnerOnly, "Not authorized to view this order")
	case errors.Is(err, service.ErrCartEmpty):
		apperrors.BadRequest(c, apperrors.CartEmpty, "No order items")
	case errors.Is(err, service.ErrPaymentRequired):
		apperrors.BadRequest(c, apperrors.OrderPaymentRequired, err.Error())
	case errors.Is(err, service.ErrShippingRequired):
		apperrors.BadRequest(c, apperrors.OrderShippingRequired, err.Error())
	case errors.Is(err, service.ErrAddressNotFound):
		apperrors.NotFound(c, apperrors.AddressNotFound, "Address not found")
	case errors.Is(err, service.ErrInvalidOrderStatus):
		apperrors.BadRequest(c, apperrors.OrderInvalidStatus, err.Error())
	case errors.Is(err, service.ErrOrderNotDelivered):
		apperrors.BadRequest(c, apperrors.OrderNotDelivered, err.Error())
	default:
		middleware.GetLoggerFromContext(c).Error("Failed to "+action, err)
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, action)
	}
}

// CreateOrder turns the caller's cart into a paid order
// POST /api/v1/orders
func (ctrl *OrderController) CreateOrder(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid order creation request", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
		apperrors.RespondWithBindingError(c, err)
		return
	}

	input := service.CreateOrderInput{
		AddressID:     req.AddressID,
		PaymentMethod: req.PaymentMethod,
		PaymentResult: model.PaymentResult{
			ID:           req.PaymentResult.ID,
			Status:       req.PaymentResult.Status,
			UpdateTime:   req.PaymentResult.UpdateTime,
			EmailAddress: req.PaymentResult.EmailAddress,
		},
	}
	if s := req.ShippingAddress; s != nil {
		input.ShippingAddress = &model.ShippingAddress{
			Street:  s.Street,
			City:    s.City,
			State:   s.State,
			Zip:     s.Zip,
			Country: s.Country,
			Phone:   s.Phone,
		}
	}

	order, err := ctrl.orderService.CreateOrder(userID, input)
	if err != nil {
		respondOrderError(c, err, "create order")
		return
	}

	log.Info("Order created successfully", map[string]interface{}{
		"order_id":    order.ID,
		"user_id":     userID,
		"total_price": order.TotalPrice,
	})
	c.JSON(http.StatusCreated, gin.H{
		"message": "Order created successfully",
		"order":   order,
	})
}

// GetMyOrders returns the caller's orders, newest first
// GET /api/v1/orders/myorders
func (ctrl *OrderController) GetMyOrders(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	orders, err := ctrl.orderService.GetMyOrders(userID)
	if err != nil {
		respondOrderError(c, err, "fetch orders")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"orders": orders,
		"count":  len(orders),
	})
}

// GetAllOrders returns every order (Admin only)
// GET /api/v1/orders/all
func (ctrl *OrderController) GetAllOrders(c *gin.Context) {
	orders, err := ctrl.orderService.GetAllOrders()
	if err != nil {
		respondOrderError(c, err, "fetch orders")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"orders": orders,
		"count":  len(orders),
	})
}

// ExportOrders downloads every order as a spreadsheet (Admin only)
// GET /api/v1/orders/export
func (ctrl *OrderController) ExportOrders(c *gin.Context) {
	data, err := ctrl.orderService.ExportOrders()
	if err != nil {
		respondOrderError(c, err, "export orders")
		return
	}

	filename := fmt.Sprintf("orders-%s.xlsx", time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}

// GetOrderByID returns an order to its owner or an admin
// GET /api/v1/orders/:id
func (ctrl *OrderController) GetOrderByID(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	order, err := ctrl.orderService.GetOrder(actorFrom(c), orderID)
	if err != nil {
		respondOrderError(c, err, "fetch order")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"order": order,
	})
}

// UpdateOrderStatus sets an order's status (Admin only)
// PUT /api/v1/orders/:id
func (ctrl *OrderController) UpdateOrderStatus(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid order status update request", map[string]interface{}{
			"order_id": orderID,
			"error":    err.Error(),
		})
		apperrors.RespondWithBindingError(c, err)
		return
	}

	order, err := ctrl.orderService.UpdateStatus(orderID, req.Status)
	if err != nil {
		respondOrderError(c, err, "update order status")
		return
	}

	log.Info("Order status updated", map[string]interface{}{
		"order_id": orderID,
		"status":   order.Status,
	})
	c.JSON(http.StatusOK, gin.H{
		"message": "Order status updated successfully",
		"order":   order,
	})
}

// GetInvoice renders the PDF invoice of a delivered order
// GET /api/v1/orders/:id/invoice
func (ctrl *OrderController) GetInvoice(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	pdf, err := ctrl.orderService.Invoice(actorFrom(c), orderID)
	if err != nil {
		respondOrderError(c, err, "render invoice")
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`inline; filename="invoice-%d.pdf"`, orderID))
	c.Data(http.StatusOK, pdfContentType, pdf)
}
