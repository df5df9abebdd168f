package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/viznest/viznest-backend/internal/app/service"
	apperrors "github.com/viznest/viznest-backend/internal/errors"
	"github.com/viznest/viznest-backend/internal/middleware"
)

type CartController struct {
	cartService service.CartService
}

func NewCartController(cartService service.CartService) *CartController {
	return &CartController{
		cartService: cartService,
	}
}

type AddToCartRequest struct {
	ProductID         uint   `json:"product_id" binding:"required"`
	Quantity          int    `json:"quantity" binding:"omitempty,min=1"`
	SelectedColor     string `json:"selected_color" binding:"hexcolor"`
	SelectedColorName string `json:"selected_color_name"`
	SelectedMaterial  string `json:"selected_material"`
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1"`
}

type MergeCartRequest struct {
	GuestSession string `json:"guest_session"`
}

func respondCartError(c *gin.Context, err error, action string) {
	switch {
	case errors.Is(err, service.ErrGuestCartUnavailable):
		apperrors.BadRequest(c, apperrors.CartSessionRequired, "Sign in or send an X-Guest-Session header to use the cart")
	case errors.Is(err, service.ErrProductNotFound):
		apperrors.NotFound(c, apperrors.ProductNotFound, "Product not found")
	case errors.Is(err, service.ErrCartItemNotFound):
		apperrors.NotFound(c, apperrors.CartItemNotFound, "Cart item not found")
	case errors.Is(err, service.ErrInvalidQuantity):
		apperrors.BadRequest(c, apperrors.ValidationInvalidRange, err.Error())
	case errors.Is(err, service.ErrInvalidMaterial):
		apperrors.BadRequest(c, apperrors.ProductInvalidMaterial, err.Error())
	case errors.Is(err, service.ErrInvalidColor):
		apperrors.BadRequest(c, apperrors.ProductInvalidColor, err.Error())
	default:
		middleware.GetLoggerFromContext(c).Error("Failed to "+action, err)
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, action)
	}
}

// GetCart returns the caller's cart, signed in or guest
// GET /api/v1/cart
func (ctrl *CartController) GetCart(c *gin.Context) {
	owner := middleware.GetCartOwner(c)

	cart, err := ctrl.cartService.GetCart(c.Request.Context(), owner)
	if err != nil {
		respondCartError(c, err, "fetch cart")
		return
	}
	c.JSON(http.StatusOK, cart)
}

// AddToCart adds a product line, merging into an identical existing line
// POST /api/v1/cart
func (ctrl *CartController) AddToCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	owner := middleware.GetCartOwner(c)

	var req AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid add to cart request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.RespondWithBindingError(c, err)
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	cart, err := ctrl.cartService.AddToCart(c.Request.Context(), owner, service.AddToCartInput{
		ProductID:         req.ProductID,
		Quantity:          req.Quantity,
		SelectedColor:     req.SelectedColor,
		SelectedColorName: req.SelectedColorName,
		SelectedMaterial:  req.SelectedMaterial,
	})
	if err != nil {
		respondCartError(c, err, "add to cart")
		return
	}

	log.Info("Item added to cart", map[string]interface{}{
		"user_id":    owner.UserID,
		"guest":      owner.IsGuest(),
		"product_id": req.ProductID,
		"quantity":   req.Quantity,
	})
	c.JSON(http.StatusCreated, cart)
}

// UpdateCartItem sets a line's quantity
// PUT /api/v1/cart/:itemId
func (ctrl *CartController) UpdateCartItem(c *gin.Context) {
	itemID, ok := parseIDParam(c, "itemId")
	if !ok {
		return
	}

	var req UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindingError(c, err)
		return
	}

	cart, err := ctrl.cartService.UpdateQuantity(c.Request.Context(), middleware.GetCartOwner(c), itemID, req.Quantity)
	if err != nil {
		respondCartError(c, err, "update cart item")
		return
	}
	c.JSON(http.StatusOK, cart)
}

// RemoveFromCart deletes a line
// DELETE /api/v1/cart/:itemId
func (ctrl *CartController) RemoveFromCart(c *gin.Context) {
	itemID, ok := parseIDParam(c, "itemId")
	if !ok {
		return
	}

	cart, err := ctrl.cartService.RemoveFromCart(c.Request.Context(), middleware.GetCartOwner(c), itemID)
	if err != nil {
		respondCartError(c, err, "remove cart item")
		return
	}
	c.JSON(http.StatusOK, cart)
}

// ClearCart empties the cart
// DELETE /api/v1/cart
func (ctrl *CartController) ClearCart(c *gin.Context) {
	if err := ctrl.cartService.ClearCart(c.Request.Context(), middleware.GetCartOwner(c)); err != nil {
		respondCartError(c, err, "clear cart")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Cart cleared",
	})
}

// MergeCart folds a guest cart into the signed-in user's cart. The guest id
// comes from the body or, failing that, the X-Guest-Session header.
// POST /api/v1/cart/merge
func (ctrl *CartController) MergeCart(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req MergeCartRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			apperrors.RespondWithBindingError(c, err)
			return
		}
	}
	guestID := req.GuestSession
	if guestID == "" {
		guestID = middleware.GetGuestSession(c)
	}
	if guestID == "" {
		apperrors.BadRequest(c, apperrors.CartSessionRequired, "guest_session is required")
		return
	}

	cart, err := ctrl.cartService.MergeGuestCart(c.Request.Context(), guestID, userID)
	if err != nil {
		respondCartError(c, err, "merge cart")
		return
	}

	middleware.GetLoggerFromContext(c).Info("Guest cart merged", map[string]interface{}{
		"user_id":    userID,
		"item_count": cart.ItemCount,
	})
	c.JSON(http.StatusOK, cart)
}
