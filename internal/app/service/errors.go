package service

import "errors"

var (
	ErrForbidden = errors.New("not authorized")

	ErrEmailAlreadyExists  = errors.New("user already exists")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrUserNotFound        = errors.New("user not found")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")

	ErrAddressNotFound = errors.New("address not found")

	ErrProductNotFound    = errors.New("product not found")
	ErrInvalidProduct     = errors.New("invalid product data")
	ErrNotCustomizable    = errors.New("product is not customizable")
	ErrInvalidMaterial    = errors.New("material is not offered for this product")
	ErrInvalidColor       = errors.New("color must be a hex value like #aabbcc")
	ErrPreviewUnavailable = errors.New("product has no mask image")

	ErrReviewNotFound      = errors.New("review not found")
	ErrReviewAlreadyExists = errors.New("product already reviewed")
	ErrInvalidRating       = errors.New("rating must be between 1 and 5")

	ErrCartItemNotFound     = errors.New("cart item not found")
	ErrInvalidQuantity      = errors.New("quantity must be greater than zero")
	ErrGuestCartUnavailable = errors.New("guest carts are not enabled")
	ErrCartEmpty            = errors.New("no order items")

	ErrOrderNotFound      = errors.New("order not found")
	ErrInvalidOrderStatus = errors.New("invalid order status")
	ErrOrderNotDelivered  = errors.New("invoice is only available for delivered orders")
	ErrPaymentRequired    = errors.New("payment result is required")
	ErrShippingRequired   = errors.New("shipping address is required")
)

// Actor is the authenticated caller an operation runs on behalf of
type Actor struct {
	UserID  uint
	IsAdmin bool
}

// CanAccess reports whether the actor may read or act on a resource owned by ownerID
func (a Actor) CanAccess(ownerID uint) bool {
	return a.IsAdmin || (a.UserID != 0 && a.UserID == ownerID)
}
