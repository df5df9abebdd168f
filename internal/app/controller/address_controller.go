package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/viznest/viznest-backend/internal/app/service"
	apperrors "github.com/viznest/viznest-backend/internal/errors"
	"github.com/viznest/viznest-backend/internal/middleware"
)

type AddressController struct {
	addressService service.AddressService
}

func NewAddressController(addressService service.AddressService) *AddressController {
	return &AddressController{
		addressService: addressService,
	}
}

type AddressRequest struct {
	Street    string `json:"street" binding:"required"`
	City      string `json:"city" binding:"required"`
	State     string `json:"state"`
	Zip       string `json:"zip"`
	Country   string `json:"country" binding:"required"`
	Phone     string `json:"phone"`
	IsPrimary bool   `json:"is_primary"`
}

func (r AddressRequest) input() service.AddressInput {
	return service.AddressInput{
		Street:    r.Street,
		City:      r.City,
		State:     r.State,
		Zip:       r.Zip,
		Country:   r.Country,
		Phone:     r.Phone,
		IsPrimary: r.IsPrimary,
	}
}

func respondAddressError(c *gin.Context, err error, action string) {
	switch {
	case errors.Is(err, service.ErrAddressNotFound):
		apperrors.NotFound(c, apperrors.AddressNotFound, "Address not found")
	case errors.Is(err, service.ErrForbidden):
		apperrors.RespondWithError(c, http.StatusForbidden, apperrors.AuthzOwnerOnly, "Not authorized to modify this address")
	default:
		middleware.GetLoggerFromContext(c).Error("Failed to "+action, err)
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, action)
	}
}

// ListAddresses returns the user's addresses, primary first
// GET /api/v1/auth/address
func (ctrl *AddressController) ListAddresses(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	addresses, err := ctrl.addressService.ListAddresses(userID)
	if err != nil {
		respondAddressError(c, err, "list addresses")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"addresses": addresses,
		"count":     len(addresses),
	})
}

// AddAddress adds a shipping address
// POST /api/v1/auth/address
func (ctrl *AddressController) AddAddress(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req AddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid address request", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
		apperrors.RespondWithBindingError(c, err)
		return
	}

	address, err := ctrl.addressService.AddAddress(userID, req.input())
	if err != nil {
		respondAddressError(c, err, "create address")
		return
	}

	log.Info("Address added successfully", map[string]interface{}{
		"user_id":    userID,
		"address_id": address.ID,
		"is_primary": address.IsPrimary,
	})
	c.JSON(http.StatusCreated, gin.H{
		"message": "Address added successfully",
		"address": address,
	})
}

// UpdateAddress replaces an address owned by the user
// PUT /api/v1/auth/address/:id
func (ctrl *AddressController) UpdateAddress(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	addressID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req AddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid address update request", map[string]interface{}{
			"address_id": addressID,
			"error":      err.Error(),
		})
		apperrors.RespondWithBindingError(c, err)
		return
	}

	address, err := ctrl.addressService.UpdateAddress(userID, addressID, req.input())
	if err != nil {
		respondAddressError(c, err, "update address")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Address updated successfully",
		"address": address,
	})
}

// DeleteAddress removes an address owned by the user
// DELETE /api/v1/auth/address/:id
func (ctrl *AddressController) DeleteAddress(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	addressID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := ctrl.addressService.DeleteAddress(userID, addressID); err != nil {
		respondAddressError(c, err, "delete address")
		return
	}

	middleware.GetLoggerFromContext(c).Info("Address deleted successfully", map[string]interface{}{
		"user_id":    userID,
		"address_id": addressID,
	})
	c.JSON(http.StatusOK, gin.H{
		"message": "Address deleted successfully",
	})
}

// SetPrimary makes the address the user's primary one
// PUT /api/v1/auth/address/:id/primary
func (ctrl *AddressController) SetPrimary(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	addressID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	address, err := ctrl.addressService.SetPrimary(userID, addressID)
	if err != nil {
		respondAddressError(c, err, "set primary address")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Primary address updated",
		"address": address,
	})
}
