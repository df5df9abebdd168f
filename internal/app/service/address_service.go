package service

import (
	"errors"
	"strings"

	"github.com/viznest/viznest-backend/internal/app/model"
	"github.com/viznest/viznest-backend/internal/app/repository"
	"github.com/viznest/viznest-backend/pkg/logger"
	"gorm.io/gorm"
)

type AddressInput struct {
	Street    string
	City      string
	State     string
	Zip       string
	Country   string
	Phone     string
	IsPrimary bool
}

type AddressService interface {
	ListAddresses(userID uint) ([]model.Address, error)
	AddAddress(userID uint, input AddressInput) (*model.Address, error)
	UpdateAddress(userID, addressID uint, input AddressInput) (*model.Address, error)
	DeleteAddress(userID, addressID uint) error
	SetPrimary(userID, addressID uint) (*model.Address, error)
}

type addressService struct {
	addressRepo repository.AddressRepository
}

func NewAddressService(addressRepo repository.AddressRepository) AddressService {
	return &addressService{addressRepo: addressRepo}
}

func (in AddressInput) apply(a *model.Address) {
	a.Street = strings.TrimSpace(in.Street)
	a.City = strings.TrimSpace(in.City)
	a.State = strings.TrimSpace(in.State)
	a.Zip = strings.TrimSpace(in.Zip)
	a.Country = strings.TrimSpace(in.Country)
	a.Phone = strings.TrimSpace(in.Phone)
	a.IsPrimary = in.IsPrimary
}

// owned loads an address and checks the caller owns it
func (s *addressService) owned(userID, addressID uint) (*model.Address, error) {
	address, err := s.addressRepo.FindByID(addressID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAddressNotFound
		}
		return nil, err
	}
	if address.UserID != userID {
		logger.Warn("Address access denied", map[string]interface{}{
			"user_id":    userID,
			"address_id": addressID,
		})
		return nil, ErrForbidden
	}
	return address, nil
}

func (s *addressService) ListAddresses(userID uint) ([]model.Address, error) {
	addresses, err := s.addressRepo.FindByUserID(userID)
	if err != nil {
		return nil, err
	}
	if addresses == nil {
		addresses = []model.Address{}
	}
	return addresses, nil
}

func (s *addressService) AddAddress(userID uint, input AddressInput) (*model.Address, error) {
	logger.Info("Adding address", map[string]interface{}{
		"user_id":    userID,
		"is_primary": input.IsPrimary,
	})

	address := &model.Address{UserID: userID}
	input.apply(address)
	if err := s.addressRepo.Create(address); err != nil {
		logger.Error("Failed to add address", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	return address, nil
}

// UpdateAddress overwrites the fields. Clearing IsPrimary on the primary
// address leaves the user without one.
func (s *addressService) UpdateAddress(userID, addressID uint, input AddressInput) (*model.Address, error) {
	address, err := s.owned(userID, addressID)
	if err != nil {
		return nil, err
	}

	input.apply(address)
	if err := s.addressRepo.Update(address); err != nil {
		logger.Error("Failed to update address", err, map[string]interface{}{
			"address_id": addressID,
		})
		return nil, err
	}
	return address, nil
}

func (s *addressService) DeleteAddress(userID, addressID uint) error {
	if _, err := s.owned(userID, addressID); err != nil {
		return err
	}
	if err := s.addressRepo.Delete(addressID); err != nil {
		return err
	}
	logger.Info("Address deleted", map[string]interface{}{
		"user_id":    userID,
		"address_id": addressID,
	})
	return nil
}

func (s *addressService) SetPrimary(userID, addressID uint) (*model.Address, error) {
	address, err := s.owned(userID, addressID)
	if err != nil {
		return nil, err
	}
	if err := s.addressRepo.SetPrimary(userID, addressID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAddressNotFound
		}
		return nil, err
	}
	address.IsPrimary = true
	return address, nil
}
