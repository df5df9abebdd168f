package repository

import (
	"github.com/viznest/viznest-backend/internal/app/model"
	"github.com/viznest/viznest-backend/pkg/logger"
	"gorm.io/gorm"
)

// AddressRepository keeps at most one primary address per user. Every write that
// sets IsPrimary clears the flag on the user's other addresses in the same transaction.
type AddressRepository interface {
	Create(address *model.Address) error
	FindByUserID(userID uint) ([]model.Address, error)
	FindByID(id uint) (*model.Address, error)
	FindPrimary(userID uint) (*model.Address, error)
	Update(address *model.Address) error
	Delete(id uint) error
	SetPrimary(userID, addressID uint) error
}

type addressRepository struct {
	db *gorm.DB
}

func NewAddressRepository(db *gorm.DB) AddressRepository {
	return &addressRepository{db: db}
}

func unsetPrimary(tx *gorm.DB, userID, exceptID uint) error {
	return tx.Model(&model.Address{}).
		Where("user_id = ? AND id <> ? AND is_primary = ?", userID, exceptID, true).
		Update("is_primary", false).Error
}

// Create inserts the address. The user's first address always becomes primary.
func (r *addressRepository) Create(address *model.Address) error {
	logger.Debug("Creating address in database", map[string]interface{}{
		"user_id":    address.UserID,
		"is_primary": address.IsPrimary,
	})

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&model.Address{}).Where("user_id = ?", address.UserID).Count(&existing).Error; err != nil {
			return err
		}
		if existing == 0 {
			address.IsPrimary = true
		}
		if err := tx.Create(address).Error; err != nil {
			return err
		}
		if address.IsPrimary {
			return unsetPrimary(tx, address.UserID, address.ID)
		}
		return nil
	})
	if err != nil {
		logger.Error("Failed to create address in database", err, map[string]interface{}{
			"user_id": address.UserID,
		})
		return err
	}

	logger.Debug("Address created in database", map[string]interface{}{
		"address_id": address.ID,
		"user_id":    address.UserID,
		"is_primary": address.IsPrimary,
	})
	return nil
}

func (r *addressRepository) FindByUserID(userID uint) ([]model.Address, error) {
	var addresses []model.Address
	err := r.db.Where("user_id = ?", userID).
		Order("is_primary DESC, created_at ASC, id ASC").
		Find(&addresses).Error
	if err != nil {
		logger.Error("Failed to find addresses by user ID in database", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	return addresses, nil
}

func (r *addressRepository) FindByID(id uint) (*model.Address, error) {
	var address model.Address
	if err := r.db.First(&address, id).Error; err != nil {
		logger.Error("Failed to find address by ID in database", err, map[string]interface{}{
			"address_id": id,
		})
		return nil, err
	}
	return &address, nil
}

func (r *addressRepository) FindPrimary(userID uint) (*model.Address, error) {
	var address model.Address
	err := r.db.Where("user_id = ? AND is_primary = ?", userID, true).First(&address).Error
	if err != nil {
		return nil, err
	}
	return &address, nil
}

func (r *addressRepository) Update(address *model.Address) error {
	logger.Debug("Updating address in database", map[string]interface{}{
		"address_id": address.ID,
		"user_id":    address.UserID,
		"is_primary": address.IsPrimary,
	})

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(address).Error; err != nil {
			return err
		}
		if address.IsPrimary {
			return unsetPrimary(tx, address.UserID, address.ID)
		}
		return nil
	})
	if err != nil {
		logger.Error("Failed to update address in database", err, map[string]interface{}{
			"address_id": address.ID,
		})
		return err
	}
	return nil
}

// Delete removes the address. Deleting the primary leaves the user without one.
func (r *addressRepository) Delete(id uint) error {
	logger.Debug("Deleting address from database", map[string]interface{}{
		"address_id": id,
	})

	if err := r.db.Delete(&model.Address{}, id).Error; err != nil {
		logger.Error("Failed to delete address from database", err, map[string]interface{}{
			"address_id": id,
		})
		return err
	}
	return nil
}

func (r *addressRepository) SetPrimary(userID, addressID uint) error {
	logger.Debug("Setting primary address", map[string]interface{}{
		"user_id":    userID,
		"address_id": addressID,
	})

	err := r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.Address{}).
			Where("id = ? AND user_id = ?", addressID, userID).
			Update("is_primary", true)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return unsetPrimary(tx, userID, addressID)
	})
	if err != nil {
		logger.Error("Failed to set primary address", err, map[string]interface{}{
			"user_id":    userID,
			"address_id": addressID,
		})
		return err
	}

	logger.Debug("Primary address set successfully", map[string]interface{}{
		"user_id":    userID,
		"address_id": addressID,
	})
	return nil
}
