package service

import (
	"errors"

	"github.com/viznest/viznest-backend/internal/app/model"
	"github.com/viznest/viznest-backend/internal/app/repository"
	"github.com/viznest/viznest-backend/pkg/logger"
	"gorm.io/gorm"
)

type WishlistService interface {
	GetWishlist(userID uint) ([]model.Product, error)
	// Toggle flips membership and reports whether the product is now wishlisted
	Toggle(userID, productID uint) (bool, []model.Product, error)
}

type wishlistService struct {
	wishlistRepo repository.WishlistRepository
	productRepo  repository.ProductRepository
}

func NewWishlistService(wishlistRepo repository.WishlistRepository, productRepo repository.ProductRepository) WishlistService {
	return &wishlistService{
		wishlistRepo: wishlistRepo,
		productRepo:  productRepo,
	}
}

func (s *wishlistService) GetWishlist(userID uint) ([]model.Product, error) {
	items, err := s.wishlistRepo.FindByUserID(userID)
	if err != nil {
		logger.Error("Failed to fetch wishlist", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	products := make([]model.Product, 0, len(items))
	for _, it := range items {
		// product may have been soft deleted since it was saved
		if it.Product.ID == 0 {
			continue
		}
		products = append(products, it.Product)
	}
	return products, nil
}

func (s *wishlistService) Toggle(userID, productID uint) (bool, []model.Product, error) {
	logger.Info("Toggling wishlist item", map[string]interface{}{
		"user_id":    userID,
		"product_id": productID,
	})

	existing, err := s.wishlistRepo.FindByUserAndProduct(userID, productID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil, err
	}

	added := existing == nil
	if added {
		if _, err := s.productRepo.FindByID(productID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return false, nil, ErrProductNotFound
			}
			return false, nil, err
		}
		if err := s.wishlistRepo.Create(&model.WishlistItem{UserID: userID, ProductID: productID}); err != nil {
			logger.Error("Failed to add wishlist item", err, map[string]interface{}{
				"user_id":    userID,
				"product_id": productID,
			})
			return false, nil, err
		}
	} else if err := s.wishlistRepo.Delete(userID, productID); err != nil {
		logger.Error("Failed to remove wishlist item", err, map[string]interface{}{
			"user_id":    userID,
			"product_id": productID,
		})
		return false, nil, err
	}

	products, err := s.GetWishlist(userID)
	if err != nil {
		return false, nil, err
	}
	return added, products, nil
}
