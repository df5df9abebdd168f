package service

import (
	"errors"
	"strings"

	"github.com/viznest/viznest-backend/internal/app/model"
	"github.com/viznest/viznest-backend/internal/app/repository"
	"github.com/viznest/viznest-backend/pkg/logger"
	"gorm.io/gorm"
)

const (
	minRating = 1
	maxRating = 5
)

type ReviewInput struct {
	Rating  int
	Comment string
}

type ReviewService interface {
	AddReview(actor Actor, productID uint, input ReviewInput) (*model.Review, error)
	EditReview(actor Actor, productID, reviewID uint, input ReviewInput) (*model.Review, error)
	DeleteReview(actor Actor, productID, reviewID uint) error
	GetProductReviews(productID uint) ([]model.Review, error)
}

type reviewService struct {
	reviewRepo  repository.ReviewRepository
	productRepo repository.ProductRepository
	userRepo    repository.UserRepository
}

func NewReviewService(
	reviewRepo repository.ReviewRepository,
	productRepo repository.ProductRepository,
	userRepo repository.UserRepository,
) ReviewService {
	return &reviewService{
		reviewRepo:  reviewRepo,
		productRepo: productRepo,
		userRepo:    userRepo,
	}
}

func validRating(rating int) bool {
	return rating >= minRating && rating <= maxRating
}

func (s *reviewService) ensureProduct(productID uint) error {
	if _, err := s.productRepo.FindByID(productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProductNotFound
		}
		return err
	}
	return nil
}

// findOnProduct loads a review and checks it belongs to the product in the URL
func (s *reviewService) findOnProduct(productID, reviewID uint) (*model.Review, error) {
	review, err := s.reviewRepo.FindByID(reviewID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, err
	}
	if review.ProductID != productID {
		return nil, ErrReviewNotFound
	}
	return review, nil
}

func (s *reviewService) AddReview(actor Actor, productID uint, input ReviewInput) (*model.Review, error) {
	logger.Info("Adding review", map[string]interface{}{
		"user_id":    actor.UserID,
		"product_id": productID,
		"rating":     input.Rating,
	})

	if !validRating(input.Rating) {
		return nil, ErrInvalidRating
	}
	if err := s.ensureProduct(productID); err != nil {
		return nil, err
	}

	existing, err := s.reviewRepo.FindByProductAndUser(productID, actor.UserID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Error("Failed to check existing review", err, map[string]interface{}{
			"user_id":    actor.UserID,
			"product_id": productID,
		})
		return nil, err
	}
	if existing != nil {
		logger.Warn("Review rejected: product already reviewed", map[string]interface{}{
			"user_id":    actor.UserID,
			"product_id": productID,
		})
		return nil, ErrReviewAlreadyExists
	}

	user, err := s.userRepo.FindByID(actor.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	review := &model.Review{
		ProductID: productID,
		UserID:    actor.UserID,
		Name:      user.Name,
		Rating:    input.Rating,
		Comment:   strings.TrimSpace(input.Comment),
	}
	if err := s.reviewRepo.Create(review); err != nil {
		// lost a race with a concurrent submit from the same user
		if _, findErr := s.reviewRepo.FindByProductAndUser(productID, actor.UserID); findErr == nil {
			return nil, ErrReviewAlreadyExists
		}
		logger.Error("Failed to create review", err, map[string]interface{}{
			"user_id":    actor.UserID,
			"product_id": productID,
		})
		return nil, err
	}

	logger.Info("Review added", map[string]interface{}{
		"review_id":  review.ID,
		"product_id": productID,
	})
	return review, nil
}

func (s *reviewService) EditReview(actor Actor, productID, reviewID uint, input ReviewInput) (*model.Review, error) {
	logger.Info("Editing review", map[string]interface{}{
		"user_id":    actor.UserID,
		"product_id": productID,
		"review_id":  reviewID,
	})

	if !validRating(input.Rating) {
		return nil, ErrInvalidRating
	}
	review, err := s.findOnProduct(productID, reviewID)
	if err != nil {
		return nil, err
	}
	if review.UserID != actor.UserID {
		logger.Warn("Review edit rejected: not the author", map[string]interface{}{
			"user_id":   actor.UserID,
			"review_id": reviewID,
		})
		return nil, ErrForbidden
	}

	review.Rating = input.Rating
	review.Comment = strings.TrimSpace(input.Comment)
	review.IsEdited = true
	if err := s.reviewRepo.Update(review); err != nil {
		logger.Error("Failed to update review", err, map[string]interface{}{
			"review_id": reviewID,
		})
		return nil, err
	}
	return review, nil
}

func (s *reviewService) DeleteReview(actor Actor, productID, reviewID uint) error {
	review, err := s.findOnProduct(productID, reviewID)
	if err != nil {
		return err
	}
	if !actor.CanAccess(review.UserID) {
		logger.Warn("Review delete rejected: not the author", map[string]interface{}{
			"user_id":   actor.UserID,
			"review_id": reviewID,
		})
		return ErrForbidden
	}

	if err := s.reviewRepo.Delete(review); err != nil {
		logger.Error("Failed to delete review", err, map[string]interface{}{
			"review_id": reviewID,
		})
		return err
	}

	logger.Info("Review deleted", map[string]interface{}{
		"review_id":  reviewID,
		"product_id": productID,
		"by_admin":   actor.IsAdmin && actor.UserID != review.UserID,
	})
	return nil
}

func (s *reviewService) GetProductReviews(productID uint) ([]model.Review, error) {
	if err := s.ensureProduct(productID); err != nil {
		return nil, err
	}
	return s.reviewRepo.FindByProductID(productID)
}
