package service

import (
	"context"
	"errors"
	"strings"

	"github.com/viznest/viznest-backend/internal/app/model"
	"github.com/viznest/viznest-backend/internal/app/repository"
	"github.com/viznest/viznest-backend/pkg/logger"
	"github.com/viznest/viznest-backend/pkg/util"
	"gorm.io/gorm"
)

// CartView is a cart as returned to clients
type CartView struct {
	Items     []model.CartItem `json:"items"`
	ItemCount int              `json:"item_count"`
	Total     float64          `json:"total"`
}

type AddToCartInput struct {
	ProductID         uint
	Quantity          int
	SelectedColor     string
	SelectedColorName string
	SelectedMaterial  string
}

type CartService interface {
	GetCart(ctx context.Context, owner model.CartOwner) (*CartView, error)
	AddToCart(ctx context.Context, owner model.CartOwner, input AddToCartInput) (*CartView, error)
	UpdateQuantity(ctx context.Context, owner model.CartOwner, itemID uint, quantity int) (*CartView, error)
	RemoveFromCart(ctx context.Context, owner model.CartOwner, itemID uint) (*CartView, error)
	ClearCart(ctx context.Context, owner model.CartOwner) error
	MergeGuestCart(ctx context.Context, guestID string, userID uint) (*CartView, error)
}

type cartService struct {
	userStore   repository.CartStore
	guestStore  repository.CartStore
	productRepo repository.ProductRepository
}

// NewCartService wires the user and guest stores. guestStore may be nil when
// Redis is disabled; guest owners then get ErrGuestCartUnavailable.
func NewCartService(
	userStore repository.CartStore,
	guestStore repository.CartStore,
	productRepo repository.ProductRepository,
) CartService {
	return &cartService{
		userStore:   userStore,
		guestStore:  guestStore,
		productRepo: productRepo,
	}
}

func (s *cartService) store(owner model.CartOwner) (repository.CartStore, error) {
	if !owner.Valid() {
		return nil, ErrGuestCartUnavailable
	}
	if !owner.IsGuest() {
		return s.userStore, nil
	}
	if s.guestStore == nil {
		return nil, ErrGuestCartUnavailable
	}
	return s.guestStore, nil
}

func ownerFields(owner model.CartOwner) map[string]interface{} {
	return map[string]interface{}{
		"user_id":  owner.UserID,
		"guest_id": owner.GuestID,
	}
}

func (s *cartService) view(ctx context.Context, store repository.CartStore, owner model.CartOwner) (*CartView, error) {
	items, err := store.List(ctx, owner)
	if err != nil {
		return nil, err
	}
	count := 0
	for _, it := range items {
		count += it.Quantity
	}
	if items == nil {
		items = []model.CartItem{}
	}
	return &CartView{
		Items:     items,
		ItemCount: count,
		Total:     CartTotal(items).InexactFloat64(),
	}, nil
}

func (s *cartService) GetCart(ctx context.Context, owner model.CartOwner) (*CartView, error) {
	store, err := s.store(owner)
	if err != nil {
		return nil, err
	}
	cart, err := s.view(ctx, store, owner)
	if err != nil {
		logger.Error("Failed to fetch cart", err, ownerFields(owner))
		return nil, err
	}
	return cart, nil
}

// buildLine resolves the product and turns the request into a priced cart line
func (s *cartService) buildLine(input AddToCartInput) (*model.CartItem, error) {
	product, err := s.productRepo.FindByID(input.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	line := &model.CartItem{
		ProductID: product.ID,
		Name:      product.Name,
		Image:     product.Image,
		Mask:      product.MaskImage,
		Quantity:  input.Quantity,
	}

	var material *model.ProductMaterial
	if product.IsCustomizable {
		hex, err := util.NormalizeHexColor(input.SelectedColor)
		if err != nil {
			return nil, ErrInvalidColor
		}
		line.SelectedColor = hex
		if hex != "" {
			line.SelectedColorName = strings.TrimSpace(input.SelectedColorName)
		}

		if name := strings.TrimSpace(input.SelectedMaterial); name != "" {
			m, ok := product.FindMaterial(name)
			if !ok {
				return nil, ErrInvalidMaterial
			}
			material = m
			line.SelectedMaterial = m.Name
		}
	}

	line.Price = UnitPrice(product, material)
	return line, nil
}

// addLine applies the merge rule: a line with the same product, color and
// material gets its quantity bumped, anything else is appended.
func addLine(ctx context.Context, store repository.CartStore, owner model.CartOwner, line *model.CartItem) error {
	existing, err := store.List(ctx, owner)
	if err != nil {
		return err
	}
	for _, it := range existing {
		if it.SameLine(*line) {
			return store.SetQuantity(ctx, owner, it.ID, it.Quantity+line.Quantity)
		}
	}
	line.ID = 0
	return store.Insert(ctx, owner, line)
}

func (s *cartService) AddToCart(ctx context.Context, owner model.CartOwner, input AddToCartInput) (*CartView, error) {
	fields := ownerFields(owner)
	fields["product_id"] = input.ProductID
	fields["quantity"] = input.Quantity
	logger.Info("Adding item to cart", fields)

	if input.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	store, err := s.store(owner)
	if err != nil {
		return nil, err
	}

	line, err := s.buildLine(input)
	if err != nil {
		if !errors.Is(err, ErrProductNotFound) && !errors.Is(err, ErrInvalidColor) && !errors.Is(err, ErrInvalidMaterial) {
			logger.Error("Failed to resolve cart line", err, fields)
		} else {
			logger.Warn("Cannot add to cart", map[string]interface{}{
				"product_id": input.ProductID,
				"reason":     err.Error(),
			})
		}
		return nil, err
	}

	if err := addLine(ctx, store, owner, line); err != nil {
		logger.Error("Failed to add item to cart", err, fields)
		return nil, err
	}

	logger.Info("Item added to cart", map[string]interface{}{
		"product_id": line.ProductID,
		"color":      line.SelectedColor,
		"material":   line.SelectedMaterial,
		"price":      line.Price,
	})
	return s.view(ctx, store, owner)
}

func (s *cartService) UpdateQuantity(ctx context.Context, owner model.CartOwner, itemID uint, quantity int) (*CartView, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	store, err := s.store(owner)
	if err != nil {
		return nil, err
	}

	if err := store.SetQuantity(ctx, owner, itemID, quantity); err != nil {
		if errors.Is(err, repository.ErrCartLineNotFound) {
			return nil, ErrCartItemNotFound
		}
		logger.Error("Failed to update cart item", err, map[string]interface{}{
			"cart_item_id": itemID,
			"quantity":     quantity,
		})
		return nil, err
	}
	return s.view(ctx, store, owner)
}

func (s *cartService) RemoveFromCart(ctx context.Context, owner model.CartOwner, itemID uint) (*CartView, error) {
	store, err := s.store(owner)
	if err != nil {
		return nil, err
	}

	if err := store.Remove(ctx, owner, itemID); err != nil {
		if errors.Is(err, repository.ErrCartLineNotFound) {
			logger.Warn("Cart item not found for removal", map[string]interface{}{
				"cart_item_id": itemID,
			})
			return nil, ErrCartItemNotFound
		}
		logger.Error("Failed to remove cart item", err, map[string]interface{}{
			"cart_item_id": itemID,
		})
		return nil, err
	}

	logger.Info("Cart item removed", map[string]interface{}{
		"cart_item_id": itemID,
	})
	return s.view(ctx, store, owner)
}

func (s *cartService) ClearCart(ctx context.Context, owner model.CartOwner) error {
	store, err := s.store(owner)
	if err != nil {
		return err
	}
	if err := store.Clear(ctx, owner); err != nil {
		logger.Error("Failed to clear cart", err, ownerFields(owner))
		return err
	}
	logger.Info("Cart cleared", ownerFields(owner))
	return nil
}

// MergeGuestCart folds the guest's lines into the user's cart with the usual
// merge rule, keeping the guest line prices, then empties the guest cart.
func (s *cartService) MergeGuestCart(ctx context.Context, guestID string, userID uint) (*CartView, error) {
	user := model.CartOwner{UserID: userID}
	if guestID == "" || s.guestStore == nil {
		return s.view(ctx, s.userStore, user)
	}
	guest := model.CartOwner{GuestID: guestID}

	lines, err := s.guestStore.List(ctx, guest)
	if err != nil {
		logger.Error("Failed to read guest cart for merge", err, map[string]interface{}{
			"guest_id": guestID,
			"user_id":  userID,
		})
		return nil, err
	}

	for i := range lines {
		line := lines[i]
		if err := addLine(ctx, s.userStore, user, &line); err != nil {
			logger.Error("Failed to merge guest cart line", err, map[string]interface{}{
				"guest_id":   guestID,
				"user_id":    userID,
				"product_id": line.ProductID,
			})
			return nil, err
		}
	}

	if err := s.guestStore.Clear(ctx, guest); err != nil {
		logger.Error("Failed to clear merged guest cart", err, map[string]interface{}{
			"guest_id": guestID,
		})
		return nil, err
	}

	logger.Info("Guest cart merged", map[string]interface{}{
		"guest_id": guestID,
		"user_id":  userID,
		"lines":    len(lines),
	})
	return s.view(ctx, s.userStore, user)
}
