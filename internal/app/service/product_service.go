package service

import (
	"context"
	"errors"
	"image"
	"strings"

	"github.com/viznest/viznest-backend/internal/app/model"
	"github.com/viznest/viznest-backend/internal/app/repository"
	"github.com/viznest/viznest-backend/internal/preview"
	"github.com/viznest/viznest-backend/internal/storage"
	"github.com/viznest/viznest-backend/pkg/logger"
	"github.com/viznest/viznest-backend/pkg/util"
	"gorm.io/gorm"
)

const (
	productFolder = "products"
	maskFolder    = "products/masks"
	galleryFolder = "products/gallery"
)

// ProductInput carries the editable product fields. Image URLs given here are
// used as-is; uploaded files in ProductFiles take precedence.
type ProductInput struct {
	Name           string
	Description    string
	Price          float64
	Category       string
	Image          string
	MaskImage      string
	GalleryImages  []string
	ReplaceGallery bool
	IsCustomizable bool
	StockQuantity  int
	Materials      []model.ProductMaterial
	Details        []model.ProductDetail
}

type ProductFiles struct {
	Image   *FileUpload
	Mask    *FileUpload
	Gallery []FileUpload
}

type ProductList struct {
	Products []model.Product `json:"products"`
	Total    int64           `json:"total"`
	Limit    int             `json:"limit"`
	Offset   int             `json:"offset"`
}

type ProductService interface {
	ListProducts(filter repository.ProductFilter) (*ProductList, error)
	GetProduct(id uint) (*model.Product, error)
	ListCategories() ([]string, error)
	CreateProduct(ctx context.Context, input ProductInput, files ProductFiles) (*model.Product, error)
	UpdateProduct(ctx context.Context, id uint, input ProductInput, files ProductFiles) (*model.Product, error)
	DeleteProduct(id uint) error
	// Preview renders the product image tinted with color through its mask, as PNG
	Preview(ctx context.Context, id uint, color string) ([]byte, error)
}

type productService struct {
	productRepo repository.ProductRepository
	store       storage.Storage
	maxUpload   int64
}

func NewProductService(productRepo repository.ProductRepository, store storage.Storage, maxUpload int64) ProductService {
	return &productService{
		productRepo: productRepo,
		store:       store,
		maxUpload:   maxUpload,
	}
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

func (s *productService) ListProducts(filter repository.ProductFilter) (*ProductList, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultPageSize
	}
	if filter.Limit > maxPageSize {
		filter.Limit = maxPageSize
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	filter.Search = strings.TrimSpace(filter.Search)

	products, total, err := s.productRepo.FindWithFilter(filter)
	if err != nil {
		logger.Error("Failed to list products", err, map[string]interface{}{
			"category": filter.Category,
			"search":   filter.Search,
		})
		return nil, err
	}
	if products == nil {
		products = []model.Product{}
	}

	return &ProductList{
		Products: products,
		Total:    total,
		Limit:    filter.Limit,
		Offset:   filter.Offset,
	}, nil
}

func (s *productService) GetProduct(id uint) (*model.Product, error) {
	product, err := s.productRepo.FindByIDWithReviews(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Product not found", map[string]interface{}{
				"product_id": id,
			})
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return product, nil
}

func (s *productService) ListCategories() ([]string, error) {
	categories, err := s.productRepo.ListCategories()
	if err != nil {
		return nil, err
	}
	if categories == nil {
		categories = []string{}
	}
	return categories, nil
}

func validateProductInput(input ProductInput) error {
	if strings.TrimSpace(input.Name) == "" || input.Price < 0 || input.StockQuantity < 0 {
		return ErrInvalidProduct
	}
	seen := make(map[string]bool, len(input.Materials))
	for _, m := range input.Materials {
		name := strings.ToLower(strings.TrimSpace(m.Name))
		if name == "" || m.ExtraPrice < 0 || seen[name] {
			return ErrInvalidProduct
		}
		seen[name] = true
	}
	for _, d := range input.Details {
		if strings.TrimSpace(d.Label) == "" {
			return ErrInvalidProduct
		}
	}
	return nil
}

func cleanMaterials(in []model.ProductMaterial) []model.ProductMaterial {
	out := make([]model.ProductMaterial, 0, len(in))
	for _, m := range in {
		out = append(out, model.ProductMaterial{
			Name:        strings.TrimSpace(m.Name),
			ExtraPrice:  m.ExtraPrice,
			Description: strings.TrimSpace(m.Description),
		})
	}
	return out
}

func cleanDetails(in []model.ProductDetail) []model.ProductDetail {
	out := make([]model.ProductDetail, 0, len(in))
	for _, d := range in {
		out = append(out, model.ProductDetail{
			Label: strings.TrimSpace(d.Label),
			Value: strings.TrimSpace(d.Value),
		})
	}
	return out
}

// applyFiles uploads any files and points the product at them
func (s *productService) applyFiles(ctx context.Context, product *model.Product, files ProductFiles) error {
	if files.Image != nil {
		url, err := saveImage(ctx, s.store, productFolder, *files.Image, s.maxUpload)
		if err != nil {
			return err
		}
		product.Image = url
	}
	if files.Mask != nil {
		url, err := saveImage(ctx, s.store, maskFolder, *files.Mask, s.maxUpload)
		if err != nil {
			return err
		}
		product.MaskImage = url
	}
	for _, f := range files.Gallery {
		url, err := saveImage(ctx, s.store, galleryFolder, f, s.maxUpload)
		if err != nil {
			return err
		}
		product.GalleryImages = append(product.GalleryImages, url)
	}
	return nil
}

func (s *productService) CreateProduct(ctx context.Context, input ProductInput, files ProductFiles) (*model.Product, error) {
	logger.Info("Creating product", map[string]interface{}{
		"name":     input.Name,
		"category": input.Category,
	})

	if err := validateProductInput(input); err != nil {
		return nil, err
	}

	product := &model.Product{
		Name:           strings.TrimSpace(input.Name),
		Description:    input.Description,
		Price:          input.Price,
		Category:       strings.TrimSpace(input.Category),
		Image:          input.Image,
		MaskImage:      input.MaskImage,
		GalleryImages:  append([]string{}, input.GalleryImages...),
		IsCustomizable: input.IsCustomizable,
		StockQuantity:  input.StockQuantity,
		Materials:      cleanMaterials(input.Materials),
		Details:        cleanDetails(input.Details),
	}
	if err := s.applyFiles(ctx, product, files); err != nil {
		logger.Error("Failed to store product images", err, map[string]interface{}{
			"name": product.Name,
		})
		return nil, err
	}

	if err := s.productRepo.Create(product); err != nil {
		logger.Error("Failed to create product", err, map[string]interface{}{
			"name": product.Name,
		})
		return nil, err
	}

	logger.Info("Product created", map[string]interface{}{
		"product_id": product.ID,
	})
	return product, nil
}

func (s *productService) UpdateProduct(ctx context.Context, id uint, input ProductInput, files ProductFiles) (*model.Product, error) {
	logger.Info("Updating product", map[string]interface{}{
		"product_id": id,
	})

	if err := validateProductInput(input); err != nil {
		return nil, err
	}

	product, err := s.productRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	product.Name = strings.TrimSpace(input.Name)
	product.Description = input.Description
	product.Price = input.Price
	product.Category = strings.TrimSpace(input.Category)
	product.IsCustomizable = input.IsCustomizable
	product.StockQuantity = input.StockQuantity
	product.Materials = cleanMaterials(input.Materials)
	product.Details = cleanDetails(input.Details)
	if input.Image != "" {
		product.Image = input.Image
	}
	if input.MaskImage != "" {
		product.MaskImage = input.MaskImage
	}
	if input.ReplaceGallery {
		product.GalleryImages = append([]string{}, input.GalleryImages...)
	} else {
		product.GalleryImages = append(product.GalleryImages, input.GalleryImages...)
	}

	if err := s.applyFiles(ctx, product, files); err != nil {
		logger.Error("Failed to store product images", err, map[string]interface{}{
			"product_id": id,
		})
		return nil, err
	}

	if err := s.productRepo.Update(product); err != nil {
		logger.Error("Failed to update product", err, map[string]interface{}{
			"product_id": id,
		})
		return nil, err
	}
	return s.productRepo.FindByID(id)
}

func (s *productService) DeleteProduct(id uint) error {
	if err := s.productRepo.Delete(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProductNotFound
		}
		logger.Error("Failed to delete product", err, map[string]interface{}{
			"product_id": id,
		})
		return err
	}
	logger.Info("Product deleted", map[string]interface{}{
		"product_id": id,
	})
	return nil
}

func (s *productService) loadImage(ctx context.Context, url string) (image.Image, error) {
	key, ok := s.store.KeyFromURL(url)
	if !ok {
		return nil, ErrPreviewUnavailable
	}
	rc, err := s.store.Open(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrPreviewUnavailable
		}
		return nil, err
	}
	defer rc.Close()
	return preview.Decode(rc)
}

func (s *productService) Preview(ctx context.Context, id uint, color string) ([]byte, error) {
	product, err := s.productRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	if !product.IsCustomizable {
		return nil, ErrNotCustomizable
	}
	if product.Image == "" || product.MaskImage == "" {
		return nil, ErrPreviewUnavailable
	}

	tint, err := util.ParseHexColor(color)
	if err != nil {
		return nil, ErrInvalidColor
	}

	base, err := s.loadImage(ctx, product.Image)
	if err != nil {
		logger.Warn("Preview base image unavailable", map[string]interface{}{
			"product_id": id,
			"error":      err.Error(),
		})
		return nil, ErrPreviewUnavailable
	}
	mask, err := s.loadImage(ctx, product.MaskImage)
	if err != nil {
		logger.Warn("Preview mask image unavailable", map[string]interface{}{
			"product_id": id,
			"error":      err.Error(),
		})
		return nil, ErrPreviewUnavailable
	}

	out, err := preview.EncodePNG(preview.Render(base, mask, tint, preview.DefaultStrength))
	if err != nil {
		logger.Error("Failed to encode preview", err, map[string]interface{}{
			"product_id": id,
		})
		return nil, err
	}

	logger.Debug("Preview rendered", map[string]interface{}{
		"product_id": id,
		"color":      color,
		"bytes":      len(out),
	})
	return out, nil
}
