package repository

import (
	"fmt"
	"strings"

	"github.com/viznest/viznest-backend/internal/app/model"
	"github.com/viznest/viznest-backend/pkg/logger"
	"gorm.io/gorm"
)

type ProductSort string

const (
	ProductSortNewest      ProductSort = "newest"
	ProductSortPrice       ProductSort = "price"
	ProductSortRating      ProductSort = "rating"
	ProductSortBestSelling ProductSort = "best_selling"
)

type ProductFilter struct {
	Category      string
	Search        string
	Customizable  *bool
	SortBy        ProductSort
	SortAscending bool
	Limit         int
	Offset        int
}

// scope applies the filter's WHERE clauses; shared by the count and the page query
func (f ProductFilter) scope(db *gorm.DB) *gorm.DB {
	if f.Category != "" {
		db = db.Where("products.category = ?", f.Category)
	}
	if f.Customizable != nil {
		db = db.Where("products.is_customizable = ?", *f.Customizable)
	}
	if f.Search != "" {
		like := fmt.Sprintf("%%%s%%", strings.ToLower(f.Search))
		db = db.Where("LOWER(products.name) LIKE ? OR LOWER(products.description) LIKE ?", like, like)
	}
	return db
}

type ProductRepository interface {
	Create(product *model.Product) error
	FindWithFilter(filter ProductFilter) ([]model.Product, int64, error)
	FindByID(id uint) (*model.Product, error)
	FindByIDWithReviews(id uint) (*model.Product, error)
	ListCategories() ([]string, error)
	Update(product *model.Product) error
	Delete(id uint) error
}

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(product *model.Product) error {
	logger.Debug("Creating product in database", map[string]interface{}{
		"name":      product.Name,
		"category":  product.Category,
		"materials": len(product.Materials),
	})

	if err := r.db.Create(product).Error; err != nil {
		logger.Error("Failed to create product in database", err, map[string]interface{}{
			"name": product.Name,
		})
		return err
	}

	logger.Debug("Product created in database", map[string]interface{}{
		"product_id": product.ID,
	})
	return nil
}

func (r *productRepository) FindWithFilter(filter ProductFilter) ([]model.Product, int64, error) {
	logger.Debug("Finding products with filter", map[string]interface{}{
		"category":     filter.Category,
		"search":       filter.Search,
		"customizable": filter.Customizable,
		"sort_by":      filter.SortBy,
		"ascending":    filter.SortAscending,
		"limit":        filter.Limit,
		"offset":       filter.Offset,
	})

	var total int64
	if err := r.db.Model(&model.Product{}).Scopes(filter.scope).Count(&total).Error; err != nil {
		logger.Error("Failed to count products with filter", err)
		return nil, 0, err
	}

	query := r.db.Model(&model.Product{}).Scopes(filter.scope)
	direction := "DESC"
	if filter.SortAscending {
		direction = "ASC"
	}
	switch filter.SortBy {
	case ProductSortPrice:
		query = query.Order("products.price " + direction)
	case ProductSortRating:
		query = query.Order("products.rating " + direction).Order("products.num_reviews DESC")
	case ProductSortBestSelling:
		query = query.Order("products.sold " + direction)
	default:
		query = query.Order("products.created_at " + direction)
	}
	query = query.Order("products.id DESC")

	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var products []model.Product
	if err := query.Preload("Materials").Preload("Details").Find(&products).Error; err != nil {
		logger.Error("Failed to find products with filter", err, map[string]interface{}{
			"category": filter.Category,
			"search":   filter.Search,
		})
		return nil, 0, err
	}

	logger.Debug("Products found with filter", map[string]interface{}{
		"count": len(products),
		"total": total,
	})
	return products, total, nil
}

func (r *productRepository) FindByID(id uint) (*model.Product, error) {
	logger.Debug("Finding product by ID in database", map[string]interface{}{
		"product_id": id,
	})

	var product model.Product
	err := r.db.Preload("Materials").Preload("Details").First(&product, id).Error
	if err != nil {
		logger.Error("Failed to find product by ID in database", err, map[string]interface{}{
			"product_id": id,
		})
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) FindByIDWithReviews(id uint) (*model.Product, error) {
	logger.Debug("Finding product with reviews in database", map[string]interface{}{
		"product_id": id,
	})

	var product model.Product
	err := r.db.
		Preload("Materials").
		Preload("Details").
		Preload("Reviews", func(db *gorm.DB) *gorm.DB {
			return db.Order("reviews.created_at DESC")
		}).
		First(&product, id).Error
	if err != nil {
		logger.Error("Failed to find product with reviews in database", err, map[string]interface{}{
			"product_id": id,
		})
		return nil, err
	}

	logger.Debug("Product found with reviews in database", map[string]interface{}{
		"product_id": product.ID,
		"reviews":    len(product.Reviews),
	})
	return &product, nil
}

func (r *productRepository) ListCategories() ([]string, error) {
	var categories []string
	err := r.db.Model(&model.Product{}).
		Where("category <> ''").
		Distinct().
		Order("category ASC").
		Pluck("category", &categories).Error
	if err != nil {
		logger.Error("Failed to list product categories", err)
		return nil, err
	}
	return categories, nil
}

// Update saves scalar fields and replaces the material and detail lists
func (r *productRepository) Update(product *model.Product) error {
	logger.Debug("Updating product in database", map[string]interface{}{
		"product_id": product.ID,
		"materials":  len(product.Materials),
		"details":    len(product.Details),
	})

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Materials", "Details", "Reviews", "Rating", "NumReviews", "Sold").Save(product).Error; err != nil {
			return err
		}
		if err := tx.Where("product_id = ?", product.ID).Delete(&model.ProductMaterial{}).Error; err != nil {
			return err
		}
		if err := tx.Where("product_id = ?", product.ID).Delete(&model.ProductDetail{}).Error; err != nil {
			return err
		}
		for i := range product.Materials {
			product.Materials[i].ID = 0
			product.Materials[i].ProductID = product.ID
		}
		for i := range product.Details {
			product.Details[i].ID = 0
			product.Details[i].ProductID = product.ID
		}
		if len(product.Materials) > 0 {
			if err := tx.Create(&product.Materials).Error; err != nil {
				return err
			}
		}
		if len(product.Details) > 0 {
			if err := tx.Create(&product.Details).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		logger.Error("Failed to update product in database", err, map[string]interface{}{
			"product_id": product.ID,
		})
		return err
	}

	logger.Debug("Product updated in database", map[string]interface{}{
		"product_id": product.ID,
	})
	return nil
}

func (r *productRepository) Delete(id uint) error {
	logger.Debug("Deleting product from database", map[string]interface{}{
		"product_id": id,
	})

	result := r.db.Delete(&model.Product{}, id)
	if result.Error != nil {
		logger.Error("Failed to delete product from database", result.Error, map[string]interface{}{
			"product_id": id,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	logger.Debug("Product deleted from database", map[string]interface{}{
		"product_id": id,
	})
	return nil
}
