package controller

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/viznest/viznest-backend/internal/app/model"
	"github.com/viznest/viznest-backend/internal/app/repository"
	"github.com/viznest/viznest-backend/internal/app/service"
	apperrors "github.com/viznest/viznest-backend/internal/errors"
	"github.com/viznest/viznest-backend/internal/middleware"
	"github.com/viznest/viznest-backend/pkg/util"
)

type ProductController struct {
	productService service.ProductService
}

func NewProductController(productService service.ProductService) *ProductController {
	return &ProductController{
		productService: productService,
	}
}

type MaterialRequest struct {
	Name        string  `json:"name"`
	ExtraPrice  float64 `json:"extra_price"`
	Description string  `json:"description"`
}

type DetailRequest struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// ProductRequest is accepted as JSON or as a multipart form. In a form the
// materials and details fields carry JSON arrays and images come as files.
type ProductRequest struct {
	Name           string            `json:"name" form:"name" binding:"required"`
	Description    string            `json:"description" form:"description"`
	Price          float64           `json:"price" form:"price" binding:"gte=0"`
	Category       string            `json:"category" form:"category"`
	Image          string            `json:"image" form:"image"`
	MaskImage      string            `json:"mask_image" form:"mask_image"`
	GalleryImages  []string          `json:"gallery_images" form:"gallery_images"`
	ReplaceGallery bool              `json:"replace_gallery" form:"replace_gallery"`
	IsCustomizable bool              `json:"is_customizable" form:"is_customizable"`
	StockQuantity  int               `json:"stock_quantity" form:"stock_quantity" binding:"gte=0"`
	Materials      []MaterialRequest `json:"materials" form:"-"`
	Details        []DetailRequest   `json:"details" form:"-"`
}

func (r ProductRequest) input() service.ProductInput {
	input := service.ProductInput{
		Name:           r.Name,
		Description:    r.Description,
		Price:          r.Price,
		Category:       r.Category,
		Image:          r.Image,
		MaskImage:      r.MaskImage,
		GalleryImages:  r.GalleryImages,
		ReplaceGallery: r.ReplaceGallery,
		IsCustomizable: r.IsCustomizable,
		StockQuantity:  r.StockQuantity,
	}
	for _, m := range r.Materials {
		input.Materials = append(input.Materials, model.ProductMaterial{
			Name:        m.Name,
			ExtraPrice:  m.ExtraPrice,
			Description: m.Description,
		})
	}
	for _, d := range r.Details {
		input.Details = append(input.Details, model.ProductDetail{Label: d.Label, Value: d.Value})
	}
	return input
}

func isMultipart(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), binding.MIMEMultipartPOSTForm)
}

// bindProductRequest binds JSON or multipart input and collects uploaded files.
// The returned cleanup closes every opened file.
func bindProductRequest(c *gin.Context) (ProductRequest, service.ProductFiles, func(), error) {
	var req ProductRequest
	var files service.ProductFiles
	closers := []func(){}
	cleanup := func() {
		for _, fn := range closers {
			fn()
		}
	}

	if !isMultipart(c) {
		err := c.ShouldBindJSON(&req)
		return req, files, cleanup, err
	}

	if err := c.ShouldBindWith(&req, binding.FormMultipart); err != nil {
		return req, files, cleanup, err
	}
	if raw := c.PostForm("materials"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &req.Materials); err != nil {
			return req, files, cleanup, err
		}
	}
	if raw := c.PostForm("details"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &req.Details); err != nil {
			return req, files, cleanup, err
		}
	}

	image, closeImage, err := formFile(c, "image")
	closers = append(closers, closeImage)
	if err != nil {
		return req, files, cleanup, err
	}
	mask, closeMask, err := formFile(c, "mask")
	closers = append(closers, closeMask)
	if err != nil {
		return req, files, cleanup, err
	}
	files.Image = image
	files.Mask = mask

	if form, err := c.MultipartForm(); err == nil {
		for _, header := range form.File["gallery"] {
			upload, closeFn, err := openUpload(header)
			if err != nil {
				return req, files, cleanup, err
			}
			closers = append(closers, closeFn)
			files.Gallery = append(files.Gallery, upload)
		}
	}
	return req, files, cleanup, nil
}

func respondProductError(c *gin.Context, err error, action string) {
	if respondUploadError(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrProductNotFound):
		apperrors.NotFound(c, apperrors.ProductNotFound, "Product not found")
	case errors.Is(err, service.ErrInvalidProduct):
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, err.Error())
	case errors.Is(err, service.ErrNotCustomizable):
		apperrors.BadRequest(c, apperrors.ProductNotCustomizable, "Product is not customizable")
	case errors.Is(err, service.ErrPreviewUnavailable):
		apperrors.NotFound(c, apperrors.ResourceNotFound, "Product has no preview images")
	case errors.Is(err, service.ErrInvalidColor), errors.Is(err, util.ErrInvalidColor):
		apperrors.BadRequest(c, apperrors.ProductInvalidColor, "color must be a hex value like #aabbcc")
	default:
		middleware.GetLoggerFromContext(c).Error("Failed to "+action, err)
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, action)
	}
}

// productFilter reads the listing query: category, search, customizable,
// sort (newest|price|rating|best_selling), order (asc|desc), limit, offset
func productFilter(c *gin.Context) (repository.ProductFilter, error) {
	filter := repository.ProductFilter{
		Category:      strings.TrimSpace(c.Query("category")),
		Search:        c.Query("search"),
		SortBy:        repository.ProductSort(c.DefaultQuery("sort", string(repository.ProductSortNewest))),
		SortAscending: strings.EqualFold(c.Query("order"), "asc"),
	}

	switch filter.SortBy {
	case repository.ProductSortNewest, repository.ProductSortPrice,
		repository.ProductSortRating, repository.ProductSortBestSelling:
	default:
		return filter, errors.New("unsupported sort")
	}

	if raw := c.Query("customizable"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return filter, err
		}
		filter.Customizable = &v
	}
	if raw := c.Query("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return filter, err
		}
		filter.Limit = v
	}
	if raw := c.Query("offset"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return filter, err
		}
		filter.Offset = v
	}
	return filter, nil
}

// ListProducts returns a filtered page of products
// GET /api/v1/products
func (ctrl *ProductController) ListProducts(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	filter, err := productFilter(c)
	if err != nil {
		log.Warn("Invalid product query", map[string]interface{}{
			"query": c.Request.URL.RawQuery,
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid query parameters")
		return
	}

	list, err := ctrl.productService.ListProducts(filter)
	if err != nil {
		respondProductError(c, err, "fetch products")
		return
	}

	log.Info("Products fetched successfully", map[string]interface{}{
		"count": len(list.Products),
		"total": list.Total,
	})
	c.JSON(http.StatusOK, list)
}

// ListCategories returns the distinct product categories
// GET /api/v1/products/categories
func (ctrl *ProductController) ListCategories(c *gin.Context) {
	categories, err := ctrl.productService.ListCategories()
	if err != nil {
		respondProductError(c, err, "fetch categories")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"categories": categories,
	})
}

// GetProductByID returns a product with its reviews
// GET /api/v1/products/:id
func (ctrl *ProductController) GetProductByID(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	product, err := ctrl.productService.GetProduct(id)
	if err != nil {
		respondProductError(c, err, "fetch product")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"product": product,
	})
}

// Preview renders the product recolored with ?color=#rrggbb as a PNG
// GET /api/v1/products/:id/preview
func (ctrl *ProductController) Preview(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	img, err := ctrl.productService.Preview(c.Request.Context(), id, c.Query("color"))
	if err != nil {
		respondProductError(c, err, "render preview")
		return
	}

	c.Header("Cache-Control", "public, max-age=300")
	c.Data(http.StatusOK, "image/png", img)
}

// CreateProduct creates a new product (Admin only)
// POST /api/v1/products
func (ctrl *ProductController) CreateProduct(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	req, files, cleanup, err := bindProductRequest(c)
	defer cleanup()
	if err != nil {
		log.Warn("Invalid product creation request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.RespondWithBindingError(c, err)
		return
	}

	product, err := ctrl.productService.CreateProduct(c.Request.Context(), req.input(), files)
	if err != nil {
		respondProductError(c, err, "create product")
		return
	}

	log.Info("Product created successfully", map[string]interface{}{
		"product_id": product.ID,
		"name":       product.Name,
	})
	c.JSON(http.StatusCreated, gin.H{
		"message": "Product created successfully",
		"product": product,
	})
}

// UpdateProduct updates an existing product (Admin only)
// PUT /api/v1/products/:id
func (ctrl *ProductController) UpdateProduct(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	req, files, cleanup, err := bindProductRequest(c)
	defer cleanup()
	if err != nil {
		log.Warn("Invalid product update request", map[string]interface{}{
			"product_id": id,
			"error":      err.Error(),
		})
		apperrors.RespondWithBindingError(c, err)
		return
	}

	product, err := ctrl.productService.UpdateProduct(c.Request.Context(), id, req.input(), files)
	if err != nil {
		respondProductError(c, err, "update product")
		return
	}

	log.Info("Product updated successfully", map[string]interface{}{
		"product_id": product.ID,
	})
	c.JSON(http.StatusOK, gin.H{
		"message": "Product updated successfully",
		"product": product,
	})
}

// DeleteProduct soft deletes a product (Admin only)
// DELETE /api/v1/products/:id
func (ctrl *ProductController) DeleteProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := ctrl.productService.DeleteProduct(id); err != nil {
		respondProductError(c, err, "delete product")
		return
	}

	middleware.GetLoggerFromContext(c).Info("Product deleted successfully", map[string]interface{}{
		"product_id": id,
	})
	c.JSON(http.StatusOK, gin.H{
		"message": "Product removed",
	})
}
