package controller

import (
	"errors"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"
	apperrors "github.com/viznest/viznest-backend/internal/errors"
	"github.com/viznest/viznest-backend/internal/middleware"
	"github.com/viznest/viznest-backend/internal/storage"
)

const defaultUploadFolder = "uploads"

// uploadFolders are the folders a browser may upload into directly
var uploadFolders = map[string]bool{
	"uploads":          true,
	"avatars":          true,
	"products":         true,
	"products/masks":   true,
	"products/gallery": true,
}

type UploadController struct {
	storage storage.Storage
}

func NewUploadController(store storage.Storage) *UploadController {
	return &UploadController{
		storage: store,
	}
}

type GeneratePresignedURLRequest struct {
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"content_type" binding:"required"`
	Folder      string `json:"folder"`
}

// GeneratePresignedURL returns a URL the browser can PUT an image to
// POST /api/v1/upload/presigned-url
func (ctrl *UploadController) GeneratePresignedURL(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req GeneratePresignedURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid presigned URL request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.RespondWithBindingError(c, err)
		return
	}

	if err := storage.ValidateContentType(req.ContentType, storage.ImageContentTypes); err != nil {
		log.Warn("Invalid content type", map[string]interface{}{
			"content_type": req.ContentType,
		})
		apperrors.BadRequest(c, apperrors.UploadInvalidFileType, "Only image files are allowed (JPEG, PNG, GIF, WEBP)")
		return
	}

	folder := strings.Trim(path.Clean("/"+req.Folder), "/")
	if folder == "" {
		folder = defaultUploadFolder
	}
	if !uploadFolders[folder] {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Unsupported upload folder")
		return
	}

	response, err := ctrl.storage.Presign(c.Request.Context(), folder, req.Filename, req.ContentType)
	if err != nil {
		if errors.Is(err, storage.ErrPresignUnsupported) {
			apperrors.RespondWithError(c, http.StatusNotImplemented, apperrors.UploadFailed, "Direct uploads are not available on this server")
			return
		}
		log.Error("Failed to generate presigned URL", err, map[string]interface{}{
			"filename":     req.Filename,
			"content_type": req.ContentType,
			"folder":       folder,
		})
		apperrors.RespondWithError(c, http.StatusInternalServerError, apperrors.UploadFailed, "Failed to generate presigned URL")
		return
	}

	log.Info("Presigned URL generated successfully", map[string]interface{}{
		"key":    response.Key,
		"folder": folder,
	})
	c.JSON(http.StatusOK, response)
}
