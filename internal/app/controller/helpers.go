package controller

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/viznest/viznest-backend/internal/app/service"
	apperrors "github.com/viznest/viznest-backend/internal/errors"
	"github.com/viznest/viznest-backend/internal/middleware"
	"github.com/viznest/viznest-backend/internal/storage"
)

// parseIDParam reads a numeric path parameter, answering 400 when it is malformed
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		middleware.GetLoggerFromContext(c).Warn("Invalid ID format", map[string]interface{}{
			"param": name,
			"value": raw,
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid "+name)
		return 0, false
	}
	return uint(id), true
}

// requireUserID answers 401 when no authenticated user is on the context
func requireUserID(c *gin.Context) (uint, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return 0, false
	}
	return userID, true
}

func actorFrom(c *gin.Context) service.Actor {
	userID, _ := middleware.GetUserID(c)
	return service.Actor{UserID: userID, IsAdmin: middleware.IsAdmin(c)}
}

// formFile turns an optional multipart field into a FileUpload. The returned
// closer must be called once the service has consumed the content.
func formFile(c *gin.Context, field string) (*service.FileUpload, func(), error) {
	header, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, func() {}, nil
		}
		return nil, func() {}, err
	}
	upload, closeFn, err := openUpload(header)
	if err != nil {
		return nil, func() {}, err
	}
	return &upload, closeFn, nil
}

func openUpload(header *multipart.FileHeader) (service.FileUpload, func(), error) {
	file, err := header.Open()
	if err != nil {
		return service.FileUpload{}, func() {}, err
	}
	return service.FileUpload{
		Filename: header.Filename,
		Size:     header.Size,
		Content:  file,
	}, func() { _ = file.Close() }, nil
}

// respondUploadError maps storage validation failures; it reports false for other errors
func respondUploadError(c *gin.Context, err error) bool {
	switch {
	case errors.Is(err, storage.ErrUnsupportedFileType):
		apperrors.BadRequest(c, apperrors.UploadInvalidFileType, "Only image files are allowed (JPEG, PNG, GIF, WEBP)")
	case errors.Is(err, storage.ErrFileTooLarge):
		apperrors.BadRequest(c, apperrors.UploadFileTooLarge, err.Error())
	default:
		return false
	}
	return true
}
