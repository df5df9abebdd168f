package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrNotFound            = errors.New("stored object not found")
	ErrPresignUnsupported  = errors.New("presigned uploads require S3 storage")
	ErrUnsupportedFileType = errors.New("file type is not allowed")
	ErrFileTooLarge        = errors.New("file is too large")
)

// ImageContentTypes are the upload types accepted for product and avatar images
var ImageContentTypes = []string{
	"image/jpeg",
	"image/png",
	"image/gif",
	"image/webp",
}

type StoredFile struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

type PresignedURLResponse struct {
	UploadURL string `json:"upload_url"`
	FileURL   string `json:"file_url"`
	Key       string `json:"key"`
}

// Storage is where uploaded media lives. S3Storage serves production;
// LocalStorage is used when no bucket is configured.
type Storage interface {
	Save(ctx context.Context, folder, filename, contentType string, body io.Reader, size int64) (*StoredFile, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	// KeyFromURL maps a public URL produced by Save back to its key
	KeyFromURL(url string) (string, bool)
	Presign(ctx context.Context, folder, filename, contentType string) (*PresignedURLResponse, error)
}

// NewKey builds a collision free object key under folder, keeping the file extension
func NewKey(folder, filename string) string {
	folder = strings.Trim(path.Clean("/"+folder), "/")
	if folder == "" || folder == "." {
		folder = "uploads"
	}
	ext := strings.ToLower(filepath.Ext(filename))
	return fmt.Sprintf("%s/%s%s", folder, uuid.New().String(), ext)
}

func ValidateFileSize(size, maxSize int64) error {
	if maxSize > 0 && size > maxSize {
		return fmt.Errorf("%w: limit is %d bytes", ErrFileTooLarge, maxSize)
	}
	return nil
}

func ValidateContentType(contentType string, allowedTypes []string) error {
	contentType = strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	if contentType == "image/jpg" {
		contentType = "image/jpeg"
	}
	for _, allowed := range allowedTypes {
		if contentType == allowed {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrUnsupportedFileType, contentType)
}
