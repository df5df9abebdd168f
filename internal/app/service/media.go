package service

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/viznest/viznest-backend/internal/storage"
	"github.com/viznest/viznest-backend/pkg/logger"
)

// FileUpload is an uploaded file handed over by a controller
type FileUpload struct {
	Filename string
	Size     int64
	Content  io.Reader
}

// saveImage sniffs the upload, rejects non-images and oversize files, and stores it
func saveImage(ctx context.Context, store storage.Storage, folder string, upload FileUpload, maxBytes int64) (string, error) {
	if err := storage.ValidateFileSize(upload.Size, maxBytes); err != nil {
		return "", err
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(upload.Content, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", err
	}
	head = head[:n]

	contentType := http.DetectContentType(head)
	if err := storage.ValidateContentType(contentType, storage.ImageContentTypes); err != nil {
		logger.Warn("Rejected upload with unsupported type", map[string]interface{}{
			"filename":     upload.Filename,
			"content_type": contentType,
		})
		return "", err
	}

	body := io.MultiReader(bytes.NewReader(head), upload.Content)
	stored, err := store.Save(ctx, folder, upload.Filename, contentType, body, upload.Size)
	if err != nil {
		return "", err
	}
	return stored.URL, nil
}
