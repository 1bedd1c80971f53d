package service

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"tradehub/internal/config"
	"tradehub/internal/models"
	"tradehub/internal/storage"

	"github.com/google/uuid"
)

const defaultUploadMaxSizeMB = 5

// allowedImageTypes maps sniffed content types to stored file extensions.
var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

type UploadImageInput struct {
	UserID   uint
	Filename string
	Content  []byte
}

// UploadResult is the opaque reference returned to clients.
type UploadResult struct {
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	Size        int    `json:"size"`
}

// UploadService stores image attachments and hands back references that
// resources keep in their images list.
type UploadService struct {
	store              storage.Storage
	maxUploadSizeBytes int64
}

func NewUploadService(store storage.Storage, cfg *config.Config) *UploadService {
	maxUploadSizeMB := defaultUploadMaxSizeMB
	if cfg != nil && cfg.UploadMaxSizeMB > 0 {
		maxUploadSizeMB = cfg.UploadMaxSizeMB
	}
	return &UploadService{
		store:              store,
		maxUploadSizeBytes: int64(maxUploadSizeMB) * 1024 * 1024,
	}
}

// MaxUploadSize is the largest accepted file in bytes.
func (s *UploadService) MaxUploadSize() int64 {
	return s.maxUploadSizeBytes
}

// Upload checks the sniffed type and size and stores the file under
// <user>/<uuid><ext>.
func (s *UploadService) Upload(ctx context.Context, in UploadImageInput) (*UploadResult, error) {
	if in.UserID == 0 {
		return nil, models.NewValidationError("Invalid user")
	}
	if len(in.Content) == 0 {
		return nil, models.NewValidationError("No file uploaded")
	}
	if int64(len(in.Content)) > s.maxUploadSizeBytes {
		return nil, models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", s.maxUploadSizeBytes/(1024*1024)))
	}

	contentType := http.DetectContentType(in.Content)
	ext, ok := allowedImageTypes[contentType]
	if !ok {
		return nil, models.NewValidationError("Invalid image type")
	}

	key := storage.UserKey(in.UserID, uuid.NewString()+ext)
	url, err := s.store.Save(ctx, key, bytes.NewReader(in.Content), contentType)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &UploadResult{URL: url, ContentType: contentType, Size: len(in.Content)}, nil
}
