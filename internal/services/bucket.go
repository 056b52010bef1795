package services

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/yungbote/scriptforge-backend/internal/logger"
	"github.com/yungbote/scriptforge-backend/internal/utils"
)

// BucketService is the blob storage boundary. Keys are opaque references of
// the form "scripts/<uuid><ext>"; callers never assume a layout beyond that.
type BucketService interface {
	UploadFile(ctx context.Context, key string, file io.Reader) error
	DownloadFile(ctx context.Context, key string) (io.ReadCloser, error)
	DeleteFile(ctx context.Context, key string) error
	GetPublicURL(key string) string
}

const (
	StorageModeLocal = "local"
	StorageModeGCS   = "gcs"
)

// NewBucketService selects the storage backend from STORAGE_MODE. Local disk
// is the default; GCS is opt-in for deployments with a bucket.
func NewBucketService(log *logger.Logger) (BucketService, error) {
	mode := strings.ToLower(strings.TrimSpace(utils.GetEnv("STORAGE_MODE", StorageModeLocal, log)))
	switch mode {
	case StorageModeLocal:
		return NewLocalBucketService(log)
	case StorageModeGCS:
		return NewGCSBucketService(log)
	default:
		return nil, fmt.Errorf("unsupported STORAGE_MODE %q", mode)
	}
}
