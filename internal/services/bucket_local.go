package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/yungbote/scriptforge-backend/internal/logger"
	"github.com/yungbote/scriptforge-backend/internal/utils"
)

type localBucketService struct {
	log  *logger.Logger
	root string
}

// NewLocalBucketService stores blobs under SCRIPTS_DIR on the local
// filesystem, one file per key.
func NewLocalBucketService(log *logger.Logger) (BucketService, error) {
	serviceLog := log.With("service", "LocalBucketService")
	root := utils.GetEnv("SCRIPTS_DIR", "./data/blobs", log)
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create blob root %q: %w", root, err)
	}
	serviceLog.Info("Local blob storage ready", "root", root)
	return &localBucketService{log: serviceLog, root: root}, nil
}

func NewLocalBucketServiceAt(log *logger.Logger, root string) (BucketService, error) {
	serviceLog := log.With("service", "LocalBucketService")
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create blob root %q: %w", root, err)
	}
	return &localBucketService{log: serviceLog, root: root}, nil
}

// path resolves a key inside the root, rejecting traversal outside it.
func (bs *localBucketService) path(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return filepath.Join(bs.root, clean), nil
}

func (bs *localBucketService) UploadFile(ctx context.Context, key string, file io.Reader) error {
	p, err := bs.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("create blob dir: %w", err)
	}
	f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("create blob %q: %w", key, err)
	}
	if _, err := io.Copy(f, file); err != nil {
		_ = f.Close()
		_ = os.Remove(p)
		return fmt.Errorf("write blob %q: %w", key, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close blob %q: %w", key, err)
	}
	return nil
}

func (bs *localBucketService) DownloadFile(ctx context.Context, key string) (io.ReadCloser, error) {
	p, err := bs.path(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		return nil, fmt.Errorf("open blob %q: %w", key, err)
	}
	return f, nil
}

func (bs *localBucketService) DeleteFile(ctx context.Context, key string) error {
	p, err := bs.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil {
		return fmt.Errorf("delete blob %q: %w", key, err)
	}
	return nil
}

func (bs *localBucketService) GetPublicURL(key string) string {
	return fmt.Sprintf("file://%s", filepath.ToSlash(filepath.Join(bs.root, filepath.FromSlash(key))))
}
