package media

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/cloudinary/cloudinary-go/v2/config"
)

// Storage persists a processed file and returns the URL it is served from.
type Storage interface {
	Save(ctx context.Context, name string, data []byte) (string, error)
}

// LocalStorage writes files into a directory served as static content.
type LocalStorage struct {
	dir    string
	prefix string
}

// NewLocalStorage stores files under dir and reports URLs under prefix.
func NewLocalStorage(dir, prefix string) *LocalStorage {
	return &LocalStorage{dir: dir, prefix: prefix}
}

func (s *LocalStorage) Save(_ context.Context, name string, data []byte) (string, error) {
	name = filepath.Base(name)
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}
	return path.Join("/", s.prefix, name), nil
}

// CloudinaryStorage uploads files to a Cloudinary folder.
type CloudinaryStorage struct {
	uploader *uploader.API
	folder   string
}

// NewCloudinaryStorage builds a storage from account credentials.
func NewCloudinaryStorage(cloudName, apiKey, apiSecret, folder string) (*CloudinaryStorage, error) {
	cfg, err := config.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("cloudinary config: %w", err)
	}
	up, err := uploader.NewWithConfiguration(cfg)
	if err != nil {
		return nil, fmt.Errorf("cloudinary uploader: %w", err)
	}
	return &CloudinaryStorage{uploader: up, folder: folder}, nil
}

func (s *CloudinaryStorage) Save(ctx context.Context, name string, data []byte) (string, error) {
	overwrite := true
	result, err := s.uploader.Upload(ctx, bytes.NewReader(data), uploader.UploadParams{
		Folder:    s.folder,
		PublicID:  strings.TrimSuffix(path.Base(name), path.Ext(name)),
		Overwrite: &overwrite,
	})
	if err != nil {
		return "", fmt.Errorf("cloudinary upload: %w", err)
	}
	if result.Error.Message != "" {
		return "", fmt.Errorf("cloudinary upload: %s", result.Error.Message)
	}
	return result.SecureURL, nil
}
