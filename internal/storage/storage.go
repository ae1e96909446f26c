package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/yelpcamp/apiserver/config"
	"github.com/yelpcamp/apiserver/types"
)

// imageFolder prefixes every image key.
const imageFolder = "YelpCamp"

// ObjectStorage defines common object operations across backends.
type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
	ObjectURL(key string) string
	Bucket() string
}

// ImageStore stores campground images in an ObjectStorage backend and
// builds the URLs they are served from.
type ImageStore struct {
	backend       ObjectStorage
	publicBaseURL string
}

// NewImageStore wraps backend. When publicBaseURL is set, image URLs are
// built from it instead of the backend's own object URL.
func NewImageStore(backend ObjectStorage, publicBaseURL string) *ImageStore {
	return &ImageStore{backend: backend, publicBaseURL: strings.TrimRight(publicBaseURL, "/")}
}

// New builds the ImageStore selected by cfg.Backend. It returns nil when
// image storage is disabled.
func New(ctx context.Context, cfg config.StorageConfig) (*ImageStore, error) {
	var backend ObjectStorage
	switch cfg.Backend {
	case config.StorageNone, "":
		return nil, nil
	case config.StorageMinio:
		client, err := NewMinioClient(cfg.Minio)
		if err != nil {
			return nil, err
		}
		backend = client
	case config.StorageGCS:
		client, err := NewGCSClient(ctx, cfg.GCS)
		if err != nil {
			return nil, err
		}
		backend = client
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}

	if err := backend.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("ensure bucket %s: %w", backend.Bucket(), err)
	}
	return NewImageStore(backend, cfg.PublicBaseURL), nil
}

// Upload stores one image under a fresh key and describes where it lives.
func (s *ImageStore) Upload(ctx context.Context, name string, r io.Reader, size int64, contentType string) (types.Image, error) {
	key := imageFolder + "/" + uuid.NewString() + strings.ToLower(path.Ext(name))
	if err := s.backend.Put(ctx, key, r, size, contentType); err != nil {
		return types.Image{}, err
	}
	return types.Image{URL: s.url(key), Filename: key}, nil
}

// Remove deletes the image stored under filename.
func (s *ImageStore) Remove(ctx context.Context, filename string) error {
	return s.backend.Delete(ctx, filename)
}

func (s *ImageStore) url(key string) string {
	if s.publicBaseURL != "" {
		return s.publicBaseURL + "/" + key
	}
	return s.backend.ObjectURL(key)
}
