package storage

import (
	"fmt"
	"strings"

	"github.com/timmy/cinematch/internal/config"
)

// Backends selectable for the vector cache and the corpus file.
const (
	BackendLocal = "local"
	BackendS3    = "s3"
)

// NewStorage creates an S3-compatible ObjectStorage from the storage section.
// The type is detected from the endpoint when not set explicitly.
func NewStorage(cfg *config.StorageConfig) (*S3Storage, error) {
	storeType := StorageType(cfg.Type)
	if storeType == "" {
		storeType = detectStorageType(cfg.Endpoint)
	}

	return NewS3Storage(&S3Config{
		Type:      storeType,
		Endpoint:  cfg.Endpoint,
		AccessKey: cfg.AccessKey,
		SecretKey: cfg.SecretKey,
		UseSSL:    cfg.UseSSL,
		Bucket:    cfg.Bucket,
		Region:    cfg.Region,
	})
}

// NewBackend returns the local directory store or the shared S3 store for backend.
// remote may be nil when backend is local.
func NewBackend(backend, dir string, remote ObjectStorage) (ObjectStorage, error) {
	switch backend {
	case "", BackendLocal:
		return NewLocalStorage(dir)
	case BackendS3:
		if remote == nil {
			return nil, fmt.Errorf("storage backend %q requires object storage configuration", backend)
		}
		return remote, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}

// detectStorageType attempts to detect the storage type from the endpoint
func detectStorageType(endpoint string) StorageType {
	endpoint = strings.ToLower(endpoint)

	switch {
	case strings.Contains(endpoint, "r2.cloudflarestorage.com"):
		return StorageTypeR2
	case endpoint == "" || strings.Contains(endpoint, "amazonaws.com"):
		return StorageTypeS3
	default:
		return StorageTypeS3Compatible
	}
}
