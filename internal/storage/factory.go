package storage

import (
	"context"
	"errors"
	"strings"

	"github.com/timmy/soulsync/internal/config"
)

// ErrStorageDisabled is returned when archiving is requested but storage.enabled is false.
var ErrStorageDisabled = errors.New("storage: archiving is disabled")

// NewStorage creates the S3-compatible client described by the configuration.
// Parameters:
//   - ctx: context used while loading the AWS configuration.
//   - cfg: storage section of the application config.
// Returns:
//   - *S3Storage: initialized S3-compatible client.
//   - error: non-nil if the config is invalid or the client cannot be created.
func NewStorage(ctx context.Context, cfg *config.StorageConfig) (*S3Storage, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	storeType := StorageType(cfg.Type)
	if storeType == "" {
		storeType = detectStorageType(cfg.Endpoint)
	}

	return NewS3Storage(ctx, &S3Config{
		Type:      storeType,
		Endpoint:  cfg.Endpoint,
		AccessKey: cfg.AccessKey,
		SecretKey: cfg.SecretKey,
		UseSSL:    cfg.UseSSL,
		Bucket:    cfg.Bucket,
		Region:    cfg.Region,
	})
}

// OpenReportArchive connects to the configured bucket, creating it if needed,
// and returns the archive both the API server and the worker CLI write to.
func OpenReportArchive(ctx context.Context, cfg *config.StorageConfig) (*ReportArchive, error) {
	if !cfg.Enabled {
		return nil, ErrStorageDisabled
	}
	store, err := NewStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := store.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	return NewReportArchive(store, cfg.Prefix), nil
}

// detectStorageType guesses the provider from the endpoint host
func detectStorageType(endpoint string) StorageType {
	endpoint = strings.ToLower(endpoint)

	switch {
	case strings.Contains(endpoint, "r2.cloudflarestorage.com"):
		return StorageTypeR2
	case strings.Contains(endpoint, "amazonaws.com"):
		return StorageTypeS3
	default:
		return StorageTypeS3Compatible
	}
}
