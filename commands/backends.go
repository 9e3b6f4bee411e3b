package commands

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"yatube/cache"
	"yatube/config"
	"yatube/database"
	"yatube/storage"
)

func openDB(cfg *config.Config) (*gorm.DB, error) {
	db, err := database.Initialize(cfg.DBDriver, cfg.DatabaseURL, cfg.DBLogLevel)
	if err != nil {
		return nil, err
	}
	return db, nil
}

func closeDB(db *gorm.DB, logger *slog.Logger) {
	sqlDB, err := db.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		logger.Error("error closing database", "err", err)
	}
}

// pageCache is a cache.Store that may hold a connection to release.
type pageCache interface {
	cache.Store
	Close() error
}

type memoryCache struct {
	*cache.MemoryStore
}

func (memoryCache) Close() error { return nil }

func openCache(ctx context.Context, cfg *config.Config) (pageCache, error) {
	switch cfg.CacheBackend {
	case "nats":
		store, err := cache.NewNATSStore(ctx, cfg.NATSURL, cfg.NATSCacheBucket, cfg.CacheTTL)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "memory":
		return memoryCache{cache.NewMemoryStore(cfg.CacheTTL)}, nil
	default:
		return nil, fmt.Errorf("unsupported cache backend %q", cfg.CacheBackend)
	}
}

func openImages(ctx context.Context, cfg *config.Config) (storage.ImageStore, error) {
	switch cfg.StorageBackend {
	case "s3":
		return storage.NewS3Store(ctx, cfg.S3Bucket, cfg.S3Region, cfg.S3Endpoint, cfg.S3PublicURL)
	case "local":
		return storage.NewLocalStore(cfg.MediaDir, cfg.MediaURL)
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.StorageBackend)
	}
}
