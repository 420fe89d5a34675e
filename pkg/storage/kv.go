package storage

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-adp-client/pkg/config"
	appErrors "github.com/noah-isme/sma-adp-client/pkg/errors"
)

// Well-known keys written by the session store and the query cache.
const (
	KeyUser         = "user"
	KeyAccessToken  = "accessToken"
	KeyRefreshToken = "refreshToken"
	KeyQueryCache   = "queryCache"
)

// KV is durable key/value persistence for JSON-encoded string values.
// Get returns appErrors.ErrCacheMiss when the key is absent.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Open builds the KV backend selected by configuration, sealing values at rest
// when an encryption key is configured.
func Open(cfg *config.Config, logger *zap.Logger) (KV, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var (
		kv  KV
		err error
	)
	switch cfg.Storage.Driver {
	case config.StorageFile, "":
		kv, err = NewFileKV(cfg.Storage.Dir, logger)
	case config.StorageSQLite:
		dsn := cfg.Storage.DSN
		if dsn == "" {
			dsn = "file:sma-admin.db?_busy_timeout=5000"
		}
		kv, err = NewSQLKV(config.StorageSQLite, dsn, cfg.Storage)
	case config.StoragePostgres:
		kv, err = NewSQLKV(config.StoragePostgres, cfg.Storage.DSN, cfg.Storage)
	case config.StorageRedis:
		kv, err = NewRedisKV(cfg.Redis, "sma-admin:")
	case config.StorageMemory:
		kv = NewMemoryKV()
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s storage: %w", cfg.Storage.Driver, err)
	}

	if cfg.Storage.EncryptionKey != "" {
		sealed, err := NewSealedKV(context.Background(), kv, cfg.Storage.EncryptionKey)
		if err != nil {
			_ = kv.Close()
			return nil, err
		}
		kv = sealed
	}

	logger.Debug("storage opened", zap.String("driver", cfg.Storage.Driver), zap.Bool("sealed", cfg.Storage.EncryptionKey != ""))
	return kv, nil
}

func miss() error {
	return appErrors.ErrCacheMiss
}
