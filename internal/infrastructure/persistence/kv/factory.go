package kv

import (
	"fmt"

	"github.com/warrantyhub/backend/internal/infrastructure/config"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Factory opens the store selected by configuration
type Factory struct {
	storeConfig config.StoreConfig
	redisConfig config.RedisConfig
	db          *gorm.DB
	logger      *zap.Logger
}

// FactoryOption is a functional option for configuring the factory
type FactoryOption func(*Factory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *Factory) {
		f.logger = logger
	}
}

// WithDatabase provides the connection used by the sql backend
func WithDatabase(db *gorm.DB) FactoryOption {
	return func(f *Factory) {
		f.db = db
	}
}

// NewFactory creates a new factory
func NewFactory(storeCfg config.StoreConfig, redisCfg config.RedisConfig, opts ...FactoryOption) *Factory {
	f := &Factory{
		storeConfig: storeCfg,
		redisConfig: redisCfg,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Open creates the configured store
func (f *Factory) Open() (Store, error) {
	switch f.storeConfig.Backend {
	case config.StoreBackendMemory:
		f.logger.Warn("Using in-memory store; data is lost on restart")
		return NewMemoryStore(), nil

	case config.StoreBackendRedis:
		store, err := NewRedisStore(RedisConfig{
			Addr:      f.redisConfig.Addr(),
			Password:  f.redisConfig.Password,
			DB:        f.redisConfig.DB,
			KeyPrefix: f.storeConfig.KeyPrefix,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create Redis store: %w", err)
		}
		f.logger.Info("Using Redis store",
			zap.String("addr", f.redisConfig.Addr()),
			zap.String("key_prefix", f.storeConfig.KeyPrefix),
		)
		return store, nil

	case config.StoreBackendSQL:
		if f.db == nil {
			return nil, fmt.Errorf("sql store backend requires a database connection")
		}
		f.logger.Info("Using SQL store")
		return NewSQLStore(f.db), nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", f.storeConfig.Backend)
	}
}
