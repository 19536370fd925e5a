package cache

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/mirumee/avatax-excise/internal/domain/tax"
	"github.com/mirumee/avatax-excise/internal/infrastructure/config"
)

// ResponseCacheFactory creates response caches based on configuration
type ResponseCacheFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// ResponseCacheFactoryOption is a functional option for configuring the factory
type ResponseCacheFactoryOption func(*ResponseCacheFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) ResponseCacheFactoryOption {
	return func(f *ResponseCacheFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to an in-memory cache
// when Redis is unavailable. Default is true (allow fallback).
func WithInMemoryFallback(allow bool) ResponseCacheFactoryOption {
	return func(f *ResponseCacheFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewResponseCacheFactory creates a new factory
func NewResponseCacheFactory(cfg config.RedisConfig, opts ...ResponseCacheFactoryOption) *ResponseCacheFactory {
	f := &ResponseCacheFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CreateRedisCache creates a Redis-based response cache
func (f *ResponseCacheFactory) CreateRedisCache() (tax.ResponseCache, error) {
	redisCfg := RedisConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	}

	cache, err := NewRedisResponseCache(redisCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis response cache: %w", err)
	}

	return cache, nil
}

// CreateInMemoryCache creates an in-memory response cache.
// WARNING: In-memory caches do not share state across process instances,
// so distributed deployments will re-fetch calculations per instance.
func (f *ResponseCacheFactory) CreateInMemoryCache() tax.ResponseCache {
	return NewInMemoryResponseCache()
}

// CreateCache creates a response cache based on whether Redis is available.
// It tries Redis first and falls back to in-memory if Redis is not available
// and AllowInMemoryFallback is true.
func (f *ResponseCacheFactory) CreateCache() (tax.ResponseCache, error) {
	cache, err := f.CreateRedisCache()
	if err == nil {
		f.logger.Info("using Redis response cache")
		return cache, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required for response caching but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory response cache. "+
		"Each instance will fetch its own tax calculations.",
		zap.Error(err),
	)
	return f.CreateInMemoryCache(), nil
}
