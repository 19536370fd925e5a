package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mirumee/avatax-excise/internal/domain/tax"
)

// RedisResponseCache implements tax.ResponseCache using Redis.
// This is suitable for distributed deployments where multiple instances
// serve tax calculations for the same checkouts.
type RedisResponseCache struct {
	client    *redis.Client
	keyPrefix string
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// defaultKeyPrefix namespaces cache entries so the plugin never collides with
// other services sharing the Redis instance
const defaultKeyPrefix = "avatax_excise:response:"

// cachedEnvelope is the JSON envelope stored in Redis
type cachedEnvelope struct {
	Fingerprint string                 `json:"fingerprint"`
	Result      *tax.CalculationResult `json:"result"`
}

// NewRedisResponseCache creates a new Redis-based response cache
func NewRedisResponseCache(cfg RedisConfig) (*RedisResponseCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisResponseCache{
		client:    client,
		keyPrefix: defaultKeyPrefix,
	}, nil
}

// NewRedisResponseCacheWithClient creates a cache with an existing Redis client.
// This is useful for testing or when sharing a client across components.
func NewRedisResponseCacheWithClient(client *redis.Client, keyPrefix string) *RedisResponseCache {
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	return &RedisResponseCache{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// Get returns the cached calculation and its request fingerprint for a token
func (c *RedisResponseCache) Get(ctx context.Context, token string) (*tax.CalculationResult, string, bool) {
	data, err := c.client.Get(ctx, c.keyPrefix+token).Bytes()
	if err != nil {
		// Misses and transport errors both fall through to a fresh fetch
		return nil, "", false
	}

	var envelope cachedEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, "", false
	}

	return envelope.Result, envelope.Fingerprint, true
}

// Set stores a calculation under token together with its request fingerprint
func (c *RedisResponseCache) Set(ctx context.Context, token string, fingerprint string, result *tax.CalculationResult, ttl time.Duration) error {
	data, err := json.Marshal(cachedEnvelope{
		Fingerprint: fingerprint,
		Result:      result,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal cached calculation: %w", err)
	}

	if err := c.client.Set(ctx, c.keyPrefix+token, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store cached calculation: %w", err)
	}

	return nil
}

// Close closes the Redis client
func (c *RedisResponseCache) Close() error {
	return c.client.Close()
}

// GetClient returns the underlying Redis client (for testing/monitoring)
func (c *RedisResponseCache) GetClient() *redis.Client {
	return c.client
}

// Ensure RedisResponseCache implements ResponseCache
var _ tax.ResponseCache = (*RedisResponseCache)(nil)
