package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenBlacklist defines the interface for token blacklisting operations.
// This is used to invalidate JWT tokens before they expire (logout, suspension).
type TokenBlacklist interface {
	// AddToBlacklist adds a token's JTI (JWT ID) to the blacklist.
	// ttl should be set to the remaining time until token expiration
	AddToBlacklist(ctx context.Context, jti string, ttl time.Duration) error

	// IsBlacklisted checks if a token's JTI is in the blacklist
	IsBlacklisted(ctx context.Context, jti string) (bool, error)

	// InvalidateAdminTokens rejects every token of the admin issued up to now
	InvalidateAdminTokens(ctx context.Context, adminID string, ttl time.Duration) error

	// IsAdminTokenInvalidated reports whether a token issued at tokenIssuedAt
	// predates the admin's invalidation timestamp
	IsAdminTokenInvalidated(ctx context.Context, adminID string, tokenIssuedAt time.Time) (bool, error)
}

const defaultBlacklistPrefix = "token:blacklist:"

// RedisTokenBlacklist implements TokenBlacklist using Redis
type RedisTokenBlacklist struct {
	client    redis.UniversalClient
	keyPrefix string
}

// NewRedisTokenBlacklist creates a blacklist on an existing Redis client.
// keyPrefix namespaces the keys; an empty prefix uses "token:blacklist:".
func NewRedisTokenBlacklist(client redis.UniversalClient, keyPrefix string) *RedisTokenBlacklist {
	if keyPrefix == "" {
		keyPrefix = defaultBlacklistPrefix
	}
	return &RedisTokenBlacklist{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

func (b *RedisTokenBlacklist) jtiKey(jti string) string {
	return b.keyPrefix + "jti:" + jti
}

func (b *RedisTokenBlacklist) adminKey(adminID string) string {
	return b.keyPrefix + "admin:" + adminID
}

// AddToBlacklist adds a token's JTI to the blacklist
func (b *RedisTokenBlacklist) AddToBlacklist(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := b.client.Set(ctx, b.jtiKey(jti), "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to add token to blacklist: %w", err)
	}
	return nil
}

// IsBlacklisted checks if a token's JTI is in the blacklist
func (b *RedisTokenBlacklist) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	exists, err := b.client.Exists(ctx, b.jtiKey(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token blacklist: %w", err)
	}
	return exists > 0, nil
}

// InvalidateAdminTokens stores the current Unix timestamp for the admin.
// Any token issued at or before it is rejected.
func (b *RedisTokenBlacklist) InvalidateAdminTokens(ctx context.Context, adminID string, ttl time.Duration) error {
	err := b.client.Set(ctx, b.adminKey(adminID), time.Now().Unix(), ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to invalidate admin tokens: %w", err)
	}
	return nil
}

// IsAdminTokenInvalidated checks the token against the admin's invalidation timestamp
func (b *RedisTokenBlacklist) IsAdminTokenInvalidated(ctx context.Context, adminID string, tokenIssuedAt time.Time) (bool, error) {
	raw, err := b.client.Get(ctx, b.adminKey(adminID)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check admin token invalidation: %w", err)
	}

	invalidatedAt, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return false, fmt.Errorf("failed to parse invalidation timestamp: %w", err)
	}
	return tokenIssuedAt.Unix() <= invalidatedAt, nil
}

var _ TokenBlacklist = (*RedisTokenBlacklist)(nil)

// InMemoryTokenBlacklist keeps revocations in process memory.
// Used with the memory store backend and in tests.
type InMemoryTokenBlacklist struct {
	mu                 sync.Mutex
	jtiBlacklist       map[string]time.Time // JTI -> expiration time
	adminInvalidations map[string]time.Time // adminID -> invalidation time
}

// NewInMemoryTokenBlacklist creates a new in-memory token blacklist
func NewInMemoryTokenBlacklist() *InMemoryTokenBlacklist {
	return &InMemoryTokenBlacklist{
		jtiBlacklist:       make(map[string]time.Time),
		adminInvalidations: make(map[string]time.Time),
	}
}

// AddToBlacklist adds a token's JTI to the in-memory blacklist
func (b *InMemoryTokenBlacklist) AddToBlacklist(_ context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.jtiBlacklist[jti] = time.Now().Add(ttl)
	return nil
}

// IsBlacklisted checks if a token's JTI is blacklisted (and not expired)
func (b *InMemoryTokenBlacklist) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	expiration, exists := b.jtiBlacklist[jti]
	if !exists {
		return false, nil
	}
	if time.Now().After(expiration) {
		delete(b.jtiBlacklist, jti)
		return false, nil
	}
	return true, nil
}

// InvalidateAdminTokens rejects all tokens of the admin issued up to now
func (b *InMemoryTokenBlacklist) InvalidateAdminTokens(_ context.Context, adminID string, _ time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.adminInvalidations[adminID] = time.Now()
	return nil
}

// IsAdminTokenInvalidated compares with nanosecond precision
func (b *InMemoryTokenBlacklist) IsAdminTokenInvalidated(_ context.Context, adminID string, tokenIssuedAt time.Time) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	invalidatedAt, exists := b.adminInvalidations[adminID]
	if !exists {
		return false, nil
	}
	return !tokenIssuedAt.After(invalidatedAt), nil
}

var _ TokenBlacklist = (*InMemoryTokenBlacklist)(nil)
