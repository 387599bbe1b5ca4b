package auth_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warrantyhub/backend/internal/infrastructure/auth"
)

func TestInMemoryTokenBlacklist_AddToBlacklist(t *testing.T) {
	blacklist := auth.NewInMemoryTokenBlacklist()
	ctx := context.Background()

	err := blacklist.AddToBlacklist(ctx, "test-jti-1", 1*time.Hour)
	require.NoError(t, err)

	isBlacklisted, err := blacklist.IsBlacklisted(ctx, "test-jti-1")
	require.NoError(t, err)
	assert.True(t, isBlacklisted)

	isBlacklisted, err = blacklist.IsBlacklisted(ctx, "test-jti-2")
	require.NoError(t, err)
	assert.False(t, isBlacklisted)
}

func TestInMemoryTokenBlacklist_NonPositiveTTLIsIgnored(t *testing.T) {
	blacklist := auth.NewInMemoryTokenBlacklist()
	ctx := context.Background()

	require.NoError(t, blacklist.AddToBlacklist(ctx, "already-expired", 0))

	isBlacklisted, err := blacklist.IsBlacklisted(ctx, "already-expired")
	require.NoError(t, err)
	assert.False(t, isBlacklisted)
}

func TestInMemoryTokenBlacklist_ExpirationCleanup(t *testing.T) {
	blacklist := auth.NewInMemoryTokenBlacklist()
	ctx := context.Background()

	err := blacklist.AddToBlacklist(ctx, "test-jti-expire", 1*time.Millisecond)
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)

	isBlacklisted, err := blacklist.IsBlacklisted(ctx, "test-jti-expire")
	require.NoError(t, err)
	assert.False(t, isBlacklisted)
}

func TestInMemoryTokenBlacklist_AdminTokenInvalidation(t *testing.T) {
	blacklist := auth.NewInMemoryTokenBlacklist()
	ctx := context.Background()
	tokenIssuedAt := time.Now().Add(-1 * time.Hour)

	invalidated, err := blacklist.IsAdminTokenInvalidated(ctx, "admin-1", tokenIssuedAt)
	require.NoError(t, err)
	assert.False(t, invalidated)

	require.NoError(t, blacklist.InvalidateAdminTokens(ctx, "admin-1", time.Hour))

	invalidated, err = blacklist.IsAdminTokenInvalidated(ctx, "admin-1", tokenIssuedAt)
	require.NoError(t, err)
	assert.True(t, invalidated)

	invalidated, err = blacklist.IsAdminTokenInvalidated(ctx, "admin-1", time.Now().Add(time.Second))
	require.NoError(t, err)
	assert.False(t, invalidated)

	invalidated, err = blacklist.IsAdminTokenInvalidated(ctx, "admin-2", tokenIssuedAt)
	require.NoError(t, err)
	assert.False(t, invalidated)
}

func TestInMemoryTokenBlacklist_MultipleTokens(t *testing.T) {
	blacklist := auth.NewInMemoryTokenBlacklist()
	ctx := context.Background()

	for i := range 10 {
		require.NoError(t, blacklist.AddToBlacklist(ctx, fmt.Sprintf("jti-%d", i), time.Hour))
	}
	for i := range 10 {
		jti := fmt.Sprintf("jti-%d", i)
		isBlacklisted, err := blacklist.IsBlacklisted(ctx, jti)
		require.NoError(t, err)
		assert.True(t, isBlacklisted, "token %s should be blacklisted", jti)
	}
}

func TestRedisTokenBlacklist_UnreachableServer(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()
	blacklist := auth.NewRedisTokenBlacklist(client, "")
	ctx := context.Background()

	assert.Error(t, blacklist.AddToBlacklist(ctx, "jti", time.Minute))
	_, err := blacklist.IsBlacklisted(ctx, "jti")
	assert.Error(t, err)
	_, err = blacklist.IsAdminTokenInvalidated(ctx, "admin", time.Now())
	assert.Error(t, err)

	// zero TTL never reaches the server
	assert.NoError(t, blacklist.AddToBlacklist(ctx, "jti", 0))
}
