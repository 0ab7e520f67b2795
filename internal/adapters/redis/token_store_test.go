package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakunasanka/Sona-frontend-admin-sub000/internal/ports"
	"github.com/sakunasanka/Sona-frontend-admin-sub000/internal/testutil"
)

// setupTestRedis creates a Redis client for testing.
// Tests will be skipped if Redis is not available.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	return testutil.SetupTestRedis(t)
}

func TestTokenStore_SaveAndGet(t *testing.T) {
	client := setupTestRedis(t)

	store := NewTokenStore(client, TokenStoreOptions{})
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "sid-1", "header.claims.sig"))

	tok, err := store.Get(ctx, "sid-1")
	require.NoError(t, err)
	assert.Equal(t, "header.claims.sig", tok)

	// No TTL unless configured: expiry belongs to the token's claims.
	ttl := client.TTL(ctx, "console:sid-1:token").Val()
	assert.Equal(t, time.Duration(-1), ttl)
}

func TestTokenStore_Overwrite(t *testing.T) {
	client := setupTestRedis(t)

	store := NewTokenStore(client, TokenStoreOptions{})
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "sid-1", "old"))
	require.NoError(t, store.Save(ctx, "sid-1", "new"))

	tok, err := store.Get(ctx, "sid-1")
	require.NoError(t, err)
	assert.Equal(t, "new", tok)
}

func TestTokenStore_GetNonExistent(t *testing.T) {
	client := setupTestRedis(t)

	store := NewTokenStore(client, TokenStoreOptions{})

	_, err := store.Get(context.Background(), "non-existent")
	assert.ErrorIs(t, err, ports.ErrTokenNotFound)

	_, err = store.Get(context.Background(), "")
	assert.ErrorIs(t, err, ports.ErrTokenNotFound)
}

func TestTokenStore_Delete(t *testing.T) {
	client := setupTestRedis(t)

	store := NewTokenStore(client, TokenStoreOptions{})
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "sid-delete", "tok"))
	require.NoError(t, store.Delete(ctx, "sid-delete"))

	_, err := store.Get(ctx, "sid-delete")
	assert.ErrorIs(t, err, ports.ErrTokenNotFound)
	assert.NoError(t, store.Delete(ctx, ""))
}

func TestTokenStore_IdleTTL(t *testing.T) {
	client := setupTestRedis(t)

	store := NewTokenStore(client, TokenStoreOptions{Prefix: "test-prefix:", IdleTTL: 150 * time.Millisecond})
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "idle", "tok"))
	assert.Equal(t, int64(1), client.Exists(ctx, "test-prefix:idle:token").Val())

	time.Sleep(300 * time.Millisecond)

	_, err := store.Get(ctx, "idle")
	assert.ErrorIs(t, err, ports.ErrTokenNotFound)
}

func TestTokenStore_SaveEmptyID(t *testing.T) {
	client := setupTestRedis(t)

	store := NewTokenStore(client, TokenStoreOptions{})

	err := store.Save(context.Background(), "", "tok")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session ID cannot be empty")
}

func TestTokenStore_Purge(t *testing.T) {
	client := setupTestRedis(t)

	ctx := context.Background()
	store := NewTokenStore(client, TokenStoreOptions{Prefix: "purge-test:"})
	other := NewTokenStore(client, TokenStoreOptions{Prefix: "purge-other:"})

	for _, sid := range []string{"a", "b", "c"} {
		require.NoError(t, store.Save(ctx, sid, "tok-"+sid))
	}
	require.NoError(t, other.Save(ctx, "keep", "tok"))
	t.Cleanup(func() { _ = other.Delete(ctx, "keep") })

	n, err := store.Purge(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	_, err = store.Get(ctx, "a")
	assert.ErrorIs(t, err, ports.ErrTokenNotFound)

	tok, err := other.Get(ctx, "keep")
	require.NoError(t, err, "other prefixes are untouched")
	assert.Equal(t, "tok", tok)

	n, err = store.Purge(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestTokenStore_PurgeCluster(t *testing.T) {
	client := testutil.SetupTestRedisCluster(t)

	ctx := context.Background()
	prefix := fmt.Sprintf("purge-cluster-%d:", time.Now().UnixNano())
	store := NewTokenStore(client, TokenStoreOptions{Prefix: prefix})

	// Enough sessions that their keys land on every master.
	const sessions = 64
	for i := 0; i < sessions; i++ {
		require.NoError(t, store.Save(ctx, fmt.Sprintf("sid-%d", i), "tok"))
	}

	n, err := store.Purge(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(sessions), n)

	for i := 0; i < sessions; i++ {
		_, err := store.Get(ctx, fmt.Sprintf("sid-%d", i))
		assert.ErrorIs(t, err, ports.ErrTokenNotFound)
	}
}
