package testutil

import (
	"context"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// defaultTestRedisDB keeps test keys out of DB 0, where a developer's console may run.
const defaultTestRedisDB = 9

// redisCandidates lists where a test Redis may be listening, REDIS_ADDR first.
func redisCandidates() []string {
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		return []string{addr}
	}
	return []string{"localhost:56379", "redis:6379", "localhost:6379"}
}

// SetupTestRedis returns a client on an emptied test DB, closed when the test ends.
// The test is skipped when no candidate address answers.
func SetupTestRedis(t testing.TB) *redis.Client {
	t.Helper()

	db := defaultTestRedisDB
	if v := os.Getenv("TEST_REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			db = n
		}
	}

	var lastErr error
	for _, addr := range redisCandidates() {
		client := redis.NewClient(&redis.Options{Addr: addr, DB: db})
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err := client.Ping(ctx).Err()
		if err == nil {
			err = client.FlushDB(ctx).Err()
		}
		cancel()
		if err != nil {
			lastErr = err
			_ = client.Close()
			continue
		}
		t.Cleanup(func() { _ = client.Close() })
		return client
	}

	skipOrFail(t, requireRedis(), "redis not available for testing: %v", lastErr)
	return nil
}

// SetupTestRedisCluster returns a cluster client seeded from TEST_REDIS_CLUSTER_ADDRS
// (comma-separated). Callers must only touch keys under their own prefix because
// a cluster has no per-test database to flush. Skipped when the variable is unset.
func SetupTestRedisCluster(t testing.TB) *redis.ClusterClient {
	t.Helper()

	raw := os.Getenv("TEST_REDIS_CLUSTER_ADDRS")
	if raw == "" {
		t.Skip("TEST_REDIS_CLUSTER_ADDRS not set")
	}
	var addrs []string
	for _, a := range strings.Split(raw, ",") {
		if a = strings.TrimSpace(a); a != "" {
			addrs = append(addrs, a)
		}
	}

	client := redis.NewClusterClient(&redis.ClusterOptions{Addrs: addrs})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		skipOrFail(t, requireRedis(), "redis cluster not available for testing: %v", err)
		return nil
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}
