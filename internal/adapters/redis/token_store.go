package redis

// Package redis provides Redis-based adapters for the admin console.

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sakunasanka/Sona-frontend-admin-sub000/internal/ports"
)

const (
	defaultPrefix = "console:"
	purgeBatch    = 100
)

var _ ports.TokenStore = (*TokenStore)(nil)

// TokenStore is a Redis-based token store for multi-instance deployments.
// Keys are "<prefix><sessionID>:token". The token's own exp is never used as a TTL;
// IdleTTL, when set, only bounds how long an untouched session lingers in Redis.
type TokenStore struct {
	client  redis.UniversalClient
	prefix  string
	idleTTL time.Duration
}

// TokenStoreOptions configures a Redis token store.
type TokenStoreOptions struct {
	Prefix  string
	IdleTTL time.Duration
}

// NewTokenStore creates a new Redis-based token store.
func NewTokenStore(client redis.UniversalClient, opts TokenStoreOptions) *TokenStore {
	prefix := opts.Prefix
	if prefix == "" {
		prefix = defaultPrefix
	}
	idle := opts.IdleTTL
	if idle < 0 {
		idle = 0
	}
	return &TokenStore{
		client:  client,
		prefix:  prefix,
		idleTTL: idle,
	}
}

func (s *TokenStore) key(sessionID string) string {
	return s.prefix + sessionID + ":" + ports.TokenKey
}

func (s *TokenStore) Save(ctx context.Context, sessionID, token string) error {
	if sessionID == "" {
		return errors.New("session ID cannot be empty")
	}
	if err := s.client.Set(ctx, s.key(sessionID), token, s.idleTTL).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *TokenStore) Get(ctx context.Context, sessionID string) (string, error) {
	if sessionID == "" {
		return "", ports.ErrTokenNotFound
	}

	key := s.key(sessionID)
	var (
		tok string
		err error
	)
	if s.idleTTL > 0 {
		// Sliding window: a read keeps an active session alive.
		tok, err = s.client.GetEx(ctx, key, s.idleTTL).Result()
	} else {
		tok, err = s.client.Get(ctx, key).Result()
	}
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ports.ErrTokenNotFound
		}
		return "", fmt.Errorf("redis get: %w", err)
	}
	return tok, nil
}

func (s *TokenStore) Delete(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil // Nothing to delete
	}
	if err := s.client.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Purge removes every stored token under the store's prefix and reports how many keys went.
// It scans rather than using KEYS so a large keyspace is never blocked. A cluster
// client is scanned master by master, since SCAN only walks the node it reaches.
func (s *TokenStore) Purge(ctx context.Context) (int64, error) {
	cluster, ok := s.client.(*redis.ClusterClient)
	if !ok {
		return s.purgeNode(ctx, s.client)
	}

	var removed atomic.Int64
	err := cluster.ForEachMaster(ctx, func(ctx context.Context, node *redis.Client) error {
		n, err := s.purgeNode(ctx, node)
		removed.Add(n)
		return err
	})
	return removed.Load(), err
}

// purgeNode unlinks matching keys on one node. Keys are unlinked one command per
// key in a pipeline so a batch never spans hash slots.
func (s *TokenStore) purgeNode(ctx context.Context, node redis.Cmdable) (int64, error) {
	pattern := s.prefix + "*:" + ports.TokenKey
	iter := node.Scan(ctx, 0, pattern, purgeBatch).Iterator()

	var (
		removed int64
		batch   = make([]string, 0, purgeBatch)
	)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		cmds, err := node.Pipelined(ctx, func(p redis.Pipeliner) error {
			for _, key := range batch {
				p.Unlink(ctx, key)
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("redis unlink: %w", err)
		}
		for _, cmd := range cmds {
			if ic, ok := cmd.(*redis.IntCmd); ok {
				removed += ic.Val()
			}
		}
		batch = batch[:0]
		return nil
	}

	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == purgeBatch {
			if err := flush(); err != nil {
				return removed, err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("redis scan: %w", err)
	}
	if err := flush(); err != nil {
		return removed, err
	}
	return removed, nil
}
