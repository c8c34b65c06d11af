// Package redis implements repository.KeyValueStore on Redis.
//
// Each catalog key maps to one Redis string under a prefix
// ("bookreview:users", "bookreview:books", ...). Values never expire: the
// catalog is durable data, not a cache.
package redis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/sakif/bookreview/internal/repository"
)

var (
	_ repository.KeyValueStore = (*Store)(nil)
	_ repository.KeyLister     = (*Store)(nil)
)

const defaultPrefix = "bookreview"

// Options configures the Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	// Timeout bounds each command when the caller's context has no deadline.
	Timeout time.Duration
}

// Store keeps each value in a Redis string under prefix:key.
type Store struct {
	client  *goredis.Client
	prefix  string
	timeout time.Duration
}

// New builds a Redis-backed store and pings the server so a wrong address
// fails at startup rather than on the first command.
func New(ctx context.Context, opts Options) (*Store, error) {
	addr := strings.TrimSpace(opts.Addr)
	if addr == "" {
		return nil, errors.New("redis: addr is required")
	}
	prefix := strings.TrimSpace(opts.Prefix)
	if prefix == "" {
		prefix = defaultPrefix
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}

	s := &Store{
		client: goredis.NewClient(&goredis.Options{
			Addr:     addr,
			Password: opts.Password,
			DB:       opts.DB,
		}),
		prefix:  prefix,
		timeout: timeout,
	}

	pingCtx, cancel := s.withTimeout(ctx)
	defer cancel()
	if err := s.client.Ping(pingCtx).Err(); err != nil {
		s.client.Close()
		return nil, fmt.Errorf("redis: ping %s: %w", addr, err)
	}
	return s, nil
}

func (s *Store) key(k string) string { return s.prefix + ":" + k }

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

// Get returns repository.ErrKeyNotFound for a missing key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	val, err := s.client.Get(ctx, s.key(key)).Bytes()
	if err == goredis.Nil {
		return nil, repository.ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis: get %s: %w", key, err)
	}
	return val, nil
}

// Set overwrites the value with no expiry.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	if err := s.client.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis: set %s: %w", key, err)
	}
	return nil
}

// Delete removes key. A missing key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil && err != goredis.Nil {
		return fmt.Errorf("redis: del %s: %w", key, err)
	}
	return nil
}

// Keys scans for keys under the prefix. SCAN rather than KEYS so a large
// shared instance is not blocked.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var keys []string
	iter := s.client.Scan(ctx, 0, s.prefix+":*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, strings.TrimPrefix(iter.Val(), s.prefix+":"))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis: scan keys: %w", err)
	}
	sort.Strings(keys)
	return keys, nil
}

// Close closes the client connection pool.
func (s *Store) Close() error { return s.client.Close() }
