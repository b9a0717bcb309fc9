package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "dutybot:snapshot:"

var errNotFound = errors.New("snapshot not found")

// Redis stores snapshots as string values under dutybot:snapshot:<name>.
type Redis struct {
	rdb *redis.Client
}

// NewRedis creates a Redis-backed snapshot store.
func NewRedis(opts *redis.Options) *Redis {
	return &Redis{rdb: redis.NewClient(opts)}
}

// Ping verifies Redis connectivity. Useful at startup.
func (r *Redis) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

// Close closes the Redis connection. Implements io.Closer.
func (r *Redis) Close() error {
	return r.rdb.Close()
}

func (r *Redis) Save(ctx context.Context, name string, v any) error {
	data, err := json.MarshalIndent(v, "", "   ")
	if err != nil {
		return fmt.Errorf("failed to serialize snapshot %s: %w", name, err)
	}
	if err := r.rdb.Set(ctx, keyPrefix+name, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to write snapshot %s to Redis: %w", name, err)
	}
	return nil
}

func (r *Redis) Load(ctx context.Context, name string) ([]byte, error) {
	data, err := r.rdb.Get(ctx, keyPrefix+name).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("snapshot %s: %w", name, errNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot %s from Redis: %w", name, err)
	}
	return data, nil
}

func (r *Redis) Names(ctx context.Context) ([]string, error) {
	keys, err := r.rdb.Keys(ctx, keyPrefix+"*").Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}

	names := make([]string, 0, len(keys))
	for _, key := range keys {
		names = append(names, strings.TrimPrefix(key, keyPrefix))
	}
	sort.Strings(names)
	return names, nil
}

// IsNotFound returns true if the error indicates a missing snapshot.
func IsNotFound(err error) bool {
	return errors.Is(err, errNotFound)
}
