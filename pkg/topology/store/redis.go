package store

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/pcegraph/pkg/topology"
)

const (
	redisKeyPrefix   = "pcegraph:topology:"
	redisNetworksSet = "pcegraph:topologies"
)

// RedisStore keeps JSON-encoded snapshots in redis. Connection failures are
// reported as retryable.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to the redis server at addr.
func NewRedisStore(ctx context.Context, addr, password string, db int) (*RedisStore, error) {
	if addr == "" {
		return nil, fmt.Errorf("redis store: no address")
	}
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return NewRedisStoreFromClient(client), nil
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func redisKey(network string) string { return redisKeyPrefix + network }

// Read returns the snapshot of network.
func (s *RedisStore) Read(ctx context.Context, network string) (*topology.Snapshot, error) {
	if err := validNetwork(network); err != nil {
		return nil, err
	}
	data, err := s.client.Get(ctx, redisKey(network)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, network)
	}
	if err != nil {
		return nil, Retryable(fmt.Errorf("redis get %s: %w", network, err))
	}
	return decodeJSON(data)
}

// Write stores snap and records its network name.
func (s *RedisStore) Write(ctx context.Context, snap *topology.Snapshot) error {
	if err := validNetwork(snap.Network); err != nil {
		return err
	}
	data, err := encodeJSON(snap)
	if err != nil {
		return err
	}
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, redisKey(snap.Network), data, 0)
	pipe.SAdd(ctx, redisNetworksSet, snap.Network)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis write %s: %w", snap.Network, err)
	}
	return nil
}

// Networks lists the stored networks.
func (s *RedisStore) Networks(ctx context.Context) ([]string, error) {
	names, err := s.client.SMembers(ctx, redisNetworksSet).Result()
	if err != nil {
		return nil, Retryable(fmt.Errorf("redis smembers: %w", err))
	}
	slices.Sort(names)
	return names, nil
}

// Close closes the client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ensure RedisStore implements Store.
var _ Store = (*RedisStore)(nil)
