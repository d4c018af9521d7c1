package state

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// DefaultKeyPrefix is the prefix for all agent state keys.
const DefaultKeyPrefix = "tsaheylu"

// RedisStore implements Store using Redis string keys.
type RedisStore struct {
	client redis.UniversalClient
	cfg    RedisStoreConfig
}

// RedisStoreConfig scopes the keys of one agent identity.
type RedisStoreConfig struct {
	// Prefix is joined with Namespace and the document key, e.g. "tsaheylu:myagent:counters".
	Prefix string
	// Namespace separates identities sharing one Redis.
	Namespace string
	// TTL of stored documents; zero keeps them forever.
	TTL time.Duration
}

// NewRedisStore creates a new Redis-backed store.
func NewRedisStore(client redis.UniversalClient, cfg RedisStoreConfig) *RedisStore {
	if cfg.Prefix == "" {
		cfg.Prefix = DefaultKeyPrefix
	}
	return &RedisStore{
		client: client,
		cfg:    cfg,
	}
}

// makeKey creates the Redis key for a document
func (r *RedisStore) makeKey(key string) string {
	if r.cfg.Namespace == "" {
		return fmt.Sprintf("%s:%s", r.cfg.Prefix, key)
	}
	return fmt.Sprintf("%s:%s:%s", r.cfg.Prefix, r.cfg.Namespace, key)
}

// Load retrieves a document from Redis
func (r *RedisStore) Load(ctx context.Context, key string, v interface{}) (bool, error) {
	if key == "" {
		return false, ErrEmptyKey
	}

	data, err := r.client.Get(ctx, r.makeKey(key)).Result()
	if err == redis.Nil {
		logrus.Debugf("no persisted state for key %s", r.makeKey(key))
		return false, nil
	}
	if err != nil {
		logrus.Errorf("failed to get state %s: %v", r.makeKey(key), err)
		return false, fmt.Errorf("failed to get state: %w", err)
	}

	if err := json.Unmarshal([]byte(data), v); err != nil {
		logrus.Errorf("failed to unmarshal state %s: %v", r.makeKey(key), err)
		return false, fmt.Errorf("failed to unmarshal state: %w", err)
	}

	return true, nil
}

// Save stores a document in Redis
func (r *RedisStore) Save(ctx context.Context, key string, v interface{}) error {
	if key == "" {
		return ErrEmptyKey
	}

	data, err := json.Marshal(v)
	if err != nil {
		logrus.Errorf("failed to marshal state %s: %v", r.makeKey(key), err)
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	if err := r.client.Set(ctx, r.makeKey(key), data, r.cfg.TTL).Err(); err != nil {
		logrus.Errorf("failed to set state %s: %v", r.makeKey(key), err)
		return fmt.Errorf("failed to set state: %w", err)
	}

	logrus.Debugf("saved state %s", r.makeKey(key))
	return nil
}

// Delete removes a document from Redis
func (r *RedisStore) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.makeKey(key)).Err(); err != nil {
		logrus.Errorf("failed to delete state %s: %v", r.makeKey(key), err)
		return fmt.Errorf("failed to delete state: %w", err)
	}
	return nil
}
