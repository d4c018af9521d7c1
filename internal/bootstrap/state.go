package bootstrap

import (
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/UhthredB/tsaheylu-sub000/internal/config"
	"github.com/UhthredB/tsaheylu-sub000/pkg/state"
)

// InitStateStore creates the durable store for this agent identity.
// The redis backend requires an already connected client.
func InitStateStore(cfg *config.Config, redisClient redis.UniversalClient) (state.Store, error) {
	switch cfg.StateBackend {
	case config.BackendRedis:
		if redisClient == nil {
			return nil, fmt.Errorf("redis backend selected but no Redis client")
		}
		logrus.Infof("using Redis state store with prefix %s:%s", cfg.RedisKeyPrefix, cfg.Namespace())
		return state.NewRedisStore(redisClient, state.RedisStoreConfig{
			Prefix:    cfg.RedisKeyPrefix,
			Namespace: cfg.Namespace(),
		}), nil
	default:
		store, err := state.NewFileStore(cfg.StatePath())
		if err != nil {
			return nil, fmt.Errorf("failed to open file store: %w", err)
		}
		logrus.Infof("using file state store at %s", cfg.StatePath())
		return store, nil
	}
}
