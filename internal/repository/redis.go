package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"tasksync/internal/config"
	"tasksync/internal/models"

	"github.com/redis/go-redis/v9"
)

const syncStateKey = "tasksync:state"

// RedisStateRepository persists the sync state in redis so it survives
// process restarts.
type RedisStateRepository struct {
	client *redis.Client
}

// NewRedisClient builds a redis client from config.
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

func NewRedisStateRepository(client *redis.Client) *RedisStateRepository {
	return &RedisStateRepository{client: client}
}

func (r *RedisStateRepository) GetState(ctx context.Context) (*models.SyncState, error) {
	if r.client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}

	val, err := r.client.Get(ctx, syncStateKey).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sync state from redis: %w", err)
	}

	var state models.SyncState
	if err := json.Unmarshal([]byte(val), &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal sync state: %w", err)
	}
	return &state, nil
}

func (r *RedisStateRepository) SetState(ctx context.Context, state *models.SyncState) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal sync state: %w", err)
	}
	if err := r.client.Set(ctx, syncStateKey, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to set sync state in redis: %w", err)
	}
	return nil
}
