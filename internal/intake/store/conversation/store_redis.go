package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"aquita/internal/intake/models"
	"aquita/pkg/platform/sentinel"
)

// RedisStore keeps conversation state in Redis so multiple instances share it.
// Keys carry no TTL by default, matching the no-expiry design; a TTL can be
// set to reap abandoned conversations.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func key(sender string) string {
	return "conv:" + sender
}

func (s *RedisStore) Get(ctx context.Context, sender string) (models.State, error) {
	raw, err := s.client.Get(ctx, key(sender)).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.State{}, fmt.Errorf("conversation %s: %w", sender, sentinel.ErrNotFound)
	}
	if err != nil {
		return models.State{}, fmt.Errorf("get conversation: %w", err)
	}
	var state models.State
	if err := json.Unmarshal(raw, &state); err != nil {
		return models.State{}, fmt.Errorf("decode conversation: %w", err)
	}
	return state, nil
}

func (s *RedisStore) Save(ctx context.Context, sender string, state models.State) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode conversation: %w", err)
	}
	if err := s.client.Set(ctx, key(sender), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("save conversation: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, sender string) error {
	if err := s.client.Del(ctx, key(sender)).Err(); err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	return nil
}
