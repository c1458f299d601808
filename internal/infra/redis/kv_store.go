package redis

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// KVStore implements app.KeyValueStore on Redis strings under a key namespace,
// so several learners' devices can share one Redis instance.
type KVStore struct {
	client    *redis.Client
	namespace string
}

func NewKVStore(client *redis.Client, namespace string) *KVStore {
	return &KVStore{client: client, namespace: namespace}
}

func (s *KVStore) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.client.Get(ctx, s.namespace+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (s *KVStore) Set(ctx context.Context, key, value string) error {
	return s.client.Set(ctx, s.namespace+key, value, 0).Err()
}

func (s *KVStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.namespace+key).Err()
}
