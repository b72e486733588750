package listcache

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

// Redis is a Store backed by a shared Redis instance, for deployments where
// several API replicas must see each other's invalidations.
type Redis struct {
	client *redis.Client
	ns     string
}

// NewRedis connects to the Redis URL (redis://...) and verifies it with a
// ping. All keys are placed under the given namespace.
func NewRedis(ctx context.Context, redisURL, namespace string) (*Redis, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return &Redis{client: client, ns: namespace + ":"}, nil
}

func (s *Redis) Get(ctx context.Context, key string) ([]byte, bool) {
	data, err := s.client.Get(ctx, s.ns+key).Bytes()
	if err != nil {
		return nil, false
	}
	return data, true
}

func (s *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	s.client.Set(ctx, s.ns+key, value, ttl)
}

func (s *Redis) Invalidate(ctx context.Context, prefix string) {
	iter := s.client.Scan(ctx, 0, s.ns+prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		s.client.Del(ctx, iter.Val())
	}
}

// Close releases the underlying client.
func (s *Redis) Close() error {
	return s.client.Close()
}
