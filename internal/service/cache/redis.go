package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a BytesCache over a shared Redis client so ops replicas
// share one view cache.
type Redis struct {
	cli    *redis.Client
	prefix string
}

func NewRedis(cli *redis.Client, prefix string) *Redis {
	if prefix == "" {
		prefix = "oddsflow"
	}
	return &Redis{cli: cli, prefix: prefix + ":cache:"}
}

func (r *Redis) GetBytes(key string) ([]byte, bool, error) {
	b, err := r.cli.Get(context.Background(), r.prefix+key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, false, nil
		}
		return nil, false, err
	}
	return b, true, nil
}

func (r *Redis) SetBytes(key string, value []byte, ttl time.Duration) error {
	return r.cli.Set(context.Background(), r.prefix+key, value, ttl).Err()
}
