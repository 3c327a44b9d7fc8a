package registry

import (
	"context"
	"time"

	"emperror.dev/errors"
	"github.com/redis/go-redis/v9"
)

// RedisClient is the production registry.Client backed by
// github.com/redis/go-redis/v9. Redis's native string/set/hash/list types
// and per-key TTLs line up directly with the key shapes spec §3 describes,
// so no mapping layer beyond method names is required.
type RedisClient struct {
	rdb *redis.Client
}

// RedisConfig configures the underlying go-redis connection.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisClient constructs the go-redis client without dialing: go-redis
// connects lazily on first command, so the address is not validated here.
// Connected performs an explicit PING bounded at 2 seconds.
func NewRedisClient(cfg RedisConfig) *RedisClient {
	return &RedisClient{
		rdb: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
	}
}

func (c *RedisClient) Get(ctx context.Context, key string) (string, error) {
	v, err := c.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", errors.Wrapf(err, "registry: GET %s", key)
	}
	return v, nil
}

func (c *RedisClient) Set(ctx context.Context, key, value string) error {
	if err := c.rdb.Set(ctx, key, value, 0).Err(); err != nil {
		return errors.Wrapf(err, "registry: SET %s", key)
	}
	return nil
}

func (c *RedisClient) Del(ctx context.Context, key string) error {
	if err := c.rdb.Del(ctx, key).Err(); err != nil {
		return errors.Wrapf(err, "registry: DEL %s", key)
	}
	return nil
}

func (c *RedisClient) Exists(ctx context.Context, key string) (bool, error) {
	n, err := c.rdb.Exists(ctx, key).Result()
	return n > 0, err
}

func (c *RedisClient) Expire(ctx context.Context, key string, seconds int64) error {
	return c.rdb.Expire(ctx, key, time.Duration(seconds)*time.Second).Err()
}

func (c *RedisClient) TTL(ctx context.Context, key string) (int64, error) {
	d, err := c.rdb.TTL(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, nil
	}
	return int64(d.Seconds()), nil
}

func (c *RedisClient) SAdd(ctx context.Context, key, member string) error {
	return c.rdb.SAdd(ctx, key, member).Err()
}

func (c *RedisClient) SRem(ctx context.Context, key, member string) error {
	return c.rdb.SRem(ctx, key, member).Err()
}

func (c *RedisClient) SMembers(ctx context.Context, key string) ([]string, error) {
	return c.rdb.SMembers(ctx, key).Result()
}

func (c *RedisClient) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	return c.rdb.HGetAll(ctx, key).Result()
}

func (c *RedisClient) LRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	return c.rdb.LRange(ctx, key, start, stop).Result()
}

func (c *RedisClient) Connected() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return c.rdb.Ping(ctx).Err() == nil
}

func (c *RedisClient) Close() error {
	return c.rdb.Close()
}
