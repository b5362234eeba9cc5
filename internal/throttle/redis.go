package throttle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCounter keeps windows in redis so every API replica sees the same counts.
type RedisCounter struct {
	rdb *redis.Client
}

type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// DialRedis builds a client with short timeouts; sign-in fails open when the
// counter is slow, so waiting long on redis buys nothing. No connection is
// made until first use.
func DialRedis(opts RedisOptions) *RedisCounter {
	return NewRedisCounter(redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
		PoolSize:     10,
	}))
}

func NewRedisCounter(rdb *redis.Client) *RedisCounter {
	return &RedisCounter{rdb: rdb}
}

// Ping backs the readiness check.
func (r *RedisCounter) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

func (r *RedisCounter) Close() error {
	return r.rdb.Close()
}

func (r *RedisCounter) Hit(ctx context.Context, key string, window time.Duration) (int, time.Duration, error) {
	pipe := r.rdb.TxPipeline()
	incr := pipe.Incr(ctx, key)
	ttl := pipe.PTTL(ctx, key)

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, 0, fmt.Errorf("throttle hit %s: %w", key, err)
	}

	left := ttl.Val()
	// -1: key exists without expiry, i.e. this hit opened the window
	if left < 0 {
		if err := r.rdb.PExpire(ctx, key, window).Err(); err != nil {
			return 0, 0, fmt.Errorf("throttle expire %s: %w", key, err)
		}
		left = window
	}

	return int(incr.Val()), left, nil
}

func (r *RedisCounter) Peek(ctx context.Context, key string) (int, error) {
	n, err := r.rdb.Get(ctx, key).Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("throttle peek %s: %w", key, err)
	}
	return n, nil
}

func (r *RedisCounter) Reset(ctx context.Context, key string) error {
	if err := r.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("throttle reset %s: %w", key, err)
	}
	return nil
}
