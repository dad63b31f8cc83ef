package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis shares cache entries between API replicas. Each tag is a redis set
// holding the keys stored under it.
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedis(client *redis.Client, prefix string, defaultTTL time.Duration) *Redis {
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTL
	}
	if prefix == "" {
		prefix = "jobboard"
	}
	return &Redis{client: client, prefix: prefix, ttl: defaultTTL}
}

func (c *Redis) entryKey(key string) string { return c.prefix + ":cache:" + key }
func (c *Redis) tagKey(tag string) string   { return c.prefix + ":tag:" + tag }
func (c *Redis) genKey(tag string) string   { return c.prefix + ":gen:" + tag }

func (c *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, ErrInvalidKey
	}
	val, err := c.client.Get(ctx, c.entryKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return val, nil
}

func (c *Redis) Put(ctx context.Context, key string, value []byte, ttl time.Duration, tags ...string) error {
	if key == "" {
		return ErrInvalidKey
	}
	if ttl <= 0 {
		ttl = c.ttl
	}
	entry := c.entryKey(key)
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, entry, value, ttl)
		for _, tag := range tags {
			pipe.SAdd(ctx, c.tagKey(tag), entry)
		}
		return nil
	})
	return err
}

// Invalidate removes only the members it read, so a Put racing with the
// invalidation keeps its tag link. The generation bump lands before the
// members are read.
func (c *Redis) Invalidate(ctx context.Context, tags ...string) error {
	for _, tag := range tags {
		if err := c.client.Incr(ctx, c.genKey(tag)).Err(); err != nil {
			return err
		}
		tk := c.tagKey(tag)
		members, err := c.client.SMembers(ctx, tk).Result()
		if err != nil {
			return err
		}
		if len(members) == 0 {
			continue
		}
		asArgs := make([]interface{}, len(members))
		for i, m := range members {
			asArgs[i] = m
		}
		_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, members...)
			pipe.SRem(ctx, tk, asArgs...)
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (c *Redis) Generation(ctx context.Context, tag string) (uint64, error) {
	gen, err := c.client.Get(ctx, c.genKey(tag)).Uint64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (c *Redis) Delete(ctx context.Context, key string) error {
	if key == "" {
		return ErrInvalidKey
	}
	return c.client.Del(ctx, c.entryKey(key)).Err()
}

func (c *Redis) Close() error {
	return c.client.Close()
}
