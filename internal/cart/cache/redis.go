package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "storefront:cart:"

// Each cart lives in one hash: "data" holds the JSON lines, "ver" the write
// counter. The version survives a Delete so that stale fills still lose.
var (
	setScript = redis.NewScript(`
local v = redis.call('HINCRBY', KEYS[1], 'ver', 1)
redis.call('HSET', KEYS[1], 'data', ARGV[1])
redis.call('PEXPIRE', KEYS[1], ARGV[2])
return v`)

	fillScript = redis.NewScript(`
local v = redis.call('HGET', KEYS[1], 'ver') or '0'
if v ~= ARGV[1] or redis.call('HEXISTS', KEYS[1], 'data') == 1 then
  return 0
end
redis.call('HSET', KEYS[1], 'data', ARGV[2])
redis.call('PEXPIRE', KEYS[1], ARGV[3])
return 1`)

	deleteScript = redis.NewScript(`
redis.call('HDEL', KEYS[1], 'data')
local v = redis.call('HINCRBY', KEYS[1], 'ver', 1)
redis.call('PEXPIRE', KEYS[1], ARGV[1])
return v`)
)

type RedisCache struct {
	client  *redis.Client
	baseTTL time.Duration
	jitter  time.Duration
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{
		client:  client,
		baseTTL: 15 * time.Minute,
		jitter:  5 * time.Minute,
	}
}

func (r *RedisCache) Get(ctx context.Context, cartID string) (*domain.Cart, Version, error) {
	vals, err := r.client.HMGet(ctx, cacheKey(cartID), "data", "ver").Result()
	if err != nil {
		return nil, 0, fmt.Errorf("redis hmget failed: %w", err)
	}

	ver, err := parseVersion(vals[1])
	if err != nil {
		return nil, 0, err
	}
	data, ok := vals[0].(string)
	if !ok {
		return nil, ver, ErrCacheMiss
	}

	var cart domain.Cart
	if err := json.Unmarshal([]byte(data), &cart); err != nil {
		return nil, ver, fmt.Errorf("unmarshal cart failed: %w", err)
	}
	if cart.ID == "" {
		cart.ID = cartID
	}
	return &cart, ver, nil
}

func (r *RedisCache) Fill(ctx context.Context, cart *domain.Cart, seen Version) (bool, error) {
	data, err := json.Marshal(cart)
	if err != nil {
		return false, fmt.Errorf("marshal cart failed: %w", err)
	}

	n, err := fillScript.Run(ctx, r.client, []string{cacheKey(cart.ID)},
		strconv.FormatInt(int64(seen), 10), data, r.ttl().Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("redis fill failed: %w", err)
	}
	return n == 1, nil
}

func (r *RedisCache) Set(ctx context.Context, cart *domain.Cart) error {
	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("marshal cart failed: %w", err)
	}

	if err := setScript.Run(ctx, r.client, []string{cacheKey(cart.ID)}, data, r.ttl().Milliseconds()).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisCache) Delete(ctx context.Context, cartID string) error {
	if err := deleteScript.Run(ctx, r.client, []string{cacheKey(cartID)}, r.baseTTL.Milliseconds()).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

// ttl spreads expiry so carts written together do not expire together.
func (r *RedisCache) ttl() time.Duration {
	if r.jitter <= 0 {
		return r.baseTTL
	}
	return r.baseTTL + rand.N(r.jitter)
}

func parseVersion(v any) (Version, error) {
	s, ok := v.(string)
	if !ok {
		return 0, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, errors.Join(errors.New("corrupt cart cache version"), err)
	}
	return Version(n), nil
}

func cacheKey(cartID string) string {
	return keyPrefix + cartID
}
