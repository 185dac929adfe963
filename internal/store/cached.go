package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	DefaultProductCacheTTL = 10 * time.Minute
	UserCacheTTL           = 5 * time.Minute
)

// keyPrefix lists the tables whose by-id lookups are cached.
var keyPrefix = map[string]string{
	TableProducts: "product:",
	TableUsers:    "user:",
}

// CachedClient puts a Redis cache-aside layer in front of single-product and
// single-user lookups, which the recommendation and auth paths issue once per
// candidate or request. Every other call goes straight to the wrapped client.
// Writes to a cached table evict the touched keys.
type CachedClient struct {
	Client
	redis  *redis.Client
	ttl    map[string]time.Duration
	logger *zap.Logger
}

func NewCachedClient(next Client, rdb *redis.Client, productTTL time.Duration, logger *zap.Logger) *CachedClient {
	if productTTL <= 0 {
		productTTL = DefaultProductCacheTTL
	}
	return &CachedClient{
		Client: next,
		redis:  rdb,
		ttl:    map[string]time.Duration{TableProducts: productTTL, TableUsers: UserCacheTTL},
		logger: logger,
	}
}

func cacheKey(table, id string) string {
	return keyPrefix[table] + id
}

// cacheableID reports the record id when q is exactly a lookup by id on a
// cached table.
func cacheableID(table string, q *Query) (string, bool) {
	if _, ok := keyPrefix[table]; !ok || q == nil || len(q.Filters) != 1 || len(q.Orders) > 0 || q.Offset > 0 {
		return "", false
	}
	f := q.Filters[0]
	if f.Field != "id" || f.Op != OpEq || f.Value == nil {
		return "", false
	}
	return fmt.Sprint(f.Value), true
}

func (c *CachedClient) Fetch(ctx context.Context, table string, q *Query) ([]Record, error) {
	id, ok := cacheableID(table, q)
	if !ok {
		return c.Client.Fetch(ctx, table, q)
	}

	key := cacheKey(table, id)
	data, err := c.redis.Get(ctx, key).Bytes()
	if err == nil {
		if row, decodeErr := decodeRecord(data); decodeErr == nil {
			return []Record{row}, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		c.logger.Warn("⚠️ cache read failed", zap.String("key", key), zap.Error(err))
	}

	rows, err := c.Client.Fetch(ctx, table, q)
	if err != nil || len(rows) == 0 {
		return rows, err
	}

	if payload, err := json.Marshal(rows[0]); err == nil {
		if err := c.redis.Set(ctx, key, payload, c.ttl[table]).Err(); err != nil {
			c.logger.Warn("⚠️ cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return rows, nil
}

func (c *CachedClient) Update(ctx context.Context, table string, q *Query, patch Record) ([]Record, error) {
	rows, err := c.Client.Update(ctx, table, q, patch)
	if _, cached := keyPrefix[table]; cached {
		c.evict(ctx, table, rows)
	}
	return rows, err
}

func (c *CachedClient) Delete(ctx context.Context, table string, q *Query) error {
	if _, cached := keyPrefix[table]; cached {
		rows, err := c.Client.Fetch(ctx, table, q)
		if err != nil {
			return err
		}
		defer c.evict(ctx, table, rows)
	}
	return c.Client.Delete(ctx, table, q)
}

func (c *CachedClient) evict(ctx context.Context, table string, rows []Record) {
	if len(rows) == 0 {
		return
	}
	keys := make([]string, 0, len(rows))
	for _, r := range rows {
		keys = append(keys, cacheKey(table, r.String("id")))
	}
	if err := c.redis.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn("⚠️ cache eviction failed", zap.Strings("keys", keys), zap.Error(err))
	}
}
