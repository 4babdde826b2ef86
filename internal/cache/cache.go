// Package cache adds an optional redis-backed result cache in front of the
// store. Identical admitted SQL within the TTL is served from redis without
// touching the database; every cache failure degrades silently to the store.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/360techsys1/SalesAnalysis/internal/store"
)

const keyPrefix = "sqlcache:"

// Executor runs admitted SQL and returns result rows. *store.Store satisfies
// it; Cached wraps any implementation.
type Executor interface {
	Query(ctx context.Context, sqlText string) ([]store.Row, error)
}

// Cached is an Executor that memoizes successful results in redis.
type Cached struct {
	inner  Executor
	rdb    *redis.Client
	ttl    time.Duration
	logger *log.Logger
	onHit  func()
}

// New wraps inner with a redis cache. A nil client yields a passthrough.
func New(inner Executor, rdb *redis.Client, ttl time.Duration, onHit func()) *Cached {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Cached{
		inner:  inner,
		rdb:    rdb,
		ttl:    ttl,
		logger: log.New(log.Writer(), "[CACHE] ", log.LstdFlags),
		onHit:  onHit,
	}
}

// Key derives the cache key for a SQL text.
func Key(sqlText string) string {
	sum := sha256.Sum256([]byte(sqlText))
	return keyPrefix + hex.EncodeToString(sum[:])
}

// Query serves from redis when possible, otherwise delegates and stores the
// result. Only successful executions are cached.
func (c *Cached) Query(ctx context.Context, sqlText string) ([]store.Row, error) {
	if c.rdb == nil {
		return c.inner.Query(ctx, sqlText)
	}

	key := Key(sqlText)
	if payload, err := c.rdb.Get(ctx, key).Bytes(); err == nil {
		var rows []store.Row
		if err := json.Unmarshal(payload, &rows); err == nil {
			if c.onHit != nil {
				c.onHit()
			}
			return rows, nil
		}
		// stale or corrupt entry; drop it and fall through
		_ = c.rdb.Del(ctx, key).Err()
	}

	rows, err := c.inner.Query(ctx, sqlText)
	if err != nil {
		return nil, err
	}
	if payload, err := json.Marshal(rows); err == nil {
		if err := c.rdb.Set(ctx, key, payload, c.ttl).Err(); err != nil {
			c.logger.Printf("cache set failed: %v", err)
		}
	}
	return rows, nil
}
