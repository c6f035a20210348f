// Package cache provides the optional trending-topics cache. Everything in
// here is best-effort: a cold or unreachable cache only costs a recompute.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"wtfSocial/domain"
)

// TrendingCache caches assembled trending views in Redis, keyed by the
// query shape. It implements the domain.TrendingCache interface.
type TrendingCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewTrendingCache returns a cache on the given client. A non-positive ttl
// defaults to five minutes.
func NewTrendingCache(rdb *redis.Client, ttl time.Duration) *TrendingCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &TrendingCache{
		rdb: rdb,
		ttl: ttl,
	}
}

var _ domain.TrendingCache = &TrendingCache{}

// GetTopics returns the cached view for the query shape, if any.
// Any failure reads as a miss.
func (c *TrendingCache) GetTopics(windowDays, topN int) ([]domain.TrendingTopic, bool) {
	data, err := c.rdb.Get(context.Background(), key(windowDays, topN)).Bytes()
	if err != nil {
		return nil, false
	}
	var topics []domain.TrendingTopic
	if err := json.Unmarshal(data, &topics); err != nil {
		return nil, false
	}
	return topics, true
}

// SetTopics stores the view for the query shape. Failures are logged and
// dropped; the next read just recomputes.
func (c *TrendingCache) SetTopics(windowDays, topN int, topics []domain.TrendingTopic) {
	data, err := json.Marshal(topics)
	if err != nil {
		return
	}
	err = c.rdb.Set(context.Background(), key(windowDays, topN), data, c.ttl).Err()
	if err != nil {
		slog.Debug("trending cache write failed", "err", err)
	}
}

func key(windowDays, topN int) string {
	return fmt.Sprintf("trending:%d:%d", windowDays, topN)
}
