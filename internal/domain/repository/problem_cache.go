package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"
	"tle_zone_studio/internal/domain/model"

	"github.com/redis/go-redis/v9"
)

// ProblemCache keeps public problem records keyed by serial. Get returns nil, nil on a miss.
type ProblemCache interface {
	Get(ctx context.Context, serial int64) (*model.Problem, error)
	Set(ctx context.Context, problem *model.Problem) error
}

type redisProblemCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisProblemCache(rdb *redis.Client, ttl time.Duration) ProblemCache {
	return &redisProblemCache{rdb: rdb, ttl: ttl}
}

func problemCacheKey(serial int64) string {
	return "problem:" + strconv.FormatInt(serial, 10)
}

func (c *redisProblemCache) Get(ctx context.Context, serial int64) (*model.Problem, error) {
	raw, err := c.rdb.Get(ctx, problemCacheKey(serial)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redisProblemCache.Get: %w", err)
	}
	var p model.Problem
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("redisProblemCache.Get decode: %w", err)
	}
	return &p, nil
}

func (c *redisProblemCache) Set(ctx context.Context, problem *model.Problem) error {
	raw, err := json.Marshal(problem.Public())
	if err != nil {
		return fmt.Errorf("redisProblemCache.Set encode: %w", err)
	}
	if err := c.rdb.Set(ctx, problemCacheKey(problem.Serial), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redisProblemCache.Set: %w", err)
	}
	return nil
}
