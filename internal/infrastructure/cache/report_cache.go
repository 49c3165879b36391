// Package cache provides the Redis-backed report cache.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	"tourdesk/internal/domain/finance"
	"tourdesk/pkg/logger"
)

const (
	versionKey = "finance:cache:version"

	buildLockTTL = 30 * time.Second

	// InvalidationChannel is where ledger writers announce changes. Any
	// message moves every instance to a fresh key space.
	InvalidationChannel = "finance.invalidate"
)

var _ finance.ReportCache = (*ReportCache)(nil)

// Observer counts lookups by result: hit, miss or error.
type Observer interface {
	ObserveCacheLookup(result string)
}

type nopObserver struct{}

func (nopObserver) ObserveCacheLookup(string) {}

// New creates a Redis client and verifies it can reach the server.
func New(ctx context.Context, opts *redis.Options) (*redis.Client, error) {
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("cache: ping: %w", err)
	}
	return client, nil
}

// ReportCache stores rendered reports in Redis under versioned keys.
// Redis failures never fail a report: the loader runs instead.
type ReportCache struct {
	client   *redis.Client
	locker   *redislock.Client
	ttl      time.Duration
	observer Observer

	// lockPoll and lockAttempts bound how long a miss waits for another
	// instance already building the same report.
	lockPoll     time.Duration
	lockAttempts int
}

// NewReportCache creates the cache. obs may be nil.
func NewReportCache(client *redis.Client, ttl time.Duration, obs Observer) *ReportCache {
	if obs == nil {
		obs = nopObserver{}
	}
	return &ReportCache{
		client:       client,
		locker:       redislock.New(client),
		ttl:          ttl,
		observer:     obs,
		lockPoll:     50 * time.Millisecond,
		lockAttempts: 40,
	}
}

// Version returns the current key-space version, initialising it when missing.
func (c *ReportCache) Version(ctx context.Context) (int64, error) {
	ver, err := c.client.Get(ctx, versionKey).Int64()
	if errors.Is(err, redis.Nil) {
		// SETNX so concurrent first readers agree on 1.
		if err := c.client.SetNX(ctx, versionKey, 1, 0).Err(); err != nil {
			return 0, err
		}
		return c.client.Get(ctx, versionKey).Int64()
	}
	if err != nil {
		return 0, err
	}
	return ver, nil
}

// FetchJSON implements finance.ReportCache.
func (c *ReportCache) FetchJSON(ctx context.Context, key string, dest any, load func(ctx context.Context) (any, error)) error {
	ver, err := c.Version(ctx)
	if err != nil {
		c.degraded(ctx, "version", err)
		return fill(ctx, dest, load)
	}
	versioned := key + ":v" + strconv.FormatInt(ver, 10)

	payload, err := c.client.Get(ctx, versioned).Bytes()
	switch {
	case err == nil:
		if err := json.Unmarshal(payload, dest); err == nil {
			c.observer.ObserveCacheLookup("hit")
			return nil
		}
		logger.Warn(ctx, "discarding unreadable report cache entry", "key", versioned)
	case errors.Is(err, redis.Nil):
	default:
		c.degraded(ctx, "get", err)
		return fill(ctx, dest, load)
	}
	c.observer.ObserveCacheLookup("miss")

	return c.build(ctx, versioned, dest, load)
}

// build runs load on a miss and stores the result. Only one instance builds
// a given key at a time; the others wait and then read its entry. A lock
// that cannot be taken never blocks the report.
func (c *ReportCache) build(ctx context.Context, versioned string, dest any, load func(ctx context.Context) (any, error)) error {
	lock, err := c.locker.Obtain(ctx, versioned+":lock", buildLockTTL, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(c.lockPoll), c.lockAttempts),
	})
	switch {
	case err == nil:
		defer func() { _ = lock.Release(context.WithoutCancel(ctx)) }()
		if payload, err := c.client.Get(ctx, versioned).Bytes(); err == nil {
			if json.Unmarshal(payload, dest) == nil {
				return nil
			}
		}
	case errors.Is(err, redislock.ErrNotObtained):
		logger.Debug(ctx, "report build lock busy, building without it", "key", versioned)
	default:
		logger.Warn(ctx, "report build lock failed", "key", versioned, "error", err)
	}

	value, err := load(ctx)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache: encode %s: %w", versioned, err)
	}
	if err := c.client.Set(ctx, versioned, raw, c.ttl).Err(); err != nil {
		logger.Warn(ctx, "report cache write failed", "key", versioned, "error", err)
	}
	return json.Unmarshal(raw, dest)
}

func (c *ReportCache) degraded(ctx context.Context, op string, err error) {
	c.observer.ObserveCacheLookup("error")
	logger.Warn(ctx, "report cache unavailable, building report directly", "op", op, "error", err)
}

// fill runs load and copies its result into dest.
func fill(ctx context.Context, dest any, load func(ctx context.Context) (any, error)) error {
	value, err := load(ctx)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache: encode: %w", err)
	}
	return json.Unmarshal(raw, dest)
}

// Invalidate drops every cached report by moving to a new key space.
// Old entries expire with their TTL.
func (c *ReportCache) Invalidate(ctx context.Context) error {
	ver, err := c.client.Incr(ctx, versionKey).Result()
	if err != nil {
		return fmt.Errorf("cache: bump version: %w", err)
	}
	logger.Info(ctx, "report cache invalidated", "version", ver)
	return nil
}

// ListenForInvalidation invalidates the cache whenever a message arrives on
// InvalidationChannel. It returns once subscribed; the listener stops with ctx.
func (c *ReportCache) ListenForInvalidation(ctx context.Context) error {
	pubsub := c.client.Subscribe(ctx, InvalidationChannel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return fmt.Errorf("cache: subscribe: %w", err)
	}

	go func() {
		defer func() { _ = pubsub.Close() }()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-ch:
				if !ok {
					return
				}
				if err := c.Invalidate(ctx); err != nil {
					logger.Warn(ctx, "report cache invalidation failed", "error", err)
				}
			}
		}
	}()
	return nil
}
