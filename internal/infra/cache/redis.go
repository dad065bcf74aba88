// Package cache provides Redis-based caching for quick state reads.
// Cached snapshots are disposable; the database stays the source of truth.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned when a key is absent. Callers treat it as
// "compute and refill", never as a failure.
var ErrMiss = errors.New("cache miss")

// RedisClient is an interface for Redis operations.
// This allows for easy mocking in tests.
type RedisClient interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Ping(ctx context.Context) error
}

// goRedisClient adapts a real go-redis connection to RedisClient.
type goRedisClient struct {
	rdb *redis.Client
}

// NewGoRedisClient connects to a Redis node.
func NewGoRedisClient(addr string, poolSize int) RedisClient {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		PoolSize: poolSize,
	})
	return &goRedisClient{rdb: rdb}
}

func (c *goRedisClient) Get(ctx context.Context, key string) (string, error) {
	val, err := c.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", ErrMiss
	}
	return val, err
}

func (c *goRedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return c.rdb.Set(ctx, key, value, expiration).Err()
}

func (c *goRedisClient) Del(ctx context.Context, keys ...string) error {
	return c.rdb.Del(ctx, keys...).Err()
}

func (c *goRedisClient) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// StatsCache provides fast access to derived player stats and the
// leaderboard, the two read-heavy surfaces.
type StatsCache struct {
	client         RedisClient
	statsTTL       time.Duration
	leaderboardTTL time.Duration
}

// NewStatsCache creates a new stats cache instance.
func NewStatsCache(client RedisClient) *StatsCache {
	return &StatsCache{
		client:         client,
		statsTTL:       10 * time.Second,
		leaderboardTTL: 30 * time.Second,
	}
}

// SetStats caches a player's derived stats snapshot.
func (c *StatsCache) SetStats(ctx context.Context, playerID string, snapshot interface{}) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal stats snapshot: %w", err)
	}
	return c.client.Set(ctx, c.statsKey(playerID), data, c.statsTTL)
}

// GetStats retrieves a cached stats snapshot into dest.
// Returns ErrMiss when nothing is cached.
func (c *StatsCache) GetStats(ctx context.Context, playerID string, dest interface{}) error {
	data, err := c.client.Get(ctx, c.statsKey(playerID))
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(data), dest); err != nil {
		return fmt.Errorf("failed to unmarshal stats snapshot: %w", err)
	}
	return nil
}

// InvalidateStats drops a player's cached snapshot. Called after any
// write that changes their rates.
func (c *StatsCache) InvalidateStats(ctx context.Context, playerID string) error {
	return c.client.Del(ctx, c.statsKey(playerID))
}

// SetLeaderboard caches the current leaderboard.
func (c *StatsCache) SetLeaderboard(ctx context.Context, board interface{}) error {
	data, err := json.Marshal(board)
	if err != nil {
		return fmt.Errorf("failed to marshal leaderboard: %w", err)
	}
	return c.client.Set(ctx, c.leaderboardKey(), data, c.leaderboardTTL)
}

// GetLeaderboard retrieves the cached leaderboard into dest.
func (c *StatsCache) GetLeaderboard(ctx context.Context, dest interface{}) error {
	data, err := c.client.Get(ctx, c.leaderboardKey())
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(data), dest); err != nil {
		return fmt.Errorf("failed to unmarshal leaderboard: %w", err)
	}
	return nil
}

// statsKey generates the Redis key for a player's stats snapshot.
func (c *StatsCache) statsKey(playerID string) string {
	return fmt.Sprintf("player:%s:stats", playerID)
}

// leaderboardKey generates the Redis key for the leaderboard.
func (c *StatsCache) leaderboardKey() string {
	return "leaderboard:lifetime"
}
