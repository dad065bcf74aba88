package cache

import (
	"context"
	"testing"
	"time"
)

// fakeRedis is an in-memory RedisClient for tests.
type fakeRedis struct {
	data map[string]string
	ttls map[string]time.Duration
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: make(map[string]string), ttls: make(map[string]time.Duration)}
}

func (f *fakeRedis) Get(ctx context.Context, key string) (string, error) {
	val, ok := f.data[key]
	if !ok {
		return "", ErrMiss
	}
	return val, nil
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	case string:
		f.data[key] = v
	}
	f.ttls[key] = expiration
	return nil
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.data, k)
	}
	return nil
}

func (f *fakeRedis) Ping(ctx context.Context) error { return nil }

type statsPayload struct {
	LPPerTap  float64 `json:"lpPerTap"`
	LPPerHour float64 `json:"lpPerHour"`
}

func TestStatsCacheRoundTrip(t *testing.T) {
	fake := newFakeRedis()
	c := NewStatsCache(fake)
	ctx := context.Background()

	if err := c.SetStats(ctx, "P001", statsPayload{LPPerTap: 14, LPPerHour: 850}); err != nil {
		t.Fatalf("SetStats failed: %v", err)
	}

	var got statsPayload
	if err := c.GetStats(ctx, "P001", &got); err != nil {
		t.Fatalf("GetStats failed: %v", err)
	}
	if got.LPPerTap != 14 || got.LPPerHour != 850 {
		t.Errorf("Expected cached stats 14/850, got %.0f/%.0f", got.LPPerTap, got.LPPerHour)
	}

	// Snapshots must carry a short TTL so stale rates age out
	if ttl := fake.ttls["player:P001:stats"]; ttl != 10*time.Second {
		t.Errorf("Expected 10s TTL on stats, got %v", ttl)
	}
}

func TestStatsCacheMiss(t *testing.T) {
	c := NewStatsCache(newFakeRedis())

	var got statsPayload
	if err := c.GetStats(context.Background(), "GHOST", &got); err != ErrMiss {
		t.Errorf("Expected ErrMiss for absent key, got %v", err)
	}
}

func TestStatsCacheInvalidate(t *testing.T) {
	fake := newFakeRedis()
	c := NewStatsCache(fake)
	ctx := context.Background()

	if err := c.SetStats(ctx, "P001", statsPayload{LPPerTap: 5}); err != nil {
		t.Fatalf("SetStats failed: %v", err)
	}
	if err := c.InvalidateStats(ctx, "P001"); err != nil {
		t.Fatalf("InvalidateStats failed: %v", err)
	}

	var got statsPayload
	if err := c.GetStats(ctx, "P001", &got); err != ErrMiss {
		t.Errorf("Expected ErrMiss after invalidation, got %v", err)
	}
}

func TestLeaderboardRoundTrip(t *testing.T) {
	fake := newFakeRedis()
	c := NewStatsCache(fake)
	ctx := context.Background()

	board := []map[string]interface{}{
		{"player_id": "P_TOP", "lifetime_lp": 90000.0},
	}
	if err := c.SetLeaderboard(ctx, board); err != nil {
		t.Fatalf("SetLeaderboard failed: %v", err)
	}

	var got []map[string]interface{}
	if err := c.GetLeaderboard(ctx, &got); err != nil {
		t.Fatalf("GetLeaderboard failed: %v", err)
	}
	if len(got) != 1 || got[0]["player_id"] != "P_TOP" {
		t.Errorf("Expected cached leaderboard with P_TOP, got %+v", got)
	}
}
