package network

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avelia-studio/lunatap-server/internal/domain/catalog"
	"github.com/avelia-studio/lunatap-server/internal/domain/player"
	"github.com/avelia-studio/lunatap-server/internal/engine"
	"github.com/avelia-studio/lunatap-server/internal/events"
	"github.com/avelia-studio/lunatap-server/internal/infra/cache"
	"github.com/avelia-studio/lunatap-server/internal/infra/storage"
	"github.com/avelia-studio/lunatap-server/internal/platform/config"
	"github.com/avelia-studio/lunatap-server/internal/platform/logger"
)

func newTestBridge(t *testing.T, statsCache *cache.StatsCache) (*APIBridge, *engine.Engine, *storage.MemoryPlayerRepository) {
	t.Helper()
	repo := storage.NewMemoryPlayerRepository()
	eng := engine.NewEngine(repo, events.NewLedger(nil, nil),
		catalog.NewHolder(catalog.Default()), config.DefaultBalance(),
		engine.SystemClock{}, logger.NewLogger())
	return NewAPIBridge(eng, statsCache, logger.NewLogger()), eng, repo
}

func doJSON(t *testing.T, handler http.HandlerFunc, method, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func decodeInto(t *testing.T, rec *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(dest))
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	decodeInto(t, rec, &body)
	return body["code"]
}

func TestTapEndpoint(t *testing.T) {
	bridge, _, _ := newTestBridge(t, nil)

	rec := doJSON(t, bridge.HandleTap, http.MethodPost, "/api/tap",
		map[string]string{"player_id": "ana"})
	require.Equal(t, http.StatusOK, rec.Code)

	var res engine.TapResult
	decodeInto(t, rec, &res)
	assert.Equal(t, 1.0, res.Gained)
	assert.Equal(t, 499.0, res.NewEnergy)
}

func TestTapEndpointValidation(t *testing.T) {
	bridge, _, _ := newTestBridge(t, nil)

	rec := doJSON(t, bridge.HandleTap, http.MethodGet, "/api/tap", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = doJSON(t, bridge.HandleTap, http.MethodPost, "/api/tap",
		map[string]string{"player_id": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/tap",
		bytes.NewBufferString("{not json"))
	rec = httptest.NewRecorder()
	bridge.HandleTap(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPurchaseEndpointErrorMapping(t *testing.T) {
	bridge, _, _ := newTestBridge(t, nil)

	rec := doJSON(t, bridge.HandlePurchase, http.MethodPost, "/api/upgrades/purchase",
		map[string]string{"player_id": "ana", "upgrade_id": "warp_drive"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "UPGRADE_NOT_FOUND", errorCode(t, rec))

	// Fresh players hold zero LP; the cheapest upgrade costs 10
	rec = doJSON(t, bridge.HandlePurchase, http.MethodPost, "/api/upgrades/purchase",
		map[string]string{"player_id": "ana", "upgrade_id": "whisker_power"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "INSUFFICIENT_FUNDS", errorCode(t, rec))
}

func TestBoosterEndpointValidation(t *testing.T) {
	bridge, _, _ := newTestBridge(t, nil)

	rec := doJSON(t, bridge.HandleBooster, http.MethodPost, "/api/boosters/activate",
		map[string]interface{}{
			"player_id":        "ana",
			"category":         "tap",
			"multiplier":       1.0,
			"duration_seconds": 60,
		})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_BOOSTER", errorCode(t, rec))

	rec = doJSON(t, bridge.HandleBooster, http.MethodPost, "/api/boosters/activate",
		map[string]interface{}{
			"player_id":        "ana",
			"category":         "tap",
			"multiplier":       2.0,
			"duration_seconds": 300,
		})
	require.Equal(t, http.StatusOK, rec.Code)

	var res engine.BoosterResult
	decodeInto(t, rec, &res)
	assert.Equal(t, 2.0, res.Multiplier)
}

func TestClaimTaskOverHTTP(t *testing.T) {
	bridge, _, repo := newTestBridge(t, nil)

	p := player.New("bo", 500, time.Now().UTC())
	p.TapCount = 10
	require.NoError(t, repo.Create(context.Background(), p))

	rec := doJSON(t, bridge.HandleClaimTask, http.MethodPost, "/api/tasks/claim",
		map[string]string{"player_id": "bo", "task_id": "first_steps"})
	require.Equal(t, http.StatusOK, rec.Code)

	var res engine.ClaimResult
	decodeInto(t, rec, &res)
	assert.InDelta(t, 50.0, res.NewCurrency, 0.01)

	rec = doJSON(t, bridge.HandleClaimTask, http.MethodPost, "/api/tasks/claim",
		map[string]string{"player_id": "bo", "task_id": "first_steps"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "ALREADY_CLAIMED", errorCode(t, rec))
}

// fakeRedis is an in-memory RedisClient for handler tests.
type fakeRedis struct {
	data map[string]string
}

func (f *fakeRedis) Get(ctx context.Context, key string) (string, error) {
	v, ok := f.data[key]
	if !ok {
		return "", cache.ErrMiss
	}
	return v, nil
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, _ time.Duration) error {
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	case string:
		f.data[key] = v
	}
	return nil
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.data, k)
	}
	return nil
}

func (f *fakeRedis) Ping(ctx context.Context) error { return nil }

func TestStatsEndpointServesFromCache(t *testing.T) {
	statsCache := cache.NewStatsCache(&fakeRedis{data: make(map[string]string)})
	bridge, _, repo := newTestBridge(t, statsCache)
	ctx := context.Background()

	rec := doJSON(t, bridge.HandleStats, http.MethodGet, "/api/stats?player_id=cara", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var stats engine.StatsSnapshot
	decodeInto(t, rec, &stats)
	assert.Equal(t, 1.0, stats.LPPerTap)

	// A repo write behind the cache's back stays invisible until the
	// entry is dropped
	p, err := repo.Get(ctx, "cara")
	require.NoError(t, err)
	p.Upgrades["whisker_power"] = 3
	require.NoError(t, repo.Update(ctx, p))

	rec = doJSON(t, bridge.HandleStats, http.MethodGet, "/api/stats?player_id=cara", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeInto(t, rec, &stats)
	assert.Equal(t, 1.0, stats.LPPerTap, "stale cached snapshot expected")

	require.NoError(t, statsCache.InvalidateStats(ctx, "cara"))
	rec = doJSON(t, bridge.HandleStats, http.MethodGet, "/api/stats?player_id=cara", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeInto(t, rec, &stats)
	assert.Equal(t, 4.0, stats.LPPerTap)
}

func TestLeaderboardEndpoint(t *testing.T) {
	bridge, _, repo := newTestBridge(t, nil)
	ctx := context.Background()
	now := time.Now().UTC()

	for id, lifetime := range map[string]float64{"a": 100, "b": 50, "c": 200} {
		p := player.New(id, 500, now)
		p.LifetimeLP = lifetime
		require.NoError(t, repo.Create(ctx, p))
	}

	rec := doJSON(t, bridge.HandleLeaderboard, http.MethodGet, "/api/leaderboard?limit=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var board []storage.LeaderboardEntry
	decodeInto(t, rec, &board)
	require.Len(t, board, 2)
	assert.Equal(t, "c", board[0].PlayerID)
	assert.Equal(t, "a", board[1].PlayerID)

	rec = doJSON(t, bridge.HandleLeaderboard, http.MethodGet, "/api/leaderboard?limit=zero", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPlayerEndpointCreatesOnFirstContact(t *testing.T) {
	bridge, _, _ := newTestBridge(t, nil)

	rec := doJSON(t, bridge.HandlePlayer, http.MethodGet, "/api/player?player_id=dara", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var snap engine.PlayerSnapshot
	decodeInto(t, rec, &snap)
	assert.Equal(t, "dara", snap.ID)
	assert.Equal(t, 1, snap.Level)
	assert.Equal(t, 500.0, snap.MaxEnergy)
}

func TestCatalogEndpoint(t *testing.T) {
	bridge, _, _ := newTestBridge(t, nil)

	rec := doJSON(t, bridge.HandleCatalog, http.MethodGet, "/api/catalog", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var c catalog.Catalog
	decodeInto(t, rec, &c)
	assert.NotEmpty(t, c.Upgrades)
	assert.NotEmpty(t, c.Thresholds)

	_, found := c.Upgrade("whisker_power")
	assert.True(t, found)
}

func TestHealthEndpoint(t *testing.T) {
	bridge, _, _ := newTestBridge(t, nil)

	rec := doJSON(t, bridge.HandleHealth, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	decodeInto(t, rec, &body)
	assert.Equal(t, "ok", body["status"])
}
