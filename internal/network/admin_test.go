package network

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avelia-studio/lunatap-server/internal/domain/catalog"
	"github.com/avelia-studio/lunatap-server/internal/domain/player"
	"github.com/avelia-studio/lunatap-server/internal/engine"
	"github.com/avelia-studio/lunatap-server/internal/infra/storage"
	"github.com/avelia-studio/lunatap-server/internal/platform/logger"
	"github.com/avelia-studio/lunatap-server/internal/platform/optimization"
)

func TestAdminCatalogRoundTrip(t *testing.T) {
	_, eng, _ := newTestBridge(t, nil)
	adm := NewAdminBridge(eng, nil, optimization.DefaultConfig(), logger.NewLogger())

	rec := doJSON(t, adm.HandleCatalog, http.MethodGet, "/admin/catalog", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var current catalog.Catalog
	decodeInto(t, rec, &current)
	require.NotEmpty(t, current.Upgrades)

	// Reprice the first upgrade and push the catalog back
	current.Upgrades[0].BaseCost = 42
	rec = doJSON(t, adm.HandleCatalog, http.MethodPut, "/admin/catalog", current)
	require.Equal(t, http.StatusOK, rec.Code)

	live, found := eng.Catalog().Upgrade(current.Upgrades[0].ID)
	require.True(t, found)
	assert.Equal(t, 42.0, live.BaseCost)
}

func TestAdminCatalogRejectsInvalid(t *testing.T) {
	_, eng, _ := newTestBridge(t, nil)
	adm := NewAdminBridge(eng, nil, optimization.DefaultConfig(), logger.NewLogger())

	bad := *catalog.Default()
	bad.Upgrades[0].CostGrowth = 0.9
	rec := doJSON(t, adm.HandleCatalog, http.MethodPut, "/admin/catalog", bad)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, adm.HandleCatalog, http.MethodDelete, "/admin/catalog", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestAdminVIPGrant(t *testing.T) {
	bridge, eng, _ := newTestBridge(t, nil)
	adm := NewAdminBridge(eng, nil, optimization.DefaultConfig(), logger.NewLogger())

	rec := doJSON(t, adm.HandleVIP, http.MethodPost, "/admin/vip",
		map[string]interface{}{"player_id": "vip1", "hours": 24.0})
	require.Equal(t, http.StatusOK, rec.Code)

	playerRec := doJSON(t, bridge.HandlePlayer, http.MethodGet, "/api/player?player_id=vip1", nil)
	require.Equal(t, http.StatusOK, playerRec.Code)
	var snap engine.PlayerSnapshot
	decodeInto(t, playerRec, &snap)
	assert.True(t, snap.VIPActive)

	// Zero hours revokes on the spot
	rec = doJSON(t, adm.HandleVIP, http.MethodPost, "/admin/vip",
		map[string]interface{}{"player_id": "vip1", "hours": 0.0})
	require.Equal(t, http.StatusOK, rec.Code)

	playerRec = doJSON(t, bridge.HandlePlayer, http.MethodGet, "/api/player?player_id=vip1", nil)
	decodeInto(t, playerRec, &snap)
	assert.False(t, snap.VIPActive)

	rec = doJSON(t, adm.HandleVIP, http.MethodPost, "/admin/vip",
		map[string]interface{}{"hours": 1.0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminAudit(t *testing.T) {
	players := storage.NewMemoryPlayerRepository()
	ledgerRepo := storage.NewMemoryLedgerRepository()
	ctx := context.Background()
	now := time.Now().UTC()

	p := player.New("zoe", 500, now)
	p.LifetimeLP = 1000
	p.LP = 600
	p.Upgrades["whisker_power"] = 1
	require.NoError(t, players.Create(ctx, p))

	require.NoError(t, ledgerRepo.Append(ctx, storage.LedgerEntry{
		ID: "e1", Timestamp: now, EntryType: "PURCHASE", PlayerID: "zoe",
		Payload: map[string]interface{}{
			"upgrade_id": "whisker_power", "new_level": float64(1), "cost_paid": float64(400),
		},
	}))

	adm := NewAdminBridge(nil, storage.NewReconstructor(ledgerRepo, players), optimization.DefaultConfig(), logger.NewLogger())

	rec := doJSON(t, adm.HandleAudit, http.MethodGet, "/admin/audit?player_id=zoe", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var report storage.AuditReport
	decodeInto(t, rec, &report)
	assert.True(t, report.Consistent)
	assert.Equal(t, 1, report.Purchases)
	assert.Equal(t, 400.0, report.TotalSpent)
}

func TestAdminAuditWithoutLedger(t *testing.T) {
	adm := NewAdminBridge(nil, nil, optimization.DefaultConfig(), logger.NewLogger())

	rec := doJSON(t, adm.HandleAudit, http.MethodGet, "/admin/audit?player_id=zoe", nil)
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestAdminTuningReport(t *testing.T) {
	adm := NewAdminBridge(nil, nil, optimization.DefaultConfig(), logger.NewLogger())

	rec := doJSON(t, adm.HandleTuning, http.MethodGet, "/admin/tuning", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	decodeInto(t, rec, &body)

	current, ok := body["current"].(map[string]interface{})
	require.True(t, ok, "report should include the live tuning profile")
	taps, ok := current["MaxTapsPerSecond"].(float64)
	require.True(t, ok)
	assert.Greater(t, taps, 0.0)

	require.Contains(t, body, "recommendations")
	require.Contains(t, body, "suggested")

	rec = doJSON(t, adm.HandleTuning, http.MethodPost, "/admin/tuning", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
