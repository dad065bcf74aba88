// Package network - admin.go
// AdminBridge - operator surface for live-ops.
//
// Catalog swaps and VIP grants are config changes, not gameplay: they
// take effect on each player's next reconcile. Authentication is left
// to the deployment perimeter.
package network

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/avelia-studio/lunatap-server/internal/domain/catalog"
	"github.com/avelia-studio/lunatap-server/internal/engine"
	"github.com/avelia-studio/lunatap-server/internal/infra/storage"
	"github.com/avelia-studio/lunatap-server/internal/platform/logger"
	"github.com/avelia-studio/lunatap-server/internal/platform/metrics"
	"github.com/avelia-studio/lunatap-server/internal/platform/optimization"
)

// AdminBridge handles operator interactions.
type AdminBridge struct {
	engine  *engine.Engine
	auditor *storage.Reconstructor
	tuning  *optimization.Config
	logger  *logger.Logger
}

// NewAdminBridge creates the operator handler set. The auditor may be
// nil when no durable ledger is configured.
func NewAdminBridge(eng *engine.Engine, auditor *storage.Reconstructor, tuning *optimization.Config, log *logger.Logger) *AdminBridge {
	return &AdminBridge{
		engine:  eng,
		auditor: auditor,
		tuning:  tuning,
		logger:  log,
	}
}

// RegisterRoutes sets up the admin API routes.
func (adm *AdminBridge) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/admin/catalog", adm.HandleCatalog)
	mux.HandleFunc("/admin/vip", adm.HandleVIP)
	mux.HandleFunc("/admin/audit", adm.HandleAudit)
	mux.HandleFunc("/admin/tuning", adm.HandleTuning)
}

// HandleCatalog reads or replaces the live catalog.
// GET  /admin/catalog
// PUT  /admin/catalog
func (adm *AdminBridge) HandleCatalog(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		adm.jsonSuccess(w, adm.engine.Catalog())
	case http.MethodPut:
		var next catalog.Catalog
		if err := json.NewDecoder(r.Body).Decode(&next); err != nil {
			adm.jsonError(w, "Invalid catalog body", http.StatusBadRequest)
			return
		}
		if err := adm.engine.UpdateCatalog(&next); err != nil {
			adm.jsonError(w, "Catalog rejected: "+err.Error(), http.StatusBadRequest)
			return
		}
		adm.jsonSuccess(w, map[string]interface{}{
			"success":    true,
			"upgrades":   len(next.Upgrades),
			"thresholds": len(next.Thresholds),
		})
	default:
		adm.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// VIPRequest is the payload for granting or revoking VIP status.
// Hours at or below zero revoke immediately.
type VIPRequest struct {
	PlayerID string  `json:"player_id"`
	Hours    float64 `json:"hours"`
}

// HandleVIP grants timed VIP status to a player.
// POST /admin/vip
func (adm *AdminBridge) HandleVIP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		adm.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req VIPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		adm.jsonError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.PlayerID == "" {
		adm.jsonError(w, "Missing player_id", http.StatusBadRequest)
		return
	}

	until := time.Now().UTC().Add(time.Duration(req.Hours * float64(time.Hour)))
	if err := adm.engine.GrantVIP(r.Context(), req.PlayerID, until); err != nil {
		adm.jsonError(w, "VIP grant failed: "+err.Error(), http.StatusServiceUnavailable)
		return
	}

	adm.jsonSuccess(w, map[string]interface{}{
		"success":   true,
		"player_id": req.PlayerID,
		"vip_until": until.Format(time.RFC3339),
	})
}

// HandleAudit replays a player's ledger against their stored balances.
// GET /admin/audit?player_id=XXX
func (adm *AdminBridge) HandleAudit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		adm.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if adm.auditor == nil {
		adm.jsonError(w, "Audit requires a durable ledger", http.StatusNotImplemented)
		return
	}

	playerID := r.URL.Query().Get("player_id")
	if playerID == "" {
		adm.jsonError(w, "Missing player_id", http.StatusBadRequest)
		return
	}

	report, err := adm.auditor.AuditPlayer(r.Context(), playerID)
	if err != nil {
		adm.jsonError(w, "Audit failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	adm.logger.Event("LEDGER_AUDIT", playerID, "Consistent: "+boolWord(report.Consistent))
	adm.jsonSuccess(w, report)
}

// HandleTuning reports the live tuning profile and recommendations
// derived from the current metrics snapshot.
// GET /admin/tuning
func (adm *AdminBridge) HandleTuning(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		adm.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	rec := optimization.Analyze(metrics.Get().Snapshot())
	suggested := *adm.tuning
	optimization.ApplyRecommendations(&suggested, rec)

	adm.jsonSuccess(w, map[string]interface{}{
		"current":         adm.tuning,
		"recommendations": rec,
		"suggested":       suggested,
	})
}

func boolWord(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// jsonError sends an error response.
func (adm *AdminBridge) jsonError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// jsonSuccess sends a success response.
func (adm *AdminBridge) jsonSuccess(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(data)
}
