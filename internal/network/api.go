// Package network - api.go
// APIBridge - REST surface for game clients.
//
// Every handler is a thin adapter: decode, call the engine, map the
// typed error to an HTTP status. No game rules live here.
package network

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/avelia-studio/lunatap-server/internal/domain/catalog"
	"github.com/avelia-studio/lunatap-server/internal/engine"
	"github.com/avelia-studio/lunatap-server/internal/infra/cache"
	"github.com/avelia-studio/lunatap-server/internal/infra/storage"
	"github.com/avelia-studio/lunatap-server/internal/platform/logger"
	"github.com/avelia-studio/lunatap-server/internal/platform/metrics"
)

// APIBridge handles client REST interactions.
type APIBridge struct {
	engine *engine.Engine
	cache  *cache.StatsCache // nil disables caching
	logger *logger.Logger
}

// NewAPIBridge creates the client-facing REST handler set.
func NewAPIBridge(eng *engine.Engine, statsCache *cache.StatsCache, log *logger.Logger) *APIBridge {
	return &APIBridge{
		engine: eng,
		cache:  statsCache,
		logger: log,
	}
}

// RegisterRoutes sets up the client API routes.
func (ab *APIBridge) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/tap", ab.HandleTap)
	mux.HandleFunc("/api/upgrades/purchase", ab.HandlePurchase)
	mux.HandleFunc("/api/boosters/activate", ab.HandleBooster)
	mux.HandleFunc("/api/tasks/claim", ab.HandleClaimTask)
	mux.HandleFunc("/api/achievements/claim", ab.HandleClaimAchievement)
	mux.HandleFunc("/api/stats", ab.HandleStats)
	mux.HandleFunc("/api/player", ab.HandlePlayer)
	mux.HandleFunc("/api/catalog", ab.HandleCatalog)
	mux.HandleFunc("/api/leaderboard", ab.HandleLeaderboard)
	mux.HandleFunc("/healthz", ab.HandleHealth)
	mux.HandleFunc("/metrics", metrics.Handler())
	mux.HandleFunc("/metrics/prometheus", metrics.PrometheusHandler())
}

// TapRequest is the payload for a REST tap.
type TapRequest struct {
	PlayerID string `json:"player_id"`
}

// HandleTap converts one tap into LP.
// POST /api/tap
func (ab *APIBridge) HandleTap(w http.ResponseWriter, r *http.Request) {
	var req TapRequest
	if !ab.decodePost(w, r, &req) {
		return
	}
	res, err := ab.engine.Tap(r.Context(), req.PlayerID)
	if err != nil {
		ab.engineError(w, err)
		return
	}
	ab.jsonSuccess(w, res)
}

// PurchaseRequest is the payload for buying an upgrade level.
type PurchaseRequest struct {
	PlayerID  string `json:"player_id"`
	UpgradeID string `json:"upgrade_id"`
}

// HandlePurchase buys the next level of an upgrade.
// POST /api/upgrades/purchase
func (ab *APIBridge) HandlePurchase(w http.ResponseWriter, r *http.Request) {
	var req PurchaseRequest
	if !ab.decodePost(w, r, &req) {
		return
	}
	res, err := ab.engine.Purchase(r.Context(), req.PlayerID, req.UpgradeID)
	if err != nil {
		ab.engineError(w, err)
		return
	}
	ab.invalidateStats(r, req.PlayerID)
	ab.jsonSuccess(w, res)
}

// BoosterRequest is the payload for activating a timed multiplier.
type BoosterRequest struct {
	PlayerID        string  `json:"player_id"`
	Category        string  `json:"category"`
	Multiplier      float64 `json:"multiplier"`
	DurationSeconds int     `json:"duration_seconds"`
}

// HandleBooster activates a timed multiplier on one category.
// POST /api/boosters/activate
func (ab *APIBridge) HandleBooster(w http.ResponseWriter, r *http.Request) {
	var req BoosterRequest
	if !ab.decodePost(w, r, &req) {
		return
	}
	res, err := ab.engine.ActivateBooster(r.Context(), req.PlayerID,
		catalog.Category(req.Category), req.Multiplier,
		time.Duration(req.DurationSeconds)*time.Second)
	if err != nil {
		ab.engineError(w, err)
		return
	}
	ab.invalidateStats(r, req.PlayerID)
	ab.jsonSuccess(w, res)
}

// ClaimTaskRequest is the payload for claiming a one-shot task reward.
type ClaimTaskRequest struct {
	PlayerID string `json:"player_id"`
	TaskID   string `json:"task_id"`
}

// HandleClaimTask pays out a completed task.
// POST /api/tasks/claim
func (ab *APIBridge) HandleClaimTask(w http.ResponseWriter, r *http.Request) {
	var req ClaimTaskRequest
	if !ab.decodePost(w, r, &req) {
		return
	}
	res, err := ab.engine.ClaimTask(r.Context(), req.PlayerID, req.TaskID)
	if err != nil {
		ab.engineError(w, err)
		return
	}
	ab.invalidateStats(r, req.PlayerID)
	ab.jsonSuccess(w, res)
}

// ClaimAchievementRequest is the payload for claiming one tier.
type ClaimAchievementRequest struct {
	PlayerID      string `json:"player_id"`
	AchievementID string `json:"achievement_id"`
	Tier          int    `json:"tier"`
}

// HandleClaimAchievement pays out one achievement tier.
// POST /api/achievements/claim
func (ab *APIBridge) HandleClaimAchievement(w http.ResponseWriter, r *http.Request) {
	var req ClaimAchievementRequest
	if !ab.decodePost(w, r, &req) {
		return
	}
	res, err := ab.engine.ClaimAchievement(r.Context(), req.PlayerID, req.AchievementID, req.Tier)
	if err != nil {
		ab.engineError(w, err)
		return
	}
	ab.invalidateStats(r, req.PlayerID)
	ab.jsonSuccess(w, res)
}

// HandleStats returns the player's derived rates, cached briefly when a
// cache is configured.
// GET /api/stats?player_id=XXX
func (ab *APIBridge) HandleStats(w http.ResponseWriter, r *http.Request) {
	playerID, ok := ab.queryPlayer(w, r)
	if !ok {
		return
	}

	if ab.cache != nil {
		var cached engine.StatsSnapshot
		if err := ab.cache.GetStats(r.Context(), playerID, &cached); err == nil {
			metrics.Get().RecordCacheLookup(true)
			ab.jsonSuccess(w, cached)
			return
		}
		metrics.Get().RecordCacheLookup(false)
	}

	stats, err := ab.engine.EffectiveStats(r.Context(), playerID)
	if err != nil {
		ab.engineError(w, err)
		return
	}
	if ab.cache != nil {
		if err := ab.cache.SetStats(r.Context(), playerID, stats); err != nil {
			ab.logger.Warn("Failed to cache stats for " + playerID + ": " + err.Error())
		}
	}
	ab.jsonSuccess(w, stats)
}

// HandlePlayer returns the full reconciled snapshot, creating the
// player on first contact.
// GET /api/player?player_id=XXX
func (ab *APIBridge) HandlePlayer(w http.ResponseWriter, r *http.Request) {
	playerID, ok := ab.queryPlayer(w, r)
	if !ok {
		return
	}
	snap, err := ab.engine.Player(r.Context(), playerID)
	if err != nil {
		ab.engineError(w, err)
		return
	}
	ab.jsonSuccess(w, snap)
}

// HandleCatalog returns the live content catalog.
// GET /api/catalog
func (ab *APIBridge) HandleCatalog(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		ab.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ab.jsonSuccess(w, ab.engine.Catalog())
}

// HandleLeaderboard returns the top players by lifetime LP.
// GET /api/leaderboard?limit=N
func (ab *APIBridge) HandleLeaderboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		ab.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := 10
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			ab.jsonError(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}
	if limit > 100 {
		limit = 100
	}

	if ab.cache != nil {
		var cached []storage.LeaderboardEntry
		if err := ab.cache.GetLeaderboard(r.Context(), &cached); err == nil && len(cached) >= limit {
			metrics.Get().RecordCacheLookup(true)
			ab.jsonSuccess(w, cached[:limit])
			return
		}
		metrics.Get().RecordCacheLookup(false)
	}

	board, err := ab.engine.Leaderboard(r.Context(), limit)
	if err != nil {
		ab.engineError(w, err)
		return
	}
	if ab.cache != nil {
		if err := ab.cache.SetLeaderboard(r.Context(), board); err != nil {
			ab.logger.Warn("Failed to cache leaderboard: " + err.Error())
		}
	}
	ab.jsonSuccess(w, board)
}

// HandleHealth reports liveness.
// GET /healthz
func (ab *APIBridge) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ab.jsonSuccess(w, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().Unix(),
	})
}

// decodePost enforces POST, decodes the body, and rejects requests
// missing their identifiers. Returns false after writing the error
// response.
func (ab *APIBridge) decodePost(w http.ResponseWriter, r *http.Request, dest interface{}) bool {
	if r.Method != http.MethodPost {
		ab.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		ab.jsonError(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	if missingFields(dest) {
		ab.jsonError(w, "Missing required fields", http.StatusBadRequest)
		return false
	}
	return true
}

// missingFields reports whether a decoded request lacks identifiers.
func missingFields(req interface{}) bool {
	switch v := req.(type) {
	case *TapRequest:
		return v.PlayerID == ""
	case *PurchaseRequest:
		return v.PlayerID == "" || v.UpgradeID == ""
	case *BoosterRequest:
		return v.PlayerID == "" || v.Category == ""
	case *ClaimTaskRequest:
		return v.PlayerID == "" || v.TaskID == ""
	case *ClaimAchievementRequest:
		return v.PlayerID == "" || v.AchievementID == ""
	}
	return false
}

// queryPlayer extracts the player_id query parameter for GET handlers.
func (ab *APIBridge) queryPlayer(w http.ResponseWriter, r *http.Request) (string, bool) {
	if r.Method != http.MethodGet {
		ab.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return "", false
	}
	playerID := r.URL.Query().Get("player_id")
	if playerID == "" {
		ab.jsonError(w, "Missing player_id", http.StatusBadRequest)
		return "", false
	}
	return playerID, true
}

// invalidateStats drops the cached rates after a write that changes them.
func (ab *APIBridge) invalidateStats(r *http.Request, playerID string) {
	if ab.cache == nil {
		return
	}
	if err := ab.cache.InvalidateStats(r.Context(), playerID); err != nil {
		ab.logger.Warn("Failed to invalidate stats cache for " + playerID + ": " + err.Error())
	}
}

// engineError maps a typed engine failure onto an HTTP response with a
// machine-readable code.
func (ab *APIBridge) engineError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus(err))
	json.NewEncoder(w).Encode(map[string]string{
		"error": err.Error(),
		"code":  engine.Code(err),
	})
}

// httpStatus picks the HTTP status for a typed engine error.
func httpStatus(err error) int {
	switch {
	case errors.Is(err, engine.ErrUpgradeNotFound),
		errors.Is(err, engine.ErrTaskNotFound),
		errors.Is(err, engine.ErrAchievementNotFound):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrInvalidBooster):
		return http.StatusBadRequest
	case errors.Is(err, engine.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, engine.ErrUnavailable):
		return http.StatusServiceUnavailable
	case engine.IsDomainError(err):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// jsonError sends an error response.
func (ab *APIBridge) jsonError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// jsonSuccess sends a success response.
func (ab *APIBridge) jsonSuccess(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(data)
}
