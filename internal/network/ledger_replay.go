// Package network - ledger_replay.go
// JSON export of the durable economy ledger. Lets operators and
// support staff replay what a player earned, spent, and claimed.
package network

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/avelia-studio/lunatap-server/internal/events"
	"github.com/avelia-studio/lunatap-server/internal/infra/storage"
	"github.com/avelia-studio/lunatap-server/internal/platform/logger"
)

const (
	defaultReplayLimit = 50
	maxReplayLimit     = 500
	summaryWindow      = 1000
)

// LedgerReplayHandler serves the durable ledger over HTTP.
type LedgerReplayHandler struct {
	ledgerRepo storage.LedgerRepository
	logger     *logger.Logger
}

// NewLedgerReplayHandler creates a ledger replay handler.
func NewLedgerReplayHandler(repo storage.LedgerRepository, log *logger.Logger) *LedgerReplayHandler {
	return &LedgerReplayHandler{
		ledgerRepo: repo,
		logger:     log,
	}
}

// RegisterRoutes sets up the ledger API routes.
func (lh *LedgerReplayHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/ledger", lh.HandleReplay)
	mux.HandleFunc("/api/ledger/summary", lh.HandleSummary)
}

// ReplayResponse is the API response for a ledger replay.
type ReplayResponse struct {
	TotalEntries int                   `json:"total_entries"`
	FilteredBy   string                `json:"filtered_by,omitempty"`
	GeneratedAt  string                `json:"generated_at"`
	Entries      []storage.LedgerEntry `json:"entries"`
}

// HandleReplay returns ledger entries, optionally filtered.
// GET /api/ledger?player_id=XXX&type=PURCHASE&limit=N
func (lh *LedgerReplayHandler) HandleReplay(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		lh.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	playerID := r.URL.Query().Get("player_id")
	entryType := r.URL.Query().Get("type")

	limit := defaultReplayLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			lh.jsonError(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}
	if limit > maxReplayLimit {
		limit = maxReplayLimit
	}

	var (
		entries    []storage.LedgerEntry
		err        error
		filterDesc string
	)
	switch {
	case playerID != "":
		entries, err = lh.ledgerRepo.ByPlayer(r.Context(), playerID)
		filterDesc = "player " + playerID
		if entryType != "" {
			entries = filterByType(entries, entryType)
			filterDesc += ", type " + entryType
		}
	case entryType != "":
		entries, err = lh.ledgerRepo.ByType(r.Context(), entryType)
		filterDesc = "type " + entryType
	default:
		entries, err = lh.ledgerRepo.Recent(r.Context(), limit)
	}
	if err != nil {
		lh.jsonError(w, "Ledger read failed: "+err.Error(), http.StatusServiceUnavailable)
		return
	}

	// Chronological queries cap at the newest entries.
	if len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}

	response := ReplayResponse{
		TotalEntries: len(entries),
		FilteredBy:   filterDesc,
		GeneratedAt:  time.Now().UTC().Format(time.RFC3339),
		Entries:      entries,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// HandleSummary aggregates the recent ledger window into totals.
// GET /api/ledger/summary
func (lh *LedgerReplayHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		lh.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	entries, err := lh.ledgerRepo.Recent(r.Context(), summaryWindow)
	if err != nil {
		lh.jsonError(w, "Ledger read failed: "+err.Error(), http.StatusServiceUnavailable)
		return
	}

	counts := make(map[string]int)
	var spent, claimed float64
	for _, e := range entries {
		counts[e.EntryType]++
		switch e.EntryType {
		case string(events.EntryPurchase):
			if v, ok := e.Payload["cost_paid"].(float64); ok {
				spent += v
			}
		case string(events.EntryTaskClaimed), string(events.EntryAchievementClaimed):
			if kind, ok := e.Payload["reward_kind"].(string); ok && kind == "currency" {
				if v, ok := e.Payload["amount"].(float64); ok {
					claimed += v
				}
			}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"generated_at":      time.Now().UTC().Format(time.RFC3339),
		"window":            len(entries),
		"counts":            counts,
		"lp_spent":          spent,
		"lp_claimed":        claimed,
		"lp_spent_pretty":   humanize.Commaf(spent) + " LP",
		"lp_claimed_pretty": humanize.Commaf(claimed) + " LP",
	})
}

// filterByType keeps entries of one type, preserving order.
func filterByType(entries []storage.LedgerEntry, entryType string) []storage.LedgerEntry {
	filtered := entries[:0:0]
	for _, e := range entries {
		if e.EntryType == entryType {
			filtered = append(filtered, e)
		}
	}
	return filtered
}

// jsonError sends an error response.
func (lh *LedgerReplayHandler) jsonError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
