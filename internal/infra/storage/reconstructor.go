// Package storage - reconstructor.go
// Rebuilds player economy state from the ledger and checks it against
// the stored row. The ledger is the source of truth: balance = f(entries).
package storage

import (
	"context"
	"fmt"
	"math"

	"github.com/avelia-studio/lunatap-server/internal/domain/player"
)

// Purchases are the only LP sink, so for a consistent player
// lp == lifetime_lp - sum(cost_paid over PURCHASE entries).
const driftTolerance = 0.001

// Reconstructor rebuilds player economy state from the ledger.
// This is used for:
// 1. Balance audits - detect drift between ledger and stored row
// 2. Upgrade level rebuilding after suspected corruption
// 3. Debugging economy reports
type Reconstructor struct {
	ledgerRepo LedgerRepository
	playerRepo PlayerRepository
}

// NewReconstructor creates a new state reconstructor.
func NewReconstructor(ledgerRepo LedgerRepository, playerRepo PlayerRepository) *Reconstructor {
	return &Reconstructor{ledgerRepo: ledgerRepo, playerRepo: playerRepo}
}

// AuditReport is the result of replaying a player's ledger against
// their stored row.
type AuditReport struct {
	PlayerID   string  `json:"player_id"`
	Purchases  int     `json:"purchases"`
	TotalSpent float64 `json:"total_spent"`
	LifetimeLP float64 `json:"lifetime_lp"`
	ExpectedLP float64 `json:"expected_lp"`
	ActualLP   float64 `json:"actual_lp"`
	Drift      float64 `json:"drift"`
	Consistent bool    `json:"consistent"`

	UpgradeMismatches []UpgradeMismatch `json:"upgrade_mismatches,omitempty"`
}

// UpgradeMismatch reports an upgrade whose stored level disagrees with
// the level the purchase history supports.
type UpgradeMismatch struct {
	UpgradeID   string `json:"upgrade_id"`
	StoredLevel int    `json:"stored_level"`
	LedgerLevel int    `json:"ledger_level"`
}

// AuditPlayer replays a player's ledger and compares the result with
// the stored row.
func (r *Reconstructor) AuditPlayer(ctx context.Context, playerID string) (*AuditReport, error) {
	p, err := r.playerRepo.Get(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load player for audit: %w", err)
	}

	entries, err := r.ledgerRepo.ByPlayer(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger entries for player: %w", err)
	}

	report := &AuditReport{
		PlayerID:   playerID,
		LifetimeLP: p.LifetimeLP,
		ActualLP:   p.LP,
	}

	rebuilt := make(map[string]int)
	for _, e := range entries {
		r.applyEntry(report, rebuilt, e)
	}

	report.ExpectedLP = report.LifetimeLP - report.TotalSpent
	report.Drift = report.ActualLP - report.ExpectedLP
	report.Consistent = math.Abs(report.Drift) < driftTolerance

	report.UpgradeMismatches = diffUpgrades(p, rebuilt)
	if len(report.UpgradeMismatches) > 0 {
		report.Consistent = false
	}

	return report, nil
}

// applyEntry folds one ledger entry into the running report.
func (r *Reconstructor) applyEntry(report *AuditReport, rebuilt map[string]int, e LedgerEntry) {
	if e.EntryType != "PURCHASE" {
		return
	}

	report.Purchases++

	if cost, ok := e.Payload["cost_paid"]; ok {
		if c, ok := cost.(float64); ok {
			report.TotalSpent += c
		}
	}

	id, ok := e.Payload["upgrade_id"].(string)
	if !ok {
		return
	}
	if lvl, ok := e.Payload["new_level"]; ok {
		if l, ok := lvl.(float64); ok && int(l) > rebuilt[id] {
			rebuilt[id] = int(l)
		}
	}
}

// diffUpgrades compares stored upgrade levels with the rebuilt ones.
func diffUpgrades(p *player.Player, rebuilt map[string]int) []UpgradeMismatch {
	var mismatches []UpgradeMismatch

	for id, stored := range p.Upgrades {
		if ledger := rebuilt[id]; ledger != stored {
			mismatches = append(mismatches, UpgradeMismatch{
				UpgradeID:   id,
				StoredLevel: stored,
				LedgerLevel: ledger,
			})
		}
	}
	for id, ledger := range rebuilt {
		if _, ok := p.Upgrades[id]; !ok {
			mismatches = append(mismatches, UpgradeMismatch{
				UpgradeID:   id,
				StoredLevel: 0,
				LedgerLevel: ledger,
			})
		}
	}

	return mismatches
}
