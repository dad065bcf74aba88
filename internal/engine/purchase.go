// Package engine - purchase.go
// Upgrade purchases. The cost curve is floor(BaseCost * Growth^level)
// with stacked cost-reduction discounts applied on top, and the debit
// plus level increment commit atomically or not at all.
package engine

import (
	"context"
	"strconv"
	"time"

	"github.com/avelia-studio/lunatap-server/internal/domain/catalog"
	"github.com/avelia-studio/lunatap-server/internal/domain/player"
	"github.com/avelia-studio/lunatap-server/internal/domain/rules"
	"github.com/avelia-studio/lunatap-server/internal/events"
	"github.com/avelia-studio/lunatap-server/internal/platform/metrics"
)

// PurchaseResult reports a completed upgrade purchase.
type PurchaseResult struct {
	UpgradeID string  `json:"upgradeId"`
	NewLevel  int     `json:"newLevel"`
	CostPaid  float64 `json:"costPaid"`
	Saved     float64 `json:"saved"`
}

// Purchase buys the next level of an upgrade for the player.
func (e *Engine) Purchase(ctx context.Context, playerID, upgradeID string) (*PurchaseResult, error) {
	var result PurchaseResult
	_, err := e.withPlayer(ctx, playerID, func(p *player.Player, c *catalog.Catalog, now time.Time) error {
		def, ok := c.Upgrade(upgradeID)
		if !ok {
			return ErrUpgradeNotFound
		}

		level := p.UpgradeLevel(def.ID)
		if level >= def.MaxLevel {
			return ErrMaxLevelReached
		}

		base := rules.UpgradeCost(def, level)
		pct := rules.DiscountPct(p, c, e.balance.DiscountCeilingPct)
		cost := rules.DiscountedCost(base, pct)
		if p.LP < cost {
			return ErrInsufficientFunds
		}

		p.LP -= cost
		p.Upgrades[def.ID] = level + 1

		result = PurchaseResult{
			UpgradeID: def.ID,
			NewLevel:  level + 1,
			CostPaid:  cost,
			Saved:     base - cost,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.ledger.Record(events.Entry{
		Type:     events.EntryPurchase,
		PlayerID: playerID,
		Payload: events.PurchasePayload{
			UpgradeID: result.UpgradeID,
			NewLevel:  result.NewLevel,
			CostPaid:  result.CostPaid,
			Saved:     result.Saved,
		},
	})
	metrics.Get().RecordPurchase()
	e.logger.Event("PURCHASE", playerID, result.UpgradeID+" -> level "+strconv.Itoa(result.NewLevel))
	return &result, nil
}
