// Package engine - tap.go
// The hot path. A tap debits energy and credits LP at the player's
// current effective rate.
package engine

import (
	"context"
	"time"

	"github.com/avelia-studio/lunatap-server/internal/domain/catalog"
	"github.com/avelia-studio/lunatap-server/internal/domain/player"
	"github.com/avelia-studio/lunatap-server/internal/domain/rules"
	"github.com/avelia-studio/lunatap-server/internal/platform/metrics"
)

// TapResult reports the outcome of one processed tap.
type TapResult struct {
	Gained      float64 `json:"gained"`
	NewCurrency float64 `json:"newCurrency"`
	NewEnergy   float64 `json:"newEnergy"`
}

// Tap processes one tap for the player. Fails with
// ErrInsufficientEnergy when the reconciled energy cannot cover the
// tap cost; nothing is consumed on failure.
func (e *Engine) Tap(ctx context.Context, playerID string) (*TapResult, error) {
	start := time.Now()

	var result TapResult
	_, err := e.withPlayer(ctx, playerID, func(p *player.Player, c *catalog.Catalog, now time.Time) error {
		if p.Energy < e.balance.TapEnergyCost {
			return ErrInsufficientEnergy
		}

		gain := rules.TapValue(e.balance.BaseTapValue, p, c, now)
		p.Energy -= e.balance.TapEnergyCost
		p.LP += gain
		p.LifetimeLP += gain
		p.TapCount++

		result = TapResult{
			Gained:      gain,
			NewCurrency: p.LP,
			NewEnergy:   p.Energy,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.Get().RecordTap(time.Since(start))
	return &result, nil
}
