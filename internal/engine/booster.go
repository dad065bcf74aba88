// Package engine - booster.go
// Time-limited multipliers. One slot per category, last activation
// wins, never stacked. Expired boosters are overwritten in place and
// never swept.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/avelia-studio/lunatap-server/internal/domain/catalog"
	"github.com/avelia-studio/lunatap-server/internal/domain/player"
	"github.com/avelia-studio/lunatap-server/internal/events"
	"github.com/avelia-studio/lunatap-server/internal/platform/metrics"
)

// BoosterResult reports an activated booster.
type BoosterResult struct {
	Category   catalog.Category `json:"category"`
	Multiplier float64          `json:"multiplier"`
	ExpiresAt  time.Time        `json:"expiresAt"`
}

// ActivateBooster applies a multiplier to one category until the
// expiry instant. Replaces any existing booster in the slot, active or
// expired.
func (e *Engine) ActivateBooster(ctx context.Context, playerID string, category catalog.Category, multiplier float64, duration time.Duration) (*BoosterResult, error) {
	if !category.Boostable() {
		return nil, fmt.Errorf("%w: category %q cannot be boosted", ErrInvalidBooster, category)
	}
	if multiplier <= 1 {
		return nil, fmt.Errorf("%w: multiplier must exceed 1, got %v", ErrInvalidBooster, multiplier)
	}
	if duration <= 0 {
		return nil, fmt.Errorf("%w: duration must be positive, got %v", ErrInvalidBooster, duration)
	}

	var result BoosterResult
	_, err := e.withPlayer(ctx, playerID, func(p *player.Player, c *catalog.Catalog, now time.Time) error {
		expires := now.Add(duration)
		p.SetBooster(category, player.Booster{
			Multiplier: multiplier,
			ExpiresAt:  expires,
		})
		result = BoosterResult{
			Category:   category,
			Multiplier: multiplier,
			ExpiresAt:  expires,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.ledger.Record(events.Entry{
		Type:     events.EntryBoosterActivated,
		PlayerID: playerID,
		Payload: events.BoosterPayload{
			Category:   string(result.Category),
			Multiplier: result.Multiplier,
			ExpiresAt:  result.ExpiresAt,
		},
	})
	metrics.Get().RecordBooster()
	e.logger.Event("BOOSTER_ACTIVATED", playerID, fmt.Sprintf("%s x%.2f until %s",
		result.Category, result.Multiplier, result.ExpiresAt.Format(time.RFC3339)))
	return &result, nil
}

// GrantVIP sets the VIP passive bonus window for a player. An instant
// in the past revokes VIP. Admin surface; the multiplier itself lives
// in the balance config.
func (e *Engine) GrantVIP(ctx context.Context, playerID string, until time.Time) error {
	_, err := e.withPlayer(ctx, playerID, func(p *player.Player, c *catalog.Catalog, now time.Time) error {
		p.VIPUntil = until.UTC()
		return nil
	})
	if err != nil {
		return err
	}

	e.ledger.Record(events.Entry{
		Type:     events.EntryVIPGranted,
		PlayerID: playerID,
		Payload:  events.VIPPayload{Until: until.UTC()},
	})
	e.logger.Event("VIP_GRANTED", playerID, "until "+until.UTC().Format(time.RFC3339))
	return nil
}
