// Package engine - reconcile.go
// Lazy resource reconciliation. Instead of a background tick, elapsed
// time is settled whenever a player is touched: energy regenerates up
// to the effective cap and passive income accrues against an offline
// cap. Booster expiry is evaluated at the single instant "now", so an
// expired booster simply reads as absent.
package engine

import (
	"time"

	"github.com/avelia-studio/lunatap-server/internal/domain/catalog"
	"github.com/avelia-studio/lunatap-server/internal/domain/player"
	"github.com/avelia-studio/lunatap-server/internal/domain/rules"
)

// reconcile advances a player's resources from LastTick to now.
// Idempotent for a fixed now; a no-op when now is not after LastTick,
// which also keeps LastTick non-decreasing under clock skew.
func (e *Engine) reconcile(p *player.Player, c *catalog.Catalog, now time.Time) {
	if !now.After(p.LastTick) {
		return
	}
	elapsed := now.Sub(p.LastTick)

	// Energy regen, clamped to the effective cap
	regen := rules.RegenPerSecond(e.balance.BaseRegenPerSecond, p, c, now)
	maxEnergy := rules.MaxEnergy(e.balance.BaseMaxEnergy, p, c)
	p.Energy += regen * elapsed.Seconds()
	if p.Energy > maxEnergy {
		p.Energy = maxEnergy
	}

	// Passive income, with offline hours capped so a week away does not
	// mint a week of LP
	hours := elapsed.Hours()
	if hours > e.balance.OfflineCapHours {
		hours = e.balance.OfflineCapHours
	}
	rate := rules.PassivePerHour(e.balance.BasePassivePerHour, e.balance.VIPPassiveBonus, p, c, now)
	if earned := rate * hours; earned > 0 {
		p.LP += earned
		p.LifetimeLP += earned
	}

	p.LastTick = now
}
