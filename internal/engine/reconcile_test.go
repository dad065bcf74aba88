package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avelia-studio/lunatap-server/internal/domain/catalog"
	"github.com/avelia-studio/lunatap-server/internal/domain/player"
)

func TestReconcileEnergyRegen(t *testing.T) {
	e, _, _, clock := newTestEngine(t)
	c := e.catalog.Current()

	p := player.New("P001", 500, clock.Now())
	p.Energy = 0

	e.reconcile(p, c, clock.Now().Add(100*time.Second))

	// 0.3 energy/sec * 100s
	assert.InDelta(t, 30.0, p.Energy, 1e-9)
	assert.Equal(t, clock.Now().Add(100*time.Second), p.LastTick)
}

func TestReconcileEnergyClampsAtCap(t *testing.T) {
	e, _, _, clock := newTestEngine(t)
	c := e.catalog.Current()

	p := player.New("P001", 500, clock.Now())
	p.Energy = 490

	e.reconcile(p, c, clock.Now().Add(1*time.Hour))

	assert.Equal(t, 500.0, p.Energy)
}

func TestReconcileUpgradedRates(t *testing.T) {
	e, _, _, clock := newTestEngine(t)
	c := e.catalog.Current()

	p := player.New("P001", 500, clock.Now())
	p.Energy = 0
	p.Upgrades["catnip_tea"] = 4   // +0.05/sec each -> 0.5/sec total
	p.Upgrades["moon_garden"] = 1  // +120 LP/hour
	p.Upgrades["auto_groomer"] = 2 // +25 LP/hour each

	e.reconcile(p, c, clock.Now().Add(1*time.Hour))

	assert.InDelta(t, 0.5*3600, p.Energy, 1e-6)
	// 50 base + 120 + 50 = 220 LP/hour
	assert.InDelta(t, 220.0, p.LP, 1e-9)
	assert.InDelta(t, 220.0, p.LifetimeLP, 1e-9)
}

func TestReconcileOfflineCap(t *testing.T) {
	e, _, _, clock := newTestEngine(t)
	c := e.catalog.Current()

	p := player.New("P001", 500, clock.Now())

	// 24h away, passive income capped at 8h
	e.reconcile(p, c, clock.Now().Add(24*time.Hour))

	assert.InDelta(t, 50.0*8, p.LP, 1e-9)
	assert.InDelta(t, 50.0*8, p.LifetimeLP, 1e-9)
	assert.Equal(t, 500.0, p.Energy)
}

func TestReconcileVIPMultiplier(t *testing.T) {
	e, _, _, clock := newTestEngine(t)
	c := e.catalog.Current()

	p := player.New("P001", 500, clock.Now())
	p.VIPUntil = clock.Now().Add(48 * time.Hour)

	e.reconcile(p, c, clock.Now().Add(1*time.Hour))

	// 50 LP/h * 1.5 VIP bonus
	assert.InDelta(t, 75.0, p.LP, 1e-9)
}

func TestReconcileEvaluatesBoostersAtNow(t *testing.T) {
	e, _, _, clock := newTestEngine(t)
	c := e.catalog.Current()

	// Booster still active at the reconcile instant: whole window boosted
	active := player.New("P001", 500, clock.Now())
	active.SetBooster(catalog.CategoryPassiveIncome, player.Booster{
		Multiplier: 2,
		ExpiresAt:  clock.Now().Add(3 * time.Hour),
	})
	e.reconcile(active, c, clock.Now().Add(2*time.Hour))
	assert.InDelta(t, 50.0*2*2, active.LP, 1e-9)

	// Booster expired by the reconcile instant: whole window unboosted,
	// even though it covered part of the interval. Expiry is a
	// point-in-time read, not a proportional split.
	expired := player.New("P002", 500, clock.Now())
	expired.SetBooster(catalog.CategoryPassiveIncome, player.Booster{
		Multiplier: 2,
		ExpiresAt:  clock.Now().Add(1 * time.Hour),
	})
	e.reconcile(expired, c, clock.Now().Add(2*time.Hour))
	assert.InDelta(t, 50.0*2, expired.LP, 1e-9)
}

func TestReconcileNoOpWhenClockBehind(t *testing.T) {
	e, _, _, clock := newTestEngine(t)
	c := e.catalog.Current()

	p := player.New("P001", 500, clock.Now())
	p.Energy = 100
	tick := p.LastTick

	e.reconcile(p, c, clock.Now().Add(-1*time.Minute))

	assert.Equal(t, 100.0, p.Energy)
	assert.Equal(t, 0.0, p.LP)
	assert.Equal(t, tick, p.LastTick, "LastTick must never move backwards")
}

func TestReconcileIdempotentForFixedNow(t *testing.T) {
	e, _, _, clock := newTestEngine(t)
	c := e.catalog.Current()

	p := player.New("P001", 500, clock.Now())
	p.Energy = 0
	now := clock.Now().Add(10 * time.Minute)

	e.reconcile(p, c, now)
	lp, energy := p.LP, p.Energy

	e.reconcile(p, c, now)
	assert.Equal(t, lp, p.LP)
	assert.Equal(t, energy, p.Energy)
}

func TestReconcilePersistsThroughReads(t *testing.T) {
	e, repo, _, clock := newTestEngine(t)
	ctx := context.Background()

	_, err := e.Player(ctx, "P001")
	require.NoError(t, err)

	clock.Advance(2 * time.Hour)
	stats, err := e.EffectiveStats(ctx, "P001")
	require.NoError(t, err)
	assert.Equal(t, 50.0, stats.LPPerHour)

	// The read must have settled the 2h of passive income durably
	stored, err := repo.Get(ctx, "P001")
	require.NoError(t, err)
	assert.InDelta(t, 100.0, stored.LP, 1e-9)
	assert.Equal(t, clock.Now(), stored.LastTick)
}
