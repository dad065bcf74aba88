package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avelia-studio/lunatap-server/internal/domain/catalog"
	"github.com/avelia-studio/lunatap-server/internal/events"
)

// TestPlayerSessionLifecycle drives one player through a full session:
// grinding taps, spending, boosting, idling offline, and claiming.
// Every balance along the way is asserted exactly.
func TestPlayerSessionLifecycle(t *testing.T) {
	e, _, ledger, clock := newTestEngine(t)
	ctx := context.Background()
	const id = "NOVA"

	// First contact
	snap, err := e.Player(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Level)
	assert.Equal(t, 500.0, snap.Energy)

	// Grind 120 taps at 1 LP each; the 100th crosses into level 2
	for i := 0; i < 120; i++ {
		_, err := e.Tap(ctx, id)
		require.NoError(t, err)
	}
	snap, err = e.Player(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 120.0, snap.LP)
	assert.Equal(t, 120.0, snap.LifetimeLP)
	assert.Equal(t, 380.0, snap.Energy)
	assert.Equal(t, int64(120), snap.TapCount)
	assert.Equal(t, 2, snap.Level)

	// Collect the starter task
	claim, err := e.ClaimTask(ctx, id, "first_steps")
	require.NoError(t, err)
	assert.Equal(t, 170.0, claim.NewCurrency)

	// Two tap upgrades: 10 then 11 LP
	buy, err := e.Purchase(ctx, id, "whisker_power")
	require.NoError(t, err)
	assert.Equal(t, 10.0, buy.CostPaid)
	buy, err = e.Purchase(ctx, id, "whisker_power")
	require.NoError(t, err)
	assert.Equal(t, 11.0, buy.CostPaid)
	assert.Equal(t, 2, buy.NewLevel)

	// Boosted tap: (1 base + 2 upgrade) * 2
	_, err = e.ActivateBooster(ctx, id, catalog.CategoryTap, 2, time.Hour)
	require.NoError(t, err)
	tap, err := e.Tap(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 6.0, tap.Gained)
	assert.Equal(t, 155.0, tap.NewCurrency)

	// Half an hour idle: +25 passive LP, energy refills to the cap
	clock.Advance(30 * time.Minute)
	snap, err = e.Player(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 180.0, snap.LP)
	assert.Equal(t, 201.0, snap.LifetimeLP)
	assert.Equal(t, 500.0, snap.Energy)

	// Booster survives the break
	tap, err = e.Tap(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 6.0, tap.Gained)

	// Two more hours: booster expired, +100 passive LP
	clock.Advance(2 * time.Hour)
	tap, err = e.Tap(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 3.0, tap.Gained)
	assert.Equal(t, 289.0, tap.NewCurrency)

	// Claims: the 250 LP task reward pushes lifetime past the 500
	// threshold into level 3
	claim, err = e.ClaimTask(ctx, id, "hundred_taps")
	require.NoError(t, err)
	assert.Equal(t, 539.0, claim.NewCurrency)

	claim, err = e.ClaimAchievement(ctx, id, "tap_titan", 0)
	require.NoError(t, err)
	assert.Equal(t, 639.0, claim.NewCurrency)

	_, err = e.ClaimAchievement(ctx, id, "moon_mogul", 0)
	assert.ErrorIs(t, err, ErrNotCompleted, "660 lifetime is short of the 1000 target")

	// Final shape
	snap, err = e.Player(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 3, snap.Level)
	assert.Equal(t, 2000.0, snap.NextLevelAt)
	assert.Equal(t, 660.0, snap.LifetimeLP)
	assert.Equal(t, 2, snap.Upgrades["whisker_power"])
	assert.Empty(t, snap.Boosters, "expired booster slots are hidden")

	board, err := e.Leaderboard(ctx, 10)
	require.NoError(t, err)
	require.Len(t, board, 1)
	assert.Equal(t, id, board[0].PlayerID)
	assert.Equal(t, 3, board[0].Level)

	// Audit trail
	assert.Len(t, ledger.ByType(events.EntryPlayerCreated), 1)
	assert.Len(t, ledger.ByType(events.EntryPurchase), 2)
	assert.Len(t, ledger.ByType(events.EntryBoosterActivated), 1)
	assert.Len(t, ledger.ByType(events.EntryTaskClaimed), 2)
	assert.Len(t, ledger.ByType(events.EntryAchievementClaimed), 1)
	assert.Len(t, ledger.ByType(events.EntryLevelUp), 2)
}
