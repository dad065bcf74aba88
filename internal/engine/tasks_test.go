package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avelia-studio/lunatap-server/internal/domain/player"
	"github.com/avelia-studio/lunatap-server/internal/events"
)

func TestClaimTaskPaysOnce(t *testing.T) {
	e, repo, ledger, clock := newTestEngine(t)
	ctx := context.Background()

	p := player.New("P001", 500, clock.Now())
	p.TapCount = 10 // first_steps target
	seedPlayer(t, repo, p)

	result, err := e.ClaimTask(ctx, "P001", "first_steps")
	require.NoError(t, err)
	assert.Equal(t, "currency", result.RewardKind)
	assert.Equal(t, 50.0, result.Amount)
	assert.Equal(t, 50.0, result.NewCurrency)

	stored, err := repo.Get(ctx, "P001")
	require.NoError(t, err)
	assert.Equal(t, 50.0, stored.LP)
	// Currency rewards count toward lifetime progression
	assert.Equal(t, 50.0, stored.LifetimeLP)

	_, err = e.ClaimTask(ctx, "P001", "first_steps")
	assert.ErrorIs(t, err, ErrAlreadyClaimed)
	assert.Len(t, ledger.ByType(events.EntryTaskClaimed), 1)
}

func TestClaimTaskBeforeTarget(t *testing.T) {
	e, repo, _, clock := newTestEngine(t)
	ctx := context.Background()

	p := player.New("P001", 500, clock.Now())
	p.TapCount = 9
	seedPlayer(t, repo, p)

	_, err := e.ClaimTask(ctx, "P001", "first_steps")
	assert.ErrorIs(t, err, ErrNotCompleted)

	stored, getErr := repo.Get(ctx, "P001")
	require.NoError(t, getErr)
	assert.Equal(t, 0.0, stored.LP)
	assert.False(t, stored.TaskClaimed("first_steps"))
}

func TestClaimTaskUnknown(t *testing.T) {
	e, _, _, _ := newTestEngine(t)

	_, err := e.ClaimTask(context.Background(), "P001", "slay_dragon")
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestClaimTaskEnergyRewardClampsAtCap(t *testing.T) {
	e, repo, _, clock := newTestEngine(t)
	ctx := context.Background()

	p := player.New("P001", 500, clock.Now())
	p.TapCount = 1000 // thousand_taps pays 200 energy
	p.Energy = 400
	seedPlayer(t, repo, p)

	result, err := e.ClaimTask(ctx, "P001", "thousand_taps")
	require.NoError(t, err)
	assert.Equal(t, "energy", result.RewardKind)
	assert.Equal(t, 500.0, result.NewEnergy)
}

func TestClaimTaskUnlockReward(t *testing.T) {
	e, repo, _, clock := newTestEngine(t)
	ctx := context.Background()

	// Lifetime 6000 puts the player at level 5, the level_five target
	p := player.New("P001", 500, clock.Now())
	p.LP = 6000
	p.LifetimeLP = 6000
	seedPlayer(t, repo, p)

	result, err := e.ClaimTask(ctx, "P001", "level_five")
	require.NoError(t, err)
	assert.Equal(t, "unlock", result.RewardKind)
	assert.Equal(t, "golden_skin", result.UnlockKey)

	stored, err := repo.Get(ctx, "P001")
	require.NoError(t, err)
	assert.True(t, stored.HasUnlock("golden_skin"))
	assert.Equal(t, 5, stored.Level)
}

func TestClaimAchievementTiersInOrder(t *testing.T) {
	e, repo, ledger, clock := newTestEngine(t)
	ctx := context.Background()

	p := player.New("P001", 500, clock.Now())
	p.TapCount = 1500
	seedPlayer(t, repo, p)

	// Tier 1 is locked until tier 0 is claimed
	_, err := e.ClaimAchievement(ctx, "P001", "tap_titan", 1)
	assert.ErrorIs(t, err, ErrNotCompleted)

	result, err := e.ClaimAchievement(ctx, "P001", "tap_titan", 0)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Tier)
	assert.Equal(t, 100.0, result.Amount)

	_, err = e.ClaimAchievement(ctx, "P001", "tap_titan", 0)
	assert.ErrorIs(t, err, ErrAlreadyClaimed)

	result, err = e.ClaimAchievement(ctx, "P001", "tap_titan", 1)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, result.Amount)

	// Tier 2 needs 10k taps, the player has 1500
	_, err = e.ClaimAchievement(ctx, "P001", "tap_titan", 2)
	assert.ErrorIs(t, err, ErrNotCompleted)

	claims := ledger.ByType(events.EntryAchievementClaimed)
	assert.Len(t, claims, 2)
}

func TestClaimAchievementBadInput(t *testing.T) {
	e, repo, _, clock := newTestEngine(t)
	ctx := context.Background()

	seedPlayer(t, repo, player.New("P001", 500, clock.Now()))

	_, err := e.ClaimAchievement(ctx, "P001", "no_such_badge", 0)
	assert.ErrorIs(t, err, ErrAchievementNotFound)

	_, err = e.ClaimAchievement(ctx, "P001", "tap_titan", 99)
	assert.ErrorIs(t, err, ErrAchievementNotFound)

	_, err = e.ClaimAchievement(ctx, "P001", "tap_titan", -1)
	assert.ErrorIs(t, err, ErrAchievementNotFound)
}

func TestAchievementViewExposesOnlyCurrentTier(t *testing.T) {
	e, repo, _, clock := newTestEngine(t)
	ctx := context.Background()

	p := player.New("P001", 500, clock.Now())
	p.TapCount = 1500
	seedPlayer(t, repo, p)

	snap, err := e.Player(ctx, "P001")
	require.NoError(t, err)

	view := findAchievement(t, snap, "tap_titan")
	assert.Equal(t, 0, view.Tier)
	assert.Equal(t, 100.0, view.Target)
	assert.Equal(t, 100.0, view.Progress)
	assert.True(t, view.Completed)

	_, err = e.ClaimAchievement(ctx, "P001", "tap_titan", 0)
	require.NoError(t, err)

	snap, err = e.Player(ctx, "P001")
	require.NoError(t, err)
	view = findAchievement(t, snap, "tap_titan")
	assert.Equal(t, 1, view.Tier)
	assert.Equal(t, 1000.0, view.Target, "next target appears only after the claim")
	assert.False(t, view.Done)
}

func findAchievement(t *testing.T, snap *PlayerSnapshot, id string) AchievementView {
	t.Helper()
	for _, v := range snap.Achievements {
		if v.ID == id {
			return v
		}
	}
	t.Fatalf("achievement %s missing from snapshot", id)
	return AchievementView{}
}

func TestAchievementFinalTierCompletes(t *testing.T) {
	e, repo, _, clock := newTestEngine(t)
	ctx := context.Background()

	// upgrade_addict: 10 / 25 / 50 owned upgrade levels
	p := player.New("P001", 500, clock.Now())
	p.Upgrades["whisker_power"] = 30
	p.Upgrades["auto_groomer"] = 20
	p.Energy = 450
	seedPlayer(t, repo, p)

	for tier := 0; tier < 3; tier++ {
		_, err := e.ClaimAchievement(ctx, "P001", "upgrade_addict", tier)
		require.NoError(t, err, "tier %d", tier)
	}

	snap, err := e.Player(ctx, "P001")
	require.NoError(t, err)
	view := findAchievement(t, snap, "upgrade_addict")
	assert.True(t, view.Done)
	assert.Equal(t, 3, view.Tier)

	// Final tier pays 300 energy on top of 450, clamped to the cap
	stored, err := repo.Get(ctx, "P001")
	require.NoError(t, err)
	assert.Equal(t, 500.0, stored.Energy)
}
