// Package engine - tasks.go
// One-time task rewards and tiered achievement claims. Claims are
// explicit, never automatic, and each task or tier pays exactly once.
// Achievement tiers are consumed strictly in order.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/avelia-studio/lunatap-server/internal/domain/catalog"
	"github.com/avelia-studio/lunatap-server/internal/domain/player"
	"github.com/avelia-studio/lunatap-server/internal/domain/rules"
	"github.com/avelia-studio/lunatap-server/internal/events"
	"github.com/avelia-studio/lunatap-server/internal/platform/metrics"
)

// ClaimResult reports a collected reward and the balances it changed.
type ClaimResult struct {
	ID          string  `json:"id"`
	Tier        int     `json:"tier,omitempty"`
	RewardKind  string  `json:"rewardKind"`
	Amount      float64 `json:"amount,omitempty"`
	UnlockKey   string  `json:"unlockKey,omitempty"`
	NewCurrency float64 `json:"newCurrency"`
	NewEnergy   float64 `json:"newEnergy"`
}

// applyReward credits a reward. Currency raises lifetime LP as well,
// energy clamps at the effective cap, unlocks append a key once.
func (e *Engine) applyReward(p *player.Player, c *catalog.Catalog, r catalog.Reward) {
	switch r.Kind {
	case catalog.RewardCurrency:
		p.LP += r.Amount
		p.LifetimeLP += r.Amount
	case catalog.RewardEnergy:
		maxEnergy := rules.MaxEnergy(e.balance.BaseMaxEnergy, p, c)
		p.Energy += r.Amount
		if p.Energy > maxEnergy {
			p.Energy = maxEnergy
		}
	case catalog.RewardUnlock:
		p.AddUnlock(r.UnlockKey)
	}
}

// ClaimTask collects a completed task's one-time reward.
func (e *Engine) ClaimTask(ctx context.Context, playerID, taskID string) (*ClaimResult, error) {
	var result ClaimResult
	_, err := e.withPlayer(ctx, playerID, func(p *player.Player, c *catalog.Catalog, now time.Time) error {
		def, ok := c.Task(taskID)
		if !ok {
			return ErrTaskNotFound
		}
		if p.TaskClaimed(def.ID) {
			return ErrAlreadyClaimed
		}
		if p.StatValue(def.Stat) < def.Target {
			return ErrNotCompleted
		}

		e.applyReward(p, c, def.Reward)
		p.Tasks[def.ID] = player.TaskClaim{ClaimedAt: now}

		result = ClaimResult{
			ID:          def.ID,
			RewardKind:  string(def.Reward.Kind),
			Amount:      def.Reward.Amount,
			UnlockKey:   def.Reward.UnlockKey,
			NewCurrency: p.LP,
			NewEnergy:   p.Energy,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.ledger.Record(events.Entry{
		Type:     events.EntryTaskClaimed,
		PlayerID: playerID,
		Payload: events.ClaimPayload{
			DefinitionID: result.ID,
			RewardKind:   result.RewardKind,
			Amount:       result.Amount,
			UnlockKey:    result.UnlockKey,
		},
	})
	metrics.Get().RecordClaim()
	e.logger.Event("TASK_CLAIMED", playerID, result.ID+" ("+result.RewardKind+")")
	return &result, nil
}

// ClaimAchievement collects one tier of an achievement. Tier indexes
// are zero-based; a tier below the cursor was already claimed, a tier
// above it is not reachable until the cursor gets there.
func (e *Engine) ClaimAchievement(ctx context.Context, playerID, achievementID string, tier int) (*ClaimResult, error) {
	var result ClaimResult
	_, err := e.withPlayer(ctx, playerID, func(p *player.Player, c *catalog.Catalog, now time.Time) error {
		def, ok := c.Achievement(achievementID)
		if !ok {
			return ErrAchievementNotFound
		}
		if tier < 0 || tier >= len(def.Tiers) {
			return fmt.Errorf("%w: %q has no tier %d", ErrAchievementNotFound, def.ID, tier)
		}

		state := p.Achievements[def.ID]
		if tier < state.NextTier {
			return ErrAlreadyClaimed
		}
		if tier > state.NextTier {
			return ErrNotCompleted
		}

		target := def.Tiers[tier].Target
		if p.StatValue(def.Stat) < target {
			return ErrNotCompleted
		}

		reward := def.Tiers[tier].Reward
		e.applyReward(p, c, reward)
		p.Achievements[def.ID] = player.AchievementState{
			NextTier:  tier + 1,
			ClaimedAt: now,
		}

		result = ClaimResult{
			ID:          def.ID,
			Tier:        tier,
			RewardKind:  string(reward.Kind),
			Amount:      reward.Amount,
			UnlockKey:   reward.UnlockKey,
			NewCurrency: p.LP,
			NewEnergy:   p.Energy,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.ledger.Record(events.Entry{
		Type:     events.EntryAchievementClaimed,
		PlayerID: playerID,
		Payload: events.ClaimPayload{
			DefinitionID: result.ID,
			Tier:         result.Tier,
			RewardKind:   result.RewardKind,
			Amount:       result.Amount,
			UnlockKey:    result.UnlockKey,
		},
	})
	metrics.Get().RecordClaim()
	e.logger.Event("ACHIEVEMENT_CLAIMED", playerID, fmt.Sprintf("%s tier %d (%s)",
		result.ID, result.Tier, result.RewardKind))
	return &result, nil
}
