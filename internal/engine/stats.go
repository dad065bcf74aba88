// Package engine - stats.go
// Read-side views. Reads reconcile and persist like writes so there is
// exactly one code path that advances a player through time.
package engine

import (
	"context"
	"time"

	"github.com/avelia-studio/lunatap-server/internal/domain/catalog"
	"github.com/avelia-studio/lunatap-server/internal/domain/player"
	"github.com/avelia-studio/lunatap-server/internal/domain/rules"
)

// StatsSnapshot is the derived-rate view clients render next to the
// tap button.
type StatsSnapshot struct {
	LPPerTap        float64 `json:"lpPerTap"`
	LPPerHour       float64 `json:"lpPerHour"`
	MaxEnergy       float64 `json:"maxEnergy"`
	EnergyRegenRate float64 `json:"energyRegenRate"`
}

// BoosterView shows an active multiplier slot.
type BoosterView struct {
	Multiplier float64   `json:"multiplier"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

// TaskView shows one task with the player's progress toward it.
type TaskView struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Progress  float64 `json:"progress"`
	Target    float64 `json:"target"`
	Completed bool    `json:"completed"`
	Claimed   bool    `json:"claimed"`
}

// AchievementView shows one achievement at the player's current tier.
// Only the claimable tier's target is exposed; later tiers stay hidden
// until the cursor reaches them.
type AchievementView struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Tier      int     `json:"tier"`
	TierCount int     `json:"tierCount"`
	Target    float64 `json:"target,omitempty"`
	Progress  float64 `json:"progress"`
	Completed bool    `json:"completed"`
	Done      bool    `json:"done"`
}

// PlayerSnapshot is the full reconciled state view for the client.
type PlayerSnapshot struct {
	ID           string                 `json:"id"`
	LP           float64                `json:"lp"`
	LifetimeLP   float64                `json:"lifetimeLp"`
	Energy       float64                `json:"energy"`
	MaxEnergy    float64                `json:"maxEnergy"`
	Level        int                    `json:"level"`
	NextLevelAt  float64                `json:"nextLevelAt,omitempty"`
	TapCount     int64                  `json:"tapCount"`
	Upgrades     map[string]int         `json:"upgrades"`
	Boosters     map[string]BoosterView `json:"boosters,omitempty"`
	Tasks        []TaskView             `json:"tasks"`
	Achievements []AchievementView      `json:"achievements"`
	Unlocks      []string               `json:"unlocks"`
	VIPActive    bool                   `json:"vipActive"`
	VIPUntil     *time.Time             `json:"vipUntil,omitempty"`
	CreatedAt    time.Time              `json:"createdAt"`
}

// EffectiveStats returns the player's current derived rates,
// reconciled to now. Creates the player on first contact.
func (e *Engine) EffectiveStats(ctx context.Context, playerID string) (*StatsSnapshot, error) {
	var snap StatsSnapshot
	_, err := e.withPlayer(ctx, playerID, func(p *player.Player, c *catalog.Catalog, now time.Time) error {
		snap = StatsSnapshot{
			LPPerTap:        rules.TapValue(e.balance.BaseTapValue, p, c, now),
			LPPerHour:       rules.PassivePerHour(e.balance.BasePassivePerHour, e.balance.VIPPassiveBonus, p, c, now),
			MaxEnergy:       rules.MaxEnergy(e.balance.BaseMaxEnergy, p, c),
			EnergyRegenRate: rules.RegenPerSecond(e.balance.BaseRegenPerSecond, p, c, now),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

// Player returns the full reconciled snapshot, creating the record on
// first contact.
func (e *Engine) Player(ctx context.Context, playerID string) (*PlayerSnapshot, error) {
	var snap PlayerSnapshot
	_, err := e.withPlayer(ctx, playerID, func(p *player.Player, c *catalog.Catalog, now time.Time) error {
		snap = e.buildSnapshot(p, c, now)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

func (e *Engine) buildSnapshot(p *player.Player, c *catalog.Catalog, now time.Time) PlayerSnapshot {
	snap := PlayerSnapshot{
		ID:         p.ID,
		LP:         p.LP,
		LifetimeLP: p.LifetimeLP,
		Energy:     p.Energy,
		MaxEnergy:  rules.MaxEnergy(e.balance.BaseMaxEnergy, p, c),
		Level:      p.Level,
		TapCount:   p.TapCount,
		Upgrades:   make(map[string]int, len(p.Upgrades)),
		Unlocks:    append([]string{}, p.Unlocks...),
		VIPActive:  p.VIPActive(now),
		CreatedAt:  p.CreatedAt,
	}

	if next, ok := rules.NextThreshold(p.Level, c.Thresholds); ok {
		snap.NextLevelAt = next.LifetimeLP
	}
	for id, lvl := range p.Upgrades {
		snap.Upgrades[id] = lvl
	}
	if !p.VIPUntil.IsZero() && p.VIPUntil.After(now) {
		until := p.VIPUntil
		snap.VIPUntil = &until
	}

	for cat, b := range p.Boosters {
		if !now.Before(b.ExpiresAt) {
			continue // expired slots read as absent
		}
		if snap.Boosters == nil {
			snap.Boosters = make(map[string]BoosterView)
		}
		snap.Boosters[string(cat)] = BoosterView{
			Multiplier: b.Multiplier,
			ExpiresAt:  b.ExpiresAt,
		}
	}

	snap.Tasks = make([]TaskView, 0, len(c.Tasks))
	for _, def := range c.Tasks {
		stat := p.StatValue(def.Stat)
		progress := stat
		if progress > def.Target {
			progress = def.Target
		}
		snap.Tasks = append(snap.Tasks, TaskView{
			ID:        def.ID,
			Name:      def.Name,
			Progress:  progress,
			Target:    def.Target,
			Completed: stat >= def.Target,
			Claimed:   p.TaskClaimed(def.ID),
		})
	}

	snap.Achievements = make([]AchievementView, 0, len(c.Achievements))
	for _, def := range c.Achievements {
		stat := p.StatValue(def.Stat)
		state := p.Achievements[def.ID]
		view := AchievementView{
			ID:        def.ID,
			Name:      def.Name,
			Tier:      state.NextTier,
			TierCount: len(def.Tiers),
		}
		if state.NextTier >= len(def.Tiers) {
			view.Progress = def.Tiers[len(def.Tiers)-1].Target
			view.Completed = true
			view.Done = true
		} else {
			target := def.Tiers[state.NextTier].Target
			view.Target = target
			view.Progress = stat
			if view.Progress > target {
				view.Progress = target
			}
			view.Completed = stat >= target
		}
		snap.Achievements = append(snap.Achievements, view)
	}

	return snap
}
