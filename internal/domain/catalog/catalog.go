// Package catalog defines the static game data: upgrade definitions,
// level thresholds, tasks and achievements. This package is PURE and
// must NOT import any infrastructure packages.
//
// Catalog content is configuration, not player state. A catalog that
// fails Validate must never reach the engine; startup aborts instead.
package catalog

import (
	"fmt"
	"sync"
)

// Category classifies what an upgrade or booster affects.
type Category string

const (
	CategoryTap           Category = "tap"
	CategoryPassiveIncome Category = "passive_income"
	CategoryEnergyRegen   Category = "energy_regen"
	CategoryCostReduction Category = "cost_reduction"
	CategoryEnergyCap     Category = "energy_cap"
)

// Boostable reports whether time-limited boosters may target the category.
// Cost reduction and energy cap are permanent-upgrade only.
func (c Category) Boostable() bool {
	switch c {
	case CategoryTap, CategoryPassiveIncome, CategoryEnergyRegen:
		return true
	}
	return false
}

func (c Category) valid() bool {
	switch c {
	case CategoryTap, CategoryPassiveIncome, CategoryEnergyRegen,
		CategoryCostReduction, CategoryEnergyCap:
		return true
	}
	return false
}

// StatKey identifies a tracked statistic that tasks and achievements
// measure progress against.
type StatKey string

const (
	StatTaps          StatKey = "taps"
	StatLifetimeLP    StatKey = "lifetime_lp"
	StatLevel         StatKey = "level"
	StatUpgradesOwned StatKey = "upgrades_owned"
)

func (k StatKey) valid() bool {
	switch k {
	case StatTaps, StatLifetimeLP, StatLevel, StatUpgradesOwned:
		return true
	}
	return false
}

// RewardKind tags the payload variant of a Reward.
type RewardKind string

const (
	RewardCurrency RewardKind = "currency"
	RewardEnergy   RewardKind = "energy"
	RewardUnlock   RewardKind = "unlock"
)

// Reward is a tagged variant: currency and energy carry Amount,
// unlock carries UnlockKey.
type Reward struct {
	Kind      RewardKind `json:"kind"`
	Amount    float64    `json:"amount,omitempty"`
	UnlockKey string     `json:"unlock_key,omitempty"`
}

func (r Reward) validate() error {
	switch r.Kind {
	case RewardCurrency, RewardEnergy:
		if r.Amount <= 0 {
			return fmt.Errorf("%s reward amount must be positive, got %v", r.Kind, r.Amount)
		}
	case RewardUnlock:
		if r.UnlockKey == "" {
			return fmt.Errorf("unlock reward requires a key")
		}
	default:
		return fmt.Errorf("unknown reward kind %q", r.Kind)
	}
	return nil
}

// UpgradeDefinition describes one purchasable upgrade line.
// Cost at owned level L is floor(BaseCost * CostGrowth^L).
type UpgradeDefinition struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Category   Category `json:"category"`
	BaseCost   float64  `json:"base_cost"`
	CostGrowth float64  `json:"cost_growth"` // strictly > 1
	BaseEffect float64  `json:"base_effect"` // per-level contribution in category units
	MaxLevel   int      `json:"max_level"`
}

// LevelThreshold maps a level to the lifetime LP required to reach it.
// The table is ordered and strictly increasing in both columns;
// reaching the exact threshold grants the level (boundary inclusive).
type LevelThreshold struct {
	Level      int     `json:"level"`
	LifetimeLP float64 `json:"lifetime_lp"`
}

// TaskDefinition is a one-shot objective with a single target and reward.
type TaskDefinition struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Stat   StatKey `json:"stat"`
	Target float64 `json:"target"`
	Reward Reward  `json:"reward"`
}

// AchievementTier is one rung of a tiered achievement.
type AchievementTier struct {
	Target float64 `json:"target"`
	Reward Reward  `json:"reward"`
}

// AchievementDefinition is a multi-tier objective over one statistic.
// Tiers are claimed strictly in order of ascending targets.
type AchievementDefinition struct {
	ID    string            `json:"id"`
	Name  string            `json:"name"`
	Stat  StatKey           `json:"stat"`
	Tiers []AchievementTier `json:"tiers"`
}

// Catalog bundles all static definitions the engine operates on.
type Catalog struct {
	Upgrades     []UpgradeDefinition     `json:"upgrades"`
	Thresholds   []LevelThreshold        `json:"thresholds"`
	Tasks        []TaskDefinition        `json:"tasks"`
	Achievements []AchievementDefinition `json:"achievements"`
}

// Upgrade finds a definition by ID.
func (c *Catalog) Upgrade(id string) (UpgradeDefinition, bool) {
	for _, d := range c.Upgrades {
		if d.ID == id {
			return d, true
		}
	}
	return UpgradeDefinition{}, false
}

// Task finds a task definition by ID.
func (c *Catalog) Task(id string) (TaskDefinition, bool) {
	for _, d := range c.Tasks {
		if d.ID == id {
			return d, true
		}
	}
	return TaskDefinition{}, false
}

// Achievement finds an achievement definition by ID.
func (c *Catalog) Achievement(id string) (AchievementDefinition, bool) {
	for _, d := range c.Achievements {
		if d.ID == id {
			return d, true
		}
	}
	return AchievementDefinition{}, false
}

// Validate checks structural integrity. Any error here is a configuration
// defect and must abort startup; the engine never sees an invalid catalog.
func (c *Catalog) Validate() error {
	seen := make(map[string]bool)

	for _, u := range c.Upgrades {
		if u.ID == "" {
			return fmt.Errorf("upgrade with empty ID")
		}
		if seen["u:"+u.ID] {
			return fmt.Errorf("duplicate upgrade ID %q", u.ID)
		}
		seen["u:"+u.ID] = true

		if !u.Category.valid() {
			return fmt.Errorf("upgrade %q: unknown category %q", u.ID, u.Category)
		}
		if u.BaseCost <= 0 {
			return fmt.Errorf("upgrade %q: base cost must be positive, got %v", u.ID, u.BaseCost)
		}
		if u.CostGrowth <= 1 {
			return fmt.Errorf("upgrade %q: cost growth must exceed 1, got %v", u.ID, u.CostGrowth)
		}
		if u.BaseEffect <= 0 {
			return fmt.Errorf("upgrade %q: base effect must be positive, got %v", u.ID, u.BaseEffect)
		}
		if u.MaxLevel < 1 {
			return fmt.Errorf("upgrade %q: max level must be at least 1, got %d", u.ID, u.MaxLevel)
		}
	}

	if len(c.Thresholds) == 0 {
		return fmt.Errorf("threshold table is empty")
	}
	if c.Thresholds[0].LifetimeLP != 0 {
		return fmt.Errorf("first threshold must require 0 lifetime LP, got %v", c.Thresholds[0].LifetimeLP)
	}
	for i := 1; i < len(c.Thresholds); i++ {
		prev, cur := c.Thresholds[i-1], c.Thresholds[i]
		if cur.Level <= prev.Level {
			return fmt.Errorf("threshold levels must strictly increase: %d after %d", cur.Level, prev.Level)
		}
		if cur.LifetimeLP <= prev.LifetimeLP {
			return fmt.Errorf("threshold requirements must strictly increase: %v after %v", cur.LifetimeLP, prev.LifetimeLP)
		}
	}

	for _, t := range c.Tasks {
		if t.ID == "" {
			return fmt.Errorf("task with empty ID")
		}
		if seen["t:"+t.ID] {
			return fmt.Errorf("duplicate task ID %q", t.ID)
		}
		seen["t:"+t.ID] = true

		if !t.Stat.valid() {
			return fmt.Errorf("task %q: unknown stat key %q", t.ID, t.Stat)
		}
		if t.Target <= 0 {
			return fmt.Errorf("task %q: target must be positive, got %v", t.ID, t.Target)
		}
		if err := t.Reward.validate(); err != nil {
			return fmt.Errorf("task %q: %w", t.ID, err)
		}
	}

	for _, a := range c.Achievements {
		if a.ID == "" {
			return fmt.Errorf("achievement with empty ID")
		}
		if seen["a:"+a.ID] {
			return fmt.Errorf("duplicate achievement ID %q", a.ID)
		}
		seen["a:"+a.ID] = true

		if !a.Stat.valid() {
			return fmt.Errorf("achievement %q: unknown stat key %q", a.ID, a.Stat)
		}
		if len(a.Tiers) == 0 {
			return fmt.Errorf("achievement %q: needs at least one tier", a.ID)
		}
		for i, tier := range a.Tiers {
			if tier.Target <= 0 {
				return fmt.Errorf("achievement %q tier %d: target must be positive", a.ID, i)
			}
			if i > 0 && tier.Target <= a.Tiers[i-1].Target {
				return fmt.Errorf("achievement %q tier %d: targets must strictly increase", a.ID, i)
			}
			if err := tier.Reward.validate(); err != nil {
				return fmt.Errorf("achievement %q tier %d: %w", a.ID, i, err)
			}
		}
	}

	return nil
}

// Holder is a swappable catalog reference. The engine reads the current
// catalog per operation, so admin updates take effect on the next
// reconcile without restarts.
type Holder struct {
	mu sync.RWMutex
	c  *Catalog
}

// NewHolder wraps an already validated catalog.
func NewHolder(c *Catalog) *Holder {
	return &Holder{c: c}
}

// Current returns the active catalog.
func (h *Holder) Current() *Catalog {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.c
}

// Swap replaces the active catalog after validating the replacement.
func (h *Holder) Swap(c *Catalog) error {
	if err := c.Validate(); err != nil {
		return err
	}
	h.mu.Lock()
	h.c = c
	h.mu.Unlock()
	return nil
}
