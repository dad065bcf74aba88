// Package player defines the core domain entity for player progression state.
// This package is PURE and must NOT import any infrastructure packages (network, events, platform).
package player

import (
	"time"

	"github.com/avelia-studio/lunatap-server/internal/domain/catalog"
)

// Booster is a time-limited multiplier applied to one category.
// Expiry is evaluated at read time; expired entries are overwritten
// on the next activation, never swept.
type Booster struct {
	Multiplier float64   `json:"multiplier"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// TaskClaim marks a one-time task reward as collected.
type TaskClaim struct {
	ClaimedAt time.Time `json:"claimed_at"`
}

// AchievementState tracks tiered achievement claims.
// NextTier is the index of the lowest unclaimed tier; tiers are
// claimed strictly in order.
type AchievementState struct {
	NextTier  int       `json:"next_tier"`
	ClaimedAt time.Time `json:"claimed_at,omitempty"`
}

// Player represents the full numeric state of one participant.
type Player struct {
	ID string `json:"id"`

	// Economy
	LP         float64 `json:"lp"`          // spendable soft currency, never negative
	LifetimeLP float64 `json:"lifetime_lp"` // cumulative earned, never decreases
	Energy     float64 `json:"energy"`      // 0..effective max, fractional regen
	Level      int     `json:"level"`       // cached, derived from LifetimeLP
	TapCount   int64   `json:"tap_count"`

	// Reconciliation anchor. Non-decreasing.
	LastTick time.Time `json:"last_tick"`

	// Owned progression
	Upgrades     map[string]int                        `json:"upgrades"`     // upgrade ID -> level
	Boosters     map[catalog.Category]Booster          `json:"boosters"`     // one slot per category, last wins
	Tasks        map[string]TaskClaim                  `json:"tasks"`        // task ID -> claim stamp
	Achievements map[string]AchievementState           `json:"achievements"` // achievement ID -> tier cursor
	Unlocks      []string                              `json:"unlocks"`

	VIPUntil  time.Time `json:"vip_until"` // passive multiplier active while in the future
	Version   int64     `json:"version"`   // optimistic concurrency token
	CreatedAt time.Time `json:"created_at"`
}

// New creates a fresh player with default starting state.
// Energy starts full at the base cap; upgrades raise the cap later.
func New(id string, startingEnergy float64, now time.Time) *Player {
	return &Player{
		ID:           id,
		LP:           0,
		LifetimeLP:   0,
		Energy:       startingEnergy,
		Level:        1,
		TapCount:     0,
		LastTick:     now,
		Upgrades:     make(map[string]int),
		Boosters:     make(map[catalog.Category]Booster),
		Tasks:        make(map[string]TaskClaim),
		Achievements: make(map[string]AchievementState),
		Unlocks:      []string{},
		Version:      1,
		CreatedAt:    now,
	}
}

// UpgradeLevel returns the owned level for an upgrade, zero when unowned.
func (p *Player) UpgradeLevel(id string) int {
	return p.Upgrades[id]
}

// TotalUpgradeLevels sums all owned upgrade levels. This is the
// "upgrades_owned" statistic.
func (p *Player) TotalUpgradeLevels() int {
	total := 0
	for _, lvl := range p.Upgrades {
		total += lvl
	}
	return total
}

// BoosterMultiplier returns the active multiplier for a category at the
// given instant, or 1 when no booster is active.
func (p *Player) BoosterMultiplier(cat catalog.Category, now time.Time) float64 {
	b, ok := p.Boosters[cat]
	if !ok || !now.Before(b.ExpiresAt) {
		return 1
	}
	return b.Multiplier
}

// SetBooster overwrites the booster slot for a category. No stacking.
func (p *Player) SetBooster(cat catalog.Category, b Booster) {
	if p.Boosters == nil {
		p.Boosters = make(map[catalog.Category]Booster)
	}
	p.Boosters[cat] = b
}

// VIPActive reports whether the VIP passive bonus applies at the instant.
func (p *Player) VIPActive(now time.Time) bool {
	return now.Before(p.VIPUntil)
}

// HasUnlock reports whether a cosmetic/feature key has been granted.
func (p *Player) HasUnlock(key string) bool {
	for _, u := range p.Unlocks {
		if u == key {
			return true
		}
	}
	return false
}

// AddUnlock grants a key once; duplicates are ignored.
func (p *Player) AddUnlock(key string) {
	if p.HasUnlock(key) {
		return
	}
	p.Unlocks = append(p.Unlocks, key)
}

// TaskClaimed reports whether a task reward was already collected.
func (p *Player) TaskClaimed(id string) bool {
	_, ok := p.Tasks[id]
	return ok
}

// StatValue resolves a tracked statistic by key. Unknown keys read as zero;
// catalog validation rejects them before they reach a live player.
func (p *Player) StatValue(key catalog.StatKey) float64 {
	switch key {
	case catalog.StatTaps:
		return float64(p.TapCount)
	case catalog.StatLifetimeLP:
		return p.LifetimeLP
	case catalog.StatLevel:
		return float64(p.Level)
	case catalog.StatUpgradesOwned:
		return float64(p.TotalUpgradeLevels())
	}
	return 0
}

// Clone returns a deep copy. Repositories hand out clones so callers can
// mutate freely before a conditional write.
func (p *Player) Clone() *Player {
	cp := *p

	cp.Upgrades = make(map[string]int, len(p.Upgrades))
	for k, v := range p.Upgrades {
		cp.Upgrades[k] = v
	}

	cp.Boosters = make(map[catalog.Category]Booster, len(p.Boosters))
	for k, v := range p.Boosters {
		cp.Boosters[k] = v
	}

	cp.Tasks = make(map[string]TaskClaim, len(p.Tasks))
	for k, v := range p.Tasks {
		cp.Tasks[k] = v
	}

	cp.Achievements = make(map[string]AchievementState, len(p.Achievements))
	for k, v := range p.Achievements {
		cp.Achievements[k] = v
	}

	cp.Unlocks = make([]string, len(p.Unlocks))
	copy(cp.Unlocks, p.Unlocks)

	return &cp
}
