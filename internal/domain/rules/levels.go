package rules

import "github.com/avelia-studio/lunatap-server/internal/domain/catalog"

// LevelFor returns the highest level whose lifetime LP requirement is
// at or below the given total. The boundary is inclusive: landing
// exactly on a threshold grants the level. An empty table means level 1,
// but Validate rejects empty tables before the engine runs.
func LevelFor(lifetimeLP float64, thresholds []catalog.LevelThreshold) int {
	level := 1
	for _, t := range thresholds {
		if lifetimeLP >= t.LifetimeLP {
			level = t.Level
		} else {
			break
		}
	}
	return level
}

// NextThreshold returns the first threshold above the current level,
// or false when the player is at the table's top.
func NextThreshold(level int, thresholds []catalog.LevelThreshold) (catalog.LevelThreshold, bool) {
	for _, t := range thresholds {
		if t.Level > level {
			return t, true
		}
	}
	return catalog.LevelThreshold{}, false
}
