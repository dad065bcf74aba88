package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/avelia-studio/lunatap-server/internal/domain/catalog"
	"github.com/avelia-studio/lunatap-server/internal/domain/player"
)

// toMillis converts a time to UTC unix milliseconds for storage.
func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UTC().UnixMilli()
}

// fromMillis converts stored unix milliseconds back to UTC time.
func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

// playerMaps carries the JSON-encoded map columns of a player row.
type playerMaps struct {
	upgrades     string
	boosters     string
	tasks        string
	achievements string
	unlocks      string
}

func encodePlayerMaps(p *player.Player) (playerMaps, error) {
	var m playerMaps

	b, err := json.Marshal(p.Upgrades)
	if err != nil {
		return m, fmt.Errorf("encode upgrades: %w", err)
	}
	m.upgrades = string(b)

	b, err = json.Marshal(p.Boosters)
	if err != nil {
		return m, fmt.Errorf("encode boosters: %w", err)
	}
	m.boosters = string(b)

	b, err = json.Marshal(p.Tasks)
	if err != nil {
		return m, fmt.Errorf("encode tasks: %w", err)
	}
	m.tasks = string(b)

	b, err = json.Marshal(p.Achievements)
	if err != nil {
		return m, fmt.Errorf("encode achievements: %w", err)
	}
	m.achievements = string(b)

	b, err = json.Marshal(p.Unlocks)
	if err != nil {
		return m, fmt.Errorf("encode unlocks: %w", err)
	}
	m.unlocks = string(b)

	return m, nil
}

func decodePlayerMaps(p *player.Player, m playerMaps) error {
	p.Upgrades = make(map[string]int)
	if err := json.Unmarshal([]byte(m.upgrades), &p.Upgrades); err != nil {
		return fmt.Errorf("decode upgrades: %w", err)
	}

	p.Boosters = make(map[catalog.Category]player.Booster)
	if err := json.Unmarshal([]byte(m.boosters), &p.Boosters); err != nil {
		return fmt.Errorf("decode boosters: %w", err)
	}

	p.Tasks = make(map[string]player.TaskClaim)
	if err := json.Unmarshal([]byte(m.tasks), &p.Tasks); err != nil {
		return fmt.Errorf("decode tasks: %w", err)
	}

	p.Achievements = make(map[string]player.AchievementState)
	if err := json.Unmarshal([]byte(m.achievements), &p.Achievements); err != nil {
		return fmt.Errorf("decode achievements: %w", err)
	}

	p.Unlocks = []string{}
	if err := json.Unmarshal([]byte(m.unlocks), &p.Unlocks); err != nil {
		return fmt.Errorf("decode unlocks: %w", err)
	}

	return nil
}
