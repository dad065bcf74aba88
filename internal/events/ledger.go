// Package events provides the append-only economy ledger.
// Purchases, claims, boosters and level-ups land here so support and
// balance tuning can replay what happened to any player.
package events

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// EntryType defines the category of a ledger entry.
type EntryType string

const (
	EntryPlayerCreated      EntryType = "PLAYER_CREATED"
	EntryPurchase           EntryType = "PURCHASE"
	EntryBoosterActivated   EntryType = "BOOSTER_ACTIVATED"
	EntryTaskClaimed        EntryType = "TASK_CLAIMED"
	EntryAchievementClaimed EntryType = "ACHIEVEMENT_CLAIMED"
	EntryLevelUp            EntryType = "LEVEL_UP"
	EntryVIPGranted         EntryType = "VIP_GRANTED"
	EntryCatalogUpdated     EntryType = "CATALOG_UPDATED"
)

// ActorSystem marks entries produced by admin or server action rather
// than a player.
const ActorSystem = "SYSTEM"

// PurchasePayload records one upgrade level bought.
type PurchasePayload struct {
	UpgradeID string  `json:"upgrade_id"`
	NewLevel  int     `json:"new_level"`
	CostPaid  float64 `json:"cost_paid"`
	Saved     float64 `json:"saved"`
}

// BoosterPayload records a booster activation.
type BoosterPayload struct {
	Category   string    `json:"category"`
	Multiplier float64   `json:"multiplier"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// ClaimPayload records a claimed task or achievement tier reward.
type ClaimPayload struct {
	DefinitionID string  `json:"definition_id"`
	Tier         int     `json:"tier,omitempty"`
	RewardKind   string  `json:"reward_kind"`
	Amount       float64 `json:"amount,omitempty"`
	UnlockKey    string  `json:"unlock_key,omitempty"`
}

// LevelUpPayload records a level transition.
type LevelUpPayload struct {
	FromLevel  int     `json:"from_level"`
	ToLevel    int     `json:"to_level"`
	LifetimeLP float64 `json:"lifetime_lp"`
}

// VIPPayload records a VIP grant.
type VIPPayload struct {
	Until time.Time `json:"until"`
}

// Entry represents an immutable record of an economy mutation.
type Entry struct {
	ID        string      `json:"id"`
	Timestamp time.Time   `json:"timestamp"`
	Type      EntryType   `json:"type"`
	PlayerID  string      `json:"player_id"`
	Payload   interface{} `json:"payload"`
}

// Persister defines how an entry is durably stored.
type Persister interface {
	Append(ctx context.Context, e Entry) error
}

// Ledger is the in-memory append-only log of economy entries, written
// through to durable storage when a persister is attached. The in-memory
// tail backs live replay and the WebSocket feed; storage is the durable
// record.
type Ledger struct {
	mu        sync.RWMutex
	entries   []Entry
	persister Persister
	onError   func(error)
}

// NewLedger creates a ledger with an optional persister. onError
// receives write-through failures; nil drops them silently.
func NewLedger(persister Persister, onError func(error)) *Ledger {
	return &Ledger{
		entries:   make([]Entry, 0),
		persister: persister,
		onError:   onError,
	}
}

// Record appends an entry, assigning ID and timestamp when unset.
// Entries are immutable once appended.
func (l *Ledger) Record(e Entry) Entry {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}

	l.mu.Lock()
	l.entries = append(l.entries, e)
	l.mu.Unlock()

	if l.persister != nil {
		// Write through off the hot path; the in-memory append already
		// made the entry visible to replay
		go func(e Entry) {
			if err := l.persister.Append(context.Background(), e); err != nil && l.onError != nil {
				l.onError(err)
			}
		}(e)
	}

	return e
}

// ByPlayer returns all entries recorded for one player.
func (l *Ledger) ByPlayer(playerID string) []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var result []Entry
	for _, e := range l.entries {
		if e.PlayerID == playerID {
			result = append(result, e)
		}
	}
	return result
}

// ByType returns all entries of one type.
func (l *Ledger) ByType(t EntryType) []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var result []Entry
	for _, e := range l.entries {
		if e.Type == t {
			result = append(result, e)
		}
	}
	return result
}

// Replay returns the full in-memory history in append order.
func (l *Ledger) Replay() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.entries
}

// Len returns the number of entries held in memory.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}
