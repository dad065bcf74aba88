// Package storage provides the persistence layer for the game server.
// This package implements the repository pattern to keep the domain pure.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/avelia-studio/lunatap-server/internal/domain/player"
)

// ErrNotFound reports a missing player record.
var ErrNotFound = errors.New("player not found")

// ErrVersionConflict reports a conditional write that lost to a
// concurrent writer. Callers reload and retry.
var ErrVersionConflict = errors.New("player version conflict")

// PlayerRepository defines the persistence contract for player records.
// Update is a compare-and-swap on Player.Version: the write succeeds only
// against the version the record was loaded with, and bumps it by one.
type PlayerRepository interface {
	// Get retrieves a player by ID. Returns ErrNotFound when absent.
	Get(ctx context.Context, id string) (*player.Player, error)

	// Create inserts a fresh player record.
	Create(ctx context.Context, p *player.Player) error

	// Update conditionally writes the record. On success the stored and
	// in-memory Version advance by one; on a lost race it returns
	// ErrVersionConflict and writes nothing.
	Update(ctx context.Context, p *player.Player) error

	// TopByLifetime returns the leaderboard ordered by lifetime LP.
	TopByLifetime(ctx context.Context, limit int) ([]LeaderboardEntry, error)
}

// LeaderboardEntry is one row of the lifetime LP ranking.
type LeaderboardEntry struct {
	PlayerID   string  `json:"player_id"`
	Level      int     `json:"level"`
	LifetimeLP float64 `json:"lifetime_lp"`
}

// LedgerEntry mirrors the domain ledger entry for persistence.
// The domain package should NOT import this; main adapts between them.
type LedgerEntry struct {
	ID        string                 `json:"id" db:"id"`
	Timestamp time.Time              `json:"timestamp" db:"ts"`
	EntryType string                 `json:"entry_type" db:"entry_type"`
	PlayerID  string                 `json:"player_id" db:"player_id"`
	Payload   map[string]interface{} `json:"payload" db:"payload"`
}

// LedgerRepository defines the interface for durable ledger storage.
type LedgerRepository interface {
	// Append adds a new entry to the immutable ledger.
	Append(ctx context.Context, e LedgerEntry) error

	// ByPlayer retrieves all entries for a player in chronological order.
	ByPlayer(ctx context.Context, playerID string) ([]LedgerEntry, error)

	// ByType retrieves all entries of one type in chronological order.
	ByType(ctx context.Context, entryType string) ([]LedgerEntry, error)

	// Recent retrieves the newest entries, newest first.
	Recent(ctx context.Context, limit int) ([]LedgerEntry, error)
}
