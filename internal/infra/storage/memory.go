// Package storage - memory.go
// In-memory implementations of the repositories. Used by tests and by
// the simulator, where durability does not matter.
package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/avelia-studio/lunatap-server/internal/domain/player"
)

// MemoryPlayerRepository implements PlayerRepository with a map.
// It mirrors the CAS semantics of the SQL repositories so engine
// tests exercise the same conflict paths.
type MemoryPlayerRepository struct {
	mu      sync.RWMutex
	players map[string]*player.Player
}

func NewMemoryPlayerRepository() *MemoryPlayerRepository {
	return &MemoryPlayerRepository{players: make(map[string]*player.Player)}
}

func (r *MemoryPlayerRepository) Get(ctx context.Context, id string) (*player.Player, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.players[id]
	if !ok {
		return nil, ErrNotFound
	}
	return p.Clone(), nil
}

func (r *MemoryPlayerRepository) Create(ctx context.Context, p *player.Player) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.players[p.ID] = p.Clone()
	return nil
}

func (r *MemoryPlayerRepository) Update(ctx context.Context, p *player.Player) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.players[p.ID]
	if !ok {
		return ErrNotFound
	}
	if stored.Version != p.Version {
		return ErrVersionConflict
	}

	next := p.Clone()
	next.Version++
	r.players[p.ID] = next
	p.Version++
	return nil
}

func (r *MemoryPlayerRepository) TopByLifetime(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	board := make([]LeaderboardEntry, 0, len(r.players))
	for _, p := range r.players {
		board = append(board, LeaderboardEntry{
			PlayerID:   p.ID,
			Level:      p.Level,
			LifetimeLP: p.LifetimeLP,
		})
	}
	sort.Slice(board, func(i, j int) bool {
		return board[i].LifetimeLP > board[j].LifetimeLP
	})
	if len(board) > limit {
		board = board[:limit]
	}
	return board, nil
}

// MemoryLedgerRepository implements LedgerRepository with a slice.
type MemoryLedgerRepository struct {
	mu      sync.RWMutex
	entries []LedgerEntry
}

func NewMemoryLedgerRepository() *MemoryLedgerRepository {
	return &MemoryLedgerRepository{}
}

func (r *MemoryLedgerRepository) Append(ctx context.Context, e LedgerEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = append(r.entries, e)
	return nil
}

func (r *MemoryLedgerRepository) ByPlayer(ctx context.Context, playerID string) ([]LedgerEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []LedgerEntry
	for _, e := range r.entries {
		if e.PlayerID == playerID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *MemoryLedgerRepository) ByType(ctx context.Context, entryType string) ([]LedgerEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []LedgerEntry
	for _, e := range r.entries {
		if e.EntryType == entryType {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *MemoryLedgerRepository) Recent(ctx context.Context, limit int) ([]LedgerEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]LedgerEntry, 0, limit)
	for i := len(r.entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, r.entries[i])
	}
	return out, nil
}

// Ensure the in-memory repositories satisfy the contracts
var _ PlayerRepository = (*MemoryPlayerRepository)(nil)
var _ LedgerRepository = (*MemoryLedgerRepository)(nil)
