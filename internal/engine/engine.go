package engine

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/avelia-studio/lunatap-server/internal/domain/catalog"
	"github.com/avelia-studio/lunatap-server/internal/domain/player"
	"github.com/avelia-studio/lunatap-server/internal/domain/rules"
	"github.com/avelia-studio/lunatap-server/internal/events"
	"github.com/avelia-studio/lunatap-server/internal/infra/storage"
	"github.com/avelia-studio/lunatap-server/internal/platform/config"
	"github.com/avelia-studio/lunatap-server/internal/platform/logger"
	"github.com/avelia-studio/lunatap-server/internal/platform/metrics"
)

// Engine is the central orchestrator. Every numeric mutation of player
// state flows through it and is serialized per player: an in-process
// keyed mutex queues same-node operations, and a conditional write on
// Player.Version settles races across nodes.
type Engine struct {
	players storage.PlayerRepository
	ledger  *events.Ledger
	catalog *catalog.Holder
	balance config.Balance
	clock   Clock
	logger  *logger.Logger

	locks playerLocks
}

// NewEngine wires the engine to its storage, ledger and catalog.
func NewEngine(players storage.PlayerRepository, ledger *events.Ledger, holder *catalog.Holder, balance config.Balance, clock Clock, log *logger.Logger) *Engine {
	return &Engine{
		players: players,
		ledger:  ledger,
		catalog: holder,
		balance: balance,
		clock:   clock,
		logger:  log,
		locks:   playerLocks{entries: make(map[string]*sync.Mutex)},
	}
}

// Catalog returns the active catalog.
func (e *Engine) Catalog() *catalog.Catalog {
	return e.catalog.Current()
}

// UpdateCatalog swaps in a new catalog after validation. Live players
// pick up the new definitions on their next reconcile.
func (e *Engine) UpdateCatalog(c *catalog.Catalog) error {
	if err := e.catalog.Swap(c); err != nil {
		return err
	}
	e.ledger.Record(events.Entry{
		Type:     events.EntryCatalogUpdated,
		PlayerID: events.ActorSystem,
		Payload: map[string]interface{}{
			"upgrades":   len(c.Upgrades),
			"thresholds": len(c.Thresholds),
		},
	})
	e.logger.Warn("Catalog swapped: " + strconv.Itoa(len(c.Upgrades)) + " upgrades, " +
		strconv.Itoa(len(c.Thresholds)) + " thresholds")
	return nil
}

// Leaderboard returns the top players by lifetime LP.
func (e *Engine) Leaderboard(ctx context.Context, limit int) ([]storage.LeaderboardEntry, error) {
	board, err := e.players.TopByLifetime(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return board, nil
}

// playerLocks hands out one mutex per player ID so same-process
// operations queue instead of burning CAS retries.
type playerLocks struct {
	mu      sync.Mutex
	entries map[string]*sync.Mutex
}

func (l *playerLocks) acquire(id string) *sync.Mutex {
	l.mu.Lock()
	m, ok := l.entries[id]
	if !ok {
		m = &sync.Mutex{}
		l.entries[id] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m
}

// withPlayer is the single write path. It loads (or creates) the player,
// reconciles resources to now, applies fn, recomputes the level, and
// persists with a conditional write on Version. A lost race reloads and
// redoes everything against fresh state, up to the configured attempt
// budget. Gameplay rejections from fn are returned as-is, never retried.
func (e *Engine) withPlayer(ctx context.Context, playerID string, fn func(p *player.Player, c *catalog.Catalog, now time.Time) error) (*player.Player, error) {
	m := e.locks.acquire(playerID)
	defer m.Unlock()

	for attempt := 0; attempt < e.balance.MaxWriteAttempts; attempt++ {
		p, err := e.loadOrCreate(ctx, playerID)
		if err != nil {
			return nil, err
		}

		c := e.catalog.Current()
		now := e.clock.Now()
		levelBefore := p.Level

		e.reconcile(p, c, now)
		// Refresh before fn so level-gated checks see accrual from this
		// very reconcile, and again after in case fn moved lifetime LP
		p.Level = rules.LevelFor(p.LifetimeLP, c.Thresholds)

		if fn != nil {
			if err := fn(p, c, now); err != nil {
				metrics.Get().RecordRejected()
				return nil, err
			}
		}

		p.Level = rules.LevelFor(p.LifetimeLP, c.Thresholds)

		start := time.Now()
		err = e.players.Update(ctx, p)
		if err == nil {
			metrics.Get().RecordStorageWrite(time.Since(start), nil)
			if p.Level > levelBefore {
				e.recordLevelUp(p, levelBefore)
			}
			return p, nil
		}
		if errors.Is(err, storage.ErrVersionConflict) {
			metrics.Get().RecordStorageWrite(time.Since(start), nil)
			metrics.Get().RecordConflictRetry()
			continue
		}
		metrics.Get().RecordStorageWrite(time.Since(start), err)
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	metrics.Get().RecordConflictFailure()
	e.logger.Warn("Write retry budget exhausted for player " + playerID)
	return nil, ErrConflict
}

// loadOrCreate fetches a player record, registering a fresh one on
// first contact. Players are never deleted by the engine.
func (e *Engine) loadOrCreate(ctx context.Context, playerID string) (*player.Player, error) {
	p, err := e.players.Get(ctx, playerID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	p = player.New(playerID, e.balance.BaseMaxEnergy, e.clock.Now())
	if err := e.players.Create(ctx, p); err != nil {
		// Another node may have created the row first; their record wins
		if existing, getErr := e.players.Get(ctx, playerID); getErr == nil {
			return existing, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	e.ledger.Record(events.Entry{
		Type:     events.EntryPlayerCreated,
		PlayerID: p.ID,
		Payload: map[string]interface{}{
			"starting_energy": p.Energy,
		},
	})
	e.logger.Event("PLAYER_CREATED", p.ID, "registered with default state")
	return p, nil
}

// recordLevelUp emits the audit trail for a level transition. Called
// only after the state change is committed.
func (e *Engine) recordLevelUp(p *player.Player, fromLevel int) {
	e.ledger.Record(events.Entry{
		Type:     events.EntryLevelUp,
		PlayerID: p.ID,
		Payload: events.LevelUpPayload{
			FromLevel:  fromLevel,
			ToLevel:    p.Level,
			LifetimeLP: p.LifetimeLP,
		},
	})
	e.logger.Event("LEVEL_UP", p.ID, "reached level "+strconv.Itoa(p.Level))
}
