package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/avelia-studio/lunatap-server/internal/domain/player"
)

const playerColumns = `player_id, lp, lifetime_lp, energy, level, tap_count, last_tick,
	upgrades_json, boosters_json, tasks_json, achievements_json, unlocks_json,
	vip_until, version, created_at`

// SQLitePlayerRepository implements PlayerRepository for SQLite.
type SQLitePlayerRepository struct {
	db *sql.DB
}

func NewSQLitePlayerRepository(db *sql.DB) *SQLitePlayerRepository {
	return &SQLitePlayerRepository{db: db}
}

func (r *SQLitePlayerRepository) Get(ctx context.Context, id string) (*player.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE player_id = ?`
	row := r.db.QueryRowContext(ctx, query, id)
	return scanPlayer(row)
}

func (r *SQLitePlayerRepository) Create(ctx context.Context, p *player.Player) error {
	m, err := encodePlayerMaps(p)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO players (` + playerColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.ExecContext(ctx, query,
		p.ID, p.LP, p.LifetimeLP, p.Energy, p.Level, p.TapCount, toMillis(p.LastTick),
		m.upgrades, m.boosters, m.tasks, m.achievements, m.unlocks,
		toMillis(p.VIPUntil), p.Version, toMillis(p.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert player: %w", err)
	}
	return nil
}

func (r *SQLitePlayerRepository) Update(ctx context.Context, p *player.Player) error {
	m, err := encodePlayerMaps(p)
	if err != nil {
		return err
	}

	// Conditional write: only the version the record was loaded with may
	// commit. A lost race affects zero rows.
	query := `
		UPDATE players SET
			lp = ?, lifetime_lp = ?, energy = ?, level = ?, tap_count = ?, last_tick = ?,
			upgrades_json = ?, boosters_json = ?, tasks_json = ?, achievements_json = ?, unlocks_json = ?,
			vip_until = ?, version = version + 1
		WHERE player_id = ? AND version = ?
	`
	res, err := r.db.ExecContext(ctx, query,
		p.LP, p.LifetimeLP, p.Energy, p.Level, p.TapCount, toMillis(p.LastTick),
		m.upgrades, m.boosters, m.tasks, m.achievements, m.unlocks,
		toMillis(p.VIPUntil),
		p.ID, p.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update player: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if affected == 0 {
		return ErrVersionConflict
	}

	p.Version++
	return nil
}

func (r *SQLitePlayerRepository) TopByLifetime(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	query := `SELECT player_id, level, lifetime_lp FROM players ORDER BY lifetime_lp DESC LIMIT ?`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	var board []LeaderboardEntry
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.PlayerID, &e.Level, &e.LifetimeLP); err != nil {
			return nil, err
		}
		board = append(board, e)
	}
	return board, rows.Err()
}

// scanPlayer reads one player row from a QueryRow result.
func scanPlayer(row *sql.Row) (*player.Player, error) {
	var p player.Player
	var m playerMaps
	var lastTick, vipUntil, createdAt int64

	err := row.Scan(
		&p.ID, &p.LP, &p.LifetimeLP, &p.Energy, &p.Level, &p.TapCount, &lastTick,
		&m.upgrades, &m.boosters, &m.tasks, &m.achievements, &m.unlocks,
		&vipUntil, &p.Version, &createdAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan player: %w", err)
	}

	p.LastTick = fromMillis(lastTick)
	p.VIPUntil = fromMillis(vipUntil)
	p.CreatedAt = fromMillis(createdAt)

	if err := decodePlayerMaps(&p, m); err != nil {
		return nil, err
	}
	return &p, nil
}

// ---------------------------------------------------------
// SQLiteLedgerRepository
// ---------------------------------------------------------

type SQLiteLedgerRepository struct {
	db *sql.DB
}

func NewSQLiteLedgerRepository(db *sql.DB) *SQLiteLedgerRepository {
	return &SQLiteLedgerRepository{db: db}
}

func (r *SQLiteLedgerRepository) Append(ctx context.Context, e LedgerEntry) error {
	payloadBytes, err := json.Marshal(e.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	query := `INSERT INTO ledger (id, ts, entry_type, player_id, payload) VALUES (?, ?, ?, ?, ?)`
	_, err = r.db.ExecContext(ctx, query,
		e.ID, toMillis(e.Timestamp), e.EntryType, e.PlayerID, string(payloadBytes),
	)
	if err != nil {
		return fmt.Errorf("failed to append ledger entry: %w", err)
	}
	return nil
}

func (r *SQLiteLedgerRepository) getMany(ctx context.Context, query string, args ...interface{}) ([]LedgerEntry, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []LedgerEntry
	for rows.Next() {
		var e LedgerEntry
		var ts int64
		var payloadStr string
		if err := rows.Scan(&e.ID, &ts, &e.EntryType, &e.PlayerID, &payloadStr); err != nil {
			return nil, err
		}
		e.Timestamp = fromMillis(ts)
		if err := json.Unmarshal([]byte(payloadStr), &e.Payload); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *SQLiteLedgerRepository) ByPlayer(ctx context.Context, playerID string) ([]LedgerEntry, error) {
	query := `SELECT id, ts, entry_type, player_id, payload FROM ledger WHERE player_id = ? ORDER BY ts ASC`
	return r.getMany(ctx, query, playerID)
}

func (r *SQLiteLedgerRepository) ByType(ctx context.Context, entryType string) ([]LedgerEntry, error) {
	query := `SELECT id, ts, entry_type, player_id, payload FROM ledger WHERE entry_type = ? ORDER BY ts ASC`
	return r.getMany(ctx, query, entryType)
}

func (r *SQLiteLedgerRepository) Recent(ctx context.Context, limit int) ([]LedgerEntry, error) {
	query := `SELECT id, ts, entry_type, player_id, payload FROM ledger ORDER BY ts DESC LIMIT ?`
	return r.getMany(ctx, query, limit)
}

// Ensure the SQLite repositories satisfy the contracts
var _ PlayerRepository = (*SQLitePlayerRepository)(nil)
var _ LedgerRepository = (*SQLiteLedgerRepository)(nil)
