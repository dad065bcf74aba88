// Package storage - postgres_repo.go
// PostgreSQL implementations of the player and ledger repositories,
// selected by config for multi-node deployments.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/avelia-studio/lunatap-server/internal/domain/player"
)

// InitPostgres opens a PostgreSQL connection pool and ensures schemas.
func InitPostgres(dsn string, maxOpen, maxIdle int) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	if err := createPostgresSchemas(db); err != nil {
		return nil, fmt.Errorf("failed to create schemas: %w", err)
	}

	return db, nil
}

func createPostgresSchemas(db *sql.DB) error {
	schemas := []string{
		`CREATE TABLE IF NOT EXISTS players (
			player_id TEXT PRIMARY KEY,
			lp DOUBLE PRECISION NOT NULL DEFAULT 0,
			lifetime_lp DOUBLE PRECISION NOT NULL DEFAULT 0,
			energy DOUBLE PRECISION NOT NULL,
			level INTEGER NOT NULL DEFAULT 1,
			tap_count BIGINT NOT NULL DEFAULT 0,
			last_tick BIGINT NOT NULL,
			upgrades_json JSONB NOT NULL DEFAULT '{}',
			boosters_json JSONB NOT NULL DEFAULT '{}',
			tasks_json JSONB NOT NULL DEFAULT '{}',
			achievements_json JSONB NOT NULL DEFAULT '{}',
			unlocks_json JSONB NOT NULL DEFAULT '[]',
			vip_until BIGINT NOT NULL DEFAULT 0,
			version BIGINT NOT NULL DEFAULT 1,
			created_at BIGINT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS ledger (
			id TEXT PRIMARY KEY,
			ts BIGINT NOT NULL,
			entry_type TEXT NOT NULL,
			player_id TEXT NOT NULL,
			payload JSONB NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_ledger_player ON ledger(player_id);`,
		`CREATE INDEX IF NOT EXISTS idx_ledger_type ON ledger(entry_type);`,
		`CREATE INDEX IF NOT EXISTS idx_players_lifetime ON players(lifetime_lp DESC);`,
	}

	for _, query := range schemas {
		if _, err := db.Exec(query); err != nil {
			return err
		}
	}
	return nil
}

// PostgresPlayerRepository implements PlayerRepository using PostgreSQL.
type PostgresPlayerRepository struct {
	db *sql.DB
}

func NewPostgresPlayerRepository(db *sql.DB) *PostgresPlayerRepository {
	return &PostgresPlayerRepository{db: db}
}

func (r *PostgresPlayerRepository) Get(ctx context.Context, id string) (*player.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE player_id = $1`
	row := r.db.QueryRowContext(ctx, query, id)

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

func (r *PostgresPlayerRepository) Create(ctx context.Context, p *player.Player) error {
	m, err := encodePlayerMaps(p)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO players (` + playerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
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

func (r *PostgresPlayerRepository) Update(ctx context.Context, p *player.Player) error {
	m, err := encodePlayerMaps(p)
	if err != nil {
		return err
	}

	query := `
		UPDATE players SET
			lp = $1, lifetime_lp = $2, energy = $3, level = $4, tap_count = $5, last_tick = $6,
			upgrades_json = $7, boosters_json = $8, tasks_json = $9, achievements_json = $10, unlocks_json = $11,
			vip_until = $12, version = version + 1
		WHERE player_id = $13 AND version = $14
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

func (r *PostgresPlayerRepository) TopByLifetime(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	query := `SELECT player_id, level, lifetime_lp FROM players ORDER BY lifetime_lp DESC LIMIT $1`
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

// PostgresLedgerRepository implements LedgerRepository using PostgreSQL.
type PostgresLedgerRepository struct {
	db *sql.DB
}

func NewPostgresLedgerRepository(db *sql.DB) *PostgresLedgerRepository {
	return &PostgresLedgerRepository{db: db}
}

func (r *PostgresLedgerRepository) Append(ctx context.Context, e LedgerEntry) error {
	payloadJSON, err := json.Marshal(e.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	query := `INSERT INTO ledger (id, ts, entry_type, player_id, payload) VALUES ($1, $2, $3, $4, $5)`
	_, err = r.db.ExecContext(ctx, query,
		e.ID, toMillis(e.Timestamp), e.EntryType, e.PlayerID, payloadJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to append ledger entry: %w", err)
	}
	return nil
}

func (r *PostgresLedgerRepository) queryEntries(ctx context.Context, query string, args ...interface{}) ([]LedgerEntry, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger: %w", err)
	}
	defer rows.Close()

	var entries []LedgerEntry
	for rows.Next() {
		var e LedgerEntry
		var ts int64
		var payloadJSON []byte
		if err := rows.Scan(&e.ID, &ts, &e.EntryType, &e.PlayerID, &payloadJSON); err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		e.Timestamp = fromMillis(ts)
		if err := json.Unmarshal(payloadJSON, &e.Payload); err != nil {
			return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *PostgresLedgerRepository) ByPlayer(ctx context.Context, playerID string) ([]LedgerEntry, error) {
	query := `SELECT id, ts, entry_type, player_id, payload FROM ledger WHERE player_id = $1 ORDER BY ts ASC`
	return r.queryEntries(ctx, query, playerID)
}

func (r *PostgresLedgerRepository) ByType(ctx context.Context, entryType string) ([]LedgerEntry, error) {
	query := `SELECT id, ts, entry_type, player_id, payload FROM ledger WHERE entry_type = $1 ORDER BY ts ASC`
	return r.queryEntries(ctx, query, entryType)
}

func (r *PostgresLedgerRepository) Recent(ctx context.Context, limit int) ([]LedgerEntry, error) {
	query := `SELECT id, ts, entry_type, player_id, payload FROM ledger ORDER BY ts DESC LIMIT $1`
	return r.queryEntries(ctx, query, limit)
}

// Ensure the Postgres repositories satisfy the contracts
var _ PlayerRepository = (*PostgresPlayerRepository)(nil)
var _ LedgerRepository = (*PostgresLedgerRepository)(nil)
