package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// InitSQLite initializes the local SQLite database and creates the
// schemas for player records and the economy ledger. WAL mode keeps
// concurrent readers off the writer's back.
func InitSQLite(dbPath string, maxOpen, maxIdle int) (*sql.DB, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	dsn := dbPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	if err := createSQLiteSchemas(db); err != nil {
		return nil, fmt.Errorf("failed to create schemas: %w", err)
	}

	return db, nil
}

func createSQLiteSchemas(db *sql.DB) error {
	// Player maps live in JSON columns so the whole record commits in a
	// single conditional UPDATE. Timestamps are unix millis UTC.
	schemas := []string{
		`CREATE TABLE IF NOT EXISTS players (
			player_id TEXT PRIMARY KEY,
			lp REAL NOT NULL DEFAULT 0,
			lifetime_lp REAL NOT NULL DEFAULT 0,
			energy REAL NOT NULL,
			level INTEGER NOT NULL DEFAULT 1,
			tap_count INTEGER NOT NULL DEFAULT 0,
			last_tick INTEGER NOT NULL,
			upgrades_json TEXT NOT NULL DEFAULT '{}',
			boosters_json TEXT NOT NULL DEFAULT '{}',
			tasks_json TEXT NOT NULL DEFAULT '{}',
			achievements_json TEXT NOT NULL DEFAULT '{}',
			unlocks_json TEXT NOT NULL DEFAULT '[]',
			vip_until INTEGER NOT NULL DEFAULT 0,
			version INTEGER NOT NULL DEFAULT 1,
			created_at INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS ledger (
			id TEXT PRIMARY KEY,
			ts INTEGER NOT NULL,
			entry_type TEXT NOT NULL,
			player_id TEXT NOT NULL,
			payload TEXT NOT NULL
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
