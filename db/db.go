package db

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
)

const schema = `
CREATE TABLE IF NOT EXISTS selections (
	group_name TEXT PRIMARY KEY,
	option     TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS flags (
	name       TEXT PRIMARY KEY,
	value      BOOLEAN NOT NULL DEFAULT FALSE,
	updated_at TEXT NOT NULL
);`

// Open connects to the session database and makes sure the tables exist.
// ":memory:" keeps the session for the life of the process only.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// every new connection to :memory: would get its own empty database
	if dsn == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := ApplySchema(db); err != nil {
		db.Close()
		return nil, err
	}

	log.Info().Str("dsn", dsn).Msg("Session database ready")
	return db, nil
}

func ApplySchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
