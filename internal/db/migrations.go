package db

import (
	"database/sql"
	"fmt"
)

// migrations creates the listing, wanted-ad, review and API key tables.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS biens (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		ref          TEXT    NOT NULL UNIQUE,
		nom          TEXT    NOT NULL,
		description  TEXT    NOT NULL DEFAULT '',
		status       TEXT    NOT NULL DEFAULT 'available',
		type_bien    TEXT    NOT NULL DEFAULT '',
		localisation TEXT    NOT NULL DEFAULT '',
		superficie   REAL    NOT NULL DEFAULT 0 CHECK (superficie >= 0),
		prix         REAL    NOT NULL DEFAULT 0 CHECK (prix >= 0),
		pieces       INTEGER NOT NULL DEFAULT 0,
		gallery      TEXT    NOT NULL DEFAULT '[]',
		created_at   DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at   DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS wanted (
		id           TEXT    PRIMARY KEY,
		image        TEXT    NOT NULL,
		localisation TEXT    NOT NULL DEFAULT '',
		type_bien    TEXT    NOT NULL DEFAULT '',
		budget       REAL,
		description  TEXT    NOT NULL DEFAULT '',
		created_at   DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS reviews (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		pseudo      TEXT    NOT NULL,
		stars       INTEGER NOT NULL CHECK (stars >= 1 AND stars <= 5),
		description TEXT    NOT NULL DEFAULT '',
		status      TEXT    NOT NULL DEFAULT 'pending',
		created_at  DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS api_keys (
		id           INTEGER  PRIMARY KEY AUTOINCREMENT,
		name         TEXT     NOT NULL,
		email        TEXT     NOT NULL DEFAULT '',
		key_prefix   TEXT     NOT NULL,
		key_hash     TEXT     NOT NULL UNIQUE,
		created_at   DATETIME DEFAULT CURRENT_TIMESTAMP,
		last_used_at DATETIME
	)`,
}

// migrate runs all migrations in order. Every statement is idempotent.
func migrate(db *sql.DB) error {
	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}
