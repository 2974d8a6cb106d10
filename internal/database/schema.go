package database

import (
	"database/sql"
	"fmt"
	"strconv"
)

const (
	schemaVersion = 1

	// metadataSchemaVersion mirrors PRAGMA user_version in a row that a
	// full clear removes and re-creates.
	metadataSchemaVersion = "schema_version"
)

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func initSchema(db *sql.DB) error {
	// Check schema version
	var version int
	err := db.QueryRow("PRAGMA user_version").Scan(&version)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	if version == schemaVersion {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// A schema from another version is not migrated; the index is rebuilt.
	if version != 0 {
		if err := dropTables(tx); err != nil {
			return fmt.Errorf("failed to drop outdated tables: %w", err)
		}
	}

	if err := createTables(tx); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}

	if err := stampVersion(tx); err != nil {
		return err
	}

	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return fmt.Errorf("failed to update schema version: %w", err)
	}

	return tx.Commit()
}

func createTables(tx execer) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS metadata (
            key TEXT PRIMARY KEY,
            value TEXT NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS symbols (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            fq_name TEXT NOT NULL,
            short_name TEXT NOT NULL,
            kind TEXT NOT NULL,
            uri TEXT NOT NULL,
            start_line INTEGER NOT NULL,
            start_char INTEGER NOT NULL,
            end_line INTEGER NOT NULL,
            end_char INTEGER NOT NULL
        )`,
		`CREATE INDEX IF NOT EXISTS idx_symbols_short_name
            ON symbols(short_name)`,
		`CREATE INDEX IF NOT EXISTS idx_symbols_uri
            ON symbols(uri)`,
	}

	for _, query := range queries {
		if _, err := tx.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query %q: %w", query, err)
		}
	}

	return nil
}

func dropTables(tx execer) error {
	for _, table := range []string{"symbols", "metadata"} {
		if _, err := tx.Exec("DROP TABLE IF EXISTS " + table); err != nil {
			return fmt.Errorf("failed to drop table %s: %w", table, err)
		}
	}
	return nil
}

func stampVersion(tx execer) error {
	_, err := tx.Exec(`
        INSERT INTO metadata (key, value) VALUES (?, ?)
        ON CONFLICT(key) DO UPDATE SET value = excluded.value
    `, metadataSchemaVersion, strconv.Itoa(schemaVersion))
	if err != nil {
		return fmt.Errorf("failed to stamp schema version: %w", err)
	}
	return nil
}
