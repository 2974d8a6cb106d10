package database

import (
	"database/sql"
	"fmt"
	"strings"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

var _ Database = (*SQLiteDB)(nil)

type SQLiteDB struct {
	db     *sql.DB
	path   string
	mu     sync.RWMutex
	closed bool
}

// NewSQLiteDB opens (or creates) the workspace database at path. ":memory:"
// opens a private in-memory database.
func NewSQLiteDB(path string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection: SQLite serializes writers anyway and an in-memory
	// database only exists on the connection that created it.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`
        PRAGMA foreign_keys = ON;
        PRAGMA journal_mode = WAL;
    `); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set PRAGMA: %w", err)
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteDB{db: db, path: path}, nil
}

func (db *SQLiteDB) Path() string {
	return db.path
}

// use runs fn unless the database has been closed.
func (db *SQLiteDB) use(fn func() error) error {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if db.closed {
		return ErrDatabaseClosed
	}
	return fn()
}

func (db *SQLiteDB) WithTx(fn func(Transaction) error) error {
	return db.use(func() error {
		return db.withTx(func(tx *sql.Tx) error {
			return fn(&SQLiteTx{tx})
		})
	})
}

func (db *SQLiteDB) withTx(fn func(*sql.Tx) error) error {
	tx, err := db.db.Begin()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTransaction, err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTransaction, err)
	}

	return nil
}

func (db *SQLiteDB) GetMetadata(key string) (string, error) {
	var value string
	err := db.use(func() error {
		return db.db.QueryRow("SELECT value FROM metadata WHERE key = ?", key).Scan(&value)
	})

	if err == sql.ErrNoRows {
		return "", fmt.Errorf("%w: metadata %q", ErrNotFound, key)
	}
	if err != nil {
		return "", fmt.Errorf("failed to query metadata: %w", err)
	}
	return value, nil
}

func (db *SQLiteDB) SetMetadata(key string, value string) error {
	return db.use(func() error {
		_, err := db.db.Exec(`
            INSERT INTO metadata (key, value) VALUES (?, ?)
            ON CONFLICT(key) DO UPDATE SET value = excluded.value
        `, key, value)
		if err != nil {
			return fmt.Errorf("failed to set metadata: %w", err)
		}
		return nil
	})
}

func (db *SQLiteDB) UpsertSymbols(uri string, symbols []SymbolRecord) error {
	return db.WithTx(func(tx Transaction) error {
		return tx.UpsertSymbols(uri, symbols)
	})
}

func (db *SQLiteDB) DeleteSymbols(uri string) error {
	return db.use(func() error {
		if _, err := db.db.Exec("DELETE FROM symbols WHERE uri = ?", uri); err != nil {
			return fmt.Errorf("failed to delete symbols: %w", err)
		}
		return nil
	})
}

func (db *SQLiteDB) SymbolsIn(uri string) ([]SymbolRecord, error) {
	var records []SymbolRecord
	err := db.use(func() error {
		rows, err := db.db.Query(`
            SELECT fq_name, short_name, kind, uri, start_line, start_char, end_line, end_char
            FROM symbols
            WHERE uri = ?
            ORDER BY id
        `, uri)
		if err != nil {
			return fmt.Errorf("failed to query symbols: %w", err)
		}
		defer rows.Close()

		records, err = scanSymbolRecords(rows)
		return err
	})
	return records, err
}

// FindSymbols returns symbols whose short name contains query, at most limit
// of them (no limit if limit <= 0).
func (db *SQLiteDB) FindSymbols(query string, limit int) ([]SymbolRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	pattern := "%" + escapeLike(query) + "%"

	var records []SymbolRecord
	err := db.use(func() error {
		rows, err := db.db.Query(`
            SELECT fq_name, short_name, kind, uri, start_line, start_char, end_line, end_char
            FROM symbols
            WHERE short_name LIKE ? ESCAPE '\'
            ORDER BY short_name, fq_name
            LIMIT ?
        `, pattern, limit)
		if err != nil {
			return fmt.Errorf("failed to query symbols: %w", err)
		}
		defer rows.Close()

		records, err = scanSymbolRecords(rows)
		return err
	})
	return records, err
}

// Clear empties the symbol index. A full clear also drops all metadata and
// leaves the database as if freshly created.
func (db *SQLiteDB) Clear(full bool) error {
	return db.use(func() error {
		err := db.withTx(func(tx *sql.Tx) error {
			if _, err := tx.Exec("DELETE FROM symbols"); err != nil {
				return err
			}
			if !full {
				return nil
			}
			if _, err := tx.Exec("DELETE FROM metadata"); err != nil {
				return err
			}
			if _, err := tx.Exec("DELETE FROM sqlite_sequence WHERE name = 'symbols'"); err != nil {
				return err
			}
			return stampVersion(tx)
		})
		if err != nil {
			return fmt.Errorf("failed to clear database: %w", err)
		}
		return nil
	})
}

func (db *SQLiteDB) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.closed {
		return nil
	}
	db.closed = true
	return db.db.Close()
}

func scanSymbolRecords(rows *sql.Rows) ([]SymbolRecord, error) {
	var records []SymbolRecord
	for rows.Next() {
		var r SymbolRecord
		if err := rows.Scan(
			&r.FqName, &r.ShortName, &r.Kind, &r.URI,
			&r.StartLine, &r.StartChar, &r.EndLine, &r.EndChar,
		); err != nil {
			return nil, fmt.Errorf("failed to scan symbol record: %w", err)
		}
		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating symbol records: %w", err)
	}

	return records, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
