package database

import (
	"database/sql"
	"fmt"
)

type SQLiteTx struct {
	tx *sql.Tx
}

func (tx *SQLiteTx) UpsertSymbols(uri string, symbols []SymbolRecord) error {
	// Replace whatever was indexed for this document before
	if err := tx.DeleteSymbols(uri); err != nil {
		return err
	}

	if len(symbols) == 0 {
		return nil
	}

	stmt, err := tx.tx.Prepare(`
        INSERT INTO symbols (fq_name, short_name, kind, uri, start_line, start_char, end_line, end_char)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)
    `)
	if err != nil {
		return fmt.Errorf("failed to prepare symbol insert statement: %w", err)
	}
	defer stmt.Close()

	for _, s := range symbols {
		if _, err := stmt.Exec(
			s.FqName, s.ShortName, s.Kind, uri,
			s.StartLine, s.StartChar, s.EndLine, s.EndChar,
		); err != nil {
			return fmt.Errorf("failed to insert symbol %s: %w", s.FqName, err)
		}
	}

	return nil
}

func (tx *SQLiteTx) DeleteSymbols(uri string) error {
	if _, err := tx.tx.Exec("DELETE FROM symbols WHERE uri = ?", uri); err != nil {
		return fmt.Errorf("failed to delete symbols in transaction: %w", err)
	}
	return nil
}
