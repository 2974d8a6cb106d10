package database

import "errors"

// Sentinels for callers of the workspace database; match them with errors.Is.
var (
	// ErrNotFound means a metadata key has never been set, or was removed by
	// a full Clear.
	ErrNotFound = errors.New("workspace database: no such entry")

	ErrInvalidTransaction = errors.New("workspace database: transaction failed")

	// ErrDatabaseClosed is returned by every operation after Close.
	ErrDatabaseClosed = errors.New("workspace database: closed")
)
