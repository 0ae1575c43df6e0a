package logging

import (
	"database/sql"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists decisions to a SQLite database.
type SQLiteStore struct {
	*sqlStore
}

// NewSQLiteStore opens or creates the database at path and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	s, err := newSQLStore(db, sqliteDialect)
	if err != nil {
		return nil, err
	}
	return &SQLiteStore{s}, nil
}
