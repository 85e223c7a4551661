package kv

import (
	"context"
	"database/sql"

	"github.com/hpungsan/promptdeck/internal/db"
)

// SQLiteStore keeps documents in the SQLite documents table.
type SQLiteStore struct {
	conn *sql.DB
}

// NewSQLite wraps an initialized database (see db.Init). The store owns conn.
func NewSQLite(conn *sql.DB) *SQLiteStore {
	return &SQLiteStore{conn: conn}
}

// Get implements Store.
func (s *SQLiteStore) Get(ctx context.Context, key string) (Document, error) {
	if err := checkCtx(ctx, "get"); err != nil {
		return Document{}, err
	}
	body, rev, err := db.GetDocument(ctx, s.conn, key)
	if err != nil {
		return Document{}, err
	}
	return Document{Body: body, Revision: rev}, nil
}

// Put implements Store.
func (s *SQLiteStore) Put(ctx context.Context, key string, body []byte, expectedRevision int64) (int64, error) {
	if err := checkCtx(ctx, "put"); err != nil {
		return 0, err
	}
	return db.PutDocument(ctx, s.conn, key, body, expectedRevision)
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.conn.Close()
}
