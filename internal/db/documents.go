package db

import (
	"context"
	"database/sql"
	stderrors "errors"
	"time"

	"github.com/hpungsan/promptdeck/internal/errors"
)

// GetDocument returns the body and revision stored under key.
// A missing key returns (nil, 0, nil).
func GetDocument(ctx context.Context, db *sql.DB, key string) ([]byte, int64, error) {
	var (
		body     string
		revision int64
	)
	err := db.QueryRowContext(ctx,
		`SELECT body, revision FROM documents WHERE key = ?`, key,
	).Scan(&body, &revision)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, errors.NewInternal(err)
	}
	return []byte(body), revision, nil
}

// PutDocument writes body under key if the stored revision still equals expected
// (0 meaning "no row yet") and returns the new revision.
// A revision mismatch returns a CONFLICT error and leaves the row untouched.
func PutDocument(ctx context.Context, db *sql.DB, key string, body []byte, expected int64) (int64, error) {
	now := time.Now().UnixMilli()
	next := expected + 1

	var (
		res sql.Result
		err error
	)
	if expected == 0 {
		res, err = db.ExecContext(ctx, `
			INSERT INTO documents (key, body, revision, updated_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(key) DO NOTHING
		`, key, string(body), next, now)
	} else {
		res, err = db.ExecContext(ctx, `
			UPDATE documents
			SET body = ?, revision = ?, updated_at = ?
			WHERE key = ? AND revision = ?
		`, string(body), next, now, key, expected)
	}
	if err != nil {
		return 0, errors.NewInternal(err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	if n == 0 {
		return 0, errors.NewConflict("document " + key + " changed since revision was read")
	}
	return next, nil
}
