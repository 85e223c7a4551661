// Package kv is the revisioned document store behind the prompt library.
// Writes are compare-and-swap on a per-key revision so that two processes sharing the
// same base directory cannot silently overwrite each other.
package kv

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_store.go -package=mocks github.com/hpungsan/promptdeck/internal/kv Store

import (
	"context"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/hpungsan/promptdeck/internal/config"
	"github.com/hpungsan/promptdeck/internal/db"
	"github.com/hpungsan/promptdeck/internal/errors"
)

// BadgerDir is the badger data directory inside the base directory.
const BadgerDir = "badger"

// Document is a stored body and its revision. Revision 0 means the key is absent.
type Document struct {
	Body     []byte
	Revision int64
}

// Exists reports whether the document was found.
func (d Document) Exists() bool {
	return d.Revision > 0
}

// Store is a key/value store with optimistic concurrency.
type Store interface {
	// Get returns the document under key, or a zero Document when absent.
	Get(ctx context.Context, key string) (Document, error)

	// Put writes body if the stored revision equals expectedRevision and returns the
	// new revision. A stale expectedRevision yields a CONFLICT error.
	Put(ctx context.Context, key string, body []byte, expectedRevision int64) (int64, error)

	Close() error
}

// Open creates the configured backend rooted at baseDir.
func Open(baseDir string, cfg *config.Config, logger *zap.Logger) (Store, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	switch cfg.StorageBackend {
	case "", config.BackendSQLite:
		conn, err := db.Init(baseDir)
		if err != nil {
			return nil, err
		}
		db.ConfigurePool(conn, cfg)
		logger.Debug("opened sqlite store", zap.String("path", filepath.Join(baseDir, db.FileName)))
		return NewSQLite(conn), nil

	case config.BackendBadger:
		if err := db.EnsureDirs(baseDir); err != nil {
			return nil, err
		}
		return OpenBadger(filepath.Join(baseDir, BadgerDir), logger)

	default:
		return nil, errors.NewInvalidRequest("unknown storage_backend: " + cfg.StorageBackend)
	}
}

// checkCtx maps a finished context to CANCELLED before touching storage.
func checkCtx(ctx context.Context, op string) error {
	if ctx.Err() != nil {
		return errors.NewCancelled(op)
	}
	return nil
}
