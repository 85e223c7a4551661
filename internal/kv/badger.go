package kv

import (
	"context"
	"encoding/binary"
	stderrors "errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"

	"github.com/hpungsan/promptdeck/internal/errors"
)

// revisionSize is the length of the big-endian revision prefix on every value.
const revisionSize = 8

// BadgerStore keeps documents in an embedded badger database.
type BadgerStore struct {
	db     *badger.DB
	logger *zap.Logger
}

// OpenBadger opens (or creates) a badger database in dir.
func OpenBadger(dir string, logger *zap.Logger) (*BadgerStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := badger.DefaultOptions(dir)
	opts.Logger = nil            // badger's own logger writes to stdout
	opts.SyncWrites = true       // a crash must not lose the library
	opts.CompactL0OnClose = true // faster next start

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	logger.Debug("opened badger store", zap.String("path", dir))
	return &BadgerStore{db: db, logger: logger}, nil
}

// Get implements Store.
func (s *BadgerStore) Get(ctx context.Context, key string) (Document, error) {
	if err := checkCtx(ctx, "get"); err != nil {
		return Document{}, err
	}

	var doc Document
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		doc, err = readDocument(txn, key)
		return err
	})
	if err != nil {
		return Document{}, errors.NewInternal(err)
	}
	return doc, nil
}

// Put implements Store.
func (s *BadgerStore) Put(ctx context.Context, key string, body []byte, expectedRevision int64) (int64, error) {
	if err := checkCtx(ctx, "put"); err != nil {
		return 0, err
	}

	next := expectedRevision + 1
	var stale bool
	err := s.db.Update(func(txn *badger.Txn) error {
		current, err := readDocument(txn, key)
		if err != nil {
			return err
		}
		if current.Revision != expectedRevision {
			stale = true
			return nil
		}
		return txn.Set([]byte(key), encodeValue(next, body))
	})
	switch {
	case stale:
		return 0, errors.NewConflict("document " + key + " changed since revision was read")
	case stderrors.Is(err, badger.ErrConflict):
		// Another transaction committed the same key first
		return 0, errors.NewConflict("document " + key + " changed since revision was read")
	case err != nil:
		return 0, errors.NewInternal(err)
	}
	return next, nil
}

// Close closes the badger database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

func readDocument(txn *badger.Txn, key string) (Document, error) {
	item, err := txn.Get([]byte(key))
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return Document{}, nil
	}
	if err != nil {
		return Document{}, err
	}
	val, err := item.ValueCopy(nil)
	if err != nil {
		return Document{}, err
	}
	return decodeValue(val)
}

func encodeValue(revision int64, body []byte) []byte {
	buf := make([]byte, revisionSize+len(body))
	binary.BigEndian.PutUint64(buf, uint64(revision))
	copy(buf[revisionSize:], body)
	return buf
}

func decodeValue(val []byte) (Document, error) {
	if len(val) < revisionSize {
		return Document{}, fmt.Errorf("corrupt value: %d bytes", len(val))
	}
	return Document{
		Revision: int64(binary.BigEndian.Uint64(val[:revisionSize])),
		Body:     val[revisionSize:],
	}, nil
}
