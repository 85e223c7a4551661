// Package ops implements the prompt library repository: every operation reads the whole
// library document, changes an in-memory copy, and writes it back with a revision check.
package ops

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/hpungsan/promptdeck/internal/config"
	"github.com/hpungsan/promptdeck/internal/errors"
	"github.com/hpungsan/promptdeck/internal/kv"
	"github.com/hpungsan/promptdeck/internal/library"
)

// Id prefixes.
const (
	FolderIDPrefix = "fld"
	PromptIDPrefix = "pmt"
)

// DefaultMaxAttempts bounds the read-mutate-write cycle when another process keeps
// winning the revision race.
const DefaultMaxAttempts = 3

// Repo is the prompt library repository.
type Repo struct {
	store  kv.Store
	logger *zap.Logger

	now         func() time.Time
	newID       func(prefix string) string
	maxAttempts int

	baseDir string
	cfg     *config.Config

	// Serializes writers within this process. Other processes are caught by the
	// revision check in the store.
	mu sync.Mutex
}

// Option configures a Repo.
type Option func(*Repo)

// WithClock replaces time.Now. Tests use it to pin timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Repo) { r.now = now }
}

// WithIDGenerator replaces the ULID-based id generator.
func WithIDGenerator(gen func(prefix string) string) Option {
	return func(r *Repo) { r.newID = gen }
}

// WithMaxAttempts sets how many times a conflicting write is retried in total.
func WithMaxAttempts(n int) Option {
	return func(r *Repo) {
		if n > 0 {
			r.maxAttempts = n
		}
	}
}

// WithFiles sets the base directory and config used by ExportToFile/ImportFromFile.
func WithFiles(baseDir string, cfg *config.Config) Option {
	return func(r *Repo) {
		r.baseDir = baseDir
		r.cfg = cfg
	}
}

// NewRepo creates a repository over store. A nil logger disables logging.
func NewRepo(store kv.Store, logger *zap.Logger, opts ...Option) *Repo {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Repo{
		store:       store,
		logger:      logger,
		now:         time.Now,
		newID:       generateID,
		maxAttempts: DefaultMaxAttempts,
		cfg:         config.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// generateID returns "<prefix>-<ULID>".
func generateID(prefix string) string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	return prefix + "-" + ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

func (r *Repo) nowMillis() int64 {
	return r.now().UnixMilli()
}

// load reads and normalizes the library document. A missing document yields the
// empty default state with revision 0.
func (r *Repo) load(ctx context.Context) (library.State, int64, error) {
	doc, err := r.store.Get(ctx, library.StorageKey)
	if err != nil {
		return library.State{}, 0, err
	}
	if !doc.Exists() || len(doc.Body) == 0 {
		return library.EmptyState(), doc.Revision, nil
	}

	var stored *library.State
	if err := json.Unmarshal(doc.Body, &stored); err != nil {
		return library.State{}, 0, errors.NewInternal(fmt.Errorf("decode %s: %w", library.StorageKey, err))
	}
	return library.NormalizeState(stored), doc.Revision, nil
}

// mutate applies fn to a fresh copy of the document and writes the result back,
// conditioned on the revision that was read. On a revision conflict the whole cycle is
// re-run, up to maxAttempts in total. fn may run more than once and must only touch
// the state it is given.
func (r *Repo) mutate(ctx context.Context, op string, fn func(s *library.State) error) (library.State, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for attempt := 1; ; attempt++ {
		if ctx.Err() != nil {
			return library.State{}, errors.NewCancelled(op)
		}

		current, rev, err := r.load(ctx)
		if err != nil {
			return library.State{}, err
		}

		next := current.Clone()
		if err := fn(&next); err != nil {
			return library.State{}, err
		}

		body, err := json.Marshal(next)
		if err != nil {
			return library.State{}, errors.NewInternal(err)
		}

		newRev, err := r.store.Put(ctx, library.StorageKey, body, rev)
		if err == nil {
			r.logger.Debug("library updated",
				zap.String("op", op),
				zap.Int64("revision", newRev),
				zap.Int("attempt", attempt))
			return next, nil
		}
		if !errors.Is(err, errors.ErrConflict) {
			return library.State{}, err
		}
		if attempt >= r.maxAttempts {
			r.logger.Warn("giving up after revision conflicts",
				zap.String("op", op),
				zap.Int("attempts", attempt))
			return library.State{}, errors.NewConflict(
				fmt.Sprintf("%s: library changed concurrently %d times; try again", op, attempt))
		}
		r.logger.Warn("revision conflict, retrying",
			zap.String("op", op),
			zap.Int64("revision", rev),
			zap.Int("attempt", attempt))
	}
}
