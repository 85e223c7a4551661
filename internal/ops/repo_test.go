package ops

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hpungsan/promptdeck/internal/config"
	"github.com/hpungsan/promptdeck/internal/kv"
)

// testEpoch is 2023-11-14T22:13:20Z.
const testEpoch = int64(1_700_000_000_000)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *testClock) Millis() int64 {
	return c.Now().UnixMilli()
}

// sequentialIDs returns a generator yielding "<prefix>-001", "<prefix>-002", ...
// with one counter shared across prefixes.
func sequentialIDs() func(string) string {
	var (
		mu  sync.Mutex
		seq int
	)
	return func(prefix string) string {
		mu.Lock()
		defer mu.Unlock()
		seq++
		return fmt.Sprintf("%s-%03d", prefix, seq)
	}
}

type testEnv struct {
	repo    *Repo
	clock   *testClock
	baseDir string
	cfg     *config.Config
}

func testSetup(t *testing.T, opts ...Option) *testEnv {
	t.Helper()

	baseDir := t.TempDir()
	cfg := config.DefaultConfig()
	store, err := kv.Open(baseDir, cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	clock := &testClock{now: time.UnixMilli(testEpoch)}
	all := append([]Option{
		WithClock(clock.Now),
		WithIDGenerator(sequentialIDs()),
		WithFiles(baseDir, cfg),
	}, opts...)

	return &testEnv{
		repo:    NewRepo(store, nil, all...),
		clock:   clock,
		baseDir: baseDir,
		cfg:     cfg,
	}
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }
func intPtr(i int) *int       { return &i }
func i64Ptr(v int64) *int64   { return &v }

func mustState(t *testing.T, r *Repo) stateView {
	t.Helper()
	s, err := r.GetState(context.Background())
	require.NoError(t, err)
	return stateView{s}
}
