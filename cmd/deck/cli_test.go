package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/promptdeck/internal/config"
	"github.com/hpungsan/promptdeck/internal/db"
	"github.com/hpungsan/promptdeck/internal/kv"
	"github.com/hpungsan/promptdeck/internal/library"
	"github.com/hpungsan/promptdeck/internal/ops"
)

type cliEnv struct {
	repo    *ops.Repo
	cfg     *config.Config
	baseDir string
}

func setupCLI(t *testing.T) *cliEnv {
	t.Helper()
	baseDir := t.TempDir()
	cfg := config.DefaultConfig()
	store, err := kv.Open(baseDir, cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return &cliEnv{
		repo:    ops.NewRepo(store, nil, ops.WithFiles(baseDir, cfg)),
		cfg:     cfg,
		baseDir: baseDir,
	}
}

// run executes the CLI with args and returns stdout and the returned error.
func (e *cliEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newCLIApp(e.repo, e.cfg, nil)
	app.Writer = &out
	app.ErrWriter = &out
	err := app.Run(append([]string{"deck"}, args...))
	return out.String(), err
}

func (e *cliEnv) runJSON(t *testing.T, dst any, args ...string) {
	t.Helper()
	out, err := e.run(t, args...)
	require.NoError(t, err, "deck %s", strings.Join(args, " "))
	require.NoError(t, json.Unmarshal([]byte(out), dst), "output: %s", out)
}

// TestParseTags tests the parseTags helper function.
func TestParseTags(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{"empty string", "", nil},
		{"single tag", "foo", []string{"foo"}},
		{"multiple tags", "foo,bar,baz", []string{"foo", "bar", "baz"}},
		{"tags with spaces", " foo , bar , baz ", []string{"foo", "bar", "baz"}},
		{"empty tags filtered", "foo,,bar,", []string{"foo", "bar"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseTags(tt.input))
		})
	}
}

func TestIsCLIMode(t *testing.T) {
	tests := []struct {
		args []string
		want bool
	}{
		{[]string{"deck"}, false},
		{[]string{"deck", "prompt"}, true},
		{[]string{"deck", "serve"}, true},
		{[]string{"deck", "--version"}, true},
		{[]string{"deck", "whatever"}, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, isCLIMode(tt.args), "args %v", tt.args)
	}
}

func TestCLIPromptUpsertAndList(t *testing.T) {
	env := setupCLI(t)

	var created library.Prompt
	env.runJSON(t, &created, "prompt", "upsert",
		"--title", "Standup", "--content", "Summarize yesterday", "--tags", "work, daily", "--favorite")

	assert.True(t, strings.HasPrefix(created.ID, ops.PromptIDPrefix+"-"))
	assert.Equal(t, []string{"work", "daily"}, created.Tags)
	assert.True(t, created.Favorite)

	var updated library.Prompt
	env.runJSON(t, &updated, "prompt", "upsert", "--id", created.ID, "--title", "Standup v2", "--content", "x")
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	assert.True(t, updated.Favorite, "omitted --favorite keeps the stored flag")
	assert.Equal(t, []string{"work", "daily"}, updated.Tags, "omitted --tags keeps stored tags")

	var prompts []library.Prompt
	env.runJSON(t, &prompts, "prompt", "list")
	require.Len(t, prompts, 1)
	assert.Equal(t, "Standup v2", prompts[0].Title)
}

func TestCLIPromptUpsert_UpdateStartsFromStored(t *testing.T) {
	env := setupCLI(t)
	ctx := context.Background()
	folder, err := env.repo.UpsertFolder(ctx, ops.FolderInput{Name: "Work"})
	require.NoError(t, err)
	p, err := env.repo.UpsertPrompt(ctx, ops.PromptInput{FolderID: &folder.ID, Title: "Used", Content: "body"})
	require.NoError(t, err)
	require.NoError(t, env.repo.TouchUseStats(ctx, p.ID))

	var updated library.Prompt
	env.runJSON(t, &updated, "prompt", "upsert", "--id", p.ID, "--content", "new body")

	assert.Equal(t, "Used", updated.Title)
	assert.Equal(t, "new body", updated.Content)
	assert.Equal(t, 1, updated.UseCount)
	assert.NotNil(t, updated.LastUsedAt)
	require.NotNil(t, updated.FolderID)
	assert.Equal(t, folder.ID, *updated.FolderID)

	var moved library.Prompt
	env.runJSON(t, &moved, "prompt", "upsert", "--id", p.ID, "--folder", "")
	assert.Nil(t, moved.FolderID)
	assert.Equal(t, "new body", moved.Content)
}

func TestCLIPromptUpsert_MissingTitle(t *testing.T) {
	env := setupCLI(t)

	_, err := env.run(t, "prompt", "upsert", "--content", "body only")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "[INVALID_REQUEST]")
}

func TestCLIPromptMutations(t *testing.T) {
	env := setupCLI(t)
	p, err := env.repo.UpsertPrompt(context.Background(), ops.PromptInput{Title: "Used"})
	require.NoError(t, err)

	_, err = env.run(t, "prompt", "touch", p.ID)
	require.NoError(t, err)
	_, err = env.run(t, "prompt", "favorite", p.ID)
	require.NoError(t, err)

	var out ops.SearchOutput
	env.runJSON(t, &out, "search", "--filter", "recent")
	require.Equal(t, 1, out.Total)
	assert.Equal(t, 1, out.Items[0].UseCount)
	assert.True(t, out.Items[0].Favorite)

	_, err = env.run(t, "prompt", "delete", p.ID)
	require.NoError(t, err)
	env.runJSON(t, &out, "search")
	assert.Equal(t, 0, out.Total)
}

func TestCLIPromptByID_RequiresID(t *testing.T) {
	env := setupCLI(t)

	_, err := env.run(t, "prompt", "delete")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "prompt id is required")
}

func TestCLISearch(t *testing.T) {
	env := setupCLI(t)
	ctx := context.Background()
	for _, title := range []string{"Bravo review", "alpha review", "Other"} {
		_, err := env.repo.UpsertPrompt(ctx, ops.PromptInput{Title: title})
		require.NoError(t, err)
	}

	var out ops.SearchOutput
	env.runJSON(t, &out, "search", "--sort", "title", "review")
	require.Equal(t, 2, out.Total)
	assert.Equal(t, "alpha review", out.Items[0].Title)

	_, err := env.run(t, "search", "--sort", "random")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "[INVALID_REQUEST]")
}

func TestCLIFolders(t *testing.T) {
	env := setupCLI(t)

	var parent library.Folder
	env.runJSON(t, &parent, "folder", "upsert", "--name", "Work")
	var child library.Folder
	env.runJSON(t, &child, "folder", "upsert", "--name", "Reviews", "--parent", parent.ID)

	var path map[string]string
	env.runJSON(t, &path, "folder", "path", child.ID)
	assert.Equal(t, "Work / Reviews", path["path"])

	var rows []map[string]any
	env.runJSON(t, &rows, "folder", "list")
	assert.Len(t, rows, 2)

	_, err := env.run(t, "folder", "delete", parent.ID)
	require.NoError(t, err)
	env.runJSON(t, &path, "folder", "path", child.ID)
	assert.Equal(t, "Reviews", path["path"], "orphaned child renders from itself")
}

func TestCLISettings(t *testing.T) {
	env := setupCLI(t)

	var s library.Settings
	env.runJSON(t, &s, "settings", "set", "--tone", "Playful", "--ui-language", "en")
	assert.Equal(t, "Playful", s.Tone)
	assert.Equal(t, "en", s.UILanguage)
	assert.Equal(t, library.DefaultSettings().PreferredLanguage, s.PreferredLanguage)

	_, err := env.run(t, "settings", "set", "--ui-language", "fr")
	require.Error(t, err)
}

func TestCLISettings_ClearGoal(t *testing.T) {
	env := setupCLI(t)

	var s library.Settings
	env.runJSON(t, &s, "settings", "set", "--goal", "ship it")
	assert.Equal(t, "ship it", s.DefaultGoal)

	var cleared library.Settings
	env.runJSON(t, &cleared, "settings", "set", "--goal", "")
	assert.Equal(t, "", cleared.DefaultGoal)
	assert.Equal(t, library.DefaultSettings().Tone, cleared.Tone)
}

func TestCLIExportImport(t *testing.T) {
	env := setupCLI(t)
	_, err := env.repo.UpsertPrompt(context.Background(), ops.PromptInput{Title: "Keep me"})
	require.NoError(t, err)

	var exported ops.ExportFileOutput
	env.runJSON(t, &exported, "export")
	assert.Equal(t, filepath.Join(env.baseDir, db.ExportsDir), filepath.Dir(exported.Path))
	assert.Equal(t, 1, exported.Prompts)

	// Copy into the second library's exports dir so path checks pass
	data, err := os.ReadFile(exported.Path)
	require.NoError(t, err)
	other := setupCLI(t)
	target := filepath.Join(other.baseDir, db.ExportsDir, "incoming.json")
	require.NoError(t, os.WriteFile(target, data, 0600))

	var imported ops.ImportFileOutput
	other.runJSON(t, &imported, "import", "--strategy", "overwrite", target)
	assert.Equal(t, library.ImportOverwrite, imported.Strategy)
	assert.Equal(t, 1, imported.TotalPrompts)

	_, err = other.run(t, "import", "--strategy", "replace", target)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "[INVALID_REQUEST]")

	_, err = other.run(t, "import", filepath.Join(other.baseDir, db.ExportsDir, "missing.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "[FILE_NOT_FOUND]")
}

func TestCLIExportStdout(t *testing.T) {
	env := setupCLI(t)

	var bundle library.ExportBundle
	env.runJSON(t, &bundle, "export", "--stdout")

	assert.Equal(t, library.SchemaVersion, bundle.SchemaVersion)
	assert.NotEmpty(t, bundle.ExportedAt)
}

func TestCLIProfileAndOptimize(t *testing.T) {
	env := setupCLI(t)
	_, err := env.repo.UpsertPrompt(context.Background(), ops.PromptInput{Title: "t", Tags: []string{"sql"}})
	require.NoError(t, err)

	out, err := env.run(t, "profile", "--text")
	require.NoError(t, err)
	assert.Contains(t, out, "Frequently used domains/tags: sql.")

	var opt ops.OptimizerOutput
	env.runJSON(t, &opt, "optimize", "tighten", "this")
	assert.Contains(t, opt.Request, "\ntighten this\n")
}

func TestCLIReset(t *testing.T) {
	env := setupCLI(t)
	_, err := env.repo.UpsertPrompt(context.Background(), ops.PromptInput{Title: "gone"})
	require.NoError(t, err)

	_, err = env.run(t, "reset")
	require.Error(t, err, "reset without --yes must refuse")

	_, err = env.run(t, "reset", "--yes")
	require.NoError(t, err)

	prompts, err := env.repo.GetPrompts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, prompts)
}

func TestCLIState(t *testing.T) {
	env := setupCLI(t)

	var state library.State
	env.runJSON(t, &state, "state")

	assert.Empty(t, state.Prompts)
	assert.Equal(t, library.DefaultSettings(), state.Settings)
}
