package ops

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/promptdeck/internal/errors"
	"github.com/hpungsan/promptdeck/internal/library"
)

// seedLibrary stores two folders (Child under Parent), two prompts and custom settings.
func seedLibrary(t *testing.T, env *testEnv) {
	t.Helper()
	ctx := context.Background()

	parent, err := env.repo.UpsertFolder(ctx, FolderInput{Name: "Parent"})
	require.NoError(t, err)
	child, err := env.repo.UpsertFolder(ctx, FolderInput{Name: "Child", ParentID: &parent.ID})
	require.NoError(t, err)

	_, err = env.repo.UpsertPrompt(ctx, PromptInput{Title: "Filed", Content: "in child", FolderID: &child.ID, Tags: []string{"a"}})
	require.NoError(t, err)
	_, err = env.repo.UpsertPrompt(ctx, PromptInput{Title: "Loose", Content: "root", Favorite: boolPtr(true), UseCount: intPtr(3)})
	require.NoError(t, err)

	_, err = env.repo.SetSettings(ctx, library.SettingsPatch{Tone: strPtr("Blunt"), IconPosition: &library.IconPosition{X: 1, Y: 2}})
	require.NoError(t, err)
}

func TestExportData(t *testing.T) {
	env := testSetup(t)
	seedLibrary(t, env)

	bundle, err := env.repo.ExportData(context.Background())
	require.NoError(t, err)

	assert.Equal(t, library.SchemaVersion, bundle.SchemaVersion)
	assert.Equal(t, "2023-11-14T22:13:20.000Z", bundle.ExportedAt)
	assert.Len(t, bundle.Folders, 2)
	assert.Len(t, bundle.Prompts, 2)
	assert.Equal(t, "Blunt", bundle.Settings.Tone)
}

func TestExportJSON_Indented(t *testing.T) {
	env := testSetup(t)

	text, err := env.repo.ExportJSON(context.Background())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(text, "{\n  \"schemaVersion\": 1,"), text)
	assert.Contains(t, text, `"folders": []`)
}

func TestExportOverwriteRoundTrip(t *testing.T) {
	ctx := context.Background()
	env := testSetup(t)
	seedLibrary(t, env)

	before := mustState(t, env.repo)
	bundle, err := env.repo.ExportData(ctx)
	require.NoError(t, err)

	out, err := env.repo.ImportData(ctx, *bundle, library.ImportOverwrite)
	require.NoError(t, err)
	assert.Equal(t, 2, out.TotalPrompts)

	after := mustState(t, env.repo)

	// Folder ids are kept under overwrite
	if diff := cmp.Diff(before.Folders, after.Folders); diff != "" {
		t.Errorf("folders mismatch (-before +after):\n%s", diff)
	}
	// Prompt ids are regenerated; everything else survives
	ignoreID := cmpopts.IgnoreFields(library.Prompt{}, "ID")
	if diff := cmp.Diff(before.Prompts, after.Prompts, ignoreID); diff != "" {
		t.Errorf("prompts mismatch (-before +after):\n%s", diff)
	}
	for i := range after.Prompts {
		assert.NotEqual(t, before.Prompts[i].ID, after.Prompts[i].ID)
	}
	if diff := cmp.Diff(before.Settings, after.Settings); diff != "" {
		t.Errorf("settings mismatch (-before +after):\n%s", diff)
	}
}

func TestImportOverwrite_MissingSettingsUseDefaults(t *testing.T) {
	ctx := context.Background()
	env := testSetup(t)
	seedLibrary(t, env)

	_, err := env.repo.ImportData(ctx, library.ExportBundle{
		Prompts: []library.Prompt{{ID: "old", Title: "only"}},
	}, library.ImportOverwrite)
	require.NoError(t, err)

	state := mustState(t, env.repo)
	assert.Empty(t, state.Folders)
	require.Len(t, state.Prompts, 1)
	assert.NotEqual(t, "old", state.Prompts[0].ID)
	assert.Equal(t, []string{}, state.Prompts[0].Tags)
	assert.Equal(t, library.DefaultSettings(), state.Settings)
}

func TestImportMerge(t *testing.T) {
	ctx := context.Background()
	env := testSetup(t)
	seedLibrary(t, env)
	before := mustState(t, env.repo)

	env.clock.Advance(time.Hour)
	importTime := env.clock.Millis()

	// Child is listed before its parent; one prompt links outside the bundle
	bundle := library.ExportBundle{
		SchemaVersion: 1,
		Folders: []library.Folder{
			{ID: "b-child", Name: "Imported child", ParentID: strPtr("b-parent"), CreatedAt: 10},
			{ID: "b-parent", Name: "Imported parent", CreatedAt: 11},
			{ID: "b-orphan", Name: "Orphan", ParentID: strPtr("elsewhere"), CreatedAt: 12},
		},
		Prompts: []library.Prompt{
			{ID: "bp-1", Title: "In child", FolderID: strPtr("b-child"), CreatedAt: 1, UpdatedAt: 2, UseCount: 4},
			{ID: "bp-2", Title: "Dangling", FolderID: strPtr("not-in-bundle")},
			{ID: "bp-3", Title: "Unfiled"},
		},
		Settings: library.Settings{PreferredLanguage: "German"},
	}

	out, err := env.repo.ImportData(ctx, bundle, library.ImportMerge)
	require.NoError(t, err)
	assert.Equal(t, 3, out.FoldersImported)
	assert.Equal(t, 3, out.PromptsImported)

	after := mustState(t, env.repo)
	require.Len(t, after.Folders, len(before.Folders)+len(bundle.Folders))
	require.Len(t, after.Prompts, len(before.Prompts)+len(bundle.Prompts))

	// Existing entries are untouched and come first
	if diff := cmp.Diff(before.Folders, after.Folders[:len(before.Folders)]); diff != "" {
		t.Errorf("existing folders changed:\n%s", diff)
	}
	if diff := cmp.Diff(before.Prompts, after.Prompts[:len(before.Prompts)]); diff != "" {
		t.Errorf("existing prompts changed:\n%s", diff)
	}

	imported := after.Folders[len(before.Folders):]
	byName := make(map[string]library.Folder)
	for _, f := range imported {
		assert.NotContains(t, []string{"b-child", "b-parent", "b-orphan"}, f.ID)
		byName[f.Name] = f
	}
	child := byName["Imported child"]
	parent := byName["Imported parent"]
	require.NotNil(t, child.ParentID)
	assert.Equal(t, parent.ID, *child.ParentID)
	assert.Nil(t, byName["Orphan"].ParentID)
	assert.EqualValues(t, 10, child.CreatedAt)
	assert.Equal(t, "Imported parent / Imported child", library.FolderPath(after.Folders, child.ID))

	newPrompts := after.Prompts[len(before.Prompts):]
	require.NotNil(t, newPrompts[0].FolderID)
	assert.Equal(t, child.ID, *newPrompts[0].FolderID)
	assert.GreaterOrEqual(t, after.FindFolder(*newPrompts[0].FolderID), 0)
	assert.Nil(t, newPrompts[1].FolderID)
	assert.Nil(t, newPrompts[2].FolderID)
	for _, p := range newPrompts {
		assert.NotContains(t, []string{"bp-1", "bp-2", "bp-3"}, p.ID)
		assert.Equal(t, importTime, p.CreatedAt)
		assert.Equal(t, importTime, p.UpdatedAt)
	}
	assert.Equal(t, 4, newPrompts[0].UseCount)

	assert.Equal(t, "German", after.Settings.PreferredLanguage)
	assert.Equal(t, "Blunt", after.Settings.Tone)
}

func TestImportMerge_DuplicateFolderIDsGetDistinctIDs(t *testing.T) {
	ctx := context.Background()
	env := testSetup(t)

	bundle := library.ExportBundle{
		SchemaVersion: 1,
		Folders: []library.Folder{
			{ID: "dup", Name: "A"},
			{ID: "dup", Name: "B"},
			{ID: "kid", Name: "C", ParentID: strPtr("dup")},
		},
		Prompts: []library.Prompt{{ID: "p", Title: "filed", FolderID: strPtr("dup")}},
	}

	_, err := env.repo.ImportData(ctx, bundle, library.ImportMerge)
	require.NoError(t, err)

	got := mustState(t, env.repo)
	require.Len(t, got.Folders, 3)
	seen := make(map[string]bool)
	for _, f := range got.Folders {
		assert.False(t, seen[f.ID], "folder id %s repeated", f.ID)
		seen[f.ID] = true
	}

	// References to a repeated id resolve to its last occurrence
	b := got.Folders[1]
	assert.Equal(t, "B", b.Name)
	require.NotNil(t, got.Folders[2].ParentID)
	assert.Equal(t, b.ID, *got.Folders[2].ParentID)
	require.NotNil(t, got.Prompts[0].FolderID)
	assert.Equal(t, b.ID, *got.Prompts[0].FolderID)
}

func TestImportJSON_MergeClearsPresentEmptySettings(t *testing.T) {
	ctx := context.Background()
	env := testSetup(t)
	_, err := env.repo.SetSettings(ctx, library.SettingsPatch{DefaultGoal: strPtr("ship it"), Tone: strPtr("Blunt")})
	require.NoError(t, err)

	_, err = env.repo.ImportJSON(ctx, `{"schemaVersion":1,"folders":[],"prompts":[],"settings":{"defaultGoal":""}}`, library.ImportMerge)
	require.NoError(t, err)

	got, err := env.repo.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "", got.DefaultGoal)
	assert.Equal(t, "Blunt", got.Tone, "keys missing from the bundle are kept")
}

func TestImportData_UnknownStrategy(t *testing.T) {
	env := testSetup(t)

	_, err := env.repo.ImportData(context.Background(), library.ExportBundle{}, "append")

	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest))
}

func TestImportJSON_Errors(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		message string
	}{
		{"malformed", "{not json", "invalid JSON payload"},
		{"wrong shape", `[1,2]`, "invalid JSON payload"},
		{"null", "null", "empty import bundle"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := testSetup(t)

			_, err := env.repo.ImportJSON(context.Background(), tt.payload, library.ImportMerge)

			dErr, ok := errors.As(err)
			require.True(t, ok, "expected DeckError, got %v", err)
			assert.Equal(t, errors.ErrInvalidRequest, dErr.Code)
			assert.Equal(t, tt.message, dErr.Message)
		})
	}
}

func TestImportJSON_FromExportJSON(t *testing.T) {
	ctx := context.Background()
	src := testSetup(t)
	seedLibrary(t, src)
	text, err := src.repo.ExportJSON(ctx)
	require.NoError(t, err)

	dst := testSetup(t)
	out, err := dst.repo.ImportJSON(ctx, text, library.ImportMerge)
	require.NoError(t, err)
	assert.Equal(t, 2, out.TotalFolders)
	assert.Equal(t, 2, out.TotalPrompts)
}

func TestExportToFile_DefaultPathAndImportBack(t *testing.T) {
	ctx := context.Background()
	env := testSetup(t)
	seedLibrary(t, env)

	out, err := env.repo.ExportToFile(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(env.baseDir, "exports", "promptdeck-2023-11-14T221320.json"), out.Path)
	assert.Equal(t, 2, out.Prompts)

	info, err := os.Stat(out.Path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	// No temp files left behind
	entries, err := os.ReadDir(filepath.Dir(out.Path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	dst := testSetup(t, WithFiles(env.baseDir, env.cfg))
	imported, err := dst.repo.ImportFromFile(ctx, out.Path, library.ImportOverwrite)
	require.NoError(t, err)
	assert.Equal(t, out.Path, imported.Path)
	assert.Equal(t, 2, imported.TotalPrompts)
	assert.Equal(t, "Blunt", mustState(t, dst.repo).Settings.Tone)
}

func TestExportToFile_OverwritesExisting(t *testing.T) {
	ctx := context.Background()
	env := testSetup(t)
	path := filepath.Join(env.baseDir, "exports", "backup.json")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0600))

	_, err := env.repo.ExportToFile(ctx, path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	_, err = ParseBundle(data)
	assert.NoError(t, err)
}

func TestExportToFile_RejectsUnsafePath(t *testing.T) {
	env := testSetup(t)

	_, err := env.repo.ExportToFile(context.Background(), filepath.Join(t.TempDir(), "out.json"))

	assert.True(t, errors.Is(err, errors.ErrInvalidRequest))
}

func TestImportFromFile_Errors(t *testing.T) {
	ctx := context.Background()
	env := testSetup(t)
	exports := filepath.Join(env.baseDir, "exports")

	_, err := env.repo.ImportFromFile(ctx, filepath.Join(exports, "missing.json"), library.ImportMerge)
	assert.True(t, errors.Is(err, errors.ErrFileNotFound), "got %v", err)

	bad := filepath.Join(exports, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{oops"), 0600))
	_, err = env.repo.ImportFromFile(ctx, bad, library.ImportMerge)
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest))

	_, err = env.repo.ImportFromFile(ctx, bad, "sideways")
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest))

	// Nothing was written by the failed imports
	assert.Empty(t, mustState(t, env.repo).Prompts)
}
