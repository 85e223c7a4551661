package ops

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/hpungsan/promptdeck/internal/errors"
	"github.com/hpungsan/promptdeck/internal/library"
)

// MaxImportBytes caps the size of an import file.
const MaxImportBytes = 32 << 20

// ImportOutput contains the result of an import.
type ImportOutput struct {
	Strategy        library.ImportStrategy `json:"strategy"`
	FoldersImported int                    `json:"folders_imported"`
	PromptsImported int                    `json:"prompts_imported"`
	TotalFolders    int                    `json:"total_folders"`
	TotalPrompts    int                    `json:"total_prompts"`
}

// ImportFileOutput contains the result of ImportFromFile.
type ImportFileOutput struct {
	Path string `json:"path"`
	ImportOutput
}

// ImportData combines bundle with the stored library.
//
// overwrite replaces the document. Folder ids are kept as-is, every prompt gets a new id,
// and settings come from the bundle (defaults when the bundle has none).
//
// merge appends. Every imported folder and prompt gets a new id; parentId and folderId
// are rewritten through the old-to-new folder map, and links to folders outside the
// bundle are dropped. Imported prompts get createdAt/updatedAt = now. Bundle settings
// win over stored settings.
func (r *Repo) ImportData(ctx context.Context, bundle library.ExportBundle, strategy library.ImportStrategy) (*ImportOutput, error) {
	if !strategy.Valid() {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("strategy must be one of: merge, overwrite (got %q)", strategy))
	}

	var apply func(s *library.State) error
	switch strategy {
	case library.ImportOverwrite:
		apply = func(s *library.State) error {
			r.overwrite(s, bundle)
			return nil
		}
	case library.ImportMerge:
		apply = func(s *library.State) error {
			r.merge(s, bundle)
			return nil
		}
	}

	state, err := r.mutate(ctx, "import_"+string(strategy), apply)
	if err != nil {
		return nil, err
	}

	out := &ImportOutput{
		Strategy:        strategy,
		FoldersImported: len(bundle.Folders),
		PromptsImported: len(bundle.Prompts),
		TotalFolders:    len(state.Folders),
		TotalPrompts:    len(state.Prompts),
	}
	r.logger.Info("library imported",
		zap.String("strategy", string(strategy)),
		zap.Int("folders", out.FoldersImported),
		zap.Int("prompts", out.PromptsImported))
	return out, nil
}

func (r *Repo) overwrite(s *library.State, bundle library.ExportBundle) {
	folders := make([]library.Folder, 0, len(bundle.Folders))
	for _, f := range bundle.Folders {
		f.ParentID = cloneString(f.ParentID)
		folders = append(folders, f)
	}

	prompts := make([]library.Prompt, 0, len(bundle.Prompts))
	for _, p := range bundle.Prompts {
		p = p.Clone()
		p.ID = r.newID(PromptIDPrefix)
		prompts = append(prompts, p)
	}

	settings := library.DefaultSettings()
	if !bundle.Settings.IsZero() {
		settings = bundle.Settings
		if settings.IconPosition != nil {
			pos := *settings.IconPosition
			settings.IconPosition = &pos
		}
	}

	*s = library.NormalizeState(&library.State{
		Folders:  folders,
		Prompts:  prompts,
		Settings: settings,
	})
}

func (r *Repo) merge(s *library.State, bundle library.ExportBundle) {
	now := r.nowMillis()

	// Every folder gets its own id. The old->new map only rewrites references and is
	// filled before any rewrite so parent links resolve regardless of order; when a
	// bundle repeats an id, the last folder with it wins.
	newIDs := make([]string, len(bundle.Folders))
	folderIDs := make(map[string]string, len(bundle.Folders))
	for i, f := range bundle.Folders {
		newIDs[i] = r.newID(FolderIDPrefix)
		folderIDs[f.ID] = newIDs[i]
	}
	remap := func(old *string) *string {
		if old == nil {
			return nil
		}
		if id, ok := folderIDs[*old]; ok {
			return &id
		}
		return nil
	}

	for i, f := range bundle.Folders {
		f.ID = newIDs[i]
		f.ParentID = remap(f.ParentID)
		s.Folders = append(s.Folders, f)
	}

	for _, p := range bundle.Prompts {
		p = p.Clone()
		p.ID = r.newID(PromptIDPrefix)
		p.FolderID = remap(p.FolderID)
		p.CreatedAt = now
		p.UpdatedAt = now
		if p.Tags == nil {
			p.Tags = []string{}
		}
		s.Prompts = append(s.Prompts, p)
	}

	if bundle.SettingsKeys != nil {
		s.Settings = s.Settings.Apply(*bundle.SettingsKeys)
	} else {
		s.Settings = s.Settings.Merge(bundle.Settings)
	}
}

// ImportJSON parses text as an export bundle and imports it.
func (r *Repo) ImportJSON(ctx context.Context, text string, strategy library.ImportStrategy) (*ImportOutput, error) {
	bundle, err := ParseBundle([]byte(text))
	if err != nil {
		return nil, err
	}
	return r.ImportData(ctx, *bundle, strategy)
}

// ParseBundle decodes an export bundle. Malformed JSON and a JSON null are both
// INVALID_REQUEST.
func ParseBundle(data []byte) (*library.ExportBundle, error) {
	var bundle *library.ExportBundle
	if err := json.Unmarshal(data, &bundle); err != nil {
		return nil, errors.NewInvalidRequest("invalid JSON payload")
	}
	if bundle == nil {
		return nil, errors.NewInvalidRequest("empty import bundle")
	}

	// Decode settings a second time to tell an empty key from a missing one
	var keys struct {
		Settings *library.SettingsPatch `json:"settings"`
	}
	if err := json.Unmarshal(data, &keys); err == nil && keys.Settings != nil {
		bundle.SettingsKeys = keys.Settings
	}
	return bundle, nil
}

// ImportFromFile reads an export bundle from path and imports it.
func (r *Repo) ImportFromFile(ctx context.Context, path string, strategy library.ImportStrategy) (*ImportFileOutput, error) {
	if !strategy.Valid() {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("strategy must be one of: merge, overwrite (got %q)", strategy))
	}
	if err := r.validatePath(path, PathCheckRead); err != nil {
		return nil, err
	}

	file, err := openNoFollow(path, 0, 0)
	if err != nil {
		if _, ok := errors.As(err); ok {
			return nil, err
		}
		return nil, errors.NewInternal(fmt.Errorf("failed to open import file: %w", err))
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, MaxImportBytes+1))
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to read import file: %w", err))
	}
	if len(data) > MaxImportBytes {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("import file exceeds %d bytes", MaxImportBytes))
	}

	out, err := r.ImportJSON(ctx, string(data), strategy)
	if err != nil {
		return nil, err
	}
	return &ImportFileOutput{Path: path, ImportOutput: *out}, nil
}
