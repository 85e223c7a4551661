package ops

import (
	"context"

	"github.com/hpungsan/promptdeck/internal/library"
)

// GetState returns the normalized library document.
func (r *Repo) GetState(ctx context.Context) (*library.State, error) {
	state, _, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	return &state, nil
}

// GetFolders returns every folder.
func (r *Repo) GetFolders(ctx context.Context) ([]library.Folder, error) {
	state, _, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	return state.Folders, nil
}

// GetPrompts returns every prompt in stored order.
func (r *Repo) GetPrompts(ctx context.Context) ([]library.Prompt, error) {
	state, _, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	return state.Prompts, nil
}

// GetSettings returns the settings with defaults filled in.
func (r *Repo) GetSettings(ctx context.Context) (*library.Settings, error) {
	state, _, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	return &state.Settings, nil
}

// SetSettings shallow-merges patch into the stored settings and returns the result.
// Fields absent from patch are kept; present fields overwrite, even when empty.
func (r *Repo) SetSettings(ctx context.Context, patch library.SettingsPatch) (*library.Settings, error) {
	state, err := r.mutate(ctx, "set_settings", func(s *library.State) error {
		s.Settings = s.Settings.Apply(patch)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &state.Settings, nil
}

// ClearAll drops every folder and prompt and restores default settings.
func (r *Repo) ClearAll(ctx context.Context) error {
	_, err := r.mutate(ctx, "clear_all", func(s *library.State) error {
		*s = library.EmptyState()
		return nil
	})
	return err
}
