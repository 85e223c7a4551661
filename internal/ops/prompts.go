package ops

import (
	"context"
	"strings"

	"github.com/hpungsan/promptdeck/internal/library"
)

// PromptInput contains parameters for UpsertPrompt.
//
// The input replaces the whole prompt: nil optional fields default (no tags, not
// favorite, unused, never used) on update as well as on create, and a nil FolderID files
// the prompt at the root. Only the stored createdAt survives an update.
type PromptInput struct {
	ID         string // empty creates a new prompt
	FolderID   *string
	Title      string
	Content    string
	Tags       []string
	Favorite   *bool
	UseCount   *int
	LastUsedAt *int64
	CreatedAt  *int64 // only used when ID is set but not yet stored
}

// UpsertPrompt creates or replaces a prompt. updatedAt is always set to now; an existing
// prompt keeps its createdAt.
func (r *Repo) UpsertPrompt(ctx context.Context, input PromptInput) (*library.Prompt, error) {
	var out library.Prompt
	_, err := r.mutate(ctx, "upsert_prompt", func(s *library.State) error {
		now := r.nowMillis()

		id := strings.TrimSpace(input.ID)
		out = library.Prompt{Tags: []string{}, CreatedAt: now}
		existing := -1
		if id == "" {
			id = r.newID(PromptIDPrefix)
		} else if existing = s.FindPrompt(id); existing >= 0 {
			out.CreatedAt = s.Prompts[existing].CreatedAt
		} else if input.CreatedAt != nil {
			out.CreatedAt = *input.CreatedAt
		}

		out.ID = id
		out.FolderID = cloneString(input.FolderID)
		out.Title = input.Title
		out.Content = input.Content
		if input.Tags != nil {
			out.Tags = append([]string{}, input.Tags...)
		}
		if input.Favorite != nil {
			out.Favorite = *input.Favorite
		}
		if input.UseCount != nil {
			out.UseCount = *input.UseCount
		}
		if input.LastUsedAt != nil {
			v := *input.LastUsedAt
			out.LastUsedAt = &v
		}
		out.UpdatedAt = now

		if existing >= 0 {
			s.Prompts[existing] = out
		} else {
			s.Prompts = append(s.Prompts, out)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	out = out.Clone()
	return &out, nil
}

// DeletePrompt removes a prompt. Unknown ids are a no-op.
func (r *Repo) DeletePrompt(ctx context.Context, id string) error {
	_, err := r.mutate(ctx, "delete_prompt", func(s *library.State) error {
		kept := s.Prompts[:0]
		for _, p := range s.Prompts {
			if p.ID != id {
				kept = append(kept, p)
			}
		}
		s.Prompts = kept
		return nil
	})
	return err
}

// TouchUseStats records one use of a prompt. Unknown ids are a no-op.
func (r *Repo) TouchUseStats(ctx context.Context, id string) error {
	_, err := r.mutate(ctx, "touch_use_stats", func(s *library.State) error {
		i := s.FindPrompt(id)
		if i < 0 {
			return nil
		}
		now := r.nowMillis()
		s.Prompts[i].UseCount++
		s.Prompts[i].LastUsedAt = &now
		return nil
	})
	return err
}

// ToggleFavorite flips a prompt's favorite flag and bumps updatedAt.
// Unknown ids are a no-op.
func (r *Repo) ToggleFavorite(ctx context.Context, id string) error {
	_, err := r.mutate(ctx, "toggle_favorite", func(s *library.State) error {
		i := s.FindPrompt(id)
		if i < 0 {
			return nil
		}
		s.Prompts[i].Favorite = !s.Prompts[i].Favorite
		s.Prompts[i].UpdatedAt = r.nowMillis()
		return nil
	})
	return err
}
