package ops

import (
	"context"
	"strings"

	"github.com/hpungsan/promptdeck/internal/library"
)

// FolderInput contains parameters for UpsertFolder.
type FolderInput struct {
	ID        string  // empty creates a new folder
	Name      string  // required
	ParentID  *string // nil places the folder at the root
	CreatedAt *int64  // only used when ID is set but not yet stored
}

// UpsertFolder creates a folder when input.ID is empty, otherwise replaces the folder
// with that id. An existing folder keeps its createdAt.
func (r *Repo) UpsertFolder(ctx context.Context, input FolderInput) (*library.Folder, error) {
	var out library.Folder
	_, err := r.mutate(ctx, "upsert_folder", func(s *library.State) error {
		now := r.nowMillis()

		id := strings.TrimSpace(input.ID)
		createdAt := now
		if id == "" {
			id = r.newID(FolderIDPrefix)
		} else if input.CreatedAt != nil {
			createdAt = *input.CreatedAt
		}

		out = library.Folder{
			ID:        id,
			Name:      input.Name,
			ParentID:  cloneString(input.ParentID),
			CreatedAt: createdAt,
		}

		if i := s.FindFolder(id); i >= 0 {
			out.CreatedAt = s.Folders[i].CreatedAt
			s.Folders[i] = out
		} else {
			s.Folders = append(s.Folders, out)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteFolder removes a folder and detaches the prompts filed under it. Subfolders are
// not deleted and keep their parentId. Unknown ids are a no-op.
func (r *Repo) DeleteFolder(ctx context.Context, id string) error {
	_, err := r.mutate(ctx, "delete_folder", func(s *library.State) error {
		kept := s.Folders[:0]
		for _, f := range s.Folders {
			if f.ID != id {
				kept = append(kept, f)
			}
		}
		s.Folders = kept

		for i := range s.Prompts {
			if p := &s.Prompts[i]; p.FolderID != nil && *p.FolderID == id {
				p.FolderID = nil
			}
		}
		return nil
	})
	return err
}

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
