package ops

import (
	"context"

	"github.com/hpungsan/promptdeck/internal/library"
)

// SearchInput contains parameters for SearchPrompts.
type SearchInput struct {
	Term     string
	Filter   library.Filter    // default: all
	FolderID *string           // optional exact folder match
	Sort     library.SortOrder // default: stored order (recent: newest use first)
}

// SearchOutput contains the result of SearchPrompts.
type SearchOutput struct {
	Items []library.Prompt `json:"items"`
	Total int              `json:"total"`
}

// SearchPrompts filters prompts by term, filter, and folder.
func (r *Repo) SearchPrompts(ctx context.Context, input SearchInput) (*SearchOutput, error) {
	state, _, err := r.load(ctx)
	if err != nil {
		return nil, err
	}

	items := library.Search(state.Prompts, library.Query{
		Term:     input.Term,
		Filter:   input.Filter,
		FolderID: input.FolderID,
		Sort:     input.Sort,
	})
	return &SearchOutput{Items: items, Total: len(items)}, nil
}
