package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hpungsan/promptdeck/internal/config"
	"github.com/hpungsan/promptdeck/internal/errors"
	"github.com/hpungsan/promptdeck/internal/library"
	"github.com/hpungsan/promptdeck/internal/ops"
	"github.com/hpungsan/promptdeck/internal/validation"
)

// Handlers contains HTTP route handlers for the web UI and JSON API.
type Handlers struct {
	repo     *ops.Repo
	cfg      *config.Config
	validate *validation.Validator
	renderer *Renderer
	logger   *zap.Logger
}

// HandleList handles GET /prompts: the searchable prompt list.
func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request) {
	req := searchRequestFromQuery(r)
	if err := h.validate.Validate(req); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	state, err := h.repo.GetState(r.Context())
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	in := req.ToInput()
	found := library.Search(state.Prompts, library.Query{
		Term:     in.Term,
		Filter:   in.Filter,
		FolderID: in.FolderID,
		Sort:     in.Sort,
	})

	rows := make([]PromptRow, len(found))
	for i, p := range found {
		rows[i] = promptRow(state.Folders, p)
	}

	folders := make([]FolderOption, len(state.Folders))
	for i, f := range state.Folders {
		folders[i] = FolderOption{
			ID:       f.ID,
			Path:     library.FolderPath(state.Folders, f.ID),
			Selected: in.FolderID != nil && *in.FolderID == f.ID,
		}
	}

	h.renderer.renderPage(w, "list", ListPageData{
		PageData: h.renderer.page("Prompts", navFor(in.Filter)),
		Items:    rows,
		Total:    len(rows),
		Query:    req.Query,
		Filter:   req.Filter,
		Sort:     req.Sort,
		Folders:  folders,
	})
}

// HandleDetail handles GET /prompts/{id}: one prompt with its content rendered as markdown.
func (h *Handlers) HandleDetail(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	state, err := h.repo.GetState(r.Context())
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	i := state.FindPrompt(id)
	if i < 0 {
		h.renderer.renderError(w, r, errors.NewNotFound("prompt", id))
		return
	}
	p := state.Prompts[i]

	h.renderer.renderPage(w, "detail", DetailPageData{
		PageData:     h.renderer.page(p.Title, "prompts"),
		Prompt:       promptRow(state.Folders, p),
		RenderedHTML: renderMarkdown(p.Content),
	})
}

func promptRow(folders []library.Folder, p library.Prompt) PromptRow {
	path := library.RootLabel
	if p.FolderID != nil {
		path = library.FolderPath(folders, *p.FolderID)
	}
	return PromptRow{Prompt: p, FolderPath: path}
}

func navFor(f library.Filter) string {
	switch f {
	case library.FilterFavorites:
		return "favorites"
	case library.FilterRecent:
		return "recent"
	default:
		return "prompts"
	}
}

// searchRequestFromQuery reads q, filter, folder, and sort from the query string.
func searchRequestFromQuery(r *http.Request) validation.SearchRequest {
	q := r.URL.Query()
	req := validation.SearchRequest{
		Query:  q.Get("q"),
		Filter: q.Get("filter"),
		Sort:   q.Get("sort"),
	}
	if folder := q.Get("folder"); folder != "" {
		req.FolderID = &folder
	}
	return req
}

func errNotFoundPage(path string) error {
	return errors.NewNotFound("page", path)
}
