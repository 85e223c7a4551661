package web

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hpungsan/promptdeck/internal/errors"
	"github.com/hpungsan/promptdeck/internal/library"
	"github.com/hpungsan/promptdeck/internal/ops"
	"github.com/hpungsan/promptdeck/internal/validation"
)

// MaxBodyBytes caps API request bodies other than imports.
const MaxBodyBytes = 1 << 20

// mutationResult acknowledges an id-only mutation.
type mutationResult struct {
	ID string `json:"id"`
	OK bool   `json:"ok"`
}

type optimizeRequest struct {
	Draft string `json:"draft"`
}

// HandlePing handles GET /api/ping.
func (h *Handlers) HandlePing(w http.ResponseWriter, r *http.Request) {
	renderJSON(w, http.StatusOK, map[string]any{"ok": true, "version": h.renderer.version})
}

// HandleState handles GET /api/state.
func (h *Handlers) HandleState(w http.ResponseWriter, r *http.Request) {
	state, err := h.repo.GetState(r.Context())
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, state)
}

// HandleExport handles GET /api/export. With ?download=1 the bundle is sent as an
// attachment.
func (h *Handlers) HandleExport(w http.ResponseWriter, r *http.Request) {
	bundle, err := h.repo.ExportData(r.Context())
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	if r.URL.Query().Get("download") == "1" {
		w.Header().Set("Content-Disposition", `attachment; filename="promptdeck-export.json"`)
	}
	renderJSON(w, http.StatusOK, bundle)
}

// HandleImport handles POST /api/import with a {bundle, strategy} body.
func (h *Handlers) HandleImport(w http.ResponseWriter, r *http.Request) {
	var req validation.ImportRequest
	if !h.decodeBody(w, r, ops.MaxImportBytes, &req) {
		return
	}

	bundle, err := ops.ParseBundle(req.Bundle)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	out, err := h.repo.ImportData(r.Context(), *bundle, library.ImportStrategy(req.Strategy))
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, out)
}

// HandleProfile handles GET /api/profile.
func (h *Handlers) HandleProfile(w http.ResponseWriter, r *http.Request) {
	out, err := h.repo.BuildProfile(r.Context())
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, out)
}

// HandleOptimize handles POST /api/profile/optimize with a {draft} body.
func (h *Handlers) HandleOptimize(w http.ResponseWriter, r *http.Request) {
	var req optimizeRequest
	if !h.decodeBody(w, r, MaxBodyBytes, &req) {
		return
	}

	out, err := h.repo.OptimizerRequest(r.Context(), req.Draft)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, out)
}

// HandleSearchPrompts handles GET /api/prompts?q=&filter=&folder=&sort=.
func (h *Handlers) HandleSearchPrompts(w http.ResponseWriter, r *http.Request) {
	req := searchRequestFromQuery(r)
	if err := h.validate.Validate(req); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	out, err := h.repo.SearchPrompts(r.Context(), req.ToInput())
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, out)
}

// HandleUpsertPrompt handles POST /api/prompts.
func (h *Handlers) HandleUpsertPrompt(w http.ResponseWriter, r *http.Request) {
	var req validation.PromptRequest
	if !h.decodeBody(w, r, MaxBodyBytes, &req) {
		return
	}

	p, err := h.repo.UpsertPrompt(r.Context(), req.ToInput())
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, p)
}

// HandleDeletePrompt handles DELETE /api/prompts/{id}.
func (h *Handlers) HandleDeletePrompt(w http.ResponseWriter, r *http.Request) {
	h.mutateByID(w, r, h.repo.DeletePrompt)
}

// HandleTouchPrompt handles POST /api/prompts/{id}/touch.
func (h *Handlers) HandleTouchPrompt(w http.ResponseWriter, r *http.Request) {
	h.mutateByID(w, r, h.repo.TouchUseStats)
}

// HandleFavoritePrompt handles POST /api/prompts/{id}/favorite.
func (h *Handlers) HandleFavoritePrompt(w http.ResponseWriter, r *http.Request) {
	h.mutateByID(w, r, h.repo.ToggleFavorite)
}

// HandleListFolders handles GET /api/folders.
func (h *Handlers) HandleListFolders(w http.ResponseWriter, r *http.Request) {
	folders, err := h.repo.GetFolders(r.Context())
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, map[string]any{"folders": folders})
}

// HandleUpsertFolder handles POST /api/folders.
func (h *Handlers) HandleUpsertFolder(w http.ResponseWriter, r *http.Request) {
	var req validation.FolderRequest
	if !h.decodeBody(w, r, MaxBodyBytes, &req) {
		return
	}

	f, err := h.repo.UpsertFolder(r.Context(), req.ToInput())
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, f)
}

// HandleDeleteFolder handles DELETE /api/folders/{id}.
func (h *Handlers) HandleDeleteFolder(w http.ResponseWriter, r *http.Request) {
	h.mutateByID(w, r, h.repo.DeleteFolder)
}

// HandleGetSettings handles GET /api/settings.
func (h *Handlers) HandleGetSettings(w http.ResponseWriter, r *http.Request) {
	s, err := h.repo.GetSettings(r.Context())
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, s)
}

// HandlePatchSettings handles PATCH /api/settings.
func (h *Handlers) HandlePatchSettings(w http.ResponseWriter, r *http.Request) {
	var req validation.SettingsRequest
	if !h.decodeBody(w, r, MaxBodyBytes, &req) {
		return
	}

	s, err := h.repo.SetSettings(r.Context(), req.ToPatch())
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, s)
}

// mutateByID runs an id-only mutation. Unknown ids succeed without changes.
func (h *Handlers) mutateByID(w http.ResponseWriter, r *http.Request, fn func(context.Context, string) error) {
	id := chi.URLParam(r, "id")
	if err := fn(r.Context(), id); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, mutationResult{ID: id, OK: true})
}

// decodeBody reads a JSON body of at most limit bytes into dst and validates it.
// On failure the error response has been written and false is returned.
func (h *Handlers) decodeBody(w http.ResponseWriter, r *http.Request, limit int64, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			h.renderer.renderError(w, r, errors.NewInvalidRequest(
				fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit)))
			return false
		}
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid JSON payload"))
		return false
	}
	if err := h.validate.Validate(dst); err != nil {
		h.renderer.renderError(w, r, err)
		return false
	}
	return true
}
