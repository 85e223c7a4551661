package web

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/yuin/goldmark"
	"go.uber.org/zap"

	"github.com/hpungsan/promptdeck/internal/errors"
	"github.com/hpungsan/promptdeck/internal/library"
)

// PageData contains common fields used across all page templates.
type PageData struct {
	Title   string
	Version string
	Nav     string // active nav item: "prompts", "favorites", "recent"
}

// PromptRow is a prompt with its resolved folder path.
type PromptRow struct {
	library.Prompt
	FolderPath string
}

// FolderOption is an entry in the folder filter dropdown.
type FolderOption struct {
	ID       string
	Path     string
	Selected bool
}

// ListPageData is the template data for the prompt list page.
type ListPageData struct {
	PageData
	Items   []PromptRow
	Total   int
	Query   string
	Filter  string
	Sort    string
	Folders []FolderOption
}

// DetailPageData is the template data for the prompt detail page.
type DetailPageData struct {
	PageData
	Prompt       PromptRow
	RenderedHTML template.HTML
}

// ErrorPageData is the template data for the error page.
type ErrorPageData struct {
	PageData
	StatusCode int
	Message    string
}

// Renderer manages template parsing and rendering.
type Renderer struct {
	templates map[string]*template.Template
	version   string
	logger    *zap.Logger
}

// NewRenderer creates a Renderer by parsing templates from the given FS.
func NewRenderer(templateFS fs.FS, version string, logger *zap.Logger) (*Renderer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	funcMap := template.FuncMap{
		"formatTime":  formatTime,
		"formatCount": formatCount,
		"since":       sinceMillis,
		"join":        strings.Join,
	}

	layoutTmpl, err := template.New("layout").Funcs(funcMap).ParseFS(templateFS, "layout.html")
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}

	pages := map[string]string{
		"list":   "list.html",
		"detail": "detail.html",
		"error":  "error.html",
	}

	templates := make(map[string]*template.Template, len(pages))
	for name, file := range pages {
		t, err := layoutTmpl.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := t.ParseFS(templateFS, file); err != nil {
			return nil, fmt.Errorf("parse %s: %w", file, err)
		}
		templates[name] = t
	}

	return &Renderer{
		templates: templates,
		version:   version,
		logger:    logger,
	}, nil
}

// page returns PageData with the renderer's version filled in.
func (r *Renderer) page(title, nav string) PageData {
	return PageData{Title: title, Version: r.version, Nav: nav}
}

// renderPage renders a named page template with the given data and HTTP 200 status.
func (r *Renderer) renderPage(w http.ResponseWriter, name string, data any) {
	r.renderPageStatus(w, http.StatusOK, name, data)
}

// renderPageStatus renders a named page template with the given data and HTTP status code.
// The page is rendered into a buffer first so a template error never produces a partial page.
func (r *Renderer) renderPageStatus(w http.ResponseWriter, status int, name string, data any) {
	t, ok := r.templates[name]
	if !ok {
		r.logger.Error("template not found", zap.String("template", name))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		r.logger.Error("template execution error", zap.String("template", name), zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// renderError renders an error response with content negotiation. API paths and
// clients asking for JSON get the error object; browsers get the error page.
func (r *Renderer) renderError(w http.ResponseWriter, req *http.Request, err error) {
	dErr, ok := errors.As(err)
	if !ok {
		dErr = errors.NewInternal(err)
	}
	if dErr.Code == errors.ErrInternal {
		r.logger.Error("request failed",
			zap.String("path", req.URL.Path),
			zap.String("request_id", RequestIDFrom(req.Context())),
			zap.Error(err))
	}

	if wantsJSON(req) {
		errObj := map[string]any{
			"code":    string(dErr.Code),
			"message": dErr.Message,
			"status":  dErr.Status,
		}
		if dErr.Code != errors.ErrInternal && dErr.Details != nil {
			errObj["details"] = dErr.Details
		}
		renderJSON(w, dErr.Status, map[string]any{"error": errObj})
		return
	}

	r.renderPageStatus(w, dErr.Status, "error", ErrorPageData{
		PageData:   r.page(fmt.Sprintf("Error %d", dErr.Status), ""),
		StatusCode: dErr.Status,
		Message:    dErr.Message,
	})
}

func wantsJSON(req *http.Request) bool {
	return strings.HasPrefix(req.URL.Path, "/api/") ||
		strings.Contains(req.Header.Get("Accept"), "application/json")
}

// renderJSON writes a JSON response.
func renderJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// renderMarkdown converts markdown text to HTML using goldmark. goldmark drops raw
// HTML by default, so prompt content cannot inject markup.
func renderMarkdown(md string) template.HTML {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(md))
	}
	return template.HTML(buf.String())
}

// formatTime formats a Unix millisecond timestamp as "2006-01-02 15:04" UTC.
func formatTime(ms int64) string {
	return time.UnixMilli(ms).UTC().Format("2006-01-02 15:04")
}

// formatCount renders n with thousands separators.
func formatCount(n int) string {
	return humanize.Comma(int64(n))
}

// sinceMillis renders a Unix millisecond timestamp relative to now ("3 hours ago").
func sinceMillis(ms *int64) string {
	if ms == nil {
		return "never"
	}
	return humanize.Time(time.UnixMilli(*ms))
}
