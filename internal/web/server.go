package web

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/hpungsan/promptdeck/internal/config"
	"github.com/hpungsan/promptdeck/internal/ops"
	"github.com/hpungsan/promptdeck/internal/validation"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

// ShutdownTimeout bounds how long in-flight requests get after SIGINT/SIGTERM.
const ShutdownTimeout = 5 * time.Second

// NewHandlers wires the HTTP handlers to a repository.
func NewHandlers(repo *ops.Repo, cfg *config.Config, version string, logger *zap.Logger) (*Handlers, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	templateSub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		return nil, fmt.Errorf("template sub-FS: %w", err)
	}
	renderer, err := NewRenderer(templateSub, version, logger)
	if err != nil {
		return nil, err
	}

	return &Handlers{
		repo:     repo,
		cfg:      cfg,
		validate: validation.New(),
		renderer: renderer,
		logger:   logger,
	}, nil
}

// NewRouter builds the chi router: JSON API under /api, HTML pages, and static assets.
func NewRouter(h *Handlers) (http.Handler, error) {
	staticSub, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("static sub-FS: %w", err)
	}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(requestLogger(h.logger))
	r.Use(middleware.Recoverer)
	r.Use(securityHeaders)

	r.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(corsOptions(h.cfg)))

		r.Get("/ping", h.HandlePing)
		r.Get("/state", h.HandleState)
		r.Get("/export", h.HandleExport)
		r.Post("/import", h.HandleImport)
		r.Get("/profile", h.HandleProfile)
		r.Post("/profile/optimize", h.HandleOptimize)

		r.Route("/prompts", func(r chi.Router) {
			r.Get("/", h.HandleSearchPrompts)
			r.Post("/", h.HandleUpsertPrompt)
			r.Delete("/{id}", h.HandleDeletePrompt)
			r.Post("/{id}/touch", h.HandleTouchPrompt)
			r.Post("/{id}/favorite", h.HandleFavoritePrompt)
		})

		r.Route("/folders", func(r chi.Router) {
			r.Get("/", h.HandleListFolders)
			r.Post("/", h.HandleUpsertFolder)
			r.Delete("/{id}", h.HandleDeleteFolder)
		})

		r.Get("/settings", h.HandleGetSettings)
		r.Patch("/settings", h.HandlePatchSettings)
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/prompts", http.StatusFound)
	})
	r.Get("/prompts", h.HandleList)
	r.Get("/prompts/{id}", h.HandleDetail)
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServerFS(staticSub)))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		h.renderer.renderError(w, r, errNotFoundPage(r.URL.Path))
	})

	return r, nil
}

// NewServer creates the HTTP server for the prompt library.
func NewServer(repo *ops.Repo, cfg *config.Config, version string, logger *zap.Logger) (*http.Server, error) {
	h, err := NewHandlers(repo, cfg, version, logger)
	if err != nil {
		return nil, err
	}
	router, err := NewRouter(h)
	if err != nil {
		return nil, err
	}

	return &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.WebBind, cfg.WebPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}, nil
}

// corsOptions allows the configured origins (the browser extension by default).
func corsOptions(cfg *config.Config) cors.Options {
	origins := []string{"chrome-extension://*"}
	if cfg != nil && len(cfg.CORSOrigins) > 0 {
		origins = cfg.CORSOrigins
	}
	return cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", RequestIDHeader},
		ExposedHeaders: []string{RequestIDHeader},
		MaxAge:         300,
	}
}

// securityHeaders adds security-related HTTP headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self'; style-src 'self'")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		next.ServeHTTP(w, r)
	})
}

// Run starts the HTTP server and handles graceful shutdown on SIGINT/SIGTERM.
func Run(srv *http.Server, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	logger.Info("promptdeck UI running", zap.String("url", "http://"+srv.Addr))
	if strings.Contains(srv.Addr, "0.0.0.0") || strings.Contains(srv.Addr, "::") {
		logger.Warn("server is binding to all interfaces and may be accessible from the network")
	}

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
