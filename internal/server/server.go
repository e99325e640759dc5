// Package server exposes the analysis engine over HTTP.
//
//	POST /v1/analyze        {"text": "...", "language": "en"} -> report JSON
//	POST /v1/analyze?format=markdown                          -> report Markdown
//	GET  /v1/rules          active catalog version and hash
//	POST /v1/rules/reload   re-read the catalog file
//	GET  /healthz
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/ppiankov/clauseguard/internal/model"
	"github.com/ppiankov/clauseguard/internal/pipeline"
	"github.com/ppiankov/clauseguard/internal/rules"
)

// Engine is the part of pipeline.Engine the server needs
type Engine interface {
	Analyze(ctx context.Context, text string, lang model.Language) (*model.ContractReport, error)
	Store() *rules.Store
}

// AnalyzeRequest is the body of POST /v1/analyze
type AnalyzeRequest struct {
	Text     string         `json:"text"`
	Language model.Language `json:"language,omitempty"`
}

// CatalogInfo describes the active rule catalog
type CatalogInfo struct {
	Version string `json:"version"`
	Hash    string `json:"hash"`
	Rules   int    `json:"rules"`
}

type errorResponse struct {
	Error string `json:"error"`
	Stage string `json:"stage,omitempty"`
}

// Server serves the HTTP API
type Server struct {
	engine   Engine
	cfg      model.ServerConfig
	renderer *pipeline.Renderer
	logger   *slog.Logger
	router   *mux.Router
}

// New creates a server for engine
func New(engine Engine, cfg model.ServerConfig, includeFooter bool, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		engine:   engine,
		cfg:      cfg,
		renderer: pipeline.NewRendererTo(includeFooter, io.Discard),
		logger:   logger,
		router:   mux.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Use(s.logRequests)
	s.router.Use(s.recoverer)

	s.router.HandleFunc("/healthz", s.health).Methods(http.MethodGet)
	s.router.HandleFunc("/v1/analyze", s.analyze).Methods(http.MethodPost)
	s.router.HandleFunc("/v1/rules", s.catalog).Methods(http.MethodGet)
	s.router.HandleFunc("/v1/rules/reload", s.reload).Methods(http.MethodPost)
}

// Handler returns the routed handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadTimeout:       s.cfg.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      s.cfg.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":          "ok",
		"catalog_version": s.engine.Store().Current().Version,
	})
}

func (s *Server) analyze(w http.ResponseWriter, r *http.Request) {
	if s.cfg.MaxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	}

	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Errorf("request body exceeds %d bytes", tooLarge.Limit), "")
			return
		}
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err), "")
		return
	}

	report, err := s.engine.Analyze(r.Context(), req.Text, req.Language)
	if err != nil {
		status, stage := classifyError(err)
		if status >= http.StatusInternalServerError {
			s.logger.Error("analysis failed", "error", err)
		}
		writeError(w, status, err, stage)
		return
	}

	if r.URL.Query().Get("format") == "markdown" {
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, s.renderer.Markdown(report))
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) catalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, catalogInfo(s.engine.Store().Current()))
}

func (s *Server) reload(w http.ResponseWriter, r *http.Request) {
	c, err := s.engine.Store().Reload()
	if err != nil {
		s.logger.Warn("catalog reload failed, keeping active catalog", "error", err)
		writeError(w, http.StatusUnprocessableEntity, err, "rules")
		return
	}
	s.logger.Info("catalog reloaded", "version", c.Version, "hash", c.Hash)
	writeJSON(w, http.StatusOK, catalogInfo(c))
}

func catalogInfo(c *rules.Catalog) CatalogInfo {
	return CatalogInfo{Version: c.Version, Hash: c.Hash, Rules: len(c.Rules)}
}

// classifyError maps an analysis error to an HTTP status and failing stage
func classifyError(err error) (int, string) {
	var de *model.DocumentError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, ""
	case errors.Is(err, context.Canceled):
		return 499, ""
	case errors.As(err, &de):
		return http.StatusUnprocessableEntity, de.Stage
	case errors.Is(err, model.ErrEmptyDocument), errors.Is(err, model.ErrUnsupportedLanguage):
		return http.StatusUnprocessableEntity, ""
	default:
		return http.StatusInternalServerError, ""
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}

func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic recovered", "panic", rec, "path", r.URL.Path)
				writeError(w, http.StatusInternalServerError, errors.New("internal server error"), "")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error, stage string) {
	writeJSON(w, status, errorResponse{Error: err.Error(), Stage: stage})
}
