package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"nyayai/internal/assistant"
	"nyayai/internal/core/registry"
	"nyayai/internal/store"
)

// Options configures the HTTP surface.
type Options struct {
	Addr string
	// ContextSections is how many matching sections are cited in answers.
	ContextSections int
	// MaxUploadBytes caps uploaded documents.
	MaxUploadBytes int64
	RPS            float64
	Burst          int
}

// Server exposes the assistant, the IPC store and document analysis over HTTP.
type Server struct {
	opts     Options
	store    *store.Store
	sessions *assistant.Sessions
	registry *registry.Registry
	offline  *assistant.Handler
	log      *zap.Logger

	server *http.Server
}

// New creates a Server. Requests without a session are served by an offline
// handler.
func New(opts Options, st *store.Store, sessions *assistant.Sessions, reg *registry.Registry, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.ContextSections <= 0 {
		opts.ContextSections = 3
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 10 << 20
	}
	if reg == nil {
		reg = registry.Default()
	}
	return &Server{
		opts:     opts,
		store:    st,
		sessions: sessions,
		registry: reg,
		offline:  assistant.NewHandler(nil, assistant.Options{Logger: log}),
		log:      log.Named("server"),
	}
}

// Handler returns the routed handler wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /{$}", s.handleRoot)

	mux.HandleFunc("GET /v1/providers", s.handleProviders)
	mux.HandleFunc("POST /v1/sessions", s.handleCreateSession)
	mux.HandleFunc("DELETE /v1/sessions/{id}", s.handleDeleteSession)

	mux.HandleFunc("POST /v1/ask", s.handleAsk)
	mux.HandleFunc("GET /v1/sections", s.handleSections)
	mux.HandleFunc("GET /v1/sections/{number}", s.handleSection)
	mux.HandleFunc("POST /v1/sections/{number}/explain", s.handleExplain)
	mux.HandleFunc("GET /v1/flashcards", s.handleFlashcards)
	mux.HandleFunc("GET /v1/templates", s.handleTemplates)
	mux.HandleFunc("GET /v1/templates/categories", s.handleCategories)
	mux.HandleFunc("POST /v1/documents", s.handleDocument)

	return chain(mux,
		requestID,
		accessLog(s.log),
		recoverer(s.log),
		rateLimit(s.opts.RPS, s.opts.Burst),
	)
}

// Start serves until SIGINT or SIGTERM, then shuts down gracefully.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.opts.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("Starting NyayAI", zap.String("addr", s.opts.Addr))
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-stop:
	}
	s.log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return s.server.Shutdown(ctx)
}
