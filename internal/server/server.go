// Package server exposes the chat pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/cors"

	"github.com/quantumgateway/hotelchat/internal/assistant/cache"
	"github.com/quantumgateway/hotelchat/internal/assistant/canned"
	"github.com/quantumgateway/hotelchat/internal/assistant/knowledge"
	"github.com/quantumgateway/hotelchat/internal/assistant/llm"
	"github.com/quantumgateway/hotelchat/internal/assistant/model"
	"github.com/quantumgateway/hotelchat/internal/core"
	logx "github.com/quantumgateway/hotelchat/pkg/logger"
)

const (
	maxBodyBytes = 64 << 10

	// maxResponseMargin caps the part of the write timeout kept for
	// rendering the response after the model deadline.
	maxResponseMargin = 5 * time.Second
)

// RequestBudget is how long a chat request may spend resolving so that the
// answer is still written before cfg.WriteTimeout closes the connection. Zero
// means no write timeout is configured.
func RequestBudget(cfg model.ServerConfig) time.Duration {
	if cfg.WriteTimeout <= 0 {
		return 0
	}
	margin := min(cfg.WriteTimeout/5, maxResponseMargin)
	return cfg.WriteTimeout - margin
}

// Resolver answers one chat request.
type Resolver interface {
	Resolve(ctx context.Context, req model.ChatRequest) (*model.Resolution, error)
}

// Deps are the components the handlers read from. Pool and Transcripts are
// optional.
type Deps struct {
	Pipeline    Resolver
	Cache       *cache.Store
	Knowledge   *knowledge.Base
	Canned      *canned.Resolver
	Pool        *llm.Pool
	Transcripts model.TranscriptRepository
	Environment core.Environment
	Backend     string
}

// Server is the hotel chat HTTP API.
type Server struct {
	cfg     model.ServerConfig
	deps    Deps
	mux     *http.ServeMux
	handler http.Handler
}

func New(cfg model.ServerConfig, deps Deps) *Server {
	s := &Server{
		cfg:  cfg,
		deps: deps,
		mux:  http.NewServeMux(),
	}
	s.mux.HandleFunc("POST /chat", s.handleChat)
	s.mux.HandleFunc("GET /page-knowledge", s.handlePageKnowledge)
	s.mux.HandleFunc("GET /cache-stats", s.handleCacheStats)
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("GET /sessions/{id}/transcript", s.handleTranscript)

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{cfg.AllowedOrigin},
		AllowCredentials: true,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch,
			http.MethodDelete, http.MethodOptions, http.MethodHead,
		},
		AllowedHeaders: []string{"*"},
	})
	s.handler = c.Handler(logRequests(recoverer(s.mux)))
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logx.Info().Str("addr", s.cfg.Addr).Str("allowed_origin", s.cfg.AllowedOrigin).Msg("hotel chat listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		timeout := s.cfg.ShutdownTimeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		shutCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		logx.Info().Msg("shutting down")
		return srv.Shutdown(shutCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
