// Package server provides the HTTP API for ranked job search.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/IBM07/HireWire/internal/cache"
	"github.com/IBM07/HireWire/internal/config"
	"github.com/IBM07/HireWire/internal/ranking"
	"github.com/IBM07/HireWire/internal/server/middleware"
	"github.com/IBM07/HireWire/internal/server/ratelimit"
	"github.com/IBM07/HireWire/internal/types"
)

// Store is the storage contract the HTTP layer reads and writes through.
type Store interface {
	ranking.PostingSource
	GetPosting(ctx context.Context, id uuid.UUID) (*types.JobPosting, error)
	DistinctValues(ctx context.Context) (*types.FilterValues, error)
	Counts(ctx context.Context) (*types.PostingCounts, error)
	InsertRawPosting(ctx context.Context, req *types.CreatePostingRequest) (*types.CreatePostingResult, error)
}

// Cache endpoint identifiers. They double as invalidation prefixes.
const (
	CacheFilters = "filters"
	CacheStats   = "stats"
	CachePosting = "posting"
)

// Config holds server configuration
type Config struct {
	Port            int
	DefaultPageSize int
	MaxPageSize     int
	FiltersTTL      time.Duration
	StatsTTL        time.Duration
	PostingTTL      time.Duration
	JWT             *config.JWTConfig // nil disables the admin endpoints
	RateLimit       *ratelimit.Config
}

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	store       Store
	pipeline    *ranking.Pipeline
	cache       *cache.Cache
	rateLimiter *ratelimit.Limiter
	jwtService  *JWTService
	logger      *zap.Logger
	cfg         Config
}

// New creates a server. responseCache may be nil, in which case every
// auxiliary lookup goes to storage.
func New(cfg Config, store Store, responseCache *cache.Cache, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxPageSize < 1 {
		cfg.MaxPageSize = types.DefaultMaxPageSize
	}
	if cfg.DefaultPageSize < 1 || cfg.DefaultPageSize > cfg.MaxPageSize {
		cfg.DefaultPageSize = min(types.DefaultPageSize, cfg.MaxPageSize)
	}

	s := &Server{
		store:       store,
		cache:       responseCache,
		rateLimiter: ratelimit.NewLimiter(cfg.RateLimit),
		logger:      logger,
		cfg:         cfg,
		pipeline: ranking.NewPipeline(store,
			ranking.WithMaxPageSize(cfg.MaxPageSize),
			ranking.WithLogger(logger.Named("ranking"))),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)

	// Search
	mux.HandleFunc("GET /jobs", s.handleSearchJobs)
	mux.HandleFunc("GET /jobs/filters", s.handleFilters)
	mux.HandleFunc("GET /jobs/stats", s.handleStats)
	mux.HandleFunc("GET /jobs/{id}", s.handleGetJob)

	// Admin
	if cfg.JWT != nil {
		s.jwtService = NewJWTService(cfg.JWT)
		admin := middleware.RequireAdmin(s.jwtService.AsTokenValidator())
		mux.Handle("POST /job-postings", admin(http.HandlerFunc(s.handleCreatePosting)))
		mux.Handle("POST /cache/clear", admin(http.HandlerFunc(s.handleClearCache)))
	} else {
		logger.Warn("no JWT secret configured, admin endpoints disabled")
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.withRecover(s.withCORS(s.withRateLimit(s.withLogging(mux)))),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start serves requests until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		s.Close()
		if ok {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	err := s.httpServer.Shutdown(shutdownCtx)
	s.Close()
	if err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}

// Close releases background resources owned by the server. The store and
// cache belong to the caller.
func (s *Server) Close() {
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"status": "ok",
		"cache":  s.cache.Stats(),
	})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode JSON response", zap.Error(err))
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// failure logs err and writes the status HTTPStatus assigns to it. Internal
// details are only exposed for client errors.
func (s *Server) failure(w http.ResponseWriter, r *http.Request, err error) {
	status := HTTPStatus(err)
	switch {
	case status == http.StatusServiceUnavailable:
		s.logger.Error("storage unavailable", zap.String("path", r.URL.Path), zap.Error(err))
		s.errorResponse(w, status, "storage unavailable")
	case status >= http.StatusInternalServerError:
		s.logger.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		s.errorResponse(w, status, "internal server error")
	default:
		s.errorResponse(w, status, err.Error())
	}
}

// extractClientID extracts the client identifier from the request.
// X-Forwarded-For is ignored because no trusted proxy list is configured.
func (s *Server) extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
