package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/IBM07/HireWire/internal/ranking"
	"github.com/IBM07/HireWire/internal/server/middleware"
	"github.com/IBM07/HireWire/internal/types"
)

// maxPostingBody bounds the size of an ingested posting.
const maxPostingBody = 2 << 20

// storageFailure marks err as a storage outage unless it already carries a
// status of its own.
func storageFailure(op string, err error) error {
	var notFound *ErrNotFound
	var storageErr *ranking.StorageError
	if errors.As(err, &notFound) || errors.As(err, &storageErr) {
		return err
	}
	return &ranking.StorageError{Op: op, Err: err}
}

// validationFailure converts validator output into an ErrValidation for the first failing field.
func validationFailure(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return &ErrValidation{Field: verrs[0].Field(), Message: verrs[0].Tag()}
	}
	return &ErrValidation{Field: "body", Message: err.Error()}
}

// handleCreatePosting stores a raw posting for later extraction.
func (s *Server) handleCreatePosting(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxPostingBody)

	var req types.CreatePostingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.JobURL = strings.TrimSpace(req.JobURL)
	req.Title = strings.TrimSpace(req.Title)

	if err := req.Validate(); err != nil {
		s.failure(w, r, validationFailure(err))
		return
	}

	result, err := s.store.InsertRawPosting(r.Context(), &req)
	if err != nil {
		s.failure(w, r, storageFailure("insert posting", err))
		return
	}

	subject, _ := middleware.GetSubject(r)
	if result.Duplicate {
		s.logger.Info("duplicate posting skipped", zap.String("url", req.JobURL), zap.String("subject", subject))
		s.jsonResponse(w, http.StatusOK, result)
		return
	}

	// The pending count shown by /jobs/stats changed.
	if _, err := s.cache.InvalidatePrefix(r.Context(), CacheStats); err != nil {
		s.logger.Warn("failed to invalidate stats cache", zap.Error(err))
	}

	s.logger.Info("posting stored", zap.String("id", result.ID), zap.String("url", req.JobURL), zap.String("subject", subject))
	s.jsonResponse(w, http.StatusCreated, result)
}

// handleClearCache wipes the response cache, or only the entries of one
// endpoint when ?prefix= is given.
func (s *Server) handleClearCache(w http.ResponseWriter, r *http.Request) {
	prefix := strings.TrimSpace(r.URL.Query().Get("prefix"))
	ctx := r.Context()

	if s.cache == nil {
		s.jsonResponse(w, http.StatusOK, map[string]any{"status": "cache disabled", "cleared": 0})
		return
	}

	if prefix != "" {
		n, err := s.cache.InvalidatePrefix(ctx, prefix)
		if err != nil {
			s.failure(w, r, err)
			return
		}
		s.jsonResponse(w, http.StatusOK, map[string]any{"status": "cleared", "prefix": prefix, "cleared": n})
		return
	}

	entries := s.cache.Stats().Entries
	if err := s.cache.Wipe(ctx); err != nil {
		s.failure(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"status": "cleared", "cleared": entries})
}
