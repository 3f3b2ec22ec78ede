package server

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/IBM07/HireWire/internal/cache"
	"github.com/IBM07/HireWire/internal/types"
)

// JobResponse is one ranked search result.
type JobResponse struct {
	ID            uuid.UUID `json:"id"`
	Title         string    `json:"title"`
	Company       string    `json:"company"`
	Location      string    `json:"location"`
	IsRemote      bool      `json:"is_remote"`
	JobType       *string   `json:"job_type"`
	MatchScore    string    `json:"match_score"`
	SkillsMissing []string  `json:"skills_missing"`
	ApplyURL      string    `json:"apply_url"`
	PostedDate    *string   `json:"posted_date"`
}

// SearchResponse is the body of GET /jobs.
type SearchResponse struct {
	Pagination types.Pagination `json:"pagination"`
	Jobs       []JobResponse    `json:"jobs"`
}

// PostingResponse is the body of GET /jobs/{id}.
type PostingResponse struct {
	ID         uuid.UUID `json:"id"`
	Title      string    `json:"title"`
	Company    string    `json:"company"`
	Location   string    `json:"location"`
	IsRemote   bool      `json:"is_remote"`
	JobType    *string   `json:"job_type"`
	Seniority  *string   `json:"seniority"`
	Skills     []string  `json:"skills"`
	ApplyURL   string    `json:"apply_url"`
	PostedDate *string   `json:"posted_date"`
}

// parseQueryInt parses an integer query parameter. Missing or malformed values
// yield defaultValue; range clamping is left to FilterCriteria.Normalize.
func parseQueryInt(r *http.Request, key string, defaultValue int) int {
	valStr := strings.TrimSpace(r.URL.Query().Get(key))
	if valStr == "" {
		return defaultValue
	}
	val, err := strconv.Atoi(valStr)
	if err != nil {
		return defaultValue
	}
	return val
}

// parseQueryBool treats anything strconv cannot parse as false.
func parseQueryBool(r *http.Request, key string) bool {
	val, err := strconv.ParseBool(strings.TrimSpace(r.URL.Query().Get(key)))
	return err == nil && val
}

// parseCriteria reads search parameters permissively: nothing here rejects a request.
func (s *Server) parseCriteria(r *http.Request) types.FilterCriteria {
	q := r.URL.Query()
	return types.FilterCriteria{
		Skills:     q.Get("skills"),
		Search:     q.Get("search"),
		Location:   q.Get("location"),
		RemoteOnly: parseQueryBool(r, "remote_only"),
		Company:    q.Get("company"),
		JobType:    q.Get("job_type"),
		Sort:       types.ParseSortMode(q.Get("sort")),
		Page:       parseQueryInt(r, "page", 1),
		PageSize:   parseQueryInt(r, "per_page", s.cfg.DefaultPageSize),
		MinScore:   parseQueryInt(r, "min_score", 0),
	}
}

// handleSearchJobs runs the ranked search. Results are never cached.
func (s *Server) handleSearchJobs(w http.ResponseWriter, r *http.Request) {
	page, err := s.pipeline.Run(r.Context(), s.parseCriteria(r))
	if err != nil {
		s.failure(w, r, err)
		return
	}

	jobs := make([]JobResponse, 0, len(page.Records))
	for _, rec := range page.Records {
		jobs = append(jobs, newJobResponse(rec))
	}

	s.jsonResponse(w, http.StatusOK, SearchResponse{
		Pagination: page.Pagination,
		Jobs:       jobs,
	})
}

func newJobResponse(rec types.EnhancedRecord) JobResponse {
	missing := rec.MissingSkills
	if missing == nil {
		missing = []string{}
	}
	p := rec.Posting
	return JobResponse{
		ID:            p.ID,
		Title:         p.Title,
		Company:       p.Company,
		Location:      p.Location,
		IsRemote:      p.IsRemote,
		JobType:       p.JobType,
		MatchScore:    strconv.Itoa(rec.MatchScore) + "%",
		SkillsMissing: missing,
		ApplyURL:      p.ApplyURL,
		PostedDate:    formatDate(p.PostedAt),
	}
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}

// handleFilters lists distinct company, location and job type values.
func (s *Server) handleFilters(w http.ResponseWriter, r *http.Request) {
	values, err := cache.GetOrCompute(r.Context(), s.cache, CacheFilters, nil, s.cfg.FiltersTTL,
		s.store.DistinctValues)
	if err != nil {
		s.failure(w, r, storageFailure("distinct values", err))
		return
	}
	s.jsonResponse(w, http.StatusOK, values)
}

// handleStats returns aggregate posting counts.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	counts, err := cache.GetOrCompute(r.Context(), s.cache, CacheStats, nil, s.cfg.StatsTTL,
		s.store.Counts)
	if err != nil {
		s.failure(w, r, storageFailure("counts", err))
		return
	}
	s.jsonResponse(w, http.StatusOK, counts)
}

// handleGetJob returns one extracted posting.
func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	idStr := r.PathValue("id")
	postingID, err := uuid.Parse(idStr)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid job posting ID")
		return
	}

	filters := map[string]string{"id": postingID.String()}
	resp, err := cache.GetOrCompute(r.Context(), s.cache, CachePosting, filters, s.cfg.PostingTTL,
		func(ctx context.Context) (*PostingResponse, error) {
			posting, err := s.store.GetPosting(ctx, postingID)
			if err != nil {
				return nil, storageFailure("get posting", err)
			}
			if posting == nil {
				return nil, &ErrNotFound{Resource: "job posting", ID: postingID.String()}
			}
			return newPostingResponse(posting), nil
		})
	if err != nil {
		s.failure(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

func newPostingResponse(p *types.JobPosting) *PostingResponse {
	skills, err := p.Skills.Decode()
	if err != nil || skills == nil {
		skills = []string{}
	}
	return &PostingResponse{
		ID:         p.ID,
		Title:      p.Title,
		Company:    p.Company,
		Location:   p.Location,
		IsRemote:   p.IsRemote,
		JobType:    p.JobType,
		Seniority:  p.Seniority,
		Skills:     skills,
		ApplyURL:   p.ApplyURL,
		PostedDate: formatDate(p.PostedAt),
	}
}
