package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IBM07/HireWire/internal/cache"
	"github.com/IBM07/HireWire/internal/config"
	"github.com/IBM07/HireWire/internal/server/ratelimit"
	"github.com/IBM07/HireWire/internal/types"
)

// fakeStore is an in-memory Store. QueryPostings returns every posting and
// records the filter it was called with.
type fakeStore struct {
	mu         sync.Mutex
	postings   []types.JobPosting
	err        error
	lastFilter types.PostingFilter
	calls      map[string]int
	inserted   map[string]bool
	panicOn    string
}

func newFakeStore(postings ...types.JobPosting) *fakeStore {
	return &fakeStore{postings: postings, calls: map[string]int{}, inserted: map[string]bool{}}
}

func (f *fakeStore) record(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.panicOn == op {
		panic("fake store panic")
	}
	f.calls[op]++
	return f.err
}

func (f *fakeStore) callCount(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeStore) QueryPostings(_ context.Context, filter types.PostingFilter) ([]types.JobPosting, error) {
	if err := f.record("query"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.lastFilter = filter
	f.mu.Unlock()
	return append([]types.JobPosting(nil), f.postings...), nil
}

func (f *fakeStore) GetPosting(_ context.Context, id uuid.UUID) (*types.JobPosting, error) {
	if err := f.record("get"); err != nil {
		return nil, err
	}
	for i := range f.postings {
		if f.postings[i].ID == id {
			p := f.postings[i]
			return &p, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) DistinctValues(context.Context) (*types.FilterValues, error) {
	if err := f.record("distinct"); err != nil {
		return nil, err
	}
	return &types.FilterValues{
		Companies: []string{"Acme", "Globex"},
		Locations: []string{"Berlin"},
		JobTypes:  []string{},
	}, nil
}

func (f *fakeStore) Counts(context.Context) (*types.PostingCounts, error) {
	if err := f.record("counts"); err != nil {
		return nil, err
	}
	return &types.PostingCounts{TotalJobs: len(f.postings), RemoteJobs: 1, PendingExtraction: 2}, nil
}

func (f *fakeStore) InsertRawPosting(_ context.Context, req *types.CreatePostingRequest) (*types.CreatePostingResult, error) {
	if err := f.record("insert"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.inserted[req.JobURL] {
		return &types.CreatePostingResult{Duplicate: true}, nil
	}
	f.inserted[req.JobURL] = true
	return &types.CreatePostingResult{ID: uuid.NewString()}, nil
}

func strPtr(s string) *string { return &s }

func testPosting(title, company, skills string) types.JobPosting {
	return types.JobPosting{
		ID:       uuid.New(),
		Title:    title,
		Company:  company,
		Location: "Remote",
		IsRemote: true,
		Skills:   types.RawSkills(skills),
		ApplyURL: "https://jobs.example.com/" + title,
	}
}

type testServer struct {
	*Server
	store *fakeStore
	cache *cache.Cache
}

func newTestServer(t *testing.T, store *fakeStore, withAdmin bool) *testServer {
	t.Helper()
	c := cache.New(cache.WithCleanupInterval(0))
	t.Cleanup(c.Close)

	cfg := Config{
		Port:            0,
		DefaultPageSize: 20,
		MaxPageSize:     50,
		FiltersTTL:      time.Minute,
		StatsTTL:        time.Minute,
		PostingTTL:      time.Minute,
	}
	if withAdmin {
		cfg.JWT = &config.JWTConfig{Secret: testJWTSecret, ExpirationHours: 1}
	}

	s := New(cfg, store, c, nil)
	t.Cleanup(s.Close)
	return &testServer{Server: s, store: store, cache: c}
}

func (ts *testServer) do(t *testing.T, method, target string, body []byte, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	ts.Handler().ServeHTTP(w, req)
	return w
}

func (ts *testServer) adminToken(t *testing.T) string {
	t.Helper()
	token, err := ts.jwtService.GenerateAdminToken("test")
	require.NoError(t, err)
	return token
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t, newFakeStore(), false)

	w := ts.do(t, http.MethodGet, "/health", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	body := decode[map[string]any](t, w)
	assert.Equal(t, "ok", body["status"])
	assert.Contains(t, body, "cache")
}

func TestSearchJobs_ResponseShape(t *testing.T) {
	posted := time.Date(2025, 2, 3, 4, 5, 6, 0, time.UTC)
	withDate := testPosting("Backend Engineer", "Acme", `["python","docker","aws"]`)
	withDate.PostedAt = &posted
	withDate.JobType = strPtr("Full-time")
	noSkills := testPosting("Designer", "Globex", `[]`)

	ts := newTestServer(t, newFakeStore(withDate, noSkills), false)

	w := ts.do(t, http.MethodGet, "/jobs?skills=Python,%20aws", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
	assert.JSONEq(t, `{"current_page":1,"per_page":20,"total_jobs":2,"total_pages":1,"has_next":false,"has_prev":false}`,
		string(raw["pagination"]))

	var jobs []map[string]any
	require.NoError(t, json.Unmarshal(raw["jobs"], &jobs))
	require.Len(t, jobs, 2)

	first := jobs[0]
	assert.Equal(t, "Backend Engineer", first["title"])
	assert.Equal(t, "66%", first["match_score"])
	assert.Equal(t, []any{"docker"}, first["skills_missing"])
	assert.Equal(t, "2025-02-03T04:05:06Z", first["posted_date"])
	assert.Equal(t, "Full-time", first["job_type"])
	assert.Equal(t, true, first["is_remote"])

	second := jobs[1]
	assert.Equal(t, "0%", second["match_score"])
	assert.Equal(t, []any{}, second["skills_missing"])
	assert.Nil(t, second["posted_date"])
	assert.Nil(t, second["job_type"])
	assert.Contains(t, second, "posted_date")
}

func TestSearchJobs_PassesFilters(t *testing.T) {
	store := newFakeStore(testPosting("a", "Acme", `[]`))
	ts := newTestServer(t, store, false)

	w := ts.do(t, http.MethodGet, "/jobs?search=%20go%20&location=Berlin&remote_only=true&company=acme&job_type=Contract", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, types.PostingFilter{
		Search:     "go",
		Location:   "Berlin",
		RemoteOnly: true,
		Company:    "acme",
		JobType:    "Contract",
	}, store.lastFilter)
}

func TestSearchJobs_PermissiveParameters(t *testing.T) {
	store := newFakeStore()
	for i := 0; i < 3; i++ {
		store.postings = append(store.postings, testPosting("job", "Acme", `[]`))
	}
	ts := newTestServer(t, store, false)

	tests := []struct {
		query      string
		wantPage   int
		wantSize   int
		wantRemote bool
	}{
		{"/jobs?page=abc&per_page=xyz", 1, 20, false},
		{"/jobs?page=0&per_page=0", 1, 1, false},
		{"/jobs?page=-4&per_page=1000", 1, 50, false},
		{"/jobs?remote_only=yes", 1, 20, false},
		{"/jobs?remote_only=1&sort=bogus&min_score=-3", 1, 20, true},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			w := ts.do(t, http.MethodGet, tt.query, nil, "")
			require.Equal(t, http.StatusOK, w.Code)

			resp := decode[SearchResponse](t, w)
			assert.Equal(t, tt.wantPage, resp.Pagination.CurrentPage)
			assert.Equal(t, tt.wantSize, resp.Pagination.PageSize)
			assert.Equal(t, tt.wantRemote, store.lastFilter.RemoteOnly)
		})
	}
}

func TestSearchJobs_OutOfRangePage(t *testing.T) {
	ts := newTestServer(t, newFakeStore(testPosting("a", "Acme", `[]`)), false)

	w := ts.do(t, http.MethodGet, "/jobs?page=5", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[SearchResponse](t, w)
	assert.Empty(t, resp.Jobs)
	assert.NotNil(t, resp.Jobs)
	assert.True(t, resp.Pagination.HasPrev)
	assert.Equal(t, 1, resp.Pagination.TotalPages)
}

func TestSearchJobs_StorageFailure(t *testing.T) {
	store := newFakeStore()
	store.err = errors.New("connection refused")
	ts := newTestServer(t, store, false)

	w := ts.do(t, http.MethodGet, "/jobs?skills=go", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	body := decode[map[string]any](t, w)
	assert.Equal(t, "storage unavailable", body["error"])
	assert.NotContains(t, body, "jobs")
}

func TestSearchJobs_NotCached(t *testing.T) {
	store := newFakeStore(testPosting("a", "Acme", `[]`))
	ts := newTestServer(t, store, false)

	ts.do(t, http.MethodGet, "/jobs", nil, "")
	ts.do(t, http.MethodGet, "/jobs", nil, "")
	assert.Equal(t, 2, store.callCount("query"))
}

func TestFilters_Cached(t *testing.T) {
	store := newFakeStore()
	ts := newTestServer(t, store, false)

	for i := 0; i < 3; i++ {
		w := ts.do(t, http.MethodGet, "/jobs/filters", nil, "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"companies":["Acme","Globex"],"locations":["Berlin"],"job_types":[]}`, w.Body.String())
	}
	assert.Equal(t, 1, store.callCount("distinct"))
}

func TestStats_ErrorNotCached(t *testing.T) {
	store := newFakeStore(testPosting("a", "Acme", `[]`))
	store.err = errors.New("timeout")
	ts := newTestServer(t, store, false)

	w := ts.do(t, http.MethodGet, "/jobs/stats", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	store.err = nil
	w = ts.do(t, http.MethodGet, "/jobs/stats", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"total_jobs":1,"remote_jobs":1,"pending_extraction":2}`, w.Body.String())
	assert.Equal(t, 2, store.callCount("counts"))
}

func TestGetJob(t *testing.T) {
	posting := testPosting("Platform Engineer", "Acme", `["Go","Kubernetes"]`)
	broken := testPosting("Broken", "Acme", `{not json`)
	store := newFakeStore(posting, broken)
	ts := newTestServer(t, store, false)

	t.Run("invalid id", func(t *testing.T) {
		w := ts.do(t, http.MethodGet, "/jobs/not-a-uuid", nil, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing", func(t *testing.T) {
		w := ts.do(t, http.MethodGet, "/jobs/"+uuid.NewString(), nil, "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("found and cached", func(t *testing.T) {
		before := store.callCount("get")
		for i := 0; i < 2; i++ {
			w := ts.do(t, http.MethodGet, "/jobs/"+posting.ID.String(), nil, "")
			require.Equal(t, http.StatusOK, w.Code)
			resp := decode[PostingResponse](t, w)
			assert.Equal(t, posting.ID, resp.ID)
			assert.Equal(t, []string{"Go", "Kubernetes"}, resp.Skills)
		}
		assert.Equal(t, before+1, store.callCount("get"))
	})

	t.Run("malformed skills degrade to empty", func(t *testing.T) {
		w := ts.do(t, http.MethodGet, "/jobs/"+broken.ID.String(), nil, "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, []string{}, decode[PostingResponse](t, w).Skills)
	})
}

func TestAdminRoutes_DisabledWithoutSecret(t *testing.T) {
	ts := newTestServer(t, newFakeStore(), false)

	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodPost, "/cache/clear", nil, "").Code)
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodPost, "/job-postings", []byte(`{}`), "").Code)
}

func TestAdminRoutes_RequireToken(t *testing.T) {
	ts := newTestServer(t, newFakeStore(), true)

	assert.Equal(t, http.StatusUnauthorized, ts.do(t, http.MethodPost, "/cache/clear", nil, "").Code)
	assert.Equal(t, http.StatusUnauthorized, ts.do(t, http.MethodPost, "/cache/clear", nil, "garbage").Code)
}

func TestCreatePosting(t *testing.T) {
	store := newFakeStore()
	ts := newTestServer(t, store, true)
	token := ts.adminToken(t)

	// Prime the stats cache so we can observe invalidation.
	ts.do(t, http.MethodGet, "/jobs/stats", nil, "")
	require.Equal(t, 1, store.callCount("counts"))

	body := []byte(`{"job_url":"https://jobs.example.com/1","job_title":"SRE","raw_description":"Run things.","search_query":"sre"}`)

	w := ts.do(t, http.MethodPost, "/job-postings", body, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[types.CreatePostingResult](t, w)
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.Duplicate)

	ts.do(t, http.MethodGet, "/jobs/stats", nil, "")
	assert.Equal(t, 2, store.callCount("counts"), "stats cache invalidated after insert")

	w = ts.do(t, http.MethodPost, "/job-postings", body, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[types.CreatePostingResult](t, w).Duplicate)
}

func TestCreatePosting_Validation(t *testing.T) {
	ts := newTestServer(t, newFakeStore(), true)
	token := ts.adminToken(t)

	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{`},
		{"missing url", `{"job_title":"SRE","raw_description":"x"}`},
		{"bad url", `{"job_url":"not a url","job_title":"SRE","raw_description":"x"}`},
		{"missing description", `{"job_url":"https://jobs.example.com/1","job_title":"SRE"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ts.do(t, http.MethodPost, "/job-postings", []byte(tt.body), token)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, decode[map[string]any](t, w), "error")
		})
	}
	assert.Equal(t, 0, ts.store.callCount("insert"))
}

func TestClearCache(t *testing.T) {
	store := newFakeStore()
	ts := newTestServer(t, store, true)
	token := ts.adminToken(t)

	ts.do(t, http.MethodGet, "/jobs/filters", nil, "")
	ts.do(t, http.MethodGet, "/jobs/stats", nil, "")
	require.Equal(t, 2, ts.cache.Stats().Entries)

	w := ts.do(t, http.MethodPost, "/cache/clear?prefix=stats", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode[map[string]any](t, w)["cleared"])
	assert.Equal(t, 1, ts.cache.Stats().Entries)

	w = ts.do(t, http.MethodPost, "/cache/clear", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, ts.cache.Stats().Entries)
}

func TestRecoverMiddleware(t *testing.T) {
	store := newFakeStore()
	store.panicOn = "query"
	ts := newTestServer(t, store, false)

	w := ts.do(t, http.MethodGet, "/jobs", nil, "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal server error", decode[map[string]any](t, w)["error"])
}

func TestRecoverMiddleware_ResponseAlreadyStarted(t *testing.T) {
	s := New(Config{}, newFakeStore(), nil, nil)
	t.Cleanup(s.Close)

	handler := s.withRecover(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte("partial"))
		panic("boom")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/jobs", nil))
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "partial", w.Body.String())
}

func TestCORSMiddleware(t *testing.T) {
	ts := newTestServer(t, newFakeStore(), false)

	w := ts.do(t, http.MethodGet, "/health", nil, "")
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, w.Header().Get("Access-Control-Allow-Methods"))

	w = ts.do(t, http.MethodOptions, "/jobs", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, w.Body.Len())
}

func TestRateLimitResponse(t *testing.T) {
	s := New(Config{RateLimit: &ratelimit.Config{Enabled: true, DefaultLimit: 1, DefaultWindow: time.Hour}},
		newFakeStore(), nil, nil)
	t.Cleanup(s.Close)

	req := httptest.NewRequest(http.MethodGet, "/jobs", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Limit"))
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Equal(t, "rate_limit_exceeded", decode[map[string]any](t, w)["error"])
}

func TestRateLimit_PreflightIsFree(t *testing.T) {
	s := New(Config{RateLimit: &ratelimit.Config{Enabled: true, DefaultLimit: 1, DefaultWindow: time.Hour}},
		newFakeStore(), nil, nil)
	t.Cleanup(s.Close)

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/jobs", nil))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("X-RateLimit-Limit"))
	}

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/jobs", nil))
	assert.Equal(t, http.StatusOK, w.Code, "preflights must not spend the search bucket")
}
