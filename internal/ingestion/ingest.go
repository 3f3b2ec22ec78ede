// Package ingestion fetches job posting pages and stores them as raw postings
// awaiting extraction.
package ingestion

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"

	"go.uber.org/zap"

	"github.com/IBM07/HireWire/internal/fetch"
	"github.com/IBM07/HireWire/internal/types"
)

// maxTitleRunes matches the posting title limit enforced on insert.
const maxTitleRunes = 500

var (
	// ErrHTTPRequestFailed is returned when the page cannot be fetched
	ErrHTTPRequestFailed = errors.New("HTTP request failed")
	// ErrContentExtractionFailed is returned when no posting text can be extracted
	ErrContentExtractionFailed = errors.New("content extraction failed")
)

// Store is the slice of the posting store the ingester writes to.
type Store interface {
	InsertRawPosting(ctx context.Context, req *types.CreatePostingRequest) (*types.CreatePostingResult, error)
}

// Fetcher retrieves a page; *fetch.CachedFetcher satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*fetch.CachedResult, error)
}

// Result describes one ingested URL.
type Result struct {
	URL         string `json:"url"`
	ID          string `json:"id,omitempty"`
	Duplicate   bool   `json:"duplicate"`
	Title       string `json:"title"`
	CompanyHint string `json:"company_hint,omitempty"`
	Platform    string `json:"platform"`
	TextLength  int    `json:"text_length"`
	Rendered    bool   `json:"rendered"`
}

// Ingester turns job posting URLs into stored raw postings.
type Ingester struct {
	store   Store
	fetcher Fetcher
	render  fetch.Renderer
	logger  *zap.Logger
}

// Option configures an Ingester.
type Option func(*Ingester)

// WithFetcher replaces the default uncached fetcher.
func WithFetcher(f Fetcher) Option {
	return func(i *Ingester) { i.fetcher = f }
}

// WithRenderer enables the headless browser fallback for pages whose
// static HTML carries too little text.
func WithRenderer(r fetch.Renderer) Option {
	return func(i *Ingester) { i.render = r }
}

// WithLogger sets the ingester's logger.
func WithLogger(logger *zap.Logger) Option {
	return func(i *Ingester) {
		if logger != nil {
			i.logger = logger
		}
	}
}

// New creates an Ingester writing to store.
func New(store Store, opts ...Option) *Ingester {
	i := &Ingester{
		store:   store,
		fetcher: fetch.NewCachedFetcher(nil, nil, 0),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// IngestURL fetches a posting page, extracts its text and title, and stores it
// as a raw posting. An already stored URL yields Result.Duplicate and no error.
func (i *Ingester) IngestURL(ctx context.Context, rawURL, searchQuery string) (*Result, error) {
	rawURL = strings.TrimSpace(rawURL)
	platform := fetch.DetectPlatform(rawURL)
	log := i.logger.With(zap.String("url", rawURL), zap.String("platform", string(platform)))

	page, err := i.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrHTTPRequestFailed, err)
	}
	log.Debug("fetched page", zap.Int("bytes", len(page.HTML)), zap.Bool("from_cache", page.FromCache))

	contentSelectors := fetch.PlatformContentSelectors(platform)
	noiseSelectors := fetch.PlatformNoiseSelectors(platform)

	html := page.HTML
	text, err := fetch.ExtractMainText(html, contentSelectors, noiseSelectors...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrContentExtractionFailed, err)
	}

	rendered := false
	if i.render != nil && fetch.ShouldUseBrowser(text) {
		log.Debug("content too short, rendering in browser", zap.Int("chars", len(text)))
		browserHTML, err := i.render(ctx, rawURL)
		if err != nil {
			log.Warn("browser rendering failed, using static HTML", zap.Error(err))
		} else if browserText, err := fetch.ExtractMainText(browserHTML, contentSelectors, noiseSelectors...); err == nil && len(browserText) > len(text) {
			html, text, rendered = browserHTML, browserText, true
		}
	}

	text = CleanText(text)
	if text == "" {
		return nil, fmt.Errorf("%w: page has no text", ErrContentExtractionFailed)
	}

	heading, pageTitle, err := fetch.ExtractTitle(html)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrContentExtractionFailed, err)
	}

	res := &Result{
		URL:         rawURL,
		Title:       postingTitle(heading, pageTitle, rawURL),
		CompanyHint: CompanyFromTitle(pageTitle),
		Platform:    string(platform),
		TextLength:  len(text),
		Rendered:    rendered,
	}

	req := &types.CreatePostingRequest{
		JobURL:         rawURL,
		Title:          res.Title,
		RawDescription: text,
		SearchQuery:    strings.TrimSpace(searchQuery),
	}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid posting: %w", err)
	}

	stored, err := i.store.InsertRawPosting(ctx, req)
	if err != nil {
		return nil, err
	}
	res.ID = stored.ID
	res.Duplicate = stored.Duplicate

	log.Info("posting ingested",
		zap.String("title", res.Title),
		zap.String("company_hint", res.CompanyHint),
		zap.Bool("duplicate", res.Duplicate),
		zap.Bool("rendered", res.Rendered))
	return res, nil
}

// postingTitle prefers the page heading, then the role part of <title>, then
// the last URL path segment.
func postingTitle(heading, pageTitle, rawURL string) string {
	title := heading
	if title == "" {
		title = RoleFromTitle(pageTitle)
	}
	if title == "" {
		if u, err := url.Parse(rawURL); err == nil {
			title = strings.ReplaceAll(path.Base(strings.TrimSuffix(u.Path, "/")), "-", " ")
		}
	}
	if title == "" || title == "." || title == "/" {
		title = "Untitled posting"
	}
	if r := []rune(title); len(r) > maxTitleRunes {
		title = string(r[:maxTitleRunes])
	}
	return title
}
