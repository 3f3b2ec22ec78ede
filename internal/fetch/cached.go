package fetch

import (
	"context"
	"time"

	"github.com/IBM07/HireWire/internal/cache"
)

// PageCacheEndpoint is the cache prefix under which fetched pages are stored.
const PageCacheEndpoint = "page"

// DefaultPageTTL is how long a fetched page is reused.
const DefaultPageTTL = time.Hour

// CachedFetcher wraps URL fetching with the response cache so repeated
// ingestion of the same URL does not hit the job board again.
type CachedFetcher struct {
	cache   *cache.Cache
	options *Options
	ttl     time.Duration
}

// CachedResult extends Result with cache metadata.
type CachedResult struct {
	*Result
	FromCache bool
}

// NewCachedFetcher creates a fetcher. A nil cache or non-positive ttl fetches every time.
func NewCachedFetcher(c *cache.Cache, opts *Options, ttl time.Duration) *CachedFetcher {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &CachedFetcher{cache: c, options: opts, ttl: ttl}
}

// Fetch retrieves a URL, returning a cached copy when one is fresh.
// Failed fetches are never cached.
func (f *CachedFetcher) Fetch(ctx context.Context, urlStr string) (*CachedResult, error) {
	fetched := false
	result, err := cache.GetOrCompute(ctx, f.cache, PageCacheEndpoint, map[string]string{"url": urlStr}, f.ttl,
		func(ctx context.Context) (*Result, error) {
			fetched = true
			return URL(ctx, urlStr, f.options)
		})
	if err != nil {
		return nil, err
	}
	return &CachedResult{Result: result, FromCache: !fetched}, nil
}
