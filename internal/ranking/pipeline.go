package ranking

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/IBM07/HireWire/internal/skills"
	"github.com/IBM07/HireWire/internal/types"
)

// PostingSource returns every extracted posting matching a filter, in fetch
// order, without limiting the result.
type PostingSource interface {
	QueryPostings(ctx context.Context, filter types.PostingFilter) ([]types.JobPosting, error)
}

// StorageError reports that the posting pool could not be read.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage unavailable during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Pipeline runs ranked searches against a PostingSource.
type Pipeline struct {
	source      PostingSource
	maxPageSize int
	logger      *zap.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the pipeline logger.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithMaxPageSize sets the upper bound applied to requested page sizes.
func WithMaxPageSize(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.maxPageSize = n
		}
	}
}

// NewPipeline creates a Pipeline reading from source.
func NewPipeline(source PostingSource, opts ...Option) *Pipeline {
	p := &Pipeline{
		source:      source,
		maxPageSize: types.DefaultMaxPageSize,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes a search: fetch the filtered pool, score it, apply the minimum
// score, sort and paginate. The whole pool is fetched because ranking needs
// every candidate before truncation. A storage failure returns a
// *StorageError and no page.
func (p *Pipeline) Run(ctx context.Context, criteria types.FilterCriteria) (*types.Page, error) {
	criteria = criteria.Normalize(p.maxPageSize)

	postings, err := p.source.QueryPostings(ctx, criteria.PostingFilter())
	if err != nil {
		return nil, &StorageError{Op: "query postings", Err: err}
	}

	query := skills.ParseQuery(criteria.Skills)
	records := Enhance(postings, criteria.Search, query)

	malformed := 0
	for i := range records {
		if records[i].SkillsMalformed {
			malformed++
		}
	}

	records = FilterMinScore(records, criteria.MinScore)
	Sort(records, criteria.Sort)
	page := Paginate(records, criteria.Page, criteria.PageSize)

	p.logger.Debug("ranked search",
		zap.Int("pool", len(postings)),
		zap.Int("after_min_score", len(records)),
		zap.Int("malformed_skills", malformed),
		zap.String("sort", string(criteria.Sort)),
		zap.Bool("sort_known", criteria.Sort.Known()),
		zap.Int("page", page.Pagination.CurrentPage),
		zap.Int("returned", len(page.Records)),
	)

	return &page, nil
}
