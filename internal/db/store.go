package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/IBM07/HireWire/internal/types"
)

// Store is the full storage contract used by the server, the CLI and the
// extraction worker. Both *DB and *SQLiteStore implement it.
type Store interface {
	QueryPostings(ctx context.Context, filter types.PostingFilter) ([]types.JobPosting, error)
	GetPosting(ctx context.Context, id uuid.UUID) (*types.JobPosting, error)
	DistinctValues(ctx context.Context) (*types.FilterValues, error)
	Counts(ctx context.Context) (*types.PostingCounts, error)
	InsertRawPosting(ctx context.Context, req *types.CreatePostingRequest) (*types.CreatePostingResult, error)
	ListPendingExtraction(ctx context.Context, limit int) ([]types.PendingPosting, error)
	SaveExtraction(ctx context.Context, id uuid.UUID, fields *types.ExtractedFields) error
	Migrate(ctx context.Context) error
	Close()
}

// Open connects to the store selected by driver ("postgres" or "sqlite").
func Open(ctx context.Context, driver, url string) (Store, error) {
	switch Dialect(driver) {
	case DialectPostgres, "":
		pg, err := Connect(ctx, url)
		if err != nil {
			return nil, err
		}
		return pg, nil
	case DialectSQLite:
		lite, err := OpenSQLite(ctx, url)
		if err != nil {
			return nil, err
		}
		return lite, nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %q", driver)
	}
}

// postingColumns is the projection scanned into types.JobPosting.
const postingColumns = `id, job_title, company, location_scraped, is_remote, job_type,
        seniority, required_skills, posted_at, job_url`

// fetchOrder is the ordering of the unranked pool: newest first, id as tiebreaker.
const fetchOrder = `ORDER BY created_at DESC, id ASC`
