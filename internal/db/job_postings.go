package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/IBM07/HireWire/internal/types"
)

// -----------------------------------------------------------------------------
// Job Posting Methods
// -----------------------------------------------------------------------------

// QueryPostings returns every extracted posting matching filter, in fetch order.
func (db *DB) QueryPostings(ctx context.Context, filter types.PostingFilter) ([]types.JobPosting, error) {
	pred := BuildPredicate(DialectPostgres, filter)
	query := fmt.Sprintf(`SELECT %s FROM job_openings WHERE %s %s`, postingColumns, pred.Where, fetchOrder)

	rows, err := db.pool.Query(ctx, query, pred.Args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query job postings: %w", err)
	}
	defer rows.Close()

	postings := []types.JobPosting{}
	for rows.Next() {
		p, err := scanPosting(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job posting: %w", err)
		}
		postings = append(postings, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read job postings: %w", err)
	}
	return postings, nil
}

// GetPosting retrieves one extracted posting by ID. It returns nil, nil when
// no such posting exists.
func (db *DB) GetPosting(ctx context.Context, id uuid.UUID) (*types.JobPosting, error) {
	row := db.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM job_openings WHERE id = $1 AND is_extracted = TRUE`, postingColumns),
		id,
	)
	p, err := scanPosting(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get job posting: %w", err)
	}
	return p, nil
}

// DistinctValues lists the distinct companies, locations and job types among
// extracted postings, sorted ascending.
func (db *DB) DistinctValues(ctx context.Context) (*types.FilterValues, error) {
	companies, err := db.distinct(ctx, "company")
	if err != nil {
		return nil, err
	}
	locations, err := db.distinct(ctx, "location_scraped")
	if err != nil {
		return nil, err
	}
	jobTypes, err := db.distinct(ctx, "job_type")
	if err != nil {
		return nil, err
	}
	return &types.FilterValues{Companies: companies, Locations: locations, JobTypes: jobTypes}, nil
}

func (db *DB) distinct(ctx context.Context, column string) ([]string, error) {
	rows, err := db.pool.Query(ctx, distinctQuery(column, "$1"), types.NotSpecified)
	if err != nil {
		return nil, fmt.Errorf("failed to list distinct %s: %w", column, err)
	}
	defer rows.Close()

	values := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan distinct %s: %w", column, err)
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

// Counts returns aggregate posting counts.
func (db *DB) Counts(ctx context.Context) (*types.PostingCounts, error) {
	var c types.PostingCounts
	err := db.pool.QueryRow(ctx, countsQuery).Scan(&c.TotalJobs, &c.RemoteJobs, &c.PendingExtraction)
	if err != nil {
		return nil, fmt.Errorf("failed to count job postings: %w", err)
	}
	return &c, nil
}

// InsertRawPosting stores a scraped posting awaiting extraction. A posting
// whose URL is already stored is skipped and reported as a duplicate.
func (db *DB) InsertRawPosting(ctx context.Context, req *types.CreatePostingRequest) (*types.CreatePostingResult, error) {
	var id uuid.UUID
	err := db.pool.QueryRow(ctx,
		`INSERT INTO job_openings (id, search_query, job_url, job_title, raw_description, posted_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (job_url) DO NOTHING
		 RETURNING id`,
		uuid.New(), req.SearchQuery, strings.TrimSpace(req.JobURL), req.Title, req.RawDescription, req.PostedAt,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &types.CreatePostingResult{Duplicate: true}, nil
		}
		return nil, fmt.Errorf("failed to insert job posting: %w", err)
	}
	return &types.CreatePostingResult{ID: id.String()}, nil
}

// ListPendingExtraction returns up to limit postings not yet extracted, oldest first.
func (db *DB) ListPendingExtraction(ctx context.Context, limit int) ([]types.PendingPosting, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, job_url, job_title, coalesce(raw_description, '')
		 FROM job_openings
		 WHERE is_extracted = FALSE
		 ORDER BY created_at ASC, id ASC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending postings: %w", err)
	}
	defer rows.Close()

	var pending []types.PendingPosting
	for rows.Next() {
		var p types.PendingPosting
		if err := rows.Scan(&p.ID, &p.JobURL, &p.Title, &p.RawDescription); err != nil {
			return nil, fmt.Errorf("failed to scan pending posting: %w", err)
		}
		pending = append(pending, p)
	}
	return pending, rows.Err()
}

// SaveExtraction writes extracted fields and marks the posting as extracted.
func (db *DB) SaveExtraction(ctx context.Context, id uuid.UUID, fields *types.ExtractedFields) error {
	skillsJSON, err := types.EncodeSkills(fields.RequiredSkills)
	if err != nil {
		return err
	}

	tag, err := db.pool.Exec(ctx,
		`UPDATE job_openings
		 SET company = $1, location_scraped = $2, is_remote = $3, job_type = $4,
		     seniority = $5, required_skills = $6, is_extracted = TRUE, updated_at = NOW()
		 WHERE id = $7`,
		orUnspecified(fields.Company), orUnspecified(fields.Location), fields.IsRemote,
		nullIfUnspecified(fields.JobType), nullIfUnspecified(fields.Seniority), skillsJSON, id,
	)
	if err != nil {
		return fmt.Errorf("failed to save extraction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("job posting not found: %s", id)
	}
	return nil
}

// rowScanner is satisfied by pgx.Row, pgx.Rows, *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanPosting(row rowScanner) (*types.JobPosting, error) {
	var p types.JobPosting
	var skills *string
	if err := row.Scan(&p.ID, &p.Title, &p.Company, &p.Location, &p.IsRemote, &p.JobType,
		&p.Seniority, &skills, &p.PostedAt, &p.ApplyURL); err != nil {
		return nil, err
	}
	p.Skills = types.NullableRawSkills(skills)
	return &p, nil
}

func distinctQuery(column, placeholder string) string {
	return fmt.Sprintf(`SELECT DISTINCT %[1]s FROM job_openings
		 WHERE is_extracted = TRUE AND %[1]s IS NOT NULL AND %[1]s <> '' AND %[1]s <> %[2]s
		 ORDER BY %[1]s`, column, placeholder)
}

const countsQuery = `SELECT
        coalesce(SUM(CASE WHEN is_extracted THEN 1 ELSE 0 END), 0),
        coalesce(SUM(CASE WHEN is_extracted AND is_remote THEN 1 ELSE 0 END), 0),
        coalesce(SUM(CASE WHEN NOT is_extracted THEN 1 ELSE 0 END), 0)
    FROM job_openings`

func orUnspecified(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return types.NotSpecified
	}
	return s
}

func nullIfUnspecified(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, types.NotSpecified) {
		return nil
	}
	return &s
}
