package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"modernc.org/sqlite"

	"github.com/IBM07/HireWire/internal/types"
)

//go:embed schema/sqlite.sql
var sqliteSchema string

func init() {
	sqlite.MustRegisterDeterministicScalarFunction(sqliteFoldFunc, 1, foldCase)
}

// foldCase lower-cases text values with Unicode rules; other values pass through.
func foldCase(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case string:
		return strings.ToLower(v), nil
	case []byte:
		return strings.ToLower(string(v)), nil
	default:
		return v, nil
	}
}

// sqliteTimeFormat is fixed-width so stored timestamps sort lexically.
const sqliteTimeFormat = "2006-01-02T15:04:05.000000000Z"

// SQLiteStore keeps postings in an embedded SQLite database. It is meant for
// local runs and tests; the schema is applied on open.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens (or creates) the database at path. An empty path or
// ":memory:" opens an in-memory database.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	path = strings.TrimPrefix(path, "sqlite://")
	if path == "" {
		path = ":memory:"
	}
	if path != ":memory:" && !strings.HasPrefix(path, "file:") {
		if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
			return nil, fmt.Errorf("sqlite: mkdir %s: %w", filepath.Dir(path), err)
		}
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open db: %w", err)
	}
	conn.SetMaxOpenConns(1) // SQLite: single writer

	s := &SQLiteStore{db: conn, now: time.Now}
	if err := s.Migrate(ctx); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() {
	_ = s.db.Close()
}

// Dialect returns DialectSQLite.
func (s *SQLiteStore) Dialect() Dialect {
	return DialectSQLite
}

// Migrate applies the embedded schema. It is safe to run repeatedly.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	for _, stmt := range strings.Split(sqliteSchema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqlite: init schema: %w", err)
		}
	}
	return nil
}

// QueryPostings returns every extracted posting matching filter, in fetch order.
func (s *SQLiteStore) QueryPostings(ctx context.Context, filter types.PostingFilter) ([]types.JobPosting, error) {
	pred := BuildPredicate(DialectSQLite, filter)
	query := fmt.Sprintf(`SELECT %s FROM job_openings WHERE %s %s`, postingColumns, pred.Where, fetchOrder)

	rows, err := s.db.QueryContext(ctx, query, pred.Args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query job postings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	postings := []types.JobPosting{}
	for rows.Next() {
		p, err := scanSQLitePosting(rows)
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

// GetPosting retrieves one extracted posting by ID, or nil, nil when absent.
func (s *SQLiteStore) GetPosting(ctx context.Context, id uuid.UUID) (*types.JobPosting, error) {
	row := s.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT %s FROM job_openings WHERE id = ? AND is_extracted = TRUE`, postingColumns),
		id.String(),
	)
	p, err := scanSQLitePosting(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get job posting: %w", err)
	}
	return p, nil
}

// DistinctValues lists distinct companies, locations and job types.
func (s *SQLiteStore) DistinctValues(ctx context.Context) (*types.FilterValues, error) {
	var out types.FilterValues
	for _, target := range []struct {
		column string
		dst    *[]string
	}{
		{"company", &out.Companies},
		{"location_scraped", &out.Locations},
		{"job_type", &out.JobTypes},
	} {
		values, err := s.distinct(ctx, target.column)
		if err != nil {
			return nil, err
		}
		*target.dst = values
	}
	return &out, nil
}

func (s *SQLiteStore) distinct(ctx context.Context, column string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, distinctQuery(column, "?"), types.NotSpecified)
	if err != nil {
		return nil, fmt.Errorf("failed to list distinct %s: %w", column, err)
	}
	defer func() { _ = rows.Close() }()

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
func (s *SQLiteStore) Counts(ctx context.Context) (*types.PostingCounts, error) {
	var c types.PostingCounts
	if err := s.db.QueryRowContext(ctx, countsQuery).Scan(&c.TotalJobs, &c.RemoteJobs, &c.PendingExtraction); err != nil {
		return nil, fmt.Errorf("failed to count job postings: %w", err)
	}
	return &c, nil
}

// InsertRawPosting stores a scraped posting; an already stored URL is reported as a duplicate.
func (s *SQLiteStore) InsertRawPosting(ctx context.Context, req *types.CreatePostingRequest) (*types.CreatePostingResult, error) {
	id := uuid.New()
	now := s.now().UTC().Format(sqliteTimeFormat)
	var postedAt *string
	if req.PostedAt != nil {
		formatted := req.PostedAt.UTC().Format(sqliteTimeFormat)
		postedAt = &formatted
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO job_openings (id, search_query, job_url, job_title, raw_description, posted_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (job_url) DO NOTHING`,
		id.String(), req.SearchQuery, strings.TrimSpace(req.JobURL), req.Title, req.RawDescription, postedAt, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert job posting: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &types.CreatePostingResult{Duplicate: true}, nil
	}
	return &types.CreatePostingResult{ID: id.String()}, nil
}

// ListPendingExtraction returns up to limit postings not yet extracted, oldest first.
func (s *SQLiteStore) ListPendingExtraction(ctx context.Context, limit int) ([]types.PendingPosting, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, job_url, job_title, coalesce(raw_description, '')
		 FROM job_openings
		 WHERE is_extracted = FALSE
		 ORDER BY created_at ASC, id ASC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending postings: %w", err)
	}
	defer func() { _ = rows.Close() }()

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
func (s *SQLiteStore) SaveExtraction(ctx context.Context, id uuid.UUID, fields *types.ExtractedFields) error {
	skillsJSON, err := types.EncodeSkills(fields.RequiredSkills)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE job_openings
		 SET company = ?, location_scraped = ?, is_remote = ?, job_type = ?,
		     seniority = ?, required_skills = ?, is_extracted = TRUE, updated_at = ?
		 WHERE id = ?`,
		orUnspecified(fields.Company), orUnspecified(fields.Location), fields.IsRemote,
		nullIfUnspecified(fields.JobType), nullIfUnspecified(fields.Seniority), skillsJSON,
		s.now().UTC().Format(sqliteTimeFormat), id.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to save extraction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("job posting not found: %s", id)
	}
	return nil
}

func scanSQLitePosting(row rowScanner) (*types.JobPosting, error) {
	var p types.JobPosting
	var skills, postedAt sql.NullString
	if err := row.Scan(&p.ID, &p.Title, &p.Company, &p.Location, &p.IsRemote, &p.JobType,
		&p.Seniority, &skills, &postedAt, &p.ApplyURL); err != nil {
		return nil, err
	}
	if skills.Valid {
		p.Skills = types.RawSkills(skills.String)
	}
	if postedAt.Valid && postedAt.String != "" {
		if t, err := parseSQLiteTime(postedAt.String); err == nil {
			p.PostedAt = &t
		}
	}
	return &p, nil
}

func parseSQLiteTime(s string) (time.Time, error) {
	if t, err := time.Parse(sqliteTimeFormat, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}
