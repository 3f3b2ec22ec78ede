package db

import (
	"fmt"
	"strings"

	"github.com/IBM07/HireWire/internal/types"
)

// Dialect selects the SQL flavor a predicate is rendered for.
type Dialect string

const (
	// DialectPostgres renders $n placeholders, ILIKE and full-text search.
	DialectPostgres Dialect = "postgres"
	// DialectSQLite renders ? placeholders and LIKE. SQLite's LIKE folds ASCII
	// only, so both sides go through fold_case (registered in sqlite.go) to
	// match ILIKE on non-ASCII text.
	DialectSQLite Dialect = "sqlite"
)

// sqliteFoldFunc is the Unicode lower-casing SQL function registered for SQLite.
const sqliteFoldFunc = "fold_case"

// Predicate is a WHERE clause body together with its positional arguments.
type Predicate struct {
	Where string
	Args  []any
}

// BuildPredicate translates a PostingFilter into a WHERE clause over job_openings.
// Only extracted postings are ever selected. No ordering or limiting is applied here.
func BuildPredicate(dialect Dialect, filter types.PostingFilter) Predicate {
	b := &predicateBuilder{dialect: dialect}
	b.conditions = append(b.conditions, "is_extracted = TRUE")

	if search := strings.TrimSpace(filter.Search); search != "" {
		if dialect == DialectPostgres {
			fts := b.bind(search)
			like := b.bind(containsPattern(search))
			b.conditions = append(b.conditions, fmt.Sprintf(
				"(to_tsvector('simple', coalesce(raw_description, '')) @@ plainto_tsquery('simple', %s) OR job_title ILIKE %s ESCAPE '\\' OR company ILIKE %s ESCAPE '\\')",
				fts, like, like))
		} else {
			// SQLite placeholders are positional and cannot be reused.
			b.conditions = append(b.conditions, "("+strings.Join([]string{
				b.contains("raw_description", search),
				b.contains("job_title", search),
				b.contains("company", search),
			}, " OR ")+")")
		}
	}

	if location := strings.TrimSpace(filter.Location); location != "" {
		b.conditions = append(b.conditions, b.contains("location_scraped", location))
	}

	if filter.RemoteOnly {
		b.conditions = append(b.conditions, "is_remote = TRUE")
	}

	if company := strings.TrimSpace(filter.Company); company != "" {
		b.conditions = append(b.conditions, b.contains("company", company))
	}

	// Unspecified job types are stored as NULL.
	if jobType := strings.TrimSpace(filter.JobType); strings.EqualFold(jobType, types.NotSpecified) {
		b.conditions = append(b.conditions, "job_type IS NULL")
	} else if jobType != "" {
		b.conditions = append(b.conditions, "job_type = "+b.bind(jobType))
	}

	return Predicate{
		Where: strings.Join(b.conditions, " AND "),
		Args:  b.args,
	}
}

type predicateBuilder struct {
	dialect    Dialect
	conditions []string
	args       []any
}

// bind registers an argument and returns its placeholder.
func (b *predicateBuilder) bind(value any) string {
	b.args = append(b.args, value)
	if b.dialect == DialectPostgres {
		return fmt.Sprintf("$%d", len(b.args))
	}
	return "?"
}

func (b *predicateBuilder) contains(column, value string) string {
	if b.dialect == DialectPostgres {
		return fmt.Sprintf("%s ILIKE %s ESCAPE '\\'", column, b.bind(containsPattern(value)))
	}
	return fmt.Sprintf("%s(%s) LIKE %s ESCAPE '\\'", sqliteFoldFunc, column, b.bind(containsPattern(strings.ToLower(value))))
}

// containsPattern wraps s for substring matching with its wildcards escaped.
func containsPattern(s string) string {
	return "%" + escapeLike(s) + "%"
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
