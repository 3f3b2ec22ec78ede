package db

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/IBM07/HireWire/internal/types"
)

func TestBuildPredicate_NoFilters(t *testing.T) {
	for _, dialect := range []Dialect{DialectPostgres, DialectSQLite} {
		t.Run(string(dialect), func(t *testing.T) {
			pred := BuildPredicate(dialect, types.PostingFilter{})
			assert.Equal(t, "is_extracted = TRUE", pred.Where)
			assert.Empty(t, pred.Args)
		})
	}
}

func TestBuildPredicate_Postgres(t *testing.T) {
	pred := BuildPredicate(DialectPostgres, types.PostingFilter{
		Search:     "golang",
		Location:   "Berlin",
		RemoteOnly: true,
		Company:    "Acme",
		JobType:    "Full-time",
	})

	assert.Equal(t,
		"is_extracted = TRUE"+
			" AND (to_tsvector('simple', coalesce(raw_description, '')) @@ plainto_tsquery('simple', $1) OR job_title ILIKE $2 ESCAPE '\\' OR company ILIKE $2 ESCAPE '\\')"+
			" AND location_scraped ILIKE $3 ESCAPE '\\'"+
			" AND is_remote = TRUE"+
			" AND company ILIKE $4 ESCAPE '\\'"+
			" AND job_type = $5",
		pred.Where)
	assert.Equal(t, []any{"golang", "%golang%", "%Berlin%", "%Acme%", "Full-time"}, pred.Args)
}

func TestBuildPredicate_SQLite(t *testing.T) {
	pred := BuildPredicate(DialectSQLite, types.PostingFilter{Search: "Go", Company: "Ärzte"})

	assert.Equal(t,
		"is_extracted = TRUE"+
			" AND (fold_case(raw_description) LIKE ? ESCAPE '\\' OR fold_case(job_title) LIKE ? ESCAPE '\\' OR fold_case(company) LIKE ? ESCAPE '\\')"+
			" AND fold_case(company) LIKE ? ESCAPE '\\'",
		pred.Where)
	assert.Equal(t, []any{"%go%", "%go%", "%go%", "%ärzte%"}, pred.Args)
}

func TestBuildPredicate_RemoteFalseAddsNothing(t *testing.T) {
	pred := BuildPredicate(DialectPostgres, types.PostingFilter{RemoteOnly: false})
	assert.NotContains(t, pred.Where, "is_remote")
}

func TestBuildPredicate_EscapesWildcards(t *testing.T) {
	pred := BuildPredicate(DialectSQLite, types.PostingFilter{Location: `100%_remote\`})
	assert.Equal(t, []any{`%100\%\_remote\\%`}, pred.Args)
}

func TestBuildPredicate_UnspecifiedJobTypeMatchesNull(t *testing.T) {
	for _, dialect := range []Dialect{DialectPostgres, DialectSQLite} {
		t.Run(string(dialect), func(t *testing.T) {
			pred := BuildPredicate(dialect, types.PostingFilter{JobType: "not specified"})
			assert.Equal(t, "is_extracted = TRUE AND job_type IS NULL", pred.Where)
			assert.Empty(t, pred.Args)
		})
	}
}

func TestBuildPredicate_BlankValuesIgnored(t *testing.T) {
	pred := BuildPredicate(DialectPostgres, types.PostingFilter{Search: "  ", Company: " ", JobType: ""})
	assert.Equal(t, "is_extracted = TRUE", pred.Where)
}
