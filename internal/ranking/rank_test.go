package ranking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IBM07/HireWire/internal/types"
)

func record(title string, score int, relevance float64) types.EnhancedRecord {
	return types.EnhancedRecord{
		Posting:    types.JobPosting{Title: title},
		MatchScore: score,
		Relevance:  relevance,
	}
}

func titles(records []types.EnhancedRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Posting.Title
	}
	return out
}

func TestSort_MatchDesc(t *testing.T) {
	records := []types.EnhancedRecord{
		record("a", 50, 0),
		record("b", 80, 0),
		record("c", 50, 30),
		record("d", 50, 0),
	}

	Sort(records, types.SortMatchDesc)
	assert.Equal(t, []string{"b", "c", "a", "d"}, titles(records))
}

func TestSort_MatchDescIsReproducible(t *testing.T) {
	build := func() []types.EnhancedRecord {
		return []types.EnhancedRecord{
			record("a", 10, 20), record("b", 10, 20), record("c", 10, 20), record("d", 90, 0),
		}
	}

	first := build()
	Sort(first, types.SortMatchDesc)
	for i := 0; i < 10; i++ {
		again := build()
		Sort(again, types.SortMatchDesc)
		assert.Equal(t, titles(first), titles(again))
	}
	assert.Equal(t, []string{"d", "a", "b", "c"}, titles(first))
}

func TestSort_Date(t *testing.T) {
	now := time.Now()
	older := now.Add(-48 * time.Hour)

	records := []types.EnhancedRecord{
		{Posting: types.JobPosting{Title: "missing"}},
		{Posting: types.JobPosting{Title: "older", PostedAt: &older}},
		{Posting: types.JobPosting{Title: "newest", PostedAt: &now}},
		{Posting: types.JobPosting{Title: "missing2"}},
	}

	Sort(records, types.SortDate)
	assert.Equal(t, []string{"newest", "older", "missing", "missing2"}, titles(records))
}

func TestSort_Company(t *testing.T) {
	records := []types.EnhancedRecord{
		{Posting: types.JobPosting{Title: "1", Company: "zeta"}},
		{Posting: types.JobPosting{Title: "2", Company: "Alpha"}},
		{Posting: types.JobPosting{Title: "3", Company: "beta"}},
	}

	Sort(records, types.SortCompany)
	assert.Equal(t, []string{"2", "3", "1"}, titles(records))
}

func TestSort_UnknownKeepsFetchOrder(t *testing.T) {
	records := []types.EnhancedRecord{record("a", 1, 0), record("b", 99, 0), record("c", 50, 0)}

	Sort(records, types.SortMode("salary"))
	assert.Equal(t, []string{"a", "b", "c"}, titles(records))
}

func TestPaginate_Scenario(t *testing.T) {
	records := make([]types.EnhancedRecord, 25)

	first := Paginate(records, 1, 10)
	assert.Len(t, first.Records, 10)
	assert.True(t, first.Pagination.HasNext)
	assert.False(t, first.Pagination.HasPrev)
	assert.Equal(t, 3, first.Pagination.TotalPages)
	assert.Equal(t, 25, first.Pagination.TotalCount)

	third := Paginate(records, 3, 10)
	assert.Len(t, third.Records, 5)
	assert.False(t, third.Pagination.HasNext)
	assert.True(t, third.Pagination.HasPrev)
}

func TestPaginate_Empty(t *testing.T) {
	page := Paginate(nil, 1, 20)
	assert.Equal(t, 1, page.Pagination.TotalPages)
	assert.Equal(t, 0, page.Pagination.TotalCount)
	assert.NotNil(t, page.Records)
	assert.Empty(t, page.Records)
	assert.False(t, page.Pagination.HasNext)
}

func TestPaginate_OutOfRange(t *testing.T) {
	page := Paginate(make([]types.EnhancedRecord, 5), 4, 2)
	assert.Empty(t, page.Records)
	assert.Equal(t, 3, page.Pagination.TotalPages)
	assert.False(t, page.Pagination.HasNext)
	assert.True(t, page.Pagination.HasPrev)
}

func TestPaginate_PagesReconstructSequence(t *testing.T) {
	for total := 0; total <= 23; total++ {
		for size := 1; size <= 7; size++ {
			records := make([]types.EnhancedRecord, total)
			for i := range records {
				records[i] = record(string(rune('a'+i)), 0, 0)
			}

			first := Paginate(records, 1, size)
			expectedPages := (total + size - 1) / size
			if expectedPages < 1 {
				expectedPages = 1
			}
			require.Equal(t, expectedPages, first.Pagination.TotalPages)

			var joined []string
			for p := 1; p <= first.Pagination.TotalPages; p++ {
				joined = append(joined, titles(Paginate(records, p, size).Records)...)
			}
			if total == 0 {
				assert.Empty(t, joined)
				continue
			}
			assert.Equal(t, titles(records), joined)
		}
	}
}
