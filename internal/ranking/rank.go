package ranking

import (
	"math"
	"sort"
	"strings"

	"github.com/IBM07/HireWire/internal/types"
)

// Sort orders records in place for the given mode. Sorting is stable, so
// records that compare equal keep their fetch order. Unknown modes leave the
// slice untouched.
func Sort(records []types.EnhancedRecord, mode types.SortMode) {
	switch mode {
	case types.SortMatchDesc:
		sort.SliceStable(records, func(i, j int) bool {
			if records[i].MatchScore != records[j].MatchScore {
				return records[i].MatchScore > records[j].MatchScore
			}
			return records[i].Relevance > records[j].Relevance
		})
	case types.SortDate:
		// Missing timestamps sort last.
		sort.SliceStable(records, func(i, j int) bool {
			a, b := records[i].Posting.PostedAt, records[j].Posting.PostedAt
			switch {
			case a == nil:
				return false
			case b == nil:
				return true
			default:
				return a.After(*b)
			}
		})
	case types.SortCompany:
		sort.SliceStable(records, func(i, j int) bool {
			return strings.ToLower(records[i].Posting.Company) < strings.ToLower(records[j].Posting.Company)
		})
	}
}

// Paginate slices the requested page out of the full result set.
// TotalPages is at least 1; a page past the end yields no records.
func Paginate(records []types.EnhancedRecord, page, pageSize int) types.Page {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 1
	}

	total := len(records)
	totalPages := int(math.Ceil(float64(total) / float64(pageSize)))
	if totalPages < 1 {
		totalPages = 1
	}

	start := (page - 1) * pageSize
	end := start + pageSize
	sliced := []types.EnhancedRecord{}
	if start < total {
		if end > total {
			end = total
		}
		sliced = records[start:end]
	}

	return types.Page{
		Pagination: types.Pagination{
			CurrentPage: page,
			PageSize:    pageSize,
			TotalCount:  total,
			TotalPages:  totalPages,
			HasNext:     page < totalPages,
			HasPrev:     page > 1,
		},
		Records: sliced,
	}
}
