package types

import "strings"

// SortMode selects the ordering of ranked results.
type SortMode string

const (
	// SortMatchDesc orders by match score, then relevance, both descending.
	SortMatchDesc SortMode = "match_desc"
	// SortDate orders by posted timestamp, newest first.
	SortDate SortMode = "date"
	// SortCompany orders by company name, case-insensitive ascending.
	SortCompany SortMode = "company"
)

// Pagination defaults.
const (
	DefaultPageSize    = 20
	DefaultMaxPageSize = 100
)

// ParseSortMode maps user input to a SortMode. Empty input selects SortMatchDesc.
// Unrecognized values are kept as-is and leave results in fetch order.
func ParseSortMode(s string) SortMode {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return SortMatchDesc
	}
	return SortMode(s)
}

// Known reports whether m is one of the supported sort modes.
func (m SortMode) Known() bool {
	switch m {
	case SortMatchDesc, SortDate, SortCompany:
		return true
	}
	return false
}

// FilterCriteria is a full search request against the posting pool.
type FilterCriteria struct {
	Skills     string // comma-separated skill list as typed by the user
	Search     string
	Location   string
	RemoteOnly bool
	Company    string
	JobType    string
	Sort       SortMode
	Page       int
	PageSize   int
	MinScore   int
}

// Normalize returns a copy with page floored at 1, page size clamped to
// [1, maxPageSize] and a non-negative minimum score. A maxPageSize below 1
// falls back to DefaultMaxPageSize.
func (c FilterCriteria) Normalize(maxPageSize int) FilterCriteria {
	if maxPageSize < 1 {
		maxPageSize = DefaultMaxPageSize
	}
	out := c
	out.Search = strings.TrimSpace(c.Search)
	out.Location = strings.TrimSpace(c.Location)
	out.Company = strings.TrimSpace(c.Company)
	out.JobType = strings.TrimSpace(c.JobType)
	if out.Sort == "" {
		out.Sort = SortMatchDesc
	}
	if out.Page < 1 {
		out.Page = 1
	}
	if out.PageSize < 1 {
		out.PageSize = 1
	}
	if out.PageSize > maxPageSize {
		out.PageSize = maxPageSize
	}
	if out.MinScore < 0 {
		out.MinScore = 0
	}
	return out
}

// PostingFilter extracts the storage-side (non-ranking) part of the criteria.
func (c FilterCriteria) PostingFilter() PostingFilter {
	return PostingFilter{
		Search:     c.Search,
		Location:   c.Location,
		RemoteOnly: c.RemoteOnly,
		Company:    c.Company,
		JobType:    c.JobType,
	}
}

// PostingFilter holds the conditions pushed down to storage.
// Empty fields impose no condition.
type PostingFilter struct {
	Search     string
	Location   string
	RemoteOnly bool
	Company    string
	JobType    string
}
