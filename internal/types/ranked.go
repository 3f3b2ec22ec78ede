package types

// MatchResult is the skill overlap between a posting and a skill query.
type MatchResult struct {
	Score   int      // 0-100
	Missing []string // posting skills absent from the query
}

// EnhancedRecord is a posting together with its computed scores.
// It is rebuilt on every query and never persisted.
type EnhancedRecord struct {
	Posting         JobPosting
	MatchScore      int
	MissingSkills   []string
	Relevance       float64
	RankingScore    float64
	SkillsMalformed bool
}

// Pagination describes where a page sits in the full ranked result set.
type Pagination struct {
	CurrentPage int  `json:"current_page"`
	PageSize    int  `json:"per_page"`
	TotalCount  int  `json:"total_jobs"`
	TotalPages  int  `json:"total_pages"`
	HasNext     bool `json:"has_next"`
	HasPrev     bool `json:"has_prev"`
}

// Page is one slice of ranked results plus its metadata.
type Page struct {
	Pagination Pagination
	Records    []EnhancedRecord
}
