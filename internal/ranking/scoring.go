// Package ranking turns a pool of stored postings into a scored, sorted and
// paginated result page.
package ranking

import (
	"strings"

	"github.com/IBM07/HireWire/internal/types"
)

// Field weights for free-text relevance. A matching field contributes
// weight * relevanceScale.
const (
	titleWeight    = 5.0
	companyWeight  = 3.0
	locationWeight = 2.0

	relevanceScale = 10.0

	// matchScoreFactor weights the skill match against relevance in the ranking key.
	matchScoreFactor = 2.0
)

// Relevance measures how well searchText matches a posting's title, company
// and location. Each field containing searchText as a case-insensitive
// substring adds its weight; fields are scored independently. Empty search
// text yields 0.
func Relevance(posting *types.JobPosting, searchText string) float64 {
	needle := strings.ToLower(strings.TrimSpace(searchText))
	if needle == "" {
		return 0
	}

	var score float64
	if strings.Contains(strings.ToLower(posting.Title), needle) {
		score += titleWeight * relevanceScale
	}
	if strings.Contains(strings.ToLower(posting.Company), needle) {
		score += companyWeight * relevanceScale
	}
	if strings.Contains(strings.ToLower(posting.Location), needle) {
		score += locationWeight * relevanceScale
	}
	return score
}

// RankingScore combines relevance and skill match into a single key.
func RankingScore(relevance float64, matchScore int) float64 {
	return relevance + matchScoreFactor*float64(matchScore)
}
