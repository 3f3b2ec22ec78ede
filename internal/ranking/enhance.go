package ranking

import (
	"github.com/IBM07/HireWire/internal/skills"
	"github.com/IBM07/HireWire/internal/types"
)

// Enhance scores every posting against the search text and skill query.
// Output order matches input order and nothing is filtered. A posting whose
// stored skills cannot be decoded is scored as having no skills and flagged
// with SkillsMalformed.
func Enhance(postings []types.JobPosting, searchText string, query skills.Query) []types.EnhancedRecord {
	records := make([]types.EnhancedRecord, 0, len(postings))
	for i := range postings {
		posting := &postings[i]

		jobSkills, err := posting.Skills.Decode()
		malformed := err != nil
		if malformed {
			jobSkills = nil
		}

		match := skills.Match(jobSkills, query)
		relevance := Relevance(posting, searchText)

		records = append(records, types.EnhancedRecord{
			Posting:         *posting,
			MatchScore:      match.Score,
			MissingSkills:   match.Missing,
			Relevance:       relevance,
			RankingScore:    RankingScore(relevance, match.Score),
			SkillsMalformed: malformed,
		})
	}
	return records
}

// FilterMinScore drops records scoring below minScore. A minScore of 0 or
// less keeps everything.
func FilterMinScore(records []types.EnhancedRecord, minScore int) []types.EnhancedRecord {
	if minScore <= 0 {
		return records
	}
	kept := make([]types.EnhancedRecord, 0, len(records))
	for _, r := range records {
		if r.MatchScore >= minScore {
			kept = append(kept, r)
		}
	}
	return kept
}
