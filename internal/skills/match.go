package skills

import (
	"github.com/IBM07/HireWire/internal/types"
)

// Match scores jobSkills against query.
//
// The score is floor(100 * |job ∩ query| / |job|): the denominator is the
// posting's distinct skill count, not the query's. When either side is empty
// the result is a zero score with an empty missing list; a posting without
// requirements never counts as a full match.
//
// Missing holds the posting's skills absent from the query, case-folded,
// de-duplicated and in the order the posting lists them.
func Match(jobSkills []string, query Query) types.MatchResult {
	result := types.MatchResult{Missing: []string{}}
	if len(jobSkills) == 0 || len(query) == 0 {
		return result
	}

	seen := make(map[string]struct{}, len(jobSkills))
	matched := 0
	for _, raw := range jobSkills {
		skill := Fold(raw)
		if skill == "" {
			continue
		}
		if _, dup := seen[skill]; dup {
			continue
		}
		seen[skill] = struct{}{}

		if _, ok := query[skill]; ok {
			matched++
		} else {
			result.Missing = append(result.Missing, skill)
		}
	}

	if len(seen) == 0 {
		return types.MatchResult{Missing: []string{}}
	}

	result.Score = matched * 100 / len(seen)
	return result
}
