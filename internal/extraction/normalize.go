package extraction

import (
	"slices"
	"strings"

	"github.com/IBM07/HireWire/internal/types"
)

// maxSeniorityRunes is the longest seniority label kept; longer phrases are cut.
const maxSeniorityRunes = 60

// Normalize trims every text field, substitutes NotSpecified for blanks, caps
// the seniority label and de-duplicates skills case-insensitively, sorted A to Z.
// RequiredSkills is never nil afterwards.
func Normalize(f *types.ExtractedFields) {
	f.Company = orNotSpecified(trimPunct(f.Company))
	f.Location = orNotSpecified(f.Location)
	f.JobType = orNotSpecified(f.JobType)

	seniority := []rune(strings.TrimSpace(f.Seniority))
	if len(seniority) > maxSeniorityRunes {
		seniority = []rune(strings.TrimSpace(string(seniority[:maxSeniorityRunes])))
	}
	f.Seniority = orNotSpecified(string(seniority))

	f.RequiredSkills = normalizeSkills(f.RequiredSkills)
}

func orNotSpecified(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, NotSpecified) {
		return NotSpecified
	}
	return s
}

// trimPunct strips punctuation models tend to leave around company names.
func trimPunct(s string) string {
	return strings.Trim(strings.TrimSpace(s), `"'.,;:-`)
}

func normalizeSkills(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" || strings.EqualFold(s, NotSpecified) {
			continue
		}
		key := strings.ToLower(s)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s)
	}
	slices.SortFunc(out, func(a, b string) int {
		if c := strings.Compare(strings.ToLower(a), strings.ToLower(b)); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})
	return out
}
