// Package skills computes the overlap between a posting's required skills and
// the skills a user searches with.
package skills

import "strings"

// Query is a set of case-folded skill names supplied by the user.
type Query map[string]struct{}

// ParseQuery splits comma-separated input into a Query.
// Entries are trimmed and lowercased; blanks are dropped.
func ParseQuery(input string) Query {
	return NewQuery(strings.Split(input, ",")...)
}

// NewQuery builds a Query from individual skill names.
func NewQuery(skills ...string) Query {
	q := make(Query, len(skills))
	for _, s := range skills {
		if folded := Fold(s); folded != "" {
			q[folded] = struct{}{}
		}
	}
	return q
}

// Has reports whether the query contains skill, compared case-insensitively.
func (q Query) Has(skill string) bool {
	_, ok := q[Fold(skill)]
	return ok
}

// Fold normalizes a skill name for comparison.
func Fold(skill string) string {
	return strings.ToLower(strings.TrimSpace(skill))
}
