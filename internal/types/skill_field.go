package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedSkills indicates a stored skills value that could not be decoded.
var ErrMalformedSkills = errors.New("malformed skills data")

// SkillFieldKind tells which variant a SkillField holds.
type SkillFieldKind int

const (
	// SkillsAbsent means the posting carries no skills value at all.
	SkillsAbsent SkillFieldKind = iota
	// SkillsRaw means the value is the serialized form read from storage (a JSON array).
	SkillsRaw
	// SkillsParsed means the value is already a list of skill names.
	SkillsParsed
)

func (k SkillFieldKind) String() string {
	switch k {
	case SkillsRaw:
		return "raw"
	case SkillsParsed:
		return "parsed"
	default:
		return "absent"
	}
}

// SkillField holds a posting's required skills as found at the storage boundary.
// The zero value is Absent.
type SkillField struct {
	kind   SkillFieldKind
	raw    string
	parsed []string
}

// RawSkills wraps a serialized skills value.
func RawSkills(raw string) SkillField {
	return SkillField{kind: SkillsRaw, raw: raw}
}

// ParsedSkills wraps an already decoded skills list.
func ParsedSkills(skills []string) SkillField {
	return SkillField{kind: SkillsParsed, parsed: skills}
}

// NullableRawSkills maps a nullable column to Raw or Absent.
func NullableRawSkills(raw *string) SkillField {
	if raw == nil {
		return SkillField{}
	}
	return RawSkills(*raw)
}

// Kind returns the variant held by f.
func (f SkillField) Kind() SkillFieldKind {
	return f.kind
}

// Raw returns the serialized value for the Raw variant and "" otherwise.
func (f SkillField) Raw() string {
	return f.raw
}

// Decode normalizes the field into a list of skill names.
// Absent and blank values decode to nil. A Raw value that is not a JSON array of
// strings returns ErrMalformedSkills.
func (f SkillField) Decode() ([]string, error) {
	switch f.kind {
	case SkillsParsed:
		out := make([]string, len(f.parsed))
		copy(out, f.parsed)
		return out, nil
	case SkillsRaw:
		trimmed := strings.TrimSpace(f.raw)
		if trimmed == "" || trimmed == "null" {
			return nil, nil
		}
		var skills []string
		if err := json.Unmarshal([]byte(trimmed), &skills); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedSkills, err)
		}
		return skills, nil
	default:
		return nil, nil
	}
}

// EncodeSkills serializes a skills list into the storage representation.
func EncodeSkills(skills []string) (string, error) {
	if skills == nil {
		skills = []string{}
	}
	data, err := json.Marshal(skills)
	if err != nil {
		return "", fmt.Errorf("failed to encode skills: %w", err)
	}
	return string(data), nil
}
