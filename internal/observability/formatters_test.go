package observability

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/IBM07/HireWire/internal/types"
)

func strPtr(s string) *string { return &s }

func TestPrintPage(t *testing.T) {
	var buf bytes.Buffer
	posted := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)

	page := &types.Page{
		Pagination: types.Pagination{CurrentPage: 2, PageSize: 2, TotalCount: 5, TotalPages: 3, HasNext: true, HasPrev: true},
		Records: []types.EnhancedRecord{
			{
				Posting: types.JobPosting{
					ID: uuid.New(), Title: "Backend Engineer", Company: "Acme", Location: "Berlin",
					IsRemote: true, JobType: strPtr("Full-time"), PostedAt: &posted, ApplyURL: "https://acme.example/jobs/1",
				},
				MatchScore:    67,
				MissingSkills: []string{"kubernetes"},
			},
			{
				Posting:    types.JobPosting{ID: uuid.New(), Title: "Data Engineer", Company: "Globex", Location: "Remote", IsRemote: true},
				MatchScore: 100,
			},
		},
	}

	NewPrinter(&buf).PrintPage(page)
	output := buf.String()

	assert.Contains(t, output, "JOBS  page 2 of 3  (5 total)")
	assert.Contains(t, output, " 67%  Backend Engineer")
	assert.Contains(t, output, "Acme · Berlin (remote) · Full-time")
	assert.Contains(t, output, "posted 2026-03-04")
	assert.Contains(t, output, "missing: kubernetes")
	assert.Contains(t, output, "100%  Data Engineer")
	assert.Contains(t, output, "Globex · Remote")
	assert.NotContains(t, output, "Remote (remote)")
	assert.Contains(t, output, "--page 1 for previous, --page 3 for more")
}

func TestPrintPage_Empty(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintPage(&types.Page{Pagination: types.Pagination{CurrentPage: 1}})

	assert.Contains(t, buf.String(), "page 1 of 1  (0 total)")
	assert.Contains(t, buf.String(), "No jobs matched your filters.")
}

func TestPrintPage_Nil(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintPage(nil)
	assert.Empty(t, buf.String())
}

func TestPrintStats(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintStats(types.PostingCounts{TotalJobs: 12, RemoteJobs: 5, PendingExtraction: 3})

	output := buf.String()
	assert.Contains(t, output, "Total:    12")
	assert.Contains(t, output, "Remote:   5")
	assert.Contains(t, output, "Pending:  3")
}

func TestPrintBox_TruncatesLongLines(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).printBox("T", strings.Repeat("ü", 200))

	for _, line := range strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n") {
		assert.Equal(t, boxWidth, len([]rune(line)), "line %q", line)
	}
}

func TestMissingLabel(t *testing.T) {
	assert.Empty(t, missingLabel(nil))
	assert.Equal(t, "a, b, c, d, e, f and 2 more", missingLabel([]string{"a", "b", "c", "d", "e", "f", "g", "h"}))
}
