// Package observability provides formatted terminal output for the CLI.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/IBM07/HireWire/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 72
	// maxSkillsToShow bounds the missing-skill list printed per job
	maxSkillsToShow = 6
)

// Printer handles formatted output for the CLI.
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(title, boxWidth-4))
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// truncate shortens s to limit runes, marking the cut with "...".
func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit-3]) + "..."
}

// PrintPage outputs one page of ranked search results.
func (p *Printer) PrintPage(page *types.Page) {
	if page == nil {
		return
	}

	pg := page.Pagination
	title := fmt.Sprintf("JOBS  page %d of %d  (%d total)", pg.CurrentPage, max(pg.TotalPages, 1), pg.TotalCount)
	if len(page.Records) == 0 {
		p.printBox(title, "No jobs matched your filters.")
		return
	}

	var sb strings.Builder
	for i, rec := range page.Records {
		post := rec.Posting
		fmt.Fprintf(&sb, "%3d%%  %s\n", rec.MatchScore, post.Title)
		fmt.Fprintf(&sb, "      %s · %s", post.Company, locationLabel(post))
		if post.JobType != nil {
			fmt.Fprintf(&sb, " · %s", *post.JobType)
		}
		sb.WriteString("\n")
		if post.PostedAt != nil {
			fmt.Fprintf(&sb, "      posted %s\n", post.PostedAt.UTC().Format("2006-01-02"))
		}
		if missing := missingLabel(rec.MissingSkills); missing != "" {
			fmt.Fprintf(&sb, "      missing: %s\n", missing)
		}
		fmt.Fprintf(&sb, "      %s", post.ApplyURL)
		if i < len(page.Records)-1 {
			sb.WriteString("\n\n")
		}
	}

	var nav []string
	if pg.HasPrev {
		nav = append(nav, fmt.Sprintf("--page %d for previous", pg.CurrentPage-1))
	}
	if pg.HasNext {
		nav = append(nav, fmt.Sprintf("--page %d for more", pg.CurrentPage+1))
	}
	if len(nav) > 0 {
		sb.WriteString("\n\n" + strings.Join(nav, ", "))
	}

	p.printBox(title, sb.String())
}

// PrintStats outputs aggregate posting counts.
func (p *Printer) PrintStats(counts types.PostingCounts) {
	p.printBox("POSTINGS", fmt.Sprintf("Total:    %d\nRemote:   %d\nPending:  %d",
		counts.TotalJobs, counts.RemoteJobs, counts.PendingExtraction))
}

func locationLabel(post types.JobPosting) string {
	if post.IsRemote && !strings.Contains(strings.ToLower(post.Location), "remote") {
		return post.Location + " (remote)"
	}
	return post.Location
}

func missingLabel(skills []string) string {
	if len(skills) == 0 {
		return ""
	}
	if len(skills) <= maxSkillsToShow {
		return strings.Join(skills, ", ")
	}
	return fmt.Sprintf("%s and %d more", strings.Join(skills[:maxSkillsToShow], ", "), len(skills)-maxSkillsToShow)
}
