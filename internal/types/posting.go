// Package types provides type definitions for job postings, search criteria and ranked results
// shared across the storage, ranking and HTTP layers.
package types

import (
	"time"

	"github.com/google/uuid"
)

// NotSpecified is the placeholder stored for fields the extraction step could not determine.
const NotSpecified = "Not specified"

// JobPosting is one extracted job listing as read from storage.
// The ranking core never mutates a posting.
type JobPosting struct {
	ID        uuid.UUID  `json:"id"`
	Title     string     `json:"title"`
	Company   string     `json:"company"`
	Location  string     `json:"location"`
	IsRemote  bool       `json:"is_remote"`
	JobType   *string    `json:"job_type"`
	Seniority *string    `json:"seniority,omitempty"`
	Skills    SkillField `json:"-"`
	PostedAt  *time.Time `json:"posted_at"`
	ApplyURL  string     `json:"apply_url"`
}

// FilterValues lists the distinct values available for the search filters.
type FilterValues struct {
	Companies []string `json:"companies"`
	Locations []string `json:"locations"`
	JobTypes  []string `json:"job_types"`
}

// PostingCounts holds aggregate counts over stored postings.
type PostingCounts struct {
	TotalJobs         int `json:"total_jobs"`
	RemoteJobs        int `json:"remote_jobs"`
	PendingExtraction int `json:"pending_extraction"`
}

// PendingPosting is a raw posting that has not been through extraction yet.
type PendingPosting struct {
	ID             uuid.UUID
	JobURL         string
	Title          string
	RawDescription string
}
