package types

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// ExtractedFields are the structured fields derived from a raw posting description.
type ExtractedFields struct {
	Company        string   `json:"company" mapstructure:"company"`
	Location       string   `json:"location_scraped" mapstructure:"location_scraped"`
	IsRemote       bool     `json:"is_remote" mapstructure:"is_remote"`
	JobType        string   `json:"job_type" mapstructure:"job_type"`
	Seniority      string   `json:"seniority" mapstructure:"seniority"`
	RequiredSkills []string `json:"required_skills" mapstructure:"required_skills"`
}

// CreatePostingRequest stores a scraped posting awaiting extraction.
type CreatePostingRequest struct {
	JobURL         string     `json:"job_url" validate:"required,url"`
	Title          string     `json:"job_title" validate:"required,max=500"`
	RawDescription string     `json:"raw_description" validate:"required"`
	SearchQuery    string     `json:"search_query,omitempty" validate:"max=200"`
	PostedAt       *time.Time `json:"posted_at,omitempty"`
}

// Validate validates the CreatePostingRequest using the validator.
func (r *CreatePostingRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// CreatePostingResult reports the outcome of storing a raw posting.
type CreatePostingResult struct {
	ID        string `json:"id,omitempty"`
	Duplicate bool   `json:"duplicate"`
}
