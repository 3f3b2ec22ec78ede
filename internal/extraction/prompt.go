package extraction

import (
	"github.com/IBM07/HireWire/internal/llm"
	"github.com/IBM07/HireWire/internal/types"
)

// NotSpecified is the value used for any text field the posting does not state.
const NotSpecified = types.NotSpecified

// PostingFieldsSchema is the extraction task run against every raw posting.
var PostingFieldsSchema = llm.ExtractionSchema{
	Name: "PostingFields",
	Description: `You are a deterministic data extraction agent. You will be given the full raw text of a job posting.
Return a single valid JSON object with the exact keys below and nothing else.`,
	Fields: []llm.SchemaField{
		{
			Name:        "company",
			Type:        "string",
			Description: "Employer name, trimmed, without surrounding punctuation.",
			Fallback:    `"Not specified"`,
		},
		{
			Name:        "location_scraped",
			Type:        "string",
			Description: `Primary location, multiple joined with " + ". Use "Remote" when only remote is given and "Remote + [locations]" when both appear.`,
			Fallback:    `"Not specified"`,
		},
		{
			Name:        "is_remote",
			Type:        "boolean",
			Description: "true when the posting says Remote, Work from Home, Hybrid, Anywhere or a close synonym.",
		},
		{
			Name:        "job_type",
			Type:        "string",
			Description: `One of "Full-time", "Part-time", "Contract", "Contractor", "Temporary", "Internship", "Freelance", or a short label from the posting.`,
			Fallback:    `"Not specified"`,
		},
		{
			Name:        "seniority",
			Type:        "string",
			Description: `One concise label such as "Entry-level", "Junior", "Mid-level", "Senior", "Lead", at most 60 characters.`,
			Fallback:    `"Not specified"`,
		},
		{
			Name:        "required_skills",
			Type:        `["string"]`,
			Description: "Every explicit technology, language, platform, database, cloud, framework or engineering tool mentioned. No soft skills.",
			Fallback:    "[]",
		},
	},
	Rules: []string{
		"Use lowercase true/false for is_remote.",
		"required_skills must always be a JSON array, deduplicated case-insensitively and sorted A to Z.",
		"Keep common capitalization for acronyms (SQL, AWS, GCP, GA4, GTM, UI) and product names (PowerBI, BigQuery, Redshift, Looker Studio).",
		`Normalize variants only when they clearly match: "Postgres" becomes "PostgreSQL", "Power BI" becomes "PowerBI", "Amazon Web Services" becomes "AWS", "Google Cloud Platform" becomes "GCP".`,
		"Prefer a Qualifications or Requirements section for skills when the posting has one.",
		"Do not infer skills that are not written in the text.",
	},
	Examples: []llm.Example{
		{
			Input:  "Utilize SQL, Python, BigQuery and PowerBI to deliver scalable insights.",
			Output: `{"company":"Not specified","location_scraped":"Not specified","is_remote":false,"job_type":"Not specified","seniority":"Not specified","required_skills":["BigQuery","PowerBI","Python","SQL"]}`,
		},
		{
			Input:  "Remote. Full-time. Hands-on experience with GA4, GTM and Looker Studio is required.",
			Output: `{"company":"Not specified","location_scraped":"Remote","is_remote":true,"job_type":"Full-time","seniority":"Not specified","required_skills":["GA4","GTM","Looker Studio"]}`,
		},
	},
}
