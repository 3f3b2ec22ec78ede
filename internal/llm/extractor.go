package llm

import (
	"fmt"
	"strings"
)

// ExtractionSchema describes a structured extraction task: what to pull out of
// free text and the rules the output must follow.
type ExtractionSchema struct {
	Name        string        // e.g. "PostingFields"
	Description string        // task preamble
	Fields      []SchemaField // output fields, in the order they must appear
	Rules       []string      // additional constraints applied to every field
	Examples    []Example     // input/output pairs shown to the model
}

// SchemaField defines a single field in the extraction output.
type SchemaField struct {
	Name        string // JSON field name
	Type        string // type hint: "string", "boolean", "[\"string\"]"
	Description string // description for the model
	Fallback    string // literal value to use when the text does not say; empty for none
}

// Example is one worked input/output pair.
type Example struct {
	Input  string
	Output string
}

// BuildExtractionPrompt constructs the prompt from schema and input text.
func BuildExtractionPrompt(schema ExtractionSchema, inputText string) string {
	var sb strings.Builder

	sb.WriteString(strings.TrimSpace(schema.Description))
	sb.WriteString("\n\n")

	sb.WriteString("Return ONLY a single minified JSON object with these keys, in this order:\n{\n")
	for i, field := range schema.Fields {
		typeHint := field.Type
		if typeHint == "" {
			typeHint = "string"
		}
		fmt.Fprintf(&sb, "  %q: %s", field.Name, typeHint)
		if i < len(schema.Fields)-1 {
			sb.WriteString(",")
		}
		if field.Description != "" {
			fmt.Fprintf(&sb, " // %s", field.Description)
		}
		if field.Fallback != "" {
			fmt.Fprintf(&sb, " If absent, use %s.", field.Fallback)
		}
		sb.WriteString("\n")
	}
	sb.WriteString("}\n\n")

	sb.WriteString("RULES:\n")
	sb.WriteString("- Extract information directly from the text; do not invent values.\n")
	sb.WriteString("- Return ONLY the JSON object, no markdown, no explanation, no code blocks.\n")
	for _, rule := range schema.Rules {
		fmt.Fprintf(&sb, "- %s\n", rule)
	}
	sb.WriteString("\n")

	if len(schema.Examples) > 0 {
		sb.WriteString("EXAMPLES:\n")
		for _, ex := range schema.Examples {
			fmt.Fprintf(&sb, "Input: %q\nOutput: %s\n", ex.Input, ex.Output)
		}
		sb.WriteString("\n")
	}

	sb.WriteString("Input text:\n\"\"\"\n")
	sb.WriteString(inputText)
	sb.WriteString("\n\"\"\"\n")

	return sb.String()
}
