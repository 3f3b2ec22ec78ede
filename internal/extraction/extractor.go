// Package extraction turns raw job posting text into structured fields with a
// language model and writes them back to the store.
package extraction

import (
	"context"
	"encoding/json"
	"reflect"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/IBM07/HireWire/internal/llm"
	"github.com/IBM07/HireWire/internal/logging"
	"github.com/IBM07/HireWire/internal/schemas"
	"github.com/IBM07/HireWire/internal/types"
)

// maxInputRunes bounds the posting text sent to the model.
const maxInputRunes = 30000

// Extractor derives structured fields from a raw posting description.
type Extractor interface {
	Extract(ctx context.Context, rawText string) (*types.ExtractedFields, error)
}

// LLMExtractor implements Extractor on top of an llm.Client.
type LLMExtractor struct {
	client llm.Client
	tier   llm.ModelTier
	logger *zap.Logger
}

// NewLLMExtractor returns an extractor using the lite model tier.
func NewLLMExtractor(client llm.Client, logger *zap.Logger) *LLMExtractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LLMExtractor{
		client: client,
		tier:   llm.TierLite,
		logger: logger,
	}
}

// Extract prompts the model, validates its JSON against the posting schema and
// returns the normalized fields.
func (e *LLMExtractor) Extract(ctx context.Context, rawText string) (*types.ExtractedFields, error) {
	text := strings.TrimSpace(rawText)
	if text == "" {
		return nil, &ParseError{Message: "posting text is empty"}
	}
	text = logging.Truncate(text, maxInputRunes)

	log := logging.WithModel(e.logger, string(llm.ProviderGemini), e.client.GetModel(e.tier))
	prompt := llm.BuildExtractionPrompt(PostingFieldsSchema, text)

	raw, err := e.client.GenerateJSON(ctx, prompt, e.tier)
	if err != nil {
		return nil, &APICallError{Message: "failed to generate extraction", Cause: err}
	}

	fields, err := Parse(raw)
	if err != nil {
		log.Debug("rejected extraction output", zap.String("output", logging.Truncate(raw, 500)))
		return nil, err
	}
	log.Debug("extracted posting fields",
		zap.String("company", fields.Company),
		zap.Int("skills", len(fields.RequiredSkills)))
	return fields, nil
}

// Parse converts model output into normalized fields. Output is accepted when it
// contains one JSON object that satisfies the posting extraction schema.
func Parse(output string) (*types.ExtractedFields, error) {
	body := llm.ExtractJSONObject(llm.CleanJSONBlock(output))
	if body == "" {
		return nil, &ParseError{Message: "no JSON object in model output"}
	}

	if err := schemas.Validate(schemas.PostingExtraction, body); err != nil {
		return nil, &ParseError{Message: "output does not match schema", Cause: err}
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(body), &data); err != nil {
		return nil, &ParseError{Message: "failed to unmarshal output", Cause: err}
	}

	var fields types.ExtractedFields
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.DecodeHookFuncType(remoteFlagHook),
		WeaklyTypedInput: true,
		Result:           &fields,
	})
	if err != nil {
		return nil, &ParseError{Message: "failed to build decoder", Cause: err}
	}
	if err := decoder.Decode(data); err != nil {
		return nil, &ParseError{Message: "failed to decode output", Cause: err}
	}

	Normalize(&fields)
	return &fields, nil
}

// remoteFlagHook accepts the textual answers models give for is_remote.
func remoteFlagHook(from, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to.Kind() != reflect.Bool {
		return data, nil
	}
	s := strings.ToLower(strings.TrimSpace(data.(string)))
	if b, err := strconv.ParseBool(s); err == nil {
		return b, nil
	}
	switch s {
	case "yes", "y", "remote", "hybrid":
		return true, nil
	}
	return false, nil
}
