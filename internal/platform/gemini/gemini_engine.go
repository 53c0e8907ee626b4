package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"text/template"
	"unicode/utf8"

	"github.com/phrazzld/dsh-elg/internal/annotator"
	"github.com/phrazzld/dsh-elg/internal/config"
	"github.com/phrazzld/dsh-elg/internal/platform/logger"
	"google.golang.org/genai"
)

// contentGenerator is the part of the genai client the engine uses.
type contentGenerator interface {
	GenerateContent(
		ctx context.Context,
		model string,
		contents []*genai.Content,
		config *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)
}

// Engine implements annotator.Engine using the Gemini API.
type Engine struct {
	// logger is used for structured logging
	logger *slog.Logger

	// models issues GenerateContent calls
	models contentGenerator

	// model is the name of the Gemini model to use
	model string

	// prompt is the parsed template for creating prompts
	prompt *template.Template
}

// NewFactory validates the configuration, parses the prompt template once and
// returns an annotator.Factory that creates a new Gemini client for every call.
func NewFactory(log *slog.Logger, cfg config.LLMConfig) (annotator.Factory, error) {
	if log == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", annotator.ErrInvalidConfig)
	}
	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", annotator.ErrInvalidConfig)
	}

	prompt, err := loadPromptTemplate(cfg.PromptTemplatePath)
	if err != nil {
		return nil, err
	}

	return func(ctx context.Context) (annotator.Engine, error) {
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  cfg.GeminiAPIKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: failed to create Gemini client: %v",
				annotator.ErrEngineUnavailable, err)
		}
		return newEngine(log, client.Models, cfg.ModelName, prompt), nil
	}, nil
}

func newEngine(log *slog.Logger, models contentGenerator, model string, prompt *template.Template) *Engine {
	return &Engine{
		logger: log,
		models: models,
		model:  model,
		prompt: prompt,
	}
}

// ProcessText implements annotator.Engine.
func (e *Engine) ProcessText(ctx context.Context, text, textID string) (annotator.Result, error) {
	log := logger.FromContextOrDefault(ctx, e.logger).With("component", "gemini_engine")

	prompt, err := renderPrompt(e.prompt, text)
	if err != nil {
		return nil, err
	}

	log.DebugContext(ctx, "Making Gemini API call",
		"model", e.model,
		"text_length", utf8.RuneCountInString(text),
		"prompt_length", len(prompt))

	resp, err := e.models.GenerateContent(ctx, e.model, genai.Text(prompt), generateConfig())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", annotator.ErrEngineUnavailable, err)
	}

	parsed, err := parseResponse(resp)
	if err != nil {
		log.WarnContext(ctx, "Gemini API call failed", "error", err)
		return nil, err
	}

	records := locateSpans(ctx, log, text, parsed.Spans)
	log.DebugContext(ctx, "Gemini API call successful",
		"span_count", len(parsed.Spans),
		"record_count", len(records))

	return annotator.Result{textID: records}, nil
}

// generateConfig requests JSON output and lowers the safety thresholds that
// would otherwise block the very content this engine is asked to find.
func generateConfig() *genai.GenerateContentConfig {
	var temperature float32
	return &genai.GenerateContentConfig{
		Temperature:      &temperature,
		ResponseMIMEType: "application/json",
		ResponseSchema:   responseSchema,
		SafetySettings: []*genai.SafetySetting{
			{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockThresholdBlockNone},
			{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockThresholdBlockNone},
		},
	}
}

// parseResponse extracts the structured output from the first candidate.
func parseResponse(resp *genai.GenerateContentResponse) (*ResponseSchema, error) {
	if resp == nil {
		return nil, fmt.Errorf("%w: nil response", annotator.ErrInvalidResponse)
	}
	if len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("%w: no candidates in response", annotator.ErrInvalidResponse)
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return nil, fmt.Errorf("%w: finish reason %s", annotator.ErrContentBlocked, candidate.FinishReason)
	}
	if candidate.Content == nil {
		return nil, fmt.Errorf("%w: empty content in response", annotator.ErrInvalidResponse)
	}

	var text strings.Builder
	for _, part := range candidate.Content.Parts {
		if part != nil {
			text.WriteString(part.Text)
		}
	}

	var parsed ResponseSchema
	if err := json.Unmarshal([]byte(text.String()), &parsed); err != nil {
		return nil, fmt.Errorf("%w: failed to parse JSON response: %v", annotator.ErrInvalidResponse, err)
	}
	return &parsed, nil
}

// locateSpans turns quoted spans into records. Each quote is searched from the
// end of the previous match first so repeated phrases map to successive
// occurrences; quotes that do not occur in the text are dropped.
func locateSpans(ctx context.Context, log *slog.Logger, text string, spans []SpanSchema) []*annotator.Record {
	records := make([]*annotator.Record, 0, len(spans))
	cursor := 0

	for i, span := range spans {
		if span.Quote == "" {
			continue
		}

		idx := strings.Index(text[cursor:], span.Quote)
		if idx >= 0 {
			idx += cursor
		} else {
			idx = strings.Index(text, span.Quote)
		}
		if idx < 0 {
			log.WarnContext(ctx, "dropping span not found in text",
				"span_index", i,
				"quote_length", len(span.Quote))
			continue
		}
		cursor = idx + len(span.Quote)

		start := utf8.RuneCountInString(text[:idx])
		end := start + utf8.RuneCountInString(span.Quote)
		records = append(records, annotator.NewSpan(start, end).
			Set("risk", span.Risk).
			Set("category", span.Category))
	}

	return records
}
