// Package genai provides the OpenAI-backed collaborators: answer analysis,
// free-form chat replies, and context summarization.
package genai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"

	"github.com/KirillMachuk/tg-transformator-bot/internal/models"
)

// DefaultModel is used when OPENAI_MODEL is not configured.
const DefaultModel = "gpt-5-mini"

// Sampling temperatures per call kind.
const (
	analysisTemperature = 0.2
	chatTemperature     = 0.35
	summaryTemperature  = 0.2
)

// ClientInterface defines the collaborator contract so flows can be tested
// with fakes.
type ClientInterface interface {
	// AnalyzeAnswers turns the questionnaire payload into the fixed-shape
	// analysis record. Errors mean the caller should substitute the empty
	// default; a nil error always carries a structurally complete analysis.
	AnalyzeAnswers(ctx context.Context, payload *models.AnalysisPayload) (*models.Analysis, error)

	// GenerateChatReply answers a follow-up question grounded in the report
	// context. An empty reply means the caller should use its fallback text.
	GenerateChatReply(ctx context.Context, payload map[string]any) (string, error)

	// SummarizeContext condenses a full context bundle into a short text.
	SummarizeContext(ctx context.Context, bundle map[string]any) (string, error)
}

// Opts holds configuration options for the client.
type Opts struct {
	APIKey string
	Model  string
}

// Option defines a functional option for configuring the client.
type Option func(*Opts)

// WithAPIKey overrides the OPENAI_API_KEY environment variable.
func WithAPIKey(key string) Option {
	return func(o *Opts) { o.APIKey = key }
}

// WithModel overrides the default model.
func WithModel(model string) Option {
	return func(o *Opts) { o.Model = model }
}

// Client wraps the OpenAI Responses API.
type Client struct {
	client openai.Client
	model  string
}

// NewClient initializes the GenAI client, reading OPENAI_API_KEY from the
// environment unless overridden.
func NewClient(opts ...Option) (*Client, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY not set")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	slog.Debug("Creating GenAI client", "model", cfg.Model)
	return &Client{
		client: openai.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:  cfg.Model,
	}, nil
}

// AnalyzeAnswers requests the structured business analysis and repairs
// near-valid JSON output before giving up.
func (c *Client) AnalyzeAnswers(ctx context.Context, payload *models.AnalysisPayload) (*models.Analysis, error) {
	serialized, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize analysis payload: %w", err)
	}

	input := analysisUserPrompt + "\n\nДанные клиента:\n" + string(serialized)
	output, err := c.respond(ctx, analysisSystemPrompt, input, analysisTemperature)
	if err != nil {
		return nil, fmt.Errorf("analysis request failed: %w", err)
	}
	if output == "" {
		return nil, fmt.Errorf("analysis response contained no text output")
	}

	analysis, err := ParseAnalysis(output)
	if err != nil {
		slog.Error("Failed to parse analysis JSON", "error", err)
		return nil, fmt.Errorf("failed to parse analysis output: %w", err)
	}
	slog.Debug("GenAI analysis parsed", "summary_len", len(analysis.BusinessSummary))
	return analysis, nil
}

// GenerateChatReply produces a free-text answer grounded in the report
// context. Returns "" on empty model output.
func (c *Client) GenerateChatReply(ctx context.Context, payload map[string]any) (string, error) {
	serialized, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to serialize chat payload: %w", err)
	}

	input := chatUserPrompt + "\n\n" + string(serialized)
	output, err := c.respond(ctx, chatSystemPrompt, input, chatTemperature)
	if err != nil {
		return "", fmt.Errorf("chat request failed: %w", err)
	}
	return strings.TrimSpace(output), nil
}

// SummarizeContext condenses the full grounding bundle into a compact text
// reused for all following chat turns.
func (c *Client) SummarizeContext(ctx context.Context, bundle map[string]any) (string, error) {
	serialized, err := json.MarshalIndent(bundle, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to serialize context bundle: %w", err)
	}

	input := summaryUserPrompt + "\n\n" + string(serialized)
	output, err := c.respond(ctx, summarySystemPrompt, input, summaryTemperature)
	if err != nil {
		return "", fmt.Errorf("summary request failed: %w", err)
	}
	return strings.TrimSpace(output), nil
}

// respond issues one Responses API call with the system text folded into the
// input and returns the aggregated text output.
func (c *Client) respond(ctx context.Context, systemPrompt, userInput string, temperature float64) (string, error) {
	input := fmt.Sprintf("System: %s\n\n%s", systemPrompt, userInput)

	resp, err := c.client.Responses.New(ctx, responses.ResponseNewParams{
		Model:       c.model,
		Temperature: openai.Float(temperature),
		Input:       responses.ResponseNewParamsInputUnion{OfString: openai.String(input)},
	})
	if err != nil {
		return "", err
	}
	if resp == nil {
		return "", fmt.Errorf("empty response from OpenAI")
	}
	return resp.OutputText(), nil
}
