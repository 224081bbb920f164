// Package extract converts conversational input into fact candidates
// using an OpenAI-compatible chat completion endpoint.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/a-marczewski/temporalmem/internal/memory"
)

// LLMExtractor calls a chat model with the fact extraction prompt and
// parses the JSON reply into candidates
type LLMExtractor struct {
	client      *openai.Client
	model       string
	temperature float32
	logger      *zap.Logger
}

// NewLLMExtractor builds an extractor for any OpenAI-compatible
// provider. An empty baseURL uses the default OpenAI endpoint.
func NewLLMExtractor(baseURL, apiKey, model string, temperature float32, logger *zap.Logger) *LLMExtractor {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LLMExtractor{
		client:      openai.NewClientWithConfig(cfg),
		model:       model,
		temperature: temperature,
		logger:      logger,
	}
}

// Extract runs fact extraction over the latest user message. An empty
// candidate list is a normal outcome.
func (e *LLMExtractor) Extract(ctx context.Context, messages []memory.ChatMessage) ([]memory.FactCandidate, error) {
	input := lastUserContent(messages)
	if input == "" {
		return nil, nil
	}

	req := openai.ChatCompletionRequest{
		Model:       e.model,
		Temperature: e.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: factExtractionPrompt},
			{Role: openai.ChatMessageRoleUser, Content: input},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	resp, err := e.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("fact extraction request: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("fact extraction: empty response")
	}

	facts, err := parseFacts(resp.Choices[0].Message.Content)
	if err != nil {
		e.logger.Warn("unparseable extraction output",
			zap.String("model", e.model),
			zap.Error(err),
		)
		return nil, fmt.Errorf("parse extraction output: %w", err)
	}
	return facts, nil
}

// lastUserContent returns the content of the most recent user message
func lastUserContent(messages []memory.ChatMessage) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "user" {
			return messages[i].Content
		}
	}
	return ""
}

// factJSON mirrors the prompt's output schema. Pointer fields absorb
// JSON nulls.
type factJSON struct {
	Text           string  `json:"text"`
	Category       string  `json:"category"`
	Slot           *string `json:"slot"`
	Stability      *string `json:"stability"`
	TemporalScope  *string `json:"temporal_scope"`
	Kind           *string `json:"kind"`
	DurationInDays *int    `json:"duration_in_days"`
	Confidence     float64 `json:"confidence"`
}

type factPayload struct {
	Facts []factJSON `json:"facts"`
}

// parseFacts decodes the model reply, tolerating markdown code fences
// around the JSON body
func parseFacts(raw string) ([]memory.FactCandidate, error) {
	raw = stripFences(raw)

	var payload factPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, err
	}

	facts := make([]memory.FactCandidate, 0, len(payload.Facts))
	for _, f := range payload.Facts {
		if strings.TrimSpace(f.Text) == "" {
			continue
		}
		c := memory.FactCandidate{
			Text:       strings.TrimSpace(f.Text),
			Category:   memory.Category(f.Category),
			Confidence: clamp01(f.Confidence),
		}
		if f.Slot != nil {
			c.Slot = *f.Slot
		}
		if f.Stability != nil {
			c.Stability = memory.Stability(*f.Stability)
		}
		if f.TemporalScope != nil {
			c.TemporalScope = *f.TemporalScope
		}
		if f.Kind != nil {
			c.Kind = *f.Kind
		}
		if f.DurationInDays != nil && *f.DurationInDays > 0 {
			c.DurationInDays = *f.DurationInDays
		}
		facts = append(facts, c)
	}
	return facts, nil
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
