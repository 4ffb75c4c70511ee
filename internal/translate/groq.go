package translate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// Groq's OpenAI-compatible endpoint and default model.
const (
	GroqBaseURL      = "https://api.groq.com/openai/v1/"
	DefaultGroqModel = "llama-3.1-8b-instant"
)

// GroqTranslator translates with any OpenAI-compatible chat endpoint,
// Groq by default.
type GroqTranslator struct {
	client openai.Client
	model  string
}

// NewGroqTranslator returns nil if apiKey is empty (provider disabled).
// Extra options are appended after the defaults, so tests can replace the
// base URL.
func NewGroqTranslator(apiKey, model string, opts ...option.RequestOption) *GroqTranslator {
	if apiKey == "" {
		return nil
	}
	if model == "" {
		model = DefaultGroqModel
	}
	client := openai.NewClient(append([]option.RequestOption{
		option.WithBaseURL(GroqBaseURL),
		option.WithAPIKey(apiKey),
	}, opts...)...)
	return &GroqTranslator{client: client, model: model}
}

// Translate returns the model's translation of text.
func (g *GroqTranslator) Translate(ctx context.Context, text, target string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: g.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(reviewPrompt(text, target)),
		},
		Temperature: openai.Float(0.2),
		MaxTokens:   openai.Int(1024),
	}

	start := time.Now()
	resp, err := g.client.Chat.Completions.New(ctx, params)
	if err != nil {
		slog.WarnContext(ctx, "translation API call failed",
			"provider", ProviderGroq,
			"model", g.model,
			"text_length", len(text),
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err)
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("groq returned no choices")
	}
	result := strings.TrimSpace(resp.Choices[0].Message.Content)
	if result == "" {
		return "", errors.New("groq returned empty text")
	}
	return result, nil
}

// Provider returns ProviderGroq.
func (g *GroqTranslator) Provider() string {
	return ProviderGroq
}
