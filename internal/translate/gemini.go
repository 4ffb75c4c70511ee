package translate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"
)

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-2.5-flash-lite"

// GeminiTranslator translates with a Gemini model.
type GeminiTranslator struct {
	client *genai.Client
	model  string
}

// NewGeminiTranslator returns nil if apiKey is empty (provider disabled).
func NewGeminiTranslator(ctx context.Context, apiKey, model string) (*GeminiTranslator, error) {
	if apiKey == "" {
		return nil, nil //nolint:nilnil // Intentional: provider disabled when no API key
	}
	if model == "" {
		model = DefaultGeminiModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &GeminiTranslator{client: client, model: model}, nil
}

// Translate returns the model's translation of text.
func (g *GeminiTranslator) Translate(ctx context.Context, text, target string) (string, error) {
	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](0.2),
		MaxOutputTokens: 1024,
	}

	start := time.Now()
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(reviewPrompt(text, target)), config)
	if err != nil {
		slog.WarnContext(ctx, "translation API call failed",
			"provider", ProviderGemini,
			"model", g.model,
			"text_length", len(text),
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err)
		return "", fmt.Errorf("generate content failed: %w", err)
	}

	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("gemini returned no candidates")
	}
	var out strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		out.WriteString(part.Text)
	}
	result := strings.TrimSpace(out.String())
	if result == "" {
		return "", errors.New("gemini returned empty text")
	}
	return result, nil
}

// Provider returns ProviderGemini.
func (g *GeminiTranslator) Provider() string {
	return ProviderGemini
}
