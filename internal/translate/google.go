package translate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/garyellow/taichung-eats-linebot/internal/scraper"
)

// DefaultGoogleURL is the Cloud Translation v2 endpoint.
const DefaultGoogleURL = "https://translation.googleapis.com/language/translate/v2"

// GoogleTranslator calls Cloud Translation v2 through the quota fetcher.
type GoogleTranslator struct {
	fetcher *scraper.QuotaFetcher
	apiKey  string
	baseURL string
}

// NewGoogleTranslator returns nil when apiKey is empty.
func NewGoogleTranslator(fetcher *scraper.QuotaFetcher, apiKey, baseURL string) *GoogleTranslator {
	if apiKey == "" {
		return nil
	}
	if baseURL == "" {
		baseURL = DefaultGoogleURL
	}
	return &GoogleTranslator{fetcher: fetcher, apiKey: apiKey, baseURL: baseURL}
}

// Translate sends one text and returns the first translation.
func (g *GoogleTranslator) Translate(ctx context.Context, text, target string) (string, error) {
	payload, err := json.Marshal(map[string]string{
		"q":      text,
		"target": target,
		"format": "text",
	})
	if err != nil {
		return "", fmt.Errorf("encode translate request: %w", err)
	}

	header := http.Header{}
	header.Set("Content-Type", "application/json")
	body, err := g.fetcher.Do(ctx, scraper.Request{
		Op:     "translate",
		Method: http.MethodPost,
		URL:    g.baseURL + "?key=" + url.QueryEscape(g.apiKey),
		Header: header,
		Body:   payload,
	})
	if err != nil {
		return "", err
	}

	var resp struct {
		Data struct {
			Translations []struct {
				TranslatedText string `json:"translatedText"`
			} `json:"translations"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decode translate response: %w", err)
	}
	if len(resp.Data.Translations) == 0 {
		return "", errors.New("translate response has no translations")
	}
	return strings.TrimSpace(resp.Data.Translations[0].TranslatedText), nil
}

// Provider returns ProviderGoogle.
func (g *GoogleTranslator) Provider() string {
	return ProviderGoogle
}
