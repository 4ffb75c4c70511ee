// Package translate turns review texts into Traditional Chinese.
//
// Google Cloud Translation is the primary provider; Gemini and Groq serve as
// fallbacks when configured. A Chain tries providers in order and a Cached
// translator remembers results in the fetch cache.
package translate

import (
	"context"
	"strings"

	"golang.org/x/text/language"
)

// Target is the language every review is translated into.
const Target = "zh-TW"

// Provider names used in logs, metrics and the cache.
const (
	ProviderGoogle = "google"
	ProviderGemini = "gemini"
	ProviderGroq   = "groq"
)

// Translator translates text into the target language.
type Translator interface {
	Translate(ctx context.Context, text, target string) (string, error)
	Provider() string
}

// NeedsTranslation reports whether a review in lang must be translated
// before it is shown. Traditional Chinese (zh-TW, zh-Hant and other
// Hant-script tags) is kept as is; an unparsable tag is translated.
func NeedsTranslation(lang string) bool {
	lang = strings.TrimSpace(lang)
	if lang == "" {
		return false
	}
	tag, err := language.Parse(lang)
	if err != nil {
		return true
	}
	base, _ := tag.Base()
	script, _ := tag.Script()
	return base.String() != "zh" || script.String() != "Hant"
}
