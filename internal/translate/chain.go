package translate

import (
	"context"
	"errors"
	"fmt"

	"github.com/garyellow/taichung-eats-linebot/internal/logger"
	"github.com/garyellow/taichung-eats-linebot/internal/metrics"
)

// ErrNoProvider is returned by a Chain with no translators.
var ErrNoProvider = errors.New("no translation provider configured")

// Chain tries each translator in order and returns the first success.
type Chain struct {
	translators []Translator
	metrics     *metrics.Metrics
	logger      *logger.Logger
}

// NewChain builds a chain. Nil translators must be filtered by the caller.
func NewChain(log *logger.Logger, m *metrics.Metrics, translators ...Translator) *Chain {
	return &Chain{
		translators: translators,
		metrics:     m,
		logger:      log.WithModule("translate"),
	}
}

// Translate falls through providers on any error except cancellation.
func (c *Chain) Translate(ctx context.Context, text, target string) (string, error) {
	out, _, err := c.TranslateWithProvider(ctx, text, target)
	return out, err
}

// TranslateWithProvider is Translate that also names the provider whose
// answer was used.
func (c *Chain) TranslateWithProvider(ctx context.Context, text, target string) (string, string, error) {
	if len(c.translators) == 0 {
		return "", "", ErrNoProvider
	}

	var errs []error
	for i, t := range c.translators {
		out, err := t.Translate(ctx, text, target)
		if err == nil {
			c.metrics.RecordTranslation(t.Provider(), "ok")
			if i > 0 {
				c.logger.WithField("provider", t.Provider()).Debug("Translated by fallback provider")
			}
			return out, t.Provider(), nil
		}

		c.metrics.RecordTranslation(t.Provider(), "error")
		c.logger.WithError(err).WithField("provider", t.Provider()).Warn("Translation provider failed")
		errs = append(errs, fmt.Errorf("%s: %w", t.Provider(), err))

		if ctx.Err() != nil {
			break
		}
	}
	return "", "", fmt.Errorf("all translation providers failed: %w", errors.Join(errs...))
}

// Provider names the first provider of the chain.
func (c *Chain) Provider() string {
	if len(c.translators) == 0 {
		return ""
	}
	return c.translators[0].Provider()
}
