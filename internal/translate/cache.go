package translate

import (
	"context"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"github.com/garyellow/taichung-eats-linebot/internal/metrics"
	"github.com/garyellow/taichung-eats-linebot/internal/storage"
)

// Store is the part of storage.DB the cache needs.
type Store interface {
	GetTranslation(ctx context.Context, source, target string) (*storage.Translation, error)
	SaveTranslation(ctx context.Context, source, target, translated, provider string) error
}

// attributed is implemented by translators that pick among providers per call.
type attributed interface {
	TranslateWithProvider(ctx context.Context, text, target string) (string, string, error)
}

// Cached wraps a translator with a persistent cache. Concurrent requests
// for the same text share one upstream call.
type Cached struct {
	next    Translator
	store   Store
	metrics *metrics.Metrics
	group   singleflight.Group
}

// NewCached wraps next with store.
func NewCached(next Translator, store Store, m *metrics.Metrics) *Cached {
	return &Cached{next: next, store: store, metrics: m}
}

// Translate returns a cached translation when one is fresh, otherwise
// translates and stores the result. Cache failures are logged and ignored.
func (c *Cached) Translate(ctx context.Context, text, target string) (string, error) {
	v, err, _ := c.group.Do(target+"\x00"+text, func() (any, error) {
		hit, err := c.store.GetTranslation(ctx, text, target)
		if err != nil {
			slog.WarnContext(ctx, "translation cache read failed", "error", err)
		}
		if hit != nil {
			c.metrics.RecordCacheHit("translation")
			return hit.Translated, nil
		}
		c.metrics.RecordCacheMiss("translation")

		out, provider, err := c.translate(ctx, text, target)
		if err != nil {
			return "", err
		}
		if err := c.store.SaveTranslation(ctx, text, target, out, provider); err != nil {
			slog.WarnContext(ctx, "translation cache write failed", "error", err)
		}
		return out, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (c *Cached) translate(ctx context.Context, text, target string) (string, string, error) {
	if a, ok := c.next.(attributed); ok {
		return a.TranslateWithProvider(ctx, text, target)
	}
	out, err := c.next.Translate(ctx, text, target)
	return out, c.next.Provider(), err
}

// Provider returns the wrapped provider.
func (c *Cached) Provider() string {
	return c.next.Provider()
}
