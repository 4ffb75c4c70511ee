// Package reviews is the review pass of the fetch job. For every store in
// the stores CSV it looks up the place, takes its first reviews, translates
// the ones not already in Traditional Chinese and writes the enriched
// catalog consumed by the bot.
package reviews

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/garyellow/taichung-eats-linebot/internal/catalog"
	"github.com/garyellow/taichung-eats-linebot/internal/config"
	apperrors "github.com/garyellow/taichung-eats-linebot/internal/errors"
	"github.com/garyellow/taichung-eats-linebot/internal/logger"
	"github.com/garyellow/taichung-eats-linebot/internal/places"
	"github.com/garyellow/taichung-eats-linebot/internal/scraper"
	"github.com/garyellow/taichung-eats-linebot/internal/translate"
)

const (
	// DefaultMaxReviews is how many reviews are kept per store.
	DefaultMaxReviews = 3

	reviewSeparator = "\n\n"
	fullSeparator   = "\n\n---\n\n"
)

// FullReviewColumns is the header of the optional full-review file.
var FullReviewColumns = []string{catalog.ColName, catalog.ColAddress, "原文+翻譯評論"}

// PlacesAPI is the part of places.Client the review pass uses.
type PlacesAPI interface {
	FindPlaceID(ctx context.Context, query string) (string, error)
	GetReviews(ctx context.Context, placeID string, limit int) ([]places.Review, error)
}

// Entry is one review with its translation. Translated equals Original
// when no translation was needed or it failed.
type Entry struct {
	Original   string
	Translated string
}

// FullReview is one row of the full-review file.
type FullReview struct {
	Name    string
	Address string
	Entries []Entry
}

func (f FullReview) row() []string {
	parts := make([]string, len(f.Entries))
	for i, e := range f.Entries {
		parts[i] = "原文:\n" + e.Original + "\n\n翻譯:\n" + e.Translated
	}
	return []string{f.Name, f.Address, strings.Join(parts, fullSeparator)}
}

// Stats summarizes one run.
type Stats struct {
	Stores             int
	Updated            int // rows whose reviews column was rewritten
	NotFound           int // no place matched "name address"
	Skipped            int // lookups lost to quota or HTTP errors
	Translated         int
	TranslationsFailed int
}

// Augmentor runs the review pass.
type Augmentor struct {
	api        PlacesAPI
	translator translate.Translator
	maxReviews int
	delay      time.Duration
	logger     *logger.Logger
}

// Option configures an Augmentor.
type Option func(*Augmentor)

// WithTranslator sets the translator. Without one, reviews are kept in
// their original language.
func WithTranslator(t translate.Translator) Option {
	return func(a *Augmentor) { a.translator = t }
}

// WithMaxReviews overrides DefaultMaxReviews.
func WithMaxReviews(n int) Option {
	return func(a *Augmentor) {
		if n > 0 {
			a.maxReviews = n
		}
	}
}

// WithDelay overrides the pause after each store.
func WithDelay(d time.Duration) Option {
	return func(a *Augmentor) { a.delay = d }
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(a *Augmentor) { a.logger = l.WithModule("reviews") }
}

// New creates an augmentor.
func New(api PlacesAPI, opts ...Option) *Augmentor {
	a := &Augmentor{
		api:        api,
		maxReviews: DefaultMaxReviews,
		delay:      config.ReviewFetchDelay,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = logger.NewWithWriter("error", io.Discard)
	}
	return a
}

// Augment fills the Reviews field of rows in place and returns the full
// review entries of every store it reached. A store whose place cannot be
// found, or whose lookup is over quota or rejected, keeps its previous
// reviews. A request that never got a response aborts the pass.
func (a *Augmentor) Augment(ctx context.Context, rows []catalog.StoreRecord) ([]FullReview, Stats, error) {
	stats := Stats{Stores: len(rows)}
	var full []FullReview

	for i := range rows {
		row := &rows[i]
		name := strings.TrimSpace(row.Name)
		address := strings.TrimSpace(row.Address)
		log := a.logger.WithField("store", name)

		entries, found, err := a.fetch(ctx, name+" "+address, &stats)
		switch {
		case err != nil && skippable(err):
			stats.Skipped++
			log.WithError(err).Warn("Review lookup skipped")
		case err != nil:
			return full, stats, fmt.Errorf("reviews for %s: %w", name, err)
		case !found:
			stats.NotFound++
			log.Warn("Place not found")
		default:
			translated := make([]string, len(entries))
			for j, e := range entries {
				translated[j] = e.Translated
			}
			row.Reviews = strings.Join(translated, reviewSeparator)
			stats.Updated++
			full = append(full, FullReview{Name: name, Address: address, Entries: entries})
		}

		if err := scraper.Sleep(ctx, a.delay); err != nil {
			return full, stats, err
		}
	}
	return full, stats, nil
}

func (a *Augmentor) fetch(ctx context.Context, query string, stats *Stats) ([]Entry, bool, error) {
	placeID, err := a.api.FindPlaceID(ctx, query)
	if err != nil {
		return nil, false, err
	}
	if placeID == "" {
		return nil, false, nil
	}

	reviews, err := a.api.GetReviews(ctx, placeID, a.maxReviews)
	if err != nil {
		return nil, false, err
	}

	entries := make([]Entry, 0, len(reviews))
	for _, r := range reviews {
		entries = append(entries, Entry{Original: r.Text, Translated: a.translate(ctx, r, stats)})
	}
	return entries, true, nil
}

// translate returns the review text in the target language, or the
// original text when it is already local or translation fails.
func (a *Augmentor) translate(ctx context.Context, r places.Review, stats *Stats) string {
	if a.translator == nil || !translate.NeedsTranslation(r.LanguageCode) {
		return r.Text
	}
	out, err := a.translator.Translate(ctx, r.Text, translate.Target)
	if err != nil || out == "" {
		stats.TranslationsFailed++
		a.logger.WithError(err).WithField("language", r.LanguageCode).Warn("Translation failed; keeping original")
		return r.Text
	}
	stats.Translated++
	return out
}

func skippable(err error) bool {
	var statusErr *apperrors.HTTPStatusError
	return errors.Is(err, apperrors.ErrOverQuota) || errors.As(err, &statusErr)
}

// Run reads the stores file at inPath, augments it and writes the catalog
// to outPath. When fullPath is set the full-review file is written too.
func (a *Augmentor) Run(ctx context.Context, inPath, outPath, fullPath string) (Stats, error) {
	table, err := catalog.ReadFile(inPath)
	if err != nil {
		return Stats{}, fmt.Errorf("read stores: %w", err)
	}
	if !table.HasColumns(catalog.ColName, catalog.ColAddress) {
		return Stats{}, apperrors.NewValidationError("columns", "stores file needs 店名 and 地址")
	}

	rows := table.Records
	full, stats, err := a.Augment(ctx, rows)
	if err != nil {
		return stats, err
	}

	if err := catalog.WriteFile(outPath, catalog.EnrichedColumns, rows); err != nil {
		return stats, fmt.Errorf("write catalog: %w", err)
	}
	a.logger.WithField("path", outPath).WithField("updated", stats.Updated).Info("Catalog written")

	if fullPath != "" {
		out := make([][]string, len(full))
		for i, f := range full {
			out[i] = f.row()
		}
		if err := catalog.WriteFileAtomic(fullPath, func(w io.Writer) error {
			return catalog.WriteRows(w, FullReviewColumns, out)
		}); err != nil {
			return stats, fmt.Errorf("write full reviews: %w", err)
		}
		a.logger.WithField("path", fullPath).Info("Full reviews written")
	}
	return stats, nil
}
