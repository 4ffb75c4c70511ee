// Command fetch rebuilds the store catalog from the Google Places API.
//
// It runs up to two steps in order: the store pass writes STORES_PATH, the
// review pass reads it and writes CATALOG_PATH with reviews attached. A
// failing step is logged and the next one still runs. With R2 enabled the
// job holds a lease for its whole run and publishes the new catalog as a
// snapshot afterwards.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/garyellow/taichung-eats-linebot/internal/buildinfo"
	"github.com/garyellow/taichung-eats-linebot/internal/collector"
	"github.com/garyellow/taichung-eats-linebot/internal/config"
	"github.com/garyellow/taichung-eats-linebot/internal/logger"
	"github.com/garyellow/taichung-eats-linebot/internal/metrics"
	"github.com/garyellow/taichung-eats-linebot/internal/places"
	"github.com/garyellow/taichung-eats-linebot/internal/r2client"
	"github.com/garyellow/taichung-eats-linebot/internal/reviews"
	"github.com/garyellow/taichung-eats-linebot/internal/scraper"
	"github.com/garyellow/taichung-eats-linebot/internal/sentry"
	"github.com/garyellow/taichung-eats-linebot/internal/snapshot"
	"github.com/garyellow/taichung-eats-linebot/internal/storage"
	"github.com/garyellow/taichung-eats-linebot/internal/translate"
)

// CLI flags
var (
	storesFlag      = flag.Bool("stores", false, "Run the store pass (default: both passes)")
	reviewsFlag     = flag.Bool("reviews", false, "Run the review pass (default: both passes)")
	fullReviewsFlag = flag.Bool("full-reviews", false, "Also write the full-review CSV (FULL_REVIEWS_PATH)")
)

const (
	stepStores  = "stores"
	stepReviews = "reviews"
)

func main() {
	flag.Parse()

	cfg, err := config.LoadForMode(config.FetchMode)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg, selectSteps(*storesFlag, *reviewsFlag), *fullReviewsFlag); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "\n❌ Fetch failed: %v\n", err)
		os.Exit(1)
	}
}

// selectSteps returns the passes to run in order. No flag means both.
func selectSteps(stores, reviews bool) []string {
	if !stores && !reviews {
		return []string{stepStores, stepReviews}
	}
	var steps []string
	if stores {
		steps = append(steps, stepStores)
	}
	if reviews {
		steps = append(steps, stepReviews)
	}
	return steps
}

func run(cfg *config.Config, steps []string, writeFull bool) error {
	opts := logger.Options{}
	if cfg.LogToFile {
		opts.FilePath = cfg.LogFile
	}
	if cfg.BetterStack.Enabled {
		opts.BetterStackToken = cfg.BetterStack.Token
	}
	log := logger.NewWithOptions(cfg.LogLevel, os.Stdout, opts).WithField("service", "taichung-eats-fetch")
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = log.Shutdown(ctx)
	}()

	if cfg.Sentry.Enabled {
		if err := sentry.Initialize(sentry.Config{
			Token:       cfg.Sentry.Token,
			Host:        cfg.Sentry.Host,
			Environment: cfg.Sentry.Environment,
			Release:     buildinfo.Version,
			SampleRate:  cfg.Sentry.SampleRate,
		}); err != nil {
			log.WithError(err).Warn("Sentry initialization failed")
		}
		defer sentry.Flush(2 * time.Second)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.WithField("steps", steps).Info("Starting fetch job")

	var snap *snapshot.Manager
	if cfg.R2.Enabled {
		client, err := r2client.New(ctx, r2client.Config{
			Endpoint:    cfg.R2.Endpoint(),
			AccessKeyID: cfg.R2.AccessKeyID,
			SecretKey:   cfg.R2.SecretAccessKey,
			BucketName:  cfg.R2.BucketName,
		})
		if err != nil {
			return fmt.Errorf("r2: %w", err)
		}
		snap = snapshot.New(client, snapshot.Config{
			SnapshotKey: cfg.R2.SnapshotKey,
			LockKey:     cfg.R2.LockKey,
			LockTTL:     cfg.R2.LockTTL,
		}, log)

		acquired, err := snap.AcquireLeaderLock(ctx)
		if err != nil {
			return fmt.Errorf("acquire fetch lease: %w", err)
		}
		if !acquired {
			fmt.Println("⏭️  Another fetch job is running, skipping")
			return nil
		}
		defer func() {
			if err := snap.ReleaseLeaderLock(context.WithoutCancel(ctx)); err != nil {
				log.WithError(err).Warn("Failed to release fetch lease")
			}
		}()
	}

	m := metrics.New(prometheus.NewRegistry())
	fetcher := scraper.NewQuotaFetcher(
		scraper.WithMetrics(m),
		scraper.WithLogger(log),
	)
	placesClient := places.NewClient(fetcher, cfg.GoogleAPIKey, "")

	db, err := storage.New(ctx, cfg.CachePath, cfg.CacheTTL)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	defer func() { _ = db.Close() }()
	if n, err := db.DeleteExpired(ctx); err != nil {
		log.WithError(err).Warn("Failed to purge expired cache rows")
	} else if n > 0 {
		log.WithField("deleted", n).Info("Purged expired cache rows")
	}

	start := time.Now()
	var failed []string
	catalogRecords := -1

	for _, step := range steps {
		switch step {
		case stepStores:
			c := collector.New(placesClient,
				collector.WithCache(db),
				collector.WithLogger(log),
			)
			stats, err := c.Run(ctx, cfg.StoresPath)
			if err != nil {
				log.WithError(err).Error("Store pass failed")
				failed = append(failed, step)
				continue
			}
			fmt.Printf("✅ Stores: %d collected, %d new, %d total\n", stats.Collected, stats.Added, stats.Total)

		case stepReviews:
			tr, err := buildTranslator(ctx, cfg, fetcher, db, log, m)
			if err != nil {
				log.WithError(err).Warn("Translator setup failed; reviews keep their original language")
			}
			ropts := []reviews.Option{reviews.WithLogger(log)}
			if tr != nil {
				ropts = append(ropts, reviews.WithTranslator(tr))
			}
			fullPath := ""
			if writeFull {
				fullPath = cfg.FullReviewsPath
			}
			stats, err := reviews.New(placesClient, ropts...).Run(ctx, cfg.StoresPath, cfg.CatalogPath, fullPath)
			if err != nil {
				log.WithError(err).Error("Review pass failed")
				failed = append(failed, step)
				continue
			}
			catalogRecords = stats.Stores
			fmt.Printf("✅ Reviews: %d stores, %d updated, %d translated\n", stats.Stores, stats.Updated, stats.Translated)
		}
	}

	if snap != nil && catalogRecords >= 0 {
		if _, err := snap.Publish(ctx, cfg.CatalogPath, catalogRecords); err != nil {
			log.WithError(err).Error("Snapshot publish failed")
			failed = append(failed, "publish")
		}
	}

	duration := time.Since(start).Round(time.Second)
	if len(failed) > 0 {
		log.WithField("failed", failed).WithField("duration", duration).Error("Fetch completed with errors")
		return fmt.Errorf("failed steps: %v", failed)
	}
	log.WithField("duration", duration).Info("Fetch complete")
	fmt.Printf("Total time: %v\n", duration)
	return nil
}

// buildTranslator assembles Google → Gemini → Groq, skipping providers
// without a key, behind the SQLite cache. It returns nil when no provider
// is configured.
func buildTranslator(ctx context.Context, cfg *config.Config, fetcher *scraper.QuotaFetcher, store translate.Store, log *logger.Logger, m *metrics.Metrics) (translate.Translator, error) {
	translators, err := providers(ctx, cfg, fetcher)
	if len(translators) == 0 {
		return nil, err
	}
	log.WithField("providers", len(translators)).Info("Review translation enabled")
	chain := translate.NewChain(log, m, translators...)
	return translate.NewCached(chain, store, m), err
}

func providers(ctx context.Context, cfg *config.Config, fetcher *scraper.QuotaFetcher) ([]translate.Translator, error) {
	var out []translate.Translator
	if g := translate.NewGoogleTranslator(fetcher, cfg.GoogleTranslateKey, ""); g != nil {
		out = append(out, g)
	}
	gemini, err := translate.NewGeminiTranslator(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if gemini != nil {
		out = append(out, gemini)
	}
	if g := translate.NewGroqTranslator(cfg.GroqAPIKey, cfg.GroqModel); g != nil {
		out = append(out, g)
	}
	return out, err
}
