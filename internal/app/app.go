// Package app provides application initialization and lifecycle management
// for the webhook server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/garyellow/taichung-eats-linebot/internal/bot"
	"github.com/garyellow/taichung-eats-linebot/internal/buildinfo"
	"github.com/garyellow/taichung-eats-linebot/internal/catalog"
	"github.com/garyellow/taichung-eats-linebot/internal/config"
	"github.com/garyellow/taichung-eats-linebot/internal/logger"
	"github.com/garyellow/taichung-eats-linebot/internal/metrics"
	"github.com/garyellow/taichung-eats-linebot/internal/r2client"
	"github.com/garyellow/taichung-eats-linebot/internal/ratelimit"
	"github.com/garyellow/taichung-eats-linebot/internal/scraper"
	"github.com/garyellow/taichung-eats-linebot/internal/sentry"
	"github.com/garyellow/taichung-eats-linebot/internal/snapshot"
	"github.com/garyellow/taichung-eats-linebot/internal/webhook"
)

// Application manages the application lifecycle and dependencies.
type Application struct {
	cfg            *config.Config
	logger         *logger.Logger
	metrics        *metrics.Metrics
	registry       *prometheus.Registry
	catalog        *catalog.Catalog
	userLimiter    *ratelimit.KeyedLimiter
	webhookHandler *webhook.Handler
	router         *gin.Engine
	server         *http.Server
}

// Initialize creates and initializes a new application with all dependencies.
func Initialize(ctx context.Context, cfg *config.Config) (*Application, error) {
	opts := logger.Options{}
	if cfg.LogToFile {
		opts.FilePath = cfg.LogFile
	}
	if cfg.BetterStack.Enabled {
		opts.BetterStackToken = cfg.BetterStack.Token
	}
	log := logger.NewWithOptions(cfg.LogLevel, os.Stdout, opts)
	log = log.WithField("service", "taichung-eats-linebot")
	if host, err := os.Hostname(); err == nil && host != "" {
		log = log.WithField("instance_id", host)
	}
	slog.SetDefault(log.Logger)

	log.Info("Initializing application...", "version", buildinfo.Version, "commit", buildinfo.Commit)

	if cfg.Sentry.Enabled {
		if err := sentry.Initialize(sentry.Config{
			Token:       cfg.Sentry.Token,
			Host:        cfg.Sentry.Host,
			Environment: cfg.Sentry.Environment,
			Release:     buildinfo.Version,
			SampleRate:  cfg.Sentry.SampleRate,
		}); err != nil {
			log.WithError(err).Warn("Sentry initialization failed")
		} else {
			log.Info("Sentry error reporting enabled")
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewBuildInfoCollector(),
	)
	m := metrics.New(registry)

	sources, err := catalogSources(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	cat := catalog.New(log, sources,
		catalog.WithCacheFile(cfg.CatalogPath),
		catalog.WithMetrics(m),
	)

	userLimiter := ratelimit.NewKeyedLimiter(ratelimit.KeyedConfig{
		Name:          "user",
		Burst:         cfg.UserRateBurst,
		RefillRate:    cfg.UserRateRefill,
		CleanupPeriod: config.RateLimiterCleanupInterval,
		Metrics:       m,
	})

	processor := bot.NewProcessor(bot.ProcessorConfig{
		Catalog:     cat,
		UserLimiter: userLimiter,
		Logger:      log,
		Metrics:     m,
	})

	webhookHandler, err := webhook.NewHandler(webhook.HandlerConfig{
		ChannelSecret: cfg.LineChannelSecret,
		ChannelToken:  cfg.LineChannelToken,
		Processor:     processor,
		Metrics:       m,
		Logger:        log,
	})
	if err != nil {
		userLimiter.Stop()
		return nil, fmt.Errorf("webhook: %w", err)
	}

	app := &Application{
		cfg:            cfg,
		logger:         log,
		metrics:        m,
		registry:       registry,
		catalog:        cat,
		userLimiter:    userLimiter,
		webhookHandler: webhookHandler,
	}
	gin.SetMode(gin.ReleaseMode)
	app.router = app.newRouter()
	app.server = &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           app.router,
		ReadHeaderTimeout: config.WebhookHTTPRead,
		ReadTimeout:       config.WebhookHTTPRead,
		WriteTimeout:      config.WebhookHTTPWrite,
		IdleTimeout:       config.WebhookHTTPIdle,
	}

	log.WithField("sources", len(sources)).Info("Initialization complete")
	return app, nil
}

// catalogSources lists where the catalog may come from, in priority order.
func catalogSources(ctx context.Context, cfg *config.Config, log *logger.Logger) ([]catalog.Source, error) {
	sources := []catalog.Source{catalog.FileSource{Path: cfg.CatalogPath}}

	if cfg.CatalogRemoteURL != "" {
		sources = append(sources, &scraper.RemoteSource{
			Client: scraper.NewClient(config.CatalogDownload, 2),
			URL:    cfg.CatalogRemoteURL,
			Token:  cfg.CatalogRemoteToken,
		})
	}

	if cfg.R2.Enabled {
		client, err := r2client.New(ctx, r2client.Config{
			Endpoint:    cfg.R2.Endpoint(),
			AccessKeyID: cfg.R2.AccessKeyID,
			SecretKey:   cfg.R2.SecretAccessKey,
			BucketName:  cfg.R2.BucketName,
		})
		if err != nil {
			return nil, fmt.Errorf("r2: %w", err)
		}
		sources = append(sources, snapshot.New(client, snapshot.Config{
			SnapshotKey: cfg.R2.SnapshotKey,
			LockKey:     cfg.R2.LockKey,
			LockTTL:     cfg.R2.LockTTL,
		}, log))
	}
	return sources, nil
}

func (a *Application) newRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	if sentry.IsEnabled() {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	router.Use(securityHeadersMiddleware())
	router.Use(loggingMiddleware(a.logger))

	router.GET("/livez", a.livenessCheck)
	router.HEAD("/livez", a.livenessCheck)
	router.GET("/readyz", a.readinessCheck)
	router.HEAD("/readyz", a.readinessCheck)
	router.POST("/callback", a.webhookHandler.Handle)
	router.GET("/metrics",
		metricsAuthMiddleware(a.cfg.Metrics),
		gin.WrapH(promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})))
	return router
}

func (a *Application) livenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}

// readinessCheck reports 503 until the catalog load has finished. An
// empty catalog is still ready: every query answers "not found".
func (a *Application) readinessCheck(c *gin.Context) {
	if !a.catalog.Loaded() {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"reason": "catalog loading",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"catalog": gin.H{
			"source":  a.catalog.Source(),
			"records": a.catalog.Len(),
		},
	})
}

// Run starts the HTTP server and background jobs and blocks until SIGINT
// or SIGTERM.
//
// Shutdown order: cancel jobs and wait for them, stop accepting requests,
// wait for in-flight webhooks, then release the limiter and log sinks.
func (a *Application) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.loadCatalog(gctx)
		return nil
	})
	g.Go(func() error {
		a.updateMetrics(gctx)
		return nil
	})
	g.Go(func() error {
		a.logger.WithField("port", a.cfg.Port).Info("Starting HTTP server")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("Received shutdown signal")
		return a.shutdown()
	})

	return g.Wait()
}

func (a *Application) loadCatalog(ctx context.Context) {
	loadCtx, cancel := context.WithTimeout(ctx, config.CatalogDownload)
	defer cancel()
	if err := a.catalog.Load(loadCtx); err != nil {
		a.logger.WithError(err).Error("Catalog load failed")
	}
}

// updateMetrics refreshes gauges that have no natural event to hang on.
func (a *Application) updateMetrics(ctx context.Context) {
	ticker := time.NewTicker(config.MetricsUpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.metrics.SetRateLimiterUsers(a.userLimiter.ActiveCount())
		}
	}
}

func (a *Application) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	a.logger.Info("Stopping HTTP server...")
	err := a.server.Shutdown(shutdownCtx)
	if err != nil {
		a.logger.WithError(err).Error("HTTP server shutdown error")
	}

	a.userLimiter.Stop()
	sentry.Flush(2 * time.Second)

	a.logger.Info("Shutdown complete")
	if lerr := a.logger.Shutdown(shutdownCtx); lerr != nil {
		_, _ = fmt.Fprintf(os.Stderr, "logger shutdown: %v\n", lerr)
	}
	return err
}
