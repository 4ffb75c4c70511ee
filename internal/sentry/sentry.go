// Package sentry reports errors and recovered panics to Better Stack Errors
// through the Sentry Go SDK. Every function is a no-op until Initialize
// has been called with a token.
package sentry

import (
	"context"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/garyellow/taichung-eats-linebot/internal/ctxutil"
)

// Config holds Sentry configuration for Better Stack integration.
type Config struct {
	// Token is the Better Stack Errors application token.
	Token string

	// Host is the ingesting host, e.g. "errors.betterstack.com".
	Host string

	Environment string
	Release     string

	// SampleRate is clamped to (0, 1]; zero means 1.
	SampleRate float64
}

// DSN builds the Sentry DSN understood by Better Stack.
// The project ID is required by the SDK and ignored by the backend.
func DSN(token, host string) string {
	return fmt.Sprintf("https://%s@%s/1", token, host)
}

// Initialize sets up the Sentry SDK. An empty Token disables Sentry.
func Initialize(cfg Config) error {
	if cfg.Token == "" {
		return nil
	}
	if cfg.Host == "" {
		return fmt.Errorf("sentry host is required when token is provided")
	}

	sampleRate := cfg.SampleRate
	if sampleRate <= 0 || sampleRate > 1 {
		sampleRate = 1.0
	}

	return sentry.Init(sentry.ClientOptions{
		Dsn:              DSN(cfg.Token, cfg.Host),
		Environment:      cfg.Environment,
		Release:          cfg.Release,
		SampleRate:       sampleRate,
		AttachStacktrace: true,
	})
}

// Flush waits for buffered events. It reports whether the queue drained.
func Flush(timeout time.Duration) bool {
	return sentry.Flush(timeout)
}

// IsEnabled reports whether a client is bound to the current hub.
func IsEnabled() bool {
	return sentry.CurrentHub().Client() != nil
}

func hubFor(ctx context.Context) *sentry.Hub {
	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		return hub
	}
	return sentry.CurrentHub()
}

// withTracing runs fn on a scope tagged with the tracing values of ctx.
func withTracing(ctx context.Context, tags map[string]string, fn func(*sentry.Hub)) {
	hub := hubFor(ctx)
	if hub.Client() == nil {
		return
	}
	hub.WithScope(func(scope *sentry.Scope) {
		if userID := ctxutil.GetUserID(ctx); userID != "" {
			scope.SetUser(sentry.User{ID: userID})
		}
		if requestID, ok := ctxutil.GetRequestID(ctx); ok && requestID != "" {
			scope.SetTag("request_id", requestID)
		}
		if eventID := ctxutil.GetEventID(ctx); eventID != "" {
			scope.SetTag("event_id", eventID)
		}
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		fn(hub)
	})
}

// CaptureError reports err with optional extra tags.
func CaptureError(ctx context.Context, err error, tags map[string]string) {
	if err == nil {
		return
	}
	withTracing(ctx, tags, func(hub *sentry.Hub) {
		hub.CaptureException(err)
	})
}

// CapturePanic reports a value returned by recover().
func CapturePanic(ctx context.Context, recovered any, tags map[string]string) {
	if recovered == nil {
		return
	}
	withTracing(ctx, tags, func(hub *sentry.Hub) {
		hub.Recover(recovered)
	})
}
