package bot

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"

	"github.com/garyellow/taichung-eats-linebot/internal/dialogue"
	"github.com/garyellow/taichung-eats-linebot/internal/logger"
	"github.com/garyellow/taichung-eats-linebot/internal/metrics"
)

// PanicError carries a recovered panic value out of a handler.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("handler panic: %v", e.Value)
}

// safely runs fn and converts a panic into a *PanicError.
func safely(fn func() ([]messaging_api.MessageInterface, error)) (msgs []messaging_api.MessageInterface, err error) {
	defer func() {
		if r := recover(); r != nil {
			msgs, err = nil, &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return fn()
}

// LoggingMiddleware logs each dispatch at debug level.
func LoggingMiddleware(log *logger.Logger) Middleware {
	return func(kind dialogue.Kind, next Handler) Handler {
		return func(ctx context.Context, intent dialogue.Intent) ([]messaging_api.MessageInterface, error) {
			start := time.Now()
			msgs, err := next(ctx, intent)
			log.WithField("intent", kind.String()).
				WithField("duration_ms", time.Since(start).Milliseconds()).
				WithField("msg_count", len(msgs)).
				Debug("Handler completed")
			return msgs, err
		}
	}
}

// MetricsMiddleware counts dispatches per intent.
func MetricsMiddleware(m *metrics.Metrics) Middleware {
	return func(kind dialogue.Kind, next Handler) Handler {
		return func(ctx context.Context, intent dialogue.Intent) ([]messaging_api.MessageInterface, error) {
			m.RecordIntent(kind.String())
			return next(ctx, intent)
		}
	}
}

// chain applies mws so that mws[0] is outermost.
func chain(kind dialogue.Kind, h Handler, mws ...Middleware) Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](kind, h)
	}
	return h
}
