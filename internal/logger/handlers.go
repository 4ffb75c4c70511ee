package logger

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/garyellow/taichung-eats-linebot/internal/ctxutil"
)

// ContextHandler adds user_id, chat_id, request_id and event_id from the
// context to every record before delegating.
type ContextHandler struct {
	next slog.Handler
}

// NewContextHandler wraps next.
func NewContextHandler(next slog.Handler) *ContextHandler {
	return &ContextHandler{next: next}
}

// Enabled delegates to the wrapped handler.
func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

// Handle enriches r with tracing values and delegates.
func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if v := ctxutil.GetUserID(ctx); v != "" {
		r.AddAttrs(slog.String("user_id", v))
	}
	if v := ctxutil.GetChatID(ctx); v != "" {
		r.AddAttrs(slog.String("chat_id", v))
	}
	if v, ok := ctxutil.GetRequestID(ctx); ok && v != "" {
		r.AddAttrs(slog.String("request_id", v))
	}
	if v := ctxutil.GetEventID(ctx); v != "" {
		r.AddAttrs(slog.String("event_id", v))
	}
	return h.next.Handle(ctx, r)
}

// WithAttrs implements slog.Handler.
func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{next: h.next.WithAttrs(attrs)}
}

// WithGroup implements slog.Handler.
func (h *ContextHandler) WithGroup(name string) slog.Handler {
	return &ContextHandler{next: h.next.WithGroup(name)}
}

// FanoutHandler sends each record to every enabled handler.
type FanoutHandler struct {
	handlers []slog.Handler
}

// NewFanoutHandler skips nil handlers.
func NewFanoutHandler(handlers ...slog.Handler) *FanoutHandler {
	out := make([]slog.Handler, 0, len(handlers))
	for _, h := range handlers {
		if h != nil {
			out = append(out, h)
		}
	}
	return &FanoutHandler{handlers: out}
}

// Enabled reports whether any handler accepts level.
func (h *FanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, next := range h.handlers {
		if next.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle clones r per handler and joins their errors.
func (h *FanoutHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, next := range h.handlers {
		if !next.Enabled(ctx, r.Level) {
			continue
		}
		if err := next.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// WithAttrs implements slog.Handler.
func (h *FanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return h.each(func(next slog.Handler) slog.Handler { return next.WithAttrs(attrs) })
}

// WithGroup implements slog.Handler.
func (h *FanoutHandler) WithGroup(name string) slog.Handler {
	return h.each(func(next slog.Handler) slog.Handler { return next.WithGroup(name) })
}

func (h *FanoutHandler) each(fn func(slog.Handler) slog.Handler) *FanoutHandler {
	out := make([]slog.Handler, len(h.handlers))
	for i, next := range h.handlers {
		out[i] = fn(next)
	}
	return &FanoutHandler{handlers: out}
}

const (
	defaultAsyncBufferSize   = 1024
	defaultAsyncFlushTimeout = 5 * time.Second
)

// AsyncOptions configures the async log pipeline.
type AsyncOptions struct {
	BufferSize   int
	FlushTimeout time.Duration
}

type queuedRecord struct {
	ctx     context.Context
	record  slog.Record
	handler slog.Handler
}

// asyncQueue is shared by an AsyncHandler and all handlers derived from it.
type asyncQueue struct {
	ch           chan queuedRecord
	flushTimeout time.Duration
	dropped      atomic.Uint64
	done         chan struct{}

	mu     sync.RWMutex
	closed bool
}

// AsyncHandler hands records to a background goroutine so a slow remote
// sink never blocks the webhook path. Records are dropped when the buffer
// is full.
type AsyncHandler struct {
	queue *asyncQueue
	next  slog.Handler
}

// NewAsyncHandler starts the background writer.
func NewAsyncHandler(next slog.Handler, opts AsyncOptions) *AsyncHandler {
	if opts.BufferSize <= 0 {
		opts.BufferSize = defaultAsyncBufferSize
	}
	if opts.FlushTimeout <= 0 {
		opts.FlushTimeout = defaultAsyncFlushTimeout
	}
	q := &asyncQueue{
		ch:           make(chan queuedRecord, opts.BufferSize),
		flushTimeout: opts.FlushTimeout,
		done:         make(chan struct{}),
	}
	go func() {
		defer close(q.done)
		for rec := range q.ch {
			_ = rec.handler.Handle(rec.ctx, rec.record)
		}
	}()
	return &AsyncHandler{queue: q, next: next}
}

// Enabled delegates to the wrapped handler.
func (h *AsyncHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

// Handle enqueues a clone of r. It never blocks.
func (h *AsyncHandler) Handle(ctx context.Context, r slog.Record) error {
	h.queue.mu.RLock()
	defer h.queue.mu.RUnlock()
	if h.queue.closed {
		return nil
	}
	select {
	case h.queue.ch <- queuedRecord{ctx: ctxutil.PreserveTracing(ctx), record: r.Clone(), handler: h.next}:
	default:
		h.queue.dropped.Add(1)
	}
	return nil
}

// WithAttrs implements slog.Handler.
func (h *AsyncHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &AsyncHandler{queue: h.queue, next: h.next.WithAttrs(attrs)}
}

// WithGroup implements slog.Handler.
func (h *AsyncHandler) WithGroup(name string) slog.Handler {
	return &AsyncHandler{queue: h.queue, next: h.next.WithGroup(name)}
}

// Dropped returns how many records were discarded because the buffer was full.
func (h *AsyncHandler) Dropped() uint64 {
	return h.queue.dropped.Load()
}

// Shutdown stops accepting records and waits for the queue to drain,
// bounded by ctx or the flush timeout when ctx has no deadline.
func (h *AsyncHandler) Shutdown(ctx context.Context) error {
	if h == nil || h.queue == nil {
		return nil
	}
	h.queue.mu.Lock()
	if !h.queue.closed {
		h.queue.closed = true
		close(h.queue.ch)
	}
	h.queue.mu.Unlock()
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.queue.flushTimeout)
		defer cancel()
	}
	select {
	case <-h.queue.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
