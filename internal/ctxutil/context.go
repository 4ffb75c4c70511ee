// Package ctxutil provides type-safe context value management for the
// tracing values carried through a webhook turn.
package ctxutil

import (
	"context"
)

type contextKey string

const (
	userIDKey    contextKey = "ctxutil.userID"
	chatIDKey    contextKey = "ctxutil.chatID"
	requestIDKey contextKey = "ctxutil.requestID"
	eventIDKey   contextKey = "ctxutil.eventID"
)

func withString(ctx context.Context, key contextKey, value string) context.Context {
	return context.WithValue(ctx, key, value)
}

func getString(ctx context.Context, key contextKey) string {
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}

// WithUserID adds the LINE user ID of the event source.
// It also keys the per-user rate limiter.
func WithUserID(ctx context.Context, userID string) context.Context {
	return withString(ctx, userIDKey, userID)
}

// GetUserID returns the user ID, or "" when absent.
func GetUserID(ctx context.Context) string {
	return getString(ctx, userIDKey)
}

// WithChatID adds the conversation ID (user, group, or room).
func WithChatID(ctx context.Context, chatID string) context.Context {
	return withString(ctx, chatIDKey, chatID)
}

// GetChatID returns the chat ID, or "" when absent.
func GetChatID(ctx context.Context) string {
	return getString(ctx, chatIDKey)
}

// WithRequestID adds the per-HTTP-request correlation ID.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return withString(ctx, requestIDKey, requestID)
}

// GetRequestID returns the request ID and whether one was set.
func GetRequestID(ctx context.Context) (string, bool) {
	requestID, ok := ctx.Value(requestIDKey).(string)
	return requestID, ok
}

// WithEventID adds the LINE webhook event ID.
func WithEventID(ctx context.Context, eventID string) context.Context {
	return withString(ctx, eventIDKey, eventID)
}

// GetEventID returns the webhook event ID, or "" when absent.
func GetEventID(ctx context.Context) string {
	return getString(ctx, eventIDKey)
}

// PreserveTracing returns a fresh background context carrying only the
// tracing values of ctx. The result is not canceled with ctx.
func PreserveTracing(ctx context.Context) context.Context {
	out := context.Background()
	for _, key := range []contextKey{userIDKey, chatIDKey, requestIDKey, eventIDKey} {
		if v := getString(ctx, key); v != "" {
			out = withString(out, key, v)
		}
	}
	return out
}
