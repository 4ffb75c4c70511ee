// Package webhook serves the LINE callback: it verifies the signature,
// hands each event to the bot processor and sends the reply.
package webhook

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"

	"github.com/garyellow/taichung-eats-linebot/internal/config"
	"github.com/garyellow/taichung-eats-linebot/internal/ctxutil"
	apperrors "github.com/garyellow/taichung-eats-linebot/internal/errors"
	"github.com/garyellow/taichung-eats-linebot/internal/lineutil"
	"github.com/garyellow/taichung-eats-linebot/internal/logger"
	"github.com/garyellow/taichung-eats-linebot/internal/metrics"
	"github.com/garyellow/taichung-eats-linebot/internal/ratelimit"
)

// maxEventsPerWebhook bounds the work done for one callback.
const maxEventsPerWebhook = 100

// Replier sends reply messages. *messaging_api.MessagingApiAPI satisfies it.
type Replier interface {
	ReplyMessage(req *messaging_api.ReplyMessageRequest) (*messaging_api.ReplyMessageResponse, error)
}

// Processor produces replies for events. *bot.Processor satisfies it.
type Processor interface {
	ProcessMessage(ctx context.Context, event webhook.MessageEvent) []messaging_api.MessageInterface
	ProcessPostback(ctx context.Context, event webhook.PostbackEvent) []messaging_api.MessageInterface
	ProcessFollow(ctx context.Context, event webhook.FollowEvent) []messaging_api.MessageInterface
}

// Handler handles LINE webhook callbacks.
type Handler struct {
	channelSecret string
	replier       Replier
	processor     Processor
	replyLimiter  *ratelimit.Limiter
	metrics       *metrics.Metrics
	logger        *logger.Logger
	timeout       time.Duration
}

// HandlerConfig holds the dependencies of a Handler. When Replier is nil a
// Messaging API client is created from ChannelToken.
type HandlerConfig struct {
	ChannelSecret string
	ChannelToken  string
	Replier       Replier
	Processor     Processor
	Metrics       *metrics.Metrics
	Logger        *logger.Logger
	Timeout       time.Duration // per callback, defaults to config.WebhookProcessing
	ReplyRPS      float64       // outbound reply pacing, defaults to 100/s
}

// NewHandler creates a webhook handler.
func NewHandler(cfg HandlerConfig) (*Handler, error) {
	replier := cfg.Replier
	if replier == nil {
		client, err := messaging_api.NewMessagingApiAPI(cfg.ChannelToken)
		if err != nil {
			return nil, fmt.Errorf("create messaging API client: %w", err)
		}
		replier = client
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = config.WebhookProcessing
	}
	if cfg.ReplyRPS <= 0 {
		cfg.ReplyRPS = 100
	}

	return &Handler{
		channelSecret: cfg.ChannelSecret,
		replier:       replier,
		processor:     cfg.Processor,
		replyLimiter:  ratelimit.New(cfg.ReplyRPS, cfg.ReplyRPS),
		metrics:       cfg.Metrics,
		logger:        cfg.Logger.WithModule("webhook"),
		timeout:       cfg.Timeout,
	}, nil
}

// Handle is the gin handler for POST /callback. A bad signature is a 400,
// any other failure a 500; events are answered before the response is
// written.
func (h *Handler) Handle(c *gin.Context) {
	start := time.Now()

	cb, err := webhook.ParseRequest(h.channelSecret, c.Request)
	if err != nil {
		if errors.Is(err, webhook.ErrInvalidSignature) {
			h.logger.Warn("Invalid webhook signature")
			h.metrics.RecordHTTPError("invalid_signature", "webhook")
			c.JSON(http.StatusBadRequest, gin.H{"status": "invalid signature"})
			return
		}
		h.logger.WithError(err).Error("Failed to parse webhook request")
		h.metrics.RecordHTTPError("parse_failed", "webhook")
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error"})
		return
	}

	events := cb.Events
	if len(events) > maxEventsPerWebhook {
		h.logger.WithField("event_count", len(events)).Warn("Too many events in webhook batch; truncating")
		events = events[:maxEventsPerWebhook]
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()
	ctx = ctxutil.WithRequestID(ctx, uuid.NewString())

	var errs []error
	for _, event := range events {
		if err := h.processEvent(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}

	if err := errors.Join(errs...); err != nil {
		h.logger.WithError(err).
			WithField("duration_ms", time.Since(start).Milliseconds()).
			Error("Webhook processing failed")
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) processEvent(ctx context.Context, event webhook.EventInterface) error {
	start := time.Now()

	var (
		eventType  string
		eventID    string
		replyToken string
		messages   []messaging_api.MessageInterface
	)

	switch e := event.(type) {
	case webhook.MessageEvent:
		eventType, eventID, replyToken = "message", e.WebhookEventId, e.ReplyToken
		messages = h.processor.ProcessMessage(ctxutil.WithEventID(ctx, eventID), e)
	case webhook.PostbackEvent:
		eventType, eventID, replyToken = "postback", e.WebhookEventId, e.ReplyToken
		messages = h.processor.ProcessPostback(ctxutil.WithEventID(ctx, eventID), e)
	case webhook.FollowEvent:
		eventType, eventID, replyToken = "follow", e.WebhookEventId, e.ReplyToken
		messages = h.processor.ProcessFollow(ctxutil.WithEventID(ctx, eventID), e)
	default:
		h.logger.WithField("event_type", fmt.Sprintf("%T", e)).Debug("Unsupported event type")
		return nil
	}

	log := h.logger.WithField("event_type", eventType).WithField("event_id", eventID)

	if len(messages) == 0 || replyToken == "" {
		h.metrics.RecordWebhook(eventType, "ignored", time.Since(start).Seconds())
		return nil
	}
	if len(messages) > lineutil.MaxMessagesPerReply {
		log.WithField("message_count", len(messages)).Warn("Message count exceeds limit; truncating")
		messages = messages[:lineutil.MaxMessagesPerReply]
	}

	if err := h.replyLimiter.Wait(ctx); err != nil {
		h.metrics.RecordWebhook(eventType, "timeout", time.Since(start).Seconds())
		return fmt.Errorf("%w: wait for reply slot: %w", apperrors.ErrTimeout, err)
	}

	_, err := h.replier.ReplyMessage(&messaging_api.ReplyMessageRequest{
		ReplyToken: replyToken,
		Messages:   messages,
	})
	if err != nil {
		// A redelivered event carries a token that was already used.
		if strings.Contains(err.Error(), "Invalid reply token") {
			log.WithError(err).Debug("Reply token already used or invalid")
			h.metrics.RecordWebhook(eventType, "stale_token", time.Since(start).Seconds())
			return nil
		}
		h.metrics.RecordHTTPError("reply_failed", "webhook")
		h.metrics.RecordWebhook(eventType, "reply_error", time.Since(start).Seconds())
		return fmt.Errorf("reply to %s event: %w", eventType, err)
	}

	h.metrics.RecordWebhook(eventType, "success", time.Since(start).Seconds())
	log.WithField("duration_ms", time.Since(start).Milliseconds()).Info("Event processed")
	return nil
}
