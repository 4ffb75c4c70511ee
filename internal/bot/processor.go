package bot

import (
	"context"
	"errors"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"

	"github.com/garyellow/taichung-eats-linebot/internal/dialogue"
	apperrors "github.com/garyellow/taichung-eats-linebot/internal/errors"
	"github.com/garyellow/taichung-eats-linebot/internal/logger"
	"github.com/garyellow/taichung-eats-linebot/internal/metrics"
	"github.com/garyellow/taichung-eats-linebot/internal/ratelimit"
	"github.com/garyellow/taichung-eats-linebot/internal/reply"
	"github.com/garyellow/taichung-eats-linebot/internal/sentry"
)

// Processor turns LINE events into reply messages. Every entry point
// returns something sendable: failures inside a turn become reply.ErrorText.
type Processor struct {
	catalog     Catalog
	userLimiter *ratelimit.KeyedLimiter
	logger      *logger.Logger
	metrics     *metrics.Metrics
	handlers    map[dialogue.Kind]Handler
}

// ProcessorConfig holds the dependencies of a Processor. UserLimiter and
// Metrics are optional.
type ProcessorConfig struct {
	Catalog     Catalog
	UserLimiter *ratelimit.KeyedLimiter
	Logger      *logger.Logger
	Metrics     *metrics.Metrics
}

// NewProcessor builds the intent handler table.
func NewProcessor(cfg ProcessorConfig) *Processor {
	p := &Processor{
		catalog:     cfg.Catalog,
		userLimiter: cfg.UserLimiter,
		logger:      cfg.Logger.WithModule("bot"),
		metrics:     cfg.Metrics,
	}

	handlers := map[dialogue.Kind]Handler{
		dialogue.KindDetail:   p.handleDetail,
		dialogue.KindListing:  p.handleListing,
		dialogue.KindMenu:     p.handleMenu,
		dialogue.KindStyle:    p.handleStyle,
		dialogue.KindFoodType: p.handleFoodType,
		dialogue.KindUnknown:  p.handleUnknown,
	}
	p.handlers = make(map[dialogue.Kind]Handler, len(handlers))
	for kind, h := range handlers {
		p.handlers[kind] = chain(kind, h, MetricsMiddleware(cfg.Metrics), LoggingMiddleware(p.logger))
	}
	return p
}

// ProcessMessage handles a message event. Non-text messages get no reply.
func (p *Processor) ProcessMessage(ctx context.Context, event webhook.MessageEvent) []messaging_api.MessageInterface {
	text, ok := event.Message.(webhook.TextMessageContent)
	if !ok {
		return nil
	}

	ctx = withSource(ctx, event.Source)
	if !p.allow(event.Source) {
		return single(reply.Text(reply.RateLimitedText))
	}
	return p.ProcessText(ctx, text.Text)
}

// ProcessText classifies text and runs the matching handler.
func (p *Processor) ProcessText(ctx context.Context, text string) []messaging_api.MessageInterface {
	msgs, err := safely(func() ([]messaging_api.MessageInterface, error) {
		intent := dialogue.Classify(text)
		return p.handlers[intent.Kind](ctx, intent)
	})
	if err != nil {
		p.reportFailure(ctx, "message", err)
		return single(reply.Text(apperrors.GetUserMessage(err, reply.ErrorText)))
	}
	return msgs
}

// ProcessFollow greets a new follower.
func (p *Processor) ProcessFollow(_ context.Context, event webhook.FollowEvent) []messaging_api.MessageInterface {
	p.logger.WithField("user_id", GetUserID(event.Source)).Info("New follower")
	return single(reply.Welcome())
}

func (p *Processor) allow(source webhook.SourceInterface) bool {
	if p.userLimiter == nil {
		return true
	}
	if p.userLimiter.Allow(rateKey(source)) {
		return true
	}
	p.logger.WithError(apperrors.ErrRateLimitExceeded).WithField("chat_id", GetChatID(source)).Warn("Dropping turn")
	return false
}

func (p *Processor) reportFailure(ctx context.Context, event string, err error) {
	tags := map[string]string{"event": event}

	var pe *PanicError
	if errors.As(err, &pe) {
		p.logger.WithError(err).
			WithField("event", event).
			WithField("stack", string(pe.Stack)).
			Error("Panic while handling event")
		p.metrics.RecordHTTPError("panic", "bot")
		sentry.CapturePanic(ctx, pe.Value, tags)
		return
	}

	p.logger.WithError(err).WithField("event", event).Error("Failed to handle event")
	p.metrics.RecordHTTPError("handler", "bot")
	sentry.CaptureError(ctx, err, tags)
}

func (p *Processor) handleDetail(_ context.Context, intent dialogue.Intent) ([]messaging_api.MessageInterface, error) {
	rec, ok := p.catalog.FindByName(intent.Name)
	if !ok {
		return single(reply.Text(reply.DetailNotFoundText(intent.Name, intent.Field.Label()))), nil
	}
	return single(reply.Detail(rec)), nil
}

func (p *Processor) handleListing(_ context.Context, intent dialogue.Intent) ([]messaging_api.MessageInterface, error) {
	records := p.catalog.FindByCategoryAndRegion(intent.Category, intent.District)
	if msg := reply.Listing(intent.Category, intent.District, records); msg != nil {
		return single(msg), nil
	}
	return single(reply.Text(reply.NoStoresText)), nil
}

func (p *Processor) handleMenu(context.Context, dialogue.Intent) ([]messaging_api.MessageInterface, error) {
	return single(reply.Menu()), nil
}

func (p *Processor) handleStyle(_ context.Context, intent dialogue.Intent) ([]messaging_api.MessageInterface, error) {
	if msg := reply.Style(intent.Style); msg != nil {
		return single(msg), nil
	}
	return single(reply.Text(reply.FallbackText)), nil
}

func (p *Processor) handleFoodType(_ context.Context, intent dialogue.Intent) ([]messaging_api.MessageInterface, error) {
	if msg := reply.RegionSelector(intent.Category); msg != nil {
		return single(msg), nil
	}
	return single(reply.Text(reply.FallbackText)), nil
}

func (p *Processor) handleUnknown(context.Context, dialogue.Intent) ([]messaging_api.MessageInterface, error) {
	return single(reply.Text(reply.FallbackText)), nil
}
