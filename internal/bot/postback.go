package bot

import (
	"context"
	"errors"
	"fmt"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"

	"github.com/garyellow/taichung-eats-linebot/internal/catalog"
	apperrors "github.com/garyellow/taichung-eats-linebot/internal/errors"
	"github.com/garyellow/taichung-eats-linebot/internal/reply"
)

var (
	postbackErr    = apperrors.NewWrapper("bot", "postback")
	errMissingShop = apperrors.NewValidationError("shop_id", "missing from postback data")
)

// ProcessPostback handles the card buttons. Malformed data and failures
// reply with reply.ActionFailedText.
func (p *Processor) ProcessPostback(ctx context.Context, event webhook.PostbackEvent) []messaging_api.MessageInterface {
	ctx = withSource(ctx, event.Source)
	if !p.allow(event.Source) {
		return single(reply.Text(reply.RateLimitedText))
	}

	var data string
	if event.Postback != nil {
		data = event.Postback.Data
	}

	msgs, err := safely(func() ([]messaging_api.MessageInterface, error) {
		return p.handlePostback(ctx, data)
	})
	if err != nil {
		if !errors.Is(err, apperrors.ErrInvalidInput) {
			p.reportFailure(ctx, "postback", err)
		} else {
			p.logger.WithError(err).Warn("Rejected postback")
		}
		return single(reply.Text(apperrors.GetUserMessage(err, reply.ActionFailedText)))
	}
	return msgs
}

func (p *Processor) handlePostback(_ context.Context, data string) ([]messaging_api.MessageInterface, error) {
	pb, err := reply.ParsePostback(data)
	if err != nil {
		return nil, postbackErr.Wrap(fmt.Errorf("%w: %w", apperrors.ErrInvalidInput, err), reply.ActionFailedText)
	}
	p.metrics.RecordIntent("postback_" + pb.Action)

	switch pb.Action {
	case reply.ActionViewInfo:
		if pb.ShopID == "" && pb.PlaceID == "" {
			return nil, postbackErr.Wrap(errMissingShop, reply.ActionFailedText)
		}
		rec, ok := p.lookup(pb.ShopID, pb.PlaceID, pb.Prefix)
		if !ok {
			return single(reply.Text(reply.StoreMissingText)), nil
		}
		return single(reply.Detail(rec)), nil

	case reply.ActionShareShop:
		rec, ok := p.lookup(pb.ShopName, pb.PlaceID, pb.Prefix)
		if !ok {
			return single(reply.Text(reply.ShareNotFoundText(pb.ShopName))), nil
		}
		return single(reply.Text(reply.ShareText(rec))), nil

	default:
		p.logger.WithField("action", pb.Action).Warn("Unknown postback action")
		return single(reply.Text(reply.UnknownAction)), nil
	}
}

func (p *Processor) lookup(name, placeID string, prefix bool) (catalog.StoreRecord, bool) {
	switch {
	case name != "" && prefix:
		return p.catalog.FindByNamePrefix(name)
	case name != "":
		return p.catalog.FindByName(name)
	}
	return p.catalog.FindByPlaceID(placeID)
}
