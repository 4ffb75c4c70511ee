// Package bot turns LINE events into replies. Text turns are classified by
// the dialogue package and dispatched through a table of intent handlers;
// postbacks and follow events have their own entry points.
package bot

import (
	"context"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"

	"github.com/garyellow/taichung-eats-linebot/internal/catalog"
	"github.com/garyellow/taichung-eats-linebot/internal/dialogue"
)

// Handler produces the reply for one classified turn.
type Handler func(ctx context.Context, intent dialogue.Intent) ([]messaging_api.MessageInterface, error)

// Middleware wraps a Handler.
type Middleware func(kind dialogue.Kind, next Handler) Handler

// Catalog is the read side of the store table.
type Catalog interface {
	FindByName(name string) (catalog.StoreRecord, bool)
	FindByNamePrefix(prefix string) (catalog.StoreRecord, bool)
	FindByPlaceID(placeID string) (catalog.StoreRecord, bool)
	FindByCategoryAndRegion(category, region string) []catalog.StoreRecord
}

func single(msg messaging_api.MessageInterface) []messaging_api.MessageInterface {
	return []messaging_api.MessageInterface{msg}
}
