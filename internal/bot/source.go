package bot

import (
	"context"

	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"

	"github.com/garyellow/taichung-eats-linebot/internal/ctxutil"
)

// GetChatID returns the user, group or room ID of source.
func GetChatID(source webhook.SourceInterface) string {
	switch s := source.(type) {
	case webhook.UserSource:
		return s.UserId
	case webhook.GroupSource:
		return s.GroupId
	case webhook.RoomSource:
		return s.RoomId
	}
	return ""
}

// GetUserID returns the sending user's ID, which LINE omits in some group
// events.
func GetUserID(source webhook.SourceInterface) string {
	switch s := source.(type) {
	case webhook.UserSource:
		return s.UserId
	case webhook.GroupSource:
		return s.UserId
	case webhook.RoomSource:
		return s.UserId
	}
	return ""
}

// withSource stores the chat and user IDs for logging and error reports.
func withSource(ctx context.Context, source webhook.SourceInterface) context.Context {
	ctx = ctxutil.WithChatID(ctx, GetChatID(source))
	return ctxutil.WithUserID(ctx, GetUserID(source))
}

// rateKey picks the identity a turn is rate limited by.
func rateKey(source webhook.SourceInterface) string {
	if id := GetUserID(source); id != "" {
		return id
	}
	return GetChatID(source)
}
