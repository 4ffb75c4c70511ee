package bot

import (
	"context"
	"testing"

	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"
	"github.com/stretchr/testify/assert"

	"github.com/garyellow/taichung-eats-linebot/internal/ctxutil"
)

func TestSourceIDs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		source  webhook.SourceInterface
		chatID  string
		userID  string
		rateKey string
	}{
		{"user", webhook.UserSource{UserId: "U1"}, "U1", "U1", "U1"},
		{"group", webhook.GroupSource{GroupId: "G1", UserId: "U2"}, "G1", "U2", "U2"},
		{"room without user", webhook.RoomSource{RoomId: "R1"}, "R1", "", "R1"},
		{"nil", nil, "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.chatID, GetChatID(tt.source))
			assert.Equal(t, tt.userID, GetUserID(tt.source))
			assert.Equal(t, tt.rateKey, rateKey(tt.source))
		})
	}
}

func TestWithSource(t *testing.T) {
	t.Parallel()

	ctx := withSource(context.Background(), webhook.GroupSource{GroupId: "G1", UserId: "U2"})
	assert.Equal(t, "G1", ctxutil.GetChatID(ctx))
	assert.Equal(t, "U2", ctxutil.GetUserID(ctx))
}
