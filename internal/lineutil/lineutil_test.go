package lineutil

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTruncateRunes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"short", "阿嬤早餐", 40, "阿嬤早餐"},
		{"exact", "一二三", 3, "一二三"},
		{"cut", "一二三四五", 3, "一二三"},
		{"zero", "abc", 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, TruncateRunes(tt.in, tt.max))
		})
	}
}

func TestTruncateWithEllipsis(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "abc", TruncateWithEllipsis("abc", 5))
	assert.Equal(t, "一二...", TruncateWithEllipsis("一二三四五六", 5))
	assert.Equal(t, "一二", TruncateWithEllipsis("一二三四", 2))
}

func TestNewTextMessage_Limit(t *testing.T) {
	t.Parallel()

	msg := NewTextMessage(strings.Repeat("好", MaxTextMessageLength+10))
	assert.Equal(t, MaxTextMessageLength, utf8.RuneCountInString(msg.Text))
	assert.True(t, strings.HasSuffix(msg.Text, "..."))
}

func TestActions(t *testing.T) {
	t.Parallel()

	msg, ok := NewMessageAction("🍳台式傳統早餐", "台式傳統早餐").(*messaging_api.MessageAction)
	require.True(t, ok)
	assert.Equal(t, "台式傳統早餐", msg.Text)

	pb, ok := NewPostbackActionWithDisplayText("查看資訊", "查看資訊", "action=view_info").(*messaging_api.PostbackAction)
	require.True(t, ok)
	assert.Equal(t, "action=view_info", pb.Data)
	assert.Equal(t, "查看資訊", pb.DisplayText)

	uri, ok := NewURIAction(strings.Repeat("長", 30), "https://example.com").(*messaging_api.UriAction)
	require.True(t, ok)
	assert.Equal(t, MaxActionLabel, utf8.RuneCountInString(uri.Label))
}

func TestNewFlexCarousel_Caps(t *testing.T) {
	t.Parallel()

	bubbles := make([]messaging_api.FlexBubble, 15)
	assert.Len(t, NewFlexCarousel(bubbles).Contents, MaxBubblesPerCarousel)
	assert.Len(t, NewFlexCarousel(bubbles[:2]).Contents, 2)
}

func TestNewFlexBubble(t *testing.T) {
	t.Parallel()

	body := NewVerticalBox(NewFlexText("hi").Bold().WithSize(SizeXL).FlexText).WithSpacing(SpacingMD)
	footer := NewVerticalBox(ButtonComponents(NewPrimaryButton(NewMessageAction("a", "a")), nil)...)
	bubble := NewFlexBubble(nil, NewHeroImage("https://img"), body, footer)

	assert.Nil(t, bubble.Header)
	require.NotNil(t, bubble.Body)
	assert.Equal(t, SpacingMD, bubble.Body.Spacing)
	assert.Len(t, bubble.Footer.Contents, 1)

	hero, ok := bubble.Hero.(*messaging_api.FlexImage)
	require.True(t, ok)
	assert.Equal(t, "20:13", hero.AspectRatio)
}

func TestSetSender(t *testing.T) {
	t.Parallel()

	sender := NewSender("美食小幫手")
	text := NewTextMessage("hi")
	SetSender(text, sender)
	assert.Equal(t, sender, text.Sender)

	flex := NewFlexMessage("alt", NewFlexCarousel(nil))
	SetSender(flex, sender)
	assert.Equal(t, sender, flex.Sender)

	assert.Equal(t, text, SetSender(text, nil))
}
