package reply

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyellow/taichung-eats-linebot/internal/catalog"
	"github.com/garyellow/taichung-eats-linebot/internal/lineutil"
)

// buttonsOf collects every button in a box tree.
func buttonsOf(box *messaging_api.FlexBox) []*messaging_api.FlexButton {
	if box == nil {
		return nil
	}
	var out []*messaging_api.FlexButton
	for _, c := range box.Contents {
		switch v := c.(type) {
		case *messaging_api.FlexButton:
			out = append(out, v)
		case *messaging_api.FlexBox:
			out = append(out, buttonsOf(v)...)
		}
	}
	return out
}

func textsOf(box *messaging_api.FlexBox) []string {
	var out []string
	for _, c := range box.Contents {
		if v, ok := c.(*messaging_api.FlexText); ok {
			out = append(out, v.Text)
		}
	}
	return out
}

func flexOf(t *testing.T, msg messaging_api.MessageInterface) *messaging_api.FlexMessage {
	t.Helper()
	flex, ok := msg.(*messaging_api.FlexMessage)
	require.True(t, ok, "expected flex message, got %T", msg)
	return flex
}

func bubbleOf(t *testing.T, msg messaging_api.MessageInterface) *messaging_api.FlexBubble {
	t.Helper()
	bubble, ok := flexOf(t, msg).Contents.(*messaging_api.FlexBubble)
	require.True(t, ok)
	return bubble
}

func carouselOf(t *testing.T, msg messaging_api.MessageInterface) *messaging_api.FlexCarousel {
	t.Helper()
	carousel, ok := flexOf(t, msg).Contents.(*messaging_api.FlexCarousel)
	require.True(t, ok)
	return carousel
}

func messageTexts(t *testing.T, buttons []*messaging_api.FlexButton) []string {
	t.Helper()
	out := make([]string, 0, len(buttons))
	for _, b := range buttons {
		action, ok := b.Action.(*messaging_api.MessageAction)
		require.True(t, ok)
		out = append(out, action.Text)
	}
	return out
}

func TestMenu(t *testing.T) {
	t.Parallel()

	msg := Menu()
	assert.Equal(t, "請選擇想要推薦的風格餐廳：", flexOf(t, msg).AltText)

	bubble := bubbleOf(t, msg)
	buttons := buttonsOf(bubble.Footer)
	require.Len(t, buttons, 3)
	assert.Equal(t, []string{"文青早點", "在地美食", "高檔餐廳"}, messageTexts(t, buttons))
	for _, b := range buttons {
		assert.Equal(t, messaging_api.FlexButtonSTYLE("primary"), b.Style)
	}
	assert.Equal(t, "美食小幫手上線!", textsOf(bubble.Body)[0])
}

func TestStyle(t *testing.T) {
	t.Parallel()

	msg := Style("文青早點")
	require.NotNil(t, msg)
	assert.Equal(t, "文青早點選單", flexOf(t, msg).AltText)

	buttons := buttonsOf(bubbleOf(t, msg).Body)
	require.Len(t, buttons, 4)
	assert.Equal(t, []string{"台式傳統早餐", "西式輕食早餐", "健康營養早餐", "異國風味早餐"}, messageTexts(t, buttons))

	label := buttons[0].Action.(*messaging_api.MessageAction).Label
	assert.Equal(t, "🍳台式傳統早餐", label)

	assert.Nil(t, Style("不存在"))
}

func TestRegionSelector(t *testing.T) {
	t.Parallel()

	msg := RegionSelector("美味熱炒")
	require.NotNil(t, msg)
	assert.Equal(t, "請選擇區域", flexOf(t, msg).AltText)

	carousel := carouselOf(t, msg)
	require.Len(t, carousel.Contents, 3)

	var got []string
	for i := range carousel.Contents {
		got = append(got, messageTexts(t, buttonsOf(carousel.Contents[i].Footer))...)
	}
	assert.Equal(t, []string{"美味熱炒-西區", "美味熱炒-北區", "美味熱炒-南屯區"}, got)
	assert.Contains(t, textsOf(carousel.Contents[0].Body), "看看西區有哪些 美味熱炒！")

	assert.Nil(t, RegionSelector("文青早點"))
}

func TestListing_TwoCardsTruncated(t *testing.T) {
	t.Parallel()

	longName := strings.Repeat("名", 50)
	longHours := strings.Repeat("時", 80)
	records := []catalog.StoreRecord{
		{Name: longName, Hours: longHours, Address: "台中市西區"},
		{Name: "阿嬤早餐"},
	}

	msg := Listing("台式傳統早餐", "西區", records)
	require.NotNil(t, msg)
	assert.Equal(t, "西區 的 台式傳統早餐 推薦店家", flexOf(t, msg).AltText)

	carousel := carouselOf(t, msg)
	require.Len(t, carousel.Contents, 2)

	first := textsOf(carousel.Contents[0].Body)
	assert.Equal(t, MaxNameRunes, utf8.RuneCountInString(first[0]))
	assert.Equal(t, "營業時間:"+strings.Repeat("時", MaxHoursRunes), first[1])

	second := textsOf(carousel.Contents[1].Body)
	assert.Equal(t, "阿嬤早餐", second[0])
	assert.Equal(t, "營業時間:"+NoHoursPlaceholder, second[1])

	buttons := buttonsOf(carousel.Contents[1].Body)
	require.Len(t, buttons, 3)
	view := buttons[0].Action.(*messaging_api.PostbackAction)
	pb, err := ParsePostback(view.Data)
	require.NoError(t, err)
	assert.Equal(t, Postback{Action: ActionViewInfo, ShopID: "阿嬤早餐"}, pb)

	maps := buttons[1].Action.(*messaging_api.UriAction)
	assert.True(t, strings.HasPrefix(maps.Uri, "https://www.google.com/maps/search/?api=1&query="))

	share := buttons[2].Action.(*messaging_api.PostbackAction)
	pb, err = ParsePostback(share.Data)
	require.NoError(t, err)
	assert.Equal(t, ActionShareShop, pb.Action)
	assert.Equal(t, "阿嬤早餐", pb.ShopName)
}

func TestListing_CapsAtTen(t *testing.T) {
	t.Parallel()

	records := make([]catalog.StoreRecord, 14)
	for i := range records {
		records[i].Name = strings.Repeat("x", i+1)
	}
	carousel := carouselOf(t, Listing("美味熱炒", "北區", records))
	assert.Len(t, carousel.Contents, lineutil.MaxBubblesPerCarousel)
}

func TestListing_EmptyDeclines(t *testing.T) {
	t.Parallel()
	assert.Nil(t, Listing("台式傳統早餐", "西區", nil))
}

func TestDetail(t *testing.T) {
	t.Parallel()

	msg := Detail(catalog.StoreRecord{Name: "阿嬤早餐", Address: "台中市西區1號"})
	assert.Equal(t, "阿嬤早餐 詳細資訊", flexOf(t, msg).AltText)
	assert.Equal(t, []string{
		"阿嬤早餐",
		"📍 地址：台中市西區1號",
		"📞 電話：未知",
		"⭐ 評論：未知",
	}, textsOf(bubbleOf(t, msg).Body))
}

func TestWelcome(t *testing.T) {
	t.Parallel()

	msg := Welcome()
	assert.Equal(t, "歡迎訊息", flexOf(t, msg).AltText)
	assert.Contains(t, textsOf(bubbleOf(t, msg).Body), "🎉 歡迎加入美食推薦小幫手")
}

func TestShareText(t *testing.T) {
	t.Parallel()

	got := ShareText(catalog.StoreRecord{Name: "阿嬤早餐", Phone: "04-1111", Reviews: "好吃"})
	assert.Equal(t, "🍽️推薦給你一家美食店！\n店名：阿嬤早餐\n地址：無\n電話：04-1111\n評價：好吃\n快去看看吧！🏃‍♀️", got)
}

func TestTexts(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "抱歉，找不到 某店 的地址資訊。", DetailNotFoundText("某店", "地址"))
	assert.Equal(t, "抱歉，找不到 某店 的資訊，無法分享😥", ShareNotFoundText("某店"))
}

func TestMapsURL(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "https://www.google.com/maps/search/?api=1&query=A+%26+B", MapsURL(catalog.StoreRecord{Name: "A & B"}))
	assert.Equal(t, "https://www.google.com/maps/search/?api=1&query=A+%E8%B7%AF", MapsURL(catalog.StoreRecord{Name: "A", Address: "路"}))
}

func TestPostbackData_LongNameUsesPlaceID(t *testing.T) {
	t.Parallel()

	rec := catalog.StoreRecord{Name: strings.Repeat("長", 60), PlaceID: "ChIJ123"}
	pb, err := ParsePostback(ViewInfoData(rec))
	require.NoError(t, err)
	assert.Equal(t, Postback{Action: ActionViewInfo, PlaceID: "ChIJ123"}, pb)

	pb, err = ParsePostback(ShareData(rec))
	require.NoError(t, err)
	assert.Equal(t, Postback{Action: ActionShareShop, PlaceID: "ChIJ123"}, pb)

	short := catalog.StoreRecord{Name: "A&B=C", PlaceID: "x"}
	pb, err = ParsePostback(ViewInfoData(short))
	require.NoError(t, err)
	assert.Equal(t, "A&B=C", pb.ShopID)
}

func TestPostbackData_LongNameWithoutPlaceID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		rec  catalog.StoreRecord
	}{
		{"just over the limit", catalog.StoreRecord{Name: strings.Repeat("長", 31)}},
		{"far over the limit", catalog.StoreRecord{Name: strings.Repeat("長", 200)}},
		{"ascii", catalog.StoreRecord{Name: strings.Repeat("a&b ", 100)}},
		{"oversize place id", catalog.StoreRecord{Name: strings.Repeat("長", 40), PlaceID: strings.Repeat("x", 400)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			view := ViewInfoData(tt.rec)
			assert.LessOrEqual(t, len(view), lineutil.MaxPostbackData)
			pb, err := ParsePostback(view)
			require.NoError(t, err)
			assert.Equal(t, ActionViewInfo, pb.Action)
			assert.True(t, pb.Prefix)
			assert.NotEmpty(t, pb.ShopID)
			assert.True(t, strings.HasPrefix(tt.rec.Name, pb.ShopID))

			share := ShareData(tt.rec)
			assert.LessOrEqual(t, len(share), lineutil.MaxPostbackData)
			pb, err = ParsePostback(share)
			require.NoError(t, err)
			assert.Equal(t, ActionShareShop, pb.Action)
			assert.True(t, pb.Prefix)
			assert.True(t, strings.HasPrefix(tt.rec.Name, pb.ShopName))
		})
	}
}

func TestListing_LongNamePostbacksFit(t *testing.T) {
	t.Parallel()

	rec := catalog.StoreRecord{Name: strings.Repeat("長", 31)}
	carousel := carouselOf(t, Listing("台式傳統早餐", "西區", []catalog.StoreRecord{rec}))
	require.Len(t, carousel.Contents, 1)

	buttons := buttonsOf(carousel.Contents[0].Body)
	require.Len(t, buttons, 3)
	for _, b := range buttons {
		if pa, ok := b.Action.(*messaging_api.PostbackAction); ok {
			assert.LessOrEqual(t, len(pa.Data), lineutil.MaxPostbackData)
		}
	}
}

func TestParsePostback_Invalid(t *testing.T) {
	t.Parallel()

	_, err := ParsePostback("action=%zz")
	assert.Error(t, err)
}
