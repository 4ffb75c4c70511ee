// Package reply builds the LINE payloads of every dialogue stage.
//
// Builders are pure: they read their arguments only and never touch the
// catalog. A builder that has nothing to show returns nil, and the caller
// turns that into a plain text reply.
package reply

import (
	"fmt"
	"net/url"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"

	"github.com/garyellow/taichung-eats-linebot/internal/catalog"
	"github.com/garyellow/taichung-eats-linebot/internal/lineutil"
)

// Fixed texts.
const (
	FallbackText     = "請點選選單或輸入正確的格式"
	ErrorText        = "處理您的請求時發生錯誤😥，請稍候再試或確認輸入格式。"
	NoStoresText     = "目前找不到符合條件的店家喔！"
	ActionFailedText = "操作失敗，請稍候再試 🙏"
	StoreMissingText = "抱歉，找不到該店家資訊😥"
	UnknownAction    = "抱歉，無法識別的操作😥"
	RateLimitedText  = "訊息有點太頻繁了，請稍等一下再試喔 🙏"
)

// Card text limits, in runes.
const (
	MaxNameRunes  = 40
	MaxHoursRunes = 60
)

// Placeholders for empty fields.
const (
	NoHoursPlaceholder  = "無營業時間資料"
	DetailPlaceholder   = "未知"
	SharePlaceholder    = "無"
	menuHeroImage       = "https://i.postimg.cc/ZKHKhbB3/309915.jpg"
	listingHeroImage    = "https://i.postimg.cc/SQt91q6x/image.jpg"
	menuPrompt          = "請選擇想要推薦的風格餐廳："
	stylePrompt         = "請選擇喜歡的料理類型："
	mapsSearchEndpoint  = "https://www.google.com/maps/search/?api=1&query="
	postbackActionKey   = "action"
	postbackShopIDKey   = "shop_id"
	postbackPlaceIDKey  = "place_id"
	postbackShopNameKey = "shop_name"
	postbackPrefixKey   = "prefix"
)

// Postback action names.
const (
	ActionViewInfo  = "view_info"
	ActionShareShop = "share_shop"
)

// Sender is the display name attached to every reply.
var Sender = lineutil.NewSender("美食小幫手")

// Text returns a plain text message.
func Text(s string) messaging_api.MessageInterface {
	return lineutil.NewTextMessage(s)
}

// DetailNotFoundText is the reply for a detail query on an unknown store.
func DetailNotFoundText(name, fieldLabel string) string {
	return fmt.Sprintf("抱歉，找不到 %s 的%s資訊。", name, fieldLabel)
}

// ShareNotFoundText is the reply for sharing an unknown store.
func ShareNotFoundText(name string) string {
	return fmt.Sprintf("抱歉，找不到 %s 的資訊，無法分享😥", name)
}

func orDefault(s, placeholder string) string {
	if s == "" {
		return placeholder
	}
	return s
}

// MapsURL returns a Google Maps search link for the store.
func MapsURL(rec catalog.StoreRecord) string {
	query := rec.Name
	if rec.Address != "" {
		query += " " + rec.Address
	}
	return mapsSearchEndpoint + url.QueryEscape(query)
}

// Postback is a decoded postback payload.
type Postback struct {
	Action   string
	ShopID   string // store display name
	PlaceID  string // used instead of ShopID when the name does not fit
	ShopName string
	Prefix   bool // the name was shortened to fit
}

// ParsePostback decodes postback data.
func ParsePostback(data string) (Postback, error) {
	values, err := url.ParseQuery(data)
	if err != nil {
		return Postback{}, fmt.Errorf("parse postback: %w", err)
	}
	return Postback{
		Action:   values.Get(postbackActionKey),
		ShopID:   values.Get(postbackShopIDKey),
		PlaceID:  values.Get(postbackPlaceIDKey),
		ShopName: values.Get(postbackShopNameKey),
		Prefix:   values.Get(postbackPrefixKey) == "1",
	}, nil
}

// ViewInfoData encodes the "查看資訊" postback for rec. Names too long for
// the postback limit are replaced by the place ID when one exists, and
// shortened to a prefix otherwise.
func ViewInfoData(rec catalog.StoreRecord) string {
	return shopData(ActionViewInfo, postbackShopIDKey, rec)
}

// ShareData encodes the "分享店家" postback for rec.
func ShareData(rec catalog.StoreRecord) string {
	return shopData(ActionShareShop, postbackShopNameKey, rec)
}

func shopData(action, nameKey string, rec catalog.StoreRecord) string {
	data := url.Values{postbackActionKey: {action}, nameKey: {rec.Name}}.Encode()
	if len(data) <= lineutil.MaxPostbackData {
		return data
	}
	if rec.PlaceID != "" {
		data = url.Values{postbackActionKey: {action}, postbackPlaceIDKey: {rec.PlaceID}}.Encode()
		if len(data) <= lineutil.MaxPostbackData {
			return data
		}
	}

	name := []rune(rec.Name)
	for n := len(name) - 1; n > 0; n-- {
		data = url.Values{
			postbackActionKey: {action},
			nameKey:           {string(name[:n])},
			postbackPrefixKey: {"1"},
		}.Encode()
		if len(data) <= lineutil.MaxPostbackData {
			return data
		}
	}
	return url.Values{postbackActionKey: {action}}.Encode()
}

// ShareText is the text a user forwards to friends.
func ShareText(rec catalog.StoreRecord) string {
	return fmt.Sprintf("🍽️推薦給你一家美食店！\n店名：%s\n地址：%s\n電話：%s\n評價：%s\n快去看看吧！🏃‍♀️",
		orDefault(rec.Name, SharePlaceholder),
		orDefault(rec.Address, SharePlaceholder),
		orDefault(rec.Phone, SharePlaceholder),
		orDefault(rec.Reviews, SharePlaceholder),
	)
}
