package reply

import (
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"

	"github.com/garyellow/taichung-eats-linebot/internal/catalog"
	"github.com/garyellow/taichung-eats-linebot/internal/lineutil"
)

// Menu is the top-level menu with one button per style.
func Menu() messaging_api.MessageInterface {
	buttons := make([]*lineutil.FlexButton, 0, len(catalog.Styles))
	for _, st := range catalog.Styles {
		buttons = append(buttons, lineutil.NewPrimaryButton(lineutil.NewMessageAction(st.Button, st.Name)))
	}

	body := lineutil.NewVerticalBox(
		lineutil.NewFlexText("美食小幫手上線!").Bold().WithSize(lineutil.SizeXL).WithWrap(true).FlexText,
		lineutil.NewFlexText(menuPrompt).WithMargin(lineutil.SpacingMD).WithWrap(true).FlexText,
	)
	footer := lineutil.NewVerticalBox(lineutil.ButtonComponents(buttons...)...).WithSpacing(lineutil.SpacingSM)

	bubble := lineutil.NewFlexBubble(nil, lineutil.NewHeroImage(menuHeroImage), body, footer)
	return lineutil.NewFlexMessage(menuPrompt, bubble.FlexBubble)
}

// Style is the submenu of a style with one button per food type.
// It returns nil for an unknown style.
func Style(name string) messaging_api.MessageInterface {
	st, ok := catalog.StyleByName(name)
	if !ok {
		return nil
	}

	buttons := make([]*lineutil.FlexButton, 0, len(st.FoodTypes))
	for i, ft := range st.FoodTypes {
		label := ft
		if i < len(st.Emojis) {
			label = st.Emojis[i] + ft
		}
		buttons = append(buttons, lineutil.NewPrimaryButton(lineutil.NewMessageAction(label, ft)))
	}

	body := lineutil.NewVerticalBox(
		lineutil.NewFlexText(st.Name).Bold().WithSize(lineutil.SizeXL).FlexText,
		lineutil.NewFlexText(stylePrompt).WithColor(lineutil.ColorLabel).WithMargin(lineutil.SpacingMD).FlexText,
		lineutil.NewVerticalBox(lineutil.ButtonComponents(buttons...)...).
			WithMargin(lineutil.SpacingMD).
			WithSpacing(lineutil.SpacingSM).FlexBox,
	)

	bubble := lineutil.NewFlexBubble(nil, lineutil.NewHeroImage(st.HeroImage), body, nil)
	return lineutil.NewFlexMessage(st.Name+"選單", bubble.FlexBubble)
}

// RegionSelector is a carousel with one card per region for foodType.
// It returns nil when foodType is not in the vocabulary.
func RegionSelector(foodType string) messaging_api.MessageInterface {
	if !catalog.IsFoodType(foodType) {
		return nil
	}

	bubbles := make([]messaging_api.FlexBubble, 0, len(catalog.Regions))
	for _, region := range catalog.Regions {
		body := lineutil.NewVerticalBox(
			lineutil.NewFlexText(region).Bold().WithSize(lineutil.SizeXL).FlexText,
			lineutil.NewFlexText("看看"+region+"有哪些 "+foodType+"！").WithWrap(true).FlexText,
		).WithSpacing(lineutil.SpacingMD)
		footer := lineutil.NewVerticalBox(lineutil.ButtonComponents(
			lineutil.NewPrimaryButton(lineutil.NewMessageAction("查看", foodType+"-"+region)),
		)...)
		bubbles = append(bubbles, *lineutil.NewFlexBubble(nil, nil, body, footer).FlexBubble)
	}
	return lineutil.NewFlexMessage("請選擇區域", lineutil.NewFlexCarousel(bubbles))
}

// Listing is a carousel of at most ten store cards.
// It returns nil when records is empty.
func Listing(category, district string, records []catalog.StoreRecord) messaging_api.MessageInterface {
	if len(records) == 0 {
		return nil
	}
	if len(records) > lineutil.MaxBubblesPerCarousel {
		records = records[:lineutil.MaxBubblesPerCarousel]
	}

	bubbles := make([]messaging_api.FlexBubble, 0, len(records))
	for _, rec := range records {
		bubbles = append(bubbles, *storeCard(rec).FlexBubble)
	}
	return lineutil.NewFlexMessage(district+" 的 "+category+" 推薦店家", lineutil.NewFlexCarousel(bubbles))
}

func storeCard(rec catalog.StoreRecord) *lineutil.FlexBubble {
	hours := NoHoursPlaceholder
	if rec.Hours != "" {
		hours = lineutil.TruncateRunes(rec.Hours, MaxHoursRunes)
	}

	buttons := lineutil.NewVerticalBox(lineutil.ButtonComponents(
		lineutil.NewPrimaryButton(lineutil.NewPostbackActionWithDisplayText("查看資訊", "查看資訊", ViewInfoData(rec))).WithHeight("sm"),
		lineutil.NewPrimaryButton(lineutil.NewURIAction("開啟地圖", MapsURL(rec))).WithHeight("sm"),
		lineutil.NewPrimaryButton(lineutil.NewPostbackActionWithDisplayText("分享店家", "分享店家", ShareData(rec))).WithHeight("sm"),
	)...).WithMargin(lineutil.SpacingMD).WithSpacing(lineutil.SpacingSM)

	body := lineutil.NewVerticalBox(
		lineutil.NewFlexText(lineutil.TruncateRunes(rec.Name, MaxNameRunes)).Bold().WithSize(lineutil.SizeXL).WithWrap(true).FlexText,
		lineutil.NewFlexText("營業時間:"+hours).WithSize(lineutil.SizeMD).WithColor(lineutil.ColorLabel).WithWrap(true).FlexText,
		buttons.FlexBox,
	).WithSpacing(lineutil.SpacingSM)

	return lineutil.NewFlexBubble(nil, lineutil.NewHeroImage(listingHeroImage), body, nil)
}

// Detail shows address, phone and reviews of one store.
func Detail(rec catalog.StoreRecord) messaging_api.MessageInterface {
	line := func(s string) messaging_api.FlexComponentInterface {
		return lineutil.NewFlexText(s).WithWrap(true).FlexText
	}
	body := lineutil.NewVerticalBox(
		lineutil.NewFlexText(rec.Name).Bold().WithSize(lineutil.SizeXL).WithWrap(true).FlexText,
		line("📍 地址："+orDefault(rec.Address, DetailPlaceholder)),
		line("📞 電話："+orDefault(rec.Phone, DetailPlaceholder)),
		line("⭐ 評論："+orDefault(rec.Reviews, DetailPlaceholder)),
	).WithSpacing(lineutil.SpacingMD)

	bubble := lineutil.NewFlexBubble(nil, nil, body, nil)
	return lineutil.NewFlexMessage(rec.Name+" 詳細資訊", bubble.FlexBubble)
}

// Welcome greets a user who just added the bot.
func Welcome() messaging_api.MessageInterface {
	body := lineutil.NewVerticalBox(
		lineutil.NewFlexText("🎉 歡迎加入美食推薦小幫手").Bold().WithSize(lineutil.SizeLG).WithWrap(true).FlexText,
		lineutil.NewFlexText("輸入「美食推薦」就可以幫你找好吃的哦 😋").WithMargin(lineutil.SpacingMD).WithWrap(true).FlexText,
	)
	footer := lineutil.NewVerticalBox(lineutil.ButtonComponents(
		lineutil.NewPrimaryButton(lineutil.NewMessageAction("美食推薦", "美食推薦")),
	)...)
	bubble := lineutil.NewFlexBubble(nil, nil, body, footer)
	return lineutil.NewFlexMessage("歡迎訊息", bubble.FlexBubble)
}
