// Package dialogue classifies a chat turn into one intent.
//
// The bot keeps no session state: every button re-sends enough text to
// resume the conversation, so classification looks at the current text
// only. Classifiers run in a fixed order and the first match wins.
package dialogue

import (
	"strings"

	"github.com/garyellow/taichung-eats-linebot/internal/catalog"
)

// Kind enumerates the intents.
type Kind int

const (
	KindUnknown  Kind = iota
	KindDetail        // "<name>的地址" / "的電話" / "的評論"
	KindListing       // "<food type>-<district>"
	KindMenu          // "美食推薦"
	KindStyle         // one of the three styles
	KindFoodType      // one of the twelve food types
)

var kindNames = map[Kind]string{
	KindUnknown:  "unknown",
	KindDetail:   "detail",
	KindListing:  "listing",
	KindMenu:     "menu",
	KindStyle:    "style",
	KindFoodType: "food_type",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// Field is the detail a user asked for.
type Field int

const (
	FieldNone Field = iota
	FieldAddress
	FieldPhone
	FieldReviews
)

// Label is the Chinese name of the field used in replies.
func (f Field) Label() string {
	switch f {
	case FieldAddress:
		return "地址"
	case FieldPhone:
		return "電話"
	case FieldReviews:
		return "評論"
	default:
		return ""
	}
}

// MenuTrigger opens the top-level menu.
const MenuTrigger = "美食推薦"

// Separator splits "<food type>-<district>".
const Separator = "-"

// detailSuffixes are checked in order.
var detailSuffixes = []struct {
	suffix string
	field  Field
}{
	{"的地址", FieldAddress},
	{"的電話", FieldPhone},
	{"的評論", FieldReviews},
}

// Intent is the result of classifying one turn.
type Intent struct {
	Kind Kind
	Text string // trimmed input

	Name     string // KindDetail
	Field    Field  // KindDetail
	Category string // KindListing, KindFoodType
	District string // KindListing
	Style    string // KindStyle
}

// Classifier returns ok=true when it claims the text.
type Classifier struct {
	Kind  Kind
	Match func(text string) (Intent, bool)
}

// Classifiers is the precedence order. Detail suffixes come before the
// category-district split so a store name like "A-西區的地址" is a
// detail query.
var Classifiers = []Classifier{
	{KindDetail, matchDetail},
	{KindListing, matchListing},
	{KindMenu, matchMenu},
	{KindStyle, matchStyle},
	{KindFoodType, matchFoodType},
}

// Classify trims text and returns the first matching intent, or KindUnknown.
func Classify(text string) Intent {
	text = strings.TrimSpace(text)
	for _, c := range Classifiers {
		if intent, ok := c.Match(text); ok {
			intent.Kind = c.Kind
			intent.Text = text
			return intent
		}
	}
	return Intent{Kind: KindUnknown, Text: text}
}

func matchDetail(text string) (Intent, bool) {
	for _, s := range detailSuffixes {
		name, ok := strings.CutSuffix(text, s.suffix)
		if !ok {
			continue
		}
		// A bare suffix names no store.
		if name = strings.TrimSpace(name); name == "" {
			return Intent{}, false
		}
		return Intent{Name: name, Field: s.field}, true
	}
	return Intent{}, false
}

// SplitTurn splits on the first separator. ok is false when there is none.
func SplitTurn(text string) (category, district string, ok bool) {
	category, district, ok = strings.Cut(text, Separator)
	return strings.TrimSpace(category), strings.TrimSpace(district), ok
}

func matchListing(text string) (Intent, bool) {
	category, district, ok := SplitTurn(text)
	if !ok || district == "" || !catalog.IsFoodType(category) {
		return Intent{}, false
	}
	return Intent{Category: category, District: district}, true
}

func matchMenu(text string) (Intent, bool) {
	return Intent{}, text == MenuTrigger
}

func matchStyle(text string) (Intent, bool) {
	if _, ok := catalog.StyleByName(text); ok {
		return Intent{Style: text}, true
	}
	return Intent{}, false
}

func matchFoodType(text string) (Intent, bool) {
	if catalog.IsFoodType(text) {
		return Intent{Category: text}, true
	}
	return Intent{}, false
}
