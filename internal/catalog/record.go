// Package catalog holds the restaurant catalog: the StoreRecord model, the
// fixed region and food-type vocabularies, the CSV file format, and the
// read-only in-memory Catalog queried by the bot.
package catalog

import (
	"cmp"
	"slices"
	"strings"
)

// StoreRecord is one restaurant row.
type StoreRecord struct {
	PlaceID  string // Google place ID; empty for legacy rows
	Region   string
	FoodType string
	Name     string
	Hours    string
	Address  string
	Phone    string
	Reviews  string // translated review snippets joined by a blank line
}

// Key returns the de-duplication key: the place ID when present, otherwise
// the trimmed (name, region, address) triple.
func (r StoreRecord) Key() string {
	if id := strings.TrimSpace(r.PlaceID); id != "" {
		return "id:" + id
	}
	return "row:" + strings.Join([]string{
		strings.TrimSpace(r.Name),
		strings.TrimSpace(r.Region),
		strings.TrimSpace(r.Address),
	}, "\x1f")
}

// Style is a top-level menu entry grouping four food types.
type Style struct {
	Name      string
	Button    string // menu button label
	HeroImage string
	FoodTypes []string
	Emojis    []string // parallel to FoodTypes
}

// Regions are the served districts, in display and sort order.
var Regions = []string{"西區", "北區", "南屯區"}

// FoodTypes is the 12-item vocabulary, in sort order.
var FoodTypes = []string{
	"台式傳統早餐", "西式輕食早餐", "健康營養早餐", "異國風味早餐",
	"必吃便當", "美味熱炒", "經典飯麵", "特色小吃",
	"火鍋盛宴", "西式精選", "創意料理", "自助饗宴",
}

// Styles are the three top-level menu categories.
var Styles = []Style{
	{
		Name:      "文青早點",
		Button:    "享用文青早點",
		HeroImage: "https://i.postimg.cc/SQt91q6x/image.jpg",
		FoodTypes: FoodTypes[0:4:4],
		Emojis:    []string{"🍳", "🥪", "🥗", "🌮"},
	},
	{
		Name:      "在地美食",
		Button:    "品嘗在地美食",
		HeroImage: "https://i.postimg.cc/wTymSP2c/image.jpg",
		FoodTypes: FoodTypes[4:8:8],
		Emojis:    []string{"🍱", "🥘", "🍜", "🍢"},
	},
	{
		Name:      "高檔餐廳",
		Button:    "暢享高檔餐廳",
		HeroImage: "https://i.postimg.cc/4ND9Z5FC/image.jpg",
		FoodTypes: FoodTypes[8:12:12],
		Emojis:    []string{"🍲", "🍝", "🍛", "🍣"},
	},
}

// IsFoodType reports whether s is one of FoodTypes.
func IsFoodType(s string) bool {
	return slices.Contains(FoodTypes, s)
}

// StyleByName returns the style named s.
func StyleByName(s string) (Style, bool) {
	for _, st := range Styles {
		if st.Name == s {
			return st, true
		}
	}
	return Style{}, false
}

// NormalizeRegion returns the text inside full-width parentheses when
// present, e.g. "Taichung（西區）" becomes "西區".
func NormalizeRegion(region string) string {
	region = strings.TrimSpace(region)
	open := strings.Index(region, "（")
	if open < 0 {
		return region
	}
	rest := region[open+len("（"):]
	end := strings.Index(rest, "）")
	if end < 0 {
		return region
	}
	if inner := strings.TrimSpace(rest[:end]); inner != "" {
		return inner
	}
	return region
}

// rank returns the index of v in vocab, or len(vocab) so unknown values sort last.
func rank(vocab []string, v string) int {
	if i := slices.Index(vocab, v); i >= 0 {
		return i
	}
	return len(vocab)
}

// RegionRank is the sort rank of a (possibly decorated) region.
func RegionRank(region string) int {
	return rank(Regions, NormalizeRegion(region))
}

// FoodTypeRank is the sort rank of a food type.
func FoodTypeRank(foodType string) int {
	return rank(FoodTypes, strings.TrimSpace(foodType))
}

// SortRecords orders records by region rank, food-type rank, then name.
func SortRecords(records []StoreRecord) {
	slices.SortStableFunc(records, func(a, b StoreRecord) int {
		return cmp.Or(
			cmp.Compare(RegionRank(a.Region), RegionRank(b.Region)),
			cmp.Compare(FoodTypeRank(a.FoodType), FoodTypeRank(b.FoodType)),
			cmp.Compare(a.Name, b.Name),
		)
	})
}
