package dialogue

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want Intent
	}{
		{
			name: "menu",
			in:   "美食推薦",
			want: Intent{Kind: KindMenu, Text: "美食推薦"},
		},
		{
			name: "menu with whitespace",
			in:   "  美食推薦\n",
			want: Intent{Kind: KindMenu, Text: "美食推薦"},
		},
		{
			name: "style",
			in:   "文青早點",
			want: Intent{Kind: KindStyle, Text: "文青早點", Style: "文青早點"},
		},
		{
			name: "food type",
			in:   "火鍋盛宴",
			want: Intent{Kind: KindFoodType, Text: "火鍋盛宴", Category: "火鍋盛宴"},
		},
		{
			name: "listing",
			in:   "台式傳統早餐-西區",
			want: Intent{Kind: KindListing, Text: "台式傳統早餐-西區", Category: "台式傳統早餐", District: "西區"},
		},
		{
			name: "listing splits on first separator",
			in:   "美味熱炒-北區-外",
			want: Intent{Kind: KindListing, Text: "美味熱炒-北區-外", Category: "美味熱炒", District: "北區-外"},
		},
		{
			name: "detail address",
			in:   "某店的地址",
			want: Intent{Kind: KindDetail, Text: "某店的地址", Name: "某店", Field: FieldAddress},
		},
		{
			name: "detail phone",
			in:   "阿嬤早餐的電話",
			want: Intent{Kind: KindDetail, Text: "阿嬤早餐的電話", Name: "阿嬤早餐", Field: FieldPhone},
		},
		{
			name: "detail reviews",
			in:   "阿嬤早餐的評論",
			want: Intent{Kind: KindDetail, Text: "阿嬤早餐的評論", Name: "阿嬤早餐", Field: FieldReviews},
		},
		{
			name: "bare suffix names no store",
			in:   "的地址",
			want: Intent{Kind: KindUnknown, Text: "的地址"},
		},
		{
			name: "unknown category in split",
			in:   "拉麵-西區",
			want: Intent{Kind: KindUnknown, Text: "拉麵-西區"},
		},
		{
			name: "empty district",
			in:   "美味熱炒-",
			want: Intent{Kind: KindUnknown, Text: "美味熱炒-"},
		},
		{
			name: "free text",
			in:   "你好",
			want: Intent{Kind: KindUnknown, Text: "你好"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Classify(tt.in))
		})
	}
}

func TestClassify_DetailSuffixBeatsSplit(t *testing.T) {
	t.Parallel()

	// The text also splits into a valid food type and district.
	in := "台式傳統早餐-西區的地址"
	category, district, ok := SplitTurn(in)
	assert.True(t, ok)
	assert.Equal(t, "台式傳統早餐", category)
	assert.Equal(t, "西區的地址", district)

	got := Classify(in)
	assert.Equal(t, KindDetail, got.Kind)
	assert.Equal(t, "台式傳統早餐-西區", got.Name)
	assert.Equal(t, FieldAddress, got.Field)
}

func TestClassifierOrder(t *testing.T) {
	t.Parallel()

	kinds := make([]Kind, len(Classifiers))
	for i, c := range Classifiers {
		kinds[i] = c.Kind
	}
	assert.Equal(t, []Kind{KindDetail, KindListing, KindMenu, KindStyle, KindFoodType}, kinds)
}

func TestKindString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "listing", KindListing.String())
	assert.Equal(t, "unknown", Kind(99).String())
	assert.Equal(t, "電話", FieldPhone.Label())
	assert.Empty(t, FieldNone.Label())
}
