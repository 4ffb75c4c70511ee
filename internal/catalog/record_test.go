package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVocabularies(t *testing.T) {
	t.Parallel()

	assert.Len(t, FoodTypes, 12)
	assert.Len(t, Regions, 3)
	assert.Len(t, Styles, 3)
	for _, st := range Styles {
		assert.Len(t, st.FoodTypes, 4, st.Name)
		assert.Len(t, st.Emojis, 4, st.Name)
		for _, ft := range st.FoodTypes {
			assert.True(t, IsFoodType(ft), ft)
		}
	}
	assert.False(t, IsFoodType("文青早點"))
}

func TestStyleByName(t *testing.T) {
	t.Parallel()

	st, ok := StyleByName("在地美食")
	assert.True(t, ok)
	assert.Equal(t, []string{"必吃便當", "美味熱炒", "經典飯麵", "特色小吃"}, st.FoodTypes)

	_, ok = StyleByName("美食推薦")
	assert.False(t, ok)
}

func TestKey(t *testing.T) {
	t.Parallel()

	withID := StoreRecord{PlaceID: " abc ", Name: "A"}
	assert.Equal(t, "id:abc", withID.Key())

	a := StoreRecord{Name: "阿嬤早餐 ", Region: "西區", Address: " 台中市西區"}
	b := StoreRecord{Name: "阿嬤早餐", Region: "西區", Address: "台中市西區"}
	assert.Equal(t, a.Key(), b.Key())

	c := StoreRecord{Name: "阿嬤早餐", Region: "北區", Address: "台中市西區"}
	assert.NotEqual(t, a.Key(), c.Key())
}

func TestNormalizeRegion(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"西區":           "西區",
		" 北區 ":         "北區",
		"Taichung（南屯區）": "南屯區",
		"壞掉（":           "壞掉（",
		"空（）":           "空（）",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeRegion(in), in)
	}
}

func TestSortRecords(t *testing.T) {
	t.Parallel()

	records := []StoreRecord{
		{Name: "Z", Region: "南屯區", FoodType: "台式傳統早餐"},
		{Name: "B", Region: "西區", FoodType: "美味熱炒"},
		{Name: "A", Region: "西區", FoodType: "美味熱炒"},
		{Name: "C", Region: "外太空", FoodType: "台式傳統早餐"},
		{Name: "D", Region: "西區", FoodType: "神秘料理"},
		{Name: "E", Region: "台中（西區）", FoodType: "台式傳統早餐"},
	}
	SortRecords(records)

	names := make([]string, len(records))
	for i, r := range records {
		names[i] = r.Name
	}
	assert.Equal(t, []string{"E", "A", "B", "D", "Z", "C"}, names)
}
