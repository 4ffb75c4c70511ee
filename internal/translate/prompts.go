package translate

import "fmt"

// languageNames maps target tags to the name used in LLM prompts.
var languageNames = map[string]string{
	"zh-TW": "台灣繁體中文",
}

// reviewPrompt asks an LLM for a bare translation of one restaurant review.
func reviewPrompt(text, target string) string {
	name, ok := languageNames[target]
	if !ok {
		name = target
	}
	return fmt.Sprintf(`請將以下餐廳評論翻譯成%s。
只輸出譯文本身，不要加上引號、說明或原文。

評論：
%s`, name, text)
}
