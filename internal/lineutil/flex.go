package lineutil

import (
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
)

// FlexBubble wraps messaging_api.FlexBubble.
type FlexBubble struct {
	*messaging_api.FlexBubble
}

// NewFlexBubble creates a bubble. Any part may be nil.
func NewFlexBubble(header *FlexBox, hero messaging_api.FlexComponentInterface, body, footer *FlexBox) *FlexBubble {
	bubble := &messaging_api.FlexBubble{}
	if header != nil {
		bubble.Header = header.FlexBox
	}
	if hero != nil {
		bubble.Hero = hero
	}
	if body != nil {
		bubble.Body = body.FlexBox
	}
	if footer != nil {
		bubble.Footer = footer.FlexBox
	}
	return &FlexBubble{bubble}
}

// NewFlexCarousel creates a carousel, keeping at most MaxBubblesPerCarousel bubbles.
func NewFlexCarousel(bubbles []messaging_api.FlexBubble) *messaging_api.FlexCarousel {
	if len(bubbles) > MaxBubblesPerCarousel {
		bubbles = bubbles[:MaxBubblesPerCarousel]
	}
	return &messaging_api.FlexCarousel{Contents: bubbles}
}

// NewHeroImage creates a full-width 20:13 cover image for a bubble hero.
func NewHeroImage(url string) *messaging_api.FlexImage {
	return &messaging_api.FlexImage{
		Url:         url,
		Size:        "full",
		AspectRatio: "20:13",
		AspectMode:  messaging_api.FlexImageASPECT_MODE_COVER,
	}
}

// FlexBox wraps messaging_api.FlexBox with a fluent API.
type FlexBox struct {
	*messaging_api.FlexBox
}

// NewFlexBox creates a box. Layout is "vertical", "horizontal" or "baseline".
func NewFlexBox(layout string, contents ...messaging_api.FlexComponentInterface) *FlexBox {
	return &FlexBox{&messaging_api.FlexBox{
		Layout:   messaging_api.FlexBoxLAYOUT(layout),
		Contents: contents,
	}}
}

// NewVerticalBox is shorthand for NewFlexBox("vertical", ...).
func NewVerticalBox(contents ...messaging_api.FlexComponentInterface) *FlexBox {
	return NewFlexBox("vertical", contents...)
}

// WithSpacing sets the spacing between components.
func (b *FlexBox) WithSpacing(spacing string) *FlexBox {
	b.Spacing = spacing
	return b
}

// WithMargin sets the margin of the box.
func (b *FlexBox) WithMargin(margin string) *FlexBox {
	b.Margin = margin
	return b
}

// WithPaddingAll sets the padding for all sides of the box.
func (b *FlexBox) WithPaddingAll(padding string) *FlexBox {
	b.PaddingAll = padding
	return b
}

// FlexText wraps messaging_api.FlexText with a fluent API.
type FlexText struct {
	*messaging_api.FlexText
}

// NewFlexText creates a text component.
func NewFlexText(text string) *FlexText {
	return &FlexText{&messaging_api.FlexText{Text: text}}
}

// WithWeight sets the font weight (regular/bold).
func (t *FlexText) WithWeight(weight string) *FlexText {
	t.Weight = messaging_api.FlexTextWEIGHT(weight)
	return t
}

// Bold is WithWeight("bold").
func (t *FlexText) Bold() *FlexText {
	return t.WithWeight("bold")
}

// WithSize sets the font size.
func (t *FlexText) WithSize(size string) *FlexText {
	t.Size = size
	return t
}

// WithColor sets the text color.
func (t *FlexText) WithColor(color string) *FlexText {
	t.Color = color
	return t
}

// WithWrap enables or disables text wrapping.
func (t *FlexText) WithWrap(wrap bool) *FlexText {
	t.Wrap = wrap
	return t
}

// WithMargin sets the margin of the text component.
func (t *FlexText) WithMargin(margin string) *FlexText {
	t.Margin = margin
	return t
}

// FlexButton wraps messaging_api.FlexButton with a fluent API.
type FlexButton struct {
	*messaging_api.FlexButton
}

// NewFlexButton creates a button for action.
func NewFlexButton(action messaging_api.ActionInterface) *FlexButton {
	return &FlexButton{&messaging_api.FlexButton{Action: action}}
}

// NewPrimaryButton creates a primary-style button.
func NewPrimaryButton(action messaging_api.ActionInterface) *FlexButton {
	return NewFlexButton(action).WithStyle("primary")
}

// WithStyle sets the button style (link/primary/secondary).
func (b *FlexButton) WithStyle(style string) *FlexButton {
	b.Style = messaging_api.FlexButtonSTYLE(style)
	return b
}

// WithColor sets the button color.
func (b *FlexButton) WithColor(color string) *FlexButton {
	b.Color = color
	return b
}

// WithHeight sets the button height (sm/md).
func (b *FlexButton) WithHeight(height string) *FlexButton {
	b.Height = messaging_api.FlexButtonHEIGHT(height)
	return b
}

// WithMargin sets the margin of the button.
func (b *FlexButton) WithMargin(margin string) *FlexButton {
	b.Margin = margin
	return b
}

// ButtonComponents unwraps buttons for use as box contents, skipping nils.
func ButtonComponents(buttons ...*FlexButton) []messaging_api.FlexComponentInterface {
	out := make([]messaging_api.FlexComponentInterface, 0, len(buttons))
	for _, b := range buttons {
		if b != nil {
			out = append(out, b.FlexButton)
		}
	}
	return out
}

// TruncateRunes cuts text to at most maxRunes runes.
func TruncateRunes(text string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	runes := []rune(text)
	if len(runes) <= maxRunes {
		return text
	}
	return string(runes[:maxRunes])
}

// TruncateWithEllipsis cuts text to at most maxRunes runes, ending in "..." when cut.
func TruncateWithEllipsis(text string, maxRunes int) string {
	runes := []rune(text)
	if len(runes) <= maxRunes {
		return text
	}
	if maxRunes <= 3 {
		return TruncateRunes(text, maxRunes)
	}
	return string(runes[:maxRunes-3]) + "..."
}
