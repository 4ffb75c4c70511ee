// Package lineutil provides fluent builders for LINE Flex messages,
// actions and text replies.
package lineutil

// Spacing keywords accepted by Flex components.
const (
	SpacingNone = "none"
	SpacingXS   = "xs"
	SpacingSM   = "sm"
	SpacingMD   = "md"
	SpacingLG   = "lg"
	SpacingXL   = "xl"
)

// Text sizes.
const (
	SizeXS = "xs"
	SizeSM = "sm"
	SizeMD = "md"
	SizeLG = "lg"
	SizeXL = "xl"
)

// Colors
const (
	ColorLineGreen = "#06C755"
	ColorWhite     = "#FFFFFF"
	ColorText      = "#111111"
	ColorLabel     = "#666666" // secondary lines such as hours and hints

	ColorPrimary = ColorLineGreen
)
