package lineutil

// LINE API limits. Text, alt text and labels are truncated in runes;
// postback data is checked in bytes of its encoded form.
const (
	MaxTextMessageLength = 5000
	MaxAltTextLength     = 400
	MaxPostbackData      = 300
	MaxActionLabel       = 20
	MaxMessagesPerReply  = 5

	// MaxBubblesPerCarousel caps listing carousels.
	MaxBubblesPerCarousel = 10
)
