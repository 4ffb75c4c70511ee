package lineutil

import (
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
)

// Action is an alias for the LINE SDK action interface for convenience.
type Action = messaging_api.ActionInterface

// NewTextMessage creates a text message, cut to the LINE length limit.
func NewTextMessage(text string) *messaging_api.TextMessage {
	return &messaging_api.TextMessage{
		Text: TruncateWithEllipsis(text, MaxTextMessageLength),
	}
}

// NewFlexMessage creates a flex message. The alt text is cut to the LINE limit.
func NewFlexMessage(altText string, contents messaging_api.FlexContainerInterface) *messaging_api.FlexMessage {
	return &messaging_api.FlexMessage{
		AltText:  TruncateWithEllipsis(altText, MaxAltTextLength),
		Contents: contents,
	}
}

// NewMessageAction sends text as the user when tapped.
func NewMessageAction(label, text string) Action {
	return &messaging_api.MessageAction{
		Label: TruncateRunes(label, MaxActionLabel),
		Text:  text,
	}
}

// NewPostbackActionWithDisplayText sends data to the bot and shows
// displayText in the chat.
func NewPostbackActionWithDisplayText(label, displayText, data string) Action {
	return &messaging_api.PostbackAction{
		Label:       TruncateRunes(label, MaxActionLabel),
		DisplayText: displayText,
		Data:        data,
	}
}

// NewURIAction opens uri when tapped.
func NewURIAction(label, uri string) Action {
	return &messaging_api.UriAction{
		Label: TruncateRunes(label, MaxActionLabel),
		Uri:   uri,
	}
}

// NewSender returns a sender override showing name as the bot's display name.
func NewSender(name string) *messaging_api.Sender {
	return &messaging_api.Sender{Name: name}
}

// SetSender sets the Sender field on text and flex messages.
// Returns the same message for chaining.
func SetSender(msg messaging_api.MessageInterface, sender *messaging_api.Sender) messaging_api.MessageInterface {
	if sender == nil {
		return msg
	}
	switch m := msg.(type) {
	case *messaging_api.TextMessage:
		m.Sender = sender
	case *messaging_api.FlexMessage:
		m.Sender = sender
	}
	return msg
}
