package chatsift

import (
	"time"

	"github.com/hejijunhao/chatsift/internal/model"
)

// Message is a chat message with optional metadata. Use with Classify when
// you have author and timestamp information. For raw text strings, use
// ClassifyTexts instead.
type Message struct {
	Text      string    // the message body to classify
	Author    string    // display name (optional, not used in classification)
	Timestamp time.Time // when the message was sent (optional)
}

// toInternal converts the public Message to the engine's message type.
func toInternal(m Message) model.ChatMessage {
	var ms int64
	if !m.Timestamp.IsZero() {
		ms = m.Timestamp.UnixMilli()
	}
	return model.ChatMessage{Text: m.Text, Author: m.Author, Timestamp: ms}
}

// fromInternal converts the engine's message type to the public Message.
func fromInternal(m model.ChatMessage) Message {
	msg := Message{Text: m.Text, Author: m.Author}
	if m.Timestamp != 0 {
		msg.Timestamp = time.UnixMilli(m.Timestamp)
	}
	return msg
}
