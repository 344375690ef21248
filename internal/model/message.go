package model

// ChatMessage is the intermediate type produced by connectors and consumed
// by the engine. Field names are the wire contract for JSON sources.
type ChatMessage struct {
	Text      string `json:"text"`                // message body; empty-after-trim messages are dropped
	Author    string `json:"author,omitempty"`    // display name; not used for classification
	Timestamp int64  `json:"timestamp,omitempty"` // milliseconds since epoch; ordering hint only
}
