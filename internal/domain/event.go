package domain

import "time"

// ImageEvent is an image post observed on a source channel or group.
// The file reference is an opaque content handle issued by the transport;
// the core never interprets it. Immutable once received.
type ImageEvent struct {
	SourceID      int64     `json:"source_id"`
	MessageID     int       `json:"message_id"`
	FileReference string    `json:"file_reference"`
	ArrivalTime   time.Time `json:"arrival_time"`
}

// DescriptionEvent is a textual description observed on a source channel or
// group. ReplyTo carries the message ID the description replies to, or zero
// when the message is not a reply. Immutable once received.
type DescriptionEvent struct {
	SourceID    int64     `json:"source_id"`
	MessageID   int       `json:"message_id"`
	ReplyTo     int       `json:"reply_to,omitempty"`
	Text        string    `json:"text"`
	ArrivalTime time.Time `json:"arrival_time"`
}

// HasReplyTarget reports whether the description explicitly targets a message.
func (e DescriptionEvent) HasReplyTarget() bool {
	return e.ReplyTo != 0
}

// MatchedPair is the result of correlating an image event with exactly one
// description event. It is the unit handed to the record store.
type MatchedPair struct {
	Image       ImageEvent
	Description DescriptionEvent
}
