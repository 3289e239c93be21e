package models

import (
	"time"

	"driftmarket/server/internal/utils"
)

// Sender identifies which side of a thread authored a message.
type Sender string

const (
	SenderBuyer  Sender = "buyer"
	SenderSeller Sender = "seller"
)

func (s Sender) Valid() bool {
	return s == SenderBuyer || s == SenderSeller
}

// AttachmentPreview is the thread preview used when the latest message
// carries an attachment but no body.
const AttachmentPreview = "Attachment"

// Message is a single entry in a thread. Messages are append-only and never
// edited or deleted; SentAt is server-assigned and strictly increasing
// within a thread.
type Message struct {
	ID            utils.SixID `bson:"_id,omitempty" json:"id,omitempty"`
	ThreadID      utils.SixID `bson:"thread_id" json:"threadId"`
	Sender        Sender      `bson:"sender" json:"sender"`
	Body          string      `bson:"body,omitempty" json:"body,omitempty"`
	AttachmentKey string      `bson:"attachment_key,omitempty" json:"attachmentKey,omitempty"`
	SentAt        time.Time   `bson:"sent_at" json:"sentAt"`
}

// PreviewText returns the thread preview this message produces.
func (m *Message) PreviewText() string {
	if m.Body == "" {
		return AttachmentPreview
	}
	return m.Body
}
