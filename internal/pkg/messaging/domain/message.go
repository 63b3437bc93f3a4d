package messaging

import (
	"errors"
	"strings"
	"time"
)

// Domain-level errors for messaging behaviors
var (
	ErrEmptyMessage   = errors.New("messaging: message content is empty")
	ErrNotParticipant = errors.New("messaging: user is not a participant in the conversation")
)

// Message is an immutable log entry in a conversation. Ordering within a
// conversation is ascending CreatedAt; ties resolve in insertion order as
// delivered by the backend.
//
// Sender carries the resolved sender profile when the message was fetched
// with a profile join or resolved after a feed delivery. It is nil when the
// sender's profile no longer exists; renderers fall back to placeholder
// identity in that case.
type Message struct {
	ID             int64     `json:"id" db:"id"`
	ConversationID int64     `json:"conversation_id" db:"conversation_id"`
	SenderID       string    `json:"sender_id" db:"sender_id"`
	Content        string    `json:"content" db:"content"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	Sender         *Profile  `json:"sender,omitempty" db:"-"`
}

// NewMessage validates and normalizes an outgoing message. Content is
// trimmed; a message that is empty after trimming is rejected before any
// persistence happens.
func NewMessage(conversationID int64, senderID string, content string) (*Message, error) {
	if conversationID <= 0 || senderID == "" {
		return nil, errors.New("messaging: conversation_id and sender_id are required")
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyMessage
	}

	return &Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        content,
		CreatedAt:      time.Now().UTC(),
	}, nil
}
