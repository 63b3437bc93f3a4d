package messaging

// Participant is a membership record tying a user to a conversation.
// Primary key: (ConversationID, UserID). It has no lifecycle of its own
// beyond the conversation's.
type Participant struct {
	ConversationID int64  `json:"conversation_id" db:"conversation_id"`
	UserID         string `json:"user_id" db:"user_id"`
}
