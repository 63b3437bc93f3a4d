package messaging

import "time"

// Conversation is a two-party thread. Conversations are created lazily by
// the get-or-create lookup and never deleted from this context.
type Conversation struct {
	ID        int64     `json:"id" db:"id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// ConversationListEntry is the derived row rendered in the conversation
// list: a conversation id plus the counterpart's profile. OtherParticipant
// is nil when the counterpart's profile no longer resolves (deleted user);
// the entry is still shown with placeholder identity.
//
// Entries are not persisted. They are rebuilt on every directory load and
// patched by reconciliation when the addressed conversation is missing from
// the load's snapshot.
type ConversationListEntry struct {
	ConversationID   int64    `json:"conversation_id"`
	OtherParticipant *Profile `json:"other_participant"`
}

// Directory is the result of a full directory load. Entries and Suggestions
// are mutually exclusive: suggestions are only populated when the user has
// no conversations at all, to seed a first contact.
type Directory struct {
	Entries     []ConversationListEntry `json:"conversations"`
	Suggestions []Profile               `json:"suggestions"`
}
