package repository

import (
	"context"
	"errors"

	messaging "github.com/Abedmejri/Artplat/internal/pkg/messaging/domain"
)

// ErrNotFound signals that a referenced conversation, participant or profile
// does not resolve. Callers typically degrade (omit the entry, render a
// placeholder) rather than abort.
var ErrNotFound = errors.New("repository: not found")

// DirectoryRepository is the persistence contract the messaging application
// layer is written against. It matches the hosted-backend surface the web
// client consumes (table reads on participants/profiles/messages plus the
// get-or-create conversation RPC), so the application code stays
// backend-agnostic.
type DirectoryRepository interface {
	// ListParticipations returns the ids of every conversation the user is a
	// member of, in backend order.
	ListParticipations(ctx context.Context, userID string) ([]int64, error)

	// ListOtherParticipants returns, for each of the given conversations, the
	// membership rows belonging to users other than excludingUserID.
	ListOtherParticipants(ctx context.Context, conversationIDs []int64, excludingUserID string) ([]messaging.Participant, error)

	// OtherParticipant returns the user id of the counterpart in a single
	// conversation. It returns ErrNotFound when the conversation does not
	// exist or has no member besides excludingUserID.
	OtherParticipant(ctx context.Context, conversationID int64, excludingUserID string) (string, error)

	// GetProfiles batch-fetches profiles for the given user ids. Missing
	// profiles are simply absent from the result.
	GetProfiles(ctx context.Context, userIDs []string) ([]messaging.Profile, error)

	// GetProfile point-fetches one profile. A missing profile returns
	// (nil, nil), not an error.
	GetProfile(ctx context.Context, userID string) (*messaging.Profile, error)

	// GetOrCreateConversation finds the conversation between the two users or
	// creates it atomically. It is idempotent and order-independent: repeated
	// calls for the same unordered pair return the same id. created reports
	// whether this call created the conversation.
	GetOrCreateConversation(ctx context.Context, userA, userB string) (id int64, created bool, err error)

	// ListMessages returns a conversation's messages ascending by creation
	// time, each with its sender profile resolved (nil when the sender's
	// profile is gone). conversationID 0 selects all messages, which backs
	// the shared public room view.
	ListMessages(ctx context.Context, conversationID int64) ([]messaging.Message, error)

	// SaveMessage inserts one message row and returns it with the
	// backend-assigned id and timestamp.
	SaveMessage(ctx context.Context, m messaging.Message) (messaging.Message, error)

	// IsParticipant reports whether the user is a member of the conversation.
	IsParticipant(ctx context.Context, conversationID int64, userID string) (bool, error)

	// SuggestProfiles returns up to limit profiles distinct from
	// excludingUserID, used to seed discovery when the user has no
	// conversations yet.
	SuggestProfiles(ctx context.Context, limit int, excludingUserID string) ([]messaging.Profile, error)
}
