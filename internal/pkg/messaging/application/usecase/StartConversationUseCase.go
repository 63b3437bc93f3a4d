package usecase

import (
	"context"
	"fmt"

	feedport "github.com/Abedmejri/Artplat/internal/infrastructure/feed/port"
	messaging "github.com/Abedmejri/Artplat/internal/pkg/messaging/domain"
	repository "github.com/Abedmejri/Artplat/internal/pkg/messaging/persistence/repository/port"
)

// StartConversationInput names the two parties of a direct conversation.
type StartConversationInput struct {
	CurrentUserID string
	OtherUserID   string
}

// StartConversationUseCase opens (or finds) the direct conversation between
// two users. The repository lookup is idempotent and order-independent, so
// clicking "Message" twice, or both users starting the chat at once, lands
// on the same conversation. Errors surface to the caller as a failed start;
// no automatic retry.
type StartConversationUseCase struct {
	Repo repository.DirectoryRepository
	Feed feedport.Feed
}

func NewStartConversationUseCase(repo repository.DirectoryRepository, feed feedport.Feed) *StartConversationUseCase {
	return &StartConversationUseCase{Repo: repo, Feed: feed}
}

// Execute returns the conversation id for the pair. When this call created
// the conversation, the new membership rows are published on the feed so
// already-open directory views learn about it.
func (uc *StartConversationUseCase) Execute(ctx context.Context, in StartConversationInput) (int64, error) {
	if in.CurrentUserID == "" || in.OtherUserID == "" {
		return 0, fmt.Errorf("both user ids are required")
	}
	if in.CurrentUserID == in.OtherUserID {
		return 0, fmt.Errorf("cannot start a conversation with yourself")
	}

	id, created, err := uc.Repo.GetOrCreateConversation(ctx, in.CurrentUserID, in.OtherUserID)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	if created && uc.Feed != nil {
		for _, userID := range []string{in.CurrentUserID, in.OtherUserID} {
			p := messaging.Participant{ConversationID: id, UserID: userID}
			if err := uc.Feed.PublishInsert(ctx, "participants", p); err != nil {
				// The conversation exists either way; directory views catch
				// up on their next load.
				break
			}
		}
	}

	return id, nil
}
