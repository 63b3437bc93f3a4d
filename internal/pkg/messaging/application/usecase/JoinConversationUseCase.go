package usecase

import (
	"context"
	"fmt"

	messaging "github.com/Abedmejri/Artplat/internal/pkg/messaging/domain"
	repository "github.com/Abedmejri/Artplat/internal/pkg/messaging/persistence/repository/port"
)

// JoinConversationInput validates a request to open a live view on a
// conversation.
type JoinConversationInput struct {
	ConversationID int64
	UserID         string
}

// JoinConversationUseCase ensures the user belongs to the conversation
// before a live stream is opened for it.
type JoinConversationUseCase struct {
	Repo repository.DirectoryRepository
}

func NewJoinConversationUseCase(repo repository.DirectoryRepository) *JoinConversationUseCase {
	return &JoinConversationUseCase{Repo: repo}
}

func (uc *JoinConversationUseCase) Execute(ctx context.Context, in JoinConversationInput) error {
	if in.ConversationID <= 0 || in.UserID == "" {
		return fmt.Errorf("conversation_id and user_id are required")
	}

	ok, err := uc.Repo.IsParticipant(ctx, in.ConversationID, in.UserID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if !ok {
		return messaging.ErrNotParticipant
	}
	return nil
}
