package usecase

import (
	"context"
	"fmt"

	messaging "github.com/Abedmejri/Artplat/internal/pkg/messaging/domain"
	repository "github.com/Abedmejri/Artplat/internal/pkg/messaging/persistence/repository/port"
)

// ListMessagesInput selects whose history to fetch. ConversationID 0 selects
// the shared public room (every message on the table).
type ListMessagesInput struct {
	ConversationID int64
}

// ListMessagesUseCase fetches a conversation's full history, ascending by
// creation time, with sender profiles joined.
type ListMessagesUseCase struct {
	Repo repository.DirectoryRepository
}

func NewListMessagesUseCase(repo repository.DirectoryRepository) *ListMessagesUseCase {
	return &ListMessagesUseCase{Repo: repo}
}

func (uc *ListMessagesUseCase) Execute(ctx context.Context, in ListMessagesInput) ([]messaging.Message, error) {
	if in.ConversationID < 0 {
		return nil, fmt.Errorf("conversation id must not be negative")
	}
	msgs, err := uc.Repo.ListMessages(ctx, in.ConversationID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return msgs, nil
}
