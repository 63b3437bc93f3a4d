package usecase

import (
	"context"
	"fmt"

	feedport "github.com/Abedmejri/Artplat/internal/infrastructure/feed/port"
	messaging "github.com/Abedmejri/Artplat/internal/pkg/messaging/domain"
	repository "github.com/Abedmejri/Artplat/internal/pkg/messaging/persistence/repository/port"
)

// SendMessageInput carries the data needed to send a new message.
type SendMessageInput struct {
	ConversationID int64
	SenderID       string
	Content        string
}

// SendMessageUseCase validates, persists and publishes one message. The
// caller never receives the message for local display: new messages reach
// every viewer, the sender included, through the insert feed echo, so there
// is exactly one delivery path into a live message list.
type SendMessageUseCase struct {
	Repo repository.DirectoryRepository
	Feed feedport.Feed
}

func NewSendMessageUseCase(repo repository.DirectoryRepository, feed feedport.Feed) *SendMessageUseCase {
	return &SendMessageUseCase{Repo: repo, Feed: feed}
}

// Execute sends a message. Content that is empty after trimming is rejected
// before any backend call.
func (uc *SendMessageUseCase) Execute(ctx context.Context, in SendMessageInput) error {
	msg, err := messaging.NewMessage(in.ConversationID, in.SenderID, in.Content)
	if err != nil {
		return err
	}

	isParticipant, err := uc.Repo.IsParticipant(ctx, in.ConversationID, in.SenderID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if !isParticipant {
		return messaging.ErrNotParticipant
	}

	saved, err := uc.Repo.SaveMessage(ctx, *msg)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	// The feed row carries the bare message, not the sender profile;
	// subscribers resolve the profile themselves on arrival.
	saved.Sender = nil
	if err := uc.Feed.PublishInsert(ctx, "messages", saved); err != nil {
		return fmt.Errorf("%w: publish insert: %v", ErrPersistence, err)
	}
	return nil
}
