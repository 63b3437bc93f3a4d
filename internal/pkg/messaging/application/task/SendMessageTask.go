package task

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	feedport "github.com/Abedmejri/Artplat/internal/infrastructure/feed/port"
	qport "github.com/Abedmejri/Artplat/internal/infrastructure/queue/port"
	"github.com/Abedmejri/Artplat/internal/pkg/messaging/application/usecase"
	repoAdapter "github.com/Abedmejri/Artplat/internal/pkg/messaging/persistence/repository/adapter"
)

// SendMessageTaskType is the queue task name for persisting a message.
const SendMessageTaskType = "messaging:send_message"

// SendMessageTaskPayload is the JSON payload transported via the queue.
type SendMessageTaskPayload struct {
	ConversationID int64  `json:"conversationId"`
	SenderID       string `json:"senderId"`
	Content        string `json:"content"`
}

// RegisterSendMessageTask binds the task handler to the provided server. The
// handler persists through SendMessageUseCase, so the feed echo is the one
// and only path a sent message takes back to any viewer.
func RegisterSendMessageTask(srv qport.Server, pool *pgxpool.Pool, feed feedport.Feed) {
	srv.Register(SendMessageTaskType, func(ctx context.Context, t qport.Task) error {
		var p SendMessageTaskPayload
		if err := json.Unmarshal(t.Payload, &p); err != nil {
			// malformed payload: retrying cannot help
			return err
		}

		uc := usecase.NewSendMessageUseCase(repoAdapter.NewPgDirectoryRepository(pool), feed)

		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		return uc.Execute(ctx, usecase.SendMessageInput{
			ConversationID: p.ConversationID,
			SenderID:       p.SenderID,
			Content:        p.Content,
		})
	})
}
