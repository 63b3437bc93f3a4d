package realtime

import (
	"context"
	"encoding/json"
	"log"

	feedport "github.com/Abedmejri/Artplat/internal/infrastructure/feed/port"
)

// DirectoryNotifier bridges participant-insert events to connected sockets:
// when a conversation is created for a user, their open session receives a
// conversation_created frame so the directory view can reload instead of
// waiting for the next navigation.
type DirectoryNotifier struct {
	feed   feedport.Feed
	router *Router
}

func NewDirectoryNotifier(feed feedport.Feed, router *Router) *DirectoryNotifier {
	return &DirectoryNotifier{feed: feed, router: router}
}

type participantRow struct {
	ConversationID int64  `json:"conversation_id"`
	UserID         string `json:"user_id"`
}

type directoryFrame struct {
	Type           string `json:"type"`
	ConversationID int64  `json:"conversation_id"`
}

// Run consumes the participants insert feed until ctx is canceled.
func (n *DirectoryNotifier) Run(ctx context.Context) error {
	sub, err := n.feed.SubscribeInserts(ctx, "participants", nil)
	if err != nil {
		return err
	}
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case raw, ok := <-sub.Events():
			if !ok {
				return nil
			}
			var row participantRow
			if err := json.Unmarshal(raw, &row); err != nil || row.UserID == "" {
				continue
			}
			payload, err := json.Marshal(directoryFrame{Type: "conversation_created", ConversationID: row.ConversationID})
			if err != nil {
				log.Printf("directory notifier: encode frame: %v", err)
				continue
			}
			n.router.NotifyUser(row.UserID, payload)
		}
	}
}
