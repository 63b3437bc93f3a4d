package controller

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/jackc/pgx/v5/pgxpool"

	feedport "github.com/Abedmejri/Artplat/internal/infrastructure/feed/port"
	"github.com/Abedmejri/Artplat/internal/infrastructure/realtime"
	"github.com/Abedmejri/Artplat/internal/pkg/messaging/application/stream"
	"github.com/Abedmejri/Artplat/internal/pkg/messaging/application/usecase"
	messaging "github.com/Abedmejri/Artplat/internal/pkg/messaging/domain"
	repoAdapter "github.com/Abedmejri/Artplat/internal/pkg/messaging/persistence/repository/adapter"
	repository "github.com/Abedmejri/Artplat/internal/pkg/messaging/persistence/repository/port"
)

// MessagingSocketController handles the websocket endpoint. Each connection
// holds at most one live message stream at a time: joining a conversation
// closes the previous stream before the next one opens, and disconnecting
// closes whatever is open, so feed subscriptions never outlive the view
// reading them.
type MessagingSocketController struct {
	router          *realtime.Router
	feed            feedport.Feed
	repo            repository.DirectoryRepository
	resolver        *usecase.ProfileResolver
	sendMessageUC   *usecase.SendMessageUseCase
	joinUC          *usecase.JoinConversationUseCase
	inflightTimeout time.Duration
}

func NewMessagingSocketController(pool *pgxpool.Pool, feed feedport.Feed, router *realtime.Router) *MessagingSocketController {
	repo := repoAdapter.NewPgDirectoryRepository(pool)
	return &MessagingSocketController{
		router:          router,
		feed:            feed,
		repo:            repo,
		resolver:        usecase.NewProfileResolver(repo),
		sendMessageUC:   usecase.NewSendMessageUseCase(repo, feed),
		joinUC:          usecase.NewJoinConversationUseCase(repo),
		inflightTimeout: 5 * time.Second,
	}
}

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins for now; plug a proper checker when auth is added.
		return true
	},
}

type inboundFrame struct {
	Type           string `json:"type"`
	ConversationID int64  `json:"conversation_id,omitempty"`
	Content        string `json:"content,omitempty"`
}

type errorFrame struct {
	Type  string `json:"type"`
	Code  string `json:"code"`
	Error string `json:"error"`
}

type ackFrame struct {
	Type           string `json:"type"`
	ConversationID int64  `json:"conversation_id,omitempty"`
}

type historyFrame struct {
	Type           string              `json:"type"`
	ConversationID int64               `json:"conversation_id"`
	Messages       []messaging.Message `json:"messages"`
}

type messageFrame struct {
	Type    string            `json:"type"`
	Message messaging.Message `json:"message"`
}

const defaultReadTimeout = 60 * time.Second

// Handle upgrades HTTP connections to websocket and processes frames until
// the client disconnects.
func (ctl *MessagingSocketController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Query("user_id")
		if userID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
			return
		}

		ws, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			// Upgrade already wrote the response.
			return
		}

		conn := realtime.NewConnection(userID, ws)
		ctl.router.Attach(conn)

		session := &socketSession{ctl: ctl, conn: conn, userID: userID}
		defer func() {
			session.closeStream()
			ctl.router.Detach(conn)
			conn.Close(websocket.CloseNormalClosure, "session closed")
		}()

		ws.SetReadLimit(1 << 20) // 1MB payload cap
		_ = ws.SetReadDeadline(time.Now().Add(defaultReadTimeout))
		ws.SetPongHandler(func(string) error {
			return ws.SetReadDeadline(time.Now().Add(defaultReadTimeout))
		})

		session.sendJSON(ackFrame{Type: "connected"})

		for {
			_, data, err := ws.ReadMessage()
			if err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) ||
					errors.Is(err, websocket.ErrCloseSent) {
					return
				}
				session.replyError("read_error", err.Error())
				return
			}

			var frame inboundFrame
			if err := json.Unmarshal(data, &frame); err != nil {
				session.replyError("bad_request", "invalid payload")
				continue
			}

			switch frame.Type {
			case "join":
				session.handleJoin(c.Request.Context(), frame)
			case "leave":
				session.handleLeave()
			case "message":
				session.handleMessage(c.Request.Context(), frame)
			default:
				session.replyError("unsupported_type", "unknown frame type")
			}
		}
	}
}

// socketSession is the per-connection state: the websocket plus the one live
// stream the connection may hold.
type socketSession struct {
	ctl     *MessagingSocketController
	conn    *realtime.Connection
	userID  string
	current *stream.Stream
}

func (s *socketSession) handleJoin(ctx context.Context, frame inboundFrame) {
	if frame.ConversationID < 0 {
		s.replyError("bad_request", "conversation_id must not be negative")
		return
	}

	// The shared public room (conversation_id 0) is open to everyone;
	// direct conversations require membership.
	if frame.ConversationID != stream.PublicRoom {
		checkCtx, cancel := context.WithTimeout(ctx, s.ctl.inflightTimeout)
		err := s.ctl.joinUC.Execute(checkCtx, usecase.JoinConversationInput{
			ConversationID: frame.ConversationID,
			UserID:         s.userID,
		})
		cancel()
		if err != nil {
			s.handleUseCaseError(err)
			return
		}
	}

	// Release the previous conversation's subscription before the next one
	// opens; a connection never holds two live streams.
	s.closeStream()

	st, err := stream.Open(ctx, frame.ConversationID, s.ctl.repo, s.ctl.feed, s.ctl.resolver)
	if err != nil {
		s.replyError("internal_error", "failed to open message stream")
		return
	}
	s.current = st

	s.sendJSON(ackFrame{Type: "joined", ConversationID: frame.ConversationID})
	s.sendJSON(historyFrame{Type: "history", ConversationID: frame.ConversationID, Messages: st.Messages()})

	go s.pumpUpdates(st)
}

func (s *socketSession) handleLeave() {
	s.closeStream()
	s.sendJSON(ackFrame{Type: "left"})
}

func (s *socketSession) handleMessage(ctx context.Context, frame inboundFrame) {
	if frame.ConversationID <= 0 {
		s.replyError("bad_request", "conversation_id is required")
		return
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.ctl.inflightTimeout)
	defer cancel()

	err := s.ctl.sendMessageUC.Execute(sendCtx, usecase.SendMessageInput{
		ConversationID: frame.ConversationID,
		SenderID:       s.userID,
		Content:        frame.Content,
	})
	if err != nil {
		s.handleUseCaseError(err)
		return
	}

	// No echo here: the sender sees their message when the feed delivers it,
	// the same path every other viewer takes.
	s.sendJSON(ackFrame{Type: "sent", ConversationID: frame.ConversationID})
}

// pumpUpdates forwards feed-delivered messages for one stream to the socket
// until the stream closes.
func (s *socketSession) pumpUpdates(st *stream.Stream) {
	for msg := range st.Updates() {
		payload, err := json.Marshal(messageFrame{Type: "message", Message: msg})
		if err != nil {
			continue
		}
		if s.conn.Send(payload) != nil {
			return
		}
	}
}

func (s *socketSession) closeStream() {
	if s.current != nil {
		s.current.Close()
		s.current = nil
	}
}

func (s *socketSession) handleUseCaseError(err error) {
	switch {
	case errors.Is(err, usecase.ErrPersistence):
		s.replyError("internal_error", "unexpected persistence error")
	case errors.Is(err, messaging.ErrNotParticipant):
		s.replyError("forbidden", "user is not a participant in this conversation")
	case errors.Is(err, messaging.ErrEmptyMessage):
		s.replyError("bad_request", "message content is empty")
	default:
		s.replyError("bad_request", err.Error())
	}
}

func (s *socketSession) replyError(code string, message string) {
	s.sendJSON(errorFrame{Type: "error", Code: code, Error: message})
}

func (s *socketSession) sendJSON(v any) {
	if payload, err := json.Marshal(v); err == nil {
		_ = s.conn.Send(payload)
	}
}
