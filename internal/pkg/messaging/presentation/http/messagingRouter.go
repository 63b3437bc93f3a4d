package http

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	feedport "github.com/Abedmejri/Artplat/internal/infrastructure/feed/port"
	qport "github.com/Abedmejri/Artplat/internal/infrastructure/queue/port"
	"github.com/Abedmejri/Artplat/internal/infrastructure/realtime"
	"github.com/Abedmejri/Artplat/internal/pkg/messaging/presentation/controller"
)

// RegisterRoutes registers messaging HTTP endpoints under the given router
// group. It constructs per-endpoint controllers and binds them directly.
func RegisterRoutes(g *gin.RouterGroup, pool *pgxpool.Pool, client qport.Client, feed feedport.Feed, router *realtime.Router) {
	directoryCtl := controller.NewDirectoryController(pool)
	startCtl := controller.NewStartConversationController(pool, feed)
	sendMsgCtl := controller.NewSendMessageController(client)
	listMsgCtl := controller.NewListMessagesController(pool)
	socketCtl := controller.NewMessagingSocketController(pool, feed, router)

	// GET /api/v1/messages/directory -> conversation list + suggestions
	g.GET("/messages/directory", directoryCtl.Handle())

	// POST /api/v1/conversations -> get-or-create a direct conversation
	g.POST("/conversations", startCtl.Handle())

	// GET /api/v1/conversations/:conversationId/messages -> message history
	g.GET("/conversations/:conversationId/messages", listMsgCtl.Handle())

	// POST /api/v1/conversations/:conversationId/messages -> send a message
	g.POST("/conversations/:conversationId/messages", sendMsgCtl.Handle())

	// GET /api/v1/messages/ws -> websocket endpoint for live streams
	g.GET("/messages/ws", socketCtl.Handle())
}
