package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	feedport "github.com/Abedmejri/Artplat/internal/infrastructure/feed/port"
	qport "github.com/Abedmejri/Artplat/internal/infrastructure/queue/port"
	"github.com/Abedmejri/Artplat/internal/infrastructure/realtime"
	httpHandler "github.com/Abedmejri/Artplat/internal/pkg/messaging/presentation/http"
)

// RegisterRoutes mounts all version 1 API routes under /api/v1
func RegisterRoutes(r *gin.Engine, pool *pgxpool.Pool, client qport.Client, feed feedport.Feed, router *realtime.Router) {
	v1 := r.Group("/api/v1")
	httpHandler.RegisterRoutes(v1, pool, client, feed, router)
}
