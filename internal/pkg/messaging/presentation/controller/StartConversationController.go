package controller

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	feedport "github.com/Abedmejri/Artplat/internal/infrastructure/feed/port"
	"github.com/Abedmejri/Artplat/internal/pkg/messaging/application/usecase"
	"github.com/Abedmejri/Artplat/internal/pkg/messaging/persistence/repository/adapter"
)

// StartConversationController handles the get-or-create conversation
// endpoint.
type StartConversationController struct {
	UC *usecase.StartConversationUseCase
}

func NewStartConversationController(pool *pgxpool.Pool, feed feedport.Feed) *StartConversationController {
	repo := adapter.NewPgDirectoryRepository(pool)
	return &StartConversationController{UC: usecase.NewStartConversationUseCase(repo, feed)}
}

type startConversationRequest struct {
	UserID      string `json:"user_id" binding:"required"`
	OtherUserID string `json:"other_user_id" binding:"required"`
}

func (h *StartConversationController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req startConversationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		id, err := h.UC.Execute(ctx, usecase.StartConversationInput{
			CurrentUserID: req.UserID,
			OtherUserID:   req.OtherUserID,
		})
		if err != nil {
			status := http.StatusBadRequest
			if errors.Is(err, usecase.ErrPersistence) {
				status = http.StatusInternalServerError
			}
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"conversation_id": id})
	}
}
