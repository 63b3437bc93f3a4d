package controller

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Abedmejri/Artplat/internal/pkg/messaging/application/usecase"
	"github.com/Abedmejri/Artplat/internal/pkg/messaging/persistence/repository/adapter"
)

// ListMessagesController handles fetching a conversation's message history.
type ListMessagesController struct {
	UC *usecase.ListMessagesUseCase
}

func NewListMessagesController(pool *pgxpool.Pool) *ListMessagesController {
	repo := adapter.NewPgDirectoryRepository(pool)
	return &ListMessagesController{UC: usecase.NewListMessagesUseCase(repo)}
}

func (h *ListMessagesController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		conversationID, err := strconv.ParseInt(c.Param("conversationId"), 10, 64)
		if err != nil || conversationID <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "conversationId must be a positive integer"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		msgs, err := h.UC.Execute(ctx, usecase.ListMessagesInput{ConversationID: conversationID})
		if err != nil {
			status := http.StatusBadRequest
			if errors.Is(err, usecase.ErrPersistence) {
				status = http.StatusInternalServerError
			}
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"messages": msgs,
			"count":    len(msgs),
		})
	}
}
