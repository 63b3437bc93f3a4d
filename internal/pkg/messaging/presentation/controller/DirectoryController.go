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

// DirectoryController serves the conversation directory (one controller per
// endpoint).
type DirectoryController struct {
	UC *usecase.LoadDirectoryUseCase
}

func NewDirectoryController(pool *pgxpool.Pool) *DirectoryController {
	repo := adapter.NewPgDirectoryRepository(pool)
	return &DirectoryController{UC: usecase.NewLoadDirectoryUseCase(repo)}
}

// Handle returns a gin handler for loading the signed-in user's directory.
// The optional conversation_id query names the conversation the client is
// currently addressing, so a just-created conversation missing from the
// list snapshot is still included.
func (h *DirectoryController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Query("user_id")
		if userID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
			return
		}

		var urlConversationID int64
		if v := c.Query("conversation_id"); v != "" {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil || n <= 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "conversation_id must be a positive integer"})
				return
			}
			urlConversationID = n
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		dir, err := h.UC.Execute(ctx, usecase.LoadDirectoryInput{
			CurrentUserID:     userID,
			URLConversationID: urlConversationID,
		})
		if err != nil {
			status := http.StatusBadRequest
			if errors.Is(err, usecase.ErrPersistence) {
				status = http.StatusInternalServerError
			}
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"conversations": dir.Entries,
			"suggestions":   dir.Suggestions,
		})
	}
}
