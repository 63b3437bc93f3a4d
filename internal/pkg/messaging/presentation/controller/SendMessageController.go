package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	queueport "github.com/Abedmejri/Artplat/internal/infrastructure/queue/port"
	"github.com/Abedmejri/Artplat/internal/pkg/messaging/application/task"
)

// SendMessageController handles the send-message endpoint. The write is
// enqueued for the background worker; the caller gets an acknowledgment, and
// the message itself reaches clients only through the insert feed echo.
type SendMessageController struct {
	Q queueport.Client
}

func NewSendMessageController(client queueport.Client) *SendMessageController {
	return &SendMessageController{Q: client}
}

type sendMessageRequest struct {
	SenderID string `json:"sender_id" binding:"required"`
	Content  string `json:"content" binding:"required"`
}

func (h *SendMessageController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		conversationID, err := strconv.ParseInt(c.Param("conversationId"), 10, 64)
		if err != nil || conversationID <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "conversationId must be a positive integer"})
			return
		}

		var req sendMessageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		// Reject blank content here, before anything is enqueued.
		if strings.TrimSpace(req.Content) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "content must not be empty"})
			return
		}

		payload := task.SendMessageTaskPayload{
			ConversationID: conversationID,
			SenderID:       req.SenderID,
			Content:        req.Content,
		}
		b, err := json.Marshal(payload)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to encode task payload"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		opts := queueport.EnqueueOption{Queue: "messaging", MaxRetry: 20}
		id, err := h.Q.Enqueue(ctx, queueport.Task{Type: task.SendMessageTaskType, Payload: b}, opts)
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "failed to enqueue message"})
			return
		}

		c.JSON(http.StatusAccepted, gin.H{
			"status":          "queued",
			"task_id":         id,
			"conversation_id": conversationID,
			"sender_id":       req.SenderID,
		})
	}
}
