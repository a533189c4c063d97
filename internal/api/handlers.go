package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/aeg-helpline/server/internal/agent/model"
	errx "github.com/aeg-helpline/server/internal/core/error"
	"github.com/aeg-helpline/server/internal/dialog"
)

// MessageRequest is one inbound user message. A missing conversation id
// starts a new conversation.
type MessageRequest struct {
	ConversationID string `json:"conversation_id" binding:"omitempty,max=128"`
	Text           string `json:"text" binding:"max=4096"`
}

// MessageResponse carries the bot replies of one turn.
type MessageResponse struct {
	ConversationID string            `json:"conversation_id"`
	Activities     []dialog.Activity `json:"activities"`
	ActiveDialogs  []string          `json:"active_dialogs,omitempty"`
	Intent         string            `json:"intent,omitempty"`
}

// TranscriptMessage is one stored message of a conversation.
type TranscriptMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type TranscriptResponse struct {
	ConversationID string              `json:"conversation_id"`
	Messages       []TranscriptMessage `json:"messages"`
}

type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

type Handler struct {
	runner TurnRunner
	health HealthCheck
}

func (h *Handler) Health(c *gin.Context) {
	if h.health != nil {
		if err := h.health(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) PostMessage(c *gin.Context) {
	var req MessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(errx.InvalidInput(err))
		return
	}
	if strings.TrimSpace(req.ConversationID) == "" {
		req.ConversationID = uuid.NewString()
	}

	out, err := h.runner.Invoke(c.Request.Context(), model.TurnInput{
		ConversationID: req.ConversationID,
		Text:           req.Text,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{
		ConversationID: out.ConversationID,
		Activities:     out.Activities,
		ActiveDialogs:  out.ActiveDialogs,
		Intent:         out.Intent,
	})
}

func (h *Handler) Transcript(c *gin.Context) {
	id := c.Param("id")
	history, err := h.runner.Transcript(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}

	resp := TranscriptResponse{ConversationID: id, Messages: []TranscriptMessage{}}
	for _, m := range history.Messages {
		if m == nil {
			continue
		}
		resp.Messages = append(resp.Messages, TranscriptMessage{Role: string(m.Role), Content: m.Content})
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) DeleteConversation(c *gin.Context) {
	if err := h.runner.Reset(c.Request.Context(), c.Param("id")); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}
