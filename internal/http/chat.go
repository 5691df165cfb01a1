package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/startera/internal/constants"
	"github.com/startera/internal/domain"
)

// ChatResponse wraps the assistant reply
type ChatResponse struct {
	Reply string `json:"reply"`
}

// ChatHistoryEntry is one rendered chat turn
type ChatHistoryEntry struct {
	Text  string `json:"text"`
	IsBot bool   `json:"isBot"`
}

func (s *Server) chat(c *gin.Context) {
	var req domain.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	var owner string
	if user, ok := getUserFromContext(c); ok {
		owner = user.Email
	}

	reply, err := s.chatService.Send(c.Request.Context(), owner, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ChatResponse{Reply: reply.Reply})
}

func (s *Server) chatHistory(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		respondError(c, domain.ErrUnauthorized)
		return
	}
	slog.DebugContext(c.Request.Context(), "chat history requested", "email", user.Email)

	messages, err := s.chatService.History(c.Request.Context(), user.Email)
	if err != nil {
		respondError(c, err)
		return
	}

	entries := make([]ChatHistoryEntry, 0, len(messages))
	for _, msg := range messages {
		entries = append(entries, ChatHistoryEntry{Text: msg.Message, IsBot: msg.Role == constants.ChatRoleBot})
	}
	c.JSON(http.StatusOK, entries)
}
