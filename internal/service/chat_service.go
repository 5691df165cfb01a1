package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/startera/internal/constants"
	"github.com/startera/internal/db"
	"github.com/startera/internal/domain"
	"github.com/startera/internal/validation"
)

var languageNames = map[domain.Language]string{
	domain.LanguageTurkish: "Turkish",
	domain.LanguageEnglish: "English",
	domain.LanguageArabic:  "Arabic",
}

// chatService implements the ChatService interface
type chatService struct {
	database  *db.DB
	responder domain.ChatResponder // nil when no API key is configured
	logger    *slog.Logger
}

// NewChatService creates a new chat service; responder may be nil
func NewChatService(database *db.DB, responder domain.ChatResponder, logger *slog.Logger) domain.ChatService {
	return &chatService{
		database:  database,
		responder: responder,
		logger:    logger,
	}
}

// Send stores the user message, asks the responder and stores its reply.
// userEmail is empty for anonymous chats.
func (s *chatService) Send(ctx context.Context, userEmail string, req domain.ChatRequest) (*domain.ChatReply, error) {
	if err := validation.ValidateChatMessage(req.Message); err != nil {
		return nil, err
	}

	if _, err := s.database.AddChatMessage(userEmail, constants.ChatRoleUser, req.Message); err != nil {
		return nil, domain.WrapDatabaseOperation("add chat message", err)
	}

	reply := s.reply(ctx, req)

	if _, err := s.database.AddChatMessage(userEmail, constants.ChatRoleBot, reply); err != nil {
		return nil, domain.WrapDatabaseOperation("add chat message", err)
	}
	return &domain.ChatReply{Reply: reply}, nil
}

func (s *chatService) reply(ctx context.Context, req domain.ChatRequest) string {
	if s.responder == nil {
		return constants.ChatReplyMissingKey
	}

	ctx, cancel := context.WithTimeout(ctx, constants.ChatResponderTimeout)
	defer cancel()

	text, err := s.responder.Reply(ctx, systemPrompt(req), req.Message)
	if err != nil {
		s.logger.ErrorContext(ctx, "chat responder failed", "error", err)
		return constants.ChatReplyFailure
	}
	return text
}

func systemPrompt(req domain.ChatRequest) string {
	prompt := strings.TrimSpace(req.SystemPrompt)
	lang, ok := domain.ParseLanguage(req.Language)
	if !ok {
		return prompt
	}
	hint := fmt.Sprintf("Answer in %s.", languageNames[lang])
	if prompt == "" {
		return hint
	}
	return prompt + "\n\n" + hint
}

// History returns the user's stored chat turns oldest first
func (s *chatService) History(ctx context.Context, userEmail string) ([]*db.ChatMessage, error) {
	messages, err := s.database.GetChatHistory(userEmail)
	if err != nil {
		return nil, domain.WrapDatabaseOperation("get chat history", err)
	}
	return messages, nil
}
