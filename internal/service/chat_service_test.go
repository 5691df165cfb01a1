package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/startera/internal/constants"
	"github.com/startera/internal/domain"
)

type stubResponder struct {
	reply       string
	err         error
	lastPrompt  string
	lastMessage string
}

func (s *stubResponder) Reply(ctx context.Context, systemPrompt, message string) (string, error) {
	s.lastPrompt = systemPrompt
	s.lastMessage = message
	return s.reply, s.err
}

func TestChatService_Send(t *testing.T) {
	tests := []struct {
		name      string
		responder domain.ChatResponder
		want      string
	}{
		{"model reply", &stubResponder{reply: "Merhaba!"}, "Merhaba!"},
		{"model failure", &stubResponder{err: errors.New("quota exceeded")}, constants.ChatReplyFailure},
		{"no api key", nil, constants.ChatReplyMissingKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			database := setupTestDB(t)
			svc := NewChatService(database, tt.responder, slog.Default())

			reply, err := svc.Send(context.Background(), "ada@example.com", domain.ChatRequest{Message: "Selam"})
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if reply.Reply != tt.want {
				t.Errorf("Expected reply %q, got %q", tt.want, reply.Reply)
			}

			history, err := svc.History(context.Background(), "ada@example.com")
			if err != nil {
				t.Fatalf("Failed to get history: %v", err)
			}
			if len(history) != 2 {
				t.Fatalf("Expected 2 stored messages, got %d", len(history))
			}
			if history[0].Role != constants.ChatRoleUser || history[0].Message != "Selam" {
				t.Errorf("Unexpected first message: %+v", history[0])
			}
			if history[1].Role != constants.ChatRoleBot || history[1].Message != tt.want {
				t.Errorf("Unexpected second message: %+v", history[1])
			}
		})
	}
}

func TestChatService_HistoryIsPerUser(t *testing.T) {
	database := setupTestDB(t)
	svc := NewChatService(database, &stubResponder{reply: "ok"}, slog.Default())
	ctx := context.Background()

	if _, err := svc.Send(ctx, "ada@example.com", domain.ChatRequest{Message: "ada"}); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if _, err := svc.Send(ctx, "bob@example.com", domain.ChatRequest{Message: "bob"}); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if _, err := svc.Send(ctx, "", domain.ChatRequest{Message: "anon"}); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	history, err := svc.History(ctx, "bob@example.com")
	if err != nil {
		t.Fatalf("Failed to get history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("Expected 2 messages for bob, got %d", len(history))
	}
	if history[0].Message != "bob" || history[0].UserEmail != "bob@example.com" {
		t.Errorf("Unexpected first message: %+v", history[0])
	}
}

func TestChatService_SendRejectsBlank(t *testing.T) {
	database := setupTestDB(t)
	svc := NewChatService(database, &stubResponder{reply: "x"}, slog.Default())

	if _, err := svc.Send(context.Background(), "ada@example.com", domain.ChatRequest{Message: "   "}); !domain.IsValidationError(err) {
		t.Errorf("Expected validation error, got %v", err)
	}
	history, _ := svc.History(context.Background(), "ada@example.com")
	if len(history) != 0 {
		t.Errorf("Expected nothing stored, got %d messages", len(history))
	}
}

func TestChatService_LanguageHint(t *testing.T) {
	database := setupTestDB(t)
	responder := &stubResponder{reply: "ok"}
	svc := NewChatService(database, responder, slog.Default())

	if _, err := svc.Send(context.Background(), "", domain.ChatRequest{Message: "hi", SystemPrompt: "Be brief.", Language: "ar"}); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !strings.HasPrefix(responder.lastPrompt, "Be brief.") || !strings.HasSuffix(responder.lastPrompt, "Answer in Arabic.") {
		t.Errorf("Unexpected system prompt: %q", responder.lastPrompt)
	}

	if _, err := svc.Send(context.Background(), "", domain.ChatRequest{Message: "hi", Language: "xx"}); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if responder.lastPrompt != "" {
		t.Errorf("Expected empty prompt for unknown language, got %q", responder.lastPrompt)
	}
}
