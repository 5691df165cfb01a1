package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/startera/internal/domain"
)

func testPlanRequest() domain.PlanRequest {
	return domain.PlanRequest{
		Idea:       "Kampüste kahve dükkanı",
		Capital:    "250000 TL",
		Skills:     "barista, muhasebe",
		Strategy:   "öğrenci indirimi",
		Management: "iki ortak",
	}
}

func TestPlanService_Generate(t *testing.T) {
	responder := &stubResponder{reply: "# 1. YÖNETİCİ ÖZETİ\n**Kahve** odaklı bir iş."}
	svc := NewPlanService(responder, slog.Default())

	result, err := svc.Generate(context.Background(), testPlanRequest())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if result.Plan != " 1. YÖNETİCİ ÖZETİ\nKahve odaklı bir iş." {
		t.Errorf("Expected markdown marks stripped, got %q", result.Plan)
	}
	if responder.lastPrompt != "" {
		t.Errorf("Expected no system prompt, got %q", responder.lastPrompt)
	}
	for _, want := range []string{"- Fikir: Kampüste kahve dükkanı", "- Yönetim: iki ortak", "- Dil: tr", "5. FİNANSAL PLAN"} {
		if !strings.Contains(responder.lastMessage, want) {
			t.Errorf("Expected prompt to contain %q, got %q", want, responder.lastMessage)
		}
	}
}

func TestPlanService_LanguagePassedThrough(t *testing.T) {
	responder := &stubResponder{reply: "plan"}
	svc := NewPlanService(responder, slog.Default())

	req := testPlanRequest()
	req.Language = "en"
	if _, err := svc.Generate(context.Background(), req); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !strings.Contains(responder.lastMessage, "- Dil: en") {
		t.Errorf("Expected requested language in prompt, got %q", responder.lastMessage)
	}
}

func TestPlanService_Errors(t *testing.T) {
	tests := []struct {
		name      string
		responder domain.ChatResponder
		req       func() domain.PlanRequest
		want      error
	}{
		{"no api key", nil, testPlanRequest, domain.ErrModelUnavailable},
		{"model failure", &stubResponder{err: errors.New("quota exceeded")}, testPlanRequest, domain.ErrPlanGenerationFailed},
		{"blank idea", &stubResponder{reply: "plan"}, func() domain.PlanRequest {
			req := testPlanRequest()
			req.Idea = " "
			return req
		}, domain.ErrValidationFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewPlanService(tt.responder, slog.Default())
			if _, err := svc.Generate(context.Background(), tt.req()); !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}
}
