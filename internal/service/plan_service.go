package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/startera/internal/constants"
	"github.com/startera/internal/domain"
	"github.com/startera/internal/validation"
)

const planPromptTemplate = `Sen uzman bir iş geliştirme danışmanısın. Aşağıdaki girişim fikri için profesyonel bir iş planı hazırla.
GİRİŞİM:
- Fikir: %s
- Sermaye: %s
- Yetenekler: %s
- Strateji: %s
- Yönetim: %s
- Dil: %s
ÇIKTI FORMATI (Markdown kullanma, Büyük Harfli Başlıklar):
1. YÖNETİCİ ÖZETİ
2. İŞ MODELİ
3. PAZAR ANALİZİ
4. PAZARLAMA STRATEJİSİ
5. FİNANSAL PLAN`

// markdownStripper removes the emphasis and heading marks models add despite the prompt
var markdownStripper = strings.NewReplacer("*", "", "#", "")

// planService implements the PlanService interface
type planService struct {
	responder domain.ChatResponder // nil when no API key is configured
	logger    *slog.Logger
}

// NewPlanService creates a new plan service; responder may be nil
func NewPlanService(responder domain.ChatResponder, logger *slog.Logger) domain.PlanService {
	return &planService{
		responder: responder,
		logger:    logger,
	}
}

// Generate asks the model for a five-section business plan
func (s *planService) Generate(ctx context.Context, req domain.PlanRequest) (*domain.PlanResult, error) {
	if s.responder == nil {
		return nil, domain.ErrModelUnavailable
	}
	if err := validation.ValidatePlanRequest(req); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, constants.ChatResponderTimeout)
	defer cancel()

	text, err := s.responder.Reply(ctx, "", planPrompt(req))
	if err != nil {
		s.logger.ErrorContext(ctx, "plan generation failed", "error", err)
		return nil, domain.WrapPlanGeneration(err)
	}

	s.logger.InfoContext(ctx, "business plan generated", "language", planLanguage(req), "length", len(text))
	return &domain.PlanResult{Plan: markdownStripper.Replace(text)}, nil
}

func planPrompt(req domain.PlanRequest) string {
	return fmt.Sprintf(planPromptTemplate,
		strings.TrimSpace(req.Idea),
		strings.TrimSpace(req.Capital),
		strings.TrimSpace(req.Skills),
		strings.TrimSpace(req.Strategy),
		strings.TrimSpace(req.Management),
		planLanguage(req),
	)
}

// planLanguage is passed to the model verbatim; Turkish when omitted
func planLanguage(req domain.PlanRequest) string {
	if lang := strings.TrimSpace(req.Language); lang != "" {
		return lang
	}
	return domain.DefaultLanguage.String()
}
