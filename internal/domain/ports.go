package domain

import (
	"context"
	"time"

	"github.com/startera/internal/db"
)

// ============================================================================
// Primary Ports (Application Use Cases)
// ============================================================================

// AuthService defines the primary port for account registration, login and verification
type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*RegisterResult, error)
	Login(ctx context.Context, req LoginRequest) (*AuthResult, error)
	Verify(ctx context.Context, req VerifyRequest) (*AuthResult, error)
	Authenticate(ctx context.Context, token string) (*db.User, error)
}

// ChatService defines the primary port for the assistant chat
type ChatService interface {
	Send(ctx context.Context, userEmail string, req ChatRequest) (*ChatReply, error)
	History(ctx context.Context, userEmail string) ([]*db.ChatMessage, error)
}

// PlanService defines the primary port for business plan generation
type PlanService interface {
	Generate(ctx context.Context, req PlanRequest) (*PlanResult, error)
}

// ============================================================================
// Secondary Ports (Infrastructure)
// ============================================================================

// TokenIssuer issues and validates bearer tokens
type TokenIssuer interface {
	Issue(subject string) (string, error)
	Validate(token string) (string, error)
}

// Mailer delivers verification codes
type Mailer interface {
	SendVerificationCode(ctx context.Context, email, code string) error
}

// ChatResponder produces an assistant reply for a prompt
type ChatResponder interface {
	Reply(ctx context.Context, systemPrompt, message string) (string, error)
}

// ============================================================================
// Request/Response Types
// ============================================================================

// RegisterRequest represents a new account submission
type RegisterRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginRequest represents a credential check
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// VerifyRequest represents a one-time code submission
type VerifyRequest struct {
	Email string `json:"email" binding:"required"`
	Code  string `json:"code" binding:"required"`
}

// RegisterResult is returned after an account is created
type RegisterResult struct {
	Email     string
	Code      string
	Verified  bool
	ExpiresAt time.Time
}

// AuthResult carries an issued session token
type AuthResult struct {
	Token string
	Email string
}

// ChatRequest represents one user chat message
type ChatRequest struct {
	Message      string `json:"message" binding:"required"`
	SystemPrompt string `json:"system_prompt"`
	Language     string `json:"language"`
}

// ChatReply is the assistant's answer
type ChatReply struct {
	Reply string
}

// PlanRequest describes a venture to write a business plan for
type PlanRequest struct {
	Idea       string `json:"idea" binding:"required"`
	Capital    string `json:"capital" binding:"required"`
	Skills     string `json:"skills" binding:"required"`
	Strategy   string `json:"strategy" binding:"required"`
	Management string `json:"management" binding:"required"`
	Language   string `json:"language"`
}

// PlanResult is the generated plan as plain text
type PlanResult struct {
	Plan string
}
