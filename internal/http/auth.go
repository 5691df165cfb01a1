package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/startera/internal/domain"
)

// Auth endpoints (all under /api):
//   - POST /register - create an account, mail a verification code
//   - POST /login    - exchange credentials for a bearer token
//   - POST /verify   - confirm the code, receive a bearer token

// RegisterResponse is returned after a successful registration.
// DebugCode echoes the code so development clients can proceed without mail.
type RegisterResponse struct {
	Message   string `json:"message"`
	Email     string `json:"email"`
	Verified  bool   `json:"verified"`
	DebugCode string `json:"debug_code,omitempty"`
}

// TokenResponse carries an issued bearer token
type TokenResponse struct {
	Message string `json:"message,omitempty"`
	Token   string `json:"token"`
	Email   string `json:"email"`
}

func (s *Server) register(c *gin.Context) {
	var req domain.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	result, err := s.authService.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := RegisterResponse{Message: "success", Email: result.Email, Verified: result.Verified}
	if s.config.Environment != "production" {
		resp.DebugCode = result.Code
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) login(c *gin.Context) {
	var req domain.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	result, err := s.authService.Login(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	slog.InfoContext(c.Request.Context(), "login succeeded", "email", result.Email)
	c.JSON(http.StatusOK, TokenResponse{Token: result.Token, Email: result.Email})
}

func (s *Server) verify(c *gin.Context) {
	var req domain.VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	result, err := s.authService.Verify(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, TokenResponse{Message: "success", Token: result.Token, Email: result.Email})
}
