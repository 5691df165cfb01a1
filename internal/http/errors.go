package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/startera/internal/domain"
)

// ErrorResponse is the error body clients read: detail is shown to the user verbatim
type ErrorResponse struct {
	Detail string `json:"detail"`
	Code   string `json:"code,omitempty"`
}

type errorMapping struct {
	status int
	detail string
}

var errorMappings = map[string]errorMapping{
	domain.ErrUserAlreadyExists.Code:       {http.StatusBadRequest, "Bu e-posta zaten kayıtlı."},
	domain.ErrInvalidCredentials.Code:      {http.StatusUnauthorized, "E-posta veya şifre hatalı."},
	domain.ErrEmailNotVerified.Code:        {http.StatusForbidden, "E-posta adresiniz henüz doğrulanmadı."},
	domain.ErrUserNotFound.Code:            {http.StatusNotFound, "Kullanıcı bulunamadı."},
	domain.ErrInvalidVerificationCode.Code: {http.StatusBadRequest, "Geçersiz kod."},
	domain.ErrUnauthorized.Code:            {http.StatusUnauthorized, "Oturum açmanız gerekiyor."},
	domain.ErrModelUnavailable.Code:        {http.StatusServiceUnavailable, "API Key Missing"},
	domain.ErrPlanGenerationFailed.Code:    {http.StatusInternalServerError, "İş planı oluşturulamadı."},
}

// respondError maps a service error to a status and JSON body
func respondError(c *gin.Context, err error) {
	var domainErr *domain.DomainError
	if errors.As(err, &domainErr) {
		if mapping, ok := errorMappings[domainErr.Code]; ok {
			c.JSON(mapping.status, ErrorResponse{Detail: mapping.detail, Code: domainErr.Code})
			return
		}
		if domain.IsValidationError(err) {
			c.JSON(http.StatusBadRequest, ErrorResponse{Detail: domain.PublicMessage(err), Code: domainErr.Code})
			return
		}
	}

	slog.ErrorContext(c.Request.Context(), "request failed", "path", c.Request.URL.Path, "error", err)
	c.JSON(http.StatusInternalServerError, ErrorResponse{Detail: "Sunucu hatası.", Code: "INTERNAL_ERROR"})
}

// respondBadRequest answers a malformed request body
func respondBadRequest(c *gin.Context, err error) {
	slog.WarnContext(c.Request.Context(), "invalid request body", "path", c.Request.URL.Path, "error", err)
	c.JSON(http.StatusBadRequest, ErrorResponse{Detail: "Geçersiz istek.", Code: domain.ErrValidationFailed.Code})
}
