package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/startera/internal/domain"
)

// PlanResponse carries a generated business plan
type PlanResponse struct {
	Plan string `json:"plan"`
}

func (s *Server) generatePlan(c *gin.Context) {
	var req domain.PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	result, err := s.planService.Generate(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, PlanResponse{Plan: result.Plan})
}
