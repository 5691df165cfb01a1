package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/startera/internal/apipaths"
)

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	api := s.engine.Group(apipaths.Prefix)
	{
		api.GET(apipaths.Health, s.health)

		api.POST(apipaths.Register, s.register)
		api.POST(apipaths.Login, s.login)
		api.POST(apipaths.Verify, s.verify)

		// Chat is open like the auth endpoints; a bearer token files the turns under that user
		api.POST(apipaths.Chat, s.optionalAuthMiddleware(), s.chat)
		api.GET(apipaths.ChatHistory, s.authMiddleware(), s.chatHistory)
		api.POST(apipaths.GeneratePlan, s.generatePlan)
	}

	s.engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, ErrorResponse{Detail: "Bulunamadı.", Code: "NOT_FOUND"})
	})
}

// health reports liveness and database reachability
func (s *Server) health(c *gin.Context) {
	status := "ok"
	code := http.StatusOK
	if err := s.database.PingContext(c.Request.Context()); err != nil {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status":  status,
		"service": serviceName,
	})
}
