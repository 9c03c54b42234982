package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/timmy/cinematch/internal/service"
)

// HealthHandler reports liveness together with the size of the loaded corpus.
type HealthHandler struct {
	svc *service.RecommendService
}

func NewHealthHandler(svc *service.RecommendService) *HealthHandler {
	return &HealthHandler{svc: svc}
}

// Health handles GET /health. The server only listens once the engine is built, so any
// response means recommendations can be served.
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"movies": h.svc.Stats().Movies,
	})
}
