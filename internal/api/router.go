package api

import (
	"github.com/gin-gonic/gin"

	"github.com/timmy/cinematch/internal/api/handler"
	"github.com/timmy/cinematch/internal/api/middleware"
	"github.com/timmy/cinematch/internal/config"
	"github.com/timmy/cinematch/internal/service"
)

// SetupRouter configures the Gin router with all routes
func SetupRouter(svc *service.RecommendService, cfg *config.Config) *gin.Engine {
	switch cfg.Server.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(cfg.Server.CORS))

	healthHandler := handler.NewHealthHandler(svc)
	recommendHandler := handler.NewRecommendHandler(svc, cfg.Recommend.DefaultK, cfg.Recommend.MaxK)
	historyHandler := handler.NewHistoryHandler(svc)

	r.GET("/health", healthHandler.Health)

	// Form-compatible endpoint for the classic search page.
	r.POST("/recommend-form", recommendHandler.RecommendForm)

	v1 := r.Group("/api/v1")
	{
		v1.POST("/recommend", recommendHandler.Recommend)
		v1.GET("/recommend", recommendHandler.RecommendGet)

		v1.GET("/history", historyHandler.Recent)
		v1.GET("/stats", historyHandler.Stats)
	}

	return r
}
