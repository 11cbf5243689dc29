package http

import (
	"github.com/gin-gonic/gin"

	"github.com/mealtrack/backend/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware())
	router.Use(LoggerMiddleware())
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))
	router.Use(RateLimitMiddleware(cfg.RateLimit.PerIP))

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	v1.Use(UserIDMiddleware())
	{
		meals := v1.Group("/meals")
		{
			meals.POST("/estimate", handler.EstimateMeal)
			meals.GET("/similar", handler.SimilarMeals)
			meals.POST("", handler.LogMeal)
			meals.GET("", handler.ListMeals)
			meals.PATCH("/:id/portion", handler.UpdatePortion)
			meals.PATCH("/:id/quantity", handler.UpdateQuantity)
			meals.PUT("/:id/estimate", handler.ReEstimateMeal)
			meals.DELETE("/:id", handler.DeleteMeal)
		}

		totals := v1.Group("/totals")
		{
			totals.GET("/daily", handler.DailyTotals)
			totals.GET("/weekly", handler.WeeklyStatus)
		}

		settings := v1.Group("/settings")
		{
			settings.GET("", handler.GetSettings)
			settings.PUT("", handler.PutSettings)
			settings.GET("/expected", handler.ExpectedMacros)
		}
	}

	return router
}
