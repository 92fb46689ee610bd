package api

import (
	"github.com/gin-gonic/gin"
	"github.com/n-translator/api/internal/api/handler"
	"github.com/n-translator/api/internal/api/middleware"
	"github.com/n-translator/api/internal/service"
)

// SetupRouter configures the Gin router with all routes
func SetupRouter(
	translationService *service.TranslationService,
	mode string,
	cors middleware.CORSConfig,
) *gin.Engine {
	// Set Gin mode
	switch mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()

	// Add middleware
	r.Use(gin.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(cors))

	// Create handlers
	healthHandler := handler.NewHealthHandler()
	translationHandler := handler.NewTranslationHandler(translationService)

	// Health check
	r.GET("/health", healthHandler.Health)

	// API v1 routes
	v1 := r.Group("/v1")
	{
		v1.POST("/translations", translationHandler.Create)
		v1.GET("/translations", translationHandler.List)
		v1.GET("/translations/:id", translationHandler.Get)
	}

	return r
}
