package api

import (
	"github.com/gin-gonic/gin"

	"github.com/timmy/soulsync/internal/api/handler"
	"github.com/timmy/soulsync/internal/api/middleware"
	"github.com/timmy/soulsync/internal/config"
	"github.com/timmy/soulsync/internal/logger"
	"github.com/timmy/soulsync/internal/service"
)

// RouterDeps groups what the router needs to build its handlers.
type RouterDeps struct {
	JobService *service.JobService
	DBPing     handler.Pinger
	Logger     *logger.Logger
}

// SetupRouter configures the Gin router with all routes
func SetupRouter(deps RouterDeps, cfg *config.ServerConfig) *gin.Engine {
	// Set Gin mode
	switch cfg.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	log := deps.Logger
	if log == nil {
		log = logger.GetDefault()
	}

	r := gin.New()

	// Add middleware
	r.Use(gin.Recovery())
	r.Use(middleware.LoggerMiddleware(log))
	r.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins:  cfg.CORS.AllowedOrigins,
		AllowAllOrigins: cfg.CORS.AllowAllOrigins,
	}))

	// Create handlers
	healthHandler := handler.NewHealthHandler(deps.DBPing)
	jobHandler := handler.NewJobHandler(deps.JobService)

	// Health check
	r.GET("/health", healthHandler.Health)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		v1.POST("/jobs", jobHandler.SubmitJob)
		v1.GET("/jobs/:id", jobHandler.GetJob)
		v1.GET("/jobs/:id/report", jobHandler.GetReport)
		v1.GET("/jobs/:id/quotes", jobHandler.ListQuotes)
	}

	return r
}
