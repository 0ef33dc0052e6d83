package main

import (
	"github.com/genrelay/api/internal/handlers"
	"github.com/genrelay/api/internal/metrics"
	"github.com/genrelay/api/internal/middleware"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

type routerDeps struct {
	logger         *zap.Logger
	metrics        *metrics.Metrics
	generation     *handlers.GenerationHandler
	health         *handlers.HealthHandler
	allowedOrigins []string
	bodyLimit      int64
	circuitBreaker *middleware.CircuitBreaker // nil disables
	enableDocs     bool
}

func newRouter(d routerDeps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(d.logger))
	router.Use(middleware.Metrics(d.metrics))
	router.Use(middleware.CORS(d.allowedOrigins))

	// Swagger documentation
	if d.enableDocs {
		router.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	router.GET("/health", d.health.Health)
	router.GET("/health/deep", d.health.DeepHealth)
	router.GET("/metrics", gin.WrapH(d.metrics.Handler()))

	api := router.Group("/api")
	api.Use(middleware.BodyLimit(d.bodyLimit))
	if d.circuitBreaker != nil {
		api.Use(middleware.CircuitBreakerMiddleware(d.circuitBreaker))
	}
	{
		api.POST("/generateContent", d.generation.GenerateContent)
		api.POST("/generateImage", d.generation.GenerateImage)
	}

	return router
}
