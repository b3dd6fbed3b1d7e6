// Package routes provides HTTP route configuration for the presentation layer.
package routes

import (
	"net/http"

	"github.com/ForesightHQ/foresight-go/internal/application/container"
	"github.com/ForesightHQ/foresight-go/internal/presentation/http/handlers"
	"github.com/ForesightHQ/foresight-go/internal/presentation/http/middleware"
	"github.com/gin-gonic/gin"
)

// SetupRoutes configures all HTTP routes and middleware with dependency injection.
func SetupRoutes(container *container.Container) *gin.Engine {
	r := gin.Default()

	r.Use(middleware.CORSMiddleware())

	// Initialize handlers
	sessionHandlers := handlers.NewSessionHandlers(container.SessionService, container.Logger, container.PerfTracker)
	uploadHandlers := handlers.NewUploadHandlers(container.UploadService, container.Logger, container.PerfTracker)
	forecastHandlers := handlers.NewForecastHandlers(container.ForecastService, container.Logger, container.PerfTracker)
	processingHandlers := handlers.NewProcessingHandlers(container.ProcessingService, container.Logger, container.PerfTracker)
	comparisonHandlers := handlers.NewComparisonHandlers(container.ComparisonService, container.Logger)
	annotationHandlers := handlers.NewAnnotationHandlers(container.AnnotationService)
	shareHandlers := handlers.NewShareHandlers(container.ShareService, container.Logger)
	sseHandlers := handlers.NewSSEHandlers(container.SSEBroadcaster, container.Logger)
	opsHandlers := handlers.NewOpsHandlers(container)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Public share resolution; the token is the credential.
	r.GET("/api/v1/shared/:token", shareHandlers.GetShared)

	// Ops dashboard endpoints
	opsAPI := r.Group("/api/v1/ops")
	{
		opsAPI.GET("/auth", opsHandlers.AuthCheck)
		opsAPI.POST("/login", opsHandlers.Login)

		authed := opsAPI.Group("")
		authed.Use(middleware.OpsAuthMiddleware())
		{
			authed.GET("/snapshot", opsHandlers.GetSnapshot)
			authed.GET("/health", opsHandlers.GetHealth)
			authed.GET("/activity", opsHandlers.GetActivity)
			authed.GET("/dashboard", opsHandlers.Dashboard)
			authed.GET("/logs/levels", opsHandlers.GetLogLevels)
			authed.POST("/logs/levels", opsHandlers.SetLogLevel)
		}
	}

	// Session-scoped API; every route below resolves (or mints) a session.
	api := r.Group("/api/v1")
	api.Use(middleware.SessionMiddleware(container.SessionService))
	{
		session := api.Group("/session")
		{
			session.GET("/state", sessionHandlers.GetState)
			session.POST("/extend", sessionHandlers.PostExtend)
			session.POST("/duplicate", sessionHandlers.PostDuplicate)
			session.POST("/clear", sessionHandlers.PostClear)
			session.DELETE("", sessionHandlers.Delete)
			session.GET("/export", sessionHandlers.GetExport)
			session.POST("/import", sessionHandlers.PostImport)
		}

		data := api.Group("/data")
		{
			data.POST("/upload", uploadHandlers.PostUpload)
			data.GET("/mapping", uploadHandlers.GetMapping)
			data.POST("/mapping", uploadHandlers.PostMapping)
			data.POST("/clean", processingHandlers.PostClean)
			data.POST("/transform", processingHandlers.PostTransform)
			data.GET("/history", processingHandlers.GetHistory)
			data.POST("/revert", processingHandlers.PostRevert)
			data.DELETE("/history/:index", processingHandlers.DeleteStep)
		}

		forecast := api.Group("/forecast")
		{
			forecast.POST("/config", forecastHandlers.PostConfig)
			forecast.POST("/start", forecastHandlers.PostStart)
			forecast.POST("/cancel", forecastHandlers.PostCancel)
			forecast.POST("/retry", forecastHandlers.PostRetry)
			forecast.GET("/status", forecastHandlers.GetStatus)
		}

		models := api.Group("/models")
		{
			models.GET("", comparisonHandlers.GetModels)
			models.GET("/compare", comparisonHandlers.GetComparison)
			models.GET("/:id", comparisonHandlers.GetModel)
			models.PUT("/:id/label", comparisonHandlers.PutModelLabel)
			models.DELETE("/:id", comparisonHandlers.DeleteModel)
		}

		annotations := api.Group("/annotations")
		{
			annotations.GET("", annotationHandlers.GetAnnotations)
			annotations.POST("", annotationHandlers.PostAnnotation)
			annotations.PUT("/:id", annotationHandlers.PutAnnotation)
			annotations.DELETE("/:id", annotationHandlers.DeleteAnnotation)
		}

		share := api.Group("/share")
		{
			share.POST("/link", shareHandlers.PostShareLink)
			share.POST("/email", shareHandlers.PostShareEmail)
		}

		api.GET("/events", sseHandlers.GetStream)
	}

	return r
}
