package api

import (
	"html/template"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/vidgrab-go/api/handlers"
	"github.com/yourusername/vidgrab-go/api/middleware"
	"github.com/yourusername/vidgrab-go/internal/domain"
	"github.com/yourusername/vidgrab-go/pkg/logger"
	"github.com/yourusername/vidgrab-go/web"
)

// RouterDeps groups what the HTTP layer needs; History may be nil when disabled
type RouterDeps struct {
	Session     handlers.SessionService
	History     domain.HistoryRepository
	Bundler     handlers.Bundler
	EngineName  string
	DefaultDir  string
	BundleName  string
	LogsDir     string
	WSRate      float64
	Logger      *zap.Logger
	MultiLogger *logger.MultiLogger
}

// SetupRouter sets up the HTTP router
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(deps.Logger, deps.MultiLogger))
	router.Use(middleware.Recovery(deps.Logger, deps.MultiLogger))
	router.Use(middleware.CORS())

	// Health endpoints
	healthHandler := handlers.NewHealthHandler(deps.Session, deps.EngineName)
	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		sessionHandler := handlers.NewSessionHandler(deps.Session, deps.Bundler, deps.DefaultDir, deps.BundleName, deps.Logger)
		wsHandler := handlers.NewSessionWebSocketHandler(deps.Session, deps.WSRate, deps.Logger)
		session := v1.Group("/session")
		{
			session.GET("", sessionHandler.GetSession)
			session.POST("", sessionHandler.Submit)
			session.POST("/preview", sessionHandler.Preview)
			session.POST("/stop", sessionHandler.Stop)
			session.GET("/debug", sessionHandler.GetDebug)
			session.DELETE("/debug", sessionHandler.ClearDebug)
			session.GET("/bundle", sessionHandler.Bundle)
			session.GET("/ws", wsHandler.HandleWebSocket)
		}

		if deps.History != nil {
			historyHandler := handlers.NewHistoryHandler(deps.History, deps.Logger)
			history := v1.Group("/history")
			{
				history.GET("", historyHandler.ListBatches)
				history.GET("/stats", historyHandler.GetStats)
				history.GET("/:id", historyHandler.GetBatch)
			}
		}

		logHandler := handlers.NewLogHandler(deps.LogsDir)
		logs := v1.Group("/logs")
		{
			logs.GET("/categories", logHandler.GetCategories)
			logs.GET("/:category", logHandler.GetLogs)
			logs.GET("/:category/search", logHandler.SearchLogs)
			logs.GET("/:category/export", logHandler.ExportLogs)
		}
	}

	// Embedded single page UI
	router.SetHTMLTemplate(template.Must(template.ParseFS(web.GetTemplatesFS(), "*.html")))
	router.StaticFS("/static", http.FS(web.GetStaticFS()))

	router.GET("/", func(c *gin.Context) {
		c.HTML(http.StatusOK, "index.html", gin.H{
			"DefaultDir": deps.DefaultDir,
			"BundleName": deps.BundleName,
			"Engine":     deps.EngineName,
			"Version":    handlers.Version,
		})
	})

	router.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.Redirect(http.StatusFound, "/")
	})

	return router
}
