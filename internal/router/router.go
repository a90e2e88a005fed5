package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/pablogaravito/psm1-exam-simulator/internal/config"
	"github.com/pablogaravito/psm1-exam-simulator/internal/handler"
	"github.com/pablogaravito/psm1-exam-simulator/internal/middleware"
	"github.com/pablogaravito/psm1-exam-simulator/internal/response"
	"github.com/rs/zerolog"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Exam    *handler.ExamHandler
	Bank    *handler.BankHandler
	WS      *handler.WSHandler
	Monitor *handler.MonitorHandler
	System  *handler.SystemHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(handlers *Handlers, cfg *config.Config, log zerolog.Logger) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Request ID first so the request log and every envelope share it.
	router.Use(response.RequestIDMiddleware())
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.Brotli())

	// Optional browser front-end, cached for a day.
	if cfg.StaticDir != "" {
		static := router.Group("/app")
		static.Use(middleware.CacheControl(86400))
		{
			static.Static("/", cfg.StaticDir)
		}
	}

	router.GET("/health", handlers.System.Health)

	// Reloading reaches the bank source; 5 per minute per IP.
	reloadLimiter := middleware.NewRateLimiter(5, time.Minute)

	// ─── 1. Question bank ──────────────────────────────────────────────
	bankAPI := router.Group("/api/v1/bank")
	bankAPI.Use(middleware.NoStore())
	{
		bankAPI.GET("", handlers.Bank.GetSummary)
		bankAPI.POST("/reload", reloadLimiter.Middleware(), handlers.Bank.Reload)
	}

	// ─── 2. Exam attempt ───────────────────────────────────────────────
	examAPI := router.Group("/api/v1/exam")
	examAPI.Use(middleware.NoStore())
	{
		examAPI.POST("/start", handlers.Exam.StartExam)
		examAPI.GET("/state", handlers.Exam.GetState)
		examAPI.POST("/questions/:index/options/:option", handlers.Exam.SelectOption)
		examAPI.POST("/questions/:index/flag", handlers.Exam.ToggleFlag)
		examAPI.POST("/navigate", handlers.Exam.Navigate)
		examAPI.POST("/submit", handlers.Exam.Submit)
		examAPI.GET("/results", handlers.Exam.GetResults)
		examAPI.POST("/review", handlers.Exam.Review)
		examAPI.POST("/restart", handlers.Exam.Restart)
		examAPI.GET("/events", handlers.Monitor.ExamEventsSSE)
	}

	// ─── 3. WebSocket ──────────────────────────────────────────────────
	ws := router.Group("/ws/v1")
	{
		ws.GET("/exam/stream", handlers.WS.ExamStream)
	}

	return router
}
