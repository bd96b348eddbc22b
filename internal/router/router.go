package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/prepline/examroom/internal/config"
	"github.com/prepline/examroom/internal/handler"
	"github.com/prepline/examroom/internal/middleware"
	"github.com/prepline/examroom/internal/response"
	"github.com/prepline/examroom/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Session    *handler.SessionHandler
	Annotation *handler.AnnotationHandler
	Section    *handler.SectionHandler
	WS         *handler.WSHandler
	System     *handler.SystemHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	ticketService *service.TicketService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Apply brotli middleware globally. Rendered question HTML and reports
	// compress well.
	router.Use(middleware.Brotli())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for session creation (30 requests per minute per IP).
	createLimiter := middleware.NewRateLimiter(30, time.Minute)

	// ─── 1. Section Group (Public) ─────────────────────────────────────
	sections := router.Group("/api/v1/sections")
	{
		sections.GET("", middleware.CacheControl(60), handlers.Section.ListSections)
		sections.PUT("/:section_id", handlers.Section.ImportSection)
	}

	// ─── 2. Session Creation (Rate Limited) ────────────────────────────
	router.POST("/api/v1/sessions", createLimiter.Middleware(), handlers.Session.CreateSession)

	// ─── 3. Session Group (Ticket Auth) ────────────────────────────────
	sessionAPI := router.Group("/api/v1/sessions/:session_id")
	sessionAPI.Use(middleware.RequireTicket(ticketService))
	{
		sessionAPI.GET("", handlers.Session.GetState)
		sessionAPI.DELETE("", handlers.Session.CloseSession)

		sessionAPI.POST("/time-mode", handlers.Session.SelectTimeMode)
		sessionAPI.POST("/briefing/ack", handlers.Session.AcknowledgeBriefing)
		sessionAPI.POST("/retry", handlers.Session.RetryLoad)

		sessionAPI.GET("/question", handlers.Session.GetCurrentQuestion)
		sessionAPI.PUT("/answer", handlers.Session.SetAnswer)
		sessionAPI.POST("/mark", handlers.Session.ToggleReviewMark)
		sessionAPI.POST("/navigate", handlers.Session.Navigate)
		sessionAPI.POST("/next", handlers.Session.NavigateNext)
		sessionAPI.POST("/previous", handlers.Session.NavigatePrevious)

		sessionAPI.POST("/end", handlers.Session.RequestEnd)
		sessionAPI.POST("/end/cancel", handlers.Session.CancelEnd)
		sessionAPI.POST("/end/confirm", handlers.Session.ConfirmEnd)
		sessionAPI.GET("/report", handlers.Session.GetReport)

		// Annotations
		sessionAPI.PUT("/selection", handlers.Annotation.CaptureSelection)
		sessionAPI.POST("/highlights", handlers.Annotation.AddHighlight)
		sessionAPI.DELETE("/highlights", handlers.Annotation.RemoveHighlight)
		sessionAPI.POST("/notes", handlers.Annotation.SaveNote)
		sessionAPI.POST("/notes/:note_id/toggle", handlers.Annotation.ToggleNote)
		sessionAPI.DELETE("/notes/:note_id", handlers.Annotation.DeleteNote)
	}

	// ─── 4. WebSocket Group (Ticket WS Auth) ───────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireTicketWS(ticketService))
	{
		ws.GET("/sessions/:session_id/stream", handlers.WS.SessionStream)
	}

	// ─── 5. System Monitoring ──────────────────────────────────────────
	router.GET("/api/v1/system/metrics", handlers.System.SystemMetricsSSE)

	return router
}
