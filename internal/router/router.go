package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/qbank-backend/internal/config"
	"github.com/stemsi/qbank-backend/internal/handler"
	"github.com/stemsi/qbank-backend/internal/middleware"
	"github.com/stemsi/qbank-backend/internal/response"
	"github.com/stemsi/qbank-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth      *handler.AuthHandler
	Question  *handler.QuestionHandler
	Session   *handler.ExamSessionHandler
	LogStream *handler.LogStreamHandler
	System    *handler.SystemHandler
}

// Deps carries the non-handler collaborators the router wires into middleware.
type Deps struct {
	AuthService *service.AuthService
	ErrorLog    middleware.APIErrorLogger
	AuthLimiter *middleware.RateLimiter
	Log         zerolog.Logger
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(deps Deps, handlers *Handlers, cfg *config.Config) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.HandleMethodNotAllowed = true

	router.Use(gin.Logger())
	// Request IDs first so recovered panics can be correlated.
	router.Use(response.RequestIDMiddleware())
	router.Use(middleware.Recovery(deps.ErrorLog, deps.Log))

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
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(middleware.Brotli())

	router.NoMethod(func(c *gin.Context) {
		response.Fail(c, http.StatusMethodNotAllowed, response.ErrMethodNotAllowed)
	})
	router.NoRoute(func(c *gin.Context) {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	})

	router.GET("/health", handlers.System.Health)

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	auth := router.Group("/api/auth")
	if deps.AuthLimiter != nil {
		auth.Use(deps.AuthLimiter.Middleware())
	}
	{
		auth.POST("/register", handlers.Auth.Register)
		auth.POST("/login", handlers.Auth.Login)

		authed := []gin.HandlerFunc{middleware.RequireJWT(deps.AuthService), middleware.CheckSession(deps.AuthService)}
		auth.POST("/logout", append(authed, handlers.Auth.Logout)...)
		auth.GET("/me", append(authed, handlers.Auth.Me)...)
	}

	// ─── 2. Question Group (Public) ────────────────────────────────────
	questions := router.Group("/api/questions")
	{
		questions.GET("/kinds", handlers.Question.ListKinds)
		questions.POST("/category/:kind", handlers.Question.CreateQuestion)
		questions.GET("/:kind/random", middleware.NoStore(), handlers.Question.RandomQuestion)
	}

	// ─── 3. Session Group (JWT) ────────────────────────────────────────
	sessions := router.Group("/api/sessions")
	sessions.Use(
		middleware.RequireJWT(deps.AuthService),
		middleware.CheckSession(deps.AuthService),
	)
	{
		sessions.POST("", handlers.Session.StartSession)
		sessions.GET("", handlers.Session.ListSessions)
	}

	// ─── 4. WebSocket Group (WS Auth) ──────────────────────────────────
	ws := router.Group("/ws")
	ws.Use(
		middleware.RequireWSAuth(deps.AuthService),
		middleware.CheckSession(deps.AuthService),
	)
	{
		ws.GET("/logs", handlers.LogStream.StreamLogs)
	}

	return router
}
