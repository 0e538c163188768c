package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/qbank-backend/internal/config"
	"github.com/stemsi/qbank-backend/internal/database"
	"github.com/stemsi/qbank-backend/internal/handler"
	"github.com/stemsi/qbank-backend/internal/logger"
	"github.com/stemsi/qbank-backend/internal/middleware"
	"github.com/stemsi/qbank-backend/internal/repository"
	"github.com/stemsi/qbank-backend/internal/router"
	"github.com/stemsi/qbank-backend/internal/service"
	"github.com/stemsi/qbank-backend/internal/validator"
	"github.com/stemsi/qbank-backend/internal/worker"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting QBank Backend")

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	errLog := logger.NewErrorLog(logger.ErrorLogConfig{
		Dir:              cfg.LogDir,
		File:             cfg.LogFile,
		MaxSize:          cfg.MaxLogSize,
		RotationInterval: cfg.LogRotationInterval,
		QueueSize:        cfg.LogQueueSize,
	}, log)

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to MongoDB ────────────────────────────────────────────
	mdb, err := database.NewMongoDatabase(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to MongoDB")
	}
	defer func() {
		disconnectCtx, disconnectCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer disconnectCancel()
		_ = mdb.Client().Disconnect(disconnectCtx)
	}()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	questionRepo := repository.NewQuestionRepository(mdb)
	userRepo := repository.NewUserRepository(pool)
	sessionRepo := repository.NewExamSessionRepository(pool)

	if err := questionRepo.EnsureIndexes(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to ensure question indexes")
	}

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg, service.NewRedisSessionStore(rdb))
	userService := service.NewUserService(userRepo, authService, log)
	questionService := service.NewQuestionService(questionRepo, errLog, log)
	sessionService := service.NewExamSessionService(sessionRepo)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:      handler.NewAuthHandler(authService, userService, errLog),
		Question:  handler.NewQuestionHandler(questionService, errLog),
		Session:   handler.NewExamSessionHandler(sessionService, errLog),
		LogStream: handler.NewLogStreamHandler(errLog, log, cfg.AllowedOrigins),
		System: handler.NewSystemHandler(map[string]handler.HealthCheck{
			"mongo":    func(ctx context.Context) error { return mdb.Client().Ping(ctx, readpref.Primary()) },
			"postgres": pool.Ping,
			"redis":    func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		}, log),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	archiveWorker := worker.NewLogArchiveWorker(errLog.Path(), cfg.LogMaxArchives, log)
	go archiveWorker.Start(workerCtx)

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(router.Deps{
		AuthService: authService,
		ErrorLog:    errLog,
		AuthLimiter: middleware.NewRateLimiter(workerCtx, cfg.AuthRateLimit, time.Minute),
		Log:         log,
	}, handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop background workers.
	workerCancel()

	// 3. Drain pending error log entries; this also ends log streams.
	if err := errLog.Flush(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("Error log flush incomplete")
	}
	errLog.Close()

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
