package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prepline/examroom/internal/config"
	"github.com/prepline/examroom/internal/database"
	"github.com/prepline/examroom/internal/handler"
	"github.com/prepline/examroom/internal/logger"
	"github.com/prepline/examroom/internal/repository"
	"github.com/prepline/examroom/internal/router"
	"github.com/prepline/examroom/internal/service"
	"github.com/prepline/examroom/internal/session"
	"github.com/prepline/examroom/internal/validator"
	"github.com/prepline/examroom/internal/worker"
	"github.com/rs/zerolog"
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
		Msg("Starting Examroom Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

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
	sectionRepo := repository.NewSectionRepository(pool)
	submissionRepo := repository.NewSubmissionRepository(pool)

	// ─── Initialize Services ──────────────────────────────────────────
	ticketService := service.NewTicketService(cfg)
	sectionService := service.NewSectionService(cfg, sectionRepo, rdb, log)

	// Question source and submission sink are swappable per deployment:
	// local question bank + persistence queue, or upstream proxy with
	// server-side grading.
	var source session.QuestionSource = sectionService
	if cfg.QuestionSourceMode == "upstream" {
		source = service.NewUpstreamSource(cfg, log)
	}
	var sink session.SubmissionSink = service.NewQueueSink(rdb, log)
	if cfg.SubmissionMode == "upstream" {
		sink = service.NewUpstreamSink(cfg, log)
	}

	sessionService := service.NewSessionService(cfg, source, sink, rdb, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Session:    handler.NewSessionHandler(sessionService, ticketService),
		Annotation: handler.NewAnnotationHandler(sessionService),
		Section:    handler.NewSectionHandler(sectionService),
		WS:         handler.NewWSHandler(sessionService, log, cfg.AllowedOrigins),
		System:     handler.NewSystemHandler(sessionService, rdb, log),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	submissionWorker := worker.NewSubmissionWorker(submissionRepo, rdb, log)
	go submissionWorker.Start(workerCtx)

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(ticketService, handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
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

	// 2. Close live sessions, caching finished reports.
	sessionService.Shutdown(shutdownCtx)

	// 3. Stop the background worker and wait for the queue to drain.
	workerCancel()
	time.Sleep(2 * time.Second) // Allow the worker to drain.

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
