package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pablogaravito/psm1-exam-simulator/internal/bootstrap"
	"github.com/pablogaravito/psm1-exam-simulator/internal/config"
	"github.com/pablogaravito/psm1-exam-simulator/internal/handler"
	"github.com/pablogaravito/psm1-exam-simulator/internal/logger"
	"github.com/pablogaravito/psm1-exam-simulator/internal/router"
	"github.com/pablogaravito/psm1-exam-simulator/internal/service"
	"github.com/pablogaravito/psm1-exam-simulator/internal/validator"
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
		Msg("Starting PSM I exam simulator")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Question Bank (source + cache) ────────────────────────────────
	bankService, closeBank, err := bootstrap.BankService(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to configure question bank")
	}
	defer closeBank()

	// ─── Prewarm Bank ──────────────────────────────────────────────────
	// Load before accepting traffic; a failure here is retried on the
	// first start request.
	if err := bankService.Prewarm(ctx); err != nil {
		log.Warn().Err(err).Msg("Bank prewarm failed")
	}

	// ─── Initialize Services ──────────────────────────────────────────
	examService := service.NewExamService(bankService, log,
		service.WithTickInterval(cfg.TickInterval),
	)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Exam:    handler.NewExamHandler(examService, log),
		Bank:    handler.NewBankHandler(bankService),
		WS:      handler.NewWSHandler(examService, log, cfg.AllowedOrigins),
		Monitor: handler.NewMonitorHandler(examService, log),
		System:  handler.NewSystemHandler(),
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(handlers, cfg, log)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop the exam timer and close event streams so sockets unwind.
	examService.Shutdown()

	// 2. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
