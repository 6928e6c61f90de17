package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/api"
	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/api/handlers"
	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/app"
	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/config"
	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/jobs"
	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/jobs/inmemory"
	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/logger"
)

func main() {
	local := flag.Bool("local", false, "Use the local SQLite store even when BigQuery is configured")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		boot := logger.New()
		boot.Fatal().Err(err).Msg("Failed to load configuration")
	}
	log := logger.NewWithOptions(cfg.Log.Level, cfg.Log.Format)

	ctx := logger.WithContext(context.Background(), log)

	application, err := app.New(ctx, cfg, app.Options{Local: *local})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialise services")
	}
	defer application.Close()

	// Initialize job infrastructure
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(100, cfg.HTTP.Workers, jobStore)

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	log.Info().Int("workers", cfg.HTTP.Workers).Msg("Starting job workers")
	if err := jobQueue.Start(workerCtx, jobs.ConsolidationHandler(application.Deps)); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job workers")
	}

	router := api.NewRouter(
		handlers.NewConsolidationHandler(application.Deps, cfg.HTTP.MaxUploadMB, log),
		handlers.NewJobsHandler(jobQueue, jobStore, cfg.HTTP.MaxUploadMB, log),
		handlers.NewTableInfoHandler(application.Inspector, log),
		log,
	)

	server := &http.Server{
		Addr:         ":" + cfg.HTTP.Port,
		Handler:      router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.HTTP.Port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Stop job queue and wait for in-flight consolidations
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}
	cancelWorker()

	if err := jobQueue.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close job queue")
	}

	log.Info().Msg("Server exited")
}
