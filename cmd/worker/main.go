package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/app"
	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/config"
	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/jobs"
	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/jobs/inmemory"
	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/logger"
	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/pipeline"
)

// The worker consolidates a batch of payment reports (local paths or gs://
// URIs) through the job queue and exits once every job has settled.
func main() {
	country := flag.String("pais", pipeline.DefaultCountry, "Country to process")
	local := flag.Bool("local", false, "Use the local SQLite store even when BigQuery is configured")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		boot := logger.New()
		boot.Fatal().Err(err).Msg("Failed to load configuration")
	}
	log := logger.NewWithOptions(cfg.Log.Level, cfg.Log.Format)

	if flag.NArg() == 0 {
		log.Fatal().Msg("Usage: worker [-pais venezuela] [-local] REPORT...")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	a, err := app.New(ctx, cfg, app.Options{Local: *local})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialise services")
	}
	defer a.Close()

	jobStore := inmemory.NewStore()
	// Runs share the payment table, so they go one at a time.
	jobQueue := inmemory.NewQueue(flag.NArg(), 1, jobStore)

	log.Info().Int("reports", flag.NArg()).Msg("Starting worker")
	if err := jobQueue.Start(ctx, jobs.ConsolidationHandler(a.Deps)); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job consumer")
	}

	var ids []string
	for _, uri := range flag.Args() {
		report, err := a.Fetch(ctx, uri, os.ReadFile)
		if err != nil {
			log.Error().Err(err).Str("file", uri).Msg("Skipping unreadable report")
			continue
		}
		job := &jobs.ConsolidationJob{
			Country:  *country,
			FileName: filepath.Base(uri),
			Report:   report,
		}
		if err := jobQueue.PublishConsolidation(ctx, job); err != nil {
			log.Fatal().Err(err).Str("file", uri).Msg("Failed to enqueue report")
		}
		ids = append(ids, job.JobID)
	}

	failed := waitForJobs(ctx, jobStore, ids)

	shutdownCtx, stop := context.WithTimeout(context.Background(), 30*time.Second)
	defer stop()
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}
	jobQueue.Close()

	summaries, err := jobStore.ListJobs(context.Background(), jobs.JobFilter{})
	if err == nil {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.Encode(summaries)
	}

	if failed > 0 {
		log.Error().Int("failed", failed).Msg("Worker finished with failures")
		os.Exit(1)
	}
	log.Info().Msg("Worker finished")
}

// waitForJobs polls the store until every job is completed or failed, or ctx
// ends. It returns how many jobs did not complete.
func waitForJobs(ctx context.Context, store jobs.JobStore, ids []string) int {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		settled, failed := 0, 0
		for _, id := range ids {
			job, err := store.GetJob(ctx, id)
			if err != nil {
				continue
			}
			switch job.Status {
			case jobs.JobStatusCompleted:
				settled++
			case jobs.JobStatusFailed:
				settled++
				failed++
			}
		}
		if settled == len(ids) {
			return failed
		}

		select {
		case <-ctx.Done():
			fmt.Fprintln(os.Stderr, "interrupted:", ctx.Err())
			return len(ids) - settled + failed
		case <-ticker.C:
		}
	}
}
