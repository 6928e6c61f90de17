// Package app wires the consolidation pipeline from configuration: the
// BigQuery warehouse when it is configured, the local SQLite store
// otherwise, plus rate services, the area sheet and the output bucket.
package app

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/bigquery"
	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/config"
	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/gcsuploader"
	infrabq "github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/infra/bigquery"
	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/infra/sqlite"
	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/logger"
	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/pipeline"
	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/rates"
	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/sheets"
	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/workbook"
)

// DefaultSQLitePath is used for local runs when SQLITE_PATH is unset.
const DefaultSQLitePath = "consolidado.db"

// Options adjusts the wiring for a particular entry point.
type Options struct {
	// Local forces the SQLite store even when BigQuery is configured.
	Local bool
	// SkipUpload leaves the workbook out of the bucket.
	SkipUpload bool
	// SkipAreas skips the area sheet, so every area resolves to
	// SIN_GOOGLE_SHEET.
	SkipAreas bool
}

// App holds the wired dependencies and the clients that must be closed.
type App struct {
	Config *config.Config
	Deps   pipeline.Deps

	// Inspector is nil on the local store.
	Inspector bigquery.TableInspector
	// Storage is nil when no bucket is configured.
	Storage *gcsuploader.GCSStorageService
	// Local is set when the SQLite store backs the run.
	Local     *sqlite.Store
	LocalPath string
	// BCVTable is the reference rate table used for per-date lookups.
	BCVTable *rates.Table

	closers []func() error
}

// New wires an App from cfg.
func New(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	log := logger.FromContext(ctx)
	a := &App{Config: cfg}

	hc := &http.Client{Timeout: cfg.Rates.Timeout}
	a.Deps = pipeline.Deps{
		Rates:     rates.NewResolver(rates.NewBCVClient(cfg.Rates.BCVURL, hc), rates.NewTRMClient(cfg.Rates.TRMURL, hc)),
		Vendor:    rates.NewTable("tc_ftd", rates.NewVendorClient(cfg.Rates.VendorEndpoint, hc)),
		Renderer:  workbook.NewRenderer(),
		ChunkSize: cfg.BigQuery.BatchSize,
	}

	if err := a.wireStore(ctx, cfg, opts); err != nil {
		a.Close()
		return nil, err
	}

	if !opts.SkipAreas && cfg.Areas.SheetID != "" {
		reader, err := sheets.NewAPIReader(ctx, cfg.GCP.CredentialsFile)
		if err != nil {
			log.Warn().Err(err).Msg("Sheets client unavailable, areas resolve without the sheet")
		} else {
			a.Deps.Areas = sheets.NewAreaSource(reader, cfg.Areas.SheetID, cfg.Areas.SheetName)
		}
	}

	if cfg.Storage.Bucket != "" {
		svc, err := gcsuploader.NewGCSStorageService(ctx, cfg.Storage.Bucket, cfg.GCP.CredentialsFile, cfg.Storage.MakePublic)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("app.New: storage client: %w", err)
		}
		a.Storage = svc
		a.closers = append(a.closers, svc.Close)
		if !opts.SkipUpload {
			a.Deps.Storage = svc
		}
	} else if !opts.SkipUpload {
		log.Warn().Msg("No GCS bucket configured, workbooks will not be uploaded")
	}

	return a, nil
}

func (a *App) wireStore(ctx context.Context, cfg *config.Config, opts Options) error {
	log := logger.FromContext(ctx)

	if !opts.Local && cfg.ValidateWarehouse() == nil {
		client, err := infrabq.NewClient(ctx, cfg.GCP.ProjectID, cfg.GCP.CredentialsFile)
		if err != nil {
			return fmt.Errorf("app.New: %w", err)
		}
		a.closers = append(a.closers, client.Close)

		payments := infrabq.NewBigQueryPaymentRepository(client, cfg.BigQuery.Dataset, cfg.BigQuery.PaymentTable, cfg.BigQuery.BatchSize)
		a.Deps.Payments = payments
		a.Inspector = payments
		if cfg.BigQuery.BudgetTable != "" {
			a.Deps.Budget = infrabq.NewBigQueryBudgetRepository(client, cfg.BigQuery.Dataset, cfg.BigQuery.BudgetTable)
		}
		if cfg.BigQuery.VarianceTable != "" {
			a.Deps.Variance = infrabq.NewBigQueryVarianceRepository(client, cfg.BigQuery.Dataset, cfg.BigQuery.VarianceTable)
		}
		a.BCVTable = rates.NewTable("bcv", infrabq.NewBCVRateSource(client, cfg.BigQuery.RatesDataset, cfg.BigQuery.RatesTable, cfg.BigQuery.RatesLoadTimeout))
		a.Deps.BCV = a.BCVTable

		log.Info().
			Str("project", cfg.GCP.ProjectID).
			Str("dataset", cfg.BigQuery.Dataset).
			Str("table", cfg.BigQuery.PaymentTable).
			Msg("Using BigQuery warehouse")
		return nil
	}

	path := cfg.SQLite.Path
	if path == "" {
		path = DefaultSQLitePath
	}
	store, err := sqlite.Open(path)
	if err != nil {
		return fmt.Errorf("app.New: %w", err)
	}
	a.closers = append(a.closers, store.Close)
	a.Local = store
	a.LocalPath = path
	a.Deps.Payments = store
	a.Deps.Budget = store
	a.Deps.Variance = store
	a.BCVTable = rates.NewStaticTable("bcv", nil)
	a.Deps.BCV = a.BCVTable

	log.Info().Str("path", path).Msg("Using local SQLite store, reference rates unavailable")
	return nil
}

// Fetch returns the bytes of a local path or a gs:// object.
func (a *App) Fetch(ctx context.Context, uri string, readFile func(string) ([]byte, error)) ([]byte, error) {
	if !strings.HasPrefix(uri, "gs://") {
		return readFile(uri)
	}
	if a.Storage == nil {
		svc, err := gcsuploader.NewGCSStorageService(ctx, "", a.Config.GCP.CredentialsFile, false)
		if err != nil {
			return nil, fmt.Errorf("Fetch: storage client: %w", err)
		}
		a.Storage = svc
		a.closers = append(a.closers, svc.Close)
	}
	return a.Storage.FetchFromGCS(ctx, uri)
}

// Close releases every client in reverse creation order.
func (a *App) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}
