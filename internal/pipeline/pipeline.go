// Package pipeline runs one consolidation: read the payment report, enrich
// it, append the new rows, rebuild the report tables from the stored rows,
// render the workbook and upload it.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/logger"
)

// Deps are the collaborators of a consolidation run. Payments and Renderer
// are required; the others may be nil and degrade as documented on each
// step.
type Deps struct {
	Payments  PaymentRepository
	Budget    BudgetRepository
	Variance  VarianceRepository
	Storage   StorageService
	Areas     AreaSource
	Rates     RateResolver
	BCV       RateLookup
	Vendor    RateLookup
	Renderer  WorkbookRenderer
	ChunkSize int
	Now       func() time.Time
}

// NewConsolidationPipeline creates the standard pipeline for one payment
// report.
func NewConsolidationPipeline(deps Deps) *Pipeline {
	return NewPipeline(
		&StartRunStep{Now: deps.Now},
		&ReadReportStep{},
		&BuildLookupsStep{Areas: deps.Areas},
		&ResolveRateStep{Rates: deps.Rates},
		&EnrichStep{BCV: deps.BCV, Vendor: deps.Vendor},
		&UpsertStep{Payments: deps.Payments, ChunkSize: deps.ChunkSize},
		&LoadDetailStep{Payments: deps.Payments},
		&LoadBudgetStep{Budget: deps.Budget, Variance: deps.Variance},
		&AggregateStep{},
		&StoreVarianceStep{Variance: deps.Variance},
		&RenderStep{Renderer: deps.Renderer},
		&UploadStep{Storage: deps.Storage},
	)
}

// Consolidate validates in and runs the consolidation pipeline. The returned
// state is non-nil whenever validation passed, so callers can inspect how far
// a failed run got.
func Consolidate(ctx context.Context, deps Deps, in Input) (*PipelineState, error) {
	if deps.Payments == nil || deps.Renderer == nil {
		return nil, fmt.Errorf("Consolidate: payments repository and renderer are required")
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	country, _ := NormalizeCountry(in.Country)
	in.Country = country

	state := &PipelineState{Input: in, RunID: uuid.NewString()}
	ctx = logger.WithRun(ctx, state.RunID, country)
	log := logger.FromContext(ctx)
	log.Info().
		Str("archivo", in.ReportName).
		Int("bytes", len(in.Report)).
		Bool("reporte_absoluto", len(in.Absolute) > 0).
		Msg("Consolidation started")

	if err := NewConsolidationPipeline(deps).Execute(ctx, state); err != nil {
		log.Error().Err(err).Msg("Consolidation failed")
		return state, err
	}

	log.Info().
		Int("total_rows", state.Upsert.TotalRows).
		Int("rows_loaded", state.Upsert.RowsLoaded).
		Int("rows_duplicated", state.Upsert.RowsDuplicated).
		Str("url", state.URL).
		Msg("Consolidation complete")
	return state, nil
}

// Result is the outcome reported to API and CLI callers.
type Result struct {
	Success        bool      `json:"success"`
	Country        string    `json:"pais"`
	RunID          string    `json:"run_id"`
	TotalRows      int       `json:"total_rows"`
	RowsDuplicated int       `json:"rows_duplicated"`
	RowsLoaded     int       `json:"rows_loaded"`
	PrimaryRate    float64   `json:"tasa_utilizada"`
	DownloadURL    string    `json:"detalle_corregido_url"`
	FileName       string    `json:"file_name"`
	Timestamp      time.Time `json:"timestamp"`
	Message        string    `json:"message"`
}

// Result summarises a completed run.
func (s *PipelineState) Result() Result {
	return Result{
		Success:        true,
		Country:        strings.ToUpper(s.Input.Country),
		RunID:          s.RunID,
		TotalRows:      s.Upsert.TotalRows,
		RowsDuplicated: s.Upsert.RowsDuplicated,
		RowsLoaded:     s.Upsert.RowsLoaded,
		PrimaryRate:    s.PrimaryRate.Value,
		DownloadURL:    s.URL,
		FileName:       s.ObjectName,
		Timestamp:      s.RunAt,
		Message: fmt.Sprintf("Proceso completado: %d registros cargados, %d duplicados omitidos",
			s.Upsert.RowsLoaded, s.Upsert.RowsDuplicated),
	}
}
