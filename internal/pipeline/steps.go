package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"

	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/columns"
	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/dedup"
	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/domain"
	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/enrich"
	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/fiscal"
	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/gcs"
	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/logger"
	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/lookup"
	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/rates"
	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/report"
	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/workbook"
)

// PipelineStep represents a single step in the consolidation pipeline.
type PipelineStep interface {
	Execute(ctx context.Context, state *PipelineState) error
}

// Input is one consolidation request.
type Input struct {
	// Report is the payment report workbook.
	Report     []byte
	ReportName string
	// Absolute is the optional absolute report workbook.
	Absolute []byte
	Country  string
}

// PipelineState holds the shared state across all pipeline steps. It is
// owned by a single run.
type PipelineState struct {
	Input    Input
	RunID    string
	RunAt    time.Time
	Calendar fiscal.Calendar

	Table   columns.Table
	Records []domain.PaymentRecord

	Areas       *lookup.AreaLookup
	Invoices    *lookup.InvoiceLookup
	PrimaryRate rates.Rate

	Enriched []domain.EnrichedRecord
	Upsert   dedup.Result
	Detail   []domain.EnrichedRecord

	Budget         []domain.BudgetRow
	StoredVariance []domain.VarianceRow
	Report         report.Report
	VarianceStored int

	Workbook   []byte
	ObjectName string
	URL        string
}

// Step 1: StartRunStep stamps the run and fixes its calendar.
type StartRunStep struct {
	Now func() time.Time
}

func (s *StartRunStep) Execute(ctx context.Context, state *PipelineState) error {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	if state.RunID == "" {
		state.RunID = uuid.NewString()
	}
	state.RunAt = now()
	state.Calendar = fiscal.NewCalendar(civil.DateOf(state.RunAt))

	log := logger.FromContext(ctx)
	log.Info().
		Str("today", state.Calendar.Today.String()).
		Str("friday", state.Calendar.Friday.String()).
		Int("semana", state.Calendar.Week()).
		Str("mes", state.Calendar.MonthName()).
		Str("anio_fiscal", state.Calendar.FiscalYear()).
		Msg("Run calendar fixed")
	return nil
}

// Step 2: ReadReportStep reads the payment report and maps its columns.
type ReadReportStep struct{}

func (s *ReadReportStep) Execute(ctx context.Context, state *PipelineState) error {
	table, err := workbook.ReadPaymentReport(ctx, bytes.NewReader(state.Input.Report))
	if err != nil {
		return fmt.Errorf("ReadReportStep: %w", err)
	}
	mapping, err := columns.ResolveInput(table.Header)
	if err != nil {
		return fmt.Errorf("ReadReportStep: %w", err)
	}
	state.Table = table
	state.Records = columns.ParseRecords(ctx, table, mapping)
	return nil
}

// Step 3: BuildLookupsStep loads the area table and indexes the absolute
// report. An unavailable area sheet leaves the lookup empty.
type BuildLookupsStep struct {
	Areas AreaSource
}

func (s *BuildLookupsStep) Execute(ctx context.Context, state *PipelineState) error {
	log := logger.FromContext(ctx)

	var pairs []lookup.AreaPair
	if s.Areas != nil {
		loaded, err := s.Areas.Load(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("Area sheet unavailable, areas resolve to " + domain.AreaNoSheet)
		} else {
			pairs = loaded
		}
	}
	state.Areas = lookup.NewAreaLookup(pairs)

	state.Invoices = lookup.EmptyInvoiceLookup()
	if len(state.Input.Absolute) > 0 {
		table, err := workbook.ReadAbsoluteReport(bytes.NewReader(state.Input.Absolute))
		if err != nil {
			return fmt.Errorf("BuildLookupsStep: absolute report: %w", err)
		}
		state.Invoices = lookup.BuildInvoiceLookup(ctx, table, state.Calendar.Today)
	}

	log.Info().
		Int("areas", state.Areas.Len()).
		Bool("reporte_absoluto", state.Invoices.Loaded()).
		Int("facturas", state.Invoices.Len()).
		Msg("Lookup tables built")
	return nil
}

// Step 4: ResolveRateStep resolves the primary VES rate once for the batch.
type ResolveRateStep struct {
	Rates RateResolver
}

func (s *ResolveRateStep) Execute(ctx context.Context, state *PipelineState) error {
	if s.Rates == nil {
		state.PrimaryRate = rates.Rate{
			Currency: domain.CurrencyVES,
			Value:    rates.FallbackVES,
			Date:     state.Calendar.Today,
			Origin:   rates.OriginFallback,
		}
		return nil
	}
	rate, err := s.Rates.PrimaryRate(ctx, domain.CurrencyVES, state.Calendar.Today)
	if err != nil {
		return fmt.Errorf("ResolveRateStep: %w", err)
	}
	state.PrimaryRate = rate
	return nil
}

// Step 5: EnrichStep computes the derived columns of every row.
type EnrichStep struct {
	BCV    RateLookup
	Vendor RateLookup
}

func (s *EnrichStep) Execute(ctx context.Context, state *PipelineState) error {
	e := enrich.New(enrich.Options{
		LocalCurrency: domain.CurrencyVES,
		PrimaryRate:   state.PrimaryRate.Value,
		Calendar:      state.Calendar,
		Areas:         state.Areas,
		Invoices:      state.Invoices,
		BCV:           s.BCV,
		Vendor:        s.Vendor,
	})
	state.Enriched = e.EnrichAll(ctx, state.Records)
	return nil
}

// Step 6: UpsertStep appends the rows not stored yet.
type UpsertStep struct {
	Payments  PaymentRepository
	ChunkSize int
}

func (s *UpsertStep) Execute(ctx context.Context, state *PipelineState) error {
	res, err := dedup.NewUpserter(s.Payments, s.ChunkSize).Upsert(ctx, state.Enriched)
	if err != nil {
		return fmt.Errorf("UpsertStep: %w", err)
	}
	state.Upsert = res
	return nil
}

// Step 7: LoadDetailStep reads back every stored payment row.
type LoadDetailStep struct {
	Payments PaymentRepository
}

func (s *LoadDetailStep) Execute(ctx context.Context, state *PipelineState) error {
	detail, err := s.Payments.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("LoadDetailStep: %w", err)
	}
	state.Detail = detail
	log := logger.FromContext(ctx)
	log.Info().Int("rows", len(detail)).Msg("Detail extracted")
	return nil
}

// Step 8: LoadBudgetStep reads the budget and the stored variance of the
// current fiscal year. Either source failing leaves its table empty.
type LoadBudgetStep struct {
	Budget   BudgetRepository
	Variance VarianceRepository
}

func (s *LoadBudgetStep) Execute(ctx context.Context, state *PipelineState) error {
	log := logger.FromContext(ctx)
	fy := state.Calendar.FiscalYear()

	if s.Budget != nil {
		rows, err := s.Budget.ListBudget(ctx, fy)
		if err != nil {
			log.Warn().Err(err).Str("anio_fiscal", fy).Msg("Budget unavailable")
		} else {
			state.Budget = rows
		}
	}
	if s.Variance != nil {
		rows, err := s.Variance.LatestVariance(ctx, fy)
		if err != nil {
			log.Warn().Err(err).Str("anio_fiscal", fy).Msg("Stored variance unavailable")
		} else {
			state.StoredVariance = rows
		}
	}
	return nil
}

// Step 9: AggregateStep builds the pivots and the variance table.
type AggregateStep struct{}

func (s *AggregateStep) Execute(ctx context.Context, state *PipelineState) error {
	state.Report = report.Build(ctx, report.Input{
		Calendar:       state.Calendar,
		Batch:          state.Enriched,
		Detail:         state.Detail,
		Budget:         state.Budget,
		StoredVariance: state.StoredVariance,
		RunAt:          state.RunAt,
	})
	return nil
}

// Step 10: StoreVarianceStep appends the variance rows not stored yet. A
// failed write is logged; the workbook is still produced.
type StoreVarianceStep struct {
	Variance VarianceRepository
}

func (s *StoreVarianceStep) Execute(ctx context.Context, state *PipelineState) error {
	if s.Variance == nil || len(state.Report.Variance) == 0 {
		return nil
	}
	n, err := s.Variance.AppendVariance(ctx, state.Report.Variance)
	if err != nil {
		log := logger.FromContext(ctx)
		log.Error().Err(err).Int("rows", len(state.Report.Variance)).Msg("Variance not stored")
		return nil
	}
	state.VarianceStored = n
	return nil
}

// Step 11: RenderStep writes the workbook into memory.
type RenderStep struct {
	Renderer WorkbookRenderer
}

func (s *RenderStep) Execute(ctx context.Context, state *PipelineState) error {
	var buf bytes.Buffer
	if err := s.Renderer.Render(ctx, &buf, state.Report); err != nil {
		return fmt.Errorf("RenderStep: %w", err)
	}
	state.Workbook = buf.Bytes()
	state.ObjectName = gcs.WorkbookObjectName(state.RunAt)
	return nil
}

// Step 12: UploadStep stores the workbook and records its download URL.
// Without a storage service the workbook stays in the state only.
type UploadStep struct {
	Storage StorageService
}

func (s *UploadStep) Execute(ctx context.Context, state *PipelineState) error {
	if s.Storage == nil {
		return nil
	}
	url, err := s.Storage.UploadWorkbook(ctx, state.ObjectName, state.Workbook)
	if err != nil {
		return fmt.Errorf("UploadStep: %w", err)
	}
	state.URL = url
	return nil
}

// Pipeline executes a sequence of steps in order.
type Pipeline struct {
	steps []PipelineStep
}

// NewPipeline creates a new pipeline with the given steps.
func NewPipeline(steps ...PipelineStep) *Pipeline {
	return &Pipeline{steps: steps}
}

// Execute runs all steps in the pipeline sequentially.
func (p *Pipeline) Execute(ctx context.Context, state *PipelineState) error {
	for i, step := range p.steps {
		if err := step.Execute(ctx, state); err != nil {
			return fmt.Errorf("pipeline step %d failed: %w", i+1, err)
		}
	}
	return nil
}
