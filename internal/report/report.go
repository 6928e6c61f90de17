package report

import (
	"context"
	"time"

	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/domain"
	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/fiscal"
	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/logger"
)

// Report is everything the consolidated workbook shows.
type Report struct {
	// Batch holds the enriched rows of the uploaded report.
	Batch []domain.EnrichedRecord
	// Detail holds every stored payment row.
	Detail   []domain.EnrichedRecord
	Paid     []Pivot
	Budget   BudgetPivot
	Variance []domain.VarianceRow
	Titles   Titles
}

// Input is what Build aggregates.
type Input struct {
	Calendar       fiscal.Calendar
	Batch          []domain.EnrichedRecord
	Detail         []domain.EnrichedRecord
	Budget         []domain.BudgetRow
	StoredVariance []domain.VarianceRow
	RunAt          time.Time
}

// Build computes the pivots, the budget table and the variance table. The
// reporting month is the month of the run's reference Friday.
func Build(ctx context.Context, in Input) Report {
	period := PeriodOf(in.Calendar)
	month := fiscal.FirstOfMonth(in.Calendar.Friday)

	paid := PaidByReceipt(in.Detail, period)
	variance := BuildVariance(ctx, VarianceInput{
		Month:    month,
		Stored:   in.StoredVariance,
		Budget:   in.Budget,
		Executed: ExecutionFromPivot(paid[1]),
		RunAt:    in.RunAt,
	})

	log := logger.FromContext(ctx)
	log.Info().
		Str("periodo", period.MonthName+" "+period.FiscalYear).
		Int("detalle", len(in.Detail)).
		Int("presupuesto", len(in.Budget)).
		Int("diferencia", len(variance)).
		Msg("Report aggregated")

	return Report{
		Batch:    in.Batch,
		Detail:   in.Detail,
		Paid:     paid,
		Budget:   BuildBudgetPivot(in.Budget),
		Variance: variance,
		Titles:   TitlesFor(month),
	}
}
