package pipeline

import (
	"context"
	"io"

	"cloud.google.com/go/civil"

	bq "github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/bigquery"
	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/enrich"
	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/lookup"
	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/rates"
	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/report"
)

// Repository aliases so callers only need this package to wire a run.
type (
	PaymentRepository  = bq.PaymentRepository
	BudgetRepository   = bq.BudgetRepository
	VarianceRepository = bq.VarianceRepository
)

// StorageService uploads the rendered workbook.
type StorageService interface {
	UploadWorkbook(ctx context.Context, objectName string, data []byte) (string, error)
}

// AreaSource provides the requester-to-area pairs.
type AreaSource interface {
	Load(ctx context.Context) ([]lookup.AreaPair, error)
}

// RateResolver picks the primary rate of a run.
type RateResolver interface {
	PrimaryRate(ctx context.Context, currency string, today civil.Date) (rates.Rate, error)
}

// WorkbookRenderer writes the consolidated workbook.
type WorkbookRenderer interface {
	Render(ctx context.Context, w io.Writer, rep report.Report) error
}

// RateLookup is the per-date rate table used during enrichment.
type RateLookup = enrich.RateLookup
