// Package enrich computes the derived columns of a payment row: dollar
// amount, CAPEX/OPEX split, bolivar conversions, payment calendar, invoice
// data and area.
package enrich

import (
	"context"
	"fmt"

	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/domain"
	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/fiscal"
	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/identity"
	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/logger"
	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/lookup"
)

// RateLookup returns the rate published for a date, or 0.
type RateLookup interface {
	RateFor(ctx context.Context, date string) float64
}

// Options configures an Enricher for one run.
type Options struct {
	LocalCurrency string
	PrimaryRate   float64
	Calendar      fiscal.Calendar
	Areas         *lookup.AreaLookup
	Invoices      *lookup.InvoiceLookup
	BCV           RateLookup
	Vendor        RateLookup
}

// Enricher applies the row rules with run-wide inputs fixed at construction.
type Enricher struct {
	opts Options
}

// New creates an Enricher. Missing lookups behave as empty tables.
func New(opts Options) *Enricher {
	if opts.LocalCurrency == "" {
		opts.LocalCurrency = domain.CurrencyVES
	}
	if opts.Areas == nil {
		opts.Areas = lookup.NewAreaLookup(nil)
	}
	if opts.Invoices == nil {
		opts.Invoices = lookup.EmptyInvoiceLookup()
	}
	return &Enricher{opts: opts}
}

// Enrich computes every derived field of rec.
func (e *Enricher) Enrich(ctx context.Context, rec domain.PaymentRecord) domain.EnrichedRecord {
	AdjustCapexByPriority(&rec)

	out := domain.EnrichedRecord{PaymentRecord: rec}
	out.USDAmount = e.usd(rec)

	split := SplitAmounts(out.USDAmount, rec.CapexExt, rec.CapexOrd, rec.CapexAdmin)
	out.CapexPayable = split.Capex
	out.OpexPayable = split.Opex
	out.Category = split.Category
	out.Validation = split.Validation
	out.CapexType = split.CapexType
	out.OrdinaryAmount = split.Ordinary
	out.ExtraAmount = split.Extra

	out.PaymentCurrency = PaymentCurrency(rec.Priority)
	out.PaymentMethod = PaymentMethod(rec.Priority)
	out.PaymentWeekday = PaymentWeekday(rec.Priority)

	if rec.PaymentDate != "" {
		if e.opts.Vendor != nil {
			out.VendorRate = e.opts.Vendor.RateFor(ctx, rec.PaymentDate)
		}
		if e.opts.BCV != nil {
			out.ReferenceRate = e.opts.BCV.RateFor(ctx, rec.PaymentDate)
		}
	}
	conv := Convert(out.CapexPayable, out.PaymentCurrency, out.ReferenceRate, out.VendorRate)
	out.ConversionVES = conv.VES
	out.ConversionVendor = conv.Vendor
	out.RealConverted = conv.Real
	out.RealMonthConverted = conv.RealMonth

	out.Week = e.opts.Calendar.Week()
	out.MonthName = e.opts.Calendar.MonthName()
	out.FiscalYear = e.opts.Calendar.FiscalYear()

	out.Invoice = e.opts.Invoices.Lookup(rec.InvoiceNumber)
	out.Area = e.opts.Areas.Resolve(rec.Requester, out.Invoice.Project)

	out.ID = identity.PaymentID(rec.InvoiceNumber, rec.Supplier)
	return out
}

func (e *Enricher) usd(rec domain.PaymentRecord) float64 {
	if rec.Currency != e.opts.LocalCurrency {
		return rec.Amount
	}
	if e.opts.PrimaryRate == 0 {
		return 0
	}
	return rec.Amount / e.opts.PrimaryRate
}

// EnrichAll enriches every record. A row that fails is logged with its index
// and kept with safe defaults so one bad row never sinks the batch.
func (e *Enricher) EnrichAll(ctx context.Context, records []domain.PaymentRecord) []domain.EnrichedRecord {
	log := logger.FromContext(ctx)
	out := make([]domain.EnrichedRecord, len(records))
	failed := 0

	for i, rec := range records {
		enriched, err := e.safeEnrich(ctx, rec)
		if err != nil {
			failed++
			log.Error().Err(err).Int("row", i).Str("factura", rec.InvoiceNumber).Msg("Row enrichment failed, using defaults")
			enriched = e.defaults(rec)
		}
		out[i] = enriched
	}

	log.Info().Int("rows", len(records)).Int("failed", failed).Msg("Rows enriched")
	return out
}

func (e *Enricher) safeEnrich(ctx context.Context, rec domain.PaymentRecord) (out domain.EnrichedRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return e.Enrich(ctx, rec), nil
}

func (e *Enricher) defaults(rec domain.PaymentRecord) domain.EnrichedRecord {
	return domain.EnrichedRecord{
		PaymentRecord:   rec,
		ID:              identity.PaymentID(rec.InvoiceNumber, rec.Supplier),
		Category:        domain.CategoryOPEX,
		CapexType:       domain.CapexNotApplicable,
		PaymentCurrency: domain.PaymentCurrencyNone,
		PaymentMethod:   domain.CurrencyUSD,
		PaymentWeekday:  Friday,
		Week:            e.opts.Calendar.Week(),
		MonthName:       e.opts.Calendar.MonthName(),
		FiscalYear:      e.opts.Calendar.FiscalYear(),
		Invoice: domain.InvoiceInfo{
			Store:       domain.InvoiceNotFound,
			CostCenter:  domain.InvoiceNotFound,
			Project:     domain.InvoiceNotFound,
			ReceiptDate: domain.InvoiceNotFound,
			Description: domain.InvoiceNotFound,
		},
		Area: domain.AreaNotFound,
	}
}
