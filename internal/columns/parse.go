package columns

import (
	"context"
	"math"
	"strconv"
	"strings"

	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/domain"
	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/fiscal"
	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/logger"
)

// KnownCurrencies are the currencies a Venezuela report may carry after VEF
// is folded into VES.
var KnownCurrencies = map[string]bool{
	domain.CurrencyVES: true,
	domain.CurrencyUSD: true,
	domain.CurrencyEUR: true,
}

// ParseRecords reads every non-blank data row of t into a PaymentRecord.
// VEF is rewritten as VES. Unknown currencies are logged and kept.
func ParseRecords(ctx context.Context, t Table, m InputMapping) []domain.PaymentRecord {
	log := logger.FromContext(ctx)

	records := make([]domain.PaymentRecord, 0, len(t.Rows))
	unknown := make(map[string]int)
	vef := 0

	for i := range t.Rows {
		if t.IsBlankRow(i) {
			continue
		}
		text := func(f Field) string { return t.Cell(i, m.Col(f)) }
		num := func(f Field) float64 { return ParseAmount(text(f)) }

		currency := strings.ToUpper(text(Currency))
		if currency == domain.CurrencyVEF {
			currency = domain.CurrencyVES
			vef++
		}
		if !KnownCurrencies[currency] {
			unknown[currency]++
		}

		records = append(records, domain.PaymentRecord{
			InvoiceNumber:      text(InvoiceNumber),
			PurchaseOrder:      text(PurchaseOrder),
			DocumentType:       text(DocumentType),
			BatchName:          text(BatchName),
			Supplier:           text(Supplier),
			TaxID:              text(TaxID),
			DocumentDate:       dateText(text(DocumentDate)),
			Store:              text(Store),
			Branch:             text(Branch),
			Amount:             num(Amount),
			Currency:           currency,
			DueDate:            dateText(text(DueDate)),
			Account:            text(Account),
			AccountID:          text(AccountID),
			PaymentMethodCode:  text(PaymentMethodCode),
			IndependentPayment: num(IndependentPayment),
			Priority:           ParsePriority(text(Priority)),
			CapexExt:           num(CapexExt),
			CapexOrd:           num(CapexOrd),
			CapexAdmin:         num(CapexAdmin),
			CreatedDate:        dateText(text(CreatedDate)),
			Requester:          text(Requester),
			PaymentDate:        dateText(t.Cell(i, m.PaymentDate)),
		})
	}

	if vef > 0 {
		log.Info().Int("rows", vef).Msg("VEF currency normalised to VES")
	}
	for code, n := range unknown {
		log.Warn().Str("moneda", code).Int("rows", n).Msg("Unrecognised currency, rows kept")
	}
	log.Info().Int("rows", len(records)).Int("skipped_blank", len(t.Rows)-len(records)).Msg("Payment report parsed")
	return records
}

// ParseAmount reads a spreadsheet number. Blank, "nan" and unparseable
// values are 0. Thousands separators are removed; a lone comma followed by
// one or two digits is read as the decimal separator.
//
// A single dot with no comma is always the decimal point, so "1.234" is
// 1.234 and never 1234: numeric cells come out of the workbook in that
// form. Dot grouping is recognised only when it repeats ("1.234.567") or
// sits before a decimal comma ("1.234,56").
func ParseAmount(raw string) float64 {
	s := strings.TrimSpace(raw)
	if s == "" || strings.EqualFold(s, "nan") || strings.EqualFold(s, "none") {
		return 0
	}
	s = strings.ReplaceAll(s, " ", "")

	dot := strings.LastIndex(s, ".")
	comma := strings.LastIndex(s, ",")
	switch {
	case dot >= 0 && comma >= 0 && comma > dot:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case dot >= 0 && comma >= 0:
		s = strings.ReplaceAll(s, ",", "")
	case dot >= 0 && strings.Count(s, ".") > 1:
		s = strings.ReplaceAll(s, ".", "")
	case comma >= 0 && strings.Count(s, ",") == 1 && len(s)-comma-1 <= 2:
		s = strings.Replace(s, ",", ".", 1)
	case comma >= 0:
		s = strings.ReplaceAll(s, ",", "")
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// ParsePriority reads the integer priority code, 0 when absent.
func ParsePriority(raw string) int {
	return int(ParseAmount(raw))
}

// dateText normalises a date cell to YYYY-MM-DD and keeps anything that is
// not a date as written.
func dateText(raw string) string {
	if d := fiscal.NormalizeDate(raw); d != "" {
		return d
	}
	return raw
}
