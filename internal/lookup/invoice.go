package lookup

import (
	"context"
	"regexp"
	"strings"

	"cloud.google.com/go/civil"

	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/columns"
	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/domain"
	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/fiscal"
	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/logger"
)

// Charge-account segments that identify capitalisable purchases.
var capexAccountSegments = map[string]bool{
	"110425": true,
	"150199": true,
}

var projectPattern = regexp.MustCompile(`-([A-Z]\d{3})-`)

// InvoiceLookup resolves invoice numbers against the absolute report.
type InvoiceLookup struct {
	loaded   bool
	keys     []string
	invoices map[string]domain.InvoiceInfo
}

// EmptyInvoiceLookup is the lookup used when no absolute report was
// supplied.
func EmptyInvoiceLookup() *InvoiceLookup {
	return &InvoiceLookup{invoices: map[string]domain.InvoiceInfo{}}
}

// BuildInvoiceLookup filters the absolute report down to CAPEX article
// lines and indexes them by invoice. today fixes the receipt date used when
// a row has none.
func BuildInvoiceLookup(ctx context.Context, t columns.Table, today civil.Date) *InvoiceLookup {
	log := logger.FromContext(ctx)
	m := columns.ResolveAbsolute(t.Header)

	l := &InvoiceLookup{loaded: true, invoices: make(map[string]domain.InvoiceInfo)}
	if m.Invoice < 0 {
		log.Warn().Strs("columns", t.Header).Msg("Absolute report has no invoice column")
		return l
	}

	defaultReceipt := fiscal.MondayOf(today).AddDays(-3).String()
	kept := 0
	for i := range t.Rows {
		if !keepAbsoluteRow(t, m, i) {
			continue
		}
		kept++

		invoice := t.Cell(i, m.Invoice)
		if isBlank(invoice) {
			continue
		}

		info := domain.InvoiceInfo{
			Store:       valueOr(t.Cell(i, m.Store), domain.NoStore),
			CostCenter:  valueOr(t.Cell(i, m.CostCenter), domain.NoCostCenter),
			Project:     extractProject(t.Cell(i, m.Account)),
			ReceiptDate: defaultReceipt,
			Description: valueOr(t.Cell(i, m.Description), domain.NoDescription),
		}
		if raw := t.Cell(i, m.ReceiptDate); !isBlank(raw) {
			info.ReceiptDate = fiscal.NormalizeDate(raw)
			if info.ReceiptDate == "" {
				info.ReceiptDate = raw
			}
		}

		if _, seen := l.invoices[invoice]; !seen {
			l.keys = append(l.keys, invoice)
		}
		l.invoices[invoice] = info
	}

	log.Info().
		Int("rows", len(t.Rows)).
		Int("rows_kept", kept).
		Int("invoices", len(l.keys)).
		Msg("Absolute report indexed")
	return l
}

// Loaded reports whether an absolute report was supplied.
func (l *InvoiceLookup) Loaded() bool { return l != nil && l.loaded }

// Len returns the number of indexed invoices.
func (l *InvoiceLookup) Len() int {
	if l == nil {
		return 0
	}
	return len(l.keys)
}

// Lookup returns the absolute report data for invoice. Exact matches win,
// then a case-insensitive substring match either way. Every field is
// SIN_REPORTE_ABSOLUTO without a report and FACTURA_NO_ENCONTRADA on a miss.
func (l *InvoiceLookup) Lookup(invoice string) domain.InvoiceInfo {
	if !l.Loaded() {
		return sentinelInfo(domain.NoAbsoluteReport)
	}

	invoice = strings.TrimSpace(invoice)
	if info, ok := l.invoices[invoice]; ok {
		return info
	}
	if invoice != "" {
		needle := strings.ToLower(invoice)
		for _, key := range l.keys {
			ref := strings.ToLower(key)
			if strings.Contains(ref, needle) || strings.Contains(needle, ref) {
				return l.invoices[key]
			}
		}
	}
	return sentinelInfo(domain.InvoiceNotFound)
}

func keepAbsoluteRow(t columns.Table, m columns.AbsoluteMapping, i int) bool {
	if m.LineType >= 0 && strings.ToLower(t.Cell(i, m.LineType)) != "artículo" {
		return false
	}
	if m.PurchaseCategory >= 0 {
		cat := strings.ToUpper(t.Cell(i, m.PurchaseCategory))
		if !isBlank(cat) && strings.SplitN(cat, ".", 2)[0] != "CAPEX" {
			return false
		}
	}
	if m.ChargeAccount >= 0 {
		segs := strings.Split(t.Cell(i, m.ChargeAccount), "-")
		if len(segs) < 2 || !capexAccountSegments[strings.TrimSpace(segs[1])] {
			return false
		}
	}
	return true
}

// extractProject takes the project code at offset 34 of a full charge
// account, or the first "-X999-" segment of a shorter one.
func extractProject(account string) string {
	if isBlank(account) {
		return domain.NoProject
	}
	// Positions count characters, not bytes.
	if r := []rune(account); len(r) >= 39 {
		return string(r[34:38])
	}
	if m := projectPattern.FindStringSubmatch(account); m != nil {
		return m[1]
	}
	return domain.NoProject
}

func valueOr(v, fallback string) string {
	if isBlank(v) {
		return fallback
	}
	return v
}

func sentinelInfo(s string) domain.InvoiceInfo {
	return domain.InvoiceInfo{Store: s, CostCenter: s, Project: s, ReceiptDate: s, Description: s}
}
