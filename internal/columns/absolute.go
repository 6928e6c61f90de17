package columns

import "strings"

// AbsoluteMapping locates the columns of the absolute report. Every index is
// -1 when not found.
type AbsoluteMapping struct {
	// filters
	LineType         int
	PurchaseCategory int
	ChargeAccount    int

	// lookup fields
	Invoice     int
	Store       int
	CostCenter  int
	Account     int
	ReceiptDate int
	Description int
}

// ResolveAbsolute applies the keyword heuristics of the absolute report
// export. Each lookup column is claimed by the first rule it matches, in
// field order.
func ResolveAbsolute(header []string) AbsoluteMapping {
	m := AbsoluteMapping{
		LineType: -1, PurchaseCategory: -1, ChargeAccount: -1,
		Invoice: -1, Store: -1, CostCenter: -1, Account: -1, ReceiptDate: -1, Description: -1,
	}

	for i, h := range header {
		l := strings.ToLower(strings.TrimSpace(h))
		switch {
		case has(l, "tipo") && hasAny(l, "línea", "linea"):
			m.LineType = i
		case hasAny(l, "categoría", "categoria") && has(l, "compra"):
			m.PurchaseCategory = i
		case has(l, "cta") && has(l, "cargo") && !has(l, "centro") && !has(l, "desc"):
			m.ChargeAccount = i
		}
	}

	for i, h := range header {
		l := strings.ToLower(strings.TrimSpace(h))
		switch {
		case m.Invoice < 0 && hasAny(l, "factura", "n°"):
			m.Invoice = i
		case m.Store < 0 && hasAll(l, "cta", "cargo", "centro", "desc"):
			m.Store = i
		case m.CostCenter < 0 && hasAll(l, "cta", "cargo", "centro") && !has(l, "desc"):
			m.CostCenter = i
		case m.Account < 0 && hasAll(l, "cta", "cargo") && !has(l, "centro"):
			m.Account = i
		case m.ReceiptDate < 0 && has(l, "fecha") && hasAny(l, "recepción", "recepcion"):
			m.ReceiptDate = i
		case m.Description < 0 && hasAny(l, "descipción", "descripcion", "descripción"):
			m.Description = i
		}
	}
	return m
}

func has(s, sub string) bool { return strings.Contains(s, sub) }

func hasAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func hasAll(s string, subs ...string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}
