package enrich

import "github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/columns"

func lookupTable() columns.Table {
	return columns.Table{
		Header: []string{"Factura", "Cta. Cargo"},
		Rows: [][]string{
			{"F-9", "01-110425-X-A048-01"},
		},
	}
}
