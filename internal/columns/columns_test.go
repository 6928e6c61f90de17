package columns

import (
	"context"
	"errors"
	"testing"

	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/domain"
)

func fullHeader() []string {
	h := make([]string, 0, len(InputHeaders)+1)
	h = append(h, InputHeaders[:]...)
	return append(h, "Proveedor Remito")
}

func TestDetectHeaderRow(t *testing.T) {
	tests := []struct {
		name string
		rows [][]string
		want int
	}{
		{
			name: "header on first row",
			rows: [][]string{fullHeader(), {"F-1"}},
			want: 0,
		},
		{
			name: "title rows above header",
			rows: [][]string{
				{"REPORTE DE PAGO"},
				{"Semana 3", "", "Octubre"},
				fullHeader(),
			},
			want: 2,
		},
		{
			name: "only one critical column",
			rows: [][]string{{"Monto", "Otra"}, {"x", "y"}},
			want: 0,
		},
		{
			name: "unnamed cells are skipped",
			rows: [][]string{{"Unnamed: 0", "Monto", "Moneda"}, {"Proveedor", "Monto", "Moneda"}},
			want: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectHeaderRow(tt.rows, CriticalColumns, 10); got != tt.want {
				t.Errorf("DetectHeaderRow() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestResolveInput_ExactHeader(t *testing.T) {
	m, err := ResolveInput(fullHeader())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for f := Field(0); f < fieldCount; f++ {
		if m.Col(f) != int(f) {
			t.Errorf("Col(%s) = %d, want %d", f, m.Col(f), f)
		}
	}
	if m.PaymentDate != -1 {
		t.Errorf("PaymentDate = %d, want -1", m.PaymentDate)
	}
}

func TestResolveInput_BankColumnAndSubstrings(t *testing.T) {
	header := []string{"Banco", "Proveedor Remito", "Proveedor ", "MontoCAPEX EXT", "Monto", "Moneda", "Fecha de Pago"}
	m, err := ResolveInput(header)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := m.Col(Supplier); got != 2 {
		t.Errorf("Supplier = %d, want 2", got)
	}
	if got := m.Col(Amount); got != 4 {
		t.Errorf("Amount = %d, want 4", got)
	}
	if got := m.Col(CapexExt); got != 3 {
		t.Errorf("CapexExt = %d, want 3", got)
	}
	if got := m.Col(Requester); got != -1 {
		t.Errorf("Requester = %d, want -1", got)
	}
	if m.PaymentDate != 6 {
		t.Errorf("PaymentDate = %d, want 6", m.PaymentDate)
	}
}

func TestResolveInput_MissingCritical(t *testing.T) {
	_, err := ResolveInput([]string{"Numero de Factura", "Monto"})
	if !errors.Is(err, ErrMissingColumns) {
		t.Fatalf("expected ErrMissingColumns, got %v", err)
	}
}

func TestResolveAbsolute(t *testing.T) {
	header := []string{
		"N° Factura", "Tipo de Línea", "Categoría de Compra",
		"Cta. Cargo Centro Desc.", "Cta. Cargo Centro", "Cta. Cargo",
		"Fecha Recepción", "Descripción",
	}
	m := ResolveAbsolute(header)

	want := AbsoluteMapping{
		LineType: 1, PurchaseCategory: 2, ChargeAccount: 5,
		Invoice: 0, Store: 3, CostCenter: 4, Account: 5, ReceiptDate: 6, Description: 7,
	}
	if m != want {
		t.Errorf("ResolveAbsolute() = %+v, want %+v", m, want)
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
	}{
		{"", 0},
		{"nan", 0},
		{"1500", 1500},
		{"1500.25", 1500.25},
		{"1,500.25", 1500.25},
		{"1.500,25", 1500.25},
		{"12,5", 12.5},
		{"1,500", 1500},
		{"1.234", 1.234},
		{"1.234.567", 1234567},
		{"1.234.567,5", 1234567.5},
		{"1.234,56", 1234.56},
		{"1,234.56", 1234.56},
		{"abc", 0},
		{"-20", -20},
	}

	for _, tt := range tests {
		if got := ParseAmount(tt.raw); got != tt.want {
			t.Errorf("ParseAmount(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestParseRecords(t *testing.T) {
	header := append(fullHeader(), "Fecha Pago")
	row := make([]string, len(header))
	row[InvoiceNumber] = " F-001 "
	row[Supplier] = "ACME"
	row[Amount] = "1000"
	row[Currency] = "vef"
	row[Priority] = "78.0"
	row[CapexOrd] = "1000"
	row[DocumentDate] = "17/10/2025"
	row[len(header)-1] = "45947"

	tbl := Table{Header: header, Rows: [][]string{row, {"", " "}, {"F-2", "", "", "", "X", "", "", "", "", "5", "GBP"}}}
	m, err := ResolveInput(header)
	if err != nil {
		t.Fatalf("ResolveInput: %v", err)
	}

	records := ParseRecords(context.Background(), tbl, m)
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}

	r := records[0]
	if r.InvoiceNumber != "F-001" || r.Currency != domain.CurrencyVES || r.Priority != 78 {
		t.Errorf("unexpected record: %+v", r)
	}
	if r.DocumentDate != "2025-10-17" || r.PaymentDate != "2025-10-17" {
		t.Errorf("dates = %q / %q", r.DocumentDate, r.PaymentDate)
	}
	if records[1].Currency != "GBP" {
		t.Errorf("unknown currency should be kept, got %q", records[1].Currency)
	}
}
