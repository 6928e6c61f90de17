package lookup

import (
	"context"
	"strings"
	"testing"

	"cloud.google.com/go/civil"

	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/columns"
	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/domain"
)

func sampleAreas() *AreaLookup {
	return NewAreaLookup([]AreaPair{
		{" maria perez ", "Dirección de Retail"},
		{"MARIA PEREZ", "Finanzas"},
		{"JOSE GONZALEZ", "VP Tecnología de la Información"},
		{"", "Sin dueño"},
		{"ANA RIVAS", "nan"},
		{"CARLOS MENDEZ", "Mantenimiento"},
	})
}

func TestNewAreaLookup(t *testing.T) {
	l := sampleAreas()
	if l.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", l.Len())
	}
	if got := l.Resolve("Maria Perez", ""); got != "Dirección de Retail" {
		t.Errorf("first-seen requester should win, got %q", got)
	}
}

func TestAreaLookup_Resolve(t *testing.T) {
	l := sampleAreas()

	tests := []struct {
		name      string
		lookup    *AreaLookup
		requester string
		project   string
		want      string
	}{
		{"autopago project", l, "JOSE GONZALEZ", "A048", domain.AreaAutopago},
		{"autopago without requester", l, "", " a048 ", domain.AreaAutopago},
		{"blank requester", l, "", "", domain.AreaServicios},
		{"zero requester", l, "0", "", domain.AreaServicios},
		{"nan requester", l, "nan", "", domain.AreaServicios},
		{"no sheet", NewAreaLookup(nil), "JOSE GONZALEZ", "", domain.AreaNoSheet},
		{"exact", l, "carlos mendez", "", "Mantenimiento"},
		{"substring", l, "CARLOS MENDEZ R", "", "Mantenimiento"},
		{"surname", l, "LUIS GONZALEZ", "", "VP Tecnología de la Información"},
		{"it area on vene project", l, "JOSE GONZALEZ", "vene", domain.AreaConstruction},
		{"not found", l, "PEDRO LOPEZ", "", domain.AreaNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.lookup.Resolve(tt.requester, tt.project); got != tt.want {
				t.Errorf("Resolve(%q, %q) = %q, want %q", tt.requester, tt.project, got, tt.want)
			}
		})
	}
}

func absoluteTable() columns.Table {
	return columns.Table{
		Header: []string{"N° Factura", "Tipo de Línea", "Categoría de Compra", "Cta. Cargo Centro Desc.", "Cta. Cargo Centro", "Cta. Cargo", "Fecha Recepción", "Descripción"},
		Rows: [][]string{
			{"F-100", "Artículo", "CAPEX.OBRAS", "TIENDA 12", "CC-12", "01-110425-000-000-0000-0000-000-0-A048-00", "2025-10-01", "Remodelación"},
			{"F-200", "artículo ", "", "", "", "01-150199-X-B123-9", "", ""},
			{"F-300", "Servicio", "CAPEX", "TIENDA 1", "CC-1", "01-110425-X", "2025-10-01", "Flete"},
			{"F-400", "Artículo", "OPEX.GASTOS", "TIENDA 1", "CC-1", "01-110425-X", "2025-10-01", "Papel"},
			{"F-500", "Artículo", "CAPEX", "TIENDA 1", "CC-1", "01-999999-X", "2025-10-01", "Otro"},
			{"nan", "Artículo", "CAPEX", "TIENDA 1", "CC-1", "01-110425-X", "2025-10-01", "Sin factura"},
		},
	}
}

func TestBuildInvoiceLookup(t *testing.T) {
	today := civil.Date{Year: 2025, Month: 10, Day: 22}
	l := BuildInvoiceLookup(context.Background(), absoluteTable(), today)

	if !l.Loaded() || l.Len() != 2 {
		t.Fatalf("Loaded=%v Len=%d, want true 2", l.Loaded(), l.Len())
	}

	got := l.Lookup("F-100")
	want := domain.InvoiceInfo{Store: "TIENDA 12", CostCenter: "CC-12", Project: "A048", ReceiptDate: "2025-10-01", Description: "Remodelación"}
	if got != want {
		t.Errorf("Lookup(F-100) = %+v, want %+v", got, want)
	}

	got = l.Lookup("F-200")
	want = domain.InvoiceInfo{Store: domain.NoStore, CostCenter: domain.NoCostCenter, Project: "B123", ReceiptDate: "2025-10-17", Description: domain.NoDescription}
	if got != want {
		t.Errorf("Lookup(F-200) = %+v, want %+v", got, want)
	}

	for _, filtered := range []string{"F-300", "F-400", "F-500"} {
		if got := l.Lookup(filtered); got.Store != domain.InvoiceNotFound {
			t.Errorf("Lookup(%s) should be filtered out, got %+v", filtered, got)
		}
	}
}

func TestInvoiceLookup_PartialAndSentinels(t *testing.T) {
	l := BuildInvoiceLookup(context.Background(), absoluteTable(), civil.Date{Year: 2025, Month: 10, Day: 22})

	if got := l.Lookup("f-10"); got.Store != "TIENDA 12" {
		t.Errorf("partial match failed: %+v", got)
	}
	if got := l.Lookup(""); got.Store != domain.InvoiceNotFound {
		t.Errorf("empty invoice should not match, got %+v", got)
	}
	if got := EmptyInvoiceLookup().Lookup("F-100"); got.Project != domain.NoAbsoluteReport {
		t.Errorf("no report: got %+v", got)
	}
}

func TestExtractProject(t *testing.T) {
	tests := []struct {
		name    string
		account string
		want    string
	}{
		{"fixed position", strings.Repeat("0", 34) + "P123-0", "P123"},
		{"fixed position after accented text", "ÑOÑO-" + strings.Repeat("0", 29) + "P123-0", "P123"},
		{"short account uses the segment", "01-110425-P456-99", "P456"},
		{"no segment", "01-110425-99", domain.NoProject},
		{"blank", "", domain.NoProject},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractProject(tt.account); got != tt.want {
				t.Errorf("extractProject(%q) = %q, want %q", tt.account, got, tt.want)
			}
		})
	}
}
