package report

import (
	"context"
	"fmt"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/domain"
	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/fiscal"
)

var october = Period{MonthName: "OCTUBRE", FiscalYear: "2025-2026"}

func record(area, method, day string, week int, usd, capex, ord, ext float64) domain.EnrichedRecord {
	return domain.EnrichedRecord{
		Area:           area,
		PaymentMethod:  method,
		PaymentWeekday: day,
		Week:           week,
		MonthName:      october.MonthName,
		FiscalYear:     october.FiscalYear,
		USDAmount:      usd,
		CapexPayable:   capex,
		OrdinaryAmount: ord,
		ExtraAmount:    ext,
	}
}

func findRow(rows []domain.VarianceRow, typ, area string) (domain.VarianceRow, bool) {
	for _, r := range rows {
		if r.Type == typ && r.Area == area {
			return r, true
		}
	}
	return domain.VarianceRow{}, false
}

func TestPaidByReceipt(t *testing.T) {
	records := []domain.EnrichedRecord{
		record("MARKETING", "USD", "VIERNES", 3, 100, 80, 80, 0),
		record("MARKETING", "VES", "JUEVES", 3, 50, 50, 20, 30),
		record("FINANZAS", "USD", "VIERNES", 2, 10, 0, 0, 0),
	}
	old := record("MARKETING", "USD", "VIERNES", 1, 999, 999, 999, 0)
	old.MonthName = "SEPTIEMBRE"
	records = append(records, old)

	pivots := PaidByReceipt(records, october)
	require.Len(t, pivots, 5)

	byMonth := pivots[0]
	assert.Equal(t, []string{"SEPTIEMBRE", "OCTUBRE"}, []string{byMonth.Rows[0].Label, byMonth.Rows[1].Label})
	assert.InDelta(t, 1129.0, byMonth.GrandTotal, 1e-9)

	byArea := pivots[1]
	assert.Equal(t, "FINANZAS", byArea.Rows[0].Label)
	assert.InDelta(t, 100.0, byArea.Value("MARKETING", ColumnOrdinary), 1e-9)
	assert.InDelta(t, 30.0, byArea.Value("MARKETING", ColumnExtra), 1e-9)
	assert.InDelta(t, 130.0, byArea.GrandTotal, 1e-9)

	usd := pivots[2]
	assert.Equal(t, []string{"USD", "VES"}, usd.Columns)
	assert.InDelta(t, 100.0, usd.Value("3", "USD"), 1e-9)
	assert.InDelta(t, 160.0, usd.GrandTotal, 1e-9)

	method := pivots[3]
	assert.InDelta(t, 50.0, method.Value("3", "VES - JUEVES"), 1e-9)

	weekly := pivots[4]
	assert.Equal(t, "2", weekly.Rows[0].Label)
	assert.InDelta(t, 130.0, weekly.Totals[0]+weekly.Totals[1], 1e-9)
}

func TestPivotValue(t *testing.T) {
	b := newPivotBuilder()
	for i := 0; i < 500; i++ {
		b.add(fmt.Sprintf("AREA %03d", i), ColumnOrdinary, float64(i))
	}
	b.add("AREA 007", ColumnExtra, 2.5)
	p := b.build("", "Area", lexLess, nil)

	assert.InDelta(t, 499.0, p.Value("AREA 499", ColumnOrdinary), 1e-9)
	assert.InDelta(t, 2.5, p.Value("AREA 007", ColumnExtra), 1e-9)
	assert.Zero(t, p.Value("AREA 008", ColumnExtra))
	assert.Zero(t, p.Value("AREA 999", ColumnOrdinary))
	assert.Zero(t, p.Value("AREA 001", "missing"))

	literal := Pivot{Columns: []string{"USD"}, Rows: []PivotRow{{Label: "3", Values: []float64{4}}}}
	assert.InDelta(t, 4.0, literal.Value("3", "USD"), 1e-9)
	assert.Zero(t, literal.Value("4", "USD"))
}

func TestWeekOrderIsNumeric(t *testing.T) {
	records := []domain.EnrichedRecord{
		record("A", "USD", "VIERNES", 10, 1, 1, 1, 0),
		record("A", "USD", "VIERNES", 2, 1, 1, 1, 0),
	}
	p := USDByWeek(records, october)
	assert.Equal(t, "2", p.Rows[0].Label)
	assert.Equal(t, "10", p.Rows[1].Label)
}

func TestBuildBudgetPivot(t *testing.T) {
	rows := []domain.BudgetRow{
		{Month: "2025-09-01", Type: domain.VarianceOrdinary, Area: "MARKETING", Amount: 100},
		{Month: "2025-08-01", Type: domain.VarianceOrdinary, Area: "MARKETING", Amount: 50},
		{Month: "2025-08-01", Type: domain.VarianceExtraordinary, Area: "DIR CONSTRUCCIÓN Y PROYECTOS", Amount: 500},
		{Month: "no es fecha", Type: domain.VarianceOrdinary, Area: "X", Amount: 1},
	}

	p := BuildBudgetPivot(rows)
	assert.Equal(t, []string{"AGO-25", "SEP-25"}, p.Months)
	require.Len(t, p.Groups, 2)
	assert.Equal(t, domain.VarianceExtraordinary, p.Groups[0].Type)
	assert.Equal(t, []float64{50, 100}, p.Groups[1].Lines[0].Values)
	assert.InDelta(t, 650.0, p.GrandTotal, 1e-9)
	assert.Equal(t, []float64{550, 100}, p.Totals)
}

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"PRESIDENCIA EJECUTIVA", AreaRetail, true},
		{"Direccion de Retail", AreaRetail, true},
		{"T.I.", AreaIT, true},
		{"TI", AreaIT, true},
		{"Tecnología de la Información", AreaIT, true},
		{"IMPORTACIONES", "", false},
		{"SERVICIOS", "", false},
		{" MARKETING ", "MARKETING", true},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := Canonicalize(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("Canonicalize(%q) = %q, %v, want %q, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestFold(t *testing.T) {
	assert.Equal(t, "DIR CONSTRUCCION Y PROYECTOS", Fold(" dir construcción y proyectos"))
	assert.True(t, HasDiacritic("CONSTRUCCIÓN"))
	assert.False(t, HasDiacritic("CONSTRUCCION"))
}

func TestBuildVarianceSplitsConstruction(t *testing.T) {
	stored := []domain.VarianceRow{
		{Month: "2025-10-01", Area: "DIR CONSTRUCCIÓN Y PROYECTOS ", Type: domain.VarianceExtraordinary, Budget: 1000},
		{Month: "2025-10-01", Area: "DIR CONSTRUCCION Y PROYECTOS", Type: domain.VarianceOrdinary, Budget: 400},
		{Month: "2025-10-01", Area: "Presidencia", Type: domain.VarianceOrdinary, Budget: 300, Remainder: 20},
		{Month: "2025-10-01", Area: "IMPORTACION", Type: domain.VarianceOrdinary, Budget: 900},
	}
	executed := []AreaExecution{
		{Area: "DIR CONSTRUCCIÓN Y PROYECTOS", Ordinary: 150, Extra: 600},
		{Area: "DIRECCION DE RETAIL", Ordinary: 40, Extra: 10},
		{Area: "SERVICIOS", Ordinary: 5},
	}

	rows := BuildVariance(context.Background(), VarianceInput{
		Month:    civil.Date{Year: 2025, Month: time.October, Day: 17},
		Stored:   stored,
		Executed: executed,
	})

	require.Len(t, rows, 3)
	assert.Equal(t, domain.VarianceExtraordinary, rows[0].Type)

	ext, ok := findRow(rows, domain.VarianceExtraordinary, domain.AreaConstruction)
	require.True(t, ok)
	assert.InDelta(t, 1000.0, ext.Budget, 1e-9)
	assert.InDelta(t, 600.0, ext.Executed, 1e-9)
	assert.InDelta(t, -400.0, ext.Difference, 1e-9)

	ord, ok := findRow(rows, domain.VarianceOrdinary, domain.AreaConstruction)
	require.True(t, ok)
	assert.InDelta(t, 150.0, ord.Executed, 1e-9)

	retail, ok := findRow(rows, domain.VarianceOrdinary, AreaRetail)
	require.True(t, ok)
	assert.InDelta(t, 50.0, retail.Executed, 1e-9)
	assert.InDelta(t, 50.0-300.0+20.0, retail.Difference, 1e-9)
	assert.Equal(t, "2025-10-01", retail.Month)
	assert.Len(t, retail.ID, 64)
}

func TestBuildVarianceKeepsStoredConstructionType(t *testing.T) {
	stored := []domain.VarianceRow{
		{Month: "2025-10-01", Area: domain.AreaConstruction, Type: domain.VarianceOrdinary, Budget: 400},
	}
	rows := BuildVariance(context.Background(), VarianceInput{
		Month:  civil.Date{Year: 2025, Month: time.October, Day: 1},
		Stored: stored,
	})
	require.Len(t, rows, 1)
	assert.Equal(t, domain.VarianceOrdinary, rows[0].Type)
}

func TestBuildVarianceUnifiesSpellings(t *testing.T) {
	stored := []domain.VarianceRow{
		{Month: "2025-10-01", Area: "LOGISTICA", Type: domain.VarianceOrdinary, Budget: 10},
		{Month: "2025-10-01", Area: "LOGÍSTICA", Type: domain.VarianceOrdinary, Budget: 5},
	}
	rows := BuildVariance(context.Background(), VarianceInput{
		Month:    civil.Date{Year: 2025, Month: time.October, Day: 1},
		Stored:   stored,
		Executed: []AreaExecution{{Area: "logistica", Ordinary: 3}},
	})
	require.Len(t, rows, 1)
	assert.Equal(t, "LOGÍSTICA", rows[0].Area)
	assert.InDelta(t, 15.0, rows[0].Budget, 1e-9)
	assert.InDelta(t, 3.0, rows[0].Executed, 1e-9)
}

func TestBuildVarianceCarriesRemainderIntoNewMonth(t *testing.T) {
	stored := []domain.VarianceRow{
		{Month: "2025-10-01", Area: "MARKETING", Type: domain.VarianceOrdinary, Budget: 300, Executed: 120, Remainder: 999},
	}
	budget := []domain.BudgetRow{
		{Month: "2025-11-01", Area: "MARKETING", Type: domain.VarianceOrdinary, Amount: 200},
		{Month: "2025-11-01", Area: "FINANZAS", Type: domain.VarianceOrdinary, Amount: 50},
		{Month: "2025-10-01", Area: "MARKETING", Type: domain.VarianceOrdinary, Amount: 300},
	}

	rows := BuildVariance(context.Background(), VarianceInput{
		Month:  civil.Date{Year: 2025, Month: time.November, Day: 7},
		Stored: stored,
		Budget: budget,
	})

	require.Len(t, rows, 2)
	mk, ok := findRow(rows, domain.VarianceOrdinary, "MARKETING")
	require.True(t, ok)
	assert.InDelta(t, 180.0, mk.Remainder, 1e-9)
	assert.InDelta(t, 200.0, mk.Budget, 1e-9)
	assert.InDelta(t, 0.0-200.0+180.0, mk.Difference, 1e-9)

	fin, ok := findRow(rows, domain.VarianceOrdinary, "FINANZAS")
	require.True(t, ok)
	assert.Zero(t, fin.Remainder)
}

func TestBuildVarianceCarriesJulyIntoAugust(t *testing.T) {
	stored := []domain.VarianceRow{
		{Month: "2025-07-01", Area: "MARKETING", Type: domain.VarianceOrdinary, Budget: 1000, Executed: 400},
	}
	budget := []domain.BudgetRow{
		{FiscalYear: "2025-2026", Month: "2025-08-01", Area: "MARKETING", Type: domain.VarianceOrdinary, Amount: 500},
	}

	rows := BuildVariance(context.Background(), VarianceInput{
		Month:  civil.Date{Year: 2025, Month: time.August, Day: 4},
		Stored: stored,
		Budget: budget,
	})

	require.Len(t, rows, 1)
	assert.Equal(t, "2025-08-01", rows[0].Month)
	assert.InDelta(t, 600.0, rows[0].Remainder, 1e-9)
	assert.InDelta(t, 500.0, rows[0].Budget, 1e-9)
}

func TestTitlesFor(t *testing.T) {
	titles := TitlesFor(civil.Date{Year: 2026, Month: time.January, Day: 1})
	assert.Equal(t, Titles{
		Remainder:  "Remanente DIC-25",
		Budget:     "Presupuesto ENE-26",
		Executed:   "Ejecutado ENE-26",
		Difference: "Diferencia",
	}, titles)
}

func TestBuild(t *testing.T) {
	cal := fiscal.NewCalendar(civil.Date{Year: 2025, Month: time.October, Day: 20})
	detail := []domain.EnrichedRecord{record("MARKETING", "USD", "VIERNES", 3, 100, 80, 80, 0)}
	budget := []domain.BudgetRow{{Month: "2025-10-01", Area: "MARKETING", Type: domain.VarianceOrdinary, Amount: 100}}

	r := Build(context.Background(), Input{Calendar: cal, Batch: detail, Detail: detail, Budget: budget})

	assert.Len(t, r.Paid, 5)
	assert.Equal(t, "Presupuesto OCT-25", r.Titles.Budget)
	require.Len(t, r.Variance, 1)
	assert.InDelta(t, 80.0, r.Variance[0].Executed, 1e-9)
	assert.InDelta(t, 100.0, r.Variance[0].Budget, 1e-9)
	assert.False(t, r.Budget.Empty())
}
