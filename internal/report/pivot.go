// Package report builds the pivot tables and the budget variance table of
// the consolidated workbook from the stored payment rows.
package report

import (
	"fmt"
	"sort"

	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/domain"
	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/fiscal"
)

// TotalLabel names total rows and columns.
const TotalLabel = "Total"

// PivotRow is one labelled row of a pivot.
type PivotRow struct {
	Label  string
	Values []float64
	Total  float64
}

// Pivot is a two-dimensional sum with row and column totals.
type Pivot struct {
	Title      string
	RowHeader  string
	Columns    []string
	Rows       []PivotRow
	Totals     []float64
	GrandTotal float64

	rowIndex map[string]int
	colIndex map[string]int
}

// Empty reports whether the pivot has no rows.
func (p Pivot) Empty() bool { return len(p.Rows) == 0 }

// Value returns the cell at (row, col) by label, 0 when absent.
func (p Pivot) Value(row, col string) float64 {
	if p.rowIndex == nil {
		return p.scan(row, col)
	}
	ri, ok := p.rowIndex[row]
	if !ok {
		return 0
	}
	ci, ok := p.colIndex[col]
	if !ok {
		return 0
	}
	return p.Rows[ri].Values[ci]
}

// scan serves pivots assembled without the builder.
func (p Pivot) scan(row, col string) float64 {
	for _, r := range p.Rows {
		if r.Label != row {
			continue
		}
		for i, c := range p.Columns {
			if c == col && i < len(r.Values) {
				return r.Values[i]
			}
		}
		return 0
	}
	return 0
}

// pivotBuilder accumulates (row, column) sums and remembers first-seen order.
type pivotBuilder struct {
	cells    map[string]map[string]float64
	rowOrder []string
	colOrder []string
	colSeen  map[string]bool
}

func newPivotBuilder() *pivotBuilder {
	return &pivotBuilder{cells: map[string]map[string]float64{}, colSeen: map[string]bool{}}
}

func (b *pivotBuilder) add(row, col string, v float64) {
	if _, ok := b.cells[row]; !ok {
		b.cells[row] = map[string]float64{}
		b.rowOrder = append(b.rowOrder, row)
	}
	if !b.colSeen[col] {
		b.colSeen[col] = true
		b.colOrder = append(b.colOrder, col)
	}
	b.cells[row][col] += v
}

// build sorts rows and columns with the given less functions (nil keeps
// first-seen order) and fills the totals.
func (b *pivotBuilder) build(title, rowHeader string, rowLess, colLess func(a, b string) bool) Pivot {
	rows := append([]string(nil), b.rowOrder...)
	cols := append([]string(nil), b.colOrder...)
	if rowLess != nil {
		sort.SliceStable(rows, func(i, j int) bool { return rowLess(rows[i], rows[j]) })
	}
	if colLess != nil {
		sort.SliceStable(cols, func(i, j int) bool { return colLess(cols[i], cols[j]) })
	}
	return b.buildOrdered(title, rowHeader, rows, cols)
}

func (b *pivotBuilder) buildOrdered(title, rowHeader string, rows, cols []string) Pivot {
	p := Pivot{
		Title:     title,
		RowHeader: rowHeader,
		Columns:   cols,
		Totals:    make([]float64, len(cols)),
		rowIndex:  make(map[string]int, len(rows)),
		colIndex:  make(map[string]int, len(cols)),
	}
	for i, c := range cols {
		p.colIndex[c] = i
	}
	for _, r := range rows {
		p.rowIndex[r] = len(p.Rows)
		pr := PivotRow{Label: r, Values: make([]float64, len(cols))}
		for i, c := range cols {
			v := b.cells[r][c]
			pr.Values[i] = v
			pr.Total += v
			p.Totals[i] += v
		}
		p.GrandTotal += pr.Total
		p.Rows = append(p.Rows, pr)
	}
	return p
}

func lexLess(a, b string) bool { return a < b }

// fiscalMonthLess orders Spanish month names from AGOSTO to JULIO.
func fiscalMonthLess(a, b string) bool {
	return fiscalMonthIndex(a) < fiscalMonthIndex(b)
}

func fiscalMonthIndex(name string) int {
	m, ok := fiscal.MonthFromName(name)
	if !ok {
		return 99
	}
	return (int(m) - int(fiscal.FiscalYearStartMonth) + 12) % 12
}

func weekLess(a, b string) bool {
	var x, y int
	fmt.Sscan(a, &x)
	fmt.Sscan(b, &y)
	return x < y
}

// Period selects the fiscal month the weekly tables report on.
type Period struct {
	MonthName  string
	FiscalYear string
}

// PeriodOf returns the period of a run calendar.
func PeriodOf(c fiscal.Calendar) Period {
	return Period{MonthName: c.MonthName(), FiscalYear: c.FiscalYear()}
}

func (p Period) contains(r domain.EnrichedRecord) bool {
	return r.MonthName == p.MonthName && r.FiscalYear == p.FiscalYear
}

// Pivot titles.
const (
	TitleByMonth       = "TABLA 1: CAPEX A PAGAR POR MES Y AÑO FISCAL"
	TitleByArea        = "TABLA 2: MONTO ORD Y MONTO EXT POR AREA"
	TitleUSDByWeek     = "TABLA 3: MONTO USD POR SEMANA Y METODO DE PAGO"
	TitleCapexByMethod = "TABLA 4: MONTO ORD + EXT POR SEMANA, METODO Y DIA"
	TitleCapexByWeek   = "TABLA 5: CAPEX A PAGAR POR SEMANA Y METODO DE PAGO"
)

// Column labels of the area table.
const (
	ColumnOrdinary = "MONTO ORD"
	ColumnExtra    = "MONTO EXT"
)

// CapexByMonth sums CAPEX payable by fiscal month and fiscal year.
func CapexByMonth(records []domain.EnrichedRecord) Pivot {
	b := newPivotBuilder()
	for _, r := range records {
		b.add(r.MonthName, r.FiscalYear, r.CapexPayable)
	}
	return b.build(TitleByMonth, "MES", fiscalMonthLess, lexLess)
}

// CapexByArea sums the ordinary and extraordinary amounts by area for the
// period.
func CapexByArea(records []domain.EnrichedRecord, period Period) Pivot {
	b := newPivotBuilder()
	for _, r := range records {
		if !period.contains(r) {
			continue
		}
		b.add(r.Area, ColumnOrdinary, r.OrdinaryAmount)
		b.add(r.Area, ColumnExtra, r.ExtraAmount)
	}
	rows := append([]string(nil), b.rowOrder...)
	sort.Strings(rows)
	return b.buildOrdered(TitleByArea, "AREA", rows, []string{ColumnOrdinary, ColumnExtra})
}

// USDByWeek sums the dollar amount by week and payment method for the
// period.
func USDByWeek(records []domain.EnrichedRecord, period Period) Pivot {
	b := newPivotBuilder()
	for _, r := range records {
		if period.contains(r) {
			b.add(fmt.Sprint(r.Week), r.PaymentMethod, r.USDAmount)
		}
	}
	return b.build(TitleUSDByWeek, "SEMANA", weekLess, lexLess)
}

// CapexByMethodAndDay sums ORD plus EXT by week and "METHOD - DAY" for the
// period.
func CapexByMethodAndDay(records []domain.EnrichedRecord, period Period) Pivot {
	b := newPivotBuilder()
	for _, r := range records {
		if period.contains(r) {
			b.add(fmt.Sprint(r.Week), r.PaymentMethod+" - "+r.PaymentWeekday, r.OrdinaryAmount+r.ExtraAmount)
		}
	}
	return b.build(TitleCapexByMethod, "SEMANA", weekLess, lexLess)
}

// CapexByWeek sums CAPEX payable by week and payment method for the period.
func CapexByWeek(records []domain.EnrichedRecord, period Period) Pivot {
	b := newPivotBuilder()
	for _, r := range records {
		if period.contains(r) {
			b.add(fmt.Sprint(r.Week), r.PaymentMethod, r.CapexPayable)
		}
	}
	return b.build(TitleCapexByWeek, "SEMANA", weekLess, lexLess)
}

// PaidByReceipt builds the five tables of the paid CAPEX sheet in order.
func PaidByReceipt(records []domain.EnrichedRecord, period Period) []Pivot {
	return []Pivot{
		CapexByMonth(records),
		CapexByArea(records, period),
		USDByWeek(records, period),
		CapexByMethodAndDay(records, period),
		CapexByWeek(records, period),
	}
}

// AreaExecution is the executed CAPEX of one area in the period.
type AreaExecution struct {
	Area     string
	Ordinary float64
	Extra    float64
}

// ExecutionFromPivot reads the area table back into per-area amounts.
func ExecutionFromPivot(p Pivot) []AreaExecution {
	out := make([]AreaExecution, 0, len(p.Rows))
	for _, r := range p.Rows {
		out = append(out, AreaExecution{
			Area:     r.Label,
			Ordinary: p.Value(r.Label, ColumnOrdinary),
			Extra:    p.Value(r.Label, ColumnExtra),
		})
	}
	return out
}
