package workbook

import (
	"context"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/domain"
	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/logger"
	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/report"
)

const tabGreen = "00B050"

// Renderer writes a report.Report as the consolidated xlsx workbook.
type Renderer struct{}

// NewRenderer creates a Renderer.
func NewRenderer() *Renderer {
	return &Renderer{}
}

// Render writes the four sheets of rep to w.
func (r *Renderer) Render(ctx context.Context, w io.Writer, rep report.Report) error {
	f := excelize.NewFile()
	defer f.Close()

	st, err := newStyles(f)
	if err != nil {
		return fmt.Errorf("Render: styles: %w", err)
	}

	steps := []struct {
		sheet string
		write func(*sheetWriter)
	}{
		{SheetBatch, func(sw *sheetWriter) { sw.records(rep.Batch) }},
		{SheetDetail, func(sw *sheetWriter) { sw.records(rep.Detail) }},
		{SheetPaid, func(sw *sheetWriter) { sw.pivots(rep.Paid) }},
		{SheetBudget, func(sw *sheetWriter) { sw.budget(rep.Budget, rep.Variance, rep.Titles) }},
	}

	for i, s := range steps {
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, s.sheet); err != nil {
				return fmt.Errorf("Render: rename default sheet: %w", err)
			}
		} else if _, err := f.NewSheet(s.sheet); err != nil {
			return fmt.Errorf("Render: new sheet %q: %w", s.sheet, err)
		}

		sw := newSheetWriter(f, s.sheet, st)
		s.write(sw)
		if err := sw.finish(); err != nil {
			return fmt.Errorf("Render: sheet %q: %w", s.sheet, err)
		}
	}
	f.SetActiveSheet(0)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("Render: write workbook: %w", err)
	}

	log := logger.FromContext(ctx)
	log.Info().
		Int("bosqueto_rows", len(rep.Batch)).
		Int("detalle_rows", len(rep.Detail)).
		Int("variance_rows", len(rep.Variance)).
		Msg("Workbook rendered")
	return nil
}

type styles struct {
	header       int
	title        int
	budgetHeader int
	total        int
	group        int
	number       int
}

func newStyles(f *excelize.File) (styles, error) {
	specs := []*excelize.Style{
		{Font: &excelize.Font{Bold: true}, Fill: solid("D3D3D3")},
		{Font: &excelize.Font{Bold: true, Color: "FFFFFF", Size: 12}, Fill: solid("203864")},
		{Font: &excelize.Font{Bold: true, Color: "FFFFFF"}, Fill: solid("4472C4")},
		{Font: &excelize.Font{Bold: true}, Fill: solid("D9E1F2"), NumFmt: 4},
		{Font: &excelize.Font{Bold: true}, Fill: solid("FFC000"), NumFmt: 4},
		{NumFmt: 4},
	}

	ids := make([]int, len(specs))
	for i, s := range specs {
		id, err := f.NewStyle(s)
		if err != nil {
			return styles{}, err
		}
		ids[i] = id
	}
	return styles{
		header:       ids[0],
		title:        ids[1],
		budgetHeader: ids[2],
		total:        ids[3],
		group:        ids[4],
		number:       ids[5],
	}, nil
}

func solid(color string) excelize.Fill {
	return excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{color}}
}

// sheetWriter writes one sheet and keeps the first error, so the layout code
// reads as a plain sequence of rows.
type sheetWriter struct {
	f      *excelize.File
	sheet  string
	st     styles
	widths map[int]int
	fixed  map[int]float64
	err    error
}

func newSheetWriter(f *excelize.File, sheet string, st styles) *sheetWriter {
	return &sheetWriter{f: f, sheet: sheet, st: st, widths: map[int]int{}, fixed: map[int]float64{}}
}

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

// row writes values from column 1 of the given row and applies style to
// the written range when style > 0.
func (w *sheetWriter) row(row int, values []interface{}, style int) {
	if w.err != nil || len(values) == 0 {
		return
	}
	if err := w.f.SetSheetRow(w.sheet, cellName(1, row), &values); err != nil {
		w.err = err
		return
	}
	if style > 0 {
		w.err = w.f.SetCellStyle(w.sheet, cellName(1, row), cellName(len(values), row), style)
	}
	for i, v := range values {
		if n := utf8.RuneCountInString(display(v)); n > w.widths[i+1] {
			w.widths[i+1] = n
		}
	}
}

func (w *sheetWriter) style(fromCol, toCol, row, style int) {
	if w.err != nil || toCol < fromCol {
		return
	}
	w.err = w.f.SetCellStyle(w.sheet, cellName(fromCol, row), cellName(toCol, row), style)
}

func (w *sheetWriter) finish() error {
	if w.err != nil {
		return w.err
	}
	for col, n := range w.widths {
		width := float64(min(n+2, maxColWidth))
		if fw, ok := w.fixed[col]; ok {
			width = fw
		}
		name, err := excelize.ColumnNumberToName(col)
		if err != nil {
			return err
		}
		if err := w.f.SetColWidth(w.sheet, name, name, width); err != nil {
			return err
		}
	}
	green := tabGreen
	return w.f.SetSheetProps(w.sheet, &excelize.SheetPropsOptions{TabColorRGB: &green})
}

func display(v interface{}) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return fmt.Sprintf("%.2f", x)
	default:
		return fmt.Sprint(x)
	}
}

// records writes the record sheet layout shared by BOSQUETO and DETALLE
// CORREGIDO.
func (w *sheetWriter) records(records []domain.EnrichedRecord) {
	headers := RecordHeaders()
	hdr := make([]interface{}, len(headers))
	for i, h := range headers {
		hdr[i] = h
	}
	w.row(1, hdr, w.st.header)

	for i, r := range records {
		w.row(i+2, recordValues(r), 0)
	}
	if w.err == nil && len(records) > 0 {
		w.err = w.f.SetPanes(w.sheet, &excelize.Panes{
			Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft",
		})
	}
}

// pivots stacks the titled pivot tables with two blank rows between them.
func (w *sheetWriter) pivots(pivots []report.Pivot) {
	row := 1
	for _, p := range pivots {
		w.row(row, []interface{}{p.Title}, w.st.title)
		row++

		hdr := []interface{}{p.RowHeader}
		for _, c := range p.Columns {
			hdr = append(hdr, c)
		}
		hdr = append(hdr, report.TotalLabel)
		w.row(row, hdr, w.st.header)
		row++

		if p.Empty() {
			w.row(row, []interface{}{"Sin datos para el periodo"}, 0)
			row += 3
			continue
		}

		for _, r := range p.Rows {
			vals := []interface{}{r.Label}
			for _, v := range r.Values {
				vals = append(vals, v)
			}
			vals = append(vals, r.Total)
			w.row(row, vals, 0)
			w.style(2, len(vals), row, w.st.number)
			row++
		}

		totals := []interface{}{report.TotalLabel}
		for _, v := range p.Totals {
			totals = append(totals, v)
		}
		totals = append(totals, p.GrandTotal)
		w.row(row, totals, w.st.total)
		row += 3
	}
}

// budget writes the budget pivot on top and the variance table below it,
// starting at row 25 unless the budget pivot runs past it.
func (w *sheetWriter) budget(b report.BudgetPivot, variance []domain.VarianceRow, titles report.Titles) {
	w.fixed[1] = 25

	row := 1
	w.row(row, []interface{}{report.BudgetTitle}, w.st.title)
	row++

	hdr := []interface{}{"Responsable"}
	for _, m := range b.Months {
		hdr = append(hdr, m)
	}
	hdr = append(hdr, report.GrandTotalLabel)
	w.row(row, hdr, w.st.budgetHeader)
	row++

	if b.Empty() {
		w.row(row, []interface{}{"Sin datos de presupuesto"}, 0)
		row++
	}
	for _, g := range b.Groups {
		w.row(row, amounts(g.Type, g.Subtotals, g.Total), w.st.group)
		row++
		for _, l := range g.Lines {
			vals := amounts(l.Area, l.Values, l.Total)
			w.row(row, vals, 0)
			w.style(2, len(vals), row, w.st.number)
			row++
		}
	}
	if !b.Empty() {
		w.row(row, amounts(report.GrandTotalLabel, b.Totals, b.GrandTotal), w.st.total)
		row++
	}
	for col := 2; col <= len(hdr); col++ {
		w.fixed[col] = 14
	}

	w.variance(max(varianceStart, row+2), variance, titles)
}

func (w *sheetWriter) variance(row int, rows []domain.VarianceRow, titles report.Titles) {
	w.row(row, []interface{}{report.VarianceTitle}, w.st.title)
	row++
	w.row(row, []interface{}{"RESPONSABLE", titles.Remainder, titles.Budget, titles.Executed, titles.Difference}, w.st.budgetHeader)
	row++
	for col := 2; col <= 5; col++ {
		w.fixed[col] = 20
	}

	if len(rows) == 0 {
		w.row(row, []interface{}{"Sin datos de presupuesto vs ejecutado"}, 0)
		return
	}

	var total domain.VarianceRow
	current := ""
	for i, v := range rows {
		if v.Type != current {
			if i > 0 {
				row++
			}
			current = v.Type
			w.row(row, []interface{}{"--- " + current + " ---"}, w.st.group)
			row++
		}
		vals := []interface{}{v.Area, v.Remainder, v.Budget, v.Executed, v.Difference}
		w.row(row, vals, 0)
		w.style(2, 5, row, w.st.number)
		row++

		total.Remainder += v.Remainder
		total.Budget += v.Budget
		total.Executed += v.Executed
	}
	total.Recompute()
	w.row(row, []interface{}{"TOTAL", total.Remainder, total.Budget, total.Executed, total.Difference}, w.st.total)
}

func amounts(label string, values []float64, total float64) []interface{} {
	out := make([]interface{}, 0, len(values)+2)
	out = append(out, label)
	for _, v := range values {
		out = append(out, v)
	}
	return append(out, total)
}
