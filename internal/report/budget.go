package report

import (
	"sort"

	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/domain"
	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/fiscal"
)

// BudgetTitle heads the monthly budget table.
const BudgetTitle = "TABLA 1: PRESUPUESTO CAPEX POR RESPONSABLE Y MES"

// GrandTotalLabel names the last row and column of the budget table.
const GrandTotalLabel = "Total general"

// BudgetLine is an area row of the budget table.
type BudgetLine struct {
	Area   string
	Values []float64
	Total  float64
}

// BudgetGroup is a CAPEX type with its subtotal and area rows.
type BudgetGroup struct {
	Type      string
	Subtotals []float64
	Total     float64
	Lines     []BudgetLine
}

// BudgetPivot is the (type, area) by month budget table. Months are MON-YY
// labels in ascending date order.
type BudgetPivot struct {
	Months     []string
	Groups     []BudgetGroup
	Totals     []float64
	GrandTotal float64
}

// Empty reports whether there is no budget to show.
func (b BudgetPivot) Empty() bool { return len(b.Groups) == 0 }

// typeRank puts extraordinary CAPEX before ordinary, then anything else.
func typeRank(t string) int {
	switch t {
	case domain.VarianceExtraordinary:
		return 0
	case domain.VarianceOrdinary:
		return 1
	}
	return 2
}

// BuildBudgetPivot pivots the budget rows. Rows whose month is not a date are
// skipped.
func BuildBudgetPivot(rows []domain.BudgetRow) BudgetPivot {
	type key struct{ typ, area string }

	monthDate := map[string]string{}
	cells := map[key]map[string]float64{}
	var keys []key

	for _, r := range rows {
		d, ok := fiscal.ParseDate(r.Month)
		if !ok {
			continue
		}
		label := fiscal.MonthLabel(d)
		monthDate[label] = fiscal.FirstOfMonth(d).String()

		k := key{r.Type, r.Area}
		if _, ok := cells[k]; !ok {
			cells[k] = map[string]float64{}
			keys = append(keys, k)
		}
		cells[k][label] += r.Amount
	}

	var p BudgetPivot
	for label := range monthDate {
		p.Months = append(p.Months, label)
	}
	sort.Slice(p.Months, func(i, j int) bool { return monthDate[p.Months[i]] < monthDate[p.Months[j]] })

	sort.SliceStable(keys, func(i, j int) bool {
		if ri, rj := typeRank(keys[i].typ), typeRank(keys[j].typ); ri != rj {
			return ri < rj
		}
		if keys[i].typ != keys[j].typ {
			return keys[i].typ < keys[j].typ
		}
		return keys[i].area < keys[j].area
	})

	p.Totals = make([]float64, len(p.Months))
	for _, k := range keys {
		if n := len(p.Groups); n == 0 || p.Groups[n-1].Type != k.typ {
			p.Groups = append(p.Groups, BudgetGroup{Type: k.typ, Subtotals: make([]float64, len(p.Months))})
		}
		g := &p.Groups[len(p.Groups)-1]

		line := BudgetLine{Area: k.area, Values: make([]float64, len(p.Months))}
		for i, m := range p.Months {
			v := cells[k][m]
			line.Values[i] = v
			line.Total += v
			g.Subtotals[i] += v
			p.Totals[i] += v
		}
		g.Total += line.Total
		p.GrandTotal += line.Total
		g.Lines = append(g.Lines, line)
	}
	return p
}

// BudgetFor returns the budget rows of one month (first day, YYYY-MM-DD).
func BudgetFor(rows []domain.BudgetRow, month string) []domain.BudgetRow {
	var out []domain.BudgetRow
	for _, r := range rows {
		if d, ok := fiscal.ParseDate(r.Month); ok && fiscal.FirstOfMonth(d).String() == month {
			out = append(out, r)
		}
	}
	return out
}
