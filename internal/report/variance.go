package report

import (
	"context"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/domain"
	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/fiscal"
	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/identity"
	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/logger"
)

// VarianceTitle heads the variance table.
const VarianceTitle = "TABLA 2: PRESUPUESTO vs EJECUTADO vs DIFERENCIA"

// Titles are the month-dependent column headers of the variance table.
type Titles struct {
	Remainder  string
	Budget     string
	Executed   string
	Difference string
}

// TitlesFor names the columns for the month starting at month: the
// remainder belongs to the month before.
func TitlesFor(month civil.Date) Titles {
	prev := fiscal.PreviousMonth(month)
	return Titles{
		Remainder:  "Remanente " + fiscal.MonthLabel(prev),
		Budget:     "Presupuesto " + fiscal.MonthLabel(month),
		Executed:   "Ejecutado " + fiscal.MonthLabel(month),
		Difference: "Diferencia",
	}
}

// VarianceInput gathers what the variance table is computed from.
type VarianceInput struct {
	// Month is the first day of the reporting month.
	Month civil.Date
	// Stored holds the latest stored variance row per area, type and month.
	Stored []domain.VarianceRow
	// Budget is the monthly budget extract of the fiscal year.
	Budget []domain.BudgetRow
	// Executed is the area table of the reporting month.
	Executed []AreaExecution
	RunAt    time.Time
}

type varianceKey struct {
	typ  string
	area string
}

type varianceAcc struct {
	spellings []string
	remainder float64
	budget    float64
	executed  float64
}

// BuildVariance joins budget and executed amounts per area and CAPEX type.
//
// The month's stored rows supply remainder and budget. When the month has no
// stored rows yet, rows are seeded from the month's budget and each
// remainder becomes the previous month's budget minus executed. Executed
// always comes from the current payments. Construction is split into
// ordinary and extraordinary rows; every other area is ordinary.
func BuildVariance(ctx context.Context, in VarianceInput) []domain.VarianceRow {
	log := logger.FromContext(ctx)
	month := fiscal.FirstOfMonth(in.Month)

	base := rowsForMonth(in.Stored, month)
	if len(base) == 0 {
		base = seedFromBudget(in.Budget, month)
		carried := carryForward(base, rowsForMonth(in.Stored, fiscal.PreviousMonth(month)))
		log.Info().
			Str("mes", month.String()).
			Int("seeded", len(base)).
			Int("carried", carried).
			Msg("New reporting month, remainders carried forward")
	}

	acc := map[varianceKey]*varianceAcc{}
	var order []varianceKey
	get := func(typ, area string) *varianceAcc {
		k := varianceKey{typ, unificationKey(area)}
		a, ok := acc[k]
		if !ok {
			a = &varianceAcc{}
			acc[k] = a
			order = append(order, k)
		}
		if !contains(a.spellings, area) {
			a.spellings = append(a.spellings, area)
		}
		return a
	}

	for _, r := range base {
		name, ok := Canonicalize(r.Area)
		if !ok {
			continue
		}
		typ := domain.VarianceOrdinary
		if IsConstruction(name) {
			typ = constructionType(name, r.Type)
		}
		a := get(typ, name)
		a.remainder += r.Remainder
		a.budget += r.Budget
	}

	for _, e := range in.Executed {
		name, ok := Canonicalize(e.Area)
		if !ok {
			continue
		}
		if IsConstruction(name) {
			if e.Ordinary > 0 {
				get(domain.VarianceOrdinary, domain.AreaConstruction).executed += e.Ordinary
			}
			if e.Extra > 0 {
				get(domain.VarianceExtraordinary, domain.AreaConstruction).executed += e.Extra
			}
			continue
		}
		get(domain.VarianceOrdinary, name).executed += e.Ordinary + e.Extra
	}

	rows := make([]domain.VarianceRow, 0, len(order))
	for _, k := range order {
		a := acc[k]
		row := domain.VarianceRow{
			Month:      month.String(),
			Area:       standardName(k.area, a.spellings),
			Type:       k.typ,
			Remainder:  a.remainder,
			Budget:     a.budget,
			Executed:   a.executed,
			ExecutedAt: in.RunAt,
		}
		row.Recompute()
		row.ID = identity.VarianceID(&row.Remainder, &row.Budget, &row.Executed)
		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if ri, rj := typeRank(rows[i].Type), typeRank(rows[j].Type); ri != rj {
			return ri < rj
		}
		return rows[i].Area < rows[j].Area
	})
	return rows
}

// constructionType decides the CAPEX type of a construction budget row. The
// standard name is what this service stores, so its recorded type is kept;
// raw budget spellings are extraordinary when accented.
func constructionType(name, recorded string) string {
	if strings.TrimSpace(name) == domain.AreaConstruction &&
		(recorded == domain.VarianceOrdinary || recorded == domain.VarianceExtraordinary) {
		return recorded
	}
	if HasDiacritic(name) {
		return domain.VarianceExtraordinary
	}
	return domain.VarianceOrdinary
}

func rowsForMonth(rows []domain.VarianceRow, month civil.Date) []domain.VarianceRow {
	var out []domain.VarianceRow
	for _, r := range rows {
		if d, ok := fiscal.ParseDate(r.Month); ok && fiscal.FirstOfMonth(d) == month {
			out = append(out, r)
		}
	}
	return out
}

func seedFromBudget(budget []domain.BudgetRow, month civil.Date) []domain.VarianceRow {
	var out []domain.VarianceRow
	for _, b := range BudgetFor(budget, month.String()) {
		out = append(out, domain.VarianceRow{
			Month:  month.String(),
			Area:   b.Area,
			Type:   b.Type,
			Budget: b.Amount,
		})
	}
	return out
}

// carryForward sets each row's remainder to the matching previous-month
// budget minus executed. Rows without a previous match keep their
// remainder. It returns the number of rows updated.
func carryForward(rows, previous []domain.VarianceRow) int {
	prev := map[varianceKey]domain.VarianceRow{}
	for _, p := range previous {
		if name, ok := Canonicalize(p.Area); ok {
			prev[varianceKey{p.Type, unificationKey(name)}] = p
		}
	}

	n := 0
	for i := range rows {
		name, ok := Canonicalize(rows[i].Area)
		if !ok {
			continue
		}
		if p, found := prev[varianceKey{rows[i].Type, unificationKey(name)}]; found {
			rows[i].Remainder = p.Budget - p.Executed
			n++
		}
	}
	return n
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}
