package fiscal

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// FiscalYearStartMonth is the first month of the August-to-July fiscal year.
const FiscalYearStartMonth = time.August

var monthNames = [12]string{
	"ENERO", "FEBRERO", "MARZO", "ABRIL", "MAYO", "JUNIO",
	"JULIO", "AGOSTO", "SEPTIEMBRE", "OCTUBRE", "NOVIEMBRE", "DICIEMBRE",
}

var monthAbbrevs = [12]string{
	"ENE", "FEB", "MAR", "ABR", "MAY", "JUN", "JUL", "AGO", "SEP", "OCT", "NOV", "DIC",
}

var englishAbbrevs = [12]string{
	"JAN", "FEB", "MAR", "APR", "MAY", "JUN", "JUL", "AUG", "SEP", "OCT", "NOV", "DEC",
}

// Calendar fixes the run-wide reference dates. Every record of a run shares
// the same week, month and fiscal year, derived from the reference Friday.
type Calendar struct {
	Today  civil.Date
	Friday civil.Date
}

// NewCalendar builds the calendar for a run executed on today.
func NewCalendar(today civil.Date) Calendar {
	return Calendar{Today: today, Friday: ReferenceFriday(today)}
}

// Week returns the payment week of the reference Friday.
func (c Calendar) Week() int {
	return WeekOfMonth(c.Friday, c.Today)
}

// MonthName returns the Spanish month name of the reference Friday.
func (c Calendar) MonthName() string {
	return MonthName(c.Friday.Month)
}

// FiscalYear returns the fiscal year label of the reference Friday.
func (c Calendar) FiscalYear() string {
	return FiscalYear(c.Friday)
}

// Weekday returns the Monday-based weekday index (Monday=0 ... Sunday=6).
func Weekday(d civil.Date) int {
	return (int(d.In(time.UTC).Weekday()) + 6) % 7
}

// ReferenceFriday returns the last Friday relative to today. From Monday to
// Friday it is the previous week's Friday (today excluded); on Saturday and
// Sunday it is the Friday of the current week.
func ReferenceFriday(today civil.Date) civil.Date {
	wd := Weekday(today)
	if wd <= 4 {
		return today.AddDays(-(wd + 3))
	}
	return today.AddDays(-(wd - 4))
}

// WeekOfMonth numbers the weeks of friday's month starting at the Monday of
// the week containing the 1st. A Friday on days 22-28 is always week 4, and
// so is a late Friday that belongs to a month before today's.
func WeekOfMonth(friday, today civil.Date) int {
	first := civil.Date{Year: friday.Year, Month: friday.Month, Day: 1}
	monday := first.AddDays(-Weekday(first))
	week := friday.DaysSince(monday)/7 + 1

	if monthIndex(friday) < monthIndex(today) && friday.Day >= 22 {
		week = 4
	}
	if friday.Day >= 22 && friday.Day <= 28 {
		week = 4
	}
	return week
}

func monthIndex(d civil.Date) int {
	return d.Year*12 + int(d.Month)
}

// MonthName returns the upper-case Spanish name of m.
func MonthName(m time.Month) string {
	if m < time.January || m > time.December {
		return ""
	}
	return monthNames[m-1]
}

// MonthAbbrev returns the three-letter Spanish abbreviation of m.
func MonthAbbrev(m time.Month) string {
	if m < time.January || m > time.December {
		return ""
	}
	return monthAbbrevs[m-1]
}

// MonthFromName resolves a Spanish month name (ENERO...) to its month.
func MonthFromName(name string) (time.Month, bool) {
	name = strings.ToUpper(strings.TrimSpace(name))
	for i, n := range monthNames {
		if n == name {
			return time.Month(i + 1), true
		}
	}
	return 0, false
}

// FiscalYear returns "YYYY-YYYY" for the August-to-July year containing d.
func FiscalYear(d civil.Date) string {
	start := StartYear(d)
	return fmt.Sprintf("%d-%d", start, start+1)
}

// StartYear returns the calendar year in which d's fiscal year starts.
func StartYear(d civil.Date) int {
	if d.Month >= FiscalYearStartMonth {
		return d.Year
	}
	return d.Year - 1
}

// ParseFiscalYear splits a "YYYY-YYYY" label into its two years.
func ParseFiscalYear(label string) (int, int, error) {
	parts := strings.Split(strings.TrimSpace(label), "-")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("ParseFiscalYear: invalid label %q", label)
	}
	start, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("ParseFiscalYear: start year: %w", err)
	}
	end, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("ParseFiscalYear: end year: %w", err)
	}
	return start, end, nil
}

// Bounds returns the first and last day of the fiscal year that starts in
// startYear (August 1st to July 31st).
func Bounds(startYear int) (civil.Date, civil.Date) {
	return civil.Date{Year: startYear, Month: FiscalYearStartMonth, Day: 1},
		civil.Date{Year: startYear + 1, Month: time.July, Day: 31}
}

// VarianceWindow returns the half-open execution window [from, to) read
// for the variance history of the fiscal year label. It opens on the first
// day of the month before the fiscal year, so August can carry July's
// remainder forward.
func VarianceWindow(label string) (civil.Date, civil.Date, error) {
	start, _, err := ParseFiscalYear(label)
	if err != nil {
		return civil.Date{}, civil.Date{}, fmt.Errorf("VarianceWindow: %w", err)
	}
	first, last := Bounds(start)
	return PreviousMonth(first), last.AddDays(1), nil
}

// MonthLabel formats the compact "MON-YY" label used by the budget tables,
// e.g. NOV-25.
func MonthLabel(d civil.Date) string {
	return fmt.Sprintf("%s-%02d", MonthAbbrev(d.Month), d.Year%100)
}

// ParseMonthLabel parses "MON-YY" (Spanish or English abbreviation) into the
// first day of that month.
func ParseMonthLabel(label string) (civil.Date, error) {
	parts := strings.Split(strings.ToUpper(strings.TrimSpace(label)), "-")
	if len(parts) != 2 {
		return civil.Date{}, fmt.Errorf("ParseMonthLabel: invalid label %q", label)
	}
	month := abbrevMonth(parts[0])
	if month == 0 {
		return civil.Date{}, fmt.Errorf("ParseMonthLabel: unknown month %q", parts[0])
	}
	year, err := strconv.Atoi(parts[1])
	if err != nil {
		return civil.Date{}, fmt.Errorf("ParseMonthLabel: year: %w", err)
	}
	if year < 100 {
		year += 2000
	}
	return civil.Date{Year: year, Month: month, Day: 1}, nil
}

func abbrevMonth(s string) time.Month {
	for i := range monthAbbrevs {
		if monthAbbrevs[i] == s || englishAbbrevs[i] == s {
			return time.Month(i + 1)
		}
	}
	return 0
}

// FirstOfMonth returns the first day of d's month.
func FirstOfMonth(d civil.Date) civil.Date {
	return civil.Date{Year: d.Year, Month: d.Month, Day: 1}
}

// PreviousMonth returns the first day of the month before d's month.
func PreviousMonth(d civil.Date) civil.Date {
	if d.Month == time.January {
		return civil.Date{Year: d.Year - 1, Month: time.December, Day: 1}
	}
	return civil.Date{Year: d.Year, Month: d.Month - 1, Day: 1}
}

// MondayOf returns the Monday of d's week.
func MondayOf(d civil.Date) civil.Date {
	return d.AddDays(-Weekday(d))
}
