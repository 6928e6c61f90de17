package fiscal

import (
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/xuri/excelize/v2"
)

// dateLayouts are tried in order after ISO dates. Day-first layouts win over
// month-first ones for ambiguous values.
var dateLayouts = []string{
	"02/01/2006",
	"2/1/2006",
	"01/02/2006",
	"02-01-2006",
	"01-02-06",
	"1-2-06",
	"2006/01/02",
}

// ParseDate reads a date written the way spreadsheet exports and rate
// services write them. Any time part after 'T' or a space is ignored. Plain
// numbers are read as spreadsheet serial dates.
func ParseDate(raw string) (civil.Date, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return civil.Date{}, false
	}
	if i := strings.IndexAny(s, "T "); i > 0 {
		s = s[:i]
	}

	if d, err := civil.ParseDate(s); err == nil {
		return d, true
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return civil.DateOf(t), true
		}
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 0 {
		if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
			return civil.DateOf(t), true
		}
	}
	return civil.Date{}, false
}

// NormalizeDate returns raw as YYYY-MM-DD, or "" when it is not a date.
func NormalizeDate(raw string) string {
	d, ok := ParseDate(raw)
	if !ok {
		return ""
	}
	return d.String()
}
