// Package columns turns loosely shaped spreadsheet rows into typed column
// mappings. Header detection and name matching live here so the enrichment
// rules never look columns up by name.
package columns

import "strings"

// Table is a sheet read as strings: one header row and the data rows below
// it. Rows may be shorter than the header.
type Table struct {
	Header []string
	Rows   [][]string
}

// NewTable splits raw sheet rows at headerRow. Header cells are trimmed.
func NewTable(rows [][]string, headerRow int) Table {
	if headerRow < 0 || headerRow >= len(rows) {
		return Table{}
	}
	header := make([]string, len(rows[headerRow]))
	for i, h := range rows[headerRow] {
		header[i] = strings.TrimSpace(h)
	}
	return Table{Header: header, Rows: rows[headerRow+1:]}
}

// Cell returns the trimmed value at (row, col), or "" when col is -1 or the
// row is short.
func (t Table) Cell(row, col int) string {
	if row < 0 || row >= len(t.Rows) || col < 0 || col >= len(t.Rows[row]) {
		return ""
	}
	return strings.TrimSpace(t.Rows[row][col])
}

// Index returns the position of the header named name, or -1.
func (t Table) Index(name string) int {
	for i, h := range t.Header {
		if h == name {
			return i
		}
	}
	return -1
}

// IsBlankRow reports whether every cell of row is empty.
func (t Table) IsBlankRow(row int) bool {
	for _, c := range t.Rows[row] {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// CriticalColumns are the names a header row must mostly contain.
var CriticalColumns = []string{"Monto", "Moneda", "Proveedor"}

// DetectHeaderRow returns the first offset in [0, maxSkip) whose row looks
// like the header: no empty or "unnamed" cell and at least two of critical
// found by case-insensitive substring. It returns 0 when no row qualifies.
func DetectHeaderRow(rows [][]string, critical []string, maxSkip int) int {
	for skip := 0; skip < maxSkip && skip < len(rows); skip++ {
		header := rows[skip]
		if len(header) == 0 || hasUnnamed(header) {
			continue
		}

		found := 0
		for _, name := range critical {
			want := strings.ToLower(name)
			for _, h := range header {
				if strings.Contains(strings.ToLower(h), want) {
					found++
					break
				}
			}
		}
		if found >= 2 {
			return skip
		}
	}
	return 0
}

func hasUnnamed(header []string) bool {
	for _, h := range header {
		h = strings.TrimSpace(h)
		if h == "" || strings.Contains(strings.ToLower(h), "unnamed") {
			return true
		}
	}
	return false
}

func squash(s string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", ""))
}
