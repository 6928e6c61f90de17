// Package lookup holds the read-only tables that enrichment resolves
// requesters and invoices against.
package lookup

import (
	"strings"

	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/domain"
)

// AreaPair is one row of the requester-to-area sheet.
type AreaPair struct {
	Requester string
	Area      string
}

// AreaLookup maps upper-case requester names to their area. Iteration order
// is the order rows were first seen, which makes partial matches
// deterministic.
type AreaLookup struct {
	keys  []string
	areas map[string]string
}

// NewAreaLookup builds the lookup. Keys are trimmed and upper-cased, rows
// with a blank requester or area are dropped and the first occurrence of a
// requester wins.
func NewAreaLookup(pairs []AreaPair) *AreaLookup {
	l := &AreaLookup{areas: make(map[string]string, len(pairs))}
	for _, p := range pairs {
		key := strings.ToUpper(strings.TrimSpace(p.Requester))
		area := strings.TrimSpace(p.Area)
		if isBlank(key) || isBlank(area) {
			continue
		}
		if _, seen := l.areas[key]; seen {
			continue
		}
		l.keys = append(l.keys, key)
		l.areas[key] = area
	}
	return l
}

// Len returns the number of requesters.
func (l *AreaLookup) Len() int {
	if l == nil {
		return 0
	}
	return len(l.keys)
}

// Resolve returns the area of requester, applying the project exceptions:
// project A048 is always AUTOPAGO, and an IT area paying a VENE project is
// booked to construction.
func (l *AreaLookup) Resolve(requester, project string) string {
	project = strings.ToUpper(strings.TrimSpace(project))
	if project == "A048" {
		return domain.AreaAutopago
	}

	requester = strings.TrimSpace(requester)
	if isBlank(requester) || requester == "0" {
		return domain.AreaServicios
	}
	if l.Len() == 0 {
		return domain.AreaNoSheet
	}

	area, ok := l.match(strings.ToUpper(requester))
	if !ok {
		return domain.AreaNotFound
	}
	if project == "VENE" && isITArea(area) {
		return domain.AreaConstruction
	}
	return area
}

func (l *AreaLookup) match(name string) (string, bool) {
	if area, ok := l.areas[name]; ok {
		return area, true
	}

	words := strings.Fields(name)
	for _, key := range l.keys {
		if strings.Contains(key, name) || strings.Contains(name, key) {
			return l.areas[key], true
		}
		keyWords := strings.Fields(key)
		if len(keyWords) == 0 || len(words) == 0 {
			continue
		}
		if contains(words, keyWords[len(keyWords)-1]) || contains(keyWords, words[len(words)-1]) {
			return l.areas[key], true
		}
	}
	return "", false
}

func isITArea(area string) bool {
	a := strings.ToUpper(area)
	for _, kw := range []string{"TI", "TECNOLOGIA", "TECNOLOGÍA", "INFORMACION", "INFORMACIÓN"} {
		if strings.Contains(a, kw) {
			return true
		}
	}
	return false
}

func contains(words []string, w string) bool {
	for _, x := range words {
		if x == w {
			return true
		}
	}
	return false
}

func isBlank(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "nan", "none":
		return true
	}
	return false
}
