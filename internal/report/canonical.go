package report

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/domain"
)

// Canonical area names.
const (
	AreaRetail      = "Dirección de Retail"
	AreaIT          = "VP Tecnología de la Información"
	constructionKey = "DIR CONSTRUCCION Y PROYECTOS"
	retailKey       = "DIRECCION DE RETAIL"
)

// Fold upper-cases s and strips its diacritics.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, strings.ToUpper(strings.TrimSpace(s)))
	if err != nil {
		return strings.ToUpper(strings.TrimSpace(s))
	}
	return out
}

// HasDiacritic reports whether s carries any combining mark once
// decomposed.
func HasDiacritic(s string) bool {
	for _, r := range norm.NFD.String(s) {
		if unicode.Is(unicode.Mn, r) {
			return true
		}
	}
	return false
}

// canonicalRule renames or drops the areas whose folded name matches.
type canonicalRule struct {
	allOf   []string
	exactly []string
	name    string // empty drops the area
}

func (r canonicalRule) matches(folded string) bool {
	for _, e := range r.exactly {
		if folded == e {
			return true
		}
	}
	if len(r.allOf) == 0 {
		return false
	}
	for _, w := range r.allOf {
		if !strings.Contains(folded, w) {
			return false
		}
	}
	return true
}

// canonicalRules are applied in order; the first match wins.
var canonicalRules = []canonicalRule{
	{allOf: []string{"PRESIDENCIA"}, name: AreaRetail},
	{allOf: []string{"DIRECCION", "RETAIL"}, name: AreaRetail},
	{exactly: []string{"TI", "T.I.", "T.I"}, name: AreaIT},
	{allOf: []string{"TECNOLOGIA", "INFORMACION"}, name: AreaIT},
	{allOf: []string{"IMPORTACION"}},
	{allOf: []string{"SERVICIOS"}},
}

// Canonicalize maps an area label to its reporting name. ok is false for
// areas excluded from the variance table.
func Canonicalize(area string) (name string, ok bool) {
	trimmed := strings.TrimSpace(area)
	folded := Fold(trimmed)
	for _, r := range canonicalRules {
		if r.matches(folded) {
			return r.name, r.name != ""
		}
	}
	return trimmed, trimmed != ""
}

// IsConstruction reports whether area is a spelling of the construction and
// projects direction.
func IsConstruction(area string) bool {
	f := Fold(area)
	return strings.Contains(f, "DIR CONSTRUCCION") && strings.Contains(f, "PROYECTOS")
}

// unificationKey groups spellings of the same area within a CAPEX type.
func unificationKey(area string) string {
	f := Fold(area)
	switch {
	case strings.Contains(f, "CONSTRUCCION") && strings.Contains(f, "PROYECTOS"):
		return constructionKey
	case strings.Contains(f, "DIRECCION") && strings.Contains(f, "RETAIL"):
		return retailKey
	}
	return f
}

func standardName(key string, spellings []string) string {
	switch key {
	case constructionKey:
		return domain.AreaConstruction
	case retailKey:
		return AreaRetail
	}
	for _, s := range spellings {
		if HasDiacritic(s) {
			return s
		}
	}
	return spellings[0]
}
