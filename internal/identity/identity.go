// Package identity derives the content hashes used as natural keys in the
// warehouse tables.
package identity

import (
	"crypto/sha256"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// PaymentID hashes a payment by invoice number and supplier. Both values are
// trimmed and concatenated without a separator.
func PaymentID(invoice, supplier string) string {
	return digest(strings.TrimSpace(invoice) + strings.TrimSpace(supplier))
}

// VarianceID hashes a budget variance row by its remainder, budget and
// executed amounts joined by "|". A nil amount hashes as "0"; integral amounts
// keep a trailing ".0" so keys match the rows already stored.
func VarianceID(remainder, budget, executed *float64) string {
	return digest(formatAmount(remainder) + "|" + formatAmount(budget) + "|" + formatAmount(executed))
}

// formatAmount renders the shortest round-trip form of v with the same
// notation thresholds as the stored keys: exponent form below 1e-4 and from
// 1e16 up, e.g. 1e-05 and 1e+16.
func formatAmount(v *float64) string {
	if v == nil {
		return "0"
	}
	f := *v
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	if abs := math.Abs(f); abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}
	if f == math.Trunc(f) {
		return strconv.FormatFloat(f, 'f', 1, 64)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func digest(s string) string {
	return fmt.Sprintf("%x", sha256.Sum256([]byte(s)))
}
