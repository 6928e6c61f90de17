package enrich

import "github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/domain"

// Payment weekdays.
const (
	Thursday = "JUEVES"
	Friday   = "VIERNES"
)

// priorityCapexTarget says which CAPEX bucket receives the full amount when
// a row arrives with neither CAPEX column filled.
var priorityCapexTarget = map[int]domain.CapexType{
	60: domain.CapexOrdinary,      // BNC USD retiro
	70: domain.CapexExtraordinary, // BNC USD retiro
	71: domain.CapexOrdinary,      // Panamericano EUR
	72: domain.CapexExtraordinary, // Panamericano EUR
	73: domain.CapexOrdinary,      // Panamericano USD
	74: domain.CapexExtraordinary, // Panamericano USD
	75: domain.CapexOrdinary,      // extranjero USD
	76: domain.CapexExtraordinary, // extranjero USD
	77: domain.CapexOrdinary,      // extranjero EUR
	78: domain.CapexOrdinary,      // pagos Bs
	79: domain.CapexExtraordinary, // pagos Bs
	91: domain.CapexOrdinary,
}

// AdjustCapexByPriority fills the CAPEX bucket implied by the priority code
// when both CAPEX amounts are zero. It reports whether the record changed.
func AdjustCapexByPriority(r *domain.PaymentRecord) bool {
	if r.CapexExt != 0 || r.CapexOrd != 0 {
		return false
	}
	switch priorityCapexTarget[r.Priority] {
	case domain.CapexOrdinary:
		r.CapexOrd, r.CapexExt = r.Amount, 0
	case domain.CapexExtraordinary:
		r.CapexExt, r.CapexOrd = r.Amount, 0
	default:
		return false
	}
	return true
}

// PaymentCurrency is the currency the treasury pays the priority code in.
func PaymentCurrency(priority int) string {
	switch priority {
	case 60, 69, 70, 73, 74, 75, 76:
		return domain.CurrencyUSD
	case 71, 72, 77:
		return domain.CurrencyEUR
	case 78, 79, 80, 91:
		return domain.CurrencyVES
	}
	return domain.PaymentCurrencyNone
}

// PaymentMethod groups priority codes by payment rail.
func PaymentMethod(priority int) string {
	switch priority {
	case 78, 79, 80:
		return domain.CurrencyVES
	case 71, 72, 77:
		return domain.CurrencyEUR
	}
	return domain.CurrencyUSD
}

// PaymentWeekday is the day of the week the priority code is paid on.
func PaymentWeekday(priority int) string {
	switch priority {
	case 78, 79, 80:
		return Thursday
	}
	return Friday
}

// Split holds the CAPEX/OPEX breakdown of a USD amount.
type Split struct {
	Capex      float64
	Opex       float64
	Category   domain.Category
	CapexType  domain.CapexType
	Ordinary   float64
	Extra      float64
	Validation float64
}

// SplitAmounts divides usd between CAPEX and OPEX in the proportions of the
// EXT, ORD and administrative amounts, then divides the CAPEX part between
// the ordinary and extraordinary budgets. Zero denominators give 0.
func SplitAmounts(usd, ext, ord, admin float64) Split {
	var s Split

	if ext == 0 && ord == 0 {
		s.Opex = usd
	} else if total := ext + ord + admin; total != 0 {
		s.Capex = (ext + ord) / total * usd
		s.Opex = admin / total * usd
	}

	switch {
	case s.Capex != 0 && s.Opex != 0:
		s.Category = domain.CategoryMixed
	case s.Capex != 0:
		s.Category = domain.CategoryCAPEX
	default:
		s.Category = domain.CategoryOPEX
	}
	s.Validation = usd - s.Capex - s.Opex

	switch {
	case ext != 0 && ord != 0:
		s.CapexType = domain.CapexMixed
		if ext+ord != 0 {
			s.Ordinary = s.Capex * ord / (ext + ord)
			s.Extra = s.Capex * ext / (ext + ord)
		}
	case ext != 0:
		s.CapexType = domain.CapexExtraordinary
		s.Extra = s.Capex
	case ord != 0:
		s.CapexType = domain.CapexOrdinary
		s.Ordinary = s.Capex
	default:
		s.CapexType = domain.CapexNotApplicable
	}
	return s
}

// Conversion holds the bolivar conversions of the CAPEX amount.
type Conversion struct {
	VES       float64
	Vendor    float64
	Real      float64
	RealMonth float64
}

// Convert values a CAPEX amount paid in paymentCurrency. Bolivar payments
// go through the BCV rate and back to dollars at the vendor rate; anything
// else keeps the CAPEX amount.
func Convert(capex float64, paymentCurrency string, bcv, vendor float64) Conversion {
	var c Conversion
	isVES := paymentCurrency == domain.CurrencyVES
	if isVES && bcv != 0 {
		c.VES = capex * bcv
	}
	if c.VES != 0 && vendor != 0 {
		c.Vendor = c.VES / vendor
	}
	if isVES {
		c.Real = c.Vendor
	} else {
		c.Real = capex
	}
	c.RealMonth = c.Real
	return c
}
