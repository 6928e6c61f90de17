package domain

import "time"

// Currency codes handled by the Venezuela pipeline.
const (
	CurrencyVES = "VES"
	CurrencyVEF = "VEF"
	CurrencyUSD = "USD"
	CurrencyEUR = "EUR"
	CurrencyCOP = "COP"
)

// Category classifies how a payment splits between CAPEX and OPEX.
type Category string

const (
	CategoryCAPEX Category = "CAPEX"
	CategoryOPEX  Category = "OPEX"
	CategoryMixed Category = "MIXTA"
)

// CapexType classifies how the CAPEX part splits between ordinary and
// extraordinary budgets.
type CapexType string

const (
	CapexOrdinary      CapexType = "ORD"
	CapexExtraordinary CapexType = "EXT"
	CapexMixed         CapexType = "MIXTA"
	CapexNotApplicable CapexType = "N/A"
)

// Sentinel values surfaced in the output for manual review.
const (
	AreaAutopago        = "AUTOPAGO"
	AreaServicios       = "SERVICIOS"
	AreaNoSheet         = "SIN_GOOGLE_SHEET"
	AreaNotFound        = "AREA_NO_ENCONTRADA"
	AreaConstruction    = "DIR CONSTRUCCIÓN Y PROYECTOS"
	NoAbsoluteReport    = "SIN_REPORTE_ABSOLUTO"
	InvoiceNotFound     = "FACTURA_NO_ENCONTRADA"
	NoStore             = "SIN_TIENDA"
	NoCostCenter        = "SIN_CECO"
	NoProject           = "SIN_PROYECTO"
	NoDescription       = "SIN_DESCRIPCION"
	NoFiscalYear        = "SIN_AÑO_FISCAL"
	PaymentCurrencyNone = "NA"
)

// PaymentRecord is one row of the payment report.
type PaymentRecord struct {
	InvoiceNumber      string
	PurchaseOrder      string
	DocumentType       string
	BatchName          string
	Supplier           string
	TaxID              string
	DocumentDate       string
	Store              string
	Branch             string
	Amount             float64
	Currency           string
	DueDate            string
	Account            string
	AccountID          string
	PaymentMethodCode  string
	IndependentPayment float64
	Priority           int
	CapexExt           float64
	CapexOrd           float64
	CapexAdmin         float64
	CreatedDate        string
	Requester          string

	// PaymentDate comes from an optional "fecha ... pago" column and is empty
	// when the report has none.
	PaymentDate string
}

// InvoiceInfo is the per-invoice data taken from the absolute report.
type InvoiceInfo struct {
	Store       string
	CostCenter  string
	Project     string
	ReceiptDate string
	Description string
}

// EnrichedRecord is a PaymentRecord plus every derived column.
type EnrichedRecord struct {
	PaymentRecord

	ID string

	USDAmount       float64
	Category        Category
	CapexPayable    float64
	OpexPayable     float64
	Validation      float64
	PaymentCurrency string
	PaymentMethod   string

	VendorRate         float64
	ReferenceRate      float64
	ConversionVES      float64
	ConversionVendor   float64
	RealConverted      float64
	RealMonthConverted float64

	Week       int
	MonthName  string
	FiscalYear string

	CapexType      CapexType
	OrdinaryAmount float64
	ExtraAmount    float64
	PaymentWeekday string

	Invoice InvoiceInfo
	Area    string
}

// BudgetRow is one entry of the monthly budget assigned to an area.
type BudgetRow struct {
	FiscalYear string
	Month      string // YYYY-MM-DD, first day of the month
	Type       string
	Area       string
	Amount     float64
}

// Variance types.
const (
	VarianceOrdinary      = "CAPEX ORDINARIO"
	VarianceExtraordinary = "CAPEX EXTRAORDINARIO"
)

// VarianceRow is the budget-versus-executed result of one area for a month.
type VarianceRow struct {
	ID         string
	Month      string // YYYY-MM-DD, first day of the month
	Area       string
	Type       string
	Remainder  float64
	Budget     float64
	Executed   float64
	Difference float64
	ExecutedAt time.Time
}

// Recompute sets Difference from the other amounts.
func (v *VarianceRow) Recompute() {
	v.Difference = v.Executed - v.Budget + v.Remainder
}
