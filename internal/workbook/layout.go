package workbook

import (
	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/columns"
	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/domain"
)

// Sheet names of the consolidated workbook.
const (
	SheetBatch    = "BOSQUETO"
	SheetDetail   = "DETALLE CORREGIDO"
	SheetPaid     = "CAPEX PAGADO POR RECIBO"
	SheetBudget   = "Presupuesto Mensual"
	defaultSheet  = "Sheet1"
	maxColWidth   = 50
	varianceStart = 25
)

// ComputedHeaders follow the input columns in every record sheet.
var ComputedHeaders = []string{
	"Monto USD", "CATEGORIA", "MONTO A PAGAR CAPEX", "MONEDA DE PAGO",
	"FECHA PAGO", "TC FTD", "TC BCV", "CONVERSION VES", "CONVERSION TC FTD",
	"REAL CONVERTIDO", "REAL MES CONVERTIDO", "MONTO A PAGAR OPEX",
	"VALIDACION", "METODO DE PAGO", "SEMANA", "MES DE PAGO", "TIPO DE CAPEX",
	"MONTO ORD", "MONTO EXT", "DIA DE PAGO", "TIENDA_LOOKUP", "CECO",
	"PROYECTO", "AREA", "FECHA RECIBO", "DESCRIPCIÓN", "AÑO FISCAL",
}

// RecordHeaders returns the 22 input headers followed by the computed ones.
func RecordHeaders() []string {
	out := make([]string, 0, len(columns.InputHeaders)+len(ComputedHeaders))
	out = append(out, columns.InputHeaders[:]...)
	return append(out, ComputedHeaders...)
}

// recordValues lays r out in RecordHeaders order.
func recordValues(r domain.EnrichedRecord) []interface{} {
	return []interface{}{
		r.InvoiceNumber, r.PurchaseOrder, r.DocumentType, r.BatchName,
		r.Supplier, r.TaxID, r.DocumentDate, r.Store, r.Branch,
		r.Amount, r.Currency, r.DueDate, r.Account, r.AccountID,
		r.PaymentMethodCode, r.IndependentPayment, r.Priority,
		r.CapexExt, r.CapexOrd, r.CapexAdmin, r.CreatedDate, r.Requester,

		r.USDAmount, string(r.Category), r.CapexPayable, r.PaymentCurrency,
		r.PaymentDate, r.VendorRate, r.ReferenceRate, r.ConversionVES, r.ConversionVendor,
		r.RealConverted, r.RealMonthConverted, r.OpexPayable,
		r.Validation, r.PaymentMethod, r.Week, r.MonthName, string(r.CapexType),
		r.OrdinaryAmount, r.ExtraAmount, r.PaymentWeekday, r.Invoice.Store, r.Invoice.CostCenter,
		r.Invoice.Project, r.Area, r.Invoice.ReceiptDate, r.Invoice.Description, r.FiscalYear,
	}
}
