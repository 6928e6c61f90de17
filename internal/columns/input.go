package columns

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingColumns is returned when a payment report lacks a critical
// column.
var ErrMissingColumns = errors.New("missing critical columns")

// Field is a logical column of the payment report.
type Field int

// Payment report fields, in the order of the column contract.
const (
	InvoiceNumber Field = iota
	PurchaseOrder
	DocumentType
	BatchName
	Supplier
	TaxID
	DocumentDate
	Store
	Branch
	Amount
	Currency
	DueDate
	Account
	AccountID
	PaymentMethodCode
	IndependentPayment
	Priority
	CapexExt
	CapexOrd
	CapexAdmin
	CreatedDate
	Requester

	fieldCount
)

// InputHeaders are the expected header names indexed by Field.
var InputHeaders = [fieldCount]string{
	"Numero de Factura", "Numero de OC", "Tipo Factura", "Nombre Lote",
	"Proveedor", "RIF", "Fecha Documento", "Tienda", "Sucursal",
	"Monto", "Moneda", "Fecha Vencimiento", "Cuenta", "Id Cta",
	"Método de Pago", "Pago Independiente", "Prioridad",
	"Monto CAPEX EXT", "Monto CAPEX ORD", "Monto CADM",
	"Fecha Creación", "Solicitante",
}

var criticalFields = []Field{Amount, Currency, Supplier}

// ignoredHeaders are present in some exports and never mapped.
var ignoredHeaders = map[string]bool{
	"Banco":            true,
	"Proveedor Remito": true,
}

func (f Field) String() string {
	if f < 0 || f >= fieldCount {
		return fmt.Sprintf("Field(%d)", int(f))
	}
	return InputHeaders[f]
}

// InputMapping maps every Field to a column index, -1 when absent.
type InputMapping struct {
	cols        [fieldCount]int
	PaymentDate int
}

// Col returns the column index of f, or -1.
func (m InputMapping) Col(f Field) int {
	if f < 0 || f >= fieldCount {
		return -1
	}
	return m.cols[f]
}

// Missing lists the fields that did not resolve.
func (m InputMapping) Missing() []Field {
	var out []Field
	for f := Field(0); f < fieldCount; f++ {
		if m.cols[f] < 0 {
			out = append(out, f)
		}
	}
	return out
}

// ResolveInput maps the payment report header. Exact names win; remaining
// fields fall back to a space-insensitive substring match over the columns
// not taken yet. A missing critical column is an error wrapping
// ErrMissingColumns.
func ResolveInput(header []string) (InputMapping, error) {
	var m InputMapping
	taken := make([]bool, len(header))
	for i, h := range header {
		if ignoredHeaders[strings.TrimSpace(h)] {
			taken[i] = true
		}
	}

	for f := Field(0); f < fieldCount; f++ {
		m.cols[f] = -1
		for i, h := range header {
			if !taken[i] && strings.TrimSpace(h) == InputHeaders[f] {
				m.cols[f] = i
				taken[i] = true
				break
			}
		}
	}

	for f := Field(0); f < fieldCount; f++ {
		if m.cols[f] >= 0 {
			continue
		}
		want := squash(InputHeaders[f])
		for i, h := range header {
			if !taken[i] && strings.Contains(squash(h), want) {
				m.cols[f] = i
				taken[i] = true
				break
			}
		}
	}

	m.PaymentDate = -1
	for i, h := range header {
		lower := strings.ToLower(h)
		if strings.Contains(lower, "fecha") && strings.Contains(lower, "pago") {
			m.PaymentDate = i
			break
		}
	}

	var missing []string
	for _, f := range criticalFields {
		if m.cols[f] < 0 {
			missing = append(missing, f.String())
		}
	}
	if len(missing) > 0 {
		return m, fmt.Errorf("ResolveInput: %w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}
	return m, nil
}
