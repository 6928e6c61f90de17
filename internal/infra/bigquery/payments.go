package bigquery

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/bigquery"

	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/domain"
	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/fiscal"
	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/logger"
)

const (
	paymentPrefix   = "vzla_capex_pago_"
	paymentIDColumn = paymentPrefix + "id"
	countryName     = "Venezuela"
)

// paymentColumn maps one warehouse column to an EnrichedRecord field.
type paymentColumn struct {
	name string
	get  func(r *domain.EnrichedRecord) interface{}
	set  func(r *domain.EnrichedRecord, v bigquery.Value)
}

func str(name string, field func(r *domain.EnrichedRecord) *string) paymentColumn {
	return paymentColumn{
		name: paymentPrefix + name,
		get:  func(r *domain.EnrichedRecord) interface{} { return *field(r) },
		set:  func(r *domain.EnrichedRecord, v bigquery.Value) { *field(r) = valueString(v) },
	}
}

func date(name string, field func(r *domain.EnrichedRecord) *string) paymentColumn {
	c := str(name, field)
	c.set = func(r *domain.EnrichedRecord, v bigquery.Value) { *field(r) = valueDate(v) }
	return c
}

func num(name string, field func(r *domain.EnrichedRecord) *float64) paymentColumn {
	return paymentColumn{
		name: paymentPrefix + name,
		get:  func(r *domain.EnrichedRecord) interface{} { return *field(r) },
		set:  func(r *domain.EnrichedRecord, v bigquery.Value) { *field(r) = valueFloat(v) },
	}
}

func integer(name string, field func(r *domain.EnrichedRecord) *int) paymentColumn {
	return paymentColumn{
		name: paymentPrefix + name,
		get:  func(r *domain.EnrichedRecord) interface{} { return *field(r) },
		set:  func(r *domain.EnrichedRecord, v bigquery.Value) { *field(r) = valueInt(v) },
	}
}

// paymentColumns is the column contract of the payment table.
var paymentColumns = []paymentColumn{
	str("id", func(r *domain.EnrichedRecord) *string { return &r.ID }),
	str("numero_factura", func(r *domain.EnrichedRecord) *string { return &r.InvoiceNumber }),
	str("orden_compra", func(r *domain.EnrichedRecord) *string { return &r.PurchaseOrder }),
	str("tipo_documento", func(r *domain.EnrichedRecord) *string { return &r.DocumentType }),
	str("nombre_lote", func(r *domain.EnrichedRecord) *string { return &r.BatchName }),
	str("proveedor", func(r *domain.EnrichedRecord) *string { return &r.Supplier }),
	str("rif", func(r *domain.EnrichedRecord) *string { return &r.TaxID }),
	date("fecha_documento", func(r *domain.EnrichedRecord) *string { return &r.DocumentDate }),
	str("tienda", func(r *domain.EnrichedRecord) *string { return &r.Store }),
	str("sucursal", func(r *domain.EnrichedRecord) *string { return &r.Branch }),
	num("monto", func(r *domain.EnrichedRecord) *float64 { return &r.Amount }),
	str("moneda", func(r *domain.EnrichedRecord) *string { return &r.Currency }),
	date("fecha_vencimiento", func(r *domain.EnrichedRecord) *string { return &r.DueDate }),
	str("cuenta", func(r *domain.EnrichedRecord) *string { return &r.Account }),
	str("id_cuenta", func(r *domain.EnrichedRecord) *string { return &r.AccountID }),
	str("metodo_pago", func(r *domain.EnrichedRecord) *string { return &r.PaymentMethodCode }),
	num("es_independiente", func(r *domain.EnrichedRecord) *float64 { return &r.IndependentPayment }),
	integer("prioridad", func(r *domain.EnrichedRecord) *int { return &r.Priority }),
	num("monto_ext", func(r *domain.EnrichedRecord) *float64 { return &r.CapexExt }),
	num("monto_ord", func(r *domain.EnrichedRecord) *float64 { return &r.CapexOrd }),
	num("monto_cadm", func(r *domain.EnrichedRecord) *float64 { return &r.CapexAdmin }),
	date("fecha_creacion", func(r *domain.EnrichedRecord) *string { return &r.CreatedDate }),
	str("solicitante", func(r *domain.EnrichedRecord) *string { return &r.Requester }),
	num("monto_usd", func(r *domain.EnrichedRecord) *float64 { return &r.USDAmount }),
	{
		name: paymentPrefix + "categoria",
		get:  func(r *domain.EnrichedRecord) interface{} { return string(r.Category) },
		set:  func(r *domain.EnrichedRecord, v bigquery.Value) { r.Category = domain.Category(valueString(v)) },
	},
	num("monto_pagar_capex", func(r *domain.EnrichedRecord) *float64 { return &r.CapexPayable }),
	num("monto_pagar_opex", func(r *domain.EnrichedRecord) *float64 { return &r.OpexPayable }),
	num("validacion", func(r *domain.EnrichedRecord) *float64 { return &r.Validation }),
	str("moneda_pago", func(r *domain.EnrichedRecord) *string { return &r.PaymentCurrency }),
	date("fecha_pago", func(r *domain.EnrichedRecord) *string { return &r.PaymentDate }),
	num("tc_ftd", func(r *domain.EnrichedRecord) *float64 { return &r.VendorRate }),
	num("tc_bcv", func(r *domain.EnrichedRecord) *float64 { return &r.ReferenceRate }),
	num("conversion_ves", func(r *domain.EnrichedRecord) *float64 { return &r.ConversionVES }),
	num("conversion_tc_ftd", func(r *domain.EnrichedRecord) *float64 { return &r.ConversionVendor }),
	num("real_convertido", func(r *domain.EnrichedRecord) *float64 { return &r.RealConverted }),
	num("real_mes_convertido", func(r *domain.EnrichedRecord) *float64 { return &r.RealMonthConverted }),
	str("calcu_moneda", func(r *domain.EnrichedRecord) *string { return &r.PaymentMethod }),
	integer("semana_pago", func(r *domain.EnrichedRecord) *int { return &r.Week }),
	str("mes_pago", func(r *domain.EnrichedRecord) *string { return &r.MonthName }),
	{
		name: paymentPrefix + "tipo_capex",
		get:  func(r *domain.EnrichedRecord) interface{} { return string(r.CapexType) },
		set:  func(r *domain.EnrichedRecord, v bigquery.Value) { r.CapexType = domain.CapexType(valueString(v)) },
	},
	num("calcu_monto_ord", func(r *domain.EnrichedRecord) *float64 { return &r.OrdinaryAmount }),
	num("calcu_monto_ext", func(r *domain.EnrichedRecord) *float64 { return &r.ExtraAmount }),
	str("dia_pago", func(r *domain.EnrichedRecord) *string { return &r.PaymentWeekday }),
	str("calcu_tienda", func(r *domain.EnrichedRecord) *string { return &r.Invoice.Store }),
	str("ceco", func(r *domain.EnrichedRecord) *string { return &r.Invoice.CostCenter }),
	str("proyecto", func(r *domain.EnrichedRecord) *string { return &r.Invoice.Project }),
	str("area", func(r *domain.EnrichedRecord) *string { return &r.Area }),
	date("fecha_recibo", func(r *domain.EnrichedRecord) *string { return &r.Invoice.ReceiptDate }),
	str("descripcion", func(r *domain.EnrichedRecord) *string { return &r.Invoice.Description }),
}

// PaymentRow lays rec out with the warehouse column names, including the
// split fiscal year and the country.
func PaymentRow(rec domain.EnrichedRecord) Row {
	row := make(Row, len(paymentColumns)+3)
	for _, c := range paymentColumns {
		row[c.name] = c.get(&rec)
	}
	if start, end, err := fiscal.ParseFiscalYear(rec.FiscalYear); err == nil {
		row["current_fiscal_year"] = start
		row["next_fiscal_year"] = end
	}
	row["pais"] = countryName
	return row
}

// RecordFromRow rebuilds a record from a stored row. The fiscal year comes
// back from its two integer columns, or SIN_AÑO_FISCAL when they are
// missing.
func RecordFromRow(row map[string]bigquery.Value) domain.EnrichedRecord {
	var rec domain.EnrichedRecord
	for _, c := range paymentColumns {
		if v, ok := row[c.name]; ok {
			c.set(&rec, v)
		}
	}

	start, end := valueInt(row["current_fiscal_year"]), valueInt(row["next_fiscal_year"])
	if start > 0 && end > 0 {
		rec.FiscalYear = fmt.Sprintf("%d-%d", start, end)
	} else {
		rec.FiscalYear = domain.NoFiscalYear
	}
	return rec
}

// BigQueryPaymentRepository is the PaymentRepository backed by the
// consolidated payment table.
type BigQueryPaymentRepository struct {
	client    *bigquery.Client
	dataset   string
	table     string
	batchSize int
}

// NewBigQueryPaymentRepository creates a repository on dataset.table.
// batchSize bounds each page of ListAll.
func NewBigQueryPaymentRepository(client *bigquery.Client, dataset, table string, batchSize int) *BigQueryPaymentRepository {
	if batchSize <= 0 {
		batchSize = 1000
	}
	return &BigQueryPaymentRepository{client: client, dataset: dataset, table: table, batchSize: batchSize}
}

// ExistingIDs implements PaymentRepository.
func (r *BigQueryPaymentRepository) ExistingIDs(ctx context.Context, ids []string) (map[string]bool, error) {
	found, err := existingIDs(ctx, r.client, tableName(r.client, r.dataset, r.table), paymentIDColumn, ids)
	if err != nil {
		return nil, fmt.Errorf("ExistingIDs: %w", err)
	}
	return found, nil
}

// Append implements PaymentRepository.
func (r *BigQueryPaymentRepository) Append(ctx context.Context, records []domain.EnrichedRecord) error {
	rows := make([]Row, len(records))
	for i, rec := range records {
		rows[i] = PaymentRow(rec)
	}
	if err := appendRows(ctx, r.client.Dataset(r.dataset).Table(r.table), rows); err != nil {
		return fmt.Errorf("Append: %w", err)
	}
	return nil
}

// ListAll implements PaymentRepository. The table is read in LIMIT/OFFSET
// pages ordered by id.
func (r *BigQueryPaymentRepository) ListAll(ctx context.Context) ([]domain.EnrichedRecord, error) {
	log := logger.FromContext(ctx)
	table := tableName(r.client, r.dataset, r.table)

	total, err := r.count(ctx, table)
	if err != nil {
		return nil, fmt.Errorf("ListAll: %w", err)
	}

	records := make([]domain.EnrichedRecord, 0, total)
	for offset := 0; offset < total; offset += r.batchSize {
		q := r.client.Query(fmt.Sprintf(
			"SELECT * FROM %s ORDER BY %s LIMIT %d OFFSET %d",
			table, paymentIDColumn, r.batchSize, offset))

		it, err := q.Read(ctx)
		if err != nil {
			return nil, fmt.Errorf("ListAll: reading page at %d: %w", offset, err)
		}
		err = forEach(it, func(row map[string]bigquery.Value) {
			records = append(records, RecordFromRow(row))
		})
		if err != nil {
			return nil, fmt.Errorf("ListAll: page at %d: %w", offset, err)
		}
		log.Debug().Int("offset", offset).Int("rows", len(records)).Msg("Payment page read")
	}

	log.Info().Int("rows", len(records)).Str("table", r.table).Msg("Payment table read")
	return records, nil
}

func (r *BigQueryPaymentRepository) count(ctx context.Context, table string) (int, error) {
	it, err := r.client.Query("SELECT COUNT(*) AS total FROM " + table).Read(ctx)
	if err != nil {
		return 0, fmt.Errorf("counting rows: %w", err)
	}
	total := 0
	err = forEach(it, func(row map[string]bigquery.Value) {
		total = valueInt(row["total"])
	})
	return total, err
}

// TableInfo implements TableInspector.
func (r *BigQueryPaymentRepository) TableInfo(ctx context.Context) (*TableInfo, error) {
	meta, err := r.client.Dataset(r.dataset).Table(r.table).Metadata(ctx)
	if err != nil {
		return nil, fmt.Errorf("TableInfo: reading metadata: %w", err)
	}

	info := &TableInfo{
		Table:        strings.Join([]string{r.client.Project(), r.dataset, r.table}, "."),
		NumRows:      meta.NumRows,
		NumBytes:     meta.NumBytes,
		LastModified: meta.LastModifiedTime,
	}
	for _, f := range meta.Schema {
		info.Fields = append(info.Fields, FieldInfo{Name: f.Name, Type: string(f.Type), Required: f.Required})
	}
	return info, nil
}
