package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"

	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/domain"
	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/fiscal"
	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/logger"
)

// BigQueryBudgetRepository reads the responsables table, the monthly CAPEX
// budget per area.
type BigQueryBudgetRepository struct {
	client  *bigquery.Client
	dataset string
	table   string
}

// NewBigQueryBudgetRepository creates a repository on dataset.table.
func NewBigQueryBudgetRepository(client *bigquery.Client, dataset, table string) *BigQueryBudgetRepository {
	return &BigQueryBudgetRepository{client: client, dataset: dataset, table: table}
}

// ListBudget implements BudgetRepository. Only rows dated inside the fiscal
// year (August 1st to July 31st) are returned.
func (r *BigQueryBudgetRepository) ListBudget(ctx context.Context, fiscalYear string) ([]domain.BudgetRow, error) {
	start, _, err := fiscal.ParseFiscalYear(fiscalYear)
	if err != nil {
		return nil, fmt.Errorf("ListBudget: %w", err)
	}
	from, to := fiscal.Bounds(start)

	q := r.client.Query(fmt.Sprintf(`
		SELECT
			vzla_capex_responsable_anio_fiscal AS anio_fiscal,
			vzla_capex_responsable_fecha AS fecha,
			vzla_capex_responsable_tipo AS tipo,
			vzla_capex_responsable_area AS area,
			vzla_capex_responsable_monto AS monto
		FROM %s
		WHERE vzla_capex_responsable_fecha BETWEEN @from AND @to
			AND vzla_capex_responsable_anio_fiscal = @fiscal_year
		ORDER BY vzla_capex_responsable_fecha
	`, tableName(r.client, r.dataset, r.table)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "from", Value: from},
		{Name: "to", Value: to},
		{Name: "fiscal_year", Value: fiscalYear},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListBudget: reading query: %w", err)
	}

	var rows []domain.BudgetRow
	err = forEach(it, func(row map[string]bigquery.Value) {
		rows = append(rows, domain.BudgetRow{
			FiscalYear: valueString(row["anio_fiscal"]),
			Month:      valueDate(row["fecha"]),
			Type:       valueString(row["tipo"]),
			Area:       valueString(row["area"]),
			Amount:     valueFloat(row["monto"]),
		})
	})
	if err != nil {
		return nil, fmt.Errorf("ListBudget: %w", err)
	}

	log := logger.FromContext(ctx)
	log.Info().
		Str("anio_fiscal", fiscalYear).
		Int("rows", len(rows)).
		Msg("Budget extracted")
	return rows, nil
}
