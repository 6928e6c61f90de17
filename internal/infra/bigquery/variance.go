package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"

	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/domain"
	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/fiscal"
	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/logger"
)

const (
	variancePrefix   = "vzla_capex_diferencia_"
	varianceIDColumn = variancePrefix + "id"
	idCheckChunk     = 1000
)

// BigQueryVarianceRepository stores the budget variance history in the
// diferencia table.
type BigQueryVarianceRepository struct {
	client  *bigquery.Client
	dataset string
	table   string
}

// NewBigQueryVarianceRepository creates a repository on dataset.table.
func NewBigQueryVarianceRepository(client *bigquery.Client, dataset, table string) *BigQueryVarianceRepository {
	return &BigQueryVarianceRepository{client: client, dataset: dataset, table: table}
}

// LatestVariance implements VarianceRepository.
func (r *BigQueryVarianceRepository) LatestVariance(ctx context.Context, fiscalYear string) ([]domain.VarianceRow, error) {
	params, err := latestVarianceParams(fiscalYear)
	if err != nil {
		return nil, fmt.Errorf("LatestVariance: %w", err)
	}

	q := r.client.Query(fmt.Sprintf(`
		WITH latest AS (
			SELECT
				vzla_capex_diferencia_id AS id,
				vzla_capex_diferencia_mes AS mes,
				vzla_capex_diferencia_tipo AS tipo,
				vzla_capex_diferencia_area AS area,
				vzla_capex_diferencia_remanente AS remanente,
				vzla_capex_diferencia_presupuesto AS presupuesto,
				vzla_capex_diferencia_ejecutado AS ejecutado,
				vzla_capex_diferencia_fecha_ejecucion AS fecha_ejecucion,
				ROW_NUMBER() OVER (
					PARTITION BY vzla_capex_diferencia_area, vzla_capex_diferencia_tipo, vzla_capex_diferencia_mes
					ORDER BY vzla_capex_diferencia_fecha_ejecucion DESC
				) AS rn
			FROM %s
			WHERE vzla_capex_diferencia_fecha_ejecucion >= @from
				AND vzla_capex_diferencia_fecha_ejecucion < @to
		)
		SELECT * EXCEPT (rn)
		FROM latest
		WHERE rn = 1
		ORDER BY area, tipo
	`, tableName(r.client, r.dataset, r.table)))
	q.Parameters = params

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("LatestVariance: reading query: %w", err)
	}

	var rows []domain.VarianceRow
	err = forEach(it, func(row map[string]bigquery.Value) {
		v := domain.VarianceRow{
			ID:         valueString(row["id"]),
			Month:      valueDate(row["mes"]),
			Type:       valueString(row["tipo"]),
			Area:       valueString(row["area"]),
			Remainder:  valueFloat(row["remanente"]),
			Budget:     valueFloat(row["presupuesto"]),
			Executed:   valueFloat(row["ejecutado"]),
			ExecutedAt: valueTime(row["fecha_ejecucion"]),
		}
		v.Recompute()
		rows = append(rows, v)
	})
	if err != nil {
		return nil, fmt.Errorf("LatestVariance: %w", err)
	}

	log := logger.FromContext(ctx)
	log.Info().
		Str("anio_fiscal", fiscalYear).
		Int("rows", len(rows)).
		Msg("Variance history extracted")
	return rows, nil
}

// latestVarianceParams binds the execution window of fiscalYear, including
// the month before it starts.
func latestVarianceParams(fiscalYear string) ([]bigquery.QueryParameter, error) {
	from, to, err := fiscal.VarianceWindow(fiscalYear)
	if err != nil {
		return nil, err
	}
	return []bigquery.QueryParameter{
		{Name: "from", Value: from.In(time.UTC)},
		{Name: "to", Value: to.In(time.UTC)},
	}, nil
}

// AppendVariance implements VarianceRepository. Rows whose id is already
// stored are skipped.
func (r *BigQueryVarianceRepository) AppendVariance(ctx context.Context, rows []domain.VarianceRow) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	table := tableName(r.client, r.dataset, r.table)

	existing := map[string]bool{}
	for start := 0; start < len(rows); start += idCheckChunk {
		end := min(start+idCheckChunk, len(rows))
		ids := make([]string, 0, end-start)
		for _, v := range rows[start:end] {
			ids = append(ids, v.ID)
		}
		found, err := existingIDs(ctx, r.client, table, varianceIDColumn, ids)
		if err != nil {
			return 0, fmt.Errorf("AppendVariance: %w", err)
		}
		for id := range found {
			existing[id] = true
		}
	}

	var fresh []Row
	for _, v := range rows {
		if existing[v.ID] {
			continue
		}
		existing[v.ID] = true
		fresh = append(fresh, VarianceRowValues(v))
	}

	log := logger.FromContext(ctx)
	log.Info().
		Int("candidates", len(rows)).
		Int("new", len(fresh)).
		Msg("Variance rows deduplicated")

	if err := appendRows(ctx, r.client.Dataset(r.dataset).Table(r.table), fresh); err != nil {
		return 0, fmt.Errorf("AppendVariance: %w", err)
	}
	return len(fresh), nil
}

// VarianceRowValues lays v out with the diferencia column names. The month
// is written as its MON-YY label and parsed back by the DATE coercion.
func VarianceRowValues(v domain.VarianceRow) Row {
	month := v.Month
	if d, ok := fiscal.ParseDate(v.Month); ok {
		month = fiscal.MonthLabel(d)
	}
	return Row{
		variancePrefix + "id":              v.ID,
		variancePrefix + "mes":             month,
		variancePrefix + "tipo":            v.Type,
		variancePrefix + "area":            v.Area,
		variancePrefix + "remanente":       v.Remainder,
		variancePrefix + "presupuesto":     v.Budget,
		variancePrefix + "ejecutado":       v.Executed,
		variancePrefix + "diferencia":      v.Difference,
		variancePrefix + "fecha_ejecucion": v.ExecutedAt,
	}
}
