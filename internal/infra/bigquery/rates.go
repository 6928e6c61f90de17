package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"

	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/logger"
	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/rates"
)

// BCVRateSource loads the published BCV dollar rates from the rate table.
type BCVRateSource struct {
	client  *bigquery.Client
	dataset string
	table   string
	timeout time.Duration
}

var _ rates.TableSource = (*BCVRateSource)(nil)

// NewBCVRateSource creates a source reading dataset.table within timeout.
func NewBCVRateSource(client *bigquery.Client, dataset, table string, timeout time.Duration) *BCVRateSource {
	return &BCVRateSource{client: client, dataset: dataset, table: table, timeout: timeout}
}

// LoadRates implements rates.TableSource.
func (s *BCVRateSource) LoadRates(ctx context.Context) (map[string]float64, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	q := s.client.Query(fmt.Sprintf(`
		SELECT FORMAT_DATE('%%Y-%%m-%%d', Date) AS fecha, USD AS tasa_usd
		FROM %s
		WHERE USD IS NOT NULL
		ORDER BY Date DESC
	`, tableName(s.client, s.dataset, s.table)))

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("LoadRates: reading query: %w", err)
	}

	out := make(map[string]float64)
	err = forEach(it, func(row map[string]bigquery.Value) {
		out[valueString(row["fecha"])] = valueFloat(row["tasa_usd"])
	})
	if err != nil {
		return nil, fmt.Errorf("LoadRates: %w", err)
	}

	log := logger.FromContext(ctx)
	log.Info().
		Str("table", s.dataset+"."+s.table).
		Int("rates", len(out)).
		Msg("BCV rates loaded")
	return out, nil
}
