package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"

	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/logger"
)

// appendRows coerces rows to the live schema of table and appends them with
// a load job.
func appendRows(ctx context.Context, table *bigquery.Table, rows []Row) error {
	if len(rows) == 0 {
		return nil
	}

	meta, err := table.Metadata(ctx)
	if err != nil {
		return fmt.Errorf("appendRows: reading schema of %s: %w", table.FullyQualifiedName(), err)
	}

	coerced := make([]Row, len(rows))
	for i, r := range rows {
		coerced[i] = CoerceRow(meta.Schema, r)
	}

	buf, err := encodeNDJSON(coerced)
	if err != nil {
		return fmt.Errorf("appendRows: %w", err)
	}

	src := bigquery.NewReaderSource(buf)
	src.SourceFormat = bigquery.JSON
	src.Schema = meta.Schema

	loader := table.LoaderFrom(src)
	loader.WriteDisposition = bigquery.WriteAppend
	loader.SchemaUpdateOptions = []string{"ALLOW_FIELD_ADDITION"}

	job, err := loader.Run(ctx)
	if err != nil {
		return fmt.Errorf("appendRows: starting load job: %w", err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("appendRows: waiting for load job: %w", err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("appendRows: load job %s: %w", job.ID(), err)
	}

	log := logger.FromContext(ctx)
	log.Info().
		Str("table", table.FullyQualifiedName()).
		Int("rows", len(rows)).
		Str("job_id", job.ID()).
		Msg("Rows appended")
	return nil
}

// existingIDs runs an IN UNNEST(@ids) query over column and returns the ids
// found.
func existingIDs(ctx context.Context, client *bigquery.Client, table, column string, ids []string) (map[string]bool, error) {
	found := make(map[string]bool)
	if len(ids) == 0 {
		return found, nil
	}

	q := client.Query(fmt.Sprintf("SELECT DISTINCT %s AS id FROM %s WHERE %s IN UNNEST(@ids)", column, table, column))
	q.Parameters = []bigquery.QueryParameter{{Name: "ids", Value: ids}}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("existingIDs: reading query: %w", err)
	}
	err = forEach(it, func(row map[string]bigquery.Value) {
		if id := valueString(row["id"]); id != "" {
			found[id] = true
		}
	})
	if err != nil {
		return nil, fmt.Errorf("existingIDs: %w", err)
	}
	return found, nil
}
