// Package bigquery declares the warehouse repositories the consolidation
// pipeline depends on. Implementations live in internal/infra/bigquery and
// internal/infra/sqlite.
package bigquery

import (
	"context"
	"time"

	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/domain"
)

// PaymentRepository provides access to the consolidated payment table.
type PaymentRepository interface {
	// ExistingIDs returns which of ids are already stored.
	ExistingIDs(ctx context.Context, ids []string) (map[string]bool, error)

	// Append adds records to the table. It never updates existing rows.
	Append(ctx context.Context, records []domain.EnrichedRecord) error

	// ListAll returns every stored payment row ordered by id.
	ListAll(ctx context.Context) ([]domain.EnrichedRecord, error)
}

// BudgetRepository reads the monthly budget assigned to each area.
type BudgetRepository interface {
	// ListBudget returns the budget rows of the fiscal year labelled
	// "YYYY-YYYY".
	ListBudget(ctx context.Context, fiscalYear string) ([]domain.BudgetRow, error)
}

// VarianceRepository stores the budget variance history.
type VarianceRepository interface {
	// LatestVariance returns the most recent row per area, type and month
	// executed within the fiscal year.
	LatestVariance(ctx context.Context, fiscalYear string) ([]domain.VarianceRow, error)

	// AppendVariance appends the rows whose id is not stored yet and returns
	// how many were written.
	AppendVariance(ctx context.Context, rows []domain.VarianceRow) (int, error)
}

// FieldInfo describes one column of a table.
type FieldInfo struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Required bool   `json:"required"`
}

// TableInfo is the metadata reported by the table-info endpoint.
type TableInfo struct {
	Table        string      `json:"table"`
	NumRows      uint64      `json:"num_rows"`
	NumBytes     int64       `json:"num_bytes"`
	LastModified time.Time   `json:"last_modified"`
	Fields       []FieldInfo `json:"schema"`
}

// TableInspector reports the metadata of the payment table.
type TableInspector interface {
	TableInfo(ctx context.Context) (*TableInfo, error)
}
