// Package sqlite implements the warehouse repositories on a local SQLite
// file, for offline consolidation runs.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	bq "github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/bigquery"
	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/domain"
	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/fiscal"
)

var (
	_ bq.PaymentRepository  = (*Store)(nil)
	_ bq.BudgetRepository   = (*Store)(nil)
	_ bq.VarianceRepository = (*Store)(nil)
)

// timeLayout sorts lexically in UTC.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Store keeps payments, budget and variance history in one SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at dsn and ensures the tables exist.
// Pass ":memory:" for an in-memory database.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("Open: open db: %w", err)
	}
	// A memory database lives on one connection.
	if dsn == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("Open: set wal mode: %w", err)
	}
	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("Open: create tables: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func createTables(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS payments (
			id TEXT PRIMARY KEY,
			invoice_number TEXT NOT NULL,
			supplier TEXT NOT NULL,
			fiscal_year TEXT NOT NULL,
			record TEXT NOT NULL,
			loaded_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_payments_fiscal_year ON payments(fiscal_year)`,

		`CREATE TABLE IF NOT EXISTS budget (
			fiscal_year TEXT NOT NULL,
			month TEXT NOT NULL,
			type TEXT NOT NULL,
			area TEXT NOT NULL,
			amount REAL NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_budget_fiscal_year ON budget(fiscal_year)`,

		`CREATE TABLE IF NOT EXISTS variance (
			id TEXT NOT NULL,
			month TEXT NOT NULL,
			type TEXT NOT NULL,
			area TEXT NOT NULL,
			remainder REAL NOT NULL,
			budget REAL NOT NULL,
			executed REAL NOT NULL,
			executed_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_variance_id ON variance(id)`,
		`CREATE INDEX IF NOT EXISTS idx_variance_executed_at ON variance(executed_at)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}
	return nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func existing(ctx context.Context, db *sql.DB, table string, ids []string) (map[string]bool, error) {
	found := make(map[string]bool)
	if len(ids) == 0 {
		return found, nil
	}

	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := db.QueryContext(ctx,
		fmt.Sprintf("SELECT DISTINCT id FROM %s WHERE id IN (%s)", table, placeholders(len(ids))), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		found[id] = true
	}
	return found, rows.Err()
}

// ExistingIDs implements PaymentRepository.
func (s *Store) ExistingIDs(ctx context.Context, ids []string) (map[string]bool, error) {
	found, err := existing(ctx, s.db, "payments", ids)
	if err != nil {
		return nil, fmt.Errorf("ExistingIDs: %w", err)
	}
	return found, nil
}

// Append implements PaymentRepository. Rows with a stored id are ignored.
func (s *Store) Append(ctx context.Context, records []domain.EnrichedRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("Append: begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO payments
		(id, invoice_number, supplier, fiscal_year, record, loaded_at) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("Append: prepare: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(timeLayout)
	for _, rec := range records {
		blob, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("Append: encode %s: %w", rec.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, rec.ID, rec.InvoiceNumber, rec.Supplier, rec.FiscalYear, string(blob), now); err != nil {
			return fmt.Errorf("Append: insert %s: %w", rec.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("Append: commit: %w", err)
	}
	return nil
}

// ListAll implements PaymentRepository.
func (s *Store) ListAll(ctx context.Context) ([]domain.EnrichedRecord, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT record FROM payments ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("ListAll: query: %w", err)
	}
	defer rows.Close()

	var out []domain.EnrichedRecord
	for rows.Next() {
		var blob string
		if err := rows.Scan(&blob); err != nil {
			return nil, fmt.Errorf("ListAll: scan: %w", err)
		}
		var rec domain.EnrichedRecord
		if err := json.Unmarshal([]byte(blob), &rec); err != nil {
			return nil, fmt.Errorf("ListAll: decode: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ImportBudget replaces the stored budget of every fiscal year present in
// rows.
func (s *Store) ImportBudget(ctx context.Context, rows []domain.BudgetRow) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ImportBudget: begin: %w", err)
	}
	defer tx.Rollback()

	cleared := map[string]bool{}
	for _, r := range rows {
		if !cleared[r.FiscalYear] {
			if _, err := tx.ExecContext(ctx, "DELETE FROM budget WHERE fiscal_year = ?", r.FiscalYear); err != nil {
				return fmt.Errorf("ImportBudget: clear %s: %w", r.FiscalYear, err)
			}
			cleared[r.FiscalYear] = true
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO budget (fiscal_year, month, type, area, amount) VALUES (?, ?, ?, ?, ?)",
			r.FiscalYear, r.Month, r.Type, r.Area, r.Amount); err != nil {
			return fmt.Errorf("ImportBudget: insert: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("ImportBudget: commit: %w", err)
	}
	return nil
}

// ListBudget implements BudgetRepository.
func (s *Store) ListBudget(ctx context.Context, fiscalYear string) ([]domain.BudgetRow, error) {
	start, _, err := fiscal.ParseFiscalYear(fiscalYear)
	if err != nil {
		return nil, fmt.Errorf("ListBudget: %w", err)
	}
	from, to := fiscal.Bounds(start)

	rows, err := s.db.QueryContext(ctx, `SELECT fiscal_year, month, type, area, amount FROM budget
		WHERE month BETWEEN ? AND ? AND fiscal_year = ? ORDER BY month`,
		from.String(), to.String(), fiscalYear)
	if err != nil {
		return nil, fmt.Errorf("ListBudget: query: %w", err)
	}
	defer rows.Close()

	var out []domain.BudgetRow
	for rows.Next() {
		var r domain.BudgetRow
		if err := rows.Scan(&r.FiscalYear, &r.Month, &r.Type, &r.Area, &r.Amount); err != nil {
			return nil, fmt.Errorf("ListBudget: scan: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// LatestVariance implements VarianceRepository.
func (s *Store) LatestVariance(ctx context.Context, fiscalYear string) ([]domain.VarianceRow, error) {
	from, to, err := fiscal.VarianceWindow(fiscalYear)
	if err != nil {
		return nil, fmt.Errorf("LatestVariance: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, month, type, area, remainder, budget, executed, executed_at FROM (
			SELECT *, ROW_NUMBER() OVER (
				PARTITION BY area, type, month ORDER BY executed_at DESC
			) AS rn
			FROM variance
			WHERE executed_at >= ? AND executed_at < ?
		)
		WHERE rn = 1
		ORDER BY area, type`,
		from.In(time.UTC).Format(timeLayout), to.In(time.UTC).Format(timeLayout))
	if err != nil {
		return nil, fmt.Errorf("LatestVariance: query: %w", err)
	}
	defer rows.Close()

	var out []domain.VarianceRow
	for rows.Next() {
		var v domain.VarianceRow
		var executedAt string
		if err := rows.Scan(&v.ID, &v.Month, &v.Type, &v.Area, &v.Remainder, &v.Budget, &v.Executed, &executedAt); err != nil {
			return nil, fmt.Errorf("LatestVariance: scan: %w", err)
		}
		if v.ExecutedAt, err = time.Parse(timeLayout, executedAt); err != nil {
			return nil, fmt.Errorf("LatestVariance: executed_at %q: %w", executedAt, err)
		}
		v.Recompute()
		out = append(out, v)
	}
	return out, rows.Err()
}

// AppendVariance implements VarianceRepository.
func (s *Store) AppendVariance(ctx context.Context, rows []domain.VarianceRow) (int, error) {
	ids := make([]string, len(rows))
	for i, v := range rows {
		ids[i] = v.ID
	}
	found, err := existing(ctx, s.db, "variance", ids)
	if err != nil {
		return 0, fmt.Errorf("AppendVariance: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("AppendVariance: begin: %w", err)
	}
	defer tx.Rollback()

	n := 0
	for _, v := range rows {
		if found[v.ID] {
			continue
		}
		found[v.ID] = true
		if _, err := tx.ExecContext(ctx, `INSERT INTO variance
			(id, month, type, area, remainder, budget, executed, executed_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			v.ID, v.Month, v.Type, v.Area, v.Remainder, v.Budget, v.Executed, v.ExecutedAt.UTC().Format(timeLayout)); err != nil {
			return 0, fmt.Errorf("AppendVariance: insert: %w", err)
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("AppendVariance: commit: %w", err)
	}
	return n, nil
}
