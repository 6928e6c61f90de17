package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/domain"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func payment(id string) domain.EnrichedRecord {
	return domain.EnrichedRecord{
		PaymentRecord: domain.PaymentRecord{InvoiceNumber: "F-" + id, Supplier: "ACME", Amount: 100},
		ID:            id,
		FiscalYear:    "2025-2026",
		Area:          "MARKETING",
		Category:      domain.CategoryCAPEX,
	}
}

func TestPayments(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.Append(ctx, []domain.EnrichedRecord{payment("b"), payment("a")}))
	require.NoError(t, s.Append(ctx, []domain.EnrichedRecord{payment("a")}))

	found, err := s.ExistingIDs(ctx, []string{"a", "c"})
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"a": true}, found)

	all, err := s.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].ID)
	assert.Equal(t, payment("a"), all[0])
}

func TestExistingIDsEmpty(t *testing.T) {
	found, err := openTestStore(t).ExistingIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestBudget(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	rows := []domain.BudgetRow{
		{FiscalYear: "2025-2026", Month: "2025-09-01", Type: domain.VarianceOrdinary, Area: "MARKETING", Amount: 100},
		{FiscalYear: "2025-2026", Month: "2025-08-01", Type: domain.VarianceOrdinary, Area: "MARKETING", Amount: 50},
		{FiscalYear: "2024-2025", Month: "2025-03-01", Type: domain.VarianceOrdinary, Area: "MARKETING", Amount: 7},
	}
	require.NoError(t, s.ImportBudget(ctx, rows))
	require.NoError(t, s.ImportBudget(ctx, rows[:2]))

	got, err := s.ListBudget(ctx, "2025-2026")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "2025-08-01", got[0].Month)

	_, err = s.ListBudget(ctx, "2025")
	assert.Error(t, err)
}

func TestVarianceKeepsLatestPerMonth(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	early := time.Date(2025, 10, 10, 9, 0, 0, 0, time.UTC)
	late := early.Add(7 * 24 * time.Hour)
	rows := []domain.VarianceRow{
		{ID: "1", Month: "2025-10-01", Type: domain.VarianceOrdinary, Area: "MARKETING", Budget: 100, Executed: 10, ExecutedAt: early},
		{ID: "2", Month: "2025-10-01", Type: domain.VarianceOrdinary, Area: "MARKETING", Budget: 100, Executed: 40, ExecutedAt: late},
		{ID: "3", Month: "2025-10-01", Type: domain.VarianceOrdinary, Area: "OLD", Budget: 1, ExecutedAt: time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC)},
	}

	n, err := s.AppendVariance(ctx, rows)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = s.AppendVariance(ctx, rows[:1])
	require.NoError(t, err)
	assert.Zero(t, n)

	got, err := s.LatestVariance(ctx, "2025-2026")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "2", got[0].ID)
	assert.InDelta(t, -60.0, got[0].Difference, 1e-9)
	assert.True(t, got[0].ExecutedAt.Equal(late))
}

func TestLatestVarianceReachesMonthBeforeFiscalYear(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	rows := []domain.VarianceRow{
		{ID: "jul", Month: "2025-07-01", Type: domain.VarianceOrdinary, Area: "MARKETING", Budget: 1000, Executed: 400,
			ExecutedAt: time.Date(2025, 7, 28, 15, 0, 0, 0, time.UTC)},
		{ID: "jun", Month: "2025-06-01", Type: domain.VarianceOrdinary, Area: "MARKETING", Budget: 10, Executed: 1,
			ExecutedAt: time.Date(2025, 6, 27, 15, 0, 0, 0, time.UTC)},
	}
	_, err := s.AppendVariance(ctx, rows)
	require.NoError(t, err)

	got, err := s.LatestVariance(ctx, "2025-2026")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "jul", got[0].ID)
	assert.InDelta(t, 600.0, got[0].Budget-got[0].Executed, 1e-9)
}
