package bigquery

import (
	bq "github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/bigquery"
)

// Re-export the shared repository types.
type (
	PaymentRepository  = bq.PaymentRepository
	BudgetRepository   = bq.BudgetRepository
	VarianceRepository = bq.VarianceRepository
	TableInfo          = bq.TableInfo
	FieldInfo          = bq.FieldInfo
)

var (
	_ PaymentRepository  = (*BigQueryPaymentRepository)(nil)
	_ bq.TableInspector  = (*BigQueryPaymentRepository)(nil)
	_ BudgetRepository   = (*BigQueryBudgetRepository)(nil)
	_ VarianceRepository = (*BigQueryVarianceRepository)(nil)
)
