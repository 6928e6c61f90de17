package config

import (
	"os"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFrom_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := LoadFrom(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "5000", cfg.HTTP.Port)
	assert.Equal(t, "cxp_vzla", cfg.BigQuery.RatesDataset)
	assert.Equal(t, "bcv_tasas", cfg.BigQuery.RatesTable)
	assert.Equal(t, 60*time.Second, cfg.BigQuery.RatesLoadTimeout)
	assert.Equal(t, 1000, cfg.BigQuery.BatchSize)
	assert.Equal(t, "Solicitantes", cfg.Areas.SheetName)
	assert.Equal(t, "https://bcv-api.rafnixg.dev", cfg.Rates.BCVURL)
	assert.Equal(t, 10*time.Second, cfg.Rates.Timeout)
	assert.True(t, cfg.Storage.MakePublic)
}

func TestLoadFrom_Environment(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("GCP_PROJECT_ID", "ftd-project")
	t.Setenv("BIGQUERY_DATASET", "cxp")
	t.Setenv("BIGQUERY_TABLE", "vzla_capex_pago")
	t.Setenv("BIGQUERY_TABLE_DIFERENCIA", "vzla_capex_diferencia")
	t.Setenv("PORT", "8080")
	t.Setenv("TC_FTD_ENDPOINT", "http://rates.local/")

	cfg, err := LoadFrom(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "ftd-project", cfg.GCP.ProjectID)
	assert.Equal(t, "cxp", cfg.BigQuery.Dataset)
	assert.Equal(t, "vzla_capex_pago", cfg.BigQuery.PaymentTable)
	assert.Equal(t, "vzla_capex_diferencia", cfg.BigQuery.VarianceTable)
	assert.Equal(t, "8080", cfg.HTTP.Port)
	assert.Equal(t, "http://rates.local/", cfg.Rates.VendorEndpoint)
	assert.NoError(t, cfg.ValidateWarehouse())
}

func TestValidateWarehouse(t *testing.T) {
	cfg := &Config{}
	err := cfg.ValidateWarehouse()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GCP_PROJECT_ID")
	assert.Contains(t, err.Error(), "BIGQUERY_TABLE")
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir, added in Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
