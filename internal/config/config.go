// Package config loads service settings from an optional config file, a .env
// file and the process environment, in increasing order of priority.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all service configuration.
type Config struct {
	GCP      GCPConfig
	BigQuery BigQueryConfig
	Storage  StorageConfig
	Rates    RatesConfig
	Areas    AreasConfig
	HTTP     HTTPConfig
	Log      LogConfig
	SQLite   SQLiteConfig
}

// GCPConfig holds project-level settings.
type GCPConfig struct {
	ProjectID       string
	CredentialsFile string
}

// BigQueryConfig names the warehouse tables.
type BigQueryConfig struct {
	Dataset          string
	PaymentTable     string
	BudgetTable      string
	VarianceTable    string
	RatesDataset     string
	RatesTable       string
	RatesLoadTimeout time.Duration
	BatchSize        int
}

// StorageConfig holds the output bucket.
type StorageConfig struct {
	Bucket     string
	MakePublic bool
}

// RatesConfig holds the rate service endpoints.
type RatesConfig struct {
	BCVURL         string
	TRMURL         string
	VendorEndpoint string
	Timeout        time.Duration
}

// AreasConfig locates the requester-to-area spreadsheet.
type AreasConfig struct {
	SheetID   string
	SheetName string
}

// HTTPConfig holds API server settings.
type HTTPConfig struct {
	Port         string
	MaxUploadMB  int64
	WriteTimeout time.Duration
	Workers      int
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string
	Format string
}

// SQLiteConfig points at the optional local store.
type SQLiteConfig struct {
	Path string
}

// envKeys maps configuration keys to the environment variables the service
// has always been deployed with.
var envKeys = map[string]string{
	"gcp.project_id":              "GCP_PROJECT_ID",
	"gcp.credentials_file":        "GOOGLE_APPLICATION_CREDENTIALS",
	"bigquery.dataset":            "BIGQUERY_DATASET",
	"bigquery.payment_table":      "BIGQUERY_TABLE",
	"bigquery.budget_table":       "BIGQUERY_TABLE_RESPONSABLE",
	"bigquery.variance_table":     "BIGQUERY_TABLE_DIFERENCIA",
	"bigquery.rates_dataset":      "BIGQUERY_DATASET_TASAS",
	"bigquery.rates_table":        "BIGQUERY_TABLE_TASAS",
	"bigquery.rates_load_timeout": "BIGQUERY_RATES_TIMEOUT",
	"bigquery.batch_size":         "BIGQUERY_BATCH_SIZE",
	"storage.bucket":              "GCS_BUCKET_NAME",
	"storage.make_public":         "GCS_MAKE_PUBLIC",
	"rates.bcv_url":               "BCV_API_URL",
	"rates.trm_url":               "TRM_API_URL",
	"rates.vendor_endpoint":       "TC_FTD_ENDPOINT",
	"rates.timeout":               "RATES_TIMEOUT",
	"areas.sheet_id":              "AREA_SHEET_ID",
	"areas.sheet_name":            "AREA_SHEET_NAME",
	"http.port":                   "PORT",
	"http.max_upload_mb":          "MAX_UPLOAD_MB",
	"http.write_timeout":          "HTTP_WRITE_TIMEOUT",
	"http.workers":                "JOB_WORKERS",
	"log.level":                   "LOG_LEVEL",
	"log.format":                  "LOG_FORMAT",
	"sqlite.path":                 "SQLITE_PATH",
}

func applyDefaults(v *viper.Viper) {
	v.SetDefault("bigquery.rates_dataset", "cxp_vzla")
	v.SetDefault("bigquery.rates_table", "bcv_tasas")
	v.SetDefault("bigquery.rates_load_timeout", 60*time.Second)
	v.SetDefault("bigquery.batch_size", 1000)
	v.SetDefault("storage.make_public", true)
	v.SetDefault("rates.bcv_url", "https://bcv-api.rafnixg.dev")
	v.SetDefault("rates.trm_url", "https://trm-colombia.vercel.app")
	v.SetDefault("rates.vendor_endpoint", "https://consulta-tasas-ftd-632121084032.europe-west1.run.app/")
	v.SetDefault("rates.timeout", 10*time.Second)
	v.SetDefault("areas.sheet_id", "1CQJ0HD7lZc9dKiL2V-a8uLtP0OmxX37l-8pq8NC8yFw")
	v.SetDefault("areas.sheet_name", "Solicitantes")
	v.SetDefault("http.port", "5000")
	v.SetDefault("http.max_upload_mb", 32)
	v.SetDefault("http.write_timeout", 10*time.Minute)
	v.SetDefault("http.workers", 2)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// Load reads .env (if present), then config.yaml (if present), then the
// environment. Missing files are not an error.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config.Load: reading .env: %w", err)
	}
	return LoadFrom(viper.New())
}

// LoadFrom builds the configuration from an existing viper instance, which
// lets tests inject values with v.Set.
func LoadFrom(v *viper.Viper) (*Config, error) {
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config.Load: reading config file: %w", err)
		}
	}

	applyDefaults(v)
	for key, env := range envKeys {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("config.Load: binding %s: %w", env, err)
		}
	}

	cfg := &Config{
		GCP: GCPConfig{
			ProjectID:       v.GetString("gcp.project_id"),
			CredentialsFile: v.GetString("gcp.credentials_file"),
		},
		BigQuery: BigQueryConfig{
			Dataset:          v.GetString("bigquery.dataset"),
			PaymentTable:     v.GetString("bigquery.payment_table"),
			BudgetTable:      v.GetString("bigquery.budget_table"),
			VarianceTable:    v.GetString("bigquery.variance_table"),
			RatesDataset:     v.GetString("bigquery.rates_dataset"),
			RatesTable:       v.GetString("bigquery.rates_table"),
			RatesLoadTimeout: v.GetDuration("bigquery.rates_load_timeout"),
			BatchSize:        v.GetInt("bigquery.batch_size"),
		},
		Storage: StorageConfig{
			Bucket:     v.GetString("storage.bucket"),
			MakePublic: v.GetBool("storage.make_public"),
		},
		Rates: RatesConfig{
			BCVURL:         v.GetString("rates.bcv_url"),
			TRMURL:         v.GetString("rates.trm_url"),
			VendorEndpoint: v.GetString("rates.vendor_endpoint"),
			Timeout:        v.GetDuration("rates.timeout"),
		},
		Areas: AreasConfig{
			SheetID:   v.GetString("areas.sheet_id"),
			SheetName: v.GetString("areas.sheet_name"),
		},
		HTTP: HTTPConfig{
			Port:         v.GetString("http.port"),
			MaxUploadMB:  v.GetInt64("http.max_upload_mb"),
			WriteTimeout: v.GetDuration("http.write_timeout"),
			Workers:      v.GetInt("http.workers"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
		SQLite: SQLiteConfig{
			Path: v.GetString("sqlite.path"),
		},
	}

	return cfg, nil
}

// ValidateWarehouse reports the missing settings needed to reach BigQuery.
func (c *Config) ValidateWarehouse() error {
	var missing []string
	if c.GCP.ProjectID == "" {
		missing = append(missing, "GCP_PROJECT_ID")
	}
	if c.BigQuery.Dataset == "" {
		missing = append(missing, "BIGQUERY_DATASET")
	}
	if c.BigQuery.PaymentTable == "" {
		missing = append(missing, "BIGQUERY_TABLE")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}
