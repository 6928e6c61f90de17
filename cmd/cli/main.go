package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"

	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/app"
	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/config"
	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/domain"
	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/fiscal"
	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/logger"
	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/pipeline"
	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/workbook"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		boot := logger.New()
		boot.Fatal().Err(err).Msg("Failed to load configuration")
	}
	log := logger.NewWithOptions(cfg.Log.Level, cfg.Log.Format)

	switch os.Args[1] {
	case "consolidate":
		runConsolidate(cfg, log)
	case "rate":
		runRate(cfg, log)
	case "import-budget":
		runImportBudget(cfg, log)
	case "table-info":
		runTableInfo(cfg, log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("CAPEX Consolidated Payment CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  consolidate     Consolidate a payment report (local path or gs:// URI)")
	fmt.Println("  rate            Show the primary and reference rates for a date")
	fmt.Println("  import-budget   Load a budget sheet into the local SQLite store")
	fmt.Println("  table-info      Show the payment table metadata")
	fmt.Println("  help            Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

func runConsolidate(cfg *config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("consolidate", flag.ExitOnError)
	file := fs.String("file", "", "Payment report, local path or gs:// URI")
	absolute := fs.String("absolute", "", "Optional absolute invoice report, local path or gs:// URI")
	country := fs.String("pais", pipeline.DefaultCountry, "Country to process")
	local := fs.Bool("local", false, "Use the local SQLite store even when BigQuery is configured")
	out := fs.String("out", "", "Also write the consolidated workbook to this path")
	noUpload := fs.Bool("no-upload", false, "Do not upload the workbook to GCS")
	fs.Parse(os.Args[2:])

	if *file == "" {
		log.Fatal().Msg("Error: -file is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	a, err := app.New(ctx, cfg, app.Options{Local: *local, SkipUpload: *noUpload})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialise services")
	}
	defer a.Close()

	in := pipeline.Input{ReportName: filepath.Base(*file), Country: *country}
	if in.Report, err = a.Fetch(ctx, *file, os.ReadFile); err != nil {
		log.Fatal().Err(err).Str("file", *file).Msg("Failed to read payment report")
	}
	if *absolute != "" {
		if in.Absolute, err = a.Fetch(ctx, *absolute, os.ReadFile); err != nil {
			log.Fatal().Err(err).Str("file", *absolute).Msg("Failed to read absolute report")
		}
	}

	state, err := pipeline.Consolidate(ctx, a.Deps, in)
	if err != nil {
		log.Fatal().Err(err).Msg("Consolidation failed")
	}

	if *out != "" {
		if err := os.WriteFile(*out, state.Workbook, 0o644); err != nil {
			log.Fatal().Err(err).Str("path", *out).Msg("Failed to write workbook")
		}
		log.Info().Str("path", *out).Msg("Workbook written")
	}

	printJSON(state.Result())
}

func runRate(cfg *config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("rate", flag.ExitOnError)
	currency := fs.String("currency", domain.CurrencyVES, "Local currency (VES or COP)")
	date := fs.String("date", "", "Run date YYYY-MM-DD (defaults to today)")
	local := fs.Bool("local", false, "Skip the BigQuery reference rate table")
	fs.Parse(os.Args[2:])

	today := civil.DateOf(time.Now())
	if *date != "" {
		d, ok := fiscal.ParseDate(*date)
		if !ok {
			log.Fatal().Str("date", *date).Msg("Error: -date must be YYYY-MM-DD")
		}
		today = d
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	a, err := app.New(ctx, cfg, app.Options{Local: *local, SkipUpload: true, SkipAreas: true})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialise services")
	}
	defer a.Close()

	primary, err := a.Deps.Rates.PrimaryRate(ctx, strings.ToUpper(*currency), today)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to resolve primary rate")
	}

	friday := fiscal.ReferenceFriday(today)
	latestBCV, latestBCVDate := a.BCVTable.MostRecent(ctx)

	fmt.Println("\n=== Rates ===")
	fmt.Printf("Run date:         %s\n", today)
	fmt.Printf("Reference Friday: %s\n", friday)
	fmt.Printf("Primary rate:     %.4f %s (%s, %s)\n", primary.Value, primary.Currency, primary.Origin, primary.Date)
	fmt.Printf("BCV on %s: %.4f\n", today, a.BCVTable.RateFor(ctx, today.String()))
	fmt.Printf("Latest BCV:       %.4f (%s, %d dates)\n", latestBCV, latestBCVDate, a.BCVTable.Len())
	if vendor, ok := a.Deps.Vendor.(interface {
		MostRecent(context.Context) (float64, string)
	}); ok {
		v, d := vendor.MostRecent(ctx)
		fmt.Printf("Latest tc_ftd:    %.4f (%s)\n", v, d)
	}
	fmt.Println()
}

func runImportBudget(cfg *config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("import-budget", flag.ExitOnError)
	file := fs.String("file", "", "Budget workbook with Fecha, Tipo, Area and Monto columns")
	fs.Parse(os.Args[2:])

	if *file == "" {
		log.Fatal().Msg("Error: -file is required")
	}

	ctx := logger.WithContext(context.Background(), log)

	a, err := app.New(ctx, cfg, app.Options{Local: true, SkipUpload: true, SkipAreas: true})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialise services")
	}
	defer a.Close()

	data, err := a.Fetch(ctx, *file, os.ReadFile)
	if err != nil {
		log.Fatal().Err(err).Str("file", *file).Msg("Failed to read budget")
	}
	rows, err := workbook.ReadBudget(bytes.NewReader(data))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to parse budget")
	}
	if err := a.Local.ImportBudget(ctx, rows); err != nil {
		log.Fatal().Err(err).Msg("Failed to import budget")
	}

	fmt.Printf("Imported %d budget rows into %s\n", len(rows), a.LocalPath)
}

func runTableInfo(cfg *config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("table-info", flag.ExitOnError)
	fs.Parse(os.Args[2:])

	ctx := logger.WithContext(context.Background(), log)

	a, err := app.New(ctx, cfg, app.Options{SkipUpload: true, SkipAreas: true})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialise services")
	}
	defer a.Close()

	if a.Inspector == nil {
		log.Fatal().Err(cfg.ValidateWarehouse()).Msg("BigQuery is not configured")
	}
	info, err := a.Inspector.TableInfo(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read table metadata")
	}

	fmt.Println("\n=== Payment Table ===")
	fmt.Printf("Table:    %s\n", info.Table)
	fmt.Printf("Rows:     %d\n", info.NumRows)
	fmt.Printf("Columns:  %d\n", len(info.Fields))
	fmt.Printf("Size:     %.2f MB\n", float64(info.NumBytes)/(1024*1024))
	fmt.Printf("Modified: %s\n", info.LastModified.Format(time.RFC3339))
	fmt.Println()
}

func printJSON(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
}
