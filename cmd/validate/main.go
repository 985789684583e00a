package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/rgdonohue/health-rank-dash/internal/config"
	"github.com/rgdonohue/health-rank-dash/internal/dataprocessing"
	apperrors "github.com/rgdonohue/health-rank-dash/internal/errors"
	"github.com/rgdonohue/health-rank-dash/internal/exporter"
	"github.com/rgdonohue/health-rank-dash/internal/infrastructure"
)

func main() {
	csvPath := flag.String("csv", "", "input CSV path (defaults to CHR_DATA_CSVPATH or config file)")
	reportPath := flag.String("report", "", "validation report JSON output path")
	completenessPath := flag.String("completeness", "", "per-indicator completeness CSV output path (empty disables)")
	quiet := flag.Bool("quiet", false, "suppress the report text on stdout")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Warn("Failed to load config, using defaults", "error", err)
		cfg = config.Default()
	}

	if *csvPath == "" {
		*csvPath = cfg.Data.CSVPath
	}
	if *reportPath == "" {
		*reportPath = cfg.Data.ReportPath
	}
	if *completenessPath == "" {
		*completenessPath = cfg.Data.CompletenessCSV
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	ctx := infrastructure.EnsureRunID(context.Background())

	providers, err := infrastructure.InitializeOTel(infrastructure.OTelConfigFromTelemetry(cfg.Telemetry), logger)
	if err != nil {
		logger.WarnContext(ctx, "telemetry initialization failed, continuing without tracing",
			slog.String("error", err.Error()))
	} else {
		defer providers.Shutdown(context.Background())
	}

	logger.InfoContext(ctx, "starting dataset validation",
		slog.String("input", *csvPath),
		slog.String("report", *reportPath),
		slog.Int("shards", cfg.Processing.Shards))

	loader := dataprocessing.NewLoader(logger, dataprocessing.LoaderConfig{
		HeaderRows: cfg.Data.HeaderRows,
		Schema:     cfg.Schema,
		Shards:     cfg.Processing.Shards,
	})

	fmt.Printf("Validating dataset %s\n", *csvPath)
	dataset, report, err := loader.LoadDataset(ctx, *csvPath)
	if err != nil {
		var schemaErr *apperrors.SchemaError
		if errors.As(err, &schemaErr) {
			logger.ErrorContext(ctx, "schema validation failed",
				slog.Int("reasons", len(schemaErr.Reasons)))
			fmt.Fprintln(os.Stderr, "Schema validation failed:")
			for _, reason := range schemaErr.Reasons {
				fmt.Fprintf(os.Stderr, "  - %s\n", reason)
			}
		} else {
			logger.ErrorContext(ctx, "dataset validation failed",
				slog.String("error", err.Error()))
			fmt.Fprintf(os.Stderr, "Dataset validation failed: %v\n", err)
		}
		os.Exit(1)
	}

	reportExporter := exporter.NewReportExporter(logger)
	if err := reportExporter.WriteJSON(ctx, *reportPath, report); err != nil {
		logger.ErrorContext(ctx, "failed to write report",
			slog.String("path", *reportPath),
			slog.String("error", err.Error()))
		fmt.Fprintf(os.Stderr, "Failed to write report: %v\n", err)
		os.Exit(1)
	}

	if *completenessPath != "" {
		if err := reportExporter.WriteCompletenessCSV(ctx, *completenessPath, dataset.Catalog, report); err != nil {
			logger.ErrorContext(ctx, "failed to write completeness CSV",
				slog.String("path", *completenessPath),
				slog.String("error", err.Error()))
			fmt.Fprintf(os.Stderr, "Failed to write completeness CSV: %v\n", err)
			os.Exit(1)
		}
	}

	if !*quiet {
		fmt.Println(exporter.FormatReport(report))
	}

	errCount, warnCount := report.TotalIssues()
	logger.InfoContext(ctx, "dataset validation completed",
		slog.Bool("valid", report.Valid),
		slog.Int("rows", dataset.Meta.RowCount),
		slog.Int("errors", errCount),
		slog.Int("warnings", warnCount))

	fmt.Printf("Validation complete: %d rows, %d errors, %d warnings\n",
		dataset.Meta.RowCount, errCount, warnCount)

	// A completed run with a failing report still exits nonzero so CI
	// pipelines catch it.
	if !report.Valid {
		os.Exit(1)
	}
}
