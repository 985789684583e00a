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
	outPath := flag.String("out", "", "catalog JSON output path (defaults to config/indicator_catalog.json)")
	quiet := flag.Bool("quiet", false, "suppress the catalog summary on stdout")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Warn("Failed to load config, using defaults", "error", err)
		cfg = config.Default()
	}

	if *csvPath == "" {
		*csvPath = cfg.Data.CSVPath
	}
	if *outPath == "" {
		*outPath = cfg.Data.CatalogPath
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

	logger.InfoContext(ctx, "starting catalog extraction",
		slog.String("input", *csvPath),
		slog.String("output", *outPath))

	loader := dataprocessing.NewLoader(logger, dataprocessing.LoaderConfig{
		HeaderRows: cfg.Data.HeaderRows,
		Schema:     cfg.Schema,
		Shards:     cfg.Processing.Shards,
	})

	fmt.Printf("Parsing indicator catalog from %s\n", *csvPath)
	catalog, err := loader.LoadCatalog(ctx, *csvPath)
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
			logger.ErrorContext(ctx, "catalog extraction failed",
				slog.String("error", err.Error()))
			fmt.Fprintf(os.Stderr, "Catalog extraction failed: %v\n", err)
		}
		os.Exit(1)
	}

	catalogExporter := exporter.NewCatalogExporter(logger)
	if err := catalogExporter.WriteJSON(ctx, *outPath, catalog); err != nil {
		logger.ErrorContext(ctx, "failed to write catalog",
			slog.String("path", *outPath),
			slog.String("error", err.Error()))
		fmt.Fprintf(os.Stderr, "Failed to write catalog: %v\n", err)
		os.Exit(1)
	}

	if !*quiet {
		fmt.Println(catalog.String())
		if len(catalog.Malformed) > 0 {
			fmt.Println("Malformed indicators:")
			for _, m := range catalog.Malformed {
				fmt.Printf("  v%s: %s\n", m.ID, m.Issue)
			}
		}
	}

	logger.InfoContext(ctx, "catalog extraction completed",
		slog.Int("valid_indicators", catalog.Summary.TotalIndicators),
		slog.Int("malformed_indicators", catalog.Summary.MalformedCount),
		slog.String("output", *outPath))

	fmt.Printf("Catalog extraction complete: %d valid, %d malformed\n",
		catalog.Summary.TotalIndicators, catalog.Summary.MalformedCount)
}
