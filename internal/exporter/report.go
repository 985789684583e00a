package exporter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/rgdonohue/health-rank-dash/internal/errors"
	"github.com/rgdonohue/health-rank-dash/pkg/contracts/domain"
)

// ReportExporter handles validation report artifacts
type ReportExporter struct {
	logger    *slog.Logger
	csvWriter *CSVWriter
}

// NewReportExporter creates a new validation report exporter
func NewReportExporter(logger *slog.Logger) *ReportExporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportExporter{
		logger:    logger,
		csvWriter: NewCSVWriter(logger),
	}
}

// WriteJSON writes the quality report artifact
func (e *ReportExporter) WriteJSON(ctx context.Context, path string, report *domain.QualityReport) error {
	errCount, warnCount := report.TotalIssues()
	e.logger.InfoContext(ctx, "writing validation report",
		slog.String("path", path),
		slog.Bool("valid", report.Valid),
		slog.Int("errors", errCount),
		slog.Int("warnings", warnCount))

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.NewStorageError("failed to create directory for report output", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return errors.NewStorageError("failed to create report file", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(report); err != nil {
		return errors.NewStorageError("failed to encode validation report", err)
	}

	return nil
}

// FormatReport renders the quality report as a plain text summary for
// terminals and log attachments.
func FormatReport(report *domain.QualityReport) string {
	var b strings.Builder

	b.WriteString("County Health Rankings - Data Validation Report\n")
	b.WriteString("===============================================\n")
	if report.LoadID != "" {
		fmt.Fprintf(&b, "Load ID:    %s\n", report.LoadID)
	}
	if !report.GeneratedAt.IsZero() {
		fmt.Fprintf(&b, "Generated:  %s\n", report.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
	}
	fmt.Fprintf(&b, "Overall:    %s\n", passFail(report.Valid))

	b.WriteString("\nStructure\n---------\n")
	fmt.Fprintf(&b, "Status:           %s\n", passFail(report.Structure.Valid))
	fmt.Fprintf(&b, "Columns:          %d\n", report.Structure.ColumnCount)
	fmt.Fprintf(&b, "Valid indicators: %d\n", report.Structure.IndicatorCount)
	if len(report.Structure.MissingColumns) > 0 {
		fmt.Fprintf(&b, "Missing columns:  %s\n", strings.Join(report.Structure.MissingColumns, ", "))
	}
	writeFindings(&b, report.Structure.Errors, report.Structure.Warnings)

	b.WriteString("\nGeography\n---------\n")
	fmt.Fprintf(&b, "Status:           %s\n", passFail(report.Geography.Valid))
	fmt.Fprintf(&b, "States covered:   %d\n", report.Geography.StatesCovered)
	fmt.Fprintf(&b, "Invalid FIPS:     %d\n", report.Geography.InvalidFIPSCount)
	fmt.Fprintf(&b, "Missing FIPS:     %d\n", report.Geography.MissingFIPSCount)
	fmt.Fprintf(&b, "Duplicate pairs:  %d\n", report.Geography.DuplicateFIPSYearCount)
	if report.Geography.YearMin != 0 {
		fmt.Fprintf(&b, "Year range:       %d-%d\n", report.Geography.YearMin, report.Geography.YearMax)
	}
	writeFindings(&b, report.Geography.Errors, report.Geography.Warnings)

	b.WriteString("\nIndicator Data\n--------------\n")
	fmt.Fprintf(&b, "Status:           %s\n", passFail(report.Indicators.Valid))
	fmt.Fprintf(&b, "CI violations:    %d\n", report.Indicators.CIOrderViolations)
	fmt.Fprintf(&b, "Out of bounds:    %d\n", report.Indicators.OutOfBoundsValues)
	writeFindings(&b, report.Indicators.Errors, report.Indicators.Warnings)

	b.WriteString("\nCompleteness\n------------\n")
	fmt.Fprintf(&b, "Overall:          %.1f%%\n", report.Completeness.OverallCompleteness*100)
	fmt.Fprintf(&b, "Flagged for review: %d\n", len(report.Completeness.LowCompleteness))
	writeFindings(&b, nil, report.Completeness.Warnings)

	return b.String()
}

// WriteCompletenessCSV writes the per-indicator completeness table used
// for manual review of sparse indicators.
func (e *ReportExporter) WriteCompletenessCSV(ctx context.Context, path string, catalog *domain.IndicatorCatalog, report *domain.QualityReport) error {
	flagged := make(map[string]bool, len(report.Completeness.LowCompleteness))
	for _, id := range report.Completeness.LowCompleteness {
		flagged[id] = true
	}

	records := make([][]string, 0, len(catalog.Indicators))
	for i := range catalog.Indicators {
		group := &catalog.Indicators[i]
		stats := report.Indicators.PerIndicator[group.ID]
		records = append(records, []string{
			group.ID,
			group.Description,
			formatRate(report.Completeness.IndicatorCompleteness[group.ID]),
			formatInt(stats.NonNull),
			formatInt(stats.TotalRows),
			formatRate(stats.MissingRate),
			formatBool(flagged[group.ID]),
		})
	}

	headers := []string{"IndicatorID", "Description", "Completeness", "NonNull", "TotalRows", "MissingRate", "FlaggedForReview"}
	if err := e.csvWriter.WriteSimpleCSV(path, headers, records); err != nil {
		return errors.NewStorageError("failed to write completeness CSV", err)
	}

	e.logger.InfoContext(ctx, "completeness CSV written",
		slog.String("path", path),
		slog.Int("indicators", len(records)))

	return nil
}

func passFail(valid bool) string {
	if valid {
		return "PASS"
	}
	return "FAIL"
}

func writeFindings(b *strings.Builder, errs, warnings []string) {
	for _, e := range errs {
		fmt.Fprintf(b, "  ERROR: %s\n", e)
	}
	for _, w := range warnings {
		fmt.Fprintf(b, "  WARNING: %s\n", w)
	}
}
