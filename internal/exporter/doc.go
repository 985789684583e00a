// Package exporter writes catalog and validation artifacts to disk.
//
// This package contains three main components:
//
// CSVWriter: Core CSV writing functionality with support for headers,
// append mode, and UTF-8 BOM for Excel compatibility.
//
// CatalogExporter: Serializes the indicator catalog to JSON and reads it
// back. Catalog output carries no timestamps, so repeated exports of the
// same dataset are byte-for-byte identical.
//
// ReportExporter: Writes the validation quality report as JSON, renders a
// plain text summary for terminals, and emits the per-indicator
// completeness CSV used for manual review.
//
// Example usage:
//
//	catalogExp := exporter.NewCatalogExporter(logger)
//	if err := catalogExp.WriteJSON(ctx, "config/indicator_catalog.json", catalog); err != nil {
//		return err
//	}
//
//	reportExp := exporter.NewReportExporter(logger)
//	if err := reportExp.WriteJSON(ctx, "config/validation_report.json", report); err != nil {
//		return err
//	}
//	fmt.Print(exporter.FormatReport(report))
package exporter
