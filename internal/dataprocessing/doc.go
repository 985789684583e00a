// Package dataprocessing turns County Health Rankings analytic CSV files
// into a validated indicator catalog and a scored dataset. It consolidates
// header classification, catalog construction, and multi-tier validation
// into a cohesive package covering the full lifecycle from CSV ingestion
// to a quality report.
//
// # Architecture
//
// The package is organized into four main components:
//
// 1. Classifier: Groups header columns into indicator candidates by ID and role
// 2. CatalogBuilder: Validates candidate groups into a catalog, recording malformed ones
// 3. Validator: Runs the structure, geography, indicator-data, and completeness tiers
// 4. Loader: Reads dual-header CSV files and drives the full pipeline
//
// # Usage
//
// Building a catalog from a header:
//
//	classifier := dataprocessing.NewClassifier(logger)
//	classification, err := classifier.Classify(ctx, keys, descriptions)
//	if err != nil {
//	    return err
//	}
//	catalog, err := dataprocessing.NewCatalogBuilder(logger).Build(ctx, classification)
//
// Loading and validating a full dataset:
//
//	loader := dataprocessing.NewLoader(logger, dataprocessing.LoaderConfig{
//	    Schema: cfg.Schema,
//	    Shards: cfg.Processing.Shards,
//	})
//	dataset, report, err := loader.LoadDataset(ctx, "analytic_data2025_v2.csv")
//
// # Data Flow
//
// The typical data flow through this package:
//
//	CSV File → Classifier → CandidateGroups → CatalogBuilder → IndicatorCatalog
//	                                                → Loader rows → Validator → QualityReport
//
// # Error Handling
//
// Only unusable inputs abort processing:
//
//	- Duplicate column names raise DuplicateColumnError before any group is emitted
//	- Missing required columns or too few indicators raise SchemaError
//	- Malformed indicator groups are recorded in the catalog, never dropped
//	- Data quality findings accumulate in the report as errors and warnings
//
// # Performance Considerations
//
// Row validation shards across goroutines with associative partial
// aggregates, so the report is identical for any shard count.
package dataprocessing
