package config

// Application constants for the health-rank-dash ingest pipeline
const (
	// Application Info
	AppName    = "health-rank-dash"
	AppVersion = "1.0.0"

	// Column Structure
	// Indicator columns follow v{NNN}_{suffix}; anything else is a
	// geographic/context column or a non-indicator extra.
	IndicatorColumnPattern = `^v(\d{3})_(.+)$`
	FIPSPattern            = `^\d{5}$`

	// Default File Paths (relative to working directory)
	DefaultCSVPath     = "data/analytic_data2025_v2.csv"
	DefaultCatalogPath = "config/indicator_catalog.json"
	DefaultReportPath  = "config/validation_report.json"
	DefaultLogFile     = "logs/app.log"

	// CHR analytic files carry two header rows: human descriptions first,
	// machine-readable column keys second.
	DefaultHeaderRows = 2

	// Validation Thresholds
	DefaultMinimumIndicators = 10
	DefaultMaxMissingRate    = 0.8
	DefaultReviewThreshold   = 0.1
	DefaultYearMin           = 2020
	DefaultYearMax           = 2030
	DefaultMinStates         = 40
	DefaultExpectedStates    = 51 // 50 states plus DC
)
