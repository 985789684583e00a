package domain

import (
	"time"
)

// StructureResult represents the outcome of structural validation: required
// context columns present and enough valid indicators to work with.
type StructureResult struct {
	Valid          bool     `json:"valid"`
	Errors         []string `json:"errors,omitempty"`
	Warnings       []string `json:"warnings,omitempty"`
	MissingColumns []string `json:"missing_columns,omitempty"`
	IndicatorCount int      `json:"indicator_count" validate:"min=0"`
	ColumnCount    int      `json:"column_count" validate:"min=0"`
}

// GeographyResult represents the outcome of geographic validation over the
// dataset rows. Rows that fail a check are counted, never removed.
type GeographyResult struct {
	Valid                  bool     `json:"valid"`
	Errors                 []string `json:"errors,omitempty"`
	Warnings               []string `json:"warnings,omitempty"`
	InvalidFIPSCount       int      `json:"invalid_fips_count" validate:"min=0"`
	MissingFIPSCount       int      `json:"missing_fips_count" validate:"min=0"`
	DuplicateFIPSYearCount int      `json:"duplicate_fips_year_count" validate:"min=0"`
	StatesCovered          int      `json:"states_covered" validate:"min=0"`
	YearMin                int      `json:"year_min,omitempty"`
	YearMax                int      `json:"year_max,omitempty"`
}

// IndicatorStats represents per-indicator value statistics gathered during
// data validation.
type IndicatorStats struct {
	TotalRows   int      `json:"total_rows" validate:"min=0"`
	NonNull     int      `json:"non_null" validate:"min=0"`
	MissingRate float64  `json:"missing_rate" validate:"min=0,max=1"`
	Min         *float64 `json:"min,omitempty"`
	Max         *float64 `json:"max,omitempty"`
}

// IndicatorDataResult represents the outcome of value-level validation:
// confidence interval ordering and raw value bounds checks across every
// indicator the catalog recognizes.
type IndicatorDataResult struct {
	Valid             bool                      `json:"valid"`
	Errors            []string                  `json:"errors,omitempty"`
	Warnings          []string                  `json:"warnings,omitempty"`
	CIOrderViolations int                       `json:"ci_order_violations" validate:"min=0"`
	OutOfBoundsValues int                       `json:"out_of_bounds_values" validate:"min=0"`
	PerIndicator      map[string]IndicatorStats `json:"per_indicator,omitempty"`
}

// CompletenessResult represents data completeness ratios per column and per
// indicator. Indicators below the review threshold are flagged for human
// review; low completeness on its own never fails validation.
type CompletenessResult struct {
	Valid                 bool               `json:"valid"`
	Warnings              []string           `json:"warnings,omitempty"`
	OverallCompleteness   float64            `json:"overall_completeness" validate:"min=0,max=1"`
	ColumnCompleteness    map[string]float64 `json:"column_completeness,omitempty"`
	IndicatorCompleteness map[string]float64 `json:"indicator_completeness,omitempty"`
	LowCompleteness       []string           `json:"low_completeness,omitempty"`
}

// QualityReport represents the combined result of all four validation
// tiers over one loaded dataset. Valid is the conjunction of the tier
// results; a false tier never stops the remaining tiers from running.
type QualityReport struct {
	LoadID       string              `json:"load_id,omitempty"`
	GeneratedAt  time.Time           `json:"generated_at"`
	Valid        bool                `json:"valid"`
	Structure    StructureResult     `json:"structure"`
	Geography    GeographyResult     `json:"geography"`
	Indicators   IndicatorDataResult `json:"indicators"`
	Completeness CompletenessResult  `json:"completeness"`
}

// RecomputeValid refreshes the envelope flag from the tier results.
func (r *QualityReport) RecomputeValid() {
	r.Valid = r.Structure.Valid && r.Geography.Valid &&
		r.Indicators.Valid && r.Completeness.Valid
}

// TotalIssues returns the combined count of tier errors and warnings,
// used for log and progress summaries.
func (r *QualityReport) TotalIssues() (errors, warnings int) {
	errors = len(r.Structure.Errors) + len(r.Geography.Errors) + len(r.Indicators.Errors)
	warnings = len(r.Structure.Warnings) + len(r.Geography.Warnings) +
		len(r.Indicators.Warnings) + len(r.Completeness.Warnings)
	return errors, warnings
}
