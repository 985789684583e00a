package domain

import (
	"time"
)

// IndicatorValue represents the measured values one row carries for one
// indicator. Fields are pointers because absence is meaningful: a nil field
// is a blank or unparseable cell, never zero.
type IndicatorValue struct {
	RawValue    *float64 `json:"raw_value,omitempty"`
	Numerator   *float64 `json:"numerator,omitempty"`
	Denominator *float64 `json:"denominator,omitempty"`
	CILow       *float64 `json:"ci_low,omitempty"`
	CIHigh      *float64 `json:"ci_high,omitempty"`
}

// HasCI reports whether both confidence bounds are present.
func (v IndicatorValue) HasCI() bool {
	return v.CILow != nil && v.CIHigh != nil
}

// GeoRow represents one geographic unit (county or state roll-up) for one
// release year. Rows with invalid FIPS codes are retained and flagged so
// that quality reporting can count them; dropping them would hide data.
type GeoRow struct {
	StateCode  string                    `json:"state_code,omitempty"`
	CountyCode string                    `json:"county_code,omitempty"`
	FIPS       string                    `json:"fips"`
	State      string                    `json:"state"`
	County     string                    `json:"county"`
	Year       int                       `json:"year"`
	ValidFIPS  bool                      `json:"valid_fips"`
	Values     map[string]IndicatorValue `json:"values,omitempty"`
}

// Value returns the row's values for the given indicator ID, accepting
// either the "001" or "v001" form.
func (r *GeoRow) Value(indicatorID string) (IndicatorValue, bool) {
	v, ok := r.Values[NormalizeIndicatorID(indicatorID)]
	return v, ok
}

// DatasetMeta represents provenance for one load of the analytic file.
// This tracks source and parse anomalies for audit purposes.
type DatasetMeta struct {
	LoadID       string    `json:"load_id" validate:"required,uuid"`
	SourcePath   string    `json:"source_path" validate:"required"`
	LoadedAt     time.Time `json:"loaded_at"`
	RowCount     int       `json:"row_count" validate:"min=0"`
	SkippedCells int       `json:"skipped_cells" validate:"min=0"`
	RaggedRows   int       `json:"ragged_rows" validate:"min=0"`
}

// Dataset represents the parsed rows of one analytic file together with the
// catalog they were parsed against. Like the catalog, a dataset is rebuilt
// on re-ingest rather than mutated in place.
type Dataset struct {
	Rows    []GeoRow          `json:"rows"`
	Catalog *IndicatorCatalog `json:"-"`
	Meta    DatasetMeta       `json:"meta"`
}

// RowFilter represents equality filters for querying dataset rows.
// Zero-valued fields are ignored; Indicator restricts the projected values
// to a single indicator and Limit caps the result count (0 means no cap).
type RowFilter struct {
	State     string `json:"state,omitempty"`
	FIPS      string `json:"fips,omitempty"`
	Year      int    `json:"year,omitempty"`
	Indicator string `json:"indicator,omitempty"`
	Limit     int    `json:"limit,omitempty"`
}
