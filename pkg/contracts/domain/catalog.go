package domain

import (
	"fmt"
	"sort"
	"strings"
)

// ColumnRole identifies the function of a column within an indicator group.
type ColumnRole string

const (
	RoleRawValue    ColumnRole = "rawvalue"
	RoleNumerator   ColumnRole = "numerator"
	RoleDenominator ColumnRole = "denominator"
	RoleCILow       ColumnRole = "ci_low"
	RoleCIHigh      ColumnRole = "ci_high"
)

// KnownRoles lists every recognized column suffix. Matching is exact and
// case-sensitive; any other suffix is retained as an "other" column on the
// candidate group rather than discarded.
var KnownRoles = []ColumnRole{
	RoleRawValue,
	RoleNumerator,
	RoleDenominator,
	RoleCILow,
	RoleCIHigh,
}

// IsKnownRole reports whether suffix is one of the recognized column roles.
func IsKnownRole(suffix string) bool {
	for _, r := range KnownRoles {
		if suffix == string(r) {
			return true
		}
	}
	return false
}

// IndicatorGroup represents one health measure and the set of CSV columns
// that carry its data. The ID is the three-digit numeric portion of the
// column names with leading zeros preserved ("001", never "1"). Groups in a
// catalog hold recognized role columns only; unrecognized siblings are
// dropped during catalog construction with a logged note.
type IndicatorGroup struct {
	ID                     string                `json:"id" validate:"required,len=3"`
	Description            string                `json:"description,omitempty"`
	Columns                map[ColumnRole]string `json:"columns" validate:"required"`
	Complete               bool                  `json:"complete"`
	HasConfidenceIntervals bool                  `json:"has_confidence_intervals"`
}

// RawValueColumn returns the group's primary value column name,
// or "" when the group has none.
func (g *IndicatorGroup) RawValueColumn() string {
	return g.Columns[RoleRawValue]
}

// CIColumns returns the lower and upper confidence bound column names.
// Both are "" unless HasConfidenceIntervals is true.
func (g *IndicatorGroup) CIColumns() (low, high string) {
	return g.Columns[RoleCILow], g.Columns[RoleCIHigh]
}

// ColumnNames returns every column name attached to the group in role order.
func (g *IndicatorGroup) ColumnNames() []string {
	names := make([]string, 0, len(g.Columns))
	for _, role := range KnownRoles {
		if name, ok := g.Columns[role]; ok {
			names = append(names, name)
		}
	}
	return names
}

// MalformedIndicator represents an indicator group that failed structural
// validation. Malformed groups are recorded alongside the reason so that no
// column disappears silently from the catalog accounting.
type MalformedIndicator struct {
	ID      string   `json:"id" validate:"required,len=3"`
	Issue   string   `json:"issue" validate:"required"`
	Columns []string `json:"columns,omitempty"`
}

// CatalogSummary represents aggregate counts over a built catalog. Counts
// are derived from the catalog's actual contents after every group has been
// classified, never incremented along the way.
type CatalogSummary struct {
	TotalIndicators       int `json:"total_indicators" validate:"min=0"`
	CompleteIndicators    int `json:"complete_indicators" validate:"min=0"`
	IndicatorsWithCI      int `json:"indicators_with_ci" validate:"min=0"`
	MalformedCount        int `json:"malformed_count" validate:"min=0"`
	TotalColumnsProcessed int `json:"total_columns_processed" validate:"min=0"`
}

// IndicatorCatalog represents the validated result of classifying a CHR
// header: every indicator group that passed validation, every group that
// failed it, and summary counts over both. A catalog is immutable once
// built; re-ingesting a file produces a new catalog rather than mutating
// an existing one.
type IndicatorCatalog struct {
	Indicators []IndicatorGroup     `json:"indicators"`
	Malformed  []MalformedIndicator `json:"malformed"`
	Summary    CatalogSummary       `json:"summary"`

	byID map[string]int
}

// NormalizeIndicatorID maps external indicator identifiers to catalog form.
// Callers upstream address indicators by column prefix ("v001"); the catalog
// keys by bare three-digit ID ("001"). Unrecognized shapes pass through
// unchanged so lookup failures surface as not-found rather than panics.
func NormalizeIndicatorID(id string) string {
	if len(id) == 4 && (id[0] == 'v' || id[0] == 'V') {
		return id[1:]
	}
	return id
}

// Lookup returns the indicator group for id in O(1), accepting either the
// bare "001" form or the "v001" column-prefix form.
func (c *IndicatorCatalog) Lookup(id string) (*IndicatorGroup, bool) {
	i, ok := c.byID[NormalizeIndicatorID(id)]
	if !ok {
		return nil, false
	}
	return &c.Indicators[i], true
}

// IndicatorIDs returns the catalog's valid indicator IDs in ascending
// numeric order.
func (c *IndicatorCatalog) IndicatorIDs() []string {
	ids := make([]string, len(c.Indicators))
	for i := range c.Indicators {
		ids[i] = c.Indicators[i].ID
	}
	return ids
}

// Finalize sorts the catalog deterministically, rebuilds the lookup index,
// and recomputes the summary from the catalog's actual contents. It must be
// called once after construction; catalogs decoded from JSON call it to
// restore the index.
func (c *IndicatorCatalog) Finalize(totalColumns int) {
	sort.Slice(c.Indicators, func(i, j int) bool {
		return c.Indicators[i].ID < c.Indicators[j].ID
	})
	sort.Slice(c.Malformed, func(i, j int) bool {
		return c.Malformed[i].ID < c.Malformed[j].ID
	})

	c.byID = make(map[string]int, len(c.Indicators))
	for i := range c.Indicators {
		c.byID[c.Indicators[i].ID] = i
	}

	summary := CatalogSummary{
		TotalIndicators:       len(c.Indicators),
		MalformedCount:        len(c.Malformed),
		TotalColumnsProcessed: totalColumns,
	}
	for i := range c.Indicators {
		if c.Indicators[i].Complete {
			summary.CompleteIndicators++
		}
		if c.Indicators[i].HasConfidenceIntervals {
			summary.IndicatorsWithCI++
		}
	}
	c.Summary = summary
}

// String returns a one-line description suitable for progress output.
func (c *IndicatorCatalog) String() string {
	return fmt.Sprintf("catalog: %d valid, %d malformed, %d columns",
		c.Summary.TotalIndicators, c.Summary.MalformedCount, c.Summary.TotalColumnsProcessed)
}

// GeoColumnSet lists the non-indicator context columns recognized in CHR
// analytic files. Column names outside this set that also fail the
// indicator pattern are carried as extra non-indicator columns.
var GeoColumnSet = map[string]bool{
	"statecode":  true,
	"countycode": true,
	"fipscode":   true,
	"state":      true,
	"county":     true,
	"year":       true,
}

// IsGeoColumn reports whether name is one of the recognized geographic or
// context columns. Matching is case-insensitive to tolerate header casing
// drift between CHR releases.
func IsGeoColumn(name string) bool {
	return GeoColumnSet[strings.ToLower(strings.TrimSpace(name))]
}
