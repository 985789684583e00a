package dataprocessing

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rgdonohue/health-rank-dash/internal/config"
	"github.com/rgdonohue/health-rank-dash/internal/infrastructure"
	"github.com/rgdonohue/health-rank-dash/pkg/contracts/domain"
)

var fipsRe = regexp.MustCompile(config.FIPSPattern)

// Validator runs the four dataset validation tiers: structure, geography,
// indicator data, and completeness. Tiers are independent; a failing tier
// records its findings and the remaining tiers still run. Row-scanning
// tiers aggregate with associative merges, so splitting the rows across
// shards produces the same report as a single pass.
type Validator struct {
	logger *slog.Logger
	schema config.SchemaConfig
	shards int
}

// ValidatorConfig holds configuration options for the Validator.
type ValidatorConfig struct {
	Schema config.SchemaConfig
	Shards int // row-scan parallelism, 1 means sequential
}

// NewValidator creates a new dataset validator with the given configuration.
func NewValidator(logger *slog.Logger, cfg ValidatorConfig) *Validator {
	if logger == nil {
		logger = slog.Default()
	}

	// Fill unset thresholds from the application defaults
	schema := cfg.Schema
	if len(schema.RequiredColumns) == 0 {
		schema.RequiredColumns = config.Default().Schema.RequiredColumns
	}
	if schema.MinimumIndicators <= 0 {
		schema.MinimumIndicators = config.DefaultMinimumIndicators
	}
	if schema.MaxMissingRate <= 0 {
		schema.MaxMissingRate = config.DefaultMaxMissingRate
	}
	if schema.ReviewThreshold <= 0 {
		schema.ReviewThreshold = config.DefaultReviewThreshold
	}
	if schema.YearMin <= 0 {
		schema.YearMin = config.DefaultYearMin
	}
	if schema.YearMax <= 0 {
		schema.YearMax = config.DefaultYearMax
	}
	if schema.MinStates <= 0 {
		schema.MinStates = config.DefaultMinStates
	}
	if schema.ExpectedStates <= 0 {
		schema.ExpectedStates = config.DefaultExpectedStates
	}

	shards := cfg.Shards
	if shards <= 0 {
		shards = 1
	}

	return &Validator{
		logger: logger,
		schema: schema,
		shards: shards,
	}
}

// ValidateStructure checks that the header carries every required context
// column and that the catalog holds enough valid indicators to be usable.
// Reasons are itemized one per finding rather than collapsed into a single
// opaque failure.
func (v *Validator) ValidateStructure(ctx context.Context, keys []string, catalog *domain.IndicatorCatalog) domain.StructureResult {
	result := domain.StructureResult{
		ColumnCount:    len(keys),
		IndicatorCount: len(catalog.Indicators),
	}

	if len(keys) == 0 {
		result.Errors = append(result.Errors, "header contains no columns")
		result.MissingColumns = append(result.MissingColumns, v.schema.RequiredColumns...)
		return result
	}

	present := make(map[string]bool, len(keys))
	for _, key := range keys {
		present[strings.ToLower(strings.TrimSpace(key))] = true
	}

	for _, required := range v.schema.RequiredColumns {
		if !present[strings.ToLower(required)] {
			result.MissingColumns = append(result.MissingColumns, required)
			result.Errors = append(result.Errors, fmt.Sprintf("missing required column: %s", required))
		}
	}

	if result.IndicatorCount < v.schema.MinimumIndicators {
		result.Errors = append(result.Errors, fmt.Sprintf(
			"found %d valid indicators, minimum required is %d",
			result.IndicatorCount, v.schema.MinimumIndicators))
	}

	result.Valid = len(result.Errors) == 0

	v.logger.InfoContext(ctx, "structure validation complete",
		slog.Bool("valid", result.Valid),
		slog.Int("columns", result.ColumnCount),
		slog.Int("indicators", result.IndicatorCount),
		slog.Int("missing_columns", len(result.MissingColumns)))

	return result
}

// ValidateGeography checks FIPS codes, duplicate FIPS and year pairs, state
// coverage, and year ranges across the dataset rows. Failing rows stay in
// the dataset; the tier only counts and reports them.
func (v *Validator) ValidateGeography(ctx context.Context, rows []domain.GeoRow) domain.GeographyResult {
	partial := scanGeography(rows)
	result := v.finalizeGeography(partial, len(rows))

	v.logger.InfoContext(ctx, "geography validation complete",
		slog.Bool("valid", result.Valid),
		slog.Int("invalid_fips", result.InvalidFIPSCount),
		slog.Int("duplicate_pairs", result.DuplicateFIPSYearCount),
		slog.Int("states", result.StatesCovered))

	return result
}

// geoPartial accumulates geography aggregates over one row chunk. Every
// field merges associatively, which keeps sharded scans equivalent to a
// single sequential scan.
type geoPartial struct {
	invalidFIPS int
	missingFIPS int
	pairCounts  map[string]int
	states      map[string]bool
	yearMin     int
	yearMax     int
	missingYear int
}

func scanGeography(rows []domain.GeoRow) *geoPartial {
	p := &geoPartial{
		pairCounts: make(map[string]int),
		states:     make(map[string]bool),
	}
	for i := range rows {
		p.addRow(&rows[i])
	}
	return p
}

func (p *geoPartial) addRow(row *domain.GeoRow) {
	switch {
	case row.FIPS == "":
		p.missingFIPS++
	case !fipsRe.MatchString(row.FIPS):
		p.invalidFIPS++
	}

	if row.FIPS != "" {
		p.pairCounts[fmt.Sprintf("%s|%d", row.FIPS, row.Year)]++
	}

	if state := strings.TrimSpace(row.State); state != "" {
		p.states[state] = true
	}

	if row.Year == 0 {
		p.missingYear++
		return
	}
	if p.yearMin == 0 || row.Year < p.yearMin {
		p.yearMin = row.Year
	}
	if row.Year > p.yearMax {
		p.yearMax = row.Year
	}
}

func (p *geoPartial) merge(other *geoPartial) {
	p.invalidFIPS += other.invalidFIPS
	p.missingFIPS += other.missingFIPS
	p.missingYear += other.missingYear
	for pair, n := range other.pairCounts {
		p.pairCounts[pair] += n
	}
	for state := range other.states {
		p.states[state] = true
	}
	if other.yearMin != 0 && (p.yearMin == 0 || other.yearMin < p.yearMin) {
		p.yearMin = other.yearMin
	}
	if other.yearMax > p.yearMax {
		p.yearMax = other.yearMax
	}
}

// finalizeGeography turns merged aggregates into the tier result. All
// message formatting happens here, after merging, so messages never depend
// on shard boundaries.
func (v *Validator) finalizeGeography(p *geoPartial, rowCount int) domain.GeographyResult {
	result := domain.GeographyResult{
		InvalidFIPSCount: p.invalidFIPS,
		MissingFIPSCount: p.missingFIPS,
		StatesCovered:    len(p.states),
		YearMin:          p.yearMin,
		YearMax:          p.yearMax,
	}

	if rowCount == 0 {
		result.Valid = true
		result.Warnings = append(result.Warnings, "no data rows found")
		return result
	}

	duplicates := 0
	for _, n := range p.pairCounts {
		if n > 1 {
			duplicates += n - 1
		}
	}
	result.DuplicateFIPSYearCount = duplicates

	if p.invalidFIPS > 0 {
		result.Errors = append(result.Errors, fmt.Sprintf("%d rows carry invalid FIPS codes", p.invalidFIPS))
	}
	if p.missingFIPS > 0 {
		result.Warnings = append(result.Warnings, fmt.Sprintf("%d rows missing FIPS codes", p.missingFIPS))
	}
	if duplicates > 0 {
		result.Warnings = append(result.Warnings, fmt.Sprintf("%d duplicate FIPS and year combinations", duplicates))
	}
	if result.StatesCovered < v.schema.MinStates {
		result.Warnings = append(result.Warnings, fmt.Sprintf(
			"state coverage %d below expected minimum %d", result.StatesCovered, v.schema.MinStates))
	}
	if result.StatesCovered > v.schema.ExpectedStates {
		result.Warnings = append(result.Warnings, fmt.Sprintf(
			"state count %d exceeds expected %d", result.StatesCovered, v.schema.ExpectedStates))
	}
	if p.missingYear > 0 {
		result.Warnings = append(result.Warnings, fmt.Sprintf("%d rows missing year", p.missingYear))
	}
	if p.yearMin != 0 && (p.yearMin < v.schema.YearMin || p.yearMax > v.schema.YearMax) {
		result.Warnings = append(result.Warnings, fmt.Sprintf(
			"years %d-%d outside expected range %d-%d",
			p.yearMin, p.yearMax, v.schema.YearMin, v.schema.YearMax))
	}

	result.Valid = len(result.Errors) == 0
	return result
}

// RunAll executes all four tiers and assembles the combined quality
// report. Row-scanning tiers run across the configured shard count; the
// merged aggregates make the report identical for any shard count,
// including one.
func (v *Validator) RunAll(ctx context.Context, keys []string, catalog *domain.IndicatorCatalog, rows []domain.GeoRow) (*domain.QualityReport, error) {
	report := &domain.QualityReport{
		LoadID:      infrastructure.GetRunID(ctx),
		GeneratedAt: time.Now().UTC(),
	}

	report.Structure = v.ValidateStructure(ctx, keys, catalog)

	geo, ind, comp, err := v.scanRows(ctx, catalog, rows)
	if err != nil {
		return nil, err
	}

	report.Geography = v.finalizeGeography(geo, len(rows))
	report.Indicators = v.finalizeIndicatorData(ind, catalog, len(rows))
	report.Completeness = v.finalizeCompleteness(comp, catalog, len(rows))
	report.RecomputeValid()

	errCount, warnCount := report.TotalIssues()
	v.logger.InfoContext(ctx, "comprehensive validation complete",
		slog.Bool("valid", report.Valid),
		slog.Int("rows", len(rows)),
		slog.Int("errors", errCount),
		slog.Int("warnings", warnCount))

	return report, nil
}

// scanRows performs the single pass over the dataset that feeds the three
// row-level tiers, split across shards when configured.
func (v *Validator) scanRows(ctx context.Context, catalog *domain.IndicatorCatalog, rows []domain.GeoRow) (*geoPartial, *indicatorPartial, *completenessPartial, error) {
	if v.shards == 1 || len(rows) < v.shards {
		return scanGeography(rows), scanIndicatorData(catalog, rows), scanCompleteness(catalog, rows), nil
	}

	geoParts := make([]*geoPartial, v.shards)
	indParts := make([]*indicatorPartial, v.shards)
	compParts := make([]*completenessPartial, v.shards)

	g, gctx := errgroup.WithContext(ctx)
	chunk := (len(rows) + v.shards - 1) / v.shards
	for shard := 0; shard < v.shards; shard++ {
		start := shard * chunk
		end := start + chunk
		if end > len(rows) {
			end = len(rows)
		}
		if start >= end {
			geoParts[shard] = scanGeography(nil)
			indParts[shard] = scanIndicatorData(catalog, nil)
			compParts[shard] = scanCompleteness(catalog, nil)
			continue
		}

		shard := shard
		part := rows[start:end]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			geoParts[shard] = scanGeography(part)
			indParts[shard] = scanIndicatorData(catalog, part)
			compParts[shard] = scanCompleteness(catalog, part)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, nil, err
	}

	geo := geoParts[0]
	ind := indParts[0]
	comp := compParts[0]
	for shard := 1; shard < v.shards; shard++ {
		geo.merge(geoParts[shard])
		ind.merge(indParts[shard])
		comp.merge(compParts[shard])
	}

	return geo, ind, comp, nil
}
