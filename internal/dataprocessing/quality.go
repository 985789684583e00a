package dataprocessing

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rgdonohue/health-rank-dash/pkg/contracts/domain"
)

// ValidateIndicatorData checks value-level consistency for every catalog
// indicator: confidence bounds must be ordered and raw values should fall
// inside them. Ordering violations are tier errors; out-of-bounds raw
// values and high missing rates are warnings. Values are never altered or
// removed by this tier.
func (v *Validator) ValidateIndicatorData(ctx context.Context, catalog *domain.IndicatorCatalog, rows []domain.GeoRow) domain.IndicatorDataResult {
	partial := scanIndicatorData(catalog, rows)
	result := v.finalizeIndicatorData(partial, catalog, len(rows))

	v.logger.InfoContext(ctx, "indicator data validation complete",
		slog.Bool("valid", result.Valid),
		slog.Int("ci_order_violations", result.CIOrderViolations),
		slog.Int("out_of_bounds", result.OutOfBoundsValues))

	return result
}

// ValidateCompleteness computes per-column and per-indicator completeness
// ratios and flags indicators below the review threshold. Low completeness
// is a review signal, not a failure, so this tier is always valid.
func (v *Validator) ValidateCompleteness(ctx context.Context, catalog *domain.IndicatorCatalog, rows []domain.GeoRow) domain.CompletenessResult {
	partial := scanCompleteness(catalog, rows)
	result := v.finalizeCompleteness(partial, catalog, len(rows))

	v.logger.InfoContext(ctx, "completeness validation complete",
		slog.Float64("overall", result.OverallCompleteness),
		slog.Int("low_completeness", len(result.LowCompleteness)))

	return result
}

// statsPartial accumulates per-indicator raw value statistics.
type statsPartial struct {
	nonNull int
	min     *float64
	max     *float64
}

func (s *statsPartial) addValue(value float64) {
	s.nonNull++
	if s.min == nil || value < *s.min {
		v := value
		s.min = &v
	}
	if s.max == nil || value > *s.max {
		v := value
		s.max = &v
	}
}

func (s *statsPartial) merge(other *statsPartial) {
	s.nonNull += other.nonNull
	if other.min != nil && (s.min == nil || *other.min < *s.min) {
		s.min = other.min
	}
	if other.max != nil && (s.max == nil || *other.max > *s.max) {
		s.max = other.max
	}
}

// indicatorPartial accumulates value-level aggregates over one row chunk.
type indicatorPartial struct {
	stats        map[string]*statsPartial
	ciViolations map[string]int
	outOfBounds  map[string]int
}

func scanIndicatorData(catalog *domain.IndicatorCatalog, rows []domain.GeoRow) *indicatorPartial {
	p := &indicatorPartial{
		stats:        make(map[string]*statsPartial),
		ciViolations: make(map[string]int),
		outOfBounds:  make(map[string]int),
	}

	for i := range catalog.Indicators {
		p.stats[catalog.Indicators[i].ID] = &statsPartial{}
	}

	for i := range rows {
		for j := range catalog.Indicators {
			id := catalog.Indicators[j].ID
			value, ok := rows[i].Values[id]
			if !ok {
				continue
			}

			if value.RawValue != nil {
				p.stats[id].addValue(*value.RawValue)
			}

			if !value.HasCI() {
				continue
			}
			if *value.CILow > *value.CIHigh {
				p.ciViolations[id]++
				continue
			}
			if value.RawValue != nil && (*value.RawValue < *value.CILow || *value.RawValue > *value.CIHigh) {
				p.outOfBounds[id]++
			}
		}
	}

	return p
}

func (p *indicatorPartial) merge(other *indicatorPartial) {
	for id, stats := range other.stats {
		if existing, ok := p.stats[id]; ok {
			existing.merge(stats)
		} else {
			p.stats[id] = stats
		}
	}
	for id, n := range other.ciViolations {
		p.ciViolations[id] += n
	}
	for id, n := range other.outOfBounds {
		p.outOfBounds[id] += n
	}
}

// finalizeIndicatorData turns merged aggregates into the tier result.
// Messages are emitted in ascending indicator order, one aggregated entry
// per indicator and finding, so reports stay compact and stable.
func (v *Validator) finalizeIndicatorData(p *indicatorPartial, catalog *domain.IndicatorCatalog, rowCount int) domain.IndicatorDataResult {
	result := domain.IndicatorDataResult{}

	if rowCount == 0 {
		result.Valid = true
		result.Warnings = append(result.Warnings, "no data rows found")
		return result
	}

	result.PerIndicator = make(map[string]domain.IndicatorStats, len(catalog.Indicators))
	for i := range catalog.Indicators {
		id := catalog.Indicators[i].ID
		stats := p.stats[id]
		if stats == nil {
			stats = &statsPartial{}
		}

		missingRate := 1 - float64(stats.nonNull)/float64(rowCount)
		result.PerIndicator[id] = domain.IndicatorStats{
			TotalRows:   rowCount,
			NonNull:     stats.nonNull,
			MissingRate: missingRate,
			Min:         stats.min,
			Max:         stats.max,
		}

		if n := p.ciViolations[id]; n > 0 {
			result.CIOrderViolations += n
			result.Errors = append(result.Errors, fmt.Sprintf(
				"indicator %s: %d rows with ci_low greater than ci_high", id, n))
		}
		if n := p.outOfBounds[id]; n > 0 {
			result.OutOfBoundsValues += n
			result.Warnings = append(result.Warnings, fmt.Sprintf(
				"indicator %s: %d raw values outside confidence bounds", id, n))
		}
		if missingRate > v.schema.MaxMissingRate {
			result.Warnings = append(result.Warnings, fmt.Sprintf(
				"indicator %s: missing rate %.2f exceeds %.2f", id, missingRate, v.schema.MaxMissingRate))
		}
	}

	result.Valid = len(result.Errors) == 0
	return result
}

// completenessPartial accumulates non-null cell counts over one row chunk.
type completenessPartial struct {
	columnNonNull    map[string]int
	indicatorNonNull map[string]int
}

func scanCompleteness(catalog *domain.IndicatorCatalog, rows []domain.GeoRow) *completenessPartial {
	p := &completenessPartial{
		columnNonNull:    make(map[string]int),
		indicatorNonNull: make(map[string]int),
	}

	for i := range rows {
		row := &rows[i]
		if row.FIPS != "" {
			p.columnNonNull["fipscode"]++
		}
		if row.State != "" {
			p.columnNonNull["state"]++
		}
		if row.County != "" {
			p.columnNonNull["county"]++
		}
		if row.Year != 0 {
			p.columnNonNull["year"]++
		}
		if row.StateCode != "" {
			p.columnNonNull["statecode"]++
		}
		if row.CountyCode != "" {
			p.columnNonNull["countycode"]++
		}

		for j := range catalog.Indicators {
			group := &catalog.Indicators[j]
			value, ok := row.Values[group.ID]
			if !ok {
				continue
			}
			if value.RawValue != nil {
				p.indicatorNonNull[group.ID]++
			}
			for role, column := range group.Columns {
				if roleValue(value, role) != nil {
					p.columnNonNull[column]++
				}
			}
		}
	}

	return p
}

func (p *completenessPartial) merge(other *completenessPartial) {
	for column, n := range other.columnNonNull {
		p.columnNonNull[column] += n
	}
	for id, n := range other.indicatorNonNull {
		p.indicatorNonNull[id] += n
	}
}

// roleValue maps a column role to the value field it fills.
func roleValue(value domain.IndicatorValue, role domain.ColumnRole) *float64 {
	switch role {
	case domain.RoleRawValue:
		return value.RawValue
	case domain.RoleNumerator:
		return value.Numerator
	case domain.RoleDenominator:
		return value.Denominator
	case domain.RoleCILow:
		return value.CILow
	case domain.RoleCIHigh:
		return value.CIHigh
	default:
		return nil
	}
}

// finalizeCompleteness turns merged cell counts into ratios. The tracked
// column set is the four core context columns, the optional state and
// county code columns when populated, and every role column the catalog
// names.
func (v *Validator) finalizeCompleteness(p *completenessPartial, catalog *domain.IndicatorCatalog, rowCount int) domain.CompletenessResult {
	result := domain.CompletenessResult{Valid: true}

	if rowCount == 0 {
		result.Warnings = append(result.Warnings, "no data rows found")
		return result
	}

	columns := []string{"fipscode", "state", "county", "year"}
	for _, optional := range []string{"statecode", "countycode"} {
		if p.columnNonNull[optional] > 0 {
			columns = append(columns, optional)
		}
	}
	for i := range catalog.Indicators {
		columns = append(columns, catalog.Indicators[i].ColumnNames()...)
	}

	result.ColumnCompleteness = make(map[string]float64, len(columns))
	totalNonNull := 0
	for _, column := range columns {
		n := p.columnNonNull[column]
		totalNonNull += n
		result.ColumnCompleteness[column] = float64(n) / float64(rowCount)
	}
	if len(columns) > 0 {
		result.OverallCompleteness = float64(totalNonNull) / float64(len(columns)*rowCount)
	}

	result.IndicatorCompleteness = make(map[string]float64, len(catalog.Indicators))
	for i := range catalog.Indicators {
		id := catalog.Indicators[i].ID
		completeness := float64(p.indicatorNonNull[id]) / float64(rowCount)
		result.IndicatorCompleteness[id] = completeness

		if completeness < v.schema.ReviewThreshold {
			result.LowCompleteness = append(result.LowCompleteness, id)
			result.Warnings = append(result.Warnings, fmt.Sprintf(
				"indicator %s: completeness %.2f below review threshold %.2f",
				id, completeness, v.schema.ReviewThreshold))
		}
	}

	return result
}
