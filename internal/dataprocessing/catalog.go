package dataprocessing

import (
	"context"
	"log/slog"
	"strings"

	"github.com/rgdonohue/health-rank-dash/pkg/contracts/domain"
)

// Issue strings recorded on malformed indicators. Downstream review
// tooling matches on these exact values.
const (
	IssueMissingRawValue  = "Incomplete indicator - missing rawvalue column"
	IssueOnlyMalformed    = "Incomplete indicator - only malformed column found"
	IssueMismatchedNumDen = "Mismatched numerator/denominator pair"
	IssueOrphanedCIBound  = "Orphaned confidence interval bound"
)

// CatalogBuilder turns classified candidate groups into a validated
// indicator catalog. Groups that fail a structural check are recorded as
// malformed with the reason and the columns observed; they are never
// silently discarded.
type CatalogBuilder struct {
	logger *slog.Logger
}

// NewCatalogBuilder creates a new catalog builder.
func NewCatalogBuilder(logger *slog.Logger) *CatalogBuilder {
	if logger == nil {
		logger = slog.Default()
	}
	return &CatalogBuilder{logger: logger}
}

// Build validates every candidate group and assembles the catalog. Checks
// run in a fixed order so a group failing several of them always reports
// the same issue: missing rawvalue first, then the numerator/denominator
// pairing, then confidence interval pairing. Unrecognized columns on an
// otherwise valid group are dropped with a logged note. The summary is
// computed last from the assembled slices, so its counts always match the
// catalog contents exactly.
func (b *CatalogBuilder) Build(ctx context.Context, classification *Classification) *domain.IndicatorCatalog {
	catalog := &domain.IndicatorCatalog{}

	for _, id := range classification.Order {
		group := classification.Groups[id]

		if issue, ok := diagnoseGroup(group); !ok {
			catalog.Malformed = append(catalog.Malformed, domain.MalformedIndicator{
				ID:      group.ID,
				Issue:   issue,
				Columns: candidateColumnNames(group),
			})
			b.logger.WarnContext(ctx, "malformed indicator group",
				slog.String("indicator", group.ID),
				slog.String("issue", issue),
				slog.String("columns", strings.Join(candidateColumnNames(group), ",")))
			continue
		}

		if len(group.Other) > 0 {
			b.logger.WarnContext(ctx, "dropping unrecognized columns from valid indicator",
				slog.String("indicator", group.ID),
				slog.String("columns", strings.Join(group.Other, ",")))
		}

		columns := make(map[domain.ColumnRole]string, len(group.Columns))
		for role, name := range group.Columns {
			columns[role] = name
		}

		_, hasCILow := columns[domain.RoleCILow]
		_, hasCIHigh := columns[domain.RoleCIHigh]

		catalog.Indicators = append(catalog.Indicators, domain.IndicatorGroup{
			ID:                     group.ID,
			Description:            group.Description,
			Columns:                columns,
			Complete:               true,
			HasConfidenceIntervals: hasCILow && hasCIHigh,
		})
	}

	catalog.Finalize(classification.TotalColumns)

	b.logger.InfoContext(ctx, "indicator catalog built",
		slog.Int("valid", catalog.Summary.TotalIndicators),
		slog.Int("malformed", catalog.Summary.MalformedCount),
		slog.Int("columns_processed", catalog.Summary.TotalColumnsProcessed))

	return catalog
}

// diagnoseGroup applies the structural checks in order and returns the
// first failing issue. ok is true when the group is valid.
func diagnoseGroup(group *CandidateGroup) (issue string, ok bool) {
	if _, hasRaw := group.Columns[domain.RoleRawValue]; !hasRaw {
		if len(group.Columns) == 0 {
			return IssueOnlyMalformed, false
		}
		return IssueMissingRawValue, false
	}

	_, hasNum := group.Columns[domain.RoleNumerator]
	_, hasDen := group.Columns[domain.RoleDenominator]
	if hasNum != hasDen {
		return IssueMismatchedNumDen, false
	}

	_, hasLow := group.Columns[domain.RoleCILow]
	_, hasHigh := group.Columns[domain.RoleCIHigh]
	if hasLow != hasHigh {
		return IssueOrphanedCIBound, false
	}

	return "", true
}

// candidateColumnNames lists every column observed for a candidate group,
// recognized roles first, in role order.
func candidateColumnNames(group *CandidateGroup) []string {
	names := make([]string, 0, len(group.Columns)+len(group.Other))
	for _, role := range domain.KnownRoles {
		if name, ok := group.Columns[role]; ok {
			names = append(names, name)
		}
	}
	names = append(names, group.Other...)
	return names
}
