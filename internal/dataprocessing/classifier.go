package dataprocessing

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/rgdonohue/health-rank-dash/internal/config"
	"github.com/rgdonohue/health-rank-dash/internal/errors"
	"github.com/rgdonohue/health-rank-dash/pkg/contracts/domain"
)

var indicatorColumnRe = regexp.MustCompile(config.IndicatorColumnPattern)

// Classifier assigns every column of a CHR analytic header to exactly one
// bucket: a role inside an indicator candidate group, the group's retained
// unrecognized columns, the known geographic/context columns, or the
// non-indicator extras. Classification never loses a column; the sum of the
// buckets always equals the input width.
type Classifier struct {
	logger *slog.Logger
}

// NewClassifier creates a new header classifier.
func NewClassifier(logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{logger: logger}
}

// CandidateGroup accumulates the columns observed for one indicator ID
// before structural validation decides whether the group is usable.
type CandidateGroup struct {
	ID          string
	Description string
	Columns     map[domain.ColumnRole]string
	Other       []string
}

// Classification is the result of classifying one header: candidate groups
// keyed by indicator ID plus the non-indicator buckets. Order preserves
// first encounter so that logs stay stable across runs.
type Classification struct {
	Groups       map[string]*CandidateGroup
	Order        []string
	GeoColumns   []string
	NonIndicator []string
	TotalColumns int
}

// Classify walks the machine-readable header row and buckets every column.
// descriptions is the human-readable header row aligned index-for-index with
// keys; pass nil when the file carries a single header row. A repeated
// column name anywhere in the header aborts classification with a
// DuplicateColumnError before any group is emitted, because duplicate names
// make role assignment ambiguous.
func (c *Classifier) Classify(ctx context.Context, keys []string, descriptions []string) (*Classification, error) {
	result := &Classification{
		Groups:       make(map[string]*CandidateGroup),
		TotalColumns: len(keys),
	}

	seen := make(map[string]bool, len(keys))
	for i, key := range keys {
		if seen[key] {
			return nil, errors.NewDuplicateColumnError(key)
		}
		seen[key] = true

		m := indicatorColumnRe.FindStringSubmatch(key)
		if m == nil {
			if domain.IsGeoColumn(key) {
				result.GeoColumns = append(result.GeoColumns, key)
			} else {
				result.NonIndicator = append(result.NonIndicator, key)
			}
			continue
		}

		id, suffix := m[1], m[2]
		group, ok := result.Groups[id]
		if !ok {
			group = &CandidateGroup{
				ID:      id,
				Columns: make(map[domain.ColumnRole]string),
			}
			result.Groups[id] = group
			result.Order = append(result.Order, id)
		}

		if domain.IsKnownRole(suffix) {
			group.Columns[domain.ColumnRole(suffix)] = key
			if suffix == string(domain.RoleRawValue) && descriptions != nil && i < len(descriptions) {
				group.Description = cleanDescription(descriptions[i])
			}
		} else {
			group.Other = append(group.Other, key)
		}
	}

	c.logger.InfoContext(ctx, "header classified",
		slog.Int("total_columns", result.TotalColumns),
		slog.Int("candidate_groups", len(result.Groups)),
		slog.Int("geo_columns", len(result.GeoColumns)),
		slog.Int("non_indicator_columns", len(result.NonIndicator)))

	return result, nil
}

// cleanDescription strips the quoting CHR wraps around description cells.
func cleanDescription(desc string) string {
	return strings.Trim(strings.TrimSpace(desc), `"`)
}
