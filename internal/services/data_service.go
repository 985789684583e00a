package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/rgdonohue/health-rank-dash/pkg/contracts/domain"
)

// DataService provides read access to the currently loaded catalog and
// dataset. A reload replaces both pointers under the lock, so readers
// always observe a consistent catalog/dataset pair.
type DataService struct {
	mu      sync.RWMutex
	catalog *domain.IndicatorCatalog
	dataset *domain.Dataset
	logger  *slog.Logger
}

// NewDataService creates a new data service
func NewDataService(logger *slog.Logger) *DataService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DataService{logger: logger}
}

// Reload swaps in a freshly loaded dataset. The previous dataset is
// never mutated; in-flight readers keep whichever snapshot they started
// with.
func (s *DataService) Reload(ctx context.Context, dataset *domain.Dataset) {
	s.mu.Lock()
	s.dataset = dataset
	if dataset != nil {
		s.catalog = dataset.Catalog
	} else {
		s.catalog = nil
	}
	s.mu.Unlock()

	if dataset == nil {
		s.logger.InfoContext(ctx, "data service cleared")
		return
	}

	indicators := 0
	if dataset.Catalog != nil {
		indicators = len(dataset.Catalog.Indicators)
	}
	s.logger.InfoContext(ctx, "data service reloaded",
		slog.String("load_id", dataset.Meta.LoadID),
		slog.Int("rows", len(dataset.Rows)),
		slog.Int("indicators", indicators))
}

// Meta returns the load metadata for the current dataset.
func (s *DataService) Meta(ctx context.Context) (domain.DatasetMeta, error) {
	s.mu.RLock()
	dataset := s.dataset
	s.mu.RUnlock()

	if dataset == nil {
		return domain.DatasetMeta{}, ErrNoDatasetLoaded
	}
	return dataset.Meta, nil
}

// States returns the distinct state names present in the dataset, sorted
// ascending.
func (s *DataService) States(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	dataset := s.dataset
	s.mu.RUnlock()

	if dataset == nil {
		return nil, ErrNoDatasetLoaded
	}

	seen := make(map[string]bool)
	for i := range dataset.Rows {
		state := strings.TrimSpace(dataset.Rows[i].State)
		if state != "" {
			seen[state] = true
		}
	}

	states := make([]string, 0, len(seen))
	for state := range seen {
		states = append(states, state)
	}
	sort.Strings(states)

	return states, nil
}

// CountiesByState returns the distinct county names for a state, sorted
// ascending. State matching is case-insensitive.
func (s *DataService) CountiesByState(ctx context.Context, state string) ([]string, error) {
	s.mu.RLock()
	dataset := s.dataset
	s.mu.RUnlock()

	if dataset == nil {
		return nil, ErrNoDatasetLoaded
	}

	want := strings.ToLower(strings.TrimSpace(state))
	if want == "" {
		return nil, fmt.Errorf("%w: empty state name", ErrStateNotFound)
	}

	matched := false
	seen := make(map[string]bool)
	for i := range dataset.Rows {
		row := &dataset.Rows[i]
		if strings.ToLower(strings.TrimSpace(row.State)) != want {
			continue
		}
		matched = true
		county := strings.TrimSpace(row.County)
		if county != "" {
			seen[county] = true
		}
	}

	if !matched {
		s.logger.DebugContext(ctx, "state not found",
			slog.String("state", state))
		return nil, fmt.Errorf("%w: %s", ErrStateNotFound, state)
	}

	counties := make([]string, 0, len(seen))
	for county := range seen {
		counties = append(counties, county)
	}
	sort.Strings(counties)

	return counties, nil
}

// Indicators returns the valid indicator groups in ascending ID order.
// The returned slice is shared with the catalog and must not be
// modified.
func (s *DataService) Indicators(ctx context.Context) ([]domain.IndicatorGroup, error) {
	s.mu.RLock()
	catalog := s.catalog
	s.mu.RUnlock()

	if catalog == nil {
		return nil, ErrNoDatasetLoaded
	}
	return catalog.Indicators, nil
}

// Indicator returns a single indicator group by ID. Both the bare form
// "001" and the prefixed form "v001" are accepted.
func (s *DataService) Indicator(ctx context.Context, id string) (*domain.IndicatorGroup, error) {
	s.mu.RLock()
	catalog := s.catalog
	s.mu.RUnlock()

	if catalog == nil {
		return nil, ErrNoDatasetLoaded
	}

	group, ok := catalog.Lookup(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrIndicatorNotFound, id)
	}
	return group, nil
}

// Query returns the rows matching the filter. State matches
// case-insensitively, FIPS and Year match exactly, and a zero value
// leaves that field unfiltered. When an indicator is given, the returned
// rows carry only that indicator's values.
func (s *DataService) Query(ctx context.Context, filter domain.RowFilter) ([]domain.GeoRow, error) {
	s.mu.RLock()
	dataset := s.dataset
	catalog := s.catalog
	s.mu.RUnlock()

	if dataset == nil {
		return nil, ErrNoDatasetLoaded
	}

	indicatorID := ""
	if filter.Indicator != "" {
		if catalog == nil {
			return nil, fmt.Errorf("%w: %s", ErrIndicatorNotFound, filter.Indicator)
		}
		group, ok := catalog.Lookup(filter.Indicator)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrIndicatorNotFound, filter.Indicator)
		}
		indicatorID = group.ID
	}

	wantState := strings.ToLower(strings.TrimSpace(filter.State))

	var results []domain.GeoRow
	for i := range dataset.Rows {
		row := dataset.Rows[i]

		if wantState != "" && strings.ToLower(strings.TrimSpace(row.State)) != wantState {
			continue
		}
		if filter.FIPS != "" && row.FIPS != filter.FIPS {
			continue
		}
		if filter.Year != 0 && row.Year != filter.Year {
			continue
		}

		if indicatorID != "" {
			projected := make(map[string]domain.IndicatorValue, 1)
			if value, ok := row.Values[indicatorID]; ok {
				projected[indicatorID] = value
			}
			row.Values = projected
		}

		results = append(results, row)
		if filter.Limit > 0 && len(results) >= filter.Limit {
			break
		}
	}

	s.logger.DebugContext(ctx, "query executed",
		slog.String("state", filter.State),
		slog.String("fips", filter.FIPS),
		slog.Int("year", filter.Year),
		slog.String("indicator", filter.Indicator),
		slog.Int("results", len(results)))

	return results, nil
}
