package exporter

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/rgdonohue/health-rank-dash/internal/errors"
	"github.com/rgdonohue/health-rank-dash/pkg/contracts/domain"
)

// CatalogExporter handles indicator catalog artifacts
type CatalogExporter struct {
	logger *slog.Logger
}

// NewCatalogExporter creates a new catalog exporter
func NewCatalogExporter(logger *slog.Logger) *CatalogExporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CatalogExporter{logger: logger}
}

// WriteJSON writes the catalog artifact. The output carries no timestamps
// or host details, so identical catalogs always serialize to identical
// bytes and re-running ingest over an unchanged file is a no-op diff.
func (e *CatalogExporter) WriteJSON(ctx context.Context, path string, catalog *domain.IndicatorCatalog) error {
	e.logger.InfoContext(ctx, "writing indicator catalog",
		slog.String("path", path),
		slog.Int("indicators", catalog.Summary.TotalIndicators),
		slog.Int("malformed", catalog.Summary.MalformedCount))

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.NewStorageError("failed to create directory for catalog output", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return errors.NewStorageError("failed to create catalog file", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(catalog); err != nil {
		return errors.NewStorageError("failed to encode indicator catalog", err)
	}

	return nil
}

// ReadJSON loads a previously written catalog artifact and restores its
// lookup index.
func (e *CatalogExporter) ReadJSON(ctx context.Context, path string) (*domain.IndicatorCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewStorageError("failed to read catalog file", err)
	}

	var catalog domain.IndicatorCatalog
	if err := json.Unmarshal(data, &catalog); err != nil {
		return nil, errors.NewParsingError("failed to decode indicator catalog", err)
	}

	catalog.Finalize(catalog.Summary.TotalColumnsProcessed)

	e.logger.InfoContext(ctx, "indicator catalog loaded",
		slog.String("path", path),
		slog.Int("indicators", catalog.Summary.TotalIndicators))

	return &catalog, nil
}
