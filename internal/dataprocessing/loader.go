package dataprocessing

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/rgdonohue/health-rank-dash/internal/config"
	"github.com/rgdonohue/health-rank-dash/internal/errors"
	"github.com/rgdonohue/health-rank-dash/internal/infrastructure"
	"github.com/rgdonohue/health-rank-dash/internal/validation"
	"github.com/rgdonohue/health-rank-dash/pkg/contracts/domain"
)

var tracer = otel.Tracer(infrastructure.TracerName)

// Loader reads CHR analytic CSV files and produces the catalog and the
// row-level dataset. Loading is idempotent: the same input bytes always
// yield a deeply equal catalog and dataset, so re-ingest replaces state
// instead of mutating it.
type Loader struct {
	logger     *slog.Logger
	classifier *Classifier
	builder    *CatalogBuilder
	validator  *Validator
	files      *validation.FileValidator
	headerRows int
}

// LoaderConfig holds configuration options for the Loader.
type LoaderConfig struct {
	HeaderRows int // 2 for CHR dual headers, 1 for key-only files
	Schema     config.SchemaConfig
	Shards     int
}

// NewLoader creates a new CSV loader with the given configuration.
func NewLoader(logger *slog.Logger, cfg LoaderConfig) *Loader {
	if logger == nil {
		logger = slog.Default()
	}

	headerRows := cfg.HeaderRows
	if headerRows <= 0 {
		headerRows = config.DefaultHeaderRows
	}

	return &Loader{
		logger:     logger,
		classifier: NewClassifier(logger),
		builder:    NewCatalogBuilder(logger),
		validator:  NewValidator(logger, ValidatorConfig{Schema: cfg.Schema, Shards: cfg.Shards}),
		files:      validation.NewFileValidator(logger),
		headerRows: headerRows,
	}
}

// Validator exposes the loader's configured validator so callers can rerun
// individual tiers against an already loaded dataset.
func (l *Loader) Validator() *Validator {
	return l.validator
}

// LoadCatalog reads only the header block of the analytic file and builds
// the validated indicator catalog. Fatal conditions are an unreadable
// file, an empty or mismatched header block, a duplicate column name, and
// a failed structure validation; everything softer lands in the catalog's
// malformed list.
func (l *Loader) LoadCatalog(ctx context.Context, path string) (*domain.IndicatorCatalog, error) {
	ctx, span := tracer.Start(ctx, "loader.LoadCatalog")
	defer span.End()

	keys, descriptions, err := l.readHeader(ctx, path)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return nil, err
	}

	catalog, err := l.buildCatalog(ctx, keys, descriptions)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return nil, err
	}

	infrastructure.SetSpanAttributes(ctx, map[string]interface{}{
		"catalog.valid":     catalog.Summary.TotalIndicators,
		"catalog.malformed": catalog.Summary.MalformedCount,
		"catalog.columns":   catalog.Summary.TotalColumnsProcessed,
	})

	return catalog, nil
}

// LoadDataset reads the whole analytic file: header block, catalog, and
// every data row, then runs the four validation tiers over the rows. Rows
// are retained regardless of findings; parse anomalies are counted in the
// dataset metadata instead of dropping data.
func (l *Loader) LoadDataset(ctx context.Context, path string) (*domain.Dataset, *domain.QualityReport, error) {
	ctx = infrastructure.EnsureRunID(ctx)
	ctx, span := tracer.Start(ctx, "loader.LoadDataset")
	defer span.End()

	if err := l.files.ValidateCSVFile(path); err != nil {
		infrastructure.RecordError(ctx, err)
		return nil, nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		wrapped := errors.NewStorageError(fmt.Sprintf("failed to open %s", path), err)
		infrastructure.RecordError(ctx, wrapped)
		return nil, nil, wrapped
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	keys, descriptions, err := l.readHeaderRows(reader)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return nil, nil, err
	}

	catalog, err := l.buildCatalog(ctx, keys, descriptions)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return nil, nil, err
	}

	l.logger.InfoContext(ctx, "loading data rows", slog.String("path", path))

	rows, skippedCells, raggedRows, err := l.readRows(reader, keys, catalog)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return nil, nil, err
	}

	dataset := &domain.Dataset{
		Rows:    rows,
		Catalog: catalog,
		Meta: domain.DatasetMeta{
			LoadID:       infrastructure.GetRunID(ctx),
			SourcePath:   path,
			LoadedAt:     time.Now().UTC(),
			RowCount:     len(rows),
			SkippedCells: skippedCells,
			RaggedRows:   raggedRows,
		},
	}

	l.logger.InfoContext(ctx, "dataset loaded",
		slog.Int("rows", dataset.Meta.RowCount),
		slog.Int("skipped_cells", dataset.Meta.SkippedCells),
		slog.Int("ragged_rows", dataset.Meta.RaggedRows))

	report, err := l.validator.RunAll(ctx, keys, catalog, rows)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return nil, nil, err
	}

	infrastructure.SetSpanAttributes(ctx, map[string]interface{}{
		"dataset.rows":  dataset.Meta.RowCount,
		"report.valid":  report.Valid,
		"catalog.valid": catalog.Summary.TotalIndicators,
	})

	return dataset, report, nil
}

// buildCatalog classifies the header, assembles the catalog, and applies
// structure validation. A failed structure check becomes a SchemaError
// carrying every itemized reason.
func (l *Loader) buildCatalog(ctx context.Context, keys []string, descriptions []string) (*domain.IndicatorCatalog, error) {
	classification, err := l.classifier.Classify(ctx, keys, descriptions)
	if err != nil {
		return nil, err
	}

	catalog := l.builder.Build(ctx, classification)

	structure := l.validator.ValidateStructure(ctx, keys, catalog)
	if !structure.Valid {
		return nil, errors.NewSchemaError(structure.Errors...)
	}

	return catalog, nil
}

// readHeader opens the file and reads just the header block.
func (l *Loader) readHeader(ctx context.Context, path string) (keys, descriptions []string, err error) {
	if err := l.files.ValidateCSVFile(path); err != nil {
		return nil, nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.NewStorageError(fmt.Sprintf("failed to open %s", path), err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	return l.readHeaderRows(reader)
}

// readHeaderRows consumes the configured number of header rows. With two
// header rows the first is the human description row and the second the
// machine key row; their widths must agree or the file is unusable.
func (l *Loader) readHeaderRows(reader *csv.Reader) (keys, descriptions []string, err error) {
	first, err := reader.Read()
	if err == io.EOF {
		return nil, nil, errors.NewSchemaError("file contains no header rows")
	}
	if err != nil {
		return nil, nil, errors.NewParsingError("failed to read header row", err)
	}

	if l.headerRows == 1 {
		return first, nil, nil
	}

	second, err := reader.Read()
	if err == io.EOF {
		return nil, nil, errors.NewSchemaError("file contains one header row, expected 2")
	}
	if err != nil {
		return nil, nil, errors.NewParsingError("failed to read header row", err)
	}

	if len(first) != len(second) {
		return nil, nil, errors.NewSchemaError(fmt.Sprintf(
			"description row has %d columns, key row has %d", len(first), len(second)))
	}

	return second, first, nil
}

// columnPositions maps the header layout once so row parsing is O(columns
// of interest) instead of a scan per cell.
type columnPositions struct {
	stateCode  int
	countyCode int
	fips       int
	state      int
	county     int
	year       int
	indicators map[string]map[domain.ColumnRole]int
}

func resolvePositions(keys []string, catalog *domain.IndicatorCatalog) *columnPositions {
	pos := &columnPositions{
		stateCode:  -1,
		countyCode: -1,
		fips:       -1,
		state:      -1,
		county:     -1,
		year:       -1,
		indicators: make(map[string]map[domain.ColumnRole]int, len(catalog.Indicators)),
	}

	index := make(map[string]int, len(keys))
	for i, key := range keys {
		index[key] = i
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "statecode":
			pos.stateCode = i
		case "countycode":
			pos.countyCode = i
		case "fipscode":
			pos.fips = i
		case "state":
			pos.state = i
		case "county":
			pos.county = i
		case "year":
			pos.year = i
		}
	}

	for i := range catalog.Indicators {
		group := &catalog.Indicators[i]
		roles := make(map[domain.ColumnRole]int, len(group.Columns))
		for role, column := range group.Columns {
			if at, ok := index[column]; ok {
				roles[role] = at
			}
		}
		pos.indicators[group.ID] = roles
	}

	return pos
}

// readRows streams the data rows into GeoRow values. Short rows are padded
// and counted, unparseable numeric cells become nil and are counted, and
// nothing is dropped.
func (l *Loader) readRows(reader *csv.Reader, keys []string, catalog *domain.IndicatorCatalog) (rows []domain.GeoRow, skippedCells, raggedRows int, err error) {
	pos := resolvePositions(keys, catalog)

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, 0, errors.NewParsingError("failed to read data row", err)
		}

		if len(record) != len(keys) {
			raggedRows++
		}

		row := domain.GeoRow{
			StateCode:  cell(record, pos.stateCode),
			CountyCode: cell(record, pos.countyCode),
			FIPS:       cell(record, pos.fips),
			State:      cell(record, pos.state),
			County:     cell(record, pos.county),
		}
		row.ValidFIPS = fipsRe.MatchString(row.FIPS)

		if rawYear := cell(record, pos.year); rawYear != "" {
			if year, err := strconv.Atoi(rawYear); err == nil {
				row.Year = year
			}
		}

		values := make(map[string]domain.IndicatorValue)
		for id, roles := range pos.indicators {
			value := domain.IndicatorValue{}
			populated := false
			for role, at := range roles {
				parsed, skipped := parseNumericCell(cell(record, at))
				if skipped {
					skippedCells++
				}
				if parsed == nil {
					continue
				}
				populated = true
				switch role {
				case domain.RoleRawValue:
					value.RawValue = parsed
				case domain.RoleNumerator:
					value.Numerator = parsed
				case domain.RoleDenominator:
					value.Denominator = parsed
				case domain.RoleCILow:
					value.CILow = parsed
				case domain.RoleCIHigh:
					value.CIHigh = parsed
				}
			}
			if populated {
				values[id] = value
			}
		}
		if len(values) > 0 {
			row.Values = values
		}

		rows = append(rows, row)
	}

	return rows, skippedCells, raggedRows, nil
}

// cell returns the trimmed value at position at, or "" when the position
// is unknown or past the end of a short row.
func cell(record []string, at int) string {
	if at < 0 || at >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[at])
}

// parseNumericCell parses one indicator cell. An empty cell is an ordinary
// absence; a non-empty cell that fails to parse is counted as skipped.
func parseNumericCell(raw string) (value *float64, skipped bool) {
	if raw == "" {
		return nil, false
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, true
	}
	return &f, false
}
