package dataprocessing

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/rgdonohue/health-rank-dash/internal/errors"
	"github.com/rgdonohue/health-rank-dash/pkg/contracts/domain"
)

// analyticFixture is a miniature analytic file: the CHR dual header over
// six context columns, one full indicator, one rawvalue-only indicator,
// one flag-only group, and a trailing extra column.
const analyticFixture = `"State FIPS Code","County FIPS Code","5-digit FIPS Code","State","County","Release Year","Premature death raw value","Premature death numerator","Premature death denominator","Premature death CI low","Premature death CI high","Poor or fair health raw value","Premature death flag","County clustered (1=Yes)"
statecode,countycode,fipscode,state,county,year,v001_rawvalue,v001_numerator,v001_denominator,v001_ci_low,v001_ci_high,v002_rawvalue,v003_flag,county_clustered
08,031,08031,Colorado,Denver,2025,443.4,1865,657324,410.5,476.2,0.14,1,0
08,001,08001,Colorado,Adams,2025,512.3,2102,519572,478.1,546.5,0.16,0,0
56,021,56021,Wyoming,Laramie,2025,N/A,,,,,0.18,1,1
`

func writeFixture(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func newTestLoader(t *testing.T) *Loader {
	t.Helper()
	return NewLoader(slog.Default(), LoaderConfig{Schema: testSchema()})
}

func TestLoader_LoadCatalog(t *testing.T) {
	ctx := context.Background()
	loader := newTestLoader(t)
	path := writeFixture(t, "analytic.csv", analyticFixture)

	catalog, err := loader.LoadCatalog(ctx, path)
	require.NoError(t, err)

	assert.Equal(t, []string{"001", "002"}, catalog.IndicatorIDs())
	assert.Equal(t, 2, catalog.Summary.TotalIndicators)
	assert.Equal(t, 2, catalog.Summary.CompleteIndicators)
	assert.Equal(t, 1, catalog.Summary.IndicatorsWithCI)
	assert.Equal(t, 1, catalog.Summary.MalformedCount)
	assert.Equal(t, 14, catalog.Summary.TotalColumnsProcessed)

	full, ok := catalog.Lookup("v001")
	require.True(t, ok)
	assert.Equal(t, "Premature death raw value", full.Description)
	assert.True(t, full.HasConfidenceIntervals)
	assert.Equal(t, map[domain.ColumnRole]string{
		domain.RoleRawValue:    "v001_rawvalue",
		domain.RoleNumerator:   "v001_numerator",
		domain.RoleDenominator: "v001_denominator",
		domain.RoleCILow:       "v001_ci_low",
		domain.RoleCIHigh:      "v001_ci_high",
	}, full.Columns)

	minimal, ok := catalog.Lookup("002")
	require.True(t, ok)
	assert.Equal(t, "Poor or fair health raw value", minimal.Description)
	assert.False(t, minimal.HasConfidenceIntervals)

	require.Len(t, catalog.Malformed, 1)
	assert.Equal(t, "003", catalog.Malformed[0].ID)
	assert.Equal(t, IssueOnlyMalformed, catalog.Malformed[0].Issue)
	assert.Equal(t, []string{"v003_flag"}, catalog.Malformed[0].Columns)
}

func TestLoader_LoadCatalogHeaderErrors(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		content    string
		wantReason string
	}{
		{
			name:       "empty file",
			content:    "",
			wantReason: "file contains no header rows",
		},
		{
			name:       "only one header row",
			content:    "fipscode,state,county,year,v001_rawvalue\n",
			wantReason: "file contains one header row, expected 2",
		},
		{
			name:       "header width mismatch",
			content:    "a,b,c\nfipscode,state,county,year,v001_rawvalue\n",
			wantReason: "description row has 3 columns, key row has 5",
		},
		{
			name: "missing required column",
			content: "a,b,c,d\n" +
				"statecode,county,year,v001_rawvalue\n",
			wantReason: "missing required column: fipscode",
		},
		{
			name: "too few indicators",
			content: "a,b,c,d\n" +
				"fipscode,state,county,year\n",
			wantReason: "found 0 valid indicators, minimum required is 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader := newTestLoader(t)
			path := writeFixture(t, "analytic.csv", tt.content)

			_, err := loader.LoadCatalog(ctx, path)
			require.Error(t, err)

			var schemaErr *apperrors.SchemaError
			require.True(t, errors.As(err, &schemaErr))
			assert.Contains(t, schemaErr.Reasons, tt.wantReason)
		})
	}
}

func TestLoader_LoadCatalogFileValidation(t *testing.T) {
	ctx := context.Background()
	loader := newTestLoader(t)

	_, err := loader.LoadCatalog(ctx, filepath.Join(t.TempDir(), "missing.csv"))
	assert.ErrorContains(t, err, "does not exist")

	path := writeFixture(t, "analytic.txt", analyticFixture)
	_, err = loader.LoadCatalog(ctx, path)
	assert.ErrorContains(t, err, "is not a CSV file")
}

func TestLoader_LoadCatalogDuplicateColumn(t *testing.T) {
	ctx := context.Background()
	loader := newTestLoader(t)
	path := writeFixture(t, "analytic.csv", "a,b,c,d,e,f\n"+
		"fipscode,state,county,year,v001_rawvalue,v001_rawvalue\n")

	_, err := loader.LoadCatalog(ctx, path)
	require.Error(t, err)

	var dupErr *apperrors.DuplicateColumnError
	require.True(t, errors.As(err, &dupErr))
	assert.Equal(t, "v001_rawvalue", dupErr.Column)
}

func TestLoader_LoadCatalogSingleHeaderRow(t *testing.T) {
	ctx := context.Background()
	loader := NewLoader(slog.Default(), LoaderConfig{HeaderRows: 1, Schema: testSchema()})
	path := writeFixture(t, "analytic.csv", "fipscode,state,county,year,v001_rawvalue\n")

	catalog, err := loader.LoadCatalog(ctx, path)
	require.NoError(t, err)

	group, ok := catalog.Lookup("001")
	require.True(t, ok)
	assert.Empty(t, group.Description)
}

// TestLoader_LoadCatalogRoleCombinations covers the common CHR group shapes
// in one header: every role, rawvalue plus one CI pair, rawvalue alone, and
// a group made only of an unrecognized suffix.
func TestLoader_LoadCatalogRoleCombinations(t *testing.T) {
	ctx := context.Background()
	loader := NewLoader(slog.Default(), LoaderConfig{HeaderRows: 1, Schema: testSchema()})
	path := writeFixture(t, "analytic.csv",
		"fipscode,state,county,year,"+
			"v001_rawvalue,v001_numerator,v001_denominator,v001_ci_low,v001_ci_high,"+
			"v023_rawvalue,v023_ci_low,v023_ci_high,v156_rawvalue,v999_malformed\n")

	catalog, err := loader.LoadCatalog(ctx, path)
	require.NoError(t, err)

	assert.Equal(t, []string{"001", "023", "156"}, catalog.IndicatorIDs())
	assert.Equal(t, 3, catalog.Summary.TotalIndicators)
	assert.Equal(t, 3, catalog.Summary.CompleteIndicators)
	assert.Equal(t, 2, catalog.Summary.IndicatorsWithCI)
	assert.Equal(t, 1, catalog.Summary.MalformedCount)
	assert.Equal(t, 14, catalog.Summary.TotalColumnsProcessed)

	ciOnly, ok := catalog.Lookup("023")
	require.True(t, ok)
	assert.True(t, ciOnly.HasConfidenceIntervals)
	assert.Len(t, ciOnly.Columns, 3)

	rawOnly, ok := catalog.Lookup("156")
	require.True(t, ok)
	assert.False(t, rawOnly.HasConfidenceIntervals)

	require.Len(t, catalog.Malformed, 1)
	assert.Equal(t, "999", catalog.Malformed[0].ID)
	assert.Equal(t, IssueOnlyMalformed, catalog.Malformed[0].Issue)
	assert.Equal(t, []string{"v999_malformed"}, catalog.Malformed[0].Columns)

	// Reloading the same bytes yields a deeply equal catalog.
	again, err := loader.LoadCatalog(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, catalog, again)
}

func TestLoader_LoadDataset(t *testing.T) {
	ctx := context.Background()
	loader := newTestLoader(t)
	path := writeFixture(t, "analytic.csv", analyticFixture)

	dataset, report, err := loader.LoadDataset(ctx, path)
	require.NoError(t, err)
	require.NotNil(t, dataset)
	require.NotNil(t, report)

	assert.Equal(t, 3, dataset.Meta.RowCount)
	assert.Equal(t, 1, dataset.Meta.SkippedCells) // the N/A cell
	assert.Zero(t, dataset.Meta.RaggedRows)
	assert.Equal(t, path, dataset.Meta.SourcePath)
	assert.NotEmpty(t, dataset.Meta.LoadID)
	assert.False(t, dataset.Meta.LoadedAt.IsZero())

	require.Len(t, dataset.Rows, 3)
	denver := dataset.Rows[0]
	assert.Equal(t, "08", denver.StateCode)
	assert.Equal(t, "031", denver.CountyCode)
	assert.Equal(t, "08031", denver.FIPS)
	assert.Equal(t, "Colorado", denver.State)
	assert.Equal(t, "Denver", denver.County)
	assert.Equal(t, 2025, denver.Year)
	assert.True(t, denver.ValidFIPS)

	value, ok := denver.Value("001")
	require.True(t, ok)
	require.NotNil(t, value.RawValue)
	assert.Equal(t, 443.4, *value.RawValue)
	assert.Equal(t, 1865.0, *value.Numerator)
	assert.Equal(t, 657324.0, *value.Denominator)
	assert.True(t, value.HasCI())
	assert.Equal(t, 410.5, *value.CILow)
	assert.Equal(t, 476.2, *value.CIHigh)

	// The N/A rawvalue and blank siblings leave Laramie without 001
	laramie := dataset.Rows[2]
	_, ok = laramie.Value("001")
	assert.False(t, ok)
	value, ok = laramie.Value("002")
	require.True(t, ok)
	assert.Equal(t, 0.18, *value.RawValue)

	assert.True(t, report.Valid)
	assert.Equal(t, dataset.Meta.LoadID, report.LoadID)
	assert.Equal(t, 2, report.Indicators.PerIndicator["001"].NonNull)
	assert.Equal(t, 3, report.Indicators.PerIndicator["002"].NonNull)
	assert.Equal(t, 2, report.Geography.StatesCovered)
}

func TestLoader_LoadDatasetRaggedRows(t *testing.T) {
	ctx := context.Background()
	loader := newTestLoader(t)
	path := writeFixture(t, "analytic.csv", "a,b,c,d,e\n"+
		"fipscode,state,county,year,v001_rawvalue\n"+
		"08031,Colorado,Denver,2025,443.4\n"+
		"08001,Colorado\n")

	dataset, _, err := loader.LoadDataset(ctx, path)
	require.NoError(t, err)

	assert.Equal(t, 2, dataset.Meta.RowCount)
	assert.Equal(t, 1, dataset.Meta.RaggedRows)
	assert.Zero(t, dataset.Meta.SkippedCells) // cells past a short row are absent, not skipped

	short := dataset.Rows[1]
	assert.Equal(t, "08001", short.FIPS)
	assert.Equal(t, "Colorado", short.State)
	assert.Empty(t, short.County)
	assert.Zero(t, short.Year)
	assert.Nil(t, short.Values)
}

func TestLoader_LoadDatasetUnparseableYear(t *testing.T) {
	ctx := context.Background()
	loader := newTestLoader(t)
	path := writeFixture(t, "analytic.csv", "a,b,c,d,e\n"+
		"fipscode,state,county,year,v001_rawvalue\n"+
		"08031,Colorado,Denver,n/a,443.4\n")

	dataset, report, err := loader.LoadDataset(ctx, path)
	require.NoError(t, err)

	assert.Zero(t, dataset.Rows[0].Year)
	assert.Contains(t, report.Geography.Warnings, "1 rows missing year")
}

func TestLoader_LoadDatasetWhitespaceCells(t *testing.T) {
	ctx := context.Background()
	loader := newTestLoader(t)
	path := writeFixture(t, "analytic.csv", "a,b,c,d,e\n"+
		"fipscode,state,county,year,v001_rawvalue\n"+
		"  08031 , Colorado ,Denver,2025,  443.4 \n")

	dataset, _, err := loader.LoadDataset(ctx, path)
	require.NoError(t, err)

	row := dataset.Rows[0]
	assert.Equal(t, "08031", row.FIPS)
	assert.Equal(t, "Colorado", row.State)
	assert.True(t, row.ValidFIPS)

	value, ok := row.Value("001")
	require.True(t, ok)
	assert.Equal(t, 443.4, *value.RawValue)
}

func TestLoader_Validator(t *testing.T) {
	loader := newTestLoader(t)
	assert.NotNil(t, loader.Validator())
}
