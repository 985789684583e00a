package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoad tests the Load function with various scenarios
func TestLoad(t *testing.T) {
	// Save original environment to restore later
	originalEnv := make(map[string]string)
	envVars := []string{
		"CHR_DATA_CSV_PATH", "CHR_DATA_CATALOG_PATH", "CHR_DATA_REPORT_PATH",
		"CHR_DATA_HEADER_ROWS",
		"CHR_SCHEMA_REQUIRED_COLUMNS", "CHR_SCHEMA_MINIMUM_INDICATORS",
		"CHR_SCHEMA_MAX_MISSING_RATE", "CHR_SCHEMA_REVIEW_THRESHOLD",
		"CHR_PROCESSING_SHARDS",
		"CHR_LOGGING_LEVEL", "CHR_LOGGING_FORMAT", "CHR_LOGGING_OUTPUT",
		"CHR_TELEMETRY_ENABLED", "CHR_TELEMETRY_TRACE_EXPORTER",
	}

	// Save original values
	for _, envVar := range envVars {
		originalEnv[envVar] = os.Getenv(envVar)
	}

	// Clean up environment variables
	defer func() {
		for _, envVar := range envVars {
			if val, exists := originalEnv[envVar]; exists && val != "" {
				os.Setenv(envVar, val)
			} else {
				os.Unsetenv(envVar)
			}
		}
	}()

	clearEnv := func() {
		for _, envVar := range envVars {
			os.Unsetenv(envVar)
		}
	}

	tests := []struct {
		name        string
		setupEnv    func()
		wantErr     bool
		validateCfg func(*testing.T, *Config)
	}{
		{
			name:     "default configuration with no env vars",
			setupEnv: clearEnv,
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, DefaultCSVPath, cfg.Data.CSVPath)
				assert.Equal(t, DefaultCatalogPath, cfg.Data.CatalogPath)
				assert.Equal(t, DefaultReportPath, cfg.Data.ReportPath)
				assert.Equal(t, 2, cfg.Data.HeaderRows)

				assert.Equal(t, []string{"fipscode", "state", "county", "year"}, cfg.Schema.RequiredColumns)
				assert.Equal(t, 10, cfg.Schema.MinimumIndicators)
				assert.Equal(t, 0.8, cfg.Schema.MaxMissingRate)
				assert.Equal(t, 0.1, cfg.Schema.ReviewThreshold)
				assert.Equal(t, 2020, cfg.Schema.YearMin)
				assert.Equal(t, 2030, cfg.Schema.YearMax)
				assert.Equal(t, 51, cfg.Schema.ExpectedStates)

				assert.Equal(t, 1, cfg.Processing.Shards)

				assert.Equal(t, "info", cfg.Logging.Level)
				assert.Equal(t, "json", cfg.Logging.Format)
				assert.Equal(t, "console", cfg.Logging.Output)

				assert.False(t, cfg.Telemetry.Enabled)
				assert.Equal(t, "none", cfg.Telemetry.TraceExporter)
			},
		},
		{
			name: "environment variables override defaults",
			setupEnv: func() {
				clearEnv()
				os.Setenv("CHR_DATA_CSV_PATH", "testdata/sample.csv")
				os.Setenv("CHR_SCHEMA_MINIMUM_INDICATORS", "3")
				os.Setenv("CHR_PROCESSING_SHARDS", "4")
				os.Setenv("CHR_LOGGING_LEVEL", "debug")
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "testdata/sample.csv", cfg.Data.CSVPath)
				assert.Equal(t, 3, cfg.Schema.MinimumIndicators)
				assert.Equal(t, 4, cfg.Processing.Shards)
				assert.Equal(t, "debug", cfg.Logging.Level)
				// Untouched fields keep their defaults
				assert.Equal(t, DefaultCatalogPath, cfg.Data.CatalogPath)
			},
		},
		{
			name: "required columns from comma separated env",
			setupEnv: func() {
				clearEnv()
				os.Setenv("CHR_SCHEMA_REQUIRED_COLUMNS", "fipscode,year")
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, []string{"fipscode", "year"}, cfg.Schema.RequiredColumns)
			},
		},
		{
			name: "invalid log level rejected",
			setupEnv: func() {
				clearEnv()
				os.Setenv("CHR_LOGGING_LEVEL", "verbose")
			},
			wantErr: true,
		},
		{
			name: "invalid shard count rejected",
			setupEnv: func() {
				clearEnv()
				os.Setenv("CHR_PROCESSING_SHARDS", "0")
			},
			wantErr: true,
		},
		{
			name: "missing rate above one rejected",
			setupEnv: func() {
				clearEnv()
				os.Setenv("CHR_SCHEMA_MAX_MISSING_RATE", "1.5")
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupEnv()

			cfg, err := Load()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, cfg)
			if tt.validateCfg != nil {
				tt.validateCfg(t, cfg)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantErr  bool
		validate func(*testing.T, *Config)
	}{
		{
			name: "valid yaml config",
			content: `
data:
  csv_path: fixtures/chr.csv
  header_rows: 1
schema:
  minimum_indicators: 5
  review_threshold: 0.2
processing:
  shards: 2
`,
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "fixtures/chr.csv", cfg.Data.CSVPath)
				assert.Equal(t, 1, cfg.Data.HeaderRows)
				assert.Equal(t, 5, cfg.Schema.MinimumIndicators)
				assert.Equal(t, 0.2, cfg.Schema.ReviewThreshold)
				assert.Equal(t, 2, cfg.Processing.Shards)
			},
		},
		{
			name:    "malformed yaml",
			content: "data:\n  csv_path: [unclosed",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			cfg, err := loadFromFile(path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			if tt.validate != nil {
				tt.validate(t, cfg)
			}
		})
	}

	t.Run("missing file", func(t *testing.T) {
		_, err := loadFromFile(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})
}

func TestMergeConfigs(t *testing.T) {
	t.Run("file values fill unset env fields", func(t *testing.T) {
		env := *Default()
		file := *Default()
		file.Data.CSVPath = "from/file.csv"
		file.Schema.MinimumIndicators = 7

		merged := mergeConfigs(file, env)

		assert.Equal(t, "from/file.csv", merged.Data.CSVPath)
		assert.Equal(t, 7, merged.Schema.MinimumIndicators)
	})

	t.Run("env values win over file values", func(t *testing.T) {
		env := *Default()
		env.Data.CSVPath = "from/env.csv"
		file := *Default()
		file.Data.CSVPath = "from/file.csv"

		merged := mergeConfigs(file, env)

		assert.Equal(t, "from/env.csv", merged.Data.CSVPath)
	})
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:   "defaults pass",
			mutate: func(cfg *Config) {},
		},
		{
			name: "year range inverted",
			mutate: func(cfg *Config) {
				cfg.Schema.YearMin = 2031
				cfg.Schema.YearMax = 2030
			},
			wantErr: true,
		},
		{
			name: "min states above expected",
			mutate: func(cfg *Config) {
				cfg.Schema.MinStates = 60
			},
			wantErr: true,
		},
		{
			name: "empty required column name",
			mutate: func(cfg *Config) {
				cfg.Schema.RequiredColumns = []string{"fipscode", "  "}
			},
			wantErr: true,
		},
		{
			name: "header rows out of range",
			mutate: func(cfg *Config) {
				cfg.Data.HeaderRows = 3
			},
			wantErr: true,
		},
		{
			name: "file output gets default log path",
			mutate: func(cfg *Config) {
				cfg.Logging.Output = "file"
				cfg.Logging.FilePath = ""
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			if cfg.Logging.Output != "console" {
				assert.NotEmpty(t, cfg.Logging.FilePath)
			}
		})
	}
}
