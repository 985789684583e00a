package config

import (
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Data       DataConfig       `yaml:"data" envconfig:"DATA"`
	Schema     SchemaConfig     `yaml:"schema" envconfig:"SCHEMA"`
	Processing ProcessingConfig `yaml:"processing" envconfig:"PROCESSING"`
	Logging    LoggingConfig    `yaml:"logging" envconfig:"LOGGING"`
	Telemetry  TelemetryConfig  `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// DataConfig contains input and artifact paths
type DataConfig struct {
	CSVPath         string `yaml:"csv_path" envconfig:"CSV_PATH" default:"data/analytic_data2025_v2.csv" validate:"required"`
	CatalogPath     string `yaml:"catalog_path" envconfig:"CATALOG_PATH" default:"config/indicator_catalog.json" validate:"required"`
	ReportPath      string `yaml:"report_path" envconfig:"REPORT_PATH" default:"config/validation_report.json" validate:"required"`
	CompletenessCSV string `yaml:"completeness_csv" envconfig:"COMPLETENESS_CSV" default:""`
	HeaderRows      int    `yaml:"header_rows" envconfig:"HEADER_ROWS" default:"2" validate:"min=1,max=2"`
}

// SchemaConfig contains the structural and quality thresholds applied
// during validation. Thresholds are configuration rather than constants so
// that fixtures and future CHR releases can adjust them without code edits.
type SchemaConfig struct {
	RequiredColumns   []string `yaml:"required_columns" envconfig:"REQUIRED_COLUMNS" default:"fipscode,state,county,year" validate:"required,min=1"`
	MinimumIndicators int      `yaml:"minimum_indicators" envconfig:"MINIMUM_INDICATORS" default:"10" validate:"min=1"`
	MaxMissingRate    float64  `yaml:"max_missing_rate" envconfig:"MAX_MISSING_RATE" default:"0.8" validate:"gte=0,lte=1"`
	ReviewThreshold   float64  `yaml:"review_threshold" envconfig:"REVIEW_THRESHOLD" default:"0.1" validate:"gte=0,lte=1"`
	YearMin           int      `yaml:"year_min" envconfig:"YEAR_MIN" default:"2020" validate:"min=1900"`
	YearMax           int      `yaml:"year_max" envconfig:"YEAR_MAX" default:"2030" validate:"min=1900"`
	MinStates         int      `yaml:"min_states" envconfig:"MIN_STATES" default:"40" validate:"min=0"`
	ExpectedStates    int      `yaml:"expected_states" envconfig:"EXPECTED_STATES" default:"51" validate:"min=1"`
}

// ProcessingConfig contains pipeline execution settings
type ProcessingConfig struct {
	Shards int `yaml:"shards" envconfig:"SHARDS" default:"1" validate:"min=1,max=64"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL" default:"info" validate:"oneof=debug info warn error"`
	Format      string `yaml:"format" envconfig:"FORMAT" default:"json" validate:"oneof=json text"`
	Output      string `yaml:"output" envconfig:"OUTPUT" default:"console" validate:"oneof=console file both"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/app.log"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT" default:"false"`
}

// TelemetryConfig contains trace export configuration
type TelemetryConfig struct {
	Enabled       bool    `yaml:"enabled" envconfig:"ENABLED" default:"false"`
	TraceExporter string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" default:"none" validate:"oneof=stdout none"`
	SampleRatio   float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO" default:"1.0" validate:"gte=0,lte=1"`
}

// Load loads configuration from environment variables and config file
func Load() (*Config, error) {
	var cfg Config

	// Load from environment variables first
	if err := envconfig.Process("CHR", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	// Load from config file if exists
	configFile := getConfigFilePath()
	if configFile != "" {
		fileConfig, err := loadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		cfg = mergeConfigs(*fileConfig, cfg)
	}

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadFromFile loads configuration from YAML file
func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// mergeConfigs merges file config with env config (env takes precedence)
func mergeConfigs(fileConfig, envConfig Config) Config {
	defaults := Default()

	// An env value still at its default means the variable was not set,
	// so the file value wins for that field.
	if envConfig.Data.CSVPath == defaults.Data.CSVPath && fileConfig.Data.CSVPath != "" {
		envConfig.Data.CSVPath = fileConfig.Data.CSVPath
	}
	if envConfig.Data.CatalogPath == defaults.Data.CatalogPath && fileConfig.Data.CatalogPath != "" {
		envConfig.Data.CatalogPath = fileConfig.Data.CatalogPath
	}
	if envConfig.Data.ReportPath == defaults.Data.ReportPath && fileConfig.Data.ReportPath != "" {
		envConfig.Data.ReportPath = fileConfig.Data.ReportPath
	}
	if envConfig.Data.CompletenessCSV == "" && fileConfig.Data.CompletenessCSV != "" {
		envConfig.Data.CompletenessCSV = fileConfig.Data.CompletenessCSV
	}
	if envConfig.Data.HeaderRows == defaults.Data.HeaderRows && fileConfig.Data.HeaderRows != 0 {
		envConfig.Data.HeaderRows = fileConfig.Data.HeaderRows
	}

	if equalStrings(envConfig.Schema.RequiredColumns, defaults.Schema.RequiredColumns) && len(fileConfig.Schema.RequiredColumns) > 0 {
		envConfig.Schema.RequiredColumns = fileConfig.Schema.RequiredColumns
	}
	if envConfig.Schema.MinimumIndicators == defaults.Schema.MinimumIndicators && fileConfig.Schema.MinimumIndicators != 0 {
		envConfig.Schema.MinimumIndicators = fileConfig.Schema.MinimumIndicators
	}
	if envConfig.Schema.MaxMissingRate == defaults.Schema.MaxMissingRate && fileConfig.Schema.MaxMissingRate != 0 {
		envConfig.Schema.MaxMissingRate = fileConfig.Schema.MaxMissingRate
	}
	if envConfig.Schema.ReviewThreshold == defaults.Schema.ReviewThreshold && fileConfig.Schema.ReviewThreshold != 0 {
		envConfig.Schema.ReviewThreshold = fileConfig.Schema.ReviewThreshold
	}
	if envConfig.Schema.YearMin == defaults.Schema.YearMin && fileConfig.Schema.YearMin != 0 {
		envConfig.Schema.YearMin = fileConfig.Schema.YearMin
	}
	if envConfig.Schema.YearMax == defaults.Schema.YearMax && fileConfig.Schema.YearMax != 0 {
		envConfig.Schema.YearMax = fileConfig.Schema.YearMax
	}
	if envConfig.Schema.MinStates == defaults.Schema.MinStates && fileConfig.Schema.MinStates != 0 {
		envConfig.Schema.MinStates = fileConfig.Schema.MinStates
	}
	if envConfig.Schema.ExpectedStates == defaults.Schema.ExpectedStates && fileConfig.Schema.ExpectedStates != 0 {
		envConfig.Schema.ExpectedStates = fileConfig.Schema.ExpectedStates
	}

	if envConfig.Processing.Shards == defaults.Processing.Shards && fileConfig.Processing.Shards != 0 {
		envConfig.Processing.Shards = fileConfig.Processing.Shards
	}

	if envConfig.Logging.Level == defaults.Logging.Level && fileConfig.Logging.Level != "" {
		envConfig.Logging.Level = fileConfig.Logging.Level
	}
	if envConfig.Logging.Format == defaults.Logging.Format && fileConfig.Logging.Format != "" {
		envConfig.Logging.Format = fileConfig.Logging.Format
	}
	if envConfig.Logging.Output == defaults.Logging.Output && fileConfig.Logging.Output != "" {
		envConfig.Logging.Output = fileConfig.Logging.Output
	}
	if envConfig.Logging.FilePath == defaults.Logging.FilePath && fileConfig.Logging.FilePath != "" {
		envConfig.Logging.FilePath = fileConfig.Logging.FilePath
	}

	if !envConfig.Telemetry.Enabled && fileConfig.Telemetry.Enabled {
		envConfig.Telemetry.Enabled = true
	}
	if envConfig.Telemetry.TraceExporter == defaults.Telemetry.TraceExporter && fileConfig.Telemetry.TraceExporter != "" {
		envConfig.Telemetry.TraceExporter = fileConfig.Telemetry.TraceExporter
	}
	if envConfig.Telemetry.SampleRatio == defaults.Telemetry.SampleRatio && fileConfig.Telemetry.SampleRatio != 0 {
		envConfig.Telemetry.SampleRatio = fileConfig.Telemetry.SampleRatio
	}

	return envConfig
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// validate validates the configuration using struct tags plus the
// cross-field checks tags cannot express
func (c *Config) validate() error {
	v := validator.New()

	// Use yaml tag names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	if err := v.Struct(c); err != nil {
		return err
	}

	if c.Schema.YearMin > c.Schema.YearMax {
		return fmt.Errorf("year_min %d exceeds year_max %d", c.Schema.YearMin, c.Schema.YearMax)
	}
	if c.Schema.MinStates > c.Schema.ExpectedStates {
		return fmt.Errorf("min_states %d exceeds expected_states %d", c.Schema.MinStates, c.Schema.ExpectedStates)
	}
	for _, col := range c.Schema.RequiredColumns {
		if strings.TrimSpace(col) == "" {
			return fmt.Errorf("required_columns contains an empty name")
		}
	}
	if c.Logging.Output != "console" && c.Logging.FilePath == "" {
		c.Logging.FilePath = DefaultLogFile
	}

	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	// Check for config file in common locations
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
		"../configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Data: DataConfig{
			CSVPath:     DefaultCSVPath,
			CatalogPath: DefaultCatalogPath,
			ReportPath:  DefaultReportPath,
			HeaderRows:  DefaultHeaderRows,
		},
		Schema: SchemaConfig{
			RequiredColumns:   []string{"fipscode", "state", "county", "year"},
			MinimumIndicators: DefaultMinimumIndicators,
			MaxMissingRate:    DefaultMaxMissingRate,
			ReviewThreshold:   DefaultReviewThreshold,
			YearMin:           DefaultYearMin,
			YearMax:           DefaultYearMax,
			MinStates:         DefaultMinStates,
			ExpectedStates:    DefaultExpectedStates,
		},
		Processing: ProcessingConfig{
			Shards: 1,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: DefaultLogFile,
		},
		Telemetry: TelemetryConfig{
			Enabled:       false,
			TraceExporter: "none",
			SampleRatio:   1.0,
		},
	}
}
