// Package config provides configuration management for the energy pipeline.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"afdp/internal/models"
	"afdp/pkg/utils"
)

// Environment variables that override file settings.
const (
	EnvSinkURI        = "AFDP_SINK_URI"
	EnvArchiveBucket  = "AFDP_ARCHIVE_BUCKET"
	EnvPushgatewayURL = "AFDP_PUSHGATEWAY_URL"
)

// Sink drivers.
const (
	SinkNone     = "none"
	SinkMongo    = "mongo"
	SinkSQLite   = "sqlite"
	SinkPostgres = "postgres"
)

// DefaultPath is looked up when no --config flag is given.
const DefaultPath = "configs/afdp.yaml"

// Configuration validation errors.
var (
	ErrMissingBaseURL       = errors.New("source.base_url must be an absolute http(s) URL")
	ErrInvalidPageSize      = errors.New("source.page_size must be at least 1")
	ErrInvalidMaxPages      = errors.New("source.max_pages must be at least 1")
	ErrInvalidRate          = errors.New("source.requests_per_second must be positive")
	ErrInvalidTimeout       = errors.New("source.timeout_sec must be at least 1")
	ErrInvalidYearRange     = errors.New("source.years must lie within 2000-2022 with from <= to")
	ErrUnknownCountry       = errors.New("source.countries contains an unknown country")
	ErrUnknownSubsector     = errors.New("source.subsectors must be Access, Supply or Technical")
	ErrMissingOutputPath    = errors.New("output.base_path is required")
	ErrInvalidSinkDriver    = errors.New("sink.driver must be one of: none, mongo, sqlite, postgres")
	ErrMissingSinkURI       = errors.New("sink.uri is required for the selected driver")
	ErrMissingCollection    = errors.New("sink.collection is required")
	ErrInvalidBatchSize     = errors.New("sink.batch_size must be at least 1")
	ErrMissingArchiveBucket = errors.New("archive.bucket is required when archive is enabled")
	ErrInvalidLogLevel      = errors.New("logging.level must be one of: debug, info, warn, error")
	ErrInvalidLogFormat     = errors.New("logging.format must be 'text' or 'json'")
)

// Config represents the complete pipeline configuration.
type Config struct {
	Source     SourceConfig     `yaml:"source"`
	Normalize  NormalizeConfig  `yaml:"normalize"`
	Validation ValidationConfig `yaml:"validation"`
	Output     OutputConfig     `yaml:"output"`
	Sink       SinkConfig       `yaml:"sink"`
	Archive    ArchiveConfig    `yaml:"archive"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// SourceConfig describes the portal API and what to query from it.
type SourceConfig struct {
	Headers           map[string]string `yaml:"headers"`
	BaseURL           string            `yaml:"base_url"`
	Endpoint          string            `yaml:"endpoint"`
	Group             string            `yaml:"group"`
	RawFile           string            `yaml:"raw_file"`
	Countries         []string          `yaml:"countries"`
	Subsectors        []string          `yaml:"subsectors"`
	Indicators        []string          `yaml:"indicators"`
	Years             YearRange         `yaml:"years"`
	PageSize          int               `yaml:"page_size"`
	MaxPages          int               `yaml:"max_pages"`
	RequestsPerSecond float64           `yaml:"requests_per_second"`
	TimeoutSec        int               `yaml:"timeout_sec"`
	BufferSizeKb      int               `yaml:"buffer_size_kb"`
}

// YearRange is an inclusive range of years.
type YearRange struct {
	From int `yaml:"from"`
	To   int `yaml:"to"`
}

// NormalizeConfig controls how rejected raw records are treated.
type NormalizeConfig struct {
	// SkipInvalid drops rejected records instead of aborting the run.
	SkipInvalid bool `yaml:"skip_invalid"`
}

// ValidationConfig controls which report counters fail the run.
type ValidationConfig struct {
	FailOnMissing bool `yaml:"fail_on_missing"`
}

// OutputConfig defines where run artifacts are written.
type OutputConfig struct {
	BasePath    string `yaml:"base_path"`
	PrettyPrint bool   `yaml:"pretty_print"`
}

// SinkConfig selects and addresses the document database.
type SinkConfig struct {
	Driver     string `yaml:"driver"`
	URI        string `yaml:"uri"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
	BatchSize  int    `yaml:"batch_size"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// ArchiveConfig controls copying run artifacts to object storage.
type ArchiveConfig struct {
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	Enabled   bool   `yaml:"enabled"`
	PathStyle bool   `yaml:"path_style"`
}

// MetricsConfig controls pushing run metrics.
type MetricsConfig struct {
	PushgatewayURL string `yaml:"pushgateway_url"`
	Job            string `yaml:"job"`
}

// LoggingConfig defines logging behavior.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns a configuration that queries every country, subsector and year.
func Default() *Config {
	return &Config{
		Source: SourceConfig{
			BaseURL:           "https://africa-energy-portal.org",
			Endpoint:          "/get-database-data",
			Group:             models.ElectricityGroup,
			Indicators:        slices.Clone(models.ElectricityIndicators),
			Years:             YearRange{From: models.FirstYear, To: models.LastYear},
			PageSize:          500,
			MaxPages:          100,
			RequestsPerSecond: 2,
			TimeoutSec:        30,
			BufferSizeKb:      8192,
		},
		Output: OutputConfig{
			BasePath:    "data",
			PrettyPrint: true,
		},
		Sink: SinkConfig{
			Driver:     SinkNone,
			Database:   "AfricaEnergyDB",
			Collection: "EnergyData",
			BatchSize:  500,
			TimeoutSec: 10,
		},
		Archive: ArchiveConfig{
			Prefix: "afdp",
			Region: "us-east-1",
		},
		Metrics: MetricsConfig{
			Job: "afdp",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadConfig loads configuration from a YAML file on top of Default,
// applies environment overrides and validates the result.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	cfg.ApplyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves configuration to a YAML file.
func (c *Config) SaveConfig(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv overrides secrets and endpoints from the environment.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvSinkURI); v != "" {
		c.Sink.URI = v
	}

	if v := os.Getenv(EnvArchiveBucket); v != "" {
		c.Archive.Bucket = v
	}

	if v := os.Getenv(EnvPushgatewayURL); v != "" {
		c.Metrics.PushgatewayURL = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.validateSource(); err != nil {
		return err
	}

	if c.Output.BasePath == "" {
		return ErrMissingOutputPath
	}

	if err := c.validateSink(); err != nil {
		return err
	}

	if c.Archive.Enabled && c.Archive.Bucket == "" {
		return ErrMissingArchiveBucket
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return ErrInvalidLogLevel
	}

	if c.Logging.Format != "text" && c.Logging.Format != "json" {
		return ErrInvalidLogFormat
	}

	return nil
}

func (c *Config) validateSource() error {
	src := c.Source

	// A raw dump replaces the API entirely.
	if src.RawFile == "" && !utils.IsValidURL(src.BaseURL) {
		return ErrMissingBaseURL
	}

	if src.PageSize < 1 {
		return ErrInvalidPageSize
	}

	if src.MaxPages < 1 {
		return ErrInvalidMaxPages
	}

	if src.RequestsPerSecond <= 0 {
		return ErrInvalidRate
	}

	if src.TimeoutSec < 1 {
		return ErrInvalidTimeout
	}

	if !models.YearInRange(src.Years.From) || !models.YearInRange(src.Years.To) || src.Years.From > src.Years.To {
		return fmt.Errorf("%w: %d-%d", ErrInvalidYearRange, src.Years.From, src.Years.To)
	}

	for i, name := range src.Countries {
		if _, ok := models.LookupCountry(name); !ok {
			return fmt.Errorf("%w: countries[%d]=%q", ErrUnknownCountry, i, name)
		}
	}

	for i, name := range src.Subsectors {
		if _, ok := models.ParseSubsector(name); !ok {
			return fmt.Errorf("%w: subsectors[%d]=%q", ErrUnknownSubsector, i, name)
		}
	}

	return nil
}

func (c *Config) validateSink() error {
	switch c.Sink.Driver {
	case SinkNone, "":
		return nil
	case SinkMongo, SinkSQLite, SinkPostgres:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidSinkDriver, c.Sink.Driver)
	}

	if c.Sink.URI == "" {
		return fmt.Errorf("%w: %s", ErrMissingSinkURI, c.Sink.Driver)
	}

	if c.Sink.Collection == "" {
		return ErrMissingCollection
	}

	if c.Sink.BatchSize < 1 {
		return ErrInvalidBatchSize
	}

	if c.Sink.TimeoutSec < 1 {
		return fmt.Errorf("%w: sink.timeout_sec=%d", ErrInvalidTimeout, c.Sink.TimeoutSec)
	}

	return nil
}

// SinkEnabled reports whether a load stage should run.
func (c *Config) SinkEnabled() bool {
	return c.Sink.Driver != "" && c.Sink.Driver != SinkNone
}

// SelectedCountries returns the configured countries, or all of them when none are listed.
func (c *Config) SelectedCountries() []models.Country {
	if len(c.Source.Countries) == 0 {
		return models.Countries
	}

	selected := make([]models.Country, 0, len(c.Source.Countries))
	for _, name := range c.Source.Countries {
		if country, ok := models.LookupCountry(name); ok {
			selected = append(selected, country)
		}
	}

	return selected
}

// SelectedSubsectors returns the configured subsectors, or all of them when none are listed.
func (c *Config) SelectedSubsectors() []models.Subsector {
	if len(c.Source.Subsectors) == 0 {
		return models.Subsectors
	}

	selected := make([]models.Subsector, 0, len(c.Source.Subsectors))
	for _, name := range c.Source.Subsectors {
		if sub, ok := models.ParseSubsector(name); ok {
			selected = append(selected, sub)
		}
	}

	return selected
}

// SelectedYears expands the configured year range.
func (c *Config) SelectedYears() []int {
	years := make([]int, 0, c.Source.Years.To-c.Source.Years.From+1)
	for y := c.Source.Years.From; y <= c.Source.Years.To; y++ {
		years = append(years, y)
	}

	return years
}

// GetTimeout returns the per-request timeout.
func (s *SourceConfig) GetTimeout() time.Duration {
	return time.Duration(s.TimeoutSec) * time.Second
}

// GetTimeout returns the timeout for connecting to the sink.
func (s *SinkConfig) GetTimeout() time.Duration {
	return time.Duration(s.TimeoutSec) * time.Second
}

// GetOutputPath joins a file name onto the output directory.
func (c *Config) GetOutputPath(name string) string {
	return filepath.Join(c.Output.BasePath, name)
}

// String returns a string representation of the config.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Source: %s%s, Countries: %d, Sink: %s, Output: %s}",
		c.Source.BaseURL,
		c.Source.Endpoint,
		len(c.SelectedCountries()),
		c.Sink.Driver,
		c.Output.BasePath,
	)
}
