package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"trajectory-go/fusion"
	"trajectory-go/scanlog"
)

const (
	FormatCSV    = "csv"
	FormatSQLite = "sqlite"

	maxFileSize = 1 * 1024 * 1024
)

// Config holds the precompute job parameters. Every field is optional;
// the Get* accessors fall back to defaults for anything the file omits.
type Config struct {
	// Inputs
	ScansPath    *string `json:"scans_path,omitempty"`
	ScansFormat  *string `json:"scans_format,omitempty"` // "csv" or "sqlite"
	ScansTable   *string `json:"scans_table,omitempty"`
	AnchorsPath  *string `json:"anchors_path,omitempty"`
	AnchorsTable *string `json:"anchors_table,omitempty"`

	ScanColumns   *scanlog.ScanColumns   `json:"scan_columns,omitempty"`
	AnchorColumns *scanlog.AnchorColumns `json:"anchor_columns,omitempty"`

	// Output
	OutputPath *string `json:"output_path,omitempty"`

	// Floorplan extent in pixels
	FloorplanWidth  *int `json:"floorplan_width,omitempty"`
	FloorplanHeight *int `json:"floorplan_height,omitempty"`

	// Windowing
	TicksPerBucket *int    `json:"ticks_per_bucket,omitempty"`
	TickInterval   *string `json:"tick_interval,omitempty"` // duration string like "10s"

	// Path loss
	RSSI0            *float64 `json:"rssi0,omitempty"`
	PathLossExponent *float64 `json:"path_loss_exponent,omitempty"`

	Workers *int `json:"workers,omitempty"`
}

func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }
func ptrFloat64(v float64) *float64 { return &v }

// Load reads a Config from a JSON file with a .json extension, no larger
// than 1 MiB. The result is validated.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}
	fi, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fi.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fi.Size(), maxFileSize)
	}
	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the fields that are set.
func (c *Config) Validate() error {
	if c.ScansFormat != nil {
		switch *c.ScansFormat {
		case FormatCSV, FormatSQLite:
		default:
			return fmt.Errorf("scans_format must be %q or %q, got %q", FormatCSV, FormatSQLite, *c.ScansFormat)
		}
	}
	if c.FloorplanWidth != nil && *c.FloorplanWidth <= 0 {
		return fmt.Errorf("floorplan_width must be positive, got %d", *c.FloorplanWidth)
	}
	if c.FloorplanHeight != nil && *c.FloorplanHeight <= 0 {
		return fmt.Errorf("floorplan_height must be positive, got %d", *c.FloorplanHeight)
	}
	if c.TicksPerBucket != nil && *c.TicksPerBucket <= 0 {
		return fmt.Errorf("ticks_per_bucket must be positive, got %d", *c.TicksPerBucket)
	}
	if c.TickInterval != nil && *c.TickInterval != "" {
		d, err := time.ParseDuration(*c.TickInterval)
		if err != nil {
			return fmt.Errorf("invalid tick_interval '%s': %w", *c.TickInterval, err)
		}
		if d < time.Second || d%time.Second != 0 {
			return fmt.Errorf("tick_interval must be a whole number of seconds, got %s", d)
		}
	}
	if c.RSSI0 != nil && (math.IsNaN(*c.RSSI0) || math.IsInf(*c.RSSI0, 0)) {
		return fmt.Errorf("rssi0 must be finite")
	}
	if c.PathLossExponent != nil && !(*c.PathLossExponent > 0) {
		return fmt.Errorf("path_loss_exponent must be positive, got %f", *c.PathLossExponent)
	}
	if c.Workers != nil && *c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", *c.Workers)
	}
	return nil
}

func (c *Config) GetScansPath() string {
	if c.ScansPath == nil {
		return ""
	}
	return *c.ScansPath
}

// GetScansFormat returns the configured format, or one inferred from the
// scans path extension.
func (c *Config) GetScansFormat() string {
	if c.ScansFormat != nil && *c.ScansFormat != "" {
		return *c.ScansFormat
	}
	switch filepath.Ext(c.GetScansPath()) {
	case ".db", ".sqlite", ".sqlite3":
		return FormatSQLite
	}
	return FormatCSV
}

func (c *Config) GetScansTable() string {
	if c.ScansTable == nil || *c.ScansTable == "" {
		return "scans"
	}
	return *c.ScansTable
}

// GetAnchorsPath defaults to the scans path, so a single SQLite file can hold
// both tables.
func (c *Config) GetAnchorsPath() string {
	if c.AnchorsPath == nil || *c.AnchorsPath == "" {
		if c.GetScansFormat() == FormatSQLite {
			return c.GetScansPath()
		}
		return ""
	}
	return *c.AnchorsPath
}

func (c *Config) GetAnchorsTable() string {
	if c.AnchorsTable == nil || *c.AnchorsTable == "" {
		return "anchors"
	}
	return *c.AnchorsTable
}

// GetScanColumns fills unset column names from the defaults.
func (c *Config) GetScanColumns() scanlog.ScanColumns {
	cols := scanlog.DefaultScanColumns()
	if c.ScanColumns == nil {
		return cols
	}
	if c.ScanColumns.Tick != "" {
		cols.Tick = c.ScanColumns.Tick
	}
	if c.ScanColumns.AnchorID != "" {
		cols.AnchorID = c.ScanColumns.AnchorID
	}
	if c.ScanColumns.DeviceID != "" {
		cols.DeviceID = c.ScanColumns.DeviceID
	}
	if c.ScanColumns.RSSI != "" {
		cols.RSSI = c.ScanColumns.RSSI
	}
	return cols
}

func (c *Config) GetAnchorColumns() scanlog.AnchorColumns {
	cols := scanlog.DefaultAnchorColumns()
	if c.AnchorColumns == nil {
		return cols
	}
	if c.AnchorColumns.AnchorID != "" {
		cols.AnchorID = c.AnchorColumns.AnchorID
	}
	if c.AnchorColumns.X != "" {
		cols.X = c.AnchorColumns.X
	}
	if c.AnchorColumns.Y != "" {
		cols.Y = c.AnchorColumns.Y
	}
	return cols
}

func (c *Config) GetOutputPath() string {
	if c.OutputPath == nil || *c.OutputPath == "" {
		return "trajectory.json.gz"
	}
	return *c.OutputPath
}

func (c *Config) GetFloorplanWidth() int {
	if c.FloorplanWidth == nil {
		return fusion.DefaultFloorplanWidth
	}
	return *c.FloorplanWidth
}

func (c *Config) GetFloorplanHeight() int {
	if c.FloorplanHeight == nil {
		return fusion.DefaultFloorplanHeight
	}
	return *c.FloorplanHeight
}

func (c *Config) GetTicksPerBucket() int {
	if c.TicksPerBucket == nil {
		return fusion.DefaultTicksPerBucket
	}
	return *c.TicksPerBucket
}

// GetTickInterval parses TickInterval, falling back to the default on an
// empty or unparsable value.
func (c *Config) GetTickInterval() time.Duration {
	if c.TickInterval == nil || *c.TickInterval == "" {
		return fusion.DefaultTickInterval
	}
	d, err := time.ParseDuration(*c.TickInterval)
	if err != nil {
		return fusion.DefaultTickInterval
	}
	return d
}

// GetBucketDuration is the wall-clock span of one bucket.
func (c *Config) GetBucketDuration() time.Duration {
	return time.Duration(c.GetTicksPerBucket()) * c.GetTickInterval()
}

func (c *Config) GetRSSI0() float64 {
	if c.RSSI0 == nil {
		return fusion.DefaultRSSI0
	}
	return *c.RSSI0
}

func (c *Config) GetPathLossExponent() float64 {
	if c.PathLossExponent == nil {
		return fusion.DefaultPathLossExponent
	}
	return *c.PathLossExponent
}

// Set assigns a field by its JSON name from a string value, so command-line
// flags named after the keys can override a loaded file. The result is
// validated.
func (c *Config) Set(name, value string) error {
	switch name {
	case "scans_path":
		c.ScansPath = ptrString(value)
	case "scans_format":
		c.ScansFormat = ptrString(value)
	case "scans_table":
		c.ScansTable = ptrString(value)
	case "anchors_path":
		c.AnchorsPath = ptrString(value)
	case "anchors_table":
		c.AnchorsTable = ptrString(value)
	case "output_path":
		c.OutputPath = ptrString(value)
	case "tick_interval":
		c.TickInterval = ptrString(value)
	case "floorplan_width", "floorplan_height", "ticks_per_bucket", "workers":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		switch name {
		case "floorplan_width":
			c.FloorplanWidth = ptrInt(n)
		case "floorplan_height":
			c.FloorplanHeight = ptrInt(n)
		case "ticks_per_bucket":
			c.TicksPerBucket = ptrInt(n)
		default:
			c.Workers = ptrInt(n)
		}
	case "rssi0", "path_loss_exponent":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		if name == "rssi0" {
			c.RSSI0 = ptrFloat64(v)
		} else {
			c.PathLossExponent = ptrFloat64(v)
		}
	default:
		return fmt.Errorf("unknown config key %q", name)
	}
	return c.Validate()
}

// GetWorkers returns 0 when unset, which means one worker per CPU.
func (c *Config) GetWorkers() int {
	if c.Workers == nil {
		return 0
	}
	return *c.Workers
}
