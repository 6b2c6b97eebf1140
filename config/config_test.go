package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trajectory-go/fusion"
	"trajectory-go/scanlog"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaults(t *testing.T) {
	c := &Config{}
	require.NoError(t, c.Validate())

	assert.Equal(t, FormatCSV, c.GetScansFormat())
	assert.Equal(t, "scans", c.GetScansTable())
	assert.Equal(t, "anchors", c.GetAnchorsTable())
	assert.Equal(t, "", c.GetAnchorsPath())
	assert.Equal(t, "trajectory.json.gz", c.GetOutputPath())
	assert.Equal(t, fusion.DefaultFloorplanWidth, c.GetFloorplanWidth())
	assert.Equal(t, fusion.DefaultFloorplanHeight, c.GetFloorplanHeight())
	assert.Equal(t, 6, c.GetTicksPerBucket())
	assert.Equal(t, 10*time.Second, c.GetTickInterval())
	assert.Equal(t, time.Minute, c.GetBucketDuration())
	assert.Equal(t, -50.0, c.GetRSSI0())
	assert.Equal(t, 2.0, c.GetPathLossExponent())
	assert.Equal(t, 0, c.GetWorkers())
	assert.Equal(t, scanlog.DefaultScanColumns(), c.GetScanColumns())
	assert.Equal(t, scanlog.DefaultAnchorColumns(), c.GetAnchorColumns())
}

func TestLoadExample(t *testing.T) {
	c, err := Load("precompute.example.json")
	require.NoError(t, err)
	assert.Equal(t, "data/scans.csv", c.GetScansPath())
	assert.Equal(t, "out/trajectory.json.gz", c.GetOutputPath())
	assert.Equal(t, 2062, c.GetFloorplanWidth())
	assert.Equal(t, scanlog.DefaultScanColumns(), c.GetScanColumns())
}

func TestLoadPartial(t *testing.T) {
	path := writeConfig(t, "job.json", `{
		"scans_path": "scans.db",
		"ticks_per_bucket": 3,
		"tick_interval": "20s",
		"scan_columns": {"device_id": "mac"}
	}`)
	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, FormatSQLite, c.GetScansFormat(), "inferred from the extension")
	assert.Equal(t, "scans.db", c.GetAnchorsPath(), "sqlite anchors share the scans file")
	assert.Equal(t, time.Minute, c.GetBucketDuration())
	cols := c.GetScanColumns()
	assert.Equal(t, "mac", cols.DeviceID)
	assert.Equal(t, "time_index", cols.Tick)
	assert.Equal(t, -50.0, c.GetRSSI0())
}

func TestLoadRejects(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		body    string
		wantErr string
	}{
		{"extension", "job.yaml", `{}`, ".json extension"},
		{"syntax", "job.json", `{"workers":`, "parse config JSON"},
		{"format", "job.json", `{"scans_format":"parquet"}`, "scans_format"},
		{"width", "job.json", `{"floorplan_width":0}`, "floorplan_width"},
		{"height", "job.json", `{"floorplan_height":-4}`, "floorplan_height"},
		{"ticks", "job.json", `{"ticks_per_bucket":0}`, "ticks_per_bucket"},
		{"interval", "job.json", `{"tick_interval":"soon"}`, "tick_interval"},
		{"fractional interval", "job.json", `{"tick_interval":"1500ms"}`, "whole number of seconds"},
		{"exponent", "job.json", `{"path_loss_exponent":0}`, "path_loss_exponent"},
		{"workers", "job.json", `{"workers":-1}`, "workers"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.file, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	big := writeConfig(t, "big.json", `{"scans_path":"`+strings.Repeat("x", maxFileSize)+`"}`)
	_, err = Load(big)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too large")
}

func TestSet(t *testing.T) {
	c := &Config{}
	require.NoError(t, c.Set("scans_path", "in.csv"))
	require.NoError(t, c.Set("workers", "4"))
	require.NoError(t, c.Set("rssi0", "-47.5"))
	require.NoError(t, c.Set("path_loss_exponent", "2.7"))
	require.NoError(t, c.Set("floorplan_height", "100"))
	require.NoError(t, c.Set("tick_interval", "5s"))

	assert.Equal(t, "in.csv", c.GetScansPath())
	assert.Equal(t, 4, c.GetWorkers())
	assert.Equal(t, -47.5, c.GetRSSI0())
	assert.Equal(t, 2.7, c.GetPathLossExponent())
	assert.Equal(t, 100, c.GetFloorplanHeight())
	assert.Equal(t, 30*time.Second, c.GetBucketDuration())

	assert.Error(t, c.Set("workers", "many"))
	assert.Error(t, c.Set("rssi0", "loud"))
	assert.Error(t, c.Set("ticks_per_bucket", "0"))
	assert.Error(t, c.Set("colour", "blue"))
}
