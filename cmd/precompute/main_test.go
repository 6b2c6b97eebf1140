package main

import (
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trajectory-go/config"
	"trajectory-go/fusion"
	"trajectory-go/monitoring"
	"trajectory-go/scanlog"
	"trajectory-go/trajectory"
)

func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	monitoring.SetLogger(nil)
	os.Exit(m.Run())
}

var (
	testAnchors = []fusion.Anchor{{ID: "A1", X: 100, Y: 100}, {ID: "A2", X: 1500, Y: 400}}
	testScans   = []fusion.ScanRecord{
		{Tick: 1, AnchorID: "A1", DeviceID: "D1", RSSI: -60},
		{Tick: 2, AnchorID: "A2", DeviceID: "D1", RSSI: -75},
		{Tick: 3, AnchorID: "ZZ", DeviceID: "D2", RSSI: -40},
		{Tick: 19, AnchorID: "A2", DeviceID: "D2", RSSI: -65},
	}
)

func jobConfig(t *testing.T, set map[string]string) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	for k, v := range set {
		require.NoError(t, cfg.Set(k, v))
	}
	return cfg
}

func checkArchive(t *testing.T, path string, stats fusion.RunStats) {
	t.Helper()
	a, err := trajectory.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, a.Validate())

	// ticks 1..19 at 6 per bucket give buckets 1..4
	require.Equal(t, 4, a.Len())
	assert.Len(t, a.Frames[0], 1, "D2's only bucket-1 record names an unknown anchor")
	assert.Empty(t, a.Frames[1])
	assert.Empty(t, a.Frames[2])
	assert.Len(t, a.Frames[3], 1)
	assert.Equal(t, 60, a.Meta.BucketSeconds)

	assert.Equal(t, 4, stats.Records)
	assert.Equal(t, 1, stats.Unresolved)
	assert.Equal(t, 2, stats.EmptyBuckets)
	assert.Equal(t, 2, stats.Positions)
}

func TestRunCSV(t *testing.T) {
	dir := t.TempDir()
	scansPath := filepath.Join(dir, "scans.csv")
	anchorsPath := filepath.Join(dir, "anchors.csv")

	sw, err := scanlog.NewScanWriter(scansPath, scanlog.DefaultScanColumns())
	require.NoError(t, err)
	for _, r := range testScans {
		require.NoError(t, sw.WriteRecord(r))
	}
	require.NoError(t, sw.Close())
	require.NoError(t, scanlog.WriteAnchorTable(anchorsPath, scanlog.DefaultAnchorColumns(), testAnchors))

	out := filepath.Join(dir, "out", "trajectory.json.gz")
	cfg := jobConfig(t, map[string]string{
		"scans_path":   scansPath,
		"anchors_path": anchorsPath,
		"output_path":  out,
		"workers":      "2",
	})
	stats, err := run(context.Background(), cfg)
	require.NoError(t, err)
	checkArchive(t, out, stats)

	// a second run reproduces the archive byte for byte
	first, err := os.ReadFile(out)
	require.NoError(t, err)
	_, err = run(context.Background(), cfg)
	require.NoError(t, err)
	second, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRunSQLite(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "scans.db")

	st, err := scanlog.OpenStore(dbPath)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, st.WriteScans(ctx, "scans", scanlog.DefaultScanColumns(), testScans))
	require.NoError(t, st.WriteAnchors(ctx, "anchors", scanlog.DefaultAnchorColumns(), testAnchors))
	require.NoError(t, st.Close())

	out := filepath.Join(dir, "trajectory.json.gz")
	cfg := jobConfig(t, map[string]string{"scans_path": dbPath, "output_path": out})
	stats, err := run(ctx, cfg)
	require.NoError(t, err)
	checkArchive(t, out, stats)
}

func TestRunFailureWritesNothing(t *testing.T) {
	dir := t.TempDir()
	scansPath := filepath.Join(dir, "scans.csv")
	anchorsPath := filepath.Join(dir, "anchors.csv")
	require.NoError(t, os.WriteFile(scansPath, []byte("time_index,sward_name,mac_address,rssi\n"), 0o644))
	require.NoError(t, scanlog.WriteAnchorTable(anchorsPath, scanlog.DefaultAnchorColumns(), testAnchors))

	out := filepath.Join(dir, "trajectory.json.gz")
	cfg := jobConfig(t, map[string]string{
		"scans_path":   scansPath,
		"anchors_path": anchorsPath,
		"output_path":  out,
	})
	_, err := run(context.Background(), cfg)
	assert.ErrorIs(t, err, fusion.ErrNoScans)
	assert.NoFileExists(t, out)

	_, err = run(context.Background(), jobConfig(t, map[string]string{"scans_path": scansPath}))
	assert.Error(t, err, "anchors are required")
}
