package main

import (
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trajectory-go/scanlog"
)

func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func smallParams() params {
	return params{
		Width: 400, Height: 200,
		GridX: 4, GridY: 2,
		Devices: 5, Ticks: 12,
		Step: 10, Presence: 0.7,
		RSSI0: -50, Exponent: 2, Noise: 2, Floor: -100,
		Seed: 7,
	}
}

func TestGenerateDeterministic(t *testing.T) {
	a1, s1 := generate(smallParams())
	a2, s2 := generate(smallParams())
	if diff := cmp.Diff(a1, a2); diff != "" {
		t.Errorf("anchors differ:\n%s", diff)
	}
	if diff := cmp.Diff(s1, s2); diff != "" {
		t.Errorf("scans differ:\n%s", diff)
	}

	p := smallParams()
	p.Seed = 8
	_, s3 := generate(p)
	assert.NotEqual(t, s1, s3)
}

func TestGenerateShape(t *testing.T) {
	p := smallParams()
	anchors, scans := generate(p)

	require.Len(t, anchors, 8)
	assert.Equal(t, "A01", anchors[0].ID)
	assert.Equal(t, [2]int{50, 50}, [2]int{anchors[0].X, anchors[0].Y})
	assert.Equal(t, [2]int{350, 150}, [2]int{anchors[7].X, anchors[7].Y})

	require.NotEmpty(t, scans)
	last := 0
	for _, r := range scans {
		assert.GreaterOrEqual(t, r.Tick, last, "ticks are non-decreasing")
		last = r.Tick
		assert.LessOrEqual(t, r.Tick, p.Ticks)
		assert.GreaterOrEqual(t, r.RSSI, p.Floor)
		assert.LessOrEqual(t, r.RSSI, -40, "within a few sigma of rssi0 at 1px")
	}
}

func TestValidate(t *testing.T) {
	assert.NoError(t, smallParams().validate())
	for _, mut := range []func(*params){
		func(p *params) { p.Width = 0 },
		func(p *params) { p.GridY = 0 },
		func(p *params) { p.Ticks = 0 },
		func(p *params) { p.Presence = 1.5 },
		func(p *params) { p.Exponent = 0 },
		func(p *params) { p.Noise = -1 },
	} {
		p := smallParams()
		mut(&p)
		assert.Error(t, p.validate())
	}
}

func TestWriteRoundTrip(t *testing.T) {
	anchors, scans := generate(smallParams())
	dir := t.TempDir()
	ctx := context.Background()

	csvOut := filepath.Join(dir, "scans.csv")
	anchorsOut := filepath.Join(dir, "anchors.csv")
	require.NoError(t, write(ctx, csvOut, anchorsOut, anchors, scans))
	p := scanlog.NewScanParser(csvOut, scanlog.DefaultScanColumns())
	require.NoError(t, p.Parse())
	assert.Equal(t, scans, p.Records)
	gotAnchors, err := scanlog.ParseAnchorTable(anchorsOut, scanlog.DefaultAnchorColumns())
	require.NoError(t, err)
	assert.Equal(t, anchors, gotAnchors)

	dbOut := filepath.Join(dir, "scans.db")
	require.NoError(t, write(ctx, dbOut, "", anchors, scans))
	st, err := scanlog.OpenStore(dbOut)
	require.NoError(t, err)
	defer st.Close()
	got, err := st.LoadScans(ctx, "scans", scanlog.DefaultScanColumns())
	require.NoError(t, err)
	assert.Equal(t, scans, got)
}
