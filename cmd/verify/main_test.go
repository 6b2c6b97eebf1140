package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trajectory-go/fusion"
	"trajectory-go/trajectory"
)

func archive(frames ...fusion.Frame) *trajectory.Archive {
	return trajectory.New(trajectory.Meta{TicksPerBucket: 6, BucketSeconds: 60, Width: 100, Height: 50}, frames)
}

func TestCompareIdentical(t *testing.T) {
	a := archive(fusion.Frame{{X: 1, Y: 2}}, fusion.Frame{})
	assert.Empty(t, compare(a, archive(fusion.Frame{{X: 1, Y: 2}}, fusion.Frame{})))
}

func TestCompareReportsDifferences(t *testing.T) {
	a := archive(fusion.Frame{{X: 1, Y: 2}}, fusion.Frame{}, fusion.Frame{})
	b := archive(fusion.Frame{{X: 1, Y: 3}}, fusion.Frame{})
	b.Meta.Width = 200

	diffs := compare(a, b)
	require.Len(t, diffs, 3)
	assert.Contains(t, diffs[0], "Meta mismatch")
	assert.Equal(t, "Mismatch at frame 0: len1=1 len2=1", diffs[1])
	assert.Equal(t, "Count mismatch: 3 vs 2", diffs[2])
}

func TestCompareStopsEarly(t *testing.T) {
	var fa, fb []fusion.Frame
	for i := 0; i < 20; i++ {
		fa = append(fa, fusion.Frame{{X: i, Y: 0}})
		fb = append(fb, fusion.Frame{{X: i, Y: 1}})
	}
	diffs := compare(archive(fa...), archive(fb...))
	require.Len(t, diffs, maxReported+1)
	assert.Equal(t, "Too many mismatches, stopping.", diffs[maxReported])
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.json.gz")
	require.NoError(t, trajectory.WriteFile(path, archive(fusion.Frame{{X: 3, Y: 4}})))

	a, raw, err := load(path)
	require.NoError(t, err)
	assert.NotEmpty(t, raw)
	assert.Equal(t, 1, a.Len())

	_, _, err = load(filepath.Join(t.TempDir(), "missing.json.gz"))
	assert.Error(t, err)
}
