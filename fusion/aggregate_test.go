package fusion

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRegistry() *Registry {
	return NewRegistry([]Anchor{
		{ID: "a", X: 10, Y: 10},
		{ID: "b", X: 20, Y: 20},
		{ID: "c", X: 30, Y: 30},
	})
}

func TestRegistryResolve(t *testing.T) {
	reg := NewRegistry([]Anchor{{ID: "a", X: 1, Y: 2}, {ID: "a", X: 3, Y: 4}})
	x, y, ok := reg.Resolve("a")
	require.True(t, ok)
	assert.Equal(t, [2]int{3, 4}, [2]int{x, y}, "later entry wins")
	_, _, ok = reg.Resolve("missing")
	assert.False(t, ok)
	assert.Equal(t, 1, reg.Len())
}

func TestStrongestTieKeepsFirst(t *testing.T) {
	cands := []Candidate{
		{AnchorID: "a", RSSI: -70},
		{AnchorID: "b", RSSI: -55},
		{AnchorID: "c", RSSI: -55},
	}
	got, ok := Strongest(cands)
	require.True(t, ok)
	assert.Equal(t, "b", got.AnchorID)

	_, ok = Strongest(nil)
	assert.False(t, ok)
}

func TestStrongestIgnoresNonWinnerOrder(t *testing.T) {
	base := []Candidate{
		{AnchorID: "w", RSSI: -40},
		{AnchorID: "x", RSSI: -80},
		{AnchorID: "y", RSSI: -60},
		{AnchorID: "z", RSSI: -90},
	}
	orders := [][]int{{0, 1, 2, 3}, {1, 0, 3, 2}, {3, 2, 1, 0}, {2, 3, 0, 1}}
	for _, order := range orders {
		shuffled := make([]Candidate, len(order))
		for i, j := range order {
			shuffled[i] = base[j]
		}
		got, ok := Strongest(shuffled)
		require.True(t, ok)
		assert.Equal(t, "w", got.AnchorID, "order %v", order)
	}
}

func TestGroup(t *testing.T) {
	records := []ScanRecord{
		{Tick: 1, AnchorID: "ghost", DeviceID: "only-ghost", RSSI: -30},
		{Tick: 1, AnchorID: "ghost", DeviceID: "d1", RSSI: -20},
		{Tick: 1, AnchorID: "b", DeviceID: "d2", RSSI: -60},
		{Tick: 2, AnchorID: "a", DeviceID: "d1", RSSI: -75},
		{Tick: 3, AnchorID: "c", DeviceID: "d2", RSSI: -50},
	}
	groups, unresolved := Group(records, testRegistry())
	assert.Equal(t, 2, unresolved)

	want := []DeviceCandidates{
		{DeviceID: "d2", Candidates: []Candidate{
			{AnchorID: "b", X: 20, Y: 20, RSSI: -60},
			{AnchorID: "c", X: 30, Y: 30, RSSI: -50},
		}},
		{DeviceID: "d1", Candidates: []Candidate{
			{AnchorID: "a", X: 10, Y: 10, RSSI: -75},
		}},
	}
	if diff := cmp.Diff(want, groups); diff != "" {
		t.Errorf("Group mismatch (-want +got):\n%s", diff)
	}

	// d1's ghost reading is stronger but unresolvable; the resolvable one is used.
	best, ok := Strongest(groups[1].Candidates)
	require.True(t, ok)
	assert.Equal(t, "a", best.AnchorID)
}
