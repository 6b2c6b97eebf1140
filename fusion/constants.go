package fusion

import "time"

// Calibration and floorplan defaults for the terminal deployment.
const (
	DefaultRSSI0            = -50.0
	DefaultPathLossExponent = 2.0
	DefaultTicksPerBucket   = 6
	DefaultTickInterval     = 10 * time.Second
	DefaultFloorplanWidth   = 2062
	DefaultFloorplanHeight  = 662
)

// Integer RSSI range served from the path-loss lookup table.
const (
	minTableRSSI = -128
	maxTableRSSI = 20
)

// clampInt returns x within [lo, hi].
func clampInt(x, lo, hi int) int {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
