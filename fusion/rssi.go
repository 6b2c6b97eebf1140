package fusion

import (
	"fmt"
	"math"
)

// PathLoss converts RSSI to radial distance with the log-distance model
// distance = 10^((RSSI0 - rssi) / (10 * Exponent)).
type PathLoss struct {
	RSSI0    float64
	Exponent float64
	ranges   []float64
}

func NewPathLoss(rssi0, exponent float64) (*PathLoss, error) {
	m := &PathLoss{}
	if err := m.Init(rssi0, exponent); err != nil {
		return nil, err
	}
	return m, nil
}

// Init (re)configures the model and rebuilds the lookup table.
func (m *PathLoss) Init(rssi0, exponent float64) error {
	if !(exponent > 0) || math.IsInf(exponent, 0) {
		return fmt.Errorf("path-loss exponent must be positive, got %v", exponent)
	}
	if math.IsNaN(rssi0) || math.IsInf(rssi0, 0) {
		return fmt.Errorf("reference rssi must be finite, got %v", rssi0)
	}
	m.RSSI0 = rssi0
	m.Exponent = exponent
	m.ranges = make([]float64, maxTableRSSI-minTableRSSI+1)
	for i := range m.ranges {
		m.ranges[i] = m.distanceRaw(i + minTableRSSI)
	}
	return nil
}

func (m *PathLoss) distanceRaw(rssi int) float64 {
	return math.Pow(10, (m.RSSI0-float64(rssi))/(10*m.Exponent))
}

// Distance returns the estimated distance in floorplan pixels for rssi.
func (m *PathLoss) Distance(rssi int) float64 {
	idx := rssi - minTableRSSI
	if idx >= 0 && idx < len(m.ranges) {
		return m.ranges[idx]
	}
	return m.distanceRaw(rssi)
}
