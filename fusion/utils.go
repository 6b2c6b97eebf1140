package fusion

import (
	"encoding/json"
	"fmt"
)

// ScanRecord is one RSSI reading of a device by an anchor at a scan tick.
type ScanRecord struct {
	Tick     int
	AnchorID string
	DeviceID string
	RSSI     int
}

// Anchor is a beacon with a known floorplan pixel coordinate.
type Anchor struct {
	ID   string
	X, Y int
}

// Candidate is one resolved observation of a device inside a bucket.
type Candidate struct {
	AnchorID string
	X, Y     int
	RSSI     int
}

// DeviceCandidates holds a device's resolved observations in arrival order.
type DeviceCandidates struct {
	DeviceID   string
	Candidates []Candidate
}

// Position is an estimated device coordinate in floorplan pixels.
// It serializes as a two element array [x, y].
type Position struct {
	X, Y int
}

func (p Position) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{p.X, p.Y})
}

func (p *Position) UnmarshalJSON(b []byte) error {
	var xy []int
	if err := json.Unmarshal(b, &xy); err != nil {
		return err
	}
	if len(xy) != 2 {
		return fmt.Errorf("position: want [x, y], got %d values", len(xy))
	}
	p.X, p.Y = xy[0], xy[1]
	return nil
}

// Frame is the anonymous set of positions estimated for one bucket.
type Frame []Position

// MarshalJSON keeps empty frames as [] so consumers can index every bucket.
func (f Frame) MarshalJSON() ([]byte, error) {
	if f == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Position(f))
}
