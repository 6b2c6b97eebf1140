package fusion

import (
	"fmt"
	"hash/fnv"
	"math"
	"math/rand/v2"
	"strconv"
)

// Synthesizer places a device around its strongest anchor at the path-loss
// distance and a bearing derived from the (device, bucket) key.
type Synthesizer struct {
	Model  *PathLoss
	Width  int
	Height int
}

func NewSynthesizer(model *PathLoss, width, height int) (*Synthesizer, error) {
	if model == nil {
		return nil, fmt.Errorf("synthesizer: nil path-loss model")
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrFloorplan, width, height)
	}
	return &Synthesizer{Model: model, Width: width, Height: height}, nil
}

// SeedKey concatenates the device identifier and the decimal bucket index.
func SeedKey(deviceID string, bucket int) string {
	return deviceID + strconv.Itoa(bucket)
}

// Bearing draws an angle in [0, 2π) from a generator seeded only by key.
func Bearing(key string) float64 {
	h1 := fnv.New64a()
	h1.Write([]byte(key))
	h2 := fnv.New64()
	h2.Write([]byte(key))
	rng := rand.New(rand.NewPCG(h1.Sum64(), h2.Sum64()))
	return rng.Float64() * 2 * math.Pi
}

// Place returns the clamped position for a device whose strongest candidate
// in bucket is c. clamped reports whether either axis hit the extent.
func (s *Synthesizer) Place(deviceID string, bucket int, c Candidate) (pos Position, clamped bool) {
	radius := s.Model.Distance(c.RSSI)
	angle := Bearing(SeedKey(deviceID, bucket))

	var cx, cy bool
	pos.X, cx = truncClamp(float64(c.X)+radius*math.Cos(angle), s.Width-1)
	pos.Y, cy = truncClamp(float64(c.Y)+radius*math.Sin(angle), s.Height-1)
	return pos, cx || cy
}

// truncClamp truncates v toward zero and clamps it to [0, hi]. The clamp is
// applied in float space so far-away placements cannot overflow int.
func truncClamp(v float64, hi int) (int, bool) {
	t := math.Trunc(v)
	switch {
	case math.IsNaN(t), t < 0:
		return 0, true
	case t > float64(hi):
		return hi, true
	}
	return clampInt(int(t), 0, hi), false
}

// Radius exposes the model distance for reporting.
func (s *Synthesizer) Radius(rssi int) float64 {
	return s.Model.Distance(rssi)
}
