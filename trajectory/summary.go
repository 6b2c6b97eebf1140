package trajectory

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary describes frame occupancy across an archive.
type Summary struct {
	Frames       int     `json:"frames"`
	EmptyFrames  int     `json:"empty_frames"`
	Points       int     `json:"points"`
	MeanPoints   float64 `json:"mean_points"`
	StdDevPoints float64 `json:"stddev_points"`
	MedianPoints float64 `json:"median_points"`
	MaxPoints    int     `json:"max_points"`
	PeakFrame    int     `json:"peak_frame"`
	MinX         int     `json:"min_x"`
	MaxX         int     `json:"max_x"`
	MinY         int     `json:"min_y"`
	MaxY         int     `json:"max_y"`
}

func Summarize(a *Archive) Summary {
	s := Summary{Frames: len(a.Frames)}
	if s.Frames == 0 {
		return s
	}
	counts := make([]float64, len(a.Frames))
	first := true
	for i, f := range a.Frames {
		counts[i] = float64(len(f))
		s.Points += len(f)
		if len(f) == 0 {
			s.EmptyFrames++
		}
		for _, p := range f {
			if first {
				s.MinX, s.MaxX, s.MinY, s.MaxY = p.X, p.X, p.Y, p.Y
				first = false
				continue
			}
			s.MinX = min(s.MinX, p.X)
			s.MaxX = max(s.MaxX, p.X)
			s.MinY = min(s.MinY, p.Y)
			s.MaxY = max(s.MaxY, p.Y)
		}
	}

	s.PeakFrame = floats.MaxIdx(counts)
	s.MaxPoints = int(counts[s.PeakFrame])
	if len(counts) > 1 {
		s.MeanPoints, s.StdDevPoints = stat.MeanStdDev(counts, nil)
	} else {
		s.MeanPoints = counts[0]
	}
	sorted := append([]float64(nil), counts...)
	floats.Argsort(sorted, make([]int, len(sorted)))
	s.MedianPoints = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	return s
}
