package trajectory

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// PlotOccupancy writes a line chart of points per frame. The image format
// follows the file extension (.png, .svg, .pdf).
func PlotOccupancy(a *Archive, path string) error {
	if len(a.Frames) == 0 {
		return fmt.Errorf("plot occupancy: archive has no frames")
	}
	pts := make(plotter.XYs, len(a.Frames))
	for i, f := range a.Frames {
		pts[i].X = float64(i)
		pts[i].Y = float64(len(f))
	}

	p := plot.New()
	p.Title.Text = "Devices per frame"
	p.X.Label.Text = fmt.Sprintf("frame (%s each)", a.Meta.BucketDuration())
	p.Y.Label.Text = "devices"
	p.Y.Min = 0

	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("occupancy line: %w", err)
	}
	line.Color = color.RGBA{R: 0, G: 120, B: 255, A: 255}
	p.Add(line, plotter.NewGrid())

	if err := p.Save(10*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

// PlotFrame writes a scatter of frame i over the floorplan extent, with the
// y axis flipped to match image coordinates.
func PlotFrame(a *Archive, i int, path string) error {
	f, err := a.Frame(i)
	if err != nil {
		return err
	}
	if a.Meta.Width <= 0 || a.Meta.Height <= 0 {
		return fmt.Errorf("plot frame: invalid extent %dx%d", a.Meta.Width, a.Meta.Height)
	}
	pts := make(plotter.XYs, len(f))
	for j, pos := range f {
		pts[j].X = float64(pos.X)
		pts[j].Y = float64(a.Meta.Height - 1 - pos.Y)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Frame %d (%s)", i, SpanLabel(i, a.Meta.BucketDuration()))
	p.X.Min, p.X.Max = 0, float64(a.Meta.Width-1)
	p.Y.Min, p.Y.Max = 0, float64(a.Meta.Height-1)

	if len(pts) > 0 {
		sc, err := plotter.NewScatter(pts)
		if err != nil {
			return fmt.Errorf("frame scatter: %w", err)
		}
		sc.GlyphStyle.Color = color.RGBA{R: 0, G: 120, B: 255, A: 200}
		sc.GlyphStyle.Radius = vg.Points(2)
		sc.GlyphStyle.Shape = draw.CircleGlyph{}
		p.Add(sc)
	}

	// keep the floorplan aspect ratio
	w := 12 * vg.Inch
	h := w * vg.Length(a.Meta.Height) / vg.Length(a.Meta.Width)
	if err := p.Save(w, h, path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}
