package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"trajectory-go/trajectory"
)

func main() {
	archivePath := flag.String("archive", "", "Trajectory archive")
	asJSON := flag.Bool("json", false, "Print the summary as JSON")
	occupancy := flag.String("occupancy", "", "Write a devices-per-frame chart (.png/.svg/.pdf)")
	frame := flag.Int("frame", -1, "Frame index to plot with -frame-out")
	frameOut := flag.String("frame-out", "", "Write a scatter of -frame (.png/.svg/.pdf)")
	list := flag.Bool("list", false, "List the clock time and point count of every frame")
	flag.Parse()

	if *archivePath == "" {
		fmt.Println("--archive required")
		os.Exit(1)
	}

	a, err := trajectory.ReadFile(*archivePath)
	if err != nil {
		fmt.Printf("read archive failed: %v\n", err)
		os.Exit(1)
	}
	s := trajectory.Summarize(a)

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(s); err != nil {
			fmt.Printf("encode summary: %v\n", err)
			os.Exit(1)
		}
	} else {
		printSummary(a, s)
	}

	if *list {
		bucket := a.Meta.BucketDuration()
		for i, f := range a.Frames {
			fmt.Printf("%5d  %s  %d\n", i, trajectory.Label(i, bucket), len(f))
		}
	}

	if *occupancy != "" {
		if err := trajectory.PlotOccupancy(a, *occupancy); err != nil {
			fmt.Printf("plot occupancy failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Occupancy chart written to %s\n", *occupancy)
	}
	if *frameOut != "" {
		i := *frame
		if i < 0 {
			i = s.PeakFrame
		}
		if err := trajectory.PlotFrame(a, i, *frameOut); err != nil {
			fmt.Printf("plot frame failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Frame %d written to %s\n", i, *frameOut)
	}
}

func printSummary(a *trajectory.Archive, s trajectory.Summary) {
	m := a.Meta
	fmt.Printf("Archive v%d: %d frames of %s (%d ticks), floorplan %dx%d\n",
		a.Version, s.Frames, m.BucketDuration(), m.TicksPerBucket, m.Width, m.Height)
	fmt.Printf("Path loss: rssi0=%.1f dBm, n=%.2f\n", m.RSSI0, m.PathLossExponent)
	fmt.Printf("Points: %d total, %d empty frames\n", s.Points, s.EmptyFrames)
	if s.Frames == 0 {
		return
	}
	fmt.Printf("Per frame: mean %.2f, stddev %.2f, median %.1f, max %d at frame %d (%s)\n",
		s.MeanPoints, s.StdDevPoints, s.MedianPoints, s.MaxPoints, s.PeakFrame,
		trajectory.SpanLabel(s.PeakFrame, m.BucketDuration()))
	if s.Points > 0 {
		fmt.Printf("Extent: X[%d, %d] Y[%d, %d]\n", s.MinX, s.MaxX, s.MinY, s.MaxY)
	}
}
