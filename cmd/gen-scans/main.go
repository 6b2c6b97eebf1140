package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand/v2"
	"path/filepath"
	"strings"

	"gonum.org/v1/gonum/stat/distuv"

	"trajectory-go/fusion"
	"trajectory-go/scanlog"
)

// params describes a synthetic venue and its visitors.
type params struct {
	Width, Height int
	GridX, GridY  int
	Devices       int
	Ticks         int
	Step          float64 // max random-walk step per tick, pixels
	Presence      float64 // probability a device is scanned on a given tick
	RSSI0         float64
	Exponent      float64
	Noise         float64 // RSSI noise sigma, dB
	Floor         int     // weakest RSSI an anchor reports
	Seed          uint64
}

func main() {
	out := flag.String("out", "scans.csv", "Scan output (.csv, or .db for SQLite with both tables)")
	anchorsOut := flag.String("anchors-out", "anchors.csv", "Anchor table output for CSV mode")
	p := params{}
	flag.IntVar(&p.Width, "width", fusion.DefaultFloorplanWidth, "Floorplan width in pixels")
	flag.IntVar(&p.Height, "height", fusion.DefaultFloorplanHeight, "Floorplan height in pixels")
	flag.IntVar(&p.GridX, "grid-x", 8, "Anchor columns")
	flag.IntVar(&p.GridY, "grid-y", 3, "Anchor rows")
	flag.IntVar(&p.Devices, "devices", 50, "Number of devices")
	flag.IntVar(&p.Ticks, "ticks", 360, "Number of ticks")
	flag.Float64Var(&p.Step, "step", 15, "Max random-walk step per tick (pixels)")
	flag.Float64Var(&p.Presence, "presence", 0.8, "Probability a device is scanned per tick")
	flag.Float64Var(&p.RSSI0, "rssi0", fusion.DefaultRSSI0, "RSSI at the reference distance (dBm)")
	flag.Float64Var(&p.Exponent, "path-loss-exponent", fusion.DefaultPathLossExponent, "Path-loss exponent")
	flag.Float64Var(&p.Noise, "noise", 3, "RSSI noise sigma (dB)")
	flag.IntVar(&p.Floor, "floor", -100, "Weakest RSSI an anchor reports")
	flag.Uint64Var(&p.Seed, "seed", 1, "Random seed")
	flag.Parse()

	if err := p.validate(); err != nil {
		log.Fatalf("invalid parameters: %v", err)
	}
	anchors, scans := generate(p)
	log.Printf("Generated %d anchors, %d scan records over %d ticks", len(anchors), len(scans), p.Ticks)

	if err := write(context.Background(), *out, *anchorsOut, anchors, scans); err != nil {
		log.Fatalf("write failed: %v", err)
	}
}

func (p params) validate() error {
	switch {
	case p.Width <= 0 || p.Height <= 0:
		return fmt.Errorf("floorplan %dx%d", p.Width, p.Height)
	case p.GridX <= 0 || p.GridY <= 0:
		return fmt.Errorf("anchor grid %dx%d", p.GridX, p.GridY)
	case p.Devices < 0 || p.Ticks <= 0:
		return fmt.Errorf("%d devices over %d ticks", p.Devices, p.Ticks)
	case p.Presence < 0 || p.Presence > 1:
		return fmt.Errorf("presence %.2f not in [0,1]", p.Presence)
	case !(p.Exponent > 0):
		return fmt.Errorf("path-loss exponent %.2f", p.Exponent)
	case p.Noise < 0:
		return fmt.Errorf("noise %.2f", p.Noise)
	}
	return nil
}

// generate lays anchors out on an even grid and walks devices across the
// floorplan. Every anchor within range of a present device reports it, with
// RSSI from the inverse path-loss model plus Gaussian noise. The output is a
// pure function of p.
func generate(p params) ([]fusion.Anchor, []fusion.ScanRecord) {
	anchors := make([]fusion.Anchor, 0, p.GridX*p.GridY)
	for j := 0; j < p.GridY; j++ {
		for i := 0; i < p.GridX; i++ {
			anchors = append(anchors, fusion.Anchor{
				ID: fmt.Sprintf("A%02d", len(anchors)+1),
				X:  (2*i + 1) * p.Width / (2 * p.GridX),
				Y:  (2*j + 1) * p.Height / (2 * p.GridY),
			})
		}
	}

	rng := rand.New(rand.NewPCG(p.Seed, p.Seed^0x9e3779b97f4a7c15))
	noise := distuv.Normal{Mu: 0, Sigma: p.Noise, Src: rng}

	type device struct {
		id   string
		x, y float64
	}
	devices := make([]device, p.Devices)
	for k := range devices {
		devices[k] = device{
			id: fmt.Sprintf("%02x:%02x:%02x:%02x", 0xaa, 0xbb, k>>8&0xff, k&0xff),
			x:  rng.Float64() * float64(p.Width-1),
			y:  rng.Float64() * float64(p.Height-1),
		}
	}

	var scans []fusion.ScanRecord
	for tick := 1; tick <= p.Ticks; tick++ {
		for k := range devices {
			d := &devices[k]
			d.x = clamp(d.x+(rng.Float64()*2-1)*p.Step, 0, float64(p.Width-1))
			d.y = clamp(d.y+(rng.Float64()*2-1)*p.Step, 0, float64(p.Height-1))
			if rng.Float64() >= p.Presence {
				continue
			}
			for _, a := range anchors {
				dist := math.Max(1, math.Hypot(d.x-float64(a.X), d.y-float64(a.Y)))
				rssi := p.RSSI0 - 10*p.Exponent*math.Log10(dist)
				if p.Noise > 0 {
					rssi += noise.Rand()
				}
				r := int(math.Round(rssi))
				if r < p.Floor {
					continue
				}
				scans = append(scans, fusion.ScanRecord{Tick: tick, AnchorID: a.ID, DeviceID: d.id, RSSI: r})
			}
		}
	}
	return anchors, scans
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

func write(ctx context.Context, out, anchorsOut string, anchors []fusion.Anchor, scans []fusion.ScanRecord) error {
	switch strings.ToLower(filepath.Ext(out)) {
	case ".db", ".sqlite", ".sqlite3":
		st, err := scanlog.OpenStore(out)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.WriteAnchors(ctx, "anchors", scanlog.DefaultAnchorColumns(), anchors); err != nil {
			return err
		}
		if err := st.WriteScans(ctx, "scans", scanlog.DefaultScanColumns(), scans); err != nil {
			return err
		}
		log.Printf("Wrote tables anchors and scans to %s", out)
		return nil
	}

	if err := scanlog.WriteAnchorTable(anchorsOut, scanlog.DefaultAnchorColumns(), anchors); err != nil {
		return err
	}
	sw, err := scanlog.NewScanWriter(out, scanlog.DefaultScanColumns())
	if err != nil {
		return err
	}
	for _, r := range scans {
		if err := sw.WriteRecord(r); err != nil {
			sw.Close()
			return err
		}
	}
	if err := sw.Close(); err != nil {
		return err
	}
	log.Printf("Wrote %s and %s", out, anchorsOut)
	return nil
}
