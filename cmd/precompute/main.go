package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"trajectory-go/config"
	"trajectory-go/fusion"
	"trajectory-go/monitoring"
	"trajectory-go/scanlog"
	"trajectory-go/trajectory"
)

func main() {
	configPath := flag.String("config", "", "JSON job config (optional)")
	flag.String("scans-path", "", "Scan dataset (CSV or SQLite)")
	flag.String("scans-format", "", "Scan dataset format: csv or sqlite (default from extension)")
	flag.String("scans-table", "", "SQLite scans table")
	flag.String("anchors-path", "", "Anchor table (CSV or SQLite)")
	flag.String("anchors-table", "", "SQLite anchors table")
	flag.String("output-path", "", "Output archive path")
	flag.Int("floorplan-width", fusion.DefaultFloorplanWidth, "Floorplan width in pixels")
	flag.Int("floorplan-height", fusion.DefaultFloorplanHeight, "Floorplan height in pixels")
	flag.Int("ticks-per-bucket", fusion.DefaultTicksPerBucket, "Ticks aggregated into one frame")
	flag.String("tick-interval", fusion.DefaultTickInterval.String(), "Wall-clock duration of one tick")
	flag.Float64("rssi0", fusion.DefaultRSSI0, "RSSI at the reference distance (dBm)")
	flag.Float64("path-loss-exponent", fusion.DefaultPathLossExponent, "Path-loss exponent")
	flag.Int("workers", 0, "Concurrent bucket workers (0 = one per CPU)")
	flag.Parse()

	runID := uuid.New()
	log.SetPrefix(fmt.Sprintf("[%s] ", runID.String()[:8]))
	monitoring.SetLogger(log.Printf)

	cfg := &config.Config{}
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			log.Fatalf("load config: %v", err)
		}
	}
	// explicitly set flags override the file
	var flagErr error
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "config" || flagErr != nil {
			return
		}
		if err := cfg.Set(strings.ReplaceAll(f.Name, "-", "_"), f.Value.String()); err != nil {
			flagErr = fmt.Errorf("-%s: %w", f.Name, err)
		}
	})
	if flagErr != nil {
		log.Fatalf("invalid flag: %v", flagErr)
	}
	if cfg.GetScansPath() == "" {
		fmt.Println("--scans-path or a config with scans_path required")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Printf("Run %s: %s -> %s", runID, cfg.GetScansPath(), cfg.GetOutputPath())
	start := time.Now()
	stats, err := run(ctx, cfg)
	if err != nil {
		log.Fatalf("precompute failed: %v", err)
	}
	log.Printf("Wrote %d frames (%d empty) with %d positions in %s",
		stats.Buckets, stats.EmptyBuckets, stats.Positions, time.Since(start).Round(time.Millisecond))
	log.Printf("Records: %d, unresolved anchors: %d, clamped: %d, radius %.2f ± %.2f",
		stats.Records, stats.Unresolved, stats.Clamped, stats.MeanRadius, stats.StdDevRadius)
}

// run loads the inputs named by cfg, computes every frame and writes the
// archive. Nothing is written unless all buckets succeed.
func run(ctx context.Context, cfg *config.Config) (fusion.RunStats, error) {
	anchors, scans, err := loadInputs(ctx, cfg)
	if err != nil {
		return fusion.RunStats{}, err
	}
	reg := fusion.NewRegistry(anchors)
	log.Printf("Loaded %d anchors (%d distinct), %d scan records", len(anchors), reg.Len(), len(scans))

	model, err := fusion.NewPathLoss(cfg.GetRSSI0(), cfg.GetPathLossExponent())
	if err != nil {
		return fusion.RunStats{}, err
	}
	synth, err := fusion.NewSynthesizer(model, cfg.GetFloorplanWidth(), cfg.GetFloorplanHeight())
	if err != nil {
		return fusion.RunStats{}, err
	}
	pipeline, err := fusion.NewPipeline(reg, synth, cfg.GetTicksPerBucket(), cfg.GetWorkers())
	if err != nil {
		return fusion.RunStats{}, err
	}
	res, err := pipeline.Run(ctx, scans)
	if err != nil {
		return fusion.RunStats{}, err
	}

	a := trajectory.New(trajectory.Meta{
		TicksPerBucket:   cfg.GetTicksPerBucket(),
		BucketSeconds:    int(cfg.GetBucketDuration() / time.Second),
		Width:            cfg.GetFloorplanWidth(),
		Height:           cfg.GetFloorplanHeight(),
		RSSI0:            cfg.GetRSSI0(),
		PathLossExponent: cfg.GetPathLossExponent(),
	}, res.Frames)
	if err := trajectory.WriteFile(cfg.GetOutputPath(), a); err != nil {
		return fusion.RunStats{}, err
	}
	return res.Stats, nil
}

func loadInputs(ctx context.Context, cfg *config.Config) ([]fusion.Anchor, []fusion.ScanRecord, error) {
	if cfg.GetAnchorsPath() == "" {
		return nil, nil, fmt.Errorf("anchors path required")
	}
	anchors, err := loadAnchors(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("load anchors: %w", err)
	}
	scans, err := loadScans(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("load scans: %w", err)
	}
	return anchors, scans, nil
}

func loadScans(ctx context.Context, cfg *config.Config) ([]fusion.ScanRecord, error) {
	if cfg.GetScansFormat() == config.FormatSQLite {
		st, err := scanlog.OpenStore(cfg.GetScansPath())
		if err != nil {
			return nil, err
		}
		defer st.Close()
		return st.LoadScans(ctx, cfg.GetScansTable(), cfg.GetScanColumns())
	}
	p := scanlog.NewScanParser(cfg.GetScansPath(), cfg.GetScanColumns())
	if err := p.Parse(); err != nil {
		return nil, err
	}
	return p.Records, nil
}

// loadAnchors picks the anchor source by extension, so a CSV anchor table
// can sit next to a SQLite scan store and vice versa.
func loadAnchors(ctx context.Context, cfg *config.Config) ([]fusion.Anchor, error) {
	path := cfg.GetAnchorsPath()
	if strings.HasSuffix(strings.ToLower(path), ".csv") {
		return scanlog.ParseAnchorTable(path, cfg.GetAnchorColumns())
	}
	st, err := scanlog.OpenStore(path)
	if err != nil {
		return nil, err
	}
	defer st.Close()
	return st.LoadAnchors(ctx, cfg.GetAnchorsTable(), cfg.GetAnchorColumns())
}
