package fusion

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"trajectory-go/monitoring"
)

// RunStats summarises one pipeline run.
type RunStats struct {
	Records      int
	Unresolved   int
	Buckets      int
	EmptyBuckets int
	Positions    int
	Clamped      int
	MeanRadius   float64
	StdDevRadius float64
}

// Result is the ordered frame sequence produced by Run; Frames[i] belongs to
// bucket i+1.
type Result struct {
	Frames []Frame
	Stats  RunStats
}

type bucketResult struct {
	frame      Frame
	radii      []float64
	unresolved int
	clamped    int
}

type Pipeline struct {
	registry       *Registry
	synth          *Synthesizer
	ticksPerBucket int
	workers        int
}

// NewPipeline wires the registry and synthesizer. workers <= 0 uses
// GOMAXPROCS; workers == 1 processes buckets sequentially.
func NewPipeline(reg *Registry, synth *Synthesizer, ticksPerBucket, workers int) (*Pipeline, error) {
	if reg == nil || synth == nil {
		return nil, fmt.Errorf("pipeline: registry and synthesizer are required")
	}
	if ticksPerBucket <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrTicksPerBucket, ticksPerBucket)
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Pipeline{
		registry:       reg,
		synth:          synth,
		ticksPerBucket: ticksPerBucket,
		workers:        workers,
	}, nil
}

// Run windows the scans and estimates one frame per bucket. Buckets may be
// computed concurrently; results are merged by bucket index.
func (p *Pipeline) Run(ctx context.Context, scans []ScanRecord) (*Result, error) {
	buckets, err := Window(scans, p.ticksPerBucket)
	if err != nil {
		return nil, err
	}
	monitoring.Logf("windowed %d records into %d buckets (%d ticks each)", len(scans), len(buckets), p.ticksPerBucket)

	results := make([]bucketResult, len(buckets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i := range buckets {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = p.processBucket(buckets[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &Result{Frames: make([]Frame, len(results))}
	st := &res.Stats
	st.Records = len(scans)
	st.Buckets = len(results)
	var radii []float64
	for i, r := range results {
		res.Frames[i] = r.frame
		st.Unresolved += r.unresolved
		st.Clamped += r.clamped
		st.Positions += len(r.frame)
		if len(r.frame) == 0 {
			st.EmptyBuckets++
		}
		radii = append(radii, r.radii...)
	}
	switch {
	case len(radii) > 1:
		st.MeanRadius, st.StdDevRadius = stat.MeanStdDev(radii, nil)
	case len(radii) == 1:
		st.MeanRadius = radii[0]
	}
	return res, nil
}

func (p *Pipeline) processBucket(b Bucket) bucketResult {
	groups, unresolved := Group(b.Records, p.registry)
	out := bucketResult{
		frame:      make(Frame, 0, len(groups)),
		radii:      make([]float64, 0, len(groups)),
		unresolved: unresolved,
	}
	for _, g := range groups {
		c, ok := Strongest(g.Candidates)
		if !ok {
			continue
		}
		pos, clamped := p.synth.Place(g.DeviceID, b.Index, c)
		if clamped {
			out.clamped++
		}
		out.frame = append(out.frame, pos)
		out.radii = append(out.radii, p.synth.Radius(c.RSSI))
	}
	return out
}
