package trajectory

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/gzip"

	"trajectory-go/fusion"
)

const FormatVersion = 1

var (
	ErrVersion    = errors.New("unsupported archive version")
	ErrOutOfRange = errors.New("frame index out of range")
)

// Meta records the parameters an archive was produced with.
type Meta struct {
	TicksPerBucket   int     `json:"ticks_per_bucket"`
	BucketSeconds    int     `json:"bucket_seconds"`
	Width            int     `json:"width"`
	Height           int     `json:"height"`
	RSSI0            float64 `json:"rssi0"`
	PathLossExponent float64 `json:"path_loss_exponent"`
}

// BucketDuration is the wall-clock span of one frame.
func (m Meta) BucketDuration() time.Duration {
	return time.Duration(m.BucketSeconds) * time.Second
}

// Archive is the ordered frame sequence; Frames[i] holds bucket i+1.
type Archive struct {
	Version int            `json:"version"`
	Meta    Meta           `json:"meta"`
	Frames  []fusion.Frame `json:"frames"`
}

func New(meta Meta, frames []fusion.Frame) *Archive {
	return &Archive{Version: FormatVersion, Meta: meta, Frames: frames}
}

func (a *Archive) Len() int { return len(a.Frames) }

// Frame returns the frame at 0-based position i.
func (a *Archive) Frame(i int) (fusion.Frame, error) {
	if i < 0 || i >= len(a.Frames) {
		return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrOutOfRange, i, len(a.Frames))
	}
	return a.Frames[i], nil
}

// Validate checks that every position lies inside the recorded extent.
func (a *Archive) Validate() error {
	if a.Version != FormatVersion {
		return fmt.Errorf("%w: %d", ErrVersion, a.Version)
	}
	if a.Meta.Width <= 0 || a.Meta.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", fusion.ErrFloorplan, a.Meta.Width, a.Meta.Height)
	}
	for i, f := range a.Frames {
		for j, p := range f {
			if p.X < 0 || p.X >= a.Meta.Width || p.Y < 0 || p.Y >= a.Meta.Height {
				return fmt.Errorf("frame %d point %d (%d,%d) outside %dx%d", i, j, p.X, p.Y, a.Meta.Width, a.Meta.Height)
			}
		}
	}
	return nil
}

// Encode writes a as gzip-compressed JSON. The gzip header carries no name
// or timestamp so identical archives encode to identical bytes.
func Encode(w io.Writer, a *Archive) error {
	zw, err := gzip.NewWriterLevel(w, gzip.BestCompression)
	if err != nil {
		return err
	}
	if err := json.NewEncoder(zw).Encode(a); err != nil {
		zw.Close()
		return fmt.Errorf("encode archive: %w", err)
	}
	return zw.Close()
}

func Decode(r io.Reader) (*Archive, error) {
	zr, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("archive header: %w", err)
	}
	defer zr.Close()
	var a Archive
	if err := json.NewDecoder(zr).Decode(&a); err != nil {
		return nil, fmt.Errorf("decode archive: %w", err)
	}
	if a.Version != FormatVersion {
		return nil, fmt.Errorf("%w: %d", ErrVersion, a.Version)
	}
	for i := range a.Frames {
		if a.Frames[i] == nil {
			a.Frames[i] = fusion.Frame{}
		}
	}
	return &a, nil
}

// WriteFile encodes a into a temp file next to path and renames it into
// place, so path either holds a complete archive or is left untouched.
func WriteFile(path string, a *Archive) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".tmp-"+filepath.Base(path)+"-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	fail := func(err error) error {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}

	bw := bufio.NewWriterSize(tmp, 64*1024)
	if err := Encode(bw, a); err != nil {
		return fail(err)
	}
	if err := bw.Flush(); err != nil {
		return fail(err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		return fail(err)
	}
	if err := tmp.Sync(); err != nil {
		return fail(err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return err
	}
	syncDir(dir)
	return nil
}

func ReadFile(path string) (*Archive, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	a, err := Decode(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return a, nil
}

// syncDir is best effort; some platforms cannot fsync a directory.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	d.Sync()
	d.Close()
}
