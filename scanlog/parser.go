package scanlog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"trajectory-go/fusion"
)

var (
	ErrMissingColumn = errors.New("missing column")
	ErrMalformedRow  = errors.New("malformed row")
)

// ScanColumns names the scan dataset columns.
type ScanColumns struct {
	Tick     string `json:"tick"`
	AnchorID string `json:"anchor_id"`
	DeviceID string `json:"device_id"`
	RSSI     string `json:"rssi"`
}

// AnchorColumns names the anchor table columns.
type AnchorColumns struct {
	AnchorID string `json:"anchor_id"`
	X        string `json:"x"`
	Y        string `json:"y"`
}

// Column names used by the airport exports.
func DefaultScanColumns() ScanColumns {
	return ScanColumns{Tick: "time_index", AnchorID: "sward_name", DeviceID: "mac_address", RSSI: "rssi"}
}

func DefaultAnchorColumns() AnchorColumns {
	return AnchorColumns{AnchorID: "sward_id", X: "pos_x", Y: "pos_y"}
}

// ScanParser reads a scan dataset CSV. Extra columns are ignored.
type ScanParser struct {
	Path    string
	Columns ScanColumns

	Records []fusion.ScanRecord
}

func NewScanParser(path string, cols ScanColumns) *ScanParser {
	return &ScanParser{Path: path, Columns: cols}
}

func (p *ScanParser) Parse() error {
	f, err := os.Open(p.Path)
	if err != nil {
		return err
	}
	defer f.Close()
	recs, err := ReadScans(f, p.Columns)
	if err != nil {
		return fmt.Errorf("%s: %w", p.Path, err)
	}
	p.Records = recs
	return nil
}

// ReadScans decodes scan records in file order. Anchor and device IDs are
// interned, since a day of scans repeats a small set of them millions of times.
func ReadScans(r io.Reader, cols ScanColumns) ([]fusion.ScanRecord, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("scan header: %w", err)
	}
	idx, err := columnIndexes(header, cols.Tick, cols.AnchorID, cols.DeviceID, cols.RSSI)
	if err != nil {
		return nil, err
	}
	iTick, iAnchor, iDevice, iRSSI := idx[0], idx[1], idx[2], idx[3]

	intern := map[string]string{}
	internStr := func(s string) string {
		if v, ok := intern[s]; ok {
			return v
		}
		s = strings.Clone(s)
		intern[s] = s
		return s
	}

	var out []fusion.ScanRecord
	line := 1
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("scan row %d: %w", line, err)
		}
		tick, err := parseInt(row[iTick])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d column %q: %v", ErrMalformedRow, line, cols.Tick, err)
		}
		rssi, err := parseInt(row[iRSSI])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d column %q: %v", ErrMalformedRow, line, cols.RSSI, err)
		}
		if tick < 1 {
			return nil, fmt.Errorf("%w: line %d tick %d", fusion.ErrInvalidTick, line, tick)
		}
		out = append(out, fusion.ScanRecord{
			Tick:     tick,
			AnchorID: internStr(strings.TrimSpace(row[iAnchor])),
			DeviceID: internStr(strings.TrimSpace(row[iDevice])),
			RSSI:     rssi,
		})
	}
	return out, nil
}

// ParseAnchorTable loads the anchor table CSV.
func ParseAnchorTable(path string, cols AnchorColumns) ([]fusion.Anchor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	anchors, err := ReadAnchors(f, cols)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return anchors, nil
}

// ReadAnchors decodes anchor rows. Coordinates may be written as floats and
// are truncated to whole pixels.
func ReadAnchors(r io.Reader, cols AnchorColumns) ([]fusion.Anchor, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("anchor header: %w", err)
	}
	idx, err := columnIndexes(header, cols.AnchorID, cols.X, cols.Y)
	if err != nil {
		return nil, err
	}

	var out []fusion.Anchor
	line := 1
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("anchor row %d: %w", line, err)
		}
		x, err := parseCoord(row[idx[1]])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d column %q: %v", ErrMalformedRow, line, cols.X, err)
		}
		y, err := parseCoord(row[idx[2]])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d column %q: %v", ErrMalformedRow, line, cols.Y, err)
		}
		out = append(out, fusion.Anchor{ID: strings.TrimSpace(row[idx[0]]), X: x, Y: y})
	}
	return out, nil
}

func columnIndexes(header []string, names ...string) ([]int, error) {
	out := make([]int, len(names))
	for i, n := range names {
		out[i] = indexOf(header, n)
		if out[i] < 0 {
			return nil, fmt.Errorf("%w %q (have %s)", ErrMissingColumn, n, strings.Join(header, ","))
		}
	}
	return out, nil
}

func indexOf(arr []string, key string) int {
	for i, v := range arr {
		// tolerate a UTF-8 BOM on the first header cell
		if strings.EqualFold(strings.TrimSpace(strings.TrimPrefix(v, "\ufeff")), key) {
			return i
		}
	}
	return -1
}

func parseInt(s string) (int, error) {
	return strconv.Atoi(strings.TrimSpace(s))
}

func parseCoord(s string) (int, error) {
	s = strings.TrimSpace(s)
	if v, err := strconv.Atoi(s); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("non-finite coordinate %q", s)
	}
	return int(f), nil
}
