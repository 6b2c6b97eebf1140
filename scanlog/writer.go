package scanlog

import (
	"bufio"
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"sync"

	"trajectory-go/fusion"
)

// ScanWriter appends scan records to a CSV file using the configured column
// names. It is safe for concurrent use.
type ScanWriter struct {
	mu  sync.Mutex
	c   io.Closer
	bw  *bufio.Writer
	w   *csv.Writer
	row []string
}

func NewScanWriter(path string, cols ScanColumns) (*ScanWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	sw := newScanWriter(f, f)
	if err := sw.writeHeader(cols); err != nil {
		f.Close()
		return nil, err
	}
	return sw, nil
}

func newScanWriter(w io.Writer, c io.Closer) *ScanWriter {
	bw := bufio.NewWriterSize(w, 64*1024)
	return &ScanWriter{
		c:   c,
		bw:  bw,
		w:   csv.NewWriter(bw),
		row: make([]string, 4), // reused per record
	}
}

func (sw *ScanWriter) writeHeader(cols ScanColumns) error {
	return sw.w.Write([]string{cols.Tick, cols.AnchorID, cols.DeviceID, cols.RSSI})
}

func (sw *ScanWriter) WriteRecord(r fusion.ScanRecord) error {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	sw.row[0] = strconv.Itoa(r.Tick)
	sw.row[1] = r.AnchorID
	sw.row[2] = r.DeviceID
	sw.row[3] = strconv.Itoa(r.RSSI)
	return sw.w.Write(sw.row)
}

// Close flushes buffered rows and closes the underlying file.
func (sw *ScanWriter) Close() error {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	sw.w.Flush()
	err := sw.w.Error()
	if ferr := sw.bw.Flush(); err == nil {
		err = ferr
	}
	if sw.c != nil {
		if cerr := sw.c.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// WriteAnchorTable writes anchors as a CSV table.
func WriteAnchorTable(path string, cols AnchorColumns, anchors []fusion.Anchor) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	rows := make([][]string, 0, len(anchors)+1)
	rows = append(rows, []string{cols.AnchorID, cols.X, cols.Y})
	for _, a := range anchors {
		rows = append(rows, []string{a.ID, strconv.Itoa(a.X), strconv.Itoa(a.Y)})
	}
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
