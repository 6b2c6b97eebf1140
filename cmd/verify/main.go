package main

import (
	"bytes"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/google/go-cmp/cmp"

	"trajectory-go/trajectory"
)

const maxReported = 10

func main() {
	file1 := flag.String("1", "", "Archive to validate")
	file2 := flag.String("2", "", "Second archive to compare against (optional)")
	flag.Parse()

	if *file1 == "" {
		log.Fatal("Usage: verify -1 <archive> [-2 <archive>]")
	}

	a1, raw1, err := load(*file1)
	if err != nil {
		log.Fatalf("Error reading %s: %v", *file1, err)
	}
	if err := a1.Validate(); err != nil {
		fmt.Printf("FAILURE: %s: %v\n", *file1, err)
		os.Exit(1)
	}
	fmt.Printf("%s: %d frames, all points inside %dx%d\n", *file1, a1.Len(), a1.Meta.Width, a1.Meta.Height)
	if *file2 == "" {
		fmt.Println("SUCCESS: Archive is valid.")
		return
	}

	a2, raw2, err := load(*file2)
	if err != nil {
		log.Fatalf("Error reading %s: %v", *file2, err)
	}
	if bytes.Equal(raw1, raw2) {
		fmt.Println("SUCCESS: Archives are byte-identical.")
		return
	}

	diffs := compare(a1, a2)
	for _, d := range diffs {
		fmt.Println(d)
	}
	if len(diffs) == 0 {
		// same content, different encoding
		fmt.Println("SUCCESS: Archive contents match.")
		return
	}
	fmt.Println("FAILURE: Mismatches found.")
	os.Exit(1)
}

func load(path string) (*trajectory.Archive, []byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	a, err := trajectory.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, nil, err
	}
	return a, raw, nil
}

// compare reports meta and per-frame differences, stopping after
// maxReported frame mismatches.
func compare(a, b *trajectory.Archive) []string {
	var out []string
	if d := cmp.Diff(a.Meta, b.Meta); d != "" {
		out = append(out, fmt.Sprintf("Meta mismatch (-1 +2):\n%s", d))
	}
	n := min(a.Len(), b.Len())
	mismatches := 0
	for i := 0; i < n; i++ {
		if cmp.Equal(a.Frames[i], b.Frames[i]) {
			continue
		}
		out = append(out, fmt.Sprintf("Mismatch at frame %d: len1=%d len2=%d", i, len(a.Frames[i]), len(b.Frames[i])))
		mismatches++
		if mismatches >= maxReported {
			out = append(out, "Too many mismatches, stopping.")
			break
		}
	}
	if a.Len() != b.Len() {
		out = append(out, fmt.Sprintf("Count mismatch: %d vs %d", a.Len(), b.Len()))
	}
	return out
}
