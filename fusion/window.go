package fusion

import "fmt"

// Bucket is one time window and the scan records that fall into it,
// kept in their original order.
type Bucket struct {
	Index   int
	Records []ScanRecord
}

// BucketOf maps a scan tick (starting at 1) to its 1-based bucket index.
func BucketOf(tick, ticksPerBucket int) int {
	return (tick-1)/ticksPerBucket + 1
}

// Window assigns every record to its bucket and returns buckets 1..max with
// no gaps. Buckets without records are present and empty.
func Window(scans []ScanRecord, ticksPerBucket int) ([]Bucket, error) {
	if ticksPerBucket <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrTicksPerBucket, ticksPerBucket)
	}
	if len(scans) == 0 {
		return nil, ErrNoScans
	}

	maxBucket := 0
	counts := map[int]int{}
	for i, s := range scans {
		if s.Tick < 1 {
			return nil, fmt.Errorf("%w: record %d has tick %d", ErrInvalidTick, i, s.Tick)
		}
		b := BucketOf(s.Tick, ticksPerBucket)
		counts[b]++
		if b > maxBucket {
			maxBucket = b
		}
	}

	buckets := make([]Bucket, maxBucket)
	for i := range buckets {
		buckets[i].Index = i + 1
		if n := counts[i+1]; n > 0 {
			buckets[i].Records = make([]ScanRecord, 0, n)
		}
	}
	for _, s := range scans {
		b := BucketOf(s.Tick, ticksPerBucket)
		buckets[b-1].Records = append(buckets[b-1].Records, s)
	}
	return buckets, nil
}
