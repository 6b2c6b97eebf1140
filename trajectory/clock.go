package trajectory

import (
	"fmt"
	"time"
)

// Label renders the start of frame i as HH:MM, wrapping at midnight.
func Label(i int, bucket time.Duration) string {
	m := minutesAt(i, bucket)
	return fmt.Sprintf("%02d:%02d", (m/60)%24, m%60)
}

// SpanLabel renders "HH:MM ~ HH:MM" for frame i. Hours do not wrap, so the
// last bucket of a day ends at 24:00.
func SpanLabel(i int, bucket time.Duration) string {
	s := minutesAt(i, bucket)
	e := minutesAt(i+1, bucket)
	return fmt.Sprintf("%02d:%02d ~ %02d:%02d", s/60, s%60, e/60, e%60)
}

func minutesAt(i int, bucket time.Duration) int {
	return int(time.Duration(i) * bucket / time.Minute)
}
