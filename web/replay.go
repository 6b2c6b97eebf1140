package web

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"trajectory-go/monitoring"
)

// Replay broadcasts frames start..end (inclusive, 0-based) to every
// connected client, one per interval. A reversed range is swapped and end is
// clamped to the last frame. It returns when the range is exhausted or ctx
// is done.
func (s *Server) Replay(ctx context.Context, start, end int, interval time.Duration) error {
	n := s.archive.Len()
	if n == 0 {
		return fmt.Errorf("replay: archive has no frames")
	}
	if interval <= 0 {
		return fmt.Errorf("replay: interval must be positive, got %s", interval)
	}
	if start > end {
		start, end = end, start
	}
	if start < 0 {
		start = 0
	}
	if end >= n {
		end = n - 1
	}
	if start > end {
		return fmt.Errorf("replay: start %d beyond last frame %d", start, n-1)
	}

	monitoring.Logf("Replaying frames %d..%d every %s", start, end, interval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	sent := 0
	for i := start; i <= end; i++ {
		msg, err := s.frameMessage(i)
		if err != nil {
			return err
		}
		b, err := json.Marshal(msg)
		if err != nil {
			return fmt.Errorf("encode frame %d: %w", i, err)
		}
		if err := s.Hub.Broadcast(ctx, b); err != nil {
			return err
		}
		sent++
		if i == end {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	monitoring.Logf("Replay ended. Frames sent: %d", sent)
	return nil
}
