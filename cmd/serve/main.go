package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"trajectory-go/monitoring"
	"trajectory-go/trajectory"
	"trajectory-go/web"
)

func main() {
	archivePath := flag.String("archive", "trajectory.json.gz", "Trajectory archive to serve")
	httpPort := flag.Int("http", 8080, "HTTP/WebSocket port")
	floorplanDir := flag.String("floorplan", "", "Directory served under /floorplan/ (optional)")
	replay := flag.Bool("replay", false, "Broadcast frames to websocket clients on a loop")
	interval := flag.Duration("interval", time.Second, "Delay between replayed frames")
	start := flag.Int("start", 0, "First replayed frame")
	end := flag.Int("end", -1, "Last replayed frame (-1 = last)")
	accessLog := flag.Bool("access-log", false, "Log HTTP requests to stderr")
	flag.Parse()

	monitoring.SetLogger(log.Printf)

	log.Println("Loading archive...")
	a, err := trajectory.ReadFile(*archivePath)
	if err != nil {
		log.Fatalf("Failed to read archive: %v", err)
	}
	if err := a.Validate(); err != nil {
		log.Fatalf("Invalid archive: %v", err)
	}
	log.Printf("Loaded %d frames of %s", a.Len(), a.Meta.BucketDuration())

	srv := web.NewServer(a, *floorplanDir)
	if *accessLog {
		srv.AccessLog = os.Stderr
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *replay {
		last := *end
		if last < 0 {
			last = a.Len() - 1
		}
		go func() {
			for ctx.Err() == nil {
				if err := srv.Replay(ctx, *start, last, *interval); err != nil {
					if !errors.Is(err, context.Canceled) {
						log.Printf("Replay stopped: %v", err)
					}
					return
				}
			}
		}()
	}

	if err := srv.Start(ctx, fmt.Sprintf(":%d", *httpPort)); err != nil {
		log.Fatalf("HTTP server error: %v", err)
	}
	log.Println("Shutting down...")
}
