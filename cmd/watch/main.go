// Command watch follows a running executor's live feed and prints one line
// per generation.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/brensch/snekevo/live"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:8081", "Address the executor was started with via -listen")
	readTimeout := flag.Duration("read-timeout", live.DefaultFollowConfig().ReadTimeout, "Give up when nothing arrives for this long")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	url := fmt.Sprintf("ws://%s/api/live", *addr)
	log.Printf("Following %s", url)

	var best float64
	err := live.Follow(ctx, url, live.FollowConfig{
		ConnectTimeout: 10 * time.Second,
		ReadTimeout:    *readTimeout,
	}, func(u live.Update) error {
		r := u.Report
		best = max(best, r.Best)
		fmt.Printf("%s gen %4d | best %6.1f (ever %6.1f) | mean %6.2f | min %5.1f | +%d | %s\n",
			u.RunID[:min(8, len(u.RunID))], r.Generation, r.Best, best, r.Mean, r.Min, r.Offspring,
			r.Duration.Round(time.Millisecond))
		return nil
	})
	if err != nil && ctx.Err() == nil {
		log.Fatalf("follow: %v", err)
	}
	log.Printf("Feed closed")
}
