// demo-events generates sample NDJSON event records for exercising an
// exportd pipeline. It writes to stdout by default, so it can be piped
// straight into "exportd run", or to a unix intake socket.
//
// Usage:
//
//	go run . -rate 50 | exportd run --config exportd.yaml
//	go run . -socket /run/exportd.sock -duration 1m
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net"
	"os"
	"os/signal"
	"time"

	"github.com/goccy/go-json"
)

var services = []string{"checkout", "billing", "auth", "search", "mailer"}

var levels = []string{"info", "info", "info", "warn", "error"}

func main() {
	rate := flag.Int("rate", 10, "events per second")
	duration := flag.Duration("duration", 0, "how long to run (0 = until Ctrl+C)")
	socket := flag.String("socket", "", "write to a unix intake socket instead of stdout")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if *duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *duration)
		defer cancel()
	}

	var w io.Writer = os.Stdout
	if *socket != "" {
		conn, err := net.Dial("unix", *socket)
		if err != nil {
			log.Fatalf("dial %s: %v", *socket, err)
		}
		defer conn.Close()
		w = conn
	}

	enc := json.NewEncoder(w)
	ticker := time.NewTicker(time.Second / time.Duration(*rate))
	defer ticker.Stop()

	n := 0
	for {
		select {
		case <-ctx.Done():
			fmt.Fprintf(os.Stderr, "demo-events: emitted %d events\n", n)
			return
		case <-ticker.C:
			if err := enc.Encode(sampleEvent(n)); err != nil {
				log.Fatalf("write: %v", err)
			}
			n++
		}
	}
}

func sampleEvent(n int) map[string]any {
	svc := services[rand.Intn(len(services))]
	return map[string]any{
		"event":      "request_finished",
		"service":    svc,
		"level":      levels[rand.Intn(len(levels))],
		"seq":        n,
		"duration_s": rand.Float64() * 2,
		"status":     statusFor(svc),
	}
}

func statusFor(svc string) int {
	if rand.Intn(20) == 0 {
		return 500
	}
	if svc == "auth" && rand.Intn(10) == 0 {
		return 401
	}
	return 200
}
