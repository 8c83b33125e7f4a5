// Command sandserve runs the sand simulation headless and streams frames to
// browsers over a websocket.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/olivierh59500/sandworm-go/internal/sim"
	"github.com/olivierh59500/sandworm-go/internal/stream"
)

func main() {
	addr := flag.String("addr", "localhost:8080", "listen address")
	configPath := flag.String("config", "", "JSON config file")
	seed := flag.Int64("seed", 0, "override the config seed")
	flag.Parse()

	cfg := sim.Default()
	if *configPath != "" {
		var err error
		if cfg, err = sim.Load(*configPath); err != nil {
			log.Fatal(err)
		}
	}
	if *seed != 0 {
		cfg.Seed = *seed
	}

	s, err := sim.New(cfg)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("seed %d", s.Seed())

	interval := time.Duration(float64(cfg.TickSeconds) * float64(time.Second))
	server, err := stream.NewServer(s, interval, log.Default())
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.ListenAndServe(ctx, *addr); err != nil {
		log.Fatal(err)
	}
}
