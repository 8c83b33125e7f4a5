package main

import (
	"flag"
	"log"
	"os"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/olivierh59500/sandworm-go/internal/sim"
)

func main() {
	configPath := flag.String("config", "config.json", "JSON config file, read if present and written by S")
	seed := flag.Int64("seed", 0, "override the config seed")
	flag.Parse()

	cfg := sim.Default()
	if _, err := os.Stat(*configPath); err == nil {
		if cfg, err = sim.Load(*configPath); err != nil {
			log.Fatal(err)
		}
	}
	if *seed != 0 {
		cfg.Seed = *seed
	}

	// Initialize simulation
	s, err := sim.New(cfg)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("seed %d", s.Seed())

	game := NewGame(s, *configPath)
	w, h := game.Layout(0, 0)

	// Set up Ebitengine game
	ebiten.SetWindowSize(w, h)
	ebiten.SetWindowTitle("Sandworm")
	ebiten.SetTPS(TPS)

	// Run the game loop
	if err := ebiten.RunGame(game); err != nil {
		log.Fatal(err)
	}
}
