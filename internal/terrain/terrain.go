// Package terrain pre-fills a grid with noise-shaped dunes of resting sand.
package terrain

import (
	"math"

	"github.com/aquilax/go-perlin"

	"github.com/olivierh59500/sandworm-go/internal/sand"
)

// Options shapes the dunes.
type Options struct {
	Enabled bool `json:"enabled"`
	// Base is the mean dune height as a fraction of the grid side.
	Base float64 `json:"base"`
	// Amplitude is the height variation as a fraction of the grid side.
	Amplitude float64 `json:"amplitude"`
	// Scale is the number of noise periods across the grid.
	Scale float64 `json:"scale"`
	Seed  int64   `json:"seed"`
}

// DefaultOptions leaves the grid empty.
var DefaultOptions = Options{Base: 0.15, Amplitude: 0.1, Scale: 3, Seed: 1}

// Heights returns the dune height of every column, each within [0, side].
func Heights(side int, opts Options) []int {
	p := perlin.NewPerlin(2, 2, 3, opts.Seed)
	out := make([]int, side)
	for x := range out {
		n := p.Noise1D(float64(x) / float64(side) * opts.Scale)
		h := (opts.Base + n*opts.Amplitude) * float64(side)
		out[x] = int(math.Max(0, math.Min(float64(side), math.Round(h))))
	}
	return out
}

// Generate fills each column of g from the floor up to its dune height with
// resting particles and returns how many were placed. Occupied cells are kept.
func Generate(g *sand.Grid, opts Options) int {
	if !opts.Enabled {
		return 0
	}
	placed := 0
	for x, h := range Heights(g.Side(), opts) {
		for y := 0; y < h; y++ {
			c := sand.Coordinate{X: x, Y: y}
			if cell, ok := g.Get(c); ok && cell.IsEmpty() {
				g.Set(c, sand.NewParticle(sand.Vec2{}))
				placed++
			}
		}
	}
	return placed
}
