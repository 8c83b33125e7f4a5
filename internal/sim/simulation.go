// Package sim drives a sand grid: it owns the grid, steps the worms, drips
// new sand in and advances the automaton once per tick. Frontends only feed
// it pointer forces and read back pixels.
package sim

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/olivierh59500/sandworm-go/internal/sand"
	"github.com/olivierh59500/sandworm-go/internal/spawner"
	"github.com/olivierh59500/sandworm-go/internal/terrain"
	"github.com/olivierh59500/sandworm-go/internal/worm"
)

// Simulation is not safe for concurrent use.
type Simulation struct {
	cfg     Config
	seed    int64
	logger  *log.Logger
	coin    sand.Coin
	rng     *rand.Rand
	grid    *sand.Grid
	stepper *sand.Stepper
	spawner *spawner.Spawner
	worms   []*worm.Worm

	forces  []sand.Force
	pending []sand.Force
	ticks   int
	last    sand.StepStats
}

// Option customizes a Simulation.
type Option func(*Simulation)

// WithLogger routes diagnostics to l.
func WithLogger(l *log.Logger) Option {
	return func(s *Simulation) { s.logger = l }
}

// WithCoin replaces the seeded collision coin.
func WithCoin(c sand.Coin) Option {
	return func(s *Simulation) { s.coin = c }
}

// New validates cfg and builds a simulation in its reset state.
func New(cfg Config, opts ...Option) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Simulation{
		cfg:    cfg,
		seed:   cfg.Seed,
		logger: log.Default(),
		grid:   sand.NewGrid(cfg.Side),
	}
	if s.seed == 0 {
		s.seed = time.Now().UnixNano()
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.Reset(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reset empties the grid, regrows the terrain, rebuilds the worms and
// reseeds the random source, so a reset run replays identically.
func (s *Simulation) Reset() error {
	s.rng = rand.New(rand.NewSource(s.seed))

	coin := s.coin
	if coin == nil {
		coin = sand.NewRandCoinFrom(s.rng)
	}
	s.stepper = &sand.Stepper{
		Gravity:  sand.Vec2{X: 0, Y: -s.cfg.Gravity},
		Friction: s.cfg.Friction,
		MaxSpeed: s.cfg.MaxSpeed,
		Coin:     coin,
		Logger:   s.logger,
	}

	sp, err := spawner.New(s.cfg.Side, s.cfg.Spawner, s.rng)
	if err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	s.spawner = sp

	side := float32(s.cfg.Side)
	s.worms = s.worms[:0]
	for _, wc := range s.cfg.Worms {
		s.worms = append(s.worms, worm.New(wc.Segments, wc.Head, wc.Direction, wc.SegmentLength, wc.Speed,
			worm.WithProfile(wc.Profile),
			worm.WithWander(wc.Seed, wc.TurnRate),
			worm.WithBounds(sand.Vec2{}, sand.Vec2{X: side, Y: side}, side/10),
		))
	}

	s.grid.Clear()
	if n := terrain.Generate(s.grid, s.cfg.Terrain); n > 0 {
		s.logger.Printf("sim: terrain placed %d grains", n)
	}
	s.pending = s.pending[:0]
	s.ticks = 0
	s.last = sand.StepStats{}
	return nil
}

// AddForce queues an external force for the next tick only.
func (s *Simulation) AddForce(f sand.Force) {
	s.pending = append(s.pending, f)
}

// Tick advances the simulation by one fixed step.
func (s *Simulation) Tick() sand.StepStats {
	dt := s.cfg.TickSeconds

	s.forces = s.forces[:0]
	for _, w := range s.worms {
		w.Step(dt)
		s.forces = w.Forces(s.forces)
	}
	s.forces = append(s.forces, s.pending...)
	s.pending = s.pending[:0]

	s.spawner.Advance(dt)
	s.spawner.Spawn(s.grid)

	s.last = s.stepper.Step(s.grid, s.forces)
	s.ticks++
	return s.last
}

// Grid returns the simulated grid. Callers may Get and Set cells between
// ticks.
func (s *Simulation) Grid() *sand.Grid { return s.grid }

// Worms returns the live worms.
func (s *Simulation) Worms() []*worm.Worm { return s.worms }

// Forces returns the forces applied during the last tick.
func (s *Simulation) Forces() []sand.Force { return s.forces }

// Config returns the configuration the simulation was built with.
func (s *Simulation) Config() Config { return s.cfg }

// Seed returns the seed in effect, resolved if the config asked for a random one.
func (s *Simulation) Seed() int64 { return s.seed }

// Ticks returns the number of ticks since the last reset.
func (s *Simulation) Ticks() int { return s.ticks }

// LastStats returns the statistics of the most recent tick.
func (s *Simulation) LastStats() sand.StepStats { return s.last }

// Pixels renders the grid into dst, see sand.Grid.PixelsInto.
func (s *Simulation) Pixels(dst []byte) []byte { return s.grid.PixelsInto(dst) }
