// Package spawner drips new sand into the top row of a grid.
package spawner

import (
	"fmt"
	"math/rand"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"

	"github.com/olivierh59500/sandworm-go/internal/sand"
)

// Config controls where and how sand enters the grid.
type Config struct {
	// Sweep is the half width, in cells, of the spawn point's back and forth
	// travel around the centre column. Zero keeps it fixed.
	Sweep int `json:"sweep"`
	// Period is the duration in seconds of one pass across the sweep.
	Period float32 `json:"period"`
	// Easing names the tween curve, see Easings.
	Easing string `json:"easing"`
	// MinSpeed is the fastest initial downward speed; new grains start with a
	// vertical velocity drawn uniformly from [MinSpeed, 0].
	MinSpeed float32 `json:"minSpeed"`
}

// DefaultConfig spawns at the top centre with a random downward kick.
var DefaultConfig = Config{Sweep: 0, Period: 4, Easing: "inOutSine", MinSpeed: -2}

// Easings lists the curves a Config may name.
var Easings = map[string]ease.TweenFunc{
	"linear":     ease.Linear,
	"inOutSine":  ease.InOutSine,
	"inOutCubic": ease.InOutCubic,
	"outBounce":  ease.OutBounce,
}

// Spawner places particles at a moving spawn point.
type Spawner struct {
	cfg    Config
	side   int
	easing ease.TweenFunc
	rng    *rand.Rand
	tween  *gween.Tween
	// forward is true while the tween runs from the left end to the right.
	forward bool
	x       float32
}

// New returns a spawner for a grid of the given side.
func New(side int, cfg Config, rng *rand.Rand) (*Spawner, error) {
	fn, ok := Easings[cfg.Easing]
	if !ok {
		return nil, fmt.Errorf("spawner: unknown easing %q", cfg.Easing)
	}
	if cfg.Sweep < 0 {
		return nil, fmt.Errorf("spawner: negative sweep %d", cfg.Sweep)
	}
	if cfg.Sweep > 0 && cfg.Period <= 0 {
		return nil, fmt.Errorf("spawner: sweep needs a positive period, got %v", cfg.Period)
	}
	s := &Spawner{cfg: cfg, side: side, easing: fn, rng: rng, x: float32(side / 2)}
	if cfg.Sweep > 0 {
		s.forward = true
		s.tween = gween.New(s.left(), s.right(), cfg.Period, fn)
	}
	return s, nil
}

func (s *Spawner) left() float32  { return float32(s.side/2 - s.cfg.Sweep) }
func (s *Spawner) right() float32 { return float32(s.side/2 + s.cfg.Sweep) }

// Advance moves the spawn point along its sweep by dt seconds.
func (s *Spawner) Advance(dt float32) {
	if s.tween == nil {
		return
	}
	x, done := s.tween.Update(dt)
	s.x = x
	if done {
		s.forward = !s.forward
		if s.forward {
			s.tween = gween.New(s.left(), s.right(), s.cfg.Period, s.easing)
		} else {
			s.tween = gween.New(s.right(), s.left(), s.cfg.Period, s.easing)
		}
	}
}

// Point returns the current spawn cell, clamped into the grid.
func (s *Spawner) Point() sand.Coordinate {
	x := int(s.x + 0.5)
	x = max(0, min(s.side-1, x))
	return sand.Coordinate{X: x, Y: s.side - 1}
}

// Spawn writes a new particle at the spawn point if that cell is empty and
// reports whether it did.
func (s *Spawner) Spawn(g *sand.Grid) bool {
	c := s.Point()
	cell, ok := g.Get(c)
	if !ok || !cell.IsEmpty() {
		return false
	}
	vy := s.rng.Float32() * s.cfg.MinSpeed
	g.Set(c, sand.NewParticle(sand.Vec2{X: 0, Y: vy}))
	return true
}
