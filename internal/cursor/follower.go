// Package cursor turns a pointer position into a force source. The emitter
// trails the pointer on a damped spring so flicks do not fling sand across
// the grid in a single tick.
package cursor

import (
	"github.com/charmbracelet/harmonica"

	"github.com/olivierh59500/sandworm-go/internal/sand"
)

// Mode selects what the emitter does to nearby sand.
type Mode int

const (
	Off Mode = iota
	Attract
	Repel
)

// Config describes the spring and the emitted force.
type Config struct {
	Frequency     float64 `json:"frequency"`
	Damping       float64 `json:"damping"`
	Strength      float32 `json:"strength"`
	MinDistanceSq float32 `json:"minDistanceSq"`
	MaxDistanceSq float32 `json:"maxDistanceSq"`
}

// DefaultConfig is a critically damped spring with a worm-strength force.
var DefaultConfig = Config{
	Frequency:     6,
	Damping:       1,
	Strength:      150,
	MinDistanceSq: 16,
	MaxDistanceSq: 400,
}

// Follower chases a target point.
type Follower struct {
	cfg    Config
	spring harmonica.Spring
	x, vx  float64
	y, vy  float64
	target sand.Vec2
}

// NewFollower creates a follower updated fps times per second.
func NewFollower(fps int, cfg Config) *Follower {
	return &Follower{
		cfg:    cfg,
		spring: harmonica.NewSpring(harmonica.FPS(fps), cfg.Frequency, cfg.Damping),
	}
}

// SetTarget sets the point the follower moves toward.
func (f *Follower) SetTarget(p sand.Vec2) { f.target = p }

// Jump places the follower on p at rest.
func (f *Follower) Jump(p sand.Vec2) {
	f.target = p
	f.x, f.y = float64(p.X), float64(p.Y)
	f.vx, f.vy = 0, 0
}

// Update advances the spring by one frame.
func (f *Follower) Update() {
	f.x, f.vx = f.spring.Update(f.x, f.vx, float64(f.target.X))
	f.y, f.vy = f.spring.Update(f.y, f.vy, float64(f.target.Y))
}

// Position returns the smoothed position.
func (f *Follower) Position() sand.Vec2 {
	return sand.Vec2{X: float32(f.x), Y: float32(f.y)}
}

// Force returns the force emitted at the smoothed position for mode. ok is
// false when the emitter is off.
func (f *Follower) Force(mode Mode) (sand.Force, bool) {
	strength := f.cfg.Strength
	switch mode {
	case Attract:
	case Repel:
		strength = -strength
	default:
		return sand.Force{}, false
	}
	return sand.Force{
		Position:      f.Position(),
		Strength:      strength,
		MinDistanceSq: f.cfg.MinDistanceSq,
		MaxDistanceSq: f.cfg.MaxDistanceSq,
	}, true
}
