package sand

import (
	"log"
	"math"
)

// Default physical constants, in cells per tick.
const (
	DefaultGravity  = 0.3
	DefaultFriction = 0.1
	DefaultMaxSpeed = 100
)

// maxReach caps how many cells a single move may span. Walks stop at the
// first cell outside the grid, so longer moves only need their direction.
const maxReach = 1 << 20

// SweepOrder documents the order in which Step visits cells: rows from the
// floor (y = 0) upward, and within a row from x = 0 rightward. The update is
// in place, so a particle that moves into a cell visited later in the same
// sweep is updated again during that tick.
const SweepOrder = "rows bottom-to-top, columns left-to-right, in place"

// StepStats summarizes one tick.
type StepStats struct {
	Particles int // particles visited
	Moved     int // particles that changed cell
	Blocked   int // path walks that hit an obstacle
	Deflected int // blocked particles that slid to a diagonal cell
	Rested    int // blocked particles stopped with zero velocity
	// Landed counts the rested particles that were moving when the tick
	// began. A grain already at rest on a pile is Rested but not Landed.
	Landed int
}

// Stepper advances a grid by one tick.
type Stepper struct {
	Gravity  Vec2
	Friction float32
	// MaxSpeed is a diagnostic threshold; faster particles are logged.
	MaxSpeed float32
	Coin     Coin
	Logger   *log.Logger
}

// NewStepper returns a stepper using the default constants.
func NewStepper(coin Coin) *Stepper {
	return &Stepper{
		Gravity:  Vec2{0, -DefaultGravity},
		Friction: DefaultFriction,
		MaxSpeed: DefaultMaxSpeed,
		Coin:     coin,
		Logger:   log.Default(),
	}
}

// Step advances g by one tick with the default constants.
func Step(g *Grid, forces []Force, coin Coin) StepStats {
	return NewStepper(coin).Step(g, forces)
}

// Step advances every particle of g by one tick, in SweepOrder.
func (s *Stepper) Step(g *Grid, forces []Force) StepStats {
	var stats StepStats
	side := g.Side()
	for y := 0; y < side; y++ {
		for x := 0; x < side; x++ {
			c := Coordinate{x, y}
			cell, _ := g.Get(c)
			if cell.Kind != Particle {
				continue
			}
			stats.Particles++
			s.updateParticle(g, c, cell.Velocity, forces, &stats)
		}
	}
	return stats
}

// Velocity applies gravity, forces and friction to v for a particle at pos.
func (s *Stepper) Velocity(pos, v Vec2, forces []Force) Vec2 {
	v = v.Add(s.Gravity)
	for _, f := range forces {
		v = v.Add(f.Accel(pos))
	}

	if fr := s.Friction; fr > 0 && v.LengthSq() > fr*fr {
		v = v.Sub(v.Normalize().Scale(fr))
	}
	return v
}

func (s *Stepper) updateParticle(g *Grid, c Coordinate, v Vec2, forces []Force, stats *StepStats) {
	moving := !v.IsZero()
	pos := c.Vec()
	v = s.Velocity(pos, v, forces)
	v = s.sanitize(c, v)

	dest, v := clampDestination(pos, v)
	if dest == c {
		g.Set(c, NewParticle(v))
		return
	}

	cur := c
	w := NewPathWalker(c, dest)
	for w.Next() {
		next := w.Pos()
		if cell, ok := g.Get(next); ok && cell.Kind == Empty {
			g.Swap(cur, next)
			cur = next
			continue
		}

		stats.Blocked++
		if to, ok := s.escape(g, cur, next); ok {
			g.Swap(cur, to)
			g.Set(to, NewParticle(v))
			stats.Moved++
			stats.Deflected++
			return
		}
		g.Set(cur, NewParticle(Vec2{}))
		stats.Rested++
		if moving {
			stats.Landed++
		}
		if cur != c {
			stats.Moved++
		}
		return
	}

	g.Set(cur, NewParticle(v))
	stats.Moved++
}

// escape finds an empty diagonal cell next to cur for a particle whose move
// toward blocked was obstructed.
func (s *Stepper) escape(g *Grid, cur, blocked Coordinate) (Coordinate, bool) {
	dir := Coordinate{sign(blocked.X - cur.X), sign(blocked.Y - cur.Y)}
	cands, ok := diagonals[dir]
	if !ok {
		return Coordinate{}, false
	}

	first, second := cands[0], cands[1]
	if s.Coin != nil && s.Coin.Flip() {
		first, second = second, first
	}
	for _, d := range [2]Coordinate{first, second} {
		to := cur.Offset(d.X, d.Y)
		if cell, ok := g.Get(to); ok && cell.Kind == Empty {
			return to, true
		}
	}
	return Coordinate{}, false
}

func (s *Stepper) sanitize(c Coordinate, v Vec2) Vec2 {
	if !v.IsFinite() {
		s.logf("sand: non-finite velocity %v at %v, zeroed", v, c)
		return Vec2{}
	}
	if s.MaxSpeed > 0 && v.LengthSq() > s.MaxSpeed*s.MaxSpeed {
		s.logf("sand: runaway velocity %.1f at %v", v.Length(), c)
	}
	return v
}

func (s *Stepper) logf(format string, args ...any) {
	if s.Logger != nil {
		s.Logger.Printf(format, args...)
	}
}

// clampDestination floors pos+v to a cell, clamping negative axes to 0 and
// zeroing the matching velocity component. Axes past the far edges are left
// alone: the path walk finds those cells absent and treats them as blocked.
func clampDestination(pos, v Vec2) (Coordinate, Vec2) {
	move := v
	if m := max(abs32(v.X), abs32(v.Y)); m > maxReach {
		move = v.Scale(maxReach / m)
	}
	target := pos.Add(move)
	x, cx := clampAxis(target.X)
	y, cy := clampAxis(target.Y)
	if cx {
		v.X = 0
	}
	if cy {
		v.Y = 0
	}
	return Coordinate{x, y}, v
}

func clampAxis(f float32) (int, bool) {
	fl := math.Floor(float64(f))
	if fl < 0 {
		return 0, true
	}
	return int(fl), false
}

func abs32(f float32) float32 {
	if f < 0 {
		return -f
	}
	return f
}

// diagonals maps a unit step to the two cells a blocked particle may slide
// into instead, relative to its current cell.
var diagonals = map[Coordinate][2]Coordinate{
	{0, 1}:   {{1, 1}, {-1, 1}},
	{1, 1}:   {{1, 0}, {0, 1}},
	{1, 0}:   {{1, 1}, {1, -1}},
	{1, -1}:  {{1, 0}, {0, -1}},
	{0, -1}:  {{1, -1}, {-1, -1}},
	{-1, -1}: {{-1, 0}, {0, -1}},
	{-1, 0}:  {{-1, 1}, {-1, -1}},
	{-1, 1}:  {{-1, 0}, {0, 1}},
}
