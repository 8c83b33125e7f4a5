// Package worm implements a segmented actor that wanders over the sand grid.
// Every point of its body emits a force each tick.
package worm

import (
	"github.com/aquilax/go-perlin"

	"github.com/olivierh59500/sandworm-go/internal/sand"
)

// Profile is the force emitted by each body point.
type Profile struct {
	Strength      float32 `json:"strength"`
	MinDistanceSq float32 `json:"minDistanceSq"`
	MaxDistanceSq float32 `json:"maxDistanceSq"`
}

// DefaultProfile pulls sand within 30 cells toward the body, ignoring grains
// closer than ~9 cells.
var DefaultProfile = Profile{Strength: 120, MinDistanceSq: 80, MaxDistanceSq: 900}

const (
	// turnBack is the angle in radians the head turns per step while it is
	// outside the soft bounds.
	turnBack = 0.3
	// noiseFreq scales elapsed seconds into Perlin noise space.
	noiseFreq = 0.5
)

// Worm is a head followed by a chain of segments kept segmentLength apart.
type Worm struct {
	points        []sand.Vec2 // points[0] is the head
	segmentLength float32
	speed         float32
	profile       Profile

	noise    *perlin.Perlin
	turnRate float64
	t        float64

	bounded    bool
	minB, maxB sand.Vec2
	margin     float32
}

// Option configures a Worm.
type Option func(*Worm)

// WithProfile sets the force emitted by each point.
func WithProfile(p Profile) Option {
	return func(w *Worm) { w.profile = p }
}

// WithWander makes the head meander. turnRate is the maximum turn in radians
// per second; the noise is seeded so runs are reproducible.
func WithWander(seed int64, turnRate float64) Option {
	return func(w *Worm) {
		w.noise = perlin.NewPerlin(2, 2, 3, seed)
		w.turnRate = turnRate
	}
}

// WithBounds keeps the head inside [min+margin, max-margin] by turning it back
// toward the centre whenever it strays.
func WithBounds(min, max sand.Vec2, margin float32) Option {
	return func(w *Worm) {
		w.bounded = true
		w.minB, w.maxB, w.margin = min, max, margin
	}
}

// New creates a straight worm with its head at head, facing direction
// (normalized here), and segments points trailing behind it.
func New(segments int, head, direction sand.Vec2, segmentLength, speed float32, opts ...Option) *Worm {
	w := &Worm{
		points:        make([]sand.Vec2, 0, segments+1),
		segmentLength: segmentLength,
		speed:         speed,
		profile:       DefaultProfile,
	}
	dir := direction.Normalize()
	p := head
	w.points = append(w.points, p)
	for i := 0; i < segments; i++ {
		p = p.Sub(dir.Scale(segmentLength))
		w.points = append(w.points, p)
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Head returns the position of the head.
func (w *Worm) Head() sand.Vec2 { return w.points[0] }

// Points returns the head followed by every segment.
func (w *Worm) Points() []sand.Vec2 {
	return append([]sand.Vec2(nil), w.points...)
}

// Len returns the number of trailing segments.
func (w *Worm) Len() int { return len(w.points) - 1 }

// SegmentLength returns the spacing between consecutive points.
func (w *Worm) SegmentLength() float32 { return w.segmentLength }

// MoveTo places the head at p and drags each segment so it sits
// segmentLength away from the point in front of it.
func (w *Worm) MoveTo(p sand.Vec2) {
	w.points[0] = p
	for i := 1; i < len(w.points); i++ {
		prev := w.points[i-1]
		normal := w.points[i].Sub(prev).Normalize()
		w.points[i] = normal.Scale(w.segmentLength).Add(prev)
	}
}

// Direction returns the unit vector from the first segment to the head.
// ok is false for a worm without segments or with a collapsed neck.
func (w *Worm) Direction() (dir sand.Vec2, ok bool) {
	if len(w.points) < 2 {
		return sand.Vec2{}, false
	}
	d := w.points[0].Sub(w.points[1])
	if d.IsZero() {
		return sand.Vec2{}, false
	}
	return d.Normalize(), true
}

// Step advances the worm by dt seconds.
func (w *Worm) Step(dt float32) {
	dir, ok := w.Direction()
	if !ok {
		return
	}

	if w.noise != nil {
		turn := w.noise.Noise1D(w.t) * w.turnRate * float64(dt)
		w.t += float64(dt) * noiseFreq
		dir = dir.Rotate(turn)
	}
	if w.bounded {
		dir = w.steerInside(dir)
	}

	w.MoveTo(w.points[0].Add(dir.Scale(w.speed * dt)))
}

func (w *Worm) steerInside(dir sand.Vec2) sand.Vec2 {
	h := w.points[0]
	if h.X >= w.minB.X+w.margin && h.X <= w.maxB.X-w.margin &&
		h.Y >= w.minB.Y+w.margin && h.Y <= w.maxB.Y-w.margin {
		return dir
	}

	center := w.minB.Add(w.maxB).Scale(0.5)
	toCenter := center.Sub(h).Normalize()
	if dir.Dot(toCenter) > 0.9 {
		return dir
	}
	// turn toward the centre on the shorter side
	if dir.X*toCenter.Y-dir.Y*toCenter.X >= 0 {
		return dir.Rotate(turnBack)
	}
	return dir.Rotate(-turnBack)
}

// Forces appends one force per body point to dst.
func (w *Worm) Forces(dst []sand.Force) []sand.Force {
	for _, p := range w.points {
		dst = append(dst, sand.Force{
			Position:      p,
			Strength:      w.profile.Strength,
			MinDistanceSq: w.profile.MinDistanceSq,
			MaxDistanceSq: w.profile.MaxDistanceSq,
		})
	}
	return dst
}
