package sand

// Force is an inverse-distance point attractor (positive Strength) or
// repulsor (negative Strength). It acts on particles whose squared distance d²
// from Position satisfies MinDistanceSq <= d² < MaxDistanceSq.
type Force struct {
	Position      Vec2
	Strength      float32
	MinDistanceSq float32
	MaxDistanceSq float32
}

// InRange reports whether a squared distance falls inside the force band.
func (f Force) InRange(distSq float32) bool {
	return distSq >= f.MinDistanceSq && distSq < f.MaxDistanceSq
}

// Accel returns the velocity change f imparts on a particle at pos in one tick.
func (f Force) Accel(pos Vec2) Vec2 {
	delta := f.Position.Sub(pos)
	distSq := delta.LengthSq()
	if !f.InRange(distSq) || distSq == 0 {
		return Vec2{}
	}
	return delta.Normalize().Scale(f.Strength / distSq)
}
