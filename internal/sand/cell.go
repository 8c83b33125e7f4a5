// Package sand implements the falling sand cellular automaton: a fixed-size
// grid of cells and the per-tick update that moves particles through it.
package sand

// Kind tags the contents of a cell.
type Kind uint8

const (
	Empty Kind = iota
	Particle
)

func (k Kind) String() string {
	switch k {
	case Empty:
		return "empty"
	case Particle:
		return "particle"
	default:
		return "unknown"
	}
}

// Cell is the state of one grid cell. The zero value is an empty cell.
// Velocity is only meaningful for particles.
type Cell struct {
	Kind     Kind
	Velocity Vec2
}

// EmptyCell returns a cell with no particle.
func EmptyCell() Cell { return Cell{} }

// NewParticle returns a particle cell moving with velocity v.
func NewParticle(v Vec2) Cell { return Cell{Kind: Particle, Velocity: v} }

func (c Cell) IsEmpty() bool    { return c.Kind == Empty }
func (c Cell) IsParticle() bool { return c.Kind == Particle }

// normalized drops any velocity carried by a non-particle cell.
func (c Cell) normalized() Cell {
	if c.Kind != Particle {
		return Cell{Kind: c.Kind}
	}
	return c
}

// Coordinate addresses a grid cell. Valid coordinates satisfy
// 0 <= X, Y < side of the grid they index.
type Coordinate struct {
	X, Y int
}

// Vec converts the coordinate to a floating point position.
func (c Coordinate) Vec() Vec2 { return Vec2{float32(c.X), float32(c.Y)} }

// Offset returns c translated by (dx, dy).
func (c Coordinate) Offset(dx, dy int) Coordinate { return Coordinate{c.X + dx, c.Y + dy} }
