package sand

import "fmt"

// Pixel colors written by Pixels, RGBA. The particle color is fully
// transparent so a frontend can paint the sand color underneath.
var (
	EmptyColor    = [4]byte{255, 255, 255, 255}
	ParticleColor = [4]byte{0, 0, 0, 0}
)

// Grid is a fixed-size square grid of cells stored row-major. Row 0 is the
// floor; gravity pulls toward decreasing Y.
type Grid struct {
	side  int
	cells []Cell
}

// NewGrid allocates an all-empty side*side grid.
func NewGrid(side int) *Grid {
	if side <= 0 {
		panic(fmt.Sprintf("sand: invalid grid side %d", side))
	}
	return &Grid{side: side, cells: make([]Cell, side*side)}
}

// Side returns the grid side length.
func (g *Grid) Side() int { return g.side }

// InBounds reports whether c addresses a cell of the grid.
func (g *Grid) InBounds(c Coordinate) bool {
	return c.X >= 0 && c.Y >= 0 && c.X < g.side && c.Y < g.side
}

func (g *Grid) index(c Coordinate) int { return c.Y*g.side + c.X }

// Get returns the cell at c. ok is false when c lies outside the grid.
func (g *Grid) Get(c Coordinate) (cell Cell, ok bool) {
	if !g.InBounds(c) {
		return Cell{}, false
	}
	return g.cells[g.index(c)], true
}

// Set overwrites the cell at c. Callers must validate c first; writing outside
// the grid panics.
func (g *Grid) Set(c Coordinate, cell Cell) {
	if !g.InBounds(c) {
		panic(fmt.Sprintf("sand: set out of bounds %v (side %d)", c, g.side))
	}
	g.cells[g.index(c)] = cell.normalized()
}

// Swap exchanges the cells at a and b. It does nothing and returns false if
// either coordinate is outside the grid.
func (g *Grid) Swap(a, b Coordinate) bool {
	if !g.InBounds(a) || !g.InBounds(b) {
		return false
	}
	ia, ib := g.index(a), g.index(b)
	g.cells[ia], g.cells[ib] = g.cells[ib], g.cells[ia]
	return true
}

// Clear empties every cell.
func (g *Grid) Clear() {
	clear(g.cells)
}

// Count returns the number of particle cells.
func (g *Grid) Count() int {
	n := 0
	for _, c := range g.cells {
		if c.Kind == Particle {
			n++
		}
	}
	return n
}

// Each calls fn for every cell in sweep order.
func (g *Grid) Each(fn func(c Coordinate, cell Cell)) {
	for y := 0; y < g.side; y++ {
		for x := 0; x < g.side; x++ {
			fn(Coordinate{x, y}, g.cells[y*g.side+x])
		}
	}
}

// PixelBytes is the length of the buffer produced by Pixels.
func (g *Grid) PixelBytes() int { return len(g.cells) * 4 }

// Pixels serializes the grid as row-major RGBA, 4 bytes per cell, no padding.
func (g *Grid) Pixels() []byte {
	return g.PixelsInto(nil)
}

// PixelsInto writes the pixel buffer into dst, reusing its storage when it is
// large enough, and returns the filled slice.
func (g *Grid) PixelsInto(dst []byte) []byte {
	n := g.PixelBytes()
	if cap(dst) < n {
		dst = make([]byte, n)
	}
	dst = dst[:n]
	for i, c := range g.cells {
		col := EmptyColor
		if c.Kind == Particle {
			col = ParticleColor
		}
		copy(dst[i*4:i*4+4], col[:])
	}
	return dst
}
