package sand

import "math"

// PathWalker iterates the cells of a rasterized line from a start coordinate
// (exclusive) to an end coordinate (inclusive) without allocating.
//
// The axis with the larger absolute delta drives: it advances by exactly one
// cell per step while the other axis is interpolated as round(minor*i/major).
type PathWalker struct {
	start        Coordinate
	dx, dy       int
	major, minor int
	xMajor       bool
	i            int
	pos          Coordinate
}

// NewPathWalker prepares a walk from a to b.
func NewPathWalker(a, b Coordinate) PathWalker {
	w := PathWalker{start: a, dx: b.X - a.X, dy: b.Y - a.Y, pos: a}
	if abs(w.dx) >= abs(w.dy) {
		w.xMajor = true
		w.major, w.minor = w.dx, w.dy
	} else {
		w.major, w.minor = w.dy, w.dx
	}
	return w
}

// Len returns the number of cells in the walk, max(|dx|, |dy|).
func (w *PathWalker) Len() int { return abs(w.major) }

// Next advances to the next cell. It returns false once the end is reached.
func (w *PathWalker) Next() bool {
	n := abs(w.major)
	if w.i >= n {
		return false
	}
	w.i++

	step := w.i
	if w.major < 0 {
		step = -step
	}
	off := int(math.Round(float64(w.minor*w.i) / float64(n)))

	if w.xMajor {
		w.pos = Coordinate{w.start.X + step, w.start.Y + off}
	} else {
		w.pos = Coordinate{w.start.X + off, w.start.Y + step}
	}
	return true
}

// Pos returns the current cell of the walk.
func (w *PathWalker) Pos() Coordinate { return w.pos }

// Path returns every cell on the line from a (exclusive) to b (inclusive).
// The path is empty when a == b.
func Path(a, b Coordinate) []Coordinate {
	w := NewPathWalker(a, b)
	out := make([]Coordinate, 0, w.Len())
	for w.Next() {
		out = append(out, w.Pos())
	}
	return out
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v < 0:
		return -1
	case v > 0:
		return 1
	}
	return 0
}
