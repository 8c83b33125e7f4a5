// Package termview renders a sand grid into a terminal using half-block
// characters, two grid rows per terminal row.
package termview

import (
	"github.com/gdamore/tcell/v2"

	"github.com/olivierh59500/sandworm-go/internal/sand"
)

// UpperHalf is drawn with the upper grid row as foreground and the lower one
// as background.
const UpperHalf = '▀'

// Canvas is the part of tcell.Screen the view draws on.
type Canvas interface {
	SetContent(x, y int, primary rune, combining []rune, style tcell.Style)
	Size() (width, height int)
}

// Palette maps cell kinds to terminal colors.
type Palette struct {
	Empty    tcell.Color
	Particle tcell.Color
	Worm     tcell.Color
	Status   tcell.Style
}

// DefaultPalette draws tan sand on a dark sky.
var DefaultPalette = Palette{
	Empty:    tcell.NewRGBColor(24, 26, 38),
	Particle: tcell.NewRGBColor(210, 180, 140),
	Worm:     tcell.NewRGBColor(200, 60, 90),
	Status:   tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorBlack),
}

// View draws grids below a one-line status bar.
type View struct {
	Palette Palette
	// Top is the first terminal row used by the grid.
	Top int
}

// New returns a view with the default palette and a status line on row 0.
func New() *View {
	return &View{Palette: DefaultPalette, Top: 1}
}

// Rows returns the number of terminal rows a grid of the given side needs.
func Rows(side int) int {
	return (side + 1) / 2
}

// row maps a grid y to its terminal row. Grid row 0 is the floor and ends up
// on the last terminal row.
func (v *View) row(side, y int) int {
	return v.Top + (side-1-y)/2
}

func (v *View) color(g *sand.Grid, x, y int) tcell.Color {
	c, ok := g.Get(sand.Coordinate{X: x, Y: y})
	if ok && c.IsParticle() {
		return v.Palette.Particle
	}
	return v.Palette.Empty
}

// Draw paints g, clipped to the canvas.
func (v *View) Draw(c Canvas, g *sand.Grid) {
	width, height := c.Size()
	side := g.Side()
	for r := 0; r < Rows(side); r++ {
		ty := v.Top + r
		if ty >= height {
			break
		}
		upper := side - 1 - 2*r
		lower := upper - 1
		for x := 0; x < side && x < width; x++ {
			fg := v.color(g, x, upper)
			bg := v.Palette.Empty
			if lower >= 0 {
				bg = v.color(g, x, lower)
			}
			c.SetContent(x, ty, UpperHalf, nil, tcell.StyleDefault.Foreground(fg).Background(bg))
		}
	}
}

// DrawPoints marks points, typically worm segments, on top of a drawn grid.
func (v *View) DrawPoints(c Canvas, side int, points []sand.Vec2) {
	width, height := c.Size()
	for _, p := range points {
		x, y := int(p.X), int(p.Y)
		if x < 0 || x >= side || y < 0 || y >= side || x >= width {
			continue
		}
		ty := v.row(side, y)
		if ty >= height {
			continue
		}
		c.SetContent(x, ty, '●', nil, tcell.StyleDefault.Foreground(v.Palette.Worm).Background(v.Palette.Empty))
	}
}

// Status writes text on row 0, padding or truncating to the canvas width.
func (v *View) Status(c Canvas, text string) {
	width, _ := c.Size()
	runes := []rune(text)
	for x := 0; x < width; x++ {
		r := ' '
		if x < len(runes) {
			r = runes[x]
		}
		c.SetContent(x, 0, r, nil, v.Palette.Status)
	}
}

// GridPoint converts a terminal position back to the grid coordinate of the
// upper half of that cell.
func (v *View) GridPoint(side, x, y int) (sand.Coordinate, bool) {
	gy := side - 1 - 2*(y-v.Top)
	if y < v.Top || x < 0 || x >= side || gy < 0 {
		return sand.Coordinate{}, false
	}
	return sand.Coordinate{X: x, Y: gy}, true
}
