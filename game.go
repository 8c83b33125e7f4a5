package main

import (
	"fmt"
	"image/color"
	"log"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/olivierh59500/sandworm-go/internal/cursor"
	"github.com/olivierh59500/sandworm-go/internal/sand"
	"github.com/olivierh59500/sandworm-go/internal/sim"
)

const (
	TPS         = 60
	WindowSize  = 600
	TrailLength = 40
	HeatStep    = 4 // grid cells per heatmap tile
)

// Visualisation modes
const (
	VisSand = iota
	VisHeatmap
	VisTrails
	visModes
)

var SandColor = color.RGBA{210, 180, 140, 255}

// Game drives a simulation from Ebitengine and draws it upside down, so that
// grid row 0 is the bottom of the window.
type Game struct {
	Sim        *sim.Simulation
	ConfigPath string
	Paused     bool
	VisMode    int
	Scale      float64

	cursor  *cursor.Follower
	mode    cursor.Mode
	acc     float64
	pixels  []byte
	image   *ebiten.Image
	trails  [][]sand.Vec2
	message string
}

// NewGame wraps s; configPath is used by the save and load keys.
func NewGame(s *sim.Simulation, configPath string) *Game {
	side := s.Grid().Side()
	return &Game{
		Sim:        s,
		ConfigPath: configPath,
		Scale:      math.Max(1, math.Floor(WindowSize/float64(side))),
		cursor:     cursor.NewFollower(TPS, s.Config().Cursor),
		trails:     make([][]sand.Vec2, len(s.Worms())),
	}
}

// Update is called each tick by Ebitengine
func (g *Game) Update() error {
	g.handleInput()
	g.cursor.Update()

	if g.Paused {
		return nil
	}
	// The simulation ticks at its own rate, independent of TPS.
	g.acc += 1.0 / TPS
	for dt := float64(g.Sim.Config().TickSeconds); g.acc >= dt; g.acc -= dt {
		g.tick()
	}
	return nil
}

func (g *Game) tick() {
	if f, ok := g.cursor.Force(g.mode); ok {
		g.Sim.AddForce(f)
	}
	g.Sim.Tick()

	worms := g.Sim.Worms()
	if len(g.trails) != len(worms) {
		g.trails = make([][]sand.Vec2, len(worms))
	}
	for i, w := range worms {
		g.trails[i] = append(g.trails[i], w.Head())
		if len(g.trails[i]) > TrailLength {
			g.trails[i] = g.trails[i][1:]
		}
	}
}

// Draw is called each frame by Ebitengine
func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(SandColor)
	side := g.Sim.Grid().Side()

	switch g.VisMode {
	case VisSand:
		g.drawGrid(screen)
	case VisHeatmap:
		g.drawGrid(screen)
		g.drawHeatmap(screen)
	case VisTrails:
		g.drawGrid(screen)
		for i, trail := range g.trails {
			col := wormColor(i, len(g.trails))
			for j := 1; j < len(trail); j++ {
				x0, y0 := g.toScreen(side, trail[j-1])
				x1, y1 := g.toScreen(side, trail[j])
				vector.StrokeLine(screen, x0, y0, x1, y1, 1, col, true)
			}
		}
	}

	for i, w := range g.Sim.Worms() {
		col := wormColor(i, len(g.Sim.Worms()))
		for _, p := range w.Points() {
			x, y := g.toScreen(side, p)
			vector.DrawFilledCircle(screen, x, y, float32(g.Scale*1.5), col, true)
		}
	}

	if g.mode != cursor.Off {
		x, y := g.toScreen(side, g.cursor.Position())
		vector.StrokeCircle(screen, x, y, float32(g.Scale*3), 1, color.Black, true)
	}

	stats := g.Sim.LastStats()
	msg := fmt.Sprintf("TPS %0.1f  tick %d  grains %d  moved %d  rested %d  seed %d",
		ebiten.ActualTPS(), g.Sim.Ticks(), stats.Particles, stats.Moved, stats.Rested, g.Sim.Seed())
	if g.Paused {
		msg += "  [paused]"
	}
	if g.message != "" {
		msg += "\n" + g.message
	}
	ebitenutil.DebugPrint(screen, msg)
}

// drawGrid uploads the grid pixels and draws them flipped and scaled.
func (g *Game) drawGrid(screen *ebiten.Image) {
	side := g.Sim.Grid().Side()
	if g.image == nil || g.image.Bounds().Dx() != side {
		g.image = ebiten.NewImage(side, side)
	}
	g.pixels = g.Sim.Pixels(g.pixels)
	g.image.WritePixels(g.pixels)

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(1, -1)
	op.GeoM.Translate(0, float64(side))
	op.GeoM.Scale(g.Scale, g.Scale)
	screen.DrawImage(g.image, op)
}

// drawHeatmap tints tiles by the acceleration the current forces would apply.
func (g *Game) drawHeatmap(screen *ebiten.Image) {
	side := g.Sim.Grid().Side()
	forces := g.Sim.Forces()
	size := float32(HeatStep * g.Scale)
	for x := 0; x < side; x += HeatStep {
		for y := 0; y < side; y += HeatStep {
			centre := sand.Vec2{X: float32(x) + HeatStep/2, Y: float32(y) + HeatStep/2}
			mag := sampleForceAt(forces, centre)
			if mag == 0 {
				continue
			}
			intensity := uint8(math.Min(float64(mag)*50, 255))
			sx, sy := g.toScreen(side, sand.Vec2{X: float32(x), Y: float32(y + HeatStep)})
			vector.DrawFilledRect(screen, sx, sy, size, size, color.RGBA{intensity, 0, 255 - intensity, 96}, true)
		}
	}
}

// Layout returns the screen size
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	n := int(float64(g.Sim.Grid().Side()) * g.Scale)
	return n, n
}

// handleInput processes keyboard and mouse input
func (g *Game) handleInput() {
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.Paused = !g.Paused
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyN) {
		g.tick()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		g.report(g.Sim.Reset(), "reset")
		g.trails = make([][]sand.Vec2, len(g.Sim.Worms()))
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyH) {
		g.VisMode = (g.VisMode + 1) % visModes
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyS) {
		g.report(g.Sim.Config().Save(g.ConfigPath), "saved "+g.ConfigPath)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyL) {
		g.loadConfig()
	}

	mx, my := ebiten.CursorPosition()
	p := toGrid(g.Sim.Grid().Side(), g.Scale, mx, my)
	switch {
	case ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft):
		g.mode = cursor.Attract
		g.cursor.SetTarget(p)
	case ebiten.IsMouseButtonPressed(ebiten.MouseButtonRight):
		g.mode = cursor.Repel
		g.cursor.SetTarget(p)
	default:
		g.mode = cursor.Off
		g.cursor.Jump(p)
	}
}

func (g *Game) loadConfig() {
	cfg, err := sim.Load(g.ConfigPath)
	if err != nil {
		g.report(err, "")
		return
	}
	s, err := sim.New(cfg)
	if err != nil {
		g.report(err, "")
		return
	}
	if s.Grid().Side() != g.Sim.Grid().Side() {
		g.report(fmt.Errorf("%s: side %d does not fit the window", g.ConfigPath, s.Grid().Side()), "")
		return
	}
	g.Sim = s
	g.trails = make([][]sand.Vec2, len(s.Worms()))
	g.message = "loaded " + g.ConfigPath
}

func (g *Game) report(err error, ok string) {
	if err != nil {
		log.Println(err)
		g.message = err.Error()
		return
	}
	g.message = ok
}

func (g *Game) toScreen(side int, p sand.Vec2) (float32, float32) {
	return float32(float64(p.X) * g.Scale), float32((float64(side) - float64(p.Y)) * g.Scale)
}

// toGrid maps a screen pixel to grid space, undoing the vertical flip.
func toGrid(side int, scale float64, sx, sy int) sand.Vec2 {
	return sand.Vec2{
		X: float32(float64(sx) / scale),
		Y: float32(float64(side) - float64(sy)/scale),
	}
}

// sampleForceAt returns the acceleration magnitude the forces apply at p.
func sampleForceAt(forces []sand.Force, p sand.Vec2) float32 {
	var total sand.Vec2
	for _, f := range forces {
		total = total.Add(f.Accel(p))
	}
	return total.Length()
}

// wormColor spreads worms evenly around the hue circle.
func wormColor(i, n int) color.RGBA {
	if n < 1 {
		n = 1
	}
	h := float64(i) / float64(n) * 360
	r, g, b := hsvToRGB(h, 0.8, 0.7)
	return color.RGBA{uint8(r * 255), uint8(g * 255), uint8(b * 255), 255}
}

// hsvToRGB helper
func hsvToRGB(h, s, v float64) (float64, float64, float64) {
	h = math.Mod(h, 360)
	c := v * s
	x := c * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := v - c
	var r, g, b float64
	switch {
	case h < 60:
		r, g, b = c, x, 0
	case h < 120:
		r, g, b = x, c, 0
	case h < 180:
		r, g, b = 0, c, x
	case h < 240:
		r, g, b = 0, x, c
	case h < 300:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}
	return r + m, g + m, b + m
}
