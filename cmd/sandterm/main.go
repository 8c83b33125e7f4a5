// Command sandterm runs the sand simulation in a terminal.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/olivierh59500/sandworm-go/internal/cursor"
	"github.com/olivierh59500/sandworm-go/internal/sand"
	"github.com/olivierh59500/sandworm-go/internal/sim"
	"github.com/olivierh59500/sandworm-go/internal/sound"
	"github.com/olivierh59500/sandworm-go/internal/termview"
)

const (
	frameInterval = 16 * time.Millisecond // ~60 FPS
	frameRate     = int(time.Second / frameInterval)
)

type app struct {
	screen   tcell.Screen
	sim      *sim.Simulation
	view     *termview.View
	cursor   *cursor.Follower
	mode     cursor.Mode
	clicker  *sound.Clicker
	logger   *log.Logger
	ticks    *time.Ticker
	interval time.Duration
	config   string
	paused   bool
	message  string
}

func main() {
	configPath := flag.String("config", "", "JSON config file")
	seed := flag.Int64("seed", 0, "override the config seed")
	side := flag.Int("side", 0, "override the grid side")
	withSound := flag.Bool("sound", false, "click when grains land")
	debug := flag.Bool("debug", false, "write diagnostics to "+logDir+"/"+logFileName)
	flag.Parse()

	// tcell owns the terminal, so log output goes to a file or nowhere.
	logFile := setupLogging(*debug)
	if logFile != nil {
		defer logFile.Close()
	}

	cfg := sim.Default()
	if *configPath != "" {
		var err error
		if cfg, err = sim.Load(*configPath); err != nil {
			fail(err)
		}
	}
	if *seed != 0 {
		cfg.Seed = *seed
	}
	if *side != 0 {
		cfg.Side = *side
	}

	s, err := sim.New(cfg, sim.WithLogger(log.Default()))
	if err != nil {
		fail(err)
	}
	log.Printf("sandterm: seed %d", s.Seed())

	screen, err := tcell.NewScreen()
	if err != nil {
		fail(err)
	}
	if err := screen.Init(); err != nil {
		fail(err)
	}
	screen.EnableMouse()

	a := newApp(screen, s, *configPath, log.Default())
	if *withSound {
		if a.clicker, err = sound.Open(); err != nil {
			// Non-fatal, the simulation runs without sound
			log.Printf("sandterm: %v", err)
			a.message = err.Error()
		}
	}

	a.run()
	a.cleanup()
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "sandterm: %v\n", err)
	os.Exit(1)
}

func newApp(screen tcell.Screen, s *sim.Simulation, configPath string, logger *log.Logger) *app {
	a := &app{
		screen:   screen,
		sim:      s,
		view:     termview.New(),
		logger:   logger,
		config:   configPath,
		interval: tickInterval(s.Config()),
	}
	a.cursor = cursor.NewFollower(frameRate, s.Config().Cursor)
	a.ticks = time.NewTicker(a.interval)
	return a
}

func tickInterval(cfg sim.Config) time.Duration {
	return time.Duration(float64(cfg.TickSeconds) * float64(time.Second))
}

func (a *app) cleanup() {
	a.ticks.Stop()
	if a.clicker != nil {
		a.clicker.Close()
	}
	a.screen.Fini()
}

func (a *app) run() {
	frames := time.NewTicker(frameInterval)
	defer frames.Stop()

	events := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := a.screen.PollEvent()
			if ev == nil {
				return
			}
			events <- ev
		}
	}()

	for {
		select {
		case ev := <-events:
			if !a.handleEvent(ev) {
				return
			}
		case <-a.ticks.C:
			if !a.paused {
				a.tick()
			}
		case <-frames.C:
			a.cursor.Update()
			a.draw()
		}
	}
}

func (a *app) tick() {
	if f, ok := a.cursor.Force(a.mode); ok {
		a.sim.AddForce(f)
	}
	stats := a.sim.Tick()
	if a.clicker != nil {
		if err := a.clicker.Landed(stats.Landed); err != nil {
			a.message = err.Error()
		}
	}
}

func (a *app) handleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
			return false
		}
		if ev.Key() != tcell.KeyRune {
			return true
		}
		switch ev.Rune() {
		case 'q':
			return false
		case ' ':
			a.paused = !a.paused
		case 'n':
			a.tick()
		case 'r':
			a.report(a.sim.Reset(), "reset")
		case 's':
			a.save()
		case 'l':
			a.load()
		}

	case *tcell.EventMouse:
		x, y := ev.Position()
		p, ok := a.view.GridPoint(a.sim.Grid().Side(), x, y)
		a.mode = cursor.Off
		if !ok {
			return true
		}
		switch {
		case ev.Buttons()&tcell.Button1 != 0:
			a.mode = cursor.Attract
		case ev.Buttons()&tcell.Button2 != 0:
			a.mode = cursor.Repel
		}
		target := p.Vec().Add(sand.Vec2{X: 0.5, Y: 0.5})
		if a.mode == cursor.Off {
			a.cursor.Jump(target)
		} else {
			a.cursor.SetTarget(target)
		}

	case *tcell.EventResize:
		a.screen.Sync()
	}
	return true
}

func (a *app) save() {
	if a.config == "" {
		a.message = "no -config file to save to"
		return
	}
	a.report(a.sim.Config().Save(a.config), "saved "+a.config)
}

func (a *app) load() {
	if a.config == "" {
		a.message = "no -config file to load"
		return
	}
	cfg, err := sim.Load(a.config)
	if err != nil {
		a.report(err, "")
		return
	}
	s, err := sim.New(cfg, sim.WithLogger(a.logger))
	if err != nil {
		a.report(err, "")
		return
	}
	// Tick rate and cursor spring come from the new config too.
	a.sim = s
	a.cursor = cursor.NewFollower(frameRate, cfg.Cursor)
	a.mode = cursor.Off
	a.interval = tickInterval(cfg)
	a.ticks.Reset(a.interval)
	a.message = fmt.Sprintf("loaded %s (%dx%d)", a.config, cfg.Side, cfg.Side)
}

func (a *app) report(err error, ok string) {
	if err != nil {
		a.logger.Printf("sandterm: %v", err)
		a.message = err.Error()
		return
	}
	a.message = ok
}

func (a *app) draw() {
	a.screen.Clear()
	g := a.sim.Grid()
	a.view.Draw(a.screen, g)
	for _, w := range a.sim.Worms() {
		a.view.DrawPoints(a.screen, g.Side(), w.Points())
	}

	stats := a.sim.LastStats()
	status := fmt.Sprintf("tick %d  grains %d  moved %d  landed %d  seed %d",
		a.sim.Ticks(), stats.Particles, stats.Moved, stats.Landed, a.sim.Seed())
	if a.paused {
		status += "  [paused]"
	}
	if a.message != "" {
		status += "  " + a.message
	}
	a.view.Status(a.screen, status)
	a.screen.Show()
}

func init() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: sandterm [flags]\n\nkeys: space pause, n step, r reset, s save, l load, q quit\nmouse: left attract, right repel\n\n")
		flag.PrintDefaults()
	}
}
