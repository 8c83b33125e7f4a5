package sand

import (
	"bytes"
	"io"
	"log"
	"math"
	"math/rand"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func quietStepper(coin Coin) *Stepper {
	s := NewStepper(coin)
	s.Logger = log.New(io.Discard, "", 0)
	return s
}

// frictionless stepper without gravity, so velocities survive a tick unchanged.
func inertStepper(coin Coin) *Stepper {
	s := quietStepper(coin)
	s.Gravity = Vec2{}
	s.Friction = 0
	return s
}

func cellAt(g *Grid, x, y int) Cell {
	c, _ := g.Get(Coordinate{x, y})
	return c
}

func TestStepFreeFall(t *testing.T) {
	Convey("Given a resting particle in mid air", t, func() {
		g := NewGrid(10)
		g.Set(Coordinate{5, 8}, NewParticle(Vec2{}))

		stats := quietStepper(FixedCoin(false)).Step(g, nil)

		Convey("It falls one row and keeps the integrated velocity", func() {
			So(cellAt(g, 5, 8).IsEmpty(), ShouldBeTrue)
			fallen := cellAt(g, 5, 7)
			So(fallen.IsParticle(), ShouldBeTrue)
			So(fallen.Velocity.X, ShouldBeZeroValue)
			So(float64(fallen.Velocity.Y), ShouldAlmostEqual, -0.2, 1e-6)
			So(stats, ShouldResemble, StepStats{Particles: 1, Moved: 1})
		})

		Convey("It keeps accelerating on later ticks until it lands", func() {
			s := quietStepper(FixedCoin(false))
			for i := 0; i < 20; i++ {
				s.Step(g, nil)
			}
			So(g.Count(), ShouldEqual, 1)
			landed := cellAt(g, 5, 0)
			So(landed.IsParticle(), ShouldBeTrue)
			So(landed.Velocity, ShouldResemble, Vec2{})
		})
	})
}

func TestStepRestState(t *testing.T) {
	Convey("Given a particle stacked on a blocked floor in the corner", t, func() {
		g := NewGrid(10)
		g.Set(Coordinate{0, 0}, NewParticle(Vec2{}))
		g.Set(Coordinate{1, 0}, NewParticle(Vec2{}))
		g.Set(Coordinate{0, 1}, NewParticle(Vec2{}))

		stats := quietStepper(FixedCoin(false)).Step(g, nil)

		Convey("The top particle stays put with exactly zero velocity", func() {
			top := cellAt(g, 0, 1)
			So(top.IsParticle(), ShouldBeTrue)
			So(top.Velocity, ShouldResemble, Vec2{})
			So(stats.Rested, ShouldEqual, 1)
			So(stats.Moved, ShouldEqual, 0)
		})

		Convey("The floor particles are clamped and stay at rest", func() {
			So(cellAt(g, 0, 0).Velocity, ShouldResemble, Vec2{})
			So(cellAt(g, 1, 0).Velocity, ShouldResemble, Vec2{})
			So(g.Count(), ShouldEqual, 3)
		})

		Convey("Stepping again changes nothing", func() {
			before := g.Pixels()
			quietStepper(FixedCoin(true)).Step(g, nil)
			So(g.Pixels(), ShouldResemble, before)
			So(cellAt(g, 0, 1).Velocity, ShouldResemble, Vec2{})
		})
	})
}

func TestStepDiagonalEscape(t *testing.T) {
	Convey("Given a particle falling onto a single grain", t, func() {
		g := NewGrid(10)
		g.Set(Coordinate{5, 0}, NewParticle(Vec2{}))
		g.Set(Coordinate{5, 1}, NewParticle(Vec2{}))

		Convey("Tails checks the right diagonal first", func() {
			stats := quietStepper(FixedCoin(false)).Step(g, nil)
			So(cellAt(g, 5, 1).IsEmpty(), ShouldBeTrue)
			slid := cellAt(g, 6, 0)
			So(slid.IsParticle(), ShouldBeTrue)
			So(float64(slid.Velocity.Y), ShouldAlmostEqual, -0.2, 1e-6)
			So(stats.Deflected, ShouldEqual, 1)
		})

		Convey("Heads checks the left diagonal first", func() {
			quietStepper(FixedCoin(true)).Step(g, nil)
			So(cellAt(g, 5, 1).IsEmpty(), ShouldBeTrue)
			So(cellAt(g, 4, 0).IsParticle(), ShouldBeTrue)
		})
	})
}

func TestEscapeTable(t *testing.T) {
	Convey("Every unit step maps to the two cells adjacent to it on the ring", t, func() {
		So(diagonals, ShouldHaveLength, 8)
		for dir, cands := range diagonals {
			for _, c := range cands {
				So(abs(c.X-dir.X)+abs(c.Y-dir.Y), ShouldEqual, 1)
			}
			So(cands[0], ShouldNotResemble, cands[1])
		}
	})

	Convey("A particle blocked while moving left may escape up or down", t, func() {
		// The leftward entry was historically duplicated; it now mirrors the
		// rightward one so a left mover can slide either way.
		g := NewGrid(10)
		cur, blocked := Coordinate{5, 5}, Coordinate{4, 5}
		g.Set(cur, NewParticle(Vec2{}))
		g.Set(blocked, NewParticle(Vec2{}))

		to, ok := quietStepper(FixedCoin(false)).escape(g, cur, blocked)
		So(ok, ShouldBeTrue)
		So(to, ShouldResemble, Coordinate{4, 6})

		to, ok = quietStepper(FixedCoin(true)).escape(g, cur, blocked)
		So(ok, ShouldBeTrue)
		So(to, ShouldResemble, Coordinate{4, 4})

		Convey("and falls back to the other cell when the first is taken", func() {
			g.Set(Coordinate{4, 6}, NewParticle(Vec2{}))
			to, ok := quietStepper(FixedCoin(false)).escape(g, cur, blocked)
			So(ok, ShouldBeTrue)
			So(to, ShouldResemble, Coordinate{4, 4})
		})
	})

	Convey("Escape cells outside the grid are rejected", t, func() {
		g := NewGrid(10)
		s := quietStepper(FixedCoin(false))
		_, ok := s.escape(g, Coordinate{0, 5}, Coordinate{-1, 5})
		So(ok, ShouldBeFalse)
		_, ok = s.escape(g, Coordinate{5, 0}, Coordinate{5, -1})
		So(ok, ShouldBeFalse)
	})
}

func TestStepSweepOrder(t *testing.T) {
	Convey("Given an inert grid where velocities persist", t, func() {
		g := NewGrid(10)
		s := inertStepper(FixedCoin(false))

		Convey("A rightward particle is revisited and crosses the whole row in one tick", func() {
			g.Set(Coordinate{0, 0}, NewParticle(Vec2{1, 0}))
			s.Step(g, nil)
			So(g.Count(), ShouldEqual, 1)
			end := cellAt(g, 9, 0)
			So(end.IsParticle(), ShouldBeTrue)
			So(end.Velocity, ShouldResemble, Vec2{})
		})

		Convey("A leftward particle moves only once", func() {
			g.Set(Coordinate{9, 0}, NewParticle(Vec2{-1, 0}))
			s.Step(g, nil)
			So(cellAt(g, 8, 0).IsParticle(), ShouldBeTrue)
			So(cellAt(g, 8, 0).Velocity, ShouldResemble, Vec2{-1, 0})
		})

		Convey("A rising particle is revisited in every row above", func() {
			g.Set(Coordinate{3, 0}, NewParticle(Vec2{0, 1}))
			s.Step(g, nil)
			So(cellAt(g, 3, 9).IsParticle(), ShouldBeTrue)
		})
	})

	Convey("The documented order names the sweep", t, func() {
		So(SweepOrder, ShouldContainSubstring, "bottom-to-top")
	})
}

func TestStepPathWalk(t *testing.T) {
	Convey("Given a fast particle heading for an obstacle", t, func() {
		g := NewGrid(10)
		s := inertStepper(FixedCoin(false))
		g.Set(Coordinate{5, 9}, NewParticle(Vec2{0, -6}))
		g.Set(Coordinate{5, 5}, NewParticle(Vec2{}))
		g.Set(Coordinate{4, 5}, NewParticle(Vec2{}))
		g.Set(Coordinate{6, 5}, NewParticle(Vec2{}))

		stats := s.Step(g, nil)

		Convey("It stops on top of the obstacle instead of tunneling through", func() {
			So(cellAt(g, 5, 6).IsParticle(), ShouldBeTrue)
			So(cellAt(g, 5, 6).Velocity, ShouldResemble, Vec2{})
			So(cellAt(g, 5, 3).IsEmpty(), ShouldBeTrue)
			So(g.Count(), ShouldEqual, 4)
			So(stats.Rested, ShouldEqual, 1)
			So(stats.Moved, ShouldEqual, 1)
		})
	})
}

func TestStepForces(t *testing.T) {
	Convey("Given a weightless particle below a force", t, func() {
		g := NewGrid(10)
		s := inertStepper(FixedCoin(false))
		g.Set(Coordinate{5, 5}, NewParticle(Vec2{}))

		Convey("An in-range attractor accelerates it toward the force", func() {
			f := Force{Position: Vec2{5, 25}, Strength: 120, MinDistanceSq: 80, MaxDistanceSq: 900}
			s.Step(g, []Force{f})
			v := cellAt(g, 5, 5).Velocity
			So(v.X, ShouldBeZeroValue)
			So(float64(v.Y), ShouldAlmostEqual, 0.3, 1e-6)
		})

		Convey("A force exactly at the outer distance does nothing", func() {
			f := Force{Position: Vec2{5, 35}, Strength: 120, MinDistanceSq: 80, MaxDistanceSq: 900}
			s.Step(g, []Force{f})
			So(cellAt(g, 5, 5).Velocity, ShouldResemble, Vec2{})
		})

		Convey("A force whose dead zone covers the particle does nothing", func() {
			f := Force{Position: Vec2{5, 8}, Strength: 120, MinDistanceSq: 80, MaxDistanceSq: 900}
			s.Step(g, []Force{f})
			So(cellAt(g, 5, 5).Velocity, ShouldResemble, Vec2{})
		})
	})
}

func TestVelocityFriction(t *testing.T) {
	Convey("Given a stepper with friction but no gravity", t, func() {
		s := inertStepper(nil)
		s.Friction = 0.1

		Convey("Fast particles lose a fixed amount of speed along their heading", func() {
			v := s.Velocity(Vec2{}, Vec2{3, 4}, nil)
			So(float64(v.X), ShouldAlmostEqual, 2.94, 1e-5)
			So(float64(v.Y), ShouldAlmostEqual, 3.92, 1e-5)
		})

		Convey("Slow particles are left alone and never reverse", func() {
			So(s.Velocity(Vec2{}, Vec2{0.05, 0}, nil), ShouldResemble, Vec2{0.05, 0})
			So(s.Velocity(Vec2{}, Vec2{0.1, 0}, nil), ShouldResemble, Vec2{0.1, 0})
		})
	})
}

func TestStepBoundarySafety(t *testing.T) {
	Convey("Given particles with extreme velocities", t, func() {
		g := NewGrid(10)
		s := quietStepper(NewRandCoin(1))

		Convey("A leftward particle at the wall is clamped at column zero", func() {
			g.Set(Coordinate{0, 5}, NewParticle(Vec2{-50, 0}))
			So(func() { s.Step(g, nil) }, ShouldNotPanic)
			So(g.Count(), ShouldEqual, 1)
			var found Cell
			g.Each(func(c Coordinate, cell Cell) {
				if cell.IsParticle() {
					So(c.X, ShouldBeZeroValue)
					So(c.Y, ShouldBeGreaterThanOrEqualTo, 0)
					found = cell
				}
			})
			So(found.Velocity.X, ShouldBeZeroValue)
		})

		Convey("Huge and non-finite velocities neither panic nor lose particles", func() {
			g.Set(Coordinate{5, 5}, NewParticle(Vec2{1e30, 1e30}))
			g.Set(Coordinate{2, 2}, NewParticle(Vec2{float32(math.NaN()), 0}))
			g.Set(Coordinate{7, 2}, NewParticle(Vec2{float32(math.Inf(-1)), float32(math.Inf(1))}))
			So(func() { s.Step(g, nil) }, ShouldNotPanic)
			So(g.Count(), ShouldEqual, 3)
			g.Each(func(_ Coordinate, cell Cell) {
				So(cell.Velocity.IsFinite(), ShouldBeTrue)
			})
		})

		Convey("Runaway speeds are logged", func() {
			var buf bytes.Buffer
			s.Logger = log.New(&buf, "", 0)
			g.Set(Coordinate{5, 5}, NewParticle(Vec2{500, 0}))
			s.Step(g, nil)
			So(buf.String(), ShouldContainSubstring, "runaway")
		})
	})
}

func TestStepConservation(t *testing.T) {
	Convey("Given a randomly filled grid", t, func() {
		rng := rand.New(rand.NewSource(7))
		g := NewGrid(20)
		for y := 0; y < 20; y++ {
			for x := 0; x < 20; x++ {
				if rng.Float64() < 0.4 {
					g.Set(Coordinate{x, y}, NewParticle(Vec2{rng.Float32()*4 - 2, rng.Float32()*4 - 2}))
				}
			}
		}
		n := g.Count()
		s := quietStepper(NewRandCoin(3))
		forces := []Force{{Position: Vec2{10, 10}, Strength: 120, MinDistanceSq: 4, MaxDistanceSq: 400}}

		Convey("Particles are neither created nor destroyed over many ticks", func() {
			for i := 0; i < 100; i++ {
				stats := s.Step(g, forces)
				So(g.Count(), ShouldEqual, n)
				So(stats.Particles, ShouldBeGreaterThanOrEqualTo, n)
			}
		})
	})

	Convey("The same seed replays the same simulation", t, func() {
		run := func() []byte {
			g := NewGrid(16)
			for x := 0; x < 16; x++ {
				g.Set(Coordinate{x, 10 + x%3}, NewParticle(Vec2{}))
			}
			s := quietStepper(NewRandCoin(42))
			for i := 0; i < 30; i++ {
				s.Step(g, nil)
			}
			return g.Pixels()
		}
		So(run(), ShouldResemble, run())
	})
}

func TestStepFunctionUsesDefaults(t *testing.T) {
	Convey("The package level Step applies default gravity", t, func() {
		g := NewGrid(4)
		g.Set(Coordinate{1, 3}, NewParticle(Vec2{}))
		Step(g, nil, FixedCoin(false))
		So(cellAt(g, 1, 2).IsParticle(), ShouldBeTrue)
	})
}

func TestStepFarEdges(t *testing.T) {
	Convey("Given an inert 10x10 grid", t, func() {
		g := NewGrid(10)
		s := inertStepper(FixedCoin(false))

		Convey("A particle flying over the top stops in the last row with zero velocity", func() {
			g.Set(Coordinate{5, 8}, NewParticle(Vec2{2, 3}))
			stats := s.Step(g, nil)
			So(cellAt(g, 5, 8).IsEmpty(), ShouldBeTrue)
			stopped := cellAt(g, 6, 9)
			So(stopped.IsParticle(), ShouldBeTrue)
			So(stopped.Velocity, ShouldResemble, Vec2{})
			So(g.Count(), ShouldEqual, 1)
			So(stats.Blocked, ShouldBeGreaterThanOrEqualTo, 1)
			So(stats.Rested, ShouldBeGreaterThanOrEqualTo, 1)
		})

		Convey("A particle flying past the right edge loses its whole velocity", func() {
			g.Set(Coordinate{8, 5}, NewParticle(Vec2{3, 0.5}))
			s.Step(g, nil)
			stopped := cellAt(g, 9, 5)
			So(stopped.IsParticle(), ShouldBeTrue)
			So(stopped.Velocity, ShouldResemble, Vec2{})
			So(g.Count(), ShouldEqual, 1)
		})

		Convey("Enormous moves still stop at the edge", func() {
			g.Set(Coordinate{0, 5}, NewParticle(Vec2{1e30, 0}))
			So(func() { s.Step(g, nil) }, ShouldNotPanic)
			So(cellAt(g, 9, 5).IsParticle(), ShouldBeTrue)
			So(cellAt(g, 9, 5).Velocity, ShouldResemble, Vec2{})
		})
	})
}

func TestStepLanded(t *testing.T) {
	Convey("Given a grain falling onto three floor grains", t, func() {
		g := NewGrid(10)
		for x := 4; x <= 6; x++ {
			g.Set(Coordinate{x, 0}, NewParticle(Vec2{}))
		}
		g.Set(Coordinate{5, 3}, NewParticle(Vec2{0, -3}))
		s := quietStepper(FixedCoin(false))

		first := s.Step(g, nil)

		Convey("The tick it lands counts it once", func() {
			So(cellAt(g, 5, 1).IsParticle(), ShouldBeTrue)
			So(first.Landed, ShouldEqual, 1)
			So(first.Rested, ShouldBeGreaterThanOrEqualTo, 1)
		})

		Convey("A settled stack reports no landings afterwards", func() {
			for i := 0; i < 5; i++ {
				stats := s.Step(g, nil)
				So(stats.Landed, ShouldEqual, 0)
				So(stats.Rested, ShouldEqual, 1)
				So(stats.Moved, ShouldEqual, 0)
			}
		})
	})
}
