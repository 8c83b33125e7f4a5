package sand

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestForce(t *testing.T) {
	Convey("Given a worm-like attractor", t, func() {
		f := Force{Position: Vec2{0, 0}, Strength: 120, MinDistanceSq: 80, MaxDistanceSq: 900}

		Convey("A particle exactly at the outer distance is unaffected", func() {
			So(f.Accel(Vec2{30, 0}), ShouldResemble, Vec2{})
		})

		Convey("A particle just inside the outer distance is pulled toward the force", func() {
			a := f.Accel(Vec2{29, 0})
			So(float64(a.X), ShouldAlmostEqual, -120.0/841.0, 1e-6)
			So(a.Y, ShouldBeZeroValue)
		})

		Convey("A particle inside the dead zone is unaffected", func() {
			So(f.Accel(Vec2{5, 0}), ShouldResemble, Vec2{})
			So(f.Accel(Vec2{0, 0}), ShouldResemble, Vec2{})
		})

		Convey("The inner distance is inclusive", func() {
			So(f.InRange(80), ShouldBeTrue)
			a := f.Accel(Vec2{8, 4})
			So(a.LengthSq(), ShouldBeGreaterThan, 0)
			So(float64(a.Length()), ShouldAlmostEqual, 120.0/80.0, 1e-5)
		})

		Convey("A negative strength repels", func() {
			f.Strength = -120
			a := f.Accel(Vec2{0, 20})
			So(a.Y, ShouldBeGreaterThan, 0)
		})
	})
}
