package sound

import (
	"testing"
	"time"

	"github.com/gopxl/beep"
	. "github.com/smartystreets/goconvey/convey"
)

func TestPitch(t *testing.T) {
	Convey("Pitch rises a semitone per grain and saturates", t, func() {
		So(Pitch(0), ShouldEqual, 220.0)
		So(Pitch(1), ShouldEqual, 220.0)
		So(Pitch(13), ShouldAlmostEqual, 440.0, 1e-9)
		So(Pitch(25), ShouldAlmostEqual, 880.0, 1e-9)
		So(Pitch(500), ShouldEqual, Pitch(25))
	})
}

func TestClick(t *testing.T) {
	Convey("A click is a short finite burst", t, func() {
		s, err := Click(SampleRate, 3)
		So(err, ShouldBeNil)

		buf := make([][2]float64, 512)
		total := 0
		for {
			n, ok := s.Stream(buf)
			total += n
			if !ok {
				break
			}
		}
		So(total, ShouldEqual, SampleRate.N(clickLength))
	})
}

func TestClicker(t *testing.T) {
	Convey("Given a clicker with a fake clock and player", t, func() {
		now := time.Unix(100, 0)
		played := 0
		c := &Clicker{
			sr:   SampleRate,
			now:  func() time.Time { return now },
			play: func(...beep.Streamer) { played++ },
		}

		Convey("Nothing plays when no grain landed", func() {
			So(c.Landed(0), ShouldBeNil)
			So(played, ShouldEqual, 0)
		})

		Convey("Clicks closer than the minimum interval are dropped", func() {
			So(c.Landed(2), ShouldBeNil)
			So(c.Landed(2), ShouldBeNil)
			So(played, ShouldEqual, 1)

			now = now.Add(minInterval)
			So(c.Landed(1), ShouldBeNil)
			So(played, ShouldEqual, 2)
		})
	})
}
