package stream

import (
	"encoding/binary"
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestSnapshotEncoding(t *testing.T) {
	Convey("Given a 2x2 snapshot", t, func() {
		pixels := make([]byte, 16)
		for i := range pixels {
			pixels[i] = byte(i)
		}
		snap := Snapshot{Tick: 258, Side: 2, Pixels: pixels}

		Convey("The header is a big-endian tick followed by the side", func() {
			msg := snap.Encode()
			So(len(msg), ShouldEqual, HeaderSize+16)
			So(msg[:HeaderSize], ShouldResemble, []byte{0, 0, 1, 2, 0, 0, 0, 2})
			So(msg[HeaderSize:], ShouldResemble, pixels)
		})

		Convey("Decode reverses Encode", func() {
			got, err := Decode(snap.Encode())
			So(err, ShouldBeNil)
			So(got.Tick, ShouldEqual, 258)
			So(got.Side, ShouldEqual, 2)
			So(got.Pixels, ShouldResemble, pixels)
		})

		Convey("Truncated messages are rejected", func() {
			msg := snap.Encode()
			_, err := Decode(msg[:5])
			So(errors.Is(err, ErrShortFrame), ShouldBeTrue)
			_, err = Decode(msg[:len(msg)-1])
			So(errors.Is(err, ErrShortFrame), ShouldBeTrue)
		})
	})
}

func TestDecodeOversizedSide(t *testing.T) {
	Convey("A header claiming an enormous side is rejected, not multiplied out", t, func() {
		for _, side := range []uint32{0xFFFFFFFF, 1 << 31, 1 << 16} {
			msg := make([]byte, HeaderSize+16)
			binary.BigEndian.PutUint32(msg[4:8], side)
			_, err := Decode(msg)
			So(errors.Is(err, ErrShortFrame), ShouldBeTrue)
		}
	})

	Convey("An empty zero-side frame is valid", t, func() {
		snap, err := Decode(Snapshot{Tick: 1}.Encode())
		So(err, ShouldBeNil)
		So(snap.Side, ShouldEqual, 0)
		So(snap.Pixels, ShouldBeEmpty)
	})
}
