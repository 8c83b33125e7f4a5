package stream

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// HeaderSize is the length of the frame header: a big-endian uint32 tick
// followed by a big-endian uint32 grid side.
const HeaderSize = 8

// ErrShortFrame is returned when a message cannot hold its declared pixels.
var ErrShortFrame = errors.New("short frame")

// Snapshot is one rendered tick.
type Snapshot struct {
	Tick   int
	Side   int
	Pixels []byte
}

// Encode lays the snapshot out as a websocket binary message.
func (s Snapshot) Encode() []byte {
	msg := make([]byte, HeaderSize+len(s.Pixels))
	binary.BigEndian.PutUint32(msg[0:4], uint32(s.Tick))
	binary.BigEndian.PutUint32(msg[4:8], uint32(s.Side))
	copy(msg[HeaderSize:], s.Pixels)
	return msg
}

// Decode parses a message produced by Encode. The returned pixels alias msg.
func Decode(msg []byte) (Snapshot, error) {
	if len(msg) < HeaderSize {
		return Snapshot{}, fmt.Errorf("%w: %d byte header", ErrShortFrame, len(msg))
	}
	side := uint64(binary.BigEndian.Uint32(msg[4:8]))
	have := uint64(len(msg) - HeaderSize)
	// side*side fits in 64 bits, so compare it before scaling by 4.
	if side*side != have/4 || have%4 != 0 {
		return Snapshot{}, fmt.Errorf("%w: %d pixel bytes for side %d", ErrShortFrame, have, side)
	}
	return Snapshot{
		Tick:   int(binary.BigEndian.Uint32(msg[0:4])),
		Side:   int(side),
		Pixels: msg[HeaderSize:],
	}, nil
}
