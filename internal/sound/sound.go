// Package sound turns landing grains into short clicks.
package sound

import (
	"fmt"
	"math"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"
)

const (
	SampleRate = beep.SampleRate(44100)

	baseFreq    = 220.0
	maxSemitone = 24
	clickLength = 30 * time.Millisecond
	minInterval = 60 * time.Millisecond
)

// Pitch maps the number of grains that came to rest in one tick to a tone.
// Each extra grain raises the pitch a semitone, up to two octaves.
func Pitch(landed int) float64 {
	if landed < 1 {
		landed = 1
	}
	steps := min(landed-1, maxSemitone)
	return baseFreq * math.Pow(2, float64(steps)/12)
}

// Click returns the streamer for one click.
func Click(sr beep.SampleRate, landed int) (beep.Streamer, error) {
	tone, err := generators.SineTone(sr, Pitch(landed))
	if err != nil {
		return nil, fmt.Errorf("sine tone: %w", err)
	}
	return &effects.Gain{Streamer: beep.Take(sr.N(clickLength), tone), Gain: -0.7}, nil
}

// Clicker plays rate-limited clicks.
type Clicker struct {
	sr   beep.SampleRate
	last time.Time
	now  func() time.Time
	play func(...beep.Streamer)
}

// Open initialises the speaker. Callers must Close the clicker.
func Open() (*Clicker, error) {
	if err := speaker.Init(SampleRate, SampleRate.N(time.Second/10)); err != nil {
		return nil, fmt.Errorf("speaker init: %w", err)
	}
	return &Clicker{sr: SampleRate, now: time.Now, play: speaker.Play}, nil
}

// Landed plays a click for the grains that settled this tick. It is a no-op
// when nothing landed or the previous click was too recent.
func (c *Clicker) Landed(n int) error {
	if n <= 0 {
		return nil
	}
	now := c.now()
	if now.Sub(c.last) < minInterval {
		return nil
	}
	s, err := Click(c.sr, n)
	if err != nil {
		return err
	}
	c.last = now
	c.play(s)
	return nil
}

// Close releases the speaker.
func (c *Clicker) Close() {
	speaker.Close()
}
