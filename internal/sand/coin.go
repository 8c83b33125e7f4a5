package sand

import "math/rand"

// Coin is the source of the single random decision in a step: the order in
// which the two diagonal escape cells are checked after a collision.
type Coin interface {
	Flip() bool
}

// RandCoin flips a seeded math/rand generator.
type RandCoin struct {
	rng *rand.Rand
}

// NewRandCoin returns a coin seeded with seed.
func NewRandCoin(seed int64) *RandCoin {
	return &RandCoin{rng: rand.New(rand.NewSource(seed))}
}

// NewRandCoinFrom wraps an existing generator.
func NewRandCoinFrom(rng *rand.Rand) *RandCoin {
	return &RandCoin{rng: rng}
}

func (c *RandCoin) Flip() bool { return c.rng.Intn(2) == 1 }

// FixedCoin always returns the same side.
type FixedCoin bool

func (c FixedCoin) Flip() bool { return bool(c) }
