package sim

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/olivierh59500/sandworm-go/internal/cursor"
	"github.com/olivierh59500/sandworm-go/internal/sand"
	"github.com/olivierh59500/sandworm-go/internal/spawner"
	"github.com/olivierh59500/sandworm-go/internal/terrain"
	"github.com/olivierh59500/sandworm-go/internal/worm"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// WormConfig describes one worm at reset.
type WormConfig struct {
	Segments      int          `json:"segments"`
	Head          sand.Vec2    `json:"head"`
	Direction     sand.Vec2    `json:"direction"`
	SegmentLength float32      `json:"segmentLength"`
	Speed         float32      `json:"speed"`
	TurnRate      float64      `json:"turnRate"`
	Seed          int64        `json:"seed"`
	Profile       worm.Profile `json:"profile"`
}

// Config holds every tunable of a simulation run. Speeds are in cells per
// tick except worm speeds, which are in cells per second.
type Config struct {
	Side        int     `json:"side"`
	TickSeconds float32 `json:"tickSeconds"`
	Gravity     float32 `json:"gravity"`
	Friction    float32 `json:"friction"`
	MaxSpeed    float32 `json:"maxSpeed"`
	// Seed drives every random choice; zero picks a time based seed.
	Seed int64 `json:"seed"`

	Spawner spawner.Config  `json:"spawner"`
	Worms   []WormConfig    `json:"worms"`
	Terrain terrain.Options `json:"terrain"`
	Cursor  cursor.Config   `json:"cursor"`
}

// Default returns the classic setup: a 100x100 grid ticking ten times a
// second, sand dripping from the top centre and one worm wandering through.
func Default() Config {
	return Config{
		Side:        100,
		TickSeconds: 0.1,
		Gravity:     sand.DefaultGravity,
		Friction:    sand.DefaultFriction,
		MaxSpeed:    sand.DefaultMaxSpeed,
		Spawner:     spawner.DefaultConfig,
		Worms: []WormConfig{{
			Segments:      8,
			Head:          sand.Vec2{X: 50, Y: 60},
			Direction:     sand.Vec2{X: 1, Y: 0.3},
			SegmentLength: 3,
			Speed:         12,
			TurnRate:      2,
			Seed:          1,
			Profile:       worm.DefaultProfile,
		}},
		Terrain: terrain.DefaultOptions,
		Cursor:  cursor.DefaultConfig,
	}
}

// Validate reports every problem with c.
func (c Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}

	if c.Side <= 0 {
		bad("side must be positive, got %d", c.Side)
	}
	if c.TickSeconds <= 0 {
		bad("tickSeconds must be positive, got %v", c.TickSeconds)
	}
	if c.Friction < 0 {
		bad("friction must not be negative, got %v", c.Friction)
	}
	if _, ok := spawner.Easings[c.Spawner.Easing]; !ok {
		bad("unknown spawner easing %q", c.Spawner.Easing)
	}
	if c.Spawner.Sweep < 0 || (c.Spawner.Sweep > 0 && c.Spawner.Period <= 0) {
		bad("spawner sweep %d needs a positive period", c.Spawner.Sweep)
	}
	for i, w := range c.Worms {
		if w.Segments < 0 {
			bad("worm %d: negative segment count", i)
		}
		if w.SegmentLength <= 0 {
			bad("worm %d: segmentLength must be positive", i)
		}
		if w.Direction.IsZero() {
			bad("worm %d: direction must not be zero", i)
		}
		if w.Profile.MinDistanceSq > w.Profile.MaxDistanceSq {
			bad("worm %d: minDistanceSq exceeds maxDistanceSq", i)
		}
	}
	return errors.Join(errs...)
}

// Load reads a JSON config from path. Fields missing from the file keep their
// default values.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Save writes c to path as indented JSON.
func (c Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
