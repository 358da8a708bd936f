// Package config decodes the YAML configuration that wires world, scheduler,
// and stack bounds together (§6), grounded on the teacher's YAMLRoot decode
// path (core/program.go), with a fluent Builder mirroring the teacher's
// DeviceBuilder: one chained WithX per setting, ending in a validating Build.
package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// World holds the world.* configuration keys (§6).
type World struct {
	Dimensions    []int  `yaml:"dimensions"`
	Seed          int64  `yaml:"seed"`
	InitialEnergy int64  `yaml:"initial_energy"`
	TickLogLevel  string `yaml:"tick_log_level"`
}

// Scheduler holds the scheduler.* configuration keys (§6).
type Scheduler struct {
	Backpressure       string `yaml:"backpressure"` // "block" or "drop"
	SnapshotQueueDepth int    `yaml:"snapshot_queue_depth"`
}

// Stacks holds the stacks.* configuration keys (§6).
type Stacks struct {
	MaxDepth   int    `yaml:"max_depth"`
	OnOverflow string `yaml:"on_overflow"` // "trap" or "halt"
}

// Config is the full decoded configuration document.
type Config struct {
	World     World     `yaml:"world"`
	Scheduler Scheduler `yaml:"scheduler"`
	Stacks    Stacks    `yaml:"stacks"`
}

// Validate rejects configurations the rest of the module cannot act on. A
// bad config is a reportable error, not a panic, since it usually comes
// from a file the operator wrote.
func (c Config) Validate() error {
	if len(c.World.Dimensions) == 0 {
		return fmt.Errorf("config: world.dimensions must be non-empty")
	}
	for i, s := range c.World.Dimensions {
		if s <= 0 {
			return fmt.Errorf("config: world.dimensions[%d] = %d, must be positive", i, s)
		}
	}
	switch c.Scheduler.Backpressure {
	case "block", "drop":
	default:
		return fmt.Errorf("config: scheduler.backpressure must be %q or %q, got %q", "block", "drop", c.Scheduler.Backpressure)
	}
	switch c.Stacks.OnOverflow {
	case "trap", "halt":
	default:
		return fmt.Errorf("config: stacks.on_overflow must be %q or %q, got %q", "trap", "halt", c.Stacks.OnOverflow)
	}
	if c.Stacks.MaxDepth <= 0 {
		return fmt.Errorf("config: stacks.max_depth must be positive")
	}
	return nil
}

// Parse decodes a YAML document into a Config.
func Parse(data []byte) (Config, error) {
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return c, nil
}

// Builder assembles a Config fluently: one WithX per setting, ending in a
// validating Build.
type Builder struct {
	cfg Config
}

// NewBuilder returns a Builder seeded with sane defaults, overridden by
// whichever WithX calls the caller chains on.
func NewBuilder() Builder {
	return Builder{cfg: Config{
		Scheduler: Scheduler{Backpressure: "block", SnapshotQueueDepth: 16},
		Stacks:    Stacks{MaxDepth: 64, OnOverflow: "trap"},
	}}
}

// WithDimensions sets world.dimensions.
func (b Builder) WithDimensions(dims []int) Builder {
	b.cfg.World.Dimensions = append([]int(nil), dims...)
	return b
}

// WithSeed sets world.seed.
func (b Builder) WithSeed(seed int64) Builder {
	b.cfg.World.Seed = seed
	return b
}

// WithInitialEnergy sets world.initial_energy.
func (b Builder) WithInitialEnergy(e int64) Builder {
	b.cfg.World.InitialEnergy = e
	return b
}

// WithTickLogLevel sets world.tick_log_level.
func (b Builder) WithTickLogLevel(level string) Builder {
	b.cfg.World.TickLogLevel = level
	return b
}

// WithBackpressure sets scheduler.backpressure ("block" or "drop").
func (b Builder) WithBackpressure(mode string) Builder {
	b.cfg.Scheduler.Backpressure = mode
	return b
}

// WithSnapshotQueueDepth sets scheduler.snapshot_queue_depth.
func (b Builder) WithSnapshotQueueDepth(depth int) Builder {
	b.cfg.Scheduler.SnapshotQueueDepth = depth
	return b
}

// WithStackDepth sets stacks.max_depth.
func (b Builder) WithStackDepth(depth int) Builder {
	b.cfg.Stacks.MaxDepth = depth
	return b
}

// WithOnOverflow sets stacks.on_overflow ("trap" or "halt").
func (b Builder) WithOnOverflow(mode string) Builder {
	b.cfg.Stacks.OnOverflow = mode
	return b
}

// Build validates and returns the assembled Config.
func (b Builder) Build() (Config, error) {
	if err := b.cfg.Validate(); err != nil {
		return Config{}, err
	}
	return b.cfg, nil
}
