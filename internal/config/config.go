package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/levelflow/internal/dynamo"
	"github.com/san-kum/levelflow/internal/geometry"
	"github.com/san-kum/levelflow/internal/sim"
	"github.com/san-kum/levelflow/internal/spawn"
)

const (
	DefaultFPS      = 60
	DefaultTicks    = 3600
	DefaultWidth    = 800.0
	DefaultHeight   = 600.0
	DefaultTheme    = "default"
	DefaultLogLevel = "info"
)

type Config struct {
	Complexity    int        `yaml:"complexity"`
	Coupling      [3]float64 `yaml:"coupling"`
	Modes         []string   `yaml:"modes,omitempty"`
	MaxPopulation int        `yaml:"max_population"`
	FPS           int        `yaml:"fps"`
	Seed          int64      `yaml:"seed"`
	Ticks         int        `yaml:"ticks"`
	Theme         string     `yaml:"theme"`
	LogLevel      string     `yaml:"log_level"`
	Width         float64    `yaml:"width"`
	Height        float64    `yaml:"height"`
}

func DefaultConfig() *Config {
	return &Config{
		Complexity:    dynamo.DefaultComplexity,
		Coupling:      dynamo.DefaultCouplingVector(),
		MaxPopulation: spawn.DefaultMaxPopulation,
		FPS:           DefaultFPS,
		Ticks:         DefaultTicks,
		Theme:         DefaultTheme,
		LogLevel:      DefaultLogLevel,
		Width:         DefaultWidth,
		Height:        DefaultHeight,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if c.Complexity < dynamo.MinComplexity || c.Complexity > dynamo.MaxComplexity {
		return &dynamo.ControlError{Op: "complexity", Value: float64(c.Complexity), Wrapped: dynamo.ErrParameterBounds}
	}
	for i, v := range c.Coupling {
		if v < dynamo.MinCoupling || v > dynamo.MaxCoupling {
			return &dynamo.ControlError{Op: fmt.Sprintf("coupling[%d]", i), Value: v, Wrapped: dynamo.ErrParameterBounds}
		}
	}
	if _, err := c.ModeSet(); err != nil {
		return err
	}
	if c.MaxPopulation <= 0 {
		return &dynamo.ControlError{Op: "max_population", Value: float64(c.MaxPopulation), Wrapped: dynamo.ErrParameterBounds}
	}
	if c.FPS <= 0 {
		return &dynamo.ControlError{Op: "fps", Value: float64(c.FPS), Wrapped: dynamo.ErrParameterBounds}
	}
	if c.Ticks < 0 {
		return &dynamo.ControlError{Op: "ticks", Value: float64(c.Ticks), Wrapped: dynamo.ErrParameterBounds}
	}
	return nil
}

// ModeSet parses the configured mode names.
func (c *Config) ModeSet() (dynamo.ModeSet, error) {
	var set dynamo.ModeSet
	for _, name := range c.Modes {
		m, err := dynamo.ParseMode(name)
		if err != nil {
			return 0, err
		}
		set = set.With(m)
	}
	return set, nil
}

// Interval is the frame period implied by FPS.
func (c *Config) Interval() time.Duration {
	if c.FPS <= 0 {
		return sim.FrameInterval
	}
	return time.Second / time.Duration(c.FPS)
}

// SimOptions converts the config into simulation options. A zero seed
// picks a time-based one.
func (c *Config) SimOptions(logger *slog.Logger) (sim.Options, error) {
	if err := c.Validate(); err != nil {
		return sim.Options{}, err
	}
	modes, _ := c.ModeSet()
	opts := sim.DefaultOptions()
	opts.Complexity = c.Complexity
	opts.Coupling = dynamo.Coupling(c.Coupling)
	opts.Modes = modes
	opts.MaxPopulation = c.MaxPopulation
	opts.Mapper = geometry.NewMapper(c.Width, c.Height)
	opts.Logger = logger
	if c.Seed != 0 {
		opts.Seed = c.Seed
	}
	return opts, nil
}
