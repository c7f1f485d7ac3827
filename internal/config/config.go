package config

import (
	"fmt"
	"os"
	"time"

	"github.com/san-kum/harmony/internal/dynamo"
	"github.com/san-kum/harmony/internal/integrators"
	"gopkg.in/yaml.v3"
)

const (
	DefaultFrameTime   = 16 * time.Millisecond
	DefaultMaxStep     = 100 * time.Millisecond
	DefaultStopTimeout = 2 * time.Second
	DefaultSampleRate  = 44100
	DefaultGlide       = 30.0
	DefaultDamping     = 1.0
	DefaultSeed        = 1
)

type Config struct {
	Engine   Engine                   `yaml:"engine"`
	Physics  dynamo.PhysicsParameters `yaml:"physics"`
	Audio    Audio                    `yaml:"audio"`
	Playback Playback                 `yaml:"playback"`
	Universe Universe                 `yaml:"universe"`
	LogLevel string                   `yaml:"log_level"`
}

type Engine struct {
	FrameTime   time.Duration `yaml:"frame_time"`
	MaxStep     time.Duration `yaml:"max_step"`
	StopTimeout time.Duration `yaml:"stop_timeout"`
	Integrator  string        `yaml:"integrator"`
	Bounds      dynamo.Rect   `yaml:"bounds"`
}

type Audio struct {
	SampleRate int             `yaml:"sample_rate"`
	Waveform   dynamo.Waveform `yaml:"waveform"`
	Gain       float64         `yaml:"gain"`
	Glide      float64         `yaml:"glide"`
	Damping    float64         `yaml:"damping"`
}

type Playback struct {
	FrameTime   time.Duration `yaml:"frame_time"`
	StopTimeout time.Duration `yaml:"stop_timeout"`
}

func DefaultEngine() Engine {
	return Engine{
		FrameTime:   DefaultFrameTime,
		MaxStep:     DefaultMaxStep,
		StopTimeout: DefaultStopTimeout,
		Integrator:  "semi_implicit",
		Bounds:      dynamo.DefaultBounds(),
	}
}

func DefaultPlayback() Playback {
	return Playback{
		FrameTime:   DefaultFrameTime,
		StopTimeout: DefaultStopTimeout,
	}
}

func DefaultConfig() *Config {
	return &Config{
		Engine:  DefaultEngine(),
		Physics: dynamo.DefaultPhysicsParameters(),
		Audio: Audio{
			SampleRate: DefaultSampleRate,
			Waveform:   dynamo.WaveSine,
			Gain:       1,
			Glide:      DefaultGlide,
			Damping:    DefaultDamping,
		},
		Playback: DefaultPlayback(),
		Universe: Universe{
			Seed:   DefaultSeed,
			Random: DefaultRandom(),
		},
		LogLevel: "info",
	}
}

func Load(path string) (*Config, error) {
	return LoadOver(path, DefaultConfig())
}

// LoadOver decodes the file at path on top of base, so keys missing from
// the file keep base's values.
func LoadOver(path string, base *Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := *base
	cfg.Universe.Particles = append([]ParticleSpec(nil), base.Universe.Particles...)
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return &cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if c.Engine.FrameTime <= 0 {
		return dynamo.Invalid("engine.frame_time", "must be > 0, got %v", c.Engine.FrameTime)
	}
	if c.Engine.MaxStep < c.Engine.FrameTime {
		return dynamo.Invalid("engine.max_step", "must be >= frame_time, got %v", c.Engine.MaxStep)
	}
	if c.Engine.StopTimeout <= 0 {
		return dynamo.Invalid("engine.stop_timeout", "must be > 0, got %v", c.Engine.StopTimeout)
	}
	if _, err := integrators.ByName(c.Engine.Integrator); err != nil {
		return dynamo.Invalid("engine.integrator", "%v", err)
	}
	if err := c.Engine.Bounds.Validate(); err != nil {
		return err
	}
	if err := c.Physics.Validate(); err != nil {
		return err
	}
	if c.Audio.SampleRate <= 0 {
		return dynamo.Invalid("audio.sample_rate", "must be > 0, got %d", c.Audio.SampleRate)
	}
	if !c.Audio.Waveform.Valid() {
		return dynamo.Invalid("audio.waveform", "unknown waveform %d", int(c.Audio.Waveform))
	}
	if c.Audio.Gain < 0 {
		return dynamo.Invalid("audio.gain", "must be >= 0, got %g", c.Audio.Gain)
	}
	if c.Audio.Glide <= 0 || c.Audio.Damping <= 0 {
		return dynamo.Invalid("audio.glide", "glide and damping must be > 0")
	}
	if c.Playback.FrameTime <= 0 {
		return dynamo.Invalid("playback.frame_time", "must be > 0, got %v", c.Playback.FrameTime)
	}
	if c.Playback.StopTimeout <= 0 {
		return dynamo.Invalid("playback.stop_timeout", "must be > 0, got %v", c.Playback.StopTimeout)
	}
	return c.Universe.Validate()
}
