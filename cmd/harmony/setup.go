package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/san-kum/harmony/internal/config"
	"github.com/san-kum/harmony/internal/dynamo"
	"github.com/san-kum/harmony/internal/engine"
	"github.com/spf13/cobra"
)

var logger = slog.Default()

func setup(cmd *cobra.Command, args []string) error {
	if err := config.LoadDotEnv(envFile); err != nil {
		return fmt.Errorf("load %s: %w", envFile, err)
	}

	level := logLevel
	if level == "" {
		level = os.Getenv(config.EnvPrefix + "LOG_LEVEL")
	}
	if level == "" {
		level = "info"
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("log level %q: %w", level, err)
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)
	return nil
}

// loadConfig layers defaults, the preset, the config file, HARMONY_*
// variables and finally any flags set on the command line.
func loadConfig(cmd *cobra.Command, preset string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	if configFile != "" {
		loaded, err := config.LoadOver(configFile, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("frame-time") {
		cfg.Engine.FrameTime = frameTime
		if cfg.Engine.MaxStep < frameTime {
			cfg.Engine.MaxStep = frameTime
		}
	}
	if flags.Changed("integrator") {
		cfg.Engine.Integrator = integrator
	}
	if flags.Changed("seed") {
		cfg.Universe.Seed = seed
	}
	if flags.Changed("particles") {
		cfg.Universe.Random.Count = count
	}
	if flags.Changed("waveform") {
		w, err := dynamo.ParseWaveform(waveform)
		if err != nil {
			return nil, err
		}
		cfg.Audio.Waveform = w
	}
	if flags.Changed("sample-rate") {
		cfg.Audio.SampleRate = sampleRate
	}

	var patch dynamo.PhysicsPatch
	floats := []struct {
		flag string
		v    float64
		dst  **float64
	}{
		{"gravity", gravity, &patch.Gravity},
		{"friction", friction, &patch.Friction},
		{"elasticity", elasticity, &patch.Elasticity},
		{"air", airRes, &patch.AirResistance},
		{"time-scale", timeScale, &patch.TimeScale},
	}
	for _, f := range floats {
		if flags.Changed(f.flag) {
			*f.dst = dynamo.Float(f.v)
		}
	}
	physics, err := cfg.Physics.Apply(patch)
	if err != nil {
		return nil, err
	}
	cfg.Physics = physics

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newEngine builds a stopped engine populated with the config's universe.
func newEngine(cfg *config.Config, gen engine.Generator, opts ...engine.Option) (*engine.Engine, error) {
	audio := dynamo.DefaultAudioParameters()
	audio.Waveform = cfg.Audio.Waveform

	opts = append([]engine.Option{engine.WithLogger(logger), engine.WithAudio(audio)}, opts...)
	e, err := engine.New(cfg.Engine, cfg.Physics, gen, opts...)
	if err != nil {
		return nil, err
	}

	for _, p := range cfg.Universe.Spawn(cfg.Engine.Bounds) {
		if _, err := e.AddParticle(p.Position, p.Velocity, p.Mass, p.Radius); err != nil {
			return nil, fmt.Errorf("spawn particle: %w", err)
		}
	}
	logger.Debug("engine ready", "particles", len(e.GetState().Snapshot.Particles), "seed", cfg.Universe.Seed)
	return e, nil
}

// presetFor picks the preset named on the command line, falling back to
// the one a storyboard file asks for.
func presetFor(args []string, fallback string) string {
	if len(args) > 0 {
		return args[0]
	}
	return fallback
}
