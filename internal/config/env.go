package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/san-kum/harmony/internal/dynamo"
)

const EnvPrefix = "HARMONY_"

// LoadDotEnv loads variables from the given files (".env" when none) into
// the process environment. Missing files are ignored; existing variables
// win.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// ApplyEnv overrides fields from HARMONY_* variables read through getenv.
// Pass os.Getenv for the process environment.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if getenv == nil {
		getenv = os.Getenv
	}
	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"FRAME_TIME", &c.Engine.FrameTime},
		{"STOP_TIMEOUT", &c.Engine.StopTimeout},
		{"PLAYBACK_FRAME_TIME", &c.Playback.FrameTime},
	}
	for _, d := range durations {
		if v := getenv(EnvPrefix + d.key); v != "" {
			parsed, err := time.ParseDuration(v)
			if err != nil {
				return dynamo.Invalid(EnvPrefix+d.key, "%v", err)
			}
			*d.dst = parsed
		}
	}

	floats := []struct {
		key string
		dst *float64
	}{
		{"GRAVITY", &c.Physics.Gravity},
		{"FRICTION", &c.Physics.Friction},
		{"ELASTICITY", &c.Physics.Elasticity},
		{"AIR_RESISTANCE", &c.Physics.AirResistance},
		{"TIME_SCALE", &c.Physics.TimeScale},
		{"GAIN", &c.Audio.Gain},
	}
	for _, f := range floats {
		if v := getenv(EnvPrefix + f.key); v != "" {
			parsed, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return dynamo.Invalid(EnvPrefix+f.key, "%v", err)
			}
			*f.dst = parsed
		}
	}

	if v := getenv(EnvPrefix + "SAMPLE_RATE"); v != "" {
		rate, err := strconv.Atoi(v)
		if err != nil {
			return dynamo.Invalid(EnvPrefix+"SAMPLE_RATE", "%v", err)
		}
		c.Audio.SampleRate = rate
	}
	if v := getenv(EnvPrefix + "WAVEFORM"); v != "" {
		w, err := dynamo.ParseWaveform(v)
		if err != nil {
			return err
		}
		c.Audio.Waveform = w
	}
	if v := getenv(EnvPrefix + "LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	return c.Validate()
}
