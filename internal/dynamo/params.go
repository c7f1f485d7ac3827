package dynamo

import "fmt"

const (
	DefaultGravity       = 9.81
	DefaultFriction      = 0.1
	DefaultElasticity    = 0.8
	DefaultAirResistance = 0.01
	DefaultDensity       = 1.0
	DefaultTimeScale     = 1.0
)

// PhysicsParameters are the global settings of a simulator.
type PhysicsParameters struct {
	Gravity       float64 `json:"gravity" yaml:"gravity"`
	Friction      float64 `json:"friction" yaml:"friction"`
	Elasticity    float64 `json:"elasticity" yaml:"elasticity"`
	AirResistance float64 `json:"air_resistance" yaml:"air_resistance"`
	Density       float64 `json:"density" yaml:"density"`
	TimeScale     float64 `json:"time_scale" yaml:"time_scale"`
}

func DefaultPhysicsParameters() PhysicsParameters {
	return PhysicsParameters{
		Gravity:       DefaultGravity,
		Friction:      DefaultFriction,
		Elasticity:    DefaultElasticity,
		AirResistance: DefaultAirResistance,
		Density:       DefaultDensity,
		TimeScale:     DefaultTimeScale,
	}
}

// Validate checks every field against its range.
func (p PhysicsParameters) Validate() error {
	return p.Patch().Validate()
}

// Patch returns a patch that sets every field of p.
func (p PhysicsParameters) Patch() PhysicsPatch {
	return PhysicsPatch{
		Gravity:       Float(p.Gravity),
		Friction:      Float(p.Friction),
		Elasticity:    Float(p.Elasticity),
		AirResistance: Float(p.AirResistance),
		Density:       Float(p.Density),
		TimeScale:     Float(p.TimeScale),
	}
}

// Apply validates patch as a whole and returns the updated parameters.
// On error p is returned unchanged.
func (p PhysicsParameters) Apply(patch PhysicsPatch) (PhysicsParameters, error) {
	if err := patch.Validate(); err != nil {
		return p, err
	}
	next := p
	set(&next.Gravity, patch.Gravity)
	set(&next.Friction, patch.Friction)
	set(&next.Elasticity, patch.Elasticity)
	set(&next.AirResistance, patch.AirResistance)
	set(&next.Density, patch.Density)
	set(&next.TimeScale, patch.TimeScale)
	return next, nil
}

// PhysicsPatch is a partial set of physics parameters. Nil fields are left
// untouched.
type PhysicsPatch struct {
	Gravity       *float64 `json:"gravity,omitempty" yaml:"gravity,omitempty"`
	Friction      *float64 `json:"friction,omitempty" yaml:"friction,omitempty"`
	Elasticity    *float64 `json:"elasticity,omitempty" yaml:"elasticity,omitempty"`
	AirResistance *float64 `json:"air_resistance,omitempty" yaml:"air_resistance,omitempty"`
	Density       *float64 `json:"density,omitempty" yaml:"density,omitempty"`
	TimeScale     *float64 `json:"time_scale,omitempty" yaml:"time_scale,omitempty"`
}

func (p PhysicsPatch) IsEmpty() bool {
	return p == PhysicsPatch{}
}

func (p PhysicsPatch) Validate() error {
	checks := []struct {
		field string
		v     *float64
		check func(float64) string
	}{
		{"gravity", p.Gravity, nonNegative},
		{"friction", p.Friction, unit},
		{"elasticity", p.Elasticity, unit},
		{"air_resistance", p.AirResistance, nonNegative},
		{"density", p.Density, positive},
		{"time_scale", p.TimeScale, positive},
	}
	for _, c := range checks {
		if c.v == nil {
			continue
		}
		if reason := c.check(*c.v); reason != "" {
			return &ParameterError{Field: c.field, Reason: reason}
		}
	}
	return nil
}

// AudioParameters drive the external audio generator.
type AudioParameters struct {
	Frequency    float64  `json:"frequency" yaml:"frequency"`
	Amplitude    float64  `json:"amplitude" yaml:"amplitude"`
	FilterCutoff float64  `json:"filter_cutoff" yaml:"filter_cutoff"`
	ReverbAmount float64  `json:"reverb_amount" yaml:"reverb_amount"`
	Waveform     Waveform `json:"waveform" yaml:"waveform"`
	Harmony      float64  `json:"harmony" yaml:"harmony"`
}

func DefaultAudioParameters() AudioParameters {
	return AudioParameters{
		Frequency:    220,
		Amplitude:    0.1,
		FilterCutoff: 0.1,
		ReverbAmount: 0.8,
		Waveform:     WaveSine,
		Harmony:      0.5,
	}
}

// Apply validates patch and returns the merged parameters. On error a is
// returned unchanged.
func (a AudioParameters) Apply(patch AudioPatch) (AudioParameters, error) {
	if err := patch.Validate(); err != nil {
		return a, err
	}
	next := a
	set(&next.Frequency, patch.Frequency)
	set(&next.Amplitude, patch.Amplitude)
	set(&next.FilterCutoff, patch.FilterCutoff)
	set(&next.ReverbAmount, patch.ReverbAmount)
	set(&next.Harmony, patch.Harmony)
	if patch.Waveform != nil {
		next.Waveform = *patch.Waveform
	}
	return next, nil
}

// AudioPatch is a partial set of audio parameters. Waveform is categorical
// and never blended.
type AudioPatch struct {
	Frequency    *float64  `json:"frequency,omitempty" yaml:"frequency,omitempty"`
	Amplitude    *float64  `json:"amplitude,omitempty" yaml:"amplitude,omitempty"`
	FilterCutoff *float64  `json:"filter_cutoff,omitempty" yaml:"filter_cutoff,omitempty"`
	ReverbAmount *float64  `json:"reverb_amount,omitempty" yaml:"reverb_amount,omitempty"`
	Harmony      *float64  `json:"harmony,omitempty" yaml:"harmony,omitempty"`
	Waveform     *Waveform `json:"waveform,omitempty" yaml:"waveform,omitempty"`
}

func (p AudioPatch) IsEmpty() bool {
	return p == AudioPatch{}
}

func (p AudioPatch) Validate() error {
	checks := []struct {
		field string
		v     *float64
		check func(float64) string
	}{
		{"frequency", p.Frequency, positive},
		{"amplitude", p.Amplitude, unit},
		{"filter_cutoff", p.FilterCutoff, unit},
		{"reverb_amount", p.ReverbAmount, unit},
		{"harmony", p.Harmony, unit},
	}
	for _, c := range checks {
		if c.v == nil {
			continue
		}
		if reason := c.check(*c.v); reason != "" {
			return &ParameterError{Field: c.field, Reason: reason}
		}
	}
	if p.Waveform != nil && !p.Waveform.Valid() {
		return Invalid("waveform", "unknown waveform %d", int(*p.Waveform))
	}
	return nil
}

// VisualPatch carries renderer cues authored on a keyframe.
type VisualPatch struct {
	ColorScheme *string  `json:"color_scheme,omitempty" yaml:"color_scheme,omitempty"`
	Intensity   *float64 `json:"intensity,omitempty" yaml:"intensity,omitempty"`
}

func (p VisualPatch) Validate() error {
	if p.Intensity != nil {
		if reason := unit(*p.Intensity); reason != "" {
			return &ParameterError{Field: "intensity", Reason: reason}
		}
	}
	return nil
}

func Float(v float64) *float64 { return &v }

func Wave(w Waveform) *Waveform { return &w }

func String(s string) *string { return &s }

func set(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func positive(v float64) string {
	if !finite(v) || v <= 0 {
		return fmt.Sprintf("must be > 0, got %g", v)
	}
	return ""
}

func nonNegative(v float64) string {
	if !finite(v) || v < 0 {
		return fmt.Sprintf("must be >= 0, got %g", v)
	}
	return ""
}

func unit(v float64) string {
	if !finite(v) || v < 0 || v > 1 {
		return fmt.Sprintf("must be within [0, 1], got %g", v)
	}
	return ""
}
