package storyboard

import "github.com/san-kum/harmony/internal/dynamo"

func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// InterpolatePhysics blends two patches. A field set on both sides is
// lerped, a field set on one side is carried as is.
func InterpolatePhysics(a, b dynamo.PhysicsPatch, t float64) dynamo.PhysicsPatch {
	return dynamo.PhysicsPatch{
		Gravity:       blend(a.Gravity, b.Gravity, t),
		Friction:      blend(a.Friction, b.Friction, t),
		Elasticity:    blend(a.Elasticity, b.Elasticity, t),
		AirResistance: blend(a.AirResistance, b.AirResistance, t),
		Density:       blend(a.Density, b.Density, t),
		TimeScale:     blend(a.TimeScale, b.TimeScale, t),
	}
}

// InterpolateAudio blends numeric fields like InterpolatePhysics. The
// waveform snaps: the start value holds until t reaches 1.
func InterpolateAudio(a, b dynamo.AudioPatch, t float64) dynamo.AudioPatch {
	return dynamo.AudioPatch{
		Frequency:    blend(a.Frequency, b.Frequency, t),
		Amplitude:    blend(a.Amplitude, b.Amplitude, t),
		FilterCutoff: blend(a.FilterCutoff, b.FilterCutoff, t),
		ReverbAmount: blend(a.ReverbAmount, b.ReverbAmount, t),
		Harmony:      blend(a.Harmony, b.Harmony, t),
		Waveform:     snap(a.Waveform, b.Waveform, t),
	}
}

func InterpolateVisual(a, b dynamo.VisualPatch, t float64) dynamo.VisualPatch {
	return dynamo.VisualPatch{
		ColorScheme: snap(a.ColorScheme, b.ColorScheme, t),
		Intensity:   blend(a.Intensity, b.Intensity, t),
	}
}

func blend(a, b *float64, t float64) *float64 {
	switch {
	case a != nil && b != nil:
		return dynamo.Float(Lerp(*a, *b, t))
	case a != nil:
		return dynamo.Float(*a)
	case b != nil:
		return dynamo.Float(*b)
	}
	return nil
}

func snap[T any](a, b *T, t float64) *T {
	pick := a
	if b != nil && (a == nil || t >= 1) {
		pick = b
	}
	if pick == nil {
		return nil
	}
	v := *pick
	return &v
}
