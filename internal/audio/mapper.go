package audio

import (
	"math"

	"github.com/san-kum/harmony/internal/dynamo"
)

const (
	baseFrequency   = 220.0
	heightToHz      = 10.0
	energyScale     = 100.0
	speedScale      = 20.0
	minAmplitude    = 0.1
	maxAmplitude    = 0.8
	minFilterCutoff = 0.1
	maxFilterCutoff = 0.9
	minReverb       = 0.1
	maxReverb       = 0.9
)

// Map derives audio parameters from a simulation snapshot. Waveform and
// harmony come from current; the numeric fields are recomputed from the
// particles' mean height, mean kinetic energy and peak speed. An empty
// snapshot maps to the quietest setting.
func Map(snap dynamo.Snapshot, physics dynamo.PhysicsParameters, current dynamo.AudioParameters) dynamo.AudioParameters {
	out := current
	out.ReverbAmount = clamp(physics.Elasticity, minReverb, maxReverb)

	n := len(snap.Particles)
	if n == 0 {
		out.Frequency = baseFrequency
		out.Amplitude = minAmplitude
		out.FilterCutoff = minFilterCutoff
		return out
	}

	var sumY, sumKE, maxSpeed float64
	for _, p := range snap.Particles {
		sumY += p.Position.Y
		sumKE += p.KineticEnergy()
		maxSpeed = math.Max(maxSpeed, p.Velocity.Magnitude())
	}
	avgY := sumY / float64(n)
	avgKE := sumKE / float64(n)

	out.Frequency = baseFrequency + avgY*heightToHz
	out.Amplitude = clamp(avgKE/energyScale, minAmplitude, maxAmplitude)
	out.FilterCutoff = clamp(maxSpeed/speedScale, minFilterCutoff, maxFilterCutoff)
	return out
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
