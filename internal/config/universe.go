package config

import (
	"math/rand"

	"github.com/san-kum/harmony/internal/dynamo"
)

// Universe describes the particles a run starts with: explicit ones plus a
// seeded random cloud.
type Universe struct {
	Seed      int64          `yaml:"seed"`
	Particles []ParticleSpec `yaml:"particles,omitempty"`
	Random    Random         `yaml:"random"`
}

type ParticleSpec struct {
	Position dynamo.Vec2 `yaml:"position"`
	Velocity dynamo.Vec2 `yaml:"velocity"`
	Mass     float64     `yaml:"mass"`
	Radius   float64     `yaml:"radius"`
}

type Random struct {
	Count     int     `yaml:"count"`
	MinMass   float64 `yaml:"min_mass"`
	MaxMass   float64 `yaml:"max_mass"`
	MinRadius float64 `yaml:"min_radius"`
	MaxRadius float64 `yaml:"max_radius"`
	MaxSpeed  float64 `yaml:"max_speed"`
}

func DefaultRandom() Random {
	return Random{
		Count:     12,
		MinMass:   0.5,
		MaxMass:   3,
		MinRadius: 4,
		MaxRadius: 12,
		MaxSpeed:  40,
	}
}

func (u Universe) Validate() error {
	for _, p := range u.Particles {
		if p.Mass <= 0 {
			return dynamo.Invalid("universe.particles.mass", "must be > 0, got %g", p.Mass)
		}
		if p.Radius <= 0 {
			return dynamo.Invalid("universe.particles.radius", "must be > 0, got %g", p.Radius)
		}
	}
	r := u.Random
	if r.Count < 0 {
		return dynamo.Invalid("universe.random.count", "must be >= 0, got %d", r.Count)
	}
	if r.Count > 0 && (r.MinMass <= 0 || r.MaxMass < r.MinMass) {
		return dynamo.Invalid("universe.random.mass", "need 0 < min_mass <= max_mass")
	}
	if r.Count > 0 && (r.MinRadius <= 0 || r.MaxRadius < r.MinRadius) {
		return dynamo.Invalid("universe.random.radius", "need 0 < min_radius <= max_radius")
	}
	if r.MaxSpeed < 0 {
		return dynamo.Invalid("universe.random.max_speed", "must be >= 0, got %g", r.MaxSpeed)
	}
	return nil
}

// Spawn expands the universe into concrete particles inside bounds. The
// same seed always yields the same particles.
func (u Universe) Spawn(bounds dynamo.Rect) []ParticleSpec {
	out := append([]ParticleSpec(nil), u.Particles...)

	rng := rand.New(rand.NewSource(u.Seed))
	r := u.Random
	for i := 0; i < r.Count; i++ {
		radius := between(rng, r.MinRadius, r.MaxRadius)
		out = append(out, ParticleSpec{
			Position: dynamo.V(
				between(rng, bounds.MinX+radius, bounds.MaxX-radius),
				between(rng, bounds.MinY+radius, bounds.MaxY-radius),
			),
			Velocity: dynamo.V(between(rng, -r.MaxSpeed, r.MaxSpeed), between(rng, -r.MaxSpeed, r.MaxSpeed)),
			Mass:     between(rng, r.MinMass, r.MaxMass),
			Radius:   radius,
		})
	}
	return out
}

func between(rng *rand.Rand, lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	return lo + rng.Float64()*(hi-lo)
}
