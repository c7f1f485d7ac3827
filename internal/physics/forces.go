package physics

import "github.com/san-kum/harmony/internal/dynamo"

// netForce accumulates gravity, air resistance and friction for p.
//
// Drag is quadratic and applied per component, not along the velocity
// direction. Friction is a constant per-component force scaled by mass.
func netForce(p *dynamo.Particle, params dynamo.PhysicsParameters) dynamo.Vec2 {
	var f dynamo.Vec2

	f.Y -= params.Gravity * p.Mass

	k := 0.5 * params.Density * params.AirResistance
	f.X -= k * p.Velocity.X * p.Velocity.X * sign(p.Velocity.X)
	f.Y -= k * p.Velocity.Y * p.Velocity.Y * sign(p.Velocity.Y)

	f.X -= params.Friction * p.Mass * sign(p.Velocity.X)
	f.Y -= params.Friction * p.Mass * sign(p.Velocity.Y)

	return f
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
