package integrators

import "github.com/san-kum/harmony/internal/dynamo"

// Verlet moves a particle with the velocity Verlet position update. The
// force is held over the step, so the closing velocity kick uses the same
// acceleration and the update is exact for constant forces.
type Verlet struct{}

func NewVerlet() *Verlet {
	return &Verlet{}
}

func (Verlet) Step(p *dynamo.Particle, force dynamo.Vec2, dt float64) {
	p.Acceleration = force.Scale(1 / p.Mass)
	p.Position = p.Position.Add(p.Velocity.Scale(dt)).Add(p.Acceleration.Scale(0.5 * dt * dt))
	p.Velocity = p.Velocity.Add(p.Acceleration.Scale(dt))
}
