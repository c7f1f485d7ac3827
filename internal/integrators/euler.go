package integrators

import (
	"fmt"

	"github.com/san-kum/harmony/internal/dynamo"
)

// Integrator advances one particle by dt under a constant net force.
type Integrator interface {
	Step(p *dynamo.Particle, force dynamo.Vec2, dt float64)
}

// SemiImplicitEuler updates velocity first and moves with the new velocity.
type SemiImplicitEuler struct{}

func NewSemiImplicitEuler() *SemiImplicitEuler {
	return &SemiImplicitEuler{}
}

func (SemiImplicitEuler) Step(p *dynamo.Particle, force dynamo.Vec2, dt float64) {
	p.Acceleration = force.Scale(1 / p.Mass)
	p.Velocity = p.Velocity.Add(p.Acceleration.Scale(dt))
	p.Position = p.Position.Add(p.Velocity.Scale(dt))
}

// Euler is the explicit variant: position moves with the old velocity.
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (Euler) Step(p *dynamo.Particle, force dynamo.Vec2, dt float64) {
	p.Acceleration = force.Scale(1 / p.Mass)
	p.Position = p.Position.Add(p.Velocity.Scale(dt))
	p.Velocity = p.Velocity.Add(p.Acceleration.Scale(dt))
}

// ByName resolves an integrator from its config name.
func ByName(name string) (Integrator, error) {
	switch name {
	case "", "semi_implicit":
		return NewSemiImplicitEuler(), nil
	case "euler":
		return NewEuler(), nil
	case "verlet":
		return NewVerlet(), nil
	default:
		return nil, fmt.Errorf("unknown integrator: %s", name)
	}
}

// Names lists the integrators accepted by ByName.
func Names() []string {
	return []string{"semi_implicit", "euler", "verlet"}
}
