package physics

import (
	"math"

	"github.com/san-kum/harmony/internal/dynamo"
	"github.com/san-kum/harmony/internal/integrators"
)

type Simulator struct {
	params     dynamo.PhysicsParameters
	bounds     dynamo.Rect
	integrator integrators.Integrator
	particles  []dynamo.Particle
	contacts   []dynamo.Contact
	nextID     dynamo.ParticleID
	time       float64
	frame      uint64
}

type Option func(*Simulator)

// WithIntegrator replaces the default semi-implicit Euler integrator.
func WithIntegrator(i integrators.Integrator) Option {
	return func(s *Simulator) {
		if i != nil {
			s.integrator = i
		}
	}
}

// New returns an empty simulator. Both params and bounds are validated.
func New(params dynamo.PhysicsParameters, bounds dynamo.Rect, opts ...Option) (*Simulator, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if err := bounds.Validate(); err != nil {
		return nil, err
	}
	s := &Simulator{
		params:     params,
		bounds:     bounds,
		integrator: integrators.NewSemiImplicitEuler(),
		particles:  make([]dynamo.Particle, 0),
		nextID:     1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// AddParticle appends a particle and returns its id. The particle inherits
// the current global elasticity.
func (s *Simulator) AddParticle(pos, vel dynamo.Vec2, mass, radius float64) (dynamo.ParticleID, error) {
	if math.IsNaN(mass) || math.IsInf(mass, 0) || mass <= 0 {
		return 0, dynamo.Invalid("mass", "must be > 0, got %g", mass)
	}
	if math.IsNaN(radius) || math.IsInf(radius, 0) || radius <= 0 {
		return 0, dynamo.Invalid("radius", "must be > 0, got %g", radius)
	}
	if !pos.IsValid() {
		return 0, dynamo.Invalid("position", "must be finite, got %v", pos)
	}
	if !vel.IsValid() {
		return 0, dynamo.Invalid("velocity", "must be finite, got %v", vel)
	}

	id := s.nextID
	s.nextID++
	s.particles = append(s.particles, dynamo.Particle{
		ID:         id,
		Position:   pos,
		Velocity:   vel,
		Mass:       mass,
		Radius:     radius,
		Elasticity: s.params.Elasticity,
	})
	return id, nil
}

// UpdateParameters applies patch only if every field in it is valid.
func (s *Simulator) UpdateParameters(patch dynamo.PhysicsPatch) error {
	next, err := s.params.Apply(patch)
	if err != nil {
		return err
	}
	s.params = next
	return nil
}

func (s *Simulator) Parameters() dynamo.PhysicsParameters { return s.params }

func (s *Simulator) Bounds() dynamo.Rect { return s.bounds }

func (s *Simulator) SetBounds(r dynamo.Rect) error {
	if err := r.Validate(); err != nil {
		return err
	}
	s.bounds = r
	return nil
}

func (s *Simulator) Len() int { return len(s.particles) }

func (s *Simulator) Time() float64 { return s.time }

func (s *Simulator) Frame() uint64 { return s.frame }

// Particles returns a copy of the particle set.
func (s *Simulator) Particles() []dynamo.Particle {
	return append([]dynamo.Particle(nil), s.particles...)
}

// Clear removes every particle and resets time and frame. IDs keep
// counting so none is ever handed out twice.
func (s *Simulator) Clear() {
	s.particles = s.particles[:0]
	s.contacts = nil
	s.time = 0
	s.frame = 0
}

// Step advances the simulation by dt scaled by the time scale.
func (s *Simulator) Step(dt float64) (dynamo.Snapshot, error) {
	if math.IsNaN(dt) || math.IsInf(dt, 0) || dt <= 0 {
		return dynamo.Snapshot{}, dynamo.Invalid("dt", "must be > 0, got %g", dt)
	}
	dt *= s.params.TimeScale

	for i := range s.particles {
		p := &s.particles[i]
		s.integrator.Step(p, netForce(p, s.params), dt)
		s.resolveBounds(p)
	}

	s.contacts = s.contacts[:0]
	for i := 0; i < len(s.particles); i++ {
		for j := i + 1; j < len(s.particles); j++ {
			a, b := &s.particles[i], &s.particles[j]
			c, ok := Detect(*a, *b)
			if !ok {
				continue
			}
			s.contacts = append(s.contacts, c)
			Resolve(a, b, c)
		}
	}

	s.time += dt
	s.frame++
	return s.Snapshot(), nil
}

// Snapshot copies the current state.
func (s *Simulator) Snapshot() dynamo.Snapshot {
	snap := dynamo.Snapshot{
		Particles: make([]dynamo.ParticleState, len(s.particles)),
		Contacts:  append([]dynamo.Contact(nil), s.contacts...),
		Time:      s.time,
		Frame:     s.frame,
	}
	for i, p := range s.particles {
		snap.Particles[i] = p.State()
	}
	return snap
}

// resolveBounds keeps the circle inside the boundary and reflects the
// velocity component that carried it out.
func (s *Simulator) resolveBounds(p *dynamo.Particle) {
	b := s.bounds
	switch {
	case p.Position.X-p.Radius < b.MinX:
		p.Position.X = b.MinX + p.Radius
		p.Velocity.X = math.Abs(p.Velocity.X) * p.Elasticity
	case p.Position.X+p.Radius > b.MaxX:
		p.Position.X = b.MaxX - p.Radius
		p.Velocity.X = -math.Abs(p.Velocity.X) * p.Elasticity
	}
	switch {
	case p.Position.Y-p.Radius < b.MinY:
		p.Position.Y = b.MinY + p.Radius
		p.Velocity.Y = math.Abs(p.Velocity.Y) * p.Elasticity
	case p.Position.Y+p.Radius > b.MaxY:
		p.Position.Y = b.MaxY - p.Radius
		p.Velocity.Y = -math.Abs(p.Velocity.Y) * p.Elasticity
	}
}

// Energy sums kinetic and gravitational potential energy. Height is
// measured from the bottom of the boundary.
func (s *Simulator) Energy() dynamo.Energy {
	var e dynamo.Energy
	for _, p := range s.particles {
		e.Kinetic += 0.5 * p.Mass * p.Velocity.MagnitudeSquared()
		e.Potential += p.Mass * s.params.Gravity * (p.Position.Y - s.bounds.MinY)
	}
	e.Total = e.Kinetic + e.Potential
	return e
}

func (s *Simulator) Momentum() dynamo.Vec2 {
	var m dynamo.Vec2
	for _, p := range s.particles {
		m = m.Add(p.Velocity.Scale(p.Mass))
	}
	return m
}
