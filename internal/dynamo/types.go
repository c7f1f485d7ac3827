package dynamo

// ParticleID identifies a particle within one simulator. IDs start at 1
// and are never reused.
type ParticleID uint64

type Particle struct {
	ID           ParticleID
	Position     Vec2
	Velocity     Vec2
	Acceleration Vec2
	Mass         float64
	Radius       float64
	Elasticity   float64
}

// State returns the externally visible part of p.
func (p Particle) State() ParticleState {
	return ParticleState{
		ID:       p.ID,
		Position: p.Position,
		Velocity: p.Velocity,
		Radius:   p.Radius,
		Mass:     p.Mass,
	}
}

type ParticleState struct {
	ID       ParticleID `json:"id"`
	Position Vec2       `json:"position"`
	Velocity Vec2       `json:"velocity"`
	Radius   float64    `json:"radius"`
	Mass     float64    `json:"mass"`
}

// KineticEnergy returns ½mv².
func (p ParticleState) KineticEnergy() float64 {
	return 0.5 * p.Mass * p.Velocity.MagnitudeSquared()
}

// Contact describes two overlapping particles. Normal points from A to B.
type Contact struct {
	A       ParticleID `json:"a"`
	B       ParticleID `json:"b"`
	Overlap float64    `json:"overlap"`
	Normal  Vec2       `json:"normal"`
}

// Snapshot is a copy of simulation state after a step.
type Snapshot struct {
	Particles []ParticleState `json:"particles"`
	Contacts  []Contact       `json:"contacts,omitempty"`
	Time      float64         `json:"time"`
	Frame     uint64          `json:"frame"`
}

// Clone returns a deep copy of s.
func (s Snapshot) Clone() Snapshot {
	c := s
	c.Particles = append([]ParticleState(nil), s.Particles...)
	c.Contacts = append([]Contact(nil), s.Contacts...)
	return c
}

// Rect is an axis-aligned simulation boundary.
type Rect struct {
	MinX float64 `json:"min_x" yaml:"min_x"`
	MinY float64 `json:"min_y" yaml:"min_y"`
	MaxX float64 `json:"max_x" yaml:"max_x"`
	MaxY float64 `json:"max_y" yaml:"max_y"`
}

func DefaultBounds() Rect {
	return Rect{MinX: 0, MinY: 0, MaxX: 800, MaxY: 600}
}

func (r Rect) Width() float64  { return r.MaxX - r.MinX }
func (r Rect) Height() float64 { return r.MaxY - r.MinY }

func (r Rect) Validate() error {
	if !finite(r.MinX) || !finite(r.MinY) || !finite(r.MaxX) || !finite(r.MaxY) {
		return Invalid("bounds", "must be finite, got %+v", r)
	}
	if r.Width() <= 0 {
		return Invalid("bounds", "width must be positive, got %g", r.Width())
	}
	if r.Height() <= 0 {
		return Invalid("bounds", "height must be positive, got %g", r.Height())
	}
	return nil
}

// Energy is a diagnostic sum over all particles.
type Energy struct {
	Kinetic   float64 `json:"kinetic"`
	Potential float64 `json:"potential"`
	Total     float64 `json:"total"`
}
