package physics

import (
	"math"

	"github.com/san-kum/harmony/internal/dynamo"
)

// Detect reports whether two circles touch or overlap.
func Detect(a, b dynamo.Particle) (dynamo.Contact, bool) {
	d := b.Position.Sub(a.Position)
	dist := d.Magnitude()
	reach := a.Radius + b.Radius
	if dist > reach {
		return dynamo.Contact{}, false
	}
	return dynamo.Contact{
		A:       a.ID,
		B:       b.ID,
		Overlap: reach - dist,
		Normal:  d.Normalize(),
	}, true
}

// Resolve applies an impulse along the contact normal using the smaller of
// the two elasticities. Separating pairs and coincident centres are left
// alone. Positions are never adjusted.
func Resolve(a, b *dynamo.Particle, c dynamo.Contact) {
	n := c.Normal
	if n == (dynamo.Vec2{}) {
		return
	}
	vn := b.Velocity.Sub(a.Velocity).Dot(n)
	if vn > 0 {
		return
	}
	e := math.Min(a.Elasticity, b.Elasticity)
	j := -(1 + e) * vn / (1/a.Mass + 1/b.Mass)

	a.Velocity = a.Velocity.Sub(n.Scale(j / a.Mass))
	b.Velocity = b.Velocity.Add(n.Scale(j / b.Mass))
}
