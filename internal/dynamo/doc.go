// Package dynamo provides the core value types shared by the Harmony Engine.
//
// The package defines the primitives that flow between the simulator, the
// audio mapper, the engine and the storyboard:
//
//   - [Vec2]: 2D vector arithmetic
//   - [Particle]: a circular body owned by a physics simulator
//   - [PhysicsParameters] and [PhysicsPatch]: global physics settings and
//     partial updates to them
//   - [AudioParameters] and [AudioPatch]: synthesis control values
//   - [Snapshot]: an immutable copy of simulation state
//
// # Validation
//
// Every patch is validated as a whole before any field is applied:
//
//	params := dynamo.DefaultPhysicsParameters()
//	next, err := params.Apply(dynamo.PhysicsPatch{Gravity: dynamo.Float(3.7)})
//	if errors.Is(err, dynamo.ErrInvalidParameter) {
//	    // params is untouched
//	}
//
// # Thread Safety
//
// All types are plain values. Synchronisation is the owner's job; see the
// engine package.
package dynamo
