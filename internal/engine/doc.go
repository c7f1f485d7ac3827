// Package engine runs the Harmony Engine: a physics simulator stepped by a
// background goroutine whose state is mapped to audio parameters and
// forwarded to a generator every frame.
//
// # Lifecycle
//
//	e, _ := engine.New(config.DefaultEngine(), dynamo.DefaultPhysicsParameters(), synth)
//	_ = e.Start(ctx)
//	id, _ := e.AddParticle(dynamo.V(400, 300), dynamo.Vec2{}, 1, 8)
//	state := e.GetState()
//	_ = e.Stop()
//
// An engine moves between Stopped and Running any number of times. A panic
// in the update loop, or a worker that does not exit within the stop
// timeout, moves it to Crashed for good: every later call returns an error
// matching [dynamo.ErrEngineCrashed] and the owner must build a new one.
//
// # Thread Safety
//
// All methods are safe for concurrent use. Mutations serialise on one
// mutex. GetState never takes that mutex; it returns the state published
// by the last committed mutation or tick.
package engine
