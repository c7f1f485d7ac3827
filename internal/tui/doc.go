// Package tui is the live terminal monitor for a running engine.
//
// The monitor polls [engine.Engine.GetState] on a timer and draws the
// particles on a braille canvas next to the current audio parameters and a
// frequency history plot. It never touches simulation state directly; every
// key binding goes through the engine's public setters.
//
// # Key Bindings
//
//	Space   - Start/Stop the engine
//	Tab     - Cycle physics parameter
//	Up/K    - Increase parameter (+5%)
//	Down/J  - Decrease parameter (-5%)
//	H/L     - Lower/raise harmony
//	A       - Drop a random particle
//	C       - Clear particles
//	P       - Play/Pause the storyboard
//	?       - Toggle help
package tui
