// Package physics implements the particle simulator behind the Harmony
// Engine.
//
// A [Simulator] owns a set of circular particles inside an axis-aligned
// boundary and advances them one fixed increment per [Simulator.Step]:
//
//  1. accumulate gravity, air resistance and friction per particle
//  2. integrate, semi-implicit Euler by default (see package integrators)
//  3. reflect particles off the boundary
//  4. resolve pairwise contacts with an impulse along the contact normal
//
// Contacts are not positionally corrected, so particles may keep
// overlapping after a collision.
//
// # Thread Safety
//
// Simulator instances are NOT thread-safe. The engine package serialises
// access behind its own lock.
package physics
