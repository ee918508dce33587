// Package dynamo provides the core primitives of the level-flow simulation.
//
// The package defines the vocabulary shared by every other package:
//
//   - [Level]: one of the four fixed hierarchy tiers
//   - [Mode] and [ModeSet]: flow regimes with a fixed dispatch priority
//   - [Coupling]: per-adjacent-pair coefficients
//   - [EdgeKey]: structured key for a directed node-to-node connection
//   - [Metric]: per-tick scalar accumulators fed with [FrameStats]
//
// Dispatch priority when several modes are active is Feedback Loop, then
// Emergence, then Energy Flow.
//
// # Thread Safety
//
// All types here are plain values. Ownership and locking live in package sim.
package dynamo
