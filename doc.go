// Package astar finds teleport-hop paths through a lazily discovered world.
//
// It exposes two main entry points:
//
//   - Pathfinder: run a wall-clock budgeted search to completion and get a Result.
//   - Stepper: iterate the search one expansion at a time to drive UIs or debugging tools.
//
// Hubs are never enumerated up front. Each expansion asks an Oracle for the
// cells reachable from the current hub, so graph discovery and search are
// interleaved on a single goroutine.
package astar
