// Package engine implements the coupling core: it advances a set of model
// cores through simulated time, always stepping the core whose clock lags
// furthest behind, and propagates exchanged state variables from a core to
// its consumers after every step it takes.
package engine
