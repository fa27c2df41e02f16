// Package environment outlines the interfaces and structs needed to
// implement concrete vectorized environments
package environment

import (
	"gonum.org/v1/gonum/mat"
)

// Cardinality indicates whether the associated type is continuous or
// discrete
type Cardinality int

const (
	Discrete Cardinality = iota
	Continuous
)

// Spec describes the shape and bounds of an action or observation.
// For discrete actions, UpperBound is the largest legal action index
// and actions are enumerated from LowerBound = 0.
type Spec struct {
	Dims int // Length of a single action or observation vector
	Cardinality
	LowerBound float64
	UpperBound float64
}

// Environment implements a vectorized environment: N independent
// copies of the same task stepped in lockstep. Batched agents interact
// with all copies at once, one matrix row per copy.
//
// Copies whose episode ends are reset automatically on the next Step,
// so the observations returned alongside a true done flag are the
// starting observations of that copy's next episode. Callers that
// track per-copy episode state should use the done flags to find out
// which copies restarted.
type Environment interface {
	// N returns the number of environment copies
	N() int

	ObservationSpec() Spec
	ActionSpec() Spec

	// Reset resets every copy and returns the batch of starting
	// observations, one row per copy.
	Reset() *mat.Dense

	// Step applies one action per copy and returns the next batch of
	// observations, the rewards, and the per-copy episode-end flags.
	Step(actions *mat.Dense) (*mat.Dense, []float64, []bool, error)
}
