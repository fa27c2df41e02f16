// Package agent defines interfaces for batched agents and algorithms
package agent

import (
	"gonum.org/v1/gonum/mat"
)

// Agent determines the implementation details of a batched on-policy
// agent or algorithm.
//
// An Agent interacts with every copy of a vectorized environment at
// once: action selection, transition recording, and learning all
// operate on whole batches, one matrix row per environment copy.
// Inference and learning phases are strictly sequential, and no Agent
// method may be called concurrently with another.
type Agent interface {
	// Reset marks every environment copy as having just ended its
	// episode, as when a new sequence of episodes begins.
	Reset()

	// PartialReset marks only the flagged environment copies as
	// having just ended their episodes. It is used with vectorized
	// environments where copies end episodes at different times.
	PartialReset(done []bool) error

	// SelectActions selects one action per environment copy for the
	// argument batch of observations. Alongside the actions it
	// returns the pending bookkeeping of this decision, which the
	// caller must thread into the matching Store call.
	SelectActions(obs *mat.Dense) (*mat.Dense, PendingStep, error)

	// Store records a completed environment transition together with
	// the PendingStep returned by the SelectActions call that chose
	// the actions. A PendingStep can be stored at most once.
	Store(p PendingStep, obs, actions *mat.Dense, rewards []float64,
		nextObs *mat.Dense, done []bool) error

	// Learn updates the agent from all transitions stored since the
	// last call and returns statistics describing the update.
	Learn() (Summary, error)
}

// PendingStep carries the bookkeeping produced by a single
// SelectActions call: everything the agent must remember about its
// decision until the environment transition completes and is stored.
// Threading the value explicitly from SelectActions into Store, rather
// than hiding it in agent state, makes a skipped or repeated Store an
// error instead of silent corruption.
type PendingStep interface {
	// Consumed returns whether the pending step was already stored
	Consumed() bool
}

// Summary holds named scalar statistics of a single learning update
type Summary map[string]float64
