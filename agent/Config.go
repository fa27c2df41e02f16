package agent

import "sfneuman.com/a2oc/environment"

// PolicyType determines the type of policy that an Agent should use
type PolicyType string

// Available policy types
const (
	Gaussian    PolicyType = "Gaussian"
	Categorical PolicyType = "Categorical"
)

// Config represents a configuration of an Agent. Configs implement
// enough information to fully construct an Agent.
type Config interface {
	// CreateAgent creates the Agent that the Config describes on the
	// argument environment, using the argument random seed.
	CreateAgent(env environment.Environment, seed uint64) (Agent, error)

	// ValidAgent returns whether the argument Agent is valid for the
	// Config. This differs from Validate, which returns whether the
	// Config itself is valid.
	ValidAgent(a Agent) bool

	// Validate returns an error describing why the Config is invalid,
	// or nil if the Config is valid.
	Validate() error
}
