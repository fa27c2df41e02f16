package aoc

import (
	"fmt"

	G "gorgonia.org/gorgonia"

	"sfneuman.com/a2oc/agent"
	"sfneuman.com/a2oc/environment"
	"sfneuman.com/a2oc/initwfn"
	"sfneuman.com/a2oc/network"
	"sfneuman.com/a2oc/solver"
)

// CategoricalConfig implements a configuration of the AOC agent with
// softmax intra-option policies for discrete action spaces. The
// policy head of the option-critic network predicts one logit per
// action for each option.
type CategoricalConfig struct {
	Options          int
	DeliberationCost float64
	OptionEps        float64
	TerminalMask     bool

	Horizon     int
	Epochs      int
	Gamma       float64
	Lambda      float64
	EntropyCoef float64

	ClipEps      float64
	ValueClipEps float64

	KLReverse    bool
	KLTarget     float64
	KLCutoffMult float64
	KLStopMult   float64
	KLBetaLow    float64
	KLBetaHigh   float64
	KLAlpha      float64
	KLCoef       float64

	RootLayers        []int
	QLayers           []int
	PolicyLayers      []int
	TerminationLayers []int

	InitWFn *initwfn.InitWFn
	Solver  *solver.Solver
}

// DefaultCategoricalConfig returns a CategoricalConfig with reasonable
// hyperparameter defaults for the argument time step horizon
func DefaultCategoricalConfig(horizon int) (CategoricalConfig, error) {
	init, err := initwfn.NewGlorotU(1.0)
	if err != nil {
		return CategoricalConfig{}, fmt.Errorf(
			"defaultCategoricalConfig: %v", err)
	}

	sol, err := solver.NewDefaultAdam(5e-4, 1)
	if err != nil {
		return CategoricalConfig{}, fmt.Errorf(
			"defaultCategoricalConfig: %v", err)
	}

	return CategoricalConfig{
		Options:          4,
		DeliberationCost: 0.01,
		OptionEps:        0.1,
		TerminalMask:     false,

		Horizon:     horizon,
		Epochs:      4,
		Gamma:       0.99,
		Lambda:      0.95,
		EntropyCoef: 1e-3,

		ClipEps:      0.2,
		ValueClipEps: 0.2,

		KLReverse:    false,
		KLTarget:     0.02,
		KLCutoffMult: 2.0,
		KLStopMult:   4.0,
		KLBetaLow:    0.7,
		KLBetaHigh:   1.3,
		KLAlpha:      1.5,
		KLCoef:       1.0,

		RootLayers:        []int{64, 64},
		QLayers:           []int{},
		PolicyLayers:      []int{},
		TerminationLayers: []int{},

		InitWFn: init,
		Solver:  sol,
	}, nil
}

// settings returns the policy-independent hyperparameters of the
// configuration
func (c CategoricalConfig) settings() settings {
	return settings{
		options:          c.Options,
		deliberationCost: c.DeliberationCost,
		optionEps:        c.OptionEps,
		terminalMask:     c.TerminalMask,

		horizon:     c.Horizon,
		epochs:      c.Epochs,
		gamma:       c.Gamma,
		lambda:      c.Lambda,
		entropyCoef: c.EntropyCoef,

		clipEps:      c.ClipEps,
		valueClipEps: c.ValueClipEps,

		klReverse:    c.KLReverse,
		klTarget:     c.KLTarget,
		klCutoffMult: c.KLCutoffMult,
		klStopMult:   c.KLStopMult,
		klBetaLow:    c.KLBetaLow,
		klBetaHigh:   c.KLBetaHigh,
		klAlpha:      c.KLAlpha,
		klCoef:       c.KLCoef,
	}
}

// Validate implements the agent.Config interface
func (c CategoricalConfig) Validate() error {
	if err := c.settings().validate(); err != nil {
		return fmt.Errorf("categoricalConfig: %v", err)
	}
	if c.InitWFn == nil {
		return fmt.Errorf("categoricalConfig: no weight initializer " +
			"given")
	}
	if c.Solver == nil {
		return fmt.Errorf("categoricalConfig: no solver given")
	}
	if len(c.RootLayers) == 0 {
		return fmt.Errorf("categoricalConfig: root network must have " +
			"at least one hidden layer")
	}
	return nil
}

// ValidAgent implements the agent.Config interface
func (c CategoricalConfig) ValidAgent(a agent.Agent) bool {
	_, ok := a.(*AOC)
	return ok
}

// CreateAgent implements the agent.Config interface
func (c CategoricalConfig) CreateAgent(env environment.Environment,
	seed uint64) (agent.Agent, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("createAgent: %v", err)
	}
	if env.ActionSpec().Cardinality != environment.Discrete {
		return nil, fmt.Errorf("createAgent: categorical policies " +
			"require a discrete action space")
	}

	features := env.ObservationSpec().Dims
	numActions := int(env.ActionSpec().UpperBound) + 1
	numAgents := env.N()

	predNet, err := network.NewOptionCriticMLP(features, numAgents,
		numActions, c.Options, G.NewGraph(), c.RootLayers, c.QLayers,
		c.PolicyLayers, c.TerminationLayers, c.InitWFn.InitWFn())
	if err != nil {
		return nil, fmt.Errorf("createAgent: could not create "+
			"prediction network: %v", err)
	}

	trainNet, err := predNet.CloneWithBatch(c.Horizon * numAgents)
	if err != nil {
		return nil, fmt.Errorf("createAgent: could not create "+
			"training network: %v", err)
	}

	return newAOC(env, agent.Categorical, c.settings(), trainNet,
		predNet, 0, c.Solver, seed)
}
