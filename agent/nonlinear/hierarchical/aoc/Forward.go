package aoc

import (
	"fmt"

	G "gorgonia.org/gorgonia"

	"sfneuman.com/a2oc/network"
)

// RecurrentState is the opaque hidden state that an Evaluator threads
// between successive forward passes. Feedforward evaluators return a
// nil RecurrentState.
type RecurrentState []float64

// Evaluator computes the option-critic heads for a batch of
// observations. It abstracts the prediction network away from action
// selection so that the selection logic does not depend on any
// specific network implementation.
type Evaluator interface {
	// Evaluate runs a forward pass on the argument batch of
	// observations, given the recurrent state left by the previous
	// pass, and returns the head outputs together with the state to
	// thread into the next pass.
	Evaluate(obs []float64, state RecurrentState) (*Forward, RecurrentState,
		error)
}

// Forward holds the option-critic head outputs for one batch of
// observations. All slices are row-major with one row per batch
// element: QValues and Terminations have Options columns, and
// PolicyParams has Options * ActionDims columns, grouped by option.
type Forward struct {
	Batch      int
	Options    int
	ActionDims int

	QValues      []float64
	PolicyParams []float64
	Terminations []float64
}

// Q returns the option values of batch element b
func (f *Forward) Q(b int) []float64 {
	return f.QValues[b*f.Options : (b+1)*f.Options]
}

// Params returns the policy parameters of option o for batch element b
func (f *Forward) Params(b, o int) []float64 {
	row := f.PolicyParams[b*f.Options*f.ActionDims : (b+1)*f.Options*f.ActionDims]
	return row[o*f.ActionDims : (o+1)*f.ActionDims]
}

// Beta returns the termination probability of option o for batch
// element b
func (f *Forward) Beta(b, o int) float64 {
	return f.Terminations[b*f.Options+o]
}

// netEvaluator adapts a prediction network to the Evaluator interface.
// The network is feedforward, so the recurrent state is always nil.
type netEvaluator struct {
	net        network.NeuralNet
	vm         G.VM
	options    int
	actionDims int
}

func newNetEvaluator(net network.NeuralNet, options,
	actionDims int) *netEvaluator {
	vm := G.NewTapeMachine(net.Graph())
	return &netEvaluator{
		net:        net,
		vm:         vm,
		options:    options,
		actionDims: actionDims,
	}
}

func (n *netEvaluator) Evaluate(obs []float64,
	_ RecurrentState) (*Forward, RecurrentState, error) {
	err := n.net.SetInput(obs)
	if err != nil {
		return nil, nil, fmt.Errorf("evaluate: could not set input: %v", err)
	}

	err = n.vm.RunAll()
	if err != nil {
		return nil, nil, fmt.Errorf("evaluate: could not run vm: %v", err)
	}

	out := n.net.Output()
	fwd := &Forward{
		Batch:        n.net.BatchSize(),
		Options:      n.options,
		ActionDims:   n.actionDims,
		QValues:      copyF64(out[0].Data().([]float64)),
		PolicyParams: copyF64(out[1].Data().([]float64)),
		Terminations: copyF64(out[2].Data().([]float64)),
	}
	n.vm.Reset()

	return fwd, nil, nil
}

func copyF64(data []float64) []float64 {
	out := make([]float64, len(data))
	copy(out, data)
	return out
}
