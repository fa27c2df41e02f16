package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// OptionCriticMLP implements the shared option-critic network. A root
// MLP computes a common state representation which branches into three
// leaf networks, one per prediction the option-critic architecture
// needs:
//
//					 ╭─→ Q head		─→ option values	 [batch, options]
//	Input ─→ Root ─→ ┼─→ π head		─→ policy params	 [batch, options*actions]
//					 ╰─→ β head		─→ termination probs [batch, options]
//
// The π head predicts the parameters of each option's action
// distribution: means for continuous action spaces or logits for
// discrete ones. The β head passes through a sigmoid so that its
// outputs are valid Bernoulli probabilities.
//
// Predictions are ordered [Q, π, β] in the slices returned by
// Prediction() and Output().
type OptionCriticMLP struct {
	g     *G.ExprGraph
	input *G.Node

	rootLayers []Layer
	qLayers    []Layer
	piLayers   []Layer
	betaLayers []Layer

	options    int
	actionDims int
	numInputs  int
	batchSize  int

	rootHiddenSizes []int
	qHiddenSizes    []int
	piHiddenSizes   []int
	betaHiddenSizes []int

	learnables G.Nodes
	model      []G.ValueGrad

	prediction []*G.Node
	predVal    []G.Value
}

// NewOptionCriticMLP returns a new OptionCriticMLP predicting values,
// policy parameters, and termination probabilities for options options
// over an actionDims-dimensional action space. The rootHiddenSizes
// parameter determines the architecture of the shared root network and
// must have at least one layer. The qHiddenSizes, piHiddenSizes, and
// betaHiddenSizes parameters determine the architectures of the three
// leaf networks; a final linear layer producing the correct number of
// outputs is always added to each leaf. All hidden layers use ReLU
// activations and bias units. The init parameter determines the weight
// initialization scheme.
func NewOptionCriticMLP(features, batch, actionDims, options int,
	g *G.ExprGraph, rootHiddenSizes, qHiddenSizes, piHiddenSizes,
	betaHiddenSizes []int, init G.InitWFn) (NeuralNet, error) {
	if len(rootHiddenSizes) == 0 {
		return nil, fmt.Errorf("newoptioncriticmlp: root network must " +
			"have at least one hidden layer")
	}
	if options <= 0 {
		return nil, fmt.Errorf("newoptioncriticmlp: options must be "+
			"positive \n\thave(%v)", options)
	}
	if actionDims <= 0 {
		return nil, fmt.Errorf("newoptioncriticmlp: actionDims must be "+
			"positive \n\thave(%v)", actionDims)
	}

	input := G.NewMatrix(g, tensor.Float64, G.WithShape(batch, features),
		G.WithName("input"), G.WithInit(G.Zeroes()))

	net := &OptionCriticMLP{
		g:               g,
		input:           input,
		options:         options,
		actionDims:      actionDims,
		numInputs:       features,
		batchSize:       batch,
		rootHiddenSizes: rootHiddenSizes,
		qHiddenSizes:    qHiddenSizes,
		piHiddenSizes:   piHiddenSizes,
		betaHiddenSizes: betaHiddenSizes,
	}

	net.rootLayers = addFCLayers(g, rootHiddenSizes,
		onesBool(len(rootHiddenSizes)), reLUs(len(rootHiddenSizes)), init,
		features, "Root")

	rootOut := rootHiddenSizes[len(rootHiddenSizes)-1]
	net.qLayers = leafLayers(g, qHiddenSizes, options, init, rootOut,
		"Q", Identity())
	net.piLayers = leafLayers(g, piHiddenSizes, options*actionDims, init,
		rootOut, "Pi", Identity())
	net.betaLayers = leafLayers(g, betaHiddenSizes, options, init, rootOut,
		"Beta", Sigmoid())

	if err := net.fwd(input); err != nil {
		return nil, fmt.Errorf("newoptioncriticmlp: could not compute "+
			"forward pass: %v", err)
	}

	return net, nil
}

// leafLayers creates the layers of a single leaf network, adding a
// final layer of outputs units with activation act.
func leafLayers(g *G.ExprGraph, hiddenSizes []int, outputs int,
	init G.InitWFn, features int, prefix string, act *Activation) []Layer {
	sizes := make([]int, len(hiddenSizes), len(hiddenSizes)+1)
	copy(sizes, hiddenSizes)
	sizes = append(sizes, outputs)

	activations := reLUs(len(sizes))
	activations[len(activations)-1] = act

	return addFCLayers(g, sizes, onesBool(len(sizes)), activations, init,
		features, prefix)
}

// onesBool returns a slice of n true values
func onesBool(n int) []bool {
	b := make([]bool, n)
	for i := range b {
		b[i] = true
	}
	return b
}

// reLUs returns a slice of n ReLU activations
func reLUs(n int) []*Activation {
	acts := make([]*Activation, n)
	for i := range acts {
		acts[i] = ReLU()
	}
	return acts
}

// fwd computes the forward pass of the network on the input node
func (o *OptionCriticMLP) fwd(input *G.Node) error {
	pred := input
	var err error
	for i, l := range o.rootLayers {
		if pred, err = l.fwd(pred); err != nil {
			return fmt.Errorf("fwd: could not compute forward pass of "+
				"root layer %v: %v", i, err)
		}
	}

	heads := [][]Layer{o.qLayers, o.piLayers, o.betaLayers}
	o.prediction = make([]*G.Node, len(heads))
	for h, layers := range heads {
		out := pred
		for i, l := range layers {
			if out, err = l.fwd(out); err != nil {
				return fmt.Errorf("fwd: could not compute forward pass of "+
					"leaf %v layer %v: %v", h, i, err)
			}
		}
		o.prediction[h] = out
	}

	o.predVal = make([]G.Value, len(o.prediction))
	for i, node := range o.prediction {
		G.Read(node, &o.predVal[i])
	}

	return nil
}

// Graph returns the computational graph of the network
func (o *OptionCriticMLP) Graph() *G.ExprGraph {
	return o.g
}

// BatchSize returns the batch size of inputs to the network
func (o *OptionCriticMLP) BatchSize() int {
	return o.batchSize
}

// Features returns the number of features in a single observation
// vector that the network takes as input.
func (o *OptionCriticMLP) Features() int {
	return o.numInputs
}

// Options returns the number of options the network predicts values
// and termination probabilities for.
func (o *OptionCriticMLP) Options() int {
	return o.options
}

// ActionDims returns the dimensionality of the action distribution
// parameters predicted per option.
func (o *OptionCriticMLP) ActionDims() int {
	return o.actionDims
}

// SetInput sets the value of the input node before running the forward
// pass.
func (o *OptionCriticMLP) SetInput(input []float64) error {
	if len(input) != o.numInputs*o.batchSize {
		return fmt.Errorf("setinput: invalid number of inputs"+
			"\n\twant(%v)\n\thave(%v)", o.numInputs*o.batchSize, len(input))
	}
	inputTensor := tensor.New(
		tensor.WithBacking(input),
		tensor.WithShape(o.input.Shape()...),
	)
	return G.Let(o.input, inputTensor)
}

// Clone clones an OptionCriticMLP
func (o *OptionCriticMLP) Clone() (NeuralNet, error) {
	return o.CloneWithBatch(o.batchSize)
}

// CloneWithBatch clones an OptionCriticMLP with a new input batch size
func (o *OptionCriticMLP) CloneWithBatch(batchSize int) (NeuralNet, error) {
	graph := G.NewGraph()
	input := G.NewMatrix(
		graph,
		tensor.Float64,
		G.WithShape(batchSize, o.numInputs),
		G.WithName("input"),
		G.WithInit(G.Zeroes()),
	)

	net := &OptionCriticMLP{
		g:               graph,
		input:           input,
		options:         o.options,
		actionDims:      o.actionDims,
		numInputs:       o.numInputs,
		batchSize:       batchSize,
		rootHiddenSizes: o.rootHiddenSizes,
		qHiddenSizes:    o.qHiddenSizes,
		piHiddenSizes:   o.piHiddenSizes,
		betaHiddenSizes: o.betaHiddenSizes,
	}

	net.rootLayers = cloneLayers(o.rootLayers, graph)
	net.qLayers = cloneLayers(o.qLayers, graph)
	net.piLayers = cloneLayers(o.piLayers, graph)
	net.betaLayers = cloneLayers(o.betaLayers, graph)

	if err := net.fwd(input); err != nil {
		return nil, fmt.Errorf("clonewithbatch: could not compute "+
			"forward pass: %v", err)
	}

	return net, nil
}

// cloneLayers clones each layer in layers to a new graph
func cloneLayers(layers []Layer, g *G.ExprGraph) []Layer {
	cloned := make([]Layer, len(layers))
	for i := range layers {
		cloned[i] = layers[i].CloneTo(g)
	}
	return cloned
}

// Set sets the weights of the OptionCriticMLP to be equal to the
// weights of another OptionCriticMLP
func (o *OptionCriticMLP) Set(source NeuralNet) error {
	sourceNodes := source.Learnables()
	nodes := o.Learnables()
	for i, destLearnable := range nodes {
		sourceLearnable := sourceNodes[i].Clone()
		err := G.Let(destLearnable, sourceLearnable.(*G.Node).Value())
		if err != nil {
			return err
		}
	}
	return nil
}

// Learnables returns the learnable nodes in the OptionCriticMLP
func (o *OptionCriticMLP) Learnables() G.Nodes {
	// Lazy instantiation
	if o.learnables == nil {
		o.learnables = o.computeLearnables()
	}
	return o.learnables
}

// computeLearnables computes all of the learnables for the network
func (o *OptionCriticMLP) computeLearnables() G.Nodes {
	all := [][]Layer{o.rootLayers, o.qLayers, o.piLayers, o.betaLayers}

	var learnables []*G.Node
	for _, layers := range all {
		for i := range layers {
			learnables = append(learnables, layers[i].Weights())
			if bias := layers[i].Bias(); bias != nil {
				learnables = append(learnables, bias)
			}
		}
	}
	return G.Nodes(learnables)
}

// Model returns the learnable nodes with their gradients.
func (o *OptionCriticMLP) Model() []G.ValueGrad {
	// Lazy instantiation
	if o.model == nil {
		o.model = make([]G.ValueGrad, 0, len(o.Learnables()))
		for _, node := range o.Learnables() {
			o.model = append(o.model, node)
		}
	}
	return o.model
}

// Output returns the values predicted by the network in the order
// [Q, π, β]. Output is valid only after a VM for the network's graph
// has been run.
func (o *OptionCriticMLP) Output() []G.Value {
	return o.predVal
}

// Prediction returns the nodes of the computational graph that store
// the predictions of the network in the order [Q, π, β].
func (o *OptionCriticMLP) Prediction() []*G.Node {
	return o.prediction
}
