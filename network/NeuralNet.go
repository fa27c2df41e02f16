// Package network implements neural network function approximators
// as Gorgonia computational graphs
package network

import (
	G "gorgonia.org/gorgonia"
)

// NeuralNet implements a neural network on a Gorgonia computational
// graph. A NeuralNet may have many output layers, each producing its
// own prediction.
type NeuralNet interface {
	Graph() *G.ExprGraph
	Clone() (NeuralNet, error)
	CloneWithBatch(int) (NeuralNet, error)
	BatchSize() int
	Features() int
	SetInput([]float64) error
	Set(NeuralNet) error
	Learnables() G.Nodes
	Model() []G.ValueGrad
	Output() []G.Value
	Prediction() []*G.Node
}

// Set sets the weights of dest to the weights of source. The two
// networks must share the same architecture.
func Set(dest, source NeuralNet) error {
	return dest.Set(source)
}
