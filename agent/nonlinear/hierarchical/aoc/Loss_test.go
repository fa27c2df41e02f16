package aoc

import (
	"math"
	"testing"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// vectorNode adds a constant vector to a graph
func vectorNode(g *G.ExprGraph, name string, data []float64) *G.Node {
	return G.NewVector(g, tensor.Float64, G.WithName(name),
		G.WithShape(len(data)), G.WithValue(tensor.New(
			tensor.WithBacking(data),
			tensor.WithShape(len(data)),
		)))
}

// matrixNode adds a constant matrix to a graph
func matrixNode(g *G.ExprGraph, name string, rows, cols int,
	data []float64) *G.Node {
	return G.NewMatrix(g, tensor.Float64, G.WithName(name),
		G.WithShape(rows, cols), G.WithValue(tensor.New(
			tensor.WithBacking(data),
			tensor.WithShape(rows, cols),
		)))
}

// run evaluates a graph and returns the scalar value of node
func run(t *testing.T, g *G.ExprGraph, node *G.Node) float64 {
	var value G.Value
	G.Read(node, &value)

	vm := G.NewTapeMachine(g)
	defer vm.Close()
	if err := vm.RunAll(); err != nil {
		t.Fatalf("could not run graph: %v", err)
	}

	return value.Data().(float64)
}

// TestClippedValueLoss tests the clipped value loss against
// hand-computed values on a two-sample batch
func TestClippedValueLoss(t *testing.T) {
	g := G.NewGraph()
	returns := vectorNode(g, "returns", []float64{1.0, 2.0})
	value := vectorNode(g, "value", []float64{0.5, 3.0})
	oldValue := vectorNode(g, "oldValue", []float64{0.7, 2.5})

	loss, err := clippedValueLoss(returns, value, oldValue, 0.2)
	if err != nil {
		t.Fatalf("could not construct loss: %v", err)
	}

	// Clipped values are [0.5, 2.7], so the squared TD errors are
	// [0.25, 1.0] unclipped and [0.25, 0.49] clipped:
	// 0.5 * mean(max([0.25, 1.0], [0.25, 0.49])) = 0.3125
	expected := 0.3125

	computed := run(t, g, loss)
	if math.Abs(computed-expected) > 1e-10 {
		t.Errorf("incorrect loss: expected %v, received %v", expected,
			computed)
	}
}

// TestClippedSurrogateLoss tests the clipped surrogate policy loss
// against hand-computed values
func TestClippedSurrogateLoss(t *testing.T) {
	g := G.NewGraph()
	ratio := vectorNode(g, "ratio", []float64{1.5, 0.5})
	advantage := vectorNode(g, "advantage", []float64{1.0, -1.0})

	loss, err := clippedSurrogateLoss(ratio, advantage, 0.2)
	if err != nil {
		t.Fatalf("could not construct loss: %v", err)
	}

	// Unclipped surrogates are [1.5, -0.5], clipped ratios [1.2, 0.8]
	// give [1.2, -0.8]: -mean(min([1.5, -0.5], [1.2, -0.8])) = -0.2
	expected := -0.2

	computed := run(t, g, loss)
	if math.Abs(computed-expected) > 1e-10 {
		t.Errorf("incorrect loss: expected %v, received %v", expected,
			computed)
	}
}

// TestTerminationLoss tests the termination loss with and without
// masking of terminal transitions
func TestTerminationLoss(t *testing.T) {
	g := G.NewGraph()
	betaSel := vectorNode(g, "betaSel", []float64{0.5, 0.25})
	betaAdv := vectorNode(g, "betaAdv", []float64{0.2, 0.4})

	unmasked, err := terminationLoss(betaSel, betaAdv, nil)
	if err != nil {
		t.Fatalf("could not construct unmasked loss: %v", err)
	}

	keepMask := vectorNode(g, "keepMask", []float64{1.0, 0.0})
	masked, err := terminationLoss(betaSel, betaAdv, keepMask)
	if err != nil {
		t.Fatalf("could not construct masked loss: %v", err)
	}

	var unmaskedVal, maskedVal G.Value
	G.Read(unmasked, &unmaskedVal)
	G.Read(masked, &maskedVal)

	vm := G.NewTapeMachine(g)
	defer vm.Close()
	if err := vm.RunAll(); err != nil {
		t.Fatalf("could not run graph: %v", err)
	}

	// mean([0.1, 0.1]) = 0.1
	if computed := unmaskedVal.Data().(float64); math.Abs(computed-0.1) > 1e-10 {
		t.Errorf("incorrect unmasked loss: expected 0.1, received %v",
			computed)
	}

	// mean([0.1, 0.0]) = 0.05
	if computed := maskedVal.Data().(float64); math.Abs(computed-0.05) > 1e-10 {
		t.Errorf("incorrect masked loss: expected 0.05, received %v",
			computed)
	}
}

// TestKLEstimate tests the KL estimator in both directions
func TestKLEstimate(t *testing.T) {
	g := G.NewGraph()
	oldLogProb := vectorNode(g, "oldLogProb", []float64{-1.0, -2.0})
	newLogProb := vectorNode(g, "newLogProb", []float64{-1.5, -1.5})

	forward, err := klEstimate(oldLogProb, newLogProb, false)
	if err != nil {
		t.Fatalf("could not construct forward estimate: %v", err)
	}
	reverse, err := klEstimate(oldLogProb, newLogProb, true)
	if err != nil {
		t.Fatalf("could not construct reverse estimate: %v", err)
	}

	var forwardVal, reverseVal G.Value
	G.Read(forward, &forwardVal)
	G.Read(reverse, &reverseVal)

	vm := G.NewTapeMachine(g)
	defer vm.Close()
	if err := vm.RunAll(); err != nil {
		t.Fatalf("could not run graph: %v", err)
	}

	// mean([-1 - (-1.5), -2 - (-1.5)]) = 0
	if computed := forwardVal.Data().(float64); math.Abs(computed) > 1e-10 {
		t.Errorf("incorrect forward estimate: expected 0, received %v",
			computed)
	}
	if computed := reverseVal.Data().(float64); math.Abs(computed) > 1e-10 {
		t.Errorf("incorrect reverse estimate: expected 0, received %v",
			computed)
	}
}

// TestCategoricalLogProb tests the categorical log probability
// computation on uniform logits
func TestCategoricalLogProb(t *testing.T) {
	g := G.NewGraph()
	logits := matrixNode(g, "logits", 1, 2, []float64{0.0, 0.0})
	actions := matrixNode(g, "actions", 1, 2, []float64{1.0, 0.0})

	logProb, _, err := categoricalLogProb(logits, actions)
	if err != nil {
		t.Fatalf("could not construct log probability: %v", err)
	}

	var value G.Value
	G.Read(logProb, &value)

	vm := G.NewTapeMachine(g)
	defer vm.Close()
	if err := vm.RunAll(); err != nil {
		t.Fatalf("could not run graph: %v", err)
	}

	expected := -math.Log(2.0)
	computed := value.Data().([]float64)[0]
	if math.Abs(computed-expected) > 1e-10 {
		t.Errorf("incorrect log probability: expected %v, received %v",
			expected, computed)
	}
}

// runVector evaluates a graph and returns the vector value of node
func runVector(t *testing.T, g *G.ExprGraph, node *G.Node) []float64 {
	var value G.Value
	G.Read(node, &value)

	vm := G.NewTapeMachine(g)
	defer vm.Close()
	if err := vm.RunAll(); err != nil {
		t.Fatalf("could not run graph: %v", err)
	}

	return value.Data().([]float64)
}

// TestGaussianLogProbSum tests the diagonal Gaussian log probability
// against hand-computed values on a two-sample batch with two action
// dimensions
func TestGaussianLogProbSum(t *testing.T) {
	g := G.NewGraph()
	actions := matrixNode(g, "actions", 2, 2,
		[]float64{0.5, -0.2, 1.0, 0.0})
	mean := matrixNode(g, "mean", 2, 2, []float64{0.0, 0.0, 1.0, 0.5})
	logStd := matrixNode(g, "logStd", 2, 2,
		[]float64{0.0, 0.0, math.Log(0.5), 0.0})
	std := matrixNode(g, "std", 2, 2, []float64{1.0, 1.0, 0.5, 1.0})

	logProb, err := gaussianLogProbSum(actions, mean, logStd, std)
	if err != nil {
		t.Fatalf("could not construct log probability: %v", err)
	}

	// Sample 1: z = [0.5, -0.2] under unit standard deviations, so
	// the log probability is -0.5*(0.25 + 0.04) - 2*0.5*ln(2π).
	// Sample 2: z = [0.0, -0.5], so the log probability is
	// -ln(0.5) - 0.125 - 2*0.5*ln(2π).
	expected := []float64{
		-0.145 - math.Log(2*math.Pi),
		math.Log(2.0) - 0.125 - math.Log(2*math.Pi),
	}

	computed := runVector(t, g, logProb)
	for i := range expected {
		if math.Abs(computed[i]-expected[i]) > 1e-10 {
			t.Errorf("incorrect log probability of sample %v: "+
				"expected %v, received %v", i, expected[i], computed[i])
		}
	}
}

// TestGaussianEntropy tests the mean diagonal Gaussian entropy
// against a hand-computed value
func TestGaussianEntropy(t *testing.T) {
	g := G.NewGraph()
	logStd := matrixNode(g, "logStd", 2, 2,
		[]float64{0.0, 0.0, math.Log(0.5), 0.0})

	entropy, err := gaussianEntropy(logStd)
	if err != nil {
		t.Fatalf("could not construct entropy: %v", err)
	}

	// Per-sample entropies are 1 + ln(2π) and 1 + ln(2π) + ln(0.5)
	expected := 1 + math.Log(2*math.Pi) + 0.5*math.Log(0.5)

	computed := run(t, g, entropy)
	if math.Abs(computed-expected) > 1e-10 {
		t.Errorf("incorrect entropy: expected %v, received %v",
			expected, computed)
	}
}
