package network

import (
	"testing"

	G "gorgonia.org/gorgonia"
)

// TestCloneWithBatch tests that cloning to a new batch size produces
// a network on a fresh graph with the same architecture and weights
func TestCloneWithBatch(t *testing.T) {
	net, err := NewOptionCriticMLP(3, 2, 2, 2, G.NewGraph(), []int{4},
		[]int{}, []int{}, []int{}, G.GlorotU(1.0))
	if err != nil {
		t.Fatalf("could not create network: %v", err)
	}

	clone, err := net.CloneWithBatch(6)
	if err != nil {
		t.Fatalf("could not clone network: %v", err)
	}

	if clone.BatchSize() != 6 {
		t.Errorf("incorrect batch size: expected 6, received %v",
			clone.BatchSize())
	}
	if clone.Features() != net.Features() {
		t.Errorf("incorrect number of features: expected %v, "+
			"received %v", net.Features(), clone.Features())
	}
	if clone.Graph() == net.Graph() {
		t.Error("clone shares the source network's graph")
	}

	nodes := net.Learnables()
	cloned := clone.Learnables()
	if len(cloned) != len(nodes) {
		t.Fatalf("incorrect number of learnables: expected %v, "+
			"received %v", len(nodes), len(cloned))
	}
	for i := range nodes {
		want := nodes[i].Value().Data().([]float64)
		have := cloned[i].Value().Data().([]float64)
		for j := range want {
			if have[j] != want[j] {
				t.Fatalf("weights of %v not copied at index %v: "+
					"expected %v, received %v", nodes[i].Name(), j,
					want[j], have[j])
			}
		}
	}
}

// TestClone tests that plain cloning preserves the batch size
func TestClone(t *testing.T) {
	net, err := NewOptionCriticMLP(3, 2, 2, 2, G.NewGraph(), []int{4},
		[]int{}, []int{}, []int{}, G.GlorotU(1.0))
	if err != nil {
		t.Fatalf("could not create network: %v", err)
	}

	clone, err := net.Clone()
	if err != nil {
		t.Fatalf("could not clone network: %v", err)
	}

	if clone.BatchSize() != net.BatchSize() {
		t.Errorf("incorrect batch size: expected %v, received %v",
			net.BatchSize(), clone.BatchSize())
	}
}
