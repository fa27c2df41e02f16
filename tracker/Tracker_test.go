package tracker

import (
	"path/filepath"
	"testing"

	"sfneuman.com/a2oc/agent"
)

// TestReturnRoundTrip tests that episodic returns accumulated across
// environment copies are saved and loaded unchanged
func TestReturnRoundTrip(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "returns.bin")
	tracker := NewReturn(filename, 2)

	tracker.Track([]float64{1.0, 2.0}, []bool{false, false})
	tracker.Track([]float64{3.0, 4.0}, []bool{true, false})
	tracker.Track([]float64{5.0, 6.0}, []bool{false, true})
	tracker.Save()

	returns, err := LoadReturns(filename)
	if err != nil {
		t.Fatalf("could not load returns: %v", err)
	}

	// Copy 0 finishes with 1+3, then copy 1 with 2+4+6
	expected := []float64{4.0, 12.0}
	if len(returns) != len(expected) {
		t.Fatalf("incorrect number of episodes: expected %v, received "+
			"%v", len(expected), len(returns))
	}
	for i, want := range expected {
		if returns[i] != want {
			t.Errorf("incorrect return for episode %v: expected %v, "+
				"received %v", i, want, returns[i])
		}
	}
}

// TestLossRoundTrip tests that update statistics are saved and loaded
// unchanged
func TestLossRoundTrip(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "losses.bin")
	tracker := NewLoss(filename)

	tracker.Track(agent.Summary{"loss": 1.5, "kl": 0.01})
	tracker.Track(agent.Summary{"loss": 1.25, "kl": 0.02})
	tracker.Save()

	series, err := LoadLosses(filename)
	if err != nil {
		t.Fatalf("could not load losses: %v", err)
	}

	if len(series["loss"]) != 2 || series["loss"][1] != 1.25 {
		t.Errorf("incorrect loss series: received %v", series["loss"])
	}
	if len(series["kl"]) != 2 || series["kl"][0] != 0.01 {
		t.Errorf("incorrect kl series: received %v", series["kl"])
	}
}
