package aoc

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"sfneuman.com/a2oc/agent"
)

// stubEvaluator returns fixed head outputs regardless of the input
// observations
type stubEvaluator struct {
	fwd *Forward
}

func (s stubEvaluator) Evaluate(_ []float64,
	_ RecurrentState) (*Forward, RecurrentState, error) {
	return s.fwd, nil, nil
}

// testAOC returns an AOC with categorical policies and a stub
// evaluator, bypassing network construction. Only the action
// selection and storage paths are usable.
func testAOC(numAgents int, fwd *Forward, set settings) *AOC {
	return &AOC{
		policyType: agent.Categorical,
		set:        set,
		numAgents:  numAgents,
		obsDims:    2,
		actionDims: fwd.ActionDims,
		options:    make([]int, numAgents),
		doneMask:   make([]bool, numAgents),
		sampler: newActionSampler(agent.Categorical, fwd.ActionDims,
			13),
		evaluator: stubEvaluator{fwd: fwd},
		buffer: newTrajectoryBuffer(set.horizon, numAgents, 2,
			fwd.ActionDims),
	}
}

// testGaussianAOC returns an AOC with Gaussian policies, a stub
// evaluator, and a fixed per-option log standard deviation table.
// Only the action selection and storage paths are usable.
func testGaussianAOC(numAgents int, fwd *Forward, set settings,
	logStd []float64) *AOC {
	g := G.NewGraph()
	logStdNode := G.NewMatrix(g, tensor.Float64, G.WithName("logStd"),
		G.WithShape(set.options, fwd.ActionDims),
		G.WithValue(tensor.New(
			tensor.WithBacking(logStd),
			tensor.WithShape(set.options, fwd.ActionDims),
		)))

	return &AOC{
		policyType: agent.Gaussian,
		set:        set,
		numAgents:  numAgents,
		obsDims:    2,
		actionDims: fwd.ActionDims,
		options:    make([]int, numAgents),
		doneMask:   make([]bool, numAgents),
		sampler: newActionSampler(agent.Gaussian, fwd.ActionDims,
			13),
		evaluator: stubEvaluator{fwd: fwd},
		logStd:    logStdNode,
		buffer: newTrajectoryBuffer(set.horizon, numAgents, 2,
			fwd.ActionDims),
	}
}

func testSettings(options int) settings {
	return settings{
		options:          options,
		deliberationCost: 0.01,
		optionEps:        0.1,
		horizon:          4,
		epochs:           4,
		gamma:            0.99,
		lambda:           0.95,
		entropyCoef:      1e-3,
		clipEps:          0.2,
		valueClipEps:     0.2,
		klTarget:         0.02,
		klCutoffMult:     2.0,
		klStopMult:       4.0,
		klBetaLow:        0.7,
		klBetaHigh:       1.3,
		klAlpha:          1.5,
		klCoef:           1.0,
	}
}

// uniformForward returns head outputs with the argument option values
// and a single termination probability shared by every option
func uniformForward(numAgents int, q []float64, beta float64) *Forward {
	options := len(q)
	fwd := &Forward{
		Batch:        numAgents,
		Options:      options,
		ActionDims:   2,
		QValues:      make([]float64, numAgents*options),
		PolicyParams: make([]float64, numAgents*options*2),
		Terminations: make([]float64, numAgents*options),
	}
	for i := 0; i < numAgents; i++ {
		copy(fwd.QValues[i*options:], q)
		for o := 0; o < options; o++ {
			fwd.Terminations[i*options+o] = beta
		}
	}
	return fwd
}

// TestSelectActionsDoneOverride tests that agents whose episode just
// ended always receive the greedy option, regardless of the
// termination sample. Both a never-terminating and an
// always-terminating gate must produce the argmax option.
func TestSelectActionsDoneOverride(t *testing.T) {
	q := []float64{0.1, 0.9, 0.3}
	obs := mat.NewDense(1, 2, []float64{0, 0})

	for _, beta := range []float64{0.0, 1.0} {
		a := testAOC(1, uniformForward(1, q, beta), testSettings(3))
		a.Reset()

		_, _, err := a.SelectActions(obs)
		if err != nil {
			t.Fatalf("could not select actions: %v", err)
		}

		if a.options[0] != 1 {
			t.Errorf("done agent did not take the greedy option with "+
				"beta %v: expected 1, received %v", beta, a.options[0])
		}
		if a.doneMask[0] {
			t.Error("done mask not cleared after action selection")
		}
	}
}

// TestSelectActionsOptionBounds tests that held options stay within
// [0, options) across many steps of stochastic termination
func TestSelectActionsOptionBounds(t *testing.T) {
	options := 4
	q := []float64{0.3, 0.1, 0.4, 0.2}
	obs := mat.NewDense(2, 2, []float64{0, 0, 0, 0})

	a := testAOC(2, uniformForward(2, q, 0.5), testSettings(options))
	a.Reset()

	for step := 0; step < 100; step++ {
		_, p, err := a.SelectActions(obs)
		if err != nil {
			t.Fatalf("could not select actions: %v", err)
		}

		pending := p.(*pendingStep)
		for i := 0; i < 2; i++ {
			if o := pending.lastOptions[i]; o < 0 || o >= options {
				t.Fatalf("acting option out of bounds: %v", o)
			}
			if o := pending.options[i]; o < 0 || o >= options {
				t.Fatalf("next option out of bounds: %v", o)
			}
		}
	}
}

// TestSelectActionsBetaAdvantage tests the recorded termination
// advantage against its hand-computed value
func TestSelectActionsBetaAdvantage(t *testing.T) {
	q := []float64{0.5, 0.9, 0.1}
	obs := mat.NewDense(1, 2, []float64{0, 0})

	set := testSettings(3)
	set.optionEps = 0.25
	set.deliberationCost = 0.01

	// With beta = 0 the held option never terminates
	a := testAOC(1, uniformForward(1, q, 0.0), set)
	a.options[0] = 0
	a.doneMask[0] = false

	_, p, err := a.SelectActions(obs)
	if err != nil {
		t.Fatalf("could not select actions: %v", err)
	}
	pending := p.(*pendingStep)

	// q_mean = 0.5, mixture baseline = 0.75*0.9 + 0.25*0.5 = 0.8;
	// recorded advantage = 0.5 - 0.8 + 0.01
	expected := 0.5 - 0.8 + 0.01
	if math.Abs(pending.betaAdv[0]-expected) > 1e-10 {
		t.Errorf("incorrect termination advantage: expected %v, "+
			"received %v", expected, pending.betaAdv[0])
	}

	if pending.values[0] != 0.5 {
		t.Errorf("incorrect value: expected 0.5, received %v",
			pending.values[0])
	}
	if !pending.ocMask[0] {
		t.Error("option switch recorded when the gate never fired")
	}
	if pending.options[0] != 0 {
		t.Errorf("option changed when the gate never fired: received "+
			"%v", pending.options[0])
	}
}

// TestStoreRewardAdjustment tests that the deliberation cost is
// charged exactly where an option switch occurred
func TestStoreRewardAdjustment(t *testing.T) {
	a := testAOC(3, uniformForward(3, []float64{0.1, 0.2}, 0.0),
		testSettings(2))

	p := &pendingStep{
		values:      []float64{0, 0, 0},
		logProbs:    []float64{0, 0, 0},
		betaAdv:     []float64{0, 0, 0},
		lastOptions: []int{0, 0, 0},
		options:     []int{0, 1, 0},
		ocMask:      []bool{true, false, true},
	}

	obs := mat.NewDense(3, 2, nil)
	actions := mat.NewDense(3, 1, []float64{0, 1, 0})
	rewards := []float64{1.0, 1.0, 1.0}
	done := []bool{false, false, false}

	err := a.Store(p, obs, actions, rewards, obs, done)
	if err != nil {
		t.Fatalf("could not store transition: %v", err)
	}

	expected := []float64{1.0, 0.99, 1.0}
	for i, want := range expected {
		if math.Abs(a.buffer.rewards[0][i]-want) > 1e-10 {
			t.Errorf("incorrect stored reward for agent %v: expected "+
				"%v, received %v", i, want, a.buffer.rewards[0][i])
		}
	}

	// Discrete actions are stored one-hot
	storedAction := a.buffer.actions[0][2:4]
	if storedAction[0] != 0.0 || storedAction[1] != 1.0 {
		t.Errorf("incorrect one-hot action for agent 1: received %v",
			storedAction)
	}

	// The raw reward slice is left untouched
	if rewards[1] != 1.0 {
		t.Error("store modified the caller's reward slice")
	}
}

// TestStoreConsumesPendingStep tests that a pending step can be
// stored exactly once
func TestStoreConsumesPendingStep(t *testing.T) {
	q := []float64{0.1, 0.2}
	a := testAOC(1, uniformForward(1, q, 0.0), testSettings(2))
	a.Reset()

	obs := mat.NewDense(1, 2, []float64{0, 0})
	actions, p, err := a.SelectActions(obs)
	if err != nil {
		t.Fatalf("could not select actions: %v", err)
	}

	if p.Consumed() {
		t.Fatal("pending step consumed before storing")
	}

	rewards := []float64{1.0}
	done := []bool{false}
	if err := a.Store(p, obs, actions, rewards, obs, done); err != nil {
		t.Fatalf("could not store transition: %v", err)
	}

	if !p.Consumed() {
		t.Error("pending step not consumed by store")
	}
	if err := a.Store(p, obs, actions, rewards, obs, done); err == nil {
		t.Error("stored the same pending step twice")
	}
}

// TestStoreValidatesShapes tests that malformed transitions are
// rejected with errors
func TestStoreValidatesShapes(t *testing.T) {
	a := testAOC(2, uniformForward(2, []float64{0.1, 0.2}, 0.0),
		testSettings(2))
	a.Reset()

	obs := mat.NewDense(2, 2, nil)
	actions, p, err := a.SelectActions(obs)
	if err != nil {
		t.Fatalf("could not select actions: %v", err)
	}

	badObs := mat.NewDense(1, 2, nil)
	if err := a.Store(p, badObs, actions, []float64{1, 1}, obs,
		[]bool{false, false}); err == nil {
		t.Error("accepted an observation batch of the wrong size")
	}
	if err := a.Store(p, obs, actions, []float64{1}, obs,
		[]bool{false, false}); err == nil {
		t.Error("accepted a reward vector of the wrong size")
	}
	if err := a.Store(p, obs, actions, []float64{1, 1}, obs,
		[]bool{false}); err == nil {
		t.Error("accepted a done vector of the wrong size")
	}
	if err := a.Store(nil, obs, actions, []float64{1, 1}, obs,
		[]bool{false, false}); err == nil {
		t.Error("accepted a nil pending step")
	}
}

// TestPartialReset tests that only flagged agents are redrawn at the
// next action selection
func TestPartialReset(t *testing.T) {
	// The greedy option is 1 and the gate never fires, so a redrawn
	// agent must hold option 1 afterwards while others are untouched.
	q := []float64{0.1, 0.9}
	a := testAOC(2, uniformForward(2, q, 0.0), testSettings(2))
	a.options[0] = 0
	a.options[1] = 0
	a.doneMask[0] = false
	a.doneMask[1] = false

	if err := a.PartialReset([]bool{false, true}); err != nil {
		t.Fatalf("could not partially reset: %v", err)
	}

	obs := mat.NewDense(2, 2, nil)
	if _, _, err := a.SelectActions(obs); err != nil {
		t.Fatalf("could not select actions: %v", err)
	}

	if a.options[0] != 0 {
		t.Errorf("untouched agent changed option: received %v",
			a.options[0])
	}
	if a.options[1] != 1 {
		t.Errorf("reset agent did not take the greedy option: "+
			"received %v", a.options[1])
	}

	if err := a.PartialReset([]bool{true}); err == nil {
		t.Error("accepted a done vector of the wrong size")
	}
}

// TestSelectActionsGaussianLogStd tests that Gaussian action
// selection uses the held option's row of the log standard deviation
// table. The policy mean sits far past the action bound, so the
// sampled action is clipped and its log probability determined by the
// selected row alone.
func TestSelectActionsGaussianLogStd(t *testing.T) {
	fwd := &Forward{
		Batch:        1,
		Options:      2,
		ActionDims:   1,
		QValues:      []float64{0.0, 1.0},
		PolicyParams: []float64{100.0, 100.0},
		Terminations: []float64{0.0, 0.0},
	}

	logStd := []float64{0.0, math.Log(0.5)}
	a := testGaussianAOC(1, fwd, testSettings(2), logStd)
	a.Reset()

	obs := mat.NewDense(1, 2, nil)

	// The first selection redraws the option of the freshly reset
	// agent and leaves it holding the greedy option 1
	if _, _, err := a.SelectActions(obs); err != nil {
		t.Fatalf("could not select actions: %v", err)
	}
	if a.options[0] != 1 {
		t.Fatalf("reset agent did not take the greedy option: "+
			"received %v", a.options[0])
	}

	actions, pending, err := a.SelectActions(obs)
	if err != nil {
		t.Fatalf("could not select actions: %v", err)
	}
	if actions.At(0, 0) != 1.0 {
		t.Errorf("action not clipped to upper bound: expected 1.0, "+
			"received %v", actions.At(0, 0))
	}

	// Option 1 has standard deviation 0.5, so the clipped action has
	// z = (1 - 100) / 0.5 = -198. Option 0's unit standard deviation
	// would give z = -99 instead.
	expected := -0.5*198.0*198.0 + math.Log(2.0) -
		0.5*math.Log(2*math.Pi) + logProbGuard
	computed := pending.(*pendingStep).logProbs[0]
	if math.Abs(computed-expected) > 1e-8 {
		t.Errorf("incorrect log probability: expected %v, received %v",
			expected, computed)
	}
}
