package aoc

import "fmt"

// trajectoryBuffer stores the transitions of a fixed number of
// environment steps across every copy of a vectorized environment.
// Data is stored step-major: index t*numAgents + i addresses agent i
// at step t once flattened for learning.
type trajectoryBuffer struct {
	horizon   int
	numAgents int
	obsDims   int
	actDims   int

	pos int

	obs     [][]float64 // [horizon][numAgents * obsDims]
	actions [][]float64 // [horizon][numAgents * actDims]
	nextObs [][]float64 // [horizon][numAgents * obsDims]

	rewards     [][]float64 // [horizon][numAgents]
	values      [][]float64
	logProbs    [][]float64
	betaAdv     [][]float64
	lastOptions [][]int
	options     [][]int
	done        [][]bool

	cellStates []RecurrentState

	// filled by computeReturns
	returns    [][]float64
	advantages [][]float64
}

func newTrajectoryBuffer(horizon, numAgents, obsDims,
	actDims int) *trajectoryBuffer {
	return &trajectoryBuffer{
		horizon:     horizon,
		numAgents:   numAgents,
		obsDims:     obsDims,
		actDims:     actDims,
		obs:         make([][]float64, 0, horizon),
		actions:     make([][]float64, 0, horizon),
		nextObs:     make([][]float64, 0, horizon),
		rewards:     make([][]float64, 0, horizon),
		values:      make([][]float64, 0, horizon),
		logProbs:    make([][]float64, 0, horizon),
		betaAdv:     make([][]float64, 0, horizon),
		lastOptions: make([][]int, 0, horizon),
		options:     make([][]int, 0, horizon),
		done:        make([][]bool, 0, horizon),
		cellStates:  make([]RecurrentState, 0, horizon),
	}
}

// store appends one step of transitions, one entry per agent. The
// argument slices are retained, so callers must not modify them after
// the call.
func (t *trajectoryBuffer) store(obs, actions, nextObs, rewards, values,
	logProbs, betaAdv []float64, lastOptions, options []int, done []bool,
	cell RecurrentState) error {
	if t.full() {
		return fmt.Errorf("store: buffer already holds %v steps",
			t.horizon)
	}
	if len(obs) != t.numAgents*t.obsDims {
		return fmt.Errorf("store: invalid observation length \n\t"+
			"want(%v) \n\thave(%v)", t.numAgents*t.obsDims, len(obs))
	}
	if len(actions) != t.numAgents*t.actDims {
		return fmt.Errorf("store: invalid action length \n\twant(%v) "+
			"\n\thave(%v)", t.numAgents*t.actDims, len(actions))
	}

	t.obs = append(t.obs, obs)
	t.actions = append(t.actions, actions)
	t.nextObs = append(t.nextObs, nextObs)
	t.rewards = append(t.rewards, rewards)
	t.values = append(t.values, values)
	t.logProbs = append(t.logProbs, logProbs)
	t.betaAdv = append(t.betaAdv, betaAdv)
	t.lastOptions = append(t.lastOptions, lastOptions)
	t.options = append(t.options, options)
	t.done = append(t.done, done)
	t.cellStates = append(t.cellStates, cell)
	t.pos++

	return nil
}

func (t *trajectoryBuffer) full() bool {
	return t.pos >= t.horizon
}

// lastNextObs returns the next observations of the most recently
// stored step, used to bootstrap the return computation.
func (t *trajectoryBuffer) lastNextObs() []float64 {
	return t.nextObs[t.pos-1]
}

// finalOptions returns the options held after the most recently
// stored step.
func (t *trajectoryBuffer) finalOptions() []int {
	return t.options[t.pos-1]
}

// computeReturns computes the discounted returns and the generalized
// advantage estimates of every stored transition, bootstrapping the
// values of the final next observations with bootstrap. Terminal
// transitions cut both recurrences.
func (t *trajectoryBuffer) computeReturns(gamma, lambda float64,
	bootstrap []float64) error {
	if !t.full() {
		return fmt.Errorf("computeReturns: buffer holds %v of %v steps",
			t.pos, t.horizon)
	}
	if len(bootstrap) != t.numAgents {
		return fmt.Errorf("computeReturns: invalid bootstrap length "+
			"\n\twant(%v) \n\thave(%v)", t.numAgents, len(bootstrap))
	}

	t.returns = make([][]float64, t.horizon)
	t.advantages = make([][]float64, t.horizon)
	for i := range t.returns {
		t.returns[i] = make([]float64, t.numAgents)
		t.advantages[i] = make([]float64, t.numAgents)
	}

	for i := 0; i < t.numAgents; i++ {
		ret := bootstrap[i]
		nextValue := bootstrap[i]
		adv := 0.0
		for step := t.horizon - 1; step >= 0; step-- {
			continuing := 1.0
			if t.done[step][i] {
				continuing = 0.0
			}

			ret = t.rewards[step][i] + gamma*continuing*ret
			t.returns[step][i] = ret

			tdErr := t.rewards[step][i] +
				gamma*continuing*nextValue - t.values[step][i]
			adv = tdErr + gamma*lambda*continuing*adv
			t.advantages[step][i] = adv

			nextValue = t.values[step][i]
		}
	}

	return nil
}

// reset clears the buffer for the next batch of transitions
func (t *trajectoryBuffer) reset() {
	t.pos = 0
	t.obs = t.obs[:0]
	t.actions = t.actions[:0]
	t.nextObs = t.nextObs[:0]
	t.rewards = t.rewards[:0]
	t.values = t.values[:0]
	t.logProbs = t.logProbs[:0]
	t.betaAdv = t.betaAdv[:0]
	t.lastOptions = t.lastOptions[:0]
	t.options = t.options[:0]
	t.done = t.done[:0]
	t.cellStates = t.cellStates[:0]
	t.returns = nil
	t.advantages = nil
}

// flatten concatenates per-step rows into a single step-major slice
func flatten(rows [][]float64) []float64 {
	if len(rows) == 0 {
		return nil
	}
	out := make([]float64, 0, len(rows)*len(rows[0]))
	for _, row := range rows {
		out = append(out, row...)
	}
	return out
}

// flattenInts concatenates per-step option rows into a single
// step-major slice
func flattenInts(rows [][]int) []int {
	if len(rows) == 0 {
		return nil
	}
	out := make([]int, 0, len(rows)*len(rows[0]))
	for _, row := range rows {
		out = append(out, row...)
	}
	return out
}

// flattenBools concatenates per-step done flags into a single
// step-major slice of keep weights: 1 for non-terminal transitions
// and 0 for terminal ones.
func flattenBools(rows [][]bool) []float64 {
	if len(rows) == 0 {
		return nil
	}
	out := make([]float64, 0, len(rows)*len(rows[0]))
	for _, row := range rows {
		for _, done := range row {
			if done {
				out = append(out, 0.0)
			} else {
				out = append(out, 1.0)
			}
		}
	}
	return out
}
