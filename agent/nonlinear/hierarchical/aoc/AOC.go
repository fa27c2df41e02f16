// Package aoc implements the Asynchronous Advantage Option-Critic
// agent with proximal policy updates. The agent learns a set of
// options: temporally extended sub-policies, each with its own value
// estimate and termination probability, all predicted by a shared
// option-critic network. Options are held across time steps until a
// sampled termination ends them, with a deliberation cost charged to
// the reward whenever an option switch occurs.
//
// Policy, value, and termination heads are updated jointly with a
// PPO-style clipped surrogate objective augmented by an adaptive KL
// penalty, a clipped value loss, and a termination loss weighted by
// the advantage of switching options.
package aoc

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"sfneuman.com/a2oc/agent"
	"sfneuman.com/a2oc/environment"
	"sfneuman.com/a2oc/network"
	"sfneuman.com/a2oc/solver"
	"sfneuman.com/a2oc/utils/floatutils"
)

// pendingStep records everything the agent must remember about one
// SelectActions call until the resulting transition is stored
type pendingStep struct {
	values      []float64
	logProbs    []float64
	betaAdv     []float64
	lastOptions []int
	options     []int
	ocMask      []bool // true when the option was held (no switch)
	nextCell    RecurrentState
	consumed    bool
}

// Consumed implements the agent.PendingStep interface
func (p *pendingStep) Consumed() bool {
	return p.consumed
}

// AOC implements the option-critic agent. It interacts with every
// copy of a vectorized environment at once and updates its networks
// from fixed-horizon batches of trajectories.
//
// The agent holds two copies of the option-critic network: a
// prediction network with one input row per environment copy, used
// for action selection, and a training network whose batch covers an
// entire collected trajectory batch. After each Learn call the
// prediction network is synchronized with the training network.
type AOC struct {
	policyType agent.PolicyType
	set        settings

	numAgents  int
	obsDims    int
	actionDims int // per-option parameter count: action dims or logits

	// Per-agent option state
	options  []int
	doneMask []bool
	cell     RecurrentState

	sampler   *actionSampler
	evaluator Evaluator

	predNet  network.NeuralNet
	trainNet network.NeuralNet
	logStd   *G.Node // [options, actionDims], Gaussian policies only
	sol      *solver.Solver
	vm       G.VM
	model    []G.ValueGrad

	// Training graph inputs
	inActions     *G.Node
	inOptions     *G.Node // one-hot options
	inOptionsWide *G.Node // one-hot options, repeated per action dim
	inLastOptions *G.Node // one-hot previously held options
	inOldLogProb  *G.Node
	inAdvantage   *G.Node
	inReturns     *G.Node
	inOldValue    *G.Node
	inBetaAdv     *G.Node
	inKeepMask    *G.Node // nil unless terminal masking is enabled
	inKLCoef      *G.Node

	// Training graph read-back values
	lossVal     G.Value
	piLossVal   G.Value
	qLossVal    G.Value
	betaLossVal G.Value
	entropyVal  G.Value
	klVal       G.Value

	buffer *trajectoryBuffer
	kl     *klController
}

// newAOC returns a new AOC agent from networks constructed by a
// Config. The training network's weights are copied into the
// prediction network so that both start identical.
func newAOC(env environment.Environment, policyType agent.PolicyType,
	set settings, trainNet, predNet network.NeuralNet, logStdInit float64,
	sol *solver.Solver, seed uint64) (*AOC, error) {
	if err := set.validate(); err != nil {
		return nil, fmt.Errorf("newAOC: %v", err)
	}
	if sol == nil {
		return nil, fmt.Errorf("newAOC: no solver given")
	}

	numAgents := env.N()
	if predNet.BatchSize() != numAgents {
		return nil, fmt.Errorf("newAOC: invalid prediction network "+
			"batch size \n\twant(%v) \n\thave(%v)", numAgents,
			predNet.BatchSize())
	}
	if trainNet.BatchSize() != set.horizon*numAgents {
		return nil, fmt.Errorf("newAOC: invalid training network "+
			"batch size \n\twant(%v) \n\thave(%v)",
			set.horizon*numAgents, trainNet.BatchSize())
	}

	var actionDims int
	switch policyType {
	case agent.Gaussian:
		actionDims = env.ActionSpec().Dims
	case agent.Categorical:
		actionDims = int(env.ActionSpec().UpperBound) + 1
	default:
		return nil, fmt.Errorf("newAOC: unknown policy type %v",
			policyType)
	}

	kl, err := newKLController(set.klTarget, set.klBetaLow,
		set.klBetaHigh, set.klCutoffMult, set.klStopMult, set.klAlpha,
		set.klCoef)
	if err != nil {
		return nil, fmt.Errorf("newAOC: %v", err)
	}

	if err := network.Set(predNet, trainNet); err != nil {
		return nil, fmt.Errorf("newAOC: could not synchronize "+
			"networks: %v", err)
	}

	a := &AOC{
		policyType: policyType,
		set:        set,
		numAgents:  numAgents,
		obsDims:    env.ObservationSpec().Dims,
		actionDims: actionDims,
		options:    make([]int, numAgents),
		doneMask:   make([]bool, numAgents),
		sampler:    newActionSampler(policyType, actionDims, seed),
		evaluator:  newNetEvaluator(predNet, set.options, actionDims),
		predNet:    predNet,
		trainNet:   trainNet,
		sol:        sol,
		kl:         kl,
		buffer: newTrajectoryBuffer(set.horizon, numAgents,
			env.ObservationSpec().Dims, actionDims),
	}

	if policyType == agent.Gaussian {
		a.logStd = G.NewMatrix(
			trainNet.Graph(),
			tensor.Float64,
			G.WithShape(set.options, actionDims),
			G.WithName("logStd"),
			G.WithInit(G.ValuesOf(logStdInit)),
		)
	}

	if err := a.buildTrainGraph(); err != nil {
		return nil, fmt.Errorf("newAOC: could not build training "+
			"graph: %v", err)
	}

	a.Reset()
	return a, nil
}

// buildTrainGraph adds the loss computation to the training network's
// graph and compiles the VM that runs gradient steps
func (a *AOC) buildTrainGraph() error {
	g := a.trainNet.Graph()
	batch := a.set.horizon * a.numAgents
	numOptions := a.set.options

	q := a.trainNet.Prediction()[0]
	pi := a.trainNet.Prediction()[1]
	beta := a.trainNet.Prediction()[2]

	a.inOptions = G.NewMatrix(g, tensor.Float64,
		G.WithShape(batch, numOptions), G.WithName("optionsOneHot"),
		G.WithInit(G.Zeroes()))
	a.inOptionsWide = G.NewMatrix(g, tensor.Float64,
		G.WithShape(batch, numOptions*a.actionDims),
		G.WithName("optionsOneHotWide"), G.WithInit(G.Zeroes()))
	a.inLastOptions = G.NewMatrix(g, tensor.Float64,
		G.WithShape(batch, numOptions),
		G.WithName("lastOptionsOneHot"), G.WithInit(G.Zeroes()))
	a.inActions = G.NewMatrix(g, tensor.Float64,
		G.WithShape(batch, a.actionDims), G.WithName("actions"),
		G.WithInit(G.Zeroes()))

	a.inOldLogProb = G.NewVector(g, tensor.Float64, G.WithShape(batch),
		G.WithName("oldLogProb"), G.WithInit(G.Zeroes()))
	a.inAdvantage = G.NewVector(g, tensor.Float64, G.WithShape(batch),
		G.WithName("advantage"), G.WithInit(G.Zeroes()))
	a.inReturns = G.NewVector(g, tensor.Float64, G.WithShape(batch),
		G.WithName("discountedReturn"), G.WithInit(G.Zeroes()))
	a.inOldValue = G.NewVector(g, tensor.Float64, G.WithShape(batch),
		G.WithName("oldValue"), G.WithInit(G.Zeroes()))
	a.inBetaAdv = G.NewVector(g, tensor.Float64, G.WithShape(batch),
		G.WithName("betaAdvantage"), G.WithInit(G.Zeroes()))
	if a.set.terminalMask {
		a.inKeepMask = G.NewVector(g, tensor.Float64,
			G.WithShape(batch), G.WithName("keepMask"),
			G.WithInit(G.Zeroes()))
	}
	a.inKLCoef = G.NewScalar(g, tensor.Float64, G.WithName("klCoef"),
		G.WithValue(a.kl.coefficient()))

	// Gather the values of the acting options and the termination
	// probabilities of the previously held options
	qSel, err := gather(q, a.inOptions)
	if err != nil {
		return fmt.Errorf("could not gather option values: %v", err)
	}
	betaSel, err := gather(beta, a.inLastOptions)
	if err != nil {
		return fmt.Errorf("could not gather termination "+
			"probabilities: %v", err)
	}

	// Gather the acting options' distribution parameters: mask the
	// flat policy head with the widened one-hot, then collapse the
	// option axis
	piMasked, err := G.HadamardProd(pi, a.inOptionsWide)
	if err != nil {
		return fmt.Errorf("could not mask policy parameters: %v", err)
	}
	piGrouped, err := G.Reshape(piMasked,
		tensor.Shape{batch, numOptions, a.actionDims})
	if err != nil {
		return fmt.Errorf("could not group policy parameters by "+
			"option: %v", err)
	}
	params, err := G.Sum(piGrouped, 1)
	if err != nil {
		return fmt.Errorf("could not gather policy parameters: %v", err)
	}

	var newLogProb, entropy *G.Node
	if a.policyType == agent.Gaussian {
		selLogStd, err := G.Mul(a.inOptions, a.logStd)
		if err != nil {
			return fmt.Errorf("could not gather log standard "+
				"deviations: %v", err)
		}
		std, err := G.Exp(selLogStd)
		if err != nil {
			return fmt.Errorf("could not compute standard "+
				"deviations: %v", err)
		}

		newLogProb, err = gaussianLogProbSum(a.inActions, params,
			selLogStd, std)
		if err != nil {
			return fmt.Errorf("could not compute log "+
				"probabilities: %v", err)
		}
		entropy, err = gaussianEntropy(selLogStd)
		if err != nil {
			return fmt.Errorf("could not compute entropy: %v", err)
		}
	} else {
		var logPAll *G.Node
		newLogProb, logPAll, err = categoricalLogProb(params, a.inActions)
		if err != nil {
			return fmt.Errorf("could not compute log "+
				"probabilities: %v", err)
		}
		entropy, err = categoricalEntropy(logPAll)
		if err != nil {
			return fmt.Errorf("could not compute entropy: %v", err)
		}
	}

	logProbDiff, err := G.Sub(newLogProb, a.inOldLogProb)
	if err != nil {
		return fmt.Errorf("could not compute log probability "+
			"difference: %v", err)
	}
	ratio, err := G.Exp(logProbDiff)
	if err != nil {
		return fmt.Errorf("could not compute importance ratio: %v", err)
	}

	kl, err := klEstimate(a.inOldLogProb, newLogProb, a.set.klReverse)
	if err != nil {
		return fmt.Errorf("could not estimate KL divergence: %v", err)
	}

	surrogate, err := clippedSurrogateLoss(ratio, a.inAdvantage,
		a.set.clipEps)
	if err != nil {
		return fmt.Errorf("could not compute surrogate loss: %v", err)
	}
	penalty, err := klPenalty(kl, a.inKLCoef, a.kl.cutoff)
	if err != nil {
		return fmt.Errorf("could not compute KL penalty: %v", err)
	}
	piLoss, err := G.Add(surrogate, penalty)
	if err != nil {
		return fmt.Errorf("could not compute policy loss: %v", err)
	}

	qLoss, err := clippedValueLoss(a.inReturns, qSel, a.inOldValue,
		a.set.valueClipEps)
	if err != nil {
		return fmt.Errorf("could not compute value loss: %v", err)
	}

	betaLoss, err := terminationLoss(betaSel, a.inBetaAdv, a.inKeepMask)
	if err != nil {
		return fmt.Errorf("could not compute termination loss: %v", err)
	}

	entropyBonus, err := G.HadamardProd(
		G.NewConstant(a.set.entropyCoef), entropy)
	if err != nil {
		return fmt.Errorf("could not scale entropy bonus: %v", err)
	}

	loss, err := G.Add(piLoss, qLoss)
	if err != nil {
		return fmt.Errorf("could not compute total loss: %v", err)
	}
	loss, err = G.Add(loss, betaLoss)
	if err != nil {
		return fmt.Errorf("could not compute total loss: %v", err)
	}
	loss, err = G.Sub(loss, entropyBonus)
	if err != nil {
		return fmt.Errorf("could not compute total loss: %v", err)
	}

	G.Read(loss, &a.lossVal)
	G.Read(piLoss, &a.piLossVal)
	G.Read(qLoss, &a.qLossVal)
	G.Read(betaLoss, &a.betaLossVal)
	G.Read(entropy, &a.entropyVal)
	G.Read(kl, &a.klVal)

	learnables := append(G.Nodes{}, a.trainNet.Learnables()...)
	a.model = append([]G.ValueGrad{}, a.trainNet.Model()...)
	if a.logStd != nil {
		learnables = append(learnables, a.logStd)
		a.model = append(a.model, a.logStd)
	}

	if _, err := G.Grad(loss, learnables...); err != nil {
		return fmt.Errorf("could not compute gradient: %v", err)
	}

	a.vm = G.NewTapeMachine(g, G.BindDualValues(learnables...))
	return nil
}

// gather selects one column per row of values using a one-hot mask
func gather(values, oneHot *G.Node) (*G.Node, error) {
	masked, err := G.HadamardProd(values, oneHot)
	if err != nil {
		return nil, err
	}
	return G.Sum(masked, 1)
}

// Reset marks every environment copy as having just ended its episode
// so that each agent's option is redrawn at the next SelectActions.
func (a *AOC) Reset() {
	for i := range a.doneMask {
		a.doneMask[i] = true
	}
	a.cell = nil
}

// PartialReset sets the per-agent episode-end flags. Agents flagged
// done have their option redrawn at the next SelectActions.
func (a *AOC) PartialReset(done []bool) error {
	if len(done) != a.numAgents {
		return fmt.Errorf("partialReset: invalid number of done "+
			"flags \n\twant(%v) \n\thave(%v)", a.numAgents, len(done))
	}
	copy(a.doneMask, done)
	return nil
}

// SelectActions selects one action per environment copy for the
// argument batch of observations, one row per copy.
//
// For each agent, the option redrawn or carried over from the
// previous step acts: an action is sampled from that option's policy
// and the option's value, log probability, and termination advantage
// are recorded in the returned PendingStep. The termination gate then
// decides the option for the next step: with probability
// beta(option) the held option ends and the greedy option under Q
// takes its place. Agents whose episode just ended skip the gate and
// always re-pick greedily.
func (a *AOC) SelectActions(obs *mat.Dense) (*mat.Dense,
	agent.PendingStep, error) {
	rows, cols := obs.Dims()
	if rows != a.numAgents || cols != a.obsDims {
		return nil, nil, fmt.Errorf("selectActions: invalid "+
			"observation dimensions \n\twant(%v x %v) \n\thave(%v x %v)",
			a.numAgents, a.obsDims, rows, cols)
	}

	fwd, nextCell, err := a.evaluator.Evaluate(matToSlice(obs), a.cell)
	if err != nil {
		return nil, nil, fmt.Errorf("selectActions: %v", err)
	}

	var logStdTable []float64
	if a.policyType == agent.Gaussian {
		logStdTable = a.logStd.Value().Data().([]float64)
	}

	actionCols := a.actionDims
	if a.policyType == agent.Categorical {
		actionCols = 1
	}
	actions := mat.NewDense(a.numAgents, actionCols, nil)

	p := &pendingStep{
		values:      make([]float64, a.numAgents),
		logProbs:    make([]float64, a.numAgents),
		betaAdv:     make([]float64, a.numAgents),
		lastOptions: make([]int, a.numAgents),
		options:     make([]int, a.numAgents),
		ocMask:      make([]bool, a.numAgents),
		nextCell:    nextCell,
	}

	for i := 0; i < a.numAgents; i++ {
		if a.doneMask[i] {
			a.options[i] = a.sampler.randomOption(a.set.options)
		}
		o := a.options[i]
		p.lastOptions[i] = o

		q := fwd.Q(i)
		var logStd []float64
		if logStdTable != nil {
			logStd = logStdTable[o*a.actionDims : (o+1)*a.actionDims]
		}

		action, logProb := a.sampler.sample(fwd.Params(i, o), logStd)
		actions.SetRow(i, action)

		p.values[i] = q[o]
		p.logProbs[i] = logProb + logProbGuard
		p.betaAdv[i] = betaAdvantage(q, o, a.set.optionEps) +
			a.set.deliberationCost

		greedy := floatutils.ArgMax(q...)
		next := o
		if a.sampler.terminates(fwd.Beta(i, o)) {
			next = greedy
		}
		if a.doneMask[i] {
			// Freshly reset agents re-pick greedily regardless of
			// the termination sample
			next = greedy
		}
		a.doneMask[i] = false

		p.ocMask[i] = next == o
		p.options[i] = next
		a.options[i] = next
	}

	return actions, p, nil
}

// Store records a completed environment transition. The PendingStep
// must be the one returned by the SelectActions call that produced
// the actions, and is consumed by the call: storing it twice is an
// error. Rewards are charged the deliberation cost wherever an option
// switch occurred.
func (a *AOC) Store(step agent.PendingStep, obs, actions *mat.Dense,
	rewards []float64, nextObs *mat.Dense, done []bool) error {
	p, ok := step.(*pendingStep)
	if !ok || p == nil {
		return fmt.Errorf("store: pending step was not produced by " +
			"this agent")
	}
	if p.consumed {
		return fmt.Errorf("store: pending step already stored")
	}

	if err := a.checkDims(obs, "observation"); err != nil {
		return err
	}
	if err := a.checkDims(nextObs, "next observation"); err != nil {
		return err
	}
	if len(rewards) != a.numAgents {
		return fmt.Errorf("store: invalid number of rewards "+
			"\n\twant(%v) \n\thave(%v)", a.numAgents, len(rewards))
	}
	if len(done) != a.numAgents {
		return fmt.Errorf("store: invalid number of done flags "+
			"\n\twant(%v) \n\thave(%v)", a.numAgents, len(done))
	}
	actionRows, _ := actions.Dims()
	if actionRows != a.numAgents {
		return fmt.Errorf("store: invalid number of actions "+
			"\n\twant(%v) \n\thave(%v)", a.numAgents, actionRows)
	}

	// Charge the deliberation cost wherever the option changed
	adjusted := make([]float64, a.numAgents)
	for i, reward := range rewards {
		adjusted[i] = reward
		if !p.ocMask[i] {
			adjusted[i] -= a.set.deliberationCost
		}
	}

	doneCopy := make([]bool, a.numAgents)
	copy(doneCopy, done)

	err := a.buffer.store(matToSlice(obs), a.storedActions(actions),
		matToSlice(nextObs), adjusted, p.values, p.logProbs, p.betaAdv,
		p.lastOptions, p.options, doneCopy, p.nextCell)
	if err != nil {
		return fmt.Errorf("store: %v", err)
	}

	a.cell = p.nextCell
	p.consumed = true
	return nil
}

// checkDims validates that a matrix has one row per environment copy
// and one column per observation feature
func (a *AOC) checkDims(m *mat.Dense, name string) error {
	rows, cols := m.Dims()
	if rows != a.numAgents || cols != a.obsDims {
		return fmt.Errorf("store: invalid %v dimensions "+
			"\n\twant(%v x %v) \n\thave(%v x %v)", name, a.numAgents,
			a.obsDims, rows, cols)
	}
	return nil
}

// storedActions converts an action matrix to the representation the
// training graph consumes: raw action vectors for Gaussian policies
// and one-hot encodings for categorical ones.
func (a *AOC) storedActions(actions *mat.Dense) []float64 {
	if a.policyType == agent.Gaussian {
		return matToSlice(actions)
	}

	oneHot := make([]float64, a.numAgents*a.actionDims)
	for i := 0; i < a.numAgents; i++ {
		action := int(actions.At(i, 0))
		oneHot[i*a.actionDims+action] = 1.0
	}
	return oneHot
}

// Learn updates the agent from the transitions stored since the last
// call. The time step horizon must be fully collected first. Training
// runs for up to the configured number of epochs, each one full-batch
// gradient step, stopping early when the realized KL divergence grows
// too far past the target. Afterwards the KL penalty coefficient is
// adapted and the prediction network is synchronized with the updated
// training network.
func (a *AOC) Learn() (agent.Summary, error) {
	if !a.buffer.full() {
		return nil, fmt.Errorf("learn: collected %v of %v time steps",
			a.buffer.pos, a.set.horizon)
	}

	bootstrap, err := a.bootstrapValues()
	if err != nil {
		return nil, fmt.Errorf("learn: could not bootstrap final "+
			"values: %v", err)
	}
	err = a.buffer.computeReturns(a.set.gamma, a.set.lambda, bootstrap)
	if err != nil {
		return nil, fmt.Errorf("learn: %v", err)
	}

	if err := a.setTrainInputs(); err != nil {
		return nil, fmt.Errorf("learn: could not set training "+
			"inputs: %v", err)
	}

	info, earlyStep, err := runEpochs(a.set.epochs, a.kl.shouldStop,
		a.trainStep)
	if err != nil {
		return nil, fmt.Errorf("learn: %v", err)
	}

	coef := a.kl.adapt(info.KL)

	if err := network.Set(a.predNet, a.trainNet); err != nil {
		return nil, fmt.Errorf("learn: could not synchronize "+
			"prediction network: %v", err)
	}

	a.buffer.reset()

	return agent.Summary{
		"loss":       info.Loss,
		"pi_loss":    info.PiLoss,
		"q_loss":     info.QLoss,
		"beta_loss":  info.BetaLoss,
		"entropy":    info.Entropy,
		"kl":         info.KL,
		"kl_coef":    coef,
		"early_step": float64(earlyStep),
	}, nil
}

// bootstrapValues evaluates the prediction network on the final next
// observations and returns each agent's value under the option it
// held after its final stored step.
func (a *AOC) bootstrapValues() ([]float64, error) {
	fwd, _, err := a.evaluator.Evaluate(a.buffer.lastNextObs(), a.cell)
	if err != nil {
		return nil, err
	}

	options := a.buffer.finalOptions()
	values := make([]float64, a.numAgents)
	for i := range values {
		values[i] = fwd.Q(i)[options[i]]
	}
	return values, nil
}

// setTrainInputs feeds the collected batch into the training graph's
// input nodes
func (a *AOC) setTrainInputs() error {
	batch := a.set.horizon * a.numAgents

	if err := a.trainNet.SetInput(flatten(a.buffer.obs)); err != nil {
		return err
	}

	options := flattenInts(a.buffer.options)
	lastOptions := flattenInts(a.buffer.lastOptions)

	err := letMatrix(a.inActions, flatten(a.buffer.actions), batch,
		a.actionDims)
	if err != nil {
		return err
	}
	err = letMatrix(a.inOptions, oneHot(options, a.set.options), batch,
		a.set.options)
	if err != nil {
		return err
	}
	err = letMatrix(a.inOptionsWide,
		oneHotWide(options, a.set.options, a.actionDims), batch,
		a.set.options*a.actionDims)
	if err != nil {
		return err
	}
	err = letMatrix(a.inLastOptions, oneHot(lastOptions, a.set.options),
		batch, a.set.options)
	if err != nil {
		return err
	}

	err = letVector(a.inOldLogProb, flatten(a.buffer.logProbs))
	if err != nil {
		return err
	}
	err = letVector(a.inAdvantage, flatten(a.buffer.advantages))
	if err != nil {
		return err
	}
	err = letVector(a.inReturns, flatten(a.buffer.returns))
	if err != nil {
		return err
	}
	err = letVector(a.inOldValue, flatten(a.buffer.values))
	if err != nil {
		return err
	}
	err = letVector(a.inBetaAdv, flatten(a.buffer.betaAdv))
	if err != nil {
		return err
	}
	if a.inKeepMask != nil {
		err = letVector(a.inKeepMask, flattenBools(a.buffer.done))
		if err != nil {
			return err
		}
	}

	return nil
}

// trainStep runs one full-batch gradient step and returns its
// statistics
func (a *AOC) trainStep() (LossInfo, error) {
	err := G.Let(a.inKLCoef, a.kl.coefficient())
	if err != nil {
		return LossInfo{}, fmt.Errorf("trainStep: could not set KL "+
			"coefficient: %v", err)
	}

	if err := a.vm.RunAll(); err != nil {
		return LossInfo{}, fmt.Errorf("trainStep: could not run "+
			"training step: %v", err)
	}
	if err := a.sol.Step(a.model); err != nil {
		return LossInfo{}, fmt.Errorf("trainStep: could not update "+
			"weights: %v", err)
	}

	info := LossInfo{
		Loss:     scalar(a.lossVal),
		PiLoss:   scalar(a.piLossVal),
		QLoss:    scalar(a.qLossVal),
		BetaLoss: scalar(a.betaLossVal),
		Entropy:  scalar(a.entropyVal),
		KL:       scalar(a.klVal),
	}
	a.vm.Reset()

	return info, nil
}

// scalar extracts the float64 held by a scalar graph value
func scalar(v G.Value) float64 {
	return v.Data().(float64)
}

// matToSlice returns a copy of the matrix data in row-major order
func matToSlice(m *mat.Dense) []float64 {
	rows, cols := m.Dims()
	out := make([]float64, rows*cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			out[i*cols+j] = m.At(i, j)
		}
	}
	return out
}

// oneHot encodes each index as a one-hot row of the given width
func oneHot(indices []int, width int) []float64 {
	out := make([]float64, len(indices)*width)
	for i, index := range indices {
		out[i*width+index] = 1.0
	}
	return out
}

// oneHotWide encodes each index as a one-hot row of the given width
// with every element repeated repeat times in place
func oneHotWide(indices []int, width, repeat int) []float64 {
	out := make([]float64, len(indices)*width*repeat)
	for i, index := range indices {
		start := i*width*repeat + index*repeat
		for j := 0; j < repeat; j++ {
			out[start+j] = 1.0
		}
	}
	return out
}

// letMatrix binds a row-major backing slice to a matrix input node
func letMatrix(node *G.Node, data []float64, rows, cols int) error {
	return G.Let(node, tensor.New(
		tensor.WithBacking(data),
		tensor.WithShape(rows, cols),
	))
}

// letVector binds a backing slice to a vector input node
func letVector(node *G.Node, data []float64) error {
	return G.Let(node, tensor.New(
		tensor.WithBacking(data),
		tensor.WithShape(len(data)),
	))
}
