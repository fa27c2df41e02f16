package aoc

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"
	"gonum.org/v1/gonum/stat/distuv"

	"sfneuman.com/a2oc/agent"
	"sfneuman.com/a2oc/utils/floatutils"
)

// logProbGuard is added to every stored log probability so that the
// importance ratio stays finite even when a clipped continuous action
// lands far in the tail of its sampling distribution.
const logProbGuard = 1e-10

// betaAdvantage returns the advantage of option o over the
// epsilon-soft maximum of the option values q: how much better the
// held option is than what an epsilon-greedy selection over options
// expects to achieve.
func betaAdvantage(q []float64, o int, eps float64) float64 {
	expected := (1-eps)*floatutils.Max(q...) + eps*floatutils.Mean(q...)
	return q[o] - expected
}

// actionSampler samples actions from intra-option policies and
// terminations from option termination distributions.
type actionSampler struct {
	policyType agent.PolicyType
	actionDims int

	rng     *rand.Rand
	stdNorm distmv.Rander // standard normal, actionDims dimensions
	uniform distuv.Uniform
}

func newActionSampler(policyType agent.PolicyType, actionDims int,
	seed uint64) *actionSampler {
	source := rand.NewSource(seed)
	rng := rand.New(source)

	var stdNorm distmv.Rander
	if policyType == agent.Gaussian {
		means := make([]float64, actionDims)
		stds := mat.NewDiagDense(actionDims, floatutils.Ones(actionDims))
		normal, ok := distmv.NewNormal(means, stds, source)
		if !ok {
			panic("newActionSampler: could not create standard normal " +
				"for action selection")
		}
		stdNorm = normal
	}

	return &actionSampler{
		policyType: policyType,
		actionDims: actionDims,
		rng:        rng,
		stdNorm:    stdNorm,
		uniform:    distuv.Uniform{Min: 0, Max: 1, Src: source},
	}
}

// randomOption returns an option drawn uniformly at random from
// [0, options)
func (s *actionSampler) randomOption(options int) int {
	return s.rng.Intn(options)
}

// terminates samples the termination of an option with termination
// probability beta
func (s *actionSampler) terminates(beta float64) bool {
	return s.uniform.Rand() < beta
}

// sample draws one action from the policy with the argument
// parameters and returns it with its log probability. For Gaussian
// policies params holds the mean and logStd the per-dimension log
// standard deviations; actions are clipped to [-1, 1] and the log
// probability is that of the clipped action. For categorical policies
// params holds the logits, logStd is ignored, and the returned action
// is a single index.
func (s *actionSampler) sample(params, logStd []float64) ([]float64,
	float64) {
	if s.policyType == agent.Gaussian {
		return s.sampleGaussian(params, logStd)
	}
	return s.sampleCategorical(params)
}

func (s *actionSampler) sampleGaussian(mean, logStd []float64) ([]float64,
	float64) {
	noise := s.stdNorm.Rand(nil)

	action := make([]float64, s.actionDims)
	logProb := 0.0
	for j := range action {
		std := math.Exp(logStd[j])
		action[j] = floatutils.Clip(mean[j]+std*noise[j], -1.0, 1.0)

		z := (action[j] - mean[j]) / std
		logProb += -0.5*z*z - logStd[j] - 0.5*math.Log(2*math.Pi)
	}

	return action, logProb
}

func (s *actionSampler) sampleCategorical(logits []float64) ([]float64,
	float64) {
	// Log-softmax, stabilized by the max logit
	max := floatutils.Max(logits...)
	sumExp := 0.0
	for _, logit := range logits {
		sumExp += math.Exp(logit - max)
	}
	logSumExp := math.Log(sumExp) + max

	probs := make([]float64, len(logits))
	for i, logit := range logits {
		probs[i] = math.Exp(logit - logSumExp)
	}

	action := s.sampleIndex(probs)
	return []float64{float64(action)}, logits[action] - logSumExp
}

// sampleIndex samples an index of probs proportionally to its weight
func (s *actionSampler) sampleIndex(probs []float64) int {
	u := s.uniform.Rand()
	cumulative := 0.0
	for i, p := range probs {
		cumulative += p
		if u < cumulative {
			return i
		}
	}
	return len(probs) - 1
}
