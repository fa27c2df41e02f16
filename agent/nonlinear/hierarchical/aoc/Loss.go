package aoc

import (
	"math"

	G "gorgonia.org/gorgonia"

	"sfneuman.com/a2oc/utils/op"
)

// klEstimate returns the mean KL divergence estimated from the old
// and new log probabilities of the sampled actions. When reverse is
// true the direction of the estimate is flipped.
func klEstimate(oldLogProb, newLogProb *G.Node,
	reverse bool) (*G.Node, error) {
	var diff *G.Node
	var err error
	if reverse {
		diff, err = G.Sub(newLogProb, oldLogProb)
	} else {
		diff, err = G.Sub(oldLogProb, newLogProb)
	}
	if err != nil {
		return nil, err
	}

	return G.Mean(diff)
}

// clippedSurrogateLoss returns the negated clipped surrogate policy
// objective: the mean over samples of the minimum of the unclipped
// and clipped importance-weighted advantages.
func clippedSurrogateLoss(ratio, advantage *G.Node,
	eps float64) (*G.Node, error) {
	surrogate, err := G.HadamardProd(ratio, advantage)
	if err != nil {
		return nil, err
	}

	clippedRatio, err := op.Clip(ratio, 1-eps, 1+eps)
	if err != nil {
		return nil, err
	}
	clippedSurrogate, err := G.HadamardProd(clippedRatio, advantage)
	if err != nil {
		return nil, err
	}

	pessimistic, err := op.Min(surrogate, clippedSurrogate)
	if err != nil {
		return nil, err
	}
	mean, err := G.Mean(pessimistic)
	if err != nil {
		return nil, err
	}

	return G.Neg(mean)
}

// klPenalty returns the adaptive KL penalty term coef * kl plus a
// fixed quadratic penalty on the amount by which kl exceeds cutoff.
func klPenalty(kl, coef *G.Node, cutoff float64) (*G.Node, error) {
	penalty, err := G.HadamardProd(coef, kl)
	if err != nil {
		return nil, err
	}

	excess, err := G.Sub(kl, G.NewConstant(cutoff))
	if err != nil {
		return nil, err
	}
	excess, err = op.Max(excess, G.NewConstant(0.0))
	if err != nil {
		return nil, err
	}
	excess, err = G.Square(excess)
	if err != nil {
		return nil, err
	}
	excess, err = G.HadamardProd(G.NewConstant(1000.0), excess)
	if err != nil {
		return nil, err
	}

	return G.Add(penalty, excess)
}

// clippedValueLoss returns the clipped value loss: half the mean of
// the elementwise maximum of the squared TD errors of the value
// predictions and of the predictions clipped to within eps of the
// values recorded at collection time.
func clippedValueLoss(returns, value, oldValue *G.Node,
	eps float64) (*G.Node, error) {
	diff, err := G.Sub(value, oldValue)
	if err != nil {
		return nil, err
	}
	diff, err = op.Clip(diff, -eps, eps)
	if err != nil {
		return nil, err
	}
	clippedValue, err := G.Add(oldValue, diff)
	if err != nil {
		return nil, err
	}

	tdErr, err := G.Sub(returns, value)
	if err != nil {
		return nil, err
	}
	tdErr, err = G.Square(tdErr)
	if err != nil {
		return nil, err
	}

	clippedTDErr, err := G.Sub(returns, clippedValue)
	if err != nil {
		return nil, err
	}
	clippedTDErr, err = G.Square(clippedTDErr)
	if err != nil {
		return nil, err
	}

	pessimistic, err := op.Max(tdErr, clippedTDErr)
	if err != nil {
		return nil, err
	}
	mean, err := G.Mean(pessimistic)
	if err != nil {
		return nil, err
	}

	return G.HadamardProd(G.NewConstant(0.5), mean)
}

// terminationLoss returns the mean termination objective: the
// termination probabilities of the previously held options weighted
// by the stored termination advantages. A non-nil keepMask zeroes the
// contribution of terminal transitions.
func terminationLoss(betaSel, betaAdv, keepMask *G.Node) (*G.Node, error) {
	weighted, err := G.HadamardProd(betaSel, betaAdv)
	if err != nil {
		return nil, err
	}

	if keepMask != nil {
		weighted, err = G.HadamardProd(weighted, keepMask)
		if err != nil {
			return nil, err
		}
	}

	return G.Mean(weighted)
}

// logSumExp calculates the log of the summation of exponentials of
// all logits along the given axis in a numerically stable way
func logSumExp(logits *G.Node, along int) (*G.Node, error) {
	max, err := G.Max(logits, along)
	if err != nil {
		return nil, err
	}

	exponent, err := G.BroadcastSub(logits, max, nil, []byte{byte(along)})
	if err != nil {
		return nil, err
	}
	exponent, err = G.Exp(exponent)
	if err != nil {
		return nil, err
	}

	sum, err := G.Sum(exponent, along)
	if err != nil {
		return nil, err
	}
	log, err := G.Log(sum)
	if err != nil {
		return nil, err
	}

	return G.Add(log, max)
}

// gaussianLogProbSum returns the log probabilities of the argument
// actions under diagonal Gaussian policies with the argument means and
// log standard deviations, summed over action dimensions.
func gaussianLogProbSum(actions, mean, logStd,
	std *G.Node) (*G.Node, error) {
	diff, err := G.Sub(actions, mean)
	if err != nil {
		return nil, err
	}
	z, err := G.HadamardDiv(diff, std)
	if err != nil {
		return nil, err
	}
	z, err = G.Square(z)
	if err != nil {
		return nil, err
	}

	logProb, err := G.HadamardProd(G.NewConstant(0.5), z)
	if err != nil {
		return nil, err
	}
	logProb, err = G.Add(logProb, logStd)
	if err != nil {
		return nil, err
	}
	logProb, err = G.Add(logProb,
		G.NewConstant(0.5*math.Log(2*math.Pi)))
	if err != nil {
		return nil, err
	}
	logProb, err = G.Neg(logProb)
	if err != nil {
		return nil, err
	}

	return G.Sum(logProb, 1)
}

// gaussianEntropy returns the mean entropy of diagonal Gaussian
// policies with the argument log standard deviations, summed over
// action dimensions.
func gaussianEntropy(logStd *G.Node) (*G.Node, error) {
	inner, err := G.HadamardProd(G.NewConstant(2.0), logStd)
	if err != nil {
		return nil, err
	}
	inner, err = G.Add(inner,
		G.NewConstant(1+math.Log(2*math.Pi)))
	if err != nil {
		return nil, err
	}

	sum, err := G.Sum(inner, 1)
	if err != nil {
		return nil, err
	}
	mean, err := G.Mean(sum)
	if err != nil {
		return nil, err
	}

	return G.HadamardProd(G.NewConstant(0.5), mean)
}

// categoricalLogProb returns the log probabilities of the argument
// one-hot actions under softmax policies with the argument logits,
// together with the full log probability table.
func categoricalLogProb(logits, actionsOneHot *G.Node) (*G.Node,
	*G.Node, error) {
	lse, err := logSumExp(logits, 1)
	if err != nil {
		return nil, nil, err
	}

	logPAll, err := G.BroadcastSub(logits, lse, nil, []byte{1})
	if err != nil {
		return nil, nil, err
	}

	selected, err := G.HadamardProd(logPAll, actionsOneHot)
	if err != nil {
		return nil, nil, err
	}
	logProb, err := G.Sum(selected, 1)
	if err != nil {
		return nil, nil, err
	}

	return logProb, logPAll, nil
}

// categoricalEntropy returns the mean entropy of softmax policies
// with the argument log probability table
func categoricalEntropy(logPAll *G.Node) (*G.Node, error) {
	prob, err := G.Exp(logPAll)
	if err != nil {
		return nil, err
	}
	weighted, err := G.HadamardProd(prob, logPAll)
	if err != nil {
		return nil, err
	}

	sum, err := G.Sum(weighted, 1)
	if err != nil {
		return nil, err
	}
	mean, err := G.Mean(sum)
	if err != nil {
		return nil, err
	}

	return G.Neg(mean)
}
