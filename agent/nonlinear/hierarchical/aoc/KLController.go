package aoc

import "fmt"

// klController holds the adaptive coefficient of the KL penalty term
// and the thresholds derived from the KL target.
type klController struct {
	target float64
	low    float64 // target * betaLow
	high   float64 // target * betaHigh
	cutoff float64 // target * cutoffMult
	stop   float64 // target * stopMult
	alpha  float64
	coef   float64
}

func newKLController(target, betaLow, betaHigh, cutoffMult, stopMult,
	alpha, coef float64) (*klController, error) {
	if target <= 0 {
		return nil, fmt.Errorf("newKLController: KL target must be "+
			"positive \n\thave(%v)", target)
	}
	if betaLow >= betaHigh {
		return nil, fmt.Errorf("newKLController: low band multiplier "+
			"must be below high \n\tlow(%v) \n\thigh(%v)", betaLow,
			betaHigh)
	}
	if alpha <= 1 {
		return nil, fmt.Errorf("newKLController: adaptation factor "+
			"must exceed 1 \n\thave(%v)", alpha)
	}

	return &klController{
		target: target,
		low:    target * betaLow,
		high:   target * betaHigh,
		cutoff: target * cutoffMult,
		stop:   target * stopMult,
		alpha:  alpha,
		coef:   coef,
	}, nil
}

// coefficient returns the current KL penalty coefficient
func (k *klController) coefficient() float64 {
	return k.coef
}

// shouldStop returns whether training should stop early given the
// realized KL divergence of the last epoch
func (k *klController) shouldStop(kl float64) bool {
	return kl > k.stop
}

// adapt updates the penalty coefficient from the realized KL
// divergence of a completed update and returns the new coefficient.
// The coefficient grows when the KL overshoots the band around the
// target and shrinks when it undershoots; inside the band it is left
// unchanged. Values exactly on a band edge are inside the band.
func (k *klController) adapt(kl float64) float64 {
	if kl > k.high {
		k.coef *= k.alpha
	} else if kl < k.low {
		k.coef /= k.alpha
	}
	return k.coef
}
