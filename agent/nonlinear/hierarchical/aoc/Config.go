package aoc

import "fmt"

// LossInfo holds the scalar statistics of a single gradient step
type LossInfo struct {
	Loss     float64
	PiLoss   float64
	QLoss    float64
	BetaLoss float64
	Entropy  float64
	KL       float64
}

// runEpochs calls step up to epochs times, stopping early when
// shouldStop reports that the realized KL divergence of the completed
// step has grown too large. It returns the statistics of the last
// executed step and the index of the epoch at which early stopping
// triggered, or 0 when every epoch ran.
func runEpochs(epochs int, shouldStop func(kl float64) bool,
	step func() (LossInfo, error)) (LossInfo, int, error) {
	var info LossInfo
	earlyStep := 0

	for i := 0; i < epochs; i++ {
		var err error
		info, err = step()
		if err != nil {
			return info, earlyStep, err
		}

		if shouldStop(info.KL) {
			earlyStep = i
			break
		}
	}

	return info, earlyStep, nil
}

// settings holds the hyperparameters shared by every policy
// parameterization of the AOC agent
type settings struct {
	options          int
	deliberationCost float64
	optionEps        float64
	terminalMask     bool

	horizon     int
	epochs      int
	gamma       float64
	lambda      float64
	entropyCoef float64

	clipEps      float64
	valueClipEps float64

	klReverse    bool
	klTarget     float64
	klCutoffMult float64
	klStopMult   float64
	klBetaLow    float64
	klBetaHigh   float64
	klAlpha      float64
	klCoef       float64
}

func (s settings) validate() error {
	if s.options <= 0 {
		return fmt.Errorf("options must be positive \n\thave(%v)",
			s.options)
	}
	if s.horizon <= 0 {
		return fmt.Errorf("time step horizon must be positive "+
			"\n\thave(%v)", s.horizon)
	}
	if s.epochs <= 0 {
		return fmt.Errorf("epochs must be positive \n\thave(%v)",
			s.epochs)
	}
	if s.optionEps < 0 || s.optionEps > 1 {
		return fmt.Errorf("option epsilon must be in [0, 1] "+
			"\n\thave(%v)", s.optionEps)
	}
	if s.gamma < 0 || s.gamma > 1 {
		return fmt.Errorf("discount must be in [0, 1] \n\thave(%v)",
			s.gamma)
	}
	if s.lambda < 0 || s.lambda > 1 {
		return fmt.Errorf("GAE lambda must be in [0, 1] \n\thave(%v)",
			s.lambda)
	}
	if s.clipEps <= 0 {
		return fmt.Errorf("surrogate clip radius must be positive "+
			"\n\thave(%v)", s.clipEps)
	}
	if s.valueClipEps <= 0 {
		return fmt.Errorf("value clip radius must be positive "+
			"\n\thave(%v)", s.valueClipEps)
	}
	if s.deliberationCost < 0 {
		return fmt.Errorf("deliberation cost cannot be negative "+
			"\n\thave(%v)", s.deliberationCost)
	}

	return nil
}
