// Package pendulum implements the pendulum swing-up classic control
// environment as a vectorized environment
package pendulum

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
	"sfneuman.com/a2oc/environment"
	"sfneuman.com/a2oc/utils/floatutils"
)

// default physical constants
const (
	AngleBound  float64 = math.Pi // +/- Angle bounds
	SpeedBound  float64 = 8.0     // +/- Speed bounds
	TorqueBound float64 = 2.0     // +/- Torque bounds

	MaxContinuousAction float64 = TorqueBound
	MinContinuousAction float64 = -MaxContinuousAction

	MaxDiscreteAction float64 = 4.0
	MinDiscreteAction float64 = 0.0

	dt              float64 = 0.05
	Gravity         float64 = 9.8
	Mass            float64 = 1.0
	Length          float64 = 1.0
	ActionDims      int     = 1
	ObservationDims int     = 2
)

// base implements the vectorized pendulum swing-up task. A pendulum is
// attached to a fixed base, and the swinging torque is underpowered:
// to point the pendulum straight up, it must first be rocked back and
// forth to gain momentum. The reward on each step is the cosine of the
// pendulum angle measured from the positive y-axis, so holding the
// pendulum upright earns a reward of 1.0 per step.
//
// State features of a single copy are the pendulum angle, normalized
// to [-π, π], and the angular velocity, clipped to
// [-SpeedBound, SpeedBound]. Episodes last for a fixed step limit,
// after which the copy is reset to a uniformly random angle and
// angular velocity near 0.
//
// Copies evolve independently but are stepped together; all state is
// held in (copies × feature) matrices.
type base struct {
	n        int
	maxSteps int

	theta    []float64
	thetaDot []float64
	steps    []int

	angleBounds  r1.Interval
	speedBounds  r1.Interval
	torqueBounds r1.Interval

	startAngle r1.Interval
	startSpeed r1.Interval
	rng        *rand.Rand
}

// newBase returns a new base vectorized pendulum with n copies and
// episodes of maxSteps steps.
func newBase(n, maxSteps int, seed uint64) (*base, error) {
	if n <= 0 {
		return nil, fmt.Errorf("newbase: copies must be positive "+
			"\n\thave(%v)", n)
	}
	if maxSteps <= 0 {
		return nil, fmt.Errorf("newbase: step limit must be positive "+
			"\n\thave(%v)", maxSteps)
	}

	return &base{
		n:            n,
		maxSteps:     maxSteps,
		theta:        make([]float64, n),
		thetaDot:     make([]float64, n),
		steps:        make([]int, n),
		angleBounds:  r1.Interval{Min: -AngleBound, Max: AngleBound},
		speedBounds:  r1.Interval{Min: -SpeedBound, Max: SpeedBound},
		torqueBounds: r1.Interval{Min: -TorqueBound, Max: TorqueBound},
		startAngle:   r1.Interval{Min: -AngleBound, Max: AngleBound},
		startSpeed:   r1.Interval{Min: -1.0, Max: 1.0},
		rng:          rand.New(rand.NewSource(seed)),
	}, nil
}

// N returns the number of environment copies
func (p *base) N() int {
	return p.n
}

// ObservationSpec returns the observation specification of the
// environment
func (p *base) ObservationSpec() environment.Spec {
	return environment.Spec{
		Dims:        ObservationDims,
		Cardinality: environment.Continuous,
		LowerBound:  -SpeedBound,
		UpperBound:  SpeedBound,
	}
}

// Reset resets every copy to a start state drawn uniformly at random
// and returns the batch of starting observations.
func (p *base) Reset() *mat.Dense {
	for i := 0; i < p.n; i++ {
		p.reset(i)
	}
	return p.observations()
}

// reset resets a single copy
func (p *base) reset(i int) {
	p.theta[i] = p.uniform(p.startAngle)
	p.thetaDot[i] = p.uniform(p.startSpeed)
	p.steps[i] = 0
}

// uniform draws a uniform random value from interval
func (p *base) uniform(interval r1.Interval) float64 {
	return interval.Min + p.rng.Float64()*(interval.Max-interval.Min)
}

// observations packages the current state of all copies into a
// (copies × features) matrix.
func (p *base) observations() *mat.Dense {
	obs := mat.NewDense(p.n, ObservationDims, nil)
	for i := 0; i < p.n; i++ {
		obs.Set(i, 0, p.theta[i])
		obs.Set(i, 1, p.thetaDot[i])
	}
	return obs
}

// step advances every copy by one transition given one torque per
// copy, resetting copies whose episode ended.
func (p *base) step(torques []float64) (*mat.Dense, []float64, []bool) {
	rewards := make([]float64, p.n)
	done := make([]bool, p.n)

	for i := 0; i < p.n; i++ {
		torque := floatutils.ClipInterval(torques[i], p.torqueBounds)

		th, thDot := p.theta[i], p.thetaDot[i]
		newThDot := thDot + (-3*Gravity/(2*Length)*math.Sin(th+math.Pi)+
			3/(Mass*math.Pow(Length, 2))*torque)*dt
		newThDot = floatutils.ClipInterval(newThDot, p.speedBounds)
		newTh := normalizeAngle(th+newThDot*dt, p.angleBounds)

		p.theta[i] = newTh
		p.thetaDot[i] = newThDot
		p.steps[i]++

		rewards[i] = math.Cos(newTh)
		if p.steps[i] >= p.maxSteps {
			done[i] = true
			p.reset(i)
		}
	}

	return p.observations(), rewards, done
}

// normalizeAngle normalizes the angle theta into the bounds
func normalizeAngle(theta float64, bounds r1.Interval) float64 {
	if bounds.Max != -bounds.Min {
		panic("normalizeAngle: angle bounds must be symmetric")
	}

	scale := bounds.Max
	for theta > scale {
		theta -= 2 * scale
	}
	for theta < -scale {
		theta += 2 * scale
	}
	return theta
}

// Continuous implements the vectorized pendulum swing-up task with
// continuous torque actions in [-TorqueBound, TorqueBound]. Torques
// outside this region are clipped to stay within the bounds.
type Continuous struct {
	*base
}

// NewContinuous returns a new vectorized continuous-action pendulum
// with n copies and episodes of maxSteps steps.
func NewContinuous(n, maxSteps int, seed uint64) (environment.Environment,
	error) {
	b, err := newBase(n, maxSteps, seed)
	if err != nil {
		return nil, fmt.Errorf("newcontinuous: %v", err)
	}
	return &Continuous{b}, nil
}

// ActionSpec returns the action specification of the environment
func (c *Continuous) ActionSpec() environment.Spec {
	return environment.Spec{
		Dims:        ActionDims,
		Cardinality: environment.Continuous,
		LowerBound:  MinContinuousAction,
		UpperBound:  MaxContinuousAction,
	}
}

// Step applies one torque per copy
func (c *Continuous) Step(actions *mat.Dense) (*mat.Dense, []float64,
	[]bool, error) {
	rows, cols := actions.Dims()
	if rows != c.n || cols != ActionDims {
		return nil, nil, nil, fmt.Errorf("step: illegal action shape "+
			"\n\twant(%v×%v)\n\thave(%v×%v)", c.n, ActionDims, rows, cols)
	}

	torques := make([]float64, c.n)
	for i := 0; i < c.n; i++ {
		// Agents produce actions in [-1, 1]; scale to the torque
		// bounds.
		torques[i] = actions.At(i, 0) * TorqueBound
	}

	next, rewards, done := c.step(torques)
	return next, rewards, done, nil
}

// Discrete implements the vectorized pendulum swing-up task with
// discrete torque actions. The five legal actions map to torques
// evenly spaced over [-TorqueBound, TorqueBound].
type Discrete struct {
	*base
}

// NewDiscrete returns a new vectorized discrete-action pendulum with
// n copies and episodes of maxSteps steps.
func NewDiscrete(n, maxSteps int, seed uint64) (environment.Environment,
	error) {
	b, err := newBase(n, maxSteps, seed)
	if err != nil {
		return nil, fmt.Errorf("newdiscrete: %v", err)
	}
	return &Discrete{b}, nil
}

// ActionSpec returns the action specification of the environment
func (d *Discrete) ActionSpec() environment.Spec {
	return environment.Spec{
		Dims:        ActionDims,
		Cardinality: environment.Discrete,
		LowerBound:  MinDiscreteAction,
		UpperBound:  MaxDiscreteAction,
	}
}

// Step applies one action index per copy
func (d *Discrete) Step(actions *mat.Dense) (*mat.Dense, []float64,
	[]bool, error) {
	rows, cols := actions.Dims()
	if rows != d.n || cols != ActionDims {
		return nil, nil, nil, fmt.Errorf("step: illegal action shape "+
			"\n\twant(%v×%v)\n\thave(%v×%v)", d.n, ActionDims, rows, cols)
	}

	numActions := int(MaxDiscreteAction-MinDiscreteAction) + 1
	torques := make([]float64, d.n)
	for i := 0; i < d.n; i++ {
		action := int(actions.At(i, 0))
		if action < int(MinDiscreteAction) || action > int(MaxDiscreteAction) {
			return nil, nil, nil, fmt.Errorf("step: illegal action %v "+
				"for copy %v", action, i)
		}
		torques[i] = -TorqueBound + float64(action)*2*TorqueBound/
			float64(numActions-1)
	}

	next, rewards, done := d.step(torques)
	return next, rewards, done, nil
}
