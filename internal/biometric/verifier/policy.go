package verifier

import "math/rand/v2"

// Policy makes the pass/fail decision once a sample has been "processed".
type Policy interface {
	Decide() bool
}

// PolicyFunc adapts a function to Policy.
type PolicyFunc func() bool

func (f PolicyFunc) Decide() bool { return f() }

// RandomPolicy succeeds with a fixed probability, drawing independently on
// every call.
type RandomPolicy struct {
	failureThreshold float64
	draw             func() float64
}

// NewRandomPolicy succeeds with successProbability, clamped to [0,1].
func NewRandomPolicy(successProbability float64) *RandomPolicy {
	return NewRandomPolicyWithSource(successProbability, rand.Float64)
}

// NewRandomPolicyWithSource uses draw, which must return values in [0,1).
func NewRandomPolicyWithSource(successProbability float64, draw func() float64) *RandomPolicy {
	p := min(max(successProbability, 0), 1)
	return &RandomPolicy{failureThreshold: 1 - p, draw: draw}
}

// Decide passes when the uniform draw clears the failure threshold.
func (p *RandomPolicy) Decide() bool {
	return p.draw() >= p.failureThreshold
}
