package sweeper

import "math/rand/v2"

// Sampler decides whether a served request also triggers a sweep.
type Sampler interface {
	Sample() bool
}

// SamplerFunc adapts a function to Sampler.
type SamplerFunc func() bool

func (f SamplerFunc) Sample() bool { return f() }

var (
	Always Sampler = SamplerFunc(func() bool { return true })
	Never  Sampler = SamplerFunc(func() bool { return false })
)

// RateSampler triggers on roughly Rate of the calls.
type RateSampler struct {
	Rate float64
}

func NewRateSampler(rate float64) RateSampler {
	return RateSampler{Rate: rate}
}

func (s RateSampler) Sample() bool {
	switch {
	case s.Rate <= 0:
		return false
	case s.Rate >= 1:
		return true
	default:
		return rand.Float64() < s.Rate
	}
}
