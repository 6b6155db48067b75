package task

// Rand is a Lehmer linear-congruential generator over a 31-bit state. It
// exists instead of math/rand because procedural episode variance must be
// byte-for-byte reproducible from a seed across builds and Go versions, and
// it is owned by exactly one episode: reseeding mid-episode is not possible
// through its API.
type Rand struct {
	state int64
}

const (
	lcgModulus    = 2147483647 // 2^31 - 1
	lcgMultiplier = 16807
)

func NewRand(seed int64) *Rand {
	s := seed % lcgModulus
	if s < 0 {
		s += lcgModulus
	}
	if s == 0 {
		s = 1
	}
	return &Rand{state: s}
}

func (r *Rand) next() int64 {
	r.state = r.state * lcgMultiplier % lcgModulus
	return r.state
}

// Float64 returns a value in [0, 1).
func (r *Rand) Float64() float64 {
	return float64(r.next()-1) / float64(lcgModulus-1)
}

// Range returns a value in [lo, hi).
func (r *Rand) Range(lo, hi float64) float64 {
	return lo + (hi-lo)*r.Float64()
}

// Jitter returns base plus a uniform offset in [-spread, spread).
func (r *Rand) Jitter(base, spread float64) float64 {
	return base + r.Range(-spread, spread)
}
