package fluid

import (
	"math"
	"math/rand"
)

//jitter is the per-particle random stream used by boundary corrections.
//A stream is derived from a per-tick stage seed and the particle index, so the
//draws differ between particles and ticks but do not depend on which worker
//runs the particle.
type jitter struct {
	state uint64
	ref   *[2]float32 //reference mode: fixed draws shared by every particle
	n     int
}

func newJitter(stageSeed uint64, index int) jitter {
	return jitter{state: stageSeed ^ (uint64(index)+1)*0x9e3779b97f4a7c15}
}

//splitmix64 step
func (j *jitter) next() uint64 {
	j.state += 0x9e3779b97f4a7c15
	z := j.state
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

//unit returns a uniform value in [0, 1)
func (j *jitter) unit() float32 {
	if j.ref != nil {
		u := j.ref[j.n%len(j.ref)]
		j.n++
		return u
	}
	return float32(j.next()>>40) / (1 << 24)
}

func (j *jitter) between(lo, hi float32) float32 {
	return lo + j.unit()*(hi-lo)
}

//referenceDraws mimics a generator reseeded with the same constant on every
//call: each particle sees the same first and second draw. The draws come from
//math/rand, so the pattern repeats but the values are not the XorShift ones.
func referenceDraws() *[2]float32 {
	r := rand.New(rand.NewSource(referenceJitterKey))
	var d [2]float32
	for i := range d {
		d[i] = float32(float64(r.Uint64()) / math.MaxUint64)
	}
	return &d
}

//between draws uniformly from [lo, hi) on the solver generator
func between(r *rand.Rand, lo, hi float32) float32 {
	return lo + float32(r.Float64())*(hi-lo)
}
