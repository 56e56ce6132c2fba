package fluid

import (
	G "diesel.com/diesel/geometry"
)

//integrate - semi-implicit Euler followed by the domain and hose reflections.
//No cross particle reads, so particles are updated in place.
func (s *Solver) integrate() {
	particles := s.particles
	p := s.params
	inner := p.Domain().Inset(p.SmoothingRadius)

	//Drawn before fan-out so the jitter streams do not depend on scheduling
	stageSeed := s.rng.Uint64()
	ref := s.refDraws

	s.pool.Range(len(particles), func(lo, hi int) {
		for i := lo; i < hi; i++ {
			j := newJitter(stageSeed, i)
			j.ref = ref
			step(&particles[i], p, inner, &j)
		}
	})
}

//step advances one particle. inner is the domain shrunk by H.
func step(pt *Particle, p Params, inner G.Rect, j *jitter) {
	pt.Vel.AddScaled(pt.Force, p.TimeStep/pt.Density)
	pt.Pos.AddScaled(pt.Vel, p.TimeStep)

	reflectDomain(pt, p, inner, j)
	reflectInlet(pt, p, j)
}

//reflectDomain clamps to the inner rectangle (a margin of H inside the view)
//and damps the normal velocity
func reflectDomain(pt *Particle, p Params, inner G.Rect, j *jitter) {
	damp := p.BoundDamping

	if pt.Pos[0] < inner.Left {
		pt.Vel[0] *= damp
		pt.Pos[0] = inner.Left
	}
	if pt.Pos[0] > inner.Right {
		pt.Vel[0] *= damp
		pt.Pos[0] = inner.Right
	}
	if pt.Pos[1] < inner.Bottom {
		pt.Vel[1] *= damp
		pt.Pos[1] = inner.Bottom + j.between(1, 2)
	}
	if pt.Pos[1] > inner.Top {
		pt.Vel[1] *= damp
		pt.Pos[1] = inner.Top
	}
}

//reflectInlet - the hose blocks its top and bottom walls from outside and its
//left wall from the channel side, leaving the nozzle open to the right
func reflectInlet(pt *Particle, p Params, j *jitter) {
	h := p.SmoothingRadius
	damp := p.BoundDamping
	hose := p.Inlet
	x, y := pt.Pos[0], pt.Pos[1]

	if x < hose.Right && y < hose.Top && y+h > hose.Top && pt.Vel[1] > 0 {
		pt.Vel[1] *= damp
		pt.Pos[1] = hose.Top - h
	}
	y = pt.Pos[1]
	if x < hose.Right && y > hose.Bottom && y-h < hose.Bottom && pt.Vel[1] < 0 {
		pt.Vel[1] *= damp
		pt.Pos[1] = hose.Bottom + h
	}
	y = pt.Pos[1]
	if x > hose.Left && x-h < hose.Left && pt.Vel[0] < 0 && y > hose.Bottom && y < hose.Top {
		pt.Vel[0] *= damp
		pt.Pos[0] = hose.Left + h + j.between(1, 4)
	}
}
