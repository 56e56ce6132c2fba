package fluid

import (
	"fmt"
	"math/rand"

	G "diesel.com/diesel/geometry"
	P "diesel.com/diesel/parallel"
	V "diesel.com/diesel/vector"
)

//Solver is a brute force 2D SPH fluid: every particle interacts with every
//other particle inside the smoothing radius. One particle is injected at the
//hose each tick.
//
//A Tick runs injection, density/pressure, forces and integration strictly in
//that order. Each stage fans out across the worker pool, reading a frozen copy
//of the previous stage's output and writing only its own particle slot.
//
//Solver is not safe for concurrent use. Readers call Snapshot between ticks.
type Solver struct {
	params    Params
	kernel    Kernel
	particles []Particle
	frozen    []Particle //stage read buffer, reused across ticks
	rng       *rand.Rand
	pool      *P.WorkerPool
	refDraws  *[2]float32
	stats     Stats
	saturated bool
}

//New packs count particles into the dam and prepares the solver.
//The packing yields fewer particles when the view is too small for count.
func New(count int, params Params) (*Solver, error) {
	if count < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCount, count)
	}
	if params.Capacity == "" {
		params.Capacity = CapacityUnbounded
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	s := &Solver{
		params:    params,
		kernel:    NewKernel(params.SmoothingRadius),
		particles: packDam(count, params),
		rng:       rand.New(rand.NewSource(params.Seed)),
		pool:      P.NewWorkerPool(params.Workers),
	}
	if params.ReferenceJitter {
		s.refDraws = referenceDraws()
	}

	Logger().Info("initialized dam break",
		"particles", len(s.particles),
		"requested", count,
		"workers", s.pool.Workers(),
		"capacity", string(params.Capacity),
		"max_particles", params.MaxParticles)
	return s, nil
}

//Tick advances the simulation by one fixed time step
func (s *Solver) Tick() {
	s.inject()
	s.computeDensityPressure()
	s.computeForces()
	s.integrate()

	s.stats.Ticks++
	s.stats.Time += float64(s.params.TimeStep)
}

//freeze copies the particle sequence into the stage read buffer
func (s *Solver) freeze() []Particle {
	s.frozen = append(s.frozen[:0], s.particles...)
	return s.frozen
}

//computeDensityPressure - poly6 density summation including the self term,
//then the linear equation of state. Pressure goes negative below rest density.
func (s *Solver) computeDensityPressure() {
	frozen := s.freeze()
	particles := s.particles
	k := s.kernel
	mass := s.params.Mass
	gas := s.params.GasConstant
	rest := s.params.RestDensity

	s.pool.Range(len(particles), func(lo, hi int) {
		for i := lo; i < hi; i++ {
			pi := &particles[i]
			pi.Density = densityAt(pi.Pos, frozen, k, mass)
			pi.Pressure = gas * (pi.Density - rest)
		}
	})
}

//densityAt sums the poly6 contribution of every sample within H of pos
func densityAt(pos V.Vec2, samples []Particle, k Kernel, mass float32) float32 {
	rho := MinDensity
	for j := range samples {
		rho += mass * k.W(V.DistanceSq(pos, samples[j].Pos))
	}
	return rho
}

//computeForces - spiky pressure gradient, viscosity laplacian and gravity
//scaled by the particle's own density
func (s *Solver) computeForces() {
	frozen := s.freeze()
	particles := s.particles
	k := s.kernel
	p := s.params

	s.pool.Range(len(particles), func(lo, hi int) {
		for i := lo; i < hi; i++ {
			particles[i].Force = forceOn(&frozen[i], frozen, k, p)
		}
	})
}

func forceOn(pi *Particle, samples []Particle, k Kernel, p Params) V.Vec2 {
	var fpress, fvisc V.Vec2

	for j := range samples {
		pj := &samples[j]
		rij := V.Sub(pj.Pos, pi.Pos)
		if rij.IsZero() {
			continue
		}
		r := V.Length(rij)
		if r < k.H {
			fpress.Add(pressureContribution(pi, pj, rij, r, k, p.Mass))
			fvisc.Add(viscosityContribution(pi, pj, r, k, p))
		}
	}

	fgrav := V.Scale(p.Gravity, pi.Density)
	return V.Add(fgrav, V.Add(fpress, fvisc))
}

//pressureContribution is the force j exerts on i through the pressure gradient
func pressureContribution(pi, pj *Particle, rij V.Vec2, r float32, k Kernel, mass float32) V.Vec2 {
	w := k.H - r
	mag := mass * (pi.Pressure + pj.Pressure) / (2 * pj.Density) * k.SpikyGrad * w * w
	return V.Scale(V.Normalize(rij), -mag)
}

func viscosityContribution(pi, pj *Particle, r float32, k Kernel, p Params) V.Vec2 {
	dv := V.Sub(pj.Vel, pi.Vel)
	return V.Scale(dv, p.Viscosity*p.Mass/pj.Density*k.ViscLap*(k.H-r))
}

//Len is the current particle count
func (s *Solver) Len() int {
	return len(s.particles)
}

//Snapshot overwrites dst's contents with every particle position, reusing its
//storage, and returns it. The result never aliases solver memory, so a
//renderer may keep it until it reuses dst.
func (s *Solver) Snapshot(dst []V.Vec2) []V.Vec2 {
	dst = dst[:0]
	for i := range s.particles {
		dst = append(dst, s.particles[i].Pos)
	}
	return dst
}

func (s *Solver) Params() Params { return s.params }
func (s *Solver) Inlet() G.Rect  { return s.params.Inlet }
func (s *Solver) Stats() Stats   { return s.stats }

//Close stops the worker pool. Tick keeps working afterwards, single threaded.
func (s *Solver) Close() {
	s.pool.Close()
}
