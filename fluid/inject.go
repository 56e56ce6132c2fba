package fluid

import V "diesel.com/diesel/vector"

//inject spawns one particle just inside the hose mouth moving right.
//Returns false when CapacityStop dropped the injection.
func (s *Solver) inject() bool {
	p := s.params
	hose := p.Inlet

	if p.capped() && len(s.particles) >= p.MaxParticles {
		if !s.saturated {
			s.saturated = true
			Logger().Warn("particle capacity reached",
				"max_particles", p.MaxParticles,
				"policy", string(p.Capacity),
				"tick", s.stats.Ticks)
		}
		switch p.Capacity {
		case CapacityStop:
			s.stats.Skipped++
			return false
		case CapacityEvictOldest:
			s.evictOldest(len(s.particles) - p.MaxParticles + 1)
		}
	}

	pos := V.Vec2{
		hose.Left + p.SmoothingRadius + between(s.rng, 1, 4),
		between(s.rng, hose.Bottom, hose.Top),
	}
	s.particles = append(s.particles, NewParticle(pos, V.Vec2{p.InjectSpeed, 0}))
	s.stats.Injected++
	return true
}

//evictOldest drops the first n particles, keeping render order of the rest
func (s *Solver) evictOldest(n int) {
	if n <= 0 {
		return
	}
	if n > len(s.particles) {
		n = len(s.particles)
	}
	kept := copy(s.particles, s.particles[n:])
	s.particles = s.particles[:kept]
	s.stats.Evicted += uint64(n)
}

//Saturated reports whether the particle cap has been reached
func (s *Solver) Saturated() bool {
	return s.saturated
}
