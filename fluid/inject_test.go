package fluid

import (
	"testing"
)

func TestInjectPosition(t *testing.T) {
	s := newTestSolver(t, 0, nil)
	p := s.Params()
	hose := p.Inlet

	for k := 0; k < 20; k++ {
		if !s.inject() {
			t.Fatal("unbounded solver refused an injection")
		}
	}
	for i, pt := range s.particles {
		x, y := pt.Pos[0], pt.Pos[1]
		if x < hose.Left+p.SmoothingRadius+1 || x > hose.Left+p.SmoothingRadius+4 {
			t.Errorf("particle %d x=%v outside the nozzle band", i, x)
		}
		if y < hose.Bottom || y > hose.Top {
			t.Errorf("particle %d y=%v outside the hose", i, y)
		}
		if pt.Vel[0] != p.InjectSpeed || pt.Vel[1] != 0 {
			t.Errorf("particle %d velocity %s", i, pt.Vel)
		}
	}
	if s.Saturated() {
		t.Error("unbounded solver reported saturation")
	}
}

func TestCapacityStop(t *testing.T) {
	s := newTestSolver(t, 10, func(p *Params) {
		p.MaxParticles = 12
		p.Capacity = CapacityStop
	})

	for k := 0; k < 5; k++ {
		s.Tick()
	}
	st := s.Stats()
	if s.Len() != 12 {
		t.Errorf("Len() = %d, want 12", s.Len())
	}
	if st.Injected != 2 || st.Skipped != 3 || st.Evicted != 0 {
		t.Errorf("stats = %+v", st)
	}
	if !s.Saturated() {
		t.Error("capped solver should report saturation")
	}
}

func TestCapacityEvictOldest(t *testing.T) {
	s := newTestSolver(t, 10, func(p *Params) {
		p.MaxParticles = 12
		p.Capacity = CapacityEvictOldest
	})
	second := s.particles[1].Pos

	s.Tick()
	s.Tick()
	if s.Len() != 12 {
		t.Fatalf("Len() = %d before eviction, want 12", s.Len())
	}
	s.Tick()

	if s.Len() != 12 {
		t.Errorf("Len() = %d, want 12", s.Len())
	}
	//index 0 is gone, the old index 1 moved to the front
	if d := s.particles[0].Pos; d[0] < second[0]-1 || d[0] > second[0]+1 {
		t.Errorf("front particle at %s, expected near %s", d, second)
	}

	s.Tick()
	s.Tick()
	st := s.Stats()
	if st.Injected != 5 || st.Evicted != 3 || st.Skipped != 0 {
		t.Errorf("stats = %+v", st)
	}
	if s.Len() != 12 {
		t.Errorf("Len() = %d, want 12", s.Len())
	}
}

func TestCapacityWithoutMaxIsUnbounded(t *testing.T) {
	s := newTestSolver(t, 4, func(p *Params) { p.Capacity = CapacityStop })

	for k := 0; k < 3; k++ {
		s.Tick()
	}
	if s.Len() != 7 || s.Saturated() {
		t.Errorf("Len() = %d saturated=%v, a zero cap must not limit growth", s.Len(), s.Saturated())
	}
}

func TestEvictOldestClamps(t *testing.T) {
	s := newTestSolver(t, 3, nil)

	s.evictOldest(0)
	if s.Len() != 3 {
		t.Fatalf("evicting zero removed particles")
	}
	s.evictOldest(10)
	if s.Len() != 0 || s.Stats().Evicted != 3 {
		t.Errorf("Len() = %d evicted = %d", s.Len(), s.Stats().Evicted)
	}
}
