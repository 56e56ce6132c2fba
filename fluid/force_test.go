package fluid

import (
	"math"
	"testing"

	V "diesel.com/diesel/vector"
)

//weightless params isolate the pair forces from gravity
func weightless() Params {
	p := DefaultParams()
	p.Gravity = V.Vec2{}
	return p
}

func closeVec(got V.Vec2, want [2]float64, tol float64) bool {
	for i := range want {
		if math.Abs(float64(got[i])-want[i]) > tol*math.Abs(want[i])+1e-9 {
			return false
		}
	}
	return true
}

func TestForceMatchesHandComputation(t *testing.T) {
	p := weightless()
	k := NewKernel(p.SmoothingRadius)
	pair := []Particle{
		{Pos: V.Vec2{100, 100}, Density: 1200, Pressure: 4e5},
		{Pos: V.Vec2{106, 108}, Vel: V.Vec2{500, -200}, Density: 1100, Pressure: 2e5},
	}
	pi, pj := pair[0], pair[1]

	//r = 10 along (0.6, 0.8)
	h, r := float64(k.H), 10.0
	dir := [2]float64{0.6, 0.8}
	mass := float64(p.Mass)
	press := -mass * float64(pi.Pressure+pj.Pressure) / (2 * float64(pj.Density)) *
		float64(k.SpikyGrad) * (h - r) * (h - r)
	visc := float64(p.Viscosity) * mass / float64(pj.Density) * float64(k.ViscLap) * (h - r)

	var want [2]float64
	for c := range want {
		dv := float64(pj.Vel[c] - pi.Vel[c])
		want[c] = dir[c]*press + visc*dv
	}

	got := forceOn(&pair[0], pair, k, p)
	if !closeVec(got, want, 1e-4) {
		t.Errorf("force = %s, want [%g, %g]", got, want[0], want[1])
	}
}

func TestPressureForceFollowsPressureSign(t *testing.T) {
	p := weightless()
	k := NewKernel(p.SmoothingRadius)

	cases := []struct {
		name    string
		density float32
		apart   bool
	}{
		//negative pressure separates the pair, positive draws it together
		{"below rest", 0.5 * p.RestDensity, true},
		{"above rest", 1.5 * p.RestDensity, false},
	}
	for _, c := range cases {
		pressure := p.GasConstant * (c.density - p.RestDensity)
		pair := []Particle{
			{Pos: V.Vec2{100, 100}, Density: c.density, Pressure: pressure},
			{Pos: V.Vec2{108, 100}, Density: c.density, Pressure: pressure},
		}
		fi := forceOn(&pair[0], pair, k, p)
		fj := forceOn(&pair[1], pair, k, p)

		//rij points from particle 0 to particle 1 along +x
		w := k.H - 8
		mag := p.Mass * 2 * pressure / (2 * c.density) * k.SpikyGrad * w * w
		if !closeVec(fi, [2]float64{float64(-mag), 0}, 1e-4) {
			t.Errorf("%s: force on 0 = %s, want [%g, 0]", c.name, fi, -mag)
		}
		if apart := fi[0] < 0 && fj[0] > 0; apart != c.apart {
			t.Errorf("%s: pair forces %s, %s (apart = %v, want %v)", c.name, fi, fj, apart, c.apart)
		}
	}
}

func TestPairBelowRestSeparates(t *testing.T) {
	s := newTestSolver(t, 0, nil)
	s.particles = []Particle{
		NewParticle(V.Vec2{500, 500}, V.Vec2{}),
		NewParticle(V.Vec2{508, 500}, V.Vec2{}),
	}
	s.computeDensityPressure()
	s.computeForces()

	a, b := s.particles[0], s.particles[1]
	if !(a.Pressure < 0 && b.Pressure < 0) {
		t.Fatalf("sparse pair should sit below rest density, pressures %g %g", a.Pressure, b.Pressure)
	}
	if !(a.Force[0] < 0 && b.Force[0] > 0) {
		t.Errorf("pair should be pushed apart along x: %s, %s", a.Force, b.Force)
	}
}

func TestViscosityPullsTowardNeighbourVelocity(t *testing.T) {
	p := weightless()
	k := NewKernel(p.SmoothingRadius)
	pair := []Particle{
		{Pos: V.Vec2{100, 100}, Density: p.RestDensity},
		{Pos: V.Vec2{108, 100}, Vel: V.Vec2{0, 40}, Density: p.RestDensity},
	}

	fi := forceOn(&pair[0], pair, k, p)
	fj := forceOn(&pair[1], pair, k, p)

	want := float64(p.Viscosity) * float64(p.Mass) * 40 / float64(p.RestDensity) *
		float64(k.ViscLap) * float64(k.H-8)
	if !closeVec(fi, [2]float64{0, want}, 1e-4) {
		t.Errorf("force on the slow particle = %s, want [0, %g]", fi, want)
	}
	if !closeVec(fj, [2]float64{0, -want}, 1e-4) {
		t.Errorf("force on the fast particle = %s, want [0, %g]", fj, -want)
	}
}
