package fluid

import V "diesel.com/diesel/vector"

//MinDensity is the smallest normal float32. Density summation starts here
//so no stage ever divides by zero.
const MinDensity float32 = 0x1p-126

//Particle is one fluid sample. Force is rebuilt every tick.
type Particle struct {
	Pos      V.Vec2
	Vel      V.Vec2
	Force    V.Vec2
	Density  float32
	Pressure float32
}

//NewParticle at pos with velocity vel and no accumulated state
func NewParticle(pos V.Vec2, vel V.Vec2) Particle {
	return Particle{Pos: pos, Vel: vel}
}

//Stats counts solver activity since construction
type Stats struct {
	Ticks    uint64
	Injected uint64
	Evicted  uint64
	Skipped  uint64 //injections dropped by CapacityStop
	Time     float64
}
