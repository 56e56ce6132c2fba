package fluid

import V "diesel.com/diesel/vector"

//packingGap is subtracted from H so the initial grid starts slightly compressed
const packingGap = 0.01

//packDam lays out up to count particles as a rectangular dam: rows from y = H
//while below ViewHeight - 2H, columns from ViewWidth/4 while below ViewWidth/2.
//Insufficient geometry yields fewer particles.
func packDam(count int, p Params) []Particle {
	h := p.SmoothingRadius
	step := h - packingGap
	if count <= 0 || step <= 0 {
		return []Particle{}
	}

	//storage is bounded by the grid, never by the requested count
	rows := gridSteps(h, p.ViewHeight-2*h, step)
	cols := gridSteps(p.ViewWidth/4, p.ViewWidth/2, step)
	if n := rows * cols; n < count {
		count = n
	}
	particles := make([]Particle, 0, count)

	for y := h; y < p.ViewHeight-2*h; y += step {
		for x := p.ViewWidth / 4; x < p.ViewWidth/2; x += step {
			if len(particles) >= count {
				return particles
			}
			particles = append(particles, NewParticle(V.Vec2{x, y}, V.Vec2{}))
		}
	}
	return particles
}

//gridSteps counts positions from lo while below hi, accumulating in float32
//exactly as the packing loop does
func gridSteps(lo, hi, step float32) int {
	n := 0
	for v := lo; v < hi; v += step {
		n++
	}
	return n
}
