package fluid

import "math"

//Kernel holds the smoothing kernel normalisation factors derived from H.
//Poly6 weights density, SpikyGrad the pressure gradient and ViscLap the
//viscosity laplacian. Values are fixed once built.
type Kernel struct {
	H         float32
	HSq       float32
	Poly6     float32
	SpikyGrad float32
	ViscLap   float32
}

//NewKernel computes the normalisation in float64 before narrowing
func NewKernel(h float32) Kernel {
	h64 := float64(h)
	h6 := math.Pow(h64, 6)
	h9 := math.Pow(h64, 9)
	return Kernel{
		H:         h,
		HSq:       h * h,
		Poly6:     float32(315.0 / (64.0 * math.Pi * h9)),
		SpikyGrad: float32(-45.0 / (math.Pi * h6)),
		ViscLap:   float32(45.0 / (math.Pi * h6)),
	}
}

//W is the poly6 weight for a squared distance, zero outside the radius
func (k Kernel) W(r2 float32) float32 {
	if r2 >= k.HSq {
		return 0
	}
	d := k.HSq - r2
	return k.Poly6 * d * d * d
}
