package vector

import (
	"fmt"
	"math"
)

//Vec2 is the planar vector used for particle position, velocity and force.
//All package functions are immutable; pointer methods mutate the receiver in place.
type Vec2 [2]float32

func Add(a Vec2, b Vec2) Vec2 {
	return Vec2{a[0] + b[0], a[1] + b[1]}
}

func Sub(a Vec2, b Vec2) Vec2 {
	return Vec2{a[0] - b[0], a[1] - b[1]}
}

//Scale - Scales vector by scalar a
func Scale(v Vec2, a float32) Vec2 {
	return Vec2{v[0] * a, v[1] * a}
}

func Dot(a Vec2, b Vec2) float32 {
	return a[0]*b[0] + a[1]*b[1]
}

//LengthSq avoids the square root for cutoff comparisons
func LengthSq(a Vec2) float32 {
	return Dot(a, a)
}

func Length(a Vec2) float32 {
	return float32(math.Sqrt(float64(a[0]*a[0] + a[1]*a[1])))
}

//DistanceSq between two points
func DistanceSq(a Vec2, b Vec2) float32 {
	return LengthSq(Sub(a, b))
}

//Normalize returns the unit vector of a. The zero vector stays zero.
func Normalize(a Vec2) Vec2 {
	l := Length(a)
	if l == 0 {
		return Vec2{}
	}
	return Vec2{a[0] / l, a[1] / l}
}

//Add - Mutate
func (v *Vec2) Add(b Vec2) *Vec2 {
	v[0] += b[0]
	v[1] += b[1]
	return v
}

func (v *Vec2) Sub(b Vec2) *Vec2 {
	v[0] -= b[0]
	v[1] -= b[1]
	return v
}

func (v *Vec2) Scale(a float32) *Vec2 {
	v[0] *= a
	v[1] *= a
	return v
}

//AddScaled accumulates b*a into v, the integrator's workhorse
func (v *Vec2) AddScaled(b Vec2, a float32) *Vec2 {
	v[0] += b[0] * a
	v[1] += b[1] * a
	return v
}

func (v Vec2) Length() float32 {
	return Length(v)
}

func (v Vec2) IsZero() bool {
	return v[0] == 0 && v[1] == 0
}

func (v Vec2) String() string {
	return fmt.Sprintf("[ %f, %f]", v[0], v[1])
}
