package fluid

import (
	"errors"
	"fmt"

	G "diesel.com/diesel/geometry"
	V "diesel.com/diesel/vector"
)

var (
	//ErrInvalidParams wraps every Params validation failure
	ErrInvalidParams = errors.New("fluid: invalid params")
	//ErrInvalidCount is returned for a negative initial particle count
	ErrInvalidCount = errors.New("fluid: invalid particle count")
)

//CapacityPolicy selects what injection does once MaxParticles is reached
type CapacityPolicy string

const (
	CapacityUnbounded   CapacityPolicy = "unbounded"    //reference behaviour, grow forever
	CapacityStop        CapacityPolicy = "stop"         //skip injection at the cap
	CapacityEvictOldest CapacityPolicy = "evict-oldest" //drop index 0 to make room
)

//Valid reports whether c names a known policy
func (c CapacityPolicy) Valid() bool {
	switch c {
	case CapacityUnbounded, CapacityStop, CapacityEvictOldest:
		return true
	}
	return false
}

//Params - Dam break / hose configuration. World units are view pixels,
//y points up and gravity is negative y.
type Params struct {
	SmoothingRadius float32        `mapstructure:"smoothing_radius"` //H, interaction cutoff
	RestDensity     float32        `mapstructure:"rest_density"`
	GasConstant     float32        `mapstructure:"gas_constant"`
	Mass            float32        `mapstructure:"mass"`
	Viscosity       float32        `mapstructure:"viscosity"`
	Gravity         V.Vec2         `mapstructure:"gravity"`
	BoundDamping    float32        `mapstructure:"bound_damping"` //negative: reverse and attenuate
	TimeStep        float32        `mapstructure:"time_step"`
	Inlet           G.Rect         `mapstructure:"inlet"`
	ViewWidth       float32        `mapstructure:"view_width"`
	ViewHeight      float32        `mapstructure:"view_height"`
	InjectSpeed     float32        `mapstructure:"inject_speed"`
	Seed            int64          `mapstructure:"seed"`
	MaxParticles    int            `mapstructure:"max_particles"` //0 disables the cap
	Capacity        CapacityPolicy `mapstructure:"capacity"`
	ReferenceJitter bool           `mapstructure:"reference_jitter"`
	Workers         int            `mapstructure:"workers"` //0 uses GOMAXPROCS
}

//All constants are the reference dam break values, 800x600 window scaled by 1.5
const (
	DefaultRadius      = 16.0
	DefaultRestDensity = 1000.0
	DefaultGasConstant = 2000.0
	DefaultMass        = 65.0
	DefaultViscosity   = 250.0
	DefaultGravityY    = 12000.0 * -9.8
	DefaultDamping     = -0.5
	DefaultTimeStep    = 0.0008
	DefaultViewWidth   = 800 * 1.5
	DefaultViewHeight  = 600 * 1.5
	DefaultInjectSpeed = 10.0
	DefaultSeed        = 1234
	referenceJitterKey = 23562
)

//DefaultParams returns the reference configuration
func DefaultParams() Params {
	return Params{
		SmoothingRadius: DefaultRadius,
		RestDensity:     DefaultRestDensity,
		GasConstant:     DefaultGasConstant,
		Mass:            DefaultMass,
		Viscosity:       DefaultViscosity,
		Gravity:         V.Vec2{0, DefaultGravityY},
		BoundDamping:    DefaultDamping,
		TimeStep:        DefaultTimeStep,
		Inlet:           G.Rect{Left: 100, Right: 300, Top: 650, Bottom: 600},
		ViewWidth:       DefaultViewWidth,
		ViewHeight:      DefaultViewHeight,
		InjectSpeed:     DefaultInjectSpeed,
		Seed:            DefaultSeed,
		Capacity:        CapacityUnbounded,
	}
}

//Domain is the view rectangle particles are kept inside (with margin H)
func (p Params) Domain() G.Rect {
	return G.Box(p.ViewWidth, p.ViewHeight)
}

//Validate rejects configurations the stages cannot run with
func (p Params) Validate() error {
	switch {
	case !(p.SmoothingRadius > 0):
		return fmt.Errorf("%w: smoothing radius %v must be positive", ErrInvalidParams, p.SmoothingRadius)
	case !(p.Mass > 0):
		return fmt.Errorf("%w: mass %v must be positive", ErrInvalidParams, p.Mass)
	case !(p.TimeStep > 0):
		return fmt.Errorf("%w: time step %v must be positive", ErrInvalidParams, p.TimeStep)
	case p.ViewWidth <= 2*p.SmoothingRadius || p.ViewHeight <= 2*p.SmoothingRadius:
		return fmt.Errorf("%w: view %vx%v too small for radius %v", ErrInvalidParams, p.ViewWidth, p.ViewHeight, p.SmoothingRadius)
	case p.MaxParticles < 0:
		return fmt.Errorf("%w: max particles %d is negative", ErrInvalidParams, p.MaxParticles)
	case p.Workers < 0:
		return fmt.Errorf("%w: workers %d is negative", ErrInvalidParams, p.Workers)
	case p.Capacity != "" && !p.Capacity.Valid():
		return fmt.Errorf("%w: unknown capacity policy %q", ErrInvalidParams, p.Capacity)
	}
	if err := p.Inlet.Valid(); err != nil {
		return fmt.Errorf("%w: inlet: %v", ErrInvalidParams, err)
	}
	domain := p.Domain()
	if !domain.Contains(V.Vec2{p.Inlet.Left, p.Inlet.Bottom}) || !domain.Contains(V.Vec2{p.Inlet.Right, p.Inlet.Top}) {
		return fmt.Errorf("%w: inlet %s outside view %s", ErrInvalidParams, p.Inlet, domain)
	}
	return nil
}

//capped reports whether the capacity policy is in force
func (p Params) capped() bool {
	return p.MaxParticles > 0 && p.Capacity != "" && p.Capacity != CapacityUnbounded
}
