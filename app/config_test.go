package app

import (
	"bytes"
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"

	F "diesel.com/diesel/fluid"
	V "diesel.com/diesel/vector"
	"github.com/spf13/afero"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(afero.NewMemMapFs(), "")
	if err != nil {
		t.Fatal(err)
	}
	want := DefaultConfig()
	if cfg.Particles != want.Particles || cfg.TicksPerFrame != want.TicksPerFrame {
		t.Errorf("scene = %+v", cfg)
	}
	if cfg.Fluid != want.Fluid {
		t.Errorf("fluid params = %+v, want %+v", cfg.Fluid, want.Fluid)
	}
	if cfg.Window != want.Window || cfg.Stream != want.Stream {
		t.Errorf("collaborators = %+v %+v", cfg.Window, cfg.Stream)
	}
}

func TestLoadConfigFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	src := `
particles = 64
ticks_per_frame = 3

[fluid]
mass = 80.0
gravity = "0, -9.8"
capacity = "evict-oldest"
max_particles = 100

[fluid.inlet]
left = 50.0
right = 250.0
top = 700.0
bottom = 640.0
`
	if err := afero.WriteFile(fs, "/etc/diesel.toml", []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(fs, "/etc/diesel.toml")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Particles != 64 || cfg.TicksPerFrame != 3 {
		t.Errorf("scene = %d particles, %d ticks per frame", cfg.Particles, cfg.TicksPerFrame)
	}
	p := cfg.Fluid
	if p.Mass != 80 || p.Capacity != F.CapacityEvictOldest || p.MaxParticles != 100 {
		t.Errorf("fluid = %+v", p)
	}
	if p.Gravity[0] != 0 || math.Abs(float64(p.Gravity[1])+9.8) > 1e-6 {
		t.Errorf("gravity = %s", p.Gravity)
	}
	if p.Inlet.Left != 50 || p.Inlet.Bottom != 640 {
		t.Errorf("inlet = %s", p.Inlet)
	}
	//untouched keys keep their defaults
	if p.SmoothingRadius != F.DefaultRadius || cfg.FrameRate != DefaultFrameRate {
		t.Errorf("defaults lost: radius %v frame rate %v", p.SmoothingRadius, cfg.FrameRate)
	}
}

func TestLoadConfigEnv(t *testing.T) {
	t.Setenv("DIESEL_PARTICLES", "12")
	t.Setenv("DIESEL_FLUID_MAX_PARTICLES", "250")
	t.Setenv("DIESEL_FLUID_GRAVITY", "1,-2")

	cfg, err := LoadConfig(afero.NewMemMapFs(), "")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Particles != 12 || cfg.Fluid.MaxParticles != 250 {
		t.Errorf("env overrides ignored: %d particles, cap %d", cfg.Particles, cfg.Fluid.MaxParticles)
	}
	if cfg.Fluid.Gravity != (V.Vec2{1, -2}) {
		t.Errorf("gravity = %s", cfg.Fluid.Gravity)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	fs := afero.NewMemMapFs()

	if _, err := LoadConfig(fs, "/missing.toml"); err == nil {
		t.Error("missing file should fail")
	}

	afero.WriteFile(fs, "/bad.toml", []byte("[fluid]\nsmoothing_radius = -1.0\n"), 0o644)
	if _, err := LoadConfig(fs, "/bad.toml"); !errors.Is(err, F.ErrInvalidParams) {
		t.Errorf("negative radius: err = %v", err)
	}

	afero.WriteFile(fs, "/vec.toml", []byte("[fluid]\ngravity = \"1,2,3\"\n"), 0o644)
	if _, err := LoadConfig(fs, "/vec.toml"); err == nil {
		t.Error("three component gravity should fail")
	}

	afero.WriteFile(fs, "/frames.toml", []byte("ticks_per_frame = 0\n"), 0o644)
	if _, err := LoadConfig(fs, "/frames.toml"); err == nil {
		t.Error("zero ticks per frame should fail")
	}
}

func TestWriteConfigRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Particles = 321
	cfg.Fluid.Gravity = V.Vec2{0.5, -40}
	cfg.Fluid.ReferenceJitter = true
	cfg.Terminal.Cols = 80

	var buf bytes.Buffer
	if err := WriteConfig(&buf, cfg); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "[fluid.inlet]") {
		t.Errorf("nested tables missing:\n%s", buf.String())
	}

	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "diesel.toml", buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := LoadConfig(fs, "diesel.toml")
	if err != nil {
		t.Fatalf("reloading written config: %v\n%s", err, buf.String())
	}
	if got != cfg {
		t.Errorf("round trip changed config:\n got %+v\nwant %+v", got, cfg)
	}
}

func TestVec2Hook(t *testing.T) {
	out, err := vec2Hook(reflect.TypeOf([]interface{}{}), vec2Type, []interface{}{int64(3), "4.5"})
	if err != nil {
		t.Fatal(err)
	}
	if out.(V.Vec2) != (V.Vec2{3, 4.5}) {
		t.Errorf("list decode = %v", out)
	}

	if _, err := vec2Hook(reflect.TypeOf(true), vec2Type, true); err == nil {
		t.Error("bool should not decode into a vector")
	}

	passthrough, _ := vec2Hook(reflect.TypeOf(""), reflect.TypeOf(""), "1,2")
	if passthrough != "1,2" {
		t.Error("non vector targets must pass through")
	}
}
