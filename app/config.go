package app

//Scene configuration - file, environment and defaults merged through viper
import (
	"fmt"
	"io"
	"reflect"
	"sort"
	"strings"

	F "diesel.com/diesel/fluid"
	V "diesel.com/diesel/vector"
	"github.com/mitchellh/mapstructure"
	toml "github.com/pelletier/go-toml"
	"github.com/spf13/afero"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

//EnvPrefix - DIESEL_FLUID_MAX_PARTICLES overrides fluid.max_particles
const EnvPrefix = "DIESEL"

//WindowConfig - OpenGL viewer window
type WindowConfig struct {
	Width  int    `mapstructure:"width"`
	Height int    `mapstructure:"height"`
	Title  string `mapstructure:"title"`
}

//StreamConfig - websocket snapshot server
type StreamConfig struct {
	Address string `mapstructure:"address"`
	Path    string `mapstructure:"path"`
}

//TerminalConfig - ASCII viewer grid, zero uses the terminal size
type TerminalConfig struct {
	Cols int `mapstructure:"cols"`
	Rows int `mapstructure:"rows"`
}

//Config is everything a scene needs: the fluid parameters plus how the
//frames are paced and where they are shown
type Config struct {
	Particles     int            `mapstructure:"particles"`       //initial dam size
	TicksPerFrame int            `mapstructure:"ticks_per_frame"` //solver ticks between snapshots
	FrameRate     float64        `mapstructure:"frame_rate"`      //frames per second, 0 unthrottled
	MaxFrames     int            `mapstructure:"max_frames"`      //0 runs until stopped
	Fluid         F.Params       `mapstructure:"fluid"`
	Window        WindowConfig   `mapstructure:"window"`
	Stream        StreamConfig   `mapstructure:"stream"`
	Terminal      TerminalConfig `mapstructure:"terminal"`
}

//Scene defaults. The particle cap keeps long interactive runs bounded.
const (
	DefaultParticles     = 500
	DefaultTicksPerFrame = 1
	DefaultFrameRate     = 60.0
	DefaultMaxParticles  = 4000
)

//DefaultConfig - reference dam break with a bounded particle count
func DefaultConfig() Config {
	p := F.DefaultParams()
	p.MaxParticles = DefaultMaxParticles
	p.Capacity = F.CapacityStop

	return Config{
		Particles:     DefaultParticles,
		TicksPerFrame: DefaultTicksPerFrame,
		FrameRate:     DefaultFrameRate,
		Fluid:         p,
		Window:        WindowConfig{Width: int(p.ViewWidth), Height: int(p.ViewHeight), Title: "Diesel Particle SPH"},
		Stream:        StreamConfig{Address: "localhost:8080", Path: "/ws"},
	}
}

//Validate checks the scene fields, then the fluid parameters
func (c Config) Validate() error {
	switch {
	case c.Particles < 0:
		return fmt.Errorf("particles %d is negative", c.Particles)
	case c.TicksPerFrame < 1:
		return fmt.Errorf("ticks per frame %d must be at least 1", c.TicksPerFrame)
	case c.FrameRate < 0:
		return fmt.Errorf("frame rate %v is negative", c.FrameRate)
	case c.MaxFrames < 0:
		return fmt.Errorf("max frames %d is negative", c.MaxFrames)
	}
	return c.Fluid.Validate()
}

//LoadConfig merges DefaultConfig, the optional file at path on fs and
//DIESEL_* environment variables. The file format follows its extension.
func LoadConfig(fs afero.Fs, path string) (Config, error) {
	v := viper.New()
	v.SetFs(fs)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	//every key needs a default so the environment can reach it
	flatten("", settings(DefaultConfig()), v.SetDefault)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	var cfg Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		vec2Hook,
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

//WriteConfig renders cfg as TOML, loadable again by LoadConfig
func WriteConfig(w io.Writer, cfg Config) error {
	tree, err := toml.TreeFromMap(settings(cfg))
	if err != nil {
		return fmt.Errorf("building toml tree: %w", err)
	}
	_, err = tree.WriteTo(w)
	return err
}

var vec2Type = reflect.TypeOf(V.Vec2{})

//vec2Hook decodes vectors written as "x,y" or as a two element list
func vec2Hook(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	if to != vec2Type || from == vec2Type {
		return data, nil
	}

	var parts []interface{}
	switch d := data.(type) {
	case string:
		for _, s := range strings.Split(d, ",") {
			parts = append(parts, strings.TrimSpace(s))
		}
	default:
		rv := reflect.ValueOf(data)
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			return nil, fmt.Errorf("cannot decode %T into a vector", data)
		}
		for i := 0; i < rv.Len(); i++ {
			parts = append(parts, rv.Index(i).Interface())
		}
	}
	if len(parts) != 2 {
		return nil, fmt.Errorf("vector needs 2 components, got %d", len(parts))
	}

	var out V.Vec2
	for i, p := range parts {
		f, err := cast.ToFloat32E(p)
		if err != nil {
			return nil, fmt.Errorf("vector component %d: %w", i, err)
		}
		out[i] = f
	}
	return out, nil
}

//settings is the nested key tree of cfg, using the mapstructure key names
func settings(cfg Config) map[string]interface{} {
	p := cfg.Fluid
	return map[string]interface{}{
		"particles":       int64(cfg.Particles),
		"ticks_per_frame": int64(cfg.TicksPerFrame),
		"frame_rate":      cfg.FrameRate,
		"max_frames":      int64(cfg.MaxFrames),
		"fluid": map[string]interface{}{
			"smoothing_radius": float64(p.SmoothingRadius),
			"rest_density":     float64(p.RestDensity),
			"gas_constant":     float64(p.GasConstant),
			"mass":             float64(p.Mass),
			"viscosity":        float64(p.Viscosity),
			"gravity":          []interface{}{float64(p.Gravity[0]), float64(p.Gravity[1])},
			"bound_damping":    float64(p.BoundDamping),
			"time_step":        float64(p.TimeStep),
			"inlet": map[string]interface{}{
				"left":   float64(p.Inlet.Left),
				"right":  float64(p.Inlet.Right),
				"top":    float64(p.Inlet.Top),
				"bottom": float64(p.Inlet.Bottom),
			},
			"view_width":       float64(p.ViewWidth),
			"view_height":      float64(p.ViewHeight),
			"inject_speed":     float64(p.InjectSpeed),
			"seed":             p.Seed,
			"max_particles":    int64(p.MaxParticles),
			"capacity":         string(p.Capacity),
			"reference_jitter": p.ReferenceJitter,
			"workers":          int64(p.Workers),
		},
		"window": map[string]interface{}{
			"width":  int64(cfg.Window.Width),
			"height": int64(cfg.Window.Height),
			"title":  cfg.Window.Title,
		},
		"stream": map[string]interface{}{
			"address": cfg.Stream.Address,
			"path":    cfg.Stream.Path,
		},
		"terminal": map[string]interface{}{
			"cols": int64(cfg.Terminal.Cols),
			"rows": int64(cfg.Terminal.Rows),
		},
	}
}

//flatten walks the tree in key order calling set with dotted keys
func flatten(prefix string, tree map[string]interface{}, set func(string, interface{})) {
	keys := make([]string, 0, len(tree))
	for k := range tree {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if sub, ok := tree[k].(map[string]interface{}); ok {
			flatten(key, sub, set)
			continue
		}
		set(key, tree[k])
	}
}
