//Command diesel runs the 2D SPH dam break headless, in an OpenGL window, in
//the terminal or as a websocket stream.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strings"

	"diesel.com/diesel/app"
	F "diesel.com/diesel/fluid"
	V "diesel.com/diesel/vector"
	"github.com/pkg/profile"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

func init() {
	//glfw needs the main thread
	runtime.LockOSThread()
}

//options shared by every subcommand
type options struct {
	configPath   string
	logLevel     string
	profileMode  string
	particles    int
	maxParticles int

	cfg        app.Config
	profileDir string
	profiler   interface{ Stop() }
}

func main() {
	root, o := newRootCmd()
	if err := execute(root, o); err != nil {
		os.Exit(1)
	}
}

//execute runs the command tree and flushes the profile whatever the outcome
func execute(root *cobra.Command, o *options) error {
	defer o.stopProfile()
	return root.Execute()
}

func newRootCmd() (*cobra.Command, *options) {
	o := &options{profileDir: "."}
	root := &cobra.Command{
		Use:          "diesel",
		Short:        "2D SPH dam break and hose simulation",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return o.setup(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&o.configPath, "config", "c", "", "config file (toml, yaml or json)")
	flags.StringVar(&o.logLevel, "log-level", "info", "debug, info, warn or error")
	flags.StringVar(&o.profileMode, "profile", "", "write a cpu or mem profile to the working directory")
	flags.IntVarP(&o.particles, "particles", "n", app.DefaultParticles, "initial dam particle count")
	flags.IntVar(&o.maxParticles, "max-particles", app.DefaultMaxParticles, "particle cap, 0 grows forever")

	root.AddCommand(
		newRunCmd(o),
		newViewCmd(o),
		newTermCmd(o),
		newServeCmd(o),
		newConfigCmd(o),
	)
	return root, o
}

//setup installs the logger, loads the config and starts profiling
func (o *options) setup(cmd *cobra.Command) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(o.logLevel)); err != nil {
		return fmt.Errorf("bad --log-level %q: %w", o.logLevel, err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	F.SetLogger(logger)

	cfg, err := app.LoadConfig(afero.NewOsFs(), o.configPath)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("particles") {
		cfg.Particles = o.particles
	}
	if flags.Changed("max-particles") {
		cfg.Fluid.MaxParticles = o.maxParticles
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	o.cfg = cfg

	switch strings.ToLower(o.profileMode) {
	case "":
	case "cpu":
		o.profiler = profile.Start(profile.CPUProfile, profile.ProfilePath(o.profileDir), profile.NoShutdownHook)
	case "mem":
		o.profiler = profile.Start(profile.MemProfile, profile.ProfilePath(o.profileDir), profile.NoShutdownHook)
	default:
		return fmt.Errorf("bad --profile %q: want cpu or mem", o.profileMode)
	}
	return nil
}

func (o *options) stopProfile() {
	if o.profiler != nil {
		o.profiler.Stop()
		o.profiler = nil
	}
}

//solver builds the fluid from the loaded config
func (o *options) solver() (*F.Solver, error) {
	return F.New(o.cfg.Particles, o.cfg.Fluid)
}

//viewOf is the extent of the solver's domain, the renderers' world size
func viewOf(s *F.Solver) V.Vec2 {
	d := s.Params().Domain()
	return V.Vec2{d.Width(), d.Height()}
}
