package app

//Manages the fluid scene routine - paces solver ticks against frames and hands
//position snapshots to whatever is drawing them
import (
	"context"
	"errors"
	"log/slog"
	"time"

	F "diesel.com/diesel/fluid"
	V "diesel.com/diesel/vector"
	"github.com/google/uuid"
)

//ErrStop is returned by a Sink to end the loop cleanly (window closed, ESC)
var ErrStop = errors.New("app: stop requested")

//Frame is one snapshot handed to a Sink. Positions is owned by the loop and
//only valid until Draw returns.
type Frame struct {
	Tick      uint64
	Positions []V.Vec2
	Stats     F.Stats
	Saturated bool
}

//Sink consumes frames. Draw runs on the loop goroutine.
type Sink interface {
	Draw(Frame) error
	Close() error
}

//Stepper is the part of the solver the loop drives
type Stepper interface {
	Tick()
	Snapshot(dst []V.Vec2) []V.Vec2
	Stats() F.Stats
	Saturated() bool
}

//LoopOptions - frame pacing, taken from Config
type LoopOptions struct {
	TicksPerFrame int
	FrameRate     float64 //0 runs unthrottled
	MaxFrames     int     //0 runs until ctx, ErrStop or a sink error
}

//Options extracts the loop pacing from a config
func (c Config) Options() LoopOptions {
	return LoopOptions{TicksPerFrame: c.TicksPerFrame, FrameRate: c.FrameRate, MaxFrames: c.MaxFrames}
}

//Seconds timer for animation
type AnimationTimer struct {
	AppStart    time.Time //Time the loop started
	CurrentTime time.Time //Last polled time
	LastFrame   time.Time //Last time a frame was drawn
	Frames      int
}

//FPS over the whole run
func (a *AnimationTimer) FPS() float64 {
	elapsed := a.CurrentTime.Sub(a.AppStart).Seconds()
	if elapsed <= 0 {
		return 0
	}
	return float64(a.Frames) / elapsed
}

//Loop - main scene loop. Each frame runs TicksPerFrame solver ticks, takes a
//snapshot into a reused buffer and draws it. Returns nil on ctx cancellation,
//ErrStop or MaxFrames, otherwise the sink error. The sink is not closed.
func Loop(ctx context.Context, sim Stepper, opts LoopOptions, sink Sink) error {
	ticks := opts.TicksPerFrame
	if ticks < 1 {
		ticks = 1
	}
	log := F.Logger().With("run", uuid.New().String())

	var pace <-chan time.Time
	if opts.FrameRate > 0 {
		ticker := time.NewTicker(time.Duration(float64(time.Second) / opts.FrameRate))
		defer ticker.Stop()
		pace = ticker.C
	}

	anim := AnimationTimer{AppStart: time.Now()}
	anim.CurrentTime = anim.AppStart
	log.Info("scene started", "ticks_per_frame", ticks, "frame_rate", opts.FrameRate, "max_frames", opts.MaxFrames)

	var buf []V.Vec2
	err := func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			default:
			}

			for k := 0; k < ticks; k++ {
				sim.Tick()
			}
			buf = sim.Snapshot(buf)
			st := sim.Stats()

			if err := sink.Draw(Frame{Tick: st.Ticks, Positions: buf, Stats: st, Saturated: sim.Saturated()}); err != nil {
				if errors.Is(err, ErrStop) {
					return nil
				}
				return err
			}
			anim.Frames++
			anim.CurrentTime = time.Now()
			anim.LastFrame = anim.CurrentTime
			log.Debug("frame", "tick", st.Ticks, "particles", len(buf))

			if opts.MaxFrames > 0 && anim.Frames >= opts.MaxFrames {
				return nil
			}
			if pace != nil {
				select {
				case <-ctx.Done():
					return nil
				case <-pace:
				}
			}
		}
	}()

	attrs := []any{"frames", anim.Frames, "particles", len(buf), "fps", anim.FPS()}
	if err != nil {
		log.Error("scene failed", append(attrs, "err", err)...)
		return err
	}
	log.Info("scene stopped", attrs...)
	return nil
}

//StatsSink is the headless sink: it logs solver counters every Every frames
type StatsSink struct {
	Every  int
	Logger *slog.Logger //nil uses fluid.Logger()
	frames int
	count  int
	last   Frame
}

func (s *StatsSink) Draw(f Frame) error {
	s.frames++
	s.count = len(f.Positions)
	s.last = f
	s.last.Positions = nil
	if s.Every <= 0 || s.frames%s.Every != 0 {
		return nil
	}
	s.log()
	return nil
}

//Close logs the final counters
func (s *StatsSink) Close() error {
	if s.frames > 0 {
		s.log()
	}
	return nil
}

//Last is the most recent frame without its positions, and its particle count
func (s *StatsSink) Last() (Frame, int) { return s.last, s.count }

func (s *StatsSink) log() {
	f := s.last
	l := s.Logger
	if l == nil {
		l = F.Logger()
	}
	l.Info("stats",
		"tick", f.Tick,
		"particles", s.count,
		"injected", f.Stats.Injected,
		"evicted", f.Stats.Evicted,
		"skipped", f.Stats.Skipped,
		"sim_time", f.Stats.Time,
		"saturated", f.Saturated)
}

//MultiSink draws each frame to every sink in order
type MultiSink []Sink

func (m MultiSink) Draw(f Frame) error {
	for _, s := range m {
		if err := s.Draw(f); err != nil {
			return err
		}
	}
	return nil
}

func (m MultiSink) Close() error {
	var errs []error
	for _, s := range m {
		errs = append(errs, s.Close())
	}
	return errors.Join(errs...)
}
