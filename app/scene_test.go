package app

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	F "diesel.com/diesel/fluid"
)

//recordSink keeps frame counts and stops or fails on request
type recordSink struct {
	ticks   []uint64
	lengths []int
	stopAt  int
	failAt  int
	closed  bool
}

func (r *recordSink) Draw(f Frame) error {
	r.ticks = append(r.ticks, f.Tick)
	r.lengths = append(r.lengths, len(f.Positions))
	n := len(r.ticks)
	if r.stopAt > 0 && n == r.stopAt {
		return ErrStop
	}
	if r.failAt > 0 && n == r.failAt {
		return errors.New("sink broke")
	}
	return nil
}

func (r *recordSink) Close() error {
	r.closed = true
	return nil
}

func newSceneSolver(t *testing.T, count int) *F.Solver {
	t.Helper()
	s, err := F.New(count, F.DefaultParams())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(s.Close)
	return s
}

func TestLoopMaxFrames(t *testing.T) {
	s := newSceneSolver(t, 20)
	sink := &recordSink{}

	err := Loop(context.Background(), s, LoopOptions{TicksPerFrame: 2, MaxFrames: 4}, sink)
	if err != nil {
		t.Fatal(err)
	}
	if len(sink.ticks) != 4 {
		t.Fatalf("drew %d frames, want 4", len(sink.ticks))
	}
	for i, tick := range sink.ticks {
		if tick != uint64(2*(i+1)) {
			t.Errorf("frame %d at tick %d, want %d", i, tick, 2*(i+1))
		}
		if sink.lengths[i] != 20+2*(i+1) {
			t.Errorf("frame %d has %d positions", i, sink.lengths[i])
		}
	}
	if sink.closed {
		t.Error("Loop must leave closing to the caller")
	}
}

func TestLoopStopAndFailure(t *testing.T) {
	stop := &recordSink{stopAt: 3}
	if err := Loop(context.Background(), newSceneSolver(t, 5), LoopOptions{}, stop); err != nil {
		t.Errorf("ErrStop should end the loop cleanly, got %v", err)
	}
	if len(stop.ticks) != 3 {
		t.Errorf("drew %d frames after stop", len(stop.ticks))
	}

	fail := &recordSink{failAt: 2}
	err := Loop(context.Background(), newSceneSolver(t, 5), LoopOptions{}, fail)
	if err == nil || !strings.Contains(err.Error(), "sink broke") {
		t.Errorf("sink error not returned: %v", err)
	}
}

func TestLoopCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sink := &recordSink{}
	if err := Loop(ctx, newSceneSolver(t, 5), LoopOptions{FrameRate: 1000}, sink); err != nil {
		t.Fatal(err)
	}
	if len(sink.ticks) != 0 {
		t.Errorf("cancelled loop drew %d frames", len(sink.ticks))
	}
}

func TestLoopPaced(t *testing.T) {
	sink := &recordSink{}
	err := Loop(context.Background(), newSceneSolver(t, 5), LoopOptions{FrameRate: 500, MaxFrames: 3}, sink)
	if err != nil || len(sink.ticks) != 3 {
		t.Errorf("paced loop: err %v, %d frames", err, len(sink.ticks))
	}
}

func TestStatsSink(t *testing.T) {
	var buf bytes.Buffer
	stats := &StatsSink{Every: 2, Logger: slog.New(slog.NewTextHandler(&buf, nil))}

	err := Loop(context.Background(), newSceneSolver(t, 10), LoopOptions{MaxFrames: 5}, stats)
	if err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(buf.String(), "msg=stats"); n != 2 {
		t.Errorf("logged %d stats lines over 5 frames, want 2", n)
	}
	stats.Close()
	if !strings.Contains(buf.String(), "tick=5") || !strings.Contains(buf.String(), "particles=15") {
		t.Errorf("final stats missing:\n%s", buf.String())
	}
	last, count := stats.Last()
	if last.Positions != nil || count != 15 || last.Stats.Injected != 5 {
		t.Errorf("last frame = %+v, count %d", last, count)
	}
}

func TestMultiSink(t *testing.T) {
	a, b := &recordSink{}, &recordSink{failAt: 1}
	m := MultiSink{a, b}

	if err := m.Draw(Frame{Tick: 1}); err == nil {
		t.Error("MultiSink should surface the failing sink")
	}
	if len(a.ticks) != 1 {
		t.Error("first sink not drawn")
	}
	if err := m.Close(); err != nil || !a.closed || !b.closed {
		t.Errorf("close: err %v, closed %v %v", err, a.closed, b.closed)
	}
}

func TestConfigOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxFrames = 9
	o := cfg.Options()
	if o.TicksPerFrame != cfg.TicksPerFrame || o.FrameRate != cfg.FrameRate || o.MaxFrames != 9 {
		t.Errorf("options = %+v", o)
	}
}
