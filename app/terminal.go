package app

import (
	"fmt"
	"sync"
	"sync/atomic"

	G "diesel.com/diesel/geometry"
	U "diesel.com/diesel/utils"
	V "diesel.com/diesel/vector"
	"github.com/nsf/termbox-go"
)

//TermSink renders frames as ASCII density in the terminal. The bottom row is
//a status line. ESC or Ctrl-C stops the loop.
type TermSink struct {
	view    V.Vec2
	inlet   G.Rect
	cols    int //fixed grid, 0 follows the terminal
	rows    int
	grid    []int
	backbuf []termbox.Cell
	bbw     int
	bbh     int

	stop    atomic.Bool
	resized atomic.Bool
	wg      sync.WaitGroup
}

//NewTermSink takes over the terminal until Close
func NewTermSink(cfg TerminalConfig, view V.Vec2, inlet G.Rect) (*TermSink, error) {
	if err := termbox.Init(); err != nil {
		return nil, fmt.Errorf("could not initiate terminal: %w", err)
	}
	termbox.SetInputMode(termbox.InputEsc)

	t := &TermSink{view: view, inlet: inlet, cols: cfg.Cols, rows: cfg.Rows}
	t.reallocBackBuffer(termbox.Size())

	t.wg.Add(1)
	go t.pollEvents()
	return t, nil
}

func (t *TermSink) pollEvents() {
	defer t.wg.Done()
	for {
		switch ev := termbox.PollEvent(); ev.Type {
		case termbox.EventKey:
			if ev.Key == termbox.KeyEsc || ev.Key == termbox.KeyCtrlC || ev.Ch == 'q' {
				t.stop.Store(true)
			}
		case termbox.EventResize:
			t.resized.Store(true)
		case termbox.EventInterrupt, termbox.EventError:
			return
		}
	}
}

func (t *TermSink) reallocBackBuffer(w, h int) {
	t.bbw, t.bbh = w, h
	t.backbuf = make([]termbox.Cell, w*h)
}

//gridSize is the particle area, leaving the status row free
func (t *TermSink) gridSize() (int, int) {
	cols, rows := t.bbw, t.bbh-1
	if t.cols > 0 && t.cols < cols {
		cols = t.cols
	}
	if t.rows > 0 && t.rows < rows {
		rows = t.rows
	}
	return cols, rows
}

func (t *TermSink) Draw(f Frame) error {
	if t.stop.Load() {
		return ErrStop
	}
	if t.resized.Swap(false) {
		t.reallocBackBuffer(termbox.Size())
	}
	cols, rows := t.gridSize()
	if cols <= 0 || rows <= 0 {
		return nil
	}

	for i := range t.backbuf {
		t.backbuf[i] = termbox.Cell{Ch: ' '}
	}
	t.grid = U.Rasterize(t.grid, f.Positions, t.view, cols, rows)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if n := t.grid[r*cols+c]; n > 0 {
				t.backbuf[r*t.bbw+c] = termbox.Cell{Ch: U.Shade(n), Fg: termbox.ColorCyan}
			}
		}
	}
	t.drawInlet(cols, rows)

	status := fmt.Sprintf(" tick %d  particles %d  t=%.3fs", f.Tick, len(f.Positions), f.Stats.Time)
	if f.Saturated {
		status += "  [capacity reached]"
	}
	t.text(0, t.bbh-1, status)

	copy(termbox.CellBuffer(), t.backbuf)
	return termbox.Flush()
}

//drawInlet outlines the hose walls, the nozzle side stays open
func (t *TermSink) drawInlet(cols, rows int) {
	cell := func(x, y float32) (int, int) {
		c := int(x / t.view[0] * float32(cols))
		r := rows - 1 - int(y/t.view[1]*float32(rows))
		return c, r
	}
	l, top := cell(t.inlet.Left, t.inlet.Top)
	r, bottom := cell(t.inlet.Right, t.inlet.Bottom)

	put := func(c, r int, ch rune) {
		if c >= 0 && c < cols && r >= 0 && r < rows {
			t.backbuf[r*t.bbw+c] = termbox.Cell{Ch: ch, Fg: termbox.ColorWhite}
		}
	}
	for c := l; c <= r; c++ {
		put(c, top, '-')
		put(c, bottom, '-')
	}
	for y := top + 1; y < bottom; y++ {
		put(l, y, '|')
	}
}

func (t *TermSink) text(x, y int, s string) {
	if y < 0 || y >= t.bbh {
		return
	}
	for _, ch := range s {
		if x >= t.bbw {
			return
		}
		t.backbuf[y*t.bbw+x] = termbox.Cell{Ch: ch, Fg: termbox.ColorWhite | termbox.AttrBold}
		x++
	}
}

//Close stops the event goroutine and restores the terminal
func (t *TermSink) Close() error {
	termbox.Interrupt()
	t.wg.Wait()
	termbox.Close()
	return nil
}
