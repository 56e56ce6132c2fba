package geometry

import (
	"fmt"

	V "diesel.com/diesel/vector"
)

//diesel geometry library - axis aligned rectangles for particle boundary collision.
//The fluid domain and the hose inlet are both Rects. Y points up, so Top > Bottom.

//Rect is an axis-aligned rectangle in world coordinates
type Rect struct {
	Left   float32 `mapstructure:"left"`
	Right  float32 `mapstructure:"right"`
	Top    float32 `mapstructure:"top"`
	Bottom float32 `mapstructure:"bottom"`
}

//Box builds a Rect anchored at the origin with the given extent (the view domain)
func Box(w float32, h float32) Rect {
	return Rect{Left: 0, Right: w, Top: h, Bottom: 0}
}

func (r Rect) Width() float32 {
	return r.Right - r.Left
}

func (r Rect) Height() float32 {
	return r.Top - r.Bottom
}

//Valid reports a non-degenerate rectangle
func (r Rect) Valid() error {
	if !(r.Right > r.Left) {
		return fmt.Errorf("rect right %v must exceed left %v", r.Right, r.Left)
	}
	if !(r.Top > r.Bottom) {
		return fmt.Errorf("rect top %v must exceed bottom %v", r.Top, r.Bottom)
	}
	return nil
}

//Contains uses open bounds on every edge
func (r Rect) Contains(p V.Vec2) bool {
	return p[0] > r.Left && p[0] < r.Right && p[1] > r.Bottom && p[1] < r.Top
}

//Inset shrinks every edge by margin
func (r Rect) Inset(margin float32) Rect {
	return Rect{r.Left + margin, r.Right - margin, r.Top - margin, r.Bottom + margin}
}

func (r Rect) String() string {
	return fmt.Sprintf("{L:%g R:%g T:%g B:%g}", r.Left, r.Right, r.Top, r.Bottom)
}
