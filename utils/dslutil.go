package utils

import (
	"fmt"
	"unsafe"

	V "diesel.com/diesel/vector"
)

//PackClip maps world positions inside a view of the given extent onto
//interleaved clip space x,y pairs in [-1, 1]. dst is reused when large enough.
func PackClip(dst []float32, positions []V.Vec2, view V.Vec2) []float32 {
	dst = dst[:0]
	if view[0] <= 0 || view[1] <= 0 {
		return dst
	}
	sx := 2 / view[0]
	sy := 2 / view[1]
	for i := range positions {
		p := positions[i]
		dst = append(dst, p[0]*sx-1, p[1]*sy-1)
	}
	return dst
}

//TransferPositionData - copies packed clip data into a mapped graphics buffer.
//dst must have room for len(src) float32 values.
func TransferPositionData(dst unsafe.Pointer, src []float32) error {
	if dst == nil {
		return fmt.Errorf("no valid pointer to graphics memory")
	}
	if len(src) == 0 {
		return nil
	}
	copy(unsafe.Slice((*float32)(dst), len(src)), src)
	return nil
}

//Rasterize bins positions into a cols x rows grid of counts, row 0 at the top.
//Positions outside the view are dropped.
func Rasterize(dst []int, positions []V.Vec2, view V.Vec2, cols int, rows int) []int {
	n := cols * rows
	if n <= 0 {
		return dst[:0]
	}
	if cap(dst) < n {
		dst = make([]int, n)
	}
	dst = dst[:n]
	for i := range dst {
		dst[i] = 0
	}
	if view[0] <= 0 || view[1] <= 0 {
		return dst
	}

	for _, p := range positions {
		if p[0] < 0 || p[0] >= view[0] || p[1] < 0 || p[1] >= view[1] {
			continue
		}
		c := int(p[0] / view[0] * float32(cols))
		r := rows - 1 - int(p[1]/view[1]*float32(rows))
		if c >= cols {
			c = cols - 1
		}
		if r < 0 {
			r = 0
		}
		dst[r*cols+c]++
	}
	return dst
}

//Shade picks a glyph for a cell count, denser glyphs for fuller cells
func Shade(count int) rune {
	switch {
	case count <= 0:
		return ' '
	case count == 1:
		return '.'
	case count <= 3:
		return 'o'
	case count <= 6:
		return 'O'
	}
	return '@'
}
