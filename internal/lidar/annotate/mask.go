package annotate

import (
	"errors"
	"fmt"
	"image"
	"image/color"
)

// ErrInvalidMargins is returned when margins leave no active region.
var ErrInvalidMargins = errors.New("annotate: margins leave an empty region")

// Mask is a row-major binary image.
type Mask struct {
	W, H int
	Bits []bool
}

// NewMask allocates an all-false mask.
func NewMask(w, h int) *Mask {
	return &Mask{W: w, H: h, Bits: make([]bool, w*h)}
}

// At reports whether (x, y) is set. Out-of-range reads are false.
func (m *Mask) At(x, y int) bool {
	if x < 0 || y < 0 || x >= m.W || y >= m.H {
		return false
	}
	return m.Bits[y*m.W+x]
}

// Set marks (x, y).
func (m *Mask) Set(x, y int) { m.Bits[y*m.W+x] = true }

// Count returns the number of set pixels.
func (m *Mask) Count() int {
	n := 0
	for _, b := range m.Bits {
		if b {
			n++
		}
	}
	return n
}

// ForegroundMask marks every pixel whose color differs from bg.
func ForegroundMask(img *image.RGBA, bg color.RGBA) *Mask {
	b := img.Bounds()
	m := NewMask(b.Dx(), b.Dy())
	for y := 0; y < m.H; y++ {
		for x := 0; x < m.W; x++ {
			c := img.RGBAAt(b.Min.X+x, b.Min.Y+y)
			if c.R != bg.R || c.G != bg.G || c.B != bg.B {
				m.Set(x, y)
			}
		}
	}
	return m
}

// ActiveRegion returns the rectangle left after trimming marginXPct percent
// of the width from the left and right, and marginYPct percent of the height
// from the top and bottom. Margin widths truncate toward zero.
func ActiveRegion(w, h int, marginXPct, marginYPct float64) (image.Rectangle, error) {
	if marginXPct < 0 || marginYPct < 0 {
		return image.Rectangle{}, fmt.Errorf("%w: negative margin (%v%%, %v%%)", ErrInvalidMargins, marginXPct, marginYPct)
	}
	dx := int(float64(w) * marginXPct / 100)
	dy := int(float64(h) * marginYPct / 100)
	r := image.Rect(dx, dy, w-dx, h-dy)
	if w-dx <= dx || h-dy <= dy {
		return image.Rectangle{}, fmt.Errorf("%w: %dx%d image with margins %v%%/%v%%", ErrInvalidMargins, w, h, marginXPct, marginYPct)
	}
	return r, nil
}

// Trim clears every pixel outside r in place.
func (m *Mask) Trim(r image.Rectangle) {
	for y := 0; y < m.H; y++ {
		inY := y >= r.Min.Y && y < r.Max.Y
		for x := 0; x < m.W; x++ {
			if !inY || x < r.Min.X || x >= r.Max.X {
				m.Bits[y*m.W+x] = false
			}
		}
	}
}

// diskSpans returns, for each dy in [-r, r], the half width of the disk row.
func diskSpans(r int) []int {
	spans := make([]int, 2*r+1)
	for dy := -r; dy <= r; dy++ {
		half := 0
		for (half+1)*(half+1)+dy*dy <= r*r {
			half++
		}
		spans[dy+r] = half
	}
	return spans
}

// Dilate returns m dilated by a disk of radius r. r <= 0 returns a copy.
func Dilate(m *Mask, r int) *Mask {
	out := NewMask(m.W, m.H)
	copy(out.Bits, m.Bits)
	if r <= 0 {
		return out
	}
	spans := diskSpans(r)
	for y := 0; y < m.H; y++ {
		for x := 0; x < m.W; x++ {
			if !m.Bits[y*m.W+x] {
				continue
			}
			// Pixels with all eight neighbours set are covered by them.
			if m.At(x-1, y) && m.At(x+1, y) && m.At(x, y-1) && m.At(x, y+1) &&
				m.At(x-1, y-1) && m.At(x+1, y-1) && m.At(x-1, y+1) && m.At(x+1, y+1) {
				continue
			}
			for dy := -r; dy <= r; dy++ {
				yy := y + dy
				if yy < 0 || yy >= m.H {
					continue
				}
				half := spans[dy+r]
				lo := max(x-half, 0)
				hi := min(x+half, m.W-1)
				row := out.Bits[yy*m.W : yy*m.W+m.W]
				for xx := lo; xx <= hi; xx++ {
					row[xx] = true
				}
			}
		}
	}
	return out
}
