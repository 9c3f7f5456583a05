package raster

import (
	"image"
	"math"
)

// Default canvas geometry: 1280x720 pixels covering 15 world units across.
const (
	DefaultWidth  = 1280
	DefaultHeight = 720
	DefaultHalfX  = 7.5
)

// DefaultHalfY keeps pixels square for the default canvas.
const DefaultHalfY = DefaultHeight * (2 * DefaultHalfX / DefaultWidth) / 2

// Canvas maps a world rectangle of half extents (HalfX, HalfY) onto a
// Width x Height pixel grid.
type Canvas struct {
	Width  int     `json:"width"`
	Height int     `json:"height"`
	HalfX  float64 `json:"half_x"`
	HalfY  float64 `json:"half_y"`
}

// DefaultCanvas returns the batch canvas.
func DefaultCanvas() Canvas {
	return Canvas{Width: DefaultWidth, Height: DefaultHeight, HalfX: DefaultHalfX, HalfY: DefaultHalfY}
}

// SquareCanvas returns a canvas whose vertical extent follows from halfX and
// the pixel aspect ratio.
func SquareCanvas(width, height int, halfX float64) Canvas {
	return Canvas{Width: width, Height: height, HalfX: halfX, HalfY: halfX * float64(height) / float64(width)}
}

// Valid reports whether the canvas can be drawn on.
func (c Canvas) Valid() bool {
	return c.Width > 0 && c.Height > 0 && c.HalfX > 0 && c.HalfY > 0
}

// Bounds returns the pixel rectangle.
func (c Canvas) Bounds() image.Rectangle { return image.Rect(0, 0, c.Width, c.Height) }

// WorldToPixel maps a world coordinate to a pixel, clamped to the canvas.
// Halves round to even.
func (c Canvas) WorldToPixel(x, y float64) image.Point {
	xn := (x + c.HalfX) / (2 * c.HalfX)
	yn := (y + c.HalfY) / (2 * c.HalfY)
	px := clampRound(xn*float64(c.Width), c.Width)
	py := clampRound((1-yn)*float64(c.Height), c.Height)
	return image.Point{X: px, Y: py}
}

func clampRound(v float64, dim int) int {
	switch {
	case math.IsNaN(v):
		return 0
	case v <= 0:
		return 0
	case v >= float64(dim-1):
		return dim - 1
	}
	return int(math.RoundToEven(v))
}
