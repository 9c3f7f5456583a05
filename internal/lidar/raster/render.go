package raster

import (
	"image"
	"image/color"

	"github.com/fogleman/gg"

	"github.com/banshee-data/sweepview/internal/lidar/l2frames"
	"github.com/banshee-data/sweepview/internal/lidar/l4perception"
)

// DefaultPointRadius is the disk radius of a drawn sample, in pixels.
const DefaultPointRadius = 1

// Params controls rendering.
type Params struct {
	Canvas       Canvas
	PointRadius  int        // disk radius in pixels (default: 1; 0 draws single pixels)
	Background   color.RGBA // canvas fill (default: white)
	Palette      Palette
	Translations l4perception.Translations
	Projection   l4perception.Params
}

// DefaultParams returns the batch rendering defaults with zero translations.
func DefaultParams() Params {
	return Params{
		Canvas:      DefaultCanvas(),
		PointRadius: DefaultPointRadius,
		Background:  color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff},
		Palette:     DefaultPalette(),
		Projection:  l4perception.DefaultParams(),
	}
}

// NewCanvasImage returns a canvas-sized image filled with the background.
func NewCanvasImage(p Params) *image.RGBA {
	img := image.NewRGBA(p.Canvas.Bounds())
	dc := gg.NewContextForRGBA(img)
	dc.SetColor(p.Background)
	dc.Clear()
	return img
}

// RenderOverlay draws every frame onto one canvas.
func RenderOverlay(frames []l2frames.Frame, p Params) *image.RGBA {
	img := NewCanvasImage(p)
	DrawPoints(img, l4perception.ProjectAll(frames, p.Translations, p.Projection), p)
	return img
}

// RenderFrame draws a single frame onto a fresh canvas.
func RenderFrame(f l2frames.Frame, p Params) *image.RGBA {
	img := NewCanvasImage(p)
	DrawPoints(img, l4perception.Project(f, p.Translations, p.Projection), p)
	return img
}

// DrawPoints draws projected points in sensor order, so later sensors win
// where disks overlap.
func DrawPoints(img *image.RGBA, pts [l2frames.NumSensors][]l4perception.WorldPoint, p Params) {
	r := max(p.PointRadius, 0)
	for k, sensorPts := range pts {
		c := p.Palette[k]
		for _, wp := range sensorPts {
			fillDisk(img, p.Canvas.WorldToPixel(wp.X, wp.Y), r, c)
		}
	}
}

// fillDisk sets every pixel within r of center, clipped to img.
func fillDisk(img *image.RGBA, center image.Point, r int, c color.RGBA) {
	b := img.Bounds()
	r2 := r * r
	for dy := -r; dy <= r; dy++ {
		y := center.Y + dy
		if y < b.Min.Y || y >= b.Max.Y {
			continue
		}
		for dx := -r; dx <= r; dx++ {
			if dx*dx+dy*dy > r2 {
				continue
			}
			x := center.X + dx
			if x < b.Min.X || x >= b.Max.X {
				continue
			}
			img.SetRGBA(x, y, c)
		}
	}
}
