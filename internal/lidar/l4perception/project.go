package l4perception

import (
	"math"

	"github.com/banshee-data/sweepview/internal/lidar/l2frames"
)

// DefaultMaxRadius is the range cutoff in world units. Returns beyond it are
// treated as sensor noise.
const DefaultMaxRadius = 15.0

// Translation is a sensor's mounting offset in world units.
type Translation struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Translations holds one offset per sensor.
type Translations [l2frames.NumSensors]Translation

// Params controls projection.
type Params struct {
	MaxRadius float64 // inclusive range cutoff (default: 15)
}

// DefaultParams returns the default cutoff.
func DefaultParams() Params { return Params{MaxRadius: DefaultMaxRadius} }

func (p Params) maxRadius() float64 {
	if p.MaxRadius <= 0 {
		return DefaultMaxRadius
	}
	return p.MaxRadius
}

// WorldPoint is a projected sample.
type WorldPoint struct {
	X, Y   float64
	Sensor int
}

// PolarToWorld converts one sample. Azimuth is measured clockwise from the
// +y ("north") axis, so x uses sine and y uses cosine.
func PolarToWorld(radius, angleDeg float64, t Translation) (x, y float64) {
	a := angleDeg * math.Pi / 180.0
	return radius*math.Sin(a) + t.X, radius*math.Cos(a) + t.Y
}

// Project maps every kept sample of f into world space, per sensor.
// Samples with radius above the cutoff, or with non-finite values, are
// dropped.
func Project(f l2frames.Frame, tr Translations, p Params) [l2frames.NumSensors][]WorldPoint {
	var out [l2frames.NumSensors][]WorldPoint
	for k := 0; k < l2frames.NumSensors; k++ {
		out[k] = projectSensor(out[k], f.Radius[k], f.Angle[k], k, tr[k], p.maxRadius())
	}
	return out
}

// ProjectAll concatenates the projections of frames per sensor.
func ProjectAll(frames []l2frames.Frame, tr Translations, p Params) [l2frames.NumSensors][]WorldPoint {
	var out [l2frames.NumSensors][]WorldPoint
	for _, f := range frames {
		for k := 0; k < l2frames.NumSensors; k++ {
			out[k] = projectSensor(out[k], f.Radius[k], f.Angle[k], k, tr[k], p.maxRadius())
		}
	}
	return out
}

func projectSensor(dst []WorldPoint, radius, angle []float64, sensor int, t Translation, maxR float64) []WorldPoint {
	n := min(len(radius), len(angle))
	for i := 0; i < n; i++ {
		r, a := radius[i], angle[i]
		if !(r <= maxR) || math.IsInf(r, 0) || math.IsNaN(a) || math.IsInf(a, 0) {
			continue
		}
		x, y := PolarToWorld(r, a, t)
		dst = append(dst, WorldPoint{X: x, Y: y, Sensor: sensor})
	}
	return dst
}

// Count returns the total number of points across sensors.
func Count(pts [l2frames.NumSensors][]WorldPoint) int {
	n := 0
	for _, p := range pts {
		n += len(p)
	}
	return n
}
