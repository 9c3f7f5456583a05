package report

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/sweepview/internal/lidar/l2frames"
)

// FrameStats summarizes one frame's sensor trace.
type FrameStats struct {
	Index       int
	Samples     int
	MeanRadius  float64
	StdRadius   float64
	AngleSpread float64 // max minus min angle, in degrees
}

// Summarize computes per-frame stats for one sensor. Non-finite radii are
// ignored in the mean.
func Summarize(frames []l2frames.Frame, sensor int) []FrameStats {
	out := make([]FrameStats, 0, len(frames))
	for _, f := range frames {
		fs := FrameStats{Index: f.Index, Samples: f.Len()}
		radii := make([]float64, 0, f.Len())
		for _, r := range f.Radius[sensor] {
			if !math.IsNaN(r) && !math.IsInf(r, 0) {
				radii = append(radii, r)
			}
		}
		if len(radii) > 0 {
			fs.MeanRadius, fs.StdRadius = stat.MeanStdDev(radii, nil)
			if len(radii) == 1 {
				fs.StdRadius = 0
			}
		}
		lo, hi := math.Inf(1), math.Inf(-1)
		for _, a := range f.Angle[sensor] {
			lo = math.Min(lo, a)
			hi = math.Max(hi, a)
		}
		if hi >= lo {
			fs.AngleSpread = hi - lo
		}
		out = append(out, fs)
	}
	return out
}
