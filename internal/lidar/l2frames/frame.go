package l2frames

import (
	"github.com/banshee-data/sweepview/internal/lidar/parse"
)

// NumSensors mirrors parse.NumSensors for callers that only import frames.
const NumSensors = parse.NumSensors

// Frame is one sweep: per-sensor radius and angle sequences in arrival order.
// Every sensor's sequences have the same length. Frames are not modified
// after the builder hands them out.
type Frame struct {
	Index  int // position within the source, starting at 0
	Radius [NumSensors][]float64
	Angle  [NumSensors][]float64
}

// Len returns the number of samples in the frame.
func (f *Frame) Len() int {
	if f == nil {
		return 0
	}
	return len(f.Radius[0])
}

// Empty reports whether the frame holds no samples.
func (f *Frame) Empty() bool { return f.Len() == 0 }

// Sample returns the i-th sample across all sensors.
func (f *Frame) Sample(i int) parse.Sample {
	var s parse.Sample
	for k := 0; k < NumSensors; k++ {
		s.Radius[k] = f.Radius[k][i]
		s.Angle[k] = f.Angle[k][i]
	}
	return s
}

// FromSamples builds a single frame from samples, bypassing boundary
// detection. Live hosts that already deliver one sweep per tick use it.
func FromSamples(index int, samples []parse.Sample) Frame {
	f := Frame{Index: index}
	for k := 0; k < NumSensors; k++ {
		f.Radius[k] = make([]float64, 0, len(samples))
		f.Angle[k] = make([]float64, 0, len(samples))
	}
	for _, s := range samples {
		f.append(s)
	}
	return f
}

func (f *Frame) append(s parse.Sample) {
	for k := 0; k < NumSensors; k++ {
		f.Radius[k] = append(f.Radius[k], s.Radius[k])
		f.Angle[k] = append(f.Angle[k], s.Angle[k])
	}
}
