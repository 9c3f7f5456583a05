package l2frames

import (
	"io"
	"math"

	"github.com/banshee-data/sweepview/internal/lidar"
	"github.com/banshee-data/sweepview/internal/lidar/parse"
)

// Frame detection defaults.
const (
	// DefaultSplitThresholdDeg is the reference-angle jump that starts a new
	// frame. It is an empirical value tied to the rig's sweep range: real
	// wrap-arounds jump by roughly 360 degrees, ordinary motion by far less.
	DefaultSplitThresholdDeg = 300.0

	// DefaultReferenceSensor is the sensor whose angle trace drives splitting.
	DefaultReferenceSensor = 0
)

// Config controls frame boundary detection.
type Config struct {
	SplitThresholdDeg float64 // jump that closes a frame (default: 300)
	ReferenceSensor   int     // sensor index watched for jumps (default: 0)
}

// DefaultConfig returns the rig defaults.
func DefaultConfig() Config {
	return Config{SplitThresholdDeg: DefaultSplitThresholdDeg, ReferenceSensor: DefaultReferenceSensor}
}

func (c Config) normalized() Config {
	if c.SplitThresholdDeg <= 0 {
		c.SplitThresholdDeg = DefaultSplitThresholdDeg
	}
	if c.ReferenceSensor < 0 || c.ReferenceSensor >= NumSensors {
		c.ReferenceSensor = DefaultReferenceSensor
	}
	return c
}

// FrameBuilder accumulates samples into frames incrementally. It is not
// safe for concurrent use; each input stream owns its own builder.
type FrameBuilder struct {
	cfg       Config
	current   *Frame
	lastAngle float64
	hasLast   bool
	next      int // index of the next frame to be emitted
}

// NewFrameBuilder creates a builder. Zero config fields take defaults.
func NewFrameBuilder(cfg Config) *FrameBuilder {
	return &FrameBuilder{cfg: cfg.normalized()}
}

// Add appends s and returns the frame that s closed, or nil.
//
// The jump is measured against the previous sample's reference angle
// regardless of frame membership. The first sample never splits, and an
// empty frame is never emitted.
func (fb *FrameBuilder) Add(s parse.Sample) *Frame {
	angle := s.Angle[fb.cfg.ReferenceSensor]
	diff := 0.0
	if fb.hasLast {
		diff = math.Abs(angle - fb.lastAngle)
	}
	fb.lastAngle = angle
	fb.hasLast = true

	var closed *Frame
	if diff > fb.cfg.SplitThresholdDeg && !fb.current.Empty() {
		closed = fb.finalizeCurrentFrame()
	}
	if fb.current == nil {
		fb.startNewFrame()
	}
	fb.current.append(s)
	return closed
}

// Flush returns the in-progress frame if it holds samples, and resets the
// builder so the next Add starts a fresh frame. Angle history is kept.
func (fb *FrameBuilder) Flush() *Frame {
	if fb.current.Empty() {
		return nil
	}
	return fb.finalizeCurrentFrame()
}

// Pending returns the number of samples in the in-progress frame.
func (fb *FrameBuilder) Pending() int { return fb.current.Len() }

// Reset discards the in-progress frame and the angle history.
func (fb *FrameBuilder) Reset() {
	fb.current = nil
	fb.hasLast = false
	fb.lastAngle = 0
	fb.next = 0
}

func (fb *FrameBuilder) startNewFrame() {
	fb.current = &Frame{Index: fb.next}
}

func (fb *FrameBuilder) finalizeCurrentFrame() *Frame {
	f := fb.current
	fb.current = nil
	fb.next++
	lidar.Tracef("frame %d closed with %d samples", f.Index, f.Len())
	return f
}

// Segment cuts samples into frames. No samples yields an empty slice.
func Segment(samples []parse.Sample, cfg Config) []Frame {
	fb := NewFrameBuilder(cfg)
	frames := []Frame{}
	for _, s := range samples {
		if f := fb.Add(s); f != nil {
			frames = append(frames, *f)
		}
	}
	if f := fb.Flush(); f != nil {
		frames = append(frames, *f)
	}
	return frames
}

// SegmentReader parses r and segments it in one pass.
func SegmentReader(r io.Reader, parseCfg parse.Config, cfg Config) ([]Frame, parse.Stats, error) {
	fb := NewFrameBuilder(cfg)
	frames := []Frame{}
	var stats parse.Stats
	err := parse.Scan(r, parseCfg, func(s parse.Sample) {
		if f := fb.Add(s); f != nil {
			frames = append(frames, *f)
		}
	}, &stats)
	if err != nil {
		return nil, stats, err
	}
	if f := fb.Flush(); f != nil {
		frames = append(frames, *f)
	}
	lidar.Diagf("segmented %d valid samples (%d skipped) into %d frames", stats.Valid, stats.Skipped, len(frames))
	return frames, stats, nil
}
