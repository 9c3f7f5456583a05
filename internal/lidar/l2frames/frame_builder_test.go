package l2frames

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/banshee-data/sweepview/internal/lidar/parse"
)

// sample builds a record whose four sensors share radius r and whose
// reference angle is a0. Other angles are fixed.
func sample(r, a0 float64) parse.Sample {
	return parse.Sample{
		Radius: [NumSensors]float64{r, r, r, r},
		Angle:  [NumSensors]float64{a0, 190, 200, 30},
	}
}

func refAngles(f Frame) []float64 { return f.Angle[0] }

func TestSegment_SingleRun(t *testing.T) {
	samples := []parse.Sample{sample(1, 10), sample(2, 20), sample(3, 30)}
	frames := Segment(samples, DefaultConfig())
	if len(frames) != 1 {
		t.Fatalf("got %d frames, want 1", len(frames))
	}
	if diff := cmp.Diff([]float64{10, 20, 30}, refAngles(frames[0])); diff != "" {
		t.Errorf("angles mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{1, 2, 3}, frames[0].Radius[2]); diff != "" {
		t.Errorf("radius mismatch (-want +got):\n%s", diff)
	}
}

func TestSegment_SplitsOnWrap(t *testing.T) {
	samples := []parse.Sample{sample(1, 350), sample(1, 5)}
	frames := Segment(samples, DefaultConfig())
	if len(frames) != 2 {
		t.Fatalf("got %d frames, want 2", len(frames))
	}
	if frames[0].Index != 0 || frames[1].Index != 1 {
		t.Errorf("indices = %d,%d, want 0,1", frames[0].Index, frames[1].Index)
	}
	if frames[0].Len() != 1 || frames[1].Len() != 1 {
		t.Errorf("lengths = %d,%d, want 1,1", frames[0].Len(), frames[1].Len())
	}
}

func TestSegment_ThresholdIsStrict(t *testing.T) {
	// |310 - 10| == 300 exactly does not split.
	frames := Segment([]parse.Sample{sample(1, 10), sample(1, 310)}, DefaultConfig())
	if len(frames) != 1 {
		t.Fatalf("got %d frames, want 1", len(frames))
	}
}

func TestSegment_SameRawAngleOnEverySensor(t *testing.T) {
	// Every sensor reports 0, 10, 200, 10, 350. Sensors 1 and 2 become
	// 180, 190, 20, 190, 170, but only sensor 0 decides the split.
	var lines []string
	for _, a := range []string{"0", "10", "200", "10", "350"} {
		lines = append(lines, strings.Repeat("1.0 "+a+" ", NumSensors))
	}
	frames, _, err := SegmentReader(strings.NewReader(strings.Join(lines, "\n")), parse.DefaultConfig(), DefaultConfig())
	if err != nil {
		t.Fatalf("SegmentReader: %v", err)
	}
	if len(frames) != 2 {
		t.Fatalf("got %d frames, want 2", len(frames))
	}
	if frames[0].Len() != 4 || frames[1].Len() != 1 {
		t.Fatalf("frame sizes = %d, %d, want 4, 1", frames[0].Len(), frames[1].Len())
	}
	want := [NumSensors][]float64{
		{0, 10, 200, 10},
		{180, 190, 20, 190},
		{180, 190, 20, 190},
		{0, 10, 200, 10},
	}
	if diff := cmp.Diff(want, frames[0].Angle); diff != "" {
		t.Errorf("frame 0 angles mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([NumSensors][]float64{{350}, {170}, {170}, {350}}, frames[1].Angle); diff != "" {
		t.Errorf("frame 1 angles mismatch (-want +got):\n%s", diff)
	}
}

func TestSegment_ExampleStream(t *testing.T) {
	// 200 -> 10 is a 190 degree jump (no split); 10 -> 350 is 340 (split).
	input := strings.Join([]string{
		"1.0 100 1 0 1 0 1 0",
		"1.0 150 1 0 1 0 1 0",
		"1.0 200 1 0 1 0 1 0",
		"1.0 10 1 0 1 0 1 0",
		"1.0 350 1 0 1 0 1 0",
	}, "\n")
	frames, stats, err := SegmentReader(strings.NewReader(input), parse.DefaultConfig(), DefaultConfig())
	if err != nil {
		t.Fatalf("SegmentReader: %v", err)
	}
	if stats.Valid != 5 {
		t.Errorf("valid = %d, want 5", stats.Valid)
	}
	if len(frames) != 2 {
		t.Fatalf("got %d frames, want 2", len(frames))
	}
	if diff := cmp.Diff([]float64{100, 150, 200, 10}, refAngles(frames[0])); diff != "" {
		t.Errorf("frame 0 mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{350}, refAngles(frames[1])); diff != "" {
		t.Errorf("frame 1 mismatch (-want +got):\n%s", diff)
	}
	// Sensor 1 had 0 degrees on disk and is rotated by 180.
	if got := frames[0].Angle[1][0]; got != 180 {
		t.Errorf("sensor 1 angle = %v, want 180", got)
	}
}

func TestSegment_PreservesSampleCount(t *testing.T) {
	angles := []float64{0, 120, 240, 359, 2, 100, 355, 1, 1, 1}
	var samples []parse.Sample
	for i, a := range angles {
		samples = append(samples, sample(float64(i), a))
	}
	frames := Segment(samples, DefaultConfig())

	total := 0
	var radii []float64
	for _, f := range frames {
		if f.Empty() {
			t.Errorf("frame %d is empty", f.Index)
		}
		for k := 1; k < NumSensors; k++ {
			if len(f.Radius[k]) != f.Len() || len(f.Angle[k]) != f.Len() {
				t.Errorf("frame %d sensor %d has ragged sequences", f.Index, k)
			}
		}
		total += f.Len()
		radii = append(radii, f.Radius[0]...)
	}
	if total != len(samples) {
		t.Errorf("total samples = %d, want %d", total, len(samples))
	}
	for i, r := range radii {
		if r != float64(i) {
			t.Fatalf("order broken at %d: got radius %v", i, r)
		}
	}
}

func TestSegment_Empty(t *testing.T) {
	frames := Segment(nil, DefaultConfig())
	if frames == nil || len(frames) != 0 {
		t.Fatalf("Segment(nil) = %#v, want empty non-nil slice", frames)
	}

	frames, _, err := SegmentReader(strings.NewReader("# nothing\nbad line\n"), parse.DefaultConfig(), DefaultConfig())
	if err != nil {
		t.Fatalf("SegmentReader: %v", err)
	}
	if len(frames) != 0 {
		t.Fatalf("got %d frames, want 0", len(frames))
	}
}

func TestFrameBuilder_Incremental(t *testing.T) {
	fb := NewFrameBuilder(Config{})
	if f := fb.Add(sample(1, 350)); f != nil {
		t.Fatal("first sample closed a frame")
	}
	if got := fb.Pending(); got != 1 {
		t.Fatalf("pending = %d, want 1", got)
	}
	closed := fb.Add(sample(1, 3))
	if closed == nil || closed.Len() != 1 || closed.Index != 0 {
		t.Fatalf("closed = %+v, want frame 0 with 1 sample", closed)
	}
	f := fb.Flush()
	if f == nil || f.Index != 1 {
		t.Fatalf("flush = %+v, want frame 1", f)
	}
	if fb.Flush() != nil {
		t.Error("second flush returned a frame")
	}

	fb.Reset()
	fb.Add(sample(1, 350))
	if got := fb.Flush(); got == nil || got.Index != 0 {
		t.Errorf("after reset got %+v, want frame 0", got)
	}
}

func TestConfig_CustomThreshold(t *testing.T) {
	samples := []parse.Sample{sample(1, 10), sample(1, 60)}
	frames := Segment(samples, Config{SplitThresholdDeg: 45})
	if len(frames) != 2 {
		t.Fatalf("got %d frames, want 2", len(frames))
	}
}

func TestFromSamples(t *testing.T) {
	f := FromSamples(7, []parse.Sample{sample(1, 10), sample(2, 350)})
	if f.Index != 7 || f.Len() != 2 {
		t.Fatalf("got index %d len %d, want 7 and 2", f.Index, f.Len())
	}
	if diff := cmp.Diff(sample(2, 350), f.Sample(1)); diff != "" {
		t.Errorf("Sample(1) mismatch (-want +got):\n%s", diff)
	}
}
