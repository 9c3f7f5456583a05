package parse

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"slices"
	"strconv"
	"strings"
)

// NumSensors is the fixed number of sensors in a .chan record.
const NumSensors = 4

// tokensPerRecord is (radius, angle) for every sensor.
const tokensPerRecord = NumSensors * 2

// Default mounting correction: sensors 1 and 2 face the opposite way.
const DefaultFlipOffsetDeg = 180.0

// DefaultFlipSensors returns the sensor indices rotated by DefaultFlipOffsetDeg.
func DefaultFlipSensors() []int { return []int{1, 2} }

// Sample is one parsed record: a radius and a normalized angle (degrees)
// per sensor.
type Sample struct {
	Radius [NumSensors]float64
	Angle  [NumSensors]float64
}

// Config controls the per-sensor mounting correction.
type Config struct {
	FlipSensors   []int   // sensors whose angle is rotated by FlipOffsetDeg
	FlipOffsetDeg float64 // rotation in degrees (default: 180)
}

// DefaultConfig returns the correction used by the recording rig.
func DefaultConfig() Config {
	return Config{FlipSensors: DefaultFlipSensors(), FlipOffsetDeg: DefaultFlipOffsetDeg}
}

// Stats counts what ReadSamples saw.
type Stats struct {
	Lines   int // total lines read
	Valid   int // lines that produced a Sample
	Skipped int // non-blank, non-comment lines rejected as malformed
}

// NormalizeAngle rotates angle by offset and wraps the result into [0, 360).
// The modulo is floored so negative inputs still land in range.
func NormalizeAngle(angle, offset float64) float64 {
	a := math.Mod(angle+offset, 360)
	if a < 0 {
		a += 360
	}
	// A tiny negative remainder can round up to exactly 360.
	if a >= 360 {
		a -= 360
	}
	return a
}

// ParseLine parses one record. ok is false for blank lines, comments and
// malformed lines.
func ParseLine(line string, cfg Config) (s Sample, ok bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return Sample{}, false
	}
	fields := strings.Fields(line)
	if len(fields) != tokensPerRecord {
		return Sample{}, false
	}
	var vals [tokensPerRecord]float64
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return Sample{}, false
		}
		vals[i] = v
	}
	for i := 0; i < NumSensors; i++ {
		s.Radius[i] = vals[i*2]
		a := vals[i*2+1]
		if slices.Contains(cfg.FlipSensors, i) {
			a = NormalizeAngle(a, cfg.FlipOffsetDeg)
		}
		s.Angle[i] = a
	}
	return s, true
}

// isComment reports whether a trimmed line is intentionally ignored rather
// than malformed.
func isComment(line string) bool {
	line = strings.TrimSpace(line)
	return line == "" || strings.HasPrefix(line, "#")
}

// ReadSamples parses every record from r. Only read errors are returned;
// malformed lines are counted in Stats.Skipped.
func ReadSamples(r io.Reader, cfg Config) ([]Sample, Stats, error) {
	var (
		out   []Sample
		stats Stats
	)
	err := Scan(r, cfg, func(s Sample) {
		out = append(out, s)
	}, &stats)
	return out, stats, err
}

// Scan streams records from r into fn in input order. stats may be nil.
func Scan(r io.Reader, cfg Config, fn func(Sample), stats *Stats) error {
	if stats == nil {
		stats = &Stats{}
	}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		stats.Lines++
		s, ok := ParseLine(line, cfg)
		if !ok {
			if !isComment(line) {
				stats.Skipped++
			}
			continue
		}
		stats.Valid++
		fn(s)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read records: %w", err)
	}
	return nil
}
