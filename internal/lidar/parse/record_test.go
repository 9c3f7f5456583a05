package parse

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeAngle(t *testing.T) {
	tests := []struct {
		angle, offset, want float64
	}{
		{0, 180, 180},
		{90, 180, 270},
		{180, 180, 0},
		{270, 180, 90},
		{359.5, 180, 179.5},
		{-10, 180, 170},
		{-200, 180, 340},
		{720, 0, 0},
		{45, 0, 45},
	}
	for _, tt := range tests {
		got := NormalizeAngle(tt.angle, tt.offset)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("NormalizeAngle(%v, %v) = %v, want %v", tt.angle, tt.offset, got, tt.want)
		}
		if got < 0 || got >= 360 {
			t.Errorf("NormalizeAngle(%v, %v) = %v out of [0,360)", tt.angle, tt.offset, got)
		}
	}
}

func TestParseLine_AppliesFlipOnce(t *testing.T) {
	s, ok := ParseLine("1 10 2 20 3 200 4 40", DefaultConfig())
	require.True(t, ok)

	assert.Equal(t, [NumSensors]float64{1, 2, 3, 4}, s.Radius)
	assert.Equal(t, [NumSensors]float64{10, 200, 20, 40}, s.Angle)
}

func TestParseLine_Rejects(t *testing.T) {
	cfg := DefaultConfig()
	lines := map[string]string{
		"blank":       "",
		"whitespace":  "   \t ",
		"comment":     "# 1 2 3 4 5 6 7 8",
		"seven":       "1 2 3 4 5 6 7",
		"nine":        "1 2 3 4 5 6 7 8 9",
		"non-numeric": "1 2 3 4 5 6 7 x",
	}
	for name, line := range lines {
		t.Run(name, func(t *testing.T) {
			if _, ok := ParseLine(line, cfg); ok {
				t.Fatalf("ParseLine(%q) accepted a line it should skip", line)
			}
		})
	}
}

func TestParseLine_NoFlipConfig(t *testing.T) {
	s, ok := ParseLine("1 10 2 20 3 30 4 40", Config{})
	require.True(t, ok)
	assert.Equal(t, [NumSensors]float64{10, 20, 30, 40}, s.Angle)
}

func TestReadSamples_SkipsAndCounts(t *testing.T) {
	input := strings.Join([]string{
		"# header",
		"1 0 1 0 1 0 1 0",
		"",
		"garbage line",
		"2 10 2 10 2 10 2 10",
		"1 2 3",
	}, "\n")

	samples, stats, err := ReadSamples(strings.NewReader(input), DefaultConfig())
	require.NoError(t, err)
	require.Len(t, samples, 2)

	assert.Equal(t, Stats{Lines: 6, Valid: 2, Skipped: 2}, stats)
	assert.Equal(t, 2.0, samples[1].Radius[0])
	assert.Equal(t, 190.0, samples[1].Angle[1])
	assert.Equal(t, 10.0, samples[1].Angle[3])
}

func TestReadSamples_Empty(t *testing.T) {
	samples, stats, err := ReadSamples(strings.NewReader("# only a comment\n\n"), DefaultConfig())
	require.NoError(t, err)
	assert.Empty(t, samples)
	assert.Equal(t, 0, stats.Valid)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("disk gone") }

func TestReadSamples_ReadError(t *testing.T) {
	_, _, err := ReadSamples(failingReader{}, DefaultConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk gone")
}
