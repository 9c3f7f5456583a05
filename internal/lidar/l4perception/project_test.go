package l4perception

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/sweepview/internal/lidar/l2frames"
	"github.com/banshee-data/sweepview/internal/lidar/parse"
)

func frameOf(samples ...parse.Sample) l2frames.Frame {
	return l2frames.FromSamples(0, samples)
}

func uniform(r, a float64) parse.Sample {
	return parse.Sample{
		Radius: [4]float64{r, r, r, r},
		Angle:  [4]float64{a, a, a, a},
	}
}

func TestPolarToWorld_NorthConvention(t *testing.T) {
	tests := []struct {
		name         string
		r, a         float64
		wantX, wantY float64
	}{
		{"north", 2, 0, 0, 2},
		{"east", 2, 90, 2, 0},
		{"south", 2, 180, 0, -2},
		{"west", 2, 270, -2, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y := PolarToWorld(tt.r, tt.a, Translation{})
			assert.InDelta(t, tt.wantX, x, 1e-9)
			assert.InDelta(t, tt.wantY, y, 1e-9)
		})
	}
}

func TestProject_AppliesTranslationPerSensor(t *testing.T) {
	tr := Translations{{X: -6.7, Y: -2}, {X: 6.7, Y: 1.7}, {X: 6.7, Y: -2}, {X: -6.7, Y: 1.7}}
	pts := Project(frameOf(uniform(1, 0)), tr, DefaultParams())
	for k := 0; k < 4; k++ {
		require.Len(t, pts[k], 1)
		assert.InDelta(t, tr[k].X, pts[k][0].X, 1e-9)
		assert.InDelta(t, tr[k].Y+1, pts[k][0].Y, 1e-9)
		assert.Equal(t, k, pts[k][0].Sensor)
	}
}

func TestProject_RadiusCutoffInclusive(t *testing.T) {
	f := frameOf(uniform(15.0, 10), uniform(15.0001, 10), uniform(0, 10))
	pts := Project(f, Translations{}, DefaultParams())
	for k := 0; k < 4; k++ {
		assert.Len(t, pts[k], 2, "sensor %d", k)
	}
}

func TestProject_DropsNonFinite(t *testing.T) {
	f := frameOf(uniform(math.NaN(), 0), uniform(1, math.Inf(1)), uniform(math.Inf(1), 0), uniform(1, 45))
	pts := Project(f, Translations{}, DefaultParams())
	assert.Equal(t, 4, Count(pts))
}

func TestProject_CustomCutoff(t *testing.T) {
	f := frameOf(uniform(4, 0), uniform(6, 0))
	pts := Project(f, Translations{}, Params{MaxRadius: 5})
	assert.Equal(t, 4, Count(pts))
}

func TestProjectAll_Concatenates(t *testing.T) {
	frames := []l2frames.Frame{frameOf(uniform(1, 0)), frameOf(uniform(2, 0), uniform(3, 0))}
	pts := ProjectAll(frames, Translations{}, DefaultParams())
	require.Len(t, pts[0], 3)
	assert.InDelta(t, 3.0, pts[0][2].Y, 1e-9)
}
