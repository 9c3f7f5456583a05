package pipeline

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/banshee-data/sweepview/internal/lidar/l4perception"
)

// DefaultTranslations are the batch mounting offsets of the four sensors.
func DefaultTranslations() l4perception.Translations {
	return l4perception.Translations{
		{X: -6.7, Y: -2.0},
		{X: 6.7, Y: 1.7},
		{X: 6.7, Y: -2.0},
		{X: -6.7, Y: 1.7},
	}
}

// GUITranslations are the offsets the interactive form starts with.
func GUITranslations() l4perception.Translations {
	return l4perception.Translations{
		{X: -7.5, Y: -3.7},
		{X: 7.5, Y: 0},
		{X: 7.5, Y: 0},
		{X: -7.5, Y: 0},
	}
}

// ParseTranslations parses "x1,y1;x2,y2;x3,y3;x4,y4". Exactly four pairs
// are required.
func ParseTranslations(s string) (l4perception.Translations, error) {
	var tr l4perception.Translations
	pairs := strings.Split(strings.TrimSpace(s), ";")
	if len(pairs) != len(tr) {
		return tr, fmt.Errorf("invalid translations %q: want 4 pairs 'x1,y1;x2,y2;x3,y3;x4,y4', got %d", s, len(pairs))
	}
	for i, pair := range pairs {
		xs, ys, ok := strings.Cut(pair, ",")
		if !ok {
			return tr, fmt.Errorf("invalid translation pair %d %q: want x,y", i+1, pair)
		}
		x, err := strconv.ParseFloat(strings.TrimSpace(xs), 64)
		if err != nil {
			return tr, fmt.Errorf("invalid translation pair %d x: %w", i+1, err)
		}
		y, err := strconv.ParseFloat(strings.TrimSpace(ys), 64)
		if err != nil {
			return tr, fmt.Errorf("invalid translation pair %d y: %w", i+1, err)
		}
		tr[i] = l4perception.Translation{X: x, Y: y}
	}
	return tr, nil
}

// FormatTranslations is the inverse of ParseTranslations.
func FormatTranslations(tr l4perception.Translations) string {
	parts := make([]string, len(tr))
	for i, t := range tr {
		parts[i] = strconv.FormatFloat(t.X, 'f', -1, 64) + "," + strconv.FormatFloat(t.Y, 'f', -1, 64)
	}
	return strings.Join(parts, ";")
}

// tagValue formats v with two decimals, spelling '.' as 'p' and '-' as 'm'.
func tagValue(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	return strings.NewReplacer(".", "p", "-", "m").Replace(s)
}

// ParamTag encodes the translations into a filename fragment, e.g.
// "m6p70_m2p00_6p70_1p70_6p70_m2p00_m6p70_1p70".
func ParamTag(tr l4perception.Translations) string {
	parts := make([]string, 0, 2*len(tr))
	for _, t := range tr {
		parts = append(parts, tagValue(t.X), tagValue(t.Y))
	}
	return strings.Join(parts, "_")
}

func baseName(source string) string {
	return strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
}

// OverlayName is the PNG output file name for source.
func OverlayName(source string, tr l4perception.Translations) string {
	return fmt.Sprintf("%s_params_%s_canvas.png", baseName(source), ParamTag(tr))
}

// VideoName is the video output file name for source.
func VideoName(source string, tr l4perception.Translations, fps int) string {
	return fmt.Sprintf("%s_params_%s_fps%d.mp4", baseName(source), ParamTag(tr), fps)
}

// TraceName is the angle-trace diagnostic file name for source.
func TraceName(source string) string { return baseName(source) + "_trace.png" }

// ScatterName is the HTML scatter diagnostic file name for source.
func ScatterName(source string) string { return baseName(source) + "_scatter.html" }
