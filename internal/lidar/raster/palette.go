package raster

import (
	"image/color"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// namedColors uses the conventional plotting palette values.
var namedColors = map[string]string{
	"red":    "#ff0000",
	"green":  "#008000",
	"blue":   "#0000ff",
	"purple": "#800080",
	"black":  "#000000",
	"white":  "#ffffff",
	"orange": "#ffa500",
	"gray":   "#808080",
	"grey":   "#808080",
}

// DefaultSensorColors names the color of each sensor in order.
var DefaultSensorColors = [4]string{"red", "green", "blue", "purple"}

// ColorByName resolves a color name or "#rrggbb" hex string. Unknown names
// resolve to black; the mapping never fails.
func ColorByName(name string) color.RGBA {
	key := strings.ToLower(strings.TrimSpace(name))
	if hex, ok := namedColors[key]; ok {
		key = hex
	}
	if !strings.HasPrefix(key, "#") {
		return color.RGBA{A: 0xff}
	}
	c, err := colorful.Hex(key)
	if err != nil {
		return color.RGBA{A: 0xff}
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 0xff}
}

// Palette is one color per sensor.
type Palette [4]color.RGBA

// PaletteFromNames resolves four color names.
func PaletteFromNames(names [4]string) Palette {
	var p Palette
	for i, n := range names {
		p[i] = ColorByName(n)
	}
	return p
}

// DefaultPalette returns red, green, blue, purple.
func DefaultPalette() Palette { return PaletteFromNames(DefaultSensorColors) }
