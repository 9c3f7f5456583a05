// Package config loads the JSON render configuration shared by the batch
// and live commands.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/banshee-data/sweepview/internal/lidar/annotate"
	"github.com/banshee-data/sweepview/internal/lidar/l2frames"
	"github.com/banshee-data/sweepview/internal/lidar/l4perception"
	"github.com/banshee-data/sweepview/internal/lidar/parse"
	"github.com/banshee-data/sweepview/internal/lidar/raster"
)

// DefaultConfigPath is the canonical render defaults file.
const DefaultConfigPath = "config/render.defaults.json"

const maxFileSize = 1 * 1024 * 1024 // 1MB

// RenderConfig is the on-disk render configuration. Every field is
// optional; the Get* methods and the conversion helpers fall back to the
// package defaults for nil fields, so partial files are safe.
type RenderConfig struct {
	// Parser
	FlipSensors   *[]int   `json:"flip_sensors,omitempty"`
	FlipOffsetDeg *float64 `json:"flip_offset_deg,omitempty"`

	// Frame segmenter
	SplitThresholdDeg *float64 `json:"split_threshold_deg,omitempty"`
	ReferenceSensor   *int     `json:"reference_sensor,omitempty"`

	// Projector and canvas
	MaxRadius    *float64      `json:"max_radius,omitempty"`
	CanvasWidth  *int          `json:"canvas_width,omitempty"`
	CanvasHeight *int          `json:"canvas_height,omitempty"`
	HalfX        *float64      `json:"half_x,omitempty"`
	HalfY        *float64      `json:"half_y,omitempty"`
	PointRadius  *int          `json:"point_radius,omitempty"`
	Background   *string       `json:"background,omitempty"`    // color name or #rrggbb
	SensorColors *[]string     `json:"sensor_colors,omitempty"` // four names
	Translations *[][2]float64 `json:"translations,omitempty"`  // four [x, y] pairs

	// Annotator
	MarginXPct    *float64 `json:"margin_x_pct,omitempty"`
	MarginYPct    *float64 `json:"margin_y_pct,omitempty"`
	ClusterRadius *int     `json:"cluster_radius,omitempty"`
	MarkerWidth   *float64 `json:"marker_width,omitempty"`
	MarkerColor   *string  `json:"marker_color,omitempty"`

	// Video
	FPS *int `json:"fps,omitempty"`
}

// EmptyRenderConfig returns a RenderConfig with every field nil.
func EmptyRenderConfig() *RenderConfig {
	return &RenderConfig{}
}

// LoadRenderConfig loads a RenderConfig from a .json file of at most 1MB.
func LoadRenderConfig(path string) (*RenderConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyRenderConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the fields that are set.
func (c *RenderConfig) Validate() error {
	if c.FlipSensors != nil {
		for _, s := range *c.FlipSensors {
			if s < 0 || s >= parse.NumSensors {
				return fmt.Errorf("flip_sensors: sensor %d out of range [0,%d)", s, parse.NumSensors)
			}
		}
	}
	if c.SplitThresholdDeg != nil && (*c.SplitThresholdDeg <= 0 || *c.SplitThresholdDeg > 360) {
		return fmt.Errorf("split_threshold_deg must be in (0, 360], got %g", *c.SplitThresholdDeg)
	}
	if c.ReferenceSensor != nil && (*c.ReferenceSensor < 0 || *c.ReferenceSensor >= parse.NumSensors) {
		return fmt.Errorf("reference_sensor must be in [0,%d), got %d", parse.NumSensors, *c.ReferenceSensor)
	}
	if c.MaxRadius != nil && *c.MaxRadius <= 0 {
		return fmt.Errorf("max_radius must be positive, got %g", *c.MaxRadius)
	}
	if c.CanvasWidth != nil && *c.CanvasWidth <= 0 {
		return fmt.Errorf("canvas_width must be positive, got %d", *c.CanvasWidth)
	}
	if c.CanvasHeight != nil && *c.CanvasHeight <= 0 {
		return fmt.Errorf("canvas_height must be positive, got %d", *c.CanvasHeight)
	}
	if c.HalfX != nil && *c.HalfX <= 0 {
		return fmt.Errorf("half_x must be positive, got %g", *c.HalfX)
	}
	if c.HalfY != nil && *c.HalfY <= 0 {
		return fmt.Errorf("half_y must be positive, got %g", *c.HalfY)
	}
	if c.PointRadius != nil && *c.PointRadius < 0 {
		return fmt.Errorf("point_radius must be non-negative, got %d", *c.PointRadius)
	}
	if c.SensorColors != nil && len(*c.SensorColors) != parse.NumSensors {
		return fmt.Errorf("sensor_colors must name %d colors, got %d", parse.NumSensors, len(*c.SensorColors))
	}
	if c.Translations != nil && len(*c.Translations) != parse.NumSensors {
		return fmt.Errorf("translations must hold %d pairs, got %d", parse.NumSensors, len(*c.Translations))
	}
	for name, v := range map[string]*float64{"margin_x_pct": c.MarginXPct, "margin_y_pct": c.MarginYPct} {
		if v != nil && (*v < 0 || *v >= 50) {
			return fmt.Errorf("%s must be in [0, 50), got %g", name, *v)
		}
	}
	if c.ClusterRadius != nil && *c.ClusterRadius < 0 {
		return fmt.Errorf("cluster_radius must be non-negative, got %d", *c.ClusterRadius)
	}
	if c.MarkerWidth != nil && *c.MarkerWidth <= 0 {
		return fmt.Errorf("marker_width must be positive, got %g", *c.MarkerWidth)
	}
	if c.FPS != nil && *c.FPS <= 0 {
		return fmt.Errorf("fps must be positive, got %d", *c.FPS)
	}
	return nil
}

// GetFPS returns fps or def.
func (c *RenderConfig) GetFPS(def int) int {
	if c.FPS == nil {
		return def
	}
	return *c.FPS
}

// GetTranslations returns the configured translations, or def when unset.
func (c *RenderConfig) GetTranslations(def l4perception.Translations) l4perception.Translations {
	if c.Translations == nil || len(*c.Translations) != len(def) {
		return def
	}
	var tr l4perception.Translations
	for i, p := range *c.Translations {
		tr[i] = l4perception.Translation{X: p[0], Y: p[1]}
	}
	return tr
}

// ParseConfig returns the parser settings.
func (c *RenderConfig) ParseConfig() parse.Config {
	cfg := parse.DefaultConfig()
	if c.FlipSensors != nil {
		cfg.FlipSensors = append([]int{}, *c.FlipSensors...)
	}
	if c.FlipOffsetDeg != nil {
		cfg.FlipOffsetDeg = *c.FlipOffsetDeg
	}
	return cfg
}

// FrameConfig returns the segmenter settings.
func (c *RenderConfig) FrameConfig() l2frames.Config {
	cfg := l2frames.DefaultConfig()
	if c.SplitThresholdDeg != nil {
		cfg.SplitThresholdDeg = *c.SplitThresholdDeg
	}
	if c.ReferenceSensor != nil {
		cfg.ReferenceSensor = *c.ReferenceSensor
	}
	return cfg
}

// RenderParams overlays the configured fields on base. When only half_x is
// set, half_y follows the canvas aspect ratio.
func (c *RenderConfig) RenderParams(base raster.Params) raster.Params {
	p := base
	if c.CanvasWidth != nil {
		p.Canvas.Width = *c.CanvasWidth
	}
	if c.CanvasHeight != nil {
		p.Canvas.Height = *c.CanvasHeight
	}
	if c.HalfX != nil {
		p.Canvas.HalfX = *c.HalfX
		if c.HalfY == nil {
			p.Canvas = raster.SquareCanvas(p.Canvas.Width, p.Canvas.Height, p.Canvas.HalfX)
		}
	}
	if c.HalfY != nil {
		p.Canvas.HalfY = *c.HalfY
	}
	if c.PointRadius != nil {
		p.PointRadius = *c.PointRadius
	}
	if c.Background != nil {
		p.Background = raster.ColorByName(*c.Background)
	}
	if c.SensorColors != nil && len(*c.SensorColors) == len(p.Palette) {
		var names [4]string
		copy(names[:], *c.SensorColors)
		p.Palette = raster.PaletteFromNames(names)
	}
	if c.MaxRadius != nil {
		p.Projection.MaxRadius = *c.MaxRadius
	}
	p.Translations = c.GetTranslations(p.Translations)
	return p
}

// AnnotateParams overlays the configured fields on base.
func (c *RenderConfig) AnnotateParams(base annotate.Params) annotate.Params {
	p := base
	if c.MarginXPct != nil {
		p.MarginXPct = *c.MarginXPct
	}
	if c.MarginYPct != nil {
		p.MarginYPct = *c.MarginYPct
	}
	if c.ClusterRadius != nil {
		p.ClusterRadius = *c.ClusterRadius
	}
	if c.MarkerWidth != nil {
		p.MarkerWidth = *c.MarkerWidth
	}
	if c.MarkerColor != nil {
		p.MarkerColor = raster.ColorByName(*c.MarkerColor)
	}
	if c.Background != nil {
		p.Background = raster.ColorByName(*c.Background)
	}
	return p
}
