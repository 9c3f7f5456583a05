package report

import (
	"fmt"
	"image/color"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/sweepview/internal/lidar/l2frames"
	"github.com/banshee-data/sweepview/internal/lidar/l4perception"
	"github.com/banshee-data/sweepview/internal/lidar/raster"
)

// MaxScatterPoints caps points per sensor series; larger inputs are strided.
const MaxScatterPoints = 20000

// WriteScatterHTML renders the projected points of frames as an HTML page
// with one series per sensor, bounded to the canvas extents.
func WriteScatterHTML(w io.Writer, title string, frames []l2frames.Frame, p raster.Params) error {
	pts := l4perception.ProjectAll(frames, p.Translations, p.Projection)

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "1280px", Height: "720px"}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: fmt.Sprintf("frames=%d", len(frames))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: -p.Canvas.HalfX, Max: p.Canvas.HalfX, Name: "X", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: -p.Canvas.HalfY, Max: p.Canvas.HalfY, Name: "Y", NameLocation: "middle", NameGap: 30}),
	)
	for k, sensorPts := range pts {
		stride := len(sensorPts)/MaxScatterPoints + 1
		data := make([]opts.ScatterData, 0, len(sensorPts)/stride+1)
		for i := 0; i < len(sensorPts); i += stride {
			data = append(data, opts.ScatterData{Value: []interface{}{sensorPts[i].X, sensorPts[i].Y}})
		}
		scatter.AddSeries(fmt.Sprintf("sensor %d", k), data,
			charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 3}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: hexColor(p.Palette[k])}),
		)
	}
	if err := scatter.Render(w); err != nil {
		return fmt.Errorf("render scatter: %w", err)
	}
	return nil
}

func hexColor(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
