package report

import (
	"fmt"
	"image/color"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/banshee-data/sweepview/internal/lidar/l2frames"
)

// Rendered size of an angle trace.
var (
	TraceWidth  = 14 * vg.Inch
	TraceHeight = 6 * vg.Inch
)

// AnglePlot builds a plot of sensor's angle over the whole sample stream,
// marking the first sample of every frame.
func AnglePlot(frames []l2frames.Frame, sensor int, title string) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Sample"
	p.Y.Label.Text = fmt.Sprintf("Sensor %d angle (deg)", sensor)
	p.Y.Min, p.Y.Max = 0, 360

	var trace, starts plotter.XYs
	i := 0
	for _, f := range frames {
		for j, a := range f.Angle[sensor] {
			pt := plotter.XY{X: float64(i), Y: a}
			trace = append(trace, pt)
			if j == 0 {
				starts = append(starts, pt)
			}
			i++
		}
	}
	if len(trace) == 0 {
		return nil, fmt.Errorf("no samples to plot")
	}

	line, err := plotter.NewLine(trace)
	if err != nil {
		return nil, fmt.Errorf("angle line: %w", err)
	}
	line.Width = vg.Points(1)
	line.Color = color.RGBA{R: 0x31, G: 0x68, B: 0x8e, A: 0xff}

	marks, err := plotter.NewScatter(starts)
	if err != nil {
		return nil, fmt.Errorf("frame marks: %w", err)
	}
	marks.GlyphStyle.Shape = draw.TriangleGlyph{}
	marks.GlyphStyle.Radius = vg.Points(4)
	marks.GlyphStyle.Color = color.RGBA{R: 0xff, A: 0xff}

	p.Add(plotter.NewGrid(), line, marks)
	p.Legend.Add("angle", line)
	p.Legend.Add(fmt.Sprintf("frame start (%d)", len(starts)), marks)
	p.Legend.Top = true
	p.Legend.Left = false
	return p, nil
}

// WriteAngleTrace renders AnglePlot as PNG into w.
func WriteAngleTrace(w io.Writer, frames []l2frames.Frame, sensor int, title string) error {
	p, err := AnglePlot(frames, sensor, title)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(TraceWidth, TraceHeight, "png")
	if err != nil {
		return fmt.Errorf("render angle trace: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("write angle trace: %w", err)
	}
	return nil
}
