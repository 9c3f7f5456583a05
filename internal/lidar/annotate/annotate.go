package annotate

import (
	"image"
	"image/color"

	"github.com/fogleman/gg"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/sweepview/internal/lidar"
)

// Defaults used by the live preview and the video path.
const (
	DefaultMarginPct     = 5.0
	DefaultClusterRadius = 20
	DefaultMarkerWidth   = 2.0
)

// Params controls cluster detection and marker drawing.
type Params struct {
	MarginXPct    float64    // percent of width trimmed from each side
	MarginYPct    float64    // percent of height trimmed from top and bottom
	ClusterRadius int        // dilation disk radius in pixels
	MarkerRadius  float64    // circle radius; 0 uses ClusterRadius
	MarkerWidth   float64    // stroke width (default: 2)
	MarkerColor   color.RGBA // stroke color (default: red)
	Background    color.RGBA // pixels of this color are not foreground
}

// DefaultParams returns 5% margins, radius 20, red 2px markers on white.
func DefaultParams() Params {
	return Params{
		MarginXPct:    DefaultMarginPct,
		MarginYPct:    DefaultMarginPct,
		ClusterRadius: DefaultClusterRadius,
		MarkerWidth:   DefaultMarkerWidth,
		MarkerColor:   color.RGBA{R: 0xff, A: 0xff},
		Background:    color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff},
	}
}

func (p Params) markerRadius() float64 {
	if p.MarkerRadius > 0 {
		return p.MarkerRadius
	}
	return float64(p.ClusterRadius)
}

func (p Params) markerWidth() float64 {
	if p.MarkerWidth > 0 {
		return p.MarkerWidth
	}
	return DefaultMarkerWidth
}

// Cluster is one detected group of foreground pixels.
type Cluster struct {
	Label    int             // component id
	Centroid image.Point     // integer-truncated mean of the member pixels
	Pixels   int             // undilated member pixel count
	Bounds   image.Rectangle // bounding box of the member pixels
}

// toRGBA returns img as an *image.RGBA. The result is
// always a copy.
func toRGBA(img image.Image) *image.RGBA {
	dc := gg.NewContextForImage(img)
	return dc.Image().(*image.RGBA)
}

// Detect returns the clusters in img without modifying it.
//
// Each foreground pixel is grown into a disk of ClusterRadius and touching
// disks join one component. Two pixels on the same row therefore merge when
// they are up to 2*ClusterRadius+1 apart and stay separate from
// 2*ClusterRadius+2.
func Detect(img image.Image, p Params) ([]Cluster, error) {
	return detect(toRGBA(img), p)
}

func detect(rgba *image.RGBA, p Params) ([]Cluster, error) {
	b := rgba.Bounds()
	region, err := ActiveRegion(b.Dx(), b.Dy(), p.MarginXPct, p.MarginYPct)
	if err != nil {
		return nil, err
	}
	mask := ForegroundMask(rgba, p.Background)
	mask.Trim(region)
	labels := Label(Dilate(mask, p.ClusterRadius))

	xs := make([][]float64, labels.Count+1)
	ys := make([][]float64, labels.Count+1)
	bounds := make([]image.Rectangle, labels.Count+1)
	for y := 0; y < mask.H; y++ {
		for x := 0; x < mask.W; x++ {
			if !mask.Bits[y*mask.W+x] {
				continue
			}
			id := labels.At(x, y)
			pr := image.Rect(x, y, x+1, y+1)
			if len(xs[id]) == 0 {
				bounds[id] = pr
			} else {
				bounds[id] = bounds[id].Union(pr)
			}
			xs[id] = append(xs[id], float64(x))
			ys[id] = append(ys[id], float64(y))
		}
	}

	clusters := make([]Cluster, 0, labels.Count)
	for id := 1; id <= labels.Count; id++ {
		if len(xs[id]) == 0 {
			continue
		}
		clusters = append(clusters, Cluster{
			Label:    id,
			Centroid: image.Pt(int(stat.Mean(xs[id], nil)), int(stat.Mean(ys[id], nil))),
			Pixels:   len(xs[id]),
			Bounds:   bounds[id],
		})
	}
	lidar.Tracef("annotate: %d foreground px, %d components, %d clusters", mask.Count(), labels.Count, len(clusters))
	return clusters, nil
}

// Annotate returns a copy of img with a circle drawn at every cluster
// centroid, along with the clusters found.
func Annotate(img image.Image, p Params) (*image.RGBA, []Cluster, error) {
	out := toRGBA(img)
	clusters, err := detect(out, p)
	if err != nil {
		return nil, nil, err
	}
	DrawMarkers(out, clusters, p)
	return out, clusters, nil
}

// DrawMarkers strokes an unfilled circle per cluster onto img.
func DrawMarkers(img *image.RGBA, clusters []Cluster, p Params) {
	if len(clusters) == 0 {
		return
	}
	dc := gg.NewContextForRGBA(img)
	dc.SetColor(p.MarkerColor)
	dc.SetLineWidth(p.markerWidth())
	for _, c := range clusters {
		dc.DrawCircle(float64(c.Centroid.X), float64(c.Centroid.Y), p.markerRadius())
		dc.Stroke()
	}
}

// Normalized returns cluster centroids scaled to [0, 1] by the image size,
// as [x/w, y/h] pairs.
func Normalized(clusters []Cluster, w, h int) [][2]float64 {
	out := make([][2]float64, 0, len(clusters))
	if w <= 0 || h <= 0 {
		return out
	}
	for _, c := range clusters {
		out = append(out, [2]float64{float64(c.Centroid.X) / float64(w), float64(c.Centroid.Y) / float64(h)})
	}
	return out
}
