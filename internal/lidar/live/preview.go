package live

import (
	"context"
	"errors"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"github.com/banshee-data/sweepview/internal/lidar"
	"github.com/banshee-data/sweepview/internal/lidar/annotate"
	"github.com/banshee-data/sweepview/internal/lidar/l4perception"
	"github.com/banshee-data/sweepview/internal/lidar/raster"
	"github.com/banshee-data/sweepview/internal/timeutil"
)

// Live rig geometry.
const (
	PreviewWidth  = 1920
	PreviewHeight = 1080
	PreviewHalfX  = 6.7
)

// LiveTranslations are the sensor offsets of the live rig.
func LiveTranslations() l4perception.Translations {
	return l4perception.Translations{
		{X: -6.7, Y: -1.7},
		{X: 6.7, Y: 1.0},
		{X: 6.7, Y: -1.7},
		{X: -6.7, Y: 1.0},
	}
}

// PreviewConfig holds the render and annotate settings of one tick.
type PreviewConfig struct {
	Render   raster.Params
	Annotate annotate.Params
}

// DefaultPreviewConfig returns the live rig constants: a 1920x1080 canvas
// spanning +/-6.7 m horizontally, 5% margins and 20 px clusters.
func DefaultPreviewConfig() PreviewConfig {
	r := raster.DefaultParams()
	r.Canvas = raster.SquareCanvas(PreviewWidth, PreviewHeight, PreviewHalfX)
	r.Translations = LiveTranslations()
	a := annotate.DefaultParams()
	a.Background = r.Background
	return PreviewConfig{Render: r, Annotate: a}
}

// Snapshot is one published preview.
type Snapshot struct {
	Image     *image.RGBA
	Clusters  []annotate.Cluster
	Frame     int
	Published time.Time
}

// Publisher receives each rendered preview.
type Publisher interface {
	Publish(s Snapshot)
}

// LatestImage keeps the most recent snapshot for HTTP readers.
type LatestImage struct {
	mu   sync.RWMutex
	snap Snapshot
	ok   bool
}

// Publish implements Publisher.
func (l *LatestImage) Publish(s Snapshot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.snap = s
	l.ok = true
}

// Latest returns the newest snapshot. ok is false before the first Publish.
func (l *LatestImage) Latest() (s Snapshot, ok bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.snap, l.ok
}

// PreviewStats counts tick outcomes.
type PreviewStats struct {
	Cooked  int64 `json:"cooked"`
	Skipped int64 `json:"skipped"`
	Failed  int64 `json:"failed"`
}

// Preview renders one tick from Source into Publisher.
type Preview struct {
	Source    ChannelSource
	Config    PreviewConfig
	Publisher Publisher
	Clock     timeutil.Clock

	cooked  atomic.Int64
	skipped atomic.Int64
	failed  atomic.Int64
}

// NewPreview wires a preview with the live defaults.
func NewPreview(src ChannelSource, pub Publisher, clock timeutil.Clock) *Preview {
	return &Preview{Source: src, Config: DefaultPreviewConfig(), Publisher: pub, Clock: clock}
}

// Cook pulls the current sweep, renders, annotates and publishes it. Only
// context cancellation is returned; missing data and render errors skip
// the tick.
func (p *Preview) Cook(ctx context.Context) error {
	f, err := p.Source.Channels(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		p.skipped.Add(1)
		if !errors.Is(err, ErrNoData) {
			lidar.Tracef("preview: source: %v", err)
		}
		return nil
	}
	if f.Empty() {
		p.skipped.Add(1)
		return nil
	}

	img, clusters, err := annotate.Annotate(raster.RenderFrame(f, p.Config.Render), p.Config.Annotate)
	if err != nil {
		p.failed.Add(1)
		lidar.Tracef("preview: annotate frame %d: %v", f.Index, err)
		return nil
	}

	now := time.Now()
	if p.Clock != nil {
		now = p.Clock.Now()
	}
	p.Publisher.Publish(Snapshot{Image: img, Clusters: clusters, Frame: f.Index, Published: now})
	p.cooked.Add(1)
	return nil
}

// Stats returns the tick counters.
func (p *Preview) Stats() PreviewStats {
	return PreviewStats{Cooked: p.cooked.Load(), Skipped: p.skipped.Load(), Failed: p.failed.Load()}
}
