package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"path/filepath"
	"runtime"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/sweepview/internal/db"
	"github.com/banshee-data/sweepview/internal/fsutil"
	"github.com/banshee-data/sweepview/internal/lidar"
	"github.com/banshee-data/sweepview/internal/lidar/annotate"
	"github.com/banshee-data/sweepview/internal/lidar/l2frames"
	"github.com/banshee-data/sweepview/internal/lidar/parse"
	"github.com/banshee-data/sweepview/internal/lidar/raster"
	"github.com/banshee-data/sweepview/internal/lidar/report"
	"github.com/banshee-data/sweepview/internal/security"
	"github.com/banshee-data/sweepview/internal/timeutil"
	"github.com/banshee-data/sweepview/internal/video"
)

// Mode selects the output artifact.
type Mode string

const (
	ModePNG   Mode = "png"
	ModeVideo Mode = "video"
)

// DefaultFPS is the batch video frame rate.
const DefaultFPS = 10

// ErrNoData marks a source that yielded no valid samples.
var ErrNoData = errors.New("no data")

// Catalog records runs. *db.DB satisfies it.
type Catalog interface {
	RecordRun(ctx context.Context, r db.RunRecord) error
	RecordOutput(ctx context.Context, o db.OutputRecord) error
}

// Options configures an Assembler. Zero values fall back to the batch
// defaults in normalized.
type Options struct {
	FS        fsutil.FileSystem
	Clock     timeutil.Clock
	InputDir  string
	OutputDir string
	Mode      Mode
	Selection string
	FPS       int
	Workers   int // 0 uses min(NumCPU, sources)

	Parse  parse.Config
	Frames l2frames.Config
	// Render and Annotate fall back to the package defaults when nil.
	// A set Annotate is used as given, zero margins and radius included;
	// only a zero marker color falls back to red.
	Render   *raster.Params
	Annotate *annotate.Params

	AnnotateOverlay bool // detect clusters on the PNG overlay too
	Captions        bool // stamp the source name and frame number on video frames
	TracePlot       bool // write <base>_trace.png next to each output
	ScatterHTML     bool // write <base>_scatter.html next to each output

	Encoder video.Factory
	Catalog Catalog
}

func (o Options) normalized() Options {
	if o.FS == nil {
		o.FS = fsutil.OSFileSystem{}
	}
	if o.Clock == nil {
		o.Clock = timeutil.RealClock{}
	}
	if o.Mode == "" {
		o.Mode = ModePNG
	}
	if o.FPS <= 0 {
		o.FPS = DefaultFPS
	}
	if o.Parse.FlipSensors == nil {
		// An empty non-nil slice disables the correction.
		o.Parse = parse.DefaultConfig()
	}
	if o.Encoder == nil {
		o.Encoder = video.NewFFmpegEncoder
	}
	o.Render = renderParams(o.Render)

	ap := annotate.DefaultParams()
	if o.Annotate != nil {
		ap = *o.Annotate
	}
	if ap.MarkerColor == (color.RGBA{}) {
		ap.MarkerColor = annotate.DefaultParams().MarkerColor
	}
	ap.Background = o.Render.Background
	o.Annotate = &ap
	return o
}

// renderParams returns a copy of p with unset fields taken from
// raster.DefaultParams. Set fields are kept.
func renderParams(p *raster.Params) *raster.Params {
	def := raster.DefaultParams()
	if p == nil {
		return &def
	}
	rp := *p
	if !rp.Canvas.Valid() {
		rp.Canvas = def.Canvas
	}
	if rp.Background == (color.RGBA{}) {
		rp.Background = def.Background
	}
	if rp.Palette == (raster.Palette{}) {
		rp.Palette = def.Palette
	}
	if rp.Projection.MaxRadius <= 0 {
		rp.Projection = def.Projection
	}
	return &rp
}

// Result is the outcome of one source.
type Result struct {
	Source   string
	Output   string
	Frames   int
	Clusters int
	Stats    parse.Stats
	NoData   bool
	Err      error
	SideErr  error // trace or scatter failures; never fail the source
	Duration time.Duration
}

// Status is the short word printed in per-file status lines.
func (r Result) Status() string {
	switch {
	case r.NoData:
		return "no data"
	case r.Err != nil:
		return "failed"
	}
	return "ok"
}

// Summary aggregates a batch run.
type Summary struct {
	RunID     string
	Mode      Mode
	Started   time.Time
	Finished  time.Time
	Attempted int
	Succeeded int
	Results   []Result
}

// Err combines the per-source errors, nil when every source succeeded.
func (s *Summary) Err() error {
	var err error
	for _, r := range s.Results {
		if r.Err != nil {
			err = multierr.Append(err, fmt.Errorf("%s: %w", r.Source, r.Err))
		}
	}
	return err
}

// Assembler turns selected sources into PNG or video outputs.
type Assembler struct {
	opts Options
}

// NewAssembler returns an Assembler with defaults applied to opts.
func NewAssembler(opts Options) *Assembler {
	return &Assembler{opts: opts.normalized()}
}

// Options returns the effective options.
func (a *Assembler) Options() Options { return a.opts }

// Sources discovers and selects the scan files to process.
func (a *Assembler) Sources() ([]string, error) {
	files, err := Discover(a.opts.FS, a.opts.InputDir)
	if err != nil {
		return nil, err
	}
	return Select(files, a.opts.Selection)
}

// OutputPath is where source's primary artifact is written.
func (a *Assembler) OutputPath(source string) string {
	tr := a.opts.Render.Translations
	if a.opts.Mode == ModeVideo {
		return filepath.Join(a.opts.OutputDir, VideoName(source, tr, a.opts.FPS))
	}
	return filepath.Join(a.opts.OutputDir, OverlayName(source, tr))
}

// ProcessSource renders one source. Failures are reported in the Result.
func (a *Assembler) ProcessSource(ctx context.Context, source string) Result {
	res, _ := a.process(ctx, source)
	return res
}

func (a *Assembler) process(ctx context.Context, source string) (res Result, img image.Image) {
	start := a.opts.Clock.Now()
	res.Source = source
	defer func() {
		if p := recover(); p != nil {
			res.Err = fmt.Errorf("panic rendering %s: %v", source, p)
			img = nil
		}
		res.Duration = a.opts.Clock.Now().Sub(start)
	}()

	frames, stats, err := a.load(source)
	res.Stats = stats
	res.Frames = len(frames)
	if err != nil {
		res.Err = err
		return res, nil
	}
	if stats.Valid == 0 || len(frames) == 0 {
		res.NoData = true
		res.Err = ErrNoData
		lidar.Diagf("%s: no valid samples in %d lines", source, stats.Lines)
		return res, nil
	}

	if err := a.opts.FS.MkdirAll(a.opts.OutputDir, 0o755); err != nil {
		res.Err = fmt.Errorf("create output directory: %w", err)
		return res, nil
	}
	res.Output = a.OutputPath(source)
	if err := security.ValidatePathWithinDirectory(res.Output, a.opts.OutputDir); err != nil {
		res.Err = err
		return res, nil
	}

	switch a.opts.Mode {
	case ModeVideo:
		img, res.Clusters, err = a.writeVideo(ctx, source, res.Output, frames)
	default:
		img, res.Clusters, err = a.writeOverlay(res.Output, frames)
	}
	if err != nil {
		res.Err = err
		return res, nil
	}
	res.SideErr = a.writeSideOutputs(source, frames)
	if res.SideErr != nil {
		lidar.Opsf("%s: diagnostics: %v", source, res.SideErr)
	}
	lidar.Diagf("%s: %d frames, %d samples, %d skipped lines -> %s",
		source, len(frames), stats.Valid, stats.Skipped, res.Output)
	return res, img
}

func (a *Assembler) load(source string) ([]l2frames.Frame, parse.Stats, error) {
	if err := security.ValidateSourceName(source); err != nil {
		return nil, parse.Stats{}, err
	}
	f, err := a.opts.FS.Open(filepath.Join(a.opts.InputDir, source))
	if err != nil {
		return nil, parse.Stats{}, fmt.Errorf("open source: %w", err)
	}
	defer f.Close()
	return l2frames.SegmentReader(f, a.opts.Parse, a.opts.Frames)
}

func (a *Assembler) writeOverlay(path string, frames []l2frames.Frame) (image.Image, int, error) {
	img := raster.RenderOverlay(frames, *a.opts.Render)
	clusters := 0
	if a.opts.AnnotateOverlay {
		annotated, cs, err := annotate.Annotate(img, *a.opts.Annotate)
		if err != nil {
			return nil, 0, err
		}
		img, clusters = annotated, len(cs)
	}
	if err := a.savePNG(path, img); err != nil {
		return nil, 0, err
	}
	return img, clusters, nil
}

func (a *Assembler) savePNG(path string, img image.Image) error {
	w, err := a.opts.FS.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := imaging.Encode(w, img, imaging.PNG); err != nil {
		_ = w.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return w.Close()
}

func (a *Assembler) writeVideo(ctx context.Context, source, path string, frames []l2frames.Frame) (last image.Image, clusters int, err error) {
	c := a.opts.Render.Canvas
	enc, err := a.opts.Encoder(ctx, path, c.Width, c.Height, a.opts.FPS)
	if err != nil {
		return nil, 0, fmt.Errorf("open encoder: %w", err)
	}
	defer func() {
		err = multierr.Append(err, enc.Close())
	}()

	for i := range frames {
		if err := ctx.Err(); err != nil {
			return nil, clusters, err
		}
		img, cs, err := annotate.Annotate(raster.RenderFrame(frames[i], *a.opts.Render), *a.opts.Annotate)
		if err != nil {
			return nil, clusters, err
		}
		clusters += len(cs)
		if a.opts.Captions {
			caption := fmt.Sprintf("%s  frame %d/%d  clusters %d", source, i+1, len(frames), len(cs))
			raster.DrawCaption(img, caption, color.Black, 18)
		}
		if err := enc.WriteFrame(img); err != nil {
			return nil, clusters, fmt.Errorf("frame %d: %w", i, err)
		}
		lidar.Tracef("%s: frame %d/%d, %d clusters", source, i+1, len(frames), len(cs))
		last = img
	}
	return last, clusters, nil
}

func (a *Assembler) writeSideOutputs(source string, frames []l2frames.Frame) error {
	var err error
	if a.opts.TracePlot {
		err = multierr.Append(err, a.writeWith(TraceName(source), func(w io.Writer) error {
			return report.WriteAngleTrace(w, frames, a.opts.Frames.ReferenceSensor, source)
		}))
		for _, fs := range report.Summarize(frames, a.opts.Frames.ReferenceSensor) {
			lidar.Tracef("%s: frame %d: %d samples, radius %.2f (sd %.2f), spread %.1f deg",
				source, fs.Index, fs.Samples, fs.MeanRadius, fs.StdRadius, fs.AngleSpread)
		}
	}
	if a.opts.ScatterHTML {
		err = multierr.Append(err, a.writeWith(ScatterName(source), func(w io.Writer) error {
			return report.WriteScatterHTML(w, source, frames, *a.opts.Render)
		}))
	}
	return err
}

func (a *Assembler) writeWith(name string, fn func(w io.Writer) error) error {
	path := filepath.Join(a.opts.OutputDir, name)
	w, err := a.opts.FS.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := fn(w); err != nil {
		_ = w.Close()
		return fmt.Errorf("%s: %w", name, err)
	}
	return w.Close()
}

// Run processes every selected source on a bounded worker pool. Selection
// errors abort before any work; per-source failures land in the Summary.
func (a *Assembler) Run(ctx context.Context) (*Summary, error) {
	sources, err := a.Sources()
	if err != nil {
		return nil, err
	}

	sum := &Summary{
		RunID:     uuid.NewString(),
		Mode:      a.opts.Mode,
		Started:   a.opts.Clock.Now(),
		Attempted: len(sources),
		Results:   make([]Result, len(sources)),
	}

	workers := a.opts.Workers
	if workers <= 0 {
		workers = min(runtime.NumCPU(), len(sources))
	}
	var g errgroup.Group
	g.SetLimit(max(workers, 1))
	for i, src := range sources {
		g.Go(func() error {
			sum.Results[i] = a.ProcessSource(ctx, src)
			return nil
		})
	}
	_ = g.Wait()

	for _, r := range sum.Results {
		if r.Err == nil {
			sum.Succeeded++
		}
	}
	sum.Finished = a.opts.Clock.Now()
	a.record(ctx, sum)
	return sum, nil
}

func (a *Assembler) record(ctx context.Context, sum *Summary) {
	if a.opts.Catalog == nil {
		return
	}
	err := a.opts.Catalog.RecordRun(ctx, db.RunRecord{
		RunID:      sum.RunID,
		StartedAt:  sum.Started,
		FinishedAt: sum.Finished,
		Mode:       string(sum.Mode),
		InputDir:   a.opts.InputDir,
		Selection:  NormalizeSelection(a.opts.Selection),
		ParamsTag:  ParamTag(a.opts.Render.Translations),
		FPS:        a.opts.FPS,
		Attempted:  sum.Attempted,
		Succeeded:  sum.Succeeded,
	})
	for _, r := range sum.Results {
		o := db.OutputRecord{
			RunID:      sum.RunID,
			Source:     r.Source,
			OutputPath: r.Output,
			Frames:     r.Frames,
			Clusters:   r.Clusters,
			Status:     r.Status(),
			Duration:   r.Duration,
		}
		if r.Err != nil {
			o.OutputPath = ""
			o.Error = r.Err.Error()
		}
		err = multierr.Append(err, a.opts.Catalog.RecordOutput(ctx, o))
	}
	if err != nil {
		lidar.Opsf("run %s: catalog: %v", sum.RunID, err)
	}
}

// RenderPreview processes the selection sequentially in PNG mode and
// returns the last image produced and its path. It fails only when no
// source produced an image.
func RenderPreview(ctx context.Context, opts Options, sel string) (image.Image, string, error) {
	opts.Mode = ModePNG
	opts.Selection = sel
	a := NewAssembler(opts)
	sources, err := a.Sources()
	if err != nil {
		return nil, "", err
	}

	var (
		last     image.Image
		lastPath string
		errs     error
	)
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return nil, "", err
		}
		res, img := a.process(ctx, src)
		if res.Err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", src, res.Err))
			continue
		}
		last, lastPath = img, res.Output
	}
	if last == nil {
		if errs == nil {
			errs = ErrNoData
		}
		return nil, "", errs
	}
	return last, lastPath, nil
}

// Thumbnail fits img inside a w x h box, keeping the aspect ratio.
func Thumbnail(img image.Image, w, h int) *image.NRGBA {
	return imaging.Fit(img, w, h, imaging.Lanczos)
}

var _ Catalog = (*db.DB)(nil)
