// Command sweepview renders recorded .chan scans into overlay PNGs or
// annotated per-frame videos.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/banshee-data/sweepview/internal/config"
	"github.com/banshee-data/sweepview/internal/db"
	"github.com/banshee-data/sweepview/internal/fsutil"
	"github.com/banshee-data/sweepview/internal/lidar"
	"github.com/banshee-data/sweepview/internal/lidar/annotate"
	"github.com/banshee-data/sweepview/internal/lidar/pipeline"
	"github.com/banshee-data/sweepview/internal/lidar/raster"
	"github.com/banshee-data/sweepview/internal/version"
	"github.com/banshee-data/sweepview/internal/video"
)

// Default output directories per mode.
const (
	defaultPNGDir   = "output_pngs_cli"
	defaultVideoDir = "output_videos_cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

type options struct {
	inputDir        string
	outputDir       string
	file            string
	png             bool
	video           bool
	fps             int
	translations    string
	configPath      string
	workers         int
	encoder         string
	annotateOverlay bool
	captions        bool
	trace           bool
	html            bool
	dbPath          string
	verbosity       int
	showVersion     bool
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	o := &options{}
	fs := flag.NewFlagSet("sweepview", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.inputDir, "input-dir", ".", "Directory containing .chan files")
	fs.StringVar(&o.outputDir, "output-dir", "", "Output directory (default "+defaultPNGDir+" or "+defaultVideoDir+")")
	fs.StringVar(&o.file, "file", "__ALL__", "File to process: a name, 'first'/'__FIRST__' or 'all'/'__ALL__'")
	fs.BoolVar(&o.png, "png", false, "Render one overlay PNG per file")
	fs.BoolVar(&o.video, "video", false, "Render one annotated video per file")
	fs.IntVar(&o.fps, "fps", 0, "Video frame rate (default 10, or fps from -config)")
	fs.StringVar(&o.translations, "translations", "", "Sensor offsets 'x1,y1;x2,y2;x3,y3;x4,y4' in metres")
	fs.StringVar(&o.configPath, "config", "", "Render configuration JSON (see "+config.DefaultConfigPath+")")
	fs.IntVar(&o.workers, "workers", 0, "Concurrent files (default min(NumCPU, files))")
	fs.StringVar(&o.encoder, "encoder", "ffmpeg", "Video encoder: 'ffmpeg' or 'png' (numbered frames)")
	fs.BoolVar(&o.annotateOverlay, "annotate-overlay", false, "Mark clusters on PNG overlays too")
	fs.BoolVar(&o.captions, "captions", false, "Stamp file name and frame number on video frames")
	fs.BoolVar(&o.trace, "trace", false, "Write an angle trace PNG per file")
	fs.BoolVar(&o.html, "html", false, "Write an interactive scatter HTML per file")
	fs.StringVar(&o.dbPath, "db", "", "Record runs in this sqlite catalog")
	fs.IntVar(&o.verbosity, "v", 0, "Log verbosity: 0 ops, 1 diag, 2 trace")
	fs.BoolVar(&o.showVersion, "version", false, "Print version and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	if o.showVersion {
		return o, nil
	}
	if o.png == o.video {
		return nil, errors.New("exactly one of -png or -video is required")
	}
	if o.encoder != "ffmpeg" && o.encoder != "png" {
		return nil, fmt.Errorf("unknown encoder %q: expected 'ffmpeg' or 'png'", o.encoder)
	}
	if o.outputDir == "" {
		o.outputDir = defaultPNGDir
		if o.video {
			o.outputDir = defaultVideoDir
		}
	}
	return o, nil
}

// buildOptions resolves flags and the optional config file into pipeline
// options. Flags win over the config file.
func buildOptions(o *options) (pipeline.Options, error) {
	cfg := config.EmptyRenderConfig()
	if o.configPath != "" {
		var err error
		if cfg, err = config.LoadRenderConfig(o.configPath); err != nil {
			return pipeline.Options{}, err
		}
	}

	render := raster.DefaultParams()
	render.Translations = pipeline.DefaultTranslations()
	render = cfg.RenderParams(render)
	if o.translations != "" {
		tr, err := pipeline.ParseTranslations(o.translations)
		if err != nil {
			return pipeline.Options{}, err
		}
		render.Translations = tr
	}
	if !render.Canvas.Valid() {
		return pipeline.Options{}, fmt.Errorf("invalid canvas %+v", render.Canvas)
	}

	fps := cfg.GetFPS(pipeline.DefaultFPS)
	if o.fps != 0 {
		fps = o.fps
	}
	if fps <= 0 {
		return pipeline.Options{}, fmt.Errorf("fps must be positive, got %d", fps)
	}

	ap := cfg.AnnotateParams(annotate.DefaultParams())
	opts := pipeline.Options{
		FS:              fsutil.OSFileSystem{},
		InputDir:        o.inputDir,
		OutputDir:       o.outputDir,
		Mode:            pipeline.ModePNG,
		Selection:       o.file,
		FPS:             fps,
		Workers:         o.workers,
		Parse:           cfg.ParseConfig(),
		Frames:          cfg.FrameConfig(),
		Render:          &render,
		Annotate:        &ap,
		AnnotateOverlay: o.annotateOverlay,
		Captions:        o.captions,
		TracePlot:       o.trace,
		ScatterHTML:     o.html,
		Encoder:         video.NewFFmpegEncoder,
	}
	if o.video {
		opts.Mode = pipeline.ModeVideo
	}
	if o.encoder == "png" {
		opts.Encoder = video.NewPNGSequenceEncoder
	}
	return opts, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	o, err := parseFlags(args, stderr)
	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(stderr, "sweepview: %v\n", err)
		}
		return 1
	}
	if o.showVersion {
		fmt.Fprintf(stdout, "sweepview %s\n", version.String())
		return 0
	}
	lidar.SetLogWriters(lidar.WritersForVerbosity(stderr, o.verbosity))

	opts, err := buildOptions(o)
	if err != nil {
		fmt.Fprintf(stderr, "sweepview: %v\n", err)
		return 1
	}

	if o.dbPath != "" {
		catalog, err := db.OpenDB(o.dbPath)
		if err != nil {
			fmt.Fprintf(stderr, "sweepview: %v\n", err)
			return 1
		}
		defer catalog.Close()
		opts.Catalog = catalog
	}

	sum, err := pipeline.NewAssembler(opts).Run(ctx)
	switch {
	case errors.Is(err, pipeline.ErrNoSources):
		fmt.Fprintf(stderr, "No .chan files found in %s\n", o.inputDir)
		return 1
	case err != nil:
		fmt.Fprintf(stderr, "sweepview: %v\n", err)
		return 1
	}

	printSummary(stdout, sum)
	return 0
}

func printSummary(w io.Writer, sum *pipeline.Summary) {
	for _, r := range sum.Results {
		switch {
		case r.NoData:
			fmt.Fprintf(w, "[no data] %s: no valid samples\n", r.Source)
		case r.Err != nil:
			fmt.Fprintf(w, "[failed]  %s: %v\n", r.Source, r.Err)
		default:
			fmt.Fprintf(w, "[ok]      %s -> %s (%d frames)\n", r.Source, filepath.ToSlash(r.Output), r.Frames)
		}
	}
	fmt.Fprintf(w, "%d/%d files generated\n", sum.Succeeded, sum.Attempted)
}
