// Command sweeplive serves an annotated real-time preview of a scanner rig,
// fed from a replayed recording, a serial bridge or pushed arrays.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/sweepview/internal/config"
	"github.com/banshee-data/sweepview/internal/db"
	"github.com/banshee-data/sweepview/internal/fsutil"
	"github.com/banshee-data/sweepview/internal/lidar"
	"github.com/banshee-data/sweepview/internal/lidar/annotate"
	"github.com/banshee-data/sweepview/internal/lidar/live"
	"github.com/banshee-data/sweepview/internal/lidar/pipeline"
	"github.com/banshee-data/sweepview/internal/lidar/raster"
	"github.com/banshee-data/sweepview/internal/lidar/replay"
	"github.com/banshee-data/sweepview/internal/serialmux"
	"github.com/banshee-data/sweepview/internal/timeutil"
	"github.com/banshee-data/sweepview/internal/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

type options struct {
	listen      string
	replayPath  string
	serialPort  string
	baud        int
	fps         int
	inputDir    string
	outputDir   string
	configPath  string
	dbPath      string
	verbosity   int
	showVersion bool
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	o := &options{}
	fs := flag.NewFlagSet("sweeplive", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.listen, "listen", ":8080", "Listen address")
	fs.StringVar(&o.replayPath, "replay", "", "Replay this .chan file in a loop (- reads stdin)")
	fs.StringVar(&o.serialPort, "serial", "", "Read .chan records from this serial port")
	fs.IntVar(&o.baud, "baud", serialmux.DefaultBaudRate, "Serial baud rate")
	fs.IntVar(&o.fps, "fps", live.DefaultFPS, "Preview ticks per second")
	fs.StringVar(&o.inputDir, "input-dir", ".", "Directory of .chan files for /api/render")
	fs.StringVar(&o.outputDir, "output-dir", "output_pngs_gui", "Where /api/render writes overlays")
	fs.StringVar(&o.configPath, "config", "", "Render configuration JSON")
	fs.StringVar(&o.dbPath, "db", "", "Serve this run catalog under /debug/")
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
	if o.listen == "" {
		return nil, errors.New("listen address is required")
	}
	if o.replayPath != "" && o.serialPort != "" {
		return nil, errors.New("-replay and -serial are mutually exclusive")
	}
	if o.fps <= 0 {
		return nil, fmt.Errorf("fps must be positive, got %d", o.fps)
	}
	return o, nil
}

// renderOptions is the base configuration of the /api/render form.
func renderOptions(o *options) (pipeline.Options, error) {
	cfg := config.EmptyRenderConfig()
	if o.configPath != "" {
		var err error
		if cfg, err = config.LoadRenderConfig(o.configPath); err != nil {
			return pipeline.Options{}, err
		}
	}
	render := raster.DefaultParams()
	render.Translations = pipeline.GUITranslations()
	render = cfg.RenderParams(render)
	ap := cfg.AnnotateParams(annotate.DefaultParams())
	return pipeline.Options{
		FS:        fsutil.OSFileSystem{},
		InputDir:  o.inputDir,
		OutputDir: o.outputDir,
		Mode:      pipeline.ModePNG,
		Parse:     cfg.ParseConfig(),
		Frames:    cfg.FrameConfig(),
		Render:    &render,
		Annotate:  &ap,
	}, nil
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	o, err := parseFlags(args, stderr)
	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(stderr, "sweeplive: %v\n", err)
		}
		return 1
	}
	if o.showVersion {
		fmt.Fprintf(stdout, "sweeplive %s\n", version.String())
		return 0
	}
	lidar.SetLogWriters(lidar.WritersForVerbosity(stderr, o.verbosity))
	if err := serve(ctx, o, stdin); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(stderr, "sweeplive: %v\n", err)
		return 1
	}
	return 0
}

// replaySource builds the -replay source from the configured parse and
// segmenter settings. "-" replays stdin from memory and lets hosts replace
// the buffer through /api/replay.
func replaySource(path string, opts pipeline.Options, stdin io.Reader) (live.ChannelSource, *live.TextReplaySource, error) {
	cache := replay.NewCache(fsutil.OSFileSystem{}, opts.Parse, opts.Frames)
	if path != "-" {
		return live.NewReplaySource(cache, path), nil, nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return nil, nil, fmt.Errorf("read stdin: %w", err)
	}
	text := live.NewTextReplaySource(cache, "stdin")
	text.Load(string(data), time.Now())
	return text, text, nil
}

func serve(ctx context.Context, o *options, stdin io.Reader) error {
	renderOpts, err := renderOptions(o)
	if err != nil {
		return err
	}

	clock := timeutil.RealClock{}
	latest := &live.LatestImage{}
	g, ctx := errgroup.WithContext(ctx)
	mux := http.NewServeMux()

	var (
		src    live.ChannelSource
		desc   string
		static *live.StaticSource
		text   *live.TextReplaySource
	)
	switch {
	case o.replayPath != "":
		if src, text, err = replaySource(o.replayPath, renderOpts, stdin); err != nil {
			return err
		}
		desc = "replay:" + o.replayPath
	case o.serialPort != "":
		port, err := serialmux.OpenPort(o.serialPort, serialmux.PortOptions{BaudRate: o.baud})
		if err != nil {
			return err
		}
		defer port.Close()
		port.AttachAdminRoutes(mux)

		serialSrc := live.NewSerialSource(renderOpts.Parse, renderOpts.Frames)
		g.Go(func() error { return port.Monitor(ctx) })
		g.Go(func() error { return serialSrc.Run(ctx, port) })
		src, desc = serialSrc, "serial:"+o.serialPort
	default:
		static = live.NewStaticSource()
		src, desc = static, "push"
	}

	preview := live.NewPreview(src, latest, clock)
	server := live.NewServer(latest, preview, desc, renderOpts)
	if static != nil {
		server.AcceptChannels(static)
	}
	if text != nil {
		server.AcceptReplayText(text)
	}
	api := server.ServeMux()
	mux.Handle("/", api)
	server.AttachAdminRoutes(mux)

	if o.dbPath != "" {
		catalog, err := db.OpenDB(o.dbPath)
		if err != nil {
			return err
		}
		defer catalog.Close()
		catalog.AttachAdminRoutes(mux)
	}

	runner := &live.Runner{Preview: preview, Clock: clock, Interval: live.IntervalForFPS(o.fps)}
	g.Go(func() error { return runner.Run(ctx) })

	httpServer := &http.Server{
		Addr:              o.listen,
		Handler:           live.LoggingMiddleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}
	g.Go(func() error {
		log.Printf("sweeplive %s listening on %s (source %s)", version.Version, o.listen, desc)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
