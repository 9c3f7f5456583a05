package live

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"tailscale.com/tsweb"

	"github.com/banshee-data/sweepview/internal/httputil"
	"github.com/banshee-data/sweepview/internal/lidar"
	"github.com/banshee-data/sweepview/internal/lidar/annotate"
	"github.com/banshee-data/sweepview/internal/lidar/l2frames"
	"github.com/banshee-data/sweepview/internal/lidar/pipeline"
	"github.com/banshee-data/sweepview/internal/version"
)

// Thumbnail box used by /api/render when the request does not set one.
const (
	DefaultThumbWidth  = 640
	DefaultThumbHeight = 360
)

const maxChannelsBody = 8 << 20

const (
	colorCyan      = "\033[36m"
	colorReset     = "\033[0m"
	colorYellow    = "\033[33m"
	colorBoldGreen = "\033[1;32m"
	colorBoldRed   = "\033[1;31m"
)

// Server exposes the live preview and the render form over HTTP.
type Server struct {
	latest  *LatestImage
	preview *Preview
	source  string
	render  pipeline.Options
	static  *StaticSource
	text    *TextReplaySource
	started time.Time

	mu         sync.RWMutex
	lastRender image.Image
	lastPath   string
}

// NewServer returns a Server. source describes the channel source in
// /api/status; render is the base configuration for /api/render.
func NewServer(latest *LatestImage, preview *Preview, source string, render pipeline.Options) *Server {
	return &Server{
		latest:  latest,
		preview: preview,
		source:  source,
		render:  pipeline.NewAssembler(render).Options(),
		started: time.Now(),
	}
}

// AcceptChannels enables POST /api/channels, which replaces the sweep
// served by src.
func (s *Server) AcceptChannels(src *StaticSource) { s.static = src }

// AcceptReplayText enables POST /api/replay, which replaces the .chan
// buffer replayed by src.
func (s *Server) AcceptReplayText(src *TextReplaySource) { s.text = src }

// ServeMux returns the public routes.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/preview.png", s.handlePreview)
	mux.HandleFunc("/render.png", s.handleLastRender)
	mux.HandleFunc("/api/detect", s.handleDetect)
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/render", s.handleRender)
	if s.static != nil {
		mux.HandleFunc("/api/channels", s.handleChannels)
	}
	if s.text != nil {
		mux.HandleFunc("/api/replay", s.handleReplayText)
	}
	return mux
}

// AttachAdminRoutes adds the tick counters to the /debug/ index.
func (s *Server) AttachAdminRoutes(mux *http.ServeMux) {
	debug := tsweb.Debugger(mux)
	debug.Handle("preview", "Live preview tick counters (JSON)", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSONOK(w, s.stats())
	}))
}

func (s *Server) stats() PreviewStats {
	if s.preview == nil {
		return PreviewStats{}
	}
	return s.preview.Stats()
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	snap, ok := s.latest.Latest()
	if !ok {
		httputil.ServiceUnavailable(w, "no preview yet")
		return
	}
	httputil.WritePNG(w, snap.Image)
}

// DetectResponse is the /api/detect payload. Centers are normalized to
// [0,1] by the image size.
type DetectResponse struct {
	Frame     int          `json:"frame"`
	Width     int          `json:"width"`
	Height    int          `json:"height"`
	Centers   [][2]float64 `json:"centers"`
	Published time.Time    `json:"published"`
}

func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	snap, ok := s.latest.Latest()
	if !ok {
		httputil.ServiceUnavailable(w, "no preview yet")
		return
	}
	b := snap.Image.Bounds()
	centers := annotate.Normalized(snap.Clusters, b.Dx(), b.Dy())
	if centers == nil {
		centers = [][2]float64{}
	}
	httputil.WriteJSONOK(w, DetectResponse{
		Frame:     snap.Frame,
		Width:     b.Dx(),
		Height:    b.Dy(),
		Centers:   centers,
		Published: snap.Published,
	})
}

// StatusResponse is the /api/status payload.
type StatusResponse struct {
	Version      string       `json:"version"`
	Source       string       `json:"source"`
	Uptime       string       `json:"uptime"`
	HasPreview   bool         `json:"has_preview"`
	Frame        int          `json:"frame"`
	Published    *time.Time   `json:"published,omitempty"`
	Stats        PreviewStats `json:"stats"`
	Translations string       `json:"translations"` // /api/render default, x1,y1;...;x4,y4
	LastRender   string       `json:"last_render,omitempty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	resp := StatusResponse{
		Version: version.String(),
		Source:  s.source,
		Uptime:  time.Since(s.started).Round(time.Second).String(),
		Stats:   s.stats(),

		Translations: pipeline.FormatTranslations(s.render.Render.Translations),
	}
	if snap, ok := s.latest.Latest(); ok {
		resp.HasPreview = true
		resp.Frame = snap.Frame
		resp.Published = &snap.Published
	}
	s.mu.RLock()
	resp.LastRender = s.lastPath
	s.mu.RUnlock()
	httputil.WriteJSONOK(w, resp)
}

// handleRender is the form adapter: translations and a file selection in,
// a thumbnail of the last rendered overlay out. Failures leave the previous
// render in place.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost && r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	opts := s.render
	if v := r.FormValue("translations"); v != "" {
		tr, err := pipeline.ParseTranslations(v)
		if err != nil {
			httputil.BadRequest(w, err.Error())
			return
		}
		rp := *opts.Render
		rp.Translations = tr
		opts.Render = &rp
	}
	tw, err := formInt(r, "width", DefaultThumbWidth)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	th, err := formInt(r, "height", DefaultThumbHeight)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	img, path, err := pipeline.RenderPreview(r.Context(), opts, r.FormValue("file"))
	if err != nil {
		lidar.Opsf("render form: %v", err)
		switch {
		case errors.Is(err, pipeline.ErrUnknownSelection):
			httputil.BadRequest(w, err.Error())
		case errors.Is(err, pipeline.ErrNoSources):
			httputil.NotFound(w, err.Error())
		case errors.Is(err, pipeline.ErrNoData):
			httputil.WriteJSONError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			httputil.InternalServerError(w, err.Error())
		}
		return
	}

	thumb := pipeline.Thumbnail(img, tw, th)
	s.mu.Lock()
	s.lastRender, s.lastPath = thumb, path
	s.mu.Unlock()

	w.Header().Set("X-Output-Path", path)
	httputil.WritePNG(w, thumb)
}

func (s *Server) handleLastRender(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	s.mu.RLock()
	img := s.lastRender
	s.mu.RUnlock()
	if img == nil {
		httputil.NotFound(w, "nothing rendered yet")
		return
	}
	httputil.WritePNG(w, img)
}

// ChannelsRequest carries one sweep as per-sensor radius and angle arrays.
type ChannelsRequest struct {
	Radius [l2frames.NumSensors][]float64 `json:"radius"`
	Angle  [l2frames.NumSensors][]float64 `json:"angle"`
}

func (s *Server) handleChannels(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	var req ChannelsRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxChannelsBody))
	if err := dec.Decode(&req); err != nil {
		httputil.BadRequest(w, "invalid channels payload: "+err.Error())
		return
	}
	for k := range req.Radius {
		if len(req.Radius[k]) != len(req.Angle[k]) {
			httputil.BadRequest(w, fmt.Sprintf("sensor %d: %d radii but %d angles", k, len(req.Radius[k]), len(req.Angle[k])))
			return
		}
	}
	s.static.Set(req.Radius, req.Angle)
	httputil.WriteJSONOK(w, map[string]int{"samples": len(req.Radius[0])})
}

func (s *Server) handleReplayText(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxChannelsBody))
	if err != nil {
		httputil.BadRequest(w, "invalid replay payload: "+err.Error())
		return
	}
	s.text.Load(string(body), time.Now())
	httputil.WriteJSONOK(w, map[string]int{"bytes": len(body)})
}

func formInt(r *http.Request, key string, def int) (int, error) {
	v := r.FormValue(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, errors.New("invalid " + key)
	}
	return n, nil
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, status and duration. Preview polls
// are frequent, so successful image fetches are not logged.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		if r.URL.Path == "/preview.png" && lrw.statusCode == http.StatusOK {
			return
		}
		log.Printf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}
