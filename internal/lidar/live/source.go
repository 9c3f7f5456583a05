package live

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/banshee-data/sweepview/internal/lidar"
	"github.com/banshee-data/sweepview/internal/lidar/l2frames"
	"github.com/banshee-data/sweepview/internal/lidar/parse"
	"github.com/banshee-data/sweepview/internal/lidar/replay"
)

// ErrNoData means there is nothing to show this tick.
var ErrNoData = errors.New("no channel data")

// ChannelSource yields the sweep to draw on each tick.
type ChannelSource interface {
	Channels(ctx context.Context) (l2frames.Frame, error)
}

// StaticSource serves arrays pushed by a host. Until the first Set it
// reports ErrNoData.
type StaticSource struct {
	mu    sync.RWMutex
	frame l2frames.Frame
	set   bool
}

// NewStaticSource returns an empty StaticSource.
func NewStaticSource() *StaticSource { return &StaticSource{} }

// Set replaces the served sweep. Arrays are used as given, without the
// sensor angle correction applied to recorded files.
func (s *StaticSource) Set(radius, angle [l2frames.NumSensors][]float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frame = l2frames.Frame{Radius: radius, Angle: angle}
	s.set = true
}

// SetFrame replaces the served sweep with f.
func (s *StaticSource) SetFrame(f l2frames.Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frame = f
	s.set = true
}

// Channels implements ChannelSource.
func (s *StaticSource) Channels(context.Context) (l2frames.Frame, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.set || s.frame.Empty() {
		return l2frames.Frame{}, ErrNoData
	}
	return s.frame, nil
}

// ReplaySource plays a recorded file frame by frame, wrapping at the end.
// The file is re-checked every tick, so edits restart playback from frame 0.
type ReplaySource struct {
	Cache *replay.Cache
	Path  string
}

// NewReplaySource returns a source replaying path through cache.
func NewReplaySource(cache *replay.Cache, path string) *ReplaySource {
	return &ReplaySource{Cache: cache, Path: path}
}

// Channels implements ChannelSource.
func (s *ReplaySource) Channels(ctx context.Context) (l2frames.Frame, error) {
	if err := ctx.Err(); err != nil {
		return l2frames.Frame{}, err
	}
	if _, err := s.Cache.Sync(s.Path); err != nil {
		return l2frames.Frame{}, fmt.Errorf("%w: %v", ErrNoData, err)
	}
	f, ok := s.Cache.Next()
	if !ok {
		return l2frames.Frame{}, ErrNoData
	}
	return f, nil
}

// TextReplaySource replays a .chan text buffer held in memory, such as one
// read from stdin or uploaded by a host. Load replaces the buffer and
// restarts playback.
type TextReplaySource struct {
	Cache *replay.Cache
	ID    string

	mu     sync.RWMutex
	text   string
	gen    int
	loaded time.Time
}

// NewTextReplaySource returns an empty source; id names the buffer in logs.
func NewTextReplaySource(cache *replay.Cache, id string) *TextReplaySource {
	return &TextReplaySource{Cache: cache, ID: id}
}

// Load replaces the buffer.
func (s *TextReplaySource) Load(text string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.text, s.loaded = text, at
	s.gen++
}

// Channels implements ChannelSource.
func (s *TextReplaySource) Channels(ctx context.Context) (l2frames.Frame, error) {
	if err := ctx.Err(); err != nil {
		return l2frames.Frame{}, err
	}
	s.mu.RLock()
	text, gen, at := s.text, s.gen, s.loaded
	s.mu.RUnlock()
	if gen == 0 {
		return l2frames.Frame{}, ErrNoData
	}
	// Every Load gets its own key, so equal timestamps still reload.
	id := fmt.Sprintf("%s#%d", s.ID, gen)
	if _, err := s.Cache.SyncText(id, at, text); err != nil {
		return l2frames.Frame{}, fmt.Errorf("%w: %v", ErrNoData, err)
	}
	f, ok := s.Cache.Next()
	if !ok {
		return l2frames.Frame{}, ErrNoData
	}
	return f, nil
}

// LineSubscriber is the part of serialmux.SerialMux a SerialSource needs.
type LineSubscriber interface {
	Subscribe() (string, chan string)
	Unsubscribe(id string)
}

// SerialSource assembles frames from records streamed over a serial port
// and serves the most recent complete one.
type SerialSource struct {
	parseCfg parse.Config
	builder  *l2frames.FrameBuilder

	mu     sync.RWMutex
	latest l2frames.Frame
	ok     bool
	stats  parse.Stats
}

// NewSerialSource returns a source using the recorded-file corrections.
func NewSerialSource(parseCfg parse.Config, frameCfg l2frames.Config) *SerialSource {
	return &SerialSource{parseCfg: parseCfg, builder: l2frames.NewFrameBuilder(frameCfg)}
}

// Run consumes lines from sub until ctx is cancelled or the line channel
// closes.
func (s *SerialSource) Run(ctx context.Context, sub LineSubscriber) error {
	id, lines := sub.Subscribe()
	defer sub.Unsubscribe(id)
	defer s.dropPartial()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			s.HandleLine(line)
		}
	}
}

// HandleLine feeds one record line. Completed frames replace the served
// sweep; the frame in progress is never served.
func (s *SerialSource) HandleLine(line string) {
	sample, ok := parse.ParseLine(line, s.parseCfg)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.Lines++
	if !ok {
		s.stats.Skipped++
		return
	}
	s.stats.Valid++
	if f := s.builder.Add(sample); f != nil {
		s.latest = *f
		s.ok = true
	}
}

// dropPartial discards the sweep in progress so a later Run starts on a
// frame boundary.
func (s *SerialSource) dropPartial() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n := s.builder.Pending(); n > 0 {
		lidar.Diagf("serial: dropping %d samples of an incomplete sweep", n)
	}
	s.builder.Reset()
}

// Stats returns the line counters.
func (s *SerialSource) Stats() parse.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}

// Channels implements ChannelSource.
func (s *SerialSource) Channels(context.Context) (l2frames.Frame, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.ok {
		return l2frames.Frame{}, ErrNoData
	}
	return s.latest, nil
}
