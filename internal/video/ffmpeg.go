package video

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"strings"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// ffmpegEncoder pipes raw rgb24 frames into an ffmpeg process.
type ffmpegEncoder struct {
	w, h   int
	pipe   *io.PipeWriter
	done   chan error
	stderr *bytes.Buffer
	buf    []byte
	closed bool
}

// NewFFmpegEncoder starts ffmpeg writing an H.264 mp4 at path. Frames of a
// different size than w x h are rejected.
func NewFFmpegEncoder(ctx context.Context, path string, w, h, fps int) (Encoder, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("invalid frame size %dx%d", w, h)
	}
	if fps <= 0 {
		return nil, fmt.Errorf("invalid frame rate %d", fps)
	}
	pr, pw := io.Pipe()
	enc := &ffmpegEncoder{
		w:      w,
		h:      h,
		pipe:   pw,
		done:   make(chan error, 1),
		stderr: &bytes.Buffer{},
		buf:    make([]byte, w*h*3),
	}

	stream := ffmpeg.Input("pipe:", ffmpeg.KwArgs{
		"format":    "rawvideo",
		"pix_fmt":   "rgb24",
		"s":         fmt.Sprintf("%dx%d", w, h),
		"framerate": fps,
	}).Output(path, ffmpeg.KwArgs{
		"vcodec":  "libx264",
		"pix_fmt": "yuv420p",
		// yuv420p needs even dimensions.
		"vf": "pad=ceil(iw/2)*2:ceil(ih/2)*2",
	}).OverWriteOutput().WithInput(pr).WithErrorOutput(enc.stderr)
	stream.Context = ctx

	go func() {
		err := stream.Run()
		// Unblock any pending write if ffmpeg exits early.
		pr.CloseWithError(io.ErrClosedPipe)
		enc.done <- err
	}()
	return enc, nil
}

func (e *ffmpegEncoder) WriteFrame(img image.Image) error {
	if e.closed {
		return ErrClosed
	}
	b := img.Bounds()
	if b.Dx() != e.w || b.Dy() != e.h {
		return fmt.Errorf("frame size %dx%d does not match stream %dx%d", b.Dx(), b.Dy(), e.w, e.h)
	}
	packRGB24(e.buf, img)
	if _, err := e.pipe.Write(e.buf); err != nil {
		return fmt.Errorf("write frame to ffmpeg: %w", err)
	}
	return nil
}

func (e *ffmpegEncoder) Close() error {
	if e.closed {
		return ErrClosed
	}
	e.closed = true
	e.pipe.Close()
	if err := <-e.done; err != nil {
		return fmt.Errorf("ffmpeg: %w: %s", err, lastLine(e.stderr.String()))
	}
	return nil
}

// packRGB24 writes img as tightly packed rgb24 into dst.
func packRGB24(dst []byte, img image.Image) {
	b := img.Bounds()
	i := 0
	if rgba, ok := img.(*image.RGBA); ok {
		for y := b.Min.Y; y < b.Max.Y; y++ {
			row := rgba.Pix[rgba.PixOffset(b.Min.X, y):]
			for x := 0; x < b.Dx(); x++ {
				dst[i], dst[i+1], dst[i+2] = row[x*4], row[x*4+1], row[x*4+2]
				i += 3
			}
		}
		return
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			dst[i], dst[i+1], dst[i+2] = byte(r>>8), byte(g>>8), byte(bl>>8)
			i += 3
		}
	}
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}
