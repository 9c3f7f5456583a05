// Package video writes ordered image sequences to a container.
package video

import (
	"context"
	"errors"
	"image"
)

// ErrClosed is returned when writing to a closed encoder.
var ErrClosed = errors.New("video: encoder closed")

// Encoder accepts frames in presentation order. Close flushes and finalizes
// the output; it must be called exactly once.
type Encoder interface {
	WriteFrame(img image.Image) error
	Close() error
}

// Factory opens an encoder for a w x h stream at fps frames per second.
type Factory func(ctx context.Context, path string, w, h, fps int) (Encoder, error)
